package aggregator

import (
	"math"
	"sort"
	"strings"

	"lintang/bmssp/pkg/server"
)

type Order string

const (
	// ByVertex urut vertex id naik
	ByVertex Order = "vertex"
	// ByDistance urut jarak naik, jarak sama diurutkan vertex id. unreached di akhir.
	ByDistance Order = "distance"
)

func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", ByVertex:
		return ByVertex, nil
	case ByDistance:
		return ByDistance, nil
	}
	return "", server.WrapErrorf(nil, server.ErrBadParamInput, "unknown order %q, want vertex or distance", s)
}

type Options struct {
	IncludeUnreachable bool
	Order              Order
	// NodeIDs optional vertex -> id eksternal (misal osm node id). nil = pakai vertex id.
	NodeIDs []int64
	// Limit 0 = semua record
	Limit int
}

// Record satu baris output. Distance = +Inf untuk vertex yang tidak reachable.
type Record struct {
	VertexID int32
	NodeID   int64
	Distance float64
}

func (r Record) Reached() bool {
	return !math.IsInf(r.Distance, 1)
}

type Summary struct {
	NodeCount      int
	ReachableCount int
	MaxDistance    float64
}

// Aggregate turns a distance map into ordered output records.
func Aggregate(dist []float64, opts Options) ([]Record, error) {
	if opts.NodeIDs != nil && len(opts.NodeIDs) != len(dist) {
		return nil, server.WrapErrorf(nil, server.ErrBadParamInput, "node id mapping has %d entries for %d vertices", len(opts.NodeIDs), len(dist))
	}

	records := make([]Record, 0, len(dist))
	for v, d := range dist {
		if math.IsInf(d, 1) && !opts.IncludeUnreachable {
			continue
		}
		nodeID := int64(v)
		if opts.NodeIDs != nil {
			nodeID = opts.NodeIDs[v]
		}
		records = append(records, Record{VertexID: int32(v), NodeID: nodeID, Distance: d})
	}

	switch opts.Order {
	case "", ByVertex:
	case ByDistance:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Distance != records[j].Distance {
				return records[i].Distance < records[j].Distance
			}
			return records[i].VertexID < records[j].VertexID
		})
	default:
		return nil, server.WrapErrorf(nil, server.ErrBadParamInput, "unknown order %q", opts.Order)
	}

	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}
	return records, nil
}

func Summarize(dist []float64) Summary {
	s := Summary{NodeCount: len(dist)}
	for _, d := range dist {
		if math.IsInf(d, 1) {
			continue
		}
		s.ReachableCount++
		if d > s.MaxDistance {
			s.MaxDistance = d
		}
	}
	return s
}
