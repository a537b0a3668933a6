package snap

import (
	"math"

	"lintang/bmssp/pkg/geo"
	"lintang/bmssp/pkg/server"

	"github.com/dhconnelly/rtreego"
)

var tol = 0.0001

// candidateCount jumlah kandidat dari rtree (jarak euclid derajat) yang diranking ulang pakai jarak s2.
const candidateCount = 8

type vertexRect struct {
	location rtreego.Point
	vertex   int32
	coord    geo.Coordinate
}

func (v *vertexRect) Bounds() rtreego.Rect {
	return v.location.ToRect(tol)
}

// Snapper nearest graph vertex dari sebuah koordinat.
type Snapper struct {
	tree  *rtreego.Rtree
	count int
}

// NewSnapper indexes coords[v] for every vertex v.
func NewSnapper(coords []geo.Coordinate) *Snapper {
	// 2 dimension, 25 min entries dan 50 max entries
	tree := rtreego.NewTree(2, 25, 50)
	for v, c := range coords {
		tree.Insert(&vertexRect{
			location: rtreego.Point{c.Lat, c.Lon},
			vertex:   int32(v),
			coord:    c,
		})
	}
	return &Snapper{tree: tree, count: len(coords)}
}

// Nearest returns the vertex closest to c and its distance in meters.
func (s *Snapper) Nearest(c geo.Coordinate) (int32, float64, error) {
	if !c.Valid() {
		return -1, 0, server.WrapErrorf(nil, server.ErrBadParamInput, "coordinate (%v, %v) out of range", c.Lat, c.Lon)
	}
	if s.count == 0 {
		return -1, 0, server.WrapErrorf(nil, server.ErrNotFound, "no vertex to snap to")
	}

	best := int32(-1)
	bestDist := math.Inf(1)
	for _, obj := range s.tree.NearestNeighbors(candidateCount, rtreego.Point{c.Lat, c.Lon}) {
		vr, ok := obj.(*vertexRect)
		if !ok {
			continue
		}
		d := geo.S2DistanceMeters(c, vr.coord)
		if d < bestDist || (d == bestDist && vr.vertex < best) {
			best = vr.vertex
			bestDist = d
		}
	}
	if best < 0 {
		return -1, 0, server.WrapErrorf(nil, server.ErrNotFound, "no vertex near (%v, %v)", c.Lat, c.Lon)
	}
	return best, bestDist, nil
}
