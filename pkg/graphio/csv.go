package graphio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"lintang/bmssp/pkg/datastructure"
	"lintang/bmssp/pkg/engine/aggregator"
	"lintang/bmssp/pkg/server"
)

/*
ReadEdgeList membaca csv edge list dengan header, satu baris per directed edge: from,to,weight.
jumlah vertex = index terbesar + 1. validasi bobot dilakukan oleh datastructure.NewGraph.
*/
func ReadEdgeList(r io.Reader) (datastructure.EdgeList, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return datastructure.EdgeList{}, nil
		}
		return datastructure.EdgeList{}, server.WrapErrorf(err, server.ErrBadParamInput, "reading edge list header")
	}

	edges := make([]datastructure.Edge, 0)
	maxVertex := int64(-1)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return datastructure.EdgeList{}, server.WrapErrorf(err, server.ErrBadParamInput, "reading edge list")
		}
		line, _ := reader.FieldPos(0)

		from, err := parseVertex(record[0])
		if err != nil {
			return datastructure.EdgeList{}, server.WrapErrorf(err, server.ErrBadParamInput, "line %d: from", line)
		}
		to, err := parseVertex(record[1])
		if err != nil {
			return datastructure.EdgeList{}, server.WrapErrorf(err, server.ErrBadParamInput, "line %d: to", line)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return datastructure.EdgeList{}, server.WrapErrorf(err, server.ErrBadParamInput, "line %d: weight", line)
		}

		maxVertex = max(maxVertex, from, to)
		edges = append(edges, datastructure.Edge{From: int32(from), To: int32(to), Weight: weight})
	}

	return datastructure.EdgeList{VertexCount: int(maxVertex + 1), Edges: edges}, nil
}

func parseVertex(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, server.WrapErrorf(nil, server.ErrVertexOutOfRange, "negative vertex %d", v)
	}
	return v, nil
}

func ReadEdgeListFile(path string) (datastructure.EdgeList, error) {
	f, err := os.Open(path)
	if err != nil {
		return datastructure.EdgeList{}, server.WrapErrorf(err, server.ErrBadParamInput, "opening %s", path)
	}
	defer f.Close()
	return ReadEdgeList(f)
}

// FormatDistance 6 digit di belakang koma, "inf" untuk vertex yang tidak reachable.
func FormatDistance(d float64) string {
	if math.IsInf(d, 1) {
		return "inf"
	}
	return strconv.FormatFloat(d, 'f', 6, 64)
}

// WriteDistances menulis header node_id,distance_m lalu satu baris per record, urutan sesuai records.
func WriteDistances(w io.Writer, records []aggregator.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"node_id", "distance_m"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{strconv.FormatInt(r.NodeID, 10), FormatDistance(r.Distance)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteDistancesFile(path string, records []aggregator.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteDistances(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
