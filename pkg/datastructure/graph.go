package datastructure

import (
	"math"

	"lintang/bmssp/pkg/server"
)

// Edge directed edge (from, to, weight). jalan dua arah = dua Edge.
type Edge struct {
	From   int32
	To     int32
	Weight float64
}

// EdgePair outgoing edge dari sebuah vertex.
type EdgePair struct {
	ToNodeIDX int32
	Weight    float64
}

// EdgeList input dari collaborator (osm parser / csv reader) sebelum jadi Graph.
type EdgeList struct {
	VertexCount int
	Edges       []Edge
}

/*
Graph adjacency list immutable dalam bentuk compressed sparse row.
outEdges[firstOut[v]:firstOut[v+1]] = outgoing edges dari v, urutannya sama dengan urutan di edge list input.
setelah NewGraph tidak ada mutasi, aman dibaca dari banyak goroutine sekaligus.
*/
type Graph struct {
	firstOut []int32
	outEdges []EdgePair
}

// NewGraph validates every edge and builds the adjacency.
// Negative, NaN or infinite weights fail with ErrInvalidWeight; endpoints outside [0, n) fail with ErrVertexOutOfRange.
func NewGraph(n int, edges []Edge) (*Graph, error) {
	if n < 0 || n > math.MaxInt32 {
		return nil, server.WrapErrorf(nil, server.ErrVertexOutOfRange, "vertex count %d not representable", n)
	}
	for i, e := range edges {
		if e.Weight < 0 || math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			return nil, server.WrapErrorf(nil, server.ErrInvalidWeight, "edge %d (%d->%d) has weight %v", i, e.From, e.To, e.Weight)
		}
		if e.From < 0 || int(e.From) >= n || e.To < 0 || int(e.To) >= n {
			return nil, server.WrapErrorf(nil, server.ErrVertexOutOfRange, "edge %d (%d->%d) references vertex outside [0, %d)", i, e.From, e.To, n)
		}
	}

	firstOut := make([]int32, n+1)
	for _, e := range edges {
		firstOut[e.From+1]++
	}
	for v := 0; v < n; v++ {
		firstOut[v+1] += firstOut[v]
	}

	outEdges := make([]EdgePair, len(edges))
	next := make([]int32, n)
	copy(next, firstOut[:n])
	for _, e := range edges {
		outEdges[next[e.From]] = EdgePair{ToNodeIDX: e.To, Weight: e.Weight}
		next[e.From]++
	}

	return &Graph{firstOut: firstOut, outEdges: outEdges}, nil
}

// NewGraphFromEdgeList shorthand buat EdgeList dari collaborator.
func NewGraphFromEdgeList(el EdgeList) (*Graph, error) {
	return NewGraph(el.VertexCount, el.Edges)
}

// Neighbors returns the outgoing edges of v. The slice is shared, callers must not modify it.
func (g *Graph) Neighbors(v int32) []EdgePair {
	return g.outEdges[g.firstOut[v]:g.firstOut[v+1]]
}

func (g *Graph) VertexCount() int {
	return len(g.firstOut) - 1
}

func (g *Graph) EdgeCount() int {
	return len(g.outEdges)
}

func (g *Graph) IsValidVertex(v int32) bool {
	return v >= 0 && int(v) < g.VertexCount()
}

// Edges returns the graph back as an edge list, grouped by source vertex.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.outEdges))
	for v := 0; v < g.VertexCount(); v++ {
		for _, e := range g.Neighbors(int32(v)) {
			edges = append(edges, Edge{From: int32(v), To: e.ToNodeIDX, Weight: e.Weight})
		}
	}
	return edges
}
