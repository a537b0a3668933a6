package routingalgorithm

import (
	"math"
	"strings"
	"time"

	"lintang/bmssp/pkg/datastructure"
	"lintang/bmssp/pkg/server"

	"go.uber.org/zap"
)

type Algorithm string

const (
	AlgorithmDijkstra Algorithm = "dijkstra"
	AlgorithmBMSSP    Algorithm = "bmssp"
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case AlgorithmDijkstra:
		return AlgorithmDijkstra, nil
	case AlgorithmBMSSP:
		return AlgorithmBMSSP, nil
	}
	return "", server.WrapErrorf(nil, server.ErrBadParamInput, "unknown algorithm %q, want dijkstra or bmssp", s)
}

// DistanceMap jarak dari source per vertex. +Inf = unreached.
type DistanceMap []float64

func (d DistanceMap) Reached(v int32) bool {
	return !math.IsInf(d[v], 1)
}

// ReachedCount jumlah vertex dengan jarak finite.
func (d DistanceMap) ReachedCount() int {
	c := 0
	for _, x := range d {
		if !math.IsInf(x, 1) {
			c++
		}
	}
	return c
}

// Graph read-only adjacency yang dibutuhkan kedua algoritma.
type Graph interface {
	Neighbors(v int32) []datastructure.EdgePair
	VertexCount() int
}

type RouteAlgorithm struct {
	g      Graph
	params Params
}

// NewRouteAlgorithm. params bernilai 0 diturunkan dari jumlah vertex graph saat Run.
func NewRouteAlgorithm(g Graph, params Params) *RouteAlgorithm {
	return &RouteAlgorithm{g: g, params: params}
}

func (rt *RouteAlgorithm) Graph() Graph {
	return rt.g
}

// Params returns the parameters BMSSP will run with on this graph.
func (rt *RouteAlgorithm) Params() (Params, error) {
	return rt.params.Resolve(rt.g.VertexCount())
}

// Run computes single-source distances from source with alg.
// Invalid input fails before any work with ErrEmptyGraph, ErrVertexOutOfRange or ErrBadParamInput.
// A cancelled run returns ErrCancelled and no distances.
func (rt *RouteAlgorithm) Run(rc *RunContext, alg Algorithm, source int32) (DistanceMap, error) {
	if rc == nil {
		rc = NewRunContext(nil)
	}
	start := time.Now()

	dist, err := rt.run(rc, alg, source)
	rc.finish(alg, start, err)
	if err != nil {
		return nil, err
	}

	rc.log.Debug("sssp run done",
		zap.String("algorithm", string(alg)),
		zap.Int32("source", source),
		zap.Int("reached", dist.ReachedCount()),
		zap.Int64("relaxations", rc.stats.Relaxations),
		zap.Int64("pulls", rc.stats.Pulls),
		zap.Int64("base_cases", rc.stats.BaseCases),
		zap.Int("max_depth", rc.stats.MaxDepth),
		zap.Duration("duration", rc.stats.Duration),
	)
	return dist, nil
}

func (rt *RouteAlgorithm) run(rc *RunContext, alg Algorithm, source int32) (DistanceMap, error) {
	n := rt.g.VertexCount()
	if n == 0 {
		return nil, server.WrapErrorf(nil, server.ErrEmptyGraph, "graph has no vertices")
	}
	if source < 0 || int(source) >= n {
		return nil, server.WrapErrorf(nil, server.ErrVertexOutOfRange, "source %d outside [0, %d)", source, n)
	}

	switch alg {
	case AlgorithmDijkstra:
		return rt.ShortestPathDijkstra(rc, source)
	case AlgorithmBMSSP:
		params, err := rt.params.Resolve(n)
		if err != nil {
			return nil, err
		}
		return rt.ShortestPathBMSSP(rc, source, params)
	}
	return nil, server.WrapErrorf(nil, server.ErrBadParamInput, "unknown algorithm %q", alg)
}

func newDistanceMap(n int, source int32) DistanceMap {
	dist := make(DistanceMap, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[source] = 0
	return dist
}
