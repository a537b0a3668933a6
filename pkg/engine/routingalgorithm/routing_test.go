package routingalgorithm_test

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"

	"lintang/bmssp/pkg/datastructure"
	"lintang/bmssp/pkg/engine/routingalgorithm"
	"lintang/bmssp/pkg/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var algorithms = []routingalgorithm.Algorithm{routingalgorithm.AlgorithmDijkstra, routingalgorithm.AlgorithmBMSSP}

func buildGraph(t *testing.T, n int, edges []datastructure.Edge) *datastructure.Graph {
	t.Helper()
	g, err := datastructure.NewGraph(n, edges)
	require.NoError(t, err)
	return g
}

func run(t *testing.T, g *datastructure.Graph, params routingalgorithm.Params, alg routingalgorithm.Algorithm, source int32) routingalgorithm.DistanceMap {
	t.Helper()
	rt := routingalgorithm.NewRouteAlgorithm(g, params)
	dist, err := rt.Run(routingalgorithm.NewRunContext(context.Background()), alg, source)
	require.NoError(t, err)
	return dist
}

// randomGraph sparse directed graph, bobot integer kecil supaya banyak jarak kembar dan edge 0.
func randomGraph(t *testing.T, rng *rand.Rand, n, m int, maxWeight int, integer bool) *datastructure.Graph {
	t.Helper()
	edges := make([]datastructure.Edge, 0, m)
	for i := 0; i < m; i++ {
		var w float64
		if integer {
			w = float64(rng.Intn(maxWeight + 1))
		} else {
			w = rng.Float64() * float64(maxWeight)
		}
		edges = append(edges, datastructure.Edge{
			From:   int32(rng.Intn(n)),
			To:     int32(rng.Intn(n)),
			Weight: w,
		})
	}
	return buildGraph(t, n, edges)
}

func gridGraph(t *testing.T, rows, cols int) *datastructure.Graph {
	t.Helper()
	id := func(r, c int) int32 { return int32(r*cols + c) }
	edges := make([]datastructure.Edge, 0)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols {
				edges = append(edges, datastructure.Edge{From: id(r, c), To: id(r, c+1), Weight: 1},
					datastructure.Edge{From: id(r, c+1), To: id(r, c), Weight: 1})
			}
			if r+1 < rows {
				edges = append(edges, datastructure.Edge{From: id(r, c), To: id(r+1, c), Weight: 1},
					datastructure.Edge{From: id(r+1, c), To: id(r, c), Weight: 1})
			}
		}
	}
	return buildGraph(t, rows*cols, edges)
}

func TestScenarios(t *testing.T) {
	inf := math.Inf(1)

	tests := []struct {
		name   string
		n      int
		edges  []datastructure.Edge
		source int32
		want   routingalgorithm.DistanceMap
	}{
		{
			name:   "single vertex",
			n:      1,
			source: 0,
			want:   routingalgorithm.DistanceMap{0},
		},
		{
			name:   "disconnected pair",
			n:      2,
			source: 0,
			want:   routingalgorithm.DistanceMap{0, inf},
		},
		{
			name:   "path graph",
			n:      4,
			edges:  []datastructure.Edge{{From: 0, To: 1, Weight: 2}, {From: 1, To: 2, Weight: 3}, {From: 2, To: 3, Weight: 1}},
			source: 0,
			want:   routingalgorithm.DistanceMap{0, 2, 5, 6},
		},
		{
			name: "sample graph with zero weight edge",
			n:    11,
			edges: []datastructure.Edge{
				{From: 0, To: 1, Weight: 0}, {From: 0, To: 2, Weight: 1}, {From: 0, To: 7, Weight: 5},
				{From: 1, To: 3, Weight: 3}, {From: 1, To: 4, Weight: 2},
				{From: 2, To: 4, Weight: 3}, {From: 2, To: 5, Weight: 2},
				{From: 3, To: 6, Weight: 2},
				{From: 4, To: 6, Weight: 2},
				{From: 6, To: 8, Weight: 3},
				{From: 7, To: 9, Weight: 2},
				{From: 8, To: 10, Weight: 1},
				{From: 9, To: 10, Weight: 2},
			},
			source: 0,
			want:   routingalgorithm.DistanceMap{0, 0, 1, 3, 2, 3, 4, 5, 7, 7, 8},
		},
		{
			name:   "source in the middle of a directed path",
			n:      4,
			edges:  []datastructure.Edge{{From: 0, To: 1, Weight: 2}, {From: 1, To: 2, Weight: 3}, {From: 2, To: 3, Weight: 1}},
			source: 2,
			want:   routingalgorithm.DistanceMap{inf, inf, 0, 1},
		},
		{
			name: "zero weight cycle",
			n:    4,
			edges: []datastructure.Edge{
				{From: 0, To: 1, Weight: 0}, {From: 1, To: 2, Weight: 0}, {From: 2, To: 0, Weight: 0}, {From: 2, To: 3, Weight: 4},
			},
			source: 1,
			want:   routingalgorithm.DistanceMap{0, 0, 0, 4},
		},
	}

	for _, tt := range tests {
		for _, alg := range algorithms {
			t.Run(tt.name+"/"+string(alg), func(t *testing.T) {
				g := buildGraph(t, tt.n, tt.edges)
				got := run(t, g, routingalgorithm.Params{}, alg, tt.source)
				assert.Equal(t, tt.want, got)
			})
		}
	}
}

func TestOracleEquivalence(t *testing.T) {
	paramSets := []routingalgorithm.Params{
		{},
		{K: 1, T: 1},
		{K: 2, T: 1},
		{K: 2, T: 1, PivotThreshold: 1},
		{K: 3, T: 2},
		{K: 3, T: 2, PivotThreshold: 4},
		{K: 4, T: 3},
		{K: 2, T: 5},
	}

	sizes := []struct {
		n, m int
	}{
		{2, 2},
		{10, 25},
		{60, 150},
		{300, 900},
		{1500, 4000},
	}

	for seed := int64(1); seed <= 4; seed++ {
		for _, size := range sizes {
			for _, integer := range []bool{true, false} {
				rng := rand.New(rand.NewSource(seed*1000 + int64(size.n)))
				g := randomGraph(t, rng, size.n, size.m, 4, integer)
				source := int32(rng.Intn(size.n))
				want := run(t, g, routingalgorithm.Params{}, routingalgorithm.AlgorithmDijkstra, source)

				for _, p := range paramSets {
					got := run(t, g, p, routingalgorithm.AlgorithmBMSSP, source)
					assert.Equal(t, want, got, "seed=%d n=%d integer=%v params=%+v", seed, size.n, integer, p)
				}
			}
		}
	}

	t.Run("unit weight grid", func(t *testing.T) {
		g := gridGraph(t, 30, 30)
		want := run(t, g, routingalgorithm.Params{}, routingalgorithm.AlgorithmDijkstra, 0)
		for _, p := range paramSets {
			got := run(t, g, p, routingalgorithm.AlgorithmBMSSP, 0)
			assert.Equal(t, want, got, "params=%+v", p)
		}
	})

	t.Run("all zero weights", func(t *testing.T) {
		rng := rand.New(rand.NewSource(99))
		g := randomGraph(t, rng, 400, 1200, 0, true)
		want := run(t, g, routingalgorithm.Params{}, routingalgorithm.AlgorithmDijkstra, 0)
		for _, p := range paramSets {
			got := run(t, g, p, routingalgorithm.AlgorithmBMSSP, 0)
			assert.Equal(t, want, got, "params=%+v", p)
		}
	})
}

func TestDistanceProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := randomGraph(t, rng, 800, 2500, 10, false)

	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			dist := run(t, g, routingalgorithm.Params{}, alg, 3)
			assert.Equal(t, 0.0, dist[3])

			for _, e := range g.Edges() {
				if !dist.Reached(e.From) {
					continue
				}
				require.True(t, dist.Reached(e.To), "edge %d->%d leaves the reached set", e.From, e.To)
				assert.LessOrEqual(t, dist[e.To], dist[e.From]+e.Weight)
			}
			for _, d := range dist {
				if !math.IsInf(d, 1) {
					assert.GreaterOrEqual(t, d, 0.0)
				}
			}

			again := run(t, g, routingalgorithm.Params{}, alg, 3)
			for i := range dist {
				assert.Equal(t, math.Float64bits(dist[i]), math.Float64bits(again[i]))
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	g := buildGraph(t, 3, []datastructure.Edge{{From: 0, To: 1, Weight: 1}})
	empty := buildGraph(t, 0, nil)

	t.Run("empty graph", func(t *testing.T) {
		for _, alg := range algorithms {
			_, err := routingalgorithm.NewRouteAlgorithm(empty, routingalgorithm.Params{}).Run(nil, alg, 0)
			assert.ErrorIs(t, err, server.ErrEmptyGraph)
		}
	})

	t.Run("source out of range", func(t *testing.T) {
		rt := routingalgorithm.NewRouteAlgorithm(g, routingalgorithm.Params{})
		for _, src := range []int32{-1, 3} {
			_, err := rt.Run(nil, routingalgorithm.AlgorithmBMSSP, src)
			assert.ErrorIs(t, err, server.ErrVertexOutOfRange)
		}
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := routingalgorithm.ParseAlgorithm("bellman-ford")
		assert.ErrorIs(t, err, server.ErrBadParamInput)

		alg, err := routingalgorithm.ParseAlgorithm(" BMSSP ")
		require.NoError(t, err)
		assert.Equal(t, routingalgorithm.AlgorithmBMSSP, alg)

		_, err = routingalgorithm.NewRouteAlgorithm(g, routingalgorithm.Params{}).Run(nil, "astar", 0)
		assert.ErrorIs(t, err, server.ErrBadParamInput)
	})

	t.Run("params that cannot cover the graph", func(t *testing.T) {
		rng := rand.New(rand.NewSource(2))
		big := randomGraph(t, rng, 100, 200, 3, true)
		_, err := routingalgorithm.NewRouteAlgorithm(big, routingalgorithm.Params{K: 2, T: 1, MaxLevel: 2}).
			Run(nil, routingalgorithm.AlgorithmBMSSP, 0)
		assert.ErrorIs(t, err, server.ErrBadParamInput)

		_, err = routingalgorithm.NewRouteAlgorithm(big, routingalgorithm.Params{K: 2, PivotThreshold: 5}).
			Run(nil, routingalgorithm.AlgorithmBMSSP, 0)
		assert.ErrorIs(t, err, server.ErrBadParamInput)
	})
}

func TestCancellation(t *testing.T) {
	g := gridGraph(t, 20, 20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			dist, err := routingalgorithm.NewRouteAlgorithm(g, routingalgorithm.Params{}).
				Run(routingalgorithm.NewRunContext(ctx), alg, 0)
			assert.ErrorIs(t, err, server.ErrCancelled)
			assert.ErrorIs(t, err, context.Canceled)
			assert.Nil(t, dist)
		})
	}
}

type recordingObserver struct {
	mu   sync.Mutex
	runs []routingalgorithm.Stats
	errs []error
}

func (o *recordingObserver) ObserveRun(_ routingalgorithm.Algorithm, stats routingalgorithm.Stats, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, stats)
	o.errs = append(o.errs, err)
}

func TestStatsAndObserver(t *testing.T) {
	g := gridGraph(t, 25, 25)
	obs := &recordingObserver{}
	rc := routingalgorithm.NewRunContext(context.Background(), routingalgorithm.WithObserver(obs))

	_, err := routingalgorithm.NewRouteAlgorithm(g, routingalgorithm.Params{}).Run(rc, routingalgorithm.AlgorithmBMSSP, 0)
	require.NoError(t, err)

	stats := rc.Stats()
	assert.Greater(t, stats.Relaxations, int64(0))
	assert.Greater(t, stats.Pulls, int64(0))
	assert.Greater(t, stats.BaseCases, int64(0))
	assert.Greater(t, stats.FindPivotsCalls, int64(0))
	assert.Greater(t, stats.MaxDepth, 0)

	require.Len(t, obs.runs, 1)
	assert.NoError(t, obs.errs[0])
	assert.Equal(t, stats, obs.runs[0])
}

func TestRunMany(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g := randomGraph(t, rng, 200, 600, 5, true)
	rt := routingalgorithm.NewRouteAlgorithm(g, routingalgorithm.Params{})
	sources := []int32{7, 3, 150, 3, 0}

	obs := &recordingObserver{}
	results, err := rt.RunMany(context.Background(), routingalgorithm.AlgorithmBMSSP, sources, 3, nil, obs)
	require.NoError(t, err)
	require.Len(t, results, len(sources))
	assert.Len(t, obs.runs, len(sources))

	for i, res := range results {
		assert.Equal(t, sources[i], res.Source)
		want := run(t, g, routingalgorithm.Params{}, routingalgorithm.AlgorithmDijkstra, res.Source)
		assert.Equal(t, want, res.Distances)
	}

	_, err = rt.RunMany(context.Background(), routingalgorithm.AlgorithmDijkstra, []int32{0, 500}, 2, nil, nil)
	assert.ErrorIs(t, err, server.ErrVertexOutOfRange)
}

func TestDefaultParams(t *testing.T) {
	tests := []struct {
		n    int
		want routingalgorithm.Params
	}{
		{n: 1, want: routingalgorithm.Params{K: 2, T: 1, PivotThreshold: 2, MaxLevel: 1}},
		{n: 1024, want: routingalgorithm.Params{K: 2, T: 4, PivotThreshold: 2, MaxLevel: 3}},
		{n: 1 << 20, want: routingalgorithm.Params{K: 2, T: 7, PivotThreshold: 2, MaxLevel: 3}},
	}
	for _, tt := range tests {
		got := routingalgorithm.DefaultParams(tt.n)
		assert.Equal(t, tt.want, got, "n=%d", tt.n)
		assert.NoError(t, got.Validate(tt.n))
	}
}

// relaxasi BMSSP dibanding dijkstra di graph sparse yang makin besar.
// dijkstra merelaksasi out-edge tiap vertex reachable tepat sekali, jadi itu batas bawah;
// BMSSP merelaksasi ulang per level rekursi dan per round findPivots.
func TestRelaxationScaling(t *testing.T) {
	sizes := []int{1000, 4000, 16000}
	prevRatio := 0.0
	for _, n := range sizes {
		rng := rand.New(rand.NewSource(int64(n)))
		g := randomGraph(t, rng, n, 4*n, 10, false)
		rt := routingalgorithm.NewRouteAlgorithm(g, routingalgorithm.Params{})
		params, err := routingalgorithm.Params{}.Resolve(n)
		require.NoError(t, err)

		relax := make(map[routingalgorithm.Algorithm]int64, 2)
		dists := make(map[routingalgorithm.Algorithm]routingalgorithm.DistanceMap, 2)
		for _, alg := range algorithms {
			rc := routingalgorithm.NewRunContext(context.Background())
			dist, err := rt.Run(rc, alg, 0)
			require.NoError(t, err)
			relax[alg] = rc.Stats().Relaxations
			dists[alg] = dist
		}
		require.Equal(t, dists[routingalgorithm.AlgorithmDijkstra], dists[routingalgorithm.AlgorithmBMSSP], "n=%d", n)

		dij := relax[routingalgorithm.AlgorithmDijkstra]
		bm := relax[routingalgorithm.AlgorithmBMSSP]
		require.Greater(t, dij, int64(0))
		ratio := float64(bm) / float64(dij)
		t.Logf("n=%d params=%+v dijkstra=%d bmssp=%d ratio=%.2f", n, params, dij, bm, ratio)

		// tiap level paling banyak satu relaksasi ulang di loop U_i plus k round findPivots, ditambah base case
		maxRatio := float64((params.MaxLevel + 1) * (params.K + 2))
		assert.LessOrEqual(t, ratio, maxRatio, "n=%d", n)
		if prevRatio > 0 {
			// rasio tidak boleh meledak seiring n
			assert.Less(t, ratio, 2*prevRatio, "n=%d", n)
		}
		prevRatio = ratio
	}
}

func TestBMSSPReuseAcrossSources(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	g := randomGraph(t, rng, 500, 1500, 3, true)
	rt := routingalgorithm.NewRouteAlgorithm(g, routingalgorithm.Params{K: 2, T: 1})
	for source := int32(0); source < 500; source += 7 {
		got, err := rt.Run(routingalgorithm.NewRunContext(context.Background()), routingalgorithm.AlgorithmBMSSP, source)
		require.NoError(t, err)
		want := run(t, g, routingalgorithm.Params{}, routingalgorithm.AlgorithmDijkstra, source)
		assert.Equal(t, want, got, "source=%d", source)
	}
}
