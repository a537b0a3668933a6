package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"lintang/bmssp/pkg/concurrent"
	"lintang/bmssp/pkg/engine/routingalgorithm"
	"lintang/bmssp/pkg/kv"
	"lintang/bmssp/pkg/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type benchFlags struct {
	input     inputFlags
	runs      int
	algorithm string
	workers   int
}

func (c *cli) benchCommand() *cobra.Command {
	var f benchFlags
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "time runs from sources 0..runs-1",
		Long:  `bench runs the algorithm from the deterministic sources 0, 1, ..., runs-1 and reports per-run milliseconds. With --algorithm both, every source runs with BMSSP and Dijkstra and the distance maps are cross-validated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.bench(cmd, f)
		},
	}
	f.input.register(cmd)
	cmd.Flags().IntVarP(&f.runs, "runs", "n", 10, "number of runs")
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", "both", "bmssp, dijkstra or both")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel runs (0 = from config)")
	return cmd
}

func parseBenchAlgorithms(s string) ([]routingalgorithm.Algorithm, error) {
	if strings.EqualFold(strings.TrimSpace(s), "both") {
		return []routingalgorithm.Algorithm{routingalgorithm.AlgorithmBMSSP, routingalgorithm.AlgorithmDijkstra}, nil
	}
	alg, err := routingalgorithm.ParseAlgorithm(s)
	if err != nil {
		return nil, err
	}
	return []routingalgorithm.Algorithm{alg}, nil
}

func (c *cli) bench(cmd *cobra.Command, f benchFlags) error {
	ctx := cmd.Context()
	algs, err := parseBenchAlgorithms(f.algorithm)
	if err != nil {
		return err
	}
	if f.runs < 1 {
		return server.WrapErrorf(nil, server.ErrBadParamInput, "--runs must be at least 1")
	}
	workers := c.cfg.Engine.Workers
	if f.workers > 0 {
		workers = f.workers
	}

	store, err := c.openStore(f.input.db)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	nw, err := c.loadNetwork(ctx, f.input, store)
	if err != nil {
		return err
	}
	if nw.graph.VertexCount() == 0 {
		return server.WrapErrorf(nil, server.ErrEmptyGraph, "graph %s has no vertices", nw.name)
	}
	runs := f.runs
	if runs > nw.graph.VertexCount() {
		runs = nw.graph.VertexCount()
	}
	sources := make([]int32, runs)
	for i := range sources {
		sources[i] = int32(i)
	}

	route := routingalgorithm.NewRouteAlgorithm(nw.graph, c.params())
	out := cmd.OutOrStdout()
	results := make(map[routingalgorithm.Algorithm][]routingalgorithm.SourceResult, len(algs))
	for _, alg := range algs {
		res, err := route.RunMany(ctx, alg, sources, workers, c.log, nil)
		if err != nil {
			return err
		}
		results[alg] = res
		writeBenchReport(out, alg, res)

		if store != nil {
			items := make([]concurrent.SaveDistancesJobItem, 0, len(res))
			for _, r := range res {
				items = append(items, concurrent.SaveDistancesJobItem{
					KeyStr:    kv.DistanceKey(nw.name, string(alg), r.Source),
					Distances: r.Distances,
				})
			}
			if err := store.SaveDistancesBatch(items); err != nil {
				return err
			}
		}
	}

	if len(algs) == 2 {
		a, b := results[algs[0]], results[algs[1]]
		for i := range a {
			v, ok := firstMismatch(a[i].Distances, b[i].Distances)
			if !ok && v < 0 {
				return server.WrapErrorf(nil, server.ErrAlgorithmInvariantViolation,
					"source %d: distance maps have different lengths", a[i].Source)
			}
			if !ok {
				return server.WrapErrorf(nil, server.ErrAlgorithmInvariantViolation,
					"source %d: %s and %s disagree at vertex %d (%v vs %v)",
					a[i].Source, algs[0], algs[1], v, a[i].Distances[v], b[i].Distances[v])
			}
		}
		fmt.Fprintf(out, "cross-validation: %d sources, distance maps identical\n", len(a))
		c.log.Info("bench cross-validation passed", zap.Int("sources", len(a)))
	}
	return nil
}

func writeBenchReport(w io.Writer, alg routingalgorithm.Algorithm, res []routingalgorithm.SourceResult) {
	millis := make([]float64, 0, len(res))
	var relaxations int64
	for _, r := range res {
		millis = append(millis, float64(r.Stats.Duration.Microseconds())/1000.0)
		relaxations += r.Stats.Relaxations
	}

	fmt.Fprintf(w, "%s per-run ms: [", alg)
	for i, ms := range millis {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}
		fmt.Fprintf(w, "%.3f", ms)
	}
	fmt.Fprintln(w, "]")

	mean, median := meanMedian(millis)
	fmt.Fprintf(w, "%s runs: %d, mean ms: %.3f, median ms: %.3f, relaxations: %d\n",
		alg, len(res), mean, median, relaxations)
}

func meanMedian(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	sum := 0.0
	for _, x := range sorted {
		sum += x
	}
	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return sum / float64(len(sorted)), median
}

// firstMismatch returns the first vertex where a and b differ, or ok when they are identical.
// vertex -1 with !ok means the lengths differ.
func firstMismatch(a, b []float64) (int, bool) {
	if len(a) != len(b) {
		return -1, false
	}
	for i := range a {
		if a[i] != b[i] {
			return i, false
		}
	}
	return -1, true
}
