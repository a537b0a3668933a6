package routingalgorithm

import (
	"context"
	"errors"

	"lintang/bmssp/pkg/concurrent"
	"lintang/bmssp/pkg/server"

	"go.uber.org/zap"
)

// SourceResult hasil satu source dari RunMany.
type SourceResult struct {
	Source    int32
	Distances DistanceMap
	Stats     Stats
	Err       error
}

/*
RunMany menjalankan alg dari banyak source secara paralel di atas graph yang sama (read-only).
setiap source punya RunContext sendiri. hasil diurutkan sesuai urutan sources.
error pertama (urutan sources) dikembalikan bersama semua hasil.
*/
func (rt *RouteAlgorithm) RunMany(ctx context.Context, alg Algorithm, sources []int32, numWorkers int,
	log *zap.Logger, observer RunObserver) ([]SourceResult, error) {
	if log == nil {
		log = zap.NewNop()
	}

	workers := concurrent.NewWorkerPool[concurrent.SourceJobItem, SourceResult](numWorkers, len(sources))
	for _, s := range sources {
		workers.AddJob(concurrent.SourceJobItem{Source: s})
	}
	workers.Close()

	workers.Start(func(job concurrent.SourceJobItem) SourceResult {
		rc := NewRunContext(ctx, WithLogger(log), WithObserver(observer))
		dist, err := rt.Run(rc, alg, job.Source)
		return SourceResult{Source: job.Source, Distances: dist, Stats: rc.Stats(), Err: err}
	})
	workers.Wait()

	bySource := make(map[int32][]SourceResult, len(sources))
	for res := range workers.CollectResults() {
		bySource[res.Source] = append(bySource[res.Source], res)
	}

	results := make([]SourceResult, 0, len(sources))
	for _, s := range sources {
		rs := bySource[s]
		results = append(results, rs[0])
		bySource[s] = rs[1:]
	}

	for _, r := range results {
		if r.Err != nil {
			if errors.Is(r.Err, server.ErrCancelled) {
				return results, r.Err
			}
			return results, server.WrapErrorf(r.Err, server.CodeOf(r.Err), "source %d", r.Source)
		}
	}
	return results, nil
}
