package routingalgorithm

import (
	"context"
	"time"

	"lintang/bmssp/pkg/server"

	"go.uber.org/zap"
)

// Stats counters dari satu run.
type Stats struct {
	Relaxations     int64
	Pulls           int64
	BaseCases       int64
	FindPivotsCalls int64
	MaxDepth        int
	Duration        time.Duration
}

// RunObserver dipanggil sekali setelah setiap run selesai, sukses ataupun gagal.
type RunObserver interface {
	ObserveRun(alg Algorithm, stats Stats, err error)
}

/*
RunContext state per run: cancellation, logger, observer, dan counters.
satu RunContext untuk satu run, jangan dipakai bersamaan di beberapa goroutine.
*/
type RunContext struct {
	ctx      context.Context
	log      *zap.Logger
	observer RunObserver
	stats    Stats
}

type RunOption func(*RunContext)

func WithLogger(log *zap.Logger) RunOption {
	return func(rc *RunContext) {
		if log != nil {
			rc.log = log
		}
	}
}

func WithObserver(o RunObserver) RunOption {
	return func(rc *RunContext) {
		rc.observer = o
	}
}

func NewRunContext(ctx context.Context, opts ...RunOption) *RunContext {
	if ctx == nil {
		ctx = context.Background()
	}
	rc := &RunContext{ctx: ctx, log: zap.NewNop()}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

func (rc *RunContext) Stats() Stats {
	return rc.stats
}

func (rc *RunContext) Context() context.Context {
	return rc.ctx
}

func (rc *RunContext) Logger() *zap.Logger {
	return rc.log
}

// cancelled returns ErrCancelled once the context is done.
func (rc *RunContext) cancelled() error {
	if err := rc.ctx.Err(); err != nil {
		return server.WrapErrorf(err, server.ErrCancelled, "run cancelled")
	}
	return nil
}

func (rc *RunContext) enter(depth int) {
	if depth > rc.stats.MaxDepth {
		rc.stats.MaxDepth = depth
	}
}

func (rc *RunContext) finish(alg Algorithm, start time.Time, err error) {
	rc.stats.Duration = time.Since(start)
	if rc.observer != nil {
		rc.observer.ObserveRun(alg, rc.stats, err)
	}
}
