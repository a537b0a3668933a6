package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"lintang/bmssp/pkg/metrics"
	"lintang/bmssp/pkg/server"
	"lintang/bmssp/pkg/server/rest"
	"lintang/bmssp/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type serveFlags struct {
	input inputFlags
	addr  string
}

func (c *cli) serveCommand() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve distance queries over http",
		Long:  `serve loads the graph once and answers POST /api/sssp/distances, GET /api/sssp/graph and GET /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd, f)
		},
	}
	f.input.register(cmd)
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (c *cli) serve(cmd *cobra.Command, f serveFlags) error {
	ctx := cmd.Context()

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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	opts := []service.Option{service.WithObserver(m), service.WithLogger(c.log)}
	if store != nil {
		opts = append(opts, service.WithCache(store))
	}
	svc := service.NewSSSPService(nw.name, nw.graph, c.params(), nw.nodeIDs, nw.coords, opts...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.PromeHttpMiddleware(m))
	if c.cfg.Server.TimeoutSecs > 0 {
		r.Use(middleware.Timeout(time.Duration(c.cfg.Server.TimeoutSecs) * time.Second))
	}
	r.Handle("/metrics", metrics.Handler(reg))
	rest.SSSPRouter(r, svc)

	addr := c.cfg.Server.Addr
	if f.addr != "" {
		addr = f.addr
	}
	srv := &http.Server{Addr: addr, Handler: r}

	errCh := make(chan error, 1)
	go func() {
		c.log.Info("server started", zap.String("addr", addr), zap.String("network", nw.name))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return server.WrapErrorf(err, server.ErrInternalServerError, "listening on %s", addr)
	case <-ctx.Done():
	}

	c.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return server.WrapErrorf(err, server.ErrInternalServerError, "shutting down server")
	}
	return nil
}
