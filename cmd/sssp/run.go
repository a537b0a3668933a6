package main

import (
	"fmt"

	"lintang/bmssp/pkg/engine/aggregator"
	"lintang/bmssp/pkg/engine/routingalgorithm"
	"lintang/bmssp/pkg/graphio"
	"lintang/bmssp/pkg/kv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runFlags struct {
	input              inputFlags
	source             sourceFlags
	algorithm          string
	out                string
	includeUnreachable bool
	order              string
}

func (c *cli) runCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "compute distances from one source",
		Long:  `run computes the distance from the source to every vertex. With --out the distances are written as csv (node_id,distance_m), otherwise a summary is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, f)
		},
	}
	f.input.register(cmd)
	f.source.register(cmd)
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", "", "bmssp or dijkstra")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output csv path")
	cmd.Flags().BoolVar(&f.includeUnreachable, "include-unreachable", false, "write unreachable vertices with distance inf")
	cmd.Flags().StringVar(&f.order, "order", "", "output order: vertex or distance")
	return cmd
}

func (c *cli) run(cmd *cobra.Command, f runFlags) error {
	ctx := cmd.Context()

	algName := c.cfg.Engine.Algorithm
	if f.algorithm != "" {
		algName = f.algorithm
	}
	alg, err := routingalgorithm.ParseAlgorithm(algName)
	if err != nil {
		return err
	}
	orderName := c.cfg.Output.Order
	if f.order != "" {
		orderName = f.order
	}
	order, err := aggregator.ParseOrder(orderName)
	if err != nil {
		return err
	}
	includeUnreachable := c.cfg.Output.IncludeUnreachable
	if cmd.Flags().Changed("include-unreachable") {
		includeUnreachable = f.includeUnreachable
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
	source, err := c.resolveSource(cmd, f.source, nw)
	if err != nil {
		return err
	}

	route := routingalgorithm.NewRouteAlgorithm(nw.graph, c.params())
	rc := routingalgorithm.NewRunContext(ctx, routingalgorithm.WithLogger(c.log))
	dist, err := route.Run(rc, alg, source)
	if err != nil {
		return err
	}
	stats := rc.Stats()
	c.log.Info("sssp done",
		zap.String("algorithm", string(alg)),
		zap.Int32("source", source),
		zap.Duration("duration", stats.Duration),
		zap.Int64("relaxations", stats.Relaxations))

	if store != nil {
		if err := store.SaveDistances(kv.DistanceKey(nw.name, string(alg), source), dist); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if f.out == "" {
		s := aggregator.Summarize(dist)
		fmt.Fprintf(out, "Nodes: %d\n", s.NodeCount)
		fmt.Fprintf(out, "Reachable from %d: %d\n", source, s.ReachableCount)
		if s.ReachableCount > 0 {
			fmt.Fprintf(out, "Max finite distance (m): %.2f\n", s.MaxDistance)
		}
		fmt.Fprintf(out, "%.6f s\n", stats.Duration.Seconds())
		return nil
	}

	records, err := aggregator.Aggregate(dist, aggregator.Options{
		IncludeUnreachable: includeUnreachable,
		Order:              order,
		NodeIDs:            nw.nodeIDs,
	})
	if err != nil {
		return err
	}
	if err := graphio.WriteDistancesFile(f.out, records); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote distances for %d nodes to %s\n", len(records), f.out)
	return nil
}
