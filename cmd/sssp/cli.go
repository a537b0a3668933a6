package main

import (
	"lintang/bmssp/pkg/config"
	"lintang/bmssp/pkg/engine/routingalgorithm"
	"lintang/bmssp/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type cli struct {
	cfg        config.Config
	log        *zap.Logger
	configPath string
	logLevel   string

	// engine flags, override config file
	k, t, pivotThreshold, maxLevel int
}

func newCLI() *cli {
	return &cli{cfg: config.Default(), log: zap.NewNop()}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "sssp",
		Short:        "single source shortest path on road networks with BMSSP or Dijkstra",
		Long:         `sssp builds a directed graph from an openstreetmap .osm.pbf or a csv edge list and computes distances from one source to every vertex, using bounded multi-source shortest path (BMSSP) or Dijkstra.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.log.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "toml config file")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.IntVar(&c.k, "k", 0, "bmssp k (0 = derive from vertex count)")
	pf.IntVar(&c.t, "t", 0, "bmssp t (0 = derive from vertex count)")
	pf.IntVar(&c.pivotThreshold, "pivot-threshold", 0, "bmssp pivot subtree size threshold (0 = k)")
	pf.IntVar(&c.maxLevel, "max-level", 0, "bmssp top recursion level (0 = derive from vertex count)")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.benchCommand())
	root.AddCommand(c.serveCommand())
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("k") {
		cfg.Engine.K = c.k
	}
	if flags.Changed("t") {
		cfg.Engine.T = c.t
	}
	if flags.Changed("pivot-threshold") {
		cfg.Engine.PivotThreshold = c.pivotThreshold
	}
	if flags.Changed("max-level") {
		cfg.Engine.MaxLevel = c.maxLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	c.log = log
	return nil
}

func (c *cli) params() routingalgorithm.Params {
	e := c.cfg.Engine
	return routingalgorithm.Params{K: e.K, T: e.T, PivotThreshold: e.PivotThreshold, MaxLevel: e.MaxLevel}
}
