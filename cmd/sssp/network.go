package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"lintang/bmssp/pkg/datastructure"
	"lintang/bmssp/pkg/geo"
	"lintang/bmssp/pkg/graphio"
	"lintang/bmssp/pkg/kv"
	"lintang/bmssp/pkg/osmparser"
	"lintang/bmssp/pkg/server"
	"lintang/bmssp/pkg/snap"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type inputFlags struct {
	pbf     string
	csv     string
	profile string
	db      bool
}

func (in *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.pbf, "pbf", "", "openstreetmap .osm.pbf file")
	cmd.Flags().StringVar(&in.csv, "csv", "", "csv edge list with header, rows from,to,weight")
	cmd.Flags().StringVar(&in.profile, "profile", "", "way filter for --pbf: highway, car, all")
	cmd.Flags().BoolVar(&in.db, "db", false, "cache parsed networks and distance maps in pebble")
	cmd.MarkFlagsMutuallyExclusive("pbf", "csv")
	cmd.MarkFlagsOneRequired("pbf", "csv")
}

// network graph beserta mapping vertex -> node id & koordinat. nodeIDs/coords nil untuk input csv.
type network struct {
	name    string
	graph   *datastructure.Graph
	nodeIDs []int64
	coords  []geo.Coordinate
	rn      *osmparser.RoadNetwork
}

/*
networkName nama network untuk key cache: basename, profile, dan hash dari absolute path + ukuran + mtime file.
file dengan basename sama di direktori lain, profile lain, atau isi yang sudah berubah dapat nama berbeda.
*/
func networkName(path, profile string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", server.WrapErrorf(err, server.ErrBadParamInput, "resolve path %s", path)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", server.WrapErrorf(err, server.ErrBadParamInput, "stat %s", path)
	}
	h := xxhash.Sum64String(fmt.Sprintf("%s|%d|%d", abs, fi.Size(), fi.ModTime().UnixNano()))
	return fmt.Sprintf("%s-%s-%016x", filepath.Base(abs), profile, h), nil
}

func (c *cli) loadNetwork(ctx context.Context, in inputFlags, store *kv.KVDB) (*network, error) {
	if in.csv != "" {
		el, err := graphio.ReadEdgeListFile(in.csv)
		if err != nil {
			return nil, err
		}
		g, err := datastructure.NewGraphFromEdgeList(el)
		if err != nil {
			return nil, err
		}
		name, err := networkName(in.csv, "csv")
		if err != nil {
			return nil, err
		}
		c.log.Info("graph loaded from csv", zap.String("path", in.csv), zap.String("network", name),
			zap.Int("vertices", g.VertexCount()), zap.Int("edges", g.EdgeCount()))
		return &network{name: name, graph: g}, nil
	}

	profileName := c.cfg.Parser.Profile
	if in.profile != "" {
		profileName = in.profile
	}
	profile, err := osmparser.ParseProfile(profileName)
	if err != nil {
		return nil, err
	}
	name, err := networkName(in.pbf, profileName)
	if err != nil {
		return nil, err
	}

	var rn *osmparser.RoadNetwork
	if store != nil {
		cached, err := store.LoadNetwork(name)
		switch {
		case err == nil:
			c.log.Info("road network loaded from cache", zap.String("network", name))
			rn = cached
		case !errors.Is(err, server.ErrNotFound):
			return nil, err
		}
	}

	if rn == nil {
		p := osmparser.NewOsmParser(osmparser.WithProfile(profile), osmparser.WithLogger(c.log),
			osmparser.WithProgress(true))
		rn, err = p.Parse(ctx, in.pbf)
		if err != nil {
			return nil, err
		}
		if store != nil {
			if err := store.SaveNetwork(name, rn); err != nil {
				return nil, err
			}
		}
	}

	g, err := rn.Graph()
	if err != nil {
		return nil, err
	}
	c.log.Info("graph built", zap.String("network", name),
		zap.Int("vertices", g.VertexCount()), zap.Int("edges", g.EdgeCount()))
	return &network{name: name, graph: g, nodeIDs: rn.NodeIDs, coords: rn.Coords, rn: rn}, nil
}

func (c *cli) openStore(enabled bool) (*kv.KVDB, error) {
	if !enabled {
		return nil, nil
	}
	db, err := kv.OpenDB(c.cfg.Store.Path, c.cfg.Store.InMemory)
	if err != nil {
		return nil, err
	}
	return kv.NewKVDB(db, c.log, true), nil
}

type sourceFlags struct {
	source int32
	nodeID int64
	lat    float64
	lon    float64
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int32Var(&s.source, "source", 0, "source vertex index")
	cmd.Flags().Int64Var(&s.nodeID, "node-id", 0, "source openstreetmap node id (--pbf only)")
	cmd.Flags().Float64Var(&s.lat, "lat", 0, "source latitude, snapped to the nearest vertex")
	cmd.Flags().Float64Var(&s.lon, "lon", 0, "source longitude, snapped to the nearest vertex")
	cmd.MarkFlagsMutuallyExclusive("source", "node-id", "lat")
	cmd.MarkFlagsMutuallyExclusive("source", "node-id", "lon")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
}

// resolveSource vertex source dari --source, --node-id atau --lat/--lon.
func (c *cli) resolveSource(cmd *cobra.Command, s sourceFlags, nw *network) (int32, error) {
	flags := cmd.Flags()
	switch {
	case flags.Changed("node-id"):
		if nw.rn == nil {
			return -1, server.WrapErrorf(nil, server.ErrBadParamInput, "--node-id needs a --pbf road network")
		}
		return nw.rn.Source(s.nodeID)
	case flags.Changed("lat"):
		if len(nw.coords) == 0 {
			return -1, server.WrapErrorf(nil, server.ErrBadParamInput, "--lat/--lon need a --pbf road network")
		}
		v, d, err := snap.NewSnapper(nw.coords).Nearest(geo.NewCoordinate(s.lat, s.lon))
		if err != nil {
			return -1, err
		}
		c.log.Info("source snapped", zap.Int32("vertex", v), zap.Int64("node_id", nw.nodeIDs[v]),
			zap.Float64("snap_distance_m", d))
		return v, nil
	}
	return s.source, nil
}
