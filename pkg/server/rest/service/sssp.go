package service

import (
	"context"
	"errors"

	"lintang/bmssp/pkg/datastructure"
	"lintang/bmssp/pkg/engine/aggregator"
	"lintang/bmssp/pkg/engine/routingalgorithm"
	"lintang/bmssp/pkg/geo"
	"lintang/bmssp/pkg/kv"
	"lintang/bmssp/pkg/server"
	"lintang/bmssp/pkg/snap"

	"go.uber.org/zap"
)

type DistanceCache interface {
	GetDistances(key string) ([]float64, error)
	SaveDistances(key string, dist []float64) error
}

type Snapper interface {
	Nearest(c geo.Coordinate) (int32, float64, error)
}

// DistanceQuery source bisa berupa vertex atau koordinat (di-snap ke vertex terdekat).
type DistanceQuery struct {
	Source    *int32
	Coord     *geo.Coordinate
	Algorithm routingalgorithm.Algorithm
	Options   aggregator.Options
}

type DistanceResult struct {
	Algorithm    routingalgorithm.Algorithm
	Source       int32
	SourceNodeID int64
	// SnapDistance jarak koordinat query ke vertex source, 0 kalau source diberikan langsung
	SnapDistance float64
	Records      []aggregator.Record
	Summary      aggregator.Summary
	Stats        routingalgorithm.Stats
	Cached       bool
}

type GraphInfo struct {
	Name        string
	VertexCount int
	EdgeCount   int
	Params      routingalgorithm.Params
	HasCoords   bool
}

type SSSPService struct {
	name     string
	g        *datastructure.Graph
	route    *routingalgorithm.RouteAlgorithm
	nodeIDs  []int64
	snapper  Snapper
	cache    DistanceCache
	observer routingalgorithm.RunObserver
	log      *zap.Logger
}

type Option func(*SSSPService)

func WithCache(c DistanceCache) Option {
	return func(s *SSSPService) {
		s.cache = c
	}
}

func WithObserver(o routingalgorithm.RunObserver) Option {
	return func(s *SSSPService) {
		s.observer = o
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *SSSPService) {
		if log != nil {
			s.log = log
		}
	}
}

/*
NewSSSPService. nodeIDs boleh nil (pakai vertex id), coords boleh nil (query koordinat ditolak).
name dipakai sebagai bagian key cache.
*/
func NewSSSPService(name string, g *datastructure.Graph, params routingalgorithm.Params, nodeIDs []int64,
	coords []geo.Coordinate, opts ...Option) *SSSPService {
	s := &SSSPService{
		name:    name,
		g:       g,
		route:   routingalgorithm.NewRouteAlgorithm(g, params),
		nodeIDs: nodeIDs,
		log:     zap.NewNop(),
	}
	if len(coords) > 0 {
		s.snapper = snap.NewSnapper(coords)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SSSPService) GraphInfo() (GraphInfo, error) {
	params, err := s.route.Params()
	if err != nil && s.g.VertexCount() > 0 {
		return GraphInfo{}, err
	}
	return GraphInfo{
		Name:        s.name,
		VertexCount: s.g.VertexCount(),
		EdgeCount:   s.g.EdgeCount(),
		Params:      params,
		HasCoords:   s.snapper != nil,
	}, nil
}

func (s *SSSPService) Distances(ctx context.Context, q DistanceQuery) (DistanceResult, error) {
	res := DistanceResult{Algorithm: q.Algorithm}

	switch {
	case q.Source != nil:
		res.Source = *q.Source
	case q.Coord != nil:
		if s.snapper == nil {
			return res, server.WrapErrorf(nil, server.ErrBadParamInput, "network %s has no coordinates, query by source vertex", s.name)
		}
		v, d, err := s.snapper.Nearest(*q.Coord)
		if err != nil {
			return res, err
		}
		res.Source = v
		res.SnapDistance = d
	default:
		return res, server.WrapErrorf(nil, server.ErrBadParamInput, "either source or lat/lon is required")
	}
	if !s.g.IsValidVertex(res.Source) {
		return res, server.WrapErrorf(nil, server.ErrVertexOutOfRange, "source %d outside [0, %d)", res.Source, s.g.VertexCount())
	}

	res.SourceNodeID = int64(res.Source)
	if s.nodeIDs != nil {
		res.SourceNodeID = s.nodeIDs[res.Source]
	}

	dist, cached, stats, err := s.distanceMap(ctx, q.Algorithm, res.Source)
	if err != nil {
		return res, err
	}
	res.Cached = cached
	res.Stats = stats

	opts := q.Options
	opts.NodeIDs = s.nodeIDs
	res.Records, err = aggregator.Aggregate(dist, opts)
	if err != nil {
		return res, err
	}
	res.Summary = aggregator.Summarize(dist)
	return res, nil
}

func (s *SSSPService) distanceMap(ctx context.Context, alg routingalgorithm.Algorithm, source int32) ([]float64, bool, routingalgorithm.Stats, error) {
	key := kv.DistanceKey(s.name, string(alg), source)
	if s.cache != nil {
		dist, err := s.cache.GetDistances(key)
		if err == nil && len(dist) == s.g.VertexCount() {
			return dist, true, routingalgorithm.Stats{}, nil
		}
		if err != nil && !errors.Is(err, server.ErrNotFound) {
			s.log.Warn("distance cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	rc := routingalgorithm.NewRunContext(ctx, routingalgorithm.WithLogger(s.log), routingalgorithm.WithObserver(s.observer))
	dist, err := s.route.Run(rc, alg, source)
	if err != nil {
		return nil, false, rc.Stats(), err
	}

	if s.cache != nil {
		if err := s.cache.SaveDistances(key, dist); err != nil {
			s.log.Warn("distance cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return dist, false, rc.Stats(), nil
}
