package kv

import (
	"errors"
	"fmt"
	"io"

	"lintang/bmssp/pkg/concurrent"
	"lintang/bmssp/pkg/datastructure"
	"lintang/bmssp/pkg/geo"
	"lintang/bmssp/pkg/osmparser"
	"lintang/bmssp/pkg/server"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

const (
	networkPrefix   = "network/"
	distancesPrefix = "distances/"
)

// KVDB cache road network hasil parsing dan distance map hasil run, value dikompres zstd.
type KVDB struct {
	db           *pebble.DB
	log          *zap.Logger
	showProgress bool
}

func NewKVDB(db *pebble.DB, log *zap.Logger, showProgress bool) *KVDB {
	if log == nil {
		log = zap.NewNop()
	}
	return &KVDB{db: db, log: log, showProgress: showProgress}
}

// OpenDB membuka pebble di path. inMemory pakai vfs memory (untuk test).
func OpenDB(path string, inMemory bool) (*pebble.DB, error) {
	opts := &pebble.Options{}
	if inMemory {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "opening pebble at %s", path)
	}
	return db, nil
}

func (k *KVDB) Close() error {
	return k.db.Close()
}

func NetworkKey(name string) string {
	return networkPrefix + name
}

// DistanceKey key distance map untuk (network, algorithm, source).
func DistanceKey(network, algorithm string, source int32) string {
	return fmt.Sprintf("%s%s/%s/%d", distancesPrefix, network, algorithm, source)
}

func (k *KVDB) SaveNetwork(name string, rn *osmparser.RoadNetwork) error {
	rec := networkRecord{
		NodeIDs: rn.NodeIDs,
		Lats:    make([]float64, len(rn.Coords)),
		Lons:    make([]float64, len(rn.Coords)),
		From:    make([]int32, len(rn.Edges)),
		To:      make([]int32, len(rn.Edges)),
		Weights: make([]float64, len(rn.Edges)),
	}
	for i, c := range rn.Coords {
		rec.Lats[i] = c.Lat
		rec.Lons[i] = c.Lon
	}
	for i, e := range rn.Edges {
		rec.From[i] = e.From
		rec.To[i] = e.To
		rec.Weights[i] = e.Weight
	}

	val, err := encodeCompressed(&rec)
	if err != nil {
		return server.WrapErrorf(err, server.ErrInternalServerError, "encoding network %s", name)
	}
	if err := k.db.Set([]byte(NetworkKey(name)), val, pebble.Sync); err != nil {
		return server.WrapErrorf(err, server.ErrInternalServerError, "saving network %s", name)
	}
	k.log.Info("road network cached", zap.String("network", name), zap.Int("bytes", len(val)))
	return nil
}

func (k *KVDB) LoadNetwork(name string) (*osmparser.RoadNetwork, error) {
	var rec networkRecord
	if err := k.get(NetworkKey(name), &rec); err != nil {
		return nil, err
	}
	if len(rec.Lats) != len(rec.NodeIDs) || len(rec.Lons) != len(rec.NodeIDs) ||
		len(rec.To) != len(rec.From) || len(rec.Weights) != len(rec.From) {
		return nil, server.WrapErrorf(nil, server.ErrInternalServerError, "network %s is corrupted", name)
	}

	coords := make([]geo.Coordinate, len(rec.NodeIDs))
	for i := range coords {
		coords[i] = geo.NewCoordinate(rec.Lats[i], rec.Lons[i])
	}
	edges := make([]datastructure.Edge, len(rec.From))
	for i := range edges {
		edges[i] = datastructure.Edge{From: rec.From[i], To: rec.To[i], Weight: rec.Weights[i]}
	}
	return osmparser.NewRoadNetwork(rec.NodeIDs, coords, edges), nil
}

func (k *KVDB) SaveDistances(key string, dist []float64) error {
	val, err := encodeCompressed(&distancesRecord{Distances: dist})
	if err != nil {
		return server.WrapErrorf(err, server.ErrInternalServerError, "encoding distances %s", key)
	}
	if err := k.db.Set([]byte(key), val, pebble.NoSync); err != nil {
		return server.WrapErrorf(err, server.ErrInternalServerError, "saving distances %s", key)
	}
	return nil
}

// GetDistances returns ErrNotFound when key has never been saved.
func (k *KVDB) GetDistances(key string) ([]float64, error) {
	var rec distancesRecord
	if err := k.get(key, &rec); err != nil {
		return nil, err
	}
	return rec.Distances, nil
}

func (k *KVDB) get(key string, v interface{}) error {
	val, closer, err := k.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return server.WrapErrorf(err, server.ErrNotFound, "key %s not found", key)
	}
	if err != nil {
		return server.WrapErrorf(err, server.ErrInternalServerError, "reading %s", key)
	}
	defer closer.Close()

	if err := decodeCompressed(val, v); err != nil {
		return server.WrapErrorf(err, server.ErrInternalServerError, "decoding %s", key)
	}
	return nil
}

// SaveDistancesJob JobFunc untuk worker pool.
func (k *KVDB) SaveDistancesJob(item concurrent.SaveDistancesJobItem) error {
	return k.SaveDistances(item.KeyStr, item.Distances)
}

// SaveDistancesBatch simpan banyak distance map paralel lewat worker pool, lalu flush sekali.
func (k *KVDB) SaveDistancesBatch(items []concurrent.SaveDistancesJobItem) error {
	var w io.Writer = io.Discard
	if k.showProgress {
		w = ansi.NewAnsiStdout()
	}
	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan][kv][reset] saving distance maps to pebble db..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	workers := concurrent.NewWorkerPool[concurrent.SaveDistancesJobItem, error](4, len(items))
	for _, item := range items {
		workers.AddJob(item)
	}
	workers.Close()

	workers.Start(k.SaveDistancesJob)
	workers.Wait()

	var firstErr error
	for err := range workers.CollectResults() {
		bar.Add(1)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return firstErr
	}

	if err := k.db.Flush(); err != nil {
		return server.WrapErrorf(err, server.ErrInternalServerError, "flushing pebble")
	}
	k.log.Info("distance maps cached", zap.Int("count", len(items)))
	return nil
}
