package osmparser

import (
	"context"
	"io"
	"math"
	"os"
	"runtime"

	"lintang/bmssp/pkg/datastructure"
	"lintang/bmssp/pkg/geo"
	"lintang/bmssp/pkg/server"

	"github.com/k0kubun/go-ansi"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

/*
RoadNetwork hasil ekstraksi openstreetmap.
vertex v punya osm node id NodeIDs[v] dan koordinat Coords[v]. Edges sudah directed, bobot dalam meter.
*/
type RoadNetwork struct {
	NodeIDs []int64
	Coords  []geo.Coordinate
	Edges   []datastructure.Edge

	nodeIDx map[int64]int32
}

func NewRoadNetwork(nodeIDs []int64, coords []geo.Coordinate, edges []datastructure.Edge) *RoadNetwork {
	rn := &RoadNetwork{NodeIDs: nodeIDs, Coords: coords, Edges: edges}
	rn.index()
	return rn
}

func (rn *RoadNetwork) index() {
	rn.nodeIDx = make(map[int64]int32, len(rn.NodeIDs))
	for v, id := range rn.NodeIDs {
		rn.nodeIDx[id] = int32(v)
	}
}

func (rn *RoadNetwork) VertexCount() int {
	return len(rn.NodeIDs)
}

func (rn *RoadNetwork) EdgeList() datastructure.EdgeList {
	return datastructure.EdgeList{VertexCount: len(rn.NodeIDs), Edges: rn.Edges}
}

func (rn *RoadNetwork) Graph() (*datastructure.Graph, error) {
	return datastructure.NewGraphFromEdgeList(rn.EdgeList())
}

// Source resolves an osm node id to its vertex.
func (rn *RoadNetwork) Source(osmNodeID int64) (int32, error) {
	if rn.nodeIDx == nil {
		rn.index()
	}
	v, ok := rn.nodeIDx[osmNodeID]
	if !ok {
		return -1, server.WrapErrorf(nil, server.ErrVertexOutOfRange, "osm node %d is not part of the road network", osmNodeID)
	}
	return v, nil
}

type OsmParser struct {
	profile      Profile
	log          *zap.Logger
	showProgress bool
}

type ParserOption func(*OsmParser)

func WithProfile(p Profile) ParserOption {
	return func(op *OsmParser) {
		op.profile = p
	}
}

func WithLogger(log *zap.Logger) ParserOption {
	return func(op *OsmParser) {
		op.log = log
	}
}

func WithProgress(show bool) ParserOption {
	return func(op *OsmParser) {
		op.showProgress = show
	}
}

func NewOsmParser(opts ...ParserOption) *OsmParser {
	p := &OsmParser{profile: ProfileHighway, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OsmParser) Parse(ctx context.Context, path string) (*RoadNetwork, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrBadParamInput, "opening %s", path)
	}
	defer f.Close()
	return p.ParseReader(ctx, f)
}

/*
ParseReader dua kali scan file pbf:
 1. kumpulkan way yang routable dan set node id yang direferensikan
 2. ambil koordinat node yang dibutuhkan

lalu setiap pasangan node berurutan di way jadi edge (dua edge kalau bukan oneway).
*/
func (p *OsmParser) ParseReader(ctx context.Context, r io.ReadSeeker) (*RoadNetwork, error) {
	scanner := osmpbf.New(ctx, r, runtime.GOMAXPROCS(0))

	bar := p.newBar("[cyan][1/3][reset] memproses openstreetmap way...")
	ways := []*osm.Way{}
	wayNodesMap := make(map[osm.NodeID]bool)
	count := 0
	for scanner.Scan() {
		count++
		if count%50000 == 0 {
			bar.Add(50000)
		}

		way, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if !IsWayRoutable(way.TagMap(), p.profile) {
			continue
		}
		ways = append(ways, way)
		for _, node := range way.Nodes {
			wayNodesMap[node.ID] = true
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, p.scanError(ctx, err)
	}
	scanner.Close()
	bar.Finish()

	p.log.Info("collected routable ways", zap.Int("ways", len(ways)), zap.Int("node_refs", len(wayNodesMap)))

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "rewinding pbf")
	}
	scanner = osmpbf.New(ctx, r, runtime.GOMAXPROCS(0))
	defer scanner.Close()

	bar = p.newBar("[cyan][2/3][reset] memproses openstreetmap node...")
	coords := make(map[osm.NodeID]geo.Coordinate, len(wayNodesMap))
	count = 0
	for scanner.Scan() {
		count++
		if count%50000 == 0 {
			bar.Add(50000)
		}
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if wayNodesMap[node.ID] {
			coords[node.ID] = geo.NewCoordinate(node.Lat, node.Lon)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, p.scanError(ctx, err)
	}
	bar.Finish()

	p.log.Info("loaded node coordinates", zap.Int("nodes", len(coords)))

	rn := p.BuildRoadNetwork(ways, coords)
	p.log.Info("road network built", zap.Int("vertices", rn.VertexCount()), zap.Int("edges", len(rn.Edges)))
	return rn, nil
}

func (p *OsmParser) scanError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return server.WrapErrorf(err, server.ErrCancelled, "scanning pbf")
	}
	return server.WrapErrorf(err, server.ErrBadParamInput, "scanning pbf")
}

// BuildRoadNetwork vertex diberi nomor sesuai urutan node pertama kali muncul di ways. node tanpa koordinat dilewati.
func (p *OsmParser) BuildRoadNetwork(ways []*osm.Way, coords map[osm.NodeID]geo.Coordinate) *RoadNetwork {
	bar := p.newBar("[cyan][3/3][reset] membuat graph...")

	nodeIDs := make([]int64, 0, len(coords))
	vertexCoords := make([]geo.Coordinate, 0, len(coords))
	nodeIDx := make(map[osm.NodeID]int32, len(coords))
	vertexOf := func(id osm.NodeID) (int32, bool) {
		if v, ok := nodeIDx[id]; ok {
			return v, true
		}
		c, ok := coords[id]
		if !ok {
			return -1, false
		}
		v := int32(len(nodeIDs))
		nodeIDx[id] = v
		nodeIDs = append(nodeIDs, int64(id))
		vertexCoords = append(vertexCoords, c)
		return v, true
	}

	edges := make([]datastructure.Edge, 0)
	for i, way := range ways {
		if i%1000 == 0 {
			bar.Add(1000)
		}
		for _, node := range way.Nodes {
			vertexOf(node.ID)
		}
		if len(way.Nodes) < 2 {
			continue
		}

		dir := wayDirection(way.TagMap())
		for j := 0; j+1 < len(way.Nodes); j++ {
			u, okU := vertexOf(way.Nodes[j].ID)
			v, okV := vertexOf(way.Nodes[j+1].ID)
			if !okU || !okV {
				continue
			}
			w := geo.DistanceMeters(vertexCoords[u], vertexCoords[v])
			if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
				continue
			}

			switch dir {
			case forward:
				edges = append(edges, datastructure.Edge{From: u, To: v, Weight: w})
			case backward:
				edges = append(edges, datastructure.Edge{From: v, To: u, Weight: w})
			default:
				edges = append(edges, datastructure.Edge{From: u, To: v, Weight: w},
					datastructure.Edge{From: v, To: u, Weight: w})
			}
		}
	}
	bar.Finish()

	rn := &RoadNetwork{NodeIDs: nodeIDs, Coords: vertexCoords, Edges: edges}
	rn.index()
	return rn
}

func (p *OsmParser) newBar(desc string) *progressbar.ProgressBar {
	var w io.Writer = io.Discard
	if p.showProgress {
		w = ansi.NewAnsiStdout()
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w), //you should install "github.com/k0kubun/go-ansi"
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
