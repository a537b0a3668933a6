package routingalgorithm

import (
	"math"

	"lintang/bmssp/pkg/datastructure"
	"lintang/bmssp/pkg/server"
)

// bmssp state satu run BMSSP: jarak tentative, penanda complete, dan heap yang dipakai ulang oleh base case.
type bmssp struct {
	g        Graph
	rc       *RunContext
	params   Params
	dist     DistanceMap
	complete []bool

	heap      *datastructure.MinHeap[int32]
	settledAt []uint32
	epoch     uint32

	pivots     []pivotState
	pivotEpoch uint32
	round      uint32

	// penanda anggota U per level, hanya satu solve aktif di tiap level
	uMark  [][]uint32
	uEpoch []uint32
}

/*
ShortestPathBMSSP bounded multi-source shortest path (Duan, Mao, Mao, Shu, Yin 2025).
satu panggilan BMSSP(MaxLevel, +Inf, {source}) sudah cukup untuk seluruh komponen yang reachable dari source.
*/
func (rt *RouteAlgorithm) ShortestPathBMSSP(rc *RunContext, source int32, params Params) (DistanceMap, error) {
	n := rt.g.VertexCount()
	b := &bmssp{
		g:         rt.g,
		rc:        rc,
		params:    params,
		dist:      newDistanceMap(n, source),
		complete:  make([]bool, n),
		heap:      datastructure.NewMinHeap[int32](n),
		settledAt: make([]uint32, n),
		pivots:    make([]pivotState, n),
		uMark:     make([][]uint32, params.MaxLevel+1),
		uEpoch:    make([]uint32, params.MaxLevel+1),
	}
	b.complete[source] = true

	_, _, err := b.solve(params.MaxLevel, math.Inf(1), []int32{source}, 0)
	if err != nil {
		return nil, err
	}
	return b.dist, nil
}

// lower menurunkan dist[v]. vertex yang sudah complete tidak boleh turun lagi.
func (b *bmssp) lower(v int32, nd float64) error {
	if b.complete[v] {
		return server.WrapErrorf(nil, server.ErrAlgorithmInvariantViolation,
			"complete vertex %d relaxed from %v to %v", v, b.dist[v], nd)
	}
	b.dist[v] = nd
	return nil
}

/*
solve BMSSP(l, B, S). return B' <= B dan U: semua vertex dengan jarak < B' yang shortest path-nya lewat S, sudah complete.

loop: pull block (S_i, B_i) dari D, rekursi ke level l-1, lalu relaksasi edge keluar dari U_i.
hasil relaksasi di [B_i, B) masuk D lewat Insert, yang di [B'_i, B_i) dikumpulkan lalu BatchPrepend.
berhenti kalau D kosong atau |U| >= k*2^(l*t).
*/
func (b *bmssp) solve(level int, bound float64, S []int32, depth int) (float64, []int32, error) {
	b.rc.enter(depth)
	if level == 0 {
		return b.baseCase(bound, S)
	}

	pivots, W, err := b.findPivots(bound, S)
	if err != nil {
		return 0, nil, err
	}

	D := datastructure.NewBlockList(pullCapacity(level, b.params.T), bound)
	for _, p := range pivots {
		D.Insert(p, b.dist[p])
	}

	capU := workCap(b.params.K, level, b.params.T)
	U := make([]int32, 0)
	mark, stamp := b.levelMark(level)
	lastBound := bound

	for len(U) < capU && !D.IsEmpty() {
		if err := b.rc.cancelled(); err != nil {
			return 0, nil, err
		}

		b.rc.stats.Pulls++
		pulled, bi := D.Pull()
		Si := make([]int32, 0, len(pulled))
		for _, e := range pulled {
			if e.Value >= bi {
				return 0, nil, server.WrapErrorf(nil, server.ErrAlgorithmInvariantViolation,
					"pulled vertex %d with value %v not below block bound %v", e.Vertex, e.Value, bi)
			}
			Si = append(Si, e.Vertex)
		}

		bpi, Ui, err := b.solve(level-1, bi, Si, depth+1)
		if err != nil {
			return 0, nil, err
		}
		lastBound = bpi

		if err := b.rc.cancelled(); err != nil {
			return 0, nil, err
		}

		batch := make([]datastructure.BlockEntry, 0)
		for _, u := range Ui {
			if mark[u] != stamp {
				mark[u] = stamp
				U = append(U, u)
			}

			for _, e := range b.g.Neighbors(u) {
				b.rc.stats.Relaxations++
				v := e.ToNodeIDX
				nd := b.dist[u] + e.Weight
				if nd > b.dist[v] {
					continue
				}
				if nd < b.dist[v] {
					if err := b.lower(v, nd); err != nil {
						return 0, nil, err
					}
				}

				switch {
				case bi <= nd && nd < bound:
					D.Insert(v, nd)
				case bpi <= nd && nd < bi:
					batch = append(batch, datastructure.NewBlockEntry(v, nd))
				}
			}
		}

		// anggota S_i yang belum selesai di sub-call kembali ke depan D
		for _, s := range Si {
			if d := b.dist[s]; bpi <= d && d < bi {
				batch = append(batch, datastructure.NewBlockEntry(s, d))
			}
		}
		D.BatchPrepend(batch)
	}

	newBound := math.Min(lastBound, bound)
	for _, w := range W {
		if b.dist[w] < newBound {
			if mark[w] != stamp {
				mark[w] = stamp
				U = append(U, w)
			}
			b.complete[w] = true
		}
	}
	return newBound, U, nil
}

// levelMark slice penanda U untuk level ini, dialokasikan saat pertama dipakai.
func (b *bmssp) levelMark(level int) ([]uint32, uint32) {
	if b.uMark[level] == nil {
		b.uMark[level] = make([]uint32, len(b.dist))
	}
	b.uEpoch[level]++
	if b.uEpoch[level] == 0 {
		clear(b.uMark[level])
		b.uEpoch[level] = 1
	}
	return b.uMark[level], b.uEpoch[level]
}

/*
baseCase level 0: dijkstra kecil dari semua anggota S sekaligus, hanya untuk jarak < B.
berhenti setelah lebih dari k vertex settled dan kandidat berikutnya strictly lebih besar dari yang sudah settled,
lalu return B' = jarak kandidat tersebut. kalau heap habis, return B.
vertex dengan jarak sama tidak pernah terpisah di dua sisi B'.
*/
func (b *bmssp) baseCase(bound float64, S []int32) (float64, []int32, error) {
	b.rc.stats.BaseCases++
	if err := b.rc.cancelled(); err != nil {
		return 0, nil, err
	}

	b.epoch++
	if b.epoch == 0 {
		for i := range b.settledAt {
			b.settledAt[i] = 0
		}
		b.epoch = 1
	}

	pq := b.heap
	pq.Clear()
	defer pq.Clear()

	for _, s := range S {
		pq.InsertOrDecrease(datastructure.PriorityQueueNode[int32]{Rank: b.dist[s], Item: s})
	}

	U := make([]int32, 0, b.params.K+1)
	maxSettled := math.Inf(-1)
	for !pq.IsEmpty() {
		top, _ := pq.GetMin()
		if len(U) > b.params.K && top.Rank > maxSettled {
			return top.Rank, U, nil
		}
		pq.ExtractMin()

		u := top.Item
		b.settledAt[u] = b.epoch
		b.complete[u] = true
		U = append(U, u)
		if top.Rank > maxSettled {
			maxSettled = top.Rank
		}

		for _, e := range b.g.Neighbors(u) {
			b.rc.stats.Relaxations++
			v := e.ToNodeIDX
			nd := b.dist[u] + e.Weight
			if nd > b.dist[v] || nd >= bound || b.settledAt[v] == b.epoch {
				continue
			}
			if nd < b.dist[v] {
				if err := b.lower(v, nd); err != nil {
					return 0, nil, err
				}
			}
			pq.InsertOrDecrease(datastructure.PriorityQueueNode[int32]{Rank: nd, Item: v})
		}
	}

	return bound, U, nil
}
