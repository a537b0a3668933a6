package routingalgorithm

import (
	"lintang/bmssp/pkg/server"
)

const (
	pivotHasParent uint8 = 1 << iota
	pivotRootKnown
)

// pivotState state per vertex untuk satu panggilan findPivots. valid hanya kalau mark == epoch findPivots saat ini.
type pivotState struct {
	mark   uint32
	next   uint32
	flags  uint8
	parent int32
	root   int32
	size   int32
}

/*
findPivots k round relaksasi bellman-ford terbatas dari S dengan bound B.

W = semua vertex yang tersentuh dengan jarak < B (termasuk S).
P = root di S yang tree-nya (forest parent pointer) punya >= PivotThreshold vertex.
kalau |W| > k|S| sebelum k round selesai, berhenti dan semua S jadi pivot.

parent[v] diset kalau dist[v] strictly turun, atau saat v (bukan anggota S) pertama kali masuk W.
dengan aturan ini forest tidak pernah punya cycle walaupun ada edge berbobot 0.
*/
func (b *bmssp) findPivots(bound float64, S []int32) ([]int32, []int32, error) {
	b.rc.stats.FindPivotsCalls++
	epoch := b.nextPivotEpoch()
	ps := b.pivots

	W := make([]int32, 0, len(S))
	for _, s := range S {
		if ps[s].mark == epoch {
			continue
		}
		ps[s] = pivotState{mark: epoch}
		W = append(W, s)
	}
	nS := len(W)
	limit := b.params.K * nS

	layer := W
	for i := 0; i < b.params.K && len(layer) > 0; i++ {
		if err := b.rc.cancelled(); err != nil {
			return nil, nil, err
		}

		round := b.nextRound()
		next := make([]int32, 0, len(layer))
		for _, u := range layer {
			for _, e := range b.g.Neighbors(u) {
				b.rc.stats.Relaxations++
				v := e.ToNodeIDX
				nd := b.dist[u] + e.Weight
				if nd > b.dist[v] || nd >= bound {
					continue
				}

				improved := nd < b.dist[v]
				if improved {
					if err := b.lower(v, nd); err != nil {
						return nil, nil, err
					}
				}

				st := &ps[v]
				if st.mark != epoch {
					*st = pivotState{mark: epoch, flags: pivotHasParent, parent: u}
					W = append(W, v)
				} else if improved {
					st.parent = u
					st.flags |= pivotHasParent
				}

				if st.next != round {
					st.next = round
					next = append(next, v)
				}
			}
		}
		layer = next

		if len(W) > limit {
			return append([]int32(nil), W[:nS]...), W, nil
		}
	}

	// ukuran tree tiap root: ikuti parent sampai root yang sudah diketahui, lalu tandai seluruh path
	path := make([]int32, 0)
	for _, v := range W {
		x := v
		for ps[x].flags&(pivotRootKnown|pivotHasParent) == pivotHasParent {
			path = append(path, x)
			if len(path) > len(W) {
				return nil, nil, server.WrapErrorf(nil, server.ErrAlgorithmInvariantViolation,
					"cycle in pivot forest at vertex %d", v)
			}
			x = ps[x].parent
		}
		root := x
		if ps[x].flags&pivotRootKnown != 0 {
			root = ps[x].root
		} else {
			ps[x].root = x
			ps[x].flags |= pivotRootKnown
		}
		for _, y := range path {
			ps[y].root = root
			ps[y].flags |= pivotRootKnown
		}
		path = path[:0]
	}
	for _, v := range W {
		ps[ps[v].root].size++
	}

	pivots := make([]int32, 0)
	for _, s := range W[:nS] {
		if ps[s].flags&pivotHasParent != 0 {
			continue
		}
		if int(ps[s].size) >= b.params.PivotThreshold {
			pivots = append(pivots, s)
		}
	}

	for _, p := range pivots {
		if b.dist[p] >= bound {
			return nil, nil, server.WrapErrorf(nil, server.ErrAlgorithmInvariantViolation,
				"pivot %d has distance %v not below bound %v", p, b.dist[p], bound)
		}
	}
	return pivots, W, nil
}

func (b *bmssp) nextPivotEpoch() uint32 {
	b.pivotEpoch++
	if b.pivotEpoch == 0 {
		for i := range b.pivots {
			b.pivots[i].mark = 0
		}
		b.pivotEpoch = 1
	}
	return b.pivotEpoch
}

func (b *bmssp) nextRound() uint32 {
	b.round++
	if b.round == 0 {
		for i := range b.pivots {
			b.pivots[i].next = 0
		}
		b.round = 1
	}
	return b.round
}
