package datastructure

import (
	"sort"
)

/*
BlockList struktur data D untuk BMSSP (Duan, Mao, Mao, Shu, Yin 2025, lemma 3.3).

isinya dua barisan block:
  - prepend (D0): block hasil BatchPrepend. disimpan terbalik, prepend[len-1] adalah block paling depan (nilai terkecil).
  - insert  (D1): block hasil Insert, terurut naik berdasarkan upper bound. block terakhir selalu punya upper = bound.

setiap block berisi paling banyak m entry yang tidak terurut di dalam block, tapi semua nilai di block i <= semua nilai di block i+1.
update nilai vertex tidak menghapus entry lama secara fisik: setiap entry membawa seq, dan entry hanya live kalau seq-nya sama
dengan seq terbaru vertex tersebut di current.

Pull mengembalikan block yang nilainya strictly lebih kecil dari bound yang dikembalikan. kalau ada nilai yang sama persis di
batas pull, entry yang sama dengan batas dikembalikan ke struktur; kalau semua kandidat sama dengan batas, semua entry dengan
nilai minimum ditarik sekaligus walaupun lebih dari m.
*/
type BlockList struct {
	m       int
	bound   float64
	prepend []*block
	insert  []*block
	current map[int32]slot
	seq     uint64
}

type BlockEntry struct {
	Vertex int32
	Value  float64
	seq    uint64
}

type slot struct {
	value float64
	seq   uint64
}

type block struct {
	entries []BlockEntry
	upper   float64
}

func NewBlockEntry(vertex int32, value float64) BlockEntry {
	return BlockEntry{Vertex: vertex, Value: value}
}

// NewBlockList creates an empty D with pull capacity m and upper bound bound on every value it will hold.
func NewBlockList(m int, bound float64) *BlockList {
	if m < 1 {
		m = 1
	}
	return &BlockList{
		m:       m,
		bound:   bound,
		insert:  []*block{{upper: bound}},
		current: make(map[int32]slot),
	}
}

func (d *BlockList) Len() int {
	return len(d.current)
}

func (d *BlockList) IsEmpty() bool {
	return len(d.current) == 0
}

func (d *BlockList) Capacity() int {
	return d.m
}

func (d *BlockList) Bound() float64 {
	return d.bound
}

// Value returns the live value of vertex, if present.
func (d *BlockList) Value(vertex int32) (float64, bool) {
	s, ok := d.current[vertex]
	return s.value, ok
}

func (d *BlockList) live(e BlockEntry) bool {
	s, ok := d.current[e.Vertex]
	return ok && s.seq == e.seq
}

// claim mencatat nilai baru vertex kalau lebih kecil dari nilai yang ada. false kalau tidak ada perubahan.
func (d *BlockList) claim(vertex int32, value float64) (BlockEntry, bool) {
	if s, ok := d.current[vertex]; ok && value >= s.value {
		return BlockEntry{}, false
	}
	d.seq++
	d.current[vertex] = slot{value: value, seq: d.seq}
	return BlockEntry{Vertex: vertex, Value: value, seq: d.seq}, true
}

// Insert adds vertex with value, or lowers its value to min(existing, value). O(log(N/m)) block search.
func (d *BlockList) Insert(vertex int32, value float64) {
	e, ok := d.claim(vertex, value)
	if !ok {
		return
	}

	i := sort.Search(len(d.insert), func(i int) bool {
		return d.insert[i].upper >= value
	})
	if i == len(d.insert) {
		i = len(d.insert) - 1
	}
	blk := d.insert[i]
	blk.entries = append(blk.entries, e)
	if len(blk.entries) > d.m {
		d.compact(blk)
		for len(d.insert[i].entries) > d.m {
			d.splitInsertBlock(i)
		}
	}
}

// BatchPrepend adds entries whose values are, by caller contract, no larger than any value currently held.
// duplicate vertex dalam batch diambil nilai terkecil.
func (d *BlockList) BatchPrepend(items []BlockEntry) {
	if len(items) == 0 {
		return
	}

	idx := make(map[int32]int, len(items))
	uniq := make([]BlockEntry, 0, len(items))
	for _, it := range items {
		if j, ok := idx[it.Vertex]; ok {
			if it.Value < uniq[j].Value {
				uniq[j].Value = it.Value
			}
			continue
		}
		idx[it.Vertex] = len(uniq)
		uniq = append(uniq, it)
	}

	fresh := make([]BlockEntry, 0, len(uniq))
	for _, it := range uniq {
		if e, ok := d.claim(it.Vertex, it.Value); ok {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) == 0 {
		return
	}

	if len(fresh) <= d.m {
		d.prepend = append(d.prepend, &block{entries: fresh})
		return
	}

	// partisi pakai median berulang sampai setiap block <= ceil(m/2), O(L log(L/m)) tanpa full sort.
	chunks := partitionByMedian(fresh, (d.m+1)/2)
	for i := len(chunks) - 1; i >= 0; i-- {
		d.prepend = append(d.prepend, &block{entries: chunks[i]})
	}
}

type candidate struct {
	BlockEntry
	fromPrepend bool
}

func candidateLess(a, b candidate) bool {
	return entryLess(a.BlockEntry, b.BlockEntry)
}

// Pull removes up to m entries with the smallest values and returns them with a separating bound:
// every returned value is strictly below the bound, every value left in D is >= the bound.
// the bound is the smallest remaining value, or Bound() when D is empty.
func (d *BlockList) Pull() ([]BlockEntry, float64) {
	if d.IsEmpty() {
		return []BlockEntry{}, d.bound
	}

	hint := len(d.current)
	if d.m < hint {
		hint = d.m
	}
	cands := make([]candidate, 0, hint)

	// D0: ambil block dari depan sampai dapat >= m entry live
	n0 := 0
	for n0 < d.m && len(d.prepend) > 0 {
		blk := d.prepend[len(d.prepend)-1]
		d.prepend = d.prepend[:len(d.prepend)-1]
		for _, e := range blk.entries {
			if d.live(e) {
				cands = append(cands, candidate{e, true})
				n0++
			}
		}
	}

	// D1: sama, dari index 0
	n1 := 0
	lastUpper := d.bound
	taken := 0
	for n1 < d.m && taken < len(d.insert) {
		blk := d.insert[taken]
		taken++
		lastUpper = blk.upper
		for _, e := range blk.entries {
			if d.live(e) {
				cands = append(cands, candidate{e, false})
				n1++
			}
		}
	}
	d.insert = d.insert[taken:]

	take := d.m
	if take > len(cands) {
		take = len(cands)
	}
	// cukup pilih m terkecil, hanya prefix yang diurutkan
	if take < len(cands) {
		selectKth(cands, take, candidateLess)
	}
	sort.Slice(cands[:take], func(i, j int) bool {
		return candidateLess(cands[i], cands[j])
	})
	pulled := make([]BlockEntry, 0, take)
	for _, c := range cands[:take] {
		pulled = append(pulled, c.BlockEntry)
	}

	// sisa kandidat dikembalikan ke depan list asalnya
	var rest0, rest1 []BlockEntry
	for _, c := range cands[take:] {
		if c.fromPrepend {
			rest0 = append(rest0, c.BlockEntry)
		} else {
			rest1 = append(rest1, c.BlockEntry)
		}
	}
	if len(rest0) > 0 {
		d.prepend = append(d.prepend, &block{entries: rest0})
	}
	if len(rest1) > 0 || len(d.insert) == 0 {
		d.insert = append([]*block{{entries: rest1, upper: lastUpper}}, d.insert...)
		for len(d.insert[0].entries) > d.m {
			d.splitInsertBlock(0)
		}
	}
	if d.insert[len(d.insert)-1].upper < d.bound {
		d.insert = append(d.insert, &block{upper: d.bound})
	}

	// pulled masih tercatat di current, tapi sudah tidak ada secara fisik, jadi minValue hanya melihat sisa.
	for _, e := range pulled {
		delete(d.current, e.Vertex)
	}
	rest := d.minValue()

	if len(pulled) > 0 && pulled[len(pulled)-1].Value >= rest {
		i := sort.Search(len(pulled), func(i int) bool {
			return pulled[i].Value >= rest
		})
		if i > 0 {
			back := pulled[i:]
			pulled = pulled[:i]
			for j := range back {
				back[j], _ = d.claim(back[j].Vertex, back[j].Value)
			}
			d.prepend = append(d.prepend, &block{entries: back})
		} else {
			pulled = append(pulled, d.drainValue(rest)...)
		}
		rest = d.minValue()
	}

	return pulled, rest
}

// MinValue returns the smallest live value, or Bound() when empty.
func (d *BlockList) MinValue() float64 {
	return d.minValue()
}

func (d *BlockList) minValue() float64 {
	d.trimFront()
	min := d.bound
	if len(d.prepend) > 0 {
		for _, e := range d.prepend[len(d.prepend)-1].entries {
			if d.live(e) && e.Value < min {
				min = e.Value
			}
		}
	}
	for _, e := range d.insert[0].entries {
		if d.live(e) && e.Value < min {
			min = e.Value
		}
	}
	return min
}

// trimFront buang block depan yang sudah tidak punya entry live. D1 selalu menyisakan minimal 1 block.
func (d *BlockList) trimFront() {
	for len(d.prepend) > 0 {
		blk := d.prepend[len(d.prepend)-1]
		d.compact(blk)
		if len(blk.entries) > 0 {
			break
		}
		d.prepend = d.prepend[:len(d.prepend)-1]
	}
	for len(d.insert) > 1 {
		d.compact(d.insert[0])
		if len(d.insert[0].entries) > 0 {
			break
		}
		d.insert = d.insert[1:]
	}
	d.compact(d.insert[0])
}

// drainValue menarik semua entry live dengan nilai == value. value harus nilai minimum saat ini.
func (d *BlockList) drainValue(value float64) []BlockEntry {
	var out []BlockEntry
	for len(d.prepend) > 0 {
		blk := d.prepend[len(d.prepend)-1]
		others := blk.entries[:0]
		for _, e := range blk.entries {
			if !d.live(e) {
				continue
			}
			if e.Value == value {
				out = append(out, e)
			} else {
				others = append(others, e)
			}
		}
		blk.entries = others
		if len(others) > 0 {
			break
		}
		d.prepend = d.prepend[:len(d.prepend)-1]
	}
	for len(d.insert) > 0 {
		blk := d.insert[0]
		others := blk.entries[:0]
		for _, e := range blk.entries {
			if !d.live(e) {
				continue
			}
			if e.Value == value {
				out = append(out, e)
			} else {
				others = append(others, e)
			}
		}
		blk.entries = others
		if len(others) > 0 || len(d.insert) == 1 {
			break
		}
		d.insert = d.insert[1:]
	}

	sort.Slice(out, func(i, j int) bool {
		return entryLess(out[i], out[j])
	})
	for _, e := range out {
		delete(d.current, e.Vertex)
	}
	return out
}

func (d *BlockList) compact(blk *block) {
	live := blk.entries[:0]
	for _, e := range blk.entries {
		if d.live(e) {
			live = append(live, e)
		}
	}
	blk.entries = live
}

// splitInsertBlock membagi block D1 ke-i jadi dua di median. block kiri upper = nilai maksimum di kiri.
func (d *BlockList) splitInsertBlock(i int) {
	blk := d.insert[i]
	k := len(blk.entries) / 2
	selectKth(blk.entries, k, entryLess)

	left := make([]BlockEntry, k)
	copy(left, blk.entries[:k])
	right := make([]BlockEntry, len(blk.entries)-k)
	copy(right, blk.entries[k:])

	leftUpper := left[0].Value
	for _, e := range left {
		if e.Value > leftUpper {
			leftUpper = e.Value
		}
	}

	blk.entries = right
	d.insert = append(d.insert, nil)
	copy(d.insert[i+1:], d.insert[i:])
	d.insert[i] = &block{entries: left, upper: leftUpper}
}

func entryLess(a, b BlockEntry) bool {
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return a.Vertex < b.Vertex
}

// partitionByMedian memecah entries jadi potongan terurut naik (antar potongan) dengan ukuran <= maxSize.
func partitionByMedian(entries []BlockEntry, maxSize int) [][]BlockEntry {
	if maxSize < 1 {
		maxSize = 1
	}
	if len(entries) <= maxSize {
		return [][]BlockEntry{entries}
	}
	k := len(entries) / 2
	selectKth(entries, k, entryLess)
	left := partitionByMedian(entries[:k:k], maxSize)
	right := partitionByMedian(entries[k:], maxSize)
	return append(left, right...)
}

// selectKth quickselect: setelah return, es[:k] < es[k] <= es[k+1:] menurut less.
func selectKth[T any](es []T, k int, less func(a, b T) bool) {
	lo, hi := 0, len(es)-1
	for lo < hi {
		p := partitionEntries(es, lo, hi, less)
		switch {
		case k == p:
			return
		case k < p:
			hi = p - 1
		default:
			lo = p + 1
		}
	}
}

func partitionEntries[T any](es []T, lo, hi int, less func(a, b T) bool) int {
	mid := lo + (hi-lo)/2
	es[mid], es[hi] = es[hi], es[mid]
	pivot := es[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if less(es[j], pivot) {
			es[i], es[j] = es[j], es[i]
			i++
		}
	}
	es[i], es[hi] = es[hi], es[i]
	return i
}
