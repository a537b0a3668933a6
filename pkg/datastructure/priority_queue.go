package datastructure

import (
	"errors"

	"golang.org/x/exp/constraints"
)

type PriorityQueueNode[T constraints.Integer] struct {
	Rank float64
	Item T
}

var ErrHeapEmpty = errors.New("heap is empty")

// MinHeap binary heap priorityqueue dengan decrease-key.
// item adalah vertex index, jadi posisi item disimpan di slice (bukan map) sebesar jumlah vertex.
type MinHeap[T constraints.Integer] struct {
	heap []PriorityQueueNode[T]
	pos  []int // -1 = tidak ada di heap
}

func NewMinHeap[T constraints.Integer](numItems int) *MinHeap[T] {
	pos := make([]int, numItems)
	for i := range pos {
		pos[i] = -1
	}
	return &MinHeap[T]{
		heap: make([]PriorityQueueNode[T], 0),
		pos:  pos,
	}
}

// parent get index dari parent
func (h *MinHeap[T]) parent(index int) int {
	return (index - 1) / 2
}

// leftChild get index dari left child
func (h *MinHeap[T]) leftChild(index int) int {
	return 2*index + 1
}

// rightChild get index dari right child
func (h *MinHeap[T]) rightChild(index int) int {
	return 2*index + 2
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.pos[h.heap[i].Item] = i
	h.pos[h.heap[j].Item] = j
}

// heapifyUp check apakah parent dari index lebih besar kalau iya swap, lanjut ke parent. O(logN) tree height.
func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 && h.heap[index].Rank < h.heap[h.parent(index)].Rank {
		h.swap(index, h.parent(index))
		index = h.parent(index)
	}
}

// heapifyDown check apakah salah satu children dari index lebih kecil kalau iya swap, lanjut ke children tadi. O(logN).
func (h *MinHeap[T]) heapifyDown(index int) {
	for {
		smallest := index
		left := h.leftChild(index)
		right := h.rightChild(index)

		if left < len(h.heap) && h.heap[left].Rank < h.heap[smallest].Rank {
			smallest = left
		}
		if right < len(h.heap) && h.heap[right].Rank < h.heap[smallest].Rank {
			smallest = right
		}
		if smallest == index {
			return
		}
		h.swap(index, smallest)
		index = smallest
	}
}

func (h *MinHeap[T]) IsEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

// Contains true kalau item sedang ada di heap.
func (h *MinHeap[T]) Contains(item T) bool {
	return h.pos[item] >= 0
}

// GetMin mendapatkan nilai minimum dari min-heap (index 0) tanpa pop.
func (h *MinHeap[T]) GetMin() (PriorityQueueNode[T], error) {
	if h.IsEmpty() {
		return PriorityQueueNode[T]{}, ErrHeapEmpty
	}
	return h.heap[0], nil
}

// Insert item baru. item yang sudah ada di heap harus lewat DecreaseKey.
func (h *MinHeap[T]) Insert(key PriorityQueueNode[T]) {
	h.heap = append(h.heap, key)
	index := h.Size() - 1
	h.pos[key.Item] = index
	h.heapifyUp(index)
}

// ExtractMin ambil nilai minimum dari min-heap (index 0) & pop dari heap. O(logN).
func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], error) {
	if h.IsEmpty() {
		return PriorityQueueNode[T]{}, ErrHeapEmpty
	}
	root := h.heap[0]
	last := h.Size() - 1
	h.swap(0, last)
	h.heap = h.heap[:last]
	h.pos[root.Item] = -1
	if len(h.heap) > 0 {
		h.heapifyDown(0)
	}
	return root, nil
}

// DecreaseKey update Rank dari item yang sudah ada di heap. O(logN).
func (h *MinHeap[T]) DecreaseKey(item PriorityQueueNode[T]) error {
	idx := h.pos[item.Item]
	if idx < 0 || idx >= h.Size() || item.Rank > h.heap[idx].Rank {
		return errors.New("invalid index or new value")
	}
	h.heap[idx] = item
	h.heapifyUp(idx)
	return nil
}

// InsertOrDecrease insert kalau belum ada, decrease-key kalau rank baru lebih kecil.
func (h *MinHeap[T]) InsertOrDecrease(item PriorityQueueNode[T]) {
	idx := h.pos[item.Item]
	if idx < 0 {
		h.Insert(item)
		return
	}
	if item.Rank < h.heap[idx].Rank {
		h.heap[idx] = item
		h.heapifyUp(idx)
	}
}

// Clear kosongkan heap tanpa alokasi ulang pos. O(size), bukan O(numItems).
func (h *MinHeap[T]) Clear() {
	for _, node := range h.heap {
		h.pos[node.Item] = -1
	}
	h.heap = h.heap[:0]
}
