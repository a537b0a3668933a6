package routingalgorithm

import (
	"lintang/bmssp/pkg/datastructure"
)

// cancelCheckInterval cancellation dicek setiap sekian vertex settled.
const cancelCheckInterval = 256

// ShortestPathDijkstra classical dijkstra dengan decrease-key binary heap. update hanya kalau strictly lebih kecil.
func (rt *RouteAlgorithm) ShortestPathDijkstra(rc *RunContext, source int32) (DistanceMap, error) {
	n := rt.g.VertexCount()
	dist := newDistanceMap(n, source)
	settled := make([]bool, n)

	pq := datastructure.NewMinHeap[int32](n)
	pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: 0, Item: source})

	count := 0
	for !pq.IsEmpty() {
		if count%cancelCheckInterval == 0 {
			if err := rc.cancelled(); err != nil {
				return nil, err
			}
		}
		count++

		smallest, _ := pq.ExtractMin()
		u := smallest.Item
		if settled[u] {
			continue
		}
		settled[u] = true

		for _, e := range rt.g.Neighbors(u) {
			rc.stats.Relaxations++
			v := e.ToNodeIDX
			if settled[v] {
				continue
			}
			nd := dist[u] + e.Weight
			if nd < dist[v] {
				dist[v] = nd
				pq.InsertOrDecrease(datastructure.PriorityQueueNode[int32]{Rank: nd, Item: v})
			}
		}
	}

	return dist, nil
}
