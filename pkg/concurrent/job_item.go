package concurrent

// SaveDistancesJobItem satu distance map yang mau disimpan ke kv store.
type SaveDistancesJobItem struct {
	KeyStr    string
	Distances []float64
}

// SourceJobItem satu source vertex untuk single-source shortest path.
type SourceJobItem struct {
	Source int32
}

type JobI interface {
	SourceJobItem | SaveDistancesJobItem
}

type JobFunc[T JobI, G any] func(job T) G
