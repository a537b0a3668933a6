package routingalgorithm

import (
	"math"

	"lintang/bmssp/pkg/server"
)

// Params parameter tuning BMSSP. field bernilai 0 diturunkan dari jumlah vertex.
type Params struct {
	// K jumlah round FindPivots dan ukuran base case
	K int
	// T branching: pull capacity di level l adalah 2^((l-1)*T)
	T int
	// PivotThreshold ukuran tree minimum supaya root jadi pivot
	PivotThreshold int
	// MaxLevel level rekursi paling atas
	MaxLevel int
}

// DefaultParams k = max(2, floor(log2(n)^(1/3))), t = max(1, floor(log2(n)^(2/3))), l = ceil(log2(n)/t).
func DefaultParams(n int) Params {
	if n < 2 {
		n = 2
	}
	logN := math.Log2(float64(n))
	k := int(math.Floor(math.Cbrt(logN)))
	if k < 2 {
		k = 2
	}
	t := int(math.Floor(math.Pow(logN, 2.0/3.0)))
	if t < 1 {
		t = 1
	}
	l := int(math.Ceil(logN / float64(t)))
	if l < 1 {
		l = 1
	}
	return Params{K: k, T: t, PivotThreshold: k, MaxLevel: l}
}

// Resolve fills zero fields from DefaultParams(n) and validates the result against n.
func (p Params) Resolve(n int) (Params, error) {
	def := DefaultParams(n)
	if p.K == 0 {
		p.K = def.K
	}
	if p.T == 0 {
		p.T = def.T
	}
	if p.PivotThreshold == 0 {
		p.PivotThreshold = p.K
	}
	if p.MaxLevel == 0 {
		p.MaxLevel = int(math.Ceil(math.Log2(float64(max(n, 2))) / float64(p.T)))
		if p.MaxLevel < 1 {
			p.MaxLevel = 1
		}
	}
	return p, p.Validate(n)
}

// Validate checks that the parameters keep a single top-level call complete for n vertices.
func (p Params) Validate(n int) error {
	if p.K < 1 || p.T < 1 || p.MaxLevel < 1 {
		return server.WrapErrorf(nil, server.ErrBadParamInput, "k, t and max level must be >= 1, got k=%d t=%d l=%d", p.K, p.T, p.MaxLevel)
	}
	// root dengan rantai k edge punya tree minimal k+1 vertex, threshold di atas itu bisa kehilangan vertex.
	if p.PivotThreshold < 1 || p.PivotThreshold > p.K+1 {
		return server.WrapErrorf(nil, server.ErrBadParamInput, "pivot threshold must be in [1, %d], got %d", p.K+1, p.PivotThreshold)
	}
	if workCap(p.K, p.MaxLevel, p.T) < n {
		return server.WrapErrorf(nil, server.ErrBadParamInput, "k*2^(l*t) = %d is below vertex count %d", workCap(p.K, p.MaxLevel, p.T), n)
	}
	return nil
}

const maxShift = 62

func pow2(e int) int {
	if e >= maxShift {
		return 1 << maxShift
	}
	return 1 << e
}

// pullCapacity M = 2^((l-1)t)
func pullCapacity(level, t int) int {
	return pow2((level - 1) * t)
}

// workCap k * 2^(l t), saturating
func workCap(k, level, t int) int {
	if level*t >= maxShift {
		return math.MaxInt
	}
	b := pow2(level * t)
	if k > math.MaxInt/b {
		return math.MaxInt
	}
	return k * b
}
