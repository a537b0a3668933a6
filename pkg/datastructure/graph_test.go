package datastructure

import (
	"math"
	"testing"

	"lintang/bmssp/pkg/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph(t *testing.T) {
	t.Run("adjacency keeps input order", func(t *testing.T) {
		g, err := NewGraph(4, []Edge{
			{From: 0, To: 1, Weight: 2},
			{From: 2, To: 3, Weight: 1},
			{From: 0, To: 2, Weight: 5},
			{From: 0, To: 1, Weight: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, 4, g.VertexCount())
		assert.Equal(t, 4, g.EdgeCount())
		assert.Equal(t, []EdgePair{{1, 2}, {2, 5}, {1, 1}}, g.Neighbors(0))
		assert.Empty(t, g.Neighbors(1))
		assert.Equal(t, []EdgePair{{3, 1}}, g.Neighbors(2))
		assert.Len(t, g.Edges(), 4)
	})

	t.Run("empty graph is allowed", func(t *testing.T) {
		g, err := NewGraph(0, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, g.VertexCount())
		assert.False(t, g.IsValidVertex(0))
	})

	t.Run("invalid weights", func(t *testing.T) {
		for _, w := range []float64{-1, math.NaN(), math.Inf(1)} {
			_, err := NewGraph(2, []Edge{{From: 0, To: 1, Weight: w}})
			assert.ErrorIs(t, err, server.ErrInvalidWeight, "weight %v", w)
		}
	})

	t.Run("endpoint out of range", func(t *testing.T) {
		_, err := NewGraph(2, []Edge{{From: 0, To: 2, Weight: 1}})
		assert.ErrorIs(t, err, server.ErrVertexOutOfRange)
		_, err = NewGraph(2, []Edge{{From: -1, To: 1, Weight: 1}})
		assert.ErrorIs(t, err, server.ErrVertexOutOfRange)
	})

	t.Run("from edge list", func(t *testing.T) {
		g, err := NewGraphFromEdgeList(EdgeList{VertexCount: 3, Edges: []Edge{{From: 2, To: 0, Weight: 0}}})
		require.NoError(t, err)
		assert.True(t, g.IsValidVertex(2))
		assert.Equal(t, []EdgePair{{0, 0}}, g.Neighbors(2))
	})
}
