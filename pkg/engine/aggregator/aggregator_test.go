package aggregator_test

import (
	"math"
	"testing"

	"lintang/bmssp/pkg/engine/aggregator"
	"lintang/bmssp/pkg/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	inf := math.Inf(1)

	t.Run("disconnected pair without unreachable", func(t *testing.T) {
		got, err := aggregator.Aggregate([]float64{0, inf}, aggregator.Options{})
		require.NoError(t, err)
		assert.Equal(t, []aggregator.Record{{VertexID: 0, NodeID: 0, Distance: 0}}, got)
	})

	t.Run("disconnected pair with unreachable", func(t *testing.T) {
		got, err := aggregator.Aggregate([]float64{0, inf}, aggregator.Options{IncludeUnreachable: true})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Reached())
		assert.False(t, got[1].Reached())
		assert.True(t, math.IsInf(got[1].Distance, 1))
	})

	t.Run("order by distance breaks ties by vertex", func(t *testing.T) {
		got, err := aggregator.Aggregate([]float64{5, 2, inf, 2, 0}, aggregator.Options{
			IncludeUnreachable: true,
			Order:              aggregator.ByDistance,
		})
		require.NoError(t, err)
		var order []int32
		for _, r := range got {
			order = append(order, r.VertexID)
		}
		assert.Equal(t, []int32{4, 1, 3, 0, 2}, order)
	})

	t.Run("node id mapping and limit", func(t *testing.T) {
		got, err := aggregator.Aggregate([]float64{0, 3, 1}, aggregator.Options{
			NodeIDs: []int64{1001, 1002, 1003},
			Order:   aggregator.ByDistance,
			Limit:   2,
		})
		require.NoError(t, err)
		assert.Equal(t, []aggregator.Record{
			{VertexID: 0, NodeID: 1001, Distance: 0},
			{VertexID: 2, NodeID: 1003, Distance: 1},
		}, got)
	})

	t.Run("bad options", func(t *testing.T) {
		_, err := aggregator.Aggregate([]float64{0}, aggregator.Options{NodeIDs: []int64{1, 2}})
		assert.ErrorIs(t, err, server.ErrBadParamInput)
		_, err = aggregator.Aggregate([]float64{0}, aggregator.Options{Order: "random"})
		assert.ErrorIs(t, err, server.ErrBadParamInput)
		_, err = aggregator.ParseOrder("random")
		assert.ErrorIs(t, err, server.ErrBadParamInput)
	})
}

func TestSummarize(t *testing.T) {
	s := aggregator.Summarize([]float64{0, 4.5, math.Inf(1), 2})
	assert.Equal(t, aggregator.Summary{NodeCount: 4, ReachableCount: 3, MaxDistance: 4.5}, s)
}
