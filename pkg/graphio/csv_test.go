package graphio_test

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"lintang/bmssp/pkg/datastructure"
	"lintang/bmssp/pkg/engine/aggregator"
	"lintang/bmssp/pkg/graphio"
	"lintang/bmssp/pkg/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEdgeList(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		in := "from,to,weight\n0,1,2.5\n1, 3, 1\n3,0,0\n"
		el, err := graphio.ReadEdgeList(strings.NewReader(in))
		require.NoError(t, err)
		assert.Equal(t, 4, el.VertexCount)
		assert.Equal(t, []datastructure.Edge{
			{From: 0, To: 1, Weight: 2.5},
			{From: 1, To: 3, Weight: 1},
			{From: 3, To: 0, Weight: 0},
		}, el.Edges)
	})

	t.Run("header only", func(t *testing.T) {
		el, err := graphio.ReadEdgeList(strings.NewReader("from,to,weight\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, el.VertexCount)
		assert.Empty(t, el.Edges)
	})

	t.Run("negative weight passes parsing but fails graph construction", func(t *testing.T) {
		el, err := graphio.ReadEdgeList(strings.NewReader("from,to,weight\n0,1,-4\n"))
		require.NoError(t, err)
		_, err = datastructure.NewGraphFromEdgeList(el)
		assert.ErrorIs(t, err, server.ErrInvalidWeight)
	})

	t.Run("malformed rows", func(t *testing.T) {
		for _, in := range []string{
			"from,to,weight\n0,x,1\n",
			"from,to,weight\n0,1\n",
			"from,to,weight\n-1,1,1\n",
			"from,to,weight\n0,1,abc\n",
		} {
			_, err := graphio.ReadEdgeList(strings.NewReader(in))
			assert.ErrorIs(t, err, server.ErrBadParamInput, in)
		}
	})
}

func TestWriteDistances(t *testing.T) {
	records := []aggregator.Record{
		{VertexID: 0, NodeID: 42, Distance: 0},
		{VertexID: 1, NodeID: 43, Distance: 12.3456789},
		{VertexID: 2, NodeID: 44, Distance: math.Inf(1)},
	}

	var buf bytes.Buffer
	require.NoError(t, graphio.WriteDistances(&buf, records))
	assert.Equal(t, "node_id,distance_m\n42,0.000000\n43,12.345679\n44,inf\n", buf.String())

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, graphio.WriteDistancesFile(path, records[:1]))

	_, err := graphio.ReadEdgeListFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, server.ErrBadParamInput)
}
