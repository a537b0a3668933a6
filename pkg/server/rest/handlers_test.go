package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lintang/bmssp/pkg/datastructure"
	"lintang/bmssp/pkg/engine/routingalgorithm"
	"lintang/bmssp/pkg/geo"
	"lintang/bmssp/pkg/kv"
	"lintang/bmssp/pkg/server/rest"
	"lintang/bmssp/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 0 -> 1 -> 2, 3 tidak reachable
func newTestRouter(t *testing.T, withCoords bool) http.Handler {
	t.Helper()
	g, err := datastructure.NewGraph(4, []datastructure.Edge{
		{From: 0, To: 1, Weight: 100},
		{From: 1, To: 2, Weight: 50.5},
		{From: 3, To: 0, Weight: 1},
	})
	require.NoError(t, err)

	var coords []geo.Coordinate
	if withCoords {
		coords = []geo.Coordinate{
			{Lat: -7.550, Lon: 110.800},
			{Lat: -7.551, Lon: 110.800},
			{Lat: -7.552, Lon: 110.800},
			{Lat: -7.600, Lon: 110.900},
		}
	}

	db, err := kv.OpenDB("rest-test", true)
	require.NoError(t, err)
	store := kv.NewKVDB(db, nil, false)
	t.Cleanup(func() { store.Close() })

	svc := service.NewSSSPService("test", g, routingalgorithm.Params{}, []int64{10, 11, 12, 13}, coords,
		service.WithCache(store))
	r := chi.NewRouter()
	rest.SSSPRouter(r, svc)
	return r
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/sssp/distances", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDistancesBySource(t *testing.T) {
	h := newTestRouter(t, false)

	for _, alg := range []string{"dijkstra", "bmssp"} {
		t.Run(alg, func(t *testing.T) {
			rec := post(t, h, `{"source": 0, "algorithm": "`+alg+`", "include_unreachable": true}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp rest.DistancesResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, alg, resp.Algorithm)
			assert.Equal(t, int64(10), resp.SourceNodeID)
			assert.Equal(t, 4, resp.Summary.NodeCount)
			assert.Equal(t, 3, resp.Summary.ReachableCount)
			assert.Equal(t, 150.5, resp.Summary.MaxDistance)

			require.Len(t, resp.Distances, 4)
			require.NotNil(t, resp.Distances[2].Distance)
			assert.Equal(t, 150.5, *resp.Distances[2].Distance)
			assert.Equal(t, int64(12), resp.Distances[2].NodeID)
			assert.Nil(t, resp.Distances[3].Distance)
		})
	}
}

func TestDistancesCached(t *testing.T) {
	h := newTestRouter(t, false)

	rec := post(t, h, `{"source": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var first rest.DistancesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.False(t, first.Cached)
	assert.Equal(t, "bmssp", first.Algorithm)

	rec = post(t, h, `{"source": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var second rest.DistancesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, second.Cached)
	assert.Equal(t, first.Distances, second.Distances)
}

func TestDistancesOrderAndLimit(t *testing.T) {
	h := newTestRouter(t, false)

	rec := post(t, h, `{"source": 3, "order": "distance", "limit": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp rest.DistancesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Distances, 2)
	assert.Equal(t, int32(3), resp.Distances[0].Vertex)
	assert.Equal(t, int32(0), resp.Distances[1].Vertex)
	assert.Equal(t, 4, resp.Summary.ReachableCount)
}

func TestDistancesByCoordinate(t *testing.T) {
	h := newTestRouter(t, true)

	rec := post(t, h, `{"lat": -7.5511, "lon": 110.8001}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp rest.DistancesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int32(1), resp.Source)
	assert.Greater(t, resp.SnapDistance, 0.0)
	assert.Equal(t, 2, resp.Summary.ReachableCount)
}

func TestDistancesErrors(t *testing.T) {
	tests := []struct {
		name       string
		withCoords bool
		body       string
		status     int
	}{
		{"malformed json", false, `{"source": `, http.StatusBadRequest},
		{"no source", false, `{}`, http.StatusBadRequest},
		{"lat without lon", false, `{"lat": -7.5}`, http.StatusBadRequest},
		{"unknown algorithm", false, `{"source": 0, "algorithm": "astar"}`, http.StatusBadRequest},
		{"unknown order", false, `{"source": 0, "order": "random"}`, http.StatusBadRequest},
		{"source out of range", false, `{"source": 9}`, http.StatusBadRequest},
		{"lat out of range", true, `{"lat": 95, "lon": 110}`, http.StatusBadRequest},
		{"coordinate without coords", false, `{"lat": -7.5, "lon": 110.8}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, tt.withCoords)
			rec := post(t, h, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp rest.ErrResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.StatusText)
		})
	}
}

func TestGraphInfo(t *testing.T) {
	h := newTestRouter(t, true)
	req := httptest.NewRequest(http.MethodGet, "/api/sssp/graph", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp rest.GraphResponse
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&resp))
	assert.Equal(t, "test", resp.Name)
	assert.Equal(t, 4, resp.VertexCount)
	assert.Equal(t, 3, resp.EdgeCount)
	assert.Equal(t, 2, resp.K)
	assert.True(t, resp.HasCoords)
}
