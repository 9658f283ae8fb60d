package climatiq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-key", "^3", 5*time.Second, zap.NewNop())
}

func TestSearchParsesResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/v1/search", r.URL.Path)
		assert.Equal(t, "beef", r.URL.Query().Get("query"))
		assert.Equal(t, "^3", r.URL.Query().Get("data_version"))
		assert.Equal(t, "US", r.URL.Query().Get("region"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"activity_id":"beef-1","name":"Beef","source":"poore-nemecek","region":"GLOBAL","year":2018,"unit_type":"Weight","unit":"kgCO2e/kg"},
			{"activity_id":"beef-2","unit_type":"Money","unit":"kg/eur"}
		]}`))
	})

	docs, err := client.Search(context.Background(), "beef", "US")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "beef-1", docs[0].ActivityID)
	assert.Equal(t, "Beef", docs[0].Name)
	assert.Equal(t, "Weight", docs[0].UnitType)
	assert.Equal(t, "kgCO2e/kg", docs[0].Unit)
	assert.Equal(t, 2018, docs[0].Year)
	assert.Contains(t, string(docs[0].Raw), `"activity_id":"beef-1"`)

	assert.Equal(t, "Money", docs[1].UnitType)
}

func TestSearchOmitsEmptyRegion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["region"]
		assert.False(t, present)
		w.Write([]byte(`{"results":[]}`))
	})

	docs, err := client.Search(context.Background(), "beef", "")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSearchReportsErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	})

	_, err := client.Search(context.Background(), "beef", "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "401")
}

func TestEstimatePostsExpectedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/data/v1/estimate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload struct {
			EmissionFactor struct {
				ActivityID  string `json:"activity_id"`
				DataVersion string `json:"data_version"`
			} `json:"emission_factor"`
			Parameters map[string]any `json:"parameters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "beef-1", payload.EmissionFactor.ActivityID)
		assert.Equal(t, "^3", payload.EmissionFactor.DataVersion)
		assert.InDelta(t, 0.907, payload.Parameters["weight"].(float64), 0.001)
		assert.Equal(t, "kg", payload.Parameters["weight_unit"])

		w.Write([]byte(`{"co2e":54.8,"co2e_unit":"kg"}`))
	})

	resp, err := client.Estimate(context.Background(), core.EstimateRequest{
		ActivityID:  "beef-1",
		DataVersion: "^3",
		Parameters:  map[string]any{"weight": 0.907, "weight_unit": "kg"},
	})
	require.NoError(t, err)
	assert.Equal(t, 54.8, resp.CO2e)
	assert.Contains(t, string(resp.Raw), "co2e_unit")
}

func TestEstimateReportsErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad unit"}`, http.StatusBadRequest)
	})

	_, err := client.Estimate(context.Background(), core.EstimateRequest{
		ActivityID: "beef-1",
		Parameters: map[string]any{"weight": 1, "weight_unit": "kg"},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "400")
	assert.ErrorContains(t, err, "bad unit")
}
