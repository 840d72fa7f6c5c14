package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Assurean/rocket-quote-fzia64-sub003/history"
	metricsConfig "github.com/Assurean/rocket-quote-fzia64-sub003/metrics/config"
)

func TestStatusEndpoint(t *testing.T) {
	hist := history.NewStore(http.DefaultClient, "", 0, &metricsConfig.NilMetricsEngine{})
	endpoint := NewStatusEndpoint(hist)

	recorder := httptest.NewRecorder()
	endpoint(recorder, httptest.NewRequest("GET", "/status", nil), nil)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var resp statusResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.HistoryStale)
}

func TestStatusEndpointDegradedWhenHistoryStale(t *testing.T) {
	// A store with a staleness threshold that has never fetched reports stale.
	hist := history.NewStore(http.DefaultClient, "http://stats.invalid", time.Minute, &metricsConfig.NilMetricsEngine{})
	endpoint := NewStatusEndpoint(hist)

	recorder := httptest.NewRecorder()
	endpoint(recorder, httptest.NewRequest("GET", "/status", nil), nil)

	var resp statusResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.True(t, resp.HistoryStale)
}
