package endpoints

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Assurean/rocket-quote-fzia64-sub003/history"
)

type statusResponse struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	HistorySnapshot time.Time `json:"history_snapshot,omitempty"`
	HistoryStale    bool      `json:"history_stale"`
}

// NewStatusEndpoint reports process health. A stale history snapshot degrades
// the status but does not fail it; auctions still run with neutral scoring.
func NewStatusEndpoint(hist *history.Store) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		resp := statusResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC(),
		}
		if hist != nil {
			resp.HistorySnapshot = hist.Snapshot().CreatedAt()
			resp.HistoryStale = hist.Stale()
			if resp.HistoryStale {
				resp.Status = "degraded"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
