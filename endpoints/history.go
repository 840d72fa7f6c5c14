package endpoints

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang/glog"

	"github.com/Assurean/rocket-quote-fzia64-sub003/history"
)

// partnerHistoryInfo is the admin view of the current history snapshot.
type partnerHistoryInfo struct {
	Active          bool                            `json:"active"`
	RefreshInterval *time.Duration                  `json:"refreshIntervalNs,omitempty"`
	LastUpdated     *time.Time                      `json:"lastUpdated,omitempty"`
	Stale           bool                            `json:"stale"`
	Partners        map[string]history.PartnerStats `json:"partners,omitempty"`
}

func newPartnerHistoryInfo(store *history.Store, refreshInterval time.Duration) partnerHistoryInfo {
	info := partnerHistoryInfo{
		Active: false,
	}

	if store == nil {
		return info
	}

	info.Active = true
	info.RefreshInterval = &refreshInterval
	info.Stale = store.Stale()

	snap := store.Snapshot()
	lastUpdated := snap.CreatedAt()
	info.LastUpdated = &lastUpdated
	info.Partners = snap.Partners()

	return info
}

// NewPartnerHistoryEndpoint reports the partner history snapshot currently
// feeding quality scoring. Admin port only: it exposes per-partner
// performance data that must not leave the operator's network.
func NewPartnerHistoryEndpoint(store *history.Store, refreshInterval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		info := newPartnerHistoryInfo(store, refreshInterval)

		jsonInfo, err := json.Marshal(info)
		if err != nil {
			glog.Errorf("/history endpoint: marshaling error: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(jsonInfo)
	}
}
