package router

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/Assurean/rocket-quote-fzia64-sub003/endpoints"
	"github.com/Assurean/rocket-quote-fzia64-sub003/history"
)

// Admin returns the handler for the admin port: build info, the history
// snapshot, and pprof. Never expose this port publicly.
func Admin(revision string, hist *history.Store, historyRefreshInterval time.Duration) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/version", endpoints.NewVersionEndpoint(revision))
	mux.HandleFunc("/history", endpoints.NewPartnerHistoryEndpoint(hist, historyRefreshInterval))

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return mux
}
