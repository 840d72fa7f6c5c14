package router

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
	"github.com/Assurean/rocket-quote-fzia64-sub003/endpoints"
	"github.com/Assurean/rocket-quote-fzia64-sub003/exchange"
	"github.com/Assurean/rocket-quote-fzia64-sub003/history"
	metricsConf "github.com/Assurean/rocket-quote-fzia64-sub003/metrics/config"
)

// historyFetchTimeout caps one history refresh call. Refreshes run outside
// the auction path, so a generous bound is fine; it only has to be finite.
const historyFetchTimeout = 5 * time.Second

// Router wires the auction engine behind its HTTP surface.
type Router struct {
	*httprouter.Router
	MetricsEngine *metricsConf.DetailedMetricsEngine
	History       *history.Store
}

// New builds the metrics engine, the history store, the shared outbound
// client, the exchange, and the routes. Everything here is constructed once
// at startup and shared read-only across requests.
func New(cfg *config.Configuration) (*Router, error) {
	r := &Router{
		Router: httprouter.New(),
	}

	r.MetricsEngine = metricsConf.NewMetricsEngine(cfg, cfg.EnabledPartners())

	r.History = history.NewStore(
		// Bounded so a hung stats endpoint cannot wedge the refresh
		// goroutine, or startup, which runs the first refresh inline.
		&http.Client{Timeout: historyFetchTimeout},
		cfg.History.FetchURL,
		time.Duration(cfg.History.StaleSnapshotSeconds)*time.Second,
		r.MetricsEngine,
	)

	outboundClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Client.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.Client.MaxIdleConnsPerHost,
			IdleConnTimeout:     time.Duration(cfg.Client.IdleConnTimeoutSecs) * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}

	ex, err := exchange.NewExchange(cfg, outboundClient, r.MetricsEngine, r.History)
	if err != nil {
		return nil, fmt.Errorf("failed to build the exchange: %v", err)
	}

	auctionEndpoint, err := endpoints.NewAuctionEndpoint(ex, cfg, r.MetricsEngine)
	if err != nil {
		return nil, fmt.Errorf("failed to create the auction endpoint handler: %v", err)
	}

	r.POST("/auction", auctionEndpoint)
	r.GET("/status", endpoints.NewStatusEndpoint(r.History))

	return r, nil
}

// SupportCORS wraps the router with the CORS policy the click-wall frontend
// needs: credentialed requests from any origin with the standard headers.
func SupportCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowCredentials: true,
		AllowOriginFunc: func(string) bool {
			return true
		},
		AllowedMethods: []string{"POST", "GET"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"}})
	return c.Handler(handler)
}

// NoCache forces every response to carry no-store headers; auction results
// are single-use and must never be replayed from a cache.
type NoCache struct {
	Handler http.Handler
}

func (m NoCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Add("Pragma", "no-cache")
	w.Header().Add("Expires", "0")
	m.Handler.ServeHTTP(w, r)
}
