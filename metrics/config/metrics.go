package config

import (
	"time"

	"github.com/golang/glog"

	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
	"github.com/Assurean/rocket-quote-fzia64-sub003/metrics"
	prometheusmetrics "github.com/Assurean/rocket-quote-fzia64-sub003/metrics/prometheus"
)

// NewMetricsEngine reads the configuration and returns the appropriate metrics
// engine for this instance.
func NewMetricsEngine(cfg *config.Configuration, partnerIDs []string) *DetailedMetricsEngine {
	// Create a list of metrics engines to use.
	engineList := make(MultiMetricsEngine, 0, 1)
	returnEngine := DetailedMetricsEngine{}

	if cfg.Metrics.Prometheus.Port != 0 {
		// Set up the Prometheus metrics.
		returnEngine.PrometheusMetrics = prometheusmetrics.NewMetrics(cfg.Metrics.Prometheus, partnerIDs)
		engineList = append(engineList, returnEngine.PrometheusMetrics)
	}

	// Now return the proper metrics engine
	if len(engineList) > 1 {
		returnEngine.MetricsEngine = &engineList
	} else if len(engineList) == 1 {
		returnEngine.MetricsEngine = engineList[0]
	} else {
		glog.Warning("No metrics backend configured, auction metrics will not be recorded")
		returnEngine.MetricsEngine = &NilMetricsEngine{}
	}

	return &returnEngine
}

// DetailedMetricsEngine is a MultiMetricsEngine that preserves links to the
// underlying engines so the server can pull out the prometheus registry.
type DetailedMetricsEngine struct {
	metrics.MetricsEngine
	PrometheusMetrics *prometheusmetrics.Metrics
}

// MultiMetricsEngine logs metrics to multiple metrics databases
type MultiMetricsEngine []metrics.MetricsEngine

// RecordRequest across all engines
func (me *MultiMetricsEngine) RecordRequest(labels metrics.Labels) {
	for _, thisME := range *me {
		thisME.RecordRequest(labels)
	}
}

// RecordRequestTime across all engines
func (me *MultiMetricsEngine) RecordRequestTime(labels metrics.Labels, length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordRequestTime(labels, length)
	}
}

// RecordPartnerRequest across all engines
func (me *MultiMetricsEngine) RecordPartnerRequest(labels metrics.PartnerLabels) {
	for _, thisME := range *me {
		thisME.RecordPartnerRequest(labels)
	}
}

// RecordPartnerTime across all engines
func (me *MultiMetricsEngine) RecordPartnerTime(labels metrics.PartnerLabels, length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordPartnerTime(labels, length)
	}
}

// RecordPartnerPrice across all engines
func (me *MultiMetricsEngine) RecordPartnerPrice(labels metrics.PartnerLabels, price float64) {
	for _, thisME := range *me {
		thisME.RecordPartnerPrice(labels, price)
	}
}

// RecordPartnerRetry across all engines
func (me *MultiMetricsEngine) RecordPartnerRetry(partner string) {
	for _, thisME := range *me {
		thisME.RecordPartnerRetry(partner)
	}
}

// RecordPartnerPanic across all engines
func (me *MultiMetricsEngine) RecordPartnerPanic(labels metrics.PartnerLabels) {
	for _, thisME := range *me {
		thisME.RecordPartnerPanic(labels)
	}
}

// RecordBidsReturned across all engines
func (me *MultiMetricsEngine) RecordBidsReturned(labels metrics.Labels, count int) {
	for _, thisME := range *me {
		thisME.RecordBidsReturned(labels, count)
	}
}

// RecordPoolSaturation across all engines
func (me *MultiMetricsEngine) RecordPoolSaturation(partner string) {
	for _, thisME := range *me {
		thisME.RecordPoolSaturation(partner)
	}
}

// RecordAuctionStarted across all engines
func (me *MultiMetricsEngine) RecordAuctionStarted() {
	for _, thisME := range *me {
		thisME.RecordAuctionStarted()
	}
}

// RecordAuctionCompleted across all engines
func (me *MultiMetricsEngine) RecordAuctionCompleted() {
	for _, thisME := range *me {
		thisME.RecordAuctionCompleted()
	}
}

// RecordConnectionAccept across all engines
func (me *MultiMetricsEngine) RecordConnectionAccept(success bool) {
	for _, thisME := range *me {
		thisME.RecordConnectionAccept(success)
	}
}

// RecordConnectionClose across all engines
func (me *MultiMetricsEngine) RecordConnectionClose(success bool) {
	for _, thisME := range *me {
		thisME.RecordConnectionClose(success)
	}
}

// RecordHistoryRefresh across all engines
func (me *MultiMetricsEngine) RecordHistoryRefresh(success bool) {
	for _, thisME := range *me {
		thisME.RecordHistoryRefresh(success)
	}
}

// NilMetricsEngine implements the MetricsEngine interface where no metrics are
// actually captured. Used when no backend is configured, and convenient for
// tests that are not testing metrics.
type NilMetricsEngine struct{}

func (me *NilMetricsEngine) RecordRequest(labels metrics.Labels)                           {}
func (me *NilMetricsEngine) RecordRequestTime(labels metrics.Labels, length time.Duration) {}
func (me *NilMetricsEngine) RecordPartnerRequest(labels metrics.PartnerLabels)             {}
func (me *NilMetricsEngine) RecordPartnerTime(labels metrics.PartnerLabels, length time.Duration) {
}
func (me *NilMetricsEngine) RecordPartnerPrice(labels metrics.PartnerLabels, price float64) {}
func (me *NilMetricsEngine) RecordPartnerRetry(partner string)                              {}
func (me *NilMetricsEngine) RecordPartnerPanic(labels metrics.PartnerLabels)                {}
func (me *NilMetricsEngine) RecordBidsReturned(labels metrics.Labels, count int)            {}
func (me *NilMetricsEngine) RecordPoolSaturation(partner string)                            {}
func (me *NilMetricsEngine) RecordAuctionStarted()                                          {}
func (me *NilMetricsEngine) RecordAuctionCompleted()                                        {}
func (me *NilMetricsEngine) RecordConnectionAccept(success bool)                            {}
func (me *NilMetricsEngine) RecordConnectionClose(success bool)                             {}
func (me *NilMetricsEngine) RecordHistoryRefresh(success bool)                              {}
