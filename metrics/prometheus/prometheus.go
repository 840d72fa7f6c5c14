package prometheusmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
	"github.com/Assurean/rocket-quote-fzia64-sub003/metrics"
)

// Metrics defines the Prometheus metrics backing the MetricsEngine implementation.
type Metrics struct {
	Registry *prometheus.Registry

	// General metrics
	connectionsClosed prometheus.Counter
	connectionsError  *prometheus.CounterVec
	connectionsOpened prometheus.Counter
	requests          *prometheus.CounterVec
	requestsTimer     *prometheus.HistogramVec
	bidsReturned      *prometheus.CounterVec
	activeAuctions    prometheus.Gauge
	historyRefreshes  *prometheus.CounterVec

	// Partner metrics
	partnerRequests *prometheus.CounterVec
	partnerTimer    *prometheus.HistogramVec
	partnerPrices   *prometheus.HistogramVec
	partnerRetries  *prometheus.CounterVec
	partnerPanics   *prometheus.CounterVec
	poolSaturation  *prometheus.CounterVec
}

const (
	connectionErrorLabel = "connection_error"
	outcomeLabel         = "outcome"
	partnerLabel         = "partner"
	requestStatusLabel   = "request_status"
	successLabel         = "success"
	verticalLabel        = "vertical"
)

const (
	connectionAcceptError = "accept"
	connectionCloseError  = "close"
)

// NewMetrics initializes a new Prometheus metrics instance with preloaded label values.
func NewMetrics(cfg config.PrometheusMetrics, partnerIDs []string) *Metrics {
	standardTimeBuckets := []float64{0.02, 0.05, 0.075, 0.1, 0.15, 0.2, 0.3, 0.4, 0.5, 0.75, 1}
	priceBuckets := []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100}

	m := Metrics{}
	m.Registry = prometheus.NewRegistry()

	m.connectionsClosed = newCounterWithoutLabels(cfg, m.Registry,
		"connections_closed",
		"Count of successful connections closed to the auction server.")

	m.connectionsError = newCounter(cfg, m.Registry,
		"connections_error",
		"Count of errors for connection open and close attempts labeled by type.",
		[]string{connectionErrorLabel})

	m.connectionsOpened = newCounterWithoutLabels(cfg, m.Registry,
		"connections_opened",
		"Count of successful connections opened to the auction server.")

	m.requests = newCounter(cfg, m.Registry,
		"requests",
		"Count of auction requests labeled by vertical and status.",
		[]string{verticalLabel, requestStatusLabel})

	m.requestsTimer = newHistogramVec(cfg, m.Registry,
		"request_time_seconds",
		"Seconds to resolve an auction labeled by vertical.",
		[]string{verticalLabel},
		standardTimeBuckets)

	m.bidsReturned = newCounter(cfg, m.Registry,
		"bids_returned",
		"Count of winning bids returned to callers labeled by vertical.",
		[]string{verticalLabel})

	m.activeAuctions = newGaugeWithoutLabels(cfg, m.Registry,
		"active_auctions",
		"Count of auctions currently in flight.")

	m.historyRefreshes = newCounter(cfg, m.Registry,
		"history_refreshes",
		"Count of partner history snapshot refreshes by success or failure.",
		[]string{successLabel})

	m.partnerRequests = newCounter(cfg, m.Registry,
		"partner_requests",
		"Count of partner bid collections labeled by partner, vertical and outcome.",
		[]string{partnerLabel, verticalLabel, outcomeLabel})

	m.partnerTimer = newHistogramVec(cfg, m.Registry,
		"partner_request_time_seconds",
		"Seconds for a partner to answer a bid collection labeled by partner.",
		[]string{partnerLabel},
		standardTimeBuckets)

	m.partnerPrices = newHistogramVec(cfg, m.Registry,
		"partner_prices",
		"Valid bid prices labeled by partner.",
		[]string{partnerLabel},
		priceBuckets)

	m.partnerRetries = newCounter(cfg, m.Registry,
		"partner_retries",
		"Count of transport-error retries labeled by partner.",
		[]string{partnerLabel})

	m.partnerPanics = newCounter(cfg, m.Registry,
		"partner_panics",
		"Count of panics recovered inside partner collection tasks.",
		[]string{partnerLabel})

	m.poolSaturation = newCounter(cfg, m.Registry,
		"pool_saturation",
		"Count of collection tasks that never started because no worker slot freed before the deadline.",
		[]string{partnerLabel})

	preloadLabelValues(&m, partnerIDs)

	return &m
}

func newCounterWithoutLabels(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string) prometheus.Counter {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	})
	registry.MustRegister(counter)
	return counter
}

func newGaugeWithoutLabels(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string) prometheus.Gauge {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	})
	registry.MustRegister(gauge)
	return gauge
}

func newCounter(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	registry.MustRegister(counter)
	return counter
}

func newHistogramVec(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	registry.MustRegister(histogram)
	return histogram
}

func (m *Metrics) RecordRequest(labels metrics.Labels) {
	m.requests.With(prometheus.Labels{
		verticalLabel:      string(labels.Vertical),
		requestStatusLabel: string(labels.RequestStatus),
	}).Inc()
}

func (m *Metrics) RecordRequestTime(labels metrics.Labels, length time.Duration) {
	// Only record times for successful requests, as we don't have a sensible
	// way to record the total duration of an aborted one.
	if labels.RequestStatus == metrics.RequestStatusOK {
		m.requestsTimer.With(prometheus.Labels{
			verticalLabel: string(labels.Vertical),
		}).Observe(length.Seconds())
	}
}

func (m *Metrics) RecordPartnerRequest(labels metrics.PartnerLabels) {
	m.partnerRequests.With(prometheus.Labels{
		partnerLabel:  labels.Partner,
		verticalLabel: string(labels.Vertical),
		outcomeLabel:  string(labels.Outcome),
	}).Inc()
}

func (m *Metrics) RecordPartnerTime(labels metrics.PartnerLabels, length time.Duration) {
	m.partnerTimer.With(prometheus.Labels{
		partnerLabel: labels.Partner,
	}).Observe(length.Seconds())
}

func (m *Metrics) RecordPartnerPrice(labels metrics.PartnerLabels, price float64) {
	m.partnerPrices.With(prometheus.Labels{
		partnerLabel: labels.Partner,
	}).Observe(price)
}

func (m *Metrics) RecordPartnerRetry(partner string) {
	m.partnerRetries.With(prometheus.Labels{
		partnerLabel: partner,
	}).Inc()
}

func (m *Metrics) RecordPartnerPanic(labels metrics.PartnerLabels) {
	m.partnerPanics.With(prometheus.Labels{
		partnerLabel: labels.Partner,
	}).Inc()
}

func (m *Metrics) RecordBidsReturned(labels metrics.Labels, count int) {
	m.bidsReturned.With(prometheus.Labels{
		verticalLabel: string(labels.Vertical),
	}).Add(float64(count))
}

func (m *Metrics) RecordPoolSaturation(partner string) {
	m.poolSaturation.With(prometheus.Labels{
		partnerLabel: partner,
	}).Inc()
}

func (m *Metrics) RecordConnectionAccept(success bool) {
	if success {
		m.connectionsOpened.Inc()
	} else {
		m.connectionsError.With(prometheus.Labels{
			connectionErrorLabel: connectionAcceptError,
		}).Inc()
	}
}

func (m *Metrics) RecordConnectionClose(success bool) {
	if success {
		m.connectionsClosed.Inc()
	} else {
		m.connectionsError.With(prometheus.Labels{
			connectionErrorLabel: connectionCloseError,
		}).Inc()
	}
}

func (m *Metrics) RecordAuctionStarted() {
	m.activeAuctions.Inc()
}

func (m *Metrics) RecordAuctionCompleted() {
	m.activeAuctions.Dec()
}

func (m *Metrics) RecordHistoryRefresh(success bool) {
	m.historyRefreshes.With(prometheus.Labels{
		successLabel: boolString(success),
	}).Inc()
}
