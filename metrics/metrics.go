package metrics

import (
	"time"

	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
)

// Labels defines the labels that can be attached to request-level metrics.
type Labels struct {
	Vertical      clickrtb.Vertical
	RequestStatus RequestStatus
}

// PartnerLabels defines the labels that can be attached to per-partner metrics.
type PartnerLabels struct {
	Partner  string
	Vertical clickrtb.Vertical
	Outcome  PartnerOutcome
}

// RequestStatus : status of an inbound auction request.
type RequestStatus string

const (
	RequestStatusOK       RequestStatus = "ok"
	RequestStatusBadInput RequestStatus = "badinput"
	RequestStatusErr      RequestStatus = "err"
)

func RequestStatuses() []RequestStatus {
	return []RequestStatus{
		RequestStatusOK,
		RequestStatusBadInput,
		RequestStatusErr,
	}
}

// PartnerOutcome : terminal classification of one partner collection task.
// Exactly one outcome is recorded per partner per auction.
type PartnerOutcome string

const (
	PartnerOutcomeSuccess         PartnerOutcome = "success"
	PartnerOutcomeTimeout         PartnerOutcome = "timeout"
	PartnerOutcomeInvalidResponse PartnerOutcome = "invalid_response"
	PartnerOutcomeOutOfBounds     PartnerOutcome = "out_of_bounds"
	PartnerOutcomeTransportError  PartnerOutcome = "transport_error"
)

func PartnerOutcomes() []PartnerOutcome {
	return []PartnerOutcome{
		PartnerOutcomeSuccess,
		PartnerOutcomeTimeout,
		PartnerOutcomeInvalidResponse,
		PartnerOutcomeOutOfBounds,
		PartnerOutcomeTransportError,
	}
}

// MetricsEngine is a generic interface to record auction metrics into the
// configured backend. Implementations must be threadsafe; one engine is
// shared across all concurrently running auctions.
type MetricsEngine interface {
	RecordRequest(labels Labels)
	RecordRequestTime(labels Labels, length time.Duration)

	RecordPartnerRequest(labels PartnerLabels)
	RecordPartnerTime(labels PartnerLabels, length time.Duration)
	RecordPartnerPrice(labels PartnerLabels, price float64)
	RecordPartnerRetry(partner string)
	RecordPartnerPanic(labels PartnerLabels)

	RecordBidsReturned(labels Labels, count int)
	RecordPoolSaturation(partner string)

	// RecordAuctionStarted and RecordAuctionCompleted bracket one auction,
	// feeding the in-flight gauge.
	RecordAuctionStarted()
	RecordAuctionCompleted()

	RecordConnectionAccept(success bool)
	RecordConnectionClose(success bool)

	RecordHistoryRefresh(success bool)
}
