package clickrtb

import (
	"time"
)

// Vertical identifies the insurance line of business a lead belongs to.
// Partners price clicks differently per vertical, so every bid request
// must carry a known value.
type Vertical string

const (
	VerticalAuto     Vertical = "auto"
	VerticalHome     Vertical = "home"
	VerticalLife     Vertical = "life"
	VerticalHealth   Vertical = "health"
	VerticalMedicare Vertical = "medicare"
)

var coreVerticals = map[Vertical]struct{}{
	VerticalAuto:     {},
	VerticalHome:     {},
	VerticalLife:     {},
	VerticalHealth:   {},
	VerticalMedicare: {},
}

// Valid returns true if the vertical is one of the supported lines of business.
func (v Vertical) Valid() bool {
	_, ok := coreVerticals[v]
	return ok
}

func (v Vertical) String() string {
	return string(v)
}

// Verticals returns the supported verticals. The caller owns the slice.
func Verticals() []Vertical {
	vs := make([]Vertical, 0, len(coreVerticals))
	for v := range coreVerticals {
		vs = append(vs, v)
	}
	return vs
}

// BidRequest is one lead's auction instance, as received from the API gateway.
// It is immutable once parsed: nothing downstream writes to it.
type BidRequest struct {
	RequestID string                 `json:"request_id"`
	LeadID    string                 `json:"lead_id"`
	Vertical  Vertical               `json:"vertical"`
	UserData  map[string]interface{} `json:"user_data,omitempty"`

	// TimeoutMS is the caller's requested auction budget in milliseconds.
	// Zero means "use the configured default". Values above the configured
	// maximum are clamped, not rejected.
	TimeoutMS int64 `json:"timeout_ms,omitempty"`
}

// RawBid is a partner response after protocol decoding but before validation.
// It never leaves the collector and is never persisted.
type RawBid struct {
	PartnerID string
	Price     float64
	ClickURL  string

	// QualityHint is the partner's self-reported quality signal, if the
	// protocol carries one. It is decoded for logging and protocol
	// completeness but deliberately discarded during normalization: partners
	// grade themselves, so the scorer trusts only observed history and the
	// lead itself. Bid carries no hint field for the same reason.
	QualityHint *float64
}

// Bid is the canonical post-validation bid. Price has been checked against the
// partner's configured bounds and ClickURL is a well-formed absolute URL.
// A Bid lives for exactly one auction and is owned by that auction's pipeline.
type Bid struct {
	ID           string  `json:"id"`
	PartnerID    string  `json:"partner_id"`
	Price        float64 `json:"price"`
	ClickURL     string  `json:"click_url"`
	QualityScore float64 `json:"quality_score"`

	// AdjustedPrice is the ranking basis after vertical and time-of-day
	// multipliers. Internal to the exchange; not part of the wire format.
	AdjustedPrice float64 `json:"-"`
}

// AuctionResult is the terminal outcome of one auction, best bid first.
// An empty Bids slice is a valid business outcome, not an error.
type AuctionResult struct {
	RequestID         string    `json:"request_id"`
	Bids              []*Bid    `json:"bids"`
	ProcessingTimeMS  int64     `json:"processing_time_ms"`
	Timestamp         time.Time `json:"timestamp"`
	PartnersAttempted int       `json:"partners_attempted"`
	PartnersResponded int       `json:"partners_responded"`
}
