package partners

import (
	"net/http"
	"time"

	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
)

// Bidder is one partner's wire protocol. Implementations turn a bid request
// into an outbound HTTP call, and that call's response into a RawBid.
//
// Implementations must be stateless and threadsafe: one Bidder instance is
// shared across every concurrently running auction that contacts the partner.
// Anything partner-specific (endpoint, credential, bounds) comes in through
// the config.Partner argument, never from fields mutated at request time.
type Bidder interface {
	// MakeRequest builds the outbound call for one auction. The timeout is
	// the remaining budget for this partner; protocols that carry a timeout
	// header derive it from this value.
	MakeRequest(request *clickrtb.BidRequest, partnerID string, cfg config.Partner, timeout time.Duration) (*RequestData, error)

	// MakeBid decodes the partner's response into a RawBid. It returns an
	// error for anything the protocol cannot use: unexpected status codes,
	// unparseable bodies, missing price or click URL. Bound checks happen
	// downstream in the collector, which owns the partner config.
	MakeBid(request *clickrtb.BidRequest, response *ResponseData) (*clickrtb.RawBid, error)
}

// RequestData packages the fields needed to make an http.Request.
type RequestData struct {
	Method  string
	Uri     string
	Body    []byte
	Headers http.Header
}

// ResponseData packages the fields of a partner's http.Response.
type ResponseData struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// TimeoutHeader carries the per-call budget in milliseconds so partners can
// shed work they cannot finish in time.
const TimeoutHeader = "X-Auction-Timeout-Ms"
