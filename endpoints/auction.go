package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"

	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
	"github.com/Assurean/rocket-quote-fzia64-sub003/errortypes"
	"github.com/Assurean/rocket-quote-fzia64-sub003/exchange"
	"github.com/Assurean/rocket-quote-fzia64-sub003/metrics"
)

// NewAuctionEndpoint returns the handler for POST /auction.
func NewAuctionEndpoint(ex exchange.Exchange, cfg *config.Configuration, me metrics.MetricsEngine) (httprouter.Handle, error) {
	if ex == nil || cfg == nil || me == nil {
		return nil, fmt.Errorf("NewAuctionEndpoint requires non-nil arguments")
	}
	deps := &endpointDeps{ex: ex, cfg: cfg, me: me}
	return deps.Auction, nil
}

type endpointDeps struct {
	ex  exchange.Exchange
	cfg *config.Configuration
	me  metrics.MetricsEngine
}

func (deps *endpointDeps) Auction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start := time.Now()

	req, ctx, cancel, err := deps.parseRequest(r)
	defer cancel() // Safe because parseRequest returns a no-op if there's nothing to cancel
	if err != nil {
		deps.me.RecordRequest(metrics.Labels{Vertical: requestVertical(req), RequestStatus: metrics.RequestStatusBadInput})
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Invalid request format: %s\n", err.Error())
		return
	}

	result, err := deps.ex.HoldAuction(ctx, &exchange.AuctionRequest{BidRequest: req, StartTime: start})
	if err != nil {
		// Partner-level failures never reach this branch; anything here is a
		// request- or system-level problem. Detail stays in the logs.
		if errortypes.ReadCode(err) == errortypes.BadInputErrorCode {
			deps.me.RecordRequest(metrics.Labels{Vertical: req.Vertical, RequestStatus: metrics.RequestStatusBadInput})
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Invalid request: %s\n", err.Error())
			return
		}
		deps.me.RecordRequest(metrics.Labels{Vertical: req.Vertical, RequestStatus: metrics.RequestStatusErr})
		glog.Errorf("auction %s failed: %v", req.RequestID, err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "Critical error while running the auction\n")
		return
	}

	labels := metrics.Labels{Vertical: req.Vertical, RequestStatus: metrics.RequestStatusOK}
	deps.me.RecordRequest(labels)
	deps.me.RecordRequestTime(labels, time.Since(start))
	deps.me.RecordBidsReturned(labels, len(result.Bids))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Auction-Request-Id", result.RequestID)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		glog.Errorf("/auction failed to write response: %v", err)
	}
}

// parseRequest decodes and validates the inbound bid request. This is
// guaranteed to return a context which times out appropriately given the
// request, and a cancellation function which should be called as soon as the
// auction is done with it.
func (deps *endpointDeps) parseRequest(httpRequest *http.Request) (*clickrtb.BidRequest, context.Context, func(), error) {
	req := &clickrtb.BidRequest{}
	ctx := context.Background()
	cancel := func() {}

	if err := json.NewDecoder(httpRequest.Body).Decode(req); err != nil {
		return req, ctx, cancel, err
	}
	if err := validateRequest(req); err != nil {
		return req, ctx, cancel, err
	}

	// A request asking for more time than the system maximum is clamped, not
	// rejected; partners are never given more than the configured budget.
	ctx, cancel = context.WithTimeout(ctx, exchange.EffectiveTimeout(req, deps.cfg.Auction))
	return req, ctx, cancel, nil
}

func validateRequest(req *clickrtb.BidRequest) error {
	if req.RequestID == "" {
		return &errortypes.BadInput{Message: "request missing required field: \"request_id\""}
	}
	if req.LeadID == "" {
		return &errortypes.BadInput{Message: "request missing required field: \"lead_id\""}
	}
	if req.Vertical == "" {
		return &errortypes.BadInput{Message: "request missing required field: \"vertical\""}
	}
	if !req.Vertical.Valid() {
		return &errortypes.BadInput{Message: fmt.Sprintf("unknown vertical %q", req.Vertical)}
	}
	return nil
}

func requestVertical(req *clickrtb.BidRequest) clickrtb.Vertical {
	if req != nil && req.Vertical.Valid() {
		return req.Vertical
	}
	return ""
}
