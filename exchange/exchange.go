package exchange

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/golang/glog"

	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
	"github.com/Assurean/rocket-quote-fzia64-sub003/errortypes"
	"github.com/Assurean/rocket-quote-fzia64-sub003/history"
	"github.com/Assurean/rocket-quote-fzia64-sub003/metrics"
	"github.com/Assurean/rocket-quote-fzia64-sub003/quality"
)

// Exchange runs click-wall auctions. Implementations must be threadsafe, and
// will be shared across many goroutines: two auctions for different requests
// share nothing but the worker pool and read-only configuration.
type Exchange interface {
	// HoldAuction fans the request out to every eligible partner, collects
	// whatever valid bids arrive before the deadline, and returns the ranked
	// winners. Zero bids is a valid outcome, not an error.
	HoldAuction(ctx context.Context, r *AuctionRequest) (*clickrtb.AuctionResult, error)
}

// AuctionRequest carries everything one auction needs.
type AuctionRequest struct {
	BidRequest *clickrtb.BidRequest

	// StartTime anchors processing-time measurement and the time-of-day
	// multiplier. Zero means "now".
	StartTime time.Time
}

type exchange struct {
	bidders map[string]AdaptedBidder
	cfg     *config.Configuration
	me      metrics.MetricsEngine
	pool    *workerPool
	history *history.Store
}

// NewExchange builds the auction core from the partner registry.
func NewExchange(cfg *config.Configuration, client *http.Client, me metrics.MetricsEngine, hist *history.Store) (Exchange, error) {
	bidders, err := buildAdaptedBidders(cfg, client, me)
	if err != nil {
		return nil, err
	}
	return &exchange{
		bidders: bidders,
		cfg:     cfg,
		me:      me,
		pool:    newWorkerPool(cfg.Auction.PoolSize),
		history: hist,
	}, nil
}

// partnerResponseWrapper passes one partner's terminal outcome from its
// collection goroutine back to the auction goroutine. Each collection task
// owns exactly one wrapper and deposits it exactly once.
type partnerResponseWrapper struct {
	partnerID string
	bid       *clickrtb.Bid
	err       error
	elapsed   time.Duration
}

func (e *exchange) HoldAuction(ctx context.Context, r *AuctionRequest) (*clickrtb.AuctionResult, error) {
	if r == nil || r.BidRequest == nil {
		return nil, &errortypes.BadInput{Message: "auction request missing bid request"}
	}
	request := r.BidRequest
	if request.RequestID == "" {
		return nil, &errortypes.BadInput{Message: "bid request missing request_id"}
	}
	if !request.Vertical.Valid() {
		return nil, &errortypes.BadInput{Message: "bid request has missing or unknown vertical"}
	}

	start := r.StartTime
	if start.IsZero() {
		start = time.Now()
	}

	e.me.RecordAuctionStarted()
	defer e.me.RecordAuctionCompleted()

	// The overall deadline binds every partner call transitively, whether or
	// not the caller bounded ctx already.
	auctionCtx, cancel := context.WithTimeout(ctx, EffectiveTimeout(request, e.cfg.Auction))
	defer cancel()

	eligible := e.eligiblePartners()
	snapshot := e.history.Snapshot()

	outcomes := e.getAllBids(auctionCtx, request, eligible)

	bids := make([]*clickrtb.Bid, 0, len(outcomes))
	for _, brw := range outcomes {
		if brw.err != nil || brw.bid == nil {
			continue
		}
		brw.bid.QualityScore = quality.Score(brw.bid, snapshot, request.UserData, e.cfg.Quality)
		bids = append(bids, brw.bid)
	}

	winners := optimizeBids(bids, e.cfg.Partners, request.Vertical, e.cfg.TimeOfDay, start, e.cfg.Auction.MaxBidsPerRequest)

	return &clickrtb.AuctionResult{
		RequestID:         request.RequestID,
		Bids:              winners,
		ProcessingTimeMS:  time.Since(start).Milliseconds(),
		Timestamp:         time.Now().UTC(),
		PartnersAttempted: len(eligible),
		PartnersResponded: len(bids),
	}, nil
}

// EffectiveTimeout resolves a request's declared timeout against the system
// default and maximum: zero means the default, anything above the maximum is
// clamped rather than rejected.
func EffectiveTimeout(request *clickrtb.BidRequest, auction config.Auction) time.Duration {
	if request.TimeoutMS <= 0 {
		return auction.DefaultTimeout()
	}
	requested := time.Duration(request.TimeoutMS) * time.Millisecond
	if max := auction.MaxTimeout(); requested > max {
		return max
	}
	return requested
}

func (e *exchange) eligiblePartners() map[string]config.Partner {
	eligible := make(map[string]config.Partner, len(e.cfg.Partners))
	for id, p := range e.cfg.Partners {
		if p.Enabled {
			eligible[id] = p
		}
	}
	return eligible
}

// getAllBids fans one collection task out per eligible partner and joins on
// all of them. Completion order is irrelevant; a fast partner is never
// blocked on a slow one, and the aggregate stays unordered until ranking.
func (e *exchange) getAllBids(ctx context.Context, request *clickrtb.BidRequest, eligible map[string]config.Partner) []*partnerResponseWrapper {
	chBids := make(chan *partnerResponseWrapper, len(eligible))

	for id, pcfg := range eligible {
		// Here we actually call the partners and collect the bids.
		runner := e.recoverSafely(func(partnerID string, p config.Partner) {
			brw := new(partnerResponseWrapper)
			brw.partnerID = partnerID
			start := time.Now()

			if !e.pool.acquire(ctx) {
				// Deadline elapsed while queued; the partner was never
				// contacted. Recorded as a timeout for observability.
				e.me.RecordPoolSaturation(partnerID)
				brw.err = &errortypes.PoolSaturated{Message: "no collector slot freed before the auction deadline"}
				brw.elapsed = time.Since(start)
				e.recordPartnerOutcome(request, brw)
				chBids <- brw
				return
			}

			// Deferred so a panicking adapter still returns the slot; the pool
			// is shared by every auction in the process and must not shrink.
			defer e.pool.release()

			partnerCtx, cancelPartner := context.WithTimeout(ctx, p.Timeout())
			brw.bid, brw.err = e.bidders[partnerID].requestBid(partnerCtx, request, partnerID, p)
			cancelPartner()

			brw.elapsed = time.Since(start)
			e.recordPartnerOutcome(request, brw)
			chBids <- brw
		}, chBids)
		go runner(id, pcfg)
	}

	// Wait for the partners to do their thing.
	outcomes := make([]*partnerResponseWrapper, 0, len(eligible))
	for i := 0; i < len(eligible); i++ {
		outcomes = append(outcomes, <-chBids)
	}
	return outcomes
}

// recoverSafely ensures a panicking collection task still deposits its one
// outcome, so the auction join never hangs and one bad partner cannot take
// down concurrently running auctions.
func (e *exchange) recoverSafely(inner func(string, config.Partner), chBids chan *partnerResponseWrapper) func(string, config.Partner) {
	return func(partnerID string, p config.Partner) {
		defer func() {
			if r := recover(); r != nil {
				glog.Errorf("Auction recovered panic from partner %s: %v. Stack trace is: %v",
					partnerID, r, string(debug.Stack()))
				e.me.RecordPartnerPanic(metrics.PartnerLabels{Partner: partnerID})
				// Let the auction know that there is no data here.
				brw := new(partnerResponseWrapper)
				brw.partnerID = partnerID
				brw.err = &errortypes.BadPartnerResponse{Message: "partner adapter panicked"}
				chBids <- brw
			}
		}()
		inner(partnerID, p)
	}
}

func (e *exchange) recordPartnerOutcome(request *clickrtb.BidRequest, brw *partnerResponseWrapper) {
	labels := metrics.PartnerLabels{
		Partner:  brw.partnerID,
		Vertical: request.Vertical,
		Outcome:  outcomeForError(brw.err),
	}
	e.me.RecordPartnerRequest(labels)
	e.me.RecordPartnerTime(labels, brw.elapsed)
	if brw.err == nil && brw.bid != nil {
		e.me.RecordPartnerPrice(labels, brw.bid.Price)
	}
	if brw.err != nil && !errortypes.IsWarning(brw.err) {
		// Partner detail stays inside the process: logged and counted here,
		// scrubbed from anything that crosses the outbound boundary.
		glog.V(2).Infof("partner %s failed to bid: %v", brw.partnerID, brw.err)
	}
}

// outcomeForError folds the error taxonomy into the outcome label space.
func outcomeForError(err error) metrics.PartnerOutcome {
	if err == nil {
		return metrics.PartnerOutcomeSuccess
	}
	switch errortypes.ReadCode(err) {
	case errortypes.TimeoutErrorCode, errortypes.PoolSaturatedErrorCode:
		return metrics.PartnerOutcomeTimeout
	case errortypes.BidOutOfBoundsErrorCode:
		return metrics.PartnerOutcomeOutOfBounds
	case errortypes.TransportErrorCode:
		return metrics.PartnerOutcomeTransportError
	default:
		return metrics.PartnerOutcomeInvalidResponse
	}
}
