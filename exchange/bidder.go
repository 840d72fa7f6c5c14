package exchange

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	validator "github.com/asaskevich/govalidator"
	"github.com/gofrs/uuid"
	"golang.org/x/net/context/ctxhttp"

	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
	"github.com/Assurean/rocket-quote-fzia64-sub003/errortypes"
	"github.com/Assurean/rocket-quote-fzia64-sub003/metrics"
	"github.com/Assurean/rocket-quote-fzia64-sub003/partners"
)

// AdaptedBidder defines the contract needed to participate in an auction
// within the exchange: collect at most one validated bid from one partner.
//
// This interface exists to segregate core auction logic from protocol logic.
// Anything that concerns a single partner's wire format lives behind a
// partners.Bidder; anything that requires outcomes from all partners lives
// in the exchange.
type AdaptedBidder interface {
	// requestBid fetches a bid for the given request, bounded by ctx's
	// deadline. A nil bid with a nil error is an explicit no-bid. A non-nil
	// error classifies the failure (timeout, transport, invalid response,
	// out of bounds) via the errortypes codes.
	requestBid(ctx context.Context, request *clickrtb.BidRequest, partnerID string, cfg config.Partner) (*clickrtb.Bid, error)
}

// AdaptBidder wraps a partners.Bidder with the HTTP mechanics shared by every
// protocol: the outbound call, the single bounded retry, response validation
// and normalization into a canonical Bid.
func AdaptBidder(bidder partners.Bidder, client *http.Client, me metrics.MetricsEngine, auction config.Auction) AdaptedBidder {
	return &bidderAdapter{
		Bidder:         bidder,
		Client:         client,
		me:             me,
		retryBaseDelay: auction.RetryBaseDelay(),
		minRetryBudget: auction.MinRetryBudget(),
	}
}

type bidderAdapter struct {
	Bidder         partners.Bidder
	Client         *http.Client
	me             metrics.MetricsEngine
	retryBaseDelay time.Duration
	minRetryBudget time.Duration
}

func (ba *bidderAdapter) requestBid(ctx context.Context, request *clickrtb.BidRequest, partnerID string, cfg config.Partner) (*clickrtb.Bid, error) {
	timeout := cfg.Timeout()
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	reqData, err := ba.Bidder.MakeRequest(request, partnerID, cfg, timeout)
	if err != nil {
		return nil, err
	}

	callInfo := ba.doRequestWithRetry(ctx, reqData, partnerID)
	if callInfo.err != nil {
		return nil, callInfo.err
	}

	raw, err := ba.Bidder.MakeBid(request, callInfo.response)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		// Explicit no-bid.
		return nil, nil
	}
	raw.PartnerID = partnerID

	return normalizeBid(raw, cfg)
}

// normalizeBid turns a RawBid into a canonical Bid, enforcing the partner's
// price bounds and requiring an absolute click URL. The quality score is left
// unset; it is computed downstream against the history snapshot.
func normalizeBid(raw *clickrtb.RawBid, cfg config.Partner) (*clickrtb.Bid, error) {
	if !(raw.Price > 0) {
		return nil, &errortypes.BadPartnerResponse{
			Message: fmt.Sprintf("Bid price %v is not positive", raw.Price),
		}
	}
	if raw.Price < cfg.MinBid || raw.Price > cfg.MaxBid {
		return nil, &errortypes.BidOutOfBounds{
			Message: fmt.Sprintf("Bid price %v outside configured bounds [%v, %v]", raw.Price, cfg.MinBid, cfg.MaxBid),
		}
	}
	// Validating using both IsURL and IsRequestURL: IsURL alone allows
	// relative paths, IsRequestURL alone misses other malformed URLs.
	if raw.ClickURL == "" || !validator.IsURL(raw.ClickURL) || !validator.IsRequestURL(raw.ClickURL) {
		return nil, &errortypes.BadPartnerResponse{
			Message: fmt.Sprintf("Bid click URL %q is not an absolute URL", raw.ClickURL),
		}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("error generating bid ID: %v", err)
	}

	return &clickrtb.Bid{
		ID:        id.String(),
		PartnerID: raw.PartnerID,
		Price:     raw.Price,
		ClickURL:  raw.ClickURL,
	}, nil
}

type httpCallInfo struct {
	request  *partners.RequestData
	response *partners.ResponseData
	err      error

	// transient marks failures worth one retry: connection-level errors and
	// 5xx responses. Timeouts are never transient; the deadline has already
	// been spent.
	transient bool
}

// doRequestWithRetry makes the partner call, retrying exactly once on a
// transient failure if enough deadline budget remains. A second retry is
// never attempted: it would risk blowing the overall auction deadline.
func (ba *bidderAdapter) doRequestWithRetry(ctx context.Context, req *partners.RequestData, partnerID string) *httpCallInfo {
	info := ba.doRequest(ctx, req)
	if !info.transient {
		return info
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		return info
	}
	remaining := time.Until(deadline)
	if remaining < ba.minRetryBudget {
		return info
	}

	// Back off before the retry, but never so long that the retry itself
	// cannot complete inside the remaining budget.
	delay := ba.retryBaseDelay
	if delay > remaining/2 {
		delay = remaining / 2
	}
	timer := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return info
	case <-timer.C:
	}

	ba.me.RecordPartnerRetry(partnerID)
	return ba.doRequest(ctx, req)
}

func (ba *bidderAdapter) doRequest(ctx context.Context, req *partners.RequestData) *httpCallInfo {
	httpReq, err := http.NewRequest(req.Method, req.Uri, bytes.NewBuffer(req.Body))
	if err != nil {
		return &httpCallInfo{
			request: req,
			err:     err,
		}
	}
	httpReq.Header = req.Headers

	httpResp, err := ctxhttp.Do(ctx, ba.Client, httpReq)
	if err != nil {
		if ctx.Err() != nil {
			// The auction or partner deadline fired mid-flight; the transport
			// has already aborted the connection. Nothing is written after
			// this point.
			return &httpCallInfo{
				request: req,
				err:     &errortypes.Timeout{Message: err.Error()},
			}
		}
		return &httpCallInfo{
			request:   req,
			err:       &errortypes.TransportError{Message: err.Error()},
			transient: true,
		}
	}

	respBody, err := io.ReadAll(httpResp.Body)
	httpResp.Body.Close()
	if err != nil {
		if ctx.Err() != nil {
			return &httpCallInfo{
				request: req,
				err:     &errortypes.Timeout{Message: err.Error()},
			}
		}
		return &httpCallInfo{
			request:   req,
			err:       &errortypes.TransportError{Message: err.Error()},
			transient: true,
		}
	}

	if httpResp.StatusCode >= 500 {
		return &httpCallInfo{
			request: req,
			err: &errortypes.BadPartnerResponse{
				Message: fmt.Sprintf("Server responded with failure status: %d", httpResp.StatusCode),
			},
			transient: true,
		}
	}

	return &httpCallInfo{
		request: req,
		response: &partners.ResponseData{
			StatusCode: httpResp.StatusCode,
			Body:       respBody,
			Headers:    httpResp.Header,
		},
	}
}
