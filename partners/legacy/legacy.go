package legacy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/buger/jsonparser"

	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
	"github.com/Assurean/rocket-quote-fzia64-sub003/errortypes"
	"github.com/Assurean/rocket-quote-fzia64-sub003/partners"
)

// LegacyBidder speaks the pre-2022 partner protocol still used by a handful
// of networks: the credential travels as a query parameter, the response
// nests the bid under a "bid" object, and the amount is a decimal string.
// jsonparser keeps the field extraction cheap since we only need three
// fields out of arbitrarily large response bodies.
type LegacyBidder struct{}

func NewLegacyBidder() *LegacyBidder {
	return &LegacyBidder{}
}

func (b *LegacyBidder) MakeRequest(request *clickrtb.BidRequest, partnerID string, cfg config.Partner, timeout time.Duration) (*partners.RequestData, error) {
	body, err := json.Marshal(map[string]interface{}{
		"ref":      request.RequestID,
		"lead":     request.LeadID,
		"category": string(request.Vertical),
		"attrs":    request.UserData,
	})
	if err != nil {
		return nil, &errortypes.FailedToRequestBids{
			Message: fmt.Sprintf("Failed to marshal request for partner %s: %s", partnerID, err.Error()),
		}
	}

	headers := http.Header{}
	headers.Add("Content-Type", "application/json;charset=utf-8")
	headers.Add(partners.TimeoutHeader, strconv.FormatInt(timeout.Milliseconds(), 10))

	return &partners.RequestData{
		Method:  "POST",
		Uri:     cfg.Endpoint + "?key=" + cfg.APIKey,
		Body:    body,
		Headers: headers,
	}, nil
}

func (b *LegacyBidder) MakeBid(request *clickrtb.BidRequest, response *partners.ResponseData) (*clickrtb.RawBid, error) {
	if response.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if response.StatusCode != http.StatusOK {
		return nil, &errortypes.BadPartnerResponse{
			Message: fmt.Sprintf("Unexpected status code: %d", response.StatusCode),
		}
	}

	// Legacy no-bids come back as 200 with {"nobid": true}.
	if noBid, err := jsonparser.GetBoolean(response.Body, "nobid"); err == nil && noBid {
		return nil, nil
	}

	amount, err := jsonparser.GetString(response.Body, "bid", "amount")
	if err != nil {
		return nil, &errortypes.BadPartnerResponse{
			Message: "Bid response missing bid.amount",
		}
	}
	price, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return nil, &errortypes.BadPartnerResponse{
			Message: fmt.Sprintf("Bid amount %q is not a number", amount),
		}
	}

	clickURL, err := jsonparser.GetString(response.Body, "bid", "redirect")
	if err != nil {
		return nil, &errortypes.BadPartnerResponse{
			Message: "Bid response missing bid.redirect",
		}
	}

	raw := &clickrtb.RawBid{
		Price:    price,
		ClickURL: clickURL,
	}
	if hint, err := jsonparser.GetFloat(response.Body, "score"); err == nil {
		raw.QualityHint = &hint
	}
	return raw, nil
}
