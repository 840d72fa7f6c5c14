package standard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
	"github.com/Assurean/rocket-quote-fzia64-sub003/errortypes"
	"github.com/Assurean/rocket-quote-fzia64-sub003/partners"
)

// StandardBidder speaks the documented click-wall partner protocol: a JSON
// POST carrying the lead's vertical and attributes, answered with a JSON body
// carrying price and click_url.
type StandardBidder struct{}

// NewStandardBidder builds the Bidder for the "standard" protocol.
func NewStandardBidder() *StandardBidder {
	return &StandardBidder{}
}

type bidRequestBody struct {
	RequestID string                 `json:"request_id"`
	LeadID    string                 `json:"lead_id"`
	Vertical  string                 `json:"vertical"`
	UserData  map[string]interface{} `json:"user_data,omitempty"`
}

type bidResponseBody struct {
	Price       *float64 `json:"price"`
	ClickURL    string   `json:"click_url"`
	QualityHint *float64 `json:"quality_hint,omitempty"`
}

func (b *StandardBidder) MakeRequest(request *clickrtb.BidRequest, partnerID string, cfg config.Partner, timeout time.Duration) (*partners.RequestData, error) {
	body, err := json.Marshal(bidRequestBody{
		RequestID: request.RequestID,
		LeadID:    request.LeadID,
		Vertical:  string(request.Vertical),
		UserData:  request.UserData,
	})
	if err != nil {
		return nil, &errortypes.FailedToRequestBids{
			Message: fmt.Sprintf("Failed to marshal request for partner %s: %s", partnerID, err.Error()),
		}
	}

	headers := http.Header{}
	headers.Add("Content-Type", "application/json;charset=utf-8")
	headers.Add("Accept", "application/json")
	headers.Add("Authorization", "Bearer "+cfg.APIKey)
	headers.Add(partners.TimeoutHeader, strconv.FormatInt(timeout.Milliseconds(), 10))

	return &partners.RequestData{
		Method:  "POST",
		Uri:     cfg.Endpoint,
		Body:    body,
		Headers: headers,
	}, nil
}

func (b *StandardBidder) MakeBid(request *clickrtb.BidRequest, response *partners.ResponseData) (*clickrtb.RawBid, error) {
	if response.StatusCode == http.StatusNoContent {
		// An explicit no-bid. Not an error; the partner chose to pass.
		return nil, nil
	}
	if response.StatusCode != http.StatusOK {
		return nil, &errortypes.BadPartnerResponse{
			Message: fmt.Sprintf("Unexpected status code: %d", response.StatusCode),
		}
	}

	var body bidResponseBody
	if err := json.Unmarshal(response.Body, &body); err != nil {
		return nil, &errortypes.BadPartnerResponse{
			Message: fmt.Sprintf("Failed to decode bid response: %s", err.Error()),
		}
	}
	if body.Price == nil {
		return nil, &errortypes.BadPartnerResponse{
			Message: "Bid response missing price",
		}
	}
	if body.ClickURL == "" {
		return nil, &errortypes.BadPartnerResponse{
			Message: "Bid response missing click_url",
		}
	}

	return &clickrtb.RawBid{
		Price:       *body.Price,
		ClickURL:    body.ClickURL,
		QualityHint: body.QualityHint,
	}, nil
}
