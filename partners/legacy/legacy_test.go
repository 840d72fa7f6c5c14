package legacy

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
	"github.com/Assurean/rocket-quote-fzia64-sub003/errortypes"
	"github.com/Assurean/rocket-quote-fzia64-sub003/partners"
)

func testRequest() *clickrtb.BidRequest {
	return &clickrtb.BidRequest{
		RequestID: "req-1",
		LeadID:    "lead-1",
		Vertical:  clickrtb.VerticalHome,
	}
}

func TestMakeRequest(t *testing.T) {
	bidder := NewLegacyBidder()
	cfg := config.Partner{Endpoint: "https://old.example.com/rtb", APIKey: "legacykey"}

	reqData, err := bidder.MakeRequest(testRequest(), "partner_l", cfg, 100*time.Millisecond)

	assert.NoError(t, err)
	assert.Equal(t, "POST", reqData.Method)
	assert.Equal(t, "https://old.example.com/rtb?key=legacykey", reqData.Uri, "the credential travels as a query parameter")
	assert.Empty(t, reqData.Headers.Get("Authorization"))
	assert.Equal(t, "100", reqData.Headers.Get(partners.TimeoutHeader))

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(reqData.Body, &body))
	assert.Equal(t, "req-1", body["ref"])
	assert.Equal(t, "lead-1", body["lead"])
	assert.Equal(t, "home", body["category"])
}

func TestMakeBid(t *testing.T) {
	bidder := NewLegacyBidder()

	testCases := []struct {
		description string
		response    *partners.ResponseData
		expectedBid *clickrtb.RawBid
		expectError bool
	}{
		{
			description: "well formed bid with a string amount",
			response: &partners.ResponseData{
				StatusCode: http.StatusOK,
				Body:       []byte(`{"bid": {"amount": "2.75", "redirect": "https://old.example.com/go/xyz"}}`),
			},
			expectedBid: &clickrtb.RawBid{Price: 2.75, ClickURL: "https://old.example.com/go/xyz"},
		},
		{
			description: "204 no-bid",
			response:    &partners.ResponseData{StatusCode: http.StatusNoContent},
		},
		{
			description: "200 with nobid flag",
			response: &partners.ResponseData{
				StatusCode: http.StatusOK,
				Body:       []byte(`{"nobid": true}`),
			},
		},
		{
			description: "unexpected status code",
			response:    &partners.ResponseData{StatusCode: http.StatusBadRequest},
			expectError: true,
		},
		{
			description: "missing amount",
			response: &partners.ResponseData{
				StatusCode: http.StatusOK,
				Body:       []byte(`{"bid": {"redirect": "https://old.example.com/go"}}`),
			},
			expectError: true,
		},
		{
			description: "non-numeric amount",
			response: &partners.ResponseData{
				StatusCode: http.StatusOK,
				Body:       []byte(`{"bid": {"amount": "two dollars", "redirect": "https://old.example.com/go"}}`),
			},
			expectError: true,
		},
		{
			description: "missing redirect",
			response: &partners.ResponseData{
				StatusCode: http.StatusOK,
				Body:       []byte(`{"bid": {"amount": "2.75"}}`),
			},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		bid, err := bidder.MakeBid(testRequest(), tc.response)
		if tc.expectError {
			assert.Equal(t, errortypes.BadPartnerResponseErrorCode, errortypes.ReadCode(err), tc.description)
			assert.Nil(t, bid, tc.description)
			continue
		}
		assert.NoError(t, err, tc.description)
		assert.Equal(t, tc.expectedBid, bid, tc.description)
	}
}

func TestMakeBidKeepsScoreHint(t *testing.T) {
	bidder := NewLegacyBidder()

	bid, err := bidder.MakeBid(testRequest(), &partners.ResponseData{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"bid": {"amount": "2.75", "redirect": "https://old.example.com/go"}, "score": 0.6}`),
	})

	assert.NoError(t, err)
	if assert.NotNil(t, bid.QualityHint) {
		assert.Equal(t, 0.6, *bid.QualityHint)
	}
}
