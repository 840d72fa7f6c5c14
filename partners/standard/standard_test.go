package standard

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
		Vertical:  clickrtb.VerticalAuto,
		UserData:  map[string]interface{}{"age": 42.0, "state": "TX"},
	}
}

func testPartnerConfig() config.Partner {
	return config.Partner{
		Endpoint: "https://partner.example.com/bid",
		APIKey:   "secret",
	}
}

func TestMakeRequest(t *testing.T) {
	bidder := NewStandardBidder()

	reqData, err := bidder.MakeRequest(testRequest(), "partner_a", testPartnerConfig(), 150*time.Millisecond)

	assert.NoError(t, err)
	assert.Equal(t, "POST", reqData.Method)
	assert.Equal(t, "https://partner.example.com/bid", reqData.Uri)
	assert.Equal(t, "Bearer secret", reqData.Headers.Get("Authorization"))
	assert.Equal(t, "150", reqData.Headers.Get(partners.TimeoutHeader))
	assert.Equal(t, "application/json;charset=utf-8", reqData.Headers.Get("Content-Type"))

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(reqData.Body, &body))
	assert.Equal(t, "req-1", body["request_id"])
	assert.Equal(t, "lead-1", body["lead_id"])
	assert.Equal(t, "auto", body["vertical"])
	assert.Equal(t, map[string]interface{}{"age": 42.0, "state": "TX"}, body["user_data"])
}

func TestMakeBid(t *testing.T) {
	bidder := NewStandardBidder()

	testCases := []struct {
		description string
		response    *partners.ResponseData
		expectedBid *clickrtb.RawBid
		expectError bool
	}{
		{
			description: "well formed bid",
			response: &partners.ResponseData{
				StatusCode: http.StatusOK,
				Body:       []byte(`{"price": 1.50, "click_url": "https://partner.example.com/click/abc"}`),
			},
			expectedBid: &clickrtb.RawBid{Price: 1.50, ClickURL: "https://partner.example.com/click/abc"},
		},
		{
			description: "204 is an explicit no-bid",
			response:    &partners.ResponseData{StatusCode: http.StatusNoContent},
		},
		{
			description: "unexpected status code",
			response:    &partners.ResponseData{StatusCode: http.StatusForbidden},
			expectError: true,
		},
		{
			description: "unparseable body",
			response:    &partners.ResponseData{StatusCode: http.StatusOK, Body: []byte(`{`)},
			expectError: true,
		},
		{
			description: "missing price",
			response: &partners.ResponseData{
				StatusCode: http.StatusOK,
				Body:       []byte(`{"click_url": "https://partner.example.com/click"}`),
			},
			expectError: true,
		},
		{
			description: "missing click_url",
			response: &partners.ResponseData{
				StatusCode: http.StatusOK,
				Body:       []byte(`{"price": 1.50}`),
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

func TestMakeBidKeepsQualityHint(t *testing.T) {
	bidder := NewStandardBidder()

	bid, err := bidder.MakeBid(testRequest(), &partners.ResponseData{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"price": 1.50, "click_url": "https://partner.example.com/click", "quality_hint": 0.85}`),
	})

	assert.NoError(t, err)
	if assert.NotNil(t, bid.QualityHint) {
		assert.Equal(t, 0.85, *bid.QualityHint)
	}
}
