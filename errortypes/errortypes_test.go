package errortypes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadCode(t *testing.T) {
	testCases := []struct {
		description string
		err         error
		expected    int
	}{
		{"timeout", &Timeout{Message: "deadline"}, TimeoutErrorCode},
		{"bad input", &BadInput{Message: "no vertical"}, BadInputErrorCode},
		{"bad partner response", &BadPartnerResponse{Message: "no price"}, BadPartnerResponseErrorCode},
		{"out of bounds", &BidOutOfBounds{Message: "too high"}, BidOutOfBoundsErrorCode},
		{"transport", &TransportError{Message: "refused"}, TransportErrorCode},
		{"pool saturated", &PoolSaturated{Message: "no slot"}, PoolSaturatedErrorCode},
		{"plain error", errors.New("anything"), UnknownErrorCode},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ReadCode(tc.err), tc.description)
	}
}

func TestCodesAreDistinct(t *testing.T) {
	codes := []int{
		TimeoutErrorCode,
		BadInputErrorCode,
		BadPartnerResponseErrorCode,
		BidOutOfBoundsErrorCode,
		TransportErrorCode,
		PoolSaturatedErrorCode,
		FailedToRequestBidsErrorCode,
		UnknownErrorCode,
	}
	seen := map[int]bool{}
	for _, code := range codes {
		assert.False(t, seen[code], "duplicate error code %d", code)
		seen[code] = true
	}
}

func TestSeverity(t *testing.T) {
	assert.False(t, IsWarning(&Timeout{}))
	assert.True(t, IsWarning(&Warning{Message: "ignored field"}))
	assert.False(t, IsWarning(errors.New("plain")))

	assert.True(t, ContainsFatalError([]error{&Warning{}, &Timeout{}}))
	assert.False(t, ContainsFatalError([]error{&Warning{}}))

	fatal := FatalOnly([]error{&Warning{}, &BadInput{Message: "x"}, errors.New("plain")})
	assert.Len(t, fatal, 2)
}
