package exchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
)

// noon falls outside every test bucket unless a test configures one.
var noon = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func flatTimeOfDay() config.TimeOfDay {
	return config.TimeOfDay{DefaultMultiplier: 1.0}
}

func testRegistry() map[string]config.Partner {
	return map[string]config.Partner{
		"partner_a": {Priority: 1},
		"partner_b": {Priority: 2},
		"partner_c": {Priority: 1},
	}
}

func TestOptimizeBidsRanksByAdjustedValue(t *testing.T) {
	bids := []*clickrtb.Bid{
		{ID: "1", PartnerID: "partner_a", Price: 1.00, QualityScore: 1.0}, // rank 1.00
		{ID: "2", PartnerID: "partner_b", Price: 2.00, QualityScore: 0.0}, // rank 1.00 * ... 2.0*0.5 = 1.00
		{ID: "3", PartnerID: "partner_c", Price: 3.00, QualityScore: 1.0}, // rank 3.00
	}

	winners := optimizeBids(bids, testRegistry(), clickrtb.VerticalAuto, flatTimeOfDay(), noon, 5)

	assert.Len(t, winners, 3)
	assert.Equal(t, "3", winners[0].ID)
	// Ranks 1.00 vs 1.00 tie; partner_b has higher priority.
	assert.Equal(t, "2", winners[1].ID)
	assert.Equal(t, "1", winners[2].ID)
}

func TestOptimizeBidsTieBreakByPartnerID(t *testing.T) {
	// Same price, quality and priority; partner ID decides, ascending.
	bids := []*clickrtb.Bid{
		{ID: "c", PartnerID: "partner_c", Price: 2.00, QualityScore: 0.5},
		{ID: "a", PartnerID: "partner_a", Price: 2.00, QualityScore: 0.5},
	}

	winners := optimizeBids(bids, testRegistry(), clickrtb.VerticalAuto, flatTimeOfDay(), noon, 5)

	assert.Equal(t, "a", winners[0].ID)
	assert.Equal(t, "c", winners[1].ID)
}

func TestOptimizeBidsAppliesMultipliers(t *testing.T) {
	registry := map[string]config.Partner{
		"partner_a": {VerticalMultipliers: map[string]float64{"auto": 1.5}},
	}
	tod := config.TimeOfDay{
		DefaultMultiplier: 0.9,
		Buckets:           []config.HourlyBucket{{StartHour: 9, EndHour: 17, Multiplier: 1.2}},
	}
	bids := []*clickrtb.Bid{{ID: "1", PartnerID: "partner_a", Price: 2.00}}

	winners := optimizeBids(bids, registry, clickrtb.VerticalAuto, tod, noon, 5)

	assert.Len(t, winners, 1)
	assert.InDelta(t, 2.00*1.5*1.2, winners[0].AdjustedPrice, 1e-9)

	evening := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	winners = optimizeBids(bids, registry, clickrtb.VerticalAuto, tod, evening, 5)
	assert.InDelta(t, 2.00*1.5*0.9, winners[0].AdjustedPrice, 1e-9)

	// A vertical with no configured multiplier prices at 1.0.
	winners = optimizeBids(bids, registry, clickrtb.VerticalLife, tod, noon, 5)
	assert.InDelta(t, 2.00*1.2, winners[0].AdjustedPrice, 1e-9)
}

func TestOptimizeBidsTruncates(t *testing.T) {
	registry := map[string]config.Partner{}
	bids := make([]*clickrtb.Bid, 0, 8)
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"} {
		registry[id] = config.Partner{}
		bids = append(bids, &clickrtb.Bid{ID: id, PartnerID: id, Price: 1.0})
	}

	winners := optimizeBids(bids, registry, clickrtb.VerticalAuto, flatTimeOfDay(), noon, 5)
	assert.Len(t, winners, 5)
}

func TestOptimizeBidsPartnerDiversity(t *testing.T) {
	registry := map[string]config.Partner{"partner_a": {}, "partner_b": {}}
	bids := []*clickrtb.Bid{
		{ID: "1", PartnerID: "partner_a", Price: 3.00},
		{ID: "2", PartnerID: "partner_a", Price: 2.50},
		{ID: "3", PartnerID: "partner_b", Price: 1.00},
	}

	winners := optimizeBids(bids, registry, clickrtb.VerticalAuto, flatTimeOfDay(), noon, 5)

	assert.Len(t, winners, 2, "only one winning bid per partner")
	assert.Equal(t, "1", winners[0].ID)
	assert.Equal(t, "3", winners[1].ID)
}

func TestOptimizeBidsDropsUnregisteredPartners(t *testing.T) {
	bids := []*clickrtb.Bid{{ID: "1", PartnerID: "ghost", Price: 5.00}}
	winners := optimizeBids(bids, map[string]config.Partner{}, clickrtb.VerticalAuto, flatTimeOfDay(), noon, 5)
	assert.Empty(t, winners)
}

func TestOptimizeBidsEmptyInput(t *testing.T) {
	winners := optimizeBids(nil, testRegistry(), clickrtb.VerticalAuto, flatTimeOfDay(), noon, 5)
	assert.NotNil(t, winners)
	assert.Empty(t, winners)
}

func TestOptimizeBidsIsPure(t *testing.T) {
	bids := []*clickrtb.Bid{
		{ID: "1", PartnerID: "partner_a", Price: 1.00},
		{ID: "2", PartnerID: "partner_b", Price: 2.00},
	}

	first := optimizeBids(bids, testRegistry(), clickrtb.VerticalAuto, flatTimeOfDay(), noon, 5)
	second := optimizeBids(bids, testRegistry(), clickrtb.VerticalAuto, flatTimeOfDay(), noon, 5)

	assert.Equal(t, first, second, "same inputs and timestamp must rank identically")
	assert.Zero(t, bids[0].AdjustedPrice, "input bids must not be mutated")
	assert.Zero(t, bids[1].AdjustedPrice, "input bids must not be mutated")
}

func TestRankValue(t *testing.T) {
	testCases := []struct {
		description string
		bid         *clickrtb.Bid
		expected    float64
	}{
		{"zero quality halves the value", &clickrtb.Bid{AdjustedPrice: 2.0, QualityScore: 0.0}, 1.0},
		{"full quality keeps the value", &clickrtb.Bid{AdjustedPrice: 2.0, QualityScore: 1.0}, 2.0},
		{"mid quality", &clickrtb.Bid{AdjustedPrice: 2.0, QualityScore: 0.5}, 1.5},
	}
	for _, tc := range testCases {
		assert.InDelta(t, tc.expected, rankValue(tc.bid), 1e-9, tc.description)
	}
}
