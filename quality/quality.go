// Package quality computes the dimensionless [0,1] quality score that tempers
// raw bid price during ranking. Score is a pure function of its inputs: the
// same bid, snapshot and weights always produce the same score, which keeps
// auctions reproducible for a given history snapshot.
package quality

import (
	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
	"github.com/Assurean/rocket-quote-fzia64-sub003/history"
)

// fitAttributes are the lead fields partners consistently price against.
// The fit signal is the fraction of these present and non-empty on the lead.
var fitAttributes = []string{
	"age",
	"state",
	"zip",
	"gender",
	"married",
	"homeowner",
	"phone_verified",
}

// Score blends three signals with the configured weights:
//
//   - the partner's historical acceptance rate,
//   - the bid's price normalized against the partner's historical price range,
//   - a lead-attribute fit heuristic.
//
// A partner with no history gets the configured neutral score for the first
// two signals rather than being zeroed out.
//
// The partner's self-reported quality hint is intentionally not an input.
// Partners have every incentive to inflate it, so only signals this process
// observed or was handed by the caller feed the score.
func Score(bid *clickrtb.Bid, snapshot *history.Snapshot, userData map[string]interface{}, w config.Quality) float64 {
	acceptance := w.NeutralScore
	priceNorm := w.NeutralScore

	if stats, ok := snapshot.Partner(bid.PartnerID); ok && stats.SampleSize > 0 {
		acceptance = clamp01(stats.AcceptanceRate)
		priceNorm = normalizePrice(bid.Price, stats)
	}

	score := w.AcceptanceWeight*acceptance +
		w.PriceWeight*priceNorm +
		w.LeadFitWeight*leadFit(userData)

	return clamp01(score)
}

// normalizePrice positions a price inside the partner's historical [min, max]
// range. Prices outside the range clamp to the edges; a degenerate range
// (a partner that has only ever bid one price) scores the midpoint.
func normalizePrice(price float64, stats history.PartnerStats) float64 {
	spread := stats.MaxPrice - stats.MinPrice
	if spread <= 0 {
		return 0.5
	}
	return clamp01((price - stats.MinPrice) / spread)
}

func leadFit(userData map[string]interface{}) float64 {
	if len(userData) == 0 {
		return 0
	}
	present := 0
	for _, attr := range fitAttributes {
		if v, ok := userData[attr]; ok && v != nil && v != "" {
			present++
		}
	}
	return float64(present) / float64(len(fitAttributes))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
