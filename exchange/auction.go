package exchange

import (
	"sort"
	"time"

	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
)

// qualityFloor bounds how much a low quality score can devalue a bid: an
// unscored or zero-quality bid still ranks at half its adjusted price, so
// high-price partners are never starved outright by a cold quality signal.
const qualityFloor = 0.5

// optimizeBids applies the vertical and time-of-day pricing multipliers,
// ranks the adjusted bids, and truncates to maxResults. It is a pure
// transform: input bids are not mutated, and the same inputs and timestamp
// always yield the same output.
func optimizeBids(bids []*clickrtb.Bid, registry map[string]config.Partner, vertical clickrtb.Vertical, tod config.TimeOfDay, ts time.Time, maxResults int) []*clickrtb.Bid {
	if len(bids) == 0 {
		return []*clickrtb.Bid{}
	}

	timeMultiplier := tod.Multiplier(ts.Hour())

	adjusted := make([]*clickrtb.Bid, 0, len(bids))
	for _, bid := range bids {
		pcfg, ok := registry[bid.PartnerID]
		if !ok {
			// A bid can only have come from a registered partner; a miss here
			// means the registry changed under us, which copy-on-write reloads
			// are supposed to prevent. Drop the bid rather than price it wrong.
			continue
		}
		clone := *bid
		clone.AdjustedPrice = bid.Price * pcfg.VerticalMultiplier(vertical) * timeMultiplier
		adjusted = append(adjusted, &clone)
	}

	sort.SliceStable(adjusted, func(i, j int) bool {
		ri := rankValue(adjusted[i])
		rj := rankValue(adjusted[j])
		if ri != rj {
			return ri > rj
		}
		// Deterministic tie-break: higher priority first, then lower
		// partner ID lexicographically.
		pi := registry[adjusted[i].PartnerID].Priority
		pj := registry[adjusted[j].PartnerID].Priority
		if pi != pj {
			return pi > pj
		}
		return adjusted[i].PartnerID < adjusted[j].PartnerID
	})

	// One winning bid per partner. With one call per partner per auction this
	// is normally a no-op, but it makes the diversity rule structural rather
	// than incidental.
	winners := make([]*clickrtb.Bid, 0, maxResults)
	seenPartners := make(map[string]bool, maxResults)
	for _, bid := range adjusted {
		if len(winners) >= maxResults {
			break
		}
		if seenPartners[bid.PartnerID] {
			continue
		}
		seenPartners[bid.PartnerID] = true
		winners = append(winners, bid)
	}
	return winners
}

// rankValue is the ranking basis: adjusted price tempered by quality, with
// quality's influence bounded to at most a 50% devaluation.
func rankValue(bid *clickrtb.Bid) float64 {
	return bid.AdjustedPrice * (qualityFloor + qualityFloor*bid.QualityScore)
}
