package exchange

import (
	"fmt"
	"net/http"

	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
	"github.com/Assurean/rocket-quote-fzia64-sub003/metrics"
	"github.com/Assurean/rocket-quote-fzia64-sub003/partners"
	"github.com/Assurean/rocket-quote-fzia64-sub003/partners/legacy"
	"github.com/Assurean/rocket-quote-fzia64-sub003/partners/standard"
)

// protocolBuilders is the registry-driven dispatch table: partner
// heterogeneity lives entirely behind the protocol named in config, not in
// per-partner types.
var protocolBuilders = map[string]func() partners.Bidder{
	"standard": func() partners.Bidder { return standard.NewStandardBidder() },
	"legacy":   func() partners.Bidder { return legacy.NewLegacyBidder() },
}

// ProtocolNames returns the wire protocols this build supports.
func ProtocolNames() []string {
	names := make([]string, 0, len(protocolBuilders))
	for name := range protocolBuilders {
		names = append(names, name)
	}
	return names
}

func buildAdaptedBidders(cfg *config.Configuration, client *http.Client, me metrics.MetricsEngine) (map[string]AdaptedBidder, error) {
	bidders := make(map[string]AdaptedBidder, len(cfg.Partners))
	for id, p := range cfg.Partners {
		if !p.Enabled {
			continue
		}
		builder, ok := protocolBuilders[p.Protocol]
		if !ok {
			// Config validation rejects unknown protocols; reaching this
			// means a builder was removed without a config migration.
			return nil, fmt.Errorf("no protocol builder registered for partner %s protocol %q", id, p.Protocol)
		}
		bidders[id] = AdaptBidder(builder(), client, me, cfg.Auction)
	}
	return bidders, nil
}
