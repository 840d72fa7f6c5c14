// Package history maintains a process-wide, periodically refreshed snapshot
// of partner performance. Auctions read an immutable snapshot; refreshes swap
// in a whole new one, so an in-flight auction never observes a partial
// update and scoring stays reproducible for a given snapshot.
package history

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/Assurean/rocket-quote-fzia64-sub003/metrics"
)

// PartnerStats summarizes one partner's observed behavior over the stats
// window the upstream aggregator uses.
type PartnerStats struct {
	// AcceptanceRate is the fraction of this partner's past winning bids
	// that converted to an accepted click, in [0,1].
	AcceptanceRate float64 `json:"acceptance_rate"`

	// MinPrice and MaxPrice bound the partner's historical bid price
	// distribution; used to normalize a new bid's price.
	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`

	SampleSize int64 `json:"sample_size"`
}

// Snapshot is an immutable view of partner history. It is shared by every
// auction running at the moment it was current; none of them may mutate it.
type Snapshot struct {
	createdAt time.Time
	partners  map[string]PartnerStats
}

// Partner looks up the stats for a partner ID.
func (s *Snapshot) Partner(id string) (PartnerStats, bool) {
	stats, ok := s.partners[id]
	return stats, ok
}

// CreatedAt reports when this snapshot was fetched.
func (s *Snapshot) CreatedAt() time.Time {
	return s.createdAt
}

// Partners returns a copy of every partner's stats, keyed by partner ID.
func (s *Snapshot) Partners() map[string]PartnerStats {
	copied := make(map[string]PartnerStats, len(s.partners))
	for id, stats := range s.partners {
		copied[id] = stats
	}
	return copied
}

// EmptySnapshot returns a snapshot with no partner data. Scoring against it
// yields the configured neutral score for every partner.
func EmptySnapshot() *Snapshot {
	return &Snapshot{partners: map[string]PartnerStats{}}
}

// NewSnapshot builds a snapshot directly from stats. Intended for tests and
// for seeding.
func NewSnapshot(createdAt time.Time, partners map[string]PartnerStats) *Snapshot {
	copied := make(map[string]PartnerStats, len(partners))
	for id, stats := range partners {
		copied[id] = stats
	}
	return &Snapshot{createdAt: createdAt, partners: copied}
}

// Store fetches partner history from the stats aggregator and hands out the
// latest snapshot. It implements task.Runner so a TickerTask can drive the
// refresh cycle outside any auction's critical path.
type Store struct {
	httpClient *http.Client
	fetchURL   string
	staleAfter time.Duration
	me         metrics.MetricsEngine

	snapshot atomic.Value // *Snapshot
	time     func() time.Time
}

// NewStore returns a Store seeded with an empty snapshot. If fetchURL is
// empty the store stays empty and Run is a no-op, which keeps local and test
// deployments honest without a stats backend.
func NewStore(httpClient *http.Client, fetchURL string, staleAfter time.Duration, me metrics.MetricsEngine) *Store {
	s := &Store{
		httpClient: httpClient,
		fetchURL:   fetchURL,
		staleAfter: staleAfter,
		me:         me,
		time:       time.Now,
	}
	s.snapshot.Store(EmptySnapshot())
	return s
}

// Snapshot returns the latest snapshot. Never nil.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load().(*Snapshot)
}

// Stale reports whether the current snapshot is older than the configured
// staleness threshold. Auctions still run with a stale snapshot; this only
// feeds the status endpoint.
func (s *Store) Stale() bool {
	snap := s.Snapshot()
	if snap.createdAt.IsZero() {
		return s.staleAfter > 0
	}
	return s.staleAfter > 0 && s.time().Sub(snap.createdAt) > s.staleAfter
}

// Run fetches fresh history and swaps the snapshot. On any failure the
// previous snapshot stays in place; a stale snapshot beats no snapshot.
func (s *Store) Run() error {
	if s.fetchURL == "" {
		return nil
	}

	stats, err := s.fetch()
	if err != nil {
		s.me.RecordHistoryRefresh(false)
		glog.Errorf("history: refresh failed, keeping previous snapshot: %v", err)
		return err
	}

	s.snapshot.Store(NewSnapshot(s.time(), stats))
	s.me.RecordHistoryRefresh(true)
	glog.V(2).Infof("history: refreshed snapshot with %d partners", len(stats))
	return nil
}

func (s *Store) fetch() (map[string]PartnerStats, error) {
	resp, err := s.httpClient.Get(s.fetchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history endpoint responded with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var stats map[string]PartnerStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("error parsing history response: %v", err)
	}
	return stats, nil
}
