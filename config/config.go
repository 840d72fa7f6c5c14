package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validator "github.com/asaskevich/govalidator"
	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
)

// Configuration is the process-wide config, loaded once at startup.
// It is read-only after New returns; auctions share it without locking.
type Configuration struct {
	ExternalURL string `mapstructure:"external_url"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	AdminPort   int    `mapstructure:"admin_port"`
	EnableGzip  bool   `mapstructure:"enable_gzip"`

	// Auction timing. DefaultTimeoutMS applies when a request carries no
	// timeout; MaxTimeoutMS caps whatever the request asks for.
	Auction Auction `mapstructure:"auction"`

	// Partners is the Partner Registry: one entry per demand partner,
	// keyed by partner ID.
	Partners map[string]Partner `mapstructure:"partners"`

	Quality   Quality   `mapstructure:"quality"`
	TimeOfDay TimeOfDay `mapstructure:"time_of_day"`
	History   History   `mapstructure:"history"`
	Metrics   Metrics   `mapstructure:"metrics"`
	Client    Client    `mapstructure:"http_client"`
}

type Auction struct {
	DefaultTimeoutMS  uint64  `mapstructure:"default_timeout_ms"`
	MaxTimeoutMS      uint64  `mapstructure:"max_timeout_ms"`
	MaxBidsPerRequest int     `mapstructure:"max_bids_per_request"`
	GlobalMinBid      float64 `mapstructure:"global_min_bid"`
	GlobalMaxBid      float64 `mapstructure:"global_max_bid"`

	// PoolSize bounds concurrent outbound partner calls across all auctions.
	PoolSize int `mapstructure:"collector_pool_size"`

	// Retry policy for transient partner transport failures. A retry is only
	// attempted when at least MinRetryBudgetMS of deadline remains.
	RetryBaseDelayMS uint64 `mapstructure:"retry_base_delay_ms"`
	MinRetryBudgetMS uint64 `mapstructure:"min_retry_budget_ms"`
}

func (a Auction) DefaultTimeout() time.Duration {
	return time.Duration(a.DefaultTimeoutMS) * time.Millisecond
}

func (a Auction) MaxTimeout() time.Duration {
	return time.Duration(a.MaxTimeoutMS) * time.Millisecond
}

func (a Auction) RetryBaseDelay() time.Duration {
	return time.Duration(a.RetryBaseDelayMS) * time.Millisecond
}

func (a Auction) MinRetryBudget() time.Duration {
	return time.Duration(a.MinRetryBudgetMS) * time.Millisecond
}

// Partner configures one demand partner. Entries are read-only for the
// duration of any auction.
type Partner struct {
	Endpoint string `mapstructure:"endpoint"` // Required
	APIKey   string `mapstructure:"api_key"`  // Required when enabled

	// Protocol selects the wire protocol adapter: "standard" or "legacy".
	Protocol string `mapstructure:"protocol"`

	// TimeoutMS is this partner's own budget. It may never exceed the
	// overall auction maximum.
	TimeoutMS uint64 `mapstructure:"timeout_ms"`

	MinBid float64 `mapstructure:"min_bid"`
	MaxBid float64 `mapstructure:"max_bid"`

	// VerticalMultipliers scale this partner's bids per insurance vertical.
	// Unlisted verticals use 1.0.
	VerticalMultipliers map[string]float64 `mapstructure:"vertical_multipliers"`

	// Priority breaks ranking ties: higher sorts first.
	Priority int  `mapstructure:"priority"`
	Enabled  bool `mapstructure:"enabled"`
}

func (p Partner) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// VerticalMultiplier returns the multiplier for the given vertical,
// defaulting to 1.0 for unlisted verticals.
func (p Partner) VerticalMultiplier(v clickrtb.Vertical) float64 {
	if m, ok := p.VerticalMultipliers[string(v)]; ok {
		return m
	}
	return 1.0
}

// Quality holds the named quality-score weights. They must sum to 1.
type Quality struct {
	AcceptanceWeight float64 `mapstructure:"acceptance_weight"`
	PriceWeight      float64 `mapstructure:"price_weight"`
	LeadFitWeight    float64 `mapstructure:"lead_fit_weight"`

	// NeutralScore is assigned when a partner has no history.
	NeutralScore float64 `mapstructure:"neutral_score"`
}

// TimeOfDay is the piecewise hour-of-day pricing table. Buckets must not
// overlap; hours not covered by any bucket use DefaultMultiplier.
type TimeOfDay struct {
	DefaultMultiplier float64        `mapstructure:"default_multiplier"`
	Buckets           []HourlyBucket `mapstructure:"buckets"`
}

type HourlyBucket struct {
	StartHour  int     `mapstructure:"start_hour"` // inclusive
	EndHour    int     `mapstructure:"end_hour"`   // inclusive
	Multiplier float64 `mapstructure:"multiplier"`
}

// Multiplier returns the configured multiplier for an hour of day [0,23].
func (t TimeOfDay) Multiplier(hour int) float64 {
	for _, b := range t.Buckets {
		if hour >= b.StartHour && hour <= b.EndHour {
			return b.Multiplier
		}
	}
	return t.DefaultMultiplier
}

// History configures the partner-history snapshot refresher.
type History struct {
	FetchURL             string `mapstructure:"fetch_url"`
	FetchIntervalSeconds int    `mapstructure:"fetch_interval_seconds"`
	StaleSnapshotSeconds int    `mapstructure:"stale_snapshot_seconds"`
}

type Metrics struct {
	Prometheus PrometheusMetrics `mapstructure:"prometheus"`
}

type PrometheusMetrics struct {
	Port             int    `mapstructure:"port"`
	Namespace        string `mapstructure:"namespace"`
	Subsystem        string `mapstructure:"subsystem"`
	TimeoutMillisRaw int    `mapstructure:"timeout_ms"`
}

func (m PrometheusMetrics) Timeout() time.Duration {
	return time.Duration(m.TimeoutMillisRaw) * time.Millisecond
}

// Client tunes the shared outbound HTTP client used for partner calls.
type Client struct {
	MaxIdleConns        int `mapstructure:"max_idle_connections"`
	MaxIdleConnsPerHost int `mapstructure:"max_idle_connections_per_host"`
	IdleConnTimeoutSecs int `mapstructure:"idle_connection_timeout_seconds"`
}

// New uses viper to get our server configurations.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	glog.Infof("config: %d partners registered (%d enabled)", len(c.Partners), len(c.EnabledPartners()))
	return &c, nil
}

// EnabledPartners returns the IDs of all enabled partners.
func (cfg *Configuration) EnabledPartners() []string {
	ids := make([]string, 0, len(cfg.Partners))
	for id, p := range cfg.Partners {
		if p.Enabled {
			ids = append(ids, id)
		}
	}
	return ids
}

func (cfg *Configuration) validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", cfg.Port)
	}
	if cfg.Auction.DefaultTimeoutMS == 0 || cfg.Auction.MaxTimeoutMS == 0 {
		return errors.New("config: auction.default_timeout_ms and auction.max_timeout_ms must be positive")
	}
	if cfg.Auction.DefaultTimeoutMS > cfg.Auction.MaxTimeoutMS {
		return fmt.Errorf("config: auction.default_timeout_ms (%d) exceeds auction.max_timeout_ms (%d)",
			cfg.Auction.DefaultTimeoutMS, cfg.Auction.MaxTimeoutMS)
	}
	if cfg.Auction.MaxBidsPerRequest < 1 {
		return fmt.Errorf("config: auction.max_bids_per_request must be at least 1, got %d", cfg.Auction.MaxBidsPerRequest)
	}
	if cfg.Auction.PoolSize < 1 {
		return fmt.Errorf("config: auction.collector_pool_size must be at least 1, got %d", cfg.Auction.PoolSize)
	}
	if cfg.Auction.GlobalMinBid <= 0 || cfg.Auction.GlobalMinBid >= cfg.Auction.GlobalMaxBid {
		return fmt.Errorf("config: invalid global bid bounds [%v, %v]", cfg.Auction.GlobalMinBid, cfg.Auction.GlobalMaxBid)
	}
	if err := cfg.validateQuality(); err != nil {
		return err
	}
	if err := cfg.validateTimeOfDay(); err != nil {
		return err
	}
	for id, p := range cfg.Partners {
		if err := validatePartner(id, p, cfg.Auction); err != nil {
			return err
		}
	}
	return nil
}

func (cfg *Configuration) validateQuality() error {
	q := cfg.Quality
	sum := q.AcceptanceWeight + q.PriceWeight + q.LeadFitWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("config: quality weights must sum to 1.0, got %v", sum)
	}
	if q.NeutralScore < 0 || q.NeutralScore > 1 {
		return fmt.Errorf("config: quality.neutral_score must be in [0,1], got %v", q.NeutralScore)
	}
	return nil
}

func (cfg *Configuration) validateTimeOfDay() error {
	if cfg.TimeOfDay.DefaultMultiplier <= 0 {
		return fmt.Errorf("config: time_of_day.default_multiplier must be positive, got %v", cfg.TimeOfDay.DefaultMultiplier)
	}
	for i, b := range cfg.TimeOfDay.Buckets {
		if b.StartHour < 0 || b.EndHour > 23 || b.StartHour > b.EndHour {
			return fmt.Errorf("config: time_of_day.buckets[%d] has invalid hour range [%d, %d]", i, b.StartHour, b.EndHour)
		}
		if b.Multiplier <= 0 {
			return fmt.Errorf("config: time_of_day.buckets[%d] multiplier must be positive, got %v", i, b.Multiplier)
		}
	}
	return nil
}

func validatePartner(id string, p Partner, auction Auction) error {
	if !p.Enabled {
		return nil
	}
	// Validating using both IsURL and IsRequestURL because IsURL allows
	// relative paths whereas IsRequestURL requires an absolute path but
	// misses other malformed URLs.
	if !validator.IsURL(p.Endpoint) || !validator.IsRequestURL(p.Endpoint) {
		return fmt.Errorf("config: partner %s has an invalid endpoint: %s", id, p.Endpoint)
	}
	if p.APIKey == "" {
		return fmt.Errorf("config: partner %s is enabled but has no api_key", id)
	}
	if p.Protocol != "standard" && p.Protocol != "legacy" {
		return fmt.Errorf("config: partner %s has unknown protocol %q", id, p.Protocol)
	}
	if p.TimeoutMS == 0 || p.TimeoutMS > auction.MaxTimeoutMS {
		return fmt.Errorf("config: partner %s timeout_ms %d must be in (0, %d]", id, p.TimeoutMS, auction.MaxTimeoutMS)
	}
	if p.MinBid <= 0 || p.MinBid >= p.MaxBid {
		return fmt.Errorf("config: partner %s has invalid bid bounds [%v, %v]", id, p.MinBid, p.MaxBid)
	}
	if p.MinBid < auction.GlobalMinBid || p.MaxBid > auction.GlobalMaxBid {
		return fmt.Errorf("config: partner %s bid bounds [%v, %v] exceed global bounds [%v, %v]",
			id, p.MinBid, p.MaxBid, auction.GlobalMinBid, auction.GlobalMaxBid)
	}
	for vertical, m := range p.VerticalMultipliers {
		if !clickrtb.Vertical(vertical).Valid() {
			return fmt.Errorf("config: partner %s has a multiplier for unknown vertical %q", id, vertical)
		}
		if m < 0.1 || m > 10.0 {
			return fmt.Errorf("config: partner %s multiplier %v for vertical %s is outside [0.1, 10.0]", id, m, vertical)
		}
	}
	return nil
}

// SetupViper sets the viper defaults and environment bindings for the app.
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/config")
	}

	v.SetDefault("external_url", "http://localhost:8000")
	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("admin_port", 6060)
	v.SetDefault("enable_gzip", false)

	v.SetDefault("auction.default_timeout_ms", 500)
	v.SetDefault("auction.max_timeout_ms", 500)
	v.SetDefault("auction.max_bids_per_request", 5)
	v.SetDefault("auction.global_min_bid", 0.01)
	v.SetDefault("auction.global_max_bid", 100.0)
	v.SetDefault("auction.collector_pool_size", 64)
	v.SetDefault("auction.retry_base_delay_ms", 20)
	v.SetDefault("auction.min_retry_budget_ms", 50)

	v.SetDefault("quality.acceptance_weight", 0.5)
	v.SetDefault("quality.price_weight", 0.3)
	v.SetDefault("quality.lead_fit_weight", 0.2)
	v.SetDefault("quality.neutral_score", 0.5)

	v.SetDefault("time_of_day.default_multiplier", 0.9)
	v.SetDefault("time_of_day.buckets", []map[string]interface{}{
		{"start_hour": 9, "end_hour": 17, "multiplier": 1.2},
		{"start_hour": 18, "end_hour": 22, "multiplier": 1.1},
	})

	v.SetDefault("history.fetch_url", "")
	v.SetDefault("history.fetch_interval_seconds", 300)
	v.SetDefault("history.stale_snapshot_seconds", 1800)

	v.SetDefault("metrics.prometheus.port", 0)
	v.SetDefault("metrics.prometheus.namespace", "")
	v.SetDefault("metrics.prometheus.subsystem", "")
	v.SetDefault("metrics.prometheus.timeout_ms", 10000)

	v.SetDefault("http_client.max_idle_connections", 400)
	v.SetDefault("http_client.max_idle_connections_per_host", 10)
	v.SetDefault("http_client.idle_connection_timeout_seconds", 60)

	v.SetEnvPrefix("CLICKWALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.ReadInConfig()
}
