package rollgate

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the Rollgate client. Immutable
// after Init; options map 1:1 to the recognized configuration table.
type Config struct {
	// MobileKey is the per-environment credential sent verbatim as the
	// Authorization header value (required).
	MobileKey string

	// AppURI is the base URL used for polling and ping fetches.
	AppURI string

	// EventsURI is the base URL used for event POSTs.
	EventsURI string

	// StreamURI is the base URL used for the SSE stream.
	StreamURI string

	// Streaming selects the update mechanism: when true the polling
	// worker idles and the streaming worker drives updates; when false
	// the polling worker drives updates.
	Streaming bool

	// PollingInterval is the polling worker's sleep interval.
	PollingInterval time.Duration

	// EventsFlushInterval is the event flusher's sleep interval.
	EventsFlushInterval time.Duration

	// EventsCapacity bounds the event buffer; beyond it, new events are
	// dropped (drop-newest).
	EventsCapacity int

	// ConnectionTimeout bounds transport connect time.
	ConnectionTimeout time.Duration

	// Offline disables all network I/O across every worker when true.
	Offline bool

	// UseReport routes the user via a REPORT request body instead of a
	// base64 path segment when true.
	UseReport bool

	// AllAttributesPrivate redacts every built-in string attribute
	// (secondary, ip, firstName, lastName, email, name, avatar) during
	// encoding; Key, Anonymous and Custom are always sent.
	AllAttributesPrivate bool

	// PrivateAttributeNames is intersected with a user's own private
	// attribute names to decide what gets redacted.
	PrivateAttributeNames []string

	// DisableBackgroundUpdating stops the polling and streaming workers
	// from running at all.
	DisableBackgroundUpdating bool

	// BackgroundPollingInterval is reserved: parsed and stored, never
	// consulted (see DESIGN.md open-question decision).
	BackgroundPollingInterval time.Duration

	// Logger receives internal diagnostic output; nil selects
	// NewDefaultLogger. Use DiscardLogger to silence output.
	Logger Logger

	// Cache configures the local last-known-good flag snapshot that
	// replaces the store's contents whenever a fetch fails in transport.
	Cache CacheConfig

	// Backoff configures the event flusher's retry schedule.
	Backoff BackoffConfig
}

// CacheConfig holds local fallback-cache settings.
type CacheConfig struct {
	// TTL is how long a cached snapshot is considered fresh.
	TTL time.Duration
	// StaleTTL is how long a cached snapshot may still be used, stale.
	StaleTTL time.Duration
	// Enabled controls whether the fallback cache is consulted at all.
	Enabled bool
}

// BackoffConfig parameterizes the event flusher's exponential, fully
// jittered backoff with a one-hour cap.
type BackoffConfig struct {
	// BaseMs is the schedule's base interval in milliseconds.
	BaseMs int64
	// MaxMs caps the computed delay.
	MaxMs int64
}

func defaultBackoffConfig() BackoffConfig {
	return BackoffConfig{BaseMs: 1000, MaxMs: 3_600_000}
}

func defaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 5 * time.Minute, StaleTTL: 1 * time.Hour, Enabled: true}
}

// DefaultConfig returns a Config with production defaults and the given
// mobile key set.
func DefaultConfig(mobileKey string) Config {
	return Config{
		MobileKey:                 mobileKey,
		AppURI:                    "https://app.rollgate.io",
		EventsURI:                 "https://events.rollgate.io",
		StreamURI:                 "https://stream.rollgate.io",
		Streaming:                 true,
		PollingInterval:           300 * time.Second,
		EventsFlushInterval:       30 * time.Second,
		EventsCapacity:            100,
		ConnectionTimeout:         10 * time.Second,
		BackgroundPollingInterval: time.Hour,
		Cache:                     defaultCacheConfig(),
		Backoff:                   defaultBackoffConfig(),
	}
}

// Validate rejects configuration that init must refuse the client for.
func (c Config) Validate() error {
	if c.MobileKey == "" {
		return ErrInvalidAPIKey
	}
	if c.EventsCapacity <= 0 {
		return fmt.Errorf("rollgate: events-capacity must be positive, got %d", c.EventsCapacity)
	}
	return nil
}

// fillDefaults applies DefaultConfig's values to any zero-valued field
// that a caller did not set explicitly.
func (c Config) fillDefaults() Config {
	d := DefaultConfig(c.MobileKey)
	if c.AppURI == "" {
		c.AppURI = d.AppURI
	}
	if c.EventsURI == "" {
		c.EventsURI = d.EventsURI
	}
	if c.StreamURI == "" {
		c.StreamURI = d.StreamURI
	}
	if c.PollingInterval == 0 {
		c.PollingInterval = d.PollingInterval
	}
	if c.EventsFlushInterval == 0 {
		c.EventsFlushInterval = d.EventsFlushInterval
	}
	if c.EventsCapacity == 0 {
		c.EventsCapacity = d.EventsCapacity
	}
	if c.ConnectionTimeout == 0 {
		c.ConnectionTimeout = d.ConnectionTimeout
	}
	if c.BackgroundPollingInterval == 0 {
		c.BackgroundPollingInterval = d.BackgroundPollingInterval
	}
	if c.Cache.TTL == 0 && c.Cache.StaleTTL == 0 {
		c.Cache = d.Cache
	}
	if c.Backoff.BaseMs == 0 {
		c.Backoff.BaseMs = d.Backoff.BaseMs
	}
	if c.Backoff.MaxMs == 0 {
		c.Backoff.MaxMs = d.Backoff.MaxMs
	}
	// Streaming defaults to true; only an explicit caller-constructed
	// Config (as opposed to DefaultConfig) can turn it off, so there is
	// no zero-value ambiguity to resolve here.
	return c
}

// configFile is the shape LoadConfigFile decodes from YAML/JSON/env via
// viper, separate from Config so Logger (an interface with no natural
// serialization) never has to round-trip through a file.
type configFile struct {
	MobileKey                 string   `mapstructure:"mobile-key"`
	AppURI                    string   `mapstructure:"app-uri"`
	EventsURI                 string   `mapstructure:"events-uri"`
	StreamURI                 string   `mapstructure:"stream-uri"`
	Streaming                 bool     `mapstructure:"streaming"`
	PollingIntervalMs         int64    `mapstructure:"polling-interval-ms"`
	EventsFlushIntervalMs     int64    `mapstructure:"events-flush-interval-ms"`
	EventsCapacity            int      `mapstructure:"events-capacity"`
	ConnectionTimeoutMs       int64    `mapstructure:"connection-timeout-ms"`
	Offline                   bool     `mapstructure:"offline"`
	UseReport                 bool     `mapstructure:"use-report"`
	AllAttributesPrivate      bool     `mapstructure:"all-attributes-private"`
	PrivateAttributeNames     []string `mapstructure:"private-attribute-names"`
	DisableBackgroundUpdating bool     `mapstructure:"disable-background-updating"`
	BackgroundPollingMs       int64    `mapstructure:"background-polling-interval-ms"`
}

// LoadConfigFile reads a YAML, JSON, or TOML configuration file (format
// inferred from its extension) via viper and decodes it into a Config.
// Fields absent from the file fall back to DefaultConfig's values.
func LoadConfigFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("streaming", true)
	v.SetEnvPrefix("ROLLGATE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("rollgate: read config file: %w", err)
	}

	var raw configFile
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("rollgate: decode config file: %w", err)
	}

	cfg := Config{
		MobileKey:                 raw.MobileKey,
		AppURI:                    raw.AppURI,
		EventsURI:                 raw.EventsURI,
		StreamURI:                 raw.StreamURI,
		Streaming:                 raw.Streaming,
		PollingInterval:           time.Duration(raw.PollingIntervalMs) * time.Millisecond,
		EventsFlushInterval:       time.Duration(raw.EventsFlushIntervalMs) * time.Millisecond,
		EventsCapacity:            raw.EventsCapacity,
		ConnectionTimeout:         time.Duration(raw.ConnectionTimeoutMs) * time.Millisecond,
		Offline:                   raw.Offline,
		UseReport:                 raw.UseReport,
		AllAttributesPrivate:      raw.AllAttributesPrivate,
		PrivateAttributeNames:     raw.PrivateAttributeNames,
		DisableBackgroundUpdating: raw.DisableBackgroundUpdating,
		BackgroundPollingInterval: time.Duration(raw.BackgroundPollingMs) * time.Millisecond,
	}
	filled := cfg.fillDefaults()
	if err := filled.Validate(); err != nil {
		return Config{}, err
	}
	return filled, nil
}
