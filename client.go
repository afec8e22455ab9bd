package rollgate

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Client is the Rollgate SDK facade. One readers-writer lock protects
// {config, user, dead, offline}; the flag store and event buffer carry
// their own independent locks as described in their respective files.
type Client struct {
	mu        sync.RWMutex
	sessionID string
	config    Config
	user      *User
	dead      bool
	offline   bool
	ready   bool

	store  *FlagStore
	events *EventBuffer
	cache  *FlagCache

	logger     Logger
	metrics    *Metrics
	httpClient *http.Client

	stopCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var (
	singletonMu sync.Mutex
	singleton   *Client
)

// Init validates config, installs the process-wide singleton on first
// call and starts its three background workers, or — on a subsequent
// call — rebinds config and user on the existing singleton without
// respawning workers. Workers observe the new {config, user} on their
// next turn.
func Init(cfg Config, user *User) (*Client, error) {
	filled := cfg.fillDefaults()
	if err := filled.Validate(); err != nil {
		return nil, err
	}

	singletonMu.Lock()
	defer singletonMu.Unlock()

	if singleton != nil {
		singleton.mu.Lock()
		singleton.config = filled
		singleton.user = user
		singleton.mu.Unlock()
		return singleton, nil
	}

	logger := filled.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}

	c := &Client{
		sessionID:  uuid.NewString(),
		config:     filled,
		user:       user,
		offline:    filled.Offline,
		store:      NewFlagStore(),
		events:     NewEventBuffer(filled.EventsCapacity),
		cache:      NewFlagCache(filled.Cache),
		logger:     logger,
		metrics:    NewMetrics(prometheus.NewRegistry()),
		httpClient: &http.Client{Timeout: filled.ConnectionTimeout},
		stopCh:     make(chan struct{}),
	}
	c.events.onDrop = c.metrics.recordEventDropped
	c.metrics.setDead(false)
	c.loadFromCache()

	c.wg.Add(3)
	go c.pollLoop()
	go c.streamLoop()
	go c.flushLoop()

	singleton = c
	return c, nil
}

// SessionID returns the identifier generated when this instance was
// constructed, stable across Init rebinds, for correlating log lines and
// traces emitted by the same running client.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Get returns the process-wide singleton, or nil if Init has not been
// called.
func Get() *Client {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	return singleton
}

// IsInitialized reports whether c has ever successfully applied a flag
// payload, via a PUT, a successful poll or ping fetch, or a snapshot
// seeded from the local fallback cache.
func (c *Client) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

func (c *Client) markInitialized() {
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
}

// SetOffline disables all network I/O across every worker, effective on
// their next turn.
func (c *Client) SetOffline() {
	c.mu.Lock()
	c.offline = true
	c.mu.Unlock()
}

// SetOnline re-enables network I/O across every worker, effective on
// their next turn.
func (c *Client) SetOnline() {
	c.mu.Lock()
	c.offline = false
	c.mu.Unlock()
}

// IsOffline reports the current offline flag.
func (c *Client) IsOffline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offline
}

// IsDead reports whether the client has latched dead after an
// authentication failure.
func (c *Client) IsDead() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dead
}

func (c *Client) setDead(dead bool) {
	c.mu.Lock()
	c.dead = dead
	c.mu.Unlock()
	c.metrics.setDead(dead)
}

// Close signals the background workers to terminate, joins them, and
// releases the singleton slot. Idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCh)
		c.wg.Wait()

		singletonMu.Lock()
		if singleton == c {
			singleton = nil
		}
		singletonMu.Unlock()
	})
}

// snapshotConfig copies the current config under the reader lock.
func (c *Client) snapshotConfig() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// snapshotUserConfig copies the current user pointer and config under
// the reader lock, for use by code that must encode the user outside
// the lock.
func (c *Client) snapshotUserConfig() (*User, Config) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user, c.config
}

// waitOrStop sleeps for d, or returns early (true) if Close was called
// meanwhile.
func (c *Client) waitOrStop(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-c.stopCh:
		return true
	case <-timer.C:
		return false
	}
}

// Identify rebinds the evaluation context and enqueues an identify
// event for it.
func (c *Client) Identify(user *User) {
	c.mu.Lock()
	c.user = user
	cfg := c.config
	c.mu.Unlock()

	encoded, err := EncodeForURL(user, cfg)
	if err != nil {
		c.logger.Error("identify: failed encoding user", "error", err)
		return
	}
	c.events.RecordIdentify(encoded, user.Key, time.Now())
}

// loadFromCache seeds the flag store from the local fallback cache, if
// any snapshot is present. It is called once at construction, before the
// first poll or stream fetch completes, and again by every background
// worker's transport-error branch, so a run of failed fetches degrades
// to the last-known-good snapshot instead of the caller-supplied
// fallbacks alone.
func (c *Client) loadFromCache() {
	if !c.snapshotConfig().Cache.Enabled {
		return
	}
	result := c.cache.Get()
	if !result.Found {
		c.metrics.recordCacheMiss()
		return
	}
	c.metrics.recordCacheHit()
	c.store.Replace(result.Flags)
	c.markInitialized()
}

// GetAllFlags returns a snapshot of every currently stored flag.
func (c *Client) GetAllFlags() map[string]FlagValue {
	return c.store.Snapshot()
}

func (c *Client) recordFeatureEvent(key string, value, fallback any) {
	user, cfg := c.snapshotUserConfig()
	encoded, err := EncodeForURL(user, cfg)
	if err != nil {
		c.logger.Error("variation: failed encoding user for event", "error", err)
		return
	}
	c.events.RecordFeature(encoded, key, value, fallback, time.Now())
}

// BoolVariation looks up key; on miss or type mismatch it returns
// fallback. Either way a feature event recording the returned value is
// enqueued after the lookup, never while holding the store's lock.
func (c *Client) BoolVariation(key string, fallback bool) bool {
	v, ok := c.store.Lookup(key)
	result := fallback
	if ok && v.Kind == FlagValueBool {
		result = v.Bool
	}
	c.recordFeatureEvent(key, result, fallback)
	return result
}

// IntVariation looks up key as a truncated number, or returns fallback.
func (c *Client) IntVariation(key string, fallback int) int {
	v, ok := c.store.Lookup(key)
	result := fallback
	if ok && v.Kind == FlagValueNumber {
		result = int(v.Num)
	}
	c.recordFeatureEvent(key, result, fallback)
	return result
}

// DoubleVariation looks up key as a number, or returns fallback.
func (c *Client) DoubleVariation(key string, fallback float64) float64 {
	v, ok := c.store.Lookup(key)
	result := fallback
	if ok && v.Kind == FlagValueNumber {
		result = v.Num
	}
	c.recordFeatureEvent(key, result, fallback)
	return result
}

// StringVariation looks up key as a string, or returns fallback.
func (c *Client) StringVariation(key string, fallback string) string {
	v, ok := c.store.Lookup(key)
	result := fallback
	if ok && v.Kind == FlagValueString {
		result = v.Str
	}
	c.recordFeatureEvent(key, result, fallback)
	return result
}

// StringVariationBuffer writes StringVariation's result into buf,
// truncating to len(buf)-1 bytes and NUL-terminating, for embeddings
// that prefer caller-owned memory over a Go-allocated string. Returns
// the number of bytes written before the NUL.
func (c *Client) StringVariationBuffer(key, fallback string, buf []byte) int {
	value := c.StringVariation(key, fallback)
	if len(buf) == 0 {
		return 0
	}
	n := copy(buf[:len(buf)-1], value)
	buf[n] = 0
	return n
}

// applyEvalResponse parses resp's body as a flags payload and applies
// it, classifying the outcome for metrics and caller decisions. Callers
// are responsible for closing resp.Body.
func (c *Client) applyEvalResponse(resp *http.Response) string {
	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			netErr := NewNetworkError("eval response: failed reading body", err)
			c.logger.Warn("eval response: failed reading body", "session", c.sessionID, "error", netErr)
			return "read_error"
		}
		flags, err := decodeFlagDescriptorMap(body)
		if err != nil {
			valErr := NewValidationError("body", "eval response: malformed flags payload")
			valErr.Cause = err
			c.logger.Error("eval response: malformed flags payload", "session", c.sessionID, "error", valErr)
			return "malformed"
		}
		c.store.Replace(flags)
		c.cache.Set(flags)
		c.markInitialized()
		return "success"
	case http.StatusUnauthorized, http.StatusForbidden:
		c.setDead(true)
		authErr := NewAuthenticationError("eval response: authentication rejected, latching dead")
		c.logger.Error("eval response: authentication rejected, latching dead", "session", c.sessionID, "status", resp.StatusCode, "error", authErr)
		return "auth_fatal"
	default:
		srvErr := NewServerError(resp.StatusCode, "eval response: unexpected status")
		c.logger.Warn("eval response: unexpected status", "session", c.sessionID, "status", resp.StatusCode, "error", srvErr)
		return "http_error"
	}
}
