package rollgate

import (
	"context"
	"net/http"
	"time"

	"github.com/launchdarkly/eventsource"
)

// streamReconnectDelay is the fixed delay after any disconnect, per
// the streaming worker's reconnection policy.
const streamReconnectDelay = 30 * time.Second

// streamLoop is the streaming worker's outer reconnect loop: hold a
// connection open for as long as it stays up, then wait the fixed
// reconnect delay and try again, for as long as streaming stays
// eligible and the client has not been closed.
func (c *Client) streamLoop() {
	defer c.wg.Done()
	for {
		cfg, user, skip := c.streamPreconditions()
		if skip {
			if c.waitOrStop(streamReconnectDelay) {
				return
			}
			continue
		}

		stopped := c.runStream(cfg, user)
		if stopped {
			return
		}
		if c.waitOrStop(streamReconnectDelay) {
			return
		}
	}
}

func (c *Client) streamPreconditions() (cfg Config, user *User, skip bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg = c.config
	user = c.user
	skip = !cfg.Streaming || cfg.DisableBackgroundUpdating || c.offline || c.dead
	return cfg, user, skip
}

// runStream opens one streaming connection and services it until it
// ends, returning true only if the client was closed meanwhile.
func (c *Client) runStream(cfg Config, user *User) bool {
	encoded, err := EncodeForURL(user, cfg)
	if err != nil {
		c.logger.Error("stream: failed encoding user", "error", err)
		return false
	}

	req, err := http.NewRequest(http.MethodGet, cfg.StreamURI+"/meval/"+encoded, nil)
	if err != nil {
		c.logger.Error("stream: failed building request", "error", err)
		return false
	}
	req.Header.Set("Authorization", cfg.MobileKey)
	req.Header.Set("Accept", "text/event-stream")

	stream, err := eventsource.SubscribeWithRequest("", req)
	if err != nil {
		classified := ClassifyError(err)
		c.metrics.observeRequest("stream", "transport_error", 0)
		c.logger.Warn("stream: connect failed, using cached fallback and reconnecting after delay", "retryable", IsRetryable(classified), "error", classified)
		c.loadFromCache()
		return false
	}
	defer stream.Close()

	c.metrics.setStreamConnected(true)
	defer c.metrics.setStreamConnected(false)

	for {
		select {
		case <-c.stopCh:
			return true
		case err, ok := <-stream.Errors:
			if !ok {
				return false
			}
			classified := ClassifyError(err)
			c.logger.Warn("stream: connection error, using cached fallback and reconnecting after delay", "retryable", IsRetryable(classified), "error", classified)
			c.loadFromCache()
			return false
		case ev, ok := <-stream.Events:
			if !ok {
				return false
			}
			if authFatal := c.handleStreamEvent(cfg, ev); authFatal {
				return false
			}
		}
	}
}

// handleStreamEvent applies one decoded event per the PUT/PATCH/PING
// dispatch rules and reports whether it latched dead during a ping
// fetch, in which case the caller must stop servicing this connection.
func (c *Client) handleStreamEvent(cfg Config, ev eventsource.Event) bool {
	switch ev.Event() {
	case "put":
		flags, err := decodeFlagDescriptorMap([]byte(ev.Data()))
		if err != nil {
			c.logger.Error("stream: malformed put payload, dropping event", "error", err)
			return false
		}
		c.store.Replace(flags)
		c.cache.Set(flags)
		c.markInitialized()
		return false

	case "patch":
		key, value, err := decodePatchDescriptor([]byte(ev.Data()))
		if err != nil {
			c.logger.Error("stream: malformed patch payload, dropping event", "error", err)
			return false
		}
		c.store.Patch(key, value)
		return false

	case "ping":
		return c.doPingFetch(cfg)

	default:
		c.logger.Debug("stream: ignoring unrecognized event type", "event", ev.Event())
		return false
	}
}

// doPingFetch performs the one-shot GET identical to the polling
// fetch and returns whether it latched dead.
func (c *Client) doPingFetch(cfg Config) bool {
	c.mu.RLock()
	user := c.user
	c.mu.RUnlock()

	req, err := buildEvalRequest(context.Background(), cfg, user)
	if err != nil {
		c.logger.Error("stream: failed building ping request", "error", err)
		return false
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	dur := time.Since(start).Seconds()
	if err != nil {
		classified := ClassifyError(err)
		c.metrics.observeRequest("ping", "transport_error", dur)
		c.logger.Warn("stream: ping request failed, using cached fallback", "retryable", IsRetryable(classified), "error", classified)
		c.loadFromCache()
		return false
	}
	defer resp.Body.Close()

	outcome := c.applyEvalResponse(resp)
	c.metrics.observeRequest("ping", outcome, dur)
	return outcome == "auth_fatal"
}
