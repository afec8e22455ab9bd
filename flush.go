package rollgate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// errClientUnavailable signals flushBatch's operation closure that the
// client went dead or offline mid-retry; it is always wrapped in
// backoff.Permanent and never logged, matching the silent drop the
// dead/offline short-circuit already performed.
var errClientUnavailable = errors.New("flush: client dead or offline")

// parseRetryAfter parses an RFC 7231 Retry-After header value expressed
// in delay-seconds, defaulting to 0 (no hint) on anything else, such as
// an HTTP-date form this SDK has no need to support.
func parseRetryAfter(header string) int {
	seconds, err := strconv.Atoi(header)
	if err != nil {
		return 0
	}
	return seconds
}

// flushLoop is the event flusher's sleep-drain-send state machine. Each
// turn drains whatever the event buffer has accumulated and, if
// non-empty, tries to deliver it, retrying the same batch on transport
// failure with the full-jitter backoff schedule.
func (c *Client) flushLoop() {
	defer c.wg.Done()
	for {
		cfg := c.snapshotConfig()
		if c.waitOrStop(cfg.EventsFlushInterval) {
			return
		}

		batch, ok := c.events.Drain()
		if !ok {
			continue
		}
		if stopped := c.flushBatch(batch); stopped {
			return
		}
	}
}

// flushBatch delivers batch, retrying transport failures through
// cenkalti/backoff/v4's RetryNotify driven by the full-jitter schedule,
// until it either succeeds, is discarded by a terminal response, or the
// client is closed. Returns true only if Close interrupted the retry.
func (c *Client) flushBatch(batch []byte) bool {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	bo := backoff.WithContext(newFullJitterBackOff(c.snapshotConfig().Backoff), ctx)

	var batchEvents []json.RawMessage
	_ = json.Unmarshal(batch, &batchEvents)

	operation := func() error {
		c.mu.RLock()
		dead := c.dead
		offline := c.offline
		cfg := c.config
		c.mu.RUnlock()
		if dead || offline {
			return backoff.Permanent(errClientUnavailable)
		}

		req, err := http.NewRequest(http.MethodPost, cfg.EventsURI+"/mobile", bytes.NewReader(batch))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", cfg.MobileKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Rollgate-Session", c.sessionID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		dur := time.Since(start).Seconds()
		if err != nil {
			c.metrics.observeRequest("flush", "transport_error", dur)
			return NewNetworkError("flush: transport failure", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			c.metrics.observeRequest("flush", "success", dur)
			c.metrics.recordEventsFlushed(len(batchEvents))
			return nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			c.setDead(true)
			c.metrics.observeRequest("flush", "auth_fatal", dur)
			authErr := NewAuthenticationError("flush: authentication rejected, latching dead and discarding batch")
			c.logger.Error("flush: authentication rejected, latching dead and discarding batch", "session", c.sessionID, "error", authErr)
			return backoff.Permanent(authErr)
		case resp.StatusCode == http.StatusTooManyRequests:
			rlErr := NewRateLimitError(parseRetryAfter(resp.Header.Get("Retry-After")))
			c.metrics.observeRequest("flush", "http_error", dur)
			c.logger.Warn("flush: rate limited, discarding batch per status-code policy", "session", c.sessionID, "error", rlErr)
			return backoff.Permanent(rlErr)
		default:
			// Any other status is treated as delivered for retry purposes:
			// the server will surface schema errors out of band.
			srvErr := NewServerError(resp.StatusCode, "flush: unexpected status, discarding batch")
			c.metrics.observeRequest("flush", "http_error", dur)
			c.logger.Warn("flush: unexpected status, treating as delivered", "session", c.sessionID, "error", srvErr)
			return backoff.Permanent(srvErr)
		}
	}

	notify := func(err error, delay time.Duration) {
		c.logger.Warn("flush: transport failure, retrying batch", "session", c.sessionID, "error", err, "delay", delay)
	}

	backoff.RetryNotify(operation, bo, notify)
	return ctx.Err() != nil
}
