package rollgate

import (
	"context"
	"time"
)

// pollLoop is the polling worker's sleep-check-act state machine: it
// sleeps for the configured interval, then only does work when
// streaming is disabled and background updating is allowed and the
// client is neither offline nor dead.
func (c *Client) pollLoop() {
	defer c.wg.Done()
	for {
		cfg := c.snapshotConfig()
		if c.waitOrStop(cfg.PollingInterval) {
			return
		}

		cfg, user, skip := c.pollPreconditions()
		if skip {
			continue
		}
		c.doPollTurn(cfg, user)
	}
}

func (c *Client) pollPreconditions() (cfg Config, user *User, skip bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg = c.config
	user = c.user
	// background-polling-interval-ms is parsed and validated on Config
	// but never consulted here: there is no OS-level foreground/
	// background lifecycle signal in this environment to switch on.
	skip = cfg.Streaming || cfg.DisableBackgroundUpdating || c.offline || c.dead
	return cfg, user, skip
}

func (c *Client) doPollTurn(cfg Config, user *User) {
	req, err := buildEvalRequest(context.Background(), cfg, user)
	if err != nil {
		c.logger.Error("poll: failed building request", "session", c.sessionID, "error", err)
		return
	}

	_, span := startRequestSpan(req.Context(), "poll", req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	dur := time.Since(start).Seconds()
	if err != nil {
		classified := ClassifyError(err)
		endRequestSpan(span, 0, classified)
		c.metrics.observeRequest("poll", "transport_error", dur)
		c.logger.Warn("poll: request failed, using cached fallback and retrying next tick", "session", c.sessionID, "retryable", IsRetryable(classified), "error", classified)
		c.loadFromCache()
		return
	}
	defer resp.Body.Close()

	outcome := c.applyEvalResponse(resp)
	endRequestSpan(span, resp.StatusCode, nil)
	c.metrics.observeRequest("poll", outcome, dur)
}
