package rollgate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll_PreconditionsSkipWhenStreaming(t *testing.T) {
	c := newTestClient(t, DefaultConfig("k"))
	c.config.Streaming = true

	_, _, skip := c.pollPreconditions()
	assert.True(t, skip)
}

func TestPoll_PreconditionsSkipWhenDeadOrOffline(t *testing.T) {
	c := newTestClient(t, DefaultConfig("k"))
	c.config.Streaming = false
	c.dead = true

	_, _, skip := c.pollPreconditions()
	assert.True(t, skip)

	c.dead = false
	c.offline = true
	_, _, skip = c.pollPreconditions()
	assert.True(t, skip)
}

func TestPoll_ApplyEvalResponse_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"a":{"value":true}}`))
	}))
	defer server.Close()

	c := newTestClient(t, DefaultConfig("k"))
	c.config.AppURI = server.URL
	c.config.Streaming = false

	cfg, user, skip := c.pollPreconditions()
	assert.False(t, skip)
	c.doPollTurn(cfg, user)

	v, ok := c.store.Lookup("a")
	assert.True(t, ok)
	b, _ := v.AsBool()
	assert.True(t, b)
	assert.True(t, c.IsInitialized())
}

func TestPoll_AuthFatalLatchesDead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(t, DefaultConfig("k"))
	c.config.AppURI = server.URL

	c.doPollTurn(c.config, c.user)
	assert.True(t, c.IsDead())
}

func TestPoll_TransportFailureDoesNotLatchDead(t *testing.T) {
	c := newTestClient(t, DefaultConfig("k"))
	c.config.AppURI = "http://127.0.0.1:0"

	c.doPollTurn(c.config, c.user)
	assert.False(t, c.IsDead())
}

func TestPoll_TransportFailureFallsBackToCache(t *testing.T) {
	c := newTestClient(t, DefaultConfig("k"))
	c.cache.Set(map[string]FlagValue{"cached": BoolValue(true)})
	c.config.AppURI = "http://127.0.0.1:0"

	c.doPollTurn(c.config, c.user)

	v, ok := c.store.Lookup("cached")
	require.True(t, ok)
	b, _ := v.AsBool()
	assert.True(t, b)
	assert.True(t, c.IsInitialized())
}
