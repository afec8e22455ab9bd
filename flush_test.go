package rollgate

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlush_SuccessResetsAndReturns(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, DefaultConfig("k"))
	c.config.EventsURI = server.URL

	stopped := c.flushBatch([]byte(`[{"kind":"feature"}]`))
	assert.False(t, stopped)
	assert.Contains(t, string(gotBody), "feature")
}

func TestFlush_AuthFatalLatchesDeadAndDiscards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := newTestClient(t, DefaultConfig("k"))
	c.config.EventsURI = server.URL

	stopped := c.flushBatch([]byte(`[{"kind":"feature"}]`))
	assert.False(t, stopped)
	assert.True(t, c.IsDead())
}

func TestFlush_OtherStatusTreatedAsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	c := newTestClient(t, DefaultConfig("k"))
	c.config.EventsURI = server.URL

	stopped := c.flushBatch([]byte(`[{"kind":"feature"}]`))
	assert.False(t, stopped)
	assert.False(t, c.IsDead())
}

func TestFlush_SkipsWhenOffline(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c := newTestClient(t, DefaultConfig("k"))
	c.config.EventsURI = server.URL
	c.offline = true

	stopped := c.flushBatch([]byte(`[{"kind":"feature"}]`))
	assert.False(t, stopped)
	assert.False(t, called)
}
