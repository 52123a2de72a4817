package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(limit int) (*Limiter, *clock) {
	c := &clock{t: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
	return NewLimiter(Config{RequestsPerMinute: limit}).WithClock(c.now), c
}

func TestAllow(t *testing.T) {
	rl, c := newTestLimiter(2)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "clients are counted separately")

	c.t = c.t.Add(30 * time.Second)
	assert.False(t, rl.Allow("a"), "window is fixed from the first request")

	c.t = c.t.Add(30 * time.Second)
	assert.True(t, rl.Allow("a"))

	assert.Equal(t, Metrics{TotalHits: 2, ClientCount: 2}, rl.GetMetrics())
}

func TestDefaults(t *testing.T) {
	rl := NewLimiter(Config{})
	for i := 0; i < 60; i++ {
		assert.True(t, rl.Allow("a"))
	}
	assert.False(t, rl.Allow("a"))
}

func TestCleanup(t *testing.T) {
	rl, c := newTestLimiter(5)
	rl.Allow("old")
	c.t = c.t.Add(9 * time.Minute)
	rl.Allow("new")
	c.t = c.t.Add(2 * time.Minute)

	assert.Equal(t, 1, rl.CleanExpired())
	assert.Equal(t, int64(1), rl.GetMetrics().ClientCount)
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(1)
	onlyPost := func(r *http.Request) bool { return r.Method == http.MethodPost }
	key := func(r *http.Request) string { return r.RemoteAddr }
	h := rl.Middleware(key, onlyPost, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(method string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/", nil))
		return rec
	}

	assert.Equal(t, http.StatusNoContent, serve(http.MethodPost).Code)
	rec := serve(http.MethodPost)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusNoContent, serve(http.MethodGet).Code)
}
