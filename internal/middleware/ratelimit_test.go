// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantcms/internal/respond"
)

// fakeClock is a manually advanced time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterTake(t *testing.T) {
	rl, clock := newTestLimiter(3, time.Minute)

	for i := range 3 {
		ok, _ := rl.take("10.0.0.1")
		require.True(t, ok, "request %d", i+1)
		clock.advance(10 * time.Second)
	}

	ok, wait := rl.take("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 30*time.Second, wait, "first hit leaves the window 30s from now")

	ok, _ = rl.take("10.0.0.2")
	assert.True(t, ok, "other clients have their own window")
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)

	rl.take("c")
	clock.advance(40 * time.Second)
	rl.take("c")

	ok, _ := rl.take("c")
	require.False(t, ok)

	// The first hit expires; the second still counts.
	clock.advance(21 * time.Second)
	ok, _ = rl.take("c")
	assert.True(t, ok)
	ok, _ = rl.take("c")
	assert.False(t, ok)
}

func TestRateLimiterRejectionsDoNotExtendWindow(t *testing.T) {
	rl, clock := newTestLimiter(1, time.Minute)

	rl.take("c")
	for range 5 {
		clock.advance(10 * time.Second)
		ok, _ := rl.take("c")
		require.False(t, ok)
	}
	clock.advance(11 * time.Second)
	ok, _ := rl.take("c")
	assert.True(t, ok)
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	rl, clock := newTestLimiter(5, time.Minute)

	rl.take("idle")
	clock.advance(30 * time.Second)
	rl.take("active")
	clock.advance(45 * time.Second)

	// The next take is past the sweep deadline, so "idle" is forgotten.
	rl.take("new")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.hits, "idle")
	assert.Contains(t, rl.hits, "active")
	assert.Contains(t, rl.hits, "new")
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusNoContent, send().Code)
	clock.advance(15 * time.Second)
	require.Equal(t, http.StatusNoContent, send().Code)
	clock.advance(500 * time.Millisecond)

	rr := send()
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "45", rr.Header().Get("Retry-After"), "rounded up to whole seconds")
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var env respond.Envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.False(t, env.Success)
	assert.Equal(t, "Too many requests. Try again later.", env.Message)
	assert.Equal(t, map[string]any{"retry_after": 45.0}, env.Details)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{name: "forwarded single", xff: "10.0.0.1", remoteAddr: "192.168.1.1:1234", want: "10.0.0.1"},
		{name: "forwarded chain uses leftmost", xff: "10.0.0.1, 172.16.0.1", remoteAddr: "192.168.1.1:1234", want: "10.0.0.1"},
		{name: "real ip", xri: " 10.0.0.2 ", remoteAddr: "192.168.1.1:1234", want: "10.0.0.2"},
		{name: "remote addr", remoteAddr: "192.168.1.1:1234", want: "192.168.1.1"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "remote addr without port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
