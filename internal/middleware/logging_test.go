// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantcms/internal/auth"
)

// captureLogger returns a JSON logger and a func that decodes every line it
// has written so far.
func captureLogger(t *testing.T) (*slog.Logger, func() []map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() []map[string]any {
		var lines []map[string]any
		dec := json.NewDecoder(bytes.NewReader(buf.Bytes()))
		for dec.More() {
			var line map[string]any
			require.NoError(t, dec.Decode(&line))
			lines = append(lines, line)
		}
		return lines
	}
}

func TestAccessLogRecordsTenantAndRoute(t *testing.T) {
	logger, lines := captureLogger(t)
	tm := newTokenManager()
	id := auth.Identity{TenantID: uuid.New(), UserID: uuid.New()}
	token, _, err := tm.Generate(id, "editor@example.com")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(AccessLog(logger))
	r.With(RequireTenant(tm)).Get("/api/posts/{lookup}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("post"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/posts/hello-world", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(httptest.NewRecorder(), req)

	got := lines()
	require.Len(t, got, 1)
	line := got[0]
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "http request", line["msg"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/api/posts/hello-world", line["path"])
	assert.Equal(t, "/api/posts/{lookup}", line["route"])
	assert.Equal(t, 200.0, line["status"])
	assert.Equal(t, 4.0, line["bytes"])
	assert.Equal(t, id.TenantID.String(), line["tenant_id"])
	assert.Equal(t, id.UserID.String(), line["user_id"])
}

func TestAccessLogAnonymousRejection(t *testing.T) {
	logger, lines := captureLogger(t)

	r := chi.NewRouter()
	r.Use(AccessLog(logger))
	r.With(RequireTenant(newTokenManager())).Get("/api/media", func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a token")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/media", nil))

	got := lines()
	require.Len(t, got, 1)
	assert.Equal(t, "WARN", got[0]["level"])
	assert.Equal(t, 401.0, got[0]["status"])
	assert.NotContains(t, got[0], "tenant_id")
	assert.NotContains(t, got[0], "user_id")
}

func TestAccessLogLevels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"created", http.StatusCreated, "INFO"},
		{"not found", http.StatusNotFound, "WARN"},
		{"conflict", http.StatusConflict, "WARN"},
		{"server error", http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, lines := captureLogger(t)
			h := AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.WriteHeader(http.StatusOK)
			}))

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/x", nil))

			got := lines()
			require.Len(t, got, 1)
			assert.Equal(t, tt.level, got[0]["level"])
			assert.Equal(t, float64(tt.status), got[0]["status"], "first status wins")
			assert.Equal(t, "-", got[0]["route"], "no chi router in front")
		})
	}
}

func TestAccessLogImplicitOK(t *testing.T) {
	logger, lines := captureLogger(t)
	h := AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	got := lines()
	require.Len(t, got, 1)
	assert.Equal(t, 200.0, got[0]["status"])
	assert.Equal(t, 0.0, got[0]["bytes"])
	assert.Equal(t, "203.0.113.9", got[0]["remote"])
}
