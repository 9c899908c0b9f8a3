// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package respond writes the JSON envelope every API response uses:
// {success, message?, data?, error?, details?}.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"tenantcms/internal/apperr"
)

// Envelope is the body of every API response. Error carries internal error
// text and is only populated when the writer exposes errors.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes body as JSON with the given status code.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes a failed envelope with a client-safe message.
func Fail(w http.ResponseWriter, status int, message string, details any) {
	JSON(w, status, Envelope{Success: false, Message: message, Details: details})
}

// Writer maps errors to failed envelopes. When Expose is false (production)
// internal error text never reaches the client.
type Writer struct {
	Expose bool
}

// Error classifies err and writes the matching status and envelope.
// Unexpected failures are logged with the request method and path.
func (wr Writer) Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	status := appErr.Status()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", appErr.Kind.String(),
			"error", err,
		)
	}

	env := Envelope{Success: false, Message: appErr.Message, Details: appErr.Details}
	if wr.Expose && appErr.Err != nil {
		env.Error = appErr.Err.Error()
	}
	JSON(w, status, env)
}
