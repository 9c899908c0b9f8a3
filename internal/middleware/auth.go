// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"tenantcms/internal/auth"
	"tenantcms/internal/respond"
)

// RequireTenant validates the bearer token and stores the caller's
// auth.Identity in the request context. Downstream handlers read it with
// auth.FromContext. A missing or invalid token is rejected with 401; a
// valid token that names no tenant is rejected with 400.
func RequireTenant(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respond.Fail(w, http.StatusUnauthorized, "Authentication required.", nil)
				return
			}

			token, err := auth.ExtractToken(header)
			if err != nil {
				respond.Fail(w, http.StatusUnauthorized, "Invalid authorization header.", nil)
				return
			}

			id, err := tm.Validate(token)
			if errors.Is(err, auth.ErrNoTenant) {
				respond.Fail(w, http.StatusBadRequest, "No tenant associated with this account.", nil)
				return
			}
			if err != nil {
				slog.Debug("token rejected", "error", err, "path", r.URL.Path)
				respond.Fail(w, http.StatusUnauthorized, "Invalid or expired token.", nil)
				return
			}

			noteIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}
