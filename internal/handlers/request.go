// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers exposes the content services as JSON endpoints. Every
// handler reads the caller's tenant from the request context, delegates to
// a service and writes the respond envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tenantcms/internal/apperr"
	"tenantcms/internal/auth"
	"tenantcms/internal/models"
	"tenantcms/internal/respond"
)

// maxBodySize caps JSON request bodies (1 MB).
const maxBodySize = 1 << 20

// maxBulkIDs caps the id list of a bulk request body.
const maxBulkIDs = 500

// bulkRequest is the body of every bulk-delete endpoint.
type bulkRequest struct {
	IDs []string `json:"ids"`
}

// identity returns the caller set by middleware.RequireTenant, writing 401
// when the route was mounted without it.
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "Authentication required.", nil)
	}
	return id, ok
}

// decodeJSON reads a JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	err := json.NewDecoder(r.Body).Decode(dst)
	var maxErr *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return apperr.Validation("Request body is required.")
	case errors.As(err, &maxErr):
		return apperr.Validation("Request body is too large.")
	default:
		return apperr.Validation("Invalid JSON body.")
	}
}

// bulkIDs decodes a bulk request and parses its UUIDs.
func bulkIDs(w http.ResponseWriter, r *http.Request) ([]uuid.UUID, error) {
	var body bulkRequest
	if err := decodeJSON(w, r, &body); err != nil {
		return nil, err
	}
	if len(body.IDs) == 0 {
		return nil, apperr.Validation("ids must contain at least one id.")
	}
	if len(body.IDs) > maxBulkIDs {
		return nil, apperr.Validation("ids must contain at most %d ids.", maxBulkIDs)
	}
	ids := make([]uuid.UUID, 0, len(body.IDs))
	for _, raw := range body.IDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, apperr.Validation("Invalid id %q.", raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// uuidParam parses a UUID path parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid id %q.", raw)
	}
	return id, nil
}

// identifierParam parses a path parameter holding an internal id or UUID.
func identifierParam(r *http.Request, name string) (models.Identifier, error) {
	raw := chi.URLParam(r, name)
	id, err := models.ParseIdentifier(raw)
	if err != nil {
		return models.Identifier{}, apperr.Validation("Invalid id %q.", raw)
	}
	return id, nil
}

// pageRequest reads page and limit. An absent limit means the default page
// size; limit <= 0 asks for every row.
func pageRequest(r *http.Request) (models.PageRequest, error) {
	q := r.URL.Query()
	req := models.PageRequest{Page: models.DefaultPage, Limit: models.DefaultLimit}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, apperr.Validation("Invalid page %q.", raw)
		}
		req.Page = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, apperr.Validation("Invalid limit %q.", raw)
		}
		req.Limit = n
	}
	return req.Normalize(), nil
}

// sortOrder reads sort and order; order must be asc or desc when present.
func sortOrder(r *http.Request) (string, string, error) {
	q := r.URL.Query()
	order := strings.ToLower(q.Get("order"))
	if order != "" && order != "asc" && order != "desc" {
		return "", "", apperr.Validation("Invalid order %q.", q.Get("order"))
	}
	return q.Get("sort"), order, nil
}

// timeParam parses an RFC 3339 timestamp or a YYYY-MM-DD date. A date used
// as an upper bound covers the whole day.
func timeParam(r *http.Request, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, apperr.Validation("Invalid %s %q: use YYYY-MM-DD or RFC 3339.", name, raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
