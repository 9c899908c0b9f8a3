// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package service implements the tenant-scoped content operations: the
// category/tag and media CRUD services and the transactional post
// composition workflow. Services return *apperr.Error values for every
// client-visible failure and shape results into the JSON views in view.go.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tenantcms/internal/apperr"
	"tenantcms/internal/models"
	"tenantcms/internal/observability/metrics"
	"tenantcms/internal/observability/tracing"
	"tenantcms/internal/slug"
	"tenantcms/internal/store"
)

// BlobStore is the object storage the media service writes file bytes to.
// *storage.Client satisfies it.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
}

// Page is one page of list results.
type Page[T any] struct {
	Items      []T               `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// DeleteResult is returned by single-entity deletes.
type DeleteResult struct {
	ID uuid.UUID `json:"id"`
}

// BulkDeleteResult is returned by all-or-nothing bulk deletes.
type BulkDeleteResult struct {
	DeletedCount int         `json:"deletedCount"`
	DeletedIDs   []uuid.UUID `json:"deletedIds"`
}

// maxSlugInserts bounds how often an insert is retried after losing a slug
// race to a concurrent writer.
const maxSlugInserts = 5

// insertWithSlug allocates a free slug and runs insert with it. When the
// insert hits the unique index (another request took the slug between probe
// and insert) a fresh slug is allocated and the insert retried. Inside a
// transaction each attempt runs behind a savepoint so a failed attempt does
// not abort the transaction.
func insertWithSlug(ctx context.Context, exec store.DBTX, entity string, alloc slug.Allocator,
	base, fallback string, exists slug.ExistsFunc, insert func(candidate string) error) (string, error) {
	for attempt := 1; ; attempt++ {
		candidate, err := alloc.Allocate(ctx, base, fallback, exists)
		if err != nil {
			return "", err
		}

		err = store.WithSavepoint(ctx, exec, "slug_insert", func() error {
			return insert(candidate)
		})
		if err == nil {
			return candidate, nil
		}
		if !apperr.IsUniqueViolation(err) || attempt >= maxSlugInserts {
			return "", err
		}

		metrics.ObserveSlugRetry(entity)
		slog.Warn("slug taken concurrently, retrying", "entity", entity, "slug", candidate, "attempt", attempt)
	}
}

// slugError translates allocator failures into application errors.
func slugError(kind string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, slug.ErrExhausted):
		return apperr.Conflict("Could not allocate a unique slug for this %s.", kind)
	default:
		return err
	}
}

// startSpan opens a span for a service operation tagged with the tenant.
func startSpan(ctx context.Context, name string, tenantID uuid.UUID) (context.Context, trace.Span) {
	return tracing.Tracer().Start(ctx, name,
		trace.WithAttributes(attribute.String("tenant.id", tenantID.String())))
}

// endSpan records *errp on the span and ends it. Use with a named error
// return: defer endSpan(span, &err).
func endSpan(span trace.Span, errp *error) {
	if errp != nil && *errp != nil {
		span.RecordError(*errp)
		span.SetStatus(codes.Error, (*errp).Error())
	}
	span.End()
}

// requireText trims s and checks it is present and at most max characters.
func requireText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("%s is required.", field)
	}
	return s, maxLength(field, s, max)
}

// maxLength checks s is at most max characters.
func maxLength(field, s string, max int) error {
	if utf8.RuneCountInString(s) > max {
		return apperr.Validation("%s must be at most %d characters.", field, max)
	}
	return nil
}

// checkSlug validates an explicit slug.
func checkSlug(s string) error {
	if err := slug.Validate(s); err != nil {
		return apperr.Validation("Invalid slug %q: %s.", s, err.Error())
	}
	return nil
}

// activeTenant fails with Forbidden unless the tenant exists and is active.
func activeTenant(ctx context.Context, tenants *store.TenantStore, tenantID uuid.UUID) error {
	t, err := tenants.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if t == nil || !t.IsActive {
		return apperr.Forbidden("Tenant is inactive or does not exist.")
	}
	return nil
}

// dedupeUUIDs returns ids without duplicates, keeping first-seen order.
func dedupeUUIDs(ids []uuid.UUID) []uuid.UUID {
	return store.CollectIDs(ids, func(id uuid.UUID) (uuid.UUID, bool) { return id, id != uuid.Nil })
}

// parseUUIDs parses raw public ids, failing on the first malformed one.
func parseUUIDs(field string, raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(strings.TrimSpace(r))
		if err != nil {
			return nil, apperr.Validation("Invalid %s %q.", field, r)
		}
		out = append(out, id)
	}
	return dedupeUUIDs(out), nil
}
