// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"tenantcms/internal/apperr"
	"tenantcms/internal/cache"
	"tenantcms/internal/models"
	"tenantcms/internal/slug"
	"tenantcms/internal/store"
)

// Field limits for categories and tags.
const (
	maxTermName        = 255
	maxTermDescription = 1000
)

// usageWorkers caps concurrent usage-count queries during bulk deletes.
const usageWorkers = 8

// TermInput is the body of a category/tag create request.
type TermInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// TermPatch is a sparse category/tag update; nil fields are left alone.
type TermPatch struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

// TermUsage explains why a term cannot be deleted.
type TermUsage struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	PostCount int       `json:"postCount"`
}

// TermService implements CRUD for one taxonomy (categories or tags).
type TermService struct {
	db    *sqlx.DB
	terms *store.TermStore
	seo   *store.SEOStore
	cache *cache.PostCache
	kind  models.TermKind
}

// NewTermService creates a service for the given taxonomy. postCache may
// be nil.
func NewTermService(db *sqlx.DB, kind models.TermKind, postCache *cache.PostCache) *TermService {
	return &TermService{
		db:    db,
		terms: store.NewTermStore(db, kind),
		seo:   store.NewSEOStore(db),
		cache: postCache,
		kind:  kind,
	}
}

// Kind returns the taxonomy the service manages.
func (s *TermService) Kind() models.TermKind { return s.kind }

// List returns one page of terms matching q.
func (s *TermService) List(ctx context.Context, tenantID uuid.UUID, q store.TermListQuery) (*Page[TermView], error) {
	items, total, err := s.terms.List(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	views := make([]TermView, 0, len(items))
	for i := range items {
		views = append(views, NewTermView(&items[i]))
	}
	return &Page[TermView]{
		Items:      views,
		Pagination: models.NewPagination(q.Page.Normalize(), total, len(views)),
	}, nil
}

// Get returns one term.
func (s *TermService) Get(ctx context.Context, tenantID, id uuid.UUID) (*TermView, error) {
	t, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	v := NewTermView(t)
	return &v, nil
}

func (s *TermService) find(ctx context.Context, tenantID, id uuid.UUID) (*models.Term, error) {
	t, err := s.terms.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFound("%s not found.", s.kind.Label())
	}
	return t, nil
}

// Create validates and inserts a term. A slug already in use, explicit or
// derived, is suffixed rather than rejected.
func (s *TermService) Create(ctx context.Context, tenantID uuid.UUID, in TermInput) (_ *TermView, err error) {
	ctx, span := startSpan(ctx, "TermService.Create", tenantID)
	defer endSpan(span, &err)

	name, err := requireText("Name", in.Name, maxTermName)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if err := maxLength("Description", description, maxTermDescription); err != nil {
		return nil, err
	}

	base := slug.Generate(name)
	if explicit := strings.TrimSpace(in.Slug); explicit != "" {
		if err := checkSlug(explicit); err != nil {
			return nil, err
		}
		base = explicit
	}

	var created *models.Term
	alloc := slug.Allocator{Strategy: slug.Quick}
	_, err = insertWithSlug(ctx, s.db, string(s.kind), alloc, base, string(s.kind), s.slugProbe(tenantID, nil),
		func(candidate string) error {
			t, err := s.terms.Create(ctx, &models.Term{
				TenantID:    tenantID,
				Name:        name,
				Slug:        candidate,
				Description: description,
			})
			if err != nil {
				return err
			}
			created = t
			return nil
		})
	if err != nil {
		return nil, slugError(string(s.kind), err)
	}

	slog.Info("term created", "kind", s.kind, "tenant_id", tenantID, "id", created.ID, "slug", created.Slug)
	v := NewTermView(created)
	return &v, nil
}

// Update applies a sparse change. An explicit slug that another term uses
// is rejected; renaming without a slug regenerates it.
func (s *TermService) Update(ctx context.Context, tenantID, id uuid.UUID, patch TermPatch) (_ *TermView, err error) {
	ctx, span := startSpan(ctx, "TermService.Update", tenantID)
	defer endSpan(span, &err)

	t, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	renamed := false
	if patch.Name != nil {
		name, err := requireText("Name", *patch.Name, maxTermName)
		if err != nil {
			return nil, err
		}
		renamed = name != t.Name
		t.Name = name
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if err := maxLength("Description", description, maxTermDescription); err != nil {
			return nil, err
		}
		t.Description = description
	}

	explicit := ""
	if patch.Slug != nil {
		explicit = strings.TrimSpace(*patch.Slug)
	}
	switch {
	case explicit != "":
		if err := checkSlug(explicit); err != nil {
			return nil, err
		}
		if explicit != t.Slug {
			taken, err := s.terms.SlugExists(ctx, tenantID, explicit, &t.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperr.Conflict("%s slug %q is already in use.", s.kind.Label(), explicit)
			}
			t.Slug = explicit
		}
	case renamed || patch.Slug != nil:
		alloc := slug.Allocator{Strategy: slug.Sequential}
		next, err := alloc.Allocate(ctx, slug.Generate(t.Name), string(s.kind), s.slugProbe(tenantID, &t.ID))
		if err != nil {
			return nil, slugError(string(s.kind), err)
		}
		t.Slug = next
	}

	if err := s.terms.Update(ctx, t); err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("%s slug %q is already in use.", s.kind.Label(), t.Slug)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("%s not found.", s.kind.Label())
		}
		return nil, err
	}
	s.cache.InvalidateTenant(ctx, tenantID)

	return s.Get(ctx, tenantID, id)
}

// Delete soft-deletes a term and removes its SEO row. A term still linked
// to posts is refused with the usage count in the error details.
func (s *TermService) Delete(ctx context.Context, tenantID, id uuid.UUID) (_ *DeleteResult, err error) {
	ctx, span := startSpan(ctx, "TermService.Delete", tenantID)
	defer endSpan(span, &err)

	t, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	count, err := s.terms.UsageCount(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.Conflict("Cannot delete %s %q: it is linked to %d posts.", strings.ToLower(s.kind.Label()), t.Name, count).
			WithDetails(TermUsage{ID: t.ID, Name: t.Name, PostCount: count})
	}

	if err := s.remove(ctx, tenantID, t.ID); err != nil {
		return nil, err
	}
	slog.Info("term deleted", "kind", s.kind, "tenant_id", tenantID, "id", t.ID)
	return &DeleteResult{ID: t.ID}, nil
}

// BulkDelete deletes every term in ids or none of them. Usage counts are
// computed concurrently; if any term is linked to posts the full list of
// blocking terms is returned and nothing is deleted.
func (s *TermService) BulkDelete(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (_ *BulkDeleteResult, err error) {
	ctx, span := startSpan(ctx, "TermService.BulkDelete", tenantID)
	defer endSpan(span, &err)

	ids = dedupeUUIDs(ids)
	if len(ids) == 0 {
		return nil, apperr.Validation("ids must contain at least one id.")
	}

	terms, err := s.terms.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	if len(terms) != len(ids) {
		found := store.IndexBy(terms, func(t models.Term) uuid.UUID { return t.ID })
		var missing []uuid.UUID
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, apperr.NotFound("%d of %d %s not found.", len(missing), len(ids), s.plural()).
			WithDetails(map[string]any{"missingIds": missing})
	}

	counts := make([]int, len(terms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(usageWorkers)
	for i := range terms {
		g.Go(func() error {
			n, err := s.terms.UsageCount(gctx, terms[i].ID)
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var blocked []TermUsage
	for i, t := range terms {
		if counts[i] > 0 {
			blocked = append(blocked, TermUsage{ID: t.ID, Name: t.Name, PostCount: counts[i]})
		}
	}
	if len(blocked) > 0 {
		return nil, apperr.Conflict("%d of %d %s are linked to posts; nothing was deleted.", len(blocked), len(terms), s.plural()).
			WithDetails(map[string]any{"blocked": blocked})
	}

	if err := s.remove(ctx, tenantID, ids...); err != nil {
		return nil, err
	}
	slog.Info("terms bulk deleted", "kind", s.kind, "tenant_id", tenantID, "count", len(ids))
	return &BulkDeleteResult{DeletedCount: len(ids), DeletedIDs: ids}, nil
}

// remove soft-deletes terms and their SEO rows in one transaction.
func (s *TermService) remove(ctx context.Context, tenantID uuid.UUID, ids ...uuid.UUID) error {
	err := store.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.terms.WithTx(tx).SoftDelete(ctx, tenantID, ids...); err != nil {
			return err
		}
		_, err := s.seo.WithTx(tx).DeleteForEntities(ctx, tenantID, string(s.kind), ids...)
		return err
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateTenant(ctx, tenantID)
	return nil
}

func (s *TermService) slugProbe(tenantID uuid.UUID, excludeID *uuid.UUID) slug.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return s.terms.SlugExists(ctx, tenantID, candidate, excludeID)
	}
}

func (s *TermService) plural() string {
	if s.kind == models.TermCategory {
		return "categories"
	}
	return "tags"
}
