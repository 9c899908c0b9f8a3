// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantcms/internal/apperr"
	"tenantcms/internal/models"
	"tenantcms/internal/store"
)

func TestTermServiceCreateSuffixesTakenSlug(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	svc := NewTermService(db, models.TermCategory, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, tenant.ID, TermInput{Name: "Tech News"})
	require.NoError(t, err)
	assert.Equal(t, "tech-news", first.Slug)

	second, err := svc.Create(ctx, tenant.ID, TermInput{Name: "Tech News"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Regexp(t, `^tech-news-\d+$`, second.Slug)

	_, err = svc.Create(ctx, tenant.ID, TermInput{Name: "  "})
	requireKind(t, err, apperr.KindValidation)

	_, err = svc.Create(ctx, tenant.ID, TermInput{Name: "Bad", Slug: "Not A Slug"})
	requireKind(t, err, apperr.KindValidation)
}

func TestTermServiceUpdate(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	svc := NewTermService(db, models.TermTag, nil)
	ctx := context.Background()

	golang, err := svc.Create(ctx, tenant.ID, TermInput{Name: "Golang"})
	require.NoError(t, err)
	rust, err := svc.Create(ctx, tenant.ID, TermInput{Name: "Rust"})
	require.NoError(t, err)

	t.Run("rename regenerates slug", func(t *testing.T) {
		name := "Go Language"
		got, err := svc.Update(ctx, tenant.ID, golang.ID, TermPatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "go-language", got.Slug)
	})

	t.Run("explicit slug in use is a conflict", func(t *testing.T) {
		taken := rust.Slug
		_, err := svc.Update(ctx, tenant.ID, golang.ID, TermPatch{Slug: &taken})
		requireKind(t, err, apperr.KindConflict)
	})

	t.Run("explicit free slug is kept", func(t *testing.T) {
		s := "golang"
		got, err := svc.Update(ctx, tenant.ID, golang.ID, TermPatch{Slug: &s})
		require.NoError(t, err)
		assert.Equal(t, "golang", got.Slug)
	})

	t.Run("unknown term", func(t *testing.T) {
		name := "x"
		_, err := svc.Update(ctx, tenant.ID, uuid.New(), TermPatch{Name: &name})
		requireKind(t, err, apperr.KindNotFound)
	})
}

func TestTermServiceDeleteRefusesLinkedTerm(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	svc := NewTermService(db, models.TermCategory, nil)
	posts := NewPostService(db, nil, "")
	ctx := context.Background()

	used, err := svc.Create(ctx, tenant.ID, TermInput{Name: "Used"})
	require.NoError(t, err)
	free, err := svc.Create(ctx, tenant.ID, TermInput{Name: "Free"})
	require.NoError(t, err)

	_, err = posts.Create(ctx, tenant.ID, uuid.Nil, PostInput{Title: "Linked", CategoryIDs: []string{used.ID.String()}})
	require.NoError(t, err)

	appErr := requireKind(t, err2(svc.Delete(ctx, tenant.ID, used.ID)), apperr.KindConflict)
	usage, ok := appErr.Details.(TermUsage)
	require.True(t, ok)
	assert.Equal(t, 1, usage.PostCount)

	res, err := svc.Delete(ctx, tenant.ID, free.ID)
	require.NoError(t, err)
	assert.Equal(t, free.ID, res.ID)

	_, err = svc.Get(ctx, tenant.ID, free.ID)
	requireKind(t, err, apperr.KindNotFound)
}

func TestTermServiceBulkDeleteIsAllOrNothing(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	svc := NewTermService(db, models.TermTag, nil)
	posts := NewPostService(db, nil, "")
	ctx := context.Background()

	a, err := svc.Create(ctx, tenant.ID, TermInput{Name: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, tenant.ID, TermInput{Name: "B"})
	require.NoError(t, err)
	_, err = posts.Create(ctx, tenant.ID, uuid.Nil, PostInput{Title: "Tagged", TagIDs: []string{b.ID.String()}})
	require.NoError(t, err)

	_, err = svc.BulkDelete(ctx, tenant.ID, []uuid.UUID{a.ID, b.ID})
	requireKind(t, err, apperr.KindConflict)
	_, err = svc.Get(ctx, tenant.ID, a.ID)
	require.NoError(t, err, "nothing may be deleted when one term is blocked")

	_, err = svc.BulkDelete(ctx, tenant.ID, []uuid.UUID{a.ID, uuid.New()})
	requireKind(t, err, apperr.KindNotFound)

	_, err = svc.BulkDelete(ctx, tenant.ID, nil)
	requireKind(t, err, apperr.KindValidation)

	res, err := svc.BulkDelete(ctx, tenant.ID, []uuid.UUID{a.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, res.DeletedCount)
}

func TestTermServiceDeleteRemovesSEO(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	svc := NewTermService(db, models.TermCategory, nil)
	seo := store.NewSEOStore(db)
	ctx := context.Background()

	term, err := svc.Create(ctx, tenant.ID, TermInput{Name: "With SEO"})
	require.NoError(t, err)
	title := "SEO title"
	_, err = seo.Create(ctx, &models.SEO{TenantID: tenant.ID, EntityType: models.SEOEntityCategory, EntityID: term.ID, MetaTitle: &title})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, tenant.ID, term.ID)
	require.NoError(t, err)

	row, err := seo.FindForEntity(ctx, tenant.ID, models.SEOEntityCategory, term.ID)
	require.NoError(t, err)
	assert.Nil(t, row)
}

// err2 drops the value of a (value, error) pair.
func err2[T any](_ T, err error) error { return err }
