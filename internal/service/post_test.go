// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantcms/internal/apperr"
	"tenantcms/internal/models"
	"tenantcms/internal/store"
)

func ptr[T any](v T) *T { return &v }

func newTestPostService(t *testing.T, now time.Time) (*PostService, *models.Tenant, *models.User) {
	t.Helper()
	db := testDB(t)
	tenant := testTenant(t, db)
	user := testUser(t, db, tenant.ID, "secret-pass")
	svc := NewPostService(db, nil, "News")
	svc.now = func() time.Time { return now }
	return svc, tenant, user
}

func TestPostServiceCreateComposesPost(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, tenant, user := newTestPostService(t, now)
	ctx := context.Background()

	v, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{
		Title:      "Hello World",
		Content:    "Some **content**.",
		Status:     "published",
		Categories: []string{"Tech", "tech", "Go"},
		Tags:       []string{"intro"},
		SEO:        &SEOInput{MetaTitle: ptr("Meta Hello"), MetaDescription: ptr("A greeting.")},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello-world", v.Slug)
	assert.Equal(t, models.PostStatusPublished, v.Status)
	require.NotNil(t, v.PublishedAt)
	assert.True(t, v.PublishedAt.Equal(now))
	assert.True(t, v.IsIndexable)
	assert.Contains(t, v.ContentHTML, "<strong>content</strong>")
	require.NotNil(t, v.Author)
	assert.Equal(t, user.ID, v.Author.ID)
	assert.Len(t, v.Categories, 2, "names are matched case-insensitively")
	assert.Len(t, v.Tags, 1)

	require.NotNil(t, v.SEO)
	assert.Equal(t, "Meta Hello", *v.SEO.MetaTitle)
	require.NotNil(t, v.SEO.OGTitle, "og title falls back to the meta title")
	assert.Equal(t, "Meta Hello", *v.SEO.OGTitle)
	require.NotNil(t, v.SEO.TwitterDescription)
	assert.Equal(t, "A greeting.", *v.SEO.TwitterDescription)

	again, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "Hello World"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-1", again.Slug)
	assert.Equal(t, models.PostStatusDraft, again.Status)
	assert.Nil(t, again.PublishedAt)
	assert.Nil(t, again.SEO)
}

func TestPostServiceCreateReusesExistingTerms(t *testing.T) {
	svc, tenant, user := newTestPostService(t, time.Now())
	terms := NewTermService(svc.db, models.TermCategory, nil)
	ctx := context.Background()

	existing, err := terms.Create(ctx, tenant.ID, TermInput{Name: "Tech"})
	require.NoError(t, err)

	v, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{
		Title:       "Names win",
		Categories:  []string{"TECH"},
		CategoryIDs: []string{uuid.NewString()},
	})
	require.NoError(t, err)
	require.Len(t, v.Categories, 1)
	assert.Equal(t, existing.ID, v.Categories[0].ID)
}

func TestPostServiceCreateRollsBackOnInvalidTerm(t *testing.T) {
	svc, tenant, user := newTestPostService(t, time.Now())
	ctx := context.Background()

	_, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{
		Title:      "Never stored",
		Categories: []string{"fresh-category"},
		TagIDs:     []string{uuid.NewString()},
	})
	requireKind(t, err, apperr.KindValidation)

	page, err := svc.List(ctx, tenant.ID, PostFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	category, err := store.NewTermStore(svc.db, models.TermCategory).FindByName(ctx, tenant.ID, "fresh-category")
	require.NoError(t, err)
	assert.Nil(t, category, "terms created before the failure are rolled back")
}

func TestPostServiceCreateValidation(t *testing.T) {
	svc, tenant, user := newTestPostService(t, time.Now())
	ctx := context.Background()

	tests := []struct {
		name string
		in   PostInput
	}{
		{"missing title", PostInput{Title: " "}},
		{"bad status", PostInput{Title: "x", Status: "live"}},
		{"long excerpt", PostInput{Title: "x", Excerpt: string(make([]rune, maxExcerpt+1))}},
		{"bad featured image", PostInput{Title: "x", FeaturedImageID: uuid.NewString()}},
		{"malformed featured image", PostInput{Title: "x", FeaturedImageID: "not-an-id"}},
		{"long focus keyword", PostInput{Title: "x", SEO: &SEOInput{FocusKeyword: ptr("one two three four five")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tenant.ID, user.ID, tt.in)
			requireKind(t, err, apperr.KindValidation)
		})
	}
}

func TestPostServiceCreateInactiveTenant(t *testing.T) {
	svc, tenant, user := newTestPostService(t, time.Now())
	ctx := context.Background()
	require.NoError(t, store.NewTenantStore(svc.db).SetActive(ctx, tenant.ID, false))

	_, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "Nope"})
	requireKind(t, err, apperr.KindForbidden)
}

func TestPostServiceEditPublishedAt(t *testing.T) {
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	explicit := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc, tenant, user := newTestPostService(t, now)
	ctx := context.Background()

	draft, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "Draft"})
	require.NoError(t, err)
	id := models.PublicID(draft.ID)

	v, err := svc.Edit(ctx, tenant.ID, id, PostPatch{PublishedAt: &explicit})
	require.NoError(t, err)
	assert.Nil(t, v.PublishedAt, "a lone publishedAt is ignored for unpublished posts")

	v, err = svc.Edit(ctx, tenant.ID, id, PostPatch{Status: ptr("published")})
	require.NoError(t, err)
	require.NotNil(t, v.PublishedAt)
	assert.True(t, v.PublishedAt.Equal(now))

	v, err = svc.Edit(ctx, tenant.ID, id, PostPatch{PublishedAt: &explicit})
	require.NoError(t, err)
	require.NotNil(t, v.PublishedAt)
	assert.True(t, v.PublishedAt.Equal(explicit))

	v, err = svc.Edit(ctx, tenant.ID, id, PostPatch{Status: ptr("draft")})
	require.NoError(t, err)
	assert.Nil(t, v.PublishedAt)

	v, err = svc.Edit(ctx, tenant.ID, id, PostPatch{Status: ptr("published"), PublishedAt: &explicit})
	require.NoError(t, err)
	require.NotNil(t, v.PublishedAt)
	assert.True(t, v.PublishedAt.Equal(explicit))
}

func TestPostServiceEditSlugAndAssociations(t *testing.T) {
	svc, tenant, user := newTestPostService(t, time.Now())
	ctx := context.Background()

	first, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "First", Tags: []string{"a", "b"}})
	require.NoError(t, err)
	second, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "Second"})
	require.NoError(t, err)
	id := models.PublicID(first.ID)

	t.Run("title change keeps slug", func(t *testing.T) {
		v, err := svc.Edit(ctx, tenant.ID, id, PostPatch{Title: ptr("First, renamed")})
		require.NoError(t, err)
		assert.Equal(t, "first", v.Slug)
		assert.Len(t, v.Tags, 2, "absent association fields are untouched")
	})

	t.Run("explicit slug collision", func(t *testing.T) {
		_, err := svc.Edit(ctx, tenant.ID, id, PostPatch{Slug: ptr(second.Slug)})
		requireKind(t, err, apperr.KindConflict)
	})

	t.Run("empty slug regenerates from title", func(t *testing.T) {
		v, err := svc.Edit(ctx, tenant.ID, id, PostPatch{Slug: ptr("")})
		require.NoError(t, err)
		assert.Equal(t, "first-renamed", v.Slug)
	})

	t.Run("empty list clears associations", func(t *testing.T) {
		before, err := svc.Get(ctx, tenant.ID, first.ID.String())
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)

		v, err := svc.Edit(ctx, tenant.ID, id, PostPatch{Tags: &[]string{}})
		require.NoError(t, err)
		assert.Empty(t, v.Tags)
		assert.True(t, v.UpdatedAt.After(before.UpdatedAt), "an association-only edit still touches updatedAt")
	})

	t.Run("long explicit slug is kept whole", func(t *testing.T) {
		long := strings.Repeat("abcdefghi-", 22) + "abcdefghij"
		v, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "Long slug", Slug: long})
		require.NoError(t, err)
		assert.Equal(t, long, v.Slug)
	})

	t.Run("unknown post", func(t *testing.T) {
		_, err := svc.Edit(ctx, tenant.ID, models.PublicID(uuid.New()), PostPatch{Title: ptr("x")})
		requireKind(t, err, apperr.KindNotFound)
	})
}

func TestPostServiceEditCreatesSEOLazily(t *testing.T) {
	svc, tenant, user := newTestPostService(t, time.Now())
	ctx := context.Background()

	p, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "No SEO yet"})
	require.NoError(t, err)
	require.Nil(t, p.SEO)
	id := models.PublicID(p.ID)

	v, err := svc.Edit(ctx, tenant.ID, id, PostPatch{SEO: &SEOInput{}})
	require.NoError(t, err)
	assert.Nil(t, v.SEO, "no row is created without values")

	v, err = svc.Edit(ctx, tenant.ID, id, PostPatch{SEO: &SEOInput{MetaDescription: ptr("Described.")}})
	require.NoError(t, err)
	require.NotNil(t, v.SEO)
	require.NotNil(t, v.SEO.OGDescription)
	assert.Equal(t, "Described.", *v.SEO.OGDescription)

	v, err = svc.Edit(ctx, tenant.ID, id, PostPatch{SEO: &SEOInput{FocusKeyword: ptr("go cms")}})
	require.NoError(t, err)
	require.NotNil(t, v.SEO)
	assert.Equal(t, "go cms", *v.SEO.FocusKeyword)
	assert.Equal(t, "Described.", *v.SEO.MetaDescription, "unspecified fields are kept")
}

func TestPostServiceDelete(t *testing.T) {
	svc, tenant, user := newTestPostService(t, time.Now())
	ctx := context.Background()

	p, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{
		Title:      "Doomed",
		Categories: []string{"One"},
		Tags:       []string{"x", "y"},
		SEO:        &SEOInput{MetaTitle: ptr("Doomed")},
	})
	require.NoError(t, err)

	res, err := svc.Delete(ctx, tenant.ID, models.PublicID(p.ID))
	require.NoError(t, err)
	assert.Equal(t, p.ID, res.Post.ID)
	assert.Equal(t, "doomed", res.Post.Slug)
	assert.Equal(t, DeletedCounts{SEO: 1, Categories: 1, Tags: 2}, res.Deleted)

	_, err = svc.Get(ctx, tenant.ID, p.ID.String())
	requireKind(t, err, apperr.KindNotFound)

	_, err = svc.Delete(ctx, tenant.ID, models.PublicID(p.ID))
	requireKind(t, err, apperr.KindNotFound)
}

func TestPostServiceBulkDelete(t *testing.T) {
	svc, tenant, user := newTestPostService(t, time.Now())
	ctx := context.Background()

	a, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "A", Tags: []string{"t"}})
	require.NoError(t, err)
	b, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "B"})
	require.NoError(t, err)

	_, err = svc.BulkDelete(ctx, tenant.ID, []uuid.UUID{a.ID, uuid.New()})
	requireKind(t, err, apperr.KindNotFound)

	tooMany := make([]uuid.UUID, maxBulkPosts+1)
	for i := range tooMany {
		tooMany[i] = uuid.New()
	}
	_, err = svc.BulkDelete(ctx, tenant.ID, tooMany)
	requireKind(t, err, apperr.KindValidation)

	res, err := svc.BulkDelete(ctx, tenant.ID, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, res.DeletedCount)
	assert.Equal(t, int64(1), res.Deleted.Tags)

	page, err := svc.List(ctx, tenant.ID, PostFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestPostServiceArchive(t *testing.T) {
	svc, tenant, user := newTestPostService(t, time.Now())
	ctx := context.Background()

	p, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "Live", Status: "published"})
	require.NoError(t, err)

	v, err := svc.Archive(ctx, tenant.ID, models.PublicID(p.ID))
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusArchived, v.Status)
	assert.Nil(t, v.PublishedAt)

	_, err = svc.Archive(ctx, tenant.ID, models.PublicID(uuid.New()))
	requireKind(t, err, apperr.KindNotFound)
}

func TestPostServiceListFilters(t *testing.T) {
	svc, tenant, user := newTestPostService(t, time.Now())
	ctx := context.Background()

	_, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "Go tips", Status: "published", Categories: []string{"Dev"}, Tags: []string{"go"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "Rust tips", Categories: []string{"Dev"}, Tags: []string{"rust"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "Cooking", Status: "published"})
	require.NoError(t, err)

	tests := []struct {
		name string
		f    PostFilter
		want int
	}{
		{"all", PostFilter{}, 3},
		{"published", PostFilter{Status: "published"}, 2},
		{"category slug", PostFilter{CategorySlug: "dev"}, 2},
		{"category and tag", PostFilter{CategorySlug: "dev", TagSlug: "go"}, 1},
		{"unknown tag", PostFilter{TagSlug: "missing"}, 0},
		{"search", PostFilter{Search: "tips"}, 2},
		{"author", PostFilter{AuthorID: user.ID.String()}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(ctx, tenant.ID, tt.f)
			require.NoError(t, err)
			assert.Len(t, page.Items, tt.want)
			assert.Equal(t, tt.want, page.Pagination.Total)
		})
	}

	_, err = svc.List(ctx, tenant.ID, PostFilter{Status: "bogus"})
	requireKind(t, err, apperr.KindValidation)

	paged, err := svc.List(ctx, tenant.ID, PostFilter{Page: models.PageRequest{Page: 2, Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, paged.Items, 1)
	assert.Equal(t, 2, paged.Pagination.Pages)
}

func TestPostServiceListByTerm(t *testing.T) {
	svc, tenant, user := newTestPostService(t, time.Now())
	ctx := context.Background()

	_, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{Title: "Tagged", Tags: []string{"Release Notes"}})
	require.NoError(t, err)

	page, err := svc.ListByTag(ctx, tenant.ID, "release-notes", PostFilter{})
	require.NoError(t, err)
	require.NotNil(t, page.Tag)
	assert.Equal(t, "Release Notes", page.Tag.Name)
	assert.Nil(t, page.Category)
	assert.Len(t, page.Items, 1)

	_, err = svc.ListByCategory(ctx, tenant.ID, "missing", PostFilter{})
	requireKind(t, err, apperr.KindNotFound)
}

func TestPostServiceGetNavigation(t *testing.T) {
	svc, tenant, user := newTestPostService(t, time.Now())
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	publish := func(title string, at time.Time, categories ...string) *PostView {
		t.Helper()
		v, err := svc.Create(ctx, tenant.ID, user.ID, PostInput{
			Title: title, Status: "published", PublishedAt: &at, Categories: categories,
		})
		require.NoError(t, err)
		return v
	}
	oldest := publish("Oldest", base)
	publish("News item", base.Add(24*time.Hour), "News")
	middle := publish("Middle", base.Add(48*time.Hour))
	newest := publish("Newest", base.Add(72*time.Hour))

	t.Run("older post skips excluded category", func(t *testing.T) {
		d, err := svc.Get(ctx, tenant.ID, middle.Slug)
		require.NoError(t, err)
		require.NotNil(t, d.NextSlug)
		assert.Equal(t, oldest.Slug, *d.NextSlug)
		assert.Equal(t, oldest.ID, *d.NextID)
	})

	t.Run("oldest wraps to newest", func(t *testing.T) {
		d, err := svc.Get(ctx, tenant.ID, oldest.ID.String())
		require.NoError(t, err)
		require.NotNil(t, d.NextSlug)
		assert.Equal(t, newest.Slug, *d.NextSlug)
	})

	t.Run("lookup by slug", func(t *testing.T) {
		d, err := svc.Get(ctx, tenant.ID, newest.Slug)
		require.NoError(t, err)
		assert.Equal(t, newest.ID, d.ID)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := svc.Get(ctx, tenant.ID, "no-such-post")
		requireKind(t, err, apperr.KindNotFound)
	})
}
