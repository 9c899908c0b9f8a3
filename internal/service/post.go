// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tenantcms/internal/apperr"
	"tenantcms/internal/cache"
	"tenantcms/internal/models"
	"tenantcms/internal/observability/metrics"
	"tenantcms/internal/slug"
	"tenantcms/internal/store"
)

// Field limits for posts and their SEO records.
const (
	maxTitle           = 255
	maxExcerpt         = 300
	maxFocusWords      = 4
	maxFocusKeyword    = 255
	maxMetaTitle       = 255
	maxMetaDescription = 500
	maxBulkPosts       = 50
)

// SEOInput carries the SEO fields of a post request. Image fields take a
// media identifier (internal id or UUID); an empty string clears them on edit.
type SEOInput struct {
	MetaTitle          *string `json:"metaTitle"`
	MetaDescription    *string `json:"metaDescription"`
	CanonicalURL       *string `json:"canonicalUrl"`
	OGTitle            *string `json:"ogTitle"`
	OGDescription      *string `json:"ogDescription"`
	OGImageID          *string `json:"ogImageId"`
	TwitterTitle       *string `json:"twitterTitle"`
	TwitterDescription *string `json:"twitterDescription"`
	TwitterImageID     *string `json:"twitterImageId"`
	FocusKeyword       *string `json:"focusKeyword"`
}

func (in *SEOInput) fields() []*string {
	return []*string{
		in.MetaTitle, in.MetaDescription, in.CanonicalURL,
		in.OGTitle, in.OGDescription, in.OGImageID,
		in.TwitterTitle, in.TwitterDescription, in.TwitterImageID,
		in.FocusKeyword,
	}
}

// hasValues reports whether any field carries a non-blank value.
func (in *SEOInput) hasValues() bool {
	if in == nil {
		return false
	}
	for _, f := range in.fields() {
		if f != nil && strings.TrimSpace(*f) != "" {
			return true
		}
	}
	return false
}

// validate checks lengths, the focus keyword word count and the canonical URL.
func (in *SEOInput) validate() error {
	if in == nil {
		return nil
	}
	checks := []struct {
		field string
		value *string
		max   int
	}{
		{"Meta title", in.MetaTitle, maxMetaTitle},
		{"Meta description", in.MetaDescription, maxMetaDescription},
		{"OG title", in.OGTitle, maxMetaTitle},
		{"OG description", in.OGDescription, maxMetaDescription},
		{"Twitter title", in.TwitterTitle, maxMetaTitle},
		{"Twitter description", in.TwitterDescription, maxMetaDescription},
	}
	for _, c := range checks {
		if c.value != nil {
			if err := maxLength(c.field, strings.TrimSpace(*c.value), c.max); err != nil {
				return err
			}
		}
	}
	if in.FocusKeyword != nil {
		if err := maxLength("Focus keyword", strings.TrimSpace(*in.FocusKeyword), maxFocusKeyword); err != nil {
			return err
		}
		if len(strings.Fields(*in.FocusKeyword)) > maxFocusWords {
			return apperr.Validation("Focus keyword must be at most %d words.", maxFocusWords)
		}
	}
	if in.CanonicalURL != nil {
		if raw := strings.TrimSpace(*in.CanonicalURL); raw != "" && !isAbsoluteHTTP(raw) {
			return apperr.Validation("Canonical URL must be an absolute http(s) URL.")
		}
	}
	return nil
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// PostInput is the body of a post create request. Category and tag names
// take precedence over ids: ids are only used when no names are given.
type PostInput struct {
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Content         string     `json:"content"`
	Excerpt         string     `json:"excerpt"`
	Status          string     `json:"status"`
	IsIndexable     *bool      `json:"isIndexable"`
	FeaturedImageID string     `json:"featuredImageId"`
	PublishedAt     *time.Time `json:"publishedAt"`
	Categories      []string   `json:"categories"`
	CategoryIDs     []string   `json:"categoryIds"`
	Tags            []string   `json:"tags"`
	TagIDs          []string   `json:"tagIds"`
	SEO             *SEOInput  `json:"seo"`
}

// PostPatch is a sparse post update. A nil field is left untouched; a
// present but empty category/tag list clears the associations.
type PostPatch struct {
	Title           *string    `json:"title"`
	Slug            *string    `json:"slug"`
	Content         *string    `json:"content"`
	Excerpt         *string    `json:"excerpt"`
	Status          *string    `json:"status"`
	IsIndexable     *bool      `json:"isIndexable"`
	FeaturedImageID *string    `json:"featuredImageId"`
	PublishedAt     *time.Time `json:"publishedAt"`
	Categories      *[]string  `json:"categories"`
	CategoryIDs     *[]string  `json:"categoryIds"`
	Tags            *[]string  `json:"tags"`
	TagIDs          *[]string  `json:"tagIds"`
	SEO             *SEOInput  `json:"seo"`
}

// PostSummary identifies a deleted post.
type PostSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Slug  string    `json:"slug"`
}

// DeletedCounts reports how many dependent rows a post delete removed.
type DeletedCounts struct {
	SEO        int64 `json:"seo"`
	Categories int64 `json:"categories"`
	Tags       int64 `json:"tags"`
	Videos     int64 `json:"videos"`
}

// PostDeleteResult is returned by Delete.
type PostDeleteResult struct {
	Post    PostSummary   `json:"post"`
	Deleted DeletedCounts `json:"deleted"`
}

// PostBulkDeleteResult is returned by BulkDelete.
type PostBulkDeleteResult struct {
	DeletedCount int           `json:"deletedCount"`
	DeletedIDs   []uuid.UUID   `json:"deletedIds"`
	Deleted      DeletedCounts `json:"deleted"`
}

// PostService composes posts with their categories, tags and SEO record.
// Every write runs in one transaction: either all rows change or none do.
type PostService struct {
	db          *sqlx.DB
	stores      postStores
	cache       *cache.PostCache
	navExcluded string
	now         func() time.Time
}

// postStores bundles the stores a post workflow touches, bound to either
// the pool or one transaction.
type postStores struct {
	tenants    *store.TenantStore
	users      *store.UserStore
	posts      *store.PostStore
	categories *store.TermStore
	tags       *store.TermStore
	media      *store.MediaStore
	seo        *store.SEOStore
}

func newPostStores(exec store.DBTX) postStores {
	return postStores{
		tenants:    store.NewTenantStore(exec),
		users:      store.NewUserStore(exec),
		posts:      store.NewPostStore(exec),
		categories: store.NewTermStore(exec, models.TermCategory),
		tags:       store.NewTermStore(exec, models.TermTag),
		media:      store.NewMediaStore(exec),
		seo:        store.NewSEOStore(exec),
	}
}

// NewPostService creates a PostService. Posts filed under navExcluded are
// skipped by next-post navigation; postCache may be nil.
func NewPostService(db *sqlx.DB, postCache *cache.PostCache, navExcluded string) *PostService {
	return &PostService{
		db:          db,
		stores:      newPostStores(db),
		cache:       postCache,
		navExcluded: navExcluded,
		now:         time.Now,
	}
}

// Create validates the input and inserts the post, its associations and an
// optional SEO record in one transaction, then returns the full view.
func (s *PostService) Create(ctx context.Context, tenantID, authorID uuid.UUID, in PostInput) (_ *PostView, err error) {
	ctx, span := startSpan(ctx, "PostService.Create", tenantID)
	defer endSpan(span, &err)
	defer func() { metrics.ObservePostWrite("create", err) }()

	title, err := requireText("Title", in.Title, maxTitle)
	if err != nil {
		return nil, err
	}
	excerpt := strings.TrimSpace(in.Excerpt)
	if err := maxLength("Excerpt", excerpt, maxExcerpt); err != nil {
		return nil, err
	}
	status := models.PostStatusDraft
	if in.Status != "" {
		st, ok := models.ParsePostStatus(in.Status)
		if !ok {
			return nil, apperr.Validation("Invalid status %q.", in.Status)
		}
		status = st
	}
	base := slug.Generate(title)
	if explicit := strings.TrimSpace(in.Slug); explicit != "" {
		if err := checkSlug(explicit); err != nil {
			return nil, err
		}
		base = explicit
	}
	if err := in.SEO.validate(); err != nil {
		return nil, err
	}

	post := &models.Post{
		TenantID:    tenantID,
		Title:       title,
		Content:     in.Content,
		Excerpt:     excerpt,
		Status:      status,
		IsIndexable: true,
	}
	if in.IsIndexable != nil {
		post.IsIndexable = *in.IsIndexable
	}
	if authorID != uuid.Nil {
		post.AuthorID = &authorID
	}
	if status == models.PostStatusPublished {
		at := s.now().UTC()
		if in.PublishedAt != nil {
			at = *in.PublishedAt
		}
		post.PublishedAt = &at
	}

	var created *models.Post
	err = store.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		st := newPostStores(tx)
		if err := activeTenant(ctx, st.tenants, tenantID); err != nil {
			return err
		}

		if in.FeaturedImageID != "" {
			id, err := resolveMedia(ctx, st.media, tenantID, in.FeaturedImageID, "featured image")
			if err != nil {
				return err
			}
			post.FeaturedImageID = id
		}

		categoryIDs, _, err := s.resolveTerms(ctx, tx, st.categories, tenantID, &in.Categories, &in.CategoryIDs)
		if err != nil {
			return err
		}
		tagIDs, _, err := s.resolveTerms(ctx, tx, st.tags, tenantID, &in.Tags, &in.TagIDs)
		if err != nil {
			return err
		}

		alloc := slug.Allocator{Strategy: slug.Sequential}
		_, err = insertWithSlug(ctx, tx, "post", alloc, base, "post", postSlugProbe(st.posts, tenantID, 0),
			func(candidate string) error {
				post.Slug = candidate
				p, err := st.posts.Create(ctx, post)
				if err != nil {
					return err
				}
				created = p
				return nil
			})
		if err != nil {
			return err
		}

		if err := st.categories.Attach(ctx, created.ID, categoryIDs); err != nil {
			return err
		}
		if err := st.tags.Attach(ctx, created.ID, tagIDs); err != nil {
			return err
		}

		if in.SEO.hasValues() {
			row := &models.SEO{TenantID: tenantID, EntityType: models.SEOEntityPost, EntityID: created.UUID}
			if err := applySEO(ctx, st.media, tenantID, row, in.SEO); err != nil {
				return err
			}
			row.ApplyFallbacks()
			if _, err := st.seo.Create(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, slugError("post", err)
	}

	s.cache.InvalidateTenant(ctx, tenantID)
	slog.Info("post created", "tenant_id", tenantID, "id", created.UUID, "slug", created.Slug, "status", created.Status)
	return s.view(ctx, tenantID, created)
}

// Edit applies a sparse update in one transaction. Moving to published
// without publishedAt stamps the current time; any other status clears
// publishedAt.
func (s *PostService) Edit(ctx context.Context, tenantID uuid.UUID, id models.Identifier, patch PostPatch) (_ *PostView, err error) {
	ctx, span := startSpan(ctx, "PostService.Edit", tenantID)
	defer endSpan(span, &err)
	defer func() { metrics.ObservePostWrite("edit", err) }()

	if err := patch.SEO.validate(); err != nil {
		return nil, err
	}

	var postID int64
	err = store.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		st := newPostStores(tx)
		if err := activeTenant(ctx, st.tenants, tenantID); err != nil {
			return err
		}
		post, err := st.posts.FindByIdentifier(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if post == nil {
			return apperr.NotFound("Post not found.")
		}
		postID = post.ID

		changes, err := s.postChanges(ctx, st, post, &patch)
		if err != nil {
			return err
		}
		if err := st.posts.Update(ctx, tenantID, post.ID, changes); err != nil {
			if apperr.IsUniqueViolation(err) {
				return apperr.Conflict("Post slug %q is already in use.", changes["slug"])
			}
			return err
		}

		if ids, ok, err := s.resolveTerms(ctx, tx, st.categories, tenantID, patch.Categories, patch.CategoryIDs); err != nil {
			return err
		} else if ok {
			if err := st.categories.ReplaceForPost(ctx, post.ID, ids); err != nil {
				return err
			}
		}
		if ids, ok, err := s.resolveTerms(ctx, tx, st.tags, tenantID, patch.Tags, patch.TagIDs); err != nil {
			return err
		} else if ok {
			if err := st.tags.ReplaceForPost(ctx, post.ID, ids); err != nil {
				return err
			}
		}

		if patch.SEO != nil {
			return patchSEO(ctx, st, tenantID, post.UUID, patch.SEO)
		}
		return nil
	})
	if err != nil {
		return nil, slugError("post", err)
	}

	s.cache.InvalidateTenant(ctx, tenantID)
	updated, err := s.stores.posts.FindByIdentifier(ctx, tenantID, models.InternalID(postID))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("Post not found.")
	}
	slog.Info("post updated", "tenant_id", tenantID, "id", updated.UUID)
	return s.view(ctx, tenantID, updated)
}

// postChanges builds the sparse column map for an edit.
func (s *PostService) postChanges(ctx context.Context, st postStores, post *models.Post, patch *PostPatch) (map[string]any, error) {
	changes := map[string]any{}
	title := post.Title

	if patch.Title != nil {
		t, err := requireText("Title", *patch.Title, maxTitle)
		if err != nil {
			return nil, err
		}
		title = t
		changes["title"] = t
	}

	if patch.Slug != nil {
		explicit := strings.TrimSpace(*patch.Slug)
		switch {
		case explicit == "":
			alloc := slug.Allocator{Strategy: slug.Sequential}
			next, err := alloc.Allocate(ctx, slug.Generate(title), "post", postSlugProbe(st.posts, post.TenantID, post.ID))
			if err != nil {
				return nil, err
			}
			changes["slug"] = next
		case explicit != post.Slug:
			if err := checkSlug(explicit); err != nil {
				return nil, err
			}
			taken, err := st.posts.SlugExists(ctx, post.TenantID, explicit, post.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperr.Conflict("Post slug %q is already in use.", explicit)
			}
			changes["slug"] = explicit
		}
	}

	if patch.Content != nil {
		changes["content"] = *patch.Content
	}
	if patch.Excerpt != nil {
		excerpt := strings.TrimSpace(*patch.Excerpt)
		if err := maxLength("Excerpt", excerpt, maxExcerpt); err != nil {
			return nil, err
		}
		changes["excerpt"] = excerpt
	}
	if patch.IsIndexable != nil {
		changes["is_indexable"] = *patch.IsIndexable
	}

	if patch.FeaturedImageID != nil {
		if raw := strings.TrimSpace(*patch.FeaturedImageID); raw == "" {
			changes["featured_image_id"] = nil
		} else {
			id, err := resolveMedia(ctx, st.media, post.TenantID, raw, "featured image")
			if err != nil {
				return nil, err
			}
			changes["featured_image_id"] = *id
		}
	}

	switch {
	case patch.Status != nil:
		status, ok := models.ParsePostStatus(*patch.Status)
		if !ok {
			return nil, apperr.Validation("Invalid status %q.", *patch.Status)
		}
		changes["status"] = status
		if status == models.PostStatusPublished {
			at := s.now().UTC()
			if patch.PublishedAt != nil {
				at = *patch.PublishedAt
			}
			changes["published_at"] = at
		} else {
			changes["published_at"] = nil
		}
	case patch.PublishedAt != nil && post.IsPublished():
		changes["published_at"] = *patch.PublishedAt
	}

	return changes, nil
}

// Delete removes one post with its SEO row and associations.
func (s *PostService) Delete(ctx context.Context, tenantID uuid.UUID, id models.Identifier) (_ *PostDeleteResult, err error) {
	ctx, span := startSpan(ctx, "PostService.Delete", tenantID)
	defer endSpan(span, &err)
	defer func() { metrics.ObservePostWrite("delete", err) }()

	var result PostDeleteResult
	err = store.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		st := newPostStores(tx)
		if err := activeTenant(ctx, st.tenants, tenantID); err != nil {
			return err
		}
		post, err := st.posts.FindByIdentifier(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if post == nil {
			return apperr.NotFound("Post not found.")
		}
		counts, err := removePosts(ctx, st, tenantID, []models.Post{*post})
		if err != nil {
			return err
		}
		result = PostDeleteResult{
			Post:    PostSummary{ID: post.UUID, Title: post.Title, Slug: post.Slug},
			Deleted: counts,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateTenant(ctx, tenantID)
	slog.Info("post deleted", "tenant_id", tenantID, "id", result.Post.ID)
	return &result, nil
}

// BulkDelete removes up to 50 posts in one transaction. Every id must
// exist or nothing is deleted.
func (s *PostService) BulkDelete(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (_ *PostBulkDeleteResult, err error) {
	ctx, span := startSpan(ctx, "PostService.BulkDelete", tenantID)
	defer endSpan(span, &err)
	defer func() { metrics.ObservePostWrite("bulk_delete", err) }()

	ids = dedupeUUIDs(ids)
	if len(ids) == 0 {
		return nil, apperr.Validation("ids must contain at least one id.")
	}
	if len(ids) > maxBulkPosts {
		return nil, apperr.Validation("At most %d posts can be deleted at once.", maxBulkPosts)
	}

	var result PostBulkDeleteResult
	err = store.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		st := newPostStores(tx)
		if err := activeTenant(ctx, st.tenants, tenantID); err != nil {
			return err
		}
		posts, err := st.posts.FindByUUIDs(ctx, tenantID, ids)
		if err != nil {
			return err
		}
		if len(posts) != len(ids) {
			found := store.IndexBy(posts, func(p models.Post) uuid.UUID { return p.UUID })
			var missing []uuid.UUID
			for _, id := range ids {
				if _, ok := found[id]; !ok {
					missing = append(missing, id)
				}
			}
			return apperr.NotFound("%d of %d posts not found.", len(missing), len(ids)).
				WithDetails(map[string]any{"missingIds": missing})
		}
		counts, err := removePosts(ctx, st, tenantID, posts)
		if err != nil {
			return err
		}
		result = PostBulkDeleteResult{DeletedCount: len(posts), DeletedIDs: ids, Deleted: counts}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateTenant(ctx, tenantID)
	slog.Info("posts bulk deleted", "tenant_id", tenantID, "count", result.DeletedCount)
	return &result, nil
}

// removePosts deletes SEO rows, category, tag and video associations and
// finally the posts. The statements share one transaction connection and
// run in that order.
func removePosts(ctx context.Context, st postStores, tenantID uuid.UUID, posts []models.Post) (DeletedCounts, error) {
	var counts DeletedCounts
	ids := store.CollectIDs(posts, func(p models.Post) (int64, bool) { return p.ID, true })
	uuids := store.CollectIDs(posts, func(p models.Post) (uuid.UUID, bool) { return p.UUID, true })

	var err error
	if counts.SEO, err = st.seo.DeleteForEntities(ctx, tenantID, models.SEOEntityPost, uuids...); err != nil {
		return counts, err
	}
	if counts.Categories, err = st.categories.DeleteForPosts(ctx, ids); err != nil {
		return counts, err
	}
	if counts.Tags, err = st.tags.DeleteForPosts(ctx, ids); err != nil {
		return counts, err
	}
	if counts.Videos, err = st.posts.DeleteVideos(ctx, ids); err != nil {
		return counts, err
	}
	if _, err = st.posts.Delete(ctx, tenantID, ids...); err != nil {
		return counts, err
	}
	return counts, nil
}

// Archive hides a post: status becomes archived and publishedAt is cleared.
// It is a single statement and needs no transaction.
func (s *PostService) Archive(ctx context.Context, tenantID uuid.UUID, id models.Identifier) (_ *PostView, err error) {
	ctx, span := startSpan(ctx, "PostService.Archive", tenantID)
	defer endSpan(span, &err)
	defer func() { metrics.ObservePostWrite("archive", err) }()

	post, err := s.stores.posts.FindByIdentifier(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("Post not found.")
	}
	ok, err := s.stores.posts.Archive(ctx, tenantID, post.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("Post not found.")
	}

	s.cache.InvalidateTenant(ctx, tenantID)
	post.Status = models.PostStatusArchived
	post.PublishedAt = nil
	slog.Info("post archived", "tenant_id", tenantID, "id", post.UUID)
	return s.view(ctx, tenantID, post)
}

// resolveTerms turns the category or tag part of a request into term ids.
// Names win over ids: names are found case-insensitively or created with a
// fresh sequential slug; ids must all resolve. ok is false when the request
// carried neither field.
func (s *PostService) resolveTerms(ctx context.Context, exec store.DBTX, terms *store.TermStore, tenantID uuid.UUID, names, ids *[]string) ([]uuid.UUID, bool, error) {
	switch {
	case names != nil && (len(*names) > 0 || ids == nil):
		resolved, err := termsByName(ctx, exec, terms, tenantID, *names)
		return resolved, true, err
	case ids != nil:
		resolved, err := termsByID(ctx, terms, tenantID, *ids)
		return resolved, true, err
	default:
		return nil, false, nil
	}
}

func termsByName(ctx context.Context, exec store.DBTX, terms *store.TermStore, tenantID uuid.UUID, names []string) ([]uuid.UUID, error) {
	kind := terms.Kind()
	seen := make(map[string]bool, len(names))
	ids := make([]uuid.UUID, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		if err := maxLength(kind.Label()+" name", name, maxTermName); err != nil {
			return nil, err
		}

		t, err := terms.FindByName(ctx, tenantID, name)
		if err != nil {
			return nil, err
		}
		if t == nil {
			probe := func(ctx context.Context, candidate string) (bool, error) {
				return terms.SlugExists(ctx, tenantID, candidate, nil)
			}
			alloc := slug.Allocator{Strategy: slug.Sequential}
			_, err = insertWithSlug(ctx, exec, string(kind), alloc, slug.Generate(name), string(kind), probe,
				func(candidate string) error {
					created, err := terms.Create(ctx, &models.Term{TenantID: tenantID, Name: name, Slug: candidate})
					if err != nil {
						return err
					}
					t = created
					return nil
				})
			if err != nil {
				return nil, slugError(string(kind), err)
			}
			slog.Info("term created from post", "kind", kind, "tenant_id", tenantID, "id", t.ID, "slug", t.Slug)
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func termsByID(ctx context.Context, terms *store.TermStore, tenantID uuid.UUID, raw []string) ([]uuid.UUID, error) {
	kind := terms.Kind()
	ids, err := parseUUIDs(strings.ToLower(kind.Label())+" id", raw)
	if err != nil {
		return nil, err
	}
	found, err := terms.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		byID := store.IndexBy(found, func(t models.Term) uuid.UUID { return t.ID })
		var missing []uuid.UUID
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, apperr.Validation("One or more %s ids could not be found.", strings.ToLower(kind.Label())).
			WithDetails(map[string]any{"missingIds": missing})
	}
	return ids, nil
}

// resolveMedia resolves a media identifier to the internal key.
func resolveMedia(ctx context.Context, media *store.MediaStore, tenantID uuid.UUID, raw, what string) (*int64, error) {
	id, err := models.ParseIdentifier(strings.TrimSpace(raw))
	if err != nil {
		return nil, apperr.Validation("Invalid %s.", what)
	}
	m, err := media.FindByIdentifier(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.Validation("Invalid %s.", what)
	}
	return &m.ID, nil
}

// applySEO copies every supplied field of in onto row. Blank text clears a
// field; an empty image id clears the image.
func applySEO(ctx context.Context, media *store.MediaStore, tenantID uuid.UUID, row *models.SEO, in *SEOInput) error {
	text := []struct {
		dst **string
		src *string
	}{
		{&row.MetaTitle, in.MetaTitle},
		{&row.MetaDescription, in.MetaDescription},
		{&row.CanonicalURL, in.CanonicalURL},
		{&row.OGTitle, in.OGTitle},
		{&row.OGDescription, in.OGDescription},
		{&row.TwitterTitle, in.TwitterTitle},
		{&row.TwitterDescription, in.TwitterDescription},
		{&row.FocusKeyword, in.FocusKeyword},
	}
	for _, f := range text {
		if f.src == nil {
			continue
		}
		if v := strings.TrimSpace(*f.src); v != "" {
			*f.dst = &v
		} else {
			*f.dst = nil
		}
	}

	images := []struct {
		dst  **int64
		src  *string
		what string
	}{
		{&row.OGImageID, in.OGImageID, "OG image"},
		{&row.TwitterImageID, in.TwitterImageID, "Twitter image"},
	}
	for _, f := range images {
		if f.src == nil {
			continue
		}
		if strings.TrimSpace(*f.src) == "" {
			*f.dst = nil
			continue
		}
		id, err := resolveMedia(ctx, media, tenantID, *f.src, f.what)
		if err != nil {
			return err
		}
		*f.dst = id
	}
	return nil
}

// patchSEO creates the post's SEO row when it has none and values were
// supplied, otherwise patches only the supplied fields.
func patchSEO(ctx context.Context, st postStores, tenantID, postID uuid.UUID, in *SEOInput) error {
	row, err := st.seo.FindForEntity(ctx, tenantID, models.SEOEntityPost, postID)
	if err != nil {
		return err
	}
	if row == nil {
		if !in.hasValues() {
			return nil
		}
		row = &models.SEO{TenantID: tenantID, EntityType: models.SEOEntityPost, EntityID: postID}
		if err := applySEO(ctx, st.media, tenantID, row, in); err != nil {
			return err
		}
		row.ApplyFallbacks()
		_, err := st.seo.Create(ctx, row)
		return err
	}
	if err := applySEO(ctx, st.media, tenantID, row, in); err != nil {
		return err
	}
	return st.seo.Update(ctx, row)
}

func postSlugProbe(posts *store.PostStore, tenantID uuid.UUID, excludeID int64) slug.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return posts.SlugExists(ctx, tenantID, candidate, excludeID)
	}
}
