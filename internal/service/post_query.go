// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tenantcms/internal/apperr"
	"tenantcms/internal/models"
	"tenantcms/internal/observability/metrics"
	"tenantcms/internal/store"
)

// PostFilter is the parsed query of a post listing. Id fields hold the raw
// client value and are validated here.
type PostFilter struct {
	Status       string
	AuthorID     string
	CategoryID   string
	CategorySlug string
	TagID        string
	TagSlug      string
	Search       string
	From         *time.Time
	To           *time.Time
	Sort         string
	Order        string
	Page         models.PageRequest
}

// TermPostsPage is a post listing scoped to one category or tag.
type TermPostsPage struct {
	Category   *TermView         `json:"category,omitempty"`
	Tag        *TermView         `json:"tag,omitempty"`
	Items      []PostView        `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// List returns one page of the tenant's posts with their relations.
func (s *PostService) List(ctx context.Context, tenantID uuid.UUID, f PostFilter) (_ *Page[PostView], err error) {
	ctx, span := startSpan(ctx, "PostService.List", tenantID)
	defer endSpan(span, &err)

	q, err := s.listQuery(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	posts, total, err := s.stores.posts.List(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	views, err := s.assemble(ctx, tenantID, posts)
	if err != nil {
		return nil, err
	}
	return &Page[PostView]{
		Items:      views,
		Pagination: models.NewPagination(q.Page.Normalize(), total, len(views)),
	}, nil
}

// ListByCategory lists the posts filed under the category with slug.
func (s *PostService) ListByCategory(ctx context.Context, tenantID uuid.UUID, slug string, f PostFilter) (*TermPostsPage, error) {
	t, err := s.termBySlug(ctx, s.stores.categories, tenantID, slug)
	if err != nil {
		return nil, err
	}
	f.CategoryID, f.CategorySlug = t.ID.String(), ""
	page, err := s.List(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	v := NewTermView(t)
	return &TermPostsPage{Category: &v, Items: page.Items, Pagination: page.Pagination}, nil
}

// ListByTag lists the posts carrying the tag with slug.
func (s *PostService) ListByTag(ctx context.Context, tenantID uuid.UUID, slug string, f PostFilter) (*TermPostsPage, error) {
	t, err := s.termBySlug(ctx, s.stores.tags, tenantID, slug)
	if err != nil {
		return nil, err
	}
	f.TagID, f.TagSlug = t.ID.String(), ""
	page, err := s.List(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	v := NewTermView(t)
	return &TermPostsPage{Tag: &v, Items: page.Items, Pagination: page.Pagination}, nil
}

func (s *PostService) termBySlug(ctx context.Context, terms *store.TermStore, tenantID uuid.UUID, slug string) (*models.Term, error) {
	t, err := terms.FindBySlug(ctx, tenantID, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFound("%s not found.", terms.Kind().Label())
	}
	return t, nil
}

// listQuery validates f and turns it into a store query. Category and tag
// filters become a post id set; several filters intersect.
func (s *PostService) listQuery(ctx context.Context, tenantID uuid.UUID, f PostFilter) (store.PostListQuery, error) {
	q := store.PostListQuery{
		Search: f.Search,
		From:   f.From,
		To:     f.To,
		Sort:   f.Sort,
		Order:  f.Order,
		Page:   f.Page,
	}
	if f.Status != "" {
		st, ok := models.ParsePostStatus(f.Status)
		if !ok {
			return q, apperr.Validation("Invalid status %q.", f.Status)
		}
		q.Status = st
	}
	if f.AuthorID != "" {
		id, err := uuid.Parse(f.AuthorID)
		if err != nil {
			return q, apperr.Validation("Invalid author id %q.", f.AuthorID)
		}
		q.AuthorID = &id
	}

	filters := []struct {
		terms    *store.TermStore
		id, slug string
	}{
		{s.stores.categories, f.CategoryID, f.CategorySlug},
		{s.stores.tags, f.TagID, f.TagSlug},
	}
	for _, flt := range filters {
		if flt.id == "" && flt.slug == "" {
			continue
		}
		ids, err := s.termPostIDs(ctx, flt.terms, tenantID, flt.id, flt.slug)
		if err != nil {
			return q, err
		}
		q.PostIDs = intersect(q.PostIDs, ids)
	}
	return q, nil
}

// termPostIDs returns the posts linked to the term named by id or slug.
// An unknown term yields an empty, non-nil set so the listing is empty.
func (s *PostService) termPostIDs(ctx context.Context, terms *store.TermStore, tenantID uuid.UUID, rawID, slug string) ([]int64, error) {
	var (
		t   *models.Term
		err error
	)
	if rawID != "" {
		id, perr := uuid.Parse(rawID)
		if perr != nil {
			return nil, apperr.Validation("Invalid %s id %q.", strings.ToLower(terms.Kind().Label()), rawID)
		}
		t, err = terms.FindByID(ctx, tenantID, id)
	} else {
		t, err = terms.FindBySlug(ctx, tenantID, slug)
	}
	if err != nil {
		return nil, err
	}
	if t == nil {
		return []int64{}, nil
	}
	ids, err := terms.PostIDs(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// intersect keeps the ids present in both sets. A nil acc means no set
// has been applied yet.
func intersect(acc, ids []int64) []int64 {
	if acc == nil {
		return ids
	}
	keep := make(map[int64]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	out := []int64{}
	for _, id := range acc {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out
}

// Get returns one post by internal id, public UUID or slug together with
// next-post navigation. Results are cached per tenant and lookup key.
func (s *PostService) Get(ctx context.Context, tenantID uuid.UUID, lookup string) (_ *PostDetail, err error) {
	ctx, span := startSpan(ctx, "PostService.Get", tenantID)
	defer endSpan(span, &err)

	lookup = strings.TrimSpace(lookup)
	if lookup == "" {
		return nil, apperr.NotFound("Post not found.")
	}

	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, tenantID, lookup); ok {
			var cached PostDetail
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.ObservePostCache(true)
				return &cached, nil
			}
		}
		metrics.ObservePostCache(false)
	}

	post, err := s.findPost(ctx, tenantID, lookup)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("Post not found.")
	}

	views, err := s.assemble(ctx, tenantID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	detail := &PostDetail{PostView: views[0]}

	next, err := s.nextPost(ctx, tenantID, post)
	if err != nil {
		return nil, err
	}
	if next != nil {
		detail.NextSlug = &next.Slug
		detail.NextID = &next.UUID
		detail.NextTitle = &next.Title
	}

	if s.cache != nil {
		if data, err := json.Marshal(detail); err == nil {
			s.cache.Set(ctx, tenantID, lookup, data)
		} else {
			slog.Warn("encode post for cache failed", "tenant_id", tenantID, "error", err)
		}
	}
	return detail, nil
}

// findPost tries lookup as an identifier first, then as a slug.
func (s *PostService) findPost(ctx context.Context, tenantID uuid.UUID, lookup string) (*models.Post, error) {
	if id, err := models.ParseIdentifier(lookup); err == nil {
		p, err := s.stores.posts.FindByIdentifier(ctx, tenantID, id)
		if err != nil || p != nil {
			return p, err
		}
	}
	return s.stores.posts.FindBySlug(ctx, tenantID, lookup)
}

// nextPost picks the published post a reader sees after p: the newest one
// published before p outside the excluded category, else the tenant's
// newest published post.
func (s *PostService) nextPost(ctx context.Context, tenantID uuid.UUID, p *models.Post) (*models.Post, error) {
	pivot := p.CreatedAt
	if p.PublishedAt != nil {
		pivot = *p.PublishedAt
	}
	older, err := s.stores.posts.Older(ctx, tenantID, p.ID, pivot, s.navExcluded)
	if err != nil || older != nil {
		return older, err
	}
	return s.stores.posts.Newest(ctx, tenantID, p.ID)
}

// view assembles a single post.
func (s *PostService) view(ctx context.Context, tenantID uuid.UUID, p *models.Post) (*PostView, error) {
	views, err := s.assemble(ctx, tenantID, []models.Post{*p})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// assemble batch-loads authors, featured images, categories, tags and SEO
// rows for posts with one query per relation, then a second round for the
// social images the SEO rows reference.
func (s *PostService) assemble(ctx context.Context, tenantID uuid.UUID, posts []models.Post) ([]PostView, error) {
	if len(posts) == 0 {
		return []PostView{}, nil
	}

	postIDs := store.CollectIDs(posts, func(p models.Post) (int64, bool) { return p.ID, true })
	postUUIDs := store.CollectIDs(posts, func(p models.Post) (uuid.UUID, bool) { return p.UUID, true })
	authorIDs := store.CollectIDs(posts, func(p models.Post) (uuid.UUID, bool) {
		if p.AuthorID == nil {
			return uuid.Nil, false
		}
		return *p.AuthorID, true
	})
	imageIDs := store.CollectIDs(posts, func(p models.Post) (int64, bool) {
		if p.FeaturedImageID == nil {
			return 0, false
		}
		return *p.FeaturedImageID, true
	})

	var (
		authors    []models.User
		images     []models.Media
		categories []models.PostTerm
		tags       []models.PostTerm
		seoRows    []models.SEO
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		authors, err = s.stores.users.FindByIDs(gctx, tenantID, authorIDs)
		return err
	})
	g.Go(func() (err error) {
		images, err = s.stores.media.FindByIDs(gctx, tenantID, imageIDs)
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.stores.categories.ForPosts(gctx, postIDs)
		return err
	})
	g.Go(func() (err error) {
		tags, err = s.stores.tags.ForPosts(gctx, postIDs)
		return err
	})
	g.Go(func() (err error) {
		seoRows, err = s.stores.seo.ForEntities(gctx, tenantID, models.SEOEntityPost, postUUIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	imageByID := store.IndexBy(images, func(m models.Media) int64 { return m.ID })
	var social []int64
	for _, row := range seoRows {
		for _, id := range []*int64{row.OGImageID, row.TwitterImageID} {
			if id == nil {
				continue
			}
			if _, ok := imageByID[*id]; !ok {
				social = append(social, *id)
			}
		}
	}
	if len(social) > 0 {
		social = store.CollectIDs(social, func(id int64) (int64, bool) { return id, true })
		extra, err := s.stores.media.FindByIDs(ctx, tenantID, social)
		if err != nil {
			return nil, err
		}
		for _, m := range extra {
			imageByID[m.ID] = m
		}
	}

	authorByID := store.IndexBy(authors, func(u models.User) uuid.UUID { return u.ID })
	categoriesByPost := store.GroupBy(categories, func(pt models.PostTerm) int64 { return pt.PostID })
	tagsByPost := store.GroupBy(tags, func(pt models.PostTerm) int64 { return pt.PostID })
	seoByPost := store.IndexBy(seoRows, func(r models.SEO) uuid.UUID { return r.EntityID })

	views := make([]PostView, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		v := newPostView(p)
		if p.AuthorID != nil {
			if u, ok := authorByID[*p.AuthorID]; ok {
				a := NewAuthorView(&u)
				v.Author = &a
			}
		}
		v.FeaturedImage = mediaRef(p.FeaturedImageID, imageByID)
		if rows, ok := categoriesByPost[p.ID]; ok {
			v.Categories = termViews(rows)
		}
		if rows, ok := tagsByPost[p.ID]; ok {
			v.Tags = termViews(rows)
		}
		if row, ok := seoByPost[p.UUID]; ok {
			v.SEO = NewSEOView(&row, imageByID)
		}
		views = append(views, v)
	}
	return views, nil
}
