// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"tenantcms/internal/models"
)

// PostStore handles all post-related database operations.
type PostStore struct {
	db DBTX
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db DBTX) *PostStore {
	return &PostStore{db: db}
}

// postColumns lists the columns selected in post queries.
const postColumns = `p.id, p.uuid, p.tenant_id, p.title, p.slug, p.content, p.excerpt, p.status,
	p.is_indexable, p.author_id, p.featured_image_id, p.published_at, p.created_at, p.updated_at`

const postReturning = `id, uuid, tenant_id, title, slug, content, excerpt, status,
	is_indexable, author_id, featured_image_id, published_at, created_at, updated_at`

// postSorts is the allow-list of sortable fields.
var postSorts = map[string]string{
	"createdAt":   "p.created_at",
	"updatedAt":   "p.updated_at",
	"publishedAt": "p.published_at",
	"title":       "p.title",
}

// PostListQuery filters and pages a post listing. A non-nil PostIDs
// restricts the result to those ids; an empty non-nil slice matches nothing.
type PostListQuery struct {
	Status   models.PostStatus
	AuthorID *uuid.UUID
	PostIDs  []int64
	Search   string
	From     *time.Time
	To       *time.Time
	Sort     string
	Order    string
	Page     models.PageRequest
}

// List returns one page of posts plus the total number of matches.
func (s *PostStore) List(ctx context.Context, tenantID uuid.UUID, q PostListQuery) ([]models.Post, int, error) {
	base := psql.Select().From("posts p").Where(sq.Eq{"p.tenant_id": tenantID})
	if q.Status != "" {
		base = base.Where(sq.Eq{"p.status": q.Status})
	}
	if q.AuthorID != nil {
		base = base.Where(sq.Eq{"p.author_id": *q.AuthorID})
	}
	if q.PostIDs != nil {
		base = base.Where(sq.Eq{"p.id": q.PostIDs})
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + search + "%"
		base = base.Where(sq.Or{
			sq.ILike{"p.title": like},
			sq.ILike{"p.excerpt": like},
			sq.ILike{"p.content": like},
		})
	}
	if q.From != nil {
		base = base.Where(sq.GtOrEq{"p.created_at": *q.From})
	}
	if q.To != nil {
		base = base.Where(sq.LtOrEq{"p.created_at": *q.To})
	}

	total, err := countBuilt(ctx, s.db, base)
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	page := q.Page.Normalize()
	list := base.Columns(postColumns).
		OrderBy(orderClause(postSorts, q.Sort, q.Order, "createdAt")+" NULLS LAST", "p.id DESC")
	list = paginate(list, page.Limit, page.Offset())

	var items []models.Post
	if err := selectBuilt(ctx, s.db, &items, list); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return items, total, nil
}

func (s *PostStore) findOne(ctx context.Context, b sq.SelectBuilder, what string) (*models.Post, error) {
	var p models.Post
	err := getBuilt(ctx, s.db, &p, b.Columns(postColumns).Limit(1))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by %s: %w", what, err)
	}
	return &p, nil
}

func (s *PostStore) scoped(tenantID uuid.UUID) sq.SelectBuilder {
	return psql.Select().From("posts p").Where(sq.Eq{"p.tenant_id": tenantID})
}

// FindByIdentifier retrieves a post by internal id or public UUID.
// Returns nil if not found.
func (s *PostStore) FindByIdentifier(ctx context.Context, tenantID uuid.UUID, id models.Identifier) (*models.Post, error) {
	return s.findOne(ctx, s.scoped(tenantID).Where(identifierPredicate("p.", id)), "id")
}

// FindBySlug retrieves a post by slug. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Post, error) {
	return s.findOne(ctx, s.scoped(tenantID).Where(sq.Eq{"p.slug": slug}), "slug")
}

// FindByUUIDs loads the tenant's posts with the given public ids.
func (s *PostStore) FindByUUIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Post
	if err := selectBuilt(ctx, s.db, &items, s.scoped(tenantID).Columns(postColumns).Where(sq.Eq{"p.uuid": ids})); err != nil {
		return nil, fmt.Errorf("find posts by uuids: %w", err)
	}
	return items, nil
}

// SlugExists reports whether another post in the tenant already uses slug.
// excludeID is ignored when zero.
func (s *PostStore) SlugExists(ctx context.Context, tenantID uuid.UUID, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM posts WHERE tenant_id = $1 AND slug = $2 AND id <> $3)`,
		tenantID, slug, excludeID)
	if err != nil {
		return false, fmt.Errorf("check post slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new post and returns it with its generated ids.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	var out models.Post
	err := s.db.GetContext(ctx, &out, `
		INSERT INTO posts (tenant_id, title, slug, content, excerpt, status,
			is_indexable, author_id, featured_image_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+postReturning,
		p.TenantID, p.Title, p.Slug, p.Content, p.Excerpt, p.Status,
		p.IsIndexable, p.AuthorID, p.FeaturedImageID, p.PublishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &out, nil
}

// Update applies a sparse set of column changes to one post and always
// bumps updated_at, so an empty map just touches the row. Keys of changes
// are column names chosen by the caller, never client input.
func (s *PostStore) Update(ctx context.Context, tenantID uuid.UUID, id int64, changes map[string]any) error {
	n, err := execBuilt(ctx, s.db, psql.Update("posts").
		SetMap(changes).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}))
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update post %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// Archive hides a post without deleting it: status becomes archived and
// published_at is cleared. Returns false if the post does not exist.
func (s *PostStore) Archive(ctx context.Context, tenantID uuid.UUID, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET status = $1, published_at = NULL, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3`,
		models.PostStatusArchived, tenantID, id)
	if err != nil {
		return false, fmt.Errorf("archive post: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Delete removes post rows. Callers remove associations first.
func (s *PostStore) Delete(ctx context.Context, tenantID uuid.UUID, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := execBuilt(ctx, s.db, psql.Delete("posts").Where(sq.Eq{"tenant_id": tenantID, "id": ids}))
	if err != nil {
		return 0, fmt.Errorf("delete posts: %w", err)
	}
	return n, nil
}

// DeleteVideos removes the reserved video associations of the given posts.
func (s *PostStore) DeleteVideos(ctx context.Context, postIDs []int64) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	n, err := execBuilt(ctx, s.db, psql.Delete("post_videos").Where(sq.Eq{"post_id": postIDs}))
	if err != nil {
		return 0, fmt.Errorf("delete video associations: %w", err)
	}
	return n, nil
}

// publishedExcluding selects published posts of the tenant other than
// current that are not filed under the named category.
func (s *PostStore) publishedExcluding(tenantID uuid.UUID, currentID int64, excludedCategory string) sq.SelectBuilder {
	b := s.scoped(tenantID).
		Where(sq.Eq{"p.status": models.PostStatusPublished}).
		Where(sq.NotEq{"p.id": currentID})
	if excludedCategory != "" {
		b = b.Where(sq.Expr(`NOT EXISTS (
			SELECT 1 FROM post_categories pc
			JOIN categories c ON c.id = pc.category_id
			WHERE pc.post_id = p.id AND c.deleted_at IS NULL AND LOWER(c.name) = LOWER(?))`, excludedCategory))
	}
	return b
}

// Older returns the newest published post published strictly before pivot,
// skipping current and posts in excludedCategory. Returns nil if none.
func (s *PostStore) Older(ctx context.Context, tenantID uuid.UUID, currentID int64, pivot time.Time, excludedCategory string) (*models.Post, error) {
	b := s.publishedExcluding(tenantID, currentID, excludedCategory).
		Where(sq.Lt{"p.published_at": pivot}).
		OrderBy("p.published_at DESC", "p.id DESC")
	return s.findOne(ctx, b, "publish order")
}

// Newest returns the most recently published post other than currentID.
// Returns nil if none.
func (s *PostStore) Newest(ctx context.Context, tenantID uuid.UUID, currentID int64) (*models.Post, error) {
	b := s.publishedExcluding(tenantID, currentID, "").
		OrderBy("p.published_at DESC NULLS LAST", "p.id DESC")
	return s.findOne(ctx, b, "newest")
}
