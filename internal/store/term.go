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

// termTables maps each taxonomy to its table, join table and join column.
var termTables = map[models.TermKind]struct{ table, join, column string }{
	models.TermCategory: {table: "categories", join: "post_categories", column: "category_id"},
	models.TermTag:      {table: "tags", join: "post_tags", column: "tag_id"},
}

// TermStore manages one flat taxonomy (categories or tags) and its join
// table with posts. Soft-deleted rows are invisible to every query except
// PurgeDeleted.
type TermStore struct {
	db     DBTX
	kind   models.TermKind
	table  string
	join   string
	column string
}

// NewTermStore returns a TermStore for the given taxonomy.
func NewTermStore(db DBTX, kind models.TermKind) *TermStore {
	t, ok := termTables[kind]
	if !ok {
		panic(fmt.Sprintf("store: unknown term kind %q", kind))
	}
	return &TermStore{db: db, kind: kind, table: t.table, join: t.join, column: t.column}
}

// WithTx returns a copy of the store bound to tx.
func (s *TermStore) WithTx(tx DBTX) *TermStore {
	c := *s
	c.db = tx
	return &c
}

// Kind returns the taxonomy this store manages.
func (s *TermStore) Kind() models.TermKind { return s.kind }

const termColumns = `t.id, t.tenant_id, t.name, t.slug, t.description, t.created_at, t.updated_at, t.deleted_at`

// termSorts is the allow-list of sortable fields.
var termSorts = map[string]string{
	"name":      "t.name",
	"slug":      "t.slug",
	"createdAt": "t.created_at",
	"updatedAt": "t.updated_at",
	"postCount": "post_count",
}

// TermListQuery filters and pages a taxonomy listing.
type TermListQuery struct {
	Search string
	Sort   string
	Order  string
	Page   models.PageRequest
}

func (s *TermStore) live(tenantID uuid.UUID) sq.SelectBuilder {
	return psql.Select().From(s.table + " t").
		Where(sq.Eq{"t.tenant_id": tenantID, "t.deleted_at": nil})
}

// postCountColumn counts join rows for each term.
func (s *TermStore) postCountColumn() string {
	return `(SELECT COUNT(*) FROM ` + s.join + ` j WHERE j.` + s.column + ` = t.id) AS post_count`
}

// List returns one page of terms with their post counts, plus the total
// number of matching terms.
func (s *TermStore) List(ctx context.Context, tenantID uuid.UUID, q TermListQuery) ([]models.Term, int, error) {
	base := s.live(tenantID)
	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + search + "%"
		base = base.Where(sq.Or{sq.ILike{"t.name": like}, sq.ILike{"t.description": like}})
	}

	total, err := countBuilt(ctx, s.db, base)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", s.table, err)
	}

	page := q.Page.Normalize()
	list := base.Columns(termColumns, s.postCountColumn()).
		OrderBy(orderClause(termSorts, q.Sort, q.Order, "name"), "t.id")
	list = paginate(list, page.Limit, page.Offset())

	var items []models.Term
	if err := selectBuilt(ctx, s.db, &items, list); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", s.table, err)
	}
	return items, total, nil
}

func (s *TermStore) findOne(ctx context.Context, b sq.SelectBuilder, what string) (*models.Term, error) {
	var t models.Term
	err := getBuilt(ctx, s.db, &t, b.Columns(termColumns, s.postCountColumn()).Limit(1))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", s.kind, what, err)
	}
	return &t, nil
}

// FindByID retrieves a term by ID. Returns nil if not found.
func (s *TermStore) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Term, error) {
	return s.findOne(ctx, s.live(tenantID).Where(sq.Eq{"t.id": id}), "id")
}

// FindBySlug retrieves a term by slug. Returns nil if not found.
func (s *TermStore) FindBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Term, error) {
	return s.findOne(ctx, s.live(tenantID).Where(sq.Eq{"t.slug": slug}), "slug")
}

// FindByName retrieves a term by case-insensitive name. When several terms
// share a name the oldest wins. Returns nil if not found.
func (s *TermStore) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Term, error) {
	b := s.live(tenantID).
		Where(sq.Expr("LOWER(t.name) = LOWER(?)", name)).
		OrderBy("t.created_at", "t.id")
	return s.findOne(ctx, b, "name")
}

// FindByIDs loads every live term in ids, with post counts.
func (s *TermStore) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Term, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Term
	b := s.live(tenantID).Columns(termColumns, s.postCountColumn()).Where(sq.Eq{"t.id": ids})
	if err := selectBuilt(ctx, s.db, &items, b); err != nil {
		return nil, fmt.Errorf("find %s by ids: %w", s.table, err)
	}
	return items, nil
}

// SlugExists reports whether a live term in the tenant already uses slug.
// excludeID, when non-nil, is ignored so a term can keep its own slug.
func (s *TermStore) SlugExists(ctx context.Context, tenantID uuid.UUID, slug string, excludeID *uuid.UUID) (bool, error) {
	b := s.live(tenantID).Columns("1").Where(sq.Eq{"t.slug": slug})
	if excludeID != nil {
		b = b.Where(sq.NotEq{"t.id": *excludeID})
	}
	query, args, err := b.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("build slug probe: %w", err)
	}
	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check %s slug: %w", s.kind, err)
	}
	return exists, nil
}

// Create inserts a new term and returns it.
func (s *TermStore) Create(ctx context.Context, t *models.Term) (*models.Term, error) {
	var out models.Term
	err := s.db.GetContext(ctx, &out, `
		INSERT INTO `+s.table+` (tenant_id, name, slug, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, tenant_id, name, slug, description, created_at, updated_at, deleted_at`,
		t.TenantID, t.Name, t.Slug, t.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.kind, err)
	}
	return &out, nil
}

// Update writes name, slug and description back to a live term.
func (s *TermStore) Update(ctx context.Context, t *models.Term) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE `+s.table+` SET name = $1, slug = $2, description = $3, updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5 AND deleted_at IS NULL`,
		t.Name, t.Slug, t.Description, t.TenantID, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", s.kind, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update %s %s: %w", s.kind, t.ID, sql.ErrNoRows)
	}
	return nil
}

// SoftDelete marks terms as deleted and returns how many rows changed.
func (s *TermStore) SoftDelete(ctx context.Context, tenantID uuid.UUID, ids ...uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := execBuilt(ctx, s.db, psql.Update(s.table).
		Set("deleted_at", sq.Expr("NOW()")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"tenant_id": tenantID, "id": ids, "deleted_at": nil}))
	if err != nil {
		return 0, fmt.Errorf("soft delete %s: %w", s.table, err)
	}
	return n, nil
}

// UsageCount returns how many posts reference the term.
func (s *TermStore) UsageCount(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM `+s.join+` WHERE `+s.column+` = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("count %s usage: %w", s.kind, err)
	}
	return n, nil
}

// ForPosts loads the live terms attached to each post in postIDs, ordered
// by name within each post.
func (s *TermStore) ForPosts(ctx context.Context, postIDs []int64) ([]models.PostTerm, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var rows []models.PostTerm
	b := psql.Select("j.post_id", termColumns).
		From(s.join + " j").
		Join(s.table + " t ON t.id = j." + s.column).
		Where(sq.Eq{"j.post_id": postIDs, "t.deleted_at": nil}).
		OrderBy("j.post_id", "t.name")
	if err := selectBuilt(ctx, s.db, &rows, b); err != nil {
		return nil, fmt.Errorf("load %s for posts: %w", s.table, err)
	}
	return rows, nil
}

// PostIDs returns the ids of posts linked to the term.
func (s *TermStore) PostIDs(ctx context.Context, termID uuid.UUID) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		`SELECT post_id FROM `+s.join+` WHERE `+s.column+` = $1`, termID)
	if err != nil {
		return nil, fmt.Errorf("list posts for %s: %w", s.kind, err)
	}
	return ids, nil
}

// ReplaceForPost deletes every association of the post and inserts one row
// per term in termIDs.
func (s *TermStore) ReplaceForPost(ctx context.Context, postID int64, termIDs []uuid.UUID) error {
	if _, err := s.DeleteForPosts(ctx, []int64{postID}); err != nil {
		return err
	}
	return s.Attach(ctx, postID, termIDs)
}

// Attach bulk-inserts join rows for the post. Duplicate ids are ignored.
func (s *TermStore) Attach(ctx context.Context, postID int64, termIDs []uuid.UUID) error {
	if len(termIDs) == 0 {
		return nil
	}
	ins := psql.Insert(s.join).Columns("post_id", s.column)
	for _, id := range termIDs {
		ins = ins.Values(postID, id)
	}
	if _, err := execBuilt(ctx, s.db, ins.Suffix("ON CONFLICT DO NOTHING")); err != nil {
		return fmt.Errorf("attach %s to post: %w", s.table, err)
	}
	return nil
}

// DeleteForPosts removes every association of the given posts and returns
// the number of join rows removed.
func (s *TermStore) DeleteForPosts(ctx context.Context, postIDs []int64) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	n, err := execBuilt(ctx, s.db, psql.Delete(s.join).Where(sq.Eq{"post_id": postIDs}))
	if err != nil {
		return 0, fmt.Errorf("delete %s associations: %w", s.kind, err)
	}
	return n, nil
}

// PurgeDeleted hard-deletes terms soft-deleted before cutoff across all
// tenants. Join rows cascade.
func (s *TermStore) PurgeDeleted(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := execBuilt(ctx, s.db, psql.Delete(s.table).
		Where(sq.NotEq{"deleted_at": nil}).
		Where(sq.Lt{"deleted_at": cutoff}))
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", s.table, err)
	}
	return n, nil
}
