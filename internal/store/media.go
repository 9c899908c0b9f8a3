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

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"tenantcms/internal/models"
)

// MediaStore handles all media-related database operations.
type MediaStore struct {
	db DBTX
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db DBTX) *MediaStore {
	return &MediaStore{db: db}
}

// WithTx returns a copy of the store bound to tx.
func (s *MediaStore) WithTx(tx DBTX) *MediaStore {
	return &MediaStore{db: tx}
}

// mediaColumns lists the columns selected in media queries.
const mediaColumns = `id, uuid, tenant_id, file_name, storage_key, thumb_storage_key, url, thumb_url,
	file_type, file_size, alt_text, width, height, uploaded_by, created_at, updated_at`

// mediaSorts is the allow-list of sortable fields.
var mediaSorts = map[string]string{
	"fileName":  "file_name",
	"createdAt": "created_at",
	"fileSize":  "file_size",
}

// MediaListQuery filters and pages a media listing.
type MediaListQuery struct {
	Search string
	Class  string // image, video or document; empty for all
	Sort   string
	Order  string
	Page   models.PageRequest
}

// classFilter returns the WHERE fragment selecting a coarse media class.
func classFilter(class string) (sq.Sqlizer, bool) {
	switch class {
	case models.MediaClassImage:
		return sq.Like{"file_type": "image/%"}, true
	case models.MediaClassVideo:
		return sq.Like{"file_type": "video/%"}, true
	case models.MediaClassDocument:
		return sq.Eq{"file_type": models.DocumentTypes()}, true
	}
	return nil, false
}

// List returns one page of media plus the total number of matches.
func (s *MediaStore) List(ctx context.Context, tenantID uuid.UUID, q MediaListQuery) ([]models.Media, int, error) {
	base := psql.Select().From("media").Where(sq.Eq{"tenant_id": tenantID})
	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + search + "%"
		base = base.Where(sq.Or{sq.ILike{"file_name": like}, sq.ILike{"alt_text": like}})
	}
	if f, ok := classFilter(q.Class); ok {
		base = base.Where(f)
	}

	total, err := countBuilt(ctx, s.db, base)
	if err != nil {
		return nil, 0, fmt.Errorf("count media: %w", err)
	}

	page := q.Page.Normalize()
	list := base.Columns(mediaColumns).
		OrderBy(orderClause(mediaSorts, q.Sort, q.Order, "createdAt"), "id DESC")
	list = paginate(list, page.Limit, page.Offset())

	var items []models.Media
	if err := selectBuilt(ctx, s.db, &items, list); err != nil {
		return nil, 0, fmt.Errorf("list media: %w", err)
	}
	return items, total, nil
}

// FindByIdentifier retrieves a media row by internal id or public UUID.
// Returns nil if not found.
func (s *MediaStore) FindByIdentifier(ctx context.Context, tenantID uuid.UUID, id models.Identifier) (*models.Media, error) {
	var m models.Media
	err := getBuilt(ctx, s.db, &m, psql.Select(mediaColumns).From("media").
		Where(sq.Eq{"tenant_id": tenantID}).
		Where(identifierPredicate("", id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media %s: %w", id, err)
	}
	return &m, nil
}

// FindByIDs loads the media rows with the given internal ids.
func (s *MediaStore) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []int64) ([]models.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Media
	q := psql.Select(mediaColumns).From("media").Where(sq.Eq{"tenant_id": tenantID, "id": ids})
	if err := selectBuilt(ctx, s.db, &items, q); err != nil {
		return nil, fmt.Errorf("find media by ids: %w", err)
	}
	return items, nil
}

// FindByUUIDs loads the media rows with the given public ids.
func (s *MediaStore) FindByUUIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Media
	q := psql.Select(mediaColumns).From("media").Where(sq.Eq{"tenant_id": tenantID, "uuid": ids})
	if err := selectBuilt(ctx, s.db, &items, q); err != nil {
		return nil, fmt.Errorf("find media by uuids: %w", err)
	}
	return items, nil
}

// Create inserts a new media record and returns it with the generated ids.
func (s *MediaStore) Create(ctx context.Context, m *models.Media) (*models.Media, error) {
	var out models.Media
	err := s.db.GetContext(ctx, &out, `
		INSERT INTO media (tenant_id, file_name, storage_key, thumb_storage_key, url, thumb_url,
			file_type, file_size, alt_text, width, height, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+mediaColumns,
		m.TenantID, m.FileName, m.StorageKey, m.ThumbStorageKey, m.URL, m.ThumbURL,
		m.FileType, m.FileSize, m.AltText, m.Width, m.Height, m.UploadedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return &out, nil
}

// Update writes the editable fields (file name and alt text) back.
func (s *MediaStore) Update(ctx context.Context, m *models.Media) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE media SET file_name = $1, alt_text = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND id = $4`,
		m.FileName, m.AltText, m.TenantID, m.ID,
	)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	return nil
}

// Delete removes media rows by internal id and returns how many were removed.
func (s *MediaStore) Delete(ctx context.Context, tenantID uuid.UUID, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := execBuilt(ctx, s.db, psql.Delete("media").Where(sq.Eq{"tenant_id": tenantID, "id": ids}))
	if err != nil {
		return 0, fmt.Errorf("delete media: %w", err)
	}
	return n, nil
}

// References counts the posts (featured image) and SEO rows (social images)
// that point at the media row.
func (s *MediaStore) References(ctx context.Context, id int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT
			(SELECT COUNT(*) FROM posts WHERE featured_image_id = $1) +
			(SELECT COUNT(*) FROM seo_metadata WHERE og_image_id = $1 OR twitter_image_id = $1) +
			(SELECT COUNT(*) FROM post_videos WHERE media_id = $1)`, id)
	if err != nil {
		return 0, fmt.Errorf("count media references: %w", err)
	}
	return n, nil
}

// TypeTotal is the per-MIME-type aggregate returned by Totals.
type TypeTotal struct {
	FileType string `db:"file_type"`
	Count    int    `db:"count"`
	Bytes    int64  `db:"bytes"`
}

// Totals aggregates the tenant's media count and size per MIME type.
func (s *MediaStore) Totals(ctx context.Context, tenantID uuid.UUID) ([]TypeTotal, error) {
	var rows []TypeTotal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT file_type, COUNT(*) AS count, COALESCE(SUM(file_size), 0) AS bytes
		FROM media WHERE tenant_id = $1
		GROUP BY file_type`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("media totals: %w", err)
	}
	return rows, nil
}

// identifierPredicate matches the id or uuid column against an Identifier.
// prefix qualifies the columns, e.g. "p." for an aliased table.
func identifierPredicate(prefix string, id models.Identifier) sq.Sqlizer {
	if u, ok := id.Public(); ok {
		return sq.Eq{prefix + "uuid": u}
	}
	n, _ := id.Internal()
	return sq.Eq{prefix + "id": n}
}
