// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"tenantcms/internal/models"
)

// SEOStore manages the per-entity SEO metadata rows.
type SEOStore struct {
	db DBTX
}

// NewSEOStore creates a new SEOStore with the given database connection.
func NewSEOStore(db DBTX) *SEOStore {
	return &SEOStore{db: db}
}

// WithTx returns a copy of the store bound to tx.
func (s *SEOStore) WithTx(tx DBTX) *SEOStore {
	return &SEOStore{db: tx}
}

const seoColumns = `id, uuid, tenant_id, entity_type, entity_id, meta_title, meta_description,
	canonical_url, og_title, og_description, og_image_id, twitter_title, twitter_description,
	twitter_image_id, focus_keyword, created_at, updated_at`

// FindForEntity returns the SEO row attached to one entity. Returns nil if
// the entity has none.
func (s *SEOStore) FindForEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) (*models.SEO, error) {
	var m models.SEO
	err := s.db.GetContext(ctx, &m, `
		SELECT `+seoColumns+` FROM seo_metadata
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3`,
		tenantID, entityType, entityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find seo: %w", err)
	}
	return &m, nil
}

// ForEntities batch-loads the SEO rows for a set of entities of one type.
func (s *SEOStore) ForEntities(ctx context.Context, tenantID uuid.UUID, entityType string, ids []uuid.UUID) ([]models.SEO, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.SEO
	q := psql.Select(seoColumns).From("seo_metadata").
		Where(sq.Eq{"tenant_id": tenantID, "entity_type": entityType, "entity_id": ids})
	if err := selectBuilt(ctx, s.db, &rows, q); err != nil {
		return nil, fmt.Errorf("load seo rows: %w", err)
	}
	return rows, nil
}

// Create inserts a new SEO row and returns it.
func (s *SEOStore) Create(ctx context.Context, m *models.SEO) (*models.SEO, error) {
	var out models.SEO
	err := s.db.GetContext(ctx, &out, `
		INSERT INTO seo_metadata (tenant_id, entity_type, entity_id, meta_title, meta_description,
			canonical_url, og_title, og_description, og_image_id, twitter_title,
			twitter_description, twitter_image_id, focus_keyword)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+seoColumns,
		m.TenantID, m.EntityType, m.EntityID, m.MetaTitle, m.MetaDescription,
		m.CanonicalURL, m.OGTitle, m.OGDescription, m.OGImageID, m.TwitterTitle,
		m.TwitterDescription, m.TwitterImageID, m.FocusKeyword,
	)
	if err != nil {
		return nil, fmt.Errorf("create seo: %w", err)
	}
	return &out, nil
}

// Update writes every metadata field of an existing row back.
func (s *SEOStore) Update(ctx context.Context, m *models.SEO) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE seo_metadata SET
			meta_title = $1, meta_description = $2, canonical_url = $3,
			og_title = $4, og_description = $5, og_image_id = $6,
			twitter_title = $7, twitter_description = $8, twitter_image_id = $9,
			focus_keyword = $10, updated_at = NOW()
		WHERE id = $11 AND tenant_id = $12`,
		m.MetaTitle, m.MetaDescription, m.CanonicalURL,
		m.OGTitle, m.OGDescription, m.OGImageID,
		m.TwitterTitle, m.TwitterDescription, m.TwitterImageID,
		m.FocusKeyword, m.ID, m.TenantID,
	)
	if err != nil {
		return fmt.Errorf("update seo: %w", err)
	}
	return nil
}

// DeleteForEntities removes the SEO rows of the given entities and returns
// how many were removed.
func (s *SEOStore) DeleteForEntities(ctx context.Context, tenantID uuid.UUID, entityType string, ids ...uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := execBuilt(ctx, s.db, psql.Delete("seo_metadata").
		Where(sq.Eq{"tenant_id": tenantID, "entity_type": entityType, "entity_id": ids}))
	if err != nil {
		return 0, fmt.Errorf("delete seo rows: %w", err)
	}
	return n, nil
}
