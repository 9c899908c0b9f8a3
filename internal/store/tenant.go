// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tenantcms/internal/models"
)

// TenantStore reads tenant accounts. Tenants are provisioned out of band
// and never deleted by the content services.
type TenantStore struct {
	db DBTX
}

// NewTenantStore returns a new TenantStore.
func NewTenantStore(db DBTX) *TenantStore {
	return &TenantStore{db: db}
}

const tenantColumns = `id, name, slug, is_active, created_at, updated_at`

// FindByID retrieves a tenant by ID. Returns nil if not found.
func (s *TenantStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	err := s.db.GetContext(ctx, &t, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tenant by id: %w", err)
	}
	return &t, nil
}

// Create inserts a new tenant and returns it.
func (s *TenantStore) Create(ctx context.Context, name, slug string, active bool) (*models.Tenant, error) {
	var t models.Tenant
	err := s.db.GetContext(ctx, &t, `
		INSERT INTO tenants (name, slug, is_active)
		VALUES ($1, $2, $3)
		RETURNING `+tenantColumns,
		name, slug, active,
	)
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return &t, nil
}

// SetActive toggles a tenant's active flag.
func (s *TenantStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tenants SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set tenant active: %w", err)
	}
	return nil
}

// Delete removes a tenant and, through cascading keys, everything it owns.
// Only used to clean up test fixtures.
func (s *TenantStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	return nil
}
