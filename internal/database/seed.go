package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// Default development credentials created by Seed.
const (
	SeedTenantSlug    = "demo"
	SeedAdminEmail    = "admin@tenantcms.local"
	seedAdminPassword = "admin"
)

// Seed populates the database with initial development data.
// It creates a demo tenant and an admin user inside it if no tenant exists.
func Seed(ctx context.Context, db *sqlx.DB) error {
	// Check if any tenants exist already.
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM tenants"); err != nil {
		return fmt.Errorf("seed check tenants: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// Hash the default admin password.
	hash, err := bcrypt.GenerateFromPassword([]byte(seedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var tenantID string
	err = tx.GetContext(ctx, &tenantID, `
		INSERT INTO tenants (name, slug, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (slug) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, "Demo", SeedTenantSlug)
	if err != nil {
		return fmt.Errorf("seed insert tenant: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (tenant_id, email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
	`, tenantID, SeedAdminEmail, string(hash), "Admin", "admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo tenant and admin user",
		"tenant", SeedTenantSlug,
		"email", SeedAdminEmail,
		"password", seedAdminPassword,
	)

	return nil
}
