// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"tenantcms/internal/database"
	"tenantcms/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "tenantcms")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "tenantcms")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Connect(context.Background(), testDSN())
	if err != nil {
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db.DB); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testTenant creates an isolated tenant for one test. Deleting the tenant
// at cleanup cascades to everything the test created inside it.
func testTenant(t *testing.T, db *sqlx.DB) *models.Tenant {
	t.Helper()
	tenant, err := NewTenantStore(db).Create(context.Background(), "Store Test", "store-test-"+uuid.NewString()[:8], true)
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		// post_videos has no cascading keys; clear it before the tenant goes.
		db.ExecContext(ctx, `DELETE FROM post_videos WHERE post_id IN (SELECT id FROM posts WHERE tenant_id = $1)`, tenant.ID)
		db.ExecContext(ctx, `DELETE FROM post_categories WHERE post_id IN (SELECT id FROM posts WHERE tenant_id = $1)`, tenant.ID)
		db.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id IN (SELECT id FROM posts WHERE tenant_id = $1)`, tenant.ID)
		NewTenantStore(db).Delete(ctx, tenant.ID)
	})
	return tenant
}

func TestRunInTxCommits(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	ctx := context.Background()
	terms := NewTermStore(db, models.TermCategory)

	var created *models.Term
	err := RunInTx(ctx, db, func(tx *sqlx.Tx) error {
		var err error
		created, err = terms.WithTx(tx).Create(ctx, &models.Term{TenantID: tenant.ID, Name: "Committed", Slug: "committed"})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}

	found, err := terms.FindByID(ctx, tenant.ID, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil {
		t.Fatal("expected committed term to be visible")
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	ctx := context.Background()
	terms := NewTermStore(db, models.TermCategory)

	boom := errors.New("boom")
	err := RunInTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := terms.WithTx(tx).Create(ctx, &models.Term{TenantID: tenant.ID, Name: "Ghost", Slug: "ghost"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}

	found, err := terms.FindBySlug(ctx, tenant.ID, "ghost")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if found != nil {
		t.Error("expected rolled back term to be absent")
	}
}

func TestRunInTxRollsBackOnPanic(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	ctx := context.Background()
	terms := NewTermStore(db, models.TermTag)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		RunInTx(ctx, db, func(tx *sqlx.Tx) error {
			terms.WithTx(tx).Create(ctx, &models.Term{TenantID: tenant.ID, Name: "Panic", Slug: "panic"})
			panic("mid-transaction")
		})
	}()

	found, _ := terms.FindBySlug(ctx, tenant.ID, "panic")
	if found != nil {
		t.Error("expected term created before panic to be rolled back")
	}
}

func TestWithSavepointKeepsTransactionUsable(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	ctx := context.Background()
	terms := NewTermStore(db, models.TermCategory)

	if _, err := terms.Create(ctx, &models.Term{TenantID: tenant.ID, Name: "Taken", Slug: "taken"}); err != nil {
		t.Fatalf("seed term: %v", err)
	}

	err := RunInTx(ctx, db, func(tx *sqlx.Tx) error {
		txTerms := terms.WithTx(tx)
		dupErr := WithSavepoint(ctx, tx, "term_slug", func() error {
			_, err := txTerms.Create(ctx, &models.Term{TenantID: tenant.ID, Name: "Taken", Slug: "taken"})
			return err
		})
		if dupErr == nil {
			t.Error("expected unique violation inside savepoint")
		}
		// The transaction must still accept statements.
		_, err := txTerms.Create(ctx, &models.Term{TenantID: tenant.ID, Name: "Taken", Slug: "taken-1"})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTx after savepoint rollback: %v", err)
	}

	found, _ := terms.FindBySlug(ctx, tenant.ID, "taken-1")
	if found == nil {
		t.Error("expected taken-1 to be committed")
	}
}
