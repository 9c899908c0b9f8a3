// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"tenantcms/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "create-" + uuid.NewString()[:8] + "@store-test.local"

	user, err := s.Create(ctx, tenant.ID, email, "testpass123", "Test User", models.RoleEditor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if user.TenantID != tenant.ID {
		t.Errorf("tenant: got %s, want %s", user.TenantID, tenant.ID)
	}
	if user.Email != email {
		t.Errorf("email: got %q, want %q", user.Email, email)
	}
	if user.Role != models.RoleEditor {
		t.Errorf("role: got %q, want %q", user.Role, models.RoleEditor)
	}
	if user.PasswordHash == "" || user.PasswordHash == "testpass123" {
		t.Error("password hash must be set and not plaintext")
	}
}

func TestUserStoreFindByEmail(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "find-" + uuid.NewString()[:8] + "@store-test.local"

	// Not found case.
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		t.Fatalf("FindByEmail (not found): %v", err)
	}
	if user != nil {
		t.Error("expected nil for non-existent user")
	}

	created, err := s.Create(ctx, tenant.ID, email, "pass", "Find Me", models.RoleAuthor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	user, err = s.FindByEmail(ctx, email)
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if user == nil || user.ID != created.ID {
		t.Fatalf("FindByEmail: got %+v, want id %s", user, created.ID)
	}
}

func TestUserStoreFindByIDs(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	other := testTenant(t, db)
	s := NewUserStore(db)
	ctx := context.Background()

	a, _ := s.Create(ctx, tenant.ID, "a-"+uuid.NewString()[:8]+"@store-test.local", "pw", "A", models.RoleAuthor)
	b, _ := s.Create(ctx, tenant.ID, "b-"+uuid.NewString()[:8]+"@store-test.local", "pw", "B", models.RoleAuthor)
	foreign, _ := s.Create(ctx, other.ID, "c-"+uuid.NewString()[:8]+"@store-test.local", "pw", "C", models.RoleAuthor)

	users, err := s.FindByIDs(ctx, tenant.ID, []uuid.UUID{a.ID, b.ID, foreign.ID, uuid.New()})
	if err != nil {
		t.Fatalf("FindByIDs: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users scoped to tenant, got %d", len(users))
	}

	none, err := s.FindByIDs(ctx, tenant.ID, nil)
	if err != nil || none != nil {
		t.Errorf("empty id set: got %v, %v", none, err)
	}
}

func TestUserStoreCheckPassword(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	s := NewUserStore(db)
	ctx := context.Background()

	user, err := s.Create(ctx, tenant.ID, "pw-"+uuid.NewString()[:8]+"@store-test.local", "correct-horse", "PW", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !s.CheckPassword(user, "correct-horse") {
		t.Error("expected correct password to match")
	}
	if s.CheckPassword(user, "wrong") {
		t.Error("expected wrong password to be rejected")
	}
}

func TestUserStoreTOTP(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	s := NewUserStore(db)
	ctx := context.Background()

	user, err := s.Create(ctx, tenant.ID, "totp-"+uuid.NewString()[:8]+"@store-test.local", "testpass123", "TOTP", models.RoleAuthor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.TOTPSecret != nil || user.TOTPEnabled {
		t.Fatal("new users start without 2FA")
	}

	// Enabling without a secret is a no-op.
	if err := s.EnableTOTP(ctx, user.ID); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}
	got, _ := s.FindByID(ctx, user.ID)
	if got.TOTPEnabled {
		t.Error("2FA must not be enabled without a secret")
	}

	if err := s.SetTOTPSecret(ctx, user.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetTOTPSecret: %v", err)
	}
	if err := s.EnableTOTP(ctx, user.ID); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}
	got, _ = s.FindByEmail(ctx, user.Email)
	if got.TOTPSecret == nil || *got.TOTPSecret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("secret: got %v", got.TOTPSecret)
	}
	if !got.TOTPEnabled || !got.NeedsTOTP() {
		t.Error("2FA should be enabled")
	}

	// A new secret disables 2FA until it is confirmed again.
	if err := s.SetTOTPSecret(ctx, user.ID, "KRSXG5CTMVRXEZLU"); err != nil {
		t.Fatalf("SetTOTPSecret: %v", err)
	}
	got, _ = s.FindByID(ctx, user.ID)
	if got.TOTPEnabled {
		t.Error("replacing the secret must disable 2FA")
	}
}
