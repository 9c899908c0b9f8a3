// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"tenantcms/internal/apperr"
	"tenantcms/internal/auth"
	"tenantcms/internal/store"
)

// totpIssuer names the account in authenticator apps.
const totpIssuer = "TenantCMS"

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      AuthorView `json:"user"`
	TenantID  uuid.UUID  `json:"tenantId"`
}

// AuthService exchanges credentials for a tenant-scoped bearer token.
type AuthService struct {
	users   *store.UserStore
	tenants *store.TenantStore
	tokens  *auth.TokenManager
}

// NewAuthService creates an AuthService.
func NewAuthService(users *store.UserStore, tenants *store.TenantStore, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tenants: tenants, tokens: tokens}
}

// Login checks the credentials and issues a token for the user's tenant.
// Unknown emails and wrong passwords get the same answer. Users with
// two-factor authentication enabled must also pass a current TOTP code.
func (s *AuthService) Login(ctx context.Context, email, password, code string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required.")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.users.CheckPassword(user, password) {
		slog.Info("login rejected", "email", email)
		return nil, apperr.Unauthorized("Invalid email or password.")
	}
	if user.NeedsTOTP() {
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, apperr.Unauthorized("Two-factor code required.").
				WithDetails(map[string]bool{"totp_required": true})
		}
		if !totp.Validate(code, *user.TOTPSecret) {
			slog.Info("login rejected: bad totp code", "user_id", user.ID)
			return nil, apperr.Unauthorized("Invalid two-factor code.")
		}
	}

	tenant, err := s.tenants.FindByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil || !tenant.IsActive {
		return nil, apperr.Forbidden("Tenant is inactive or does not exist.")
	}

	token, expires, err := s.tokens.Generate(auth.Identity{TenantID: tenant.ID, UserID: user.ID}, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	slog.Info("user logged in", "user_id", user.ID, "tenant_id", tenant.ID)
	return &LoginResult{
		Token:     token,
		ExpiresAt: expires,
		User:      NewAuthorView(user),
		TenantID:  tenant.ID,
	}, nil
}

// TOTPSetup is the enrolment material for an authenticator app. QRCode is
// a base64 PNG of URL.
type TOTPSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	QRCode string `json:"qrCode"`
}

// SetupTOTP generates and stores a new TOTP secret for the user. The secret
// stays inactive until ConfirmTOTP sees a valid code for it.
func (s *AuthService) SetupTOTP(ctx context.Context, userID uuid.UUID) (*TOTPSetup, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User not found.")
	}
	if user.TOTPEnabled {
		return nil, apperr.Conflict("Two-factor authentication is already enabled.")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}
	if err := s.users.SetTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("render totp qr code: %w", err)
	}

	slog.Info("totp setup started", "user_id", user.ID)
	return &TOTPSetup{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: base64.StdEncoding.EncodeToString(png),
	}, nil
}

// ConfirmTOTP enables two-factor authentication once the user proves their
// authenticator produces valid codes for the pending secret.
func (s *AuthService) ConfirmTOTP(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("User not found.")
	}
	if user.TOTPEnabled {
		return apperr.Conflict("Two-factor authentication is already enabled.")
	}
	if user.TOTPSecret == nil {
		return apperr.Validation("Start two-factor setup first.")
	}
	if !totp.Validate(strings.TrimSpace(code), *user.TOTPSecret) {
		return apperr.Validation("Invalid two-factor code.")
	}
	if err := s.users.EnableTOTP(ctx, user.ID); err != nil {
		return err
	}
	slog.Info("totp enabled", "user_id", user.ID)
	return nil
}
