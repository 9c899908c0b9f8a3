// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"tenantcms/internal/respond"
	"tenantcms/internal/service"
)

// Auth serves login and two-factor enrolment.
type Auth struct {
	svc  *service.AuthService
	errs respond.Writer
}

// NewAuth creates an Auth handler group.
func NewAuth(svc *service.AuthService, errs respond.Writer) *Auth {
	return &Auth{svc: svc, errs: errs}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// Login handles POST /api/auth/login and returns a bearer token.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeJSON(w, r, &body); err != nil {
		a.errs.Error(w, r, err)
		return
	}
	res, err := a.svc.Login(r.Context(), body.Email, body.Password, body.Code)
	if err != nil {
		a.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "Logged in.", res)
}

// SetupTOTP handles POST /api/auth/totp/setup. It returns a fresh secret and
// its QR code for the caller's authenticator app.
func (a *Auth) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	setup, err := a.svc.SetupTOTP(r.Context(), id.UserID)
	if err != nil {
		a.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "Scan the QR code, then confirm with a code.", setup)
}

type totpConfirmRequest struct {
	Code string `json:"code"`
}

// ConfirmTOTP handles POST /api/auth/totp/confirm and enables two-factor
// authentication for the caller.
func (a *Auth) ConfirmTOTP(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var body totpConfirmRequest
	if err := decodeJSON(w, r, &body); err != nil {
		a.errs.Error(w, r, err)
		return
	}
	if err := a.svc.ConfirmTOTP(r.Context(), id.UserID, body.Code); err != nil {
		a.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "Two-factor authentication enabled.", nil)
}
