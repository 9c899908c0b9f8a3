// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"tenantcms/internal/respond"
	"tenantcms/internal/service"
	"tenantcms/internal/store"
)

// Terms serves the category or tag endpoints, depending on the service kind.
type Terms struct {
	svc  *service.TermService
	errs respond.Writer
}

// NewTerms creates a Terms handler group.
func NewTerms(svc *service.TermService, errs respond.Writer) *Terms {
	return &Terms{svc: svc, errs: errs}
}

func (h *Terms) label() string { return h.svc.Kind().Label() }

// List handles GET / with search, sort, order, page and limit.
func (h *Terms) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	sort, order, err := sortOrder(r)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}

	result, err := h.svc.List(r.Context(), id.TenantID, store.TermListQuery{
		Search: r.URL.Query().Get("search"),
		Sort:   sort,
		Order:  order,
		Page:   page,
	})
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", result)
}

// Get handles GET /{id}.
func (h *Terms) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	termID, err := uuidParam(r, "id")
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	v, err := h.svc.Get(r.Context(), id.TenantID, termID)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", v)
}

// Create handles POST /.
func (h *Terms) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var in service.TermInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.errs.Error(w, r, err)
		return
	}
	v, err := h.svc.Create(r.Context(), id.TenantID, in)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusCreated, fmt.Sprintf("%s created.", h.label()), v)
}

// Update handles PUT and PATCH /{id}.
func (h *Terms) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	termID, err := uuidParam(r, "id")
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	var patch service.TermPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.errs.Error(w, r, err)
		return
	}
	v, err := h.svc.Update(r.Context(), id.TenantID, termID, patch)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, fmt.Sprintf("%s updated.", h.label()), v)
}

// Delete handles DELETE /{id}.
func (h *Terms) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	termID, err := uuidParam(r, "id")
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	res, err := h.svc.Delete(r.Context(), id.TenantID, termID)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, fmt.Sprintf("%s deleted.", h.label()), res)
}

// BulkDelete handles POST /bulk-delete with {"ids": [...]}.
func (h *Terms) BulkDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	ids, err := bulkIDs(w, r)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	res, err := h.svc.BulkDelete(r.Context(), id.TenantID, ids)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, fmt.Sprintf("%d %s deleted.", res.DeletedCount, strings.ToLower(h.label())+"(s)"), res)
}
