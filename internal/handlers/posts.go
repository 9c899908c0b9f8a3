// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tenantcms/internal/respond"
	"tenantcms/internal/service"
)

// Posts serves the post endpoints.
type Posts struct {
	svc  *service.PostService
	errs respond.Writer
}

// NewPosts creates a Posts handler group.
func NewPosts(svc *service.PostService, errs respond.Writer) *Posts {
	return &Posts{svc: svc, errs: errs}
}

// postFilter reads the list query: status, authorId, categoryId,
// categorySlug, tagId, tagSlug, search, from, to, sort, order, page, limit.
func postFilter(r *http.Request) (service.PostFilter, error) {
	q := r.URL.Query()
	f := service.PostFilter{
		Status:       q.Get("status"),
		AuthorID:     q.Get("authorId"),
		CategoryID:   q.Get("categoryId"),
		CategorySlug: q.Get("categorySlug"),
		TagID:        q.Get("tagId"),
		TagSlug:      q.Get("tagSlug"),
		Search:       q.Get("search"),
	}
	var err error
	if f.Page, err = pageRequest(r); err != nil {
		return f, err
	}
	if f.Sort, f.Order, err = sortOrder(r); err != nil {
		return f, err
	}
	if f.From, err = timeParam(r, "from", false); err != nil {
		return f, err
	}
	if f.To, err = timeParam(r, "to", true); err != nil {
		return f, err
	}
	return f, nil
}

// List handles GET /.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	f, err := postFilter(r)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	page, err := h.svc.List(r.Context(), id.TenantID, f)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", page)
}

// ListByCategory handles GET /by-category/{slug}.
func (h *Posts) ListByCategory(w http.ResponseWriter, r *http.Request) {
	h.listByTerm(w, r, h.svc.ListByCategory)
}

// ListByTag handles GET /by-tag/{slug}.
func (h *Posts) ListByTag(w http.ResponseWriter, r *http.Request) {
	h.listByTerm(w, r, h.svc.ListByTag)
}

// listByTerm serves a post listing scoped to the term named by {slug}.
func (h *Posts) listByTerm(w http.ResponseWriter, r *http.Request,
	list func(context.Context, uuid.UUID, string, service.PostFilter) (*service.TermPostsPage, error)) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	f, err := postFilter(r)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	page, err := list(r.Context(), id.TenantID, chi.URLParam(r, "slug"), f)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", page)
}

// Get handles GET /{lookup}: internal id, UUID or slug.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Get(r.Context(), id.TenantID, chi.URLParam(r, "lookup"))
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", d)
}

// Create handles POST /. The caller becomes the author.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var in service.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.errs.Error(w, r, err)
		return
	}
	v, err := h.svc.Create(r.Context(), id.TenantID, id.UserID, in)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusCreated, "Post created.", v)
}

// Edit handles PUT and PATCH /{id}. Only the fields present in the body
// change.
func (h *Posts) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	postID, err := identifierParam(r, "lookup")
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	var patch service.PostPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.errs.Error(w, r, err)
		return
	}
	v, err := h.svc.Edit(r.Context(), id.TenantID, postID, patch)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "Post updated.", v)
}

// Archive handles POST /{id}/archive.
func (h *Posts) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	postID, err := identifierParam(r, "lookup")
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	v, err := h.svc.Archive(r.Context(), id.TenantID, postID)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "Post archived.", v)
}

// Delete handles DELETE /{id}.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	postID, err := identifierParam(r, "lookup")
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	res, err := h.svc.Delete(r.Context(), id.TenantID, postID)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "Post deleted.", res)
}

// BulkDelete handles POST /bulk-delete with {"ids": [...]}.
func (h *Posts) BulkDelete(w http.ResponseWriter, r *http.Request) {
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
	respond.OK(w, http.StatusOK, fmt.Sprintf("%d post(s) deleted.", res.DeletedCount), res)
}
