// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"tenantcms/internal/apperr"
	"tenantcms/internal/models"
	"tenantcms/internal/respond"
	"tenantcms/internal/service"
	"tenantcms/internal/store"
)

const (
	// maxUploadSize is the maximum size of one upload request (50 MB).
	maxUploadSize = 50 << 20

	// maxUploadFiles caps the number of files per request.
	maxUploadFiles = 20
)

// Media serves the media library endpoints.
type Media struct {
	svc  *service.MediaService
	errs respond.Writer
}

// NewMedia creates a Media handler group.
func NewMedia(svc *service.MediaService, errs respond.Writer) *Media {
	return &Media{svc: svc, errs: errs}
}

// List handles GET / with search, type, sort, order, page and limit.
func (h *Media) List(w http.ResponseWriter, r *http.Request) {
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
	class := r.URL.Query().Get("type")
	switch class {
	case "", models.MediaClassImage, models.MediaClassVideo, models.MediaClassDocument:
	default:
		h.errs.Error(w, r, apperr.Validation("Invalid type %q: use image, video or document.", class))
		return
	}

	result, err := h.svc.List(r.Context(), id.TenantID, store.MediaListQuery{
		Search: r.URL.Query().Get("search"),
		Class:  class,
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

// Stats handles GET /stats.
func (h *Media) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(r.Context(), id.TenantID)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", stats)
}

// Get handles GET /{id}; id is the internal id or the UUID.
func (h *Media) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	mediaID, err := identifierParam(r, "id")
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	v, err := h.svc.Get(r.Context(), id.TenantID, mediaID)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "", v)
}

// Update handles PATCH /{id} with fileName and altText.
func (h *Media) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	mediaID, err := identifierParam(r, "id")
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	var patch service.MediaPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.errs.Error(w, r, err)
		return
	}
	v, err := h.svc.Update(r.Context(), id.TenantID, mediaID, patch)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "Media updated.", v)
}

// Delete handles DELETE /{id}.
func (h *Media) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	mediaID, err := identifierParam(r, "id")
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	res, err := h.svc.Delete(r.Context(), id.TenantID, mediaID)
	if err != nil {
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusOK, "Media deleted.", res)
}

// BulkDelete handles POST /bulk-delete with {"ids": [...]}.
func (h *Media) BulkDelete(w http.ResponseWriter, r *http.Request) {
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
	respond.OK(w, http.StatusOK, fmt.Sprintf("%d media item(s) deleted.", res.DeletedCount), res)
}

// Upload handles POST /upload as multipart/form-data: one or more "files"
// (or "file") parts, an optional "kind" (content, featured, document) and
// optional "altText" values matched to the files by position.
func (h *Media) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	// Limit request body to maxUploadSize + some overhead for form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Fail(w, http.StatusRequestEntityTooLarge, "Upload too large. Maximum size is 50 MB.", nil)
			return
		}
		h.errs.Error(w, r, apperr.Validation("Invalid multipart form."))
		return
	}
	defer r.MultipartForm.RemoveAll()

	kind, ok := models.ParseUploadKind(r.FormValue("kind"))
	if !ok {
		h.errs.Error(w, r, apperr.Validation("Invalid upload kind %q.", r.FormValue("kind")))
		return
	}

	headers := r.MultipartForm.File["files"]
	headers = append(headers, r.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		h.errs.Error(w, r, apperr.Validation("No file uploaded."))
		return
	}
	if len(headers) > maxUploadFiles {
		h.errs.Error(w, r, apperr.Validation("At most %d files can be uploaded at once.", maxUploadFiles))
		return
	}

	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readUpload(fh)
		if err != nil {
			h.errs.Error(w, r, err)
			return
		}
		files = append(files, f)
	}

	views, err := h.svc.Upload(r.Context(), id.TenantID, id.UserID, files, service.UploadOptions{
		Kind:    kind,
		AltText: r.MultipartForm.Value["altText"],
	})
	if err != nil {
		if errors.Is(err, service.ErrStorageDisabled) {
			respond.Fail(w, http.StatusServiceUnavailable, "Object storage is not configured.", nil)
			return
		}
		h.errs.Error(w, r, err)
		return
	}
	respond.OK(w, http.StatusCreated, fmt.Sprintf("%d file(s) uploaded.", len(views)), views)
}

// readUpload reads one multipart file and detects its type from the first
// 512 bytes rather than trusting the client's Content-Type.
func readUpload(fh *multipart.FileHeader) (service.UploadFile, error) {
	file, err := fh.Open()
	if err != nil {
		return service.UploadFile{}, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return service.UploadFile{}, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}
	if len(data) == 0 {
		return service.UploadFile{}, apperr.Validation("File %q is empty.", fh.Filename)
	}
	return service.UploadFile{
		FileName:    filepath.Base(fh.Filename),
		ContentType: sniffType(fh.Filename, data),
		Data:        data,
	}, nil
}

// sniffType detects the MIME type of data. DetectContentType reports SVG as
// text/xml or text/plain, so an .svg name with such content is image/svg+xml.
func sniffType(name string, data []byte) string {
	contentType := http.DetectContentType(data[:min(len(data), 512)])
	if strings.HasSuffix(strings.ToLower(name), ".svg") &&
		(strings.Contains(contentType, "xml") || strings.Contains(contentType, "text/plain")) {
		return "image/svg+xml"
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return contentType
}
