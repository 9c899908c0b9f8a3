// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"tenantcms/internal/apperr"
	"tenantcms/internal/cache"
	"tenantcms/internal/imaging"
	"tenantcms/internal/models"
	"tenantcms/internal/observability/metrics"
	"tenantcms/internal/storage"
	"tenantcms/internal/store"
)

// Field limits for media.
const (
	maxFileName = 255
	maxAltText  = 500
)

// ErrStorageDisabled is returned by uploads when no object storage is
// configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// MediaPatch is a sparse media update; nil fields are left alone.
type MediaPatch struct {
	FileName *string `json:"fileName"`
	AltText  *string `json:"altText"`
}

// UploadFile is one file of an upload request with its sniffed MIME type.
type UploadFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// UploadOptions selects the accepted MIME types and per-file alt texts.
// AltText[i] belongs to the i-th file; missing entries mean no alt text.
type UploadOptions struct {
	Kind    models.UploadKind
	AltText []string
}

// MediaUsage explains why a media item cannot be deleted.
type MediaUsage struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"fileName"`
	References int       `json:"references"`
}

// MediaStats summarizes a tenant's library by coarse class.
type MediaStats struct {
	Images             int    `json:"images"`
	Videos             int    `json:"videos"`
	Documents          int    `json:"documents"`
	Other              int    `json:"other"`
	TotalCount         int    `json:"totalCount"`
	TotalSize          int64  `json:"totalSize"`
	TotalSizeFormatted string `json:"totalSizeFormatted"`
}

// MediaService implements the media library: listing, metadata edits,
// reference-checked deletes and uploads to object storage.
type MediaService struct {
	db    *sqlx.DB
	media *store.MediaStore
	blobs BlobStore
	cache *cache.PostCache
	now   func() time.Time
}

// NewMediaService creates a MediaService. blobs may be nil, in which case
// uploads fail and deletes only remove rows.
func NewMediaService(db *sqlx.DB, blobs BlobStore, postCache *cache.PostCache) *MediaService {
	return &MediaService{
		db:    db,
		media: store.NewMediaStore(db),
		blobs: blobs,
		cache: postCache,
		now:   time.Now,
	}
}

// List returns one page of media matching q.
func (s *MediaService) List(ctx context.Context, tenantID uuid.UUID, q store.MediaListQuery) (*Page[MediaView], error) {
	items, total, err := s.media.List(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	views := make([]MediaView, 0, len(items))
	for i := range items {
		views = append(views, NewMediaView(&items[i]))
	}
	return &Page[MediaView]{
		Items:      views,
		Pagination: models.NewPagination(q.Page.Normalize(), total, len(views)),
	}, nil
}

// Get returns one media item by internal id or public UUID.
func (s *MediaService) Get(ctx context.Context, tenantID uuid.UUID, id models.Identifier) (*MediaView, error) {
	m, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	v := NewMediaView(m)
	return &v, nil
}

func (s *MediaService) find(ctx context.Context, tenantID uuid.UUID, id models.Identifier) (*models.Media, error) {
	m, err := s.media.FindByIdentifier(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound("Media not found.")
	}
	return m, nil
}

// Update changes the file name and/or alt text.
func (s *MediaService) Update(ctx context.Context, tenantID uuid.UUID, id models.Identifier, patch MediaPatch) (*MediaView, error) {
	m, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if patch.FileName != nil {
		name, err := requireText("File name", *patch.FileName, maxFileName)
		if err != nil {
			return nil, err
		}
		m.FileName = name
	}
	if patch.AltText != nil {
		alt := strings.TrimSpace(*patch.AltText)
		if err := maxLength("Alt text", alt, maxAltText); err != nil {
			return nil, err
		}
		m.AltText = alt
	}
	if err := s.media.Update(ctx, m); err != nil {
		return nil, err
	}
	s.cache.InvalidateTenant(ctx, tenantID)
	return s.Get(ctx, tenantID, models.InternalID(m.ID))
}

// Delete removes a media item that nothing references. The reference check
// and the row delete share one transaction; stored objects are removed only
// after it commits, on a best-effort basis.
func (s *MediaService) Delete(ctx context.Context, tenantID uuid.UUID, id models.Identifier) (_ *DeleteResult, err error) {
	ctx, span := startSpan(ctx, "MediaService.Delete", tenantID)
	defer endSpan(span, &err)

	m, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.deleteRows(ctx, tenantID, []models.Media{*m}); err != nil {
		return nil, err
	}

	s.deleteObjects(ctx, *m)
	s.cache.InvalidateTenant(ctx, tenantID)
	slog.Info("media deleted", "tenant_id", tenantID, "id", m.UUID, "key", m.StorageKey)
	return &DeleteResult{ID: m.UUID}, nil
}

// deleteRows re-checks references and deletes the rows in one transaction.
// Any referenced item aborts the whole delete with a Conflict.
func (s *MediaService) deleteRows(ctx context.Context, tenantID uuid.UUID, items []models.Media) error {
	return store.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		ms := s.media.WithTx(tx)
		var blocked []MediaUsage
		ids := make([]int64, 0, len(items))
		for _, m := range items {
			refs, err := ms.References(ctx, m.ID)
			if err != nil {
				return err
			}
			if refs > 0 {
				blocked = append(blocked, MediaUsage{ID: m.UUID, FileName: m.FileName, References: refs})
			}
			ids = append(ids, m.ID)
		}
		switch {
		case len(blocked) == 1 && len(items) == 1:
			b := blocked[0]
			return apperr.Conflict("Cannot delete %q: it is used by %d posts or SEO records.", b.FileName, b.References).
				WithDetails(b)
		case len(blocked) > 0:
			return apperr.Conflict("%d of %d media items are in use; nothing was deleted.", len(blocked), len(items)).
				WithDetails(map[string]any{"blocked": blocked})
		}
		_, err := ms.Delete(ctx, tenantID, ids...)
		return err
	})
}

// BulkDelete deletes every media item in ids or none of them.
func (s *MediaService) BulkDelete(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (_ *BulkDeleteResult, err error) {
	ctx, span := startSpan(ctx, "MediaService.BulkDelete", tenantID)
	defer endSpan(span, &err)

	ids = dedupeUUIDs(ids)
	if len(ids) == 0 {
		return nil, apperr.Validation("ids must contain at least one id.")
	}
	items, err := s.media.FindByUUIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	if len(items) != len(ids) {
		found := store.IndexBy(items, func(m models.Media) uuid.UUID { return m.UUID })
		var missing []uuid.UUID
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, apperr.NotFound("%d of %d media items not found.", len(missing), len(ids)).
			WithDetails(map[string]any{"missingIds": missing})
	}

	refs := make([]int, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(usageWorkers)
	for i := range items {
		g.Go(func() error {
			n, err := s.media.References(gctx, items[i].ID)
			refs[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var blocked []MediaUsage
	for i, m := range items {
		if refs[i] > 0 {
			blocked = append(blocked, MediaUsage{ID: m.UUID, FileName: m.FileName, References: refs[i]})
		}
	}
	if len(blocked) > 0 {
		return nil, apperr.Conflict("%d of %d media items are in use; nothing was deleted.", len(blocked), len(items)).
			WithDetails(map[string]any{"blocked": blocked})
	}

	if err := s.deleteRows(ctx, tenantID, items); err != nil {
		return nil, err
	}
	for _, m := range items {
		s.deleteObjects(ctx, m)
	}
	s.cache.InvalidateTenant(ctx, tenantID)
	slog.Info("media bulk deleted", "tenant_id", tenantID, "count", len(items))
	return &BulkDeleteResult{DeletedCount: len(items), DeletedIDs: ids}, nil
}

// deleteObjects removes the original and thumbnail from storage, logging
// failures.
func (s *MediaService) deleteObjects(ctx context.Context, m models.Media) {
	if s.blobs == nil {
		return
	}
	keys := []string{m.StorageKey}
	if m.ThumbStorageKey != nil {
		keys = append(keys, *m.ThumbStorageKey)
	}
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			slog.Warn("storage delete failed, continuing", "tenant_id", m.TenantID, "key", key, "error", err)
		}
	}
}

// Upload validates every file against the upload kind, stores the bytes
// (plus a thumbnail for raster images) and records one row per file. The
// MIME check is all-or-nothing: one bad file rejects the whole request and
// nothing is stored. If storing or recording fails, objects already written
// by this call are removed again.
func (s *MediaService) Upload(ctx context.Context, tenantID, uploaderID uuid.UUID, files []UploadFile, opts UploadOptions) (_ []MediaView, err error) {
	ctx, span := startSpan(ctx, "MediaService.Upload", tenantID)
	defer endSpan(span, &err)

	if len(files) == 0 {
		return nil, apperr.Validation("No file uploaded.")
	}
	kind := opts.Kind
	if kind == "" {
		kind = models.UploadContent
	}

	var invalid []string
	for _, f := range files {
		if err := maxLength("File name", f.FileName, maxFileName); err != nil {
			return nil, err
		}
		if !kind.Allows(f.ContentType) {
			invalid = append(invalid, f.FileName)
		}
	}
	if len(invalid) > 0 {
		return nil, apperr.Validation("Invalid file type for %s upload: %s.", kind, strings.Join(invalid, ", ")).
			WithDetails(map[string]any{"invalidFiles": invalid})
	}
	if s.blobs == nil {
		return nil, apperr.Unknown(ErrStorageDisabled)
	}

	var written []string
	rollbackObjects := func() {
		for _, key := range written {
			if err := s.blobs.Delete(ctx, key); err != nil {
				slog.Warn("compensating storage delete failed", "tenant_id", tenantID, "key", key, "error", err)
			}
		}
	}

	rows := make([]*models.Media, 0, len(files))
	now := s.now()
	for i, f := range files {
		m, keys, err := s.storeFile(ctx, tenantID, uploaderID, f, now)
		written = append(written, keys...)
		metrics.ObserveUpload(int64(len(f.Data)), err)
		if err != nil {
			rollbackObjects()
			return nil, err
		}
		if i < len(opts.AltText) {
			alt := strings.TrimSpace(opts.AltText[i])
			if err := maxLength("Alt text", alt, maxAltText); err != nil {
				rollbackObjects()
				return nil, err
			}
			m.AltText = alt
		}
		rows = append(rows, m)
	}

	views := make([]MediaView, 0, len(rows))
	err = store.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		ms := s.media.WithTx(tx)
		for _, m := range rows {
			created, err := ms.Create(ctx, m)
			if err != nil {
				return err
			}
			views = append(views, NewMediaView(created))
		}
		return nil
	})
	if err != nil {
		rollbackObjects()
		return nil, err
	}

	slog.Info("media uploaded", "tenant_id", tenantID, "count", len(views), "kind", kind)
	return views, nil
}

// storeFile writes one file (and its thumbnail) to object storage and returns
// the row to insert with the keys it wrote.
func (s *MediaService) storeFile(ctx context.Context, tenantID, uploaderID uuid.UUID, f UploadFile, now time.Time) (*models.Media, []string, error) {
	var written []string
	key := storage.ObjectKey(tenantID, f.FileName, now)
	if err := s.blobs.Upload(ctx, key, f.ContentType, bytes.NewReader(f.Data), int64(len(f.Data))); err != nil {
		return nil, written, err
	}
	written = append(written, key)

	m := &models.Media{
		TenantID:   tenantID,
		FileName:   f.FileName,
		StorageKey: key,
		URL:        s.blobs.FileURL(key),
		FileType:   f.ContentType,
		FileSize:   int64(len(f.Data)),
	}
	if uploaderID != uuid.Nil {
		m.UploadedBy = &uploaderID
	}

	if !imaging.IsRaster(f.ContentType) {
		return m, written, nil
	}

	info, err := imaging.Probe(f.Data)
	if err != nil {
		slog.Warn("image probe failed", "file", f.FileName, "error", err)
		return m, written, nil
	}
	m.Width, m.Height = &info.Width, &info.Height

	thumb, err := imaging.MakeThumbnail(f.Data, imaging.ThumbWidth)
	if err != nil {
		slog.Warn("thumbnail generation failed", "file", f.FileName, "error", err)
		return m, written, nil
	}
	thumbKey := storage.ThumbKey(key, thumb.Ext)
	if err := s.blobs.Upload(ctx, thumbKey, thumb.ContentType, bytes.NewReader(thumb.Data), int64(len(thumb.Data))); err != nil {
		slog.Warn("thumbnail upload failed", "key", thumbKey, "error", err)
		return m, written, nil
	}
	written = append(written, thumbKey)
	thumbURL := s.blobs.FileURL(thumbKey)
	m.ThumbStorageKey, m.ThumbURL = &thumbKey, &thumbURL
	return m, written, nil
}

// Stats counts the tenant's media by coarse class and sums their size.
func (s *MediaService) Stats(ctx context.Context, tenantID uuid.UUID) (*MediaStats, error) {
	totals, err := s.media.Totals(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var st MediaStats
	for _, t := range totals {
		switch models.MediaClass(t.FileType) {
		case models.MediaClassImage:
			st.Images += t.Count
		case models.MediaClassVideo:
			st.Videos += t.Count
		case models.MediaClassDocument:
			st.Documents += t.Count
		default:
			st.Other += t.Count
		}
		st.TotalCount += t.Count
		st.TotalSize += t.Bytes
	}
	st.TotalSizeFormatted = models.FormatFileSize(st.TotalSize)
	return &st, nil
}
