// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantcms/internal/apperr"
	"tenantcms/internal/models"
	"tenantcms/internal/store"
)

// memBlobs is an in-memory BlobStore.
type memBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failAfter int // fail uploads once this many objects exist; 0 disables
	deleteErr error
	onDelete  func(key string)
}

func newMemBlobs() *memBlobs { return &memBlobs{objects: map[string][]byte{}} }

func (m *memBlobs) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter > 0 && len(m.objects) >= m.failAfter {
		return errors.New("bucket full")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	if m.onDelete != nil {
		m.onDelete(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	return nil
}

func (m *memBlobs) FileURL(key string) string { return "https://cdn.test/" + key }

func (m *memBlobs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMediaServiceUploadImage(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	blobs := newMemBlobs()
	svc := NewMediaService(db, blobs, nil)
	ctx := context.Background()

	views, err := svc.Upload(ctx, tenant.ID, uuid.Nil, []UploadFile{
		{FileName: "wide.png", ContentType: "image/png", Data: testPNG(t, 640, 100)},
	}, UploadOptions{AltText: []string{"  A wide image  "}})
	require.NoError(t, err)
	require.Len(t, views, 1)

	v := views[0]
	assert.True(t, v.IsImage)
	assert.Equal(t, "A wide image", v.AltText)
	require.NotNil(t, v.Width)
	assert.Equal(t, 640, *v.Width)
	require.NotNil(t, v.ThumbURL)
	assert.True(t, strings.HasPrefix(v.URL, "https://cdn.test/"))
	assert.Equal(t, 2, blobs.count(), "original and thumbnail are stored")
}

func TestMediaServiceUploadRejectsWholeBatch(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	blobs := newMemBlobs()
	svc := NewMediaService(db, blobs, nil)

	_, err := svc.Upload(context.Background(), tenant.ID, uuid.Nil, []UploadFile{
		{FileName: "ok.png", ContentType: "image/png", Data: testPNG(t, 10, 10)},
		{FileName: "notes.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
	}, UploadOptions{Kind: models.UploadFeatured})
	appErr := requireKind(t, err, apperr.KindValidation)
	assert.Contains(t, appErr.Message, "notes.pdf")
	assert.Zero(t, blobs.count())
}

func TestMediaServiceUploadCompensates(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	blobs := newMemBlobs()
	blobs.failAfter = 1
	svc := NewMediaService(db, blobs, nil)

	_, err := svc.Upload(context.Background(), tenant.ID, uuid.Nil, []UploadFile{
		{FileName: "a.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 a")},
		{FileName: "b.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 b")},
	}, UploadOptions{Kind: models.UploadDocument})
	require.Error(t, err)
	assert.Zero(t, blobs.count(), "objects written before the failure are removed")

	page, err := svc.List(context.Background(), tenant.ID, store.MediaListQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestMediaServiceUploadWithoutStorage(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	svc := NewMediaService(db, nil, nil)

	_, err := svc.Upload(context.Background(), tenant.ID, uuid.Nil, []UploadFile{
		{FileName: "a.png", ContentType: "image/png", Data: testPNG(t, 4, 4)},
	}, UploadOptions{})
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestMediaServiceDelete(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	blobs := newMemBlobs()
	svc := NewMediaService(db, blobs, nil)
	posts := NewPostService(db, nil, "")
	ctx := context.Background()

	upload := func(name string) MediaView {
		t.Helper()
		views, err := svc.Upload(ctx, tenant.ID, uuid.Nil, []UploadFile{
			{FileName: name, ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
		}, UploadOptions{Kind: models.UploadDocument})
		require.NoError(t, err)
		return views[0]
	}
	used := upload("used.pdf")
	free := upload("free.pdf")

	_, err := posts.Create(ctx, tenant.ID, uuid.Nil, PostInput{Title: "Featuring", FeaturedImageID: used.ID.String()})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, tenant.ID, models.PublicID(used.ID))
	appErr := requireKind(t, err, apperr.KindConflict)
	usage, ok := appErr.Details.(MediaUsage)
	require.True(t, ok)
	assert.Equal(t, 1, usage.References)
	assert.Equal(t, 2, blobs.count(), "a refused delete keeps the stored objects")

	blobs.deleteErr = errors.New("storage offline")
	res, err := svc.Delete(ctx, tenant.ID, models.PublicID(free.ID))
	require.NoError(t, err, "storage failures do not block the row delete")
	assert.Equal(t, free.ID, res.ID)

	_, err = svc.Get(ctx, tenant.ID, models.PublicID(free.ID))
	requireKind(t, err, apperr.KindNotFound)
}

func TestMediaServiceDeleteRemovesObjectsAfterRow(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	blobs := newMemBlobs()
	svc := NewMediaService(db, blobs, nil)
	ctx := context.Background()

	views, err := svc.Upload(ctx, tenant.ID, uuid.Nil, []UploadFile{
		{FileName: "a.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 a")},
		{FileName: "b.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 b")},
		{FileName: "c.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 c")},
	}, UploadOptions{Kind: models.UploadDocument})
	require.NoError(t, err)

	// Every object delete must observe the row already gone.
	var rowsAtDelete []int
	blobs.onDelete = func(string) {
		var n int
		require.NoError(t, db.GetContext(ctx, &n, `SELECT COUNT(*) FROM media WHERE tenant_id = $1`, tenant.ID))
		rowsAtDelete = append(rowsAtDelete, n)
	}

	_, err = svc.Delete(ctx, tenant.ID, models.PublicID(views[0].ID))
	require.NoError(t, err)
	require.Equal(t, []int{2}, rowsAtDelete)

	rowsAtDelete = nil
	_, err = svc.BulkDelete(ctx, tenant.ID, []uuid.UUID{views[1].ID, views[2].ID})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, rowsAtDelete)
	assert.Zero(t, blobs.count())
}

func TestMediaServiceUploadRejectsLongFileName(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	blobs := newMemBlobs()
	svc := NewMediaService(db, blobs, nil)

	name := strings.Repeat("n", maxFileName-3) + ".pdf"
	_, err := svc.Upload(context.Background(), tenant.ID, uuid.Nil, []UploadFile{
		{FileName: "ok.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
		{FileName: name, ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
	}, UploadOptions{Kind: models.UploadDocument})
	requireKind(t, err, apperr.KindValidation)
	assert.Zero(t, blobs.count(), "nothing is stored when a name is too long")
}

func TestMediaServiceBulkDeleteAndStats(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	blobs := newMemBlobs()
	svc := NewMediaService(db, blobs, nil)
	ctx := context.Background()

	views, err := svc.Upload(ctx, tenant.ID, uuid.Nil, []UploadFile{
		{FileName: "a.png", ContentType: "image/png", Data: testPNG(t, 8, 8)},
		{FileName: "b.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
	}, UploadOptions{Kind: models.UploadDocument})
	require.NoError(t, err)
	require.Len(t, views, 2)

	stats, err := svc.Stats(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Images)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 2, stats.TotalCount)

	_, err = svc.BulkDelete(ctx, tenant.ID, []uuid.UUID{views[0].ID, uuid.New()})
	requireKind(t, err, apperr.KindNotFound)

	res, err := svc.BulkDelete(ctx, tenant.ID, []uuid.UUID{views[0].ID, views[1].ID})
	require.NoError(t, err)
	assert.Equal(t, 2, res.DeletedCount)
	assert.Zero(t, blobs.count())
}

func TestMediaServiceUpdate(t *testing.T) {
	db := testDB(t)
	tenant := testTenant(t, db)
	svc := NewMediaService(db, newMemBlobs(), nil)
	ctx := context.Background()

	views, err := svc.Upload(ctx, tenant.ID, uuid.Nil, []UploadFile{
		{FileName: "a.png", ContentType: "image/png", Data: testPNG(t, 8, 8)},
	}, UploadOptions{})
	require.NoError(t, err)

	alt := "Alt"
	v, err := svc.Update(ctx, tenant.ID, models.PublicID(views[0].ID), MediaPatch{AltText: &alt})
	require.NoError(t, err)
	assert.Equal(t, "Alt", v.AltText)
	assert.Equal(t, "a.png", v.FileName)
}
