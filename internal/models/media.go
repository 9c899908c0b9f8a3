// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Media represents a file uploaded to S3-compatible object storage.
// Metadata is stored in PostgreSQL; the file itself lives in the bucket.
type Media struct {
	ID              int64      `db:"id" json:"-"`
	UUID            uuid.UUID  `db:"uuid" json:"id"`
	TenantID        uuid.UUID  `db:"tenant_id" json:"tenant_id"`
	FileName        string     `db:"file_name" json:"file_name"`
	StorageKey      string     `db:"storage_key" json:"storage_key"`
	ThumbStorageKey *string    `db:"thumb_storage_key" json:"thumb_storage_key,omitempty"`
	URL             string     `db:"url" json:"url"`
	ThumbURL        *string    `db:"thumb_url" json:"thumb_url,omitempty"`
	FileType        string     `db:"file_type" json:"file_type"`
	FileSize        int64      `db:"file_size" json:"file_size"`
	AltText         string     `db:"alt_text" json:"alt_text"`
	Width           *int       `db:"width" json:"width,omitempty"`
	Height          *int       `db:"height" json:"height,omitempty"`
	UploadedBy      *uuid.UUID `db:"uploaded_by" json:"uploaded_by,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Coarse media classes used for filtering and statistics.
const (
	MediaClassImage    = "image"
	MediaClassVideo    = "video"
	MediaClassDocument = "document"
	MediaClassOther    = "other"
)

// documentTypes lists the MIME types counted as documents.
var documentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.ms-powerpoint":                                             true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"text/plain": true,
	"text/csv":   true,
}

// DocumentTypes returns the document MIME types in no particular order.
func DocumentTypes() []string {
	out := make([]string, 0, len(documentTypes))
	for t := range documentTypes {
		out = append(out, t)
	}
	return out
}

// IsImage returns true if the media item is an image type.
func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.FileType, "image/")
}

// IsVideo returns true if the media item is a video type.
func (m *Media) IsVideo() bool {
	return strings.HasPrefix(m.FileType, "video/")
}

// IsDocument returns true if the media item is an office/PDF/text document.
func (m *Media) IsDocument() bool {
	return documentTypes[m.FileType]
}

// Class returns the coarse media class for the file type.
func (m *Media) Class() string {
	return MediaClass(m.FileType)
}

// MediaClass maps a MIME type to its coarse class.
func MediaClass(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return MediaClassImage
	case strings.HasPrefix(mimeType, "video/"):
		return MediaClassVideo
	case documentTypes[mimeType]:
		return MediaClassDocument
	default:
		return MediaClassOther
	}
}

// HumanSize returns a human-readable file size string.
func (m *Media) HumanSize() string {
	return FormatFileSize(m.FileSize)
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatFileSize renders a byte count with 1024-based units rounded to two
// decimals, dropping trailing zeros: 1536 → "1.5 KB", 1048576 → "1 MB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	value := float64(bytes)
	i := 0
	for value >= 1024 && i < len(sizeUnits)-1 {
		value /= 1024
		i++
	}
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}

// UploadKind selects which MIME types an upload accepts.
type UploadKind string

const (
	UploadContent  UploadKind = "content"
	UploadFeatured UploadKind = "featured"
	UploadDocument UploadKind = "document"
)

// imageTypes are the raster and vector image types accepted for upload.
var imageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// ParseUploadKind validates a raw upload kind, defaulting to content.
func ParseUploadKind(s string) (UploadKind, bool) {
	switch UploadKind(s) {
	case "":
		return UploadContent, true
	case UploadContent, UploadFeatured, UploadDocument:
		return UploadKind(s), true
	}
	return "", false
}

// Allows reports whether a file of the given MIME type may be uploaded as k.
// Content and featured uploads take images only; documents also take images.
func (k UploadKind) Allows(mimeType string) bool {
	if imageTypes[mimeType] {
		return true
	}
	return k == UploadDocument && documentTypes[mimeType]
}
