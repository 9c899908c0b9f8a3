// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "testing"

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 Bytes"},
		{-5, "0 Bytes"},
		{1, "1 Bytes"},
		{500, "500 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{10240, "10 KB"},
		{1048576, "1 MB"},
		{1234567, "1.18 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.bytes); got != tt.want {
			t.Errorf("FormatFileSize(%d): got %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestMediaClass(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png", MediaClassImage},
		{"image/svg+xml", MediaClassImage},
		{"video/mp4", MediaClassVideo},
		{"application/pdf", MediaClassDocument},
		{"text/csv", MediaClassDocument},
		{"application/zip", MediaClassOther},
	}
	for _, tt := range tests {
		m := &Media{FileType: tt.mime}
		if got := m.Class(); got != tt.want {
			t.Errorf("Class(%s): got %q, want %q", tt.mime, got, tt.want)
		}
	}

	pdf := &Media{FileType: "application/pdf"}
	if pdf.IsImage() || pdf.IsVideo() || !pdf.IsDocument() {
		t.Error("pdf flags wrong")
	}
}

func TestUploadKindAllows(t *testing.T) {
	tests := []struct {
		kind UploadKind
		mime string
		want bool
	}{
		{UploadContent, "image/jpeg", true},
		{UploadContent, "application/pdf", false},
		{UploadFeatured, "image/webp", true},
		{UploadFeatured, "text/plain", false},
		{UploadDocument, "application/pdf", true},
		{UploadDocument, "image/png", true},
		{UploadDocument, "application/x-msdownload", false},
		{UploadContent, "video/mp4", false},
	}
	for _, tt := range tests {
		if got := tt.kind.Allows(tt.mime); got != tt.want {
			t.Errorf("%s.Allows(%s): got %v, want %v", tt.kind, tt.mime, got, tt.want)
		}
	}
}

func TestParseUploadKind(t *testing.T) {
	if k, ok := ParseUploadKind(""); !ok || k != UploadContent {
		t.Errorf("empty kind: got %q, %v", k, ok)
	}
	if _, ok := ParseUploadKind("avatar"); ok {
		t.Error("expected unknown kind to be rejected")
	}
}
