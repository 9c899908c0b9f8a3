// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tenantcms/internal/markdown"
	"tenantcms/internal/models"
)

// TermView is the external shape of a category or tag.
type TermView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PostCount   int       `json:"postCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewTermView maps a stored term to its view.
func NewTermView(t *models.Term) TermView {
	return TermView{
		ID:          t.ID,
		Name:        t.Name,
		Slug:        t.Slug,
		Description: t.Description,
		PostCount:   t.PostCount,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// MediaView is the external shape of a media item. The public UUID is
// surfaced as id; the internal key never leaves the server.
type MediaView struct {
	ID                uuid.UUID `json:"id"`
	FileName          string    `json:"fileName"`
	URL               string    `json:"url"`
	ThumbURL          *string   `json:"thumbUrl"`
	FileType          string    `json:"fileType"`
	FileSize          int64     `json:"fileSize"`
	FileSizeFormatted string    `json:"fileSizeFormatted"`
	AltText           string    `json:"altText"`
	Width             *int      `json:"width"`
	Height            *int      `json:"height"`
	IsImage           bool      `json:"isImage"`
	IsVideo           bool      `json:"isVideo"`
	IsDocument        bool      `json:"isDocument"`
	Class             string    `json:"class"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// NewMediaView maps a stored media row to its view.
func NewMediaView(m *models.Media) MediaView {
	return MediaView{
		ID:                m.UUID,
		FileName:          m.FileName,
		URL:               m.URL,
		ThumbURL:          m.ThumbURL,
		FileType:          m.FileType,
		FileSize:          m.FileSize,
		FileSizeFormatted: m.HumanSize(),
		AltText:           m.AltText,
		Width:             m.Width,
		Height:            m.Height,
		IsImage:           m.IsImage(),
		IsVideo:           m.IsVideo(),
		IsDocument:        m.IsDocument(),
		Class:             m.Class(),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// AuthorView is the public part of a post's author.
type AuthorView struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
}

// NewAuthorView maps a user to an author view.
func NewAuthorView(u *models.User) AuthorView {
	return AuthorView{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email}
}

// SEOView is the external shape of an SEO record with image ids resolved
// to media views.
type SEOView struct {
	MetaTitle          *string    `json:"metaTitle"`
	MetaDescription    *string    `json:"metaDescription"`
	CanonicalURL       *string    `json:"canonicalUrl"`
	OGTitle            *string    `json:"ogTitle"`
	OGDescription      *string    `json:"ogDescription"`
	OGImage            *MediaView `json:"ogImage"`
	TwitterTitle       *string    `json:"twitterTitle"`
	TwitterDescription *string    `json:"twitterDescription"`
	TwitterImage       *MediaView `json:"twitterImage"`
	FocusKeyword       *string    `json:"focusKeyword"`
}

// NewSEOView maps an SEO row; images resolves internal media ids.
func NewSEOView(s *models.SEO, images map[int64]models.Media) *SEOView {
	return &SEOView{
		MetaTitle:          s.MetaTitle,
		MetaDescription:    s.MetaDescription,
		CanonicalURL:       s.CanonicalURL,
		OGTitle:            s.OGTitle,
		OGDescription:      s.OGDescription,
		OGImage:            mediaRef(s.OGImageID, images),
		TwitterTitle:       s.TwitterTitle,
		TwitterDescription: s.TwitterDescription,
		TwitterImage:       mediaRef(s.TwitterImageID, images),
		FocusKeyword:       s.FocusKeyword,
	}
}

func mediaRef(id *int64, images map[int64]models.Media) *MediaView {
	if id == nil {
		return nil
	}
	m, ok := images[*id]
	if !ok {
		return nil
	}
	v := NewMediaView(&m)
	return &v
}

// PostView is the full external shape of a post with its relations.
type PostView struct {
	ID            uuid.UUID         `json:"id"`
	Title         string            `json:"title"`
	Slug          string            `json:"slug"`
	Content       string            `json:"content"`
	ContentHTML   string            `json:"contentHtml"`
	Excerpt       string            `json:"excerpt"`
	Status        models.PostStatus `json:"status"`
	IsIndexable   bool              `json:"isIndexable"`
	PublishedAt   *time.Time        `json:"publishedAt"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Author        *AuthorView       `json:"author"`
	FeaturedImage *MediaView        `json:"featuredImage"`
	Categories    []TermView        `json:"categories"`
	Tags          []TermView        `json:"tags"`
	SEO           *SEOView          `json:"seo"`
}

// PostDetail is a single-post read: the post plus next-post navigation.
type PostDetail struct {
	PostView
	NextSlug  *string    `json:"nextSlug"`
	NextID    *uuid.UUID `json:"nextId"`
	NextTitle *string    `json:"nextTitle"`
}

// newPostView maps the post row. Relations are attached by the loader.
func newPostView(p *models.Post) PostView {
	html, err := markdown.ToHTML(p.Content)
	if err != nil {
		slog.Warn("render post content failed", "post_id", p.UUID, "error", err)
	}
	return PostView{
		ID:          p.UUID,
		Title:       p.Title,
		Slug:        p.Slug,
		Content:     p.Content,
		ContentHTML: html,
		Excerpt:     p.Excerpt,
		Status:      p.Status,
		IsIndexable: p.IsIndexable,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Categories:  []TermView{},
		Tags:        []TermView{},
	}
}

func termViews(rows []models.PostTerm) []TermView {
	out := make([]TermView, 0, len(rows))
	for i := range rows {
		out = append(out, NewTermView(&rows[i].Term))
	}
	return out
}
