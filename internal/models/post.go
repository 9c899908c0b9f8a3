// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

// ParsePostStatus validates a raw status string.
func ParsePostStatus(s string) (PostStatus, bool) {
	switch PostStatus(s) {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return PostStatus(s), true
	}
	return "", false
}

// Post is a blog post. ID is the internal join key; UUID is the public
// identity surfaced to clients.
type Post struct {
	ID              int64      `db:"id" json:"-"`
	UUID            uuid.UUID  `db:"uuid" json:"id"`
	TenantID        uuid.UUID  `db:"tenant_id" json:"tenant_id"`
	Title           string     `db:"title" json:"title"`
	Slug            string     `db:"slug" json:"slug"`
	Content         string     `db:"content" json:"content"`
	Excerpt         string     `db:"excerpt" json:"excerpt"`
	Status          PostStatus `db:"status" json:"status"`
	IsIndexable     bool       `db:"is_indexable" json:"is_indexable"`
	AuthorID        *uuid.UUID `db:"author_id" json:"author_id,omitempty"`
	FeaturedImageID *int64     `db:"featured_image_id" json:"-"`
	PublishedAt     *time.Time `db:"published_at" json:"published_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// IsPublished returns true if the post is in published status.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// PostTerm is one post↔term join row together with the term it points at.
type PostTerm struct {
	PostID int64 `db:"post_id"`
	Term
}
