// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// TermKind distinguishes the two flat taxonomies attached to posts.
type TermKind string

const (
	TermCategory TermKind = "category"
	TermTag      TermKind = "tag"
)

// Label returns the capitalized, human-readable kind name used in messages.
func (k TermKind) Label() string {
	switch k {
	case TermCategory:
		return "Category"
	case TermTag:
		return "Tag"
	default:
		return string(k)
	}
}

// Term is a category or tag. Categories and tags share one shape and live in
// separate tables; the slug is unique per tenant among non-deleted rows.
type Term struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	TenantID    uuid.UUID  `db:"tenant_id" json:"tenant_id"`
	Name        string     `db:"name" json:"name"`
	Slug        string     `db:"slug" json:"slug"`
	Description string     `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"-"`

	// Virtual field populated by list queries.
	PostCount int `db:"post_count" json:"post_count"`
}
