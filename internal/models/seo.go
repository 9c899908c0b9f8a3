// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Entity types an SEO record can be attached to.
const (
	SEOEntityPost     = "post"
	SEOEntityCategory = "category"
	SEOEntityTag      = "tag"
)

// SEO holds search and social metadata for one entity. There is at most one
// row per (tenant, entity type, entity id); EntityID is the entity's public UUID.
type SEO struct {
	ID                 int64     `db:"id" json:"-"`
	UUID               uuid.UUID `db:"uuid" json:"id"`
	TenantID           uuid.UUID `db:"tenant_id" json:"tenant_id"`
	EntityType         string    `db:"entity_type" json:"entity_type"`
	EntityID           uuid.UUID `db:"entity_id" json:"entity_id"`
	MetaTitle          *string   `db:"meta_title" json:"meta_title"`
	MetaDescription    *string   `db:"meta_description" json:"meta_description"`
	CanonicalURL       *string   `db:"canonical_url" json:"canonical_url"`
	OGTitle            *string   `db:"og_title" json:"og_title"`
	OGDescription      *string   `db:"og_description" json:"og_description"`
	OGImageID          *int64    `db:"og_image_id" json:"-"`
	TwitterTitle       *string   `db:"twitter_title" json:"twitter_title"`
	TwitterDescription *string   `db:"twitter_description" json:"twitter_description"`
	TwitterImageID     *int64    `db:"twitter_image_id" json:"-"`
	FocusKeyword       *string   `db:"focus_keyword" json:"focus_keyword"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// SEOFallback copies Source into Target when Target is empty and Source is not.
type SEOFallback struct {
	Target string
	Source string
	fill   func(*SEO) bool
}

func textFallback(target, source string, t, s func(*SEO) **string) SEOFallback {
	return SEOFallback{Target: target, Source: source, fill: func(seo *SEO) bool {
		dst, src := t(seo), s(seo)
		if isBlank(*dst) && !isBlank(*src) {
			v := **src
			*dst = &v
			return true
		}
		return false
	}}
}

func imageFallback(target, source string, t, s func(*SEO) **int64) SEOFallback {
	return SEOFallback{Target: target, Source: source, fill: func(seo *SEO) bool {
		dst, src := t(seo), s(seo)
		if *dst == nil && *src != nil {
			v := **src
			*dst = &v
			return true
		}
		return false
	}}
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}

// SEOFallbacks is the ordered back-fill cascade applied when an SEO record
// is created: twitter ← og ← meta. Order matters, og fields are filled
// before twitter fields read them.
var SEOFallbacks = []SEOFallback{
	textFallback("ogTitle", "metaTitle",
		func(s *SEO) **string { return &s.OGTitle }, func(s *SEO) **string { return &s.MetaTitle }),
	textFallback("ogDescription", "metaDescription",
		func(s *SEO) **string { return &s.OGDescription }, func(s *SEO) **string { return &s.MetaDescription }),
	textFallback("twitterTitle", "ogTitle",
		func(s *SEO) **string { return &s.TwitterTitle }, func(s *SEO) **string { return &s.OGTitle }),
	textFallback("twitterDescription", "ogDescription",
		func(s *SEO) **string { return &s.TwitterDescription }, func(s *SEO) **string { return &s.OGDescription }),
	imageFallback("twitterImageId", "ogImageId",
		func(s *SEO) **int64 { return &s.TwitterImageID }, func(s *SEO) **int64 { return &s.OGImageID }),
}

// ApplyFallbacks runs the cascade once and returns the names of the fields
// it filled.
func (s *SEO) ApplyFallbacks() []string {
	var filled []string
	for _, fb := range SEOFallbacks {
		if fb.fill(s) {
			filled = append(filled, fb.Target)
		}
	}
	return filled
}
