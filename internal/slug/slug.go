// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings
// and a tenant-scoped allocator that resolves collisions.
package slug

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength is the longest slug accepted or produced.
const MaxLength = 255

var (
	// nonAlphanumeric matches runs of anything that isn't a lowercase letter or digit.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// validSlug is the shape explicit slugs must have.
	validSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	// ligatures covers letters that do not decompose under NFD.
	ligatures = strings.NewReplacer(
		"ß", "ss", "æ", "ae", "Æ", "ae", "ø", "o", "Ø", "o",
		"œ", "oe", "Œ", "oe", "đ", "d", "Đ", "d", "ł", "l", "Ł", "l", "þ", "th",
	)
)

// ErrInvalid is returned by Validate for malformed explicit slugs.
var ErrInvalid = errors.New("slug must contain only lowercase letters, numbers and single hyphens")

// Generate creates a URL-friendly slug from the given string.
// Example: "Café, Déjà Vu! 2026" → "cafe-deja-vu-2026"
func Generate(s string) string {
	result := ligatures.Replace(strings.TrimSpace(s))
	result = stripMarks(result)
	result = strings.ToLower(result)
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// stripMarks decomposes accented letters and drops the combining marks.
// The transformer is stateful, so one is built per call.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Validate checks an explicit, caller-supplied slug.
func Validate(s string) error {
	if utf8.RuneCountInString(s) > MaxLength {
		return fmt.Errorf("slug is too long (max %d characters)", MaxLength)
	}
	if !validSlug.MatchString(s) {
		return ErrInvalid
	}
	return nil
}

// truncate shortens a slug to n bytes without leaving a trailing hyphen.
// Slugs are ASCII, so bytes and characters agree.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimRight(s[:n], "-")
}

// withSuffix appends "-suffix" to base, trimming base only as far as needed
// to keep the result within MaxLength.
func withSuffix(base, suffix string) string {
	return truncate(base, MaxLength-len(suffix)-1) + "-" + suffix
}
