// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"strconv"

	"github.com/google/uuid"
)

// ErrInvalidIdentifier is returned when a raw id is neither a positive
// integer nor a UUID.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Identifier is either an internal surrogate key or a public UUID. It is
// resolved once at the request boundary; stores branch on it when building
// their WHERE clause.
type Identifier struct {
	internal int64
	public   uuid.UUID
	isPublic bool
}

// InternalID builds an identifier for an internal surrogate key.
func InternalID(id int64) Identifier {
	return Identifier{internal: id}
}

// PublicID builds an identifier for a public UUID.
func PublicID(id uuid.UUID) Identifier {
	return Identifier{public: id, isPublic: true}
}

// ParseIdentifier accepts a positive decimal integer or a UUID.
func ParseIdentifier(raw string) (Identifier, error) {
	if raw == "" {
		return Identifier{}, ErrInvalidIdentifier
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n <= 0 {
			return Identifier{}, ErrInvalidIdentifier
		}
		return InternalID(n), nil
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return Identifier{}, ErrInvalidIdentifier
	}
	return PublicID(u), nil
}

// Internal returns the surrogate key when the identifier holds one.
func (i Identifier) Internal() (int64, bool) {
	return i.internal, !i.isPublic && i.internal > 0
}

// Public returns the UUID when the identifier holds one.
func (i Identifier) Public() (uuid.UUID, bool) {
	return i.public, i.isPublic
}

func (i Identifier) String() string {
	if i.isPublic {
		return i.public.String()
	}
	return strconv.FormatInt(i.internal, 10)
}
