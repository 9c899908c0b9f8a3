// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"time"
)

// Strategy selects how collisions are resolved.
type Strategy int

const (
	// Sequential appends -1, -2, … until a free candidate is found.
	Sequential Strategy = iota
	// Quick appends a single 6-digit time-derived suffix, then falls back
	// to Sequential if that is taken too.
	Quick
)

// DefaultMaxAttempts bounds the number of existence probes per allocation.
const DefaultMaxAttempts = 100

// ErrExhausted is returned when no free slug was found within MaxAttempts.
var ErrExhausted = errors.New("slug allocation exhausted")

// ExistsFunc reports whether a candidate slug is already taken in the
// caller's scope (typically one tenant, optionally excluding the row being
// renamed).
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Allocator finds a free slug for a base value.
type Allocator struct {
	Strategy    Strategy
	MaxAttempts int
	// Now is the clock used for Quick suffixes. Defaults to time.Now.
	Now func() time.Time
}

// Candidates yields the candidate sequence for a base slug, in probe order.
// It is exposed so insert-retry loops can continue where probing left off.
func (a Allocator) Candidates(base string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !yield(base) {
			return
		}
		if a.Strategy == Quick {
			if !yield(withSuffix(base, fmt.Sprintf("%06d", a.now().UnixMilli()%1_000_000))) {
				return
			}
		}
		for n := 1; ; n++ {
			if !yield(withSuffix(base, strconv.Itoa(n))) {
				return
			}
		}
	}
}

// Allocate returns the first candidate derived from base that exists
// reports as free. base must already be a normalized slug; an empty base
// is replaced by fallback. A free base of up to MaxLength characters is
// returned unchanged; suffixed candidates shorten the base just enough to
// stay within MaxLength.
func (a Allocator) Allocate(ctx context.Context, base, fallback string, exists ExistsFunc) (string, error) {
	base = truncate(base, MaxLength)
	if base == "" {
		base = fallback
	}

	attempts := 0
	var result string
	var probeErr error
	for candidate := range a.Candidates(base) {
		if attempts >= a.maxAttempts() {
			break
		}
		attempts++
		taken, err := exists(ctx, candidate)
		if err != nil {
			probeErr = fmt.Errorf("probe slug %q: %w", candidate, err)
			break
		}
		if !taken {
			result = candidate
			break
		}
	}
	if probeErr != nil {
		return "", probeErr
	}
	if result == "" {
		return "", fmt.Errorf("%w after %d attempts for %q", ErrExhausted, attempts, base)
	}
	return result, nil
}

func (a Allocator) maxAttempts() int {
	if a.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return a.MaxAttempts
}

func (a Allocator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
