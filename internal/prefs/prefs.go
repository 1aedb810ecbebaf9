// Package prefs implements the per-user preference tag set: defensive
// decoding of legacy serializations, lowercase normalization, idempotent
// add/remove mutation and shared-preference intersection.
package prefs

import (
	"encoding/json"
	"sort"
	"strings"
)

// Format identifies which legacy serialization a stored preference string
// used. Historical rows hold either a JSON array, a comma-joined list, or a
// single bare tag; the decode chain tries them in that order so the rest of
// the system never re-implements the fallback logic.
type Format int

const (
	// FormatJSON is the canonical serialization: a sorted JSON array.
	FormatJSON Format = iota
	// FormatCommaList is a legacy comma-joined tag list.
	FormatCommaList
	// FormatSingle is a whole value treated as one tag.
	FormatSingle
)

// Set is a collection of normalized preference tags.
type Set map[string]struct{}

// Normalize canonicalizes a raw tag: trimmed and lowercased.
func Normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NewSet builds a Set from raw tags, normalizing each and dropping empties.
func NewSet(tags ...string) Set {
	s := make(Set, len(tags))
	for _, t := range tags {
		if n := Normalize(t); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Decode parses a stored preference string. It attempts a JSON array first,
// falls back to comma splitting, and finally treats the whole value as a
// single tag. Tags are returned raw, in serialization order.
func Decode(raw string) ([]string, Format) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, FormatJSON
	}

	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return tags, FormatJSON
		}
	}

	if strings.Contains(raw, ",") {
		return strings.Split(raw, ","), FormatCommaList
	}

	return []string{raw}, FormatSingle
}

// Load decodes a stored preference string into a normalized Set.
func Load(raw string) Set {
	tags, _ := Decode(raw)
	return NewSet(tags...)
}

// Encode serializes a Set to its canonical form: a sorted JSON array. The
// ordering makes the stored value deterministic.
func Encode(s Set) string {
	data, _ := json.Marshal(s.Sorted())
	return string(data)
}

// Apply adds then removes tags on the set, so a tag present in both lists
// ends up removed. Re-adding an existing tag and removing an absent one are
// both no-ops. The set is mutated in place and returned.
func Apply(s Set, add, remove []string) Set {
	for _, t := range add {
		if n := Normalize(t); n != "" {
			s[n] = struct{}{}
		}
	}
	for _, t := range remove {
		if n := Normalize(t); n != "" {
			delete(s, n)
		}
	}
	return s
}

// Has reports whether the normalized form of tag is in the set.
func (s Set) Has(tag string) bool {
	_, ok := s[Normalize(tag)]
	return ok
}

// Sorted returns the tags in ascending order. An empty set yields an empty,
// non-nil slice so JSON output is always an array.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the tags present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for t := range s {
		if _, ok := other[t]; ok {
			out[t] = struct{}{}
		}
	}
	return out
}

// Shared intersects preference sets across users. If any user has an empty
// set the result is empty. The explicit guard is redundant (intersecting
// with an empty set is empty anyway) but it is kept because it is the
// established behavior: one preference-free user disables all shared-tag
// filtering rather than erroring.
func Shared(sets []Set) Set {
	if len(sets) == 0 {
		return Set{}
	}
	for _, s := range sets {
		if len(s) == 0 {
			return Set{}
		}
	}

	shared := sets[0]
	for _, s := range sets[1:] {
		shared = shared.Intersect(s)
		if len(shared) == 0 {
			break
		}
	}

	// Copy so callers never alias the first user's set.
	out := make(Set, len(shared))
	for t := range shared {
		out[t] = struct{}{}
	}
	return out
}
