// Package hashtag normalizes tag strings and matches tagged items.
//
// Tags are case-sensitive: "#Cafe" and "#cafe" are different tags.
package hashtag

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyQuery is returned by Search when no query tags were given.
var ErrEmptyQuery = errors.New("hashtag: empty query")

// Mode selects how query tags combine.
type Mode string

const (
	ModeAnd Mode = "AND"
	ModeOr  Mode = "OR"
)

// ParseMode accepts "and"/"or" in any case, including labels such as
// "AND (all tags)". Empty input means AND.
func ParseMode(s string) (Mode, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case u == "" || strings.HasPrefix(u, string(ModeAnd)):
		return ModeAnd, nil
	case strings.HasPrefix(u, string(ModeOr)):
		return ModeOr, nil
	default:
		return "", fmt.Errorf("hashtag: unknown search mode %q (want AND or OR)", s)
	}
}

// Normalize returns "#" followed by tag with every leading '#' removed.
func Normalize(tag string) string {
	return "#" + strings.TrimLeft(tag, "#")
}

// Parse splits a whitespace-delimited string into normalized, de-duplicated,
// lexicographically sorted tags.
func Parse(input string) []string {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return []string{}
	}
	return NewSet(fields...).Sorted()
}

// Set is an unordered collection of normalized tags.
type Set map[string]struct{}

// NewSet normalizes and collects tags.
func NewSet(tags ...string) Set {
	s := make(Set, len(tags))
	s.Add(tags...)
	return s
}

// Add normalizes and inserts tags. Empty strings are skipped.
func (s Set) Add(tags ...string) {
	for _, t := range tags {
		if t == "" {
			continue
		}
		s[Normalize(t)] = struct{}{}
	}
}

// Has reports whether the normalized tag is present.
func (s Set) Has(tag string) bool {
	_, ok := s[Normalize(tag)]
	return ok
}

// Sorted returns the tags in lexicographic order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Tagged is anything searchable by tag. AllTags returns the union of the
// item's own tags and those of its parts.
type Tagged interface {
	AllTags() []string
}

// Search returns the items matching query under mode, in input order.
func Search[T Tagged](items []T, query Set, mode Mode) ([]T, error) {
	if len(query) == 0 {
		return nil, ErrEmptyQuery
	}
	if mode != ModeAnd && mode != ModeOr {
		return nil, fmt.Errorf("hashtag: unknown search mode %q", mode)
	}

	out := make([]T, 0)
	for _, it := range items {
		if matches(NewSet(it.AllTags()...), query, mode) {
			out = append(out, it)
		}
	}
	return out, nil
}

func matches(have, query Set, mode Mode) bool {
	if mode == ModeOr {
		for q := range query {
			if _, ok := have[q]; ok {
				return true
			}
		}
		return false
	}
	for q := range query {
		if _, ok := have[q]; !ok {
			return false
		}
	}
	return true
}
