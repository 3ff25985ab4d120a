package source

import (
	"context"
	"sort"
	"strings"

	"github.com/goliatone/go-selectfield/pkg/option"
)

// Static serves a fixed, ordered option set held in memory. Search matches
// the query as a case-insensitive substring of each label, ranking prefix
// matches first; ties keep the configured order.
type Static struct {
	entries []option.Entry
	index   map[string]int
}

// NewStatic builds a static source preserving the order of entries. Later
// duplicates of a key override earlier ones for label resolution but keep
// their original list position.
func NewStatic(entries []option.Entry) *Static {
	s := &Static{
		entries: append([]option.Entry{}, entries...),
		index:   make(map[string]int, len(entries)),
	}
	for i, entry := range s.entries {
		s.index[entry.Key] = i
	}
	return s
}

// StaticFromMap builds a static source from a key→label mapping, ordered by
// key for determinism.
func StaticFromMap(options map[string]string) *Static {
	return NewStatic(option.FromMap(options))
}

// ListStatic returns a copy of the full option set in configured order.
func (s *Static) ListStatic() []option.Entry {
	return append([]option.Entry{}, s.entries...)
}

// Search filters by label substring, case-insensitively. An empty query
// returns the head of the full set so searchable static fields can show
// something before the first keystroke.
func (s *Static) Search(_ context.Context, query string, limit int) ([]option.Entry, error) {
	limit = clampLimit(limit)

	query = strings.TrimSpace(query)
	if query == "" {
		return option.Truncate(s.ListStatic(), limit), nil
	}

	q := strings.ToLower(query)
	type ranked struct {
		entry    option.Entry
		isPrefix bool
	}
	matches := make([]ranked, 0, 16)
	for _, entry := range s.entries {
		label := strings.ToLower(entry.Label)
		if !strings.Contains(label, q) {
			continue
		}
		matches = append(matches, ranked{entry: entry, isPrefix: strings.HasPrefix(label, q)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].isPrefix && !matches[j].isPrefix
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]option.Entry, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.entry)
	}
	return out, nil
}

// ResolveLabel looks the key up in the fixed mapping.
func (s *Static) ResolveLabel(_ context.Context, key string) (string, error) {
	pos, ok := s.index[key]
	if !ok {
		return "", ErrNotFound
	}
	return s.entries[pos].Label, nil
}

// ResolveLabels resolves every known key; unknown keys are absent.
func (s *Static) ResolveLabels(_ context.Context, keys []string) (map[string]string, error) {
	labels := make(map[string]string, len(keys))
	for _, key := range keys {
		if pos, ok := s.index[key]; ok {
			labels[key] = s.entries[pos].Label
		}
	}
	return labels, nil
}
