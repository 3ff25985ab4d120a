package option

import "sort"

// Entry is a single renderable option. Entries are produced transiently by
// option sources and the resolver; they are never persisted. Key is the value
// the field stores, Label the text shown for it.
type Entry struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// FromMap converts a key→label mapping into entries ordered by key so the
// result is deterministic regardless of map iteration order.
func FromMap(options map[string]string) []Entry {
	if len(options) == 0 {
		return nil
	}

	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, Entry{Key: key, Label: options[key]})
	}
	return entries
}

// Truncate caps entries at limit without reordering. A non-positive limit
// leaves the slice untouched.
func Truncate(entries []Entry, limit int) []Entry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	return entries[:limit]
}
