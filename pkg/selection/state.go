package selection

import (
	"sort"

	"github.com/goliatone/go-selectfield/pkg/option"
)

// Mode distinguishes single-value from multi-value selection.
type Mode int

const (
	// Single - the field stores exactly zero or one key.
	Single Mode = iota
	// Multiple - the field stores a set of keys with no significant order.
	Multiple
)

// State holds the currently selected keys and a label cache entry for each
// key whose label has been resolved. The cache is populated lazily - a key
// may be selected while its label is still pending - and entries are dropped
// the moment their key is deselected. State never constrains how many keys a
// Multiple selection holds; count limits belong to the Gate.
type State struct {
	mode   Mode
	keys   map[string]struct{}
	labels map[string]string
}

// NewState creates an empty selection in the given mode.
func NewState(mode Mode) *State {
	return &State{
		mode:   mode,
		keys:   make(map[string]struct{}),
		labels: make(map[string]string),
	}
}

// Mode reports whether the selection is single or multiple.
func (s *State) Mode() Mode {
	return s.mode
}

// Select adds key to the selection. In Single mode it replaces the current
// selection (and its cached label); in Multiple mode it is a no-op when the
// key is already selected.
func (s *State) Select(key string) {
	if s.mode == Single {
		s.Clear()
	}
	s.keys[key] = struct{}{}
}

// SelectEntry selects the entry's key and caches its label, so choosing an
// option straight from a candidate list needs no extra resolution round trip.
func (s *State) SelectEntry(entry option.Entry) {
	s.Select(entry.Key)
	s.labels[entry.Key] = entry.Label
}

// Deselect removes key and its cached label. In Single mode any deselection
// clears the field back to its placeholder.
func (s *State) Deselect(key string) {
	if s.mode == Single {
		s.Clear()
		return
	}
	delete(s.keys, key)
	delete(s.labels, key)
}

// Clear empties the selection and the label cache.
func (s *State) Clear() {
	s.keys = make(map[string]struct{})
	s.labels = make(map[string]string)
}

// Has reports whether key is currently selected.
func (s *State) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Len reports how many keys are selected.
func (s *State) Len() int {
	return len(s.keys)
}

// Empty reports whether nothing is selected.
func (s *State) Empty() bool {
	return len(s.keys) == 0
}

// Keys returns the selected keys sorted for deterministic iteration; the set
// itself carries no significant order.
func (s *State) Keys() []string {
	if len(s.keys) == 0 {
		return nil
	}
	keys := make([]string, 0, len(s.keys))
	for key := range s.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Key returns the single selected key, or "" when empty. Only meaningful in
// Single mode.
func (s *State) Key() string {
	for key := range s.keys {
		return key
	}
	return ""
}

// Label returns the cached label for key and whether one is resolved.
func (s *State) Label(key string) (string, bool) {
	label, ok := s.labels[key]
	return label, ok
}

// SetLabel caches a resolved label for a selected key. Labels for keys that
// are not selected are ignored so a late resolution can never resurrect a
// deselected value.
func (s *State) SetLabel(key, label string) {
	if !s.Has(key) {
		return
	}
	s.labels[key] = label
}

// Unresolved returns the selected keys that have no cached label yet, sorted.
func (s *State) Unresolved() []string {
	var keys []string
	for key := range s.keys {
		if _, ok := s.labels[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Value returns the submit-shaped payload: the single key (or nil when empty)
// in Single mode, the sorted key list in Multiple mode.
func (s *State) Value() any {
	if s.mode == Single {
		if s.Empty() {
			return nil
		}
		return s.Key()
	}
	keys := s.Keys()
	if keys == nil {
		return []string{}
	}
	return keys
}
