// Package selectfield implements the behavioural engine behind a searchable
// select form field: debounced search with stale-result suppression, lazy
// label resolution for selected values, single and multiple selection, and
// submit-time validation. Rendering, transport and the backing store are
// external collaborators; the engine exposes snapshots for a renderer and
// adapter interfaces for the rest.
//
// Option sources live in pkg/source, the search state machine in pkg/search,
// selection bookkeeping in pkg/selection and the store boundary in pkg/store.
// This package wires them into a Field and re-exports the types callers
// touch most.
package selectfield

import (
	"github.com/goliatone/go-selectfield/pkg/option"
	"github.com/goliatone/go-selectfield/pkg/selection"
)

// Entry aliases the option entry handed to and from renderers.
type Entry = option.Entry

// ValidationError aliases the submit-time validation failure.
type ValidationError = selection.ValidationError

// LabelResolutionError aliases the recoverable label-resolution failure.
type LabelResolutionError = selection.LabelResolutionError

// DisableFunc aliases the disable-option rule signature.
type DisableFunc = selection.DisableFunc
