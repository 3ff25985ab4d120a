package source

import (
	"context"
	"errors"

	"github.com/goliatone/go-selectfield/pkg/option"
)

// DefaultLimit caps search results when a caller passes a non-positive limit.
const DefaultLimit = 50

// ErrNotFound reports that a key has no option in the source's universe.
var ErrNotFound = errors.New("source: option not found")

// Source is the capability set shared by every option-source variant.
//
// Search returns at most limit entries for query, in source-defined relevance
// order. ResolveLabel resolves one key (single-selection hydration) and
// returns ErrNotFound for unknown keys. ResolveLabels batches resolution over
// many keys (multiple-selection hydration); unknown keys are simply absent
// from the result, never an error.
type Source interface {
	Search(ctx context.Context, query string, limit int) ([]option.Entry, error)
	ResolveLabel(ctx context.Context, key string) (string, error)
	ResolveLabels(ctx context.Context, keys []string) (map[string]string, error)
}

// Lister is implemented by sources whose full option universe is known up
// front. Non-searchable fields render the listed entries directly.
type Lister interface {
	ListStatic() []option.Entry
}

// Creator is implemented by sources that support the create-option sub-flow.
type Creator interface {
	SubmitCreate(ctx context.Context, values map[string]string) (option.Entry, error)
}

// Updater is implemented by sources that support the edit-option sub-flow.
type Updater interface {
	SubmitEdit(ctx context.Context, key string, values map[string]string) (option.Entry, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
