package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-selectfield/pkg/option"
)

// SearchFunc resolves search results against an external dataset. The engine
// trusts the callback's filtering and ordering; it only truncates past limit.
type SearchFunc func(ctx context.Context, query string, limit int) ([]option.Entry, error)

// LabelFunc resolves the label for one selected key. Return ErrNotFound when
// the key has no option.
type LabelFunc func(ctx context.Context, key string) (string, error)

// LabelsFunc resolves labels for many selected keys in one call. Unknown keys
// must be absent from the result.
type LabelsFunc func(ctx context.Context, keys []string) (map[string]string, error)

// ErrMissingLabelResolver is returned by NewQuery when a search callback is
// configured without any way to resolve labels for stored values. Without one,
// a hydrated selection could never be displayed.
var ErrMissingLabelResolver = errors.New("source: query source requires a label or labels resolver")

// QueryOption configures a Query source.
type QueryOption func(*Query)

// WithLabelFunc sets the single-key label resolver.
func WithLabelFunc(fn LabelFunc) QueryOption {
	return func(q *Query) {
		q.label = fn
	}
}

// WithLabelsFunc sets the batched label resolver.
func WithLabelsFunc(fn LabelsFunc) QueryOption {
	return func(q *Query) {
		q.labels = fn
	}
}

// Query delegates search and label resolution to caller-supplied callbacks,
// for option universes too large or too remote to enumerate.
type Query struct {
	search SearchFunc
	label  LabelFunc
	labels LabelsFunc
}

// NewQuery builds a query source. The search callback is required, and at
// least one of the label resolvers must be supplied; both failures are
// configuration errors surfaced at setup time.
func NewQuery(search SearchFunc, opts ...QueryOption) (*Query, error) {
	if search == nil {
		return nil, errors.New("source: query source requires a search callback")
	}
	q := &Query{search: search}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	if q.label == nil && q.labels == nil {
		return nil, ErrMissingLabelResolver
	}
	return q, nil
}

// Search invokes the callback and defensively truncates its result to limit.
// Ordering is preserved exactly as returned.
func (q *Query) Search(ctx context.Context, query string, limit int) ([]option.Entry, error) {
	limit = clampLimit(limit)
	entries, err := q.search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("source: search callback: %w", err)
	}
	return option.Truncate(entries, limit), nil
}

// ResolveLabel resolves one key, preferring the dedicated single-key resolver
// and falling back to a one-key batch.
func (q *Query) ResolveLabel(ctx context.Context, key string) (string, error) {
	if q.label != nil {
		return q.label(ctx, key)
	}
	labels, err := q.labels(ctx, []string{key})
	if err != nil {
		return "", err
	}
	label, ok := labels[key]
	if !ok {
		return "", ErrNotFound
	}
	return label, nil
}

// ResolveLabels resolves many keys, preferring the batched resolver. With
// only a single-key resolver configured, keys are resolved one by one and
// ErrNotFound entries are skipped.
func (q *Query) ResolveLabels(ctx context.Context, keys []string) (map[string]string, error) {
	if q.labels != nil {
		return q.labels(ctx, keys)
	}

	labels := make(map[string]string, len(keys))
	for _, key := range keys {
		label, err := q.label(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		labels[key] = label
	}
	return labels, nil
}
