package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-selectfield/pkg/option"
	"github.com/goliatone/go-selectfield/pkg/source"
)

// LabelResolutionError reports that labels for selected keys could not be
// fetched. The selection itself is always preserved; affected keys keep a
// placeholder label and are retried on the next resolution attempt.
type LabelResolutionError struct {
	Keys []string
	Err  error
}

func (e *LabelResolutionError) Error() string {
	return fmt.Sprintf("selection: resolving labels for %d key(s): %v", len(e.Keys), e.Err)
}

func (e *LabelResolutionError) Unwrap() error {
	return e.Err
}

// DisableFunc decides whether an entry may be newly selected. Disabling an
// already selected entry never clears it; it only stops it from being picked
// again from the candidate list.
type DisableFunc func(entry option.Entry) bool

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDisable installs the disable rule applied to candidate entries.
func WithDisable(fn DisableFunc) ResolverOption {
	return func(r *Resolver) {
		r.disable = fn
	}
}

// WithUnresolvedLabel overrides the placeholder shown for a selected key
// whose label is still pending.
func WithUnresolvedLabel(label string) ResolverOption {
	return func(r *Resolver) {
		r.unresolvedLabel = label
	}
}

// Resolver merges the current search results with the selection to produce
// what a renderer needs: the candidate list with disable rules applied, and a
// view of every selected key with its best-known label regardless of whether
// the key appears in the results.
type Resolver struct {
	state *State
	src   source.Source

	disable         DisableFunc
	unresolvedLabel string
}

// NewResolver binds a resolver to a selection state and option source.
func NewResolver(state *State, src source.Source, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		state:           state,
		src:             src,
		unresolvedLabel: "…",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Candidates applies the disable rule to results and returns the renderable
// list. The input order is preserved and the input slice left untouched.
func (r *Resolver) Candidates(results []option.Entry) []option.Entry {
	if len(results) == 0 {
		return nil
	}
	out := make([]option.Entry, len(results))
	copy(out, results)
	if r.disable == nil {
		return out
	}
	for i := range out {
		if out[i].Disabled {
			continue
		}
		out[i].Disabled = r.disable(out[i])
	}
	return out
}

// Selectable reports whether the entry may be newly selected from the
// candidate list.
func (r *Resolver) Selectable(entry option.Entry) bool {
	if entry.Disabled {
		return false
	}
	return r.disable == nil || !r.disable(entry)
}

// SelectedView returns one entry per selected key, labelled from the cache or
// with the unresolved placeholder. Selection display is independent of search
// result membership: a selected key absent from the candidate list still
// appears here with its resolved label.
func (r *Resolver) SelectedView() []option.Entry {
	keys := r.state.Keys()
	if len(keys) == 0 {
		return nil
	}
	out := make([]option.Entry, 0, len(keys))
	for _, key := range keys {
		label, ok := r.state.Label(key)
		if !ok {
			label = r.unresolvedLabel
		}
		out = append(out, option.Entry{Key: key, Label: label})
	}
	return out
}

// Hydrate resolves labels for every selected key that has none cached. A
// single unresolved key uses the source's single resolution; several keys are
// resolved with exactly one batched call, so hydration cost stays constant in
// the selection size. Keys the source no longer knows keep their placeholder;
// failures leave the selection intact and are retried on the next call.
func (r *Resolver) Hydrate(ctx context.Context) error {
	unresolved := r.state.Unresolved()
	switch len(unresolved) {
	case 0:
		return nil
	case 1:
		key := unresolved[0]
		label, err := r.src.ResolveLabel(ctx, key)
		if errors.Is(err, source.ErrNotFound) {
			return nil
		}
		if err != nil {
			return &LabelResolutionError{Keys: unresolved, Err: err}
		}
		r.state.SetLabel(key, label)
		return nil
	default:
		labels, err := r.src.ResolveLabels(ctx, unresolved)
		if err != nil {
			return &LabelResolutionError{Keys: unresolved, Err: err}
		}
		for key, label := range labels {
			r.state.SetLabel(key, label)
		}
		return nil
	}
}
