package selectfield

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-selectfield/pkg/option"
	"github.com/goliatone/go-selectfield/pkg/search"
	"github.com/goliatone/go-selectfield/pkg/selection"
	"github.com/goliatone/go-selectfield/pkg/source"
)

// Snapshot is the render view handed to the external renderer after every
// state change. Labels are sanitized when AllowHTML is set; otherwise they
// are plain text the renderer must escape.
type Snapshot struct {
	FieldID  string
	Multiple bool
	Disabled bool
	AllowHTML bool

	Query      string
	Searching  bool
	Candidates []option.Entry
	Selected   []option.Entry

	// Message is the contextual status line (search prompt, searching,
	// loading, no results); empty when candidates speak for themselves.
	Message string
	// Placeholder labels the empty single-mode selection.
	Placeholder string
	// SearchFailed carries the indicator text for a failed search while the
	// previous candidate list stays visible.
	SearchFailed string
}

// Field is one searchable select instance: it owns the selection state, the
// search controller and the option source, and turns renderer events
// (keystroke, select, deselect, focus, submit) into state changes.
//
// Methods are safe for concurrent use; the debounce timer and search
// completions are serialised against renderer events with a mutex.
type Field struct {
	cfg config
	src source.Source

	mu          sync.Mutex
	state       *selection.State
	resolver    *selection.Resolver
	gate        selection.Gate
	ctrl        *search.Controller
	cancelTimer func()

	preloaded    []option.Entry
	hasPreloaded bool
}

// New builds a field from the given options, failing fast on any
// configuration error.
func New(opts ...Option) (*Field, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	if !cfg.multiple {
		if cfg.hasMinItems || cfg.hasMaxItems {
			return nil, configErrorf("minItems/maxItems apply to multiple-selection fields only")
		}
	}
	if cfg.disableWhen != nil && cfg.disableExpr != "" {
		return nil, configErrorf("disable-option callback and expression are mutually exclusive")
	}
	if cfg.disableExpr != "" {
		fn, err := selection.DisableExpr(cfg.disableExpr)
		if err != nil {
			return nil, &ConfigError{Reason: "disable-option expression", Err: err}
		}
		cfg.disableWhen = fn
	}

	src, err := buildSource(cfg)
	if err != nil {
		return nil, err
	}

	mode := selection.Single
	if cfg.multiple {
		mode = selection.Multiple
	}
	state := selection.NewState(mode)

	resolverOpts := []selection.ResolverOption{selection.WithDisable(cfg.disableWhen)}
	if cfg.unresolvedLabel != "" {
		resolverOpts = append(resolverOpts, selection.WithUnresolvedLabel(cfg.unresolvedLabel))
	}

	gate := selection.NewGate()
	if cfg.hasMinItems {
		gate = gate.WithMinItems(cfg.minItems)
	}
	if cfg.hasMaxItems {
		gate = gate.WithMaxItems(cfg.maxItems)
	}
	if cfg.disablePlaceholder {
		gate = gate.WithDisablePlaceholderSelection()
	}

	f := &Field{
		cfg:      cfg,
		src:      src,
		state:    state,
		resolver: selection.NewResolver(state, src, resolverOpts...),
		gate:     gate,
		ctrl:     search.NewController(cfg.searchDebounce, cfg.optionsLimit),
	}
	return f, nil
}

// buildSource picks the option-source variant from the configuration.
// Exactly one of options, search callback, relation or explicit source must
// be configured; combinations are ambiguous and rejected rather than given a
// precedence rule.
func buildSource(cfg config) (source.Source, error) {
	configured := 0
	if cfg.hasStatic {
		configured++
	}
	if cfg.searchFunc != nil {
		configured++
	}
	if cfg.relationStore != nil {
		configured++
	}
	if cfg.src != nil {
		configured++
	}
	if configured == 0 {
		return nil, configErrorf("an option source is required (options, search callback, relation, or source)")
	}
	if configured > 1 {
		return nil, configErrorf("options, search callback, relation and source are mutually exclusive")
	}

	switch {
	case cfg.hasStatic:
		return source.NewStatic(cfg.staticEntries), nil
	case cfg.searchFunc != nil:
		queryOpts := []source.QueryOption{}
		if cfg.labelFunc != nil {
			queryOpts = append(queryOpts, source.WithLabelFunc(cfg.labelFunc))
		}
		if cfg.labelsFunc != nil {
			queryOpts = append(queryOpts, source.WithLabelsFunc(cfg.labelsFunc))
		}
		src, err := source.NewQuery(cfg.searchFunc, queryOpts...)
		if err != nil {
			return nil, &ConfigError{Reason: "query source", Err: err}
		}
		return src, nil
	case cfg.relationStore != nil:
		relOpts := cfg.relationOpts
		if len(cfg.searchColumns) > 0 {
			relOpts = append([]source.RelationOption{source.WithSearchColumns(cfg.searchColumns...)}, relOpts...)
		}
		src, err := source.NewRelation(cfg.relationStore, cfg.relationTitle, relOpts...)
		if err != nil {
			return nil, &ConfigError{Reason: "relation source", Err: err}
		}
		return src, nil
	default:
		return cfg.src, nil
	}
}

// ID returns the field's instance id.
func (f *Field) ID() string {
	return f.cfg.id
}

// Searchable reports whether the field reacts to keystrokes.
func (f *Field) Searchable() bool {
	return f.cfg.searchable
}

// Keystroke records in-progress search input. It restarts the debounce
// window; the search itself fires when the window elapses with no further
// keystrokes, and never more than once per debounce interval.
func (f *Field) Keystroke(text string) {
	if f.cfg.disabled || !f.cfg.searchable {
		return
	}

	f.mu.Lock()
	now := f.cfg.now()
	fireAt := f.ctrl.Keystroke(now, text)
	if f.cancelTimer != nil {
		f.cancelTimer()
	}
	f.cancelTimer = f.cfg.schedule(fireAt.Sub(now), f.timerFired)
	f.mu.Unlock()

	f.notify()
}

// timerFired issues the pending search request, if any, and applies its
// outcome. The source call happens outside the lock; a result arriving for a
// superseded request is discarded by the controller.
func (f *Field) timerFired() {
	f.mu.Lock()
	req, ok := f.ctrl.TimerFired(f.cfg.now())
	f.mu.Unlock()
	if !ok {
		return
	}

	entries, err := f.src.Search(context.Background(), req.Query, req.Limit)
	if err != nil {
		err = &SearchError{Query: req.Query, Err: err}
	}

	f.mu.Lock()
	applied := f.ctrl.Complete(req.ID, option.Truncate(entries, req.Limit), err)
	f.mu.Unlock()

	if applied {
		f.notify()
	}
}

// Select picks a key. When the key is present in the current candidate list
// its label is taken from there with no extra round trip; a disabled
// candidate cannot be newly selected. Keys outside the candidate list are
// accepted and their labels resolved lazily.
func (f *Field) Select(ctx context.Context, key string) error {
	if f.cfg.disabled {
		return nil
	}

	f.mu.Lock()
	if entry, ok := f.findCandidate(key); ok {
		if !f.resolver.Selectable(entry) {
			f.mu.Unlock()
			return nil
		}
		f.state.SelectEntry(entry)
		f.mu.Unlock()
		f.notify()
		return nil
	}
	f.state.Select(key)
	err := f.resolver.Hydrate(ctx)
	f.mu.Unlock()

	f.notify()
	return err
}

// Deselect removes a key from the selection; in single mode any deselection
// clears the field.
func (f *Field) Deselect(key string) {
	if f.cfg.disabled {
		return
	}
	f.mu.Lock()
	f.state.Deselect(key)
	f.mu.Unlock()
	f.notify()
}

// Hydrate installs a stored value: nothing, one key, or a list of keys.
// Labels for all installed keys are resolved in one batched call regardless
// of selection size. A resolution failure keeps the selection and surfaces a
// *selection.LabelResolutionError; the labels are retried on the next
// hydration attempt or focus.
func (f *Field) Hydrate(ctx context.Context, value any) error {
	keys, err := hydrateKeys(value)
	if err != nil {
		return err
	}
	if !f.cfg.multiple && len(keys) > 1 {
		return fmt.Errorf("selectfield: single-selection field hydrated with %d values", len(keys))
	}

	f.mu.Lock()
	f.state.Clear()
	for _, key := range keys {
		f.state.Select(key)
	}
	err = f.resolver.Hydrate(ctx)
	f.mu.Unlock()

	f.notify()
	return err
}

// Focus handles the field gaining focus: the preloaded option set is fetched
// when configured, and any selected keys still missing labels get a
// resolution retry.
func (f *Field) Focus(ctx context.Context) error {
	if f.cfg.disabled {
		return nil
	}

	var preloadErr error
	if f.cfg.preload && !f.hasPreloadedSet() {
		entries, err := f.src.Search(ctx, "", f.cfg.optionsLimit)
		if err != nil {
			preloadErr = &SearchError{Err: err}
		} else {
			f.mu.Lock()
			f.preloaded = entries
			f.hasPreloaded = true
			f.mu.Unlock()
		}
	}

	f.mu.Lock()
	err := f.resolver.Hydrate(ctx)
	f.mu.Unlock()

	f.notify()
	if preloadErr != nil {
		return preloadErr
	}
	return err
}

func (f *Field) hasPreloadedSet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasPreloaded
}

// Value returns the submit payload: the selected key (or nil) in single
// mode, the sorted key list in multiple mode.
func (f *Field) Value() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Value()
}

// Validate applies the submit-time rules (minItems, maxItems, placeholder
// policy) to the current selection.
func (f *Field) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gate.Validate(f.state)
}

// Submit validates the selection and, for multi-valued relation-backed
// fields, synchronises the owner's links in the backing store. Relation sync
// happens here, at save time, never per selection.
func (f *Field) Submit(ctx context.Context, ownerKey string) error {
	if err := f.Validate(); err != nil {
		return err
	}

	rel, ok := f.src.(*source.Relation)
	if !ok || !f.cfg.multiple {
		return nil
	}

	f.mu.Lock()
	keys := f.state.Keys()
	f.mu.Unlock()
	return rel.Sync(ctx, ownerKey, keys)
}

// SubmitCreateOption runs the create-option sub-flow: the new record is
// persisted through the source and immediately selected.
func (f *Field) SubmitCreateOption(ctx context.Context, values map[string]string) (option.Entry, error) {
	creator, ok := f.src.(source.Creator)
	if !ok {
		return option.Entry{}, errors.New("selectfield: option source does not support creating options")
	}
	entry, err := creator.SubmitCreate(ctx, values)
	if err != nil {
		return option.Entry{}, err
	}

	f.mu.Lock()
	f.state.SelectEntry(entry)
	f.mu.Unlock()
	f.notify()
	return entry, nil
}

// SubmitEditOption runs the edit-option sub-flow and refreshes the cached
// label when the edited key is selected.
func (f *Field) SubmitEditOption(ctx context.Context, key string, values map[string]string) (option.Entry, error) {
	updater, ok := f.src.(source.Updater)
	if !ok {
		return option.Entry{}, errors.New("selectfield: option source does not support editing options")
	}
	entry, err := updater.SubmitEdit(ctx, key, values)
	if err != nil {
		return option.Entry{}, err
	}

	f.mu.Lock()
	f.state.SetLabel(entry.Key, entry.Label)
	f.mu.Unlock()
	f.notify()
	return entry, nil
}

// Snapshot assembles the current render view.
func (f *Field) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Field) snapshotLocked() Snapshot {
	candidates := f.resolver.Candidates(f.currentResults())
	selected := f.resolver.SelectedView()
	if f.cfg.allowHTML {
		candidates = option.SanitizeEntries(candidates)
		selected = option.SanitizeEntries(selected)
	}

	snap := Snapshot{
		FieldID:     f.cfg.id,
		Multiple:    f.cfg.multiple,
		Disabled:    f.cfg.disabled,
		AllowHTML:   f.cfg.allowHTML,
		Query:       f.ctrl.Query(),
		Searching:   f.ctrl.Searching(),
		Candidates:  candidates,
		Selected:    selected,
		Placeholder: f.cfg.messages.Placeholder,
		Message:     f.messageLocked(candidates),
	}
	if err := f.ctrl.Err(); err != nil {
		snap.SearchFailed = err.Error()
	}
	return snap
}

// messageLocked picks the contextual status line for the current state.
func (f *Field) messageLocked(candidates []option.Entry) string {
	if f.cfg.disabled {
		return ""
	}
	if f.ctrl.Searching() {
		return f.cfg.messages.Searching
	}
	if len(f.state.Unresolved()) > 0 {
		return f.cfg.messages.Loading
	}
	if f.ctrl.Status() == search.StatusCompleted && len(candidates) == 0 {
		return f.cfg.messages.NoSearchResults
	}
	if f.cfg.searchable && f.ctrl.Status() == search.StatusIdle && len(candidates) == 0 {
		return f.cfg.messages.SearchPrompt
	}
	return ""
}

// currentResults picks what the candidate list is built from: the latest
// completed search when one exists, else the preloaded set, else the full
// static list for non-searchable sources.
func (f *Field) currentResults() []option.Entry {
	if f.ctrl.HasResults() || f.ctrl.Status() == search.StatusErrored {
		return option.Truncate(f.ctrl.Results(), f.cfg.optionsLimit)
	}
	if f.hasPreloaded {
		return option.Truncate(f.preloaded, f.cfg.optionsLimit)
	}
	if lister, ok := f.src.(source.Lister); ok && !f.cfg.searchable {
		return option.Truncate(lister.ListStatic(), f.cfg.optionsLimit)
	}
	return nil
}

func (f *Field) findCandidate(key string) (option.Entry, bool) {
	for _, entry := range f.currentResults() {
		if entry.Key == key {
			return entry, true
		}
	}
	return option.Entry{}, false
}

// Close cancels any pending debounce timer. In-flight searches are not
// aborted; their results are discarded on arrival.
func (f *Field) Close() {
	f.mu.Lock()
	if f.cancelTimer != nil {
		f.cancelTimer()
		f.cancelTimer = nil
	}
	f.ctrl.Reset()
	f.mu.Unlock()
}

func (f *Field) notify() {
	if f.cfg.onChange == nil {
		return
	}
	f.cfg.onChange(f.Snapshot())
}

func hydrateKeys(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		keys := make([]string, 0, len(v))
		for _, item := range v {
			key, err := hydrateKey(item)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}
		return keys, nil
	default:
		key, err := hydrateKey(value)
		if err != nil {
			return nil, err
		}
		return []string{key}, nil
	}
}

// hydrateKey accepts the integer-like scalars a backing column may store.
func hydrateKey(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("selectfield: unsupported stored value type %T", value)
	}
}
