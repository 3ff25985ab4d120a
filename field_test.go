package selectfield_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	selectfield "github.com/goliatone/go-selectfield"
	"github.com/goliatone/go-selectfield/pkg/option"
	"github.com/goliatone/go-selectfield/pkg/selection"
	"github.com/goliatone/go-selectfield/pkg/store"
)

// ticker is a hand-driven clock and timer scheduler so tests control the
// debounce window deterministically.
type ticker struct {
	mu  sync.Mutex
	now time.Time
	fn  func()
	due time.Time
}

func newTicker() *ticker {
	return &ticker{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (t *ticker) Now() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now
}

func (t *ticker) Schedule(d time.Duration, fn func()) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fn = fn
	t.due = t.now.Add(d)
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.fn = nil
	}
}

// Advance moves the clock forward, firing the pending timer if its deadline
// passes. The callback runs without the ticker lock held.
func (t *ticker) Advance(d time.Duration) {
	t.mu.Lock()
	t.now = t.now.Add(d)
	var fire func()
	if t.fn != nil && !t.now.Before(t.due) {
		fire = t.fn
		t.fn = nil
	}
	t.mu.Unlock()

	if fire != nil {
		fire()
	}
}

func languageEntries() []option.Entry {
	return []option.Entry{
		{Key: "go", Label: "Go"},
		{Key: "py", Label: "Python"},
		{Key: "rb", Label: "Ruby"},
		{Key: "rs", Label: "Rust"},
	}
}

func staticSearch(entries []option.Entry) func(context.Context, string, int) ([]option.Entry, error) {
	return func(_ context.Context, query string, limit int) ([]option.Entry, error) {
		var matched []option.Entry
		for _, entry := range entries {
			if strings.Contains(strings.ToLower(entry.Label), strings.ToLower(query)) {
				matched = append(matched, entry)
			}
		}
		return option.Truncate(matched, limit), nil
	}
}

func staticLabel(entries []option.Entry) func(context.Context, string) (string, error) {
	return func(_ context.Context, key string) (string, error) {
		for _, entry := range entries {
			if entry.Key == key {
				return entry.Label, nil
			}
		}
		return "", fmt.Errorf("no label for %q", key)
	}
}

func TestField_DebouncedSearchUsesFinalQuery(t *testing.T) {
	clock := newTicker()
	var queries []string
	entries := languageEntries()

	field, err := selectfield.New(
		selectfield.WithSearchable(),
		selectfield.WithSearchDebounce(300*time.Millisecond),
		selectfield.WithSearchFunc(func(ctx context.Context, query string, limit int) ([]option.Entry, error) {
			queries = append(queries, query)
			return staticSearch(entries)(ctx, query, limit)
		}),
		selectfield.WithLabelFunc(staticLabel(entries)),
		selectfield.WithClock(clock.Now),
		selectfield.WithScheduler(clock.Schedule),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	field.Keystroke("r")
	clock.Advance(100 * time.Millisecond)
	field.Keystroke("ru")
	clock.Advance(100 * time.Millisecond)
	field.Keystroke("rus")

	if len(queries) != 0 {
		t.Fatalf("search fired inside debounce window: %v", queries)
	}
	if snap := field.Snapshot(); !snap.Searching {
		t.Fatal("snapshot not marked searching while debouncing")
	}

	clock.Advance(300 * time.Millisecond)

	if diff := cmp.Diff([]string{"rus"}, queries); diff != "" {
		t.Fatalf("queries (-want +got):\n%s", diff)
	}
	snap := field.Snapshot()
	if snap.Searching {
		t.Fatal("still searching after completion")
	}
	if diff := cmp.Diff([]option.Entry{{Key: "rs", Label: "Rust"}}, snap.Candidates); diff != "" {
		t.Fatalf("candidates (-want +got):\n%s", diff)
	}
}

func TestField_SearchErrorKeepsPreviousCandidates(t *testing.T) {
	clock := newTicker()
	entries := languageEntries()
	fail := false

	field, err := selectfield.New(
		selectfield.WithSearchable(),
		selectfield.WithSearchDebounce(300*time.Millisecond),
		selectfield.WithSearchFunc(func(ctx context.Context, query string, limit int) ([]option.Entry, error) {
			if fail {
				return nil, errors.New("backend down")
			}
			return staticSearch(entries)(ctx, query, limit)
		}),
		selectfield.WithLabelFunc(staticLabel(entries)),
		selectfield.WithClock(clock.Now),
		selectfield.WithScheduler(clock.Schedule),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	field.Keystroke("py")
	clock.Advance(400 * time.Millisecond)
	if snap := field.Snapshot(); len(snap.Candidates) != 1 || snap.SearchFailed != "" {
		t.Fatalf("unexpected first snapshot: %+v", snap)
	}

	fail = true
	field.Keystroke("ru")
	clock.Advance(400 * time.Millisecond)

	snap := field.Snapshot()
	if snap.SearchFailed == "" {
		t.Fatal("failed search not surfaced")
	}
	if diff := cmp.Diff([]option.Entry{{Key: "py", Label: "Python"}}, snap.Candidates); diff != "" {
		t.Fatalf("previous candidates lost (-want +got):\n%s", diff)
	}
}

func TestField_SelectFromCandidatesSkipsLabelResolution(t *testing.T) {
	clock := newTicker()
	entries := languageEntries()
	labelCalls := 0

	field, err := selectfield.New(
		selectfield.WithSearchable(),
		selectfield.WithSearchDebounce(50*time.Millisecond),
		selectfield.WithSearchFunc(staticSearch(entries)),
		selectfield.WithLabelFunc(func(ctx context.Context, key string) (string, error) {
			labelCalls++
			return staticLabel(entries)(ctx, key)
		}),
		selectfield.WithClock(clock.Now),
		selectfield.WithScheduler(clock.Schedule),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	field.Keystroke("go")
	clock.Advance(100 * time.Millisecond)

	if err := field.Select(context.Background(), "go"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if labelCalls != 0 {
		t.Fatalf("label resolver called %d times for an on-screen candidate", labelCalls)
	}

	snap := field.Snapshot()
	if diff := cmp.Diff([]option.Entry{{Key: "go", Label: "Go"}}, snap.Selected); diff != "" {
		t.Fatalf("selected (-want +got):\n%s", diff)
	}
	if got := field.Value(); got != "go" {
		t.Fatalf("value = %v, want %q", got, "go")
	}
}

func TestField_DisabledCandidateCannotBeSelected(t *testing.T) {
	field, err := selectfield.New(
		selectfield.WithOptionEntries(languageEntries()),
		selectfield.WithDisableOptionWhen(func(entry option.Entry) bool {
			return entry.Key == "rb"
		}),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	if err := field.Select(context.Background(), "rb"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := field.Value(); got != nil {
		t.Fatalf("disabled candidate was selected: %v", got)
	}

	if err := field.Select(context.Background(), "py"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := field.Value(); got != "py" {
		t.Fatalf("value = %v, want %q", got, "py")
	}
}

func TestField_DisableOptionExpr(t *testing.T) {
	field, err := selectfield.New(
		selectfield.WithOptionEntries(languageEntries()),
		selectfield.WithDisableOptionExpr(`key == "rs"`),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	snap := field.Snapshot()
	for _, entry := range snap.Candidates {
		if entry.Key == "rs" && !entry.Disabled {
			t.Fatal("expression did not disable the matching candidate")
		}
		if entry.Key != "rs" && entry.Disabled {
			t.Fatalf("entry %q wrongly disabled", entry.Key)
		}
	}
}

func TestField_HydrateResolvesLabelsInOneBatch(t *testing.T) {
	entries := languageEntries()
	batches := 0

	field, err := selectfield.New(
		selectfield.WithMultiple(),
		selectfield.WithSearchable(),
		selectfield.WithSearchFunc(staticSearch(entries)),
		selectfield.WithLabelsFunc(func(_ context.Context, keys []string) (map[string]string, error) {
			batches++
			labels := make(map[string]string, len(keys))
			for _, entry := range entries {
				labels[entry.Key] = entry.Label
			}
			return labels, nil
		}),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	if err := field.Hydrate(context.Background(), []string{"py", "go", "rs"}); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if batches != 1 {
		t.Fatalf("labels resolved in %d calls, want 1", batches)
	}

	snap := field.Snapshot()
	want := []option.Entry{
		{Key: "go", Label: "Go"},
		{Key: "py", Label: "Python"},
		{Key: "rs", Label: "Rust"},
	}
	if diff := cmp.Diff(want, snap.Selected); diff != "" {
		t.Fatalf("selected (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"go", "py", "rs"}, field.Value()); diff != "" {
		t.Fatalf("value (-want +got):\n%s", diff)
	}
}

func TestField_HydrateFailureKeepsSelectionAndRetriesOnFocus(t *testing.T) {
	entries := languageEntries()
	fail := true

	field, err := selectfield.New(
		selectfield.WithMultiple(),
		selectfield.WithSearchable(),
		selectfield.WithSearchFunc(staticSearch(entries)),
		selectfield.WithLabelsFunc(func(_ context.Context, keys []string) (map[string]string, error) {
			if fail {
				return nil, errors.New("labels unavailable")
			}
			labels := make(map[string]string, len(keys))
			for _, entry := range entries {
				labels[entry.Key] = entry.Label
			}
			return labels, nil
		}),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	err = field.Hydrate(context.Background(), []string{"go", "py"})
	var resErr *selection.LabelResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("hydrate error = %v, want *selection.LabelResolutionError", err)
	}

	// The selection survives; labels fall back to the placeholder.
	if diff := cmp.Diff([]string{"go", "py"}, field.Value()); diff != "" {
		t.Fatalf("selection lost (-want +got):\n%s", diff)
	}
	snap := field.Snapshot()
	for _, entry := range snap.Selected {
		if entry.Label != "…" {
			t.Fatalf("unresolved entry %q shows label %q", entry.Key, entry.Label)
		}
	}
	if snap.Message == "" {
		t.Fatal("expected a loading message while labels are unresolved")
	}

	fail = false
	if err := field.Focus(context.Background()); err != nil {
		t.Fatalf("focus: %v", err)
	}
	snap = field.Snapshot()
	want := []option.Entry{
		{Key: "go", Label: "Go"},
		{Key: "py", Label: "Python"},
	}
	if diff := cmp.Diff(want, snap.Selected); diff != "" {
		t.Fatalf("labels not retried (-want +got):\n%s", diff)
	}
}

func TestField_SingleModeRejectsMultiValueHydration(t *testing.T) {
	field, err := selectfield.New(selectfield.WithOptions(map[string]string{"a": "A"}))
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	if err := field.Hydrate(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("single-mode field accepted two stored values")
	}
	if err := field.Hydrate(context.Background(), int64(42)); err != nil {
		t.Fatalf("integer stored value rejected: %v", err)
	}
	if got := field.Value(); got != "42" {
		t.Fatalf("value = %v, want %q", got, "42")
	}
}

func TestField_ValidateBounds(t *testing.T) {
	field, err := selectfield.New(
		selectfield.WithMultiple(),
		selectfield.WithOptions(map[string]string{"a": "A", "b": "B", "c": "C"}),
		selectfield.WithMinItems(1),
		selectfield.WithMaxItems(2),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()
	ctx := context.Background()

	var vErr *selection.ValidationError
	if err := field.Validate(); !errors.As(err, &vErr) {
		t.Fatalf("empty selection: %v", err)
	}

	for _, key := range []string{"a", "b", "c"} {
		if err := field.Select(ctx, key); err != nil {
			t.Fatalf("select %q: %v", key, err)
		}
	}
	// Over the cap: selecting is allowed, validation is not.
	if err := field.Validate(); !errors.As(err, &vErr) {
		t.Fatalf("over-cap selection: %v", err)
	}

	field.Deselect("c")
	if err := field.Validate(); err != nil {
		t.Fatalf("valid selection rejected: %v", err)
	}
}

func TestField_SubmitSyncsRelationLinks(t *testing.T) {
	st := store.NewMemory(
		store.Record{Key: "1", Columns: map[string]string{"name": "Ada"}},
		store.Record{Key: "2", Columns: map[string]string{"name": "Alan"}},
		store.Record{Key: "3", Columns: map[string]string{"name": "Grace"}},
	)

	field, err := selectfield.New(
		selectfield.WithMultiple(),
		selectfield.WithSearchable("name"),
		selectfield.WithRelation(st, "name"),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()
	ctx := context.Background()

	if err := field.Hydrate(ctx, []string{"1", "3"}); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if err := field.Submit(ctx, "post-9"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "3"}, st.Linked("post-9")); diff != "" {
		t.Fatalf("links after submit (-want +got):\n%s", diff)
	}

	field.Deselect("3")
	if err := field.Select(ctx, "2"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := field.Submit(ctx, "post-9"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "2"}, st.Linked("post-9")); diff != "" {
		t.Fatalf("links after resubmit (-want +got):\n%s", diff)
	}
}

func TestField_SubmitCreateOptionSelectsNewEntry(t *testing.T) {
	st := store.NewMemory()
	field, err := selectfield.New(
		selectfield.WithSearchable("name"),
		selectfield.WithRelation(st, "name"),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	entry, err := field.SubmitCreateOption(context.Background(), map[string]string{"name": "Barbara"})
	if err != nil {
		t.Fatalf("create option: %v", err)
	}
	if entry.Label != "Barbara" {
		t.Fatalf("entry label = %q", entry.Label)
	}
	if got := field.Value(); got != entry.Key {
		t.Fatalf("created entry not selected: %v", got)
	}
}

func TestField_AllowHTMLSanitizesLabels(t *testing.T) {
	field, err := selectfield.New(
		selectfield.WithAllowHTML(),
		selectfield.WithOptionEntries([]option.Entry{
			{Key: "x", Label: `<b class="hl">Bold</b><script>alert(1)</script>`},
		}),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	snap := field.Snapshot()
	if len(snap.Candidates) != 1 {
		t.Fatalf("candidates = %v", snap.Candidates)
	}
	label := snap.Candidates[0].Label
	if strings.Contains(label, "script") {
		t.Fatalf("script survived sanitization: %q", label)
	}
	if !strings.Contains(label, "Bold") {
		t.Fatalf("markup content lost: %q", label)
	}
}

func TestField_DisabledFieldIsInert(t *testing.T) {
	clock := newTicker()
	searches := 0

	field, err := selectfield.New(
		selectfield.WithDisabled(),
		selectfield.WithSearchable(),
		selectfield.WithSearchFunc(func(context.Context, string, int) ([]option.Entry, error) {
			searches++
			return nil, nil
		}),
		selectfield.WithLabelFunc(func(context.Context, string) (string, error) { return "", nil }),
		selectfield.WithClock(clock.Now),
		selectfield.WithScheduler(clock.Schedule),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	field.Keystroke("q")
	clock.Advance(5 * time.Second)
	if searches != 0 {
		t.Fatal("disabled field ran a search")
	}
	if err := field.Select(context.Background(), "q"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if field.Value() != nil {
		t.Fatal("disabled field changed selection")
	}
}

func TestField_Messages(t *testing.T) {
	clock := newTicker()
	field, err := selectfield.New(
		selectfield.WithSearchable(),
		selectfield.WithSearchDebounce(50*time.Millisecond),
		selectfield.WithSearchFunc(func(context.Context, string, int) ([]option.Entry, error) {
			return nil, nil
		}),
		selectfield.WithLabelFunc(func(context.Context, string) (string, error) { return "", nil }),
		selectfield.WithMessages(selectfield.Messages{NoSearchResults: "nothing here"}),
		selectfield.WithClock(clock.Now),
		selectfield.WithScheduler(clock.Schedule),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	if snap := field.Snapshot(); snap.Message != selectfield.DefaultMessages().SearchPrompt {
		t.Fatalf("idle message = %q", snap.Message)
	}

	field.Keystroke("zz")
	if snap := field.Snapshot(); snap.Message != selectfield.DefaultMessages().Searching {
		t.Fatalf("searching message = %q", snap.Message)
	}

	clock.Advance(100 * time.Millisecond)
	if snap := field.Snapshot(); snap.Message != "nothing here" {
		t.Fatalf("no-results message = %q", snap.Message)
	}
}

func TestField_PreloadFetchesOnceOnFocus(t *testing.T) {
	searches := 0
	entries := languageEntries()

	field, err := selectfield.New(
		selectfield.WithSearchable(),
		selectfield.WithPreload(),
		selectfield.WithSearchFunc(func(ctx context.Context, query string, limit int) ([]option.Entry, error) {
			searches++
			return staticSearch(entries)(ctx, query, limit)
		}),
		selectfield.WithLabelFunc(staticLabel(entries)),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()
	ctx := context.Background()

	if err := field.Focus(ctx); err != nil {
		t.Fatalf("focus: %v", err)
	}
	if err := field.Focus(ctx); err != nil {
		t.Fatalf("refocus: %v", err)
	}
	if searches != 1 {
		t.Fatalf("preload fetched %d times, want 1", searches)
	}
	if snap := field.Snapshot(); len(snap.Candidates) != len(entries) {
		t.Fatalf("candidates = %v", snap.Candidates)
	}
}

func TestField_NonSearchableStaticListsAllOptions(t *testing.T) {
	field, err := selectfield.New(selectfield.WithOptionEntries(languageEntries()))
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	snap := field.Snapshot()
	if diff := cmp.Diff(languageEntries(), snap.Candidates); diff != "" {
		t.Fatalf("candidates (-want +got):\n%s", diff)
	}
	if snap.Message != "" {
		t.Fatalf("unexpected message %q", snap.Message)
	}
}

func TestField_OnChangeFiresAfterStateChanges(t *testing.T) {
	var snaps []selectfield.Snapshot
	field, err := selectfield.New(
		selectfield.WithOptionEntries(languageEntries()),
		selectfield.WithOnChange(func(snap selectfield.Snapshot) {
			snaps = append(snaps, snap)
		}),
	)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	defer field.Close()

	if err := field.Select(context.Background(), "go"); err != nil {
		t.Fatalf("select: %v", err)
	}
	field.Deselect("go")

	if len(snaps) != 2 {
		t.Fatalf("onChange fired %d times, want 2", len(snaps))
	}
	if len(snaps[0].Selected) != 1 || snaps[0].Selected[0].Key != "go" {
		t.Fatalf("first snapshot selected = %v", snaps[0].Selected)
	}
	if len(snaps[1].Selected) != 0 {
		t.Fatalf("second snapshot selected = %v", snaps[1].Selected)
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	cases := []struct {
		name string
		opts []selectfield.Option
	}{
		{
			name: "no source",
			opts: nil,
		},
		{
			name: "two sources",
			opts: []selectfield.Option{
				selectfield.WithOptions(map[string]string{"a": "A"}),
				selectfield.WithSearchFunc(func(context.Context, string, int) ([]option.Entry, error) { return nil, nil }),
				selectfield.WithLabelFunc(func(context.Context, string) (string, error) { return "", nil }),
			},
		},
		{
			name: "search callback without label resolver",
			opts: []selectfield.Option{
				selectfield.WithSearchFunc(func(context.Context, string, int) ([]option.Entry, error) { return nil, nil }),
			},
		},
		{
			name: "min items without multiple",
			opts: []selectfield.Option{
				selectfield.WithOptions(map[string]string{"a": "A"}),
				selectfield.WithMinItems(1),
			},
		},
		{
			name: "disable callback and expression together",
			opts: []selectfield.Option{
				selectfield.WithOptions(map[string]string{"a": "A"}),
				selectfield.WithDisableOptionWhen(func(option.Entry) bool { return false }),
				selectfield.WithDisableOptionExpr(`key == "a"`),
			},
		},
		{
			name: "malformed disable expression",
			opts: []selectfield.Option{
				selectfield.WithOptions(map[string]string{"a": "A"}),
				selectfield.WithDisableOptionExpr(`key ==`),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := selectfield.New(tc.opts...)
			var cfgErr *selectfield.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("New() error = %v, want *ConfigError", err)
			}
		})
	}
}
