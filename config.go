package selectfield

import (
	"time"

	"github.com/goliatone/go-selectfield/pkg/option"
	"github.com/goliatone/go-selectfield/pkg/selection"
	"github.com/goliatone/go-selectfield/pkg/source"
	"github.com/goliatone/go-selectfield/pkg/store"
)

// ScheduleFunc schedules fn to run once after d and returns a cancel
// function. The default wraps time.AfterFunc; tests inject a hand-driven
// scheduler to control time.
type ScheduleFunc func(d time.Duration, fn func()) (cancel func())

func afterFuncSchedule(d time.Duration, fn func()) func() {
	timer := time.AfterFunc(d, fn)
	return func() {
		timer.Stop()
	}
}

type config struct {
	id       string
	multiple bool
	disabled bool

	searchable    bool
	searchColumns []string
	preload       bool
	allowHTML     bool

	optionsLimit   int
	searchDebounce time.Duration

	minItems           int
	maxItems           int
	hasMinItems        bool
	hasMaxItems        bool
	disablePlaceholder bool

	messages        Messages
	unresolvedLabel string

	disableWhen selection.DisableFunc
	disableExpr string

	staticEntries []option.Entry
	hasStatic     bool
	searchFunc    source.SearchFunc
	labelFunc     source.LabelFunc
	labelsFunc    source.LabelsFunc
	relationStore store.RecordStore
	relationTitle string
	relationOpts  []source.RelationOption
	src           source.Source

	now      func() time.Time
	schedule ScheduleFunc
	onChange func(Snapshot)
}

func defaultConfig() config {
	return config{
		optionsLimit:   source.DefaultLimit,
		searchDebounce: time.Second,
		messages:       DefaultMessages(),
		now:            time.Now,
		schedule:       afterFuncSchedule,
	}
}

// Option customises a field at construction time. The resulting
// configuration is immutable for the field's lifetime.
type Option func(*config)

// WithID sets the field's instance id. A UUID is generated when omitted.
func WithID(id string) Option {
	return func(c *config) {
		c.id = id
	}
}

// WithMultiple switches the field to multi-value selection.
func WithMultiple() Option {
	return func(c *config) {
		c.multiple = true
	}
}

// WithDisabled renders the field inert: no searches, no selection changes.
func WithDisabled() Option {
	return func(c *config) {
		c.disabled = true
	}
}

// WithSearchable enables search. The optional columns name the attributes a
// relation source matches against; they are ignored by other sources.
func WithSearchable(columns ...string) Option {
	return func(c *config) {
		c.searchable = true
		if len(columns) > 0 {
			c.searchColumns = append([]string{}, columns...)
		}
	}
}

// WithPreload eagerly fetches the full option set (the empty-query result)
// when the field gains focus, instead of waiting for the first keystroke.
func WithPreload() Option {
	return func(c *config) {
		c.preload = true
	}
}

// WithAllowHTML lets option labels carry markup. Labels are sanitized before
// rendering; without this option they are treated as plain text and escaping
// is the renderer's responsibility.
func WithAllowHTML() Option {
	return func(c *config) {
		c.allowHTML = true
	}
}

// WithOptionsLimit caps candidate lists at n entries. Default 50.
func WithOptionsLimit(n int) Option {
	return func(c *config) {
		c.optionsLimit = n
	}
}

// WithSearchDebounce sets the debounce window between a keystroke and the
// search it triggers. Default one second.
func WithSearchDebounce(d time.Duration) Option {
	return func(c *config) {
		c.searchDebounce = d
	}
}

// WithMinItems requires at least n selections at submit time. Multiple mode
// only.
func WithMinItems(n int) Option {
	return func(c *config) {
		c.minItems = n
		c.hasMinItems = true
	}
}

// WithMaxItems allows at most n selections at submit time. The UI may exceed
// the bound transiently while editing; only validation enforces it. Multiple
// mode only.
func WithMaxItems(n int) Option {
	return func(c *config) {
		c.maxItems = n
		c.hasMaxItems = true
	}
}

// WithDisablePlaceholderSelection forbids submitting a single-mode field with
// no value selected.
func WithDisablePlaceholderSelection() Option {
	return func(c *config) {
		c.disablePlaceholder = true
	}
}

// WithMessages overrides display strings; zero-valued entries keep their
// defaults.
func WithMessages(messages Messages) Option {
	return func(c *config) {
		c.messages = messages.withDefaults()
	}
}

// WithUnresolvedLabel sets the placeholder shown for a selected key whose
// label has not resolved yet.
func WithUnresolvedLabel(label string) Option {
	return func(c *config) {
		c.unresolvedLabel = label
	}
}

// WithDisableOptionWhen marks matching candidate entries as not selectable.
// Already selected keys stay selected; the rule only blocks new selection.
func WithDisableOptionWhen(fn selection.DisableFunc) Option {
	return func(c *config) {
		c.disableWhen = fn
	}
}

// WithDisableOptionExpr is WithDisableOptionWhen with the rule written as an
// expression over `key` and `label`, e.g. `key == "archived"`.
func WithDisableOptionExpr(expression string) Option {
	return func(c *config) {
		c.disableExpr = expression
	}
}

// WithOptions backs the field with a fixed key→label option set.
func WithOptions(options map[string]string) Option {
	return func(c *config) {
		c.staticEntries = option.FromMap(options)
		c.hasStatic = true
	}
}

// WithOptionEntries backs the field with a fixed option list in the given
// order.
func WithOptionEntries(entries []option.Entry) Option {
	return func(c *config) {
		c.staticEntries = append([]option.Entry{}, entries...)
		c.hasStatic = true
	}
}

// WithSearchFunc backs the field with a custom search callback. A label (or
// batched labels) resolver must be supplied alongside so stored values can be
// displayed; combining this with WithOptions is a configuration error.
func WithSearchFunc(search source.SearchFunc) Option {
	return func(c *config) {
		c.searchFunc = search
	}
}

// WithLabelFunc sets the single-key label resolver for WithSearchFunc.
func WithLabelFunc(fn source.LabelFunc) Option {
	return func(c *config) {
		c.labelFunc = fn
	}
}

// WithLabelsFunc sets the batched label resolver for WithSearchFunc.
func WithLabelsFunc(fn source.LabelsFunc) Option {
	return func(c *config) {
		c.labelsFunc = fn
	}
}

// WithRelation backs the field with records from st labelled by titleColumn.
// Search columns configured via WithSearchable apply to the relation's query.
func WithRelation(st store.RecordStore, titleColumn string, opts ...source.RelationOption) Option {
	return func(c *config) {
		c.relationStore = st
		c.relationTitle = titleColumn
		c.relationOpts = append([]source.RelationOption{}, opts...)
	}
}

// WithSource backs the field with a caller-supplied option source.
func WithSource(src source.Source) Option {
	return func(c *config) {
		c.src = src
	}
}

// WithClock overrides the field's time source.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithScheduler overrides how debounce timers are scheduled.
func WithScheduler(schedule ScheduleFunc) Option {
	return func(c *config) {
		if schedule != nil {
			c.schedule = schedule
		}
	}
}

// WithOnChange registers a callback invoked with a fresh snapshot after every
// state change, so a reactive renderer can re-render.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *config) {
		c.onChange = fn
	}
}
