package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-selectfield/pkg/option"
	"github.com/goliatone/go-selectfield/pkg/store"
)

// RelationOption configures a Relation source.
type RelationOption func(*Relation)

// WithSearchColumns sets the attribute columns the query matches against,
// OR-combined. Defaults to the title columns.
func WithSearchColumns(columns ...string) RelationOption {
	return func(r *Relation) {
		r.searchColumns = append([]string{}, columns...)
	}
}

// WithTitleColumns sets additional columns joined into the default label.
func WithTitleColumns(columns ...string) RelationOption {
	return func(r *Relation) {
		r.titleColumns = append([]string{}, columns...)
	}
}

// WithRecordLabel replaces the default title-column label with a custom
// construction over the full record.
func WithRecordLabel(fn func(store.Record) string) RelationOption {
	return func(r *Relation) {
		r.labelFunc = fn
	}
}

// WithFilterModifier installs a hook that can adjust the store filter before
// each search, e.g. to scope results or change ordering.
func WithFilterModifier(fn func(*store.Filter)) RelationOption {
	return func(r *Relation) {
		r.modifyFilter = fn
	}
}

// WithOrderBy sets the column search results are ordered by. Unset means
// store-defined order.
func WithOrderBy(column string) RelationOption {
	return func(r *Relation) {
		r.orderBy = column
	}
}

// WithRelationshipName records the relationship's name for diagnostics.
func WithRelationshipName(name string) RelationOption {
	return func(r *Relation) {
		r.name = name
	}
}

// Relation resolves options from a foreign collection through a record store.
// Labels default to the configured title column(s); search matches the query
// across the search columns as an OR-combined substring filter.
type Relation struct {
	store store.RecordStore
	name  string

	titleColumns  []string
	searchColumns []string
	orderBy       string
	labelFunc     func(store.Record) string
	modifyFilter  func(*store.Filter)
}

// NewRelation builds a relation source over st labelled by titleColumn.
func NewRelation(st store.RecordStore, titleColumn string, opts ...RelationOption) (*Relation, error) {
	if st == nil {
		return nil, errors.New("source: relation source requires a record store")
	}
	if strings.TrimSpace(titleColumn) == "" {
		return nil, errors.New("source: relation source requires a title column")
	}

	r := &Relation{
		store:        st,
		titleColumns: []string{titleColumn},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if len(r.searchColumns) == 0 {
		r.searchColumns = append([]string{}, r.titleColumns...)
	}
	return r, nil
}

// Name reports the configured relationship name, or the first title column
// when none was set.
func (r *Relation) Name() string {
	if r.name != "" {
		return r.name
	}
	return r.titleColumns[0]
}

// Search queries the store across the configured search columns.
func (r *Relation) Search(ctx context.Context, query string, limit int) ([]option.Entry, error) {
	filter := store.Filter{
		Query:   strings.TrimSpace(query),
		Columns: append([]string{}, r.searchColumns...),
		Limit:   clampLimit(limit),
		OrderBy: r.orderBy,
	}
	if r.modifyFilter != nil {
		r.modifyFilter(&filter)
	}

	records, err := r.store.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("source: relation %s search: %w", r.Name(), err)
	}

	entries := make([]option.Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, option.Entry{Key: record.Key, Label: r.label(record)})
	}
	return option.Truncate(entries, filter.Limit), nil
}

// ResolveLabel loads one record's label.
func (r *Relation) ResolveLabel(ctx context.Context, key string) (string, error) {
	records, err := r.store.FindByKeys(ctx, []string{key})
	if err != nil {
		return "", fmt.Errorf("source: relation %s resolve: %w", r.Name(), err)
	}
	if len(records) == 0 {
		return "", ErrNotFound
	}
	return r.label(records[0]), nil
}

// ResolveLabels loads all requested records in one store round trip; keys
// without a record are absent from the result.
func (r *Relation) ResolveLabels(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	records, err := r.store.FindByKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("source: relation %s resolve: %w", r.Name(), err)
	}

	labels := make(map[string]string, len(records))
	for _, record := range records {
		labels[record.Key] = r.label(record)
	}
	return labels, nil
}

// SubmitCreate persists a new related record from the create-option sub-form
// and returns it as a selectable entry.
func (r *Relation) SubmitCreate(ctx context.Context, values map[string]string) (option.Entry, error) {
	record, err := r.store.Create(ctx, values)
	if err != nil {
		return option.Entry{}, fmt.Errorf("source: relation %s create: %w", r.Name(), err)
	}
	return option.Entry{Key: record.Key, Label: r.label(record)}, nil
}

// SubmitEdit updates an existing related record from the edit-option sub-form.
func (r *Relation) SubmitEdit(ctx context.Context, key string, values map[string]string) (option.Entry, error) {
	record, err := r.store.Update(ctx, key, values)
	if err != nil {
		return option.Entry{}, fmt.Errorf("source: relation %s edit: %w", r.Name(), err)
	}
	return option.Entry{Key: record.Key, Label: r.label(record)}, nil
}

// Attach links keys to ownerKey for many-to-many relationships. It fails when
// the underlying store has no pivot support.
func (r *Relation) Attach(ctx context.Context, ownerKey string, keys []string) error {
	rel, err := r.relationStore()
	if err != nil {
		return err
	}
	return rel.Attach(ctx, ownerKey, keys)
}

// Detach unlinks keys from ownerKey.
func (r *Relation) Detach(ctx context.Context, ownerKey string, keys []string) error {
	rel, err := r.relationStore()
	if err != nil {
		return err
	}
	return rel.Detach(ctx, ownerKey, keys)
}

// Sync replaces the owner's links with exactly keys. The submission pipeline
// calls this at save time rather than per selection.
func (r *Relation) Sync(ctx context.Context, ownerKey string, keys []string) error {
	rel, err := r.relationStore()
	if err != nil {
		return err
	}
	return rel.Sync(ctx, ownerKey, keys)
}

func (r *Relation) relationStore() (store.RelationStore, error) {
	rel, ok := r.store.(store.RelationStore)
	if !ok {
		return nil, fmt.Errorf("source: relation %s store does not support attach/detach/sync", r.Name())
	}
	return rel, nil
}

func (r *Relation) label(record store.Record) string {
	if r.labelFunc != nil {
		return r.labelFunc(record)
	}

	parts := make([]string, 0, len(r.titleColumns))
	for _, column := range r.titleColumns {
		if value := strings.TrimSpace(record.Column(column)); value != "" {
			parts = append(parts, value)
		}
	}
	if len(parts) == 0 {
		return record.Key
	}
	return strings.Join(parts, " ")
}
