package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const defaultSearchLimit = 50

// Memory is an in-process RelationStore used by tests, examples and small
// static datasets. Records keep insertion order; links are tracked per owner
// key the way a pivot table would.
type Memory struct {
	records []Record
	index   map[string]int
	links   map[string]map[string]struct{}
}

// NewMemory seeds a store with the given records. Records without a key are
// rejected lazily on first use via Search/FindByKeys returning them absent.
func NewMemory(records ...Record) *Memory {
	m := &Memory{
		index: make(map[string]int, len(records)),
		links: make(map[string]map[string]struct{}),
	}
	for _, record := range records {
		m.put(record)
	}
	return m
}

func (m *Memory) put(record Record) {
	if record.Key == "" {
		return
	}
	if pos, ok := m.index[record.Key]; ok {
		m.records[pos] = record
		return
	}
	m.index[record.Key] = len(m.records)
	m.records = append(m.records, record)
}

// Search applies the filter's substring match, OR-combined across the listed
// columns (all columns when none are listed), preserving insertion order
// unless OrderBy names a column.
func (m *Memory) Search(_ context.Context, filter Filter) ([]Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	var matches []Record
	for _, record := range m.records {
		if query != "" && !matchesRecord(record, query, filter.Columns) {
			continue
		}
		matches = append(matches, cloneRecord(record))
	}

	if filter.OrderBy != "" {
		column := filter.OrderBy
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Column(column) < matches[j].Column(column)
		})
	}

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func matchesRecord(record Record, query string, columns []string) bool {
	if len(columns) == 0 {
		for _, value := range record.Columns {
			if strings.Contains(strings.ToLower(value), query) {
				return true
			}
		}
		return false
	}
	for _, column := range columns {
		if strings.Contains(strings.ToLower(record.Column(column)), query) {
			return true
		}
	}
	return false
}

// FindByKeys returns the records matching keys; unknown keys are absent from
// the result rather than reported as errors.
func (m *Memory) FindByKeys(_ context.Context, keys []string) ([]Record, error) {
	out := make([]Record, 0, len(keys))
	for _, key := range keys {
		if pos, ok := m.index[key]; ok {
			out = append(out, cloneRecord(m.records[pos]))
		}
	}
	return out, nil
}

// Create stores a new record. The key is taken from values["id"] when present
// and generated otherwise.
func (m *Memory) Create(_ context.Context, values map[string]string) (Record, error) {
	record := Record{Key: values["id"], Columns: cloneColumns(values)}
	if record.Key == "" {
		record.Key = uuid.NewString()
	}
	delete(record.Columns, "id")
	if _, exists := m.index[record.Key]; exists {
		return Record{}, fmt.Errorf("store: record %q already exists", record.Key)
	}
	m.put(record)
	return cloneRecord(record), nil
}

// Update merges values into the existing record's columns.
func (m *Memory) Update(_ context.Context, key string, values map[string]string) (Record, error) {
	pos, ok := m.index[key]
	if !ok {
		return Record{}, fmt.Errorf("store: record %q not found", key)
	}
	record := m.records[pos]
	if record.Columns == nil {
		record.Columns = make(map[string]string, len(values))
	}
	for column, value := range values {
		record.Columns[column] = value
	}
	m.records[pos] = record
	return cloneRecord(record), nil
}

// Attach links keys to ownerKey, ignoring keys already linked.
func (m *Memory) Attach(_ context.Context, ownerKey string, keys []string) error {
	linked := m.links[ownerKey]
	if linked == nil {
		linked = make(map[string]struct{}, len(keys))
		m.links[ownerKey] = linked
	}
	for _, key := range keys {
		linked[key] = struct{}{}
	}
	return nil
}

// Detach unlinks keys from ownerKey; unknown keys are no-ops.
func (m *Memory) Detach(_ context.Context, ownerKey string, keys []string) error {
	linked := m.links[ownerKey]
	for _, key := range keys {
		delete(linked, key)
	}
	return nil
}

// Sync replaces the owner's links with exactly keys.
func (m *Memory) Sync(_ context.Context, ownerKey string, keys []string) error {
	linked := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		linked[key] = struct{}{}
	}
	m.links[ownerKey] = linked
	return nil
}

// Linked reports the keys currently attached to ownerKey, sorted.
func (m *Memory) Linked(ownerKey string) []string {
	linked := m.links[ownerKey]
	if len(linked) == 0 {
		return nil
	}
	out := make([]string, 0, len(linked))
	for key := range linked {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func cloneRecord(record Record) Record {
	return Record{Key: record.Key, Columns: cloneColumns(record.Columns)}
}

func cloneColumns(columns map[string]string) map[string]string {
	if columns == nil {
		return nil
	}
	out := make(map[string]string, len(columns))
	for column, value := range columns {
		out[column] = value
	}
	return out
}
