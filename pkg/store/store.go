package store

import "context"

// Record is a flat view of a backing-store row. Columns holds the stringified
// attribute values a source may use to build labels.
type Record struct {
	Key     string
	Columns map[string]string
}

// Column returns the named column value or "" when absent.
func (r Record) Column(name string) string {
	if r.Columns == nil {
		return ""
	}
	return r.Columns[name]
}

// Filter describes a search against a record store. Query is matched as a
// case-insensitive substring against each listed column, OR-combined. A zero
// Limit means the adapter's own default; OrderBy is a column name or empty
// for store-defined order.
type Filter struct {
	Query   string
	Columns []string
	Limit   int
	OrderBy string
}

// RecordStore is the minimal adapter surface a relation source needs for
// searching and label resolution, plus the create/update operations backing
// the create-option and edit-option sub-flows.
type RecordStore interface {
	Search(ctx context.Context, filter Filter) ([]Record, error)
	FindByKeys(ctx context.Context, keys []string) ([]Record, error)
	Create(ctx context.Context, values map[string]string) (Record, error)
	Update(ctx context.Context, key string, values map[string]string) (Record, error)
}

// RelationStore extends RecordStore with pivot-style link management for
// many-to-many relationships. These are invoked by the form submission
// pipeline at save time, never per selection.
type RelationStore interface {
	RecordStore

	Attach(ctx context.Context, ownerKey string, keys []string) error
	Detach(ctx context.Context, ownerKey string, keys []string) error
	Sync(ctx context.Context, ownerKey string, keys []string) error
}
