// Package sqlitestore implements the store.RelationStore contract on top of a
// SQLite database, using the pure Go driver so adapters stay cgo-free. One
// Store maps to one table; many-to-many links live in an optional pivot table
// configured alongside.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-selectfield/pkg/store"

	_ "modernc.org/sqlite" // pure Go SQLite driver, WAL-friendly
)

const defaultSearchLimit = 50

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Option customises a Store.
type Option func(*Store)

// WithPivot configures the pivot table used by Attach/Detach/Sync. ownerColumn
// holds the owning record's key, relatedColumn the key of rows in this
// store's table.
func WithPivot(table, ownerColumn, relatedColumn string) Option {
	return func(s *Store) {
		s.pivotTable = table
		s.pivotOwner = ownerColumn
		s.pivotRelated = relatedColumn
	}
}

// WithDefaultOrder sets the column records are ordered by when a filter does
// not name one.
func WithDefaultOrder(column string) Option {
	return func(s *Store) {
		s.defaultOrder = column
	}
}

// Store reads and writes records of a single table. It satisfies
// store.RelationStore when a pivot table is configured and store.RecordStore
// otherwise (Attach and friends then fail).
type Store struct {
	db        *sql.DB
	table     string
	keyColumn string
	columns   []string

	pivotTable   string
	pivotOwner   string
	pivotRelated string
	defaultOrder string
}

// Open connects to the SQLite database at path and binds the store to table.
// keyColumn is the primary-key column; columns are the attribute columns
// exposed on store.Record (and therefore available for search and labels).
func Open(path, table, keyColumn string, columns []string, opts ...Option) (*Store, error) {
	s := &Store{
		table:     table,
		keyColumn: keyColumn,
		columns:   append([]string{}, columns...),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	for _, ident := range append([]string{table, keyColumn}, s.identifiers()...) {
		if ident == "" {
			continue
		}
		if !identPattern.MatchString(ident) {
			return nil, fmt.Errorf("sqlitestore: invalid identifier %q", ident)
		}
	}
	if s.table == "" || s.keyColumn == "" || len(s.columns) == 0 {
		return nil, fmt.Errorf("sqlitestore: table, key column and at least one attribute column are required")
	}

	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: ping %s: %w", path, err)
	}
	s.db = db
	return s, nil
}

func (s *Store) identifiers() []string {
	idents := append([]string{}, s.columns...)
	if s.pivotTable != "" {
		idents = append(idents, s.pivotTable, s.pivotOwner, s.pivotRelated)
	}
	if s.defaultOrder != "" {
		idents = append(idents, s.defaultOrder)
	}
	return idents
}

// buildDSN creates a writable WAL DSN for the given path. ":memory:" is
// passed through for in-memory databases.
func buildDSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_busy_timeout", "3000")
	q.Set("_foreign_keys", "on")
	u.RawQuery = q.Encode()
	return u.String()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for schema setup in tests and tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Search runs the filter's substring match as OR-combined LIKE clauses across
// the requested columns (all attribute columns when none are named).
func (s *Store) Search(ctx context.Context, filter store.Filter) ([]store.Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	searchColumns := filter.Columns
	if len(searchColumns) == 0 {
		searchColumns = s.columns
	}
	for _, column := range searchColumns {
		if !s.knownColumn(column) {
			return nil, fmt.Errorf("sqlitestore: unknown search column %q", column)
		}
	}

	var (
		clauses []string
		args    []any
	)
	query := strings.TrimSpace(filter.Query)
	if query != "" {
		pattern := "%" + escapeLike(query) + "%"
		for _, column := range searchColumns {
			clauses = append(clauses, fmt.Sprintf(`%s LIKE ? ESCAPE '\'`, column))
			args = append(args, pattern)
		}
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s", s.selectList(), s.table)
	if len(clauses) > 0 {
		stmt += " WHERE " + strings.Join(clauses, " OR ")
	}
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = s.defaultOrder
	}
	if orderBy != "" {
		if !s.knownColumn(orderBy) {
			return nil, fmt.Errorf("sqlitestore: unknown order column %q", orderBy)
		}
		stmt += " ORDER BY " + orderBy
	}
	stmt += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: search %s: %w", s.table, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	return s.scanRecords(rows)
}

// FindByKeys loads the records matching keys; unknown keys are simply absent.
// Results come back in key order so batched label resolution is stable.
func (s *Store) FindByKeys(ctx context.Context, keys []string) ([]store.Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(keys))
	placeholders = placeholders[:len(placeholders)-1]
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s) ORDER BY %s",
		s.selectList(), s.table, s.keyColumn, placeholders, s.keyColumn)

	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: find in %s: %w", s.table, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	return s.scanRecords(rows)
}

// Create inserts a row built from values. The key comes from the key column's
// entry in values when present and is generated otherwise.
func (s *Store) Create(ctx context.Context, values map[string]string) (store.Record, error) {
	key := values[s.keyColumn]
	if key == "" {
		key = uuid.NewString()
	}

	columns := []string{s.keyColumn}
	args := []any{key}
	for _, column := range s.columns {
		if value, ok := values[column]; ok {
			columns = append(columns, column)
			args = append(args, value)
		}
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table, strings.Join(columns, ", "), strings.TrimSuffix(strings.Repeat("?,", len(columns)), ","))
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return store.Record{}, fmt.Errorf("sqlitestore: create in %s: %w", s.table, err)
	}
	return s.findOne(ctx, key)
}

// Update writes values onto the row identified by key.
func (s *Store) Update(ctx context.Context, key string, values map[string]string) (store.Record, error) {
	var (
		sets []string
		args []any
	)
	for _, column := range s.columns {
		if value, ok := values[column]; ok {
			sets = append(sets, column+" = ?")
			args = append(args, value)
		}
	}
	if len(sets) == 0 {
		return s.findOne(ctx, key)
	}
	args = append(args, key)

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", s.table, strings.Join(sets, ", "), s.keyColumn)
	result, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return store.Record{}, fmt.Errorf("sqlitestore: update %s: %w", s.table, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return store.Record{}, fmt.Errorf("sqlitestore: record %q not found in %s", key, s.table)
	}
	return s.findOne(ctx, key)
}

// Attach inserts pivot rows linking keys to ownerKey, skipping existing links.
func (s *Store) Attach(ctx context.Context, ownerKey string, keys []string) error {
	if err := s.requirePivot(); err != nil {
		return err
	}
	stmt := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s, %s) VALUES (?, ?)",
		s.pivotTable, s.pivotOwner, s.pivotRelated)
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, stmt, ownerKey, key); err != nil {
			return fmt.Errorf("sqlitestore: attach %q: %w", key, err)
		}
	}
	return nil
}

// Detach removes the pivot rows linking keys to ownerKey.
func (s *Store) Detach(ctx context.Context, ownerKey string, keys []string) error {
	if err := s.requirePivot(); err != nil {
		return err
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s = ?",
		s.pivotTable, s.pivotOwner, s.pivotRelated)
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, stmt, ownerKey, key); err != nil {
			return fmt.Errorf("sqlitestore: detach %q: %w", key, err)
		}
	}
	return nil
}

// Sync replaces the owner's pivot rows with exactly keys.
func (s *Store) Sync(ctx context.Context, ownerKey string, keys []string) error {
	if err := s.requirePivot(); err != nil {
		return err
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.pivotTable, s.pivotOwner)
	if _, err := s.db.ExecContext(ctx, stmt, ownerKey); err != nil {
		return fmt.Errorf("sqlitestore: sync clear: %w", err)
	}
	return s.Attach(ctx, ownerKey, keys)
}

// Linked reports the related keys attached to ownerKey, in key order.
func (s *Store) Linked(ctx context.Context, ownerKey string) ([]string, error) {
	if err := s.requirePivot(); err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s",
		s.pivotRelated, s.pivotTable, s.pivotOwner, s.pivotRelated)
	rows, err := s.db.QueryContext(ctx, stmt, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: linked: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan linked key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *Store) requirePivot() error {
	if s.pivotTable == "" {
		return fmt.Errorf("sqlitestore: no pivot table configured for %s", s.table)
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, key string) (store.Record, error) {
	records, err := s.FindByKeys(ctx, []string{key})
	if err != nil {
		return store.Record{}, err
	}
	if len(records) == 0 {
		return store.Record{}, fmt.Errorf("sqlitestore: record %q not found in %s", key, s.table)
	}
	return records[0], nil
}

func (s *Store) knownColumn(column string) bool {
	for _, known := range s.columns {
		if known == column {
			return true
		}
	}
	return false
}

func (s *Store) selectList() string {
	return strings.Join(append([]string{s.keyColumn}, s.columns...), ", ")
}

func (s *Store) scanRecords(rows *sql.Rows) ([]store.Record, error) {
	var records []store.Record
	for rows.Next() {
		values := make([]sql.NullString, len(s.columns)+1)
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan %s row: %w", s.table, err)
		}

		record := store.Record{
			Key:     values[0].String,
			Columns: make(map[string]string, len(s.columns)),
		}
		for i, column := range s.columns {
			if values[i+1].Valid {
				record.Columns[column] = values[i+1].String
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func escapeLike(query string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(query)
}
