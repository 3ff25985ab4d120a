// Package store defines the data-store boundary consumed by relation-backed
// option sources: searching records, resolving them by key, creating and
// updating them, and synchronising many-to-many links at submit time. The
// selection engine only ever talks to these interfaces; concrete adapters
// live alongside (Memory here, SQLite under store/sqlitestore).
package store
