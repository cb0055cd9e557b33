// Package database provides SQLite-based storage for lookup history.
//
// HistoryDB keeps every finished lookup together with its envelope and one
// row per violation record, so that later lookups of the same plate can be
// compared (new, resolved and changed violations). It uses the CGO-free
// modernc.org/sqlite driver and a single database file.
package database
