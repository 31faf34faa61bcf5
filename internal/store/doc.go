// Package store persists symbol metadata in SQLite, keyed by the dense
// embedding id shared with the vector store and the text index. Two driver
// builds are supported: the default pure-Go modernc driver, and
// mattn/go-sqlite3 behind the sqlite_cgo build tag.
package store
