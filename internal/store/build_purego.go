//go:build !sqlite_cgo
// +build !sqlite_cgo

package store

// Default build: pure-Go SQLite, no CGO toolchain required.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
