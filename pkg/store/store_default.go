//go:build !wasm

package store

import "fmt"

// New creates a Store for cfg.Path.
func New(cfg Config) (Store, error) {
	switch {
	case cfg.Path == "":
		return nil, fmt.Errorf("path is required")
	case cfg.Path == ":memory:":
		return NewMemory(), nil
	case IsPostgresURL(cfg.Path):
		return NewPostgres(cfg.Path)
	default:
		return NewSQLite(cfg.Path)
	}
}
