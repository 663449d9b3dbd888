//go:build wasm

package store

// New creates an in-memory store for WASM builds. The path is ignored:
// there is no filesystem or network database to reach from the browser.
func New(cfg Config) (Store, error) {
	return NewMemory(), nil
}
