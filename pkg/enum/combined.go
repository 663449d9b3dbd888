package enum

import (
	"context"
	"sync"

	"github.com/praetorian-inc/docsearch/pkg/types"
)

// CombinedEnumerator chains enumerators and yields each distinct document
// (by ID) once, at its first location.
type CombinedEnumerator struct {
	enumerators []Enumerator
}

// NewCombinedEnumerator creates a CombinedEnumerator over enumerators, run
// in order.
func NewCombinedEnumerator(enumerators ...Enumerator) *CombinedEnumerator {
	return &CombinedEnumerator{enumerators: enumerators}
}

// Enumerate runs the enumerators one after another.
func (c *CombinedEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	var seen sync.Map
	first := func(doc *types.Document) error {
		if _, dup := seen.LoadOrStore(doc.ID, struct{}{}); dup {
			return nil
		}
		return callback(doc)
	}

	for _, e := range c.enumerators {
		if err := e.Enumerate(ctx, first); err != nil {
			return err
		}
	}
	return nil
}
