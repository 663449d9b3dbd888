package enum

import (
	"context"
	"fmt"
	"io"

	"github.com/praetorian-inc/docsearch/pkg/types"
)

// ReaderEnumerator yields the whole content of a reader as one document,
// such as a document piped on stdin.
type ReaderEnumerator struct {
	r       io.Reader
	source  string
	maxSize int64
}

// NewReaderEnumerator creates an enumerator over r. source names the
// document in its provenance; maxSize of 0 means no limit.
func NewReaderEnumerator(r io.Reader, source string, maxSize int64) *ReaderEnumerator {
	return &ReaderEnumerator{r: r, source: source, maxSize: maxSize}
}

// Enumerate reads the reader to EOF and yields its content.
func (e *ReaderEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r := e.r
	if e.maxSize > 0 {
		r = io.LimitReader(r, e.maxSize+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", e.source, err)
	}
	if e.maxSize > 0 && int64(len(content)) > e.maxSize {
		return fmt.Errorf("%s exceeds max size of %d bytes", e.source, e.maxSize)
	}

	prov := types.ExtendedProvenance{
		Payload: map[string]interface{}{"source": e.source},
	}
	return callback(types.NewDocument(content, prov))
}
