package enum

import (
	"context"

	"github.com/praetorian-inc/docsearch/pkg/types"
)

// Callback receives one enumerated document, already split into lines. It
// may be called concurrently.
type Callback func(doc *types.Document) error

// Enumerator discovers documents to classify from a source.
type Enumerator interface {
	Enumerate(ctx context.Context, callback Callback) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration.
	Root string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links.
	FollowSymlinks bool

	// Kinds restricts enumeration to these document kinds (empty = all).
	Kinds []Kind

	// ExtractArchives enables text extraction from container files
	// (comma-separated extensions such as "pdf,docx,zip", or "all").
	// Containers that are not extracted are skipped.
	ExtractArchives string

	// ExtractLimits bounds extraction work per container.
	ExtractLimits ExtractionLimits
}
