package store

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/docsearch/pkg/types"
)

// Store provides persistence for classification results.
// This interface abstracts the underlying storage implementation,
// allowing for different backends (memory, SQLite, PostgreSQL).
type Store interface {
	// AddDocument stores a document record.
	AddDocument(id types.DocumentID, lineCount int) error

	// AddRule stores a rule so scores can be reported by name.
	AddRule(r *types.Rule) error

	// AddScore stores the score of one rule on one document. A second score
	// for the same document and rule is ignored.
	AddScore(s *types.Score) error

	// AddProvenance associates provenance with a document.
	AddProvenance(docID types.DocumentID, prov types.Provenance) error

	// GetScores retrieves the scores of a document.
	GetScores(docID types.DocumentID) ([]*types.Score, error)

	// GetAllScores retrieves every score, ordered by document then rule.
	GetAllScores() ([]*types.Score, error)

	// GetProvenance retrieves every known location of a document.
	GetProvenance(docID types.DocumentID) ([]types.Provenance, error)

	// DocumentExists checks if a document has already been classified.
	DocumentExists(id types.DocumentID) (bool, error)

	// Close closes the database connection.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path selects the backend: ":memory:" for the in-memory store, a
	// postgres:// or postgresql:// URL for PostgreSQL, anything else is a
	// SQLite database file.
	Path string
}

// IsPostgresURL reports whether path names a PostgreSQL database.
func IsPostgresURL(path string) bool {
	return strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://")
}

// provenanceColumns flattens a provenance into its table columns.
func provenanceColumns(prov types.Provenance) (path, member string, err error) {
	switch p := prov.(type) {
	case types.FileProvenance:
		return p.FilePath, "", nil
	case types.ArchiveProvenance:
		return p.ArchivePath, p.MemberPath, nil
	case types.ExtendedProvenance:
		return p.Path(), "", nil
	default:
		return "", "", fmt.Errorf("unknown provenance type: %T", prov)
	}
}

// provenanceFromColumns is the inverse of provenanceColumns.
func provenanceFromColumns(kind, path, member string) (types.Provenance, error) {
	switch kind {
	case "file":
		return types.FileProvenance{FilePath: path}, nil
	case "archive":
		return types.ArchiveProvenance{ArchivePath: path, MemberPath: member}, nil
	case "extended":
		payload := map[string]interface{}{}
		if path != "" {
			payload["source"] = path
		}
		return types.ExtendedProvenance{Payload: payload}, nil
	default:
		return nil, fmt.Errorf("unknown provenance type: %s", kind)
	}
}
