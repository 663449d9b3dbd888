//go:build !wasm

package store

import (
	"database/sql"
	"fmt"

	"github.com/praetorian-inc/docsearch/pkg/types"
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// openSQLite opens a SQLite database with the schema in place.
func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Each connection to ":memory:" is its own database, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for an in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// AddDocument stores a document record.
func (s *SQLiteStore) AddDocument(id types.DocumentID, lineCount int) error {
	_, err := s.db.Exec("INSERT INTO documents (id, line_count) VALUES (?, ?) ON CONFLICT DO NOTHING", id.Hex(), lineCount)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// AddRule stores a rule.
func (s *SQLiteStore) AddRule(r *types.Rule) error {
	_, err := s.db.Exec(`
		INSERT INTO rules (id, name, pattern, structural_id)
		VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING
	`, r.ID, r.Name, r.Pattern, r.StructuralID)
	if err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}
	return nil
}

// AddScore stores a score.
func (s *SQLiteStore) AddScore(sc *types.Score) error {
	_, err := s.db.Exec(`
		INSERT INTO scores (document_id, rule_id, structural_id, count)
		VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING
	`, sc.DocumentID.Hex(), sc.RuleID, sc.StructuralID, sc.Count)
	if err != nil {
		return fmt.Errorf("inserting score: %w", err)
	}
	return nil
}

// AddProvenance associates provenance with a document.
func (s *SQLiteStore) AddProvenance(docID types.DocumentID, prov types.Provenance) error {
	path, member, err := provenanceColumns(prov)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO provenance (document_id, type, path, member)
		VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING
	`, docID.Hex(), prov.Kind(), path, member)
	if err != nil {
		return fmt.Errorf("inserting provenance: %w", err)
	}
	return nil
}

// GetScores retrieves the scores of a document.
func (s *SQLiteStore) GetScores(docID types.DocumentID) ([]*types.Score, error) {
	return s.queryScores(scoreQuery+" WHERE s.document_id = ? ORDER BY s.rule_id", docID.Hex())
}

// GetAllScores retrieves every score.
func (s *SQLiteStore) GetAllScores() ([]*types.Score, error) {
	return s.queryScores(scoreQuery + " ORDER BY s.document_id, s.rule_id")
}

func (s *SQLiteStore) queryScores(query string, args ...any) ([]*types.Score, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scores: %w", err)
	}
	defer rows.Close()

	scores := make([]*types.Score, 0)
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scores: %w", err)
	}
	return scores, nil
}

// GetProvenance retrieves every known location of a document.
func (s *SQLiteStore) GetProvenance(docID types.DocumentID) ([]types.Provenance, error) {
	rows, err := s.db.Query(`
		SELECT type, path, member FROM provenance
		WHERE document_id = ?
		ORDER BY path, member
	`, docID.Hex())
	if err != nil {
		return nil, fmt.Errorf("querying provenance: %w", err)
	}
	defer rows.Close()

	provs := make([]types.Provenance, 0)
	for rows.Next() {
		var kind, path, member string
		if err := rows.Scan(&kind, &path, &member); err != nil {
			return nil, fmt.Errorf("scanning provenance: %w", err)
		}
		prov, err := provenanceFromColumns(kind, path, member)
		if err != nil {
			return nil, err
		}
		provs = append(provs, prov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating provenance: %w", err)
	}
	return provs, nil
}

// DocumentExists checks if a document has already been classified.
func (s *SQLiteStore) DocumentExists(id types.DocumentID) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM documents WHERE id = ?", id.Hex()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking document existence: %w", err)
	}
	return count > 0, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
