//go:build !wasm

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/praetorian-inc/docsearch/pkg/types"
)

// postgresTimeout bounds each statement.
const postgresTimeout = 30 * time.Second

// PostgresStore implements Store on PostgreSQL through a pgx pool, so many
// scanners can write into one shared database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database at url and creates the schema.
func NewPostgres(url string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), postgresTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", stmt.name, err)
		}
	}

	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if count == 0 {
		if _, err := s.pool.Exec(ctx, rebind("INSERT INTO schema_version (version) VALUES (?)"), SchemaVersion); err != nil {
			return fmt.Errorf("writing schema version: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) exec(what, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(context.Background(), postgresTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, rebind(query), args...); err != nil {
		return fmt.Errorf("inserting %s: %w", what, err)
	}
	return nil
}

// AddDocument stores a document record.
func (s *PostgresStore) AddDocument(id types.DocumentID, lineCount int) error {
	return s.exec("document", "INSERT INTO documents (id, line_count) VALUES (?, ?) ON CONFLICT DO NOTHING", id.Hex(), lineCount)
}

// AddRule stores a rule.
func (s *PostgresStore) AddRule(r *types.Rule) error {
	return s.exec("rule", `
		INSERT INTO rules (id, name, pattern, structural_id)
		VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING
	`, r.ID, r.Name, r.Pattern, r.StructuralID)
}

// AddScore stores a score.
func (s *PostgresStore) AddScore(sc *types.Score) error {
	return s.exec("score", `
		INSERT INTO scores (document_id, rule_id, structural_id, count)
		VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING
	`, sc.DocumentID.Hex(), sc.RuleID, sc.StructuralID, sc.Count)
}

// AddProvenance associates provenance with a document.
func (s *PostgresStore) AddProvenance(docID types.DocumentID, prov types.Provenance) error {
	path, member, err := provenanceColumns(prov)
	if err != nil {
		return err
	}
	return s.exec("provenance", `
		INSERT INTO provenance (document_id, type, path, member)
		VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING
	`, docID.Hex(), prov.Kind(), path, member)
}

// GetScores retrieves the scores of a document.
func (s *PostgresStore) GetScores(docID types.DocumentID) ([]*types.Score, error) {
	return s.queryScores(scoreQuery+" WHERE s.document_id = ? ORDER BY s.rule_id", docID.Hex())
}

// GetAllScores retrieves every score.
func (s *PostgresStore) GetAllScores() ([]*types.Score, error) {
	return s.queryScores(scoreQuery + " ORDER BY s.document_id, s.rule_id")
}

func (s *PostgresStore) queryScores(query string, args ...any) ([]*types.Score, error) {
	ctx, cancel := context.WithTimeout(context.Background(), postgresTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, rebind(query), args...)
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
func (s *PostgresStore) GetProvenance(docID types.DocumentID) ([]types.Provenance, error) {
	ctx, cancel := context.WithTimeout(context.Background(), postgresTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, rebind(`
		SELECT type, path, member FROM provenance
		WHERE document_id = ?
		ORDER BY path, member
	`), docID.Hex())
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
func (s *PostgresStore) DocumentExists(id types.DocumentID) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), postgresTimeout)
	defer cancel()

	var count int
	err := s.pool.QueryRow(ctx, rebind("SELECT COUNT(*) FROM documents WHERE id = ?"), id.Hex()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking document existence: %w", err)
	}
	return count > 0, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
