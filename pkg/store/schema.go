//go:build !wasm

package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/praetorian-inc/docsearch/pkg/types"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// schemaStatements create the tables. They are valid for both SQLite and
// PostgreSQL.
var schemaStatements = []struct {
	name string
	sql  string
}{
	{"schema_version", `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`},
	{"documents", `
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY NOT NULL,
			line_count INTEGER NOT NULL
		)`},
	{"rules", `
		CREATE TABLE IF NOT EXISTS rules (
			id TEXT PRIMARY KEY NOT NULL,
			name TEXT NOT NULL,
			pattern TEXT NOT NULL,
			structural_id TEXT NOT NULL
		)`},
	{"scores", `
		CREATE TABLE IF NOT EXISTS scores (
			document_id TEXT NOT NULL REFERENCES documents(id),
			rule_id TEXT NOT NULL,
			structural_id TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (document_id, rule_id)
		)`},
	{"provenance", `
		CREATE TABLE IF NOT EXISTS provenance (
			document_id TEXT NOT NULL REFERENCES documents(id),
			type TEXT NOT NULL,
			path TEXT NOT NULL,
			member TEXT NOT NULL DEFAULT '',
			UNIQUE(document_id, type, path, member)
		)`},
	{"provenance index", `
		CREATE INDEX IF NOT EXISTS idx_provenance_document_id ON provenance(document_id)`},
}

// scoreQuery selects scores with their rule name, line count and first
// known location.
const scoreQuery = `
	SELECT s.document_id, s.rule_id, COALESCE(r.name, s.rule_id), s.structural_id, s.count,
	       COALESCE(d.line_count, 0),
	       COALESCE((SELECT CASE WHEN p.member = '' THEN p.path ELSE p.path || ':' || p.member END
	                 FROM provenance p WHERE p.document_id = s.document_id
	                 ORDER BY p.path, p.member LIMIT 1), '')
	FROM scores s
	LEFT JOIN rules r ON r.id = s.rule_id
	LEFT JOIN documents d ON d.id = s.document_id`

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", stmt.name, err)
		}
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion); err != nil {
			return fmt.Errorf("writing schema version: %w", err)
		}
	}

	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// rowScanner is satisfied by *sql.Row(s) and pgx.Row(s).
type rowScanner interface {
	Scan(dest ...any) error
}

// scanScore reads one row of scoreQuery.
func scanScore(row rowScanner) (*types.Score, error) {
	var s types.Score
	var docHex string
	if err := row.Scan(&docHex, &s.RuleID, &s.RuleName, &s.StructuralID, &s.Count, &s.LineCount, &s.Source); err != nil {
		return nil, fmt.Errorf("scanning score: %w", err)
	}
	id, err := types.ParseDocumentID(docHex)
	if err != nil {
		return nil, fmt.Errorf("parsing document ID: %w", err)
	}
	s.DocumentID = id
	return &s, nil
}
