//go:build !wasm

package store

import (
	"database/sql"
	"fmt"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the SQLite database files to merge from.
	SourcePaths []string
	// DestPath is the destination SQLite database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	DocumentsMerged  int
	RulesMerged      int
	ScoresMerged     int
	ProvenanceMerged int
	SourcesProcessed int
}

// mergeTables lists what is copied, in foreign key order.
var mergeTables = []struct {
	name    string
	columns string
	count   func(*MergeStats, int)
}{
	{"documents", "id, line_count", func(s *MergeStats, n int) { s.DocumentsMerged += n }},
	{"rules", "id, name, pattern, structural_id", func(s *MergeStats, n int) { s.RulesMerged += n }},
	{"scores", "document_id, rule_id, structural_id, count", func(s *MergeStats, n int) { s.ScoresMerged += n }},
	{"provenance", "document_id, type, path, member", func(s *MergeStats, n int) { s.ProvenanceMerged += n }},
}

// Merge combines multiple result databases into one.
// Rows already present in the destination are skipped, so merging the
// same source twice is harmless.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	destDB, err := openSQLite(cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer destDB.Close()

	stats := &MergeStats{}
	for _, sourcePath := range cfg.SourcePaths {
		if err := mergeFrom(destDB, sourcePath, stats); err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.SourcesProcessed++
	}

	return stats, nil
}

// mergeFrom copies data from a source database to the destination.
func mergeFrom(destDB *sql.DB, sourcePath string, stats *MergeStats) error {
	sourceDB, err := sql.Open(driverName, sourcePath)
	if err != nil {
		return fmt.Errorf("opening source database: %w", err)
	}
	defer sourceDB.Close()

	tx, err := destDB.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	local := &MergeStats{}
	for _, table := range mergeTables {
		n, err := mergeTable(tx, sourceDB, table.name, table.columns)
		if err != nil {
			return fmt.Errorf("merging %s: %w", table.name, err)
		}
		table.count(local, n)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	stats.DocumentsMerged += local.DocumentsMerged
	stats.RulesMerged += local.RulesMerged
	stats.ScoresMerged += local.ScoresMerged
	stats.ProvenanceMerged += local.ProvenanceMerged
	return nil
}

// mergeTable copies every row of table, returning how many were new.
func mergeTable(tx *sql.Tx, sourceDB *sql.DB, table, columns string) (int, error) {
	rows, err := sourceDB.Query(fmt.Sprintf("SELECT %s FROM %s", columns, table))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	placeholders := "?"
	for i := 1; i < len(cols); i++ {
		placeholders += ", ?"
	}

	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING", table, columns, placeholders))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return count, err
		}
		result, err := stmt.Exec(values...)
		if err != nil {
			return count, err
		}
		affected, _ := result.RowsAffected()
		if affected > 0 {
			count++
		}
	}
	return count, rows.Err()
}
