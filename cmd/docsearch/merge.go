package main

import (
	"fmt"

	"github.com/praetorian-inc/docsearch/pkg/store"
	"github.com/spf13/cobra"
)

var (
	mergeOutput string
)

var mergeCmd = &cobra.Command{
	Use:   "merge <source1.db> <source2.db> [source3.db...]",
	Short: "Merge multiple result databases",
	Long: `Merge multiple docsearch SQLite databases into a single output database.

This is useful for combining results from distributed scans or
merging results from different scan targets.

Deduplication is automatic - documents, rules, scores and provenance
are only stored once in the merged database.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Output database path")
}

func runMerge(cmd *cobra.Command, args []string) error {
	stats, err := store.Merge(store.MergeConfig{
		SourcePaths: args,
		DestPath:    mergeOutput,
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	out := cmd.OutOrStdout()
	progress(out, "Merge complete:\n")
	progress(out, "  Sources processed: %d\n", stats.SourcesProcessed)
	progress(out, "  Documents merged: %d\n", stats.DocumentsMerged)
	progress(out, "  Rules merged: %d\n", stats.RulesMerged)
	progress(out, "  Scores merged: %d\n", stats.ScoresMerged)
	progress(out, "  Provenance merged: %d\n", stats.ProvenanceMerged)
	progress(out, "Output: %s\n", mergeOutput)

	return nil
}
