package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/praetorian-inc/docsearch/pkg/classify"
	"github.com/praetorian-inc/docsearch/pkg/config"
	"github.com/praetorian-inc/docsearch/pkg/enum"
	"github.com/praetorian-inc/docsearch/pkg/store"
	"github.com/praetorian-inc/docsearch/pkg/types"
	"github.com/spf13/cobra"
)

var (
	scanRules         ruleFlags
	scanOutputPath    string
	scanOutputFormat  string
	scanMaxFileSize   int64
	scanIncludeHidden bool
	scanExtract       bool
	scanKinds         []string
	scanIncremental   bool
	scanEngine        string
	scanWorkers       int
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>...",
	Short: "Classify documents",
	Long: `Classify files, directories and archives with the selected rules and store the scores.
Use "-" as a target to read one document from stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanRules.register(scanCmd)
	scanCmd.Flags().StringVar(&scanOutputPath, "output", "docsearch.db", "Output database path or postgres:// URL")
	scanCmd.Flags().StringVar(&scanOutputFormat, "format", "human", "Output format: json, human")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to classify (bytes)")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	scanCmd.Flags().BoolVar(&scanExtract, "extract", true, "Extract text from pdf, office files and archives")
	scanCmd.Flags().StringSliceVar(&scanKinds, "kinds", nil, "Document kinds to scan: text, pdf, office, archive, other (default all)")
	scanCmd.Flags().BoolVar(&scanIncremental, "incremental", false, "Skip documents already in the output database")
	scanCmd.Flags().StringVar(&scanEngine, "engine", "regexp2", "Regex engine: regexp2, coregex")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Goroutines per pattern evaluation (0 = GOMAXPROCS)")
}

// scanConfig merges the scan flags the user set over the loaded config.
func scanConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	scanRules.apply(cmd, cfg)
	if cmd.Flags().Changed("output") {
		cfg.Output = scanOutputPath
	}
	if cmd.Flags().Changed("max-file-size") {
		cfg.MaxFileSize = scanMaxFileSize
	}
	if cmd.Flags().Changed("include-hidden") {
		cfg.IncludeHidden = scanIncludeHidden
	}
	if cmd.Flags().Changed("extract") {
		cfg.Extract = scanExtract
	}
	if cmd.Flags().Changed("kinds") {
		cfg.Kinds = scanKinds
	}
	if cmd.Flags().Changed("engine") {
		cfg.Engine = scanEngine
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = scanWorkers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// scanStats counts what a scan did. Callbacks run concurrently.
type scanStats struct {
	documents  atomic.Int64
	classified atomic.Int64
	scores     atomic.Int64
	skipped    atomic.Int64
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanOutputFormat != "json" && scanOutputFormat != "human" {
		return fmt.Errorf("unknown output format: %s", scanOutputFormat)
	}

	cfg, err := scanConfig(cmd)
	if err != nil {
		return err
	}

	for _, target := range args {
		if target == "-" {
			continue
		}
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("target does not exist: %s", target)
		}
	}

	rules, err := loadRules(cfg)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	c, err := newClassifier(cfg, rules)
	if err != nil {
		return fmt.Errorf("creating classifier: %w", err)
	}

	s, err := store.New(store.Config{Path: cfg.Output})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer s.Close()

	for _, r := range c.Rules() {
		if err := s.AddRule(r); err != nil {
			return fmt.Errorf("storing rule: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := &scanStats{}
	var seen sync.Map
	for _, target := range args {
		e := createEnumerator(cmd, cfg, target)
		err := e.Enumerate(ctx, func(doc *types.Document) error {
			return classifyDocument(c, s, stats, &seen, doc)
		})
		if err != nil {
			return fmt.Errorf("scanning %s: %w", target, err)
		}
	}

	// Status goes to stderr for json so stdout stays pure JSON.
	status := cmd.OutOrStdout()
	if scanOutputFormat == "json" {
		status = cmd.ErrOrStderr()
	}
	if scanIncremental {
		progress(status, "Scan complete: %d documents, %d classified, %d scores (%d documents skipped)\n",
			stats.documents.Load(), stats.classified.Load(), stats.scores.Load(), stats.skipped.Load())
	} else {
		progress(status, "Scan complete: %d documents, %d classified, %d scores\n",
			stats.documents.Load(), stats.classified.Load(), stats.scores.Load())
	}
	progress(status, "Results stored in: %s\n", cfg.Output)

	scores, err := s.GetAllScores()
	if err != nil {
		return fmt.Errorf("retrieving scores: %w", err)
	}
	return outputScores(cmd, scores)
}

// classifyDocument records one enumerated document and its scores. A
// document seen earlier in this run, or already stored when --incremental is
// set, only gains the new location.
func classifyDocument(c *classify.Classifier, s store.Store, stats *scanStats, seen *sync.Map, doc *types.Document) error {
	docID := doc.ID
	_, known := seen.LoadOrStore(docID, true)
	if !known && scanIncremental {
		exists, err := s.DocumentExists(docID)
		if err != nil {
			return fmt.Errorf("checking document: %w", err)
		}
		if exists {
			stats.skipped.Add(1)
			known = true
		}
	}

	if err := s.AddDocument(docID, len(doc.Lines)); err != nil {
		return fmt.Errorf("storing document: %w", err)
	}
	if err := s.AddProvenance(docID, doc.Provenance); err != nil {
		return fmt.Errorf("storing provenance: %w", err)
	}
	if known {
		return nil
	}

	stats.documents.Add(1)
	scores := c.Classify(doc)
	if len(scores) > 0 {
		stats.classified.Add(1)
	}
	for _, sc := range scores {
		stats.scores.Add(1)
		if err := s.AddScore(sc); err != nil {
			return fmt.Errorf("storing score: %w", err)
		}
	}
	return nil
}

func createEnumerator(cmd *cobra.Command, cfg *config.Config, target string) enum.Enumerator {
	if target == "-" {
		return enum.NewReaderEnumerator(cmd.InOrStdin(), "stdin", cfg.MaxFileSize)
	}

	extract := ""
	if cfg.Extract {
		extract = "all"
	}
	return enum.NewFilesystemEnumerator(enum.Config{
		Root:            target,
		IncludeHidden:   cfg.IncludeHidden,
		MaxFileSize:     cfg.MaxFileSize,
		Kinds:           cfg.DocumentKinds(),
		ExtractArchives: extract,
	})
}

func outputScores(cmd *cobra.Command, scores []*types.Score) error {
	switch scanOutputFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(scores)
	case "human":
		if quiet {
			return nil
		}
		if len(scores) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "\nNo documents classified.\n")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nClassified documents:\n")
		for i, sc := range scores {
			source := sc.Source
			if source == "" {
				source = sc.DocumentID.Hex()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s: %s (score %d)\n", i+1, source, sc.RuleName, sc.Count)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", scanOutputFormat)
	}
}
