package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/praetorian-inc/docsearch/pkg/sarif"
	"github.com/praetorian-inc/docsearch/pkg/store"
	"github.com/praetorian-inc/docsearch/pkg/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	reportDatastore string
	reportFormat    string
	reportColor     string
)

// styles holds color formatters for report output
type styles struct {
	documentHeading *color.Color
	id              *color.Color
	ruleName        *color.Color
	heading         *color.Color
	score           *color.Color
	metadata        *color.Color
}

// newStyles creates color formatters for report output
// enabled=false respects --color=never and the NO_COLOR env var
func newStyles(enabled bool) *styles {
	s := &styles{
		documentHeading: color.New(color.Bold, color.FgHiWhite),
		id:              color.New(color.FgHiGreen),
		ruleName:        color.New(color.Bold, color.FgHiBlue),
		heading:         color.New(color.Bold),
		score:           color.New(color.FgYellow),
		metadata:        color.New(color.FgHiBlue),
	}

	if !enabled {
		for _, c := range []*color.Color{s.documentHeading, s.id, s.ruleName, s.heading, s.score, s.metadata} {
			c.DisableColor()
		}
	}

	return s
}

// documentReport groups the scores of one document.
type documentReport struct {
	DocumentID types.DocumentID `json:"document_id"`
	LineCount  int              `json:"line_count"`
	Locations  []string         `json:"locations"`
	Scores     []*types.Score   `json:"scores"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from scan results",
	Long:  "Read scores from a result database and output a per-document report",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDatastore, "datastore", "docsearch.db", "Result database path or postgres:// URL")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	storePath := cfg.Output
	if cmd.Flags().Changed("datastore") {
		storePath = reportDatastore
	}

	if storePath == ":memory:" {
		return fmt.Errorf("cannot report from in-memory store")
	}
	if !store.IsPostgresURL(storePath) {
		if _, err := os.Stat(storePath); err != nil {
			return fmt.Errorf("datastore not found: %s", storePath)
		}
	}

	s, err := store.New(store.Config{Path: storePath})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer s.Close()

	reports, err := buildReports(s)
	if err != nil {
		return err
	}

	switch reportFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(reports)
	case "sarif":
		return outputReportSARIF(cmd, reports)
	case "human":
		return outputReportHuman(cmd, reports)
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// buildReports groups every stored score by document, in store order.
func buildReports(s store.Store) ([]*documentReport, error) {
	scores, err := s.GetAllScores()
	if err != nil {
		return nil, fmt.Errorf("retrieving scores: %w", err)
	}

	reports := make([]*documentReport, 0)
	var current *documentReport
	for _, sc := range scores {
		if current == nil || current.DocumentID != sc.DocumentID {
			provs, err := s.GetProvenance(sc.DocumentID)
			if err != nil {
				return nil, fmt.Errorf("retrieving provenance: %w", err)
			}
			locations := make([]string, 0, len(provs))
			for _, p := range provs {
				locations = append(locations, p.Path())
			}
			current = &documentReport{
				DocumentID: sc.DocumentID,
				LineCount:  sc.LineCount,
				Locations:  locations,
			}
			reports = append(reports, current)
		}
		current.Scores = append(current.Scores, sc)
	}
	return reports, nil
}

func outputReportHuman(cmd *cobra.Command, reports []*documentReport) error {
	out := cmd.OutOrStdout()

	// Determine if colors should be enabled based on --color flag
	switch reportColor {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default: // "auto"
		if !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != "" {
			color.NoColor = true
		} else {
			color.NoColor = false
		}
	}
	s := newStyles(!color.NoColor)

	if len(reports) == 0 {
		fmt.Fprintf(out, "No documents classified.\n")
		return nil
	}

	for i, r := range reports {
		fmt.Fprintf(out, "%s (%s %s)\n",
			s.documentHeading.Sprintf("Document %d/%d", i+1, len(reports)),
			s.heading.Sprint("id"),
			s.id.Sprint(r.DocumentID.Hex()))

		for j, loc := range r.Locations {
			if j == 3 {
				fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("     "), s.metadata.Sprintf("(+%d more)", len(r.Locations)-3))
				break
			}
			label := "File:"
			if j > 0 {
				label = "     "
			}
			fmt.Fprintf(out, "%s %s\n", s.heading.Sprint(label), s.metadata.Sprint(loc))
		}
		fmt.Fprintf(out, "%s %d\n", s.heading.Sprint("Lines:"), r.LineCount)

		for _, sc := range r.Scores {
			fmt.Fprintf(out, "    %s %s %s\n",
				s.heading.Sprint("Rule:"),
				s.ruleName.Sprint(sc.RuleName),
				s.score.Sprintf("(score %d)", sc.Count))
		}

		fmt.Fprintf(out, "\n")
	}

	return nil
}

func outputReportSARIF(cmd *cobra.Command, reports []*documentReport) error {
	report := sarif.NewReport()
	for _, r := range reports {
		for _, sc := range r.Scores {
			report.AddRule(&types.Rule{ID: sc.RuleID, Name: sc.RuleName})
			report.AddResult(sc, r.Locations)
		}
	}

	data, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("encoding sarif: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
