package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/praetorian-inc/docsearch/pkg/config"
	"github.com/praetorian-inc/docsearch/pkg/enum"
	"github.com/praetorian-inc/docsearch/pkg/pattern"
	"github.com/praetorian-inc/docsearch/pkg/types"
	"github.com/spf13/cobra"
)

var (
	evalRuleID  string
	evalRules   ruleFlags
	evalExplain bool
	evalFormat  string
	evalEngine  string
)

var evalCmd = &cobra.Command{
	Use:   "eval [expression] [file...]",
	Short: "Score documents against a pattern",
	Long: `Compile a pattern expression and print its score on each document.
With --rule the pattern of a loaded rule is used and every argument is a file.
Without files the document is read from stdin.`,
	Example: `  docsearch eval 'all { "^INVOICE"i, any { "^total"i, "^amount due"i } }' invoice.pdf
  docsearch eval --rule ds.finance.invoice --explain invoice.txt`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalRuleID, "rule", "", "Evaluate the pattern of this rule ID instead of an expression")
	evalRules.register(evalCmd)
	evalCmd.Flags().BoolVar(&evalExplain, "explain", false, "Print the count of every pattern node")
	evalCmd.Flags().StringVar(&evalFormat, "format", "human", "Output format: json, human")
	evalCmd.Flags().StringVar(&evalEngine, "engine", "regexp2", "Regex engine: regexp2, coregex")
}

// evalResult is the score of one document.
type evalResult struct {
	Source     string           `json:"source"`
	DocumentID types.DocumentID `json:"document_id"`
	LineCount  int              `json:"line_count"`
	Score      int              `json:"score"`
	Trace      string           `json:"trace,omitempty"`
}

func runEval(cmd *cobra.Command, args []string) error {
	if evalFormat != "json" && evalFormat != "human" {
		return fmt.Errorf("unknown output format: %s", evalFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	evalRules.apply(cmd, cfg)
	if cmd.Flags().Changed("engine") {
		cfg.Engine = evalEngine
	}

	p, files, err := evalPattern(cfg, args)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var docs []*types.Document
	collect := func(doc *types.Document) error {
		mu.Lock()
		defer mu.Unlock()
		docs = append(docs, doc)
		return nil
	}
	if err := evalEnumerator(cmd, cfg, files).Enumerate(context.Background(), collect); err != nil {
		return err
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Provenance.Path() < docs[j].Provenance.Path()
	})

	eval := newEvaluator(cfg)
	results := make([]evalResult, 0, len(docs))
	for _, doc := range docs {
		res := evalResult{
			Source:     doc.Provenance.Path(),
			DocumentID: doc.ID,
			LineCount:  len(doc.Lines),
		}
		if evalExplain {
			tr := eval.Explain(p, doc.Lines)
			res.Score = tr.Count
			res.Trace = tr.String()
		} else {
			res.Score = eval.Evaluate(p, doc.Lines)
		}
		results = append(results, res)
	}

	if evalFormat == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	out := cmd.OutOrStdout()
	for _, res := range results {
		fmt.Fprintf(out, "%s: %d\n", res.Source, res.Score)
		if res.Trace != "" {
			fmt.Fprint(out, indent(res.Trace, "    "))
		}
	}
	return nil
}

// evalPattern compiles the expression or rule pattern and returns the
// remaining file arguments.
func evalPattern(cfg *config.Config, args []string) (pattern.Pattern, []string, error) {
	cache, err := newCache(cfg)
	if err != nil {
		return nil, nil, err
	}

	if evalRuleID == "" {
		if len(args) == 0 {
			return nil, nil, fmt.Errorf("an expression or --rule is required")
		}
		p, err := pattern.Compile(args[0], pattern.WithCache(cache))
		if err != nil {
			return nil, nil, err
		}
		return p, args[1:], nil
	}

	rules, err := loadRules(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("loading rules: %w", err)
	}
	for _, r := range rules {
		if r.ID == evalRuleID {
			p, err := pattern.Compile(r.Pattern, pattern.WithCache(cache))
			if err != nil {
				return nil, nil, fmt.Errorf("compiling rule %s: %w", r.ID, err)
			}
			return p, args, nil
		}
	}
	return nil, nil, fmt.Errorf("unknown rule: %s", evalRuleID)
}

// evalEnumerator yields each file once, reading stdin when there are none.
func evalEnumerator(cmd *cobra.Command, cfg *config.Config, files []string) enum.Enumerator {
	if len(files) == 0 {
		return enum.NewReaderEnumerator(cmd.InOrStdin(), "stdin", cfg.MaxFileSize)
	}

	extract := ""
	if cfg.Extract {
		extract = "all"
	}
	enumerators := make([]enum.Enumerator, 0, len(files))
	for _, f := range files {
		if f == "-" {
			enumerators = append(enumerators, enum.NewReaderEnumerator(cmd.InOrStdin(), "stdin", cfg.MaxFileSize))
			continue
		}
		enumerators = append(enumerators, enum.NewFilesystemEnumerator(enum.Config{
			Root:            f,
			IncludeHidden:   true,
			MaxFileSize:     cfg.MaxFileSize,
			ExtractArchives: extract,
		}))
	}
	return enum.NewCombinedEnumerator(enumerators...)
}

func indent(s, prefix string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(s, "\n") {
		if line == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
	}
	return b.String()
}
