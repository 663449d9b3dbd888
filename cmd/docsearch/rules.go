package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/praetorian-inc/docsearch/pkg/pattern"
	"github.com/praetorian-inc/docsearch/pkg/rule"
	"github.com/praetorian-inc/docsearch/pkg/types"
	"github.com/spf13/cobra"
)

var (
	rulesSelect  ruleFlags
	outputFormat string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage classification rules",
	Long:  "Commands for listing and checking classification rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	Long:  "Display all available classification rules with their IDs and names",
	RunE:  runRulesList,
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check rules against their examples",
	Long: `Compile every rule and score its examples. Each example must reach the
rule's min_score and each negative example must stay below it.`,
	RunE: runRulesCheck,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesSelect.register(rulesListCmd)
	rulesSelect.register(rulesCheckCmd)
	rulesListCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, json")
}

func selectedRules(cmd *cobra.Command) ([]*types.Rule, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	rulesSelect.apply(cmd, cfg)
	return loadRules(cfg)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	rules, err := selectedRules(cmd)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	switch outputFormat {
	case "json":
		return outputRulesJSON(cmd, rules)
	case "table":
		return outputRulesTable(cmd, rules)
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rulesSelect.apply(cmd, cfg)
	rules, err := loadRules(cfg)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	cache, err := newCache(cfg)
	if err != nil {
		return err
	}
	opt := pattern.WithCache(cache)

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range rules {
		if err := rule.ValidateRule(r, opt); err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", r.ID, err)
			continue
		}
		failures, err := rule.CheckExamples(r, opt)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", r.ID, err)
			continue
		}
		if len(failures) > 0 {
			failed++
			for _, f := range failures {
				fmt.Fprintf(out, "FAIL %s\n", f.Error())
			}
			continue
		}
		if !quiet {
			fmt.Fprintf(out, "ok   %s (%d examples, %d negative)\n", r.ID, len(r.Examples), len(r.NegativeExamples))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d rules failed", failed, len(rules))
	}
	progress(out, "%d rules ok\n", len(rules))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func outputRulesJSON(cmd *cobra.Command, rules []*types.Rule) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(rules)
}

func outputRulesTable(cmd *cobra.Command, rules []*types.Rule) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tName\tMin Score\tCategories\n")
	fmt.Fprintf(w, "--\t----\t---------\t----------\n")

	for _, r := range rules {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.Name, r.Threshold(), strings.Join(r.Categories, ","))
	}

	return nil
}
