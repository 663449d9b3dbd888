package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/praetorian-inc/docsearch/pkg/classify"
	"github.com/praetorian-inc/docsearch/pkg/config"
	"github.com/praetorian-inc/docsearch/pkg/pattern"
	"github.com/praetorian-inc/docsearch/pkg/regex"
	"github.com/praetorian-inc/docsearch/pkg/rule"
	"github.com/praetorian-inc/docsearch/pkg/types"
	"github.com/spf13/cobra"
)

// ruleFlags are the rule selection flags shared by several commands.
type ruleFlags struct {
	path     string
	ruleset  string
	include  string
	exclude  string
	category string
}

func (f *ruleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "rules", "", "Path to custom rules file or directory")
	cmd.Flags().StringVar(&f.ruleset, "ruleset", "", "Builtin ruleset ID to use")
	cmd.Flags().StringVar(&f.include, "rules-include", "", "Include rules matching regex pattern (comma-separated)")
	cmd.Flags().StringVar(&f.exclude, "rules-exclude", "", "Exclude rules matching regex pattern (comma-separated)")
	cmd.Flags().StringVar(&f.category, "category", "", "Only use rules in these categories (comma-separated)")
}

// apply copies the flags the user set onto cfg.
func (f *ruleFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("rules") {
		cfg.Rules = f.path
	}
	if cmd.Flags().Changed("ruleset") {
		cfg.Ruleset = f.ruleset
	}
	if cmd.Flags().Changed("rules-include") {
		cfg.RulesInclude = rule.ParsePatterns(f.include)
	}
	if cmd.Flags().Changed("rules-exclude") {
		cfg.RulesExclude = rule.ParsePatterns(f.exclude)
	}
	if cmd.Flags().Changed("category") {
		cfg.Categories = rule.ParsePatterns(f.category)
	}
}

// loadConfig reads the config file and environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Path != "" {
		logf("using config %s", cfg.Path)
	}
	return cfg, nil
}

// loadRules loads the rules cfg selects: a rules path or the builtin rules,
// narrowed by ruleset, ID patterns and categories.
func loadRules(cfg *config.Config) ([]*types.Rule, error) {
	loader := rule.NewLoader()

	var rules []*types.Rule
	var err error

	if cfg.Rules != "" {
		rules, err = loader.LoadRulesPath(cfg.Rules)
		if err != nil {
			return nil, err
		}
	} else {
		rules, err = loader.LoadBuiltinRules()
		if err != nil {
			return nil, err
		}
	}

	if cfg.Ruleset != "" {
		rulesets, err := loader.LoadBuiltinRulesets()
		if err != nil {
			return nil, err
		}
		var selected *types.Ruleset
		for _, rs := range rulesets {
			if rs.ID == cfg.Ruleset {
				selected = rs
				break
			}
		}
		if selected == nil {
			return nil, fmt.Errorf("unknown ruleset: %s", cfg.Ruleset)
		}
		rules, err = rule.SelectRuleset(rules, selected)
		if err != nil {
			return nil, err
		}
	}

	if len(cfg.RulesInclude) > 0 || len(cfg.RulesExclude) > 0 || len(cfg.Categories) > 0 {
		rules, err = rule.Filter(rules, rule.FilterConfig{
			Include:    cfg.RulesInclude,
			Exclude:    cfg.RulesExclude,
			Categories: cfg.Categories,
		})
		if err != nil {
			return nil, fmt.Errorf("filtering rules: %w", err)
		}
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules selected")
	}

	for _, r := range rules {
		if r.MinScore == 0 && cfg.MinScore > types.DefaultMinScore {
			r.MinScore = cfg.MinScore
		}
	}
	return rules, nil
}

// newClassifier builds a classifier for rules with the configured engine
// and evaluator.
func newClassifier(cfg *config.Config, rules []*types.Rule) (*classify.Classifier, error) {
	cache, err := newCache(cfg)
	if err != nil {
		return nil, err
	}
	return classify.New(classify.Config{
		Rules:     rules,
		Cache:     cache,
		Evaluator: newEvaluator(cfg),
		Tolerant:  true,
		Logger:    debugLogger(),
	})
}

func newCache(cfg *config.Config) (*regex.Cache, error) {
	engine, err := cfg.NewEngine()
	if err != nil {
		return nil, err
	}
	return regex.NewCache(engine), nil
}

func newEvaluator(cfg *config.Config) *pattern.Evaluator {
	return pattern.NewEvaluator(
		pattern.WithWorkers(cfg.Workers),
		pattern.WithParallelThreshold(cfg.ParallelThreshold),
	)
}

// stderrLogger writes debug lines to stderr when --verbose is set.
type stderrLogger struct {
	w io.Writer
}

func (l stderrLogger) Log(format string, args ...interface{}) {
	fmt.Fprintf(l.w, "[debug] "+strings.TrimSuffix(format, "\n")+"\n", args...)
}

func debugLogger() classify.DebugLogger {
	if !verbose {
		return classify.NoopLogger{}
	}
	return stderrLogger{w: os.Stderr}
}

func logf(format string, args ...interface{}) {
	debugLogger().Log(format, args...)
}

// progress writes a status line unless --quiet is set.
func progress(w io.Writer, format string, args ...interface{}) {
	if quiet {
		return
	}
	fmt.Fprintf(w, format, args...)
}
