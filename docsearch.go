// Package docsearch scores documents against rules written in a small
// pattern language.
//
// A pattern combines regular expressions with three blocks: all (the
// minimum of its children), any (the sum of its children) and sequence
// (consecutive lines matching in order). The score of a pattern is how many
// times its structure occurs in a document's lines.
//
// # Basic Usage
//
// Compile a pattern and evaluate it:
//
//	p, err := docsearch.Compile(`all { "^INVOICE"i, any { "^total"i, "^amount due"i } }`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	score := docsearch.EvaluateString(p, content)
//
// # Classifying with Rules
//
// A Classifier compiles a rule set once and scores documents against every
// rule:
//
//	c, err := docsearch.NewClassifier()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	scores, err := c.ClassifyFile("/path/to/invoice.pdf")
//	for _, s := range scores {
//	    fmt.Printf("%s: %s (score %d)\n", s.Source, s.RuleName, s.Count)
//	}
package docsearch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/praetorian-inc/docsearch/pkg/classify"
	"github.com/praetorian-inc/docsearch/pkg/enum"
	"github.com/praetorian-inc/docsearch/pkg/pattern"
	"github.com/praetorian-inc/docsearch/pkg/regex"
	"github.com/praetorian-inc/docsearch/pkg/rule"
	"github.com/praetorian-inc/docsearch/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/docsearch" without subpackages.
type (
	// Pattern is a compiled pattern, safe for concurrent evaluation.
	Pattern = pattern.Pattern

	// Trace is the per-node breakdown of one evaluation.
	Trace = pattern.Trace

	// CompileError reports a pattern that could not be compiled.
	CompileError = pattern.CompileError

	// Rule is a named pattern with a classification threshold.
	Rule = types.Rule

	// Score is the occurrence count of one rule on one document.
	Score = types.Score

	// DocumentID identifies a document by content.
	DocumentID = types.DocumentID
)

// Compile compiles pattern source with the default regex engine.
func Compile(src string) (Pattern, error) {
	return pattern.Compile(src)
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) Pattern {
	return pattern.MustCompile(src)
}

// Evaluate returns the score of p on lines.
func Evaluate(p Pattern, lines []string) int {
	return pattern.Evaluate(p, lines)
}

// EvaluateString splits content into lines and returns the score of p.
func EvaluateString(p Pattern, content string) int {
	return pattern.Evaluate(p, types.SplitLines([]byte(content)))
}

// Classifier scores documents against a rule set.
type Classifier struct {
	classifier *classify.Classifier
	config     *classifierConfig
}

// classifierConfig holds classifier configuration.
type classifierConfig struct {
	rules        []*types.Rule
	engine       string
	matchTimeout time.Duration
	workers      int
	threshold    int
	extract      bool
}

// Option configures a Classifier.
type Option func(*classifierConfig)

// WithRules uses custom rules instead of builtin rules.
func WithRules(rules []*Rule) Option {
	return func(c *classifierConfig) {
		c.rules = rules
	}
}

// WithEngine selects the regex engine ("regexp2" or "coregex").
func WithEngine(name string) Option {
	return func(c *classifierConfig) {
		c.engine = name
	}
}

// WithMatchTimeout bounds a single regex match for backtracking engines.
func WithMatchTimeout(d time.Duration) Option {
	return func(c *classifierConfig) {
		c.matchTimeout = d
	}
}

// WithWorkers sets how many goroutines evaluate one pattern node on large
// documents. Zero uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *classifierConfig) {
		c.workers = n
	}
}

// WithParallelThreshold sets the number of line checks below which a node
// is evaluated on one goroutine.
func WithParallelThreshold(n int) Option {
	return func(c *classifierConfig) {
		c.threshold = n
	}
}

// WithoutExtraction makes ClassifyFile read every file as plain text.
func WithoutExtraction() Option {
	return func(c *classifierConfig) {
		c.extract = false
	}
}

// NewClassifier creates a new Classifier with the given options.
//
// By default, the classifier:
//   - Uses all builtin rules
//   - Uses the regexp2 engine
//   - Extracts text from pdf, office files and archives in ClassifyFile
func NewClassifier(opts ...Option) (*Classifier, error) {
	config := &classifierConfig{
		engine:  regex.DefaultEngine,
		extract: true,
	}
	for _, opt := range opts {
		opt(config)
	}

	if config.rules == nil {
		rules, err := LoadBuiltinRules()
		if err != nil {
			return nil, fmt.Errorf("loading builtin rules: %w", err)
		}
		config.rules = rules
	}

	engine, err := regex.New(config.engine, regex.Options{MatchTimeout: config.matchTimeout})
	if err != nil {
		return nil, err
	}

	eval := pattern.NewEvaluator(
		pattern.WithWorkers(config.workers),
		pattern.WithParallelThreshold(config.threshold),
	)
	c, err := classify.New(classify.Config{
		Rules:     config.rules,
		Cache:     regex.NewCache(engine),
		Evaluator: eval,
	})
	if err != nil {
		return nil, fmt.Errorf("creating classifier: %w", err)
	}

	return &Classifier{classifier: c, config: config}, nil
}

// ClassifyString returns the scores of content that reach their rule's
// threshold.
func (c *Classifier) ClassifyString(content string) []*Score {
	return c.ClassifyBytes([]byte(content))
}

// ClassifyBytes returns the scores of content that reach their rule's
// threshold.
func (c *Classifier) ClassifyBytes(content []byte) []*Score {
	_, scores := c.classifier.ClassifyContent(content, nil)
	return scores
}

// ClassifyFile reads path and classifies it. Containers such as pdf, docx
// or zip yield one document per extracted part; each score's Source names
// the part it came from.
func (c *Classifier) ClassifyFile(path string) ([]*Score, error) {
	return c.ClassifyFileWithContext(context.Background(), path)
}

// ClassifyFileWithContext is ClassifyFile with cancellation.
func (c *Classifier) ClassifyFileWithContext(ctx context.Context, path string) ([]*Score, error) {
	extract := ""
	if c.config.extract {
		extract = "all"
	}
	e := enum.NewFilesystemEnumerator(enum.Config{
		Root:            path,
		IncludeHidden:   true,
		ExtractArchives: extract,
	})

	var mu sync.Mutex
	var scores []*Score
	err := e.Enumerate(ctx, func(doc *types.Document) error {
		s := c.classifier.Classify(doc)
		mu.Lock()
		scores = append(scores, s...)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// Explain evaluates the rule with ID ruleID on content and returns the
// per-node breakdown.
func (c *Classifier) Explain(ruleID, content string) (*Trace, error) {
	for _, r := range c.classifier.Rules() {
		if r.ID == ruleID {
			return c.classifier.Explain(r, types.NewDocument([]byte(content), nil))
		}
	}
	return nil, fmt.Errorf("unknown rule: %s", ruleID)
}

// Close releases classifier resources.
func (c *Classifier) Close() error {
	return nil
}

// RuleCount returns the number of rules that compiled.
func (c *Classifier) RuleCount() int {
	return len(c.classifier.Rules())
}

// Rules returns the rules that compiled.
func (c *Classifier) Rules() []*Rule {
	return c.classifier.Rules()
}

// LoadRulesFromFile loads rules from a YAML file or a directory of YAML
// files. Use this with WithRules to create a classifier with custom rules.
func LoadRulesFromFile(path string) ([]*Rule, error) {
	return rule.NewLoader().LoadRulesPath(path)
}

// LoadBuiltinRules returns all builtin rules.
//
// Example:
//
//	rules, err := docsearch.LoadBuiltinRules()
//	if err != nil {
//	    return err
//	}
//
//	// Keep only legal rules
//	var legal []*docsearch.Rule
//	for _, r := range rules {
//	    if strings.HasPrefix(r.ID, "ds.legal.") {
//	        legal = append(legal, r)
//	    }
//	}
//	c, err := docsearch.NewClassifier(docsearch.WithRules(legal))
func LoadBuiltinRules() ([]*Rule, error) {
	return rule.NewLoader().LoadBuiltinRules()
}
