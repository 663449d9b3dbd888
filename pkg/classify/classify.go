// Package classify scores documents against a set of rules.
package classify

import (
	"fmt"
	"os"

	"github.com/praetorian-inc/docsearch/pkg/pattern"
	"github.com/praetorian-inc/docsearch/pkg/prefilter"
	"github.com/praetorian-inc/docsearch/pkg/regex"
	"github.com/praetorian-inc/docsearch/pkg/types"
)

// DebugLogger provides platform-specific logging.
type DebugLogger interface {
	Log(format string, args ...interface{})
}

// NoopLogger is a no-op logger.
type NoopLogger struct{}

func (NoopLogger) Log(format string, args ...interface{}) {}

// Config for classifier initialization.
type Config struct {
	// Rules to compile
	Rules []*types.Rule

	// Cache shares compiled regexes between rules (nil = a cache owned by
	// this classifier, using the default engine)
	Cache *regex.Cache

	// Evaluator runs the patterns (nil = default evaluator)
	Evaluator *pattern.Evaluator

	// Tolerant skips rules that fail to compile with a warning instead of
	// failing
	Tolerant bool

	// DisablePrefilter evaluates every rule on every document
	DisablePrefilter bool

	Logger DebugLogger
}

type compiledRule struct {
	rule    *types.Rule
	pattern pattern.Pattern
}

// Classifier holds a compiled rule set. It is safe for concurrent use.
type Classifier struct {
	rules     []compiledRule
	byRule    map[*types.Rule]pattern.Pattern
	prefilter *prefilter.Prefilter
	eval      *pattern.Evaluator
	logger    DebugLogger
}

// New compiles every rule once and builds the keyword prefilter.
func New(cfg Config) (*Classifier, error) {
	if len(cfg.Rules) == 0 {
		return nil, fmt.Errorf("no rules provided")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = NoopLogger{}
	}
	eval := cfg.Evaluator
	if eval == nil {
		eval = pattern.NewEvaluator()
	}
	cache := cfg.Cache
	if cache == nil {
		cache = regex.NewCache(regex.NewRegexp2(regex.DefaultMatchTimeout))
	}
	opts := []pattern.Option{pattern.WithCache(cache)}

	c := &Classifier{
		byRule: make(map[*types.Rule]pattern.Pattern, len(cfg.Rules)),
		eval:   eval,
		logger: logger,
	}

	kept := make([]*types.Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		p, err := pattern.Compile(r.Pattern, opts...)
		if err != nil {
			if cfg.Tolerant {
				fmt.Fprintf(os.Stderr, "[warn] skipping rule %s: %v\n", r.ID, err)
				continue
			}
			return nil, fmt.Errorf("failed to compile rule %s: %w", r.ID, err)
		}
		c.rules = append(c.rules, compiledRule{rule: r, pattern: p})
		c.byRule[r] = p
		kept = append(kept, r)
	}
	if len(c.rules) == 0 {
		return nil, fmt.Errorf("no rules compiled")
	}

	if !cfg.DisablePrefilter {
		c.prefilter = prefilter.New(kept)
	}
	logger.Log("compiled %d of %d rules", len(c.rules), len(cfg.Rules))

	return c, nil
}

// Rules returns the rules that compiled, in input order.
func (c *Classifier) Rules() []*types.Rule {
	out := make([]*types.Rule, len(c.rules))
	for i, cr := range c.rules {
		out[i] = cr.rule
	}
	return out
}

// Score evaluates every candidate rule on doc and returns the non-zero
// scores in rule order.
func (c *Classifier) Score(doc *types.Document) []*types.Score {
	return c.score(doc, false)
}

// Classify returns the scores that reach their rule's threshold.
func (c *Classifier) Classify(doc *types.Document) []*types.Score {
	return c.score(doc, true)
}

func (c *Classifier) score(doc *types.Document, thresholded bool) []*types.Score {
	candidates := c.candidates(doc)
	c.logger.Log("document %s: %d lines, %d candidate rules", doc.ID, len(doc.Lines), len(candidates))

	var scores []*types.Score
	for _, cr := range candidates {
		count := c.eval.Evaluate(cr.pattern, doc.Lines)
		if count == 0 || (thresholded && count < cr.rule.Threshold()) {
			continue
		}
		scores = append(scores, &types.Score{
			DocumentID:   doc.ID,
			RuleID:       cr.rule.ID,
			RuleName:     cr.rule.Name,
			StructuralID: cr.rule.StructuralID,
			Count:        count,
			LineCount:    len(doc.Lines),
			Source:       sourceOf(doc),
		})
	}
	return scores
}

// ClassifyContent builds a document from raw content and classifies it.
func (c *Classifier) ClassifyContent(content []byte, prov types.Provenance) (*types.Document, []*types.Score) {
	doc := types.NewDocument(content, prov)
	return doc, c.Classify(doc)
}

// Explain evaluates rule on doc with a per-node breakdown. The rule must be
// one of the classifier's rules.
func (c *Classifier) Explain(r *types.Rule, doc *types.Document) (*pattern.Trace, error) {
	p, ok := c.byRule[r]
	if !ok {
		return nil, fmt.Errorf("rule %s is not loaded", r.ID)
	}
	return c.eval.Explain(p, doc.Lines), nil
}

func (c *Classifier) candidates(doc *types.Document) []compiledRule {
	if c.prefilter == nil {
		return c.rules
	}
	selected := c.prefilter.FilterLines(doc.Lines)
	out := make([]compiledRule, 0, len(selected))
	for _, r := range selected {
		out = append(out, compiledRule{rule: r, pattern: c.byRule[r]})
	}
	return out
}

func sourceOf(doc *types.Document) string {
	if doc.Provenance == nil {
		return ""
	}
	return doc.Provenance.Path()
}
