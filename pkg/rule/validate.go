package rule

import (
	"fmt"

	"github.com/praetorian-inc/docsearch/pkg/pattern"
	"github.com/praetorian-inc/docsearch/pkg/types"
)

// ValidateRule checks rule consistency and required fields, and that the
// pattern compiles. Returns error if rule is invalid.
func ValidateRule(r *types.Rule, opts ...pattern.Option) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}

	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern is required")
	}
	if r.MinScore < 0 {
		return fmt.Errorf("rule %s has negative min_score %d", r.ID, r.MinScore)
	}

	if _, err := pattern.Compile(r.Pattern, opts...); err != nil {
		return fmt.Errorf("invalid pattern for rule %s: %w", r.ID, err)
	}

	expectedID := r.ComputeStructuralID()
	if r.StructuralID != "" && r.StructuralID != expectedID {
		return fmt.Errorf("rule %s has inconsistent StructuralID: got %s, expected %s",
			r.ID, r.StructuralID, expectedID)
	}

	return nil
}

// ExampleFailure is an example document that scored on the wrong side of
// its rule's threshold.
type ExampleFailure struct {
	RuleID    string
	Index     int  // position in Examples or NegativeExamples
	Negative  bool // true for a negative example
	Score     int
	Threshold int
}

func (f ExampleFailure) Error() string {
	if f.Negative {
		return fmt.Sprintf("rule %s: negative example %d scored %d, want < %d",
			f.RuleID, f.Index, f.Score, f.Threshold)
	}
	return fmt.Sprintf("rule %s: example %d scored %d, want >= %d",
		f.RuleID, f.Index, f.Score, f.Threshold)
}

// CheckExamples compiles the rule and scores its examples. Every example
// must reach the rule's threshold and every negative example must stay
// below it.
func CheckExamples(r *types.Rule, opts ...pattern.Option) ([]ExampleFailure, error) {
	p, err := pattern.Compile(r.Pattern, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern for rule %s: %w", r.ID, err)
	}

	threshold := r.Threshold()
	var failures []ExampleFailure

	for i, ex := range r.Examples {
		score := pattern.Evaluate(p, types.SplitLines([]byte(ex)))
		if score < threshold {
			failures = append(failures, ExampleFailure{
				RuleID: r.ID, Index: i, Score: score, Threshold: threshold,
			})
		}
	}
	for i, ex := range r.NegativeExamples {
		score := pattern.Evaluate(p, types.SplitLines([]byte(ex)))
		if score >= threshold {
			failures = append(failures, ExampleFailure{
				RuleID: r.ID, Index: i, Negative: true, Score: score, Threshold: threshold,
			})
		}
	}

	return failures, nil
}

// ValidateRuleset checks ruleset consistency and required fields.
// knownRuleIDs is a map of valid rule IDs for reference checking.
// Returns error if ruleset is invalid.
func ValidateRuleset(rs *types.Ruleset, knownRuleIDs map[string]bool) error {
	if rs == nil {
		return fmt.Errorf("ruleset is nil")
	}

	if rs.ID == "" {
		return fmt.Errorf("ruleset ID is required")
	}
	if rs.Name == "" {
		return fmt.Errorf("ruleset name is required")
	}
	if len(rs.RuleIDs) == 0 {
		return fmt.Errorf("ruleset %s must reference at least one rule", rs.ID)
	}

	if knownRuleIDs != nil {
		for _, ruleID := range rs.RuleIDs {
			if !knownRuleIDs[ruleID] {
				return fmt.Errorf("ruleset %s references unknown rule ID: %s", rs.ID, ruleID)
			}
		}
	}

	seen := make(map[string]bool)
	for _, ruleID := range rs.RuleIDs {
		if seen[ruleID] {
			return fmt.Errorf("ruleset %s contains duplicate rule ID: %s", rs.ID, ruleID)
		}
		seen[ruleID] = true
	}

	return nil
}
