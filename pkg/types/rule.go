package types

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/praetorian-inc/docsearch/pkg/dsl"
)

// DefaultMinScore is the score a document needs to be classified under a
// rule that does not set one.
const DefaultMinScore = 1

// Rule is a named document pattern with metadata.
type Rule struct {
	ID               string   `json:"id"`                          // e.g., "ds.id.search_warrant"
	Name             string   `json:"name"`                        // human-readable name
	Pattern          string   `json:"pattern"`                     // pattern source in the docsearch DSL
	StructuralID     string   `json:"structural_id,omitempty"`     // SHA-1 of the canonical pattern (computed)
	Description      string   `json:"description,omitempty"`       // optional
	MinScore         int      `json:"min_score,omitempty"`         // classification threshold (0 means DefaultMinScore)
	Keywords         []string `json:"keywords,omitempty"`          // literal hints for Aho-Corasick prefiltering
	Examples         []string `json:"examples,omitempty"`          // documents that must classify
	NegativeExamples []string `json:"negative_examples,omitempty"` // documents that must not classify
	References       []string `json:"references,omitempty"`        // documentation URLs
	Categories       []string `json:"categories,omitempty"`        // classification tags
}

// Threshold returns the minimum score for a positive classification.
func (r *Rule) Threshold() int {
	if r.MinScore <= 0 {
		return DefaultMinScore
	}
	return r.MinScore
}

// ComputeStructuralID computes SHA-1 of the pattern in canonical form, so
// formatting, comments and trailing commas do not change the ID. Source
// that does not parse is hashed as written.
func (r *Rule) ComputeStructuralID() string {
	normalized := r.Pattern
	if node, err := dsl.Parse(r.Pattern); err == nil {
		normalized = node.String()
	}
	h := sha1.New()
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}

// Ruleset groups rules together.
type Ruleset struct {
	ID          string
	Name        string
	Description string
	RuleIDs     []string
}
