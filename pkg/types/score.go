package types

// Score is the occurrence count of one rule on one document.
type Score struct {
	DocumentID   DocumentID `json:"document_id"`
	RuleID       string     `json:"rule_id"`
	RuleName     string     `json:"rule_name"`
	StructuralID string     `json:"structural_id"` // structural ID of the rule
	Count        int        `json:"count"`
	LineCount    int        `json:"line_count"` // lines in the scored document
	Source       string     `json:"source,omitempty"`
}

// Classified reports whether the score reaches threshold.
func (s *Score) Classified(threshold int) bool {
	return s.Count >= threshold
}
