package sarif

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/docsearch/pkg/types"
)

// SARIF 2.1.0 constants
const (
	SchemaURI   = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version     = "2.1.0"
	ToolName    = "docsearch"
	ToolVersion = "1.0.0"
)

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule represents a classification rule
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ShortDescription ShortDescription `json:"shortDescription"`
	HelpURI          string           `json:"helpUri,omitempty"`
}

// ShortDescription contains rule description text
type ShortDescription struct {
	Text string `json:"text"`
}

// Result is one rule classifying one document
type Result struct {
	RuleID     string     `json:"ruleId"`
	Level      string     `json:"level"`
	Message    Message    `json:"message"`
	Locations  []Location `json:"locations"`
	Properties Properties `json:"properties"`
}

// Properties carries the score behind a result
type Properties struct {
	Score      int    `json:"score"`
	DocumentID string `json:"documentId"`
}

// Message contains the result message
type Message struct {
	Text string `json:"text"`
}

// Location describes where a document was found
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           *Region          `json:"region,omitempty"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region spans the lines of the classified document
type Region struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

// NewReport creates a new SARIF report with initialized structure
func NewReport() *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: ToolVersion,
						Rules:   []Rule{},
					},
				},
				Results: []Result{},
			},
		},
	}
}

// AddRule adds a rule to the report. Rules already present are ignored.
func (r *Report) AddRule(rule *types.Rule) {
	driver := &r.Runs[0].Tool.Driver
	for _, existing := range driver.Rules {
		if existing.ID == rule.ID {
			return
		}
	}

	sarifRule := Rule{
		ID:   rule.ID,
		Name: rule.Name,
		ShortDescription: ShortDescription{
			Text: rule.Description,
		},
	}
	if sarifRule.ShortDescription.Text == "" {
		sarifRule.ShortDescription.Text = rule.Name
	}

	// Add first reference as helpUri if available
	if len(rule.References) > 0 {
		sarifRule.HelpURI = rule.References[0]
	}

	driver.Rules = append(driver.Rules, sarifRule)
}

// AddResult adds a score to the report with one location per place the
// document was seen.
func (r *Report) AddResult(score *types.Score, locations []string) {
	result := Result{
		RuleID: score.RuleID,
		Level:  "note",
		Message: Message{
			Text: fmt.Sprintf("%s (score %d)", score.RuleName, score.Count),
		},
		Locations: make([]Location, 0, len(locations)),
		Properties: Properties{
			Score:      score.Count,
			DocumentID: score.DocumentID.Hex(),
		},
	}

	for _, loc := range locations {
		pl := PhysicalLocation{
			ArtifactLocation: ArtifactLocation{URI: formatFileURI(loc)},
		}
		if score.LineCount > 0 {
			pl.Region = &Region{StartLine: 1, EndLine: score.LineCount}
		}
		result.Locations = append(result.Locations, Location{PhysicalLocation: pl})
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// formatFileURI converts a file path to SARIF URI format
// Absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		path = filepath.ToSlash(path)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	return filepath.ToSlash(path)
}
