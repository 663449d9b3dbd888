package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/docsearch/pkg/scanner"
)

// Request types understood by the server.
const (
	TypeClassify      = "classify"
	TypeClassifyBatch = "classify_batch"
	TypeRules         = "rules"
	TypeClose         = "close"
)

// Request is one NDJSON line read from the input.
type Request struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ClassifyPayload is the payload of a classify request.
type ClassifyPayload struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// ClassifyBatchPayload is the payload of a classify_batch request.
type ClassifyBatchPayload struct {
	Items []scanner.ContentItem `json:"items"`
}

// Response is one NDJSON line written to the output. Type echoes the
// request type, or is "ready" for the startup signal and "decode" when the
// input could not be parsed.
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is sent once, before any request is read.
type ReadyData struct {
	Version string `json:"version"`
	Rules   int    `json:"rules"`
}

// RuleInfo describes one loaded rule in a rules response.
type RuleInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	MinScore   int      `json:"min_score"`
	Categories []string `json:"categories,omitempty"`
}
