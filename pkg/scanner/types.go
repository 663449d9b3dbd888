package scanner

import (
	"github.com/praetorian-inc/docsearch/pkg/classify"
	"github.com/praetorian-inc/docsearch/pkg/types"
)

// ContentItem represents a document to classify
type ContentItem struct {
	Source   string            `json:"source"`   // e.g., "upload:42", "mail:inbox/17"
	Content  string            `json:"content"`  // the document text
	Metadata map[string]string `json:"metadata"` // optional metadata, kept with the provenance
}

// ClassifyResult represents the classification of a single item
type ClassifyResult struct {
	Source     string           `json:"source"`
	DocumentID types.DocumentID `json:"document_id"`
	LineCount  int              `json:"line_count"`
	Scores     []*types.Score   `json:"scores"`
	Categories []string         `json:"categories,omitempty"`
}

// BatchClassifyResult represents batch classification results
type BatchClassifyResult struct {
	Results []ClassifyResult `json:"results"`
	Total   int              `json:"total"` // number of scores across all results
}

// DebugLogger provides platform-specific logging
type DebugLogger = classify.DebugLogger

// NoopLogger is a no-op logger
type NoopLogger = classify.NoopLogger
