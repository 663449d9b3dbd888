package types

import "strings"

// Document is one unit of text to classify, already split into lines.
type Document struct {
	ID         DocumentID
	Lines      []string
	Provenance Provenance
}

// NewDocument splits content into lines and computes its ID.
func NewDocument(content []byte, prov Provenance) *Document {
	return &Document{
		ID:         ComputeDocumentID(content),
		Lines:      SplitLines(content),
		Provenance: prov,
	}
}

// SplitLines splits content on "\n", dropping a trailing "\r" from each line
// and the empty line after a final newline. Empty content has no lines.
func SplitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	text := strings.TrimSuffix(string(content), "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
