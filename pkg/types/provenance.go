package types

import "fmt"

// Provenance tracks where a document was discovered.
type Provenance interface {
	Kind() string
	// Path returns a displayable location (if applicable).
	Path() string
}

// FileProvenance for plain files.
type FileProvenance struct {
	FilePath string
}

// Kind returns "file".
func (f FileProvenance) Kind() string {
	return "file"
}

// Path returns the file path.
func (f FileProvenance) Path() string {
	return f.FilePath
}

// ArchiveProvenance for text extracted from a container such as a pdf,
// an office document or a zip/7z archive.
type ArchiveProvenance struct {
	ArchivePath string // path to the container file
	MemberPath  string // member within the container, e.g. "word/document.xml"
}

// Kind returns "archive".
func (a ArchiveProvenance) Kind() string {
	return "archive"
}

// Path returns "archive:member".
func (a ArchiveProvenance) Path() string {
	return fmt.Sprintf("%s:%s", a.ArchivePath, a.MemberPath)
}

// ExtendedProvenance for sources without a filesystem path, such as stdin
// or documents submitted to the server.
type ExtendedProvenance struct {
	Payload map[string]interface{}
}

// Kind returns "extended".
func (e ExtendedProvenance) Kind() string {
	return "extended"
}

// Path returns the "source" payload entry, if any.
func (e ExtendedProvenance) Path() string {
	if src, ok := e.Payload["source"].(string); ok {
		return src
	}
	return ""
}
