package enum

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/bodgit/sevenzip"
	"github.com/ledongthuc/pdf"
)

// ExtractedContent represents text extracted from a container file.
type ExtractedContent struct {
	Name    string // member path within the container, e.g. "word/document.xml"
	Content []byte // extracted text, one line per paragraph or row
}

// ExtractionLimits bounds the work done on a single container.
type ExtractionLimits struct {
	MaxSize  int64 // largest member read, in bytes
	MaxTotal int64 // total bytes read across all members
	MaxDepth int   // nesting depth of archives within archives
}

// DefaultExtractionLimits returns the limits used when none are configured.
func DefaultExtractionLimits() ExtractionLimits {
	return ExtractionLimits{
		MaxSize:  10 * 1024 * 1024,
		MaxTotal: 100 * 1024 * 1024,
		MaxDepth: 3,
	}
}

var errLimitReached = errors.New("extraction limit reached")

type extractState struct {
	limits ExtractionLimits
	total  int64
}

// reserve accounts n bytes against the limits.
func (s *extractState) reserve(n int64) bool {
	if s.limits.MaxSize > 0 && n > s.limits.MaxSize {
		return false
	}
	if s.limits.MaxTotal > 0 && s.total+n > s.limits.MaxTotal {
		return false
	}
	s.total += n
	return true
}

type extractFunc func(s *extractState, content []byte, depth int) ([]ExtractedContent, error)

// extractorFor returns the text extractor for ext, or nil.
func extractorFor(ext string) extractFunc {
	switch ext {
	case ".docx":
		return extractDOCX
	case ".xlsx":
		return extractXLSX
	case ".pptx":
		return extractPPTX
	case ".odt":
		return extractODT
	case ".pdf":
		return extractPDF
	case ".zip":
		return extractZIP
	case ".7z":
		return extract7Z
	case ".tar":
		return extractTAR
	case ".tar.gz", ".tgz":
		return extractTGZ
	}
	return nil
}

// ExtractText extracts text from a supported container file.
func ExtractText(filePath string, content []byte, limits ExtractionLimits) ([]ExtractedContent, error) {
	state := &extractState{limits: limits}
	return state.extract(filePath, content, 0)
}

func (s *extractState) extract(filePath string, content []byte, depth int) ([]ExtractedContent, error) {
	ext := getExtension(filePath)
	fn := extractorFor(ext)
	if fn == nil {
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
	return fn(s, content, depth)
}

// getExtension returns the lowercased extension, treating ".tar.gz" as one.
func getExtension(p string) string {
	lower := strings.ToLower(p)
	if strings.HasSuffix(lower, ".tar.gz") {
		return ".tar.gz"
	}
	return path.Ext(strings.ReplaceAll(lower, "\\", "/"))
}

func isExtractable(ext string) bool {
	return extractorFor(ext) != nil
}

// isBinaryContent detects binary content by checking the first 8KB for null
// bytes.
func isBinaryContent(content []byte) bool {
	checkSize := min(len(content), 8192)
	return bytes.IndexByte(content[:checkSize], 0) != -1
}

// member handles one archive member: nested containers are extracted
// recursively, text is passed through and other binaries are skipped.
func (s *extractState) member(name string, content []byte, depth int) ([]ExtractedContent, error) {
	if isExtractable(getExtension(name)) {
		if depth >= s.limits.MaxDepth {
			return nil, nil
		}
		nested, err := s.extract(name, content, depth+1)
		if err != nil {
			// A corrupt member does not spoil the rest of the archive.
			return nil, nil
		}
		for i := range nested {
			nested[i].Name = name + "/" + nested[i].Name
		}
		return nested, nil
	}
	if isBinaryContent(content) || len(content) == 0 {
		return nil, nil
	}
	return []ExtractedContent{{Name: name, Content: content}}, nil
}

func readLimited(s *extractState, rc io.Reader, size int64) ([]byte, error) {
	if !s.reserve(size) {
		return nil, errLimitReached
	}
	return io.ReadAll(io.LimitReader(rc, size))
}

func extractZIP(s *extractState, content []byte, depth int) ([]ExtractedContent, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}

	var results []ExtractedContent
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := readLimited(s, rc, int64(f.UncompressedSize64))
		rc.Close()
		if err != nil {
			continue
		}
		extracted, err := s.member(f.Name, data, depth)
		if err != nil {
			return nil, err
		}
		results = append(results, extracted...)
	}
	return results, nil
}

func extract7Z(s *extractState, content []byte, depth int) ([]ExtractedContent, error) {
	zr, err := sevenzip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open 7z: %w", err)
	}

	var results []ExtractedContent
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := readLimited(s, rc, int64(f.UncompressedSize))
		rc.Close()
		if err != nil {
			continue
		}
		extracted, err := s.member(f.Name, data, depth)
		if err != nil {
			return nil, err
		}
		results = append(results, extracted...)
	}
	return results, nil
}

func extractTAR(s *extractState, content []byte, depth int) ([]ExtractedContent, error) {
	return s.tarMembers(tar.NewReader(bytes.NewReader(content)), depth)
}

func extractTGZ(s *extractState, content []byte, depth int) ([]ExtractedContent, error) {
	gz, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip: %w", err)
	}
	defer gz.Close()
	return s.tarMembers(tar.NewReader(gz), depth)
}

func (s *extractState) tarMembers(tr *tar.Reader, depth int) ([]ExtractedContent, error) {
	var results []ExtractedContent
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := readLimited(s, tr, hdr.Size)
		if err != nil {
			continue
		}
		extracted, err := s.member(hdr.Name, data, depth)
		if err != nil {
			return nil, err
		}
		results = append(results, extracted...)
	}
	return results, nil
}

// officeParts reads the zip parts selected by match and converts their XML
// to lines, breaking after each element named in breaks.
func officeParts(s *extractState, content []byte, kind string, match func(name string) bool, sep string, breaks ...string) ([]ExtractedContent, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s as zip: %w", kind, err)
	}

	var results []ExtractedContent
	for _, f := range zr.File {
		if !match(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := readLimited(s, rc, int64(f.UncompressedSize64))
		rc.Close()
		if err != nil {
			continue
		}
		if text := extractXMLText(data, sep, breaks...); len(text) > 0 {
			results = append(results, ExtractedContent{Name: f.Name, Content: []byte(text)})
		}
	}
	return results, nil
}

func extractDOCX(s *extractState, content []byte, _ int) ([]ExtractedContent, error) {
	return officeParts(s, content, "docx", func(name string) bool {
		return name == "word/document.xml"
	}, "", "p", "br")
}

func extractXLSX(s *extractState, content []byte, _ int) ([]ExtractedContent, error) {
	return officeParts(s, content, "xlsx", func(name string) bool {
		return name == "xl/sharedStrings.xml" ||
			(strings.HasPrefix(name, "xl/worksheets/sheet") && strings.HasSuffix(name, ".xml"))
	}, " ", "si", "row")
}

func extractPPTX(s *extractState, content []byte, _ int) ([]ExtractedContent, error) {
	return officeParts(s, content, "pptx", func(name string) bool {
		return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
	}, "", "p")
}

func extractODT(s *extractState, content []byte, _ int) ([]ExtractedContent, error) {
	return officeParts(s, content, "odt", func(name string) bool {
		return name == "content.xml"
	}, "", "p", "h")
}

// extractPDF extracts text row by row using ledongthuc/pdf.
func extractPDF(s *extractState, content []byte, _ int) ([]ExtractedContent, error) {
	if !s.reserve(int64(len(content))) {
		return nil, nil
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var text strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			// Extract what we can.
			continue
		}
		for _, row := range rows {
			var line strings.Builder
			for _, t := range row.Content {
				line.WriteString(t.S)
			}
			if l := cleanText(line.String()); l != "" {
				text.WriteString(l)
				text.WriteByte('\n')
			}
		}
	}

	if text.Len() == 0 {
		return nil, nil
	}
	return []ExtractedContent{{Name: "content", Content: []byte(text.String())}}, nil
}

// extractXMLText collects the text nodes of an XML document into lines.
// Text nodes within a line are joined with sep; a line ends after any
// element whose local name is in breaks.
func extractXMLText(data []byte, sep string, breaks ...string) string {
	isBreak := make(map[string]bool, len(breaks))
	for _, b := range breaks {
		isBreak[b] = true
	}

	var out strings.Builder
	var line []string
	flush := func() {
		if l := cleanText(strings.Join(line, sep)); l != "" {
			out.WriteString(l)
			out.WriteByte('\n')
		}
		line = line[:0]
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.CharData:
			line = append(line, string(t))
		case xml.EndElement:
			if isBreak[t.Name.Local] {
				flush()
			}
		}
	}
	flush()

	return out.String()
}

// cleanText collapses whitespace runs and drops non-printable characters.
func cleanText(s string) string {
	var result strings.Builder
	lastSpace := false

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				result.WriteRune(' ')
				lastSpace = true
			}
		} else if unicode.IsPrint(r) {
			result.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimSpace(result.String())
}
