package enum

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the document family of a file, decided by its extension.
type Kind string

const (
	KindText    Kind = "text"
	KindPDF     Kind = "pdf"
	KindOffice  Kind = "office"
	KindArchive Kind = "archive"

	// KindOther covers unknown extensions. Such files are yielded only when
	// their content is not binary.
	KindOther Kind = "other"
)

var kindByExt = map[string]Kind{
	".txt":  KindText,
	".text": KindText,
	".md":   KindText,
	".csv":  KindText,
	".tsv":  KindText,
	".log":  KindText,
	".json": KindText,
	".xml":  KindText,
	".html": KindText,
	".htm":  KindText,
	".yaml": KindText,
	".yml":  KindText,
	".rtf":  KindText,
	".eml":  KindText,
	".srt":  KindText,

	".pdf": KindPDF,

	".docx": KindOffice,
	".xlsx": KindOffice,
	".pptx": KindOffice,
	".odt":  KindOffice,

	".zip":    KindArchive,
	".7z":     KindArchive,
	".tar":    KindArchive,
	".tar.gz": KindArchive,
	".tgz":    KindArchive,
}

// KindOf returns the kind of the file at path.
func KindOf(path string) Kind {
	if k, ok := kindByExt[getExtension(path)]; ok {
		return k
	}
	return KindOther
}

// isContainer reports whether documents of kind k come out of extraction.
func (k Kind) isContainer() bool {
	return k == KindPDF || k == KindOffice || k == KindArchive
}

// ParseKinds parses a list of kind names such as []string{"text", "pdf"}.
// Entries may themselves be comma-separated.
func ParseKinds(names []string) ([]Kind, error) {
	var kinds []Kind
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			k := Kind(strings.ToLower(strings.TrimSpace(part)))
			if k == "" {
				continue
			}
			switch k {
			case KindText, KindPDF, KindOffice, KindArchive, KindOther:
				kinds = append(kinds, k)
			default:
				return nil, fmt.Errorf("unknown document kind %q (available: %s)", part, strings.Join(KindNames(), ", "))
			}
		}
	}
	return kinds, nil
}

// KindNames lists the valid kind names, sorted.
func KindNames() []string {
	names := []string{string(KindText), string(KindPDF), string(KindOffice), string(KindArchive), string(KindOther)}
	sort.Strings(names)
	return names
}
