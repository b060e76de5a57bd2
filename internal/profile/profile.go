// Package profile builds compact per-file profiles for one organizing
// session: filename signals, identifier codes, keywords, and a bounded
// content summary. Profiles are rebuilt wholesale on every scan.
package profile

import (
	"strings"
	"time"
)

const (
	// SummaryMaxLen hard-caps the content micro-summary.
	SummaryMaxLen = 120
	// MaxKeywords bounds the keyword set per file.
	MaxKeywords = 15
)

const (
	KindText    = "text"
	KindPdf     = "pdf"
	KindOffice  = "office"
	KindImage   = "image"
	KindArchive = "archive"
	KindBinary  = "binary"
)

// FileProfile is the per-file record consumed by the resolver and the
// prompt compiler. Path is the slash-separated location relative to the
// sandbox root and uniquely identifies the profile.
type FileProfile struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Extension  string    `json:"extension"`
	Size       int64     `json:"size"`
	Kind       string    `json:"kind"`
	Tokens     []string  `json:"tokens,omitempty"`
	Codes      []string  `json:"codes,omitempty"`
	Date       string    `json:"date,omitempty"`
	TypeHint   string    `json:"type_hint,omitempty"`
	Subjects   []string  `json:"subjects,omitempty"`
	Keywords   []string  `json:"keywords,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Unreadable bool      `json:"unreadable,omitempty"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// InRoot reports whether the file sits directly in the sandbox root,
// i.e. is not already inside a category folder.
func (p *FileProfile) InRoot() bool {
	return !strings.Contains(p.Path, "/")
}

var textExtensions = map[string]bool{
	".txt":  true,
	".csv":  true,
	".md":   true,
	".json": true,
	".xml":  true,
	".yaml": true,
	".yml":  true,
	".html": true,
	".log":  true,
	".js":   true,
	".ts":   true,
	".py":   true,
	".java": true,
	".go":   true,
	".rb":   true,
	".rs":   true,
	".c":    true,
	".cpp":  true,
	".h":    true,
	".css":  true,
	".sql":  true,
}

var officeExtensions = map[string]bool{
	".docx": true,
	".doc":  true,
	".odt":  true,
	".xlsx": true,
	".pptx": true,
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

var archiveExtensions = map[string]bool{
	".zip": true,
	".tar": true,
	".gz":  true,
	".7z":  true,
	".rar": true,
}

// KindForExtension classifies a lowercased extension into a file kind.
func KindForExtension(ext string) string {
	switch {
	case textExtensions[ext]:
		return KindText
	case ext == ".pdf":
		return KindPdf
	case officeExtensions[ext]:
		return KindOffice
	case imageExtensions[ext]:
		return KindImage
	case archiveExtensions[ext]:
		return KindArchive
	default:
		return KindBinary
	}
}
