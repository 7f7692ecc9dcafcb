package extract

import (
	"path/filepath"
	"strings"
)

// Format names one extraction strategy family.
type Format string

const (
	FormatPlaintext   Format = "plaintext"
	FormatMarkdown    Format = "markdown"
	FormatOffice      Format = "office-doc"
	FormatImage       Format = "image-ocr"
	FormatPDF         Format = "pdf"
	FormatUnsupported Format = "unsupported"
)

// DetectFormat routes a filename to an extraction strategy by its
// extension, case-insensitive. It never fails: anything unknown (slide
// decks included) maps to FormatUnsupported so the caller can still
// offer chat-only mode.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return FormatPlaintext
	case ".md", ".markdown":
		return FormatMarkdown
	case ".docx":
		return FormatOffice
	case ".png", ".jpg", ".jpeg", ".webp", ".tif", ".tiff":
		return FormatImage
	case ".pdf":
		return FormatPDF
	default:
		return FormatUnsupported
	}
}
