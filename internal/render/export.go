package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
)

// Export format names.
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
	FormatDOCX     = "docx"
	FormatPDF      = "pdf"
)

// ExportFormats lists the formats Export can produce.
var ExportFormats = []string{FormatMarkdown, FormatHTML, FormatDOCX}

const (
	MIMEMarkdown = "text/markdown"
	MIMEHTML     = "text/html"
)

// PDFExportMessage tells the user how to get a PDF instead.
const PDFExportMessage = "PDF export is not supported. Download the HTML version and use your browser's Print > Save as PDF function."

// Artifact is an exported file ready for download.
type Artifact struct {
	Filename string
	MIME     string
	Data     []byte
}

// ParseFormat normalizes a format name or file extension. "markdown" is
// accepted for md.
func ParseFormat(s string) string {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if f == "markdown" {
		return FormatMarkdown
	}
	return f
}

// Export converts markdown into format and names the file baseName.<format>.
func Export(baseName, markdown, format string) (*Artifact, error) {
	format = ParseFormat(format)
	filename := baseName + "." + format

	switch format {
	case FormatMarkdown:
		if err := checkEncoding(markdown); err != nil {
			return nil, err
		}
		return &Artifact{Filename: filename, MIME: MIMEMarkdown, Data: []byte(markdown)}, nil
	case FormatHTML:
		doc, err := ToDocument(markdown)
		if err != nil {
			return nil, err
		}
		return &Artifact{Filename: filename, MIME: MIMEHTML, Data: []byte(doc.HTMLPage(baseName))}, nil
	case FormatDOCX:
		doc, err := ToDocument(markdown)
		if err != nil {
			return nil, err
		}
		data, err := doc.DOCX()
		if err != nil {
			return nil, err
		}
		return &Artifact{Filename: filename, MIME: MIMEDOCX, Data: data}, nil
	case FormatPDF:
		return nil, errors.NewFormatError(errors.ErrCodePDFExportUnsupported, PDFExportMessage, nil)
	}

	return nil, errors.NewValidationError(errors.ErrCodeInvalidInput,
		fmt.Sprintf("Unsupported export format %q, expected one of: %s", format, strings.Join(ExportFormats, ", ")), nil)
}

// IsExportFormat reports whether Export can produce format.
func IsExportFormat(format string) bool {
	return slices.Contains(ExportFormats, ParseFormat(format))
}
