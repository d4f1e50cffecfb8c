package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// LayoutPDF extracts text with MuPDF, which keeps reading order and line
// layout. The document is staged in a temp file that is always removed.
type LayoutPDF struct {
	TempDir string
}

func (*LayoutPDF) Name() string { return "pdf-layout" }

func (l *LayoutPDF) Extract(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp(l.TempDir, "atsopt-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	doc, err := fitz.New(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var text strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return text.String(), err
		}
		pageText, err := doc.Text(n)
		if err != nil {
			return text.String(), fmt.Errorf("page %d: %w", n+1, err)
		}
		text.WriteString(pageText)
	}

	// Scanned or image-only documents come back as bare whitespace
	if strings.TrimSpace(text.String()) == "" {
		return "", nil
	}
	return text.String(), nil
}

// PagedPDF reads page objects one at a time. A page that yields no text
// contributes an empty string.
type PagedPDF struct{}

func (PagedPDF) Name() string { return "pdf-pages" }

func (PagedPDF) Extract(ctx context.Context, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return text.String(), err
		}
		text.WriteString(pageText(reader.Page(i)))
	}
	return text.String(), nil
}

func pageText(page pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	if page.V.IsNull() {
		return ""
	}
	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return content
}
