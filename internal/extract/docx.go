package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

type docxRun struct {
	text string
	bold bool
}

type docxParagraph struct {
	style string
	list  bool
	runs  []docxRun
}

func (p docxParagraph) plain() string {
	var b strings.Builder
	for _, r := range p.runs {
		b.WriteString(r.text)
	}
	return b.String()
}

// headingLevel returns 1-3 for title and heading styles, 0 otherwise.
func (p docxParagraph) headingLevel() int {
	style := strings.ToLower(p.style)
	switch {
	case style == "title":
		return 1
	case strings.HasPrefix(style, "heading"):
		var n int
		if _, err := fmt.Sscanf(style[len("heading"):], "%d", &n); err != nil || n < 1 {
			return 0
		}
		return min(n, 3)
	}
	return 0
}

func (p docxParagraph) isList() bool {
	return p.list || strings.HasPrefix(strings.ToLower(p.style), "list")
}

// walkParagraphs streams word/document.xml and calls fn for each w:p.
func walkParagraphs(r io.Reader, fn func(docxParagraph)) error {
	dec := xml.NewDecoder(r)

	var (
		para   *docxParagraph
		inRun  bool
		inText bool
		bold   bool
		inRPr  bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("malformed document XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				para = &docxParagraph{}
			case "pStyle":
				if para != nil {
					para.style = attr(t, "val")
				}
			case "numPr":
				if para != nil {
					para.list = true
				}
			case "r":
				inRun, bold = true, false
			case "rPr":
				inRPr = true
			case "b":
				if inRun && inRPr {
					bold = toggleOn(attr(t, "val"))
				}
			case "t":
				inText = true
			case "tab":
				if para != nil && inRun {
					para.runs = append(para.runs, docxRun{text: "\t", bold: bold})
				}
			case "br", "cr":
				if para != nil && inRun {
					para.runs = append(para.runs, docxRun{text: "\n", bold: bold})
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				if para != nil {
					fn(*para)
				}
				para = nil
			case "r":
				inRun = false
			case "rPr":
				inRPr = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && para != nil {
				para.runs = append(para.runs, docxRun{text: string(t), bold: bold})
			}
		}
	}
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// toggleOn interprets an OOXML on/off attribute, where absence means on.
func toggleOn(val string) bool {
	switch strings.ToLower(val) {
	case "0", "false", "off", "none":
		return false
	}
	return true
}

// MarkdownDOCX converts a Word document into Markdown, keeping headings,
// list items and bold text.
type MarkdownDOCX struct{}

func (MarkdownDOCX) Name() string { return "docx-markdown" }

func (MarkdownDOCX) Extract(ctx context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("not a Word document: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("word/document.xml missing from archive")
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document body: %w", err)
	}
	defer rc.Close()

	var out strings.Builder
	err = walkParagraphs(rc, func(p docxParagraph) {
		line := strings.TrimSpace(markdownRuns(p.runs))
		if line == "" {
			return
		}
		switch level := p.headingLevel(); {
		case level > 0:
			out.WriteString(strings.Repeat("#", level) + " " + strings.TrimSpace(p.plain()) + "\n\n")
		case p.isList():
			out.WriteString("- " + line + "\n")
		default:
			out.WriteString(line + "\n\n")
		}
	})
	if err != nil {
		return out.String(), err
	}
	if err := ctx.Err(); err != nil {
		return out.String(), err
	}
	return out.String(), nil
}

// markdownRuns joins runs, wrapping consecutive bold runs in one ** pair.
func markdownRuns(runs []docxRun) string {
	var b strings.Builder
	for i := 0; i < len(runs); {
		if !runs[i].bold {
			b.WriteString(runs[i].text)
			i++
			continue
		}
		var bold strings.Builder
		for ; i < len(runs) && runs[i].bold; i++ {
			bold.WriteString(runs[i].text)
		}
		if s := bold.String(); strings.TrimSpace(s) != "" {
			b.WriteString("**" + strings.TrimSpace(s) + "**")
		} else {
			b.WriteString(s)
		}
	}
	return b.String()
}

// ParagraphDOCX concatenates paragraph text with a trailing newline each.
// Headings and bullets become plain lines.
type ParagraphDOCX struct{}

func (ParagraphDOCX) Name() string { return "docx-paragraphs" }

func (ParagraphDOCX) Extract(_ context.Context, data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()

	var out strings.Builder
	err = walkParagraphs(strings.NewReader(content), func(p docxParagraph) {
		out.WriteString(p.plain() + "\n")
	})
	return out.String(), err
}
