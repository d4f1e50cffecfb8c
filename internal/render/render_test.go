package render

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/extract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Block
	}{
		{line: "", want: Block{Kind: BlockEmpty}},
		{line: "   \t", want: Block{Kind: BlockEmpty}},
		{line: "# Jane Doe", want: Block{Kind: BlockHeading, Level: 1, Text: "Jane Doe"}},
		{line: "## Experience", want: Block{Kind: BlockHeading, Level: 2, Text: "Experience"}},
		{line: "### Heading", want: Block{Kind: BlockHeading, Level: 3, Text: "Heading"}},
		{line: "#### x", want: Block{Kind: BlockHeading, Level: 3, Text: "x"}},
		{line: "######Deep", want: Block{Kind: BlockHeading, Level: 3, Text: "Deep"}},
		{line: "  ## Indented  ", want: Block{Kind: BlockHeading, Level: 2, Text: "Indented"}},
		{line: "#", want: Block{Kind: BlockHeading, Level: 1, Text: ""}},
		{line: "- item", want: Block{Kind: BlockBullet, Text: "item"}},
		{line: "* item", want: Block{Kind: BlockBullet, Text: "item"}},
		{line: "-   spaced  ", want: Block{Kind: BlockBullet, Text: "spaced"}},
		{line: "    - nested", want: Block{Kind: BlockBullet, Text: "nested"}},
		{line: "-no space", want: Block{Kind: BlockParagraph, Text: "-no space"}},
		{line: "**Bold** text", want: Block{Kind: BlockParagraph, Text: "**Bold** text"}},
		{line: "| a | b |", want: Block{Kind: BlockParagraph, Text: "| a | b |"}},
		{line: "1. Numbered", want: Block{Kind: BlockParagraph, Text: "1. Numbered"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLine(tt.line))
		})
	}
}

func TestParseLines(t *testing.T) {
	tests := []struct {
		name string
		md   string
		want []BlockKind
	}{
		{"empty input", "", nil},
		{"lone newline", "\n", []BlockKind{BlockEmpty}},
		{"no trailing newline", "# A\n- b", []BlockKind{BlockHeading, BlockBullet}},
		{"trailing newline adds nothing", "# Jane\n- Go\n", []BlockKind{BlockHeading, BlockBullet}},
		{"crlf", "# A\r\n\r\n- b\r\n", []BlockKind{BlockHeading, BlockEmpty, BlockBullet}},
		{"bare carriage return", "# A\rtext", []BlockKind{BlockHeading, BlockParagraph}},
		{"blank line kept before final newline", "text\n\n", []BlockKind{BlockParagraph, BlockEmpty}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := Parse(tt.md)
			var kinds []BlockKind
			for _, b := range blocks {
				kinds = append(kinds, b.Kind)
			}
			assert.Equal(t, tt.want, kinds)
		})
	}
}

func TestTrailingNewlineAddsNoEmptyParagraph(t *testing.T) {
	got, err := ToHTML("# Jane\n- Go\n")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Jane</h1>\n<ul>\n<li>Go</li>\n</ul>\n", got)

	doc, err := ToDocument("# Jane\n- Go\n")
	require.NoError(t, err)
	assert.Len(t, doc.Blocks, 2)
}

func TestToHTML(t *testing.T) {
	md := "# Jane <Doe>\n- Go\n* Rust\nSummary & more\n- SQL"

	got, err := ToHTML(md)
	require.NoError(t, err)

	want := "<h1>Jane &lt;Doe&gt;</h1>\n" +
		"<ul>\n<li>Go</li>\n<li>Rust</li>\n</ul>\n" +
		"<p>Summary &amp; more</p>\n" +
		"<ul>\n<li>SQL</li>\n</ul>\n"
	assert.Equal(t, want, got)
}

func TestToHTMLHeadingLevels(t *testing.T) {
	got, err := ToHTML("### Heading\n#### Deeper\n\n")
	require.NoError(t, err)
	assert.Equal(t, "<h3>Heading</h3>\n<h3>Deeper</h3>\n<p></p>\n<p></p>\n", got)
}

func TestInvalidUTF8IsFormatError(t *testing.T) {
	bad := "# Name\n\xff\xfe"

	_, err := ToHTML(bad)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeFormat, errors.TypeOf(err))

	_, err = ToDocument(bad)
	assert.Equal(t, errors.ErrorTypeFormat, errors.TypeOf(err))

	_, err = Export("optimized_resume", bad, FormatMarkdown)
	assert.Equal(t, errors.ErrorTypeFormat, errors.TypeOf(err))
}

func TestWriteDOCXPackage(t *testing.T) {
	doc, err := ToDocument("# Jane\n- Go")
	require.NoError(t, err)

	data, err := doc.DOCX()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	parts := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		parts[f.Name] = string(b)
	}

	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/_rels/document.xml.rels", "word/document.xml", "word/styles.xml", "word/numbering.xml"} {
		assert.Contains(t, parts, name)
	}
	assert.Contains(t, parts["word/document.xml"], `<w:pStyle w:val="Heading1"/>`)
	assert.Contains(t, parts["word/document.xml"], `<w:pStyle w:val="ListBullet"/>`)
}

func TestDOCXEscapesText(t *testing.T) {
	doc, err := ToDocument("R&D <lead> \"quoted\"")
	require.NoError(t, err)

	body, err := doc.documentXML()
	require.NoError(t, err)
	assert.Contains(t, body, "R&amp;D &lt;lead&gt; &#34;quoted&#34;")
}

func TestDOCXReadsBackAsMarkdown(t *testing.T) {
	md := "# Jane Doe\n\n## Experience\n- Built APIs\n* Led a team\nShipped R&D tools\n#### Awards"

	doc, err := ToDocument(md)
	require.NoError(t, err)
	data, err := doc.DOCX()
	require.NoError(t, err)

	got, err := extract.MarkdownDOCX{}.Extract(context.Background(), data)
	require.NoError(t, err)

	want := "# Jane Doe\n\n## Experience\n\n- Built APIs\n- Led a team\nShipped R&D tools\n\n### Awards\n\n"
	assert.Equal(t, want, got)
}

func TestExport(t *testing.T) {
	md := "# Jane\n- Go"

	tests := []struct {
		format   string
		filename string
		mime     string
	}{
		{format: "md", filename: "optimized_resume.md", mime: MIMEMarkdown},
		{format: "markdown", filename: "optimized_resume.md", mime: MIMEMarkdown},
		{format: "HTML", filename: "optimized_resume.html", mime: MIMEHTML},
		{format: ".docx", filename: "optimized_resume.docx", mime: MIMEDOCX},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			art, err := Export("optimized_resume", md, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.filename, art.Filename)
			assert.Equal(t, tt.mime, art.MIME)
			assert.NotEmpty(t, art.Data)
		})
	}

	art, err := Export("new_resume", md, FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, md, string(art.Data))

	art, err = Export("custom_resume", md, FormatHTML)
	require.NoError(t, err)
	html := string(art.Data)
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>custom_resume</title>")
	assert.Contains(t, html, "<h1>Jane</h1>")
}

func TestExportPDFUnsupported(t *testing.T) {
	_, err := Export("optimized_resume", "# Jane", FormatPDF)
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeFormat, appErr.Type)
	assert.Equal(t, errors.ErrCodePDFExportUnsupported, appErr.Code)
	assert.Contains(t, appErr.Message, "Print")
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := Export("optimized_resume", "# Jane", "rtf")
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
	assert.False(t, IsExportFormat("rtf"))
	assert.True(t, IsExportFormat("DOCX"))
}
