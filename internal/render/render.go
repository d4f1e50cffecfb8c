// Package render converts resume Markdown into Word and HTML documents.
//
// The grammar is deliberately small and line based: headings, bullet items
// and paragraphs. Anything else (tables, code fences, links, nested lists)
// is kept as a plain paragraph with its raw characters.
package render

import (
	"strings"
	"unicode/utf8"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
)

// BlockKind is the kind of one rendered line.
type BlockKind int

const (
	BlockEmpty BlockKind = iota
	BlockHeading
	BlockBullet
	BlockParagraph
)

func (k BlockKind) String() string {
	switch k {
	case BlockEmpty:
		return "empty"
	case BlockHeading:
		return "heading"
	case BlockBullet:
		return "bullet"
	case BlockParagraph:
		return "paragraph"
	}
	return "unknown"
}

// MaxHeadingLevel is the deepest heading level emitted.
const MaxHeadingLevel = 3

// Block is one line of input after classification. Level is only set for
// headings.
type Block struct {
	Kind  BlockKind
	Level int
	Text  string
}

// Document is an ordered list of blocks.
type Document struct {
	Blocks []Block
}

// ParseLine classifies a single line.
func ParseLine(line string) Block {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Block{Kind: BlockEmpty}
	case strings.HasPrefix(line, "#"):
		rest := strings.TrimLeft(line, "#")
		level := min(len(line)-len(rest), MaxHeadingLevel)
		return Block{Kind: BlockHeading, Level: level, Text: strings.TrimSpace(rest)}
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
		return Block{Kind: BlockBullet, Text: strings.TrimSpace(line[2:])}
	}
	return Block{Kind: BlockParagraph, Text: line}
}

// Parse splits markdown into lines and classifies every line. "\r\n" and
// "\r" end lines too, and a final line terminator does not start a new
// line, so "" yields no blocks.
func Parse(markdown string) []Block {
	markdown = strings.ReplaceAll(markdown, "\r\n", "\n")
	markdown = strings.ReplaceAll(markdown, "\r", "\n")
	markdown = strings.TrimSuffix(markdown, "\n")
	if markdown == "" {
		return nil
	}
	lines := strings.Split(markdown, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, ParseLine(line))
	}
	return blocks
}

// ToDocument parses markdown into a Document. It fails with a FormatError
// when the input is not valid UTF-8.
func ToDocument(markdown string) (*Document, error) {
	if err := checkEncoding(markdown); err != nil {
		return nil, err
	}
	return &Document{Blocks: Parse(markdown)}, nil
}

func checkEncoding(s string) error {
	if utf8.ValidString(s) {
		return nil
	}
	return errors.NewFormatError(errors.ErrCodeFormatFailed,
		"Resume text is not valid UTF-8 and cannot be converted", nil)
}
