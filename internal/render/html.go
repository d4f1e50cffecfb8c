package render

import (
	"fmt"
	"html"
	"strings"
)

// ToHTML renders markdown as an HTML fragment. Consecutive bullet items
// share one <ul>, which is closed by the first non-bullet line.
func ToHTML(markdown string) (string, error) {
	doc, err := ToDocument(markdown)
	if err != nil {
		return "", err
	}
	return doc.HTML(), nil
}

// HTML renders the document as an HTML fragment.
func (d *Document) HTML() string {
	var b strings.Builder
	inList := false

	for _, blk := range d.Blocks {
		if blk.Kind != BlockBullet && inList {
			b.WriteString("</ul>\n")
			inList = false
		}

		text := html.EscapeString(blk.Text)
		switch blk.Kind {
		case BlockEmpty:
			b.WriteString("<p></p>\n")
		case BlockHeading:
			fmt.Fprintf(&b, "<h%d>%s</h%d>\n", blk.Level, text, blk.Level)
		case BlockBullet:
			if !inList {
				b.WriteString("<ul>\n")
				inList = true
			}
			fmt.Fprintf(&b, "<li>%s</li>\n", text)
		default:
			fmt.Fprintf(&b, "<p>%s</p>\n", text)
		}
	}

	if inList {
		b.WriteString("</ul>\n")
	}
	return b.String()
}

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: Calibri, Arial, sans-serif; max-width: 48rem; margin: 2rem auto; line-height: 1.4; }
h1, h2, h3 { margin-bottom: 0.3rem; }
ul { margin-top: 0.2rem; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
%s</body>
</html>
`

// HTMLPage wraps the rendered fragment in a standalone, printable page.
func (d *Document) HTMLPage(title string) string {
	return fmt.Sprintf(htmlPage, html.EscapeString(title), d.HTML())
}
