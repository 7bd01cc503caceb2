// Package textrenderer renders pagination results as a plain-text preview.
package textrenderer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
)

// Renderer writes a header line followed by every page and its blocks.
type Renderer struct {
	// ShowHeights appends the measured height of each block.
	ShowHeights bool
}

var _ renderer.Renderer = (*Renderer)(nil)

func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("nothing to render")
	}
	var buf bytes.Buffer
	unit := "pages"
	if len(result.Pages) == 1 {
		unit = "page"
	}
	fmt.Fprintf(&buf, "Preview (%d %s)\n", len(result.Pages), unit)
	for _, page := range result.Pages {
		fmt.Fprintf(&buf, "\nPage %d", page.Number)
		if page.Overflow {
			buf.WriteString(" (overflow)")
		}
		buf.WriteByte('\n')
		for i, b := range page.Blocks {
			buf.WriteString(prefix(b.Kind))
			buf.WriteString(strings.ReplaceAll(b.PlainText(), "\n", " "))
			if r.ShowHeights && i < len(page.Heights) {
				fmt.Fprintf(&buf, "  [%.1f]", page.Heights[i])
			}
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

func prefix(kind document.Kind) string {
	switch kind {
	case document.KindHeadingOne:
		return "# "
	case document.KindHeadingTwo:
		return "## "
	case document.KindQuote:
		return "> "
	}
	return ""
}
