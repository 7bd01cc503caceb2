// Package measure provides measurement backends for the pagination engine
// that do not need a font rasterizer, plus a caching wrapper for any backend.
package measure

import (
	"context"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
)

// ErrUnavailable is returned by a Table configured to fail.
var ErrUnavailable = errors.New("measure: backend unavailable")

var (
	_ layout.Measurer = (*Table)(nil)
	_ layout.Measurer = (*Estimator)(nil)
)

// Table is a deterministic lookup measurer. Lookup order is ByText, then
// ByKind, then Default.
type Table struct {
	ByText  map[string]float64
	ByKind  map[document.Kind]float64
	Default float64
	// Fail makes every call return ErrUnavailable.
	Fail bool
}

func (t *Table) MeasureHeight(_ context.Context, kind document.Kind, text string) (float64, error) {
	if t.Fail {
		return 0, ErrUnavailable
	}
	if h, ok := t.ByText[text]; ok {
		return h, nil
	}
	if h, ok := t.ByKind[kind]; ok {
		return h, nil
	}
	return t.Default, nil
}

// avgGlyphEm is the average advance of a proportional sans face in em.
const avgGlyphEm = 0.5

// Estimator measures without fonts: every glyph is assumed to advance half an
// em, bold text a little more. Lines are counted by greedy word wrapping.
type Estimator struct {
	Styles   layout.StyleSheet
	Geometry layout.Geometry
}

// NewEstimator returns an estimator over the default style sheet and page.
func NewEstimator() *Estimator {
	return &Estimator{Styles: layout.DefaultStyleSheet(), Geometry: layout.DefaultGeometry()}
}

func (e *Estimator) MeasureHeight(ctx context.Context, kind document.Kind, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	st := e.Styles.Resolve(kind)
	if st.FontSize <= 0 {
		return 0, fmt.Errorf("measure: style for %q has no font size", kind)
	}
	glyph := st.FontSize * avgGlyphEm
	if st.Bold {
		glyph *= 1.1
	}
	width := st.TextWidth(e.Geometry.ContentWidth())
	return st.HeightFor(countLines(text, width, glyph)), nil
}

// countLines wraps text on spaces and explicit newlines; words wider than the
// line are broken by glyph count.
func countLines(text string, width, glyph float64) int {
	perLine := int(math.Floor(width / glyph))
	if perLine < 1 {
		perLine = 1
	}
	lines := 0
	for _, para := range splitLines(text) {
		lines += wrapCount(para, perLine)
	}
	return lines
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func wrapCount(line string, perLine int) int {
	lines, used := 1, 0
	for _, word := range fields(line) {
		n := utf8.RuneCountInString(word)
		switch {
		case used == 0:
		case used+1+n <= perLine:
			used++
		default:
			lines++
			used = 0
		}
		for n > perLine {
			n -= perLine
			lines++
		}
		used += n
	}
	return lines
}

func fields(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}
