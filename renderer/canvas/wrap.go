package canvasrenderer

import (
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/tdewolff/canvas"
)

// textLine 是换行后的一行，start/end 为块纯文本中的字节偏移，Width 单位 mm。
type textLine struct {
	Start, End int
	Width      float64
}

type span struct {
	start, end int
	newline    bool
}

// wrapLines 使用贪心算法换行：优先在空白处断开，单词超过限制时在词内拆分，
// 显式换行总是开启新行。空文本得到一行空行。limit 单位 mm。
func wrapLines(text string, limit float64, face *canvas.FontFace) []textLine {
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	var (
		lines []textLine
		cur   textLine
		open  bool
		fresh = true // 自上一个硬换行以来尚未输出任何内容
	)
	emit := func() {
		lines = append(lines, cur)
		open = false
	}
	hardBreak := func(at int) {
		switch {
		case open:
			emit()
		case fresh:
			lines = append(lines, textLine{Start: at, End: at})
		}
		fresh = true
	}
	appendSpan := func(s span, w float64) {
		if !open {
			cur = textLine{Start: s.start}
			open = true
		}
		cur.End = s.end
		cur.Width += w
		fresh = false
	}

	for _, tok := range tokenize(text) {
		if tok.newline {
			hardBreak(tok.start)
			continue
		}
		w := face.TextWidth(text[tok.start:tok.end])
		if open && cur.Width+w > limit {
			emit()
		}
		if w <= limit {
			appendSpan(tok, w)
			continue
		}
		for _, chunk := range splitByWidth(text, tok, limit, face) {
			cw := face.TextWidth(text[chunk.start:chunk.end])
			if open && cur.Width+cw > limit {
				emit()
			}
			appendSpan(chunk, cw)
			if cur.Width > limit {
				emit()
			}
		}
	}
	hardBreak(len(text))
	return lines
}

// tokenize 将文本切分为空白串、非空白串与换行符。
func tokenize(s string) []span {
	var (
		toks      []span
		start     = -1
		lastSpace bool
	)
	for i, r := range s {
		if r == '\n' {
			if start >= 0 {
				toks = append(toks, span{start: start, end: i})
				start = -1
			}
			toks = append(toks, span{start: i, end: i + 1, newline: true})
			continue
		}
		space := unicode.IsSpace(r)
		if start < 0 {
			start, lastSpace = i, space
			continue
		}
		if space != lastSpace {
			toks = append(toks, span{start: start, end: i})
			start, lastSpace = i, space
		}
	}
	if start >= 0 {
		toks = append(toks, span{start: start, end: len(s)})
	}
	return toks
}

// splitByWidth 将过宽的单词拆成不超过 limit 的若干段，每段至少一个字符。
func splitByWidth(text string, tok span, limit float64, face *canvas.FontFace) []span {
	var parts []span
	start := tok.start
	for pos := tok.start; pos < tok.end; {
		_, size := utf8.DecodeRuneInString(text[pos:tok.end])
		next := pos + size
		if pos > start && face.TextWidth(text[start:next]) > limit {
			parts = append(parts, span{start: start, end: pos})
			start = pos
		}
		pos = next
	}
	return append(parts, span{start: start, end: tok.end})
}
