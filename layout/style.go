package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ByLCY/quire/document"
)

// BlockStyle 是按块类型固定的排版样式，单位均为 pt。
type BlockStyle struct {
	FontSize     float64 `json:"fontSize"`
	LineHeight   float64 `json:"lineHeight"` // 行高倍数
	MarginTop    float64 `json:"marginTop"`
	MarginBottom float64 `json:"marginBottom"`
	Indent       float64 `json:"indent,omitempty"`    // 左侧缩进（含竖线宽度）
	RuleWidth    float64 `json:"ruleWidth,omitempty"` // 引用块左侧竖线
	Bold         bool    `json:"bold,omitempty"`
	Italic       bool    `json:"italic,omitempty"`
}

// Leading 返回单行高度。
func (s BlockStyle) Leading() float64 {
	lh := s.LineHeight
	if lh <= 0 {
		lh = 1.2
	}
	return s.FontSize * lh
}

// HeightFor 由行数计算块的总高度：上下外边距加上各行高度。空文本也占一行。
func (s BlockStyle) HeightFor(lines int) float64 {
	if lines < 1 {
		lines = 1
	}
	return s.MarginTop + float64(lines)*s.Leading() + s.MarginBottom
}

// TextWidth 返回扣除缩进后的可用文本宽度。
func (s BlockStyle) TextWidth(contentWidth float64) float64 {
	w := contentWidth - s.Indent
	if w <= 0 {
		return contentWidth
	}
	return w
}

// StyleSheet 以块类型为键。
type StyleSheet map[document.Kind]BlockStyle

// DefaultStyleSheet 返回编辑器预览使用的样式表。
func DefaultStyleSheet() StyleSheet {
	return StyleSheet{
		document.KindHeadingOne: {FontSize: 32, LineHeight: 1.2, MarginTop: 20, MarginBottom: 16, Bold: true},
		document.KindHeadingTwo: {FontSize: 24, LineHeight: 1.2, MarginTop: 16, MarginBottom: 12, Bold: true},
		document.KindQuote:      {FontSize: 14, LineHeight: 1.6, MarginTop: 12, MarginBottom: 12, Indent: 20, RuleWidth: 4, Italic: true},
		document.KindParagraph:  {FontSize: 14, LineHeight: 1.6, MarginTop: 0, MarginBottom: 12},
	}
}

// Resolve 返回 kind 对应的样式；未知类型回退到段落样式，保证分页总能前进。
func (ss StyleSheet) Resolve(kind document.Kind) BlockStyle {
	if st, ok := ss[kind]; ok {
		return st
	}
	if st, ok := ss[document.KindParagraph]; ok {
		return st
	}
	return DefaultStyleSheet()[document.KindParagraph]
}

// Fingerprint 返回样式表的稳定文本表示，用作测量缓存键的一部分。
func (ss StyleSheet) Fingerprint() string {
	kinds := make([]string, 0, len(ss))
	for k := range ss {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	var sb strings.Builder
	for _, k := range kinds {
		st := ss[document.Kind(k)]
		fmt.Fprintf(&sb, "%s:%g/%g/%g/%g/%g/%g/%t/%t;", k, st.FontSize, st.LineHeight, st.MarginTop, st.MarginBottom, st.Indent, st.RuleWidth, st.Bold, st.Italic)
	}
	return sb.String()
}
