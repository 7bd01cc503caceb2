package document

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// 该文件实现编辑命令：行内格式切换、块类型切换与文本插入。
// 所有命令都不修改入参文档，而是返回新的文档快照。

// ErrInvalidSelection 表示选区越界或指向不存在的块。
var ErrInvalidSelection = errors.New("选区无效")

// Format 是可切换的行内样式。
type Format string

const (
	FormatBold      Format = "bold"
	FormatItalic    Format = "italic"
	FormatUnderline Format = "underline"
)

// Point 定位到某个块纯文本中的 rune 偏移。
type Point struct {
	Block  int `json:"block"`
	Offset int `json:"offset"`
}

func (p Point) before(o Point) bool {
	if p.Block != o.Block {
		return p.Block < o.Block
	}
	return p.Offset < o.Offset
}

// Selection 由锚点与焦点组成，二者先后顺序不限。
type Selection struct {
	Anchor Point `json:"anchor"`
	Focus  Point `json:"focus"`
}

// Caret 返回折叠在 p 处的选区。
func Caret(p Point) Selection { return Selection{Anchor: p, Focus: p} }

// Span 返回从 start 到 end 的选区。
func Span(start, end Point) Selection { return Selection{Anchor: start, Focus: end} }

// Collapsed 报告选区是否折叠为一个点。
func (s Selection) Collapsed() bool { return s.Anchor == s.Focus }

// ordered 返回 (起点, 终点)。
func (s Selection) ordered() (Point, Point) {
	if s.Focus.before(s.Anchor) {
		return s.Focus, s.Anchor
	}
	return s.Anchor, s.Focus
}

// validate 校验选区落在文档范围内。
func (s Selection) validate(doc *Document) error {
	if doc == nil || len(doc.Blocks) == 0 {
		return fmt.Errorf("%w: 文档为空", ErrInvalidSelection)
	}
	for _, p := range []Point{s.Anchor, s.Focus} {
		if p.Block < 0 || p.Block >= len(doc.Blocks) {
			return fmt.Errorf("%w: 块下标 %d 越界（共 %d 块）", ErrInvalidSelection, p.Block, len(doc.Blocks))
		}
		n := utf8.RuneCountInString(doc.Blocks[p.Block].PlainText())
		if p.Offset < 0 || p.Offset > n {
			return fmt.Errorf("%w: 偏移 %d 越界（块 %d 长度 %d）", ErrInvalidSelection, p.Offset, p.Block, n)
		}
	}
	return nil
}

// rangeIn 返回选区在第 i 块内覆盖的 [from, to) rune 区间。
func (s Selection) rangeIn(i int, blockLen int) (int, int) {
	start, end := s.ordered()
	from, to := 0, blockLen
	if i == start.Block {
		from = start.Offset
	}
	if i == end.Block {
		to = end.Offset
	}
	return from, to
}

func (r Run) has(f Format) bool {
	switch f {
	case FormatBold:
		return r.Bold
	case FormatItalic:
		return r.Italic
	case FormatUnderline:
		return r.Underline
	}
	return false
}

func (r Run) set(f Format, on bool) Run {
	switch f {
	case FormatBold:
		r.Bold = on
	case FormatItalic:
		r.Italic = on
	case FormatUnderline:
		r.Underline = on
	}
	return r
}

// IsFormatActive 报告选区内是否有 Run 带有格式 f。选区无效或为空时返回 false，不报错。
func IsFormatActive(doc *Document, sel Selection, f Format) bool {
	if sel.validate(doc) != nil || sel.Collapsed() {
		return false
	}
	start, end := sel.ordered()
	for i := start.Block; i <= end.Block; i++ {
		b := doc.Blocks[i]
		from, to := sel.rangeIn(i, utf8.RuneCountInString(b.PlainText()))
		pos := 0
		for _, r := range b.Runs {
			n := utf8.RuneCountInString(r.Text)
			if pos < to && pos+n > from && r.has(f) {
				return true
			}
			pos += n
		}
	}
	return false
}

// IsBlockActive 报告选区覆盖的块中是否有类型为 kind 的块。选区无效时返回 false。
func IsBlockActive(doc *Document, sel Selection, kind Kind) bool {
	if sel.validate(doc) != nil {
		return false
	}
	start, end := sel.ordered()
	for i := start.Block; i <= end.Block; i++ {
		if doc.Blocks[i].Kind == kind {
			return true
		}
	}
	return false
}

// ToggleFormat 在选区内切换格式 f：已激活则全部清除，否则全部设置。
// Run 在选区边界处拆分，之后合并样式相同的相邻 Run。
func ToggleFormat(doc *Document, sel Selection, f Format) (*Document, error) {
	if err := sel.validate(doc); err != nil {
		return nil, err
	}
	if sel.Collapsed() {
		return doc, nil
	}
	on := !IsFormatActive(doc, sel, f)
	start, end := sel.ordered()
	out := doc
	for i := start.Block; i <= end.Block; i++ {
		b := doc.Blocks[i]
		from, to := sel.rangeIn(i, utf8.RuneCountInString(b.PlainText()))
		if from >= to {
			continue
		}
		var runs []Run
		pos := 0
		for _, r := range b.Runs {
			rs := []rune(r.Text)
			n := len(rs)
			lo, hi := clamp(from-pos, 0, n), clamp(to-pos, 0, n)
			if lo >= hi {
				runs = append(runs, r)
				pos += n
				continue
			}
			if lo > 0 {
				runs = append(runs, Run{Text: string(rs[:lo]), Bold: r.Bold, Italic: r.Italic, Underline: r.Underline})
			}
			mid := r
			mid.Text = string(rs[lo:hi])
			runs = append(runs, mid.set(f, on))
			if hi < n {
				runs = append(runs, Run{Text: string(rs[hi:]), Bold: r.Bold, Italic: r.Italic, Underline: r.Underline})
			}
			pos += n
		}
		out = out.replace(i, b.with(b.Kind, mergeRuns(runs)))
	}
	return out, nil
}

// ToggleBlock 切换选区覆盖块的类型：任一块已是 kind 时全部恢复为段落，否则全部设为 kind。
func ToggleBlock(doc *Document, sel Selection, kind Kind) (*Document, error) {
	if err := sel.validate(doc); err != nil {
		return nil, err
	}
	target := kind
	if IsBlockActive(doc, sel, kind) {
		target = KindParagraph
	}
	start, end := sel.ordered()
	out := doc
	for i := start.Block; i <= end.Block; i++ {
		b := doc.Blocks[i]
		if b.Kind == target {
			continue
		}
		out = out.replace(i, b.with(target, b.Runs))
	}
	return out, nil
}

// InsertText 在 at 处插入文本，新文本继承所在 Run 的样式。
func InsertText(doc *Document, at Point, text string) (*Document, error) {
	if err := Caret(at).validate(doc); err != nil {
		return nil, err
	}
	if text == "" {
		return doc, nil
	}
	b := doc.Blocks[at.Block]
	runs := make([]Run, len(b.Runs))
	copy(runs, b.Runs)
	pos := 0
	for i, r := range runs {
		rs := []rune(r.Text)
		// 位于两个 Run 交界时插入到前一个 Run 末尾
		if at.Offset <= pos+len(rs) {
			k := at.Offset - pos
			runs[i].Text = string(rs[:k]) + text + string(rs[k:])
			return doc.replace(at.Block, b.with(b.Kind, runs)), nil
		}
		pos += len(rs)
	}
	runs = append(runs, Run{Text: text})
	return doc.replace(at.Block, b.with(b.Kind, runs)), nil
}

// InsertBlock 在 index 处插入块；index 等于块数时追加到末尾。
func InsertBlock(doc *Document, index int, nb *Block) (*Document, error) {
	if doc == nil {
		doc = &Document{}
	}
	if nb == nil {
		return nil, fmt.Errorf("插入的块为空")
	}
	if index < 0 || index > len(doc.Blocks) {
		return nil, fmt.Errorf("%w: 插入位置 %d 越界（共 %d 块）", ErrInvalidSelection, index, len(doc.Blocks))
	}
	blocks := make([]*Block, 0, len(doc.Blocks)+1)
	blocks = append(blocks, doc.Blocks[:index]...)
	blocks = append(blocks, nb)
	blocks = append(blocks, doc.Blocks[index:]...)
	return &Document{Blocks: blocks}, nil
}

// mergeRuns 合并样式相同的相邻 Run，并去掉多余的空 Run。
func mergeRuns(runs []Run) []Run {
	out := make([]Run, 0, len(runs))
	for _, r := range runs {
		if r.Text == "" && len(runs) > 1 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].sameStyle(r) {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		out = append(out, Run{})
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
