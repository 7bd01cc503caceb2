package document

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// 该文件定义文档模型：块（Block）、文本片段（Run）与文档（Document）。

// Kind 是块的类型标签。
type Kind string

const (
	KindParagraph  Kind = "paragraph"
	KindHeadingOne Kind = "heading-one"
	KindHeadingTwo Kind = "heading-two"
	KindQuote      Kind = "block-quote"
)

// Kinds 列出全部已知的块类型，顺序即工具栏顺序。
var Kinds = []Kind{KindParagraph, KindHeadingOne, KindHeadingTwo, KindQuote}

// Known 报告 k 是否属于封闭集合；未知类型仍可被表示，排版时按段落处理。
func (k Kind) Known() bool {
	return slices.Contains(Kinds, k)
}

// Run 是块内带样式的一段文本，按值传递，不可变。
type Run struct {
	Text      string `json:"text"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
}

// sameStyle 判断两个 Run 的样式位是否完全一致。
func (r Run) sameStyle(o Run) bool {
	return r.Bold == o.Bold && r.Italic == o.Italic && r.Underline == o.Underline
}

// Block 是文档结构与分页的最小单位，永远不会被拆到两页。
// 页面按指针引用块，因此 ID 之外指针本身也是块的身份。
type Block struct {
	ID   string `json:"id"`
	Kind Kind   `json:"type"`
	Runs []Run  `json:"children"`
}

// NewBlock 创建一个带新 ID 的块。没有 Run 时补一个空 Run，保证块总有文本叶子。
func NewBlock(kind Kind, runs ...Run) *Block {
	if len(runs) == 0 {
		runs = []Run{{}}
	}
	return &Block{ID: uuid.NewString(), Kind: kind, Runs: runs}
}

// NewParagraph 以纯文本创建段落块。
func NewParagraph(text string) *Block {
	return NewBlock(KindParagraph, Run{Text: text})
}

// PlainText 拼接所有 Run 的文本，忽略样式。
func (b *Block) PlainText() string {
	if b == nil {
		return ""
	}
	if len(b.Runs) == 1 {
		return b.Runs[0].Text
	}
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// IsEmpty 报告块的纯文本是否为空。
func (b *Block) IsEmpty() bool {
	for _, r := range b.Runs {
		if r.Text != "" {
			return false
		}
	}
	return true
}

// with 返回保留 ID、替换类型与 Run 的副本；原块不被修改。
func (b *Block) with(kind Kind, runs []Run) *Block {
	return &Block{ID: b.ID, Kind: kind, Runs: runs}
}

// Document 是按顺序排列的块序列。文档视为快照：编辑总是返回新文档，未改动的块被共享。
type Document struct {
	Blocks []*Block `json:"blocks"`
}

// New 返回只包含一个空段落的文档，对应编辑会话的初始状态。
func New() *Document {
	return &Document{Blocks: []*Block{NewParagraph("")}}
}

// FromBlocks 用给定块构建文档。
func FromBlocks(blocks ...*Block) *Document {
	return &Document{Blocks: blocks}
}

// Len 返回块数量。
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Blocks)
}

// PlainText 以换行连接全部块的纯文本。
func (d *Document) PlainText() string {
	if d == nil {
		return ""
	}
	parts := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		parts[i] = b.PlainText()
	}
	return strings.Join(parts, "\n")
}

// replace 返回把 idx 处的块换成 nb 后的新文档。
func (d *Document) replace(idx int, nb *Block) *Document {
	blocks := make([]*Block, len(d.Blocks))
	copy(blocks, d.Blocks)
	blocks[idx] = nb
	return &Document{Blocks: blocks}
}
