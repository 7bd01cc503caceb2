package layout

import "github.com/ByLCY/quire/document"

// 该文件定义分页结果与版面几何，供分页、渲染与调试 JSON 共用。

// 默认版面：US Letter，72 单位/英寸，四边 1 英寸边距。
const (
	DefaultPageWidth  = 612.0
	DefaultPageHeight = 792.0
	DefaultMargin     = 72.0
)

// Geometry 描述页面外框与边距（单位：pt）。
type Geometry struct {
	PageWidth  float64 `json:"pageWidth"`
	PageHeight float64 `json:"pageHeight"`
	Margin     float64 `json:"margin"`
}

// DefaultGeometry 返回 612×792、边距 72 的默认版面。
func DefaultGeometry() Geometry {
	return Geometry{PageWidth: DefaultPageWidth, PageHeight: DefaultPageHeight, Margin: DefaultMargin}
}

// ContentWidth 是扣除左右边距后的排版宽度。
func (g Geometry) ContentWidth() float64 {
	w := g.PageWidth - 2*g.Margin
	if w < 0 {
		return 0
	}
	return w
}

// Capacity 是每页可累计的最大高度。与测量容器一致，取整页高度。
func (g Geometry) Capacity() float64 { return g.PageHeight }

// Result 保存一次分页的全部页面。
type Result struct {
	Pages    []Page   `json:"pages"`
	Geometry Geometry `json:"geometry"`
	// Synthesized 为 true 表示输入没有任何块，唯一的页面放的是补出来的空段落。
	Synthesized bool `json:"synthesized,omitempty"`
}

// Blocks 按顺序拼接所有页面中的块，结果应与输入文档完全一致。
func (r *Result) Blocks() []*document.Block {
	if r == nil {
		return nil
	}
	var out []*document.Block
	for _, p := range r.Pages {
		out = append(out, p.Blocks...)
	}
	return out
}

// Page 是一组连续的块，Heights 与 Blocks 一一对应。
type Page struct {
	Number  int               `json:"number"`
	Blocks  []*document.Block `json:"blocks"`
	Heights []float64         `json:"heights"`
	Height  float64           `json:"height"`
	// Overflow 标记单个块本身就超出容量、独占一页的情况。
	Overflow bool `json:"overflow,omitempty"`
}
