package layout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ByLCY/quire/document"
)

// ErrMeasure 表示测量后端不可用或返回了非法高度，本次分页整体失败。
var ErrMeasure = errors.New("layout: 测量失败")

// placeholder 是空文档补出的段落。所有分页共用同一个块，空文档的多次分页结果逐块一致。
// 块不可变，共享是安全的。
var placeholder = document.NewParagraph("")

// Paginate 逐块测量文档并贪心装页：当前页非空且累计高度加上本块会超出容量时换页。
// 块永不拆分；单块超出容量时独占一页。文档为空时补一个空段落，保证至少一页一块。
// doc 只读，页面与文档共享同一批 *Block。
func Paginate(ctx context.Context, doc *document.Document, opts Options) (*Result, error) {
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: 缺少测量后端 Measurer")
	}
	geo := opts.geometry()
	log := opts.logger()
	capacity := geo.Capacity()

	collector := newPageCollector(capacity)
	for i, b := range docBlocks(doc) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if b == nil {
			return nil, fmt.Errorf("layout: 第 %d 块为空", i)
		}
		h, err := measure(ctx, opts.Measurer, b)
		if err != nil {
			return nil, fmt.Errorf("块 %d（%s）: %w", i, b.ID, err)
		}
		collector.place(b, h)
		if h > capacity {
			log.Debug("Block exceeds page capacity, placed alone",
				zap.Int("block", i), zap.String("id", b.ID), zap.Float64("height", h), zap.Float64("capacity", capacity))
		}
	}

	res := &Result{Pages: collector.pages(), Geometry: geo}
	if len(res.Pages) == 0 {
		res.Pages = []Page{{Number: 1, Blocks: []*document.Block{placeholder}, Heights: []float64{0}}}
		res.Synthesized = true
	}
	for _, p := range res.Pages {
		log.Debug("Page closed", zap.Int("page", p.Number), zap.Int("blocks", len(p.Blocks)), zap.Float64("height", p.Height))
	}
	return res, nil
}

func docBlocks(doc *document.Document) []*document.Block {
	if doc == nil {
		return nil
	}
	return doc.Blocks
}

// measure 调用后端并校验结果：负数或非有限值视同测量失败。
func measure(ctx context.Context, m Measurer, b *document.Block) (float64, error) {
	h, err := m.MeasureHeight(ctx, b.Kind, b.PlainText())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMeasure, err)
	}
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
		return 0, fmt.Errorf("%w: 非法高度 %g", ErrMeasure, h)
	}
	return h, nil
}

// pageCollector 维护当前页与累计高度。
type pageCollector struct {
	capacity float64
	done     []Page
	current  Page
}

func newPageCollector(capacity float64) *pageCollector {
	return &pageCollector{capacity: capacity}
}

// place 放入一个块。当前页为空时无条件接收，这保证了超高块也会被消费、循环必然前进。
func (pc *pageCollector) place(b *document.Block, h float64) {
	if len(pc.current.Blocks) > 0 && pc.current.Height+h > pc.capacity {
		pc.closePage()
	}
	pc.current.Blocks = append(pc.current.Blocks, b)
	pc.current.Heights = append(pc.current.Heights, h)
	pc.current.Height += h
}

func (pc *pageCollector) closePage() {
	if len(pc.current.Blocks) == 0 {
		return
	}
	p := pc.current
	p.Number = len(pc.done) + 1
	p.Overflow = len(p.Blocks) == 1 && p.Height > pc.capacity
	pc.done = append(pc.done, p)
	pc.current = Page{}
}

func (pc *pageCollector) pages() []Page {
	pc.closePage()
	return pc.done
}
