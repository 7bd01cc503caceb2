package canvasrenderer

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"strconv"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
)

const creator = "quire"

var (
	textColor  = canvas.Hex("#1e1e1e")
	ruleColor  = canvas.Hex("#d0d0d0")
	labelColor = canvas.Hex("#808080")
)

// Renderer 使用真实字体度量测量块高度，并通过 tdewolff/canvas 将分页结果绘制为 PDF。
// 测量与绘制共用字体面和换行逻辑，块在页面上占用的高度与分页时一致。
type Renderer struct {
	opts Options

	// canvas 字体面不支持并发排版
	mu sync.Mutex

	fontMu sync.Mutex
	family *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Measurer   = (*Renderer)(nil)
)

// Options 配置 canvas 渲染器。
type Options struct {
	Styles   layout.StyleSheet // 为空时使用 layout.DefaultStyleSheet
	Geometry layout.Geometry   // 零值时使用 layout.DefaultGeometry
	Title    string
	Author   string
	// PageNumbers 在底部页边距绘制 "n / total"。
	PageNumbers bool
}

// NewRenderer 创建使用内置字体的渲染器。
func NewRenderer(opts Options) *Renderer {
	if opts.Styles == nil {
		opts.Styles = layout.DefaultStyleSheet()
	}
	if opts.Geometry.PageWidth <= 0 || opts.Geometry.PageHeight <= 0 {
		opts.Geometry = layout.DefaultGeometry()
	}
	return &Renderer{opts: opts}
}

// SetTitle 设置之后渲染时写入 PDF 元数据的标题。
func (r *Renderer) SetTitle(title string) {
	r.mu.Lock()
	r.opts.Title = title
	r.mu.Unlock()
}

// Geometry 返回测量高度所依据的页面几何。
func (r *Renderer) Geometry() layout.Geometry { return r.opts.Geometry }

// MeasureHeight 实现 layout.Measurer：按块样式换行后返回上下外边距与各行高度之和（pt）。
func (r *Renderer) MeasureHeight(ctx context.Context, kind document.Kind, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	st := r.opts.Styles.Resolve(kind)
	face, err := r.fontFace(st.FontSize, st.Bold, st.Italic, textColor)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	lines := wrapLines(text, toMm(st.TextWidth(r.opts.Geometry.ContentWidth())), face)
	r.mu.Unlock()
	return st.HeightFor(len(lines)), nil
}

// Render 将分页结果渲染为 PDF 字节。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	geo := result.Geometry
	if geo.PageWidth <= 0 || geo.PageHeight <= 0 {
		geo = r.opts.Geometry
	}
	width, height := toMm(geo.PageWidth), toMm(geo.PageHeight)

	r.mu.Lock()
	defer r.mu.Unlock()

	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	writer.SetInfo(r.opts.Title, "", "", r.opts.Author, creator)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(width, height)
		}
		c := canvas.New(width, height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 左上角为原点，y 向下

		if err := r.drawPage(ctx, page, geo, len(result.Pages)); err != nil {
			return nil, err
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, geo layout.Geometry, total int) error {
	top := 0.0
	for i, b := range page.Blocks {
		drawn, err := r.drawBlock(ctx, b, geo, top)
		if err != nil {
			return err
		}
		// 以分页时的测量高度推进，保证与分页结果一致
		if i < len(page.Heights) {
			top += page.Heights[i]
		} else {
			top += drawn
		}
	}
	if r.opts.PageNumbers {
		return r.drawPageNumber(ctx, page.Number, total, geo)
	}
	return nil
}

// drawBlock 绘制一个块，top 单位 pt，返回实际绘制高度（pt）。
func (r *Renderer) drawBlock(ctx *canvas.Context, b *document.Block, geo layout.Geometry, top float64) (float64, error) {
	st := r.opts.Styles.Resolve(b.Kind)
	base, err := r.fontFace(st.FontSize, st.Bold, st.Italic, textColor)
	if err != nil {
		return 0, err
	}
	text := b.PlainText()
	lines := wrapLines(text, toMm(st.TextWidth(geo.ContentWidth())), base)
	leading := st.Leading()
	textTop := top + st.MarginTop

	if st.RuleWidth > 0 {
		ctx.SetFillColor(ruleColor)
		ctx.SetStrokeColor(canvas.Transparent)
		ctx.DrawPath(toMm(geo.Margin), toMm(textTop), canvas.Rectangle(toMm(st.RuleWidth), toMm(float64(len(lines))*leading)))
	}

	x0 := toMm(geo.Margin + st.Indent)
	m := base.Metrics()
	halfLeading := (toMm(leading) - (m.Ascent + m.Descent)) / 2
	for i, ln := range lines {
		baseline := toMm(textTop+float64(i)*leading) + halfLeading + m.Ascent
		if err := r.drawLine(ctx, b.Runs, st, ln, x0, baseline); err != nil {
			return 0, err
		}
	}
	return st.HeightFor(len(lines)), nil
}

// drawLine 按 Run 切分一行，每段用自身样式的字体绘制。
func (r *Renderer) drawLine(ctx *canvas.Context, runs []document.Run, st layout.BlockStyle, ln textLine, x, baseline float64) error {
	off := 0
	for _, run := range runs {
		start, end := off, off+len(run.Text)
		off = end
		if end <= ln.Start || start >= ln.End {
			continue
		}
		s, e := max(start, ln.Start), min(end, ln.End)
		seg := run.Text[s-start : e-start]
		if seg == "" {
			continue
		}
		face, err := r.fontFace(st.FontSize, st.Bold || run.Bold, st.Italic || run.Italic, textColor)
		if err != nil {
			return err
		}
		ctx.DrawText(x, baseline, canvas.NewTextLine(face, seg, canvas.Left))
		w := face.TextWidth(seg)
		if run.Underline {
			drawUnderline(ctx, x, baseline+toMm(st.FontSize*0.12), w, toMm(st.FontSize/16))
		}
		x += w
	}
	return nil
}

func drawUnderline(ctx *canvas.Context, x, y, width, thickness float64) {
	ctx.SetStrokeColor(textColor)
	ctx.SetStrokeWidth(thickness)
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(width, 0)
	ctx.DrawPath(x, y, p)
}

func (r *Renderer) drawPageNumber(ctx *canvas.Context, number, total int, geo layout.Geometry) error {
	face, err := r.fontFace(9, false, false, labelColor)
	if err != nil {
		return err
	}
	label := strconv.Itoa(number) + " / " + strconv.Itoa(total)
	baseline := toMm(geo.PageHeight - geo.Margin/2)
	ctx.DrawText(toMm(geo.PageWidth/2), baseline, canvas.NewTextLine(face, label, canvas.Center))
	return nil
}

// fontFace 返回内置字体族中对应样式的字体面，size 单位 pt。
func (r *Renderer) fontFace(size float64, bold, italic bool, col color.Color) (*canvas.FontFace, error) {
	family, err := r.ensureFontFamily()
	if err != nil {
		return nil, err
	}
	return family.Face(size, col, canvasStyle(fonts.StyleOf(bold, italic)), canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily() (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if r.family != nil {
		return r.family, nil
	}
	family := canvas.NewFontFamily(fonts.Family)
	for _, s := range fonts.Styles {
		if err := family.LoadFont(fonts.Load(s), 0, canvasStyle(s)); err != nil {
			return nil, fmt.Errorf("加载内置字体 %s 失败: %w", s, err)
		}
	}
	r.family = family
	return family, nil
}

func canvasStyle(s fonts.Style) canvas.FontStyle {
	switch s {
	case fonts.Bold:
		return canvas.FontBold
	case fonts.Italic:
		return canvas.FontRegular | canvas.FontItalic
	case fonts.BoldItalic:
		return canvas.FontBold | canvas.FontItalic
	}
	return canvas.FontRegular
}

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
