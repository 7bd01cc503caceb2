package layout

import (
	"context"

	"go.uber.org/zap"

	"github.com/ByLCY/quire/document"
)

// Options 配置分页阶段所需的依赖，例如测量后端。
type Options struct {
	Measurer Measurer
	Geometry Geometry    // 零值时使用 DefaultGeometry
	Logger   *zap.Logger // 为空时不输出日志
}

// Measurer 给出某类块在固定排版宽度与样式表下渲染后的高度（pt）。
// 对同一样式表与宽度，结果必须是确定的。
type Measurer interface {
	MeasureHeight(ctx context.Context, kind document.Kind, text string) (float64, error)
}

// MeasureFunc 让普通函数实现 Measurer。
type MeasureFunc func(ctx context.Context, kind document.Kind, text string) (float64, error)

func (f MeasureFunc) MeasureHeight(ctx context.Context, kind document.Kind, text string) (float64, error) {
	return f(ctx, kind, text)
}

func (o Options) geometry() Geometry {
	if o.Geometry.PageHeight <= 0 || o.Geometry.PageWidth <= 0 {
		return DefaultGeometry()
	}
	return o.Geometry
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
