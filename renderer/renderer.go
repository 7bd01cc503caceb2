package renderer

import "github.com/ByLCY/quire/layout"

// Renderer 将分页结果输出为最终文件，例如 PDF 或文本预览。
// Render 返回生成的字节数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}
