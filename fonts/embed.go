package fonts

import (
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Family 是内置字体族名称。
const Family = "Go"

// Style 是内置字体的字重/字形组合。
type Style int

const (
	Regular Style = iota
	Bold
	Italic
	BoldItalic
)

// Styles 列出全部内置样式，加载字体族时按此顺序遍历。
var Styles = []Style{Regular, Bold, Italic, BoldItalic}

// StyleOf 由粗体/斜体标记得到样式。
func StyleOf(bold, italic bool) Style {
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	}
	return Regular
}

func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold-italic"
	}
	return "regular"
}

// Load 返回内置 TTF 字节。
func Load(s Style) []byte {
	switch s {
	case Bold:
		return gobold.TTF
	case Italic:
		return goitalic.TTF
	case BoldItalic:
		return gobolditalic.TTF
	}
	return goregular.TTF
}
