package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// 该文件定义带单位的长度。版面单位为点（pt）：每英寸 72 点，按 72dpi 时一个 CSS 像素也等于 1pt。

// Unit 记录长度在配置中书写时的原始单位。
type Unit int

const (
	UnitNone Unit = iota // 无单位数字，按 pt 处理
	UnitPT               // points
	UnitPX               // pixels at 72dpi
	UnitIN               // inches
	UnitMM               // millimeters
	UnitCM               // centimeters
)

// pt 与 mm 之间的换算常量。
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm

	PointsPerInch = 72.0
)

// String 返回单位的简写后缀。
func (u Unit) String() string {
	switch u {
	case UnitPT:
		return "pt"
	case UnitPX:
		return "px"
	case UnitIN:
		return "in"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	default:
		return ""
	}
}

// Length 保留数值及其单位。
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// Points 将长度换算为版面单位（pt）。
func (l Length) Points() float64 {
	switch l.Unit {
	case UnitIN:
		return l.Value * PointsPerInch
	case UnitMM:
		return l.Value * MmToPt
	case UnitCM:
		return l.Value * 10 * MmToPt
	default:
		// pt、px 与无单位数字已是版面单位
		return l.Value
	}
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit.String()
}

var unitSuffixes = []struct {
	s string
	u Unit
}{{"pt", UnitPT}, {"px", UnitPX}, {"in", UnitIN}, {"mm", UnitMM}, {"cm", UnitCM}}

// ParseLength 解析 "11in"、"72pt"、"25.4mm" 或 "12" 这类字符串。
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	num := v
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("非法长度 %q: %w", value, err)
	}
	if f < 0 {
		return Length{}, fmt.Errorf("长度不能为负 %q", value)
	}
	return Length{Value: f, Unit: unit}, nil
}
