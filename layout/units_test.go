package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestParseLengthPoints 覆盖常见单位到版面单位（pt）的换算，11in 必须等于页面容量 792。
func TestParseLengthPoints(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"11in", 792},
		{"8.5in", 612},
		{"1in", 72},
		{"72pt", 72},
		{"14px", 14},
		{"16", 16},
		{"25.4mm", 72},
		{"2.54cm", 72},
		{" 20PT ", 20},
	}
	for _, c := range cases {
		l, err := ParseLength(c.in)
		if err != nil {
			t.Fatalf("解析 %q 失败: %v", c.in, err)
		}
		if got := l.Points(); math.Abs(got-c.want) > 1e-3 {
			t.Fatalf("%q 转 pt 期望 %g，实际 %g", c.in, c.want, got)
		}
	}
}

func TestParseLengthRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "-3pt", "in"} {
		if _, err := ParseLength(in); err == nil {
			t.Fatalf("%q 应解析失败", in)
		}
	}
}

func TestLengthString(t *testing.T) {
	l, err := ParseLength("8.5in")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if l.String() != "8.5in" {
		t.Fatalf("String 错误: %s", l.String())
	}
	if got := l.Points() * PtToMm; math.Abs(got-215.9) > 1e-2 {
		t.Fatalf("8.5in 转 mm 期望 215.9，实际 %g", got)
	}
}
