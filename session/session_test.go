package session

import (
	"errors"
	"testing"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/measure"
	"github.com/ByLCY/quire/schedule"
)

func newTestSession(t *testing.T, ticker schedule.Ticker) *Session {
	t.Helper()
	s := New(schedule.Options{
		Layout: layout.Options{Measurer: &measure.Table{
			ByKind:  map[document.Kind]float64{document.KindHeadingOne: 300},
			Default: 100,
		}},
		Ticker: ticker,
	})
	t.Cleanup(s.Close)
	return s
}

// TestNewSessionPaginatesEmptyDocument 验证会话以单个空段落开始并立即得到一页。
func TestNewSessionPaginatesEmptyDocument(t *testing.T) {
	s := newTestSession(t, schedule.Immediate{})
	res := s.Pages()
	if res == nil || len(res.Pages) != 1 || len(res.Pages[0].Blocks) != 1 {
		t.Fatalf("初始结果应为一页一块: %+v", res)
	}
	if res.Pages[0].Blocks[0] != s.Document().Blocks[0] {
		t.Fatalf("页面应引用文档中的同一块")
	}
}

func TestEditsRepaginate(t *testing.T) {
	s := newTestSession(t, schedule.Immediate{})
	if err := s.InsertText(document.Point{}, "Title"); err != nil {
		t.Fatalf("插入文本失败: %v", err)
	}
	sel := document.Caret(document.Point{Block: 0, Offset: 2})
	if err := s.ToggleBlock(sel, document.KindHeadingOne); err != nil {
		t.Fatalf("切换块类型失败: %v", err)
	}
	if !s.IsBlockActive(sel, document.KindHeadingOne) {
		t.Fatalf("一级标题应处于激活状态")
	}
	for i := 1; i <= 6; i++ {
		if err := s.InsertBlock(i, document.NewParagraph("body")); err != nil {
			t.Fatalf("插入块失败: %v", err)
		}
	}
	// 300 + 4×100 = 700，第 5 个段落放不下
	res := s.Pages()
	if len(res.Pages) != 2 || len(res.Pages[0].Blocks) != 5 || len(res.Pages[1].Blocks) != 2 {
		t.Fatalf("分页结果错误: %d 页", len(res.Pages))
	}
	if got := res.Pages[0].Blocks[0].PlainText(); got != "Title" {
		t.Fatalf("首块文本错误: %q", got)
	}

	word := document.Span(document.Point{Block: 0, Offset: 0}, document.Point{Block: 0, Offset: 5})
	if err := s.ToggleFormat(word, document.FormatBold); err != nil {
		t.Fatalf("切换格式失败: %v", err)
	}
	if !s.IsFormatActive(word, document.FormatBold) {
		t.Fatalf("粗体应处于激活状态")
	}
}

// TestInvalidEditDoesNotSchedule 验证失败的编辑不改动文档也不触发分页。
func TestInvalidEditDoesNotSchedule(t *testing.T) {
	ticker := &schedule.Manual{}
	s := newTestSession(t, ticker)
	ticker.Drain()
	before := s.Document()

	err := s.InsertText(document.Point{Block: 5}, "x")
	if !errors.Is(err, document.ErrInvalidSelection) {
		t.Fatalf("应返回 ErrInvalidSelection: %v", err)
	}
	if s.Document() != before || ticker.Len() != 0 {
		t.Fatalf("失败的编辑不应生效")
	}
	if s.IsFormatActive(document.Caret(document.Point{Block: 9}), document.FormatBold) {
		t.Fatalf("无效选区应视为未激活")
	}
}

func TestReplaceCoalescesUntilTick(t *testing.T) {
	ticker := &schedule.Manual{}
	s := newTestSession(t, ticker)
	s.Replace(document.FromBlocks(document.NewParagraph("a")))
	s.Replace(nil)
	if ticker.Len() != 1 {
		t.Fatalf("多次替换应只安排一次分页: %d", ticker.Len())
	}
	ticker.Drain()
	res := s.Pages()
	if res == nil || !res.Synthesized {
		t.Fatalf("空文档应得到补出的空段落: %+v", res)
	}
	if st := s.Stats(); st.Passes != 1 || st.Coalesced != 2 {
		t.Fatalf("统计错误: %+v", st)
	}
}
