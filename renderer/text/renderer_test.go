package textrenderer

import (
	"context"
	"testing"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/measure"
)

func TestRenderPreview(t *testing.T) {
	doc := document.FromBlocks(
		document.NewBlock(document.KindHeadingOne, document.Run{Text: "Title"}),
		document.NewParagraph("body"),
		document.NewBlock(document.KindQuote, document.Run{Text: "cited"}),
		document.NewBlock(document.KindHeadingTwo, document.Run{Text: "Next"}),
	)
	m := &measure.Table{ByText: map[string]float64{"cited": 500}, Default: 200}
	res, err := layout.Paginate(context.Background(), doc, layout.Options{Measurer: m})
	if err != nil {
		t.Fatalf("paginate error: %v", err)
	}
	out, err := (&Renderer{}).Render(res)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	want := "Preview (2 pages)\n" +
		"\nPage 1\n# Title\nbody\n" +
		"\nPage 2\n> cited\n## Next\n"
	if string(out) != want {
		t.Fatalf("unexpected preview:\n%s\nwant:\n%s", out, want)
	}
}

func TestRenderHeightsAndOverflow(t *testing.T) {
	doc := document.FromBlocks(document.NewParagraph("huge\ntext"))
	res, err := layout.Paginate(context.Background(), doc, layout.Options{Measurer: &measure.Table{Default: 1000}})
	if err != nil {
		t.Fatalf("paginate error: %v", err)
	}
	out, err := (&Renderer{ShowHeights: true}).Render(res)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	want := "Preview (1 page)\n\nPage 1 (overflow)\nhuge text  [1000.0]\n"
	if string(out) != want {
		t.Fatalf("unexpected preview:\n%q\nwant:\n%q", out, want)
	}
}

func TestRenderNil(t *testing.T) {
	if _, err := (&Renderer{}).Render(nil); err == nil {
		t.Fatalf("nil result should fail")
	}
}
