package dsl

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/quire/document"
)

// blockAliases maps source keywords to block kinds; other identifiers become
// kinds verbatim.
var blockAliases = map[string]document.Kind{
	"p":           document.KindParagraph,
	"paragraph":   document.KindParagraph,
	"h1":          document.KindHeadingOne,
	"heading-one": document.KindHeadingOne,
	"h2":          document.KindHeadingTwo,
	"heading-two": document.KindHeadingTwo,
	"quote":       document.KindQuote,
	"block-quote": document.KindQuote,
}

// Build converts a parsed file into a document and returns it with the title.
// Strings are NFC-normalised; adjacent runs with identical flags are kept as
// written.
func Build(f *File) (*document.Document, string, error) {
	if f == nil {
		return nil, "", fmt.Errorf("empty document")
	}
	title := norm.NFC.String(string(f.Title))
	blocks := make([]*document.Block, 0, len(f.Blocks))
	for _, b := range f.Blocks {
		kind, ok := blockAliases[b.Kind]
		if !ok {
			kind = document.Kind(b.Kind)
		}
		runs := make([]document.Run, 0, len(b.Runs))
		for _, r := range b.Runs {
			run := document.Run{Text: norm.NFC.String(string(r.Text))}
			for _, flag := range r.Flags {
				switch flag {
				case "bold", "b":
					run.Bold = true
				case "italic", "i":
					run.Italic = true
				case "underline", "u":
					run.Underline = true
				default:
					return nil, "", fmt.Errorf("%s: unknown style flag %q", r.Pos, flag)
				}
			}
			runs = append(runs, run)
		}
		blocks = append(blocks, document.NewBlock(kind, runs...))
	}
	return document.FromBlocks(blocks...), title, nil
}

// Decode parses and builds in one step.
func Decode(name string, r io.Reader) (*document.Document, string, error) {
	f, err := Parse(name, r)
	if err != nil {
		return nil, "", fmt.Errorf("unable to parse document: %w", err)
	}
	return Build(f)
}

// LoadFile reads, parses and builds the document at path.
func LoadFile(path string) (*document.Document, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("unable to read document %s: %w", path, err)
	}
	defer file.Close()
	return Decode(path, file)
}
