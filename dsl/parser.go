package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "Newline", "LineComment", "BlockComment"),
	)
)

// File is the root AST node of a document source.
type File struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Title  StringLiteral  `parser:"'doc' @String?"`
	Blocks []*Block       `parser:"'{' @@* '}'"`
}

// Block is one top-level block: a kind keyword followed by its runs.
type Block struct {
	Pos  lexer.Position `parser:"" json:"-"`
	Kind string         `parser:"@Ident"`
	Runs []*Run         `parser:"'{' @@* '}'"`
}

// Run is a string literal preceded by zero or more style flags.
type Run struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Flags []string       `parser:"@Ident*"`
	Text  StringLiteral  `parser:"@String"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses document source from an io.Reader. name is used in error
// positions and may be empty.
func Parse(name string, r io.Reader) (*File, error) {
	return fileParser.Parse(name, r)
}

// ParseString parses document source from a string.
func ParseString(input string) (*File, error) {
	return fileParser.ParseString("", input)
}
