package lex

import (
	"fmt"
	"strconv"

	"github.com/kales-lang/kales/pkg/diag"
)

// Type enumerates the kinds of tokens.
type Type int

// Token types. Any printable character that does not start a keyword,
// identifier or number is emitted as a Char token carrying its codepoint.
const (
	EOF Type = iota

	Def
	Extern
	If
	Then
	Else
	For
	In
	Binary
	Unary
	Var

	Ident
	Number
	Char
)

// keywords maps identifier lexemes to keyword token types.
var keywords = map[string]Type{
	"def":    Def,
	"extern": Extern,
	"if":     If,
	"then":   Then,
	"else":   Else,
	"for":    For,
	"in":     In,
	"binary": Binary,
	"unary":  Unary,
	"var":    Var,
}

var typeNames = map[Type]string{
	EOF: "EOF", Def: "def", Extern: "extern", If: "if", Then: "then",
	Else: "else", For: "for", In: "in", Binary: "binary", Unary: "unary",
	Var: "var", Ident: "Ident", Number: "Number", Char: "Char",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Token is a lexical token. Text is set for Ident tokens, Num for Number
// tokens and Ch for Char tokens. Every token carries the position and byte
// range of its source text.
type Token struct {
	Type Type
	Text string
	Num  float64
	Ch   rune

	Pos diag.Pos
	diag.Ranging
}

func (t Token) String() string {
	switch t.Type {
	case Ident:
		return fmt.Sprintf("Ident(%q)", t.Text)
	case Number:
		return "Number(" + strconv.FormatFloat(t.Num, 'g', -1, 64) + ")"
	case Char:
		return fmt.Sprintf("Char(%q)", t.Ch)
	default:
		return t.Type.String()
	}
}

// Is reports whether the token is a Char token carrying the given codepoint.
func (t Token) Is(ch rune) bool {
	return t.Type == Char && t.Ch == ch
}
