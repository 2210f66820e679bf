package lex

import (
	"strconv"
	"strings"
	"testing"

	"github.com/kales-lang/kales/pkg/diag"
	"github.com/kales-lang/kales/pkg/tt"
)

// tokens lexes src to exhaustion and renders each token, including the
// trailing EOF.
func tokens(src string) string {
	lx := NewString("test", src)
	var parts []string
	for {
		tok := lx.Advance()
		parts = append(parts, tok.String())
		if tok.Type == EOF {
			return strings.Join(parts, " ")
		}
	}
}

func TestLexer(t *testing.T) {
	tt.Test(t, "tokens", tokens, tt.Table{
		// Empty and whitespace-only input.
		tt.Args("").Rets("EOF"),
		tt.Args(" \t\r\n ").Rets("EOF"),

		// Keywords and identifiers.
		tt.Args("def extern if then else for in binary unary var").
			Rets("def extern if then else for in binary unary var EOF"),
		tt.Args("deff xdef form x1").
			Rets(`Ident("deff") Ident("xdef") Ident("form") Ident("x1") EOF`),

		// Numbers, including leading zeros and a leading dot.
		tt.Args("1 2.5 0123 .5").
			Rets("Number(1) Number(2.5) Number(123) Number(0.5) EOF"),

		// Char tokens for everything else.
		tt.Args("(),;+-*<!|&:=").
			Rets(`Char('(') Char(')') Char(',') Char(';') Char('+') ` +
				`Char('-') Char('*') Char('<') Char('!') Char('|') ` +
				`Char('&') Char(':') Char('=') EOF`),

		// Comments run to end of line.
		tt.Args("x # comment\ny").Rets(`Ident("x") Ident("y") EOF`),
		tt.Args("# only a comment").Rets("EOF"),
		tt.Args("# comment at eof\n").Rets("EOF"),

		// No token contains whitespace; adjacency splits correctly.
		tt.Args("x+1").Rets(`Ident("x") Char('+') Number(1) EOF`),
	})
}

func TestLexer_EOFIsSticky(t *testing.T) {
	lx := NewString("test", "")
	if lx.Current().Type != EOF {
		t.Errorf("initial Current() = %v, want EOF", lx.Current())
	}
	for i := 0; i < 3; i++ {
		if tok := lx.Advance(); tok.Type != EOF {
			t.Errorf("Advance() #%d = %v, want EOF", i, tok)
		}
	}
}

func TestLexer_Positions(t *testing.T) {
	lx := NewString("test", "def foo\n  bar")
	wants := []struct {
		str string
		pos diag.Pos
		r   diag.Ranging
	}{
		{"def", diag.Pos{Line: 1, Col: 1}, diag.Ranging{From: 0, To: 3}},
		{`Ident("foo")`, diag.Pos{Line: 1, Col: 5}, diag.Ranging{From: 4, To: 7}},
		{`Ident("bar")`, diag.Pos{Line: 2, Col: 3}, diag.Ranging{From: 10, To: 13}},
	}
	for _, want := range wants {
		tok := lx.Advance()
		if tok.String() != want.str {
			t.Errorf("token = %v, want %v", tok, want.str)
		}
		if tok.Pos != want.pos {
			t.Errorf("%v: pos = %v, want %v", tok, tok.Pos, want.pos)
		}
		if tok.Ranging != want.r {
			t.Errorf("%v: range = %v, want %v", tok, tok.Ranging, want.r)
		}
	}
}

func TestLexer_MultipleDecimalsIsFatal(t *testing.T) {
	lx := NewString("test", "0.123.456")
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("lexing 0.123.456 did not panic")
		}
		e, ok := r.(*diag.Error)
		if !ok {
			t.Fatalf("panicked with %T, want *diag.Error", r)
		}
		if e.Type != diag.LexErrorType {
			t.Errorf("error type = %q, want %q", e.Type, diag.LexErrorType)
		}
	}()
	lx.Advance()
}

func TestLexer_Consume(t *testing.T) {
	lx := NewString("test", "def x")
	lx.Advance()
	lx.Consume(Def)
	if tok := lx.Current(); tok.Type != Ident || tok.Text != "x" {
		t.Errorf("after Consume(Def), current = %v, want Ident(\"x\")", tok)
	}
}

func TestLexer_ConsumeWrongTokenPanics(t *testing.T) {
	lx := NewString("test", "def")
	lx.Advance()
	defer func() {
		if recover() == nil {
			t.Error("Consume with wrong token did not panic")
		}
	}()
	lx.Consume(Extern)
}

// emit renders a token stream back to canonical source text.
func emit(toks []Token) string {
	parts := make([]string, len(toks))
	for i, tok := range toks {
		switch tok.Type {
		case Ident:
			parts[i] = tok.Text
		case Number:
			parts[i] = strconv.FormatFloat(tok.Num, 'g', -1, 64)
		case Char:
			parts[i] = string(tok.Ch)
		default:
			parts[i] = tok.Type.String()
		}
	}
	return strings.Join(parts, " ")
}

func lexAll(src string) []Token {
	lx := NewString("test", src)
	var toks []Token
	for {
		tok := lx.Advance()
		if tok.Type == EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexer_ReEmitRoundTrip(t *testing.T) {
	srcs := []string{
		"def foo(x y) x + y",
		"extern sin(x)",
		"if x < 10 then x else 10",
		"for i = 1, i < 10, 2 in i",
		"var a = 1, b in a + b # comment",
		"0123 + .5 * 2.5",
	}
	for _, src := range srcs {
		first := lexAll(src)
		second := lexAll(emit(first))
		if len(first) != len(second) {
			t.Errorf("%q: re-lex yields %d tokens, want %d", src, len(second), len(first))
			continue
		}
		for i := range first {
			if first[i].String() != second[i].String() {
				t.Errorf("%q: token %d = %v after round trip, want %v",
					src, i, second[i], first[i])
			}
		}
	}
}
