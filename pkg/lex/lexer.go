// Package lex implements the kales lexer: a pull-style tokenizer over a
// character stream that tracks the source position of every token.
package lex

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kales-lang/kales/pkg/diag"
)

const eof rune = -1

// Lexer tokenizes a character stream. It retains the text it has consumed so
// that diagnostics can quote the offending source.
//
// The lexer starts with an EOF current token; the first call to [Lexer.Advance]
// produces the first real token. A lexically fatal input (a number with more
// than one decimal point) makes Advance panic with a *diag.Error of type
// [diag.LexErrorType]; callers that drive the lexer directly should recover it.
type Lexer struct {
	name string
	in   *bufio.Reader
	src  strings.Builder

	cur Token

	// Lookahead character and its position. The lexer is always one
	// character ahead of the token it last produced, like a stream lexer
	// must be to know where a number or identifier ends.
	ch    rune
	chOff int
	chPos diag.Pos

	off int
	pos diag.Pos
}

// New creates a Lexer reading from r. The name is used in diagnostics.
func New(name string, r io.Reader) *Lexer {
	return &Lexer{
		name: name,
		in:   bufio.NewReader(r),
		ch:   ' ',
		pos:  diag.Pos{Line: 1, Col: 0},
	}
}

// NewString creates a Lexer over a source string.
func NewString(name, src string) *Lexer {
	return New(name, strings.NewReader(src))
}

// Name returns the name of the source, as used in diagnostics.
func (lx *Lexer) Name() string { return lx.name }

// Src returns the source text consumed so far.
func (lx *Lexer) Src() string { return lx.src.String() }

// Current returns the most recently produced token without consuming input.
func (lx *Lexer) Current() Token { return lx.cur }

// Advance consumes and returns the next token. At end of input it returns an
// EOF token indefinitely.
func (lx *Lexer) Advance() Token {
	lx.cur = lx.scan()
	return lx.cur
}

// Consume asserts that the current token has the given type, then advances.
// A mismatch is an internal invariant violation and panics.
func (lx *Lexer) Consume(t Type) {
	if lx.cur.Type != t {
		panic(fmt.Sprintf("lex: Consume(%v) called with current token %v", t, lx.cur))
	}
	lx.Advance()
}

// nextChar advances the lookahead character, updating the running position.
// CR and LF each start a new line.
func (lx *Lexer) nextChar() {
	if lx.ch == eof {
		return
	}
	r, size, err := lx.in.ReadRune()
	if err != nil {
		lx.ch = eof
		lx.chOff = lx.off
		lx.chPos = lx.pos
		return
	}
	lx.src.WriteRune(r)
	lx.chOff = lx.off
	lx.off += size
	if r == '\n' || r == '\r' {
		lx.pos.Line++
		lx.pos.Col = 0
	} else {
		lx.pos.Col++
	}
	lx.chPos = lx.pos
	lx.ch = r
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func isAlpha(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}

func isAlnum(r rune) bool {
	return isAlpha(r) || '0' <= r && r <= '9'
}

func isNum(r rune) bool {
	return '0' <= r && r <= '9' || r == '.'
}

func (lx *Lexer) scan() Token {
	for isSpace(lx.ch) {
		lx.nextChar()
	}

	start := lx.chOff
	pos := lx.chPos

	switch {
	case isAlpha(lx.ch):
		var sb strings.Builder
		for isAlnum(lx.ch) {
			sb.WriteRune(lx.ch)
			lx.nextChar()
		}
		word := sb.String()
		tok := Token{Type: Ident, Text: word, Pos: pos,
			Ranging: diag.Ranging{From: start, To: lx.chOff}}
		if kw, ok := keywords[word]; ok {
			tok.Type = kw
			tok.Text = ""
		}
		return tok

	case isNum(lx.ch):
		var sb strings.Builder
		decimals := 0
		for isNum(lx.ch) {
			if lx.ch == '.' {
				decimals++
				if decimals > 1 {
					panic(&diag.Error{
						Type:    diag.LexErrorType,
						Message: "multiple decimal points in number",
						Context: *diag.NewContext(lx.name, lx.Src(),
							diag.Ranging{From: start, To: lx.chOff + 1}),
					})
				}
			}
			sb.WriteRune(lx.ch)
			lx.nextChar()
		}
		// strtod semantics: a lone "." scans as 0.
		val, _ := strconv.ParseFloat(sb.String(), 64)
		return Token{Type: Number, Num: val, Pos: pos,
			Ranging: diag.Ranging{From: start, To: lx.chOff}}

	case lx.ch == '#':
		for lx.ch != '\n' && lx.ch != '\r' && lx.ch != eof {
			lx.nextChar()
		}
		if lx.ch != eof {
			return lx.scan()
		}
		fallthrough

	case lx.ch == eof:
		return Token{Type: EOF, Pos: lx.chPos,
			Ranging: diag.PointRanging(lx.chOff)}

	default:
		ch := lx.ch
		lx.nextChar()
		return Token{Type: Char, Ch: ch, Pos: pos,
			Ranging: diag.Ranging{From: start, To: lx.chOff}}
	}
}
