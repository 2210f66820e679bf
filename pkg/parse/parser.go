package parse

import (
	"fmt"

	"github.com/kales-lang/kales/pkg/diag"
	"github.com/kales-lang/kales/pkg/lex"
)

// PrecTable provides binary-operator precedence lookup. It is the mutable
// part of the grammar: user-defined operator definitions insert entries, and
// the parser consults it on every operator it encounters.
type PrecTable interface {
	// Prec returns the precedence of ch as a binary operator, or -1 if ch
	// is not a binary operator.
	Prec(ch rune) int
}

// Parser builds an AST from the token stream of a lexer. It keeps no state
// beyond the lexer's current token; there is no rollback.
//
// On a parse error the entry points return a nil node and a *diag.Error of
// type [diag.ParseErrorType] (or [diag.LexErrorType] if the lexer hit a
// fatal input). The caller is responsible for advancing the lexer to
// recover.
type Parser struct {
	lx  *lex.Lexer
	ops PrecTable
}

// NewParser creates a Parser reading from lx and resolving operator
// precedence against ops.
func NewParser(lx *lex.Lexer, ops PrecTable) *Parser {
	return &Parser{lx, ops}
}

// ParseDefinition parses a function definition:
//
//	definition := "def" prototype expression
func (p *Parser) ParseDefinition() (fn *Func, err error) {
	defer p.recoverError(&err)
	start := p.expect(lex.Def, "expected 'def' keyword for function definition")
	p.lx.Consume(lex.Def)
	proto := p.parsePrototype()
	body := p.parseExpression()
	return p.newFunc(start, proto, body), nil
}

// ParseExtern parses an extern declaration:
//
//	extern := "extern" prototype
func (p *Parser) ParseExtern() (proto *Prototype, err error) {
	defer p.recoverError(&err)
	p.expect(lex.Extern, "expected 'extern' keyword for function prototype")
	p.lx.Consume(lex.Extern)
	return p.parsePrototype(), nil
}

// ParseTopLevelExpr parses a bare expression and wraps it in a
// zero-parameter function named [AnonFuncName], so that the driver can hand
// it to the execution engine and call it by name.
func (p *Parser) ParseTopLevelExpr() (fn *Func, err error) {
	defer p.recoverError(&err)
	start := p.lx.Current()
	body := p.parseExpression()
	proto := &Prototype{
		node: p.span(start, start.To),
		Name: AnonFuncName,
	}
	return p.newFunc(start, proto, body), nil
}

func (p *Parser) recoverError(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*diag.Error); ok {
		*errp = e
		return
	}
	panic(r)
}

// errorf aborts the current parse by panicking with a *diag.Error; the
// panic is recovered at the entry points.
func (p *Parser) errorf(r diag.Ranger, format string, args ...any) {
	panic(&diag.Error{
		Type:    diag.ParseErrorType,
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext(p.lx.Name(), p.lx.Src(), r),
	})
}

// expect asserts the type of the current token and returns it.
func (p *Parser) expect(t lex.Type, msg string) lex.Token {
	tok := p.lx.Current()
	if tok.Type != t {
		p.errorf(tok, "%s", msg)
	}
	return tok
}

// expectChar asserts that the current token is the given character.
func (p *Parser) expectChar(ch rune, msg string) lex.Token {
	tok := p.lx.Current()
	if !tok.Is(ch) {
		p.errorf(tok, "%s", msg)
	}
	return tok
}

// span builds the node base for a construct that started at the given token
// and ends at byte offset to.
func (p *Parser) span(start lex.Token, to int) node {
	return node{diag.Ranging{From: start.From, To: to}, start.Pos}
}

func (p *Parser) newFunc(start lex.Token, proto *Prototype, body Expr) *Func {
	f := NewFunc(proto, body)
	f.node = p.span(start, body.Range().To)
	return f
}

// parseExpression parses a full expression:
//
//	expression := unary (binop unary)*
//
// with binary operators resolved by precedence.
func (p *Parser) parseExpression() Expr {
	lhs := p.parseUnary()
	return p.parseBinOpRHS(0, lhs)
}

// curPrec returns the binary precedence of the current token, or -1 if it is
// not a binary operator. Only 7-bit ASCII character tokens present in the
// precedence table qualify.
func (p *Parser) curPrec() int {
	tok := p.lx.Current()
	if tok.Type != lex.Char || tok.Ch > 127 {
		return -1
	}
	return p.ops.Prec(tok.Ch)
}

// parseBinOpRHS parses the operator/operand sequence following lhs,
// consuming operators whose precedence is at least minPrec. Equal
// precedence closes the current operator first, making operators
// left-associative; a higher-precedence right operand recurses with the
// current operator's precedence plus one as its minimum.
func (p *Parser) parseBinOpRHS(minPrec int, lhs Expr) Expr {
	for {
		prec := p.curPrec()
		if prec < minPrec {
			return lhs
		}

		op := p.lx.Current().Ch
		p.lx.Advance()

		rhs := p.parseUnary()
		if prec < p.curPrec() {
			rhs = p.parseBinOpRHS(prec+1, rhs)
		}

		lhs = &BinaryExpr{
			node: node{diag.MixedRanging(lhs, rhs), lhs.Pos()},
			Op:   op, LHS: lhs, RHS: rhs,
		}
	}
}

// parseUnary parses a unary expression:
//
//	unary := primary | OP unary
//
// Any 7-bit ASCII character token other than '(' and ',' is treated as a
// prefix operator; prefixes nest by recursion, so !!x parses.
func (p *Parser) parseUnary() Expr {
	tok := p.lx.Current()
	if tok.Type != lex.Char || tok.Ch > 127 || tok.Ch == '(' || tok.Ch == ',' {
		return p.parsePrimary()
	}

	p.lx.Advance()
	operand := p.parseUnary()
	return &UnaryExpr{
		node: p.span(tok, operand.Range().To),
		Op:   tok.Ch, Operand: operand,
	}
}

// parsePrimary parses a primary expression:
//
//	primary := NUMBER | identifierExpr | parenExpr | ifExpr | forExpr | varExpr
func (p *Parser) parsePrimary() Expr {
	tok := p.lx.Current()
	switch tok.Type {
	case lex.Ident:
		return p.parseIdentifierExpr()
	case lex.Number:
		p.lx.Consume(lex.Number)
		return &NumberExpr{p.span(tok, tok.To), tok.Num}
	case lex.Char:
		if tok.Ch == '(' {
			return p.parseParenExpr()
		}
	case lex.If:
		return p.parseIfExpr()
	case lex.For:
		return p.parseForExpr()
	case lex.Var:
		return p.parseVarExpr()
	}
	p.errorf(tok, "unknown token %v when expecting an expression", tok)
	panic("unreachable")
}

// parseParenExpr parses a parenthesized expression. The parentheses leave no
// node of their own.
func (p *Parser) parseParenExpr() Expr {
	p.lx.Advance() // eat '('
	expr := p.parseExpression()
	p.expectChar(')', "expected ')'")
	p.lx.Advance()
	return expr
}

// parseIdentifierExpr parses a variable reference or a call:
//
//	identifierExpr := identifier | identifier '(' (expression (',' expression)*)? ')'
func (p *Parser) parseIdentifierExpr() Expr {
	tok := p.expect(lex.Ident, "expected identifier")
	name := tok.Text
	if !p.lx.Advance().Is('(') {
		return &VariableExpr{p.span(tok, tok.To), name}
	}

	var args []Expr
	if !p.lx.Advance().Is(')') {
		for {
			args = append(args, p.parseExpression())
			if p.lx.Current().Is(')') {
				break
			}
			p.expectChar(',', "expected ')' or ',' in argument list")
			p.lx.Advance()
		}
	}

	end := p.lx.Current().To
	p.lx.Advance() // eat ')'
	return &CallExpr{p.span(tok, end), name, args}
}

// parseIfExpr parses:
//
//	ifExpr := "if" expression "then" expression "else" expression
func (p *Parser) parseIfExpr() Expr {
	start := p.lx.Current()
	p.lx.Consume(lex.If)

	cond := p.parseExpression()
	p.expect(lex.Then, "expected 'then'")
	p.lx.Advance()

	then := p.parseExpression()
	p.expect(lex.Else, "expected 'else'")
	p.lx.Advance()

	els := p.parseExpression()
	return &IfExpr{p.span(start, els.Range().To), cond, then, els}
}

// parseForExpr parses:
//
//	forExpr := "for" identifier "=" primary "," expression ("," expression)? "in" expression
//
// The start value is parsed as a primary, not a full expression, so that the
// comma after it is never swallowed as part of a binary chain.
func (p *Parser) parseForExpr() Expr {
	start := p.lx.Current()
	p.lx.Consume(lex.For)

	id := p.expect(lex.Ident, "expected identifier after 'for'")
	p.lx.Advance()

	p.expectChar('=', "expected '=' after for loop variable")
	p.lx.Advance()

	startVal := p.parsePrimary()
	p.expectChar(',', "expected ',' after for start value")
	p.lx.Advance()

	end := p.parseExpression()

	var step Expr
	if p.lx.Current().Is(',') {
		p.lx.Advance()
		step = p.parseExpression()
	}

	p.expect(lex.In, "expected 'in' after for")
	p.lx.Advance()

	body := p.parseExpression()
	return &ForExpr{
		node:    p.span(start, body.Range().To),
		VarName: id.Text,
		Start:   startVal, End: end, Step: step, Body: body,
	}
}

// parseVarExpr parses:
//
//	varExpr := "var" identifier ("=" expression)?
//	           ("," identifier ("=" expression)?)* "in" expression
func (p *Parser) parseVarExpr() Expr {
	start := p.lx.Current()
	p.lx.Consume(lex.Var)

	p.expect(lex.Ident, "expected identifier after 'var'")

	var bindings []VarBinding
	for {
		name := p.lx.Current().Text
		p.lx.Consume(lex.Ident)

		var init Expr
		if p.lx.Current().Is('=') {
			p.lx.Advance()
			init = p.parseExpression()
		}
		bindings = append(bindings, VarBinding{name, init})

		if !p.lx.Current().Is(',') {
			break
		}
		p.lx.Advance()
		p.expect(lex.Ident, "expected identifier list after 'var'")
	}

	p.expect(lex.In, "expected 'in' keyword after 'var'")
	p.lx.Consume(lex.In)

	body := p.parseExpression()
	return &VarExpr{p.span(start, body.Range().To), bindings, body}
}

// parsePrototype parses:
//
//	prototype := identifier '(' identifier* ')'
//	           | "unary" OP '(' identifier ')'
//	           | "binary" OP NUMBER? '(' identifier identifier ')'
//
// Operator prototypes name themselves "unary"+OP or "binary"+OP, so the
// glyph is always the last byte of the name.
func (p *Parser) parsePrototype() *Prototype {
	start := p.lx.Current()

	var name string
	kind := OpNone
	prec := 0

	switch start.Type {
	case lex.Ident:
		name = start.Text
		p.lx.Consume(lex.Ident)

	case lex.Unary:
		p.lx.Consume(lex.Unary)
		name = "unary" + string(p.operatorGlyph("unary"))
		kind = OpUnary
		p.lx.Advance()
		if p.lx.Current().Type == lex.Number {
			p.errorf(p.lx.Current(), "unary operator cannot declare a precedence")
		}

	case lex.Binary:
		p.lx.Consume(lex.Binary)
		name = "binary" + string(p.operatorGlyph("binary"))
		kind = OpBinary
		prec = DefaultBinaryPrec
		p.lx.Advance()
		if tok := p.lx.Current(); tok.Type == lex.Number {
			if tok.Num < 1 || tok.Num > 100 {
				p.errorf(tok, "invalid precedence %g: must be between 1 and 100", tok.Num)
			}
			prec = int(tok.Num)
			p.lx.Consume(lex.Number)
		}

	default:
		p.errorf(start, "expected function name in prototype")
	}

	p.expectChar('(', "expected '(' in prototype")

	var params []string
	for p.lx.Advance().Type == lex.Ident {
		params = append(params, p.lx.Current().Text)
	}

	end := p.expectChar(')', "expected ')' in prototype")
	p.lx.Advance()

	if kind != OpNone && len(params) != int(kind) {
		p.errorf(start, "invalid number of operands for operator %s", name)
	}

	return &Prototype{
		node: p.span(start, end.To),
		Name: name, Params: params, OpKind: kind, Precedence: prec,
	}
}

// operatorGlyph validates and returns the operator glyph for a user-defined
// operator prototype: a printable, non-alphanumeric 7-bit ASCII character.
func (p *Parser) operatorGlyph(what string) rune {
	tok := p.lx.Current()
	if tok.Type != lex.Char || tok.Ch > 127 || isAlnumRune(tok.Ch) {
		p.errorf(tok, "expected %s operator", what)
	}
	return tok.Ch
}

func isAlnumRune(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9'
}
