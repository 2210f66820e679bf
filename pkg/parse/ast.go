// Package parse implements the kales parser.
//
// The parser builds an AST of expression nodes and function definitions from
// the token stream produced by [lex.Lexer]. Binary expressions are resolved
// with operator-precedence parsing against a mutable precedence table, so
// the accepted grammar can grow at runtime as user-defined operators are
// declared.
package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kales-lang/kales/pkg/diag"
)

// AnonFuncName is the reserved name under which a top-level expression is
// wrapped as a zero-parameter function. It starts with an underscore so the
// lexer can never produce it as an identifier, and the execution engine
// looks it up under the same name.
const AnonFuncName = "__anon_expr"

// node is the base of all AST nodes: a byte range and a (line, column)
// position into the source.
type node struct {
	diag.Ranging
	pos diag.Pos
}

func (n *node) Pos() diag.Pos { return n.pos }

// Node is an element of the AST. Nodes are immutable once the parser has
// built them; walkers receive non-owning references.
type Node interface {
	diag.Ranger
	// Pos returns the (line, column) position of the node's first token.
	Pos() diag.Pos
	// Kind returns a stable short kind string, like "Number" or "ForLoop".
	Kind() string
	// String returns a source-like rendering for diagnostics and tests.
	String() string
}

// Expr is an expression node.
type Expr interface {
	Node
	// Accept dispatches to the effect visitor method for the node.
	Accept(v Visitor)
}

// Visitor is the effect-only traversal over expressions: visits produce side
// effects and no value. For a value-returning traversal, implement
// [ValueVisitor] and dispatch with [Walk].
type Visitor interface {
	VisitNumber(*NumberExpr)
	VisitVariable(*VariableExpr)
	VisitUnary(*UnaryExpr)
	VisitBinary(*BinaryExpr)
	VisitCall(*CallExpr)
	VisitIf(*IfExpr)
	VisitFor(*ForExpr)
	VisitVar(*VarExpr)
}

// ValueVisitor is the value-returning traversal, parametric in the result
// type. The codegen walker instantiates R with its IR value type; other
// consumers may instantiate it differently (see [Repr] for an example).
type ValueVisitor[R any] interface {
	VisitNumber(*NumberExpr) (R, error)
	VisitVariable(*VariableExpr) (R, error)
	VisitUnary(*UnaryExpr) (R, error)
	VisitBinary(*BinaryExpr) (R, error)
	VisitCall(*CallExpr) (R, error)
	VisitIf(*IfExpr) (R, error)
	VisitFor(*ForExpr) (R, error)
	VisitVar(*VarExpr) (R, error)
	VisitPrototype(*Prototype) (R, error)
	VisitFunc(*Func) (R, error)
}

// Walk dispatches a node to the matching method of a value visitor.
func Walk[R any](n Node, v ValueVisitor[R]) (R, error) {
	switch n := n.(type) {
	case *NumberExpr:
		return v.VisitNumber(n)
	case *VariableExpr:
		return v.VisitVariable(n)
	case *UnaryExpr:
		return v.VisitUnary(n)
	case *BinaryExpr:
		return v.VisitBinary(n)
	case *CallExpr:
		return v.VisitCall(n)
	case *IfExpr:
		return v.VisitIf(n)
	case *ForExpr:
		return v.VisitFor(n)
	case *VarExpr:
		return v.VisitVar(n)
	case *Prototype:
		return v.VisitPrototype(n)
	case *Func:
		return v.VisitFunc(n)
	default:
		panic(fmt.Sprintf("parse: Walk called with unknown node type %T", n))
	}
}

// NumberExpr is a numeric literal.
type NumberExpr struct {
	node
	Value float64
}

func (e *NumberExpr) Accept(v Visitor) { v.VisitNumber(e) }
func (e *NumberExpr) Kind() string     { return "Number" }
func (e *NumberExpr) String() string {
	return strconv.FormatFloat(e.Value, 'g', -1, 64)
}

// VariableExpr is a reference to a named variable.
type VariableExpr struct {
	node
	Name string
}

func (e *VariableExpr) Accept(v Visitor) { v.VisitVariable(e) }
func (e *VariableExpr) Kind() string     { return "Variable" }
func (e *VariableExpr) String() string   { return e.Name }

// UnaryExpr applies a prefix operator to an operand.
type UnaryExpr struct {
	node
	Op      rune
	Operand Expr
}

func (e *UnaryExpr) Accept(v Visitor) { v.VisitUnary(e) }
func (e *UnaryExpr) Kind() string     { return "Unary" }
func (e *UnaryExpr) String() string {
	return string(e.Op) + e.Operand.String()
}

// BinaryExpr applies a binary operator to two operands.
type BinaryExpr struct {
	node
	Op       rune
	LHS, RHS Expr
}

func (e *BinaryExpr) Accept(v Visitor) { v.VisitBinary(e) }
func (e *BinaryExpr) Kind() string     { return "Binary" }
func (e *BinaryExpr) String() string {
	return "(" + e.LHS.String() + " " + string(e.Op) + " " + e.RHS.String() + ")"
}

// CallExpr calls a named function with ordered arguments.
type CallExpr struct {
	node
	Callee string
	Args   []Expr
}

func (e *CallExpr) Accept(v Visitor) { v.VisitCall(e) }
func (e *CallExpr) Kind() string     { return "Call" }
func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Callee + "(" + strings.Join(args, ", ") + ")"
}

// IfExpr is an if/then/else expression; both branches are mandatory and the
// whole form yields the value of the taken branch.
type IfExpr struct {
	node
	Cond, Then, Else Expr
}

func (e *IfExpr) Accept(v Visitor) { v.VisitIf(e) }
func (e *IfExpr) Kind() string     { return "If-Then-Else" }
func (e *IfExpr) String() string {
	return "if " + e.Cond.String() + " then\n\t" + e.Then.String() +
		"\nelse\n\t" + e.Else.String()
}

// ForExpr is a for loop. Step is nil when the source omits it; the loop then
// steps by 1. The loop yields 0.
type ForExpr struct {
	node
	VarName          string
	Start, End, Step Expr
	Body             Expr
}

func (e *ForExpr) Accept(v Visitor) { v.VisitFor(e) }
func (e *ForExpr) Kind() string     { return "ForLoop" }
func (e *ForExpr) String() string {
	s := "for " + e.VarName + " = " + e.Start.String() + ", " + e.End.String()
	if e.Step != nil {
		s += ", " + e.Step.String()
	}
	return s + " in\n\t" + e.Body.String()
}

// VarBinding is one (name, initializer) pair of a var expression. Init is
// nil when the source omits the initializer; the variable then starts at 0.
type VarBinding struct {
	Name string
	Init Expr
}

// VarExpr introduces mutable variables scoped to its body.
type VarExpr struct {
	node
	Bindings []VarBinding
	Body     Expr
}

func (e *VarExpr) Accept(v Visitor) { v.VisitVar(e) }
func (e *VarExpr) Kind() string     { return "Var" }
func (e *VarExpr) String() string {
	parts := make([]string, len(e.Bindings))
	for i, b := range e.Bindings {
		parts[i] = b.Name
		if b.Init != nil {
			parts[i] += " = " + b.Init.String()
		}
	}
	return "var " + strings.Join(parts, ", ") + " in\n" + e.Body.String()
}

// OpKind classifies a prototype as a plain function or a user-defined
// operator.
type OpKind int

const (
	OpNone OpKind = iota
	OpUnary
	OpBinary
)

func (k OpKind) String() string {
	switch k {
	case OpUnary:
		return "unary"
	case OpBinary:
		return "binary"
	default:
		return "none"
	}
}

// DefaultBinaryPrec is the precedence of a user-defined binary operator that
// does not declare one.
const DefaultBinaryPrec = 30

// Prototype is a function's name and ordered parameter names, plus operator
// metadata. For operator prototypes the last byte of Name is the operator
// glyph.
type Prototype struct {
	node
	Name       string
	Params     []string
	OpKind     OpKind
	Precedence int
}

func (p *Prototype) Kind() string { return "FunctionPrototype" }

func (p *Prototype) String() string {
	params := make([]string, len(p.Params))
	for i, s := range p.Params {
		params[i] = strconv.Quote(s)
	}
	return fmt.Sprintf("FcnPrototype(%q, [%s], %s, %d)",
		p.Name, strings.Join(params, ","), p.OpKind, p.Precedence)
}

// IsUnaryOp reports whether the prototype declares a unary operator.
func (p *Prototype) IsUnaryOp() bool { return p.OpKind == OpUnary }

// IsBinaryOp reports whether the prototype declares a binary operator.
func (p *Prototype) IsBinaryOp() bool { return p.OpKind == OpBinary }

// OperatorGlyph returns the operator glyph of an operator prototype: the
// last byte of the name.
func (p *Prototype) OperatorGlyph() rune {
	return rune(p.Name[len(p.Name)-1])
}

// Func is a function definition: a prototype plus a body expression.
type Func struct {
	node
	proto *Prototype
	Body  Expr
}

// NewFunc constructs a function definition node. Consumers that build ASTs
// without the parser can use it directly.
func NewFunc(proto *Prototype, body Expr) *Func {
	f := &Func{proto: proto, Body: body}
	if proto != nil && body != nil {
		f.Ranging = diag.MixedRanging(proto, body)
		f.pos = proto.Pos()
	}
	return f
}

func (f *Func) Kind() string { return "Function" }

func (f *Func) String() string {
	if f.proto == nil {
		return "def <released> " + f.Body.String()
	}
	return "def " + f.proto.String() + " " + f.Body.String()
}

// Name returns the function's name, or "" if the prototype has been moved
// out.
func (f *Func) Name() string {
	if f.proto == nil {
		return ""
	}
	return f.proto.Name
}

// Prototype returns the function's prototype, which may be nil after
// [Func.TakePrototype].
func (f *Func) Prototype() *Prototype { return f.proto }

// TakePrototype moves the prototype out of the function, leaving the
// prototype slot empty. It is a one-shot transfer of ownership, used when
// handing the prototype to the registry on emission.
func (f *Func) TakePrototype() *Prototype {
	p := f.proto
	f.proto = nil
	return p
}
