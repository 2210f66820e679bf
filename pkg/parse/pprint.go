package parse

import (
	"fmt"
	"strconv"
	"strings"
)

// Repr returns a structural rendering of a node, like
// Binary('+', Number(1), Binary('*', Number(2), Number(3))). It is a second
// instantiation of [ValueVisitor], with string results, and is what parser
// tests assert against.
func Repr(n Node) string {
	s, _ := Walk[string](n, reprVisitor{})
	return s
}

type reprVisitor struct{}

func (v reprVisitor) VisitNumber(e *NumberExpr) (string, error) {
	return "Number(" + strconv.FormatFloat(e.Value, 'g', -1, 64) + ")", nil
}

func (v reprVisitor) VisitVariable(e *VariableExpr) (string, error) {
	return fmt.Sprintf("Variable(%q)", e.Name), nil
}

func (v reprVisitor) VisitUnary(e *UnaryExpr) (string, error) {
	return fmt.Sprintf("Unary(%q, %s)", e.Op, Repr(e.Operand)), nil
}

func (v reprVisitor) VisitBinary(e *BinaryExpr) (string, error) {
	return fmt.Sprintf("Binary(%q, %s, %s)", e.Op, Repr(e.LHS), Repr(e.RHS)), nil
}

func (v reprVisitor) VisitCall(e *CallExpr) (string, error) {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = Repr(a)
	}
	return fmt.Sprintf("Call(%q, [%s])", e.Callee, strings.Join(args, ", ")), nil
}

func (v reprVisitor) VisitIf(e *IfExpr) (string, error) {
	return fmt.Sprintf("If(%s, %s, %s)",
		Repr(e.Cond), Repr(e.Then), Repr(e.Else)), nil
}

func (v reprVisitor) VisitFor(e *ForExpr) (string, error) {
	step := "none"
	if e.Step != nil {
		step = Repr(e.Step)
	}
	return fmt.Sprintf("For(%q, %s, %s, %s, %s)",
		e.VarName, Repr(e.Start), Repr(e.End), step, Repr(e.Body)), nil
}

func (v reprVisitor) VisitVar(e *VarExpr) (string, error) {
	parts := make([]string, len(e.Bindings))
	for i, b := range e.Bindings {
		init := "none"
		if b.Init != nil {
			init = Repr(b.Init)
		}
		parts[i] = fmt.Sprintf("(%q, %s)", b.Name, init)
	}
	return fmt.Sprintf("Var([%s], %s)",
		strings.Join(parts, ", "), Repr(e.Body)), nil
}

func (v reprVisitor) VisitPrototype(p *Prototype) (string, error) {
	params := make([]string, len(p.Params))
	for i, s := range p.Params {
		params[i] = strconv.Quote(s)
	}
	return fmt.Sprintf("FcnPrototype(%q, [%s], %s, %d)",
		p.Name, strings.Join(params, ","), p.OpKind, p.Precedence), nil
}

func (v reprVisitor) VisitFunc(f *Func) (string, error) {
	proto := "released"
	if f.proto != nil {
		proto = Repr(f.proto)
	}
	return fmt.Sprintf("Function{%s, %s}", proto, Repr(f.Body)), nil
}
