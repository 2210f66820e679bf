package parse

import (
	"testing"

	"github.com/kales-lang/kales/pkg/tt"
)

func mustParseExpr(t *testing.T, src string) Expr {
	t.Helper()
	fn, err := newTestParser(src).ParseTopLevelExpr()
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return fn.Body
}

func TestNodeKinds(t *testing.T) {
	kind := func(src string) string {
		fn, err := newTestParser(src).ParseTopLevelExpr()
		if err != nil {
			return "error"
		}
		return fn.Body.Kind()
	}
	tt.Test(t, "kind", kind, tt.Table{
		tt.Args("1").Rets("Number"),
		tt.Args("x").Rets("Variable"),
		tt.Args("x + 1").Rets("Binary"),
		tt.Args("!x").Rets("Unary"),
		tt.Args("f(1)").Rets("Call"),
		tt.Args("if 1 then 2 else 3").Rets("If-Then-Else"),
		tt.Args("for i = 1, 2 in 3").Rets("ForLoop"),
		tt.Args("var a in a").Rets("Var"),
	})

	fn, err := newTestParser("def f(x) x").ParseDefinition()
	if err != nil {
		t.Fatal(err)
	}
	if got := fn.Kind(); got != "Function" {
		t.Errorf("Func kind = %q, want Function", got)
	}
	if got := fn.Prototype().Kind(); got != "FunctionPrototype" {
		t.Errorf("Prototype kind = %q, want FunctionPrototype", got)
	}
}

func TestNodeString(t *testing.T) {
	str := func(src string) string { return mustParseExpr(t, src).String() }
	tests := []struct{ src, want string }{
		{"1.5", "1.5"},
		{"x", "x"},
		{"x + 1", "(x + 1)"},
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"!x", "!x"},
		{"f(x, 1)", "f(x, 1)"},
		{"f()", "f()"},
		{"if x then 1 else 2", "if x then\n\t1\nelse\n\t2"},
		{"for i = 1, 2, 3 in f(i)", "for i = 1, 2, 3 in\n\tf(i)"},
		{"for i = 1, 2 in i", "for i = 1, 2 in\n\ti"},
		{"var a = 1, b in a", "var a = 1, b in\na"},
	}
	for _, test := range tests {
		if got := str(test.src); got != test.want {
			t.Errorf("String of %q = %q, want %q", test.src, got, test.want)
		}
	}
}

// Isomorphic trees stringify equally, regardless of surface spelling.
func TestNodeString_Stable(t *testing.T) {
	pairs := [][2]string{
		{"1 + 2 * 3", "1+2*3"},
		{"(x)", "x"},
		{"if x then 1 else 2", "if x then 1 else (2)"},
	}
	for _, pair := range pairs {
		a := mustParseExpr(t, pair[0]).String()
		b := mustParseExpr(t, pair[1]).String()
		if a != b {
			t.Errorf("String(%q) = %q but String(%q) = %q; want equal",
				pair[0], a, pair[1], b)
		}
	}
}

func TestPrototype_OperatorGlyph(t *testing.T) {
	fn, err := newTestParser("def binary% 5 (x y) x").ParseDefinition()
	if err != nil {
		t.Fatal(err)
	}
	p := fn.Prototype()
	if !p.IsBinaryOp() {
		t.Error("prototype is not a binary op")
	}
	if p.OperatorGlyph() != '%' {
		t.Errorf("glyph = %q, want %%", p.OperatorGlyph())
	}
	if p.Name[len(p.Name)-1] != '%' {
		t.Errorf("name %q does not end in the glyph", p.Name)
	}
}

func TestFunc_TakePrototype(t *testing.T) {
	fn, err := newTestParser("def f(x) x").ParseDefinition()
	if err != nil {
		t.Fatal(err)
	}
	p := fn.TakePrototype()
	if p == nil || p.Name != "f" {
		t.Fatalf("TakePrototype = %v, want prototype f", p)
	}
	if fn.Prototype() != nil {
		t.Error("prototype slot not empty after TakePrototype")
	}
	if fn.Name() != "" {
		t.Errorf("Name() = %q after TakePrototype, want empty", fn.Name())
	}
	if fn.TakePrototype() != nil {
		t.Error("second TakePrototype returned a prototype")
	}
}

// The effect visitor dispatches by node type.
type countingVisitor struct {
	counts map[string]int
}

func (v *countingVisitor) visit(e Expr) {
	e.Accept(v)
	switch e := e.(type) {
	case *UnaryExpr:
		v.visit(e.Operand)
	case *BinaryExpr:
		v.visit(e.LHS)
		v.visit(e.RHS)
	case *CallExpr:
		for _, a := range e.Args {
			v.visit(a)
		}
	case *IfExpr:
		v.visit(e.Cond)
		v.visit(e.Then)
		v.visit(e.Else)
	case *ForExpr:
		v.visit(e.Start)
		v.visit(e.End)
		if e.Step != nil {
			v.visit(e.Step)
		}
		v.visit(e.Body)
	case *VarExpr:
		for _, b := range e.Bindings {
			if b.Init != nil {
				v.visit(b.Init)
			}
		}
		v.visit(e.Body)
	}
}

func (v *countingVisitor) VisitNumber(e *NumberExpr)     { v.counts[e.Kind()]++ }
func (v *countingVisitor) VisitVariable(e *VariableExpr) { v.counts[e.Kind()]++ }
func (v *countingVisitor) VisitUnary(e *UnaryExpr)       { v.counts[e.Kind()]++ }
func (v *countingVisitor) VisitBinary(e *BinaryExpr)     { v.counts[e.Kind()]++ }
func (v *countingVisitor) VisitCall(e *CallExpr)         { v.counts[e.Kind()]++ }
func (v *countingVisitor) VisitIf(e *IfExpr)             { v.counts[e.Kind()]++ }
func (v *countingVisitor) VisitFor(e *ForExpr)           { v.counts[e.Kind()]++ }
func (v *countingVisitor) VisitVar(e *VarExpr)           { v.counts[e.Kind()]++ }

func TestEffectVisitorDispatch(t *testing.T) {
	expr := mustParseExpr(t, "if x < 10 then f(x, !x) else x + 10")
	v := &countingVisitor{counts: make(map[string]int)}
	v.visit(expr)
	want := map[string]int{
		"If-Then-Else": 1, "Binary": 2, "Variable": 4,
		"Number": 2, "Call": 1, "Unary": 1,
	}
	for kind, n := range want {
		if v.counts[kind] != n {
			t.Errorf("visited %d %s nodes, want %d", v.counts[kind], kind, n)
		}
	}
}
