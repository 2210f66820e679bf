package codegen

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/kales-lang/kales/pkg/diag"
	"github.com/kales-lang/kales/pkg/ir"
	"github.com/kales-lang/kales/pkg/lex"
	"github.com/kales-lang/kales/pkg/parse"
	"github.com/kales-lang/kales/pkg/session"
)

// harness drives the same per-form cycle as the interactive driver: parse a
// form, compile it, move the completed module into the engine and open a
// fresh module, so cross-module symbol resolution is exercised exactly as
// in production.
type harness struct {
	t      *testing.T
	sess   *session.Session
	cg     *Codegen
	engine *ir.Engine
	seq    int
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		t:      t,
		sess:   session.New(),
		engine: ir.NewEngine(),
	}
	h.cg = New(h.sess)
	h.fresh()
	return h
}

func (h *harness) fresh() {
	h.seq++
	h.sess.Protos.SetModule(ir.NewModule(fmt.Sprintf("test.%d", h.seq)))
}

func (h *harness) module() *ir.Module { return h.sess.Protos.Module() }

// feed compiles all forms in src. Top-level expressions are executed and
// their results collected.
func (h *harness) feed(src string) ([]float64, error) {
	lx := lex.NewString("test", src)
	ps := parse.NewParser(lx, h.sess.Ops)
	lx.Advance()

	var results []float64
	for {
		switch tok := lx.Current(); {
		case tok.Type == lex.EOF:
			return results, nil
		case tok.Is(';'):
			lx.Advance()
		case tok.Type == lex.Def:
			fn, err := ps.ParseDefinition()
			if err != nil {
				return results, err
			}
			h.cg.SetSource("test", lx.Src())
			if _, err := h.cg.EmitFunc(fn); err != nil {
				return results, err
			}
			h.engine.AddModule(h.module())
			h.fresh()
		case tok.Type == lex.Extern:
			proto, err := ps.ParseExtern()
			if err != nil {
				return results, err
			}
			h.cg.SetSource("test", lx.Src())
			if _, err := h.cg.EmitExtern(proto); err != nil {
				return results, err
			}
		default:
			fn, err := ps.ParseTopLevelExpr()
			if err != nil {
				return results, err
			}
			h.cg.SetSource("test", lx.Src())
			if _, err := h.cg.EmitFunc(fn); err != nil {
				return results, err
			}
			h.engine.AddModule(h.module())
			h.fresh()
			res, err := h.engine.Call(parse.AnonFuncName)
			h.engine.Remove(parse.AnonFuncName)
			if err != nil {
				return results, err
			}
			results = append(results, res)
		}
	}
}

// eval compiles src and returns the result of its last top-level
// expression.
func (h *harness) eval(src string) float64 {
	h.t.Helper()
	results, err := h.feed(src)
	if err != nil {
		h.t.Fatalf("eval %q: %v", src, err)
	}
	if len(results) == 0 {
		h.t.Fatalf("eval %q produced no results", src)
	}
	return results[len(results)-1]
}

func TestCodegen_Expressions(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"42", 42},
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 4 - 3", 3},
		// '<' yields 1.0 or 0.0; there is no boolean type.
		{"1 < 2", 1},
		{"2 < 1", 0},
		{"(1 < 2) + (3 < 2)", 1},
		{"if 1 < 2 then 10 else 20", 10},
		{"if 2 < 1 then 10 else 20", 20},
		// The condition tests ordered-not-equal against 0.
		{"if 0.5 then 1 else 2", 1},
		{"if 0 then 1 else 2", 2},
		// var bindings and their defaults.
		{"var x = 1, y = 2 in x + y", 3},
		{"var x in x + 1", 1},
		// Assignment evaluates to the stored value.
		{"var x in x = 7", 7},
		{"var x = 1 in (x = x + 1) + x", 4},
	}
	for _, test := range tests {
		h := newHarness(t)
		if got := h.eval(test.src); got != test.want {
			t.Errorf("eval %q = %g, want %g", test.src, got, test.want)
		}
	}
}

func TestCodegen_Functions(t *testing.T) {
	h := newHarness(t)
	got := h.eval(`
def double(x) x + x
double(21)`)
	if got != 42 {
		t.Errorf("double(21) = %g, want 42", got)
	}
}

func TestCodegen_Recursion(t *testing.T) {
	h := newHarness(t)
	got := h.eval(`
def fib(x) if x < 3 then 1 else fib(x - 1) + fib(x - 2)
fib(10)`)
	if got != 55 {
		t.Errorf("fib(10) = %g, want 55", got)
	}
}

func TestCodegen_ForLoop(t *testing.T) {
	h := newHarness(t)
	// The body runs, then the end condition is tested on the value of i
	// before the increment: the body executes once more after the test
	// value reaches the bound. For i = 0 with i < 3, the body runs at
	// i = 0, 1, 2, 3.
	got := h.eval(`
def count(n) var s in (for i = 0, i < n in s = s + 1) + s
count(3)`)
	if got != 4 {
		t.Errorf("count(3) = %g, want 4", got)
	}

	// A for expression itself yields 0.
	if got := newHarness(t).eval("for i = 1, i < 1 in 99"); got != 0 {
		t.Errorf("for yields %g, want 0", got)
	}
}

func TestCodegen_ForLoopStep(t *testing.T) {
	h := newHarness(t)
	got := h.eval(`
def sumsteps(n) var s in (for i = 0, i < n, 2 in s = s + i) + s
sumsteps(5)`)
	// The body runs at i = 0, 2, 4 and once more at 6, where the test
	// 6 < 5 then stops the loop: 0+2+4+6 = 12.
	if got != 12 {
		t.Errorf("sumsteps(5) = %g, want 12", got)
	}
}

func TestCodegen_BodyMayMutateInductionVariable(t *testing.T) {
	h := newHarness(t)
	// The induction variable lives in a stack slot; the body's mutation
	// is visible to the increment. Jumping i forward terminates early.
	got := h.eval(`
def f() var s in (for i = 0, i < 100 in var unused = (i = i + 9) in s = s + 1) + s
f()`)
	// Each iteration advances i by 9 (body) plus 1 (step): 11 bodies run
	// at i = 0, 10, 20, ..., 100.
	if got != 11 {
		t.Errorf("f() = %g, want 11", got)
	}
}

func TestCodegen_ScopeRestoration(t *testing.T) {
	h := newHarness(t)
	// The inner var shadows y, and the binding is restored after.
	got := h.eval(`
def g(x) var y = x in (var y = y * 2 in y) + y
g(5)`)
	if got != 15 {
		t.Errorf("g(5) = %g, want 15", got)
	}

	// The for induction variable shadows, then unshadows, an outer name.
	got = newHarness(t).eval(`
def h(i) (for i = 0, i < 0 in 0) + i
h(7)`)
	if got != 7 {
		t.Errorf("h(7) = %g, want 7", got)
	}
}

func TestCodegen_VarInitSeesOuterBinding(t *testing.T) {
	h := newHarness(t)
	// The initializer is emitted before the name is bound, so
	// `var a = a` reads the outer a.
	got := h.eval(`
def f(a) var a = a + 1 in a
f(10)`)
	if got != 11 {
		t.Errorf("f(10) = %g, want 11", got)
	}
}

func TestCodegen_UserUnaryOperator(t *testing.T) {
	h := newHarness(t)
	got := h.eval(`
def unary!(v) if v then 0 else 1
!0`)
	if got != 1 {
		t.Errorf("!0 = %g, want 1", got)
	}
	if got := h.eval("!10"); got != 0 {
		t.Errorf("!10 = %g, want 0", got)
	}
	// Nested unary applications.
	if got := h.eval("!!10"); got != 1 {
		t.Errorf("!!10 = %g, want 1", got)
	}
}

func TestCodegen_UserBinaryOperator(t *testing.T) {
	h := newHarness(t)
	if _, err := h.feed("def binary% 5 (a b) a - b"); err != nil {
		t.Fatal(err)
	}

	// Compiling the definition inserted the precedence into the table.
	if got := h.sess.Ops.Prec('%'); got != 5 {
		t.Errorf("Prec('%%') = %d after definition, want 5", got)
	}
	// The registered function's name ends in the glyph.
	proto := h.sess.Protos.Prototype("binary%")
	if proto == nil {
		t.Fatal("binary% not in registry")
	}
	if proto.Name[len(proto.Name)-1] != '%' {
		t.Errorf("name %q does not end in the glyph", proto.Name)
	}

	if got := h.eval("10 % 4"); got != 6 {
		t.Errorf("10 %% 4 = %g, want 6", got)
	}
	// '%' has precedence 5: lower than '*', higher than '='.
	if got := h.eval("2 * 3 % 4"); got != 2 {
		t.Errorf("2 * 3 %% 4 = %g, want 2", got)
	}
}

func TestCodegen_OperatorVisibleToLaterForms(t *testing.T) {
	h := newHarness(t)
	// The definition in form N makes the glyph parseable in form N+1,
	// because codegen of N completes before N+1 is parsed.
	got := h.eval(`
def binary& 6 (a b) if a then (if b then 1 else 0) else 0
(1 & 2) + (1 & 0)`)
	if got != 1 {
		t.Errorf("got %g, want 1", got)
	}
}

func TestCodegen_ExternAndHost(t *testing.T) {
	h := newHarness(t)
	h.engine.AddHost("sin", func(args ...float64) float64 {
		return math.Sin(args[0])
	})
	got := h.eval(`
extern sin(x)
sin(0) + 1`)
	if got != 1 {
		t.Errorf("sin(0) + 1 = %g, want 1", got)
	}
}

func TestCodegen_CrossModuleResolution(t *testing.T) {
	h := newHarness(t)
	// double is emitted into an earlier module that has moved into the
	// engine; the call site lives in a fresh module and resolves through
	// the registry's stored prototype.
	if _, err := h.feed("def double(x) x + x"); err != nil {
		t.Fatal(err)
	}
	startSeq := h.seq
	got := h.eval("double(4) + double(5)")
	if got != 18 {
		t.Errorf("double(4) + double(5) = %g, want 18", got)
	}
	if h.seq <= startSeq {
		t.Fatal("harness did not rotate modules")
	}
}

func TestCodegen_Errors(t *testing.T) {
	tests := []struct {
		src     string
		wantMsg string
	}{
		// C1: undefined variable and function.
		{"def f(x) y", "variable 'y' is unknown"},
		{"g(1)", "unknown function called: g"},
		{"!1", "unknown unary operator '!'"},
		// C2: arity mismatch.
		{"def f(x) x\nf(1, 2)", "incorrect number of arguments passed to function: f"},
		// C3: assignment to a non-variable.
		{"def f(x) (x + 1) = 5", "destination of '=' must be a variable"},
		{"var x in 1 = 2", "destination of '=' must be a variable"},
	}
	for _, test := range tests {
		h := newHarness(t)
		_, err := h.feed(test.src)
		if err == nil {
			t.Errorf("feed %q: no error, want %q", test.src, test.wantMsg)
			continue
		}
		e, ok := err.(*diag.Error)
		if !ok {
			t.Errorf("feed %q: error %v is not a *diag.Error", test.src, err)
			continue
		}
		if e.Message != test.wantMsg {
			t.Errorf("feed %q: message %q, want %q", test.src, e.Message, test.wantMsg)
		}
		if e.Type != diag.CodegenErrorType {
			t.Errorf("feed %q: type %q, want %q", test.src, e.Type, diag.CodegenErrorType)
		}
		if !strings.HasPrefix(e.Error(), "Error: ") {
			t.Errorf("feed %q: %q lacks the Error prefix", test.src, e.Error())
		}
	}
}

func TestCodegen_FailedFunctionIsErased(t *testing.T) {
	h := newHarness(t)
	_, err := h.feed("def broken(x) nope")
	if err == nil {
		t.Fatal("no error for undefined variable")
	}
	if f := h.module().Func("broken"); f != nil {
		t.Errorf("failed function still present in module: %v", f)
	}
	// The prototype, however, was committed before the body failed.
	if h.sess.Protos.Prototype("broken") == nil {
		t.Error("prototype not committed to the registry")
	}
}

func TestCodegen_UndeclaredBinaryOperatorPanics(t *testing.T) {
	h := newHarness(t)
	// A glyph present in the precedence table without a compiled
	// definition violates the codegen invariant.
	h.sess.Ops.Set('%', 40)
	defer func() {
		if recover() == nil {
			t.Error("no panic for unresolvable declared operator")
		}
	}()
	h.feed("1 % 2")
}

func TestCodegen_OptimizerRuns(t *testing.T) {
	h := newHarness(t)
	runs := 0
	h.cg.SetOptimizer(ir.OptimizerFunc(func(f *ir.Func) { runs++ }))
	if got := h.eval("1 + 1"); got != 2 {
		t.Fatalf("eval = %g, want 2", got)
	}
	if runs != 1 {
		t.Errorf("optimizer ran %d times, want 1", runs)
	}
}

func TestCodegen_EmittedIRShape(t *testing.T) {
	h := newHarness(t)
	lx := lex.NewString("test", "def f(x) if x then x else 0")
	ps := parse.NewParser(lx, h.sess.Ops)
	lx.Advance()
	fn, err := ps.ParseDefinition()
	if err != nil {
		t.Fatal(err)
	}
	h.cg.SetSource("test", lx.Src())
	irFn, err := h.cg.EmitFunc(fn)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, b := range irFn.Blocks {
		names = append(names, b.Name)
	}
	want := []string{"entry", "then", "else", "ifcont"}
	if strings.Join(names, " ") != strings.Join(want, " ") {
		t.Errorf("block order %v, want %v", names, want)
	}
	if err := ir.Verify(irFn); err != nil {
		t.Errorf("emitted function fails verification: %v", err)
	}
	// The parameter is spilled to a slot in the entry block.
	if irFn.Blocks[0].Instrs[0].Op != ir.Alloca {
		t.Error("entry block does not start with the parameter alloca")
	}
}
