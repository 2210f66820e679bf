// Package shell implements the interactive and batch drivers of kales: the
// main loop that parses one top-level form at a time, compiles it, hands the
// finished module to the execution engine, and opens a fresh module for the
// next form.
package shell

import (
	"fmt"
	"io"

	"github.com/kales-lang/kales/pkg/codegen"
	"github.com/kales-lang/kales/pkg/diag"
	"github.com/kales-lang/kales/pkg/ir"
	"github.com/kales-lang/kales/pkg/lex"
	"github.com/kales-lang/kales/pkg/parse"
	"github.com/kales-lang/kales/pkg/session"
)

// Evaluator holds the state that outlives a single input chunk: the
// session (operator table and prototype registry), the codegen walker, the
// execution engine and the current module.
type Evaluator struct {
	sess   *session.Session
	cg     *codegen.Codegen
	engine *ir.Engine
	module *ir.Module

	out    io.Writer
	errOut io.Writer

	dumpIR       bool
	inlinePrompt string
	opSink       func(glyph rune, prec int)
	moduleSeq    int

	lx *lex.Lexer
	ps *parse.Parser
}

// NewEvaluator creates an Evaluator writing results to out and diagnostics
// to errOut, with the host functions installed.
func NewEvaluator(out, errOut io.Writer) *Evaluator {
	ev := &Evaluator{
		sess:   session.New(),
		engine: ir.NewEngine(),
		out:    out,
		errOut: errOut,
	}
	ev.cg = codegen.New(ev.sess)
	installHost(ev.engine, out)
	ev.freshModule()
	return ev
}

// SetDumpIR toggles printing the IR listing of each compiled form, as the
// interactive driver does.
func (ev *Evaluator) SetDumpIR(b bool) { ev.dumpIR = b }

// SetInlinePrompt makes EvalChunk print the given prompt to the diagnostic
// writer when a chunk starts and after each top-level ';', for a
// stream-driven interactive session without line editing.
func (ev *Evaluator) SetInlinePrompt(prompt string) { ev.inlinePrompt = prompt }

// SetOptimizer configures the optimizer run over each emitted function.
func (ev *Evaluator) SetOptimizer(opt ir.Optimizer) { ev.cg.SetOptimizer(opt) }

// SetOpSink registers a callback invoked whenever a user-defined binary
// operator is compiled, used to persist the operator table.
func (ev *Evaluator) SetOpSink(sink func(glyph rune, prec int)) { ev.opSink = sink }

// Session exposes the evaluator's session, so callers can pre-seed the
// operator table.
func (ev *Evaluator) Session() *session.Session { return ev.sess }

// freshModule opens a new module for subsequent forms. The previous module,
// if any, has already been moved into the engine.
func (ev *Evaluator) freshModule() {
	ev.moduleSeq++
	ev.module = ir.NewModule(fmt.Sprintf("repl.%d", ev.moduleSeq))
	ev.sess.Protos.SetModule(ev.module)
}

// EvalChunk runs the main loop over one chunk of source: a file, a -c
// argument, or one REPL line.
//
//	top := definition | extern | expression | ';'
func (ev *Evaluator) EvalChunk(name string, r io.Reader) {
	ev.lx = lex.New(name, r)
	ev.ps = parse.NewParser(ev.lx, ev.sess.Ops)

	ev.promptNext()
	if !ev.advance() {
		return
	}
	for {
		switch tok := ev.lx.Current(); {
		case tok.Type == lex.EOF:
			return
		case tok.Is(';'):
			// Top-level semicolons separate forms and are skipped.
			ev.promptNext()
			if !ev.advance() {
				return
			}
		case tok.Type == lex.Def:
			ev.handleDefinition()
		case tok.Type == lex.Extern:
			ev.handleExtern()
		default:
			ev.handleTopLevelExpr()
		}
	}
}

// advance moves the lexer one token, absorbing a fatal lex error. It
// reports whether the caller may continue with the current chunk.
func (ev *Evaluator) advance() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e, isDiag := r.(*diag.Error)
			if !isDiag {
				panic(r)
			}
			diag.ShowError(ev.errOut, e)
			ok = false
		}
	}()
	ev.lx.Advance()
	return true
}

func (ev *Evaluator) handleDefinition() {
	fn, err := ev.ps.ParseDefinition()
	if err != nil {
		diag.ShowError(ev.errOut, err)
		ev.advance()
		return
	}
	proto := fn.Prototype()
	ev.cg.SetSource(ev.lx.Name(), ev.lx.Src())
	irFn, err := ev.cg.EmitFunc(fn)
	if err != nil {
		diag.ShowError(ev.errOut, err)
		return
	}
	ev.dump(irFn, "Parsed a function definition.")
	if proto.IsBinaryOp() && ev.opSink != nil {
		ev.opSink(proto.OperatorGlyph(), proto.Precedence)
	}
	// The completed module moves into the engine; later forms
	// re-declare its symbols from the registry as needed.
	ev.engine.AddModule(ev.module)
	ev.freshModule()
}

func (ev *Evaluator) handleExtern() {
	proto, err := ev.ps.ParseExtern()
	if err != nil {
		diag.ShowError(ev.errOut, err)
		ev.advance()
		return
	}
	ev.cg.SetSource(ev.lx.Name(), ev.lx.Src())
	irFn, err := ev.cg.EmitExtern(proto)
	if err != nil {
		diag.ShowError(ev.errOut, err)
		return
	}
	ev.dump(irFn, "Parsed an extern.")
}

func (ev *Evaluator) handleTopLevelExpr() {
	fn, err := ev.ps.ParseTopLevelExpr()
	if err != nil {
		diag.ShowError(ev.errOut, err)
		ev.advance()
		return
	}
	ev.cg.SetSource(ev.lx.Name(), ev.lx.Src())
	irFn, err := ev.cg.EmitFunc(fn)
	if err != nil {
		diag.ShowError(ev.errOut, err)
		return
	}
	ev.dump(irFn, "Parsed a top-level expr.")

	ev.engine.AddModule(ev.module)
	ev.freshModule()

	result, err := ev.engine.Call(parse.AnonFuncName)
	// The anonymous wrapper is single-shot; drop it either way.
	ev.engine.Remove(parse.AnonFuncName)
	if err != nil {
		diag.ShowError(ev.errOut, err)
		return
	}
	fmt.Fprintf(ev.out, "Evaluated to %f\n", result)
}

func (ev *Evaluator) promptNext() {
	if ev.inlinePrompt != "" {
		fmt.Fprint(ev.errOut, ev.inlinePrompt)
	}
}

func (ev *Evaluator) dump(f *ir.Func, msg string) {
	if ev.dumpIR {
		fmt.Fprintln(ev.errOut, msg)
		fmt.Fprint(ev.errOut, f.String())
	}
}
