// Package codegen implements the IR-emitting walk over the AST. It
// instantiates the value-returning AST visitor with [ir.Value], manages the
// scoped environment of mutable variables (one stack slot per name), and
// writes the function prototypes it sees into the session's registry so
// later compilation units can re-declare them.
package codegen

import (
	"fmt"

	"github.com/kales-lang/kales/pkg/diag"
	"github.com/kales-lang/kales/pkg/ir"
	"github.com/kales-lang/kales/pkg/parse"
	"github.com/kales-lang/kales/pkg/session"
)

// Codegen walks ASTs and emits IR into the session's current module. It is
// single-threaded and is reused across top-level forms; the scoped variable
// environment is reset at each function boundary.
type Codegen struct {
	sess *session.Session
	bd   *ir.Builder

	// named maps in-scope variable names to their stack slots in the
	// current function's entry block. Scopes are implemented by
	// save/restore at each binding site, not by an environment chain.
	named map[string]*ir.Instr

	opt ir.Optimizer

	srcName string
	src     string
}

// New creates a Codegen emitting through a fresh builder.
func New(sess *session.Session) *Codegen {
	return &Codegen{
		sess:  sess,
		bd:    ir.NewBuilder(),
		named: make(map[string]*ir.Instr),
	}
}

// SetOptimizer configures an optimizer to run over each successfully
// emitted function.
func (cg *Codegen) SetOptimizer(opt ir.Optimizer) { cg.opt = opt }

// SetSource records the name and text of the source being compiled, used to
// attach context to diagnostics.
func (cg *Codegen) SetSource(name, src string) {
	cg.srcName = name
	cg.src = src
}

func (cg *Codegen) module() *ir.Module {
	return cg.sess.Protos.Module()
}

func (cg *Codegen) errorf(r diag.Ranger, format string, args ...any) error {
	return &diag.Error{
		Type:    diag.CodegenErrorType,
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext(cg.srcName, cg.src, r),
	}
}

// EmitFunc compiles a function definition into the current module. On any
// failure the partially built IR function is erased from the module and the
// error reported; mutations to the registry and the operator table that
// happened before the failure persist, because top-level forms are
// committed units once parsing succeeded.
func (cg *Codegen) EmitFunc(f *parse.Func) (*ir.Func, error) {
	v, err := cg.VisitFunc(f)
	if err != nil {
		return nil, err
	}
	return v.(*ir.Func), nil
}

// EmitExtern compiles an extern prototype: the declaration is emitted into
// the current module and the prototype is stored in the registry for
// re-declaration into later modules.
func (cg *Codegen) EmitExtern(p *parse.Prototype) (*ir.Func, error) {
	v, err := cg.VisitPrototype(p)
	if err != nil {
		return nil, err
	}
	cg.sess.Protos.AddPrototype(p.Name, p)
	return v.(*ir.Func), nil
}

// resolveFunction returns an IR function for name in the current module:
// the module's own function if present, otherwise a fresh declaration
// materialized from the registry's stored prototype, otherwise nil.
func (cg *Codegen) resolveFunction(name string) *ir.Func {
	if f := cg.module().Func(name); f != nil {
		return f
	}
	if proto := cg.sess.Protos.Prototype(name); proto != nil {
		v, _ := cg.VisitPrototype(proto)
		return v.(*ir.Func)
	}
	return nil
}

func (cg *Codegen) VisitNumber(e *parse.NumberExpr) (ir.Value, error) {
	return cg.bd.ConstFloat(e.Value), nil
}

func (cg *Codegen) VisitVariable(e *parse.VariableExpr) (ir.Value, error) {
	slot := cg.named[e.Name]
	if slot == nil {
		return nil, cg.errorf(e, "variable '%s' is unknown", e.Name)
	}
	return cg.bd.CreateLoad(slot, e.Name), nil
}

func (cg *Codegen) VisitUnary(e *parse.UnaryExpr) (ir.Value, error) {
	operand, err := parse.Walk[ir.Value](e.Operand, cg)
	if err != nil {
		return nil, err
	}
	callee := cg.resolveFunction("unary" + string(e.Op))
	if callee == nil {
		return nil, cg.errorf(e, "unknown unary operator '%c'", e.Op)
	}
	return cg.bd.CreateCall(callee, []ir.Value{operand}, "unop"), nil
}

func (cg *Codegen) VisitBinary(e *parse.BinaryExpr) (ir.Value, error) {
	// Assignment is a special case: the LHS is not emitted as an
	// expression but names the destination slot.
	if e.Op == '=' {
		lhse, ok := e.LHS.(*parse.VariableExpr)
		if !ok {
			return nil, cg.errorf(e.LHS, "destination of '=' must be a variable")
		}
		val, err := parse.Walk[ir.Value](e.RHS, cg)
		if err != nil {
			return nil, err
		}
		slot := cg.named[lhse.Name]
		if slot == nil {
			return nil, cg.errorf(lhse, "variable '%s' is unknown", lhse.Name)
		}
		cg.bd.CreateStore(val, slot)
		return val, nil
	}

	lhs, err := parse.Walk[ir.Value](e.LHS, cg)
	if err != nil {
		return nil, err
	}
	rhs, err := parse.Walk[ir.Value](e.RHS, cg)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case '+':
		return cg.bd.CreateFAdd(lhs, rhs, "addtmp"), nil
	case '-':
		return cg.bd.CreateFSub(lhs, rhs, "subtmp"), nil
	case '*':
		return cg.bd.CreateFMul(lhs, rhs, "multmp"), nil
	case '<':
		// The comparison yields a 1-bit value; the language has no
		// boolean type, so widen to float64 before use.
		cmp := cg.bd.CreateFCmpOLT(lhs, rhs, "cmptmp")
		return cg.bd.CreateUIToFP(cmp, "booltmp"), nil
	}

	// Not a builtin, so it is a user-defined operator. Its presence in
	// the precedence table implies its definition was already compiled.
	callee := cg.resolveFunction("binary" + string(e.Op))
	if callee == nil {
		panic(fmt.Sprintf("codegen: binary operator '%c' parsed but not resolvable", e.Op))
	}
	return cg.bd.CreateCall(callee, []ir.Value{lhs, rhs}, "binop"), nil
}

func (cg *Codegen) VisitCall(e *parse.CallExpr) (ir.Value, error) {
	callee := cg.resolveFunction(e.Callee)
	if callee == nil {
		return nil, cg.errorf(e, "unknown function called: %s", e.Callee)
	}
	if len(callee.Params) != len(e.Args) {
		return nil, cg.errorf(e, "incorrect number of arguments passed to function: %s",
			e.Callee)
	}

	args := make([]ir.Value, len(e.Args))
	for i, argExpr := range e.Args {
		arg, err := parse.Walk[ir.Value](argExpr, cg)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return cg.bd.CreateCall(callee, args, "calltmp"), nil
}

func (cg *Codegen) VisitIf(e *parse.IfExpr) (ir.Value, error) {
	condVal, err := parse.Walk[ir.Value](e.Cond, cg)
	if err != nil {
		return nil, err
	}
	cond := cg.bd.CreateFCmpONE(condVal, cg.bd.ConstFloat(0), "ifcond")

	fn := cg.bd.InsertBlock().Parent()
	// The then block is attached eagerly; else and merge are attached as
	// insertion reaches them.
	thenBB := cg.bd.NewBlock(fn, "then")
	elseBB := cg.bd.NewBlock(nil, "else")
	mergeBB := cg.bd.NewBlock(nil, "ifcont")

	cg.bd.CreateCondBr(cond, thenBB, elseBB)

	cg.bd.SetInsertPoint(thenBB)
	thenVal, err := parse.Walk[ir.Value](e.Then, cg)
	if err != nil {
		return nil, err
	}
	cg.bd.CreateBr(mergeBB)
	// The arm's own emission may have split control flow; the phi must
	// join on the block the arm actually ended in.
	thenEnd := cg.bd.InsertBlock()

	fn.AddBlock(elseBB)
	cg.bd.SetInsertPoint(elseBB)
	elseVal, err := parse.Walk[ir.Value](e.Else, cg)
	if err != nil {
		return nil, err
	}
	cg.bd.CreateBr(mergeBB)
	elseEnd := cg.bd.InsertBlock()

	fn.AddBlock(mergeBB)
	cg.bd.SetInsertPoint(mergeBB)
	phi := cg.bd.CreatePhi([]ir.Incoming{
		{Value: thenVal, Block: thenEnd},
		{Value: elseVal, Block: elseEnd},
	}, "iftmp")
	return phi, nil
}

func (cg *Codegen) VisitFor(e *parse.ForExpr) (ir.Value, error) {
	fn := cg.bd.InsertBlock().Parent()

	// The induction variable lives in a stack slot so the body may
	// mutate it.
	slot := cg.bd.CreateAllocaInEntry(fn, e.VarName)

	startVal, err := parse.Walk[ir.Value](e.Start, cg)
	if err != nil {
		return nil, err
	}
	cg.bd.CreateStore(startVal, slot)

	loopBB := cg.bd.NewBlock(fn, "loop")
	cg.bd.CreateBr(loopBB)
	cg.bd.SetInsertPoint(loopBB)

	// Shadow any outer binding of the induction variable for the extent
	// of the loop.
	oldSlot, hadOld := cg.named[e.VarName]
	cg.named[e.VarName] = slot

	if _, err := parse.Walk[ir.Value](e.Body, cg); err != nil {
		return nil, err
	}

	var stepVal ir.Value
	if e.Step != nil {
		stepVal, err = parse.Walk[ir.Value](e.Step, cg)
		if err != nil {
			return nil, err
		}
	} else {
		stepVal = cg.bd.ConstFloat(1)
	}

	endVal, err := parse.Walk[ir.Value](e.End, cg)
	if err != nil {
		return nil, err
	}
	endCond := cg.bd.CreateFCmpONE(endVal, cg.bd.ConstFloat(0), "loopcond")

	// Reload rather than reuse the start value: the body may have
	// mutated the induction variable.
	curVar := cg.bd.CreateLoad(slot, e.VarName)
	nextVar := cg.bd.CreateFAdd(curVar, stepVal, "nextvar")
	cg.bd.CreateStore(nextVar, slot)

	afterBB := cg.bd.NewBlock(fn, "afterloop")
	cg.bd.CreateCondBr(endCond, loopBB, afterBB)
	cg.bd.SetInsertPoint(afterBB)

	if hadOld {
		cg.named[e.VarName] = oldSlot
	} else {
		delete(cg.named, e.VarName)
	}

	// A for expression always yields 0.
	return cg.bd.ConstFloat(0), nil
}

func (cg *Codegen) VisitVar(e *parse.VarExpr) (ir.Value, error) {
	fn := cg.bd.InsertBlock().Parent()

	type saved struct {
		name string
		slot *ir.Instr
		had  bool
	}
	olds := make([]saved, 0, len(e.Bindings))

	for _, b := range e.Bindings {
		// Emit the initializer before binding the name, so that
		// `var a = a in ...` refers to the outer a.
		var initVal ir.Value
		if b.Init != nil {
			v, err := parse.Walk[ir.Value](b.Init, cg)
			if err != nil {
				return nil, err
			}
			initVal = v
		} else {
			initVal = cg.bd.ConstFloat(0)
		}

		slot := cg.bd.CreateAllocaInEntry(fn, b.Name)
		cg.bd.CreateStore(initVal, slot)

		old, had := cg.named[b.Name]
		olds = append(olds, saved{b.Name, old, had})
		cg.named[b.Name] = slot
	}

	bodyVal, err := parse.Walk[ir.Value](e.Body, cg)
	if err != nil {
		return nil, err
	}

	for _, s := range olds {
		if s.had {
			cg.named[s.name] = s.slot
		} else {
			delete(cg.named, s.name)
		}
	}
	return bodyVal, nil
}

func (cg *Codegen) VisitPrototype(p *parse.Prototype) (ir.Value, error) {
	return cg.module().NewFunc(p.Name, p.Params), nil
}

func (cg *Codegen) VisitFunc(f *parse.Func) (ir.Value, error) {
	p := f.Prototype()
	name := p.Name
	// Move the prototype into the registry; the registry's copy is what
	// future modules re-declare from.
	cg.sess.Protos.AddPrototype(name, f.TakePrototype())
	fn := cg.resolveFunction(name)
	if fn == nil {
		return nil, cg.errorf(f, "unable to resolve function '%s'", name)
	}
	if !fn.IsDecl() {
		// Redefinition within the same module: start over from a fresh
		// function rather than appending to the old body.
		fn = cg.module().NewFunc(name, p.Params)
	}

	// Make a user-defined binary operator parseable before any call site
	// is examined.
	if p.IsBinaryOp() {
		cg.sess.Ops.Set(p.OperatorGlyph(), p.Precedence)
	}

	entry := cg.bd.NewBlock(fn, "entry")
	cg.bd.SetInsertPoint(entry)

	clear(cg.named)
	for _, param := range fn.Params {
		slot := cg.bd.CreateAllocaInEntry(fn, param.Name)
		cg.bd.CreateStore(param, slot)
		cg.named[param.Name] = slot
	}

	retVal, err := parse.Walk[ir.Value](f.Body, cg)
	if err != nil {
		fn.EraseFromParent()
		return nil, err
	}
	cg.bd.CreateRet(retVal)

	if verr := ir.Verify(fn); verr != nil {
		fn.EraseFromParent()
		return nil, cg.errorf(f, "function failed verification: %v", verr)
	}

	if cg.opt != nil {
		cg.opt.Run(fn)
	}
	return fn, nil
}
