// Package ir defines the linear IR that the codegen walker emits: modules of
// functions made of basic blocks of instructions, in SSA-with-allocas form.
// The package also provides the [Builder] used to construct IR, a [Verify]
// pass, and an interpreting [Engine] that executes finished modules in place
// of a JIT.
//
// The only first-class value type is float64.
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is anything an instruction can use as an operand: constants,
// function parameters and the results of other instructions.
type Value interface {
	valueString() string
}

// Const is a float64 constant.
type Const struct {
	Val float64
}

func (c *Const) valueString() string {
	return strconv.FormatFloat(c.Val, 'g', -1, 64)
}

// Param is a formal parameter of a function.
type Param struct {
	Name string
	Idx  int
}

func (p *Param) valueString() string { return "%" + p.Name }

// Op enumerates instruction opcodes. The set is exactly the builder surface
// the codegen needs.
type Op int

const (
	FAdd Op = iota
	FSub
	FMul
	FCmpOLT // ordered less-than; produces a 1-bit value
	FCmpONE // ordered not-equal; produces a 1-bit value
	UIToFP  // widen a 1-bit value to float64 (0.0 or 1.0)
	Alloca
	Load
	Store
	Br
	CondBr
	Phi
	Call
	Ret
)

var opNames = [...]string{
	FAdd: "fadd", FSub: "fsub", FMul: "fmul",
	FCmpOLT: "fcmp olt", FCmpONE: "fcmp one", UIToFP: "uitofp",
	Alloca: "alloca", Load: "load", Store: "store",
	Br: "br", CondBr: "condbr", Phi: "phi", Call: "call", Ret: "ret",
}

func (op Op) String() string { return opNames[op] }

// Incoming is one (value, predecessor block) pair of a Phi instruction.
type Incoming struct {
	Value Value
	Block *Block
}

// Instr is a single instruction. Which fields are meaningful depends on Op:
// Args holds operands, Dest/Then/Else hold branch targets, Callee holds the
// call target and Incoming holds phi inputs.
type Instr struct {
	Op   Op
	Name string
	Args []Value

	Dest       *Block // Br
	Then, Else *Block // CondBr
	Callee     *Func  // Call
	Incoming   []Incoming

	parent *Block
}

func (i *Instr) valueString() string { return "%" + i.Name }

// Parent returns the block containing the instruction.
func (i *Instr) Parent() *Block { return i.parent }

// IsTerminator reports whether the instruction ends a block.
func (i *Instr) IsTerminator() bool {
	return i.Op == Br || i.Op == CondBr || i.Op == Ret
}

// Block is a basic block: a named, ordered list of instructions, ending in
// exactly one terminator once the function is complete.
type Block struct {
	Name   string
	Instrs []*Instr

	parent *Func
}

// Parent returns the function the block is attached to, or nil for a block
// created detached.
func (b *Block) Parent() *Func { return b.parent }

// Terminator returns the block's final instruction if it is a terminator,
// otherwise nil.
func (b *Block) Terminator() *Instr {
	if n := len(b.Instrs); n > 0 && b.Instrs[n-1].IsTerminator() {
		return b.Instrs[n-1]
	}
	return nil
}

// Func is an IR function of type (float64...) -> float64 with external
// linkage. A function with no blocks is a declaration.
type Func struct {
	Name   string
	Params []*Param
	Blocks []*Block

	parent *Module
}

// A function is itself a value, as a call target.
func (f *Func) valueString() string { return "@" + f.Name }

// IsDecl reports whether the function is a declaration without a body.
func (f *Func) IsDecl() bool { return len(f.Blocks) == 0 }

// Parent returns the module the function belongs to.
func (f *Func) Parent() *Module { return f.parent }

// Entry returns the function's entry block, or nil for a declaration.
func (f *Func) Entry() *Block {
	if f.IsDecl() {
		return nil
	}
	return f.Blocks[0]
}

// AddBlock appends a block to the function and returns it.
func (f *Func) AddBlock(b *Block) *Block {
	b.parent = f
	f.Blocks = append(f.Blocks, b)
	return b
}

// EraseFromParent removes the function from its module, as when a function
// body failed verification or emission.
func (f *Func) EraseFromParent() {
	m := f.parent
	if m == nil {
		return
	}
	for i, g := range m.Funcs {
		if g == f {
			m.Funcs = append(m.Funcs[:i], m.Funcs[i+1:]...)
			break
		}
	}
	if m.byName[f.Name] == f {
		delete(m.byName, f.Name)
	}
	f.parent = nil
}

// Module is one compilation unit: an ordered collection of functions.
type Module struct {
	Name   string
	Funcs  []*Func
	byName map[string]*Func
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, byName: make(map[string]*Func)}
}

// Func returns the function with the given name, or nil.
func (m *Module) Func(name string) *Func {
	return m.byName[name]
}

// NewFunc creates a function of type (float64...) -> float64 with the given
// name and parameter names, adds it to the module, and returns it. A
// previous function with the same name is replaced.
func (m *Module) NewFunc(name string, paramNames []string) *Func {
	f := &Func{Name: name, parent: m}
	for i, pn := range paramNames {
		f.Params = append(f.Params, &Param{Name: pn, Idx: i})
	}
	if old := m.byName[name]; old != nil {
		old.EraseFromParent()
	}
	m.Funcs = append(m.Funcs, f)
	m.byName[name] = f
	return f
}

// String renders the module in a readable listing, for tests and debugging.
func (m *Module) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; module %s\n", m.Name)
	for _, f := range m.Funcs {
		sb.WriteString(f.String())
	}
	return sb.String()
}

func (f *Func) String() string {
	var sb strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = "%" + p.Name
	}
	if f.IsDecl() {
		fmt.Fprintf(&sb, "declare @%s(%s)\n", f.Name, strings.Join(params, ", "))
		return sb.String()
	}
	fmt.Fprintf(&sb, "define @%s(%s) {\n", f.Name, strings.Join(params, ", "))
	for _, b := range f.Blocks {
		fmt.Fprintf(&sb, "%s:\n", b.Name)
		for _, ins := range b.Instrs {
			fmt.Fprintf(&sb, "  %s\n", ins.listing())
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func (i *Instr) listing() string {
	args := make([]string, len(i.Args))
	for j, a := range i.Args {
		args[j] = a.valueString()
	}
	switch i.Op {
	case Br:
		return fmt.Sprintf("br %s", i.Dest.Name)
	case CondBr:
		return fmt.Sprintf("condbr %s, %s, %s", args[0], i.Then.Name, i.Else.Name)
	case Call:
		return fmt.Sprintf("%%%s = call @%s(%s)", i.Name, i.Callee.Name, strings.Join(args, ", "))
	case Phi:
		ins := make([]string, len(i.Incoming))
		for j, in := range i.Incoming {
			ins[j] = fmt.Sprintf("[%s, %s]", in.Value.valueString(), in.Block.Name)
		}
		return fmt.Sprintf("%%%s = phi %s", i.Name, strings.Join(ins, ", "))
	case Ret:
		return fmt.Sprintf("ret %s", args[0])
	case Store:
		return fmt.Sprintf("store %s, %s", args[0], args[1])
	case Alloca:
		return fmt.Sprintf("%%%s = alloca", i.Name)
	default:
		return fmt.Sprintf("%%%s = %s %s", i.Name, i.Op, strings.Join(args, ", "))
	}
}
