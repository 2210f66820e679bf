package ir

import (
	"fmt"
)

// HostFunc is a host-provided implementation of an external function.
type HostFunc func(args ...float64) float64

// Engine executes finished modules. It stands in for the JIT collaborator:
// the driver hands each completed module to the engine, looks up symbols by
// name and calls them. Functions from later modules shadow earlier ones of
// the same name; declaration-only functions resolve against defined
// functions from other modules, then against the host-function table.
type Engine struct {
	funcs map[string]*Func
	host  map[string]HostFunc
}

// NewEngine creates an Engine with an empty symbol table.
func NewEngine() *Engine {
	return &Engine{
		funcs: make(map[string]*Func),
		host:  make(map[string]HostFunc),
	}
}

// AddHost installs a host function under the given name. Host functions are
// consulted when no module defines the symbol.
func (e *Engine) AddHost(name string, fn HostFunc) {
	e.host[name] = fn
}

// AddModule takes ownership of a finished module, registering all defined
// functions. The module must not be mutated afterwards.
func (e *Engine) AddModule(m *Module) {
	for _, f := range m.Funcs {
		if !f.IsDecl() {
			e.funcs[f.Name] = f
		}
	}
}

// Lookup returns the defined function with the given name, or nil.
func (e *Engine) Lookup(name string) *Func {
	return e.funcs[name]
}

// Remove drops the symbol with the given name, as the driver does with the
// anonymous expression wrapper after executing it.
func (e *Engine) Remove(name string) {
	delete(e.funcs, name)
}

// Call executes the named function with the given arguments.
func (e *Engine) Call(name string, args ...float64) (float64, error) {
	f := e.funcs[name]
	if f == nil {
		if h := e.host[name]; h != nil {
			return h(args...), nil
		}
		return 0, fmt.Errorf("undefined function %q", name)
	}
	return e.call(f, args, 0)
}

const maxCallDepth = 10000

func (e *Engine) call(f *Func, args []float64, depth int) (float64, error) {
	if depth > maxCallDepth {
		return 0, fmt.Errorf("call depth exceeded in %q", f.Name)
	}
	if f.IsDecl() {
		// Resolve the declaration the way the JIT resolves an external
		// symbol: a definition from another module wins, then the host.
		if def := e.funcs[f.Name]; def != nil && def != f {
			return e.call(def, args, depth)
		}
		if h := e.host[f.Name]; h != nil {
			return h(args...), nil
		}
		return 0, fmt.Errorf("undefined external function %q", f.Name)
	}
	if len(args) != len(f.Params) {
		return 0, fmt.Errorf("function %q called with %d args, want %d",
			f.Name, len(args), len(f.Params))
	}

	regs := make(map[*Instr]float64)
	slots := make(map[*Instr]float64)

	eval := func(v Value) float64 {
		switch v := v.(type) {
		case *Const:
			return v.Val
		case *Param:
			return args[v.Idx]
		case *Instr:
			return regs[v]
		default:
			panic(fmt.Sprintf("ir: unknown value type %T", v))
		}
	}

	block := f.Blocks[0]
	var prev *Block
	for {
		var next *Block
		for _, ins := range block.Instrs {
			switch ins.Op {
			case FAdd:
				regs[ins] = eval(ins.Args[0]) + eval(ins.Args[1])
			case FSub:
				regs[ins] = eval(ins.Args[0]) - eval(ins.Args[1])
			case FMul:
				regs[ins] = eval(ins.Args[0]) * eval(ins.Args[1])
			case FCmpOLT:
				if eval(ins.Args[0]) < eval(ins.Args[1]) {
					regs[ins] = 1
				} else {
					regs[ins] = 0
				}
			case FCmpONE:
				if eval(ins.Args[0]) != eval(ins.Args[1]) {
					regs[ins] = 1
				} else {
					regs[ins] = 0
				}
			case UIToFP:
				regs[ins] = eval(ins.Args[0])
			case Alloca:
				if _, ok := slots[ins]; !ok {
					slots[ins] = 0
				}
			case Load:
				regs[ins] = slots[ins.Args[0].(*Instr)]
			case Store:
				slots[ins.Args[1].(*Instr)] = eval(ins.Args[0])
			case Phi:
				found := false
				for _, in := range ins.Incoming {
					if in.Block == prev {
						regs[ins] = eval(in.Value)
						found = true
						break
					}
				}
				if !found {
					return 0, fmt.Errorf("phi %q in %q has no incoming for predecessor",
						ins.Name, f.Name)
				}
			case Call:
				callArgs := make([]float64, len(ins.Args))
				for i, a := range ins.Args {
					callArgs[i] = eval(a)
				}
				ret, err := e.call(ins.Callee, callArgs, depth+1)
				if err != nil {
					return 0, err
				}
				regs[ins] = ret
			case Br:
				next = ins.Dest
			case CondBr:
				if eval(ins.Args[0]) != 0 {
					next = ins.Then
				} else {
					next = ins.Else
				}
			case Ret:
				return eval(ins.Args[0]), nil
			}
		}
		if next == nil {
			return 0, fmt.Errorf("block %q in %q fell through without a terminator",
				block.Name, f.Name)
		}
		prev, block = block, next
	}
}
