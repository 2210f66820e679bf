package shell

import (
	"github.com/kales-lang/kales/pkg/ir"
)

// defaultOptimizer returns the optimizer used when the rc file enables
// optimization: a single constant-folding pass. The full pass pipeline
// belongs to the backend, not this driver.
func defaultOptimizer() ir.Optimizer {
	return ir.OptimizerFunc(foldConstants)
}

// foldConstants replaces pure instructions whose operands are all constants
// with constant values, and drops the folded instructions.
func foldConstants(f *ir.Func) {
	folded := make(map[*ir.Instr]*ir.Const)

	resolve := func(v ir.Value) ir.Value {
		if ins, ok := v.(*ir.Instr); ok {
			if c, ok := folded[ins]; ok {
				return c
			}
		}
		return v
	}
	asConst := func(v ir.Value) (float64, bool) {
		c, ok := resolve(v).(*ir.Const)
		if !ok {
			return 0, false
		}
		return c.Val, true
	}

	for _, b := range f.Blocks {
		kept := b.Instrs[:0]
		for _, ins := range b.Instrs {
			for i, a := range ins.Args {
				ins.Args[i] = resolve(a)
			}
			for i := range ins.Incoming {
				ins.Incoming[i].Value = resolve(ins.Incoming[i].Value)
			}

			var val float64
			fold := false
			switch ins.Op {
			case ir.FAdd, ir.FSub, ir.FMul, ir.FCmpOLT, ir.FCmpONE:
				x, okx := asConst(ins.Args[0])
				y, oky := asConst(ins.Args[1])
				if okx && oky {
					fold = true
					switch ins.Op {
					case ir.FAdd:
						val = x + y
					case ir.FSub:
						val = x - y
					case ir.FMul:
						val = x * y
					case ir.FCmpOLT:
						if x < y {
							val = 1
						}
					case ir.FCmpONE:
						if x != y {
							val = 1
						}
					}
				}
			case ir.UIToFP:
				if x, ok := asConst(ins.Args[0]); ok {
					fold = true
					val = x
				}
			}

			if fold {
				folded[ins] = &ir.Const{Val: val}
				continue
			}
			kept = append(kept, ins)
		}
		b.Instrs = kept
	}
}
