package ir

import "fmt"

// Verify checks the structural well-formedness of a function: every block
// ends in exactly one terminator, terminators do not appear mid-block, and
// branch and phi references stay within the function. Declarations verify
// trivially.
func Verify(f *Func) error {
	if f.IsDecl() {
		return nil
	}
	blocks := make(map[*Block]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		blocks[b] = true
	}
	for _, b := range f.Blocks {
		if len(b.Instrs) == 0 {
			return fmt.Errorf("function %s: block %s is empty", f.Name, b.Name)
		}
		for i, ins := range b.Instrs {
			if ins.IsTerminator() != (i == len(b.Instrs)-1) {
				if ins.IsTerminator() {
					return fmt.Errorf("function %s: block %s has terminator %s mid-block",
						f.Name, b.Name, ins.Op)
				}
				return fmt.Errorf("function %s: block %s does not end in a terminator",
					f.Name, b.Name)
			}
			switch ins.Op {
			case Br:
				if !blocks[ins.Dest] {
					return fmt.Errorf("function %s: branch to foreign block %s",
						f.Name, ins.Dest.Name)
				}
			case CondBr:
				if !blocks[ins.Then] || !blocks[ins.Else] {
					return fmt.Errorf("function %s: conditional branch to foreign block",
						f.Name)
				}
			case Phi:
				if len(ins.Incoming) == 0 {
					return fmt.Errorf("function %s: phi %s with no incoming values",
						f.Name, ins.Name)
				}
				for _, in := range ins.Incoming {
					if !blocks[in.Block] {
						return fmt.Errorf("function %s: phi %s from foreign block %s",
							f.Name, ins.Name, in.Block.Name)
					}
				}
			case Call:
				if len(ins.Args) != len(ins.Callee.Params) {
					return fmt.Errorf("function %s: call to %s with %d args, want %d",
						f.Name, ins.Callee.Name, len(ins.Args), len(ins.Callee.Params))
				}
			}
		}
	}
	return nil
}
