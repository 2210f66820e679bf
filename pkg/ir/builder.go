package ir

import "strconv"

// Builder constructs IR with an explicit insertion point, in the manner of
// an LLVM IRBuilder. All Create methods except [Builder.CreateAllocaInEntry]
// append to the current insert block; the name arguments are hints for
// listings only.
type Builder struct {
	insert  *Block
	nameSeq int
}

// NewBuilder creates a Builder with no insertion point.
func NewBuilder() *Builder { return &Builder{} }

// SetInsertPoint makes subsequent instructions append to b.
func (bd *Builder) SetInsertPoint(b *Block) { bd.insert = b }

// InsertBlock returns the current insert block.
func (bd *Builder) InsertBlock() *Block { return bd.insert }

// NewBlock creates a block with the given name. If fn is non-nil the block
// is attached to it immediately; otherwise it stays detached until
// [Func.AddBlock].
func (bd *Builder) NewBlock(fn *Func, name string) *Block {
	b := &Block{Name: name}
	if fn != nil {
		fn.AddBlock(b)
	}
	return b
}

// ConstFloat returns a float64 constant value.
func (bd *Builder) ConstFloat(v float64) Value { return &Const{Val: v} }

func (bd *Builder) append(i *Instr) *Instr {
	if i.Name == "" && i.Op != Store && i.Op != Br && i.Op != CondBr && i.Op != Ret {
		bd.nameSeq++
		i.Name = "t" + strconv.Itoa(bd.nameSeq)
	}
	i.parent = bd.insert
	bd.insert.Instrs = append(bd.insert.Instrs, i)
	return i
}

// CreateFAdd emits lhs + rhs.
func (bd *Builder) CreateFAdd(lhs, rhs Value, name string) Value {
	return bd.append(&Instr{Op: FAdd, Name: name, Args: []Value{lhs, rhs}})
}

// CreateFSub emits lhs - rhs.
func (bd *Builder) CreateFSub(lhs, rhs Value, name string) Value {
	return bd.append(&Instr{Op: FSub, Name: name, Args: []Value{lhs, rhs}})
}

// CreateFMul emits lhs * rhs.
func (bd *Builder) CreateFMul(lhs, rhs Value, name string) Value {
	return bd.append(&Instr{Op: FMul, Name: name, Args: []Value{lhs, rhs}})
}

// CreateFCmpOLT emits an ordered less-than comparison yielding a 1-bit
// value.
func (bd *Builder) CreateFCmpOLT(lhs, rhs Value, name string) Value {
	return bd.append(&Instr{Op: FCmpOLT, Name: name, Args: []Value{lhs, rhs}})
}

// CreateFCmpONE emits an ordered not-equal comparison yielding a 1-bit
// value.
func (bd *Builder) CreateFCmpONE(lhs, rhs Value, name string) Value {
	return bd.append(&Instr{Op: FCmpONE, Name: name, Args: []Value{lhs, rhs}})
}

// CreateUIToFP widens a 1-bit value to float64.
func (bd *Builder) CreateUIToFP(v Value, name string) Value {
	return bd.append(&Instr{Op: UIToFP, Name: name, Args: []Value{v}})
}

// CreateAllocaInEntry creates a float64 stack slot in the entry block of fn,
// before its first instruction, so that every named variable has a single
// addressable home for the whole function.
func (bd *Builder) CreateAllocaInEntry(fn *Func, name string) *Instr {
	a := &Instr{Op: Alloca, Name: name}
	entry := fn.Entry()
	a.parent = entry
	entry.Instrs = append([]*Instr{a}, entry.Instrs...)
	return a
}

// CreateLoad emits a load from a stack slot.
func (bd *Builder) CreateLoad(slot *Instr, name string) Value {
	return bd.append(&Instr{Op: Load, Name: name, Args: []Value{slot}})
}

// CreateStore emits a store of v into a stack slot.
func (bd *Builder) CreateStore(v Value, slot *Instr) {
	bd.append(&Instr{Op: Store, Args: []Value{v, slot}})
}

// CreateBr emits an unconditional branch.
func (bd *Builder) CreateBr(dest *Block) {
	bd.append(&Instr{Op: Br, Dest: dest})
}

// CreateCondBr emits a conditional branch on a 1-bit value.
func (bd *Builder) CreateCondBr(cond Value, then, els *Block) {
	bd.append(&Instr{Op: CondBr, Args: []Value{cond}, Then: then, Else: els})
}

// CreatePhi emits a phi join selecting a value by predecessor block.
func (bd *Builder) CreatePhi(incoming []Incoming, name string) Value {
	return bd.append(&Instr{Op: Phi, Name: name, Incoming: incoming})
}

// CreateCall emits a call to callee.
func (bd *Builder) CreateCall(callee *Func, args []Value, name string) Value {
	return bd.append(&Instr{Op: Call, Name: name, Callee: callee, Args: args})
}

// CreateRet emits a return.
func (bd *Builder) CreateRet(v Value) {
	bd.append(&Instr{Op: Ret, Args: []Value{v}})
}
