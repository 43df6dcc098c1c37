package rzero

import (
	"encoding/binary"
	"io"
)

const (
	BinaryMagic   uint32 = 0x72303b3e
	BinaryVersion uint32 = 0x00000001
)

// VarScope says which address space a variable's slot lives in.
type VarScope int

const (
	ScopeLocal VarScope = iota
	ScopeGlobal
	ScopeParam
)

// Variable is a resolved storage slot. Offsets are slot indices, not byte
// addresses: parameters start at return_slots, locals and globals at 0.
type Variable struct {
	Scope  VarScope
	Type   VarType
	Offset int32
}

// GlobalDef is one entry of the global table: a 4-byte placeholder for a
// variable, or the UTF-8 bytes of a function name.
type GlobalDef struct {
	IsConst uint8
	Value   []byte
}

// Instruction is an opcode plus its immediate. The opcode decides whether
// Imm is serialized as 32 or 64 bits, or not at all.
type Instruction struct {
	Op  OpCode
	Imm uint64
}

func (i *Instruction) PackInt32Imm(x int32) {
	i.Imm = uint64(uint32(x))
}

// BasicBlock is a straight-line instruction run. If Br is set, the block's
// last instruction is a branch whose immediate is patched to the relative
// distance to Br once every block's offset is known.
type BasicBlock struct {
	Instructions []Instruction
	Br           *BasicBlock
	Offset       int
}

func (b *BasicBlock) push(inst Instruction) {
	b.Instructions = append(b.Instructions, inst)
}

func (b *BasicBlock) last() *Instruction {
	return &b.Instructions[len(b.Instructions)-1]
}

// FuncCode is the compiler-side record of one function in the image.
type FuncCode struct {
	NameIdx     uint32 // index of the name blob in the global table
	ReturnSlots uint32
	ParamSlots  uint32
	LocSlots    uint32
	NumInsts    uint32

	LocalVars map[string]Variable
	Body      []*BasicBlock
}

func NewFuncCode() *FuncCode {
	return &FuncCode{
		LocalVars: make(map[string]Variable),
	}
}

// AddLocalVar assigns the next slot of the given scope. All locals of a
// function share one flat frame.
func (f *FuncCode) AddLocalVar(name string, typ VarType, scope VarScope) {
	v := Variable{
		Scope: scope,
		Type:  typ,
	}

	if scope == ScopeLocal {
		v.Offset = int32(f.LocSlots)
		f.LocSlots++
	} else {
		v.Offset = int32(f.ReturnSlots + f.ParamSlots)
		f.ParamSlots++
	}

	f.LocalVars[name] = v
}

// CalculateJmpOffset lays the blocks out, then patches every pending branch
// with the relative distance from the instruction after the branch to the
// start of the target block.
func (f *FuncCode) CalculateJmpOffset() {
	f.NumInsts = 0

	for _, block := range f.Body {
		block.Offset = int(f.NumInsts)
		f.NumInsts += uint32(len(block.Instructions))
	}

	for _, block := range f.Body {
		if block.Br != nil {
			// The VM's PC has already advanced past the branch when the
			// offset is applied.
			brPos := block.Offset + len(block.Instructions) - 1
			block.last().PackInt32Imm(int32(block.Br.Offset - brPos - 1))
		}
	}
}

// Function is the per-name call record: user functions carry their Pass-1
// function-table offset, builtins a nil Def and their name's global index.
type Function struct {
	HasReturn bool
	Def       *FuncCode
	Offset    uint32
}

// ProgramBinary is the whole image: the global table, the function table,
// and the name maps the code generator resolves against.
type ProgramBinary struct {
	Globals   []GlobalDef
	Functions []*FuncCode

	GlobalVars  map[string]Variable
	FunctionMap map[string]Function
}

func NewProgramBinary() *ProgramBinary {
	return &ProgramBinary{
		GlobalVars:  make(map[string]Variable),
		FunctionMap: make(map[string]Function),
	}
}

// AddGlobalVar reserves a 4-byte placeholder slot; the initial value is
// stored by _start at run time.
func (p *ProgramBinary) AddGlobalVar(name string, typ VarType) {
	p.GlobalVars[name] = Variable{
		Scope:  ScopeGlobal,
		Type:   typ,
		Offset: int32(len(p.Globals)),
	}

	p.Globals = append(p.Globals, GlobalDef{Value: make([]byte, 4)})
}

// AddFuncDef appends a function to the table and its name to the globals.
func (p *ProgramBinary) AddFuncDef(name string, fn *FuncCode) {
	p.FunctionMap[name] = Function{
		HasReturn: fn.ReturnSlots > 0,
		Def:       fn,
		Offset:    uint32(len(p.Functions)),
	}

	p.Functions = append(p.Functions, fn)

	fn.NameIdx = p.addGlobalFuncName(name)
}

// AddBuiltin registers a builtin at its first call site: the name goes into
// the global table and callname carries that index.
func (p *ProgramBinary) AddBuiltin(name string, hasReturn bool) Function {
	fn := Function{
		HasReturn: hasReturn,
		Offset:    p.addGlobalFuncName(name),
	}
	p.FunctionMap[name] = fn

	return fn
}

func (p *ProgramBinary) addGlobalFuncName(name string) uint32 {
	idx := uint32(len(p.Globals))
	p.Globals = append(p.Globals, GlobalDef{Value: []byte(name)})

	return idx
}

// WriteTo serializes the image in the fixed big-endian container format.
func (p *ProgramBinary) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := p.write(cw)

	return cw.n, err
}

func (p *ProgramBinary) write(w io.Writer) error {
	if err := writeU32(w, BinaryMagic); err != nil {
		return err
	}
	if err := writeU32(w, BinaryVersion); err != nil {
		return err
	}

	if err := writeU32(w, uint32(len(p.Globals))); err != nil {
		return err
	}
	for _, global := range p.Globals {
		if err := writeByte(w, global.IsConst); err != nil {
			return err
		}
		if err := writeU32(w, uint32(len(global.Value))); err != nil {
			return err
		}
		if _, err := w.Write(global.Value); err != nil {
			return err
		}
	}

	if err := writeU32(w, uint32(len(p.Functions))); err != nil {
		return err
	}
	for _, fn := range p.Functions {
		if err := p.writeFunc(w, fn); err != nil {
			return err
		}
	}

	return nil
}

func (p *ProgramBinary) writeFunc(w io.Writer, fn *FuncCode) error {
	for _, field := range []uint32{fn.NameIdx, fn.ReturnSlots, fn.ParamSlots, fn.LocSlots, fn.NumInsts} {
		if err := writeU32(w, field); err != nil {
			return err
		}
	}

	for _, block := range fn.Body {
		for _, inst := range block.Instructions {
			if err := writeByte(w, byte(inst.Op)); err != nil {
				return err
			}

			switch inst.Op.ImmWidth() {
			case 32:
				if err := writeU32(w, uint32(inst.Imm)); err != nil {
					return err
				}
			case 64:
				if err := writeU64(w, inst.Imm); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func writeU32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.BigEndian, v)
}

func writeU64(w io.Writer, v uint64) error {
	return binary.Write(w, binary.BigEndian, v)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)

	return n, err
}
