package rzero

// OpCode is a VM instruction byte. The width of an instruction's immediate
// is a static property of its opcode.
type OpCode uint8

const (
	OpNop        OpCode = 0x00
	OpPush       OpCode = 0x01
	OpPop        OpCode = 0x02
	OpLoca       OpCode = 0x0a
	OpArga       OpCode = 0x0b
	OpGloba      OpCode = 0x0c
	OpLoad64     OpCode = 0x13
	OpStore64    OpCode = 0x17
	OpStackAlloc OpCode = 0x1a
	OpAddI       OpCode = 0x20
	OpSubI       OpCode = 0x21
	OpMulI       OpCode = 0x22
	OpDivI       OpCode = 0x23
	OpAddF       OpCode = 0x24
	OpSubF       OpCode = 0x25
	OpMulF       OpCode = 0x26
	OpDivF       OpCode = 0x27
	OpNot        OpCode = 0x2e
	OpCmpI       OpCode = 0x30
	OpCmpF       OpCode = 0x32
	OpNegI       OpCode = 0x34
	OpNegF       OpCode = 0x35
	OpSetLt      OpCode = 0x39
	OpSetGt      OpCode = 0x3a
	OpBr         OpCode = 0x41
	OpBrFalse    OpCode = 0x42
	OpBrTrue     OpCode = 0x43
	OpCall       OpCode = 0x48
	OpRet        OpCode = 0x49
	OpCallname   OpCode = 0x4a
)

var opcodeNames = map[OpCode]string{
	OpNop:        "nop",
	OpPush:       "push",
	OpPop:        "pop",
	OpLoca:       "loca",
	OpArga:       "arga",
	OpGloba:      "globa",
	OpLoad64:     "load64",
	OpStore64:    "store64",
	OpStackAlloc: "stackalloc",
	OpAddI:       "addI",
	OpSubI:       "subI",
	OpMulI:       "mulI",
	OpDivI:       "divI",
	OpAddF:       "addF",
	OpSubF:       "subF",
	OpMulF:       "mulF",
	OpDivF:       "divF",
	OpNot:        "not",
	OpCmpI:       "cmpI",
	OpCmpF:       "cmpF",
	OpNegI:       "negI",
	OpNegF:       "negF",
	OpSetLt:      "setLt",
	OpSetGt:      "setGt",
	OpBr:         "br",
	OpBrFalse:    "brFalse",
	OpBrTrue:     "brTrue",
	OpCall:       "call",
	OpRet:        "ret",
	OpCallname:   "callname",
}

func (op OpCode) String() string {
	return opcodeNames[op]
}

// ImmWidth returns the immediate width in bits: 0, 32 or 64.
func (op OpCode) ImmWidth() int {
	switch op {
	case OpPush:
		return 64
	case OpLoca, OpArga, OpGloba, OpStackAlloc,
		OpBr, OpBrFalse, OpBrTrue, OpCall, OpCallname:
		return 32
	default:
		return 0
	}
}
