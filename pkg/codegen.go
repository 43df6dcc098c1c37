package rzero

import (
	"math"
	"strconv"
)

// CodeGen lowers an analyzed program to the VM image in two passes: the
// first lays out storage slots, the second emits instructions into basic
// blocks and patches branch offsets.
type CodeGen struct {
	program *ProgramBinary
	fn      *FuncCode
	codes   *BasicBlock
}

func NewCodeGen() *CodeGen {
	return &CodeGen{
		program: NewProgramBinary(),
	}
}

// Run expects a program the type checker has accepted.
func (g *CodeGen) Run(program *Program) *ProgramBinary {
	for _, decl := range program.Globals {
		g.program.AddGlobalVar(decl.Name, decl.Type)
	}

	for _, fn := range program.Functions {
		g.allocFunc(fn)
	}
	g.addStartFunc()

	g.genStartFunc(program)
	for _, fn := range program.Functions {
		g.genFunc(fn)
	}

	return g.program
}

// allocFunc assigns the function's slots: one return slot unless void,
// parameters in order above it, then one local slot per declaration at the
// body's top level.
func (g *CodeGen) allocFunc(node *FuncDef) {
	fn := NewFuncCode()

	if node.ReturnType != TypeVoid {
		fn.ReturnSlots = 1
	}

	for _, param := range node.Params {
		fn.AddLocalVar(param.Name, param.Type, ScopeParam)
	}

	for _, stmt := range node.Body.Statements {
		if decl, ok := stmt.(*DeclStmt); ok {
			fn.AddLocalVar(decl.Name, decl.Type, ScopeLocal)
		}
	}

	g.program.AddFuncDef(node.Name, fn)
}

func (g *CodeGen) addStartFunc() {
	g.program.AddFuncDef("_start", NewFuncCode())
}

// genStartFunc fills the entry function: it stores every initialized
// global before user code can run.
func (g *CodeGen) genStartFunc(program *Program) {
	g.codes = &BasicBlock{}

	for _, decl := range program.Globals {
		if decl.Init == nil {
			continue
		}

		g.assignToVar(decl.Name, decl.Init)
	}

	g.sealFunc(g.program.FunctionMap["_start"].Def)
}

func (g *CodeGen) genFunc(node *FuncDef) {
	g.fn = g.program.FunctionMap[node.Name].Def
	g.codes = &BasicBlock{}

	g.genBlock(node.Body)
	g.sealFunc(g.fn)

	g.fn = nil
}

// sealFunc terminates the open block with ret if needed, transfers it into
// the function, and resolves the function's branch offsets.
func (g *CodeGen) sealFunc(fn *FuncCode) {
	if len(g.codes.Instructions) == 0 || g.codes.last().Op != OpRet {
		g.genCode(OpRet)
	}

	fn.Body = append(fn.Body, g.codes)
	g.codes = nil

	fn.CalculateJmpOffset()
}

func (g *CodeGen) genBlock(block *BlockStmt) {
	for _, stmt := range block.Statements {
		g.genStmt(stmt)
	}
}

func (g *CodeGen) genStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *ExprStmt:
		g.genExpr(s.Expr)
	case *DeclStmt:
		if s.Init != nil {
			g.assignToVar(s.Name, s.Init)
		}
	case *BlockStmt:
		g.genBlock(s)
	case *IfStmt:
		g.genIf(s)
	case *WhileStmt:
		g.genWhile(s)
	case *ReturnStmt:
		g.genReturn(s)
	}
}

func (g *CodeGen) genIf(node *IfStmt) {
	next := &BasicBlock{}
	end := &BasicBlock{}

	g.genCondBody(node.If, next, end)

	for _, arm := range node.Elifs {
		g.fn.Body = append(g.fn.Body, g.codes)
		g.codes = next
		next = &BasicBlock{}
		g.genCondBody(arm, next, end)
	}

	g.fn.Body = append(g.fn.Body, g.codes)
	g.codes = next

	if node.Else != nil {
		g.genBlock(node.Else)
	}

	g.fn.Body = append(g.fn.Body, g.codes)
	g.codes = end
}

// genCondBody emits one condition/body arm: fall into the body when the
// condition holds, otherwise branch to next; the body branches on to end.
func (g *CodeGen) genCondBody(arm CondBody, next, end *BasicBlock) {
	g.genExpr(arm.Cond)
	g.genCodeU32(OpBrFalse, 0)
	g.codes.Br = next

	g.createNewCodeBlock()
	g.genBlock(arm.Body)
	g.genCodeU32(OpBr, 0)
	g.codes.Br = end
}

func (g *CodeGen) genWhile(node *WhileStmt) {
	g.createNewCodeBlock()
	condBlock := g.codes
	g.genExpr(node.Cond)
	g.genCodeU32(OpBrFalse, 0)

	g.createNewCodeBlock()
	g.genBlock(node.Body)
	g.genCodeU32(OpBr, 0)
	g.codes.Br = condBlock

	g.createNewCodeBlock()
	condBlock.Br = g.codes
}

// createNewCodeBlock seals the open block into the current function and
// starts a fresh one.
func (g *CodeGen) createNewCodeBlock() {
	if g.codes != nil {
		g.fn.Body = append(g.fn.Body, g.codes)
	}

	g.codes = &BasicBlock{}
}

func (g *CodeGen) genReturn(node *ReturnStmt) {
	if node.Expr != nil {
		g.genCodeU32(OpArga, 0)
		g.storeExpr(node.Expr)
	}

	g.genCode(OpRet)
}

func (g *CodeGen) genExpr(expr Expr) {
	switch e := expr.(type) {
	case *LiteralExpr:
		g.genLiteral(e)
	case *IdentExpr:
		g.pushVarAddr(e.Name)
		g.genCode(OpLoad64)
	case *AssignExpr:
		g.assignToVar(e.Lhs, e.Rhs)
	case *NegateExpr:
		g.genExpr(e.Operand)
		if e.Typ.Type == TypeInt {
			g.genCode(OpNegI)
		} else {
			g.genCode(OpNegF)
		}
	case *BinaryExpr:
		g.genBinary(e)
	case *CallExpr:
		g.genCall(e)
	}
}

func (g *CodeGen) genLiteral(node *LiteralExpr) {
	if node.Typ.Type == TypeInt {
		// ParseInt clamps on overflow; the clamped value is wanted.
		v, _ := strconv.ParseInt(node.Lexeme, 10, 64)
		g.pushInt(v)
	} else {
		v, _ := strconv.ParseFloat(node.Lexeme, 64)
		g.pushDouble(v)
	}
}

func (g *CodeGen) genBinary(node *BinaryExpr) {
	g.genExpr(node.Left)
	g.genExpr(node.Right)

	// Arithmetic picks its variant by the result type; comparisons by the
	// operand type, since their own type is always bool.
	switch node.Op {
	case TokenMul:
		g.genArith(OpMulI, OpMulF, node.Typ.Type)
	case TokenDiv:
		g.genArith(OpDivI, OpDivF, node.Typ.Type)
	case TokenMinus:
		g.genArith(OpSubI, OpSubF, node.Typ.Type)
	case TokenPlus:
		g.genArith(OpAddI, OpAddF, node.Typ.Type)
	case TokenGt:
		g.compare(node.Left.ExprType().Type)
		g.genCode(OpSetGt)
	case TokenLt:
		g.compare(node.Left.ExprType().Type)
		g.genCode(OpSetLt)
	case TokenGe:
		g.compare(node.Left.ExprType().Type)
		g.genCode(OpSetLt)
		g.genCode(OpNot)
	case TokenLe:
		g.compare(node.Left.ExprType().Type)
		g.genCode(OpSetGt)
		g.genCode(OpNot)
	case TokenEq:
		g.compare(node.Left.ExprType().Type)
		g.genCode(OpNot)
	case TokenNeq:
		g.compare(node.Left.ExprType().Type)
	}
}

func (g *CodeGen) genArith(intOp, doubleOp OpCode, typ VarType) {
	if typ == TypeInt {
		g.genCode(intOp)
	} else {
		g.genCode(doubleOp)
	}
}

// compare leaves -1, 0 or +1 on the stack; setLt/setGt/not refine it.
func (g *CodeGen) compare(typ VarType) {
	if typ == TypeInt {
		g.genCode(OpCmpI)
	} else {
		g.genCode(OpCmpF)
	}
}

func (g *CodeGen) genCall(node *CallExpr) {
	fn, ok := g.program.FunctionMap[node.Callee]
	if !ok {
		// First call of a builtin; register its name in the global table.
		fn = g.program.AddBuiltin(node.Callee, node.Typ.Type != TypeVoid)
	}

	if fn.HasReturn {
		g.stackAlloc(uint32(1 + len(node.Args)))
	} else {
		g.stackAlloc(uint32(len(node.Args)))
	}

	for _, arg := range node.Args {
		g.genExpr(arg)
	}

	if fn.Def == nil {
		g.genCodeU32(OpCallname, fn.Offset)
	} else {
		g.genCodeU32(OpCall, fn.Offset)
	}
}

func (g *CodeGen) lookUpVar(name string) Variable {
	if g.fn != nil {
		if v, ok := g.fn.LocalVars[name]; ok {
			return v
		}
	}

	if v, ok := g.program.GlobalVars[name]; ok {
		return v
	}

	// The type checker makes sure this doesn't happen
	panic("undefined variable: " + name)
}

func (g *CodeGen) pushVarAddr(name string) {
	v := g.lookUpVar(name)

	switch v.Scope {
	case ScopeLocal:
		g.genCodeU32(OpLoca, uint32(v.Offset))
	case ScopeGlobal:
		g.genCodeU32(OpGloba, uint32(v.Offset))
	default:
		g.genCodeU32(OpArga, uint32(v.Offset))
	}
}

func (g *CodeGen) assignToVar(name string, expr Expr) {
	g.pushVarAddr(name)
	g.storeExpr(expr)
}

func (g *CodeGen) storeExpr(expr Expr) {
	g.genExpr(expr)
	g.genCode(OpStore64)
}

func (g *CodeGen) pushInt(x int64) {
	g.genCodeU64(OpPush, uint64(x))
}

func (g *CodeGen) pushDouble(x float64) {
	g.genCodeU64(OpPush, math.Float64bits(x))
}

func (g *CodeGen) stackAlloc(n uint32) {
	g.genCodeU32(OpStackAlloc, n)
}

func (g *CodeGen) genCode(op OpCode) {
	g.codes.push(Instruction{Op: op})
}

func (g *CodeGen) genCodeU32(op OpCode, x uint32) {
	g.codes.push(Instruction{Op: op, Imm: uint64(x)})
}

func (g *CodeGen) genCodeU64(op OpCode, x uint64) {
	g.codes.push(Instruction{Op: op, Imm: x})
}
