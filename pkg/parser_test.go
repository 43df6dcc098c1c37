package rzero

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type BufferedTokenizerMocker struct {
	buf []Token
	pos int
}

func NewBufferedTokenizerMocker(toks []Token) *BufferedTokenizerMocker {
	return &BufferedTokenizerMocker{
		buf: toks,
		pos: 0,
	}
}

func (b *BufferedTokenizerMocker) Get() Token {
	if len(b.buf) <= b.pos {
		return Token{Typ: TokenEOF}
	}

	tok := b.buf[b.pos]
	b.pos++

	return tok
}

func (b *BufferedTokenizerMocker) Peek(i int) Token {
	if len(b.buf) <= b.pos+i {
		return Token{Typ: TokenEOF}
	}

	return b.buf[b.pos+i]
}

func (b *BufferedTokenizerMocker) Filename() string {
	return "testing"
}

func parseSource(src string) (*Program, error) {
	s := NewScanner("testing", strings.NewReader(src))
	if err := s.ScanAll(); err != nil {
		return nil, err
	}

	return NewParser(s).Run()
}

func TestParser(t *testing.T) {
	cases := []struct {
		data   []Token
		fail   bool
		expect *Program
	}{
		{
			[]Token{
				{TokenFn, "fn", Position{}},
				{TokenIdent, "main", Position{}},
				{TokenLParen, "", Position{}},
				{TokenRParen, "", Position{}},
				{TokenArrow, "", Position{}},
				{TokenIdent, "void", Position{}},
				{TokenLBrace, "", Position{}},
				{TokenRBrace, "", Position{}},
			},
			false,
			&Program{
				Functions: []*FuncDef{
					{
						Name:       "main",
						ReturnType: TypeVoid,
						Body:       &BlockStmt{IsFuncBody: true},
					},
				},
			},
		},
		{
			[]Token{
				{TokenLet, "let", Position{}},
				{TokenIdent, "x", Position{}},
				{TokenColon, "", Position{}},
				{TokenIdent, "int", Position{}},
				{TokenAssign, "", Position{}},
				{TokenIntLiteral, "7", Position{}},
				{TokenSemicolon, "", Position{}},
			},
			false,
			&Program{
				Globals: []*DeclStmt{
					{
						Name: "x",
						Type: TypeInt,
						Init: &LiteralExpr{
							exprBase: exprBase{Typ: ExprType{Type: TypeInt, IsConst: true}},
							Lexeme:   "7",
						},
					},
				},
			},
		},
		{
			[]Token{
				{TokenConst, "const", Position{}},
				{TokenIdent, "pi", Position{}},
				{TokenColon, "", Position{}},
				{TokenIdent, "double", Position{}},
				{TokenAssign, "", Position{}},
				{TokenDoubleLiteral, "3.14", Position{}},
				{TokenSemicolon, "", Position{}},
			},
			false,
			&Program{
				Globals: []*DeclStmt{
					{
						Name:    "pi",
						Type:    TypeDouble,
						IsConst: true,
						Init: &LiteralExpr{
							exprBase: exprBase{Typ: ExprType{Type: TypeDouble, IsConst: true}},
							Lexeme:   "3.14",
						},
					},
				},
			},
		},
		{
			// const requires an initializer
			[]Token{
				{TokenConst, "const", Position{}},
				{TokenIdent, "x", Position{}},
				{TokenColon, "", Position{}},
				{TokenIdent, "int", Position{}},
				{TokenSemicolon, "", Position{}},
			},
			true,
			nil,
		},
		{
			// bool is not a nameable type
			[]Token{
				{TokenLet, "let", Position{}},
				{TokenIdent, "x", Position{}},
				{TokenColon, "", Position{}},
				{TokenIdent, "bool", Position{}},
				{TokenSemicolon, "", Position{}},
			},
			true,
			nil,
		},
	}

	for _, c := range cases {
		p := NewParser(NewBufferedTokenizerMocker(c.data))

		got, err := p.Run()
		if c.fail {
			assert.Error(t, err)
			continue
		}

		assert.NoError(t, err)
		assert.Equal(t, c.expect, got)
	}
}

func TestParserPrecedence(t *testing.T) {
	program, err := parseSource("fn f() -> int { return 1 + 2 * 3; }")
	assert.NoError(t, err)

	ret := program.Functions[0].Body.Statements[0].(*ReturnStmt)
	expr := ret.Expr.(*BinaryExpr)

	assert.Equal(t, TokenPlus, expr.Op)
	assert.Equal(t, "1", expr.Left.(*LiteralExpr).Lexeme)

	right := expr.Right.(*BinaryExpr)
	assert.Equal(t, TokenMul, right.Op)
	assert.Equal(t, "2", right.Left.(*LiteralExpr).Lexeme)
	assert.Equal(t, "3", right.Right.(*LiteralExpr).Lexeme)
}

func TestParserLeftAssociativity(t *testing.T) {
	program, err := parseSource("fn f() -> int { return 1 - 2 + 3; }")
	assert.NoError(t, err)

	ret := program.Functions[0].Body.Statements[0].(*ReturnStmt)
	expr := ret.Expr.(*BinaryExpr)

	assert.Equal(t, TokenPlus, expr.Op)
	assert.Equal(t, "3", expr.Right.(*LiteralExpr).Lexeme)

	left := expr.Left.(*BinaryExpr)
	assert.Equal(t, TokenMinus, left.Op)
	assert.Equal(t, "1", left.Left.(*LiteralExpr).Lexeme)
	assert.Equal(t, "2", left.Right.(*LiteralExpr).Lexeme)
}

func TestParserNegateSpansFullExpression(t *testing.T) {
	// Unary minus takes a whole expression: -1 + 2 parses as -(1 + 2).
	program, err := parseSource("fn f() -> int { return -1 + 2; }")
	assert.NoError(t, err)

	ret := program.Functions[0].Body.Statements[0].(*ReturnStmt)
	neg := ret.Expr.(*NegateExpr)

	operand := neg.Operand.(*BinaryExpr)
	assert.Equal(t, TokenPlus, operand.Op)
}

func TestParserAssignmentLookahead(t *testing.T) {
	program, err := parseSource("fn f() -> void { let x: int = 0; x = x + 1; }")
	assert.NoError(t, err)

	stmt := program.Functions[0].Body.Statements[1].(*ExprStmt)
	assign := stmt.Expr.(*AssignExpr)

	assert.Equal(t, "x", assign.Lhs)

	rhs := assign.Rhs.(*BinaryExpr)
	assert.Equal(t, TokenPlus, rhs.Op)
}

func TestParserCall(t *testing.T) {
	program, err := parseSource("fn f() -> void { putint(1, 2 + 3); }")
	assert.NoError(t, err)

	stmt := program.Functions[0].Body.Statements[0].(*ExprStmt)
	call := stmt.Expr.(*CallExpr)

	assert.Equal(t, "putint", call.Callee)
	assert.Len(t, call.Args, 2)
}

func TestParserElseIfChain(t *testing.T) {
	program, err := parseSource(`
fn f(x: int) -> int {
    if x < 0 {
        return -1;
    } else if x == 0 {
        return 0;
    } else {
        return 1;
    }
}`)
	assert.NoError(t, err)

	stmt := program.Functions[0].Body.Statements[0].(*IfStmt)
	assert.Len(t, stmt.Elifs, 1)
	assert.NotNil(t, stmt.Else)

	// Return statements point back at their enclosing function.
	ret := stmt.If.Body.Statements[0].(*ReturnStmt)
	assert.Same(t, program.Functions[0], ret.Func)
}

func TestParserErrors(t *testing.T) {
	cases := []struct {
		data string
	}{
		{"fn f() -> void { let x: int = 1 }"},    // missing semicolon
		{"fn f() -> void { if 1 { } else ; }"},   // malformed else chain
		{"fn f() -> void { let x: int = 1 as int; }"}, // as is not an operator
		{"fn f() -> void { return 1 +; }"},       // missing operand
		{"; fn f() -> void {}"},                  // stray token at program level
		{"fn f() -> void {} let x: int = 1;"},    // globals must precede functions
		{"fn f(x: void) -> void {}"},             // void is not a parameter type
	}

	for _, c := range cases {
		_, err := parseSource(c.data)
		assert.Error(t, err)

		compileErr := &CompileError{}
		if assert.ErrorAs(t, err, &compileErr) {
			assert.Equal(t, PhaseSyntax, compileErr.Phase)
		}
	}
}

func TestParserDump(t *testing.T) {
	program, err := parseSource(`
fn f(x: int) -> int {
    if x < 0 {
        return -1;
    } else if x == 0 {
        return 0;
    } else {
        return 1;
    }
}`)
	assert.NoError(t, err)

	want := `Program:
  Global Variables:
  Functions:
    Function: f(x: int) -> int
      Block Stmt:
        If stmt:
          Condition:
            Operator: <
              ID: x
              Literal(int): 0
          Body:
            Block Stmt:
              Return:
                Negate:
                  Literal(int): 1
        ElseIf:
          Condition:
            Operator: ==
              ID: x
              Literal(int): 0
          Body:
            Block Stmt:
              Return:
                Literal(int): 0
        Else:
            Block Stmt:
              Return:
                Literal(int): 1
`

	var sb strings.Builder
	Dump(&sb, program)
	assert.Equal(t, want, sb.String())
}
