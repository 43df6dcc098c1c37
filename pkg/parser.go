package rzero

// The minimum precedence a binary sub-expression is parsed at. Comparisons
// bind loosest; the climbing loop requests p+1 for left associativity.
const minBinaryOpPrecedence = 2

func getOpPrecedence(op TokenType) int {
	switch op {
	case TokenAs:
		return 5
	case TokenMul, TokenDiv:
		return 4
	case TokenMinus, TokenPlus:
		return 3
	case TokenGt, TokenLt, TokenGe, TokenLe, TokenEq, TokenNeq:
		return 2
	case TokenAssign:
		return 1
	default:
		return 0
	}
}

func isBinaryOp(tk TokenType) bool {
	switch tk {
	case TokenMul, TokenDiv, TokenMinus, TokenPlus,
		TokenGt, TokenLt, TokenGe, TokenLe, TokenEq, TokenNeq:
		return true
	default:
		return false
	}
}

// Parser builds the AST by recursive descent, with one token of lookahead
// for statements and two for identifier-started expressions.
type Parser struct {
	filename  string
	tokenizer Tokenizer
}

func NewParser(tokenizer Tokenizer) *Parser {
	return &Parser{
		filename:  tokenizer.Filename(),
		tokenizer: tokenizer,
	}
}

func (p *Parser) Filename() string {
	return p.filename
}

// Run parses a whole program: globals first, then function definitions,
// then end of input.
func (p *Parser) Run() (*Program, error) {
	program := &Program{}

loop:
	for {
		switch tk := p.peek(0); tk.Typ {
		case TokenLet:
			decl, err := p.parseDeclStmt(false)
			if err != nil {
				return nil, err
			}
			program.Globals = append(program.Globals, decl)
		case TokenConst:
			decl, err := p.parseDeclStmt(true)
			if err != nil {
				return nil, err
			}
			program.Globals = append(program.Globals, decl)
		case TokenFn, TokenEOF:
			break loop
		default:
			return nil, p.errorf(tk.Pos, "Unexpected token %s", tk.Typ)
		}
	}

	for p.peek(0).Typ == TokenFn {
		fn, err := p.parseFuncDef()
		if err != nil {
			return nil, err
		}
		program.Functions = append(program.Functions, fn)
	}

	if tk := p.peek(0); tk.Typ != TokenEOF {
		return nil, p.errorf(tk.Pos, "Unexpected token %s at end of program", tk.Typ)
	}

	return program, nil
}

func (p *Parser) peek(i int) Token {
	return p.tokenizer.Peek(i)
}

func (p *Parser) next() Token {
	return p.tokenizer.Get()
}

func (p *Parser) expect(typ TokenType) error {
	if tk := p.peek(0); tk.Typ != typ {
		return p.errorf(tk.Pos, "Expected a %s, got %s", typ, tk.Typ)
	}

	return nil
}

func (p *Parser) consume(typ TokenType) error {
	if err := p.expect(typ); err != nil {
		return err
	}

	p.next()
	return nil
}

func (p *Parser) errorf(pos Position, format string, args ...interface{}) error {
	return syntaxErrorf(p.filename, pos, format, args...)
}

func (p *Parser) parseFuncDef() (*FuncDef, error) {
	p.next() // Skip 'fn'

	if err := p.expect(TokenIdent); err != nil {
		return nil, err
	}

	fn := &FuncDef{
		Pos:  p.peek(0).Pos,
		Name: p.peek(0).Lexeme,
	}
	p.next() // Skip the function name

	if err := p.consume(TokenLParen); err != nil {
		return nil, err
	}

	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	fn.Params = params

	if err := p.consume(TokenRParen); err != nil {
		return nil, err
	}

	if err := p.consume(TokenArrow); err != nil {
		return nil, err
	}

	fn.ReturnType, err = p.parseType()
	if err != nil {
		return nil, err
	}

	fn.Body, err = p.parseBlockStmt(fn)
	if err != nil {
		return nil, err
	}
	fn.Body.IsFuncBody = true

	return fn, nil
}

func (p *Parser) parseParams() ([]*DeclStmt, error) {
	var params []*DeclStmt

	for {
		tk := p.peek(0).Typ
		if tk != TokenConst && tk != TokenIdent {
			break
		}

		param := &DeclStmt{}
		if tk == TokenConst {
			p.next()
			param.IsConst = true
		}

		param.Pos = p.peek(0).Pos
		if err := p.expect(TokenIdent); err != nil {
			return nil, err
		}
		param.Name = p.peek(0).Lexeme
		p.next()

		if err := p.consume(TokenColon); err != nil {
			return nil, err
		}

		typ, err := p.parseVarType()
		if err != nil {
			return nil, err
		}
		param.Type = typ

		params = append(params, param)

		if p.peek(0).Typ == TokenComma {
			p.next()
		} else {
			break
		}
	}

	return params, nil
}

func (p *Parser) parseStmt(fn *FuncDef) (Stmt, error) {
	switch p.peek(0).Typ {
	case TokenLet:
		return p.parseDeclStmt(false)
	case TokenConst:
		return p.parseDeclStmt(true)
	case TokenIf:
		return p.parseIfStmt(fn)
	case TokenWhile:
		return p.parseWhileStmt(fn)
	case TokenReturn:
		return p.parseReturnStmt(fn)
	case TokenLBrace:
		return p.parseBlockStmt(fn)
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseDeclStmt(isConst bool) (*DeclStmt, error) {
	stmt := &DeclStmt{Pos: p.peek(0).Pos}
	p.next() // Skip 'let' or 'const'

	if err := p.expect(TokenIdent); err != nil {
		return nil, err
	}
	stmt.Name = p.peek(0).Lexeme
	p.next()

	if err := p.consume(TokenColon); err != nil {
		return nil, err
	}

	typ, err := p.parseVarType()
	if err != nil {
		return nil, err
	}
	stmt.Type = typ

	if p.peek(0).Typ == TokenAssign {
		p.next() // Skip '='
		stmt.Init, err = p.parseExpression(minBinaryOpPrecedence)
		if err != nil {
			return nil, err
		}
	}

	if isConst {
		if stmt.Init == nil {
			return nil, p.errorf(stmt.Pos, "Uninitialized constant %s", stmt.Name)
		}
		stmt.IsConst = true
	}

	if err := p.consume(TokenSemicolon); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) parseBlockStmt(fn *FuncDef) (*BlockStmt, error) {
	if err := p.consume(TokenLBrace); err != nil {
		return nil, err
	}

	block := &BlockStmt{Pos: p.peek(0).Pos}
	for p.peek(0).Typ != TokenRBrace {
		stmt, err := p.parseStmt(fn)
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}

	if err := p.consume(TokenRBrace); err != nil {
		return nil, err
	}

	return block, nil
}

func (p *Parser) parseExprStmt() (*ExprStmt, error) {
	stmt := &ExprStmt{Pos: p.peek(0).Pos}

	expr, err := p.parseExpression(minBinaryOpPrecedence)
	if err != nil {
		return nil, err
	}
	stmt.Expr = expr

	if err := p.consume(TokenSemicolon); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) parseIfStmt(fn *FuncDef) (*IfStmt, error) {
	stmt := &IfStmt{Pos: p.peek(0).Pos}
	p.next() // Skip 'if'

	var err error
	stmt.If.Cond, err = p.parseExpression(minBinaryOpPrecedence)
	if err != nil {
		return nil, err
	}

	stmt.If.Body, err = p.parseBlockStmt(fn)
	if err != nil {
		return nil, err
	}

	for p.peek(0).Typ == TokenElse {
		p.next() // Skip 'else'

		switch tk := p.peek(0); tk.Typ {
		case TokenLBrace:
			stmt.Else, err = p.parseBlockStmt(fn)
			if err != nil {
				return nil, err
			}
			return stmt, nil
		case TokenIf:
			p.next() // Skip 'if'

			var arm CondBody
			arm.Cond, err = p.parseExpression(minBinaryOpPrecedence)
			if err != nil {
				return nil, err
			}
			arm.Body, err = p.parseBlockStmt(fn)
			if err != nil {
				return nil, err
			}

			stmt.Elifs = append(stmt.Elifs, arm)
		default:
			return nil, p.errorf(tk.Pos, "Expected an 'if' or '{'")
		}
	}

	return stmt, nil
}

func (p *Parser) parseWhileStmt(fn *FuncDef) (*WhileStmt, error) {
	stmt := &WhileStmt{Pos: p.peek(0).Pos}
	p.next() // Skip 'while'

	var err error
	stmt.Cond, err = p.parseExpression(minBinaryOpPrecedence)
	if err != nil {
		return nil, err
	}

	stmt.Body, err = p.parseBlockStmt(fn)
	if err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) parseReturnStmt(fn *FuncDef) (*ReturnStmt, error) {
	stmt := &ReturnStmt{
		Pos:  p.peek(0).Pos,
		Func: fn,
	}
	p.next() // Skip 'return'

	if p.peek(0).Typ != TokenSemicolon {
		expr, err := p.parseExpression(minBinaryOpPrecedence)
		if err != nil {
			return nil, err
		}
		stmt.Expr = expr
	}

	if err := p.consume(TokenSemicolon); err != nil {
		return nil, err
	}

	return stmt, nil
}

// parseExpression parses by precedence climbing. Assignments and calls are
// recognized up front with a second token of lookahead.
func (p *Parser) parseExpression(minPrecedence int) (Expr, error) {
	var left Expr
	var err error

	tk1 := p.peek(0)
	tk2 := p.peek(1)

	switch tk1.Typ {
	case TokenLParen:
		p.next()
		left, err = p.parseExpression(minBinaryOpPrecedence)
		if err != nil {
			return nil, err
		}
		if err := p.consume(TokenRParen); err != nil {
			return nil, err
		}
	case TokenMinus:
		left, err = p.parseNegateExpr()
		if err != nil {
			return nil, err
		}
	case TokenIntLiteral:
		left = p.parseLiteralExpr(TypeInt)
	case TokenDoubleLiteral:
		left = p.parseLiteralExpr(TypeDouble)
	case TokenIdent:
		switch tk2.Typ {
		case TokenLParen:
			left, err = p.parseFuncCall()
		case TokenAssign:
			left, err = p.parseAssignExpr()
		default:
			left = p.parseIdentExpr()
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, p.errorf(tk1.Pos, "Invalid expression")
	}

	return p.parseBinaryOpExpr(left, minPrecedence)
}

func (p *Parser) parseBinaryOpExpr(left Expr, minPrecedence int) (Expr, error) {
	for {
		op := p.peek(0)
		precedence := getOpPrecedence(op.Typ)
		if !isBinaryOp(op.Typ) || precedence < minPrecedence {
			break
		}

		expr := &BinaryExpr{
			exprBase: exprBase{Pos: op.Pos},
			Op:       op.Typ,
			Left:     left,
		}
		p.next() // Skip the operator

		right, err := p.parseExpression(precedence + 1)
		if err != nil {
			return nil, err
		}
		expr.Right = right

		left = expr
	}

	return left, nil
}

func (p *Parser) parseNegateExpr() (Expr, error) {
	expr := &NegateExpr{exprBase: exprBase{Pos: p.peek(0).Pos}}
	p.next() // Skip '-'

	operand, err := p.parseExpression(minBinaryOpPrecedence)
	if err != nil {
		return nil, err
	}
	expr.Operand = operand

	return expr, nil
}

func (p *Parser) parseAssignExpr() (Expr, error) {
	expr := &AssignExpr{Lhs: p.peek(0).Lexeme}
	p.next() // Skip the target name

	expr.Pos = p.peek(0).Pos
	p.next() // Skip '='

	rhs, err := p.parseExpression(minBinaryOpPrecedence)
	if err != nil {
		return nil, err
	}
	expr.Rhs = rhs

	return expr, nil
}

func (p *Parser) parseLiteralExpr(typ VarType) Expr {
	expr := &LiteralExpr{
		exprBase: exprBase{
			Pos: p.peek(0).Pos,
			Typ: ExprType{Type: typ, IsConst: true},
		},
	}
	expr.Lexeme = p.next().Lexeme

	return expr
}

func (p *Parser) parseIdentExpr() Expr {
	expr := &IdentExpr{
		exprBase: exprBase{Pos: p.peek(0).Pos},
		Name:     p.peek(0).Lexeme,
	}
	p.next()

	return expr
}

func (p *Parser) parseFuncCall() (Expr, error) {
	expr := &CallExpr{
		exprBase: exprBase{Pos: p.peek(0).Pos},
		Callee:   p.peek(0).Lexeme,
	}
	p.next() // Skip the function name

	if err := p.consume(TokenLParen); err != nil {
		return nil, err
	}

	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	expr.Args = args

	if err := p.consume(TokenRParen); err != nil {
		return nil, err
	}

	return expr, nil
}

func (p *Parser) parseArgs() ([]Expr, error) {
	var args []Expr
	if p.peek(0).Typ == TokenRParen {
		return args, nil
	}

	for {
		arg, err := p.parseExpression(minBinaryOpPrecedence)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if p.peek(0).Typ == TokenComma {
			p.next() // Skip ','
		} else {
			break
		}
	}

	return args, nil
}

// parseType accepts a type in function-return position: int, double or void.
func (p *Parser) parseType() (VarType, error) {
	if err := p.expect(TokenIdent); err != nil {
		return TypeVoid, err
	}

	var typ VarType
	switch name := p.peek(0).Lexeme; name {
	case "int":
		typ = TypeInt
	case "double":
		typ = TypeDouble
	case "void":
		typ = TypeVoid
	default:
		return TypeVoid, p.errorf(p.peek(0).Pos, "Expected a type specifier, got %s", name)
	}

	p.next()
	return typ, nil
}

// parseVarType accepts a type in variable position: int or double only.
func (p *Parser) parseVarType() (VarType, error) {
	if err := p.expect(TokenIdent); err != nil {
		return TypeVoid, err
	}

	var typ VarType
	switch name := p.peek(0).Lexeme; name {
	case "int":
		typ = TypeInt
	case "double":
		typ = TypeDouble
	default:
		return TypeVoid, p.errorf(p.peek(0).Pos, "Expected an int or double type specifier, got %s", name)
	}

	p.next()
	return typ, nil
}
