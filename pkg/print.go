package rzero

import (
	"fmt"
	"io"
)

// Dump writes an indented tree rendering of the AST, mainly for debugging
// and golden tests.
func Dump(w io.Writer, program *Program) {
	indent(w, 0)
	fmt.Fprint(w, "Program:\n")

	indent(w, 1)
	fmt.Fprint(w, "Global Variables:\n")
	for _, decl := range program.Globals {
		printStmt(w, decl, 2)
	}

	indent(w, 1)
	fmt.Fprint(w, "Functions:\n")
	for _, fn := range program.Functions {
		printFunc(w, fn, 2)
	}
}

func printFunc(w io.Writer, fn *FuncDef, depth int) {
	indent(w, depth)
	fmt.Fprintf(w, "Function: %s(", fn.Name)

	for i, param := range fn.Params {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}

		if param.IsConst {
			fmt.Fprint(w, "const ")
		}
		fmt.Fprintf(w, "%s: %s", param.Name, param.Type)
	}

	fmt.Fprintf(w, ") -> %s\n", fn.ReturnType)
	printBlock(w, fn.Body, depth+1)
}

func printBlock(w io.Writer, block *BlockStmt, depth int) {
	indent(w, depth)
	fmt.Fprint(w, "Block Stmt:\n")
	for _, stmt := range block.Statements {
		printStmt(w, stmt, depth+1)
	}
}

func printStmt(w io.Writer, stmt Stmt, depth int) {
	switch s := stmt.(type) {
	case *DeclStmt:
		indent(w, depth)
		fmt.Fprint(w, "Declare: ")
		if s.IsConst {
			fmt.Fprint(w, "const ")
		}
		fmt.Fprintf(w, "%s: %s\n", s.Name, s.Type)

		if s.Init != nil {
			indent(w, depth+1)
			fmt.Fprint(w, "Initializer:\n")
			printExpr(w, s.Init, depth+2)
		}
	case *BlockStmt:
		printBlock(w, s, depth)
	case *IfStmt:
		indent(w, depth)
		fmt.Fprint(w, "If stmt:\n")
		printCondBody(w, s.If, depth)

		for _, arm := range s.Elifs {
			indent(w, depth)
			fmt.Fprint(w, "ElseIf:\n")
			printCondBody(w, arm, depth)
		}

		if s.Else != nil {
			indent(w, depth)
			fmt.Fprint(w, "Else:\n")
			printBlock(w, s.Else, depth+2)
		}
	case *WhileStmt:
		indent(w, depth)
		fmt.Fprint(w, "While stmt:\n")
		indent(w, depth+1)
		fmt.Fprint(w, "Condition:\n")
		printExpr(w, s.Cond, depth+2)
		indent(w, depth+1)
		fmt.Fprint(w, "Body:\n")
		printBlock(w, s.Body, depth+2)
	case *ReturnStmt:
		indent(w, depth)
		if s.Expr != nil {
			fmt.Fprint(w, "Return:\n")
			printExpr(w, s.Expr, depth+1)
		} else {
			fmt.Fprint(w, "Return\n")
		}
	case *ExprStmt:
		indent(w, depth)
		fmt.Fprint(w, "Expression stmt:\n")
		printExpr(w, s.Expr, depth+1)
	}
}

func printCondBody(w io.Writer, arm CondBody, depth int) {
	indent(w, depth+1)
	fmt.Fprint(w, "Condition:\n")
	printExpr(w, arm.Cond, depth+2)
	indent(w, depth+1)
	fmt.Fprint(w, "Body:\n")
	printBlock(w, arm.Body, depth+2)
}

func printExpr(w io.Writer, expr Expr, depth int) {
	indent(w, depth)

	switch e := expr.(type) {
	case *IdentExpr:
		fmt.Fprintf(w, "ID: %s\n", e.Name)
	case *AssignExpr:
		fmt.Fprintf(w, "Assignment: %s =\n", e.Lhs)
		printExpr(w, e.Rhs, depth+1)
	case *LiteralExpr:
		fmt.Fprintf(w, "Literal(%s): %s\n", e.Typ.Type, e.Lexeme)
	case *BinaryExpr:
		fmt.Fprintf(w, "Operator: %s\n", e.Op)
		printExpr(w, e.Left, depth+1)
		printExpr(w, e.Right, depth+1)
	case *NegateExpr:
		fmt.Fprint(w, "Negate:\n")
		printExpr(w, e.Operand, depth+1)
	case *CallExpr:
		fmt.Fprintf(w, "Call function: %s, ", e.Callee)
		if len(e.Args) == 0 {
			fmt.Fprint(w, "without arguments.\n")
		} else {
			fmt.Fprint(w, "with arguments:\n")
			for _, arg := range e.Args {
				printExpr(w, arg, depth+1)
			}
		}
	}
}

func indent(w io.Writer, depth int) {
	for i := 0; i < depth; i++ {
		fmt.Fprint(w, "  ")
	}
}
