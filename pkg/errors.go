package rzero

import "fmt"

// Phase names the stage that detected an error. Only the three values below
// ever reach the user; the prefix they produce is contractual.
type Phase string

const (
	PhaseLexical  Phase = "lexical"
	PhaseSyntax   Phase = "syntax"
	PhaseSemantic Phase = "semantic"
)

// CompileError is the single user-facing error of the pipeline. The first
// one produced aborts compilation; nothing is retried or re-synchronized.
type CompileError struct {
	Filename string
	Pos      Position
	Phase    Phase
	Message  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s error: %s",
		e.Filename, e.Pos.Line, e.Pos.Col, e.Phase, e.Message)
}

func lexicalErrorf(filename string, pos Position, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Filename: filename,
		Pos:      pos,
		Phase:    PhaseLexical,
		Message:  fmt.Sprintf(format, args...),
	}
}

func syntaxErrorf(filename string, pos Position, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Filename: filename,
		Pos:      pos,
		Phase:    PhaseSyntax,
		Message:  fmt.Sprintf(format, args...),
	}
}

func semanticErrorf(filename string, pos Position, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Filename: filename,
		Pos:      pos,
		Phase:    PhaseSemantic,
		Message:  fmt.Sprintf(format, args...),
	}
}
