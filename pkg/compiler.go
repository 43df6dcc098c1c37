package rzero

import (
	"bufio"
	"io"
	"os"
)

// Compiler ties the phases together: scan, parse, check, lower, serialize.
// The phases run in a fixed sequence on one goroutine; the first error in
// any of them aborts the run.
type Compiler struct{}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile reads the source at inputPath and writes the binary image to
// outputPath. The output file is only created once the image has been
// fully built, so a compile that fails before serialization leaves no
// output file behind. A write failure after that point leaves the
// partly written file in place.
func (c *Compiler) Compile(inputPath, outputPath string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}

	scanner := NewScanner(inputPath, in)
	scanErr := scanner.ScanAll()
	closeErr := in.Close()
	if scanErr != nil {
		return scanErr
	}
	if closeErr != nil {
		return closeErr
	}

	bin, err := c.build(scanner)
	if err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	if _, err := bin.WriteTo(w); err != nil {
		out.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

// CompileFromReader runs the whole pipeline against in-memory streams.
// filename only shows up in diagnostics.
func (c *Compiler) CompileFromReader(filename string, r io.Reader, w io.Writer) error {
	bin, err := c.BuildFromReader(filename, r)
	if err != nil {
		return err
	}

	_, err = bin.WriteTo(w)
	return err
}

// BuildFromReader compiles up to the serializer and returns the image.
func (c *Compiler) BuildFromReader(filename string, r io.Reader) (*ProgramBinary, error) {
	scanner := NewScanner(filename, r)
	if err := scanner.ScanAll(); err != nil {
		return nil, err
	}

	return c.build(scanner)
}

func (c *Compiler) build(tokens Tokenizer) (*ProgramBinary, error) {
	parser := NewParser(tokens)
	program, err := parser.Run()
	if err != nil {
		return nil, err
	}

	checker := NewTypeChecker(tokens.Filename())
	if err := checker.Check(program); err != nil {
		return nil, err
	}

	return NewCodeGen().Run(program), nil
}
