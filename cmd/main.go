package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"go.rzero.dev/pkg"
)

var (
	errorColorFG = pterm.FgRed
	errorStyleBG = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
)

func main() {
	if len(os.Args) != 3 {
		fmt.Printf("Usage: %s <input> <output>\n", os.Args[0])
		os.Exit(1)
	}

	c := rzero.NewCompiler()
	if err := c.Compile(os.Args[1], os.Args[2]); err != nil {
		var compileErr *rzero.CompileError
		if errors.As(err, &compileErr) {
			// The diagnostic line format is contractual; keep it unstyled.
			fmt.Println(compileErr.Error())
		} else {
			printErrorMessage("IO Error", err)
		}

		os.Exit(1)
	}

	fmt.Println("No errors found")
}

func printErrorMessage(tag string, err error) {
	errorStyleBG.Print(tag)
	errorColorFG.Println(" " + err.Error())
}
