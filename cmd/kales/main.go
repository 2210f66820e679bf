// Command kales is the kales compiler and REPL.
package main

import (
	"os"

	"github.com/kales-lang/kales/pkg/lsp"
	"github.com/kales-lang/kales/pkg/prog"
	"github.com/kales-lang/kales/pkg/shell"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		&lsp.Program{}, &shell.Program{}))
}
