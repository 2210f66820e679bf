package shell

import (
	"fmt"
	"io"
	"math"

	"github.com/kales-lang/kales/pkg/ir"
)

// installHost installs the host functions available to kales programs
// through extern declarations.
func installHost(e *ir.Engine, out io.Writer) {
	unary := func(f func(float64) float64) ir.HostFunc {
		return func(args ...float64) float64 { return f(args[0]) }
	}
	e.AddHost("sin", unary(math.Sin))
	e.AddHost("cos", unary(math.Cos))
	e.AddHost("sqrt", unary(math.Sqrt))
	e.AddHost("exp", unary(math.Exp))
	e.AddHost("log", unary(math.Log))
	e.AddHost("fabs", unary(math.Abs))
	e.AddHost("floor", unary(math.Floor))
	e.AddHost("pow", func(args ...float64) float64 {
		return math.Pow(args[0], args[1])
	})
	e.AddHost("atan2", func(args ...float64) float64 {
		return math.Atan2(args[0], args[1])
	})
	// printd prints a value followed by a newline; putchard prints a
	// single character. Both return 0, as the tutorial externs do.
	e.AddHost("printd", func(args ...float64) float64 {
		fmt.Fprintf(out, "%f\n", args[0])
		return 0
	})
	e.AddHost("putchard", func(args ...float64) float64 {
		fmt.Fprintf(out, "%c", rune(args[0]))
		return 0
	})
}
