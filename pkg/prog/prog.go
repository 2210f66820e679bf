// Package prog provides the entry point to kales. The binary is composed of
// subprograms; each registers its flags and either claims the invocation or
// defers to the next subprogram.
package prog

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kales-lang/kales/pkg/buildinfo"
)

// Program represents a subprogram.
type Program interface {
	// RegisterFlags registers the subprogram's flags.
	RegisterFlags(fs *flag.FlagSet)
	// Run runs the subprogram. Returning ErrNextProgram passes the
	// invocation to the next subprogram.
	Run(fds [3]*os.File, args []string) error
}

// ErrNextProgram is returned by a subprogram's Run to indicate that the
// invocation should be handled by the next subprogram.
var ErrNextProgram = errors.New("next program")

type badUsageError struct{ msg string }

func (e badUsageError) Error() string { return e.msg }

// BadUsage returns an error that causes the usage to be printed and the
// process to exit with 2.
func BadUsage(msg string) error { return badUsageError{msg} }

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Exit returns an error that causes the process to exit with the given code
// without printing anything.
func Exit(code int) error { return exitError{code} }

func usage(out io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(out, "Usage: kales [flags] [script]")
	fmt.Fprintln(out, "Supported flags:")
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// Run parses command-line flags and runs the first applicable subprogram.
// It returns the exit status of the process.
func Run(fds [3]*os.File, args []string, programs ...Program) int {
	fs := flag.NewFlagSet(buildinfo.ProgramName, flag.ContinueOnError)
	// Error and usage will be printed explicitly.
	fs.SetOutput(io.Discard)

	var help, version bool
	fs.BoolVar(&help, "help", false, "show usage help and quit")
	fs.BoolVar(&version, "version", false, "show version and quit")
	for _, p := range programs {
		p.RegisterFlags(fs)
	}

	err := fs.Parse(args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			usage(fds[1], fs)
			return 0
		}
		fmt.Fprintln(fds[2], err)
		usage(fds[2], fs)
		return 2
	}

	if help {
		usage(fds[1], fs)
		return 0
	}
	if version {
		fmt.Fprintln(fds[1], buildinfo.Version)
		return 0
	}

	for _, p := range programs {
		err := p.Run(fds, fs.Args())
		switch {
		case err == nil:
			return 0
		case errors.Is(err, ErrNextProgram):
			continue
		default:
			var bad badUsageError
			if errors.As(err, &bad) {
				fmt.Fprintln(fds[2], bad.msg)
				usage(fds[2], fs)
				return 2
			}
			var exit exitError
			if errors.As(err, &exit) {
				return exit.code
			}
			fmt.Fprintln(fds[2], err)
			return 2
		}
	}
	fmt.Fprintln(fds[2], "internal error: no applicable subprogram")
	return 2
}
