package shell

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/kales-lang/kales/pkg/prog"
	"github.com/kales-lang/kales/pkg/store"
)

// Program is the shell subprogram: the interactive REPL and the batch
// driver. It always claims the invocation, so it must be the last
// subprogram passed to prog.Run.
type Program struct {
	codeInArg bool
	noRC      bool
	rc        string
	db        string
}

func (p *Program) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&p.codeInArg, "c", false, "take first argument as code to execute")
	fs.BoolVar(&p.noRC, "norc", false, "run without reading the rc file")
	fs.StringVar(&p.rc, "rc", "", "path to the rc file")
	fs.StringVar(&p.db, "db", "", "path to the history database")
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	rcPath := p.rc
	if rcPath == "" && !p.noRC {
		rcPath = defaultRCPath()
	}
	if p.noRC {
		rcPath = ""
	}
	cfg, err := loadConfig(rcPath)
	if err != nil {
		return err
	}
	if p.db != "" {
		cfg.DB = p.db
	}

	ev := NewEvaluator(fds[1], fds[2])
	if cfg.Optimize {
		ev.SetOptimizer(defaultOptimizer())
	}

	switch {
	case p.codeInArg:
		if len(args) == 0 {
			return prog.BadUsage("argument required when -c is given")
		}
		ev.EvalChunk("code", strings.NewReader(args[0]))
		return nil
	case len(args) == 1:
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		ev.EvalChunk(args[0], f)
		return nil
	case len(args) > 1:
		return prog.BadUsage("at most one script may be given")
	}

	if !isatty.IsTerminal(fds[0].Fd()) {
		// Non-terminal stdin: treat it as a script.
		ev.EvalChunk("stdin", fds[0])
		return nil
	}
	return p.runInteractive(ev, cfg, fds)
}

// runInteractive runs the line-oriented REPL, with history and the
// user-defined operator table persisted through the store.
func (p *Program) runInteractive(ev *Evaluator, cfg Config, fds [3]*os.File) error {
	ev.SetDumpIR(true)

	var db *store.Store
	if cfg.DB != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB), 0o700); err == nil {
			if s, err := store.Open(cfg.DB); err == nil {
				db = s
				defer db.Close()
			}
		}
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if db != nil {
		// Restore custom operators so expressions using them parse, and
		// feed past commands into line history.
		if ops, err := db.Ops(); err == nil {
			for glyph, prec := range ops {
				ev.Session().Ops.Set(glyph, prec)
			}
		}
		if next, err := db.NextCmdSeq(); err == nil {
			if cmds, err := db.Cmds(0, next); err == nil {
				for _, cmd := range cmds {
					ln.AppendHistory(cmd.Text)
				}
			}
		}
		ev.SetOpSink(func(glyph rune, prec int) {
			db.SetOp(glyph, prec)
		})
	}

	for {
		line, err := ln.Prompt(cfg.Prompt)
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if db != nil {
			db.AddCmd(line)
		}
		ev.EvalChunk("repl", strings.NewReader(line))
	}
}

