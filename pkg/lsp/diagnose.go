package lsp

import (
	"fmt"
	"strings"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/kales-lang/kales/pkg/codegen"
	"github.com/kales-lang/kales/pkg/diag"
	"github.com/kales-lang/kales/pkg/ir"
	"github.com/kales-lang/kales/pkg/lex"
	"github.com/kales-lang/kales/pkg/parse"
	"github.com/kales-lang/kales/pkg/session"
)

// diagnose compiles the document and converts the collected diagnostics to
// LSP form.
func diagnose(content string) []lsp.Diagnostic {
	errs := check(content)
	diags := make([]lsp.Diagnostic, len(errs))
	for i, e := range errs {
		r := e.Range()
		diags[i] = lsp.Diagnostic{
			Range: lsp.Range{
				Start: idxToPosition(content, r.From),
				End:   idxToPosition(content, r.To),
			},
			Severity: lsp.Error,
			Source:   "kales",
			Message:  e.Type + ": " + e.Message,
		}
	}
	return diags
}

// check runs the document through a fresh session, parsing and compiling
// each top-level form but executing nothing, and returns the diagnostics.
func check(content string) (errs []*diag.Error) {
	sess := session.New()
	sess.Protos.SetModule(ir.NewModule("lsp"))
	lx := lex.NewString("doc", content)
	ps := parse.NewParser(lx, sess.Ops)
	cg := codegen.New(sess)

	add := func(err error) {
		if e, ok := err.(*diag.Error); ok {
			if e.Type == diag.LexErrorType {
				// The deferred recover below records it and stops.
				panic(e)
			}
			errs = append(errs, e)
		}
	}
	// A fatal lex error or a codegen invariant violation aborts the rest
	// of the document; report what was collected.
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*diag.Error); ok {
				errs = append(errs, e)
				return
			}
			errs = append(errs, &diag.Error{
				Type:    diag.CodegenErrorType,
				Message: fmt.Sprint(r),
				Context: *diag.NewContext("doc", content, diag.PointRanging(0)),
			})
		}
	}()

	lx.Advance()
	for {
		switch tok := lx.Current(); {
		case tok.Type == lex.EOF:
			return errs
		case tok.Is(';'):
			lx.Advance()
		case tok.Type == lex.Def:
			fn, err := ps.ParseDefinition()
			if err != nil {
				add(err)
				lx.Advance()
				continue
			}
			cg.SetSource("doc", lx.Src())
			if _, err := cg.EmitFunc(fn); err != nil {
				add(err)
			}
		case tok.Type == lex.Extern:
			proto, err := ps.ParseExtern()
			if err != nil {
				add(err)
				lx.Advance()
				continue
			}
			cg.SetSource("doc", lx.Src())
			if _, err := cg.EmitExtern(proto); err != nil {
				add(err)
			}
		default:
			fn, err := ps.ParseTopLevelExpr()
			if err != nil {
				add(err)
				lx.Advance()
				continue
			}
			cg.SetSource("doc", lx.Src())
			if _, err := cg.EmitFunc(fn); err != nil {
				add(err)
			}
		}
	}
}

// idxToPosition converts a byte index into an LSP (line, character)
// position.
func idxToPosition(content string, idx int) lsp.Position {
	if idx < 0 {
		idx = 0
	}
	if idx > len(content) {
		idx = len(content)
	}
	before := content[:idx]
	line := strings.Count(before, "\n")
	col := idx - (strings.LastIndexByte(before, '\n') + 1)
	return lsp.Position{Line: line, Character: col}
}
