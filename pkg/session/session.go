// Package session bundles the mutable compiler state shared between the
// parser and the codegen walker: the operator-precedence table and the
// prototype registry. A Session replaces the process-global singletons of a
// classical one-file compiler, so tests and embedders construct a fresh one
// per compilation run.
package session

// Session is the state for one compilation run.
type Session struct {
	Ops    *OpTable
	Protos *Registry
}

// New creates a Session with the default operator table and an empty
// prototype registry.
func New() *Session {
	return &Session{Ops: NewOpTable(), Protos: NewRegistry()}
}
