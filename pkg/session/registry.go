package session

import (
	"github.com/kales-lang/kales/pkg/ir"
	"github.com/kales-lang/kales/pkg/parse"
)

// Registry is the prototype registry: the name-to-prototype map that lets
// codegen re-declare external symbols into whatever module is current. The
// driver moves each completed module into the execution engine and opens a
// fresh one, so previously emitted IR functions cannot be assumed present;
// the stored prototype is the durable record.
type Registry struct {
	protos map[string]*parse.Prototype
	module *ir.Module
}

// NewRegistry creates an empty Registry with no current module.
func NewRegistry() *Registry {
	return &Registry{protos: make(map[string]*parse.Prototype)}
}

// AddPrototype inserts or overwrites the prototype stored under name. The
// registry takes ownership of the prototype.
func (r *Registry) AddPrototype(name string, proto *parse.Prototype) {
	r.protos[name] = proto
}

// Prototype returns the prototype stored under name, or nil.
func (r *Registry) Prototype(name string) *parse.Prototype {
	return r.protos[name]
}

// SetModule sets the current IR module that function resolution may re-emit
// declarations into.
func (r *Registry) SetModule(m *ir.Module) {
	r.module = m
}

// Module returns the current IR module.
func (r *Registry) Module() *ir.Module {
	return r.module
}
