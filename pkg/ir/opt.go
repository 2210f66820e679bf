package ir

// Optimizer rewrites a function in place after emission. The optimization
// pipeline itself lives outside this repository's core; the codegen walker
// runs whichever Optimizer it has been configured with.
type Optimizer interface {
	Run(f *Func)
}

// OptimizerFunc adapts a function to the Optimizer interface.
type OptimizerFunc func(f *Func)

// Run calls o(f).
func (o OptimizerFunc) Run(f *Func) { o(f) }
