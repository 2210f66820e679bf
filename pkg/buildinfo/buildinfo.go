// Package buildinfo contains build information.
package buildinfo

// ProgramName is the name of the program.
const ProgramName = "kales"

// Version identifies the version of kales. On development builds it is
// overridden at link time.
var Version = "0.1.0-dev"
