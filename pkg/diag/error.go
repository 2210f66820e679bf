package diag

import (
	"fmt"
)

// Error types used by the compiler core.
const (
	LexErrorType     = "LexError"
	ParseErrorType   = "ParseError"
	CodegenErrorType = "Error"
)

// Error represents an error with a source-code context.
type Error struct {
	Type    string
	Message string
	Context Context
}

// Error returns a plain text representation of the error, in the form
// "Type: name:line:col: message".
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Context.Describe(), e.Message)
}

// Range returns the range of the error.
func (e *Error) Range() Ranging {
	return e.Context.Range()
}

// Show shows the error with its source context.
func (e *Error) Show(indent string) string {
	return fmt.Sprintf("%s: %s\n%s", e.Type, e.Message,
		e.Context.Show(indent+"  "))
}
