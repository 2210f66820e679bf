package diag

import (
	"fmt"
	"io"
)

// ShowError shows an error to the given sink. If the error implements
// [Shower], its Show method is used; otherwise the error's message is
// printed as a single line.
func ShowError(w io.Writer, err error) {
	if err == nil {
		return
	}
	if shower, ok := err.(Shower); ok {
		fmt.Fprintln(w, shower.Show(""))
	} else {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}
