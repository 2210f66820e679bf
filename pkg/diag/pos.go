package diag

import "fmt"

// Pos is a (line, column) position in a piece of source code. Lines are
// 1-based. Token positions recorded by the lexer restart the column at zero
// after each line break and advance it by one per character read, so the
// first character of a line is at column 1. [Context.StartPos] instead
// counts the bytes before the position on its line, so there the first byte
// of a line is at column 0.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}
