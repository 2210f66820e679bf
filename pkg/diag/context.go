package diag

import (
	"strings"
)

// Context is a range of text in a piece of source code. It is typically
// used for errors that can be associated with a part of the source code,
// like lex, parse and codegen errors.
type Context struct {
	Name   string
	Source string
	Ranging
}

// NewContext creates a new Context.
func NewContext(name, source string, r Ranger) *Context {
	return &Context{name, source, r.Range()}
}

// StartPos returns the (line, column) position of the start of the context.
func (c *Context) StartPos() Pos {
	before := c.Source[:clamp(c.From, 0, len(c.Source))]
	line := strings.Count(before, "\n") + 1
	col := c.From - (strings.LastIndexByte(before, '\n') + 1)
	return Pos{line, col}
}

// Describe returns a "name:line:col" description of the start of the
// context, suitable for prefixing diagnostic messages.
func (c *Context) Describe() string {
	return c.Name + ":" + c.StartPos().String()
}

// Show shows the context: the position description followed by the culprit
// source line, with the culprit underlined.
func (c *Context) Show(indent string) string {
	from := clamp(c.From, 0, len(c.Source))
	to := clamp(c.To, from, len(c.Source))

	lineStart := strings.LastIndexByte(c.Source[:from], '\n') + 1
	lineEnd := strings.IndexByte(c.Source[from:], '\n')
	if lineEnd == -1 {
		lineEnd = len(c.Source)
	} else {
		lineEnd += from
	}
	line := c.Source[lineStart:lineEnd]

	culpritEnd := to
	if culpritEnd > lineEnd {
		culpritEnd = lineEnd
	}
	width := culpritEnd - from
	if width < 1 {
		width = 1
	}

	var sb strings.Builder
	sb.WriteString(c.Describe())
	if line != "" {
		sb.WriteString("\n" + indent + line)
		sb.WriteString("\n" + indent + strings.Repeat(" ", from-lineStart))
		sb.WriteString(strings.Repeat("^", width))
	}
	return sb.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
