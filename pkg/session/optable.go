package session

// OpTable is the operator-precedence table: the mutable grammar state read
// by the parser on every operator and extended when a user-defined binary
// operator is compiled. Higher precedence binds tighter. Entries are never
// removed during a session; a later declaration with the same glyph
// overwrites.
type OpTable struct {
	prec map[rune]int
}

// NewOpTable returns a table with the built-in binary operators.
func NewOpTable() *OpTable {
	return &OpTable{prec: map[rune]int{
		'=': 2,
		'<': 10,
		'+': 20,
		'-': 20,
		'*': 40,
	}}
}

// Prec returns the precedence of ch as a binary operator, or -1 if ch is
// not a binary operator. Only 7-bit ASCII characters can be operators.
func (t *OpTable) Prec(ch rune) int {
	if ch > 127 {
		return -1
	}
	if p, ok := t.prec[ch]; ok {
		return p
	}
	return -1
}

// Set inserts or overwrites the precedence for a glyph.
func (t *OpTable) Set(ch rune, prec int) {
	t.prec[ch] = prec
}

// Glyphs returns the glyphs currently in the table.
func (t *OpTable) Glyphs() []rune {
	gs := make([]rune, 0, len(t.prec))
	for ch := range t.prec {
		gs = append(gs, ch)
	}
	return gs
}
