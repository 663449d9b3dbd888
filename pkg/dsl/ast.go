// Package dsl parses the surface syntax of document patterns.
//
// A pattern is either a string literal with an optional flag suffix or a
// combinator block:
//
//	all {
//	    any { "^BER.TA ACARA PENGGELEDAHAN BADAN", "^BER.TA ACARA$" },
//	    sequence { "^BER.TA ACARA$", ".*PENGGELEDAHAN.*"i },
//	}
//
// Parse only checks the grammar. Which keywords exist and what each block may
// contain is decided by the pattern compiler.
package dsl

import (
	"fmt"
	"strconv"
	"strings"
)

// Pos is a position in DSL source. Line and Column are 1-based; Column
// counts bytes.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// String returns "line:column".
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is a parsed expression.
type Node interface {
	// Pos returns the position of the first token of the node.
	Pos() Pos

	// String renders the node in canonical DSL form.
	String() string
}

// StringLit is a quoted string literal and its flag suffix.
type StringLit struct {
	At    Pos
	Value string // unquoted text
	Flags string // letters directly after the closing quote, e.g. "i"
}

// Pos returns the position of the opening quote.
func (s *StringLit) Pos() Pos { return s.At }

// String renders the literal as a double-quoted string followed by its flags.
func (s *StringLit) String() string {
	return strconv.Quote(s.Value) + s.Flags
}

// Block is a keyword followed by a braced, comma-separated list.
type Block struct {
	At      Pos
	Keyword string
	Items   []Node
}

// Pos returns the position of the keyword.
func (b *Block) Pos() Pos { return b.At }

// String renders the block on a single line.
func (b *Block) String() string {
	items := make([]string, len(b.Items))
	for i, item := range b.Items {
		items[i] = item.String()
	}
	if len(items) == 0 {
		return b.Keyword + " {}"
	}
	return b.Keyword + " { " + strings.Join(items, ", ") + " }"
}
