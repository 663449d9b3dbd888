// Package pattern compiles document patterns and counts how often they occur
// in a sequence of lines.
//
// A compiled Pattern is an immutable tree of four node kinds:
//
//   - Literal matches single lines against one regex.
//   - Sequence matches a contiguous run of lines, one regex per line.
//   - Conjunction scores the minimum of its children.
//   - Disjunction scores the sum of its children.
//
// Patterns are safe to evaluate concurrently against any number of documents.
package pattern

import (
	"errors"
	"strconv"
	"strings"

	"github.com/praetorian-inc/docsearch/pkg/regex"
)

// Combinator keywords of the surface syntax.
const (
	KeywordAny      = "any"
	KeywordAll      = "all"
	KeywordSequence = "sequence"
	KeywordSeq      = "seq" // short form of "sequence"
)

// Pattern is a compiled pattern node. The concrete types are *Literal,
// *Sequence, *Conjunction and *Disjunction. Nodes are built by Compile or
// the New* constructors; a zero-value node matches nothing and scores 0.
type Pattern interface {
	// String renders the pattern in canonical surface syntax.
	String() string

	node()
}

// Term is one compiled string literal: its source text, its flag suffix and
// the regex compiled from both. Terms compiled through the same cache share
// the regex.
type Term struct {
	source string
	flags  string
	re     regex.Regexp
}

// Source returns the literal text as written, without flags.
func (t *Term) Source() string { return t.source }

// Flags returns the flag suffix, e.g. "i".
func (t *Term) Flags() string { return t.flags }

// Regexp returns the compiled regex.
func (t *Term) Regexp() regex.Regexp { return t.re }

// Match reports whether the term's regex matches line.
func (t *Term) Match(line string) bool { return t.re.MatchString(line) }

// String renders the term as a quoted literal followed by its flags.
func (t *Term) String() string {
	return strconv.Quote(t.source) + t.flags
}

// Literal matches individual lines.
type Literal struct {
	term *Term
}

// NewLiteral creates a Literal from a compiled term.
func NewLiteral(term *Term) *Literal {
	return &Literal{term: term}
}

// Term returns the literal's term.
func (l *Literal) Term() *Term { return l.term }

func (l *Literal) String() string {
	if l.term == nil {
		return `""`
	}
	return l.term.String()
}

func (*Literal) node() {}

// Sequence matches consecutive lines, the i-th line of a window against
// the i-th term.
type Sequence struct {
	terms []*Term
}

// NewSequence creates a Sequence. At least one term is required.
func NewSequence(terms ...*Term) (*Sequence, error) {
	if len(terms) == 0 {
		return nil, errors.New("sequence requires at least one term")
	}
	return &Sequence{terms: append([]*Term(nil), terms...)}, nil
}

// Len returns the number of terms, which is also the window size.
func (s *Sequence) Len() int { return len(s.terms) }

// Term returns the i-th term.
func (s *Sequence) Term(i int) *Term { return s.terms[i] }

func (s *Sequence) String() string {
	items := make([]string, len(s.terms))
	for i, t := range s.terms {
		items[i] = t.String()
	}
	return renderBlock(KeywordSequence, items)
}

func (*Sequence) node() {}

// Conjunction requires all of its children; its count is the smallest
// child count.
type Conjunction struct {
	children []Pattern
}

// NewConjunction creates a Conjunction. At least one child is required.
func NewConjunction(children ...Pattern) (*Conjunction, error) {
	if len(children) == 0 {
		return nil, errors.New("conjunction requires at least one child")
	}
	return &Conjunction{children: append([]Pattern(nil), children...)}, nil
}

// Children returns a copy of the child patterns.
func (c *Conjunction) Children() []Pattern {
	return append([]Pattern(nil), c.children...)
}

func (c *Conjunction) String() string {
	return renderBlock(KeywordAll, renderChildren(c.children))
}

func (*Conjunction) node() {}

// Disjunction adds up the counts of its children. A line matched by two
// children contributes twice.
type Disjunction struct {
	children []Pattern
}

// NewDisjunction creates a Disjunction. At least one child is required.
func NewDisjunction(children ...Pattern) (*Disjunction, error) {
	if len(children) == 0 {
		return nil, errors.New("disjunction requires at least one child")
	}
	return &Disjunction{children: append([]Pattern(nil), children...)}, nil
}

// Children returns a copy of the child patterns.
func (d *Disjunction) Children() []Pattern {
	return append([]Pattern(nil), d.children...)
}

func (d *Disjunction) String() string {
	return renderBlock(KeywordAny, renderChildren(d.children))
}

func (*Disjunction) node() {}

func renderChildren(children []Pattern) []string {
	items := make([]string, len(children))
	for i, c := range children {
		items[i] = c.String()
	}
	return items
}

func renderBlock(keyword string, items []string) string {
	return keyword + " { " + strings.Join(items, ", ") + " }"
}
