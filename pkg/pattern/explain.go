package pattern

import (
	"fmt"
	"strings"
)

// Trace is the count of one pattern node together with the traces of its
// children.
type Trace struct {
	Pattern  Pattern
	Count    int
	Children []*Trace
}

// Explain evaluates p like Evaluate but records the count of every node.
// Unlike Evaluate it never skips the remaining children of a Conjunction
// once one of them scored zero.
func (e *Evaluator) Explain(p Pattern, lines []string) *Trace {
	return e.explain(p, trimLines(lines))
}

func (e *Evaluator) explain(p Pattern, lines []string) *Trace {
	tr := &Trace{Pattern: p}

	switch p := p.(type) {
	case *Conjunction:
		for i, child := range p.children {
			ct := e.explain(child, lines)
			tr.Children = append(tr.Children, ct)
			if i == 0 || ct.Count < tr.Count {
				tr.Count = ct.Count
			}
		}
	case *Disjunction:
		for _, child := range p.children {
			ct := e.explain(child, lines)
			tr.Children = append(tr.Children, ct)
			tr.Count += ct.Count
		}
	default:
		tr.Count = e.count(p, lines)
	}
	return tr
}

// String renders the trace as an indented tree, one node per line.
func (t *Trace) String() string {
	var b strings.Builder
	t.write(&b, 0)
	return b.String()
}

func (t *Trace) write(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	switch t.Pattern.(type) {
	case *Conjunction:
		fmt.Fprintf(b, "%s%s (min) = %d\n", indent, KeywordAll, t.Count)
	case *Disjunction:
		fmt.Fprintf(b, "%s%s (sum) = %d\n", indent, KeywordAny, t.Count)
	default:
		fmt.Fprintf(b, "%s%s = %d\n", indent, t.Pattern, t.Count)
	}
	for _, child := range t.Children {
		child.write(b, depth+1)
	}
}
