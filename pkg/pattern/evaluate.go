package pattern

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// DefaultParallelThreshold is the number of line (or window) checks at
// which an evaluator starts fanning work out to its workers.
const DefaultParallelThreshold = 1024

// Evaluator counts pattern occurrences in line sequences. The zero value is
// not usable; create one with NewEvaluator. An Evaluator holds no per-call
// state and is safe for concurrent use.
type Evaluator struct {
	workers   int
	threshold int
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithWorkers sets how many goroutines share the checks of one node.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) EvaluatorOption {
	return func(e *Evaluator) {
		e.workers = n
	}
}

// WithParallelThreshold sets the number of checks below which a node is
// evaluated on the calling goroutine. Values below 1 select
// DefaultParallelThreshold.
func WithParallelThreshold(n int) EvaluatorOption {
	return func(e *Evaluator) {
		e.threshold = n
	}
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	if e.threshold < 1 {
		e.threshold = DefaultParallelThreshold
	}
	return e
}

var defaultEvaluator = NewEvaluator()

// Evaluate counts the occurrences of p in lines with the default evaluator.
func Evaluate(p Pattern, lines []string) int {
	return defaultEvaluator.Evaluate(p, lines)
}

// Evaluate counts the occurrences of p in lines. Lines are matched with
// surrounding whitespace removed. The result is never negative and an empty
// document scores 0.
func (e *Evaluator) Evaluate(p Pattern, lines []string) int {
	return e.count(p, trimLines(lines))
}

func (e *Evaluator) count(p Pattern, lines []string) int {
	switch p := p.(type) {
	case *Literal:
		if p.term == nil {
			return 0
		}
		return e.countLines(p.term, lines)

	case *Sequence:
		switch len(p.terms) {
		case 0:
			return 0
		case 1:
			return e.countLines(p.terms[0], lines)
		}
		return e.countWindows(p.terms, lines)

	case *Conjunction:
		if len(p.children) == 0 {
			return 0
		}
		least := e.count(p.children[0], lines)
		for _, child := range p.children[1:] {
			if least == 0 {
				break
			}
			if n := e.count(child, lines); n < least {
				least = n
			}
		}
		return least

	case *Disjunction:
		total := 0
		for _, child := range p.children {
			total += e.count(child, lines)
		}
		return total

	default:
		panic(fmt.Sprintf("pattern: unknown pattern type %T", p))
	}
}

// countLines counts the lines matched by t.
func (e *Evaluator) countLines(t *Term, lines []string) int {
	return e.parallelCount(len(lines), func(i int) bool {
		return t.Match(lines[i])
	})
}

// countWindows counts the start positions s at which lines[s+i] matches
// terms[i] for every i.
func (e *Evaluator) countWindows(terms []*Term, lines []string) int {
	starts := len(lines) - len(terms) + 1
	if starts <= 0 {
		return 0
	}
	return e.parallelCount(starts, func(s int) bool {
		for i, t := range terms {
			if !t.Match(lines[s+i]) {
				return false
			}
		}
		return true
	})
}

// parallelCount counts the indexes in [0, n) satisfying check. Above the
// threshold the range is split into one contiguous chunk per worker.
func (e *Evaluator) parallelCount(n int, check func(int) bool) int {
	if n < e.threshold || e.workers < 2 {
		count := 0
		for i := 0; i < n; i++ {
			if check(i) {
				count++
			}
		}
		return count
	}

	workers := e.workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	counts := make([]int, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= n {
			break
		}
		hi := min(lo+chunk, n)

		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			count := 0
			for i := lo; i < hi; i++ {
				if check(i) {
					count++
				}
			}
			counts[w] = count
		}(w, lo, hi)
	}
	wg.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

func trimLines(lines []string) []string {
	trimmed := make([]string, len(lines))
	for i, line := range lines {
		trimmed[i] = strings.TrimSpace(line)
	}
	return trimmed
}
