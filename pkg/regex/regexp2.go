package regex

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dlclark/regexp2"
)

// Regexp2Engine compiles expressions with github.com/dlclark/regexp2.
//
// RE2-compatible syntax is tried first; expressions that need the wider
// .NET/Perl dialect (lookaround, backreferences) fall back to the default
// mode. In RE2 mode the shorthand classes \d, \w and \s are expanded to
// Unicode category sets first, so they match beyond ASCII in both modes.
// Each match call is bounded by the configured timeout.
type Regexp2Engine struct {
	timeout time.Duration
}

// NewRegexp2 creates a regexp2 engine. A zero timeout selects DefaultMatchTimeout.
func NewRegexp2(timeout time.Duration) *Regexp2Engine {
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	return &Regexp2Engine{timeout: timeout}
}

// Name returns "regexp2".
func (e *Regexp2Engine) Name() string { return "regexp2" }

// Compile compiles expr.
func (e *Regexp2Engine) Compile(expr string) (Regexp, error) {
	re, err := regexp2.Compile(unicodeClasses(expr), regexp2.RE2)
	if err != nil {
		re, err = regexp2.Compile(expr, regexp2.None)
		if err != nil {
			return nil, err
		}
	}
	re.MatchTimeout = e.timeout
	return &regexp2Regexp{re: re, expr: expr}, nil
}

type regexp2Regexp struct {
	re     *regexp2.Regexp
	expr   string
	warned atomic.Bool
}

// MatchString treats a match error as a non-match. The first error per
// expression is reported on stderr.
func (r *regexp2Regexp) MatchString(s string) bool {
	ok, err := r.re.MatchString(s)
	if err != nil {
		if r.warned.CompareAndSwap(false, true) {
			if strings.Contains(err.Error(), "match timeout") {
				fmt.Fprintf(os.Stderr, "[warn] regex %q timed out (treating as no match)\n", r.expr)
			} else {
				fmt.Fprintf(os.Stderr, "[warn] regex %q error (treating as no match): %v\n", r.expr, err)
			}
		}
		return false
	}
	return ok
}

func (r *regexp2Regexp) String() string {
	return r.expr
}
