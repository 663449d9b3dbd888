package pattern

import (
	"fmt"

	"github.com/praetorian-inc/docsearch/pkg/dsl"
)

// CompileError reports a pattern that could not be compiled: malformed
// syntax, an unknown combinator, a block that is empty or holds the wrong
// kind of child, or a literal that is not a valid regex.
type CompileError struct {
	Pos dsl.Pos
	Msg string
	Err error // *dsl.SyntaxError, *RegexError or nil
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %s: %s", e.Pos, e.Msg)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// RegexError reports a literal whose composed expression the regex engine
// rejected.
type RegexError struct {
	Expr   string // composed expression, flags included
	Engine string
	Err    error
}

func (e *RegexError) Error() string {
	return fmt.Sprintf("invalid regex %q (%s): %v", e.Expr, e.Engine, e.Err)
}

func (e *RegexError) Unwrap() error {
	return e.Err
}
