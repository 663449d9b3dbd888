package regex

import "github.com/coregx/coregex"

// CoregexEngine compiles expressions with github.com/coregx/coregex, a
// pure-Go engine using RE2 syntax with linear-time matching.
type CoregexEngine struct{}

// NewCoregex creates a coregex engine.
func NewCoregex() *CoregexEngine {
	return &CoregexEngine{}
}

// Name returns "coregex".
func (e *CoregexEngine) Name() string { return "coregex" }

// Compile compiles expr.
func (e *CoregexEngine) Compile(expr string) (Regexp, error) {
	re, err := coregex.Compile(expr)
	if err != nil {
		return nil, err
	}
	return re, nil
}
