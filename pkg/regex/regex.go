// Package regex provides the regular-expression engines used to compile the
// string literals of a pattern.
//
// Every engine returns a Regexp that is safe for concurrent use. Patterns
// normally obtain their regexes through a Cache so that each distinct
// expression is compiled exactly once and shared by every node that uses it.
package regex

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Regexp is a compiled regular expression.
type Regexp interface {
	// MatchString reports whether the expression matches anywhere in s.
	MatchString(s string) bool

	// String returns the source expression the Regexp was compiled from.
	String() string
}

// Engine compiles regular expressions.
type Engine interface {
	// Name identifies the engine in configuration and diagnostics.
	Name() string

	// Compile compiles expr. Inline flag groups such as (?i) are part of expr.
	Compile(expr string) (Regexp, error)
}

// DefaultEngine is the engine used when none is configured.
const DefaultEngine = "regexp2"

// DefaultMatchTimeout bounds a single regexp2 match call.
const DefaultMatchTimeout = 5 * time.Second

// Options configures engine construction.
type Options struct {
	// MatchTimeout bounds a single match call for engines that backtrack.
	// Zero selects DefaultMatchTimeout.
	MatchTimeout time.Duration
}

var constructors = map[string]func(Options) Engine{
	"regexp2": func(o Options) Engine { return NewRegexp2(o.MatchTimeout) },
	"coregex": func(Options) Engine { return NewCoregex() },
}

// New returns the engine registered under name.
func New(name string, opts Options) (Engine, error) {
	if name == "" {
		name = DefaultEngine
	}
	ctor, ok := constructors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown regex engine %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(opts), nil
}

// Names lists the registered engine names in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compose builds the expression for a literal carrying a flag suffix.
// The flags become a leading inline group covering the whole pattern.
func Compose(source, flags string) string {
	if flags == "" {
		return source
	}
	return "(?" + flags + ")" + source
}
