package pattern

import (
	"errors"
	"fmt"
	"sync"

	"github.com/praetorian-inc/docsearch/pkg/dsl"
	"github.com/praetorian-inc/docsearch/pkg/regex"
)

var (
	defaultCache     *regex.Cache
	defaultCacheOnce sync.Once
)

// DefaultCache returns the process-wide regex cache used when Compile is
// called without WithCache or WithEngine. It uses the default engine.
func DefaultCache() *regex.Cache {
	defaultCacheOnce.Do(func() {
		defaultCache = regex.NewCache(regex.NewRegexp2(regex.DefaultMatchTimeout))
	})
	return defaultCache
}

type compileConfig struct {
	cache *regex.Cache
}

// Option configures compilation.
type Option func(*compileConfig)

// WithCache compiles literals through cache, sharing regexes with every
// other pattern compiled through it.
func WithCache(cache *regex.Cache) Option {
	return func(c *compileConfig) {
		c.cache = cache
	}
}

// WithEngine compiles literals with engine through a cache private to this
// compilation.
func WithEngine(engine regex.Engine) Option {
	return func(c *compileConfig) {
		c.cache = regex.NewCache(engine)
	}
}

func newCompileConfig(opts []Option) *compileConfig {
	cfg := &compileConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.cache == nil {
		cfg.cache = DefaultCache()
	}
	return cfg
}

// Compile parses src and compiles it into a Pattern. Any error is returned
// as a *CompileError and no pattern is produced.
func Compile(src string, opts ...Option) (Pattern, error) {
	node, err := dsl.Parse(src)
	if err != nil {
		var synErr *dsl.SyntaxError
		if errors.As(err, &synErr) {
			return nil, &CompileError{Pos: synErr.Pos, Msg: synErr.Msg, Err: synErr}
		}
		return nil, err
	}
	return CompileNode(node, opts...)
}

// MustCompile is like Compile but panics on error. It is meant for patterns
// fixed at build time.
func MustCompile(src string, opts ...Option) Pattern {
	p, err := Compile(src, opts...)
	if err != nil {
		panic(fmt.Sprintf("pattern: Compile(%q): %v", src, err))
	}
	return p
}

// CompileNode compiles an already parsed expression.
func CompileNode(node dsl.Node, opts ...Option) (Pattern, error) {
	cfg := newCompileConfig(opts)
	return cfg.lower(node)
}

// CompileTerm compiles one literal with its flag suffix.
func CompileTerm(source, flags string, opts ...Option) (*Term, error) {
	cfg := newCompileConfig(opts)
	return cfg.term(&dsl.StringLit{Value: source, Flags: flags})
}

func (c *compileConfig) lower(node dsl.Node) (Pattern, error) {
	switch n := node.(type) {
	case *dsl.StringLit:
		t, err := c.term(n)
		if err != nil {
			return nil, err
		}
		return NewLiteral(t), nil
	case *dsl.Block:
		return c.block(n)
	default:
		return nil, &CompileError{Pos: node.Pos(), Msg: fmt.Sprintf("unsupported node %T", node)}
	}
}

func (c *compileConfig) block(b *dsl.Block) (Pattern, error) {
	switch b.Keyword {
	case KeywordAny, KeywordAll, KeywordSequence, KeywordSeq:
	default:
		return nil, &CompileError{
			Pos: b.Pos(),
			Msg: fmt.Sprintf("unknown combinator %q (expected %s, %s or %s)", b.Keyword, KeywordAny, KeywordAll, KeywordSequence),
		}
	}
	if len(b.Items) == 0 {
		return nil, &CompileError{Pos: b.Pos(), Msg: fmt.Sprintf("%s block requires at least one pattern", b.Keyword)}
	}

	switch b.Keyword {
	case KeywordAll:
		children := make([]Pattern, 0, len(b.Items))
		for _, item := range b.Items {
			child, err := c.lower(item)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return &Conjunction{children: children}, nil

	case KeywordAny:
		terms, err := c.terms(b)
		if err != nil {
			return nil, err
		}
		children := make([]Pattern, len(terms))
		for i, t := range terms {
			children[i] = NewLiteral(t)
		}
		return &Disjunction{children: children}, nil

	default:
		terms, err := c.terms(b)
		if err != nil {
			return nil, err
		}
		return &Sequence{terms: terms}, nil
	}
}

// terms compiles the items of a block that only admits string literals.
func (c *compileConfig) terms(b *dsl.Block) ([]*Term, error) {
	terms := make([]*Term, 0, len(b.Items))
	for _, item := range b.Items {
		lit, ok := item.(*dsl.StringLit)
		if !ok {
			return nil, &CompileError{
				Pos: item.Pos(),
				Msg: fmt.Sprintf("%s block accepts only string literals, found %s", b.Keyword, describe(item)),
			}
		}
		t, err := c.term(lit)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, nil
}

func (c *compileConfig) term(lit *dsl.StringLit) (*Term, error) {
	expr := regex.Compose(lit.Value, lit.Flags)
	re, err := c.cache.Compile(expr)
	if err != nil {
		regexErr := &RegexError{Expr: expr, Engine: c.cache.Engine().Name(), Err: err}
		return nil, &CompileError{Pos: lit.Pos(), Msg: regexErr.Error(), Err: regexErr}
	}
	return &Term{source: lit.Value, flags: lit.Flags, re: re}, nil
}

func describe(node dsl.Node) string {
	if b, ok := node.(*dsl.Block); ok {
		return fmt.Sprintf("%q block", b.Keyword)
	}
	return fmt.Sprintf("%T", node)
}
