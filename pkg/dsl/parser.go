package dsl

type parser struct {
	lex *lexer
	tok token
}

// Parse parses a single pattern expression. The whole of src must be
// consumed; anything after the expression other than whitespace and
// comments is an error.
func Parse(src string) (Node, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokEOF {
		return nil, errorf(p.tok.pos, "empty pattern")
	}

	node, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, errorf(p.tok.pos, "unexpected %s after pattern", p.tok.describe())
	}
	return node, nil
}

func (p *parser) next() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expr() (Node, error) {
	switch p.tok.kind {
	case tokString:
		lit := &StringLit{At: p.tok.pos, Value: p.tok.text, Flags: p.tok.flags}
		return lit, p.next()
	case tokIdent:
		return p.block()
	default:
		return nil, errorf(p.tok.pos, "expected string literal or combinator, found %s", p.tok.describe())
	}
}

func (p *parser) block() (Node, error) {
	b := &Block{At: p.tok.pos, Keyword: p.tok.text}
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokLBrace {
		return nil, errorf(p.tok.pos, "expected '{' after %q, found %s", b.Keyword, p.tok.describe())
	}
	if err := p.next(); err != nil {
		return nil, err
	}

	for p.tok.kind != tokRBrace {
		item, err := p.expr()
		if err != nil {
			return nil, err
		}
		b.Items = append(b.Items, item)

		if p.tok.kind == tokRBrace {
			break
		}
		if p.tok.kind != tokComma {
			return nil, errorf(p.tok.pos, "expected ',' or '}' in %q block, found %s", b.Keyword, p.tok.describe())
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return b, p.next()
}
