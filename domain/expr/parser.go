package expr

import (
	"fmt"

	"opencm/domain/core"
)

// Parse parses equation text into an AST.
//
// Grammar, loosest-binding first:
//
//	sum     = product (("+" | "-") product)*
//	product = power (("*" | "/") power)*
//	power   = unary ("**" power)?          right-associative
//	unary   = "-" unary | primary          unary minus binds tightest
//	primary = number | ident | ident "(" args ")" | "(" sum ")"
//
// Calls are restricted to the built-in set, each with fixed arity, checked
// here so malformed equations surface at validation time rather than
// mid-simulation.
func Parse(input string) (*Node, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	node, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at position %d", core.ErrParse, p.peek().text, p.peek().pos)
	}
	return node, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseSum() (*Node, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "+" || p.peek().text == "-") {
		op := p.next().text
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: KindBinary, Op: op, Args: []*Node{left, right}}
	}
	return left, nil
}

func (p *parser) parseProduct() (*Node, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "*" || p.peek().text == "/") {
		op := p.next().text
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: KindBinary, Op: op, Args: []*Node{left, right}}
	}
	return left, nil
}

func (p *parser) parsePower() (*Node, error) {
	base, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind == tokOp && p.peek().text == "**" {
		p.next()
		exp, err := p.parsePower() // right-associative
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindBinary, Op: "**", Args: []*Node{base, exp}}, nil
	}
	return base, nil
}

func (p *parser) parseUnary() (*Node, error) {
	if p.peek().kind == tokOp && p.peek().text == "-" {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindUnary, Op: "-", Args: []*Node{operand}}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &Node{Kind: KindNumber, Value: t.num}, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(t)
		}
		return &Node{Kind: KindIdent, Name: t.text}, nil
	case tokLParen:
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("%w: expected ')' at position %d", core.ErrParse, p.peek().pos)
		}
		p.next()
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("%w: unexpected end of expression", core.ErrParse)
	default:
		return nil, fmt.Errorf("%w: unexpected %q at position %d", core.ErrParse, t.text, t.pos)
	}
}

func (p *parser) parseCall(name token) (*Node, error) {
	arity, ok := builtins[name.text]
	if !ok {
		return nil, fmt.Errorf("%w: unknown function %q at position %d", core.ErrParse, name.text, name.pos)
	}
	p.next() // consume '('

	var args []*Node
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if p.peek().kind != tokRParen {
		return nil, fmt.Errorf("%w: expected ')' after arguments to %q", core.ErrParse, name.text)
	}
	p.next()

	if len(args) != arity {
		return nil, fmt.Errorf("%w: %s takes %d argument(s), got %d", core.ErrParse, name.text, arity, len(args))
	}
	return &Node{Kind: KindCall, Name: name.text, Args: args}, nil
}
