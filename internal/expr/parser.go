package expr

import (
	"fmt"
	"strconv"
	"strings"

	"sheetcheck/internal/value"
)

// Node is an immutable expression-tree node.
type Node interface {
	exprNode()
}

// Literal holds a constant value: true, false, null, a number, or a string.
type Literal struct {
	Val value.Value
}

// PathRef selects a sub-value of the per-row response tree. Path keeps the
// full expression text including the "result" root for diagnostics; Tail is
// the portion resolved against the tree (empty selects the root itself).
type PathRef struct {
	Path string
	Tail string
}

// VarRef reads an environment variable at evaluation time. It only appears
// for tokens that were still undefined when the row was substituted.
type VarRef struct {
	Name string
}

// Not negates the truthiness of its operand.
type Not struct {
	Operand Node
}

// BinaryOp is a comparison or logical operator application.
type BinaryOp struct {
	Op    string
	Left  Node
	Right Node
}

// FunctionCall applies one of the built-in validation functions.
type FunctionCall struct {
	Name string
	Args []Node
}

// IsNullCheck is the postfix "is null" / "is not null" test.
type IsNullCheck struct {
	Operand Node
	Negated bool
}

func (Literal) exprNode()      {}
func (PathRef) exprNode()      {}
func (VarRef) exprNode()       {}
func (Not) exprNode()          {}
func (BinaryOp) exprNode()     {}
func (FunctionCall) exprNode() {}
func (IsNullCheck) exprNode()  {}

var builtinFunctions = map[string]int{
	"contains":  2,
	"equal":     2,
	"greatThan": 2,
	"lessThan":  2,
}

// ParseError reports a syntactically invalid condition or action.
type ParseError struct {
	Input   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %q: %s", e.Input, e.Message)
}

type parser struct {
	input  string
	tokens []token
	pos    int
}

// ParseCondition parses a boolean condition expression.
func ParseCondition(input string) (Node, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, &ParseError{Input: input, Message: "condition is empty"}
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, &ParseError{Input: input, Message: err.Error()}
	}

	p := &parser{input: input, tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, p.errorf("unexpected %s after expression", tok)
	}
	return node, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) acceptKeyword(word string) bool {
	tok := p.peek()
	if tok.kind == tokenIdent && tok.text == word {
		p.next()
		return true
	}
	return false
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Input: p.input, Message: fmt.Sprintf(format, args...)}
}

// Precedence, loosest first: or, and, comparisons, not; the postfix
// "is null" binds directly to its operand.
func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("and") {
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if tok.kind != tokenOp {
		return left, nil
	}
	switch tok.text {
	case "==", "!=", ">", "<", ">=", "<=":
	default:
		return nil, p.errorf("unsupported operator %q", tok.text)
	}
	p.next()

	right, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return BinaryOp{Op: tok.text, Left: left, Right: right}, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.acceptKeyword("not") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Node, error) {
	operand, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if p.acceptKeyword("is") {
		negated := p.acceptKeyword("not")
		if !p.acceptKeyword("null") {
			return nil, p.errorf("expected 'null' after 'is'")
		}
		return IsNullCheck{Operand: operand, Negated: negated}, nil
	}

	return operand, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokenLParen:
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokenRParen {
			return nil, p.errorf("expected ')', got %s", closing)
		}
		return node, nil
	case tokenNumber:
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, p.errorf("invalid number %q", tok.text)
		}
		return Literal{Val: value.Number(f)}, nil
	case tokenString:
		return Literal{Val: value.String(tok.text)}, nil
	case tokenVar:
		return VarRef{Name: tok.text}, nil
	case tokenPath:
		return newPathRef(tok.text), nil
	case tokenIdent:
		switch tok.text {
		case "true":
			return Literal{Val: value.Bool(true)}, nil
		case "false":
			return Literal{Val: value.Bool(false)}, nil
		case "null":
			return Literal{Val: value.Null()}, nil
		case pathRoot:
			return newPathRef(pathRoot), nil
		}
		if arity, ok := builtinFunctions[tok.text]; ok {
			return p.parseCall(tok.text, arity)
		}
		return nil, p.errorf("unknown identifier %q", tok.text)
	default:
		return nil, p.errorf("unexpected %s", tok)
	}
}

func (p *parser) parseCall(name string, arity int) (Node, error) {
	if open := p.next(); open.kind != tokenLParen {
		return nil, p.errorf("expected '(' after %s", name)
	}

	var args []Node
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok := p.next()
		if tok.kind == tokenComma {
			continue
		}
		if tok.kind == tokenRParen {
			break
		}
		return nil, p.errorf("expected ',' or ')' in %s call, got %s", name, tok)
	}

	if len(args) != arity {
		return nil, p.errorf("%s expects %d arguments, got %d", name, arity, len(args))
	}

	return FunctionCall{Name: name, Args: args}, nil
}

func newPathRef(full string) PathRef {
	tail := strings.TrimPrefix(full, pathRoot)
	tail = strings.TrimPrefix(tail, ".")
	return PathRef{Path: full, Tail: tail}
}
