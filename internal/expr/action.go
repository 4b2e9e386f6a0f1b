package expr

import (
	"fmt"
	"strings"
)

// Statement is a single parsed action assignment: $Name = <rhs>.
type Statement struct {
	Name string
	RHS  Node
	Raw  string
}

// ParseActions splits an action cell into its ';'- and newline-separated
// statements and parses each one. The right-hand side must be a path
// expression, a variable reference, or a literal.
func ParseActions(input string) ([]Statement, error) {
	var statements []Statement

	for _, raw := range splitStatements(input) {
		stmt, err := parseStatement(raw)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	return statements, nil
}

func splitStatements(input string) []string {
	var parts []string
	for _, chunk := range strings.FieldsFunc(input, func(r rune) bool {
		return r == ';' || r == '\n'
	}) {
		if trimmed := strings.TrimSpace(chunk); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func parseStatement(raw string) (Statement, error) {
	tokens, err := tokenize(raw)
	if err != nil {
		return Statement{}, &ParseError{Input: raw, Message: err.Error()}
	}

	p := &parser{input: raw, tokens: tokens}

	nameTok := p.next()
	if nameTok.kind != tokenVar {
		return Statement{}, p.errorf("expected $NAME on the left-hand side, got %s", nameTok)
	}

	if eq := p.next(); eq.kind != tokenAssign {
		return Statement{}, p.errorf("expected '=' after $%s, got %s", nameTok.text, eq)
	}

	rhs, err := p.parsePrimary()
	if err != nil {
		return Statement{}, err
	}
	switch rhs.(type) {
	case PathRef, VarRef, Literal:
	default:
		return Statement{}, p.errorf("right-hand side must be a path, variable, or literal")
	}

	if tok := p.peek(); tok.kind != tokenEOF {
		return Statement{}, p.errorf("unexpected %s after assignment", tok)
	}

	return Statement{Name: nameTok.text, RHS: rhs, Raw: raw}, nil
}

// ExecuteActions evaluates each statement against the evaluator's response
// tree and writes the canonical string form of the result into the store. A
// failing statement is reported but does not stop the remaining statements.
func (ev *Evaluator) ExecuteActions(statements []Statement) []string {
	var failures []string

	for _, stmt := range statements {
		resolved, err := ev.eval(stmt.RHS)
		if err != nil {
			failures = append(failures, fmt.Sprintf("action %q: %v", stmt.Raw, err))
			continue
		}
		ev.Store.Set(stmt.Name, resolved.Text())
		ev.trace("action set $%s = %q", stmt.Name, resolved.Text())
	}

	return failures
}
