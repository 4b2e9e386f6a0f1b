// Package expr implements the condition and action mini-languages used by
// test rows: a tokenizer, a recursive-descent parser producing an immutable
// expression tree, and a tree-walking evaluator over the response value tree
// and the environment store. Raw cell text is never executed as code.
package expr

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenVar
	tokenPath
	tokenLParen
	tokenRParen
	tokenComma
	tokenAssign
	tokenOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokenEOF:
		return "end of input"
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// pathRoot is the identifier that introduces a path expression over the
// per-row response tree.
const pathRoot = "result"

type lexError struct {
	pos     int
	message string
}

func (e *lexError) Error() string {
	return fmt.Sprintf("position %d: %s", e.pos, e.message)
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", pos: i})
			i++
		case c == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ",", pos: i})
			i++
		case c == '=' || c == '!' || c == '<' || c == '>':
			op, width, err := lexOperator(input, i)
			if err != nil {
				return nil, err
			}
			kind := tokenOp
			if op == "=" {
				kind = tokenAssign
			}
			tokens = append(tokens, token{kind: kind, text: op, pos: i})
			i += width
		case c == '\'' || c == '"':
			text, width, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, text: text, pos: i})
			i += width
		case c == '$':
			name, width, err := lexVariable(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenVar, text: name, pos: i})
			i += width
		case c >= '0' && c <= '9', c == '-' && i+1 < len(input) && input[i+1] >= '0' && input[i+1] <= '9':
			text, width := lexNumber(input, i)
			tokens = append(tokens, token{kind: tokenNumber, text: text, pos: i})
			i += width
		case isIdentStart(c):
			text, width := lexIdent(input, i)
			if text == pathRoot && i+width < len(input) && (input[i+width] == '.' || input[i+width] == '[') {
				pathText, pathWidth := lexPath(input, i+width)
				tokens = append(tokens, token{kind: tokenPath, text: text + pathText, pos: i})
				i += width + pathWidth
				continue
			}
			tokens = append(tokens, token{kind: tokenIdent, text: text, pos: i})
			i += width
		default:
			return nil, &lexError{pos: i, message: fmt.Sprintf("unexpected character %q", c)}
		}
	}

	tokens = append(tokens, token{kind: tokenEOF, pos: len(input)})
	return tokens, nil
}

func lexOperator(input string, start int) (string, int, error) {
	rest := input[start:]
	for _, op := range []string{"==", "!=", ">=", "<="} {
		if strings.HasPrefix(rest, op) {
			return op, 2, nil
		}
	}
	switch input[start] {
	case '>', '<', '=':
		return input[start : start+1], 1, nil
	}
	return "", 0, &lexError{pos: start, message: fmt.Sprintf("unexpected character %q", input[start])}
}

func lexString(input string, start int) (string, int, error) {
	quote := input[start]
	i := start + 1
	var sb strings.Builder
	for i < len(input) {
		c := input[i]
		if c == '\\' && i+1 < len(input) {
			next := input[i+1]
			switch next {
			case quote, '\\':
				sb.WriteByte(next)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(next)
			}
			i += 2
			continue
		}
		if c == quote {
			return sb.String(), i - start + 1, nil
		}
		sb.WriteByte(c)
		i++
	}
	return "", 0, &lexError{pos: start, message: "unterminated string"}
}

func lexVariable(input string, start int) (string, int, error) {
	i := start + 1
	for i < len(input) && isIdentChar(input[i]) {
		i++
	}
	if i == start+1 {
		return "", 0, &lexError{pos: start, message: "'$' must be followed by a variable name"}
	}
	return input[start+1 : i], i - start, nil
}

func lexNumber(input string, start int) (string, int) {
	i := start
	if input[i] == '-' {
		i++
	}
	seenDot := false
	for i < len(input) {
		c := input[i]
		if c >= '0' && c <= '9' {
			i++
			continue
		}
		if c == '.' && !seenDot && i+1 < len(input) && input[i+1] >= '0' && input[i+1] <= '9' {
			seenDot = true
			i++
			continue
		}
		break
	}
	return input[start:i], i - start
}

func lexIdent(input string, start int) (string, int) {
	i := start
	for i < len(input) && isIdentChar(input[i]) {
		i++
	}
	return input[start:i], i - start
}

// lexPath consumes the dotted/bracketed tail of a path expression starting
// at a '.' or '[' that follows the root identifier. Segment characters stop
// at whitespace, operators, and delimiters so conditions like
// "result.headers.Content-Type == 'x'" tokenize as expected; dashes inside a
// segment belong to the segment.
func lexPath(input string, start int) (string, int) {
	i := start
	for i < len(input) {
		c := input[i]
		switch c {
		case '.', '[', ']':
			i++
		case ' ', '\t', '\r', '\n', '(', ')', ',', '=', '!', '<', '>', '\'', '"', ';':
			return input[start:i], i - start
		default:
			i++
		}
	}
	return input[start:i], i - start
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
