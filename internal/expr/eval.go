package expr

import (
	"errors"
	"fmt"
	"strings"

	"sheetcheck/internal/env"
	"sheetcheck/internal/value"
)

// Logger is the minimal logging interface used for verbose evaluation
// traces.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Evaluator walks an expression tree against the per-row response tree and
// the environment store.
type Evaluator struct {
	Root  value.Value
	Store *env.Store

	// Verbose enables per-condition tracing through Logger.
	Verbose bool
	Logger  Logger
}

// EvalError reports a non-fatal evaluation failure: an unresolvable path, an
// undefined variable, or a type mismatch. Conditions containing such a
// failure evaluate to false rather than aborting the row.
type EvalError struct {
	Message string
	// Path is set when the failure originated from a path expression.
	Path string
	err  error
}

func (e *EvalError) Error() string {
	return e.Message
}

func (e *EvalError) Unwrap() error {
	return e.err
}

// EvaluateCondition parses and evaluates a boolean condition. Evaluation
// failures (unresolvable paths, type mismatches) yield false alongside the
// failure so the caller can record it in the row details; only syntax errors
// are returned without a verdict.
func (ev *Evaluator) EvaluateCondition(input string) (bool, *EvalError, error) {
	node, err := ParseCondition(input)
	if err != nil {
		return false, nil, err
	}

	result, evalErr := ev.eval(node)
	if evalErr != nil {
		ev.trace("condition %q failed to evaluate: %v", input, evalErr)
		return false, evalErr, nil
	}

	verdict := truthy(result)
	ev.trace("condition %q evaluated to %t", input, verdict)
	return verdict, nil, nil
}

func (ev *Evaluator) trace(format string, args ...any) {
	if ev.Verbose && ev.Logger != nil {
		ev.Logger.Printf("  "+format, args...)
	}
}

func (ev *Evaluator) eval(node Node) (value.Value, *EvalError) {
	switch n := node.(type) {
	case Literal:
		return n.Val, nil
	case PathRef:
		return ev.resolvePath(n)
	case VarRef:
		stored, ok := ev.Store.Get(n.Name)
		if !ok {
			return value.Null(), &EvalError{Message: fmt.Sprintf("variable %q is not defined", n.Name)}
		}
		return value.String(stored), nil
	case Not:
		operand, err := ev.eval(n.Operand)
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(!truthy(operand)), nil
	case IsNullCheck:
		operand, err := ev.eval(n.Operand)
		if err != nil {
			return value.Null(), err
		}
		isNull := operand.IsNull()
		if n.Negated {
			isNull = !isNull
		}
		return value.Bool(isNull), nil
	case BinaryOp:
		return ev.evalBinary(n)
	case FunctionCall:
		return ev.evalCall(n)
	default:
		return value.Null(), &EvalError{Message: fmt.Sprintf("unsupported expression node %T", node)}
	}
}

func (ev *Evaluator) resolvePath(ref PathRef) (value.Value, *EvalError) {
	if ref.Tail == "" {
		return ev.Root, nil
	}
	resolved, err := value.Resolve(ev.Root, ref.Tail)
	if err != nil {
		return value.Null(), &EvalError{
			Message: fmt.Sprintf("resolving %s: %v", ref.Path, err),
			Path:    ref.Path,
			err:     err,
		}
	}
	return resolved, nil
}

func (ev *Evaluator) evalBinary(n BinaryOp) (value.Value, *EvalError) {
	switch n.Op {
	case "and":
		left, err := ev.eval(n.Left)
		if err != nil {
			return value.Null(), err
		}
		if !truthy(left) {
			return value.Bool(false), nil
		}
		right, err := ev.eval(n.Right)
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(truthy(right)), nil
	case "or":
		left, err := ev.eval(n.Left)
		if err != nil {
			return value.Null(), err
		}
		if truthy(left) {
			return value.Bool(true), nil
		}
		right, err := ev.eval(n.Right)
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(truthy(right)), nil
	}

	left, err := ev.eval(n.Left)
	if err != nil {
		return value.Null(), err
	}
	right, err := ev.eval(n.Right)
	if err != nil {
		return value.Null(), err
	}

	switch n.Op {
	case "==":
		return value.Bool(looseEqual(left, right)), nil
	case "!=":
		return value.Bool(!looseEqual(left, right)), nil
	case ">", "<", ">=", "<=":
		return compareNumeric(left, right, n.Op)
	default:
		return value.Null(), &EvalError{Message: fmt.Sprintf("unsupported operator %q", n.Op)}
	}
}

func (ev *Evaluator) evalCall(n FunctionCall) (value.Value, *EvalError) {
	args := make([]value.Value, len(n.Args))
	for i, arg := range n.Args {
		resolved, err := ev.eval(arg)
		if err != nil {
			return value.Null(), err
		}
		args[i] = resolved
	}

	switch n.Name {
	case "contains":
		matched := strings.Contains(args[0].Text(), args[1].Text())
		if !matched {
			ev.trace("contains failed: %q not found in %q", args[1].Text(), preview(args[0].Text(), 200))
		}
		return value.Bool(matched), nil
	case "equal":
		matched := args[0].Equal(args[1]) || looseEqual(args[0], args[1])
		if !matched {
			ev.trace("equal failed: expected %s (%s), actual %s (%s)",
				args[1].Text(), args[1].Kind(), args[0].Text(), args[0].Kind())
		}
		return value.Bool(matched), nil
	case "greatThan":
		return compareNumeric(args[0], args[1], ">")
	case "lessThan":
		return compareNumeric(args[0], args[1], "<")
	default:
		return value.Null(), &EvalError{Message: fmt.Sprintf("unknown function %q", n.Name)}
	}
}

// looseEqual is structural equality with numeric coercion on the sides:
// Number(2) equals String("2") the way a spreadsheet author expects.
func looseEqual(left, right value.Value) bool {
	if left.Equal(right) {
		return true
	}
	if left.Kind() == right.Kind() {
		return false
	}
	lf, lok := left.Float()
	rf, rok := right.Float()
	return lok && rok && lf == rf
}

func compareNumeric(left, right value.Value, op string) (value.Value, *EvalError) {
	lf, lok := left.Float()
	rf, rok := right.Float()
	if !lok || !rok {
		return value.Null(), &EvalError{
			Message: fmt.Sprintf("cannot compare non-numeric values %q %s %q", left.Text(), op, right.Text()),
		}
	}

	var matched bool
	switch op {
	case ">":
		matched = lf > rf
	case "<":
		matched = lf < rf
	case ">=":
		matched = lf >= rf
	case "<=":
		matched = lf <= rf
	}
	return value.Bool(matched), nil
}

func truthy(v value.Value) bool {
	switch v.Kind() {
	case value.KindNull:
		return false
	case value.KindBool:
		b, _ := v.BoolValue()
		return b
	case value.KindNumber:
		n, _ := v.NumberValue()
		return n != 0
	case value.KindString:
		s, _ := v.StringValue()
		return s != ""
	case value.KindList:
		list, _ := v.ListValue()
		return len(list) > 0
	case value.KindMap:
		m, _ := v.MapValue()
		return len(m) > 0
	default:
		return false
	}
}

func preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

// IsPathError reports whether err (or anything it wraps) is a path
// resolution failure.
func IsPathError(err error) bool {
	var pathErr *value.PathError
	return errors.As(err, &pathErr)
}
