package expr

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sheetcheck/internal/env"
	"sheetcheck/internal/value"
)

func resultTree(t *testing.T, body string) value.Value {
	t.Helper()
	bodyVal, err := value.FromJSON([]byte(body))
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	return value.Map(map[string]value.Value{
		"code":            value.Number(200),
		"headers":         value.StringMap(map[string]string{"Content-Type": "application/json"}),
		"cookies":         value.StringMap(nil),
		"body":            bodyVal,
		"elapsed_time_ms": value.Number(12.5),
	})
}

func newEvaluator(t *testing.T, body string) *Evaluator {
	t.Helper()
	return &Evaluator{Root: resultTree(t, body), Store: env.NewStore()}
}

func evaluate(t *testing.T, ev *Evaluator, cond string) bool {
	t.Helper()
	verdict, evalErr, err := ev.EvaluateCondition(cond)
	if err != nil {
		t.Fatalf("condition %q: %v", cond, err)
	}
	if evalErr != nil {
		t.Fatalf("condition %q: evaluation failure: %v", cond, evalErr)
	}
	return verdict
}

func TestConditionScenarioSuccessAndRoleCount(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, `{"status":"success","data":{"roles":["admin","editor"]}}`)

	cond := "equal(result.body.status,'success') and result.body.data.roles.length == 2"
	if !evaluate(t, ev, cond) {
		t.Fatalf("expected condition to hold: %s", cond)
	}
}

func TestConditionContainsOnTextBody(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, `{"text":"hello"}`)

	if !evaluate(t, ev, "contains(result.body.text,'ell')") {
		t.Fatal("expected substring match")
	}
	if evaluate(t, ev, "contains(result.body.text,'xyz')") {
		t.Fatal("expected substring miss")
	}
}

func TestConditionOperatorsAndPrecedence(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, `{"count":5,"name":"alpha","enabled":true}`)

	cases := []struct {
		cond string
		want bool
	}{
		{"result.body.count > 3", true},
		{"result.body.count >= 5", true},
		{"result.body.count < 3", false},
		{"result.body.count <= 4", false},
		{"result.body.count != 5", false},
		{"result.body.name == 'alpha'", true},
		{"result.code == 200 and result.body.count > 3", true},
		{"result.body.count > 9 or result.body.enabled", true},
		// "and" binds tighter than "or".
		{"false and false or true", true},
		{"not false", true},
		{"not (result.body.count > 3)", false},
		{"greatThan(result.body.count, 4)", true},
		{"lessThan(result.body.count, 4)", false},
		{"(result.body.count > 4) and (result.body.count < 6)", true},
	}

	for _, tc := range cases {
		if got := evaluate(t, ev, tc.cond); got != tc.want {
			t.Fatalf("condition %q: got %t, want %t", tc.cond, got, tc.want)
		}
	}
}

func TestConditionIsNullChecks(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, `{"gone":null,"name":"x"}`)

	if !evaluate(t, ev, "result.body.gone is null") {
		t.Fatal("expected null field to be null")
	}
	if !evaluate(t, ev, "result.body.name is not null") {
		t.Fatal("expected present field to be not null")
	}
	if evaluate(t, ev, "result.body.name is null") {
		t.Fatal("expected present field not to be null")
	}
}

func TestConditionPathFailureEvaluatesFalse(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, `{"name":"x"}`)

	verdict, evalErr, err := ev.EvaluateCondition("result.body.missing.deep == 1")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if verdict {
		t.Fatal("expected unresolvable path to evaluate false")
	}
	if evalErr == nil || evalErr.Path != "result.body.missing.deep" {
		t.Fatalf("expected path diagnostic, got %+v", evalErr)
	}
	if !IsPathError(evalErr) {
		t.Fatal("expected wrapped PathError")
	}
}

func TestConditionSyntaxErrors(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, `{}`)

	for _, cond := range []string{
		"",
		"equal(result.body.x)",
		"result.body.x ==",
		"nonsense(result.body.x, 1)",
		"(result.code == 200",
	} {
		if _, _, err := ev.EvaluateCondition(cond); err == nil {
			t.Fatalf("expected syntax error for %q", cond)
		}
	}
}

func TestConditionNumericCoercionAcrossKinds(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, `{"id":"42"}`)
	ev.Store.Set("expected", "42")

	// A $VAR left undefined at substitution time resolves at evaluation
	// time against the live store.
	if !evaluate(t, ev, "result.body.id == $expected") {
		t.Fatal("expected string/number coercion through variable")
	}

	verdict, evalErr, err := ev.EvaluateCondition("greatThan(result.body.id, 'abc')")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if verdict || evalErr == nil {
		t.Fatal("expected non-numeric comparison to fail evaluation")
	}
}

func TestParseActionsShapes(t *testing.T) {
	t.Parallel()

	statements, err := ParseActions("$A = result.body.x ; $B = $A\n$C = 'literal'")
	if err != nil {
		t.Fatalf("parse actions: %v", err)
	}

	var names []string
	for _, stmt := range statements {
		names = append(names, stmt.Name)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, names); diff != "" {
		t.Fatalf("unexpected statement names (-want +got):\n%s", diff)
	}

	if _, ok := statements[0].RHS.(PathRef); !ok {
		t.Fatalf("expected PathRef, got %T", statements[0].RHS)
	}
	if _, ok := statements[1].RHS.(VarRef); !ok {
		t.Fatalf("expected VarRef, got %T", statements[1].RHS)
	}
	if _, ok := statements[2].RHS.(Literal); !ok {
		t.Fatalf("expected Literal, got %T", statements[2].RHS)
	}

	for _, bad := range []string{
		"result.body.x",
		"$A == result.body.x",
		"$A = contains(result.body, 'x')",
	} {
		if _, err := ParseActions(bad); err == nil {
			t.Fatalf("expected parse error for %q", bad)
		}
	}
}

func TestExecuteActionsWritesCanonicalStrings(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, `{"access_token":42,"user":{"name":"ana"},"tags":["a","b"],"ok":true,"gone":null}`)
	ev.Store.Set("untouched", "keep")

	statements, err := ParseActions(
		"$TOKEN = result.body.access_token; $NAME = result.body.user.name; $TAGS = result.body.tags; $OK = result.body.ok; $GONE = result.body.gone")
	if err != nil {
		t.Fatalf("parse actions: %v", err)
	}

	failures := ev.ExecuteActions(statements)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}

	want := map[string]string{
		"untouched": "keep",
		"TOKEN":     "42",
		"NAME":      "ana",
		"TAGS":      `["a","b"]`,
		"OK":        "true",
		"GONE":      "null",
	}
	if diff := cmp.Diff(want, ev.Store.Snapshot()); diff != "" {
		t.Fatalf("unexpected store contents (-want +got):\n%s", diff)
	}

	// Round trip: the stored number substitutes as plain text.
	if got := ev.Store.Substitute("token=$TOKEN"); got != "token=42" {
		t.Fatalf("unexpected substitution: %q", got)
	}
}

func TestExecuteActionsContinuesPastFailures(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t, `{"x":1}`)

	statements, err := ParseActions("$A = result.body.missing; $B = result.body.x")
	if err != nil {
		t.Fatalf("parse actions: %v", err)
	}

	failures := ev.ExecuteActions(statements)
	if len(failures) != 1 || !strings.Contains(failures[0], "result.body.missing") {
		t.Fatalf("unexpected failures: %v", failures)
	}

	if _, ok := ev.Store.Get("A"); ok {
		t.Fatal("failed assignment must not write")
	}
	if v, _ := ev.Store.Get("B"); v != "1" {
		t.Fatalf("expected later statement to run, got %q", v)
	}
}
