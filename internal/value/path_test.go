package value

import (
	"errors"
	"testing"
)

func mustJSON(t *testing.T, raw string) Value {
	t.Helper()
	v, err := FromJSON([]byte(raw))
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	return v
}

func TestResolveNestedPath(t *testing.T) {
	t.Parallel()

	root := mustJSON(t, `{"body":{"data":{"users":[{"address":{"city":"Madrid"}}]}}}`)

	got, err := Resolve(root, "body.data.users[0].address.city")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s, _ := got.StringValue(); s != "Madrid" {
		t.Fatalf("unexpected value: %q", s)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	t.Parallel()

	root := mustJSON(t, `{"items":[{"id":1},{"id":2}]}`)

	first, err := Resolve(root, "items[1].id")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := Resolve(root, "items[1].id")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !first.Equal(second) {
		t.Fatal("expected identical values on repeated resolution")
	}
}

func TestResolveLength(t *testing.T) {
	t.Parallel()

	root := mustJSON(t, `{"roles":["admin","editor"],"empty":[],"name":"x"}`)

	got, err := Resolve(root, "roles.length")
	if err != nil {
		t.Fatalf("resolve roles.length: %v", err)
	}
	if n, _ := got.NumberValue(); n != 2 {
		t.Fatalf("expected 2, got %v", n)
	}

	got, err = Resolve(root, "empty.length")
	if err != nil {
		t.Fatalf("resolve empty.length: %v", err)
	}
	if n, _ := got.NumberValue(); n != 0 {
		t.Fatalf("expected 0, got %v", n)
	}

	if _, err := Resolve(root, "name.length"); err == nil {
		t.Fatal("expected length on a string to fail")
	}
}

func TestResolveHeaderStyleSegment(t *testing.T) {
	t.Parallel()

	root := mustJSON(t, `{"headers":{"Content-Type":"application/json"}}`)

	got, err := Resolve(root, "headers.Content-Type")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s, _ := got.StringValue(); s != "application/json" {
		t.Fatalf("unexpected value: %q", s)
	}
}

func TestResolveFailuresCarryContext(t *testing.T) {
	t.Parallel()

	root := mustJSON(t, `{"body":{"items":[1,2]}}`)

	_, err := Resolve(root, "body.items[5]")
	if err == nil {
		t.Fatal("expected out-of-range index to fail")
	}

	var pathErr *PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected PathError, got %T", err)
	}
	if pathErr.Path != "body.items[5]" {
		t.Fatalf("unexpected path: %q", pathErr.Path)
	}
	if pathErr.Resolved != "body.items" {
		t.Fatalf("unexpected resolved prefix: %q", pathErr.Resolved)
	}

	// Keys are case-sensitive.
	if _, err := Resolve(root, "Body.items"); err == nil {
		t.Fatal("expected case-sensitive key lookup to fail")
	}

	// Negative and malformed indexes are rejected at parse time.
	if _, err := Resolve(root, "body.items[-1]"); err == nil {
		t.Fatal("expected negative index to fail")
	}
	if _, err := Resolve(root, "body.items[x]"); err == nil {
		t.Fatal("expected malformed index to fail")
	}
}
