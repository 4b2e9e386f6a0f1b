package value

import (
	"testing"
)

func TestFromJSONRoundTripsShapes(t *testing.T) {
	t.Parallel()

	v, err := FromJSON([]byte(`{"status":"success","count":42,"flags":[true,null],"nested":{"x":1.5}}`))
	if err != nil {
		t.Fatalf("from json: %v", err)
	}

	m, ok := v.MapValue()
	if !ok {
		t.Fatalf("expected map, got %s", v.Kind())
	}

	if s, _ := m["status"].StringValue(); s != "success" {
		t.Fatalf("unexpected status: %q", s)
	}
	if n, _ := m["count"].NumberValue(); n != 42 {
		t.Fatalf("unexpected count: %v", n)
	}

	flags, ok := m["flags"].ListValue()
	if !ok || len(flags) != 2 {
		t.Fatalf("unexpected flags: %#v", m["flags"])
	}
	if b, _ := flags[0].BoolValue(); !b {
		t.Fatal("expected flags[0] to be true")
	}
	if !flags[1].IsNull() {
		t.Fatal("expected flags[1] to be null")
	}
}

func TestTextCanonicalForms(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   Value
		want string
	}{
		{"null", Null(), "null"},
		{"bool", Bool(true), "true"},
		{"integer number", Number(42), "42"},
		{"fractional number", Number(1.5), "1.5"},
		{"string verbatim", String("hello"), "hello"},
		{"list json", List([]Value{Number(1), String("a")}), `[1,"a"]`},
		{"map sorted keys", Map(map[string]Value{"b": Number(2), "a": Number(1)}), `{"a":1,"b":2}`},
	}

	for _, tc := range cases {
		if got := tc.in.Text(); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestEqualIsStructural(t *testing.T) {
	t.Parallel()

	a, err := FromJSON([]byte(`{"roles":["admin","editor"],"n":3}`))
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	b, err := FromJSON([]byte(`{"n":3,"roles":["admin","editor"]}`))
	if err != nil {
		t.Fatalf("from json: %v", err)
	}

	if !a.Equal(b) {
		t.Fatal("expected structural equality regardless of key order")
	}

	c, _ := FromJSON([]byte(`{"n":3,"roles":["editor","admin"]}`))
	if a.Equal(c) {
		t.Fatal("expected list order to matter")
	}

	if Number(1).Equal(String("1")) {
		t.Fatal("expected kind mismatch to be unequal")
	}
}

func TestFloatCoercion(t *testing.T) {
	t.Parallel()

	if f, ok := Number(2.5).Float(); !ok || f != 2.5 {
		t.Fatalf("number coercion failed: %v %v", f, ok)
	}
	if f, ok := String(" 7 ").Float(); !ok || f != 7 {
		t.Fatalf("string coercion failed: %v %v", f, ok)
	}
	if _, ok := Bool(true).Float(); ok {
		t.Fatal("expected bool coercion to fail")
	}
	if _, ok := String("abc").Float(); ok {
		t.Fatal("expected non-numeric string coercion to fail")
	}
}
