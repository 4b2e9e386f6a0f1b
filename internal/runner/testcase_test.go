package runner

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"sheetcheck/internal/workbook"
)

func identity(s string) string { return s }

func TestBuildTestCaseDefaultsAndParsing(t *testing.T) {
	row := workbook.Row{
		"test_case_name":       "create user",
		"api_path":             "http://api.local/users",
		"method":               "post",
		"query_param":          `{"page": 2, "active": true}`,
		"inject_header":        `{'Authorization': 'Bearer abc'}`,
		"body":                 `{'name': 'Ana'}`,
		"expect_response_code": "201",
		"verbose":              "yes",
	}

	tc, fieldErr := buildTestCase(row, identity)
	if fieldErr != nil {
		t.Fatalf("buildTestCase() error = %v", fieldErr)
	}

	if tc.Method != "POST" {
		t.Errorf("Method = %q, want POST", tc.Method)
	}
	if diff := cmp.Diff(map[string]string{"page": "2", "active": "true"}, tc.QueryParams); diff != "" {
		t.Errorf("QueryParams mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"Authorization": "Bearer abc"}, tc.Headers); diff != "" {
		t.Errorf("Headers mismatch (-want +got):\n%s", diff)
	}
	if string(tc.Body) != `{"name": "Ana"}` {
		t.Errorf("Body = %q", tc.Body)
	}
	if !tc.HasCode || tc.ExpectCode != 201 {
		t.Errorf("ExpectCode = %d (has=%t), want 201", tc.ExpectCode, tc.HasCode)
	}
	if !tc.Verbose {
		t.Error("Verbose should be true for cell \"yes\"")
	}
}

func TestBuildTestCaseMethodDefaultsToGET(t *testing.T) {
	tc, fieldErr := buildTestCase(workbook.Row{"test_case_name": "ping", "api_path": "http://x"}, identity)
	if fieldErr != nil {
		t.Fatalf("buildTestCase() error = %v", fieldErr)
	}
	if tc.Method != "GET" {
		t.Errorf("Method = %q, want GET", tc.Method)
	}
	if tc.HasCode {
		t.Error("HasCode should be false when the column is empty")
	}
}

func TestBuildTestCaseReportsMalformedCells(t *testing.T) {
	cases := []struct {
		field string
		cell  string
	}{
		{"query_param", "not structured at all"},
		{"inject_header", "{Authorization"},
		{"body", "{broken"},
		{"expect_response_code", "two hundred"},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			row := workbook.Row{"test_case_name": "bad", "api_path": "http://x", tc.field: tc.cell}
			_, fieldErr := buildTestCase(row, identity)
			if fieldErr == nil {
				t.Fatalf("buildTestCase() accepted malformed %s %q", tc.field, tc.cell)
			}
			if fieldErr.Field != tc.field {
				t.Errorf("Field = %q, want %q", fieldErr.Field, tc.field)
			}
		})
	}
}

func TestParseDictListFormats(t *testing.T) {
	cases := []struct {
		name string
		cell string
		want map[string]string
	}{
		{"json object", `{"a": "1", "b": "2"}`, map[string]string{"a": "1", "b": "2"}},
		{"json array", `[{"a": "1"}, {"b": "2"}]`, map[string]string{"a": "1", "b": "2"}},
		{"single quoted", `{'X-Token': 'abc'}`, map[string]string{"X-Token": "abc"}},
		{"legacy comma", `{Authorization, Bearer tok}`, map[string]string{"Authorization": "Bearer tok"}},
		{"legacy colon groups", `{Accept: application/json}; {X-Id: 7}`, map[string]string{"Accept": "application/json", "X-Id": "7"}},
		{"empty", "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseDictList(tc.cell)
			if err != nil {
				t.Fatalf("parseDictList(%q) error = %v", tc.cell, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("parseDictList(%q) mismatch (-want +got):\n%s", tc.cell, diff)
			}
		})
	}
}

func TestBuildTestCaseSubstitutesCells(t *testing.T) {
	sub := func(s string) string {
		if s == "$base/users" {
			return "http://api.local/users"
		}
		return s
	}
	tc, fieldErr := buildTestCase(workbook.Row{"test_case_name": "t", "api_path": "$base/users"}, sub)
	if fieldErr != nil {
		t.Fatalf("buildTestCase() error = %v", fieldErr)
	}
	if tc.URL != "http://api.local/users" {
		t.Errorf("URL = %q", tc.URL)
	}
}
