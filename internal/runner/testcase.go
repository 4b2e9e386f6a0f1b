package runner

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"sheetcheck/internal/workbook"
)

// TestCase is one fully substituted, parsed test row ready for dispatch.
type TestCase struct {
	Name         string
	Method       string
	URL          string
	QueryParams  map[string]string
	Headers      map[string]string
	Body         []byte
	ExpectCode   int
	HasCode      bool
	ExpectBody   string
	ExpectHeader string
	BodySchema   string
	Action       string
	Verbose      bool
}

// FieldError reports a malformed cell. The row records an Error outcome
// naming the field and is not dispatched.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// buildTestCase parses a workbook row after substituting environment
// variables into every cell through sub.
func buildTestCase(row workbook.Row, sub func(string) string) (*TestCase, *FieldError) {
	tc := &TestCase{
		Name:         row.Get("test_case_name"),
		URL:          sub(row.Get("api_path")),
		ExpectBody:   sub(row.Get("expect_response_body")),
		ExpectHeader: sub(row.Get("expect_response_header")),
		BodySchema:   sub(row.Get("expect_body_schema")),
		Action:       sub(row.Get("action")),
		Verbose:      parseVerbose(row.Get("verbose")),
	}

	tc.Method = strings.ToUpper(row.Get("method"))
	if tc.Method == "" {
		tc.Method = http.MethodGet
	}

	var err error
	if tc.QueryParams, err = parseDictList(sub(row.Get("query_param"))); err != nil {
		return nil, &FieldError{Field: "query_param", Err: err}
	}
	if tc.Headers, err = parseDictList(sub(row.Get("inject_header"))); err != nil {
		return nil, &FieldError{Field: "inject_header", Err: err}
	}
	if tc.Body, err = parseBody(sub(row.Get("body"))); err != nil {
		return nil, &FieldError{Field: "body", Err: err}
	}

	if raw := row.Get("expect_response_code"); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &FieldError{Field: "expect_response_code", Err: fmt.Errorf("not an integer: %q", raw)}
		}
		tc.ExpectCode = code
		tc.HasCode = true
	}

	return tc, nil
}

func parseVerbose(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// parseBody accepts a JSON document, normalizing single quotes the way
// spreadsheet authors tend to write them.
func parseBody(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	normalized := normalizeQuotes(raw)
	if !json.Valid([]byte(normalized)) {
		return nil, fmt.Errorf("invalid JSON body")
	}
	return []byte(normalized), nil
}

// parseDictList turns a query-param or header cell into a flat string map.
// The cell may be a JSON object, a JSON array of objects, or the legacy
// literal format: one or more `{key, value}` or `{key: value}` groups.
func parseDictList(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}

	normalized := normalizeQuotes(raw)
	if pairs, ok := parseJSONDicts(normalized); ok {
		return pairs, nil
	}
	return parseLegacyDicts(raw)
}

func parseJSONDicts(raw string) (map[string]string, bool) {
	decode := func(data []byte) (map[string]any, bool) {
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, false
		}
		return m, true
	}

	pairs := make(map[string]string)
	if m, ok := decode([]byte(raw)); ok {
		for k, v := range m {
			pairs[k] = anyToText(v)
		}
		return pairs, true
	}

	var list []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, false
	}
	for _, item := range list {
		m, ok := decode(item)
		if !ok {
			return nil, false
		}
		for k, v := range m {
			pairs[k] = anyToText(v)
		}
	}
	return pairs, true
}

// parseLegacyDicts handles cells like `{Authorization, Bearer $t}; {X-Id: 7}`.
// Groups are separated by anything outside braces; inside a group the first
// comma or colon splits key from value.
func parseLegacyDicts(raw string) (map[string]string, error) {
	pairs := make(map[string]string)
	rest := raw
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return nil, fmt.Errorf("unterminated group in %q", raw)
		}
		group := rest[open+1 : open+closing]
		rest = rest[open+closing+1:]

		sep := strings.IndexAny(group, ",:")
		if sep < 0 {
			return nil, fmt.Errorf("group %q has no key/value separator", strings.TrimSpace(group))
		}
		key := trimQuotes(strings.TrimSpace(group[:sep]))
		val := trimQuotes(strings.TrimSpace(group[sep+1:]))
		if key == "" {
			return nil, fmt.Errorf("group %q has an empty key", strings.TrimSpace(group))
		}
		pairs[key] = val
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("cannot parse %q as JSON or {key, value} groups", raw)
	}
	return pairs, nil
}

func normalizeQuotes(raw string) string {
	if strings.ContainsRune(raw, '"') {
		return raw
	}
	return strings.ReplaceAll(raw, "'", `"`)
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func anyToText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return "null"
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(data)
	}
}
