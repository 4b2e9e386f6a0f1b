// Package workbook reads test definitions from an Excel workbook: the first
// sheet supplies environment variables as positional key/value pairs, every
// later sheet is an ordered list of test rows keyed by header column names.
package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Recognized test-sheet columns. Casing and surrounding whitespace in the
// header row are ignored; unknown columns are dropped.
var recognizedColumns = map[string]struct{}{
	"test_case_name":         {},
	"api_path":               {},
	"method":                 {},
	"query_param":            {},
	"inject_header":          {},
	"body":                   {},
	"verbose":                {},
	"expect_response_code":   {},
	"expect_response_body":   {},
	"expect_response_header": {},
	"expect_body_schema":     {},
	"action":                 {},
}

// Row maps recognized column names to raw cell text for one test row.
type Row map[string]string

// Get returns the trimmed cell under the given column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// Sheet is one ordered worksheet of test rows.
type Sheet struct {
	Name string
	Rows []Row
}

// Workbook is the parsed test definition file.
type Workbook struct {
	Path string
	// Environment holds the key/value pairs of the first sheet in row
	// order; later duplicates of a key win when loaded into the store.
	Environment []EnvPair
	// Sheets holds every sheet after the first, in workbook order. The
	// first entry is the setup sheet.
	Sheets []Sheet
}

// EnvPair is one positional key/value row of the environment sheet.
type EnvPair struct {
	Key   string
	Value string
}

// ConfigError is a fatal definition problem: the workbook is unreadable or
// structurally unusable. It aborts the run before any request is issued.
type ConfigError struct {
	Path    string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("workbook %s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("workbook %s: %s", e.Path, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load opens and parses the workbook at path. The file must contain at least
// two sheets: the environment sheet and the setup sheet.
func Load(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Message: "opening file", Err: err}
	}
	defer f.Close()

	sheetNames := f.GetSheetList()
	if len(sheetNames) < 2 {
		return nil, &ConfigError{
			Path:    path,
			Message: fmt.Sprintf("need at least 2 sheets (environment and setup), found %d", len(sheetNames)),
		}
	}

	wb := &Workbook{Path: path}

	envRows, err := f.GetRows(sheetNames[0])
	if err != nil {
		return nil, &ConfigError{Path: path, Message: fmt.Sprintf("reading sheet %q", sheetNames[0]), Err: err}
	}
	wb.Environment = parseEnvironment(envRows)

	for _, name := range sheetNames[1:] {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, &ConfigError{Path: path, Message: fmt.Sprintf("reading sheet %q", name), Err: err}
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: parseTestRows(rows)})
	}

	return wb, nil
}

// parseEnvironment reads positional key/value pairs. There is no required
// header: a first row whose columns literally read "key"/"value" is treated
// as one and skipped. Rows with an empty key are ignored.
func parseEnvironment(rows [][]string) []EnvPair {
	var pairs []EnvPair
	for i, row := range rows {
		key := cell(row, 0)
		if key == "" {
			continue
		}
		if i == 0 && strings.EqualFold(key, "key") && strings.EqualFold(cell(row, 1), "value") {
			continue
		}
		pairs = append(pairs, EnvPair{Key: key, Value: cell(row, 1)})
	}
	return pairs
}

// parseTestRows maps each data row onto the recognized columns declared by
// the sheet's header row. Column order is irrelevant; rows without a
// test_case_name are dropped entirely.
func parseTestRows(rows [][]string) []Row {
	if len(rows) == 0 {
		return nil
	}

	columns := make(map[int]string)
	for idx, header := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(header))
		if _, ok := recognizedColumns[name]; ok {
			columns[idx] = name
		}
	}

	var parsed []Row
	for _, raw := range rows[1:] {
		row := make(Row, len(columns))
		for idx, name := range columns {
			if v := cell(raw, idx); v != "" {
				row[name] = v
			}
		}
		if row.Get("test_case_name") == "" {
			continue
		}
		parsed = append(parsed, row)
	}
	return parsed
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
