package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

var templateColumns = []string{
	"test_case_name", "api_path", "query_param", "method", "inject_header",
	"body", "expect_response_code", "expect_response_body",
	"expect_response_header", "action", "verbose",
}

// WriteTemplate creates a starter workbook at path demonstrating every
// recognized column: an Environment sheet, a Setup sheet that extracts an
// access token, and two journey sheets that consume it.
func WriteTemplate(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const envSheet = "Environment"
	if err := f.SetSheetName(f.GetSheetName(0), envSheet); err != nil {
		return fmt.Errorf("renaming environment sheet: %w", err)
	}

	envRows := [][]interface{}{
		{"base_url", "https://api.example.com"},
		{"username", "testuser"},
		{"password", "testpass"},
		{"client_id", "client123"},
		{"client_secret", "secret456"},
	}
	for i, row := range envRows {
		axis := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(envSheet, axis, &row); err != nil {
			return fmt.Errorf("writing environment row %d: %w", i+1, err)
		}
	}

	sheets := []struct {
		name string
		rows []map[string]string
	}{
		{
			name: "Setup",
			rows: []map[string]string{{
				"test_case_name":       "Get Authentication Token",
				"api_path":             "$base_url/auth/token",
				"method":               "POST",
				"inject_header":        `[{"Content-Type": "application/json"}]`,
				"body":                 `{"client_id": "$client_id", "client_secret": "$client_secret"}`,
				"expect_response_code": "200",
				"expect_response_body": "contains(result.body, 'access_token')",
				"action":               "$accessToken = result.body.access_token",
				"verbose":              "false",
			}},
		},
		{
			name: "User Journey 1",
			rows: []map[string]string{{
				"test_case_name":       "Get User Profile",
				"api_path":             "$base_url/api/users/profile",
				"method":               "GET",
				"inject_header":        `[{"Authorization": "Bearer $accessToken"}, {"Content-Type": "application/json"}]`,
				"expect_response_code": "200",
				"expect_response_body": "contains(result.body, 'id') and contains(result.body, 'email')",
				"action":               "$userId = result.body.id",
				"verbose":              "true",
			}},
		},
		{
			name: "User Journey 2",
			rows: []map[string]string{
				{
					"test_case_name":       "Create Resource",
					"api_path":             "$base_url/api/resources",
					"method":               "POST",
					"inject_header":        `[{"Authorization": "Bearer $accessToken"}, {"Content-Type": "application/json"}]`,
					"body":                 `{"name": "Test Resource", "owner_id": "$userId"}`,
					"expect_response_code": "201",
					"expect_response_body": "contains(result.body, 'id')",
					"action":               "$resourceId = result.body.id",
				},
				{
					"test_case_name":       "Delete Resource",
					"api_path":             "$base_url/api/resources/$resourceId",
					"method":               "DELETE",
					"inject_header":        `[{"Authorization": "Bearer $accessToken"}]`,
					"expect_response_code": "204",
				},
			},
		},
	}

	for _, sheet := range sheets {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("creating sheet %q: %w", sheet.name, err)
		}

		header := make([]interface{}, len(templateColumns))
		for i, col := range templateColumns {
			header[i] = col
		}
		if err := f.SetSheetRow(sheet.name, "A1", &header); err != nil {
			return fmt.Errorf("writing header of %q: %w", sheet.name, err)
		}

		for rowIdx, row := range sheet.rows {
			cells := make([]interface{}, len(templateColumns))
			for i, col := range templateColumns {
				cells[i] = row[col]
			}
			axis := fmt.Sprintf("A%d", rowIdx+2)
			if err := f.SetSheetRow(sheet.name, axis, &cells); err != nil {
				return fmt.Errorf("writing row %d of %q: %w", rowIdx+2, sheet.name, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving template %s: %w", path, err)
	}
	return nil
}
