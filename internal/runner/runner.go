// Package runner executes a parsed workbook: it loads the environment sheet,
// runs the setup sheet, then runs every remaining sheet row by row,
// validating responses and propagating variables between rows.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"sheetcheck/internal/env"
	"sheetcheck/internal/expr"
	"sheetcheck/internal/httpclient"
	"sheetcheck/internal/workbook"
)

// Status is the recorded verdict for one test row.
type Status string

const (
	StatusPassed  Status = "Passed"
	StatusFailed  Status = "Failed"
	StatusError   Status = "Error"
	StatusSkipped Status = "Skipped"
)

// Validation is the verdict of one optional expectation column.
type Validation string

const (
	ValidationPassed        Validation = "Passed"
	ValidationFailed        Validation = "Failed"
	ValidationNotApplicable Validation = "N/A"
)

// Outcome is the immutable record of one executed (or skipped) test row.
type Outcome struct {
	Name             string
	Status           Status
	Code             int
	HasCode          bool
	BodyValidation   Validation
	HeaderValidation Validation
	Details          string
	Elapsed          time.Duration
}

// SheetResult holds the ordered outcomes of one sheet.
type SheetResult struct {
	Name     string
	Outcomes []Outcome
}

// RunSummary aggregates outcome counts across all sheets.
type RunSummary struct {
	Passed  int
	Failed  int
	Errors  int
	Skipped int
}

func (s RunSummary) Total() int {
	return s.Passed + s.Failed + s.Errors + s.Skipped
}

// Logger is the minimal logging interface the runner needs.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Dispatcher issues one HTTP request. Satisfied by httpclient.Client.
type Dispatcher interface {
	Send(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

// Runner drives a whole workbook run. Execution is strictly sequential: one
// row's substitution, dispatch, validation, and actions complete before the
// next row starts, so later rows can read variables set by earlier ones.
type Runner struct {
	dispatcher Dispatcher
	logger     Logger
	verbose    bool

	store *env.Store
}

// New builds a Runner around the given dispatcher. Verbose turns on
// per-condition evaluation tracing for every row.
func New(dispatcher Dispatcher, logger Logger, verbose bool) *Runner {
	return &Runner{
		dispatcher: dispatcher,
		logger:     logger,
		verbose:    verbose,
		store:      env.NewStore(),
	}
}

// Store exposes the environment store, mainly for tests.
func (r *Runner) Store() *env.Store {
	return r.store
}

// Run executes the workbook and returns per-sheet results plus the summary.
// The first sheet seeds the environment store, the second sheet is setup; any
// setup failure records every later row as Skipped without dispatching it.
func (r *Runner) Run(ctx context.Context, wb *workbook.Workbook) ([]SheetResult, RunSummary) {
	for _, pair := range wb.Environment {
		r.store.Set(pair.Key, pair.Value)
	}
	r.logf("loaded %d environment variables", r.store.Len())

	results := make([]SheetResult, 0, len(wb.Sheets))

	setup := wb.Sheets[0]
	setupFailed := false
	setupResult := SheetResult{Name: setup.Name}
	r.logf("running setup sheet %q (%d rows)", setup.Name, len(setup.Rows))
	for _, row := range setup.Rows {
		outcome := r.runRow(ctx, row)
		if outcome.Status == StatusFailed || outcome.Status == StatusError {
			setupFailed = true
		}
		setupResult.Outcomes = append(setupResult.Outcomes, outcome)
	}
	results = append(results, setupResult)

	for _, sheet := range wb.Sheets[1:] {
		result := SheetResult{Name: sheet.Name}
		if setupFailed {
			r.logf("skipping sheet %q: setup failed", sheet.Name)
			for _, row := range sheet.Rows {
				result.Outcomes = append(result.Outcomes, Outcome{
					Name:             row.Get("test_case_name"),
					Status:           StatusSkipped,
					BodyValidation:   ValidationNotApplicable,
					HeaderValidation: ValidationNotApplicable,
					Details:          fmt.Sprintf("skipped: setup sheet %q failed", setup.Name),
				})
			}
		} else {
			r.logf("running sheet %q (%d rows)", sheet.Name, len(sheet.Rows))
			for _, row := range sheet.Rows {
				result.Outcomes = append(result.Outcomes, r.runRow(ctx, row))
			}
		}
		results = append(results, result)
	}

	return results, summarize(results)
}

func summarize(results []SheetResult) RunSummary {
	var summary RunSummary
	for _, sheet := range results {
		for _, outcome := range sheet.Outcomes {
			switch outcome.Status {
			case StatusPassed:
				summary.Passed++
			case StatusFailed:
				summary.Failed++
			case StatusError:
				summary.Errors++
			case StatusSkipped:
				summary.Skipped++
			}
		}
	}
	return summary
}

// requestBodyLogLimit bounds the body text logged in verbose mode.
const requestBodyLogLimit = 500

// runRow executes the full per-row protocol: substitute, parse, dispatch,
// interpret, validate, run actions.
func (r *Runner) runRow(ctx context.Context, row workbook.Row) Outcome {
	if row.Get("api_path") == "" {
		return Outcome{
			Name:             row.Get("test_case_name"),
			Status:           StatusSkipped,
			BodyValidation:   ValidationNotApplicable,
			HeaderValidation: ValidationNotApplicable,
			Details:          "'api_path' is missing or empty",
		}
	}

	var unresolved []string
	seen := make(map[string]struct{})
	sub := func(text string) string {
		out, missing := r.store.SubstituteTracking(text)
		for _, name := range missing {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				unresolved = append(unresolved, name)
			}
		}
		return out
	}

	tc, fieldErr := buildTestCase(row, sub)
	if fieldErr != nil {
		return Outcome{
			Name:             row.Get("test_case_name"),
			Status:           StatusError,
			BodyValidation:   ValidationNotApplicable,
			HeaderValidation: ValidationNotApplicable,
			Details:          fieldErr.Error(),
		}
	}

	outcome := Outcome{
		Name:             tc.Name,
		BodyValidation:   ValidationNotApplicable,
		HeaderValidation: ValidationNotApplicable,
	}
	if tc.URL == "" {
		outcome.Status = StatusSkipped
		outcome.Details = "'api_path' is missing or empty"
		return outcome
	}

	verbose := r.verbose || tc.Verbose
	if verbose {
		r.logf("-> %s %s %s", tc.Name, tc.Method, tc.URL)
		if len(unresolved) > 0 {
			r.logf("   unresolved tokens: %s", strings.Join(unresolved, ", "))
		}
		if len(tc.QueryParams) > 0 {
			r.logf("   query params: %v", tc.QueryParams)
		}
		if len(tc.Headers) > 0 {
			r.logf("   headers: %v", tc.Headers)
		}
		if len(tc.Body) > 0 {
			r.logf("   body: %s", clip(string(tc.Body), requestBodyLogLimit))
		}
	}

	resp, err := r.dispatcher.Send(ctx, httpclient.Request{
		Method:      tc.Method,
		URL:         tc.URL,
		QueryParams: tc.QueryParams,
		Headers:     tc.Headers,
		Body:        tc.Body,
	})
	if err != nil {
		outcome.Status = StatusError
		outcome.Details = err.Error()
		return outcome
	}
	outcome.Code = resp.StatusCode
	outcome.HasCode = true
	outcome.Elapsed = resp.Elapsed

	result := interpret(resp)
	ev := &expr.Evaluator{Root: result, Store: r.store, Verbose: verbose, Logger: r.logger}

	var details []string
	codeFailed := false
	if tc.HasCode && tc.ExpectCode != resp.StatusCode {
		codeFailed = true
		details = append(details, fmt.Sprintf("expected code %d, got %d", tc.ExpectCode, resp.StatusCode))
	}

	outcome.BodyValidation, details = r.checkCondition(ev, "body", tc.ExpectBody, details)
	if tc.BodySchema != "" {
		schemaVerdict, schemaDetails := checkSchema(tc.BodySchema, resp)
		details = append(details, schemaDetails...)
		if schemaVerdict == ValidationFailed {
			outcome.BodyValidation = ValidationFailed
		} else if outcome.BodyValidation == ValidationNotApplicable {
			outcome.BodyValidation = schemaVerdict
		}
	}
	outcome.HeaderValidation, details = r.checkCondition(ev, "header", tc.ExpectHeader, details)

	// Actions run whenever a response was obtained, even on a failed row,
	// so later rows can still chain off whatever came back.
	details = append(details, r.runActions(ev, tc.Action)...)

	if codeFailed || outcome.BodyValidation == ValidationFailed || outcome.HeaderValidation == ValidationFailed {
		outcome.Status = StatusFailed
	} else {
		outcome.Status = StatusPassed
	}
	outcome.Details = strings.Join(details, "; ")
	return outcome
}

// checkCondition evaluates one expectation column. An unresolvable path or
// other evaluation fault makes the condition false, never a run error.
func (r *Runner) checkCondition(ev *expr.Evaluator, label, condition string, details []string) (Validation, []string) {
	if condition == "" {
		return ValidationNotApplicable, details
	}
	ok, evalErr, err := ev.EvaluateCondition(condition)
	if err != nil {
		return ValidationFailed, append(details, fmt.Sprintf("%s check %q: %v", label, condition, err))
	}
	if evalErr != nil {
		msg := fmt.Sprintf("%s check failed: %s", label, evalErr.Message)
		if evalErr.Path != "" {
			msg = fmt.Sprintf("%s check failed: path %s unresolved", label, evalErr.Path)
		}
		return ValidationFailed, append(details, msg)
	}
	if !ok {
		return ValidationFailed, append(details, fmt.Sprintf("%s check failed: %s", label, condition))
	}
	return ValidationPassed, details
}

func checkSchema(schema string, resp *httpclient.Response) (Validation, []string) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(resp.Body),
	)
	if err != nil {
		return ValidationFailed, []string{fmt.Sprintf("schema check: %v", err)}
	}
	if result.Valid() {
		return ValidationPassed, nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, fmt.Sprintf("schema: %s", desc.String()))
	}
	return ValidationFailed, details
}

// runActions parses and executes the action cell, returning per-statement
// failures. Failures are diagnostic only; they never change the row status.
func (r *Runner) runActions(ev *expr.Evaluator, action string) []string {
	if action == "" {
		return nil
	}
	statements, err := expr.ParseActions(action)
	if err != nil {
		return []string{fmt.Sprintf("action %q: %v", action, err)}
	}
	var details []string
	for _, failure := range ev.ExecuteActions(statements) {
		details = append(details, fmt.Sprintf("action: %s", failure))
	}
	return details
}

func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func (r *Runner) logf(format string, v ...interface{}) {
	if r.logger != nil {
		r.logger.Printf(format, v...)
	}
}
