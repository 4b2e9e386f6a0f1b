package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"sheetcheck/internal/config"
	"sheetcheck/internal/httpclient"
	"sheetcheck/internal/logging/colors"
	"sheetcheck/internal/report"
	"sheetcheck/internal/runner"
	"sheetcheck/internal/workbook"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultTemplateName = "sheetcheck_template.xlsx"

type runArguments struct {
	workbookPath string
	reportPath   string
	verbose      bool
	timeout      time.Duration
	insecureTLS  bool
}

func main() {
	log.SetFlags(0)

	if err := execute(os.Args[0], os.Args[1:]); err != nil {
		var usageErr *usageError
		switch {
		case errors.Is(err, flag.ErrHelp):
			return
		case errors.As(err, &usageErr):
			fmt.Fprintf(os.Stderr, "%s%v%s\n", colors.Red, usageErr.err, colors.Reset)
			fmt.Fprintln(os.Stderr, usageErr.helpMessage)
			os.Exit(1)
		default:
			log.Fatalf("%sError: %v%s", colors.Red, err, colors.Reset)
		}
	}
}

func execute(program string, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(os.Stdout, generalHelpMessage(program))
		return nil
	}

	switch args[0] {
	case "run":
		if len(args) > 1 && isHelpFlag(args[1]) {
			fmt.Fprintln(os.Stdout, runHelpMessage(program))
			return nil
		}

		runArgs, err := parseRunArgs(args[1:])
		if err != nil {
			return &usageError{err: err, helpMessage: runHelpMessage(program)}
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		startTime := time.Now()
		err = executeRun(ctx, runArgs)
		if err == nil {
			log.Printf("Run execution time: %s", time.Since(startTime).Round(10*time.Millisecond))
		}
		return err

	case "template":
		if len(args) > 1 && isHelpFlag(args[1]) {
			fmt.Fprintln(os.Stdout, templateHelpMessage(program))
			return nil
		}
		if len(args) > 2 {
			return &usageError{err: fmt.Errorf("unexpected arguments: %s", strings.Join(args[2:], " ")), helpMessage: templateHelpMessage(program)}
		}
		path := defaultTemplateName
		if len(args) == 2 {
			path = strings.TrimSpace(args[1])
		}
		if path == "" {
			return &usageError{err: errors.New("template path must not be empty"), helpMessage: templateHelpMessage(program)}
		}
		if err := workbook.WriteTemplate(path); err != nil {
			return err
		}
		log.Printf("Template workbook written to %s", path)
		return nil

	case "version":
		fmt.Fprintf(os.Stdout, "sheetcheck %s (commit %s, date %s)\n", version, commit, date)
		return nil

	case "info":
		if len(args) > 1 && isHelpFlag(args[1]) {
			fmt.Fprintln(os.Stdout, generalHelpMessage(program))
			return nil
		}
		if len(args) > 1 {
			return &usageError{err: fmt.Errorf("unexpected arguments: %s", strings.Join(args[1:], " ")), helpMessage: generalHelpMessage(program)}
		}
		return printInfo(os.Stdout)

	case "help", "-help", "--help":
		fmt.Fprintln(os.Stdout, generalHelpMessage(program))
		return nil

	default:
		if isHelpFlag(args[0]) {
			fmt.Fprintln(os.Stdout, generalHelpMessage(program))
			return nil
		}
		return &usageError{err: fmt.Errorf("unknown command %q", args[0]), helpMessage: generalHelpMessage(program)}
	}
}

type usageError struct {
	err         error
	helpMessage string
}

func (e *usageError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func parseRunArgs(args []string) (runArguments, error) {
	var (
		cfg         runArguments
		positionals []string
		configPath  string
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "-verbose" {
			cfg.verbose = true
			continue
		}

		if value, consumed, err := parseFlagValue(args, &i, "-config"); err != nil {
			return runArguments{}, err
		} else if consumed {
			configPath = value
			continue
		}

		if value, consumed, err := parseFlagValue(args, &i, "-report"); err != nil {
			return runArguments{}, err
		} else if consumed {
			cfg.reportPath = value
			continue
		}

		positionals = append(positionals, arg)
	}

	if len(positionals) == 0 {
		return runArguments{}, errors.New("missing required workbook path")
	}
	cfg.workbookPath = strings.TrimSpace(positionals[0])
	if cfg.workbookPath == "" {
		return runArguments{}, errors.New("missing required workbook path")
	}
	if len(positionals) > 1 {
		return runArguments{}, fmt.Errorf("unexpected arguments: %s", strings.Join(positionals[1:], " "))
	}

	configResult, err := config.LoadFrom(configPath)
	if err != nil {
		return runArguments{}, err
	}
	cfg.timeout = configResult.Config.Timeout()
	cfg.insecureTLS = configResult.Config.HTTP.InsecureSkipVerify
	cfg.verbose = cfg.verbose || configResult.Config.Verbose

	return cfg, nil
}

// executeRun loads the workbook, runs every sheet, and renders the results.
// Test failures do not make the process fail; only unusable input does.
func executeRun(ctx context.Context, args runArguments) error {
	wb, err := workbook.Load(args.workbookPath)
	if err != nil {
		return err
	}

	client := httpclient.New(httpclient.Config{
		Timeout:            args.timeout,
		InsecureSkipVerify: args.insecureTLS,
	}, log.Default())

	run := runner.New(client, log.Default(), args.verbose)
	results, summary := run.Run(ctx, wb)

	report.NewConsole(os.Stdout).Render(results, summary)

	if summary.Failed == 0 && summary.Errors == 0 {
		log.Printf("%s[[ Run completed: %d/%d passed ]]%s", colors.Green, summary.Passed, summary.Total(), colors.Reset)
	} else {
		log.Printf("%s[[ Run completed with failures: %d failed, %d errors ]]%s", colors.Red, summary.Failed, summary.Errors, colors.Reset)
	}

	if args.reportPath != "" {
		if err := report.WriteResults(args.reportPath, results, summary); err != nil {
			return err
		}
		log.Printf("Results workbook written to %s", args.reportPath)
	}
	return nil
}

func generalHelpMessage(program string) string {
	return fmt.Sprintf("Usage:\n  %[1]s <command> [options]\n\nAvailable commands:\n  run               Execute the test sheets of an Excel workbook.\n  template          Write a starter workbook to fill in.\n  version           Show build information.\n  info              Show configuration paths and defaults.\n  help              Show this help message.\n\nHelpful references:\n  %[1]s run -help       More information about running workbooks.\n  %[1]s template -help  More information about the starter workbook.", program)
}

func runHelpMessage(program string) string {
	return fmt.Sprintf("Usage:\n  %[1]s run [options] <workbook.xlsx>\n\nFlags:\n  -report    Path of a results workbook to write after the run.\n  -verbose   Log every request and condition evaluation.\n  -config    Path to a config.yaml file that overrides the XDG config location.\n\nThe first sheet provides environment variables, the second sheet is setup;\nevery later sheet runs in order. A setup failure skips all later sheets.", program)
}

func templateHelpMessage(program string) string {
	return fmt.Sprintf("Usage:\n  %[1]s template [path]\n\nWrites a starter workbook (default %s) with an environment sheet,\na setup sheet, and two example test sheets.", program, defaultTemplateName)
}

func parseFlagValue(args []string, index *int, name string) (string, bool, error) {
	arg := args[*index]

	if arg == name {
		if *index+1 >= len(args) {
			return "", false, fmt.Errorf("flag %s requires a value", name)
		}
		*index = *index + 1
		return args[*index], true, nil
	}

	prefix := name + "="
	if strings.HasPrefix(arg, prefix) {
		value := strings.TrimPrefix(arg, prefix)
		if value != "" {
			return value, true, nil
		}
		if *index+1 >= len(args) {
			return "", false, fmt.Errorf("flag %s requires a value", name)
		}
		*index = *index + 1
		return args[*index], true, nil
	}

	return "", false, nil
}

func isHelpFlag(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	}
	return false
}

func printInfo(out io.Writer) error {
	configResult, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Version: %s\n", version)
	fmt.Fprintf(out, "Config file: %s\n", configResult.Path)
	if configResult.Loaded {
		fmt.Fprintln(out, "Config loaded: yes")
	} else {
		fmt.Fprintln(out, "Config loaded: no (using defaults)")
	}
	fmt.Fprintf(out, "HTTP timeout: %s\n", configResult.Config.Timeout())
	fmt.Fprintf(out, "Insecure TLS: %t\n", configResult.Config.HTTP.InsecureSkipVerify)
	return nil
}
