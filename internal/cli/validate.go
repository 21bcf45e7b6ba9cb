package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/uiscenario/internal/harness"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Vars    []string
	BaseURL string
}

// ValidationError describes one scenario file that failed to load.
type ValidationError struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuiteSummary describes one valid scenario file.
type SuiteSummary struct {
	File      string   `json:"file"`
	Name      string   `json:"name"`
	Scenarios []string `json:"scenarios"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Suites []SuiteSummary    `json:"suites"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Check scenario files without running them",
		Long: `Load every scenario file in the given files and directories and report
all that fail to parse, reference undefined variables, or describe invalid
steps. No browser session is opened.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "set a scenario variable (name=value, repeatable)")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "base URL for relative navigation (overrides UISCENARIO_BASE_URL)")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = opts.BaseURL
	}
	vars, err := parseVars(opts.Vars)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid --var", err)
	}

	files, err := harness.SuiteFiles(paths)
	if err != nil {
		return commandError(formatter, loadErrorCode(err), "failed to find scenarios", err)
	}
	formatter.VerboseLog("Found %d scenario file(s)", len(files))

	result := ValidationResult{Valid: true, Suites: []SuiteSummary{}}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		suite, err := harness.LoadSuite(file, harness.LoadOptions{BaseURL: cfg.BaseURL, Vars: vars})
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, toValidationError(file, err))
			continue
		}
		summary := SuiteSummary{File: file, Name: suite.Name}
		for _, sc := range suite.Scenarios {
			summary.Scenarios = append(summary.Scenarios, sc.Name)
		}
		result.Suites = append(result.Suites, summary)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

func toValidationError(file string, err error) ValidationError {
	ve := ValidationError{File: file, Code: loadErrorCode(err), Message: err.Error()}
	var loadErr *harness.LoadError
	if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
		ve.Line = loadErr.Pos.Line()
		ve.Column = loadErr.Pos.Column()
		ve.Message = loadErr.Message
	}
	return ve
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	scenarios := 0
	for _, s := range result.Suites {
		scenarios += len(s.Scenarios)
	}
	fmt.Fprintf(formatter.Writer, "✓ %d suite(s), %d scenario(s) valid\n", len(result.Suites), scenarios)
	return nil
}

// outputValidationErrors outputs every file that failed to load.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.Format == "json" {
		first := result.Errors[0]
		if err := encodeIndented(formatter.Writer, CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: first.Code, Message: first.Message},
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", e.File, e.Line, e.Column)
		} else {
			fmt.Fprintln(formatter.Writer, e.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}
	return exitErr
}
