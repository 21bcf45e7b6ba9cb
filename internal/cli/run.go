package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/uiscenario/internal/config"
	"github.com/roach88/uiscenario/internal/driver"
	"github.com/roach88/uiscenario/internal/driver/htmldriver"
	"github.com/roach88/uiscenario/internal/driver/pwdriver"
	"github.com/roach88/uiscenario/internal/harness"
	"github.com/roach88/uiscenario/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Vars         []string // name=value overrides
	BaseURL      string
	Backend      string
	Parallel     int
	Database     string
	Headed       bool
	PollInterval time.Duration
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Passed    int                      `json:"passed"`
	Failed    int                      `json:"failed"`
	Total     int                      `json:"total"`
	Scenarios []harness.ScenarioResult `json:"scenarios"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <path>...",
		Short: "Run scenario files",
		Long: `Run every scenario in the given files and directories.

Each scenario gets its own driver session. The static backend loads pages
over HTTP without a browser; the playwright backend drives Chromium.
Settings come from UISCENARIO_* environment variables and can be
overridden with flags.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid files, bad configuration, etc.)

Examples:
  uiscenario run ./scenarios
  uiscenario run ./scenarios --base-url http://localhost:8080 --parallel 4
  uiscenario run login.yaml --var username=alice --backend playwright
  uiscenario run ./scenarios --db history.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "set a scenario variable (name=value, repeatable)")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "base URL for relative navigation (overrides UISCENARIO_BASE_URL)")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "driver backend (static|playwright)")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 0, "number of scenarios to run at once")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Headed, "headed", false, "show the browser window (playwright backend)")
	cmd.Flags().DurationVar(&opts.PollInterval, "poll-interval", 0, "polling interval for explicit waits")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := runConfig(opts, cmd)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}
	vars, err := parseVars(opts.Vars)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid --var", err)
	}

	suites, err := harness.LoadSuites(paths, harness.LoadOptions{BaseURL: cfg.BaseURL, Vars: vars})
	if err != nil {
		return commandError(formatter, loadErrorCode(err), "failed to load scenarios", err)
	}
	formatter.VerboseLog("Loaded %d suite(s) from %s", len(suites), strings.Join(paths, ", "))

	factory, closeFactory, err := openBackend(cfg, logger)
	if err != nil {
		return commandError(formatter, ErrCodeBackend, "failed to start "+cfg.Backend+" backend", err)
	}
	defer func() {
		if err := closeFactory(); err != nil {
			logger.Error("error closing backend", "backend", cfg.Backend, "error", err)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := harness.NewRunner(factory, harness.Options{
		Waiter:   driver.NewWaiter(cfg.PollInterval),
		Parallel: cfg.Parallel,
		Logger:   logger,
	})

	started := time.Now()
	logger.Info("run starting", "suites", len(suites), "backend", cfg.Backend, "parallel", cfg.Parallel)
	report := runner.Run(ctx, suites)
	elapsed := time.Since(started)
	for _, sc := range report.Scenarios {
		if f, ok := sc.Failure(); ok {
			logger.Info("scenario failed", "suite", sc.Suite, "scenario", sc.Name, "step", f.StepIndex, "message", f.Message)
		}
	}

	var runID string
	var recordErr error
	if cfg.DBPath != "" {
		runID, recordErr = recordRun(context.WithoutCancel(ctx), cfg, store.Run{
			StartedAt: started,
			Duration:  elapsed,
			BaseURL:   cfg.BaseURL,
			Backend:   cfg.Backend,
			Report:    report,
		})
		if recordErr != nil {
			logger.Error("failed to record run", "db", cfg.DBPath, "error", recordErr)
		}
	}

	if err := outputReport(formatter, report, runID); err != nil {
		return err
	}

	if recordErr != nil {
		return WrapExitError(ExitCommandError, "failed to record run", recordErr)
	}
	if !report.Passed() {
		_, failed := report.Counts()
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", failed, len(report.Scenarios)))
	}
	return nil
}

// runConfig loads the environment configuration and applies the flags
// that were set explicitly.
func runConfig(opts *RunOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = opts.BaseURL
	}
	if flags.Changed("backend") {
		cfg.Backend = opts.Backend
	}
	if flags.Changed("parallel") {
		cfg.Parallel = opts.Parallel
	}
	if flags.Changed("db") {
		cfg.DBPath = opts.Database
	}
	if flags.Changed("headed") {
		cfg.Headless = !opts.Headed
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = opts.PollInterval
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func loadConfig(opts *RootOptions) (config.Config, error) {
	if opts.LookupEnv != nil {
		return config.LoadFrom(opts.LookupEnv)
	}
	return config.Load()
}

// parseVars converts name=value pairs into a map. Later pairs win.
func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%q must have the form name=value", pair)
		}
		vars[name] = value
	}
	return vars, nil
}

// openBackend creates the driver factory for cfg.Backend. The returned
// function releases it.
func openBackend(cfg config.Config, logger *slog.Logger) (driver.Factory, func() error, error) {
	switch cfg.Backend {
	case config.BackendPlaywright:
		launcher, err := pwdriver.Launch(pwdriver.Options{
			Headless: cfg.Headless,
			Timeout:  cfg.BrowserTimeout,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return launcher, launcher.Close, nil
	default:
		factory := htmldriver.NewFactory(htmldriver.Options{
			Timeout: cfg.RequestTimeout,
			Logger:  logger,
		})
		return factory, func() error { return nil }, nil
	}
}

func recordRun(ctx context.Context, cfg config.Config, run store.Run) (string, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return "", err
	}
	defer st.Close()
	return st.WriteRun(ctx, run)
}

func outputReport(formatter *OutputFormatter, report *harness.Report, runID string) error {
	passed, failed := report.Counts()

	if formatter.Format == "json" {
		resp := CLIResponse{
			Status: "ok",
			Data: RunOutput{
				Passed:    passed,
				Failed:    failed,
				Total:     passed + failed,
				Scenarios: report.Scenarios,
			},
			RunID: runID,
		}
		if failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeFailed,
				Message: fmt.Sprintf("%d of %d scenario(s) failed", failed, passed+failed),
			}
		}
		return encodeIndented(formatter.Writer, resp)
	}

	if err := harness.WriteText(formatter.Writer, report); err != nil {
		return err
	}
	if runID != "" {
		fmt.Fprintf(formatter.Writer, "Recorded run %s\n", runID)
	}
	return nil
}

// loadErrorCode classifies a harness load error.
func loadErrorCode(err error) string {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, harness.ErrNoSuiteFiles) {
		return ErrCodeNotFound
	}
	return ErrCodeInvalid
}

// commandError reports err through the formatter and returns an exit
// error with ExitCommandError.
func commandError(formatter *OutputFormatter, code, message string, err error) error {
	_ = formatter.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(ExitCommandError, message, err)
}
