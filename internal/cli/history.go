package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/uiscenario/internal/harness"
	"github.com/roach88/uiscenario/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Delete   bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `List runs recorded with "run --db", newest first, show the full
report of one run, or delete one run with --delete.

Examples:
  uiscenario history --db history.db
  uiscenario history --db history.db --limit 5
  uiscenario history --db history.db 0b7c5a1e-3f1d-4a43-9d8e-5b9e6f7d2c10
  uiscenario history --db history.db --delete 0b7c5a1e-3f1d-4a43-9d8e-5b9e6f7d2c10`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to UISCENARIO_DB_PATH)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "delete the given run")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	path := opts.Database
	if !cmd.Flags().Changed("db") {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
		}
		path = cfg.DBPath
	}
	if path == "" {
		return commandError(formatter, ErrCodeConfig, "no database", errors.New("set --db or UISCENARIO_DB_PATH"))
	}
	if opts.Delete && len(args) != 1 {
		return commandError(formatter, ErrCodeConfig, "invalid arguments", errors.New("--delete requires a run ID"))
	}

	// Opening would create a missing database.
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return commandError(formatter, ErrCodeNotFound, "database not found", err)
		}
		return commandError(formatter, ErrCodeStore, "failed to open database", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if opts.Delete {
		err := st.DeleteRun(ctx, args[0])
		if errors.Is(err, store.ErrRunNotFound) {
			return commandError(formatter, ErrCodeNotFound, "unknown run", err)
		}
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to delete run", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(map[string]string{"deleted": args[0]})
		}
		fmt.Fprintf(formatter.Writer, "Deleted run %s\n", args[0])
		return nil
	}
	if len(args) == 1 {
		run, summary, err := st.ReadRun(ctx, args[0])
		if errors.Is(err, store.ErrRunNotFound) {
			return commandError(formatter, ErrCodeNotFound, "unknown run", err)
		}
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to read run", err)
		}
		return outputRun(formatter, run, summary)
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to list runs", err)
	}
	return outputRuns(formatter, runs)
}

func outputRuns(formatter *OutputFormatter, runs []store.RunSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTARTED\tBACKEND\tPASSED\tFAILED\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Backend,
			r.Passed,
			r.Failed,
			r.Duration,
		)
	}
	return tw.Flush()
}

func outputRun(formatter *OutputFormatter, run store.Run, summary store.RunSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(run)
	}

	fmt.Fprintf(formatter.Writer, "Run %s\n", run.ID)
	fmt.Fprintf(formatter.Writer, "Started: %s (%s)\n", run.StartedAt.Local().Format(time.DateTime), run.Duration)
	if run.BaseURL != "" {
		fmt.Fprintf(formatter.Writer, "Base URL: %s\n", run.BaseURL)
	}
	if run.Backend != "" {
		fmt.Fprintf(formatter.Writer, "Backend: %s\n", run.Backend)
	}
	fmt.Fprintln(formatter.Writer)
	if err := harness.WriteText(formatter.Writer, run.Report); err != nil {
		return err
	}
	formatter.VerboseLog("%d passed, %d failed at record time", summary.Passed, summary.Failed)
	return nil
}
