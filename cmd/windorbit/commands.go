package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"windorbit/internal/config"
	"windorbit/internal/daterange"
	apperrors "windorbit/internal/errors"
	"windorbit/internal/files"
	"windorbit/internal/infrastructure"
	"windorbit/internal/locator"
	"windorbit/internal/operations"
	"windorbit/internal/prompt"
	"windorbit/internal/record"
)

// shutdownTimeout bounds the final metrics and span flush
const shutdownTimeout = 5 * time.Second

// newQuerier starts the form collaborator. Tests replace it.
var newQuerier = func(ctx context.Context, cfg config.LocatorConfig, logger *slog.Logger) (locator.Querier, func(), error) {
	client, err := locator.New(ctx, cfg, locator.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "Download daily Wind orbit reports from SSCWeb",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFetchCmd(), newWindowsCmd(), newVersionCmd())
	return root
}

// --- fetch ---

type fetchOptions struct {
	from         string
	to           string
	out          string
	configPath   string
	headless     bool
	onError      string
	retries      int
	skipExisting bool
	resume       bool
}

func newFetchCmd() *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one orbit file per day of a date range",
		Long: `Fetch one orbit file per day of a date range.

Dates are dd/mm/YYYY and the end date is inclusive. Anything not given as a
flag is asked for on the terminal.

Examples:
  windorbit fetch --from 01/03/2024 --to 07/03/2024 --out ./wind
  windorbit fetch --out ./wind --to 31/03/2024 --resume --on-error skip`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.from, "from", "", "start date (dd/mm/YYYY)")
	f.StringVar(&opts.to, "to", "", "end date, inclusive (dd/mm/YYYY)")
	f.StringVar(&opts.out, "out", "", "existing directory to write the daily files to")
	f.StringVar(&opts.configPath, "config", "", "path to "+config.ConfigFileName)
	f.BoolVar(&opts.headless, "headless", true, "run the browser headless")
	f.StringVar(&opts.onError, "on-error", config.FailurePolicyAbort, "what a failed day does to the run: abort | skip")
	f.IntVar(&opts.retries, "retries", 0, "extra query attempts per day")
	f.BoolVar(&opts.skipExisting, "skip-existing", false, "leave days whose file already exists untouched")
	f.BoolVar(&opts.resume, "resume", false, "start the day after the latest file already in --out")

	return cmd
}

func runFetch(cmd *cobra.Command, opts *fetchOptions) error {
	ctx := infrastructure.EnsureTraceID(cmd.Context())
	out := cmd.OutOrStdout()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return apperrors.NewConfigError("failed to load configuration", err)
	}
	applyFlags(cmd, opts, cfg)

	if err := ensureLogDirectory(cfg.Logging); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil || logger == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger.InfoContext(ctx, "windorbit starting",
		slog.String("version", config.AppVersion),
		slog.String("from", opts.from),
		slog.String("to", opts.to),
		slog.String("output_dir", opts.out),
		slog.Bool("resume", opts.resume))

	inputs := prompt.Inputs{StartDate: opts.from, EndDate: opts.to, Dir: opts.out}
	if opts.resume && inputs.StartDate == "" && inputs.Dir != "" {
		if next, ok := nextMissingDay(inputs.Dir); ok {
			inputs.StartDate = next.Format(daterange.DateLayout)
		}
	}
	if !inputs.Complete() {
		inputs, err = prompt.New(cmd.InOrStdin(), out).Collect(inputs)
		if err != nil {
			return err
		}
	}

	start, err := daterange.ParseDate(inputs.StartDate)
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	end, err := daterange.ParseDate(inputs.EndDate)
	if err != nil {
		return fmt.Errorf("end date: %w", err)
	}

	if opts.resume {
		if next, ok := nextMissingDay(inputs.Dir); ok && next.After(start) {
			logger.InfoContext(ctx, "Resuming after latest file",
				slog.String("start_from", next.Format("2006-01-02")))
			start = next
		}
	}

	runCfg := runConfigFrom(cfg.Fetch, start, end, inputs.Dir)
	if err := runCfg.Validate(); err != nil {
		return err
	}

	if done, reason := nothingToFetch(runCfg); done {
		logger.InfoContext(ctx, "Nothing to fetch", slog.String("reason", reason))
		fmt.Fprintln(out, reason)
		return nil
	}

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreateFetchMetrics(tel.Meter)
	if err != nil {
		return err
	}

	querier, closeQuerier, err := newQuerier(ctx, cfg.Locator, infrastructure.WithComponent(logger, "locator"))
	if err != nil {
		return err
	}
	defer closeQuerier()

	manager := operations.NewManager(querier,
		files.NewManager().WithLogger(infrastructure.WithComponent(logger, "files")),
		operations.WithLogger(infrastructure.WithComponent(logger, "operations")),
		operations.WithTracer(tel.Tracer),
		operations.WithMetrics(metrics),
	)

	summary, runErr := manager.Run(ctx, runCfg)
	printSummary(out, summary)
	return runErr
}

// ensureLogDirectory creates the logs directory next to the executable when
// the log file is written there
func ensureLogDirectory(lc config.LoggingConfig) error {
	if lc.Output == "console" {
		return nil
	}
	paths, err := config.GetPaths()
	if err != nil {
		return err
	}
	if filepath.Dir(lc.FilePath) != paths.LogsDir {
		return nil
	}
	return paths.EnsureDirectories()
}

// applyFlags lets explicitly set flags override the loaded configuration
func applyFlags(cmd *cobra.Command, opts *fetchOptions, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("headless") {
		cfg.Locator.Headless = opts.headless
	}
	if f.Changed("on-error") {
		cfg.Fetch.FailurePolicy = opts.onError
	}
	if f.Changed("retries") {
		cfg.Fetch.Retries = opts.retries
	}
	if f.Changed("skip-existing") {
		cfg.Fetch.SkipExisting = opts.skipExisting
	}
}

func runConfigFrom(fc config.FetchConfig, start, end time.Time, dir string) operations.RunConfig {
	retry := operations.NewRetryConfig()
	retry.MaxAttempts = fc.Retries + 1
	retry.InitialDelay = fc.RetryDelay

	return operations.RunConfig{
		Start:         start,
		End:           end,
		Dir:           dir,
		FailurePolicy: operations.FailurePolicy(fc.FailurePolicy),
		Retry:         retry,
		SkipExisting:  fc.SkipExisting,
	}
}

// nextMissingDay returns the day after the latest daily file in dir
func nextMissingDay(dir string) (time.Time, bool) {
	found, err := files.NewDiscovery().FindDailyFiles(dir)
	if err != nil {
		return time.Time{}, false
	}
	latest, ok := files.LatestDay(found)
	if !ok {
		return time.Time{}, false
	}
	return latest.AddDate(0, 0, 1), true
}

// nothingToFetch reports whether the run can finish without starting the
// browser, and why
func nothingToFetch(cfg operations.RunConfig) (bool, string) {
	expected := cfg.Windows()
	if expected == 0 {
		return true, "Nothing to fetch: start date is after end date"
	}
	if !cfg.SkipExisting {
		return false, ""
	}
	found, err := files.NewDiscovery().FindDailyFiles(cfg.Dir)
	if err != nil {
		return false, ""
	}
	if files.CountInRange(found, cfg.Start, cfg.End) >= expected {
		return true, fmt.Sprintf("All %d files already exist", expected)
	}
	return false, ""
}

func printSummary(w io.Writer, s *operations.Summary) {
	if s == nil {
		return
	}
	fmt.Fprintf(w, "Written: %d  Skipped: %d  Failed: %d  (of %d days, %s)\n",
		s.Written, s.Skipped, s.Failed, s.Expected, s.Duration.Round(time.Millisecond))
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  %s: %v\n", f.Day.Format("2006-01-02"), f.Err)
	}
}

// --- windows ---

func newWindowsCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "windows",
		Short: "Print the query windows of a date range without fetching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := daterange.ParseDate(from)
			if err != nil {
				return fmt.Errorf("start date: %w", err)
			}
			end, err := daterange.ParseDate(to)
			if err != nil {
				return fmt.Errorf("end date: %w", err)
			}

			out := cmd.OutOrStdout()
			n := 0
			for w := range daterange.Expand(start, end) {
				n++
				fmt.Fprintf(out, "%s  %s\n", w, record.Filename(w))
			}
			fmt.Fprintf(out, "%d windows\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (dd/mm/YYYY)")
	cmd.Flags().StringVar(&to, "to", "", "end date, inclusive (dd/mm/YYYY)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// --- version ---

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", config.AppName, config.AppVersion)
		},
	}
}
