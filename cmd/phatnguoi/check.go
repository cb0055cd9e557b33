package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/phatnguoi/internal/config"
	"github.com/nao1215/phatnguoi/internal/database"
	"github.com/nao1215/phatnguoi/internal/model"
	"github.com/nao1215/phatnguoi/internal/ocr"
	"github.com/nao1215/phatnguoi/internal/ocr/tesseract"
	"github.com/nao1215/phatnguoi/internal/pipeline"
	"github.com/nao1215/phatnguoi/internal/report"
)

// errAllLookupsFailed is returned when not a single lookup produced data.
var errAllLookupsFailed = errors.New("all lookups failed")

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [plate[:type]]...",
		Short: "Check plates for camera-recorded traffic violations",
		Long: `Check looks up the violations on record for one or more plates.

A plate may carry its vehicle type after a colon (car, motorbike, ebike or
1, 2, 3). Without one, --type is used, and without --type the type is guessed
from the plate. With no plate arguments, the vehicles listed in the
configuration file are checked.

Examples:
  # Check a single car
  phatnguoi check 30A-123.45

  # Check several vehicles, two at a time
  phatnguoi check -b 2 30A12345:car 29B112345:motorbike

  # Print the raw response envelope
  phatnguoi check --json 30A12345

  # Route lookups through an embedded Tor daemon
  phatnguoi check --tor 30A12345

  # Check every vehicle from .phatnguoi and write a Markdown report
  phatnguoi check --markdown -o report.md`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheckCmd,
	}

	cmd.Flags().StringP("type", "k", "",
		"Vehicle type for plates without one: car, motorbike, ebike (or 1, 2, 3)")

	// Lookup behavior
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout of each HTTP request")
	cmd.Flags().Duration("ocr-timeout", config.DefaultOCRTimeout,
		"Timeout of each CAPTCHA recognition (0 disables)")
	cmd.Flags().IntP("attempts", "a", config.DefaultMaxAttempts,
		"Attempts per lookup stage")
	cmd.Flags().Duration("delay", config.DefaultRetryDelay,
		"Delay between attempts")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent lookups")

	// Network
	cmd.Flags().StringP("proxy", "x", "",
		"Route lookups through a SOCKS5 proxy (host:port)")
	cmd.Flags().Bool("tor", false,
		"Route lookups through an embedded Tor daemon")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Output
	cmd.Flags().BoolP("json", "j", false,
		"Output the JSON response envelope (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to a file and print a text summary (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not store lookups in the history database")
	cmd.Flags().String("log-file", "",
		"Also write logs to this file (rotated by size)")
	cmd.Flags().String("log-format", config.LogFormatText,
		"Log format: text or json")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .phatnguoi in current or home directory)")

	return cmd
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCheckConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closeLog, err := setupLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recognizer := ocr.WithTimeout(tesseract.New(), cfg.OCRTimeout)
	return runCheck(ctx, cfg, logger, recognizer, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildCheckConfig layers defaults, the config file and explicitly set flags.
func buildCheckConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	file, err := loadConfigFile(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	file.Apply(cfg)

	if err := applyCheckFlags(cmd, cfg); err != nil {
		return nil, err
	}

	defaultType, err := cmd.Flags().GetString("type")
	if err != nil {
		return nil, err
	}
	cfg.Targets, err = resolveTargets(args, defaultType, file)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile finds and loads the configuration file. A missing file is
// an error only when the path was given explicitly.
func loadConfigFile(path string) (*config.File, error) {
	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return &config.File{}, nil
	}

	file, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	return file, nil
}

// applyCheckFlags copies flags the user set onto cfg, so that unset flags
// keep the values from the config file.
func applyCheckFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	durations := map[string]*time.Duration{
		"timeout":     &cfg.Timeout,
		"ocr-timeout": &cfg.OCRTimeout,
		"delay":       &cfg.RetryDelay,
		"tor-timeout": &cfg.TorStartupTimeout,
	}
	for name, dst := range durations {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetDuration(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	ints := map[string]*int{
		"attempts": &cfg.MaxAttempts,
		"batch":    &cfg.BatchSize,
	}
	for name, dst := range ints {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if flags.Changed("proxy") {
		v, err := flags.GetString("proxy")
		if err != nil {
			return err
		}
		cfg.ProxyAddress = v
	}
	if flags.Changed("tor") {
		v, err := flags.GetBool("tor")
		if err != nil {
			return err
		}
		cfg.UseTor = v
	}

	var err error
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}
	if cfg.LogFile, err = flags.GetString("log-file"); err != nil {
		return err
	}
	if cfg.LogFormat, err = flags.GetString("log-format"); err != nil {
		return err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noSave
	return nil
}

// resolveTargets parses plate arguments, falling back to the vehicles of
// the config file when there are none. defaultType applies to every target
// that does not name a type.
func resolveTargets(args []string, defaultType string, file *config.File) ([]model.Target, error) {
	vt, err := model.ParseVehicleType(defaultType)
	if err != nil {
		return nil, fmt.Errorf("--type: %w", err)
	}

	var targets []model.Target
	if len(args) == 0 {
		if targets, err = file.Targets(); err != nil {
			return nil, err
		}
	}
	for _, arg := range args {
		t, err := model.ParseTarget(arg)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}

	for i := range targets {
		if targets[i].VehicleType == "" {
			targets[i].VehicleType = vt
		}
	}
	return targets, nil
}

// runCheck performs the lookups described by cfg and writes the report.
func runCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger, recognizer ocr.Recognizer, stdout, stderr io.Writer) error {
	httpClient, cleanup, err := newHTTPClient(ctx, cfg, logger, stderr)
	if err != nil {
		return err
	}
	defer cleanup()

	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	checker := newChecker(httpClient, recognizer, cfg, logger)

	var lookups []*model.Lookup
	if len(cfg.Targets) == 1 {
		lookups = []*model.Lookup{checker.Check(ctx, cfg.Targets[0])}
	} else {
		lookups, err = runBatch(ctx, checker, cfg, logger, stderr)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	finished := make([]*model.Lookup, 0, len(lookups))
	for _, l := range lookups {
		if l == nil {
			continue
		}
		finished = append(finished, l)
		saveLookup(ctx, db, l, logger)
	}

	if err := writeReport(cfg, stdout, finished); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	_, failed := countFailed(finished)
	if len(finished) > 0 && failed == len(finished) {
		return fmt.Errorf("%w (%d of %d)", errAllLookupsFailed, failed, len(finished))
	}
	return nil
}

// runBatch checks all targets concurrently and reports progress on stderr.
func runBatch(ctx context.Context, checker *pipeline.Checker, cfg *config.Config, logger *slog.Logger, stderr io.Writer) ([]*model.Lookup, error) {
	bp := pipeline.NewBatchProcessor(checker,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	results := make([]*model.Lookup, len(cfg.Targets))
	var (
		mu   sync.Mutex
		done int
	)
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(lookup *model.Lookup, index int) {
		mu.Lock()
		defer mu.Unlock()

		results[index] = lookup
		done++
		fmt.Fprintf(stderr, "[%d/%d] %s: %s\n", done, len(cfg.Targets), lookup.Plate, lookup.Envelope.Message)
	})
	return results, err
}

// saveLookup stores a lookup. Failures are logged and do not abort the run.
func saveLookup(ctx context.Context, db *database.HistoryDB, lookup *model.Lookup, logger *slog.Logger) {
	if db == nil {
		return
	}
	// The lookup is stored even when the run was interrupted.
	if err := db.SaveLookup(context.WithoutCancel(ctx), lookup); err != nil {
		logger.Error("failed to save lookup", "plate", lookup.Plate, "error", err)
		return
	}
	logger.Debug("lookup saved", "lookup_id", lookup.ID, "plate", lookup.Plate)
}

// writeReport writes lookups in the configured format to stdout. With a
// report file, the report goes to the file and stdout gets the text summary.
// A single lookup is written on its own, several as a batch.
func writeReport(cfg *config.Config, stdout io.Writer, lookups []*model.Lookup) error {
	out, closeOut, err := openReportOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	var w report.Writer = newReportWriter(cfg, out)
	if cfg.ReportFile != "" {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)))
	}
	if len(lookups) == 1 {
		_, err = w.Write(lookups[0])
		return err
	}
	_, err = w.WriteBatch(lookups)
	return err
}

func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out)
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

func countFailed(lookups []*model.Lookup) (ok, failed int) {
	for _, l := range lookups {
		if l.Envelope.Error {
			failed++
		} else {
			ok++
		}
	}
	return ok, failed
}
