package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/phatnguoi/internal/config"
	"github.com/nao1215/phatnguoi/internal/database"
	"github.com/nao1215/phatnguoi/internal/model"
	"github.com/nao1215/phatnguoi/internal/report"
)

// defaultHistoryLimit is the number of lookups listed by default.
const defaultHistoryLimit = 20

var (
	// errNoPlate is returned when history is called without a plate or action.
	errNoPlate = errors.New("a plate is required unless --id, --list-plates or --prune is given")

	// errLookupNotFound is returned when --id names no stored lookup.
	errLookupNotFound = errors.New("lookup not found")
)

// historyOptions holds the parsed history flags.
type historyOptions struct {
	plate      string
	id         string
	listPlates bool
	limit      int
	prune      time.Duration
	json       bool
	markdown   bool
	dbDir      string
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [plate]",
		Short: "Show stored lookups of a plate and what changed",
		Long: `History lists the lookups stored by previous check runs, newest first, and
compares the two most recent successful lookups of the plate to show new and
resolved violations.

Examples:
  # Show the stored lookups of a plate
  phatnguoi history 30A12345

  # Show one stored lookup with all its violations
  phatnguoi history --id 6f1c2a9e-0d4b-4c8e-9a57-2b1d3e4f5a6b

  # List every plate in the database
  phatnguoi history --list-plates

  # Remove lookups older than 90 days
  phatnguoi history --prune 2160h`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("id", "", "Show the stored lookup with this ID")
	cmd.Flags().BoolP("list-plates", "l", false, "List plates with stored lookups")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of lookups to show (0 shows all)")
	cmd.Flags().Duration("prune", 0, "Delete lookups older than this duration")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")
	cmd.Flags().StringP("config", "c", "", "Configuration file path")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryFlags(cmd, args)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return runHistory(cmd.Context(), db, opts, cmd.OutOrStdout())
}

func parseHistoryFlags(cmd *cobra.Command, args []string) (*historyOptions, error) {
	flags := cmd.Flags()
	opts := &historyOptions{}
	if len(args) == 1 {
		opts.plate = args[0]
	}

	var err error
	if opts.id, err = flags.GetString("id"); err != nil {
		return nil, err
	}
	if opts.listPlates, err = flags.GetBool("list-plates"); err != nil {
		return nil, err
	}
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	if opts.prune, err = flags.GetDuration("prune"); err != nil {
		return nil, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if opts.json && opts.markdown {
		return nil, config.ErrConflictingReportFormats
	}
	if opts.prune < 0 {
		return nil, fmt.Errorf("--prune must not be negative: %s", opts.prune)
	}
	if opts.plate == "" && opts.id == "" && !opts.listPlates && opts.prune == 0 {
		return nil, errNoPlate
	}

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg := config.NewConfig()
	file, err := loadConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	file.Apply(cfg)
	opts.dbDir = cfg.DBDir

	if flags.Changed("db-dir") {
		if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

// runHistory performs the requested history actions in order: prune, list
// plates, show one lookup by ID, then show the plate history.
func runHistory(ctx context.Context, db *database.HistoryDB, opts *historyOptions, out io.Writer) error {
	if opts.prune > 0 {
		cutoff := time.Now().Add(-opts.prune)
		n, err := db.DeleteLookupsBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d lookup(s) checked before %s\n", n, cutoff.Format(time.RFC3339))
	}

	if opts.listPlates {
		plates, err := db.ListPlates(ctx)
		if err != nil {
			return err
		}
		if len(plates) == 0 {
			fmt.Fprintln(out, "No plates stored.")
		}
		for _, p := range plates {
			fmt.Fprintln(out, p)
		}
	}

	w := newHistoryWriter(opts, out)

	if opts.id != "" {
		lookup, err := db.GetLookupByID(ctx, opts.id)
		if err != nil {
			return err
		}
		if lookup == nil {
			return fmt.Errorf("%w: %s", errLookupNotFound, opts.id)
		}
		if _, err := w.Write(lookup); err != nil {
			return err
		}
	}

	if opts.plate == "" {
		return nil
	}

	history, err := loadHistory(ctx, db, opts.plate, opts.limit)
	if err != nil {
		return err
	}
	_, err = w.WriteHistory(history)
	return err
}

func newHistoryWriter(opts *historyOptions, out io.Writer) report.Writer {
	switch {
	case opts.json:
		return report.NewJSONWriter(out)
	case opts.markdown:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out)
	}
}

// loadHistory collects the stored lookups of plate and the difference
// between its two most recent successful lookups.
func loadHistory(ctx context.Context, db *database.HistoryDB, plate string, limit int) (*report.History, error) {
	entries, err := db.GetLookupHistory(ctx, plate)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	history := &report.History{
		Plate:   model.NormalizePlate(plate),
		Entries: entries,
	}

	latest, err := db.GetLatestLookups(ctx, plate, 2, true)
	if err != nil {
		return nil, err
	}
	if len(latest) == 2 {
		history.Diff = model.CompareLookups(latest[1], latest[0])
	}
	return history, nil
}
