package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/phatnguoi/internal/model"
)

const (
	bannerWidth = 70
	timeLayout  = "2006-01-02 15:04:05"
)

// SimpleWriter outputs human-readable text for terminal display.
// Plain ASCII formatting keeps the output readable when piped to a file.
type SimpleWriter struct {
	baseWriter

	// verbose adds lookup IDs and durations to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one lookup in human-readable format.
func (w *SimpleWriter) Write(lookup *model.Lookup) (int, error) {
	var sb strings.Builder
	w.writeLookup(&sb, lookup)
	return io.WriteString(w.output, sb.String())
}

// WriteBatch outputs every lookup followed by a totals line.
func (w *SimpleWriter) WriteBatch(lookups []*model.Lookup) (int, error) {
	var sb strings.Builder
	for _, l := range lookups {
		if l == nil {
			continue
		}
		w.writeLookup(&sb, l)
	}

	violations, failed := countViolations(lookups)
	fmt.Fprintf(&sb, "Checked %d vehicle(s): %d violation(s) on record, %d lookup(s) failed\n",
		len(lookups), violations, failed)
	return io.WriteString(w.output, sb.String())
}

// WriteHistory outputs the stored lookups of a plate and the latest changes.
func (w *SimpleWriter) WriteHistory(history *History) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "HISTORY "+history.Plate)
	if len(history.Entries) == 0 {
		sb.WriteString("No lookups stored for this plate.\n\n")
		return io.WriteString(w.output, sb.String())
	}

	for _, e := range history.Entries {
		result := fmt.Sprintf("%d violation(s)", e.ViolationCount)
		if e.Error {
			result = "failed: " + e.Message
		}
		fmt.Fprintf(&sb, "  %s  %-16s %s", e.CheckedAt.Local().Format(timeLayout), e.VehicleType.String(), result)
		if w.verbose {
			fmt.Fprintf(&sb, "  [%s, %s]", e.ID, e.Duration)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if history.Diff != nil {
		w.writeDiff(&sb, history.Diff)
	}
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeLookup(sb *strings.Builder, lookup *model.Lookup) {
	title := lookup.Plate
	if lookup.Label != "" {
		title += " (" + lookup.Label + ")"
	}
	writeBanner(sb, title)

	fmt.Fprintf(sb, "Vehicle type: %s\n", lookup.VehicleType.String())
	fmt.Fprintf(sb, "Checked at:   %s\n", lookup.StartedAt.Local().Format(timeLayout))
	if w.verbose {
		fmt.Fprintf(sb, "Lookup ID:    %s\n", lookup.ID)
		fmt.Fprintf(sb, "Duration:     %s\n", lookup.Duration())
	}
	sb.WriteString("\n")

	env := lookup.Envelope
	switch {
	case env.Error:
		fmt.Fprintf(sb, "[!] Lookup failed: %s\n\n", env.Message)
		return
	case len(env.Data) == 0:
		sb.WriteString("No violations on record.\n\n")
		return
	}

	fmt.Fprintf(sb, "%d violation(s) on record:\n\n", len(env.Data))
	for i := range env.Data {
		fmt.Fprintf(sb, "#%d\n", i+1)
		writeRecord(sb, &env.Data[i], "  ")
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeDiff(sb *strings.Builder, diff *model.LookupDiff) {
	sb.WriteString("Changes since previous lookup:\n")
	if !diff.HasChanges() {
		sb.WriteString("  none\n\n")
		return
	}
	for i := range diff.New {
		fmt.Fprintf(sb, "  + new:      %s\n", recordSummary(&diff.New[i]))
	}
	for i := range diff.Resolved {
		fmt.Fprintf(sb, "  - resolved: %s\n", recordSummary(&diff.Resolved[i]))
	}
	for i := range diff.StatusChanged {
		c := &diff.StatusChanged[i]
		fmt.Fprintf(sb, "  * status:   %s (%s -> %s)\n", recordSummary(&c.Record), orDash(c.PreviousStatus), orDash(c.Record.Status))
	}
	sb.WriteString("\n")
}

func writeBanner(sb *strings.Builder, title string) {
	line := strings.Repeat("=", bannerWidth)
	sb.WriteString(line + "\n")
	sb.WriteString("  " + title + "\n")
	sb.WriteString(line + "\n\n")
}

func writeRecord(sb *strings.Builder, r *model.ViolationRecord, indent string) {
	for _, f := range model.ViolationFields {
		v := r.Field(f.Key)
		if v == "" {
			continue
		}
		fmt.Fprintf(sb, "%s%-13s %s\n", indent, f.Label+":", v)
	}
	for _, u := range r.ResolvingUnit {
		fmt.Fprintf(sb, "%s%-13s %s\n", indent, "Resolve at:", u)
	}
}

// recordSummary is a one-line description of a violation.
func recordSummary(r *model.ViolationRecord) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{r.ViolationTime, r.ViolationType, r.Location} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " | ")
}
