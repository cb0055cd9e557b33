package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/phatnguoi/internal/model"
)

// MarkdownWriter outputs results as GitHub-flavored Markdown, one table of
// violations per plate.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one lookup in Markdown format.
func (w *MarkdownWriter) Write(lookup *model.Lookup) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Traffic Violation Report")
	md.PlainText("")
	w.writeLookup(md, lookup)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs a summary table followed by one section per plate.
func (w *MarkdownWriter) WriteBatch(lookups []*model.Lookup) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Traffic Violation Report")
	md.PlainText("")
	w.writeSummary(md, lookups)
	for _, l := range lookups {
		if l == nil {
			continue
		}
		w.writeLookup(md, l)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs the stored lookups of a plate and the latest diff.
func (w *MarkdownWriter) WriteHistory(history *History) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Lookup History: " + history.Plate)
	md.PlainText("")

	if len(history.Entries) == 0 {
		md.Note("No lookups stored for this plate.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, len(history.Entries))
	for _, e := range history.Entries {
		result := strconv.Itoa(e.ViolationCount)
		if e.Error {
			result = "❌ " + e.Message
		}
		rows = append(rows, []string{
			e.CheckedAt.Local().Format(timeLayout),
			e.VehicleType.String(),
			result,
			"`" + e.ID + "`",
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Checked At", "Vehicle Type", "Violations", "Lookup ID"},
		Rows:   rows,
	})
	md.PlainText("")

	if history.Diff != nil {
		w.writeDiff(md, history.Diff)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, lookups []*model.Lookup) {
	md.H2("Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(lookups))
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Violations by Vehicle"),
		piechart.WithShowData(true),
	)
	charted := 0
	for _, l := range lookups {
		if l == nil {
			continue
		}
		rows = append(rows, []string{l.Plate, orDash(l.Label), l.VehicleType.String(), statusText(l)})
		if !l.Envelope.Error && len(l.Envelope.Data) > 0 {
			chart.LabelAndIntValue(l.Plate, uint64(len(l.Envelope.Data)))
			charted++
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Plate", "Label", "Vehicle Type", "Result"},
		Rows:   rows,
	})
	md.PlainText("")

	if charted > 1 {
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	violations, failed := countViolations(lookups)
	switch {
	case failed > 0:
		md.Warningf("%d lookup(s) failed and may need to be retried.", failed)
	case violations > 0:
		md.Importantf("%d violation(s) on record across %d vehicle(s).", violations, len(rows))
	default:
		md.Tip("No violations on record.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeLookup(md *markdown.Markdown, lookup *model.Lookup) {
	title := lookup.Plate
	if lookup.Label != "" {
		title += " (" + lookup.Label + ")"
	}
	md.H2(title)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Plate", "`" + lookup.Plate + "`"},
			{"Vehicle Type", lookup.VehicleType.String()},
			{"Checked At", lookup.StartedAt.Local().Format("2006-01-02 15:04:05 MST")},
			{"Status", statusText(lookup)},
		},
	})
	md.PlainText("")

	env := lookup.Envelope
	if env.Error {
		md.Cautionf("Lookup failed: %s", env.Message)
		md.PlainText("")
		return
	}
	if len(env.Data) == 0 {
		md.Tip("No violations on record.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Time", "Location", "Violation", "Status", "Detected By"},
		Rows:   violationRows(env.Data),
	})
	md.PlainText("")

	for i := range env.Data {
		r := &env.Data[i]
		if len(r.ResolvingUnit) == 0 {
			continue
		}
		md.Details("Where to resolve #"+strconv.Itoa(i+1), strings.Join(r.ResolvingUnit, "\n\n"))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeDiff(md *markdown.Markdown, diff *model.LookupDiff) {
	md.H2("Changes Since Previous Lookup")
	md.PlainText("")

	if !diff.HasChanges() {
		md.Note("No changes between the two most recent lookups.")
		md.PlainText("")
		return
	}

	if len(diff.New) > 0 {
		md.H3("New")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Time", "Location", "Violation", "Status", "Detected By"},
			Rows:   violationRows(diff.New),
		})
		md.PlainText("")
	}
	if len(diff.Resolved) > 0 {
		md.H3("No Longer Listed")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Time", "Location", "Violation", "Status", "Detected By"},
			Rows:   violationRows(diff.Resolved),
		})
		md.PlainText("")
	}
	if len(diff.StatusChanged) > 0 {
		md.H3("Status Changed")
		md.PlainText("")
		rows := make([][]string, 0, len(diff.StatusChanged))
		for _, c := range diff.StatusChanged {
			rows = append(rows, []string{
				orDash(c.Record.ViolationTime),
				truncateString(orDash(c.Record.ViolationType), 60),
				orDash(c.PreviousStatus),
				orDash(c.Record.Status),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Time", "Violation", "Before", "Now"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [phatnguoi](https://github.com/nao1215/phatnguoi)*")
}

func statusText(lookup *model.Lookup) string {
	env := lookup.Envelope
	switch {
	case env.Error:
		return "❌ " + env.Message
	case len(env.Data) == 0:
		return "✅ No violations"
	default:
		return "⚠️ " + strconv.Itoa(len(env.Data)) + " violation(s)"
	}
}

func violationRows(records []model.ViolationRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			orDash(r.ViolationTime),
			truncateString(orDash(r.Location), 60),
			truncateString(orDash(r.ViolationType), 60),
			orDash(r.Status),
			truncateString(orDash(r.DetectingUnit), 40),
		})
	}
	return rows
}
