package report

import (
	"io"

	"github.com/nao1215/phatnguoi/internal/database"
	"github.com/nao1215/phatnguoi/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the result of a single lookup.
	// Returns the number of bytes written and any error encountered.
	Write(lookup *model.Lookup) (int, error)

	// WriteBatch outputs the results of several lookups as one report.
	WriteBatch(lookups []*model.Lookup) (int, error)

	// WriteHistory outputs the stored lookups of a plate.
	WriteHistory(history *History) (int, error)
}

// History is the stored record of a plate, newest lookup first.
type History struct {
	// Plate is the normalized plate.
	Plate string `json:"plate"`

	// Entries are the stored lookups.
	Entries []database.LookupMetadata `json:"lookups"`

	// Diff compares the two most recent lookups. Nil when fewer than two
	// lookups are stored.
	Diff *model.LookupDiff `json:"diff,omitempty"`
}

// MultiWriter writes to multiple Writers simultaneously.
// Our Writer interface writes lookups, not raw bytes, so io.MultiWriter
// does not apply.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the lookup to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(lookup *model.Lookup) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(lookup) })
}

// WriteBatch outputs the lookups to all configured Writers.
func (m *MultiWriter) WriteBatch(lookups []*model.Lookup) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteBatch(lookups) })
}

// WriteHistory outputs the history to all configured Writers.
func (m *MultiWriter) WriteHistory(history *History) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteHistory(history) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// orDash substitutes "-" for empty table cells.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// countViolations sums the records of successful lookups.
func countViolations(lookups []*model.Lookup) (violations, failed int) {
	for _, l := range lookups {
		if l == nil {
			continue
		}
		if l.Envelope.Error {
			failed++
			continue
		}
		violations += len(l.Envelope.Data)
	}
	return violations, failed
}
