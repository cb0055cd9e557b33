package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/phatnguoi/internal/database"
	"github.com/nao1215/phatnguoi/internal/model"
)

// JSONWriter outputs results in JSON format for tool integration.
//
// A single lookup is written as the response envelope itself, byte for byte
// what a caller of the checker receives. Batches are written as an array of
// envelopes tagged with the plate they belong to.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// BatchEntry is one element of a batch report: the envelope fields inline
// next to the identity of the lookup.
type BatchEntry struct {
	ID          string            `json:"id"`
	Plate       string            `json:"plate"`
	VehicleType model.VehicleType `json:"vehicleType"`
	Label       string            `json:"label,omitempty"`
	CheckedAt   time.Time         `json:"checkedAt"`

	model.ResponseEnvelope
}

// NewBatchEntry flattens a lookup into a BatchEntry.
func NewBatchEntry(lookup *model.Lookup) BatchEntry {
	return BatchEntry{
		ID:               lookup.ID,
		Plate:            lookup.Plate,
		VehicleType:      lookup.VehicleType,
		Label:            lookup.Label,
		CheckedAt:        lookup.StartedAt.UTC(),
		ResponseEnvelope: lookup.Envelope,
	}
}

// Write outputs the envelope of the lookup.
func (w *JSONWriter) Write(lookup *model.Lookup) (int, error) {
	return w.writeJSON(lookup.Envelope)
}

// WriteBatch outputs a JSON array with one entry per lookup.
func (w *JSONWriter) WriteBatch(lookups []*model.Lookup) (int, error) {
	entries := make([]BatchEntry, 0, len(lookups))
	for _, l := range lookups {
		if l == nil {
			continue
		}
		entries = append(entries, NewBatchEntry(l))
	}
	return w.writeJSON(entries)
}

// WriteHistory outputs the stored lookups and the latest diff.
func (w *JSONWriter) WriteHistory(history *History) (int, error) {
	out := *history
	if out.Entries == nil {
		out.Entries = []database.LookupMetadata{}
	}
	return w.writeJSON(out)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
