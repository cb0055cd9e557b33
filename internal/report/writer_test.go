package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/phatnguoi/internal/database"
	"github.com/nao1215/phatnguoi/internal/model"
)

func sampleRecord() model.ViolationRecord {
	return model.ViolationRecord{
		Plate:         "30A12345",
		PlateColor:    "Nền mầu trắng",
		VehicleType:   "Ô tô",
		ViolationTime: "10:15, 01/02/2024",
		Location:      "Km 10 QL1A",
		ViolationType: "Chạy quá tốc độ quy định",
		Status:        "Chưa xử phạt",
		DetectingUnit: "Đội CSGT số 1",
		ResolvingUnit: []string{"1. Đội CSGT số 1, Hà Nội"},
	}
}

// createTestLookup creates a finished lookup with the given envelope.
func createTestLookup(plate string, env model.ResponseEnvelope) *model.Lookup {
	l := model.NewLookup(plate, model.VehicleTypeCar)
	l.StartedAt = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	l.FinishedAt = l.StartedAt.Add(3 * time.Second)
	l.Envelope = env
	return l
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes violations", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		lookup := createTestLookup("30A12345", model.NewOKEnvelope([]model.ViolationRecord{sampleRecord()}))
		lookup.Label = "family car"

		n, err := w.Write(lookup)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("returned %d bytes, wrote %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{"30A12345 (family car)", "1 violation(s) on record", "Chạy quá tốc độ quy định", "Resolve at:"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "Lookup ID") {
			t.Error("lookup ID should only be printed in verbose mode")
		}
	})

	t.Run("writes empty result", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestLookup("29B112345", model.NewOKEnvelope(nil))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No violations on record.") {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})

	t.Run("writes failure message", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestLookup("29B112345", model.NewErrorEnvelope(model.MessageNoFinesURL))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Lookup failed: "+model.MessageNoFinesURL) {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})

	t.Run("verbose adds lookup id", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		lookup := createTestLookup("30A12345", model.NewOKEnvelope(nil))
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(lookup); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), lookup.ID) {
			t.Error("expected lookup ID in verbose output")
		}
		if !strings.Contains(buf.String(), "3s") {
			t.Error("expected duration in verbose output")
		}
	})

	t.Run("batch totals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		lookups := []*model.Lookup{
			createTestLookup("30A12345", model.NewOKEnvelope([]model.ViolationRecord{sampleRecord(), sampleRecord()})),
			createTestLookup("29B112345", model.NewErrorEnvelope(model.MessageNoFinesData)),
			nil,
		}
		if _, err := NewSimpleWriter(&buf).WriteBatch(lookups); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "2 violation(s) on record, 1 lookup(s) failed") {
			t.Errorf("unexpected totals: %s", buf.String())
		}
	})
}

func TestSimpleWriter_WriteHistory(t *testing.T) {
	t.Parallel()

	t.Run("no entries", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteHistory(&History{Plate: "30A12345"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No lookups stored") {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})

	t.Run("entries and diff", func(t *testing.T) {
		t.Parallel()

		paid := sampleRecord()
		paid.Status = "Đã xử phạt"
		history := &History{
			Plate: "30A12345",
			Entries: []database.LookupMetadata{
				{ID: "b", Plate: "30A12345", VehicleType: model.VehicleTypeCar, CheckedAt: time.Now(), ViolationCount: 1},
				{ID: "a", Plate: "30A12345", VehicleType: model.VehicleTypeCar, CheckedAt: time.Now().Add(-time.Hour), Error: true, Message: model.MessageNoSessionID},
			},
			Diff: &model.LookupDiff{
				StatusChanged: []model.StatusChange{{Record: paid, PreviousStatus: "Chưa xử phạt"}},
			},
		}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteHistory(history); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"1 violation(s)", "failed: " + model.MessageNoSessionID, "Chưa xử phạt -> Đã xử phạt"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("single lookup is the bare envelope", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		lookup := createTestLookup("30A12345", model.NewErrorEnvelope(model.MessageNoFinesURL))
		if _, err := NewJSONWriter(&buf).Write(lookup); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := `{"error":true,"message":"Can not get fines url","data":[]}` + "\n"
		if buf.String() != want {
			t.Errorf("got %q, want %q", buf.String(), want)
		}
	})

	t.Run("records keep field names", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		lookup := createTestLookup("30A12345", model.NewOKEnvelope([]model.ViolationRecord{sampleRecord()}))
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(lookup); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var env model.ResponseEnvelope
		if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if env.Error || env.Message != model.MessageOK || len(env.Data) != 1 {
			t.Fatalf("unexpected envelope: %+v", env)
		}
		if !strings.Contains(buf.String(), "\n  \"message\"") {
			t.Error("expected indented output")
		}
		if !strings.Contains(buf.String(), `"violationType"`) {
			t.Error("expected violationType key")
		}
	})

	t.Run("batch is an array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		lookups := []*model.Lookup{
			createTestLookup("30A12345", model.NewOKEnvelope(nil)),
			createTestLookup("29B112345", model.NewErrorEnvelope(model.MessageNoFinesData)),
		}
		if _, err := NewJSONWriter(&buf).WriteBatch(lookups); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var entries []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("got %d entries, want 2", len(entries))
		}
		if entries[0]["plate"] != "30A12345" || entries[0]["message"] != model.MessageOK {
			t.Errorf("unexpected first entry: %v", entries[0])
		}
		if data, ok := entries[0]["data"].([]any); !ok || len(data) != 0 {
			t.Errorf("data should be an empty array, got %v", entries[0]["data"])
		}
		if entries[1]["error"] != true {
			t.Errorf("unexpected second entry: %v", entries[1])
		}
	})

	t.Run("empty history has empty lookups array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteHistory(&History{Plate: "30A12345"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"plate":"30A12345","lookups":[]}` + "\n"
		if buf.String() != want {
			t.Errorf("got %q, want %q", buf.String(), want)
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("single lookup", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		lookup := createTestLookup("30A12345", model.NewOKEnvelope([]model.ViolationRecord{sampleRecord()}))
		if _, err := NewMarkdownWriter(&buf).Write(lookup); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# Traffic Violation Report", "## 30A12345", "Km 10 QL1A", "Where to resolve #1"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("batch summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		lookups := []*model.Lookup{
			createTestLookup("30A12345", model.NewOKEnvelope([]model.ViolationRecord{sampleRecord()})),
			createTestLookup("30A54321", model.NewOKEnvelope([]model.ViolationRecord{sampleRecord(), sampleRecord()})),
			createTestLookup("29B112345", model.NewErrorEnvelope(model.MessageNoSessionID)),
		}
		if _, err := NewMarkdownWriter(&buf).WriteBatch(lookups); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"## Summary", "```mermaid", "1 lookup(s) failed", "## 29B112345"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("history without changes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		history := &History{
			Plate: "30A12345",
			Entries: []database.LookupMetadata{
				{ID: "b", Plate: "30A12345", VehicleType: model.VehicleTypeCar, CheckedAt: time.Now()},
				{ID: "a", Plate: "30A12345", VehicleType: model.VehicleTypeCar, CheckedAt: time.Now().Add(-time.Hour)},
			},
			Diff: &model.LookupDiff{},
		}
		if _, err := NewMarkdownWriter(&buf).WriteHistory(history); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No changes between the two most recent lookups.") {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.Lookup) (int, error)        { return 0, errWrite }
func (failingWriter) WriteBatch([]*model.Lookup) (int, error) { return 0, errWrite }
func (failingWriter) WriteHistory(*History) (int, error)      { return 0, errWrite }

var errWrite = errors.New("write failed")

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every writer", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
		n, err := mw.Write(createTestLookup("30A12345", model.NewOKEnvelope(nil)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
		if n != text.Len()+js.Len() {
			t.Errorf("total = %d, want %d", n, text.Len()+js.Len())
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))
		if _, err := mw.WriteBatch(nil); !errors.Is(err, errWrite) {
			t.Errorf("err = %v, want %v", err, errWrite)
		}
		if after.Len() != 0 {
			t.Error("writers after a failure must not run")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"Đội CSGT số 1", 8, "Đội C..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
