package archive

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/perfscale/llm-apiperf/pkg/results"
	"github.com/perfscale/llm-apiperf/pkg/sample"
)

// chdir stands in for t.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("changing directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
}

func summariesForTest(t *testing.T) (*results.Summary, *results.Summary) {
	t.Helper()
	a, err := results.Aggregate(sample.ProbeRun{
		Path:    "bedrock",
		ModelID: "us.anthropic.claude-sonnet-4-20250514-v1:0",
		Samples: []float64{150, 150, 150, 150, 150},
	})
	if err != nil {
		t.Fatalf("aggregating gateway run: %v", err)
	}
	b, err := results.Aggregate(sample.ProbeRun{
		Path:    "anthropic",
		ModelID: "claude-sonnet-4-20250514",
		Samples: []float64{100, 100, 100, 100, 100},
	})
	if err != nil {
		t.Fatalf("aggregating direct run: %v", err)
	}
	return a, b
}

// TestWriteXLSXRoundTrip writes a comparison report and reads the tabular
// values back, checking the two-decimal rendering survives the trip.
func TestWriteXLSXRoundTrip(t *testing.T) {
	chdir(t, t.TempDir())
	a, b := summariesForTest(t)
	rows, err := results.Compare(a, b)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	meta := Meta{UUID: "test-run", Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), TotalRequests: 10}
	path, err := WriteXLSX(a, b, rows, meta)
	if err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reading report back: %v", err)
	}
	defer f.Close()

	check := func(cell, want string) {
		t.Helper()
		got, err := f.GetCellValue(sheetName, cell)
		if err != nil {
			t.Fatalf("reading %s: %v", cell, err)
		}
		if got != want {
			t.Fatalf("%s: got %q, want %q", cell, got, want)
		}
	}
	check("A1", "Metric")
	check("B1", "Bedrock")
	check("C1", "Anthropic")
	check("A2", "Average Latency (ms)")
	check("B2", "150.00")
	check("C2", "100.00")
	check("D2", "+50.00")
	check("E2", "+50.00%")
	// Failed requests are zero on both paths: zero denominator sentinel.
	check("A8", "Failed Requests")
	check("E8", "+Inf%")
	// Metadata block.
	check("A10", "Test Information")
	check("B11", "2026-08-30T12:00:00Z")
	check("B12", "test-run")
	check("B13", "10")
}

// TestWriteXLSXNoComparison checks a report is still emitted when every
// request failed and no statistics exist.
func TestWriteXLSXNoComparison(t *testing.T) {
	chdir(t, t.TempDir())
	meta := Meta{UUID: "test-run", Timestamp: time.Now(), TotalRequests: 10}
	path, err := WriteXLSX(nil, nil, nil, meta)
	if err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("report file missing: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reading report back: %v", err)
	}
	defer f.Close()
	got, err := f.GetCellValue(sheetName, "B2")
	if err != nil {
		t.Fatalf("reading B2: %v", err)
	}
	if got != "n/a" {
		t.Fatalf("B2: got %q, want n/a", got)
	}
	got, err = f.GetCellValue(sheetName, "B13")
	if err != nil {
		t.Fatalf("reading B13: %v", err)
	}
	if got != "10" {
		t.Fatalf("total requests: got %q, want 10", got)
	}
}

// TestWriteXLSXBlockedDir checks the write fails when the results directory
// cannot be created.
func TestWriteXLSXBlockedDir(t *testing.T) {
	chdir(t, t.TempDir())
	if err := os.WriteFile(resultsDir, []byte("in the way"), 0o644); err != nil {
		t.Fatalf("blocking results directory: %v", err)
	}
	a, b := summariesForTest(t)
	rows, err := results.Compare(a, b)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	meta := Meta{UUID: "test-run", Timestamp: time.Now(), TotalRequests: 10}
	if _, err := WriteXLSX(a, b, rows, meta); err == nil {
		t.Fatal("WriteXLSX should have failed with the results directory blocked")
	}
}

// TestFallbackToConsole checks a failed report write still puts the
// statistics in front of the user on stdout.
func TestFallbackToConsole(t *testing.T) {
	a, b := summariesForTest(t)

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	stdout := os.Stdout
	os.Stdout = w
	FallbackToConsole(fmt.Errorf("failed to create results directory"), a, b)
	w.Close()
	os.Stdout = stdout

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading console output: %v", err)
	}
	for _, want := range []string{"Bedrock", "Anthropic", "150.00", "100.00"} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("console output missing %q:\n%s", want, out)
		}
	}
}

// TestWriteCSVResult checks the CSV archive round trip.
func TestWriteCSVResult(t *testing.T) {
	chdir(t, t.TempDir())
	a, b := summariesForTest(t)
	meta := Meta{UUID: "test-run", Timestamp: time.Now(), TotalRequests: 10}
	path, err := WriteCSVResult(meta, a, b)
	if err != nil {
		t.Fatalf("WriteCSVResult failed: %v", err)
	}
	fp, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer fp.Close()
	records, err := csv.NewReader(fp).ReadAll()
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus two rows, got %d records", len(records))
	}
	if records[0][0] != "Path" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][0] != "bedrock" || records[1][2] != "150.00" {
		t.Fatalf("unexpected gateway row: %v", records[1])
	}
	if records[2][0] != "anthropic" || records[2][2] != "100.00" {
		t.Fatalf("unexpected direct row: %v", records[2])
	}
}

// TestWriteCSVResultSkipsNil checks unavailable summaries are left out.
func TestWriteCSVResultSkipsNil(t *testing.T) {
	chdir(t, t.TempDir())
	a, _ := summariesForTest(t)
	meta := Meta{UUID: "test-run", Timestamp: time.Now(), TotalRequests: 10}
	path, err := WriteCSVResult(meta, a, nil)
	if err != nil {
		t.Fatalf("WriteCSVResult failed: %v", err)
	}
	fp, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer fp.Close()
	records, err := csv.NewReader(fp).ReadAll()
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus one row, got %d records", len(records))
	}
}

// TestBuildDocsEmpty checks the no-documents error path.
func TestBuildDocsEmpty(t *testing.T) {
	meta := Meta{UUID: "test-run", Timestamp: time.Now()}
	if _, err := BuildDocs(meta, nil, nil); err == nil {
		t.Fatal("BuildDocs should have failed with no summaries")
	}
}

// TestBuildDocs checks the document carries the summary values.
func TestBuildDocs(t *testing.T) {
	a, _ := summariesForTest(t)
	meta := Meta{UUID: "test-run", Timestamp: time.Now()}
	docs, err := BuildDocs(meta, a, nil)
	if err != nil {
		t.Fatalf("BuildDocs failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}
	doc, ok := docs[0].(Doc)
	if !ok {
		t.Fatal("unexpected document type")
	}
	if doc.Path != "bedrock" || doc.AvgLatency != 150 || doc.SuccessfulRequests != 5 {
		t.Fatalf("unexpected document: %+v", doc)
	}
}
