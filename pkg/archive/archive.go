package archive

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	log "github.com/perfscale/llm-apiperf/pkg/logging"
	"github.com/perfscale/llm-apiperf/pkg/results"
)

const (
	resultsDir = "benchmark_results"
	sheetName  = "Benchmark Results"
	timeLayout = "20060102_150405"
)

// Meta records run-level facts stamped on every artifact.
type Meta struct {
	UUID          string
	Timestamp     time.Time
	TotalRequests int
}

// Doc struct of the JSON document emitted per probe run
type Doc struct {
	UUID               string    `json:"uuid"`
	Timestamp          time.Time `json:"timestamp"`
	Path               string    `json:"path"`
	ModelID            string    `json:"modelId"`
	AvgLatency         float64   `json:"avgLatency"`
	MinLatency         float64   `json:"minLatency"`
	MaxLatency         float64   `json:"maxLatency"`
	MedianLatency      float64   `json:"medianLatency"`
	P95Latency         float64   `json:"p95Latency"`
	LtcyMetric         string    `json:"ltcyMetric"`
	SuccessfulRequests int       `json:"successfulRequests"`
	FailedRequests     int       `json:"failedRequests"`
	Confidence         []float64 `json:"confidence"`
}

// BuildDocs returns the documents to be serialized or an error.
func BuildDocs(meta Meta, summaries ...*results.Summary) ([]interface{}, error) {
	var docs []interface{}
	for _, s := range summaries {
		if s == nil {
			continue
		}
		docs = append(docs, Doc{
			UUID:               meta.UUID,
			Timestamp:          meta.Timestamp.UTC(),
			Path:               s.Path,
			ModelID:            s.ModelID,
			AvgLatency:         s.Avg,
			MinLatency:         s.Min,
			MaxLatency:         s.Max,
			MedianLatency:      s.Median,
			P95Latency:         s.P95,
			LtcyMetric:         "ms",
			SuccessfulRequests: s.Successes,
			FailedRequests:     s.Failures,
			Confidence:         []float64{s.CILow, s.CIHigh},
		})
	}
	if len(docs) < 1 {
		return nil, fmt.Errorf("no result documents")
	}
	return docs, nil
}

// WriteJSONResult sends the results as JSON to stdout
func WriteJSONResult(meta Meta, summaries ...*results.Summary) error {
	docs, err := BuildDocs(meta, summaries...)
	if err != nil {
		return err
	}
	p, err := json.MarshalIndent(docs, " ", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(p))
	return nil
}

// WriteCSVResult writes the per-path summaries to a timestamped CSV file
// under the results directory. Returns the path of the written file.
func WriteCSVResult(meta Meta, summaries ...*results.Summary) (string, error) {
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %v", err)
	}
	name := filepath.Join(resultsDir, fmt.Sprintf("latency-result-%d.csv", meta.Timestamp.Unix()))
	fp, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("failed to open archive file")
	}
	defer fp.Close()
	archive := csv.NewWriter(fp)
	defer archive.Flush()

	header := []string{
		"Path",
		"Model",
		"Avg Latency (ms)",
		"Min Latency (ms)",
		"Max Latency (ms)",
		"Median Latency (ms)",
		"P95 Latency (ms)",
		"Confidence metric - low",
		"Confidence metric - high",
		"Successful Requests",
		"Failed Requests",
	}
	if err := archive.Write(header); err != nil {
		return "", fmt.Errorf("failed to write result archive to file")
	}
	for _, s := range summaries {
		if s == nil {
			continue
		}
		row := []string{
			s.Path,
			s.ModelID,
			fmt.Sprintf("%.2f", s.Avg),
			fmt.Sprintf("%.2f", s.Min),
			fmt.Sprintf("%.2f", s.Max),
			fmt.Sprintf("%.2f", s.Median),
			fmt.Sprintf("%.2f", s.P95),
			strconv.FormatFloat(s.CILow, 'f', -1, 64),
			strconv.FormatFloat(s.CIHigh, 'f', -1, 64),
			strconv.Itoa(s.Successes),
			strconv.Itoa(s.Failures),
		}
		if err := archive.Write(row); err != nil {
			return "", fmt.Errorf("failed to write archive to file")
		}
	}
	return name, nil
}

// WriteXLSX renders the comparison into a styled workbook under the results
// directory, named with the run timestamp. When no comparison was possible
// the data cells carry "n/a" and the metadata block still records the run,
// so an all-failures run leaves an artifact behind. Returns the path of the
// written file.
func WriteXLSX(a *results.Summary, b *results.Summary, rows []results.Row, meta Meta) (string, error) {
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %v", err)
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorder(),
	})
	if err != nil {
		return "", err
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Border: thinBorder()})
	if err != nil {
		return "", err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", err
	}

	header := []string{"Metric", pathHeader(a, "Bedrock"), pathHeader(b, "Anthropic"), "Difference", "Percentage Change"}
	for col, h := range header {
		setCell(f, col+1, 1, h)
	}
	f.SetCellStyle(sheetName, "A1", "E1", headerStyle)

	names := results.MetricNames()
	for i, name := range names {
		row := i + 2
		setCell(f, 1, row, name)
		if rows != nil {
			setCell(f, 2, row, fmt.Sprintf("%.2f", rows[i].A))
			setCell(f, 3, row, fmt.Sprintf("%.2f", rows[i].B))
			setCell(f, 4, row, fmt.Sprintf("%+.2f", rows[i].Diff))
			setCell(f, 5, row, fmt.Sprintf("%+.2f%%", rows[i].Pct))
		} else {
			setCell(f, 2, row, valueOrNA(a, i))
			setCell(f, 3, row, valueOrNA(b, i))
			setCell(f, 4, row, "n/a")
			setCell(f, 5, row, "n/a")
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, 2)
	last, _ := excelize.CoordinatesToCellName(5, len(names)+1)
	f.SetCellStyle(sheetName, first, last, cellStyle)

	// Metadata block, two rows below the table.
	metaRow := len(names) + 3
	setCell(f, 1, metaRow, "Test Information")
	info, _ := excelize.CoordinatesToCellName(1, metaRow)
	f.SetCellStyle(sheetName, info, info, boldStyle)
	setCell(f, 1, metaRow+1, "Timestamp")
	setCell(f, 2, metaRow+1, meta.Timestamp.Format(time.RFC3339))
	setCell(f, 1, metaRow+2, "Run ID")
	setCell(f, 2, metaRow+2, meta.UUID)
	setCell(f, 1, metaRow+3, "Total Requests")
	setCell(f, 2, metaRow+3, meta.TotalRequests)

	f.SetColWidth(sheetName, "A", "E", 20)

	name := filepath.Join(resultsDir, fmt.Sprintf("benchmark_results_%s.xlsx", meta.Timestamp.Format(timeLayout)))
	if err := f.SaveAs(name); err != nil {
		return "", err
	}
	return name, nil
}

// FallbackToConsole is the degraded path for report-write failures: the raw
// statistics still reach the user via stdout.
func FallbackToConsole(err error, summaries ...*results.Summary) {
	log.Errorf("Error saving report: %v", err)
	log.Warn("Falling back to console output")
	results.ShowSummary(summaries...)
}

func setCell(f *excelize.File, col, row int, value interface{}) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return
	}
	f.SetCellValue(sheetName, cell, value)
}

func valueOrNA(s *results.Summary, metric int) string {
	if s == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", results.Values(s)[metric])
}

func pathHeader(s *results.Summary, fallback string) string {
	if s == nil {
		return fallback
	}
	return results.DisplayName(s.Path)
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}
