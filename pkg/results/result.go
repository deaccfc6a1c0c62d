package results

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	moremath "github.com/aclements/go-moremath/stats"
	stats "github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	log "github.com/perfscale/llm-apiperf/pkg/logging"
	"github.com/perfscale/llm-apiperf/pkg/sample"
)

// Specify Language specific case wrapper as global variable
var caser = cases.Title(language.English)

// ErrNoSamples reports an aggregation over a probe run with no successful
// requests. Callers branch on it; it is a reported outcome, not a crash.
var ErrNoSamples = errors.New("no successful requests to calculate latency")

// Summary is the immutable aggregate of one probe run.
type Summary struct {
	Path      string
	ModelID   string
	Avg       float64
	Min       float64
	Max       float64
	Median    float64
	P95       float64
	CILow     float64
	CIHigh    float64
	Successes int
	Failures  int
}

// Row is one metric of a side-by-side comparison.
type Row struct {
	Metric string
	A      float64
	B      float64
	Diff   float64
	Pct    float64
}

var metricNames = []string{
	"Average Latency (ms)",
	"Minimum Latency (ms)",
	"Maximum Latency (ms)",
	"Median Latency (ms)",
	"P95 Latency (ms)",
	"Successful Requests",
	"Failed Requests",
}

// MetricNames returns the compared metrics in report order.
func MetricNames() []string {
	return append([]string(nil), metricNames...)
}

// Values returns a Summary's metrics in report order.
func Values(s *Summary) []float64 {
	return []float64{s.Avg, s.Min, s.Max, s.Median, s.P95, float64(s.Successes), float64(s.Failures)}
}

// Aggregate derives a Summary from a probe run. A run with no successful
// requests yields ErrNoSamples instead of a numeric result. The sample
// slice is never mutated.
func Aggregate(run sample.ProbeRun) (*Summary, error) {
	if len(run.Samples) < 1 {
		return nil, ErrNoSamples
	}
	avg, _ := stats.Mean(run.Samples)
	min, _ := stats.Min(run.Samples)
	max, _ := stats.Max(run.Samples)
	median, _ := stats.Median(run.Samples)
	s := &Summary{
		Path:      run.Path,
		ModelID:   run.ModelID,
		Avg:       avg,
		Min:       min,
		Max:       max,
		Median:    median,
		P95:       nearestRank(run.Samples, 0.95),
		Successes: len(run.Samples),
		Failures:  run.Failures,
	}
	if s.Successes > 1 {
		_, s.CILow, s.CIHigh = ConfidenceInterval(run.Samples, 0.95)
	}
	return s, nil
}

// nearestRank returns the value at index floor(ptile*len) of the ascending
// sort. The stats.Percentile helper interpolates between ranks, which moves
// the boundary cases: ten samples at the 95th yield the maximum here, not a
// blend of the top two.
func nearestRank(vals []float64, ptile float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)) * ptile)
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// ConfidenceInterval accepts array of floats and the desired interval width
func ConfidenceInterval(vals []float64, ci float64) (float64, float64, float64) {
	return moremath.MeanCI(vals, ci)
}

// Compare builds per-metric comparison rows between the gateway path (A)
// and the direct path (B). A zero direct-path value turns the percentage
// into +Inf, the division-by-zero sentinel.
func Compare(a *Summary, b *Summary) ([]Row, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("cannot compare methods due to missing statistics")
	}
	av := Values(a)
	bv := Values(b)
	rows := make([]Row, 0, len(metricNames))
	for i, name := range metricNames {
		diff := av[i] - bv[i]
		pct := math.Inf(1)
		if bv[i] != 0 {
			pct = diff / bv[i] * 100
		}
		rows = append(rows, Row{Metric: name, A: av[i], B: bv[i], Diff: diff, Pct: pct})
	}
	return rows, nil
}

// DisplayName renders a driver name for table headers.
func DisplayName(path string) string {
	return caser.String(path)
}

// Method to init common table structure.
func initTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	return table
}

// ShowSummary presents per-path aggregates to the user via stdout. Nil
// summaries (runs with no data) are skipped.
func ShowSummary(summaries ...*Summary) {
	log.Debug("Rendering latency summaries")
	table := initTable([]string{"Path", "Model", "Samples", "Avg (ms)", "Min (ms)", "Max (ms)", "Median (ms)", "P95 (ms)", "95% Confidence Interval", "Failed"})
	for _, s := range summaries {
		if s == nil {
			continue
		}
		table.Append([]string{
			fmt.Sprintf("📊 %s", DisplayName(s.Path)),
			s.ModelID,
			strconv.Itoa(s.Successes),
			fmt.Sprintf("%.2f", s.Avg),
			fmt.Sprintf("%.2f", s.Min),
			fmt.Sprintf("%.2f", s.Max),
			fmt.Sprintf("%.2f", s.Median),
			fmt.Sprintf("%.2f", s.P95),
			fmt.Sprintf("%.2f-%.2f", s.CILow, s.CIHigh),
			strconv.Itoa(s.Failures),
		})
	}
	table.Render()
}

// ShowComparison presents the side-by-side comparison via stdout.
func ShowComparison(a *Summary, b *Summary, rows []Row) {
	log.Debug("Rendering comparison results")
	table := initTable([]string{"Metric", DisplayName(a.Path), DisplayName(b.Path), "Difference", "Percentage Change"})
	for _, r := range rows {
		table.Append([]string{
			r.Metric,
			fmt.Sprintf("%.2f", r.A),
			fmt.Sprintf("%.2f", r.B),
			fmt.Sprintf("%+.2f", r.Diff),
			fmt.Sprintf("%+.2f%%", r.Pct),
		})
	}
	table.Render()
}
