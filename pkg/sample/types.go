package sample

import "time"

// ProbeRun describes the values we will return with each probe run.
type ProbeRun struct {
	Path      string
	ModelID   string
	Samples   []float64 // round-trip latency per request, milliseconds
	Failures  int
	StartTime time.Time
	EndTime   time.Time
}

// Attempts returns the total number of requests issued, successful or not.
func (p ProbeRun) Attempts() int {
	return len(p.Samples) + p.Failures
}
