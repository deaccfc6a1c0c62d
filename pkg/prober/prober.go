package prober

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/perfscale/llm-apiperf/pkg/drivers"
	log "github.com/perfscale/llm-apiperf/pkg/logging"
	"github.com/perfscale/llm-apiperf/pkg/sample"
)

// Run issues iterations sequential completion requests against the driver,
// timing each round trip. Failed requests are counted and logged but never
// abort the run. The pause between attempts is unconditional so the backend
// is never hammered, even when it is erroring.
func Run(ctx context.Context, d drivers.Driver, prompt string, iterations int, interval time.Duration, showProgress bool) sample.ProbeRun {
	run := sample.ProbeRun{
		Path:      d.Name(),
		ModelID:   d.ModelID(),
		StartTime: time.Now(),
	}
	log.Infof("🚀 Starting %s latency test", d.Name())
	log.Infof("Model ID: %s", d.ModelID())
	log.Infof("Iterations: %d", iterations)

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = newBar(d.Name(), iterations)
	}
	for i := 0; i < iterations; i++ {
		start := time.Now()
		err := d.Invoke(ctx, prompt)
		elapsed := time.Since(start).Seconds() * 1000
		if err != nil {
			run.Failures++
			log.Errorf("Error in request %d: %v", i+1, err)
		} else {
			run.Samples = append(run.Samples, elapsed)
			log.Infof("Request %d: %.2f ms", i+1, elapsed)
		}
		if bar != nil {
			bar.Add(1)
		}
		if i < iterations-1 {
			pause(ctx, interval)
		}
	}
	if bar != nil {
		bar.Finish()
		bar.Clear()
		bar.Close()
	}
	run.EndTime = time.Now()
	return run
}

func newBar(name string, iterations int) *progressbar.ProgressBar {
	return progressbar.NewOptions(iterations,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("Probing %s", name)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// pause waits for the inter-request interval, returning early on cancel.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
