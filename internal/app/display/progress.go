package display

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"upload-ai/internal/app/pipeline"
)

const barTotal = 100

type ProgressConfig struct {
	Enabled bool
	Writer  io.Writer
}

// ProgressManager renders runs as terminal progress bars.
type ProgressManager struct {
	container *mpb.Progress
	enabled   bool
	mu        sync.Mutex
}

// RunBar shows one run: its current stage and the transcoding percentage.
type RunBar struct {
	bar     *mpb.Bar
	enabled bool

	mu    sync.Mutex
	stage pipeline.Stage
}

func NewProgressManager(config ProgressConfig) *ProgressManager {
	if !config.Enabled {
		return &ProgressManager{enabled: false}
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	// mpb stops refreshing on non-terminal writers unless asked to.
	container := mpb.New(
		mpb.WithOutput(writer),
		mpb.WithAutoRefresh(),
		mpb.WithRefreshRate(120*time.Millisecond),
		mpb.WithWaitGroup(&sync.WaitGroup{}),
	)

	return &ProgressManager{
		container: container,
		enabled:   true,
	}
}

func (pm *ProgressManager) CreateBar(description string) *RunBar {
	rb := &RunBar{stage: pipeline.Waiting}
	if !pm.enabled || pm.container == nil {
		return rb
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	rb.bar = pm.container.AddBar(barTotal,
		mpb.PrependDecorators(
			decor.Name(description+" ", decor.WC{W: len(description) + 1, C: decor.DindentRight}),
			decor.Any(func(decor.Statistics) string { return rb.Stage().String() }, decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.NewPercentage("%.1f", decor.WCSyncSpace),
			decor.OnComplete(
				decor.AverageETA(decor.ET_STYLE_GO, decor.WCSyncWidth), " ✓ ",
			),
		),
	)
	rb.enabled = true
	return rb
}

// Stage returns the last stage shown.
func (rb *RunBar) Stage() pipeline.Stage {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.stage
}

func (rb *RunBar) SetStage(stage pipeline.Stage) {
	rb.mu.Lock()
	rb.stage = stage
	rb.mu.Unlock()

	if !rb.enabled || rb.bar == nil {
		return
	}
	switch {
	case stage == pipeline.Success:
		rb.bar.SetCurrent(barTotal)
		rb.bar.SetTotal(barTotal, true)
	case stage.IsTerminal():
		rb.bar.Abort(false)
	}
}

// SetFraction moves the bar to fraction of the transcoding work.
func (rb *RunBar) SetFraction(fraction float64) {
	if rb.enabled && rb.bar != nil {
		rb.bar.SetCurrent(int64(fraction * barTotal))
	}
}

// Follow renders run until it reaches a terminal stage or ctx is done and returns the last
// stage seen.
func (pm *ProgressManager) Follow(ctx context.Context, run *pipeline.Run) pipeline.Stage {
	rb := pm.CreateBar(FormatProgressDescription("Ingesting", run.Source().Describe()))
	stages := run.Observe(ctx)
	feed := run.Feed()
	feedDone := feed.Done()

	for {
		select {
		case stage, ok := <-stages:
			if !ok {
				return rb.Stage()
			}
			rb.SetStage(stage)
		case <-feed.Changed():
			rb.SetFraction(feed.Latest().FractionComplete)
		case <-feedDone:
			rb.SetFraction(feed.Latest().FractionComplete)
			feedDone = nil
		}
	}
}

func (pm *ProgressManager) Wait() {
	if pm.enabled && pm.container != nil {
		pm.container.Wait()
	}
}

// Shutdown aborts any bar still rendering and stops the container.
func (pm *ProgressManager) Shutdown() {
	if pm.enabled && pm.container != nil {
		pm.container.Shutdown()
	}
}

func IsTTY(writer io.Writer) bool {
	if writer == nil {
		return false
	}

	if file, ok := writer.(*os.File); ok {
		fd := file.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return false
}

func ShouldShowProgress(forced bool) bool {
	if forced {
		return true
	}

	return IsTTY(os.Stderr)
}

func FormatProgressDescription(action string, subject string) string {
	if subject != "" {
		return fmt.Sprintf("%s (%s)", action, subject)
	}
	return action
}
