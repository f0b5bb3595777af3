package progress

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

var (
	startColor   = color.New(color.Faint)
	retryColor   = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed)
	infoColor    = color.New(color.FgCyan)
)

// DeployProgress renders per-component progress of a deployment run.
// Workers report concurrently, so the spinner shows every component that
// is waiting on the network at once.
type DeployProgress struct {
	mu       sync.Mutex
	line     *spinnerLine
	inflight map[string]string // component -> latest waiting message
}

// NewDeployProgress creates a deploy progress reporter writing to out
func NewDeployProgress(out io.Writer, interactive bool) *DeployProgress {
	return &DeployProgress{
		line:     newSpinnerLine(out, interactive),
		inflight: make(map[string]string),
	}
}

// OnProgress handles progress events from the orchestrator and executor
func (p *DeployProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Stage {
	case usecase.StageComponentStarting:
		p.line.println(startColor, fmt.Sprintf("[%d/%d] %s", event.Current, event.Total, event.Message))
	case usecase.StageComponentSubmitted:
		p.inflight[event.Component] = event.Message
		p.line.spin(p.suffix())
	case usecase.StageComponentRetrying:
		p.line.println(retryColor, "↻ "+event.Message)
		p.inflight[event.Component] = event.Message
	case usecase.StageComponentCompleted:
		delete(p.inflight, event.Component)
		p.line.println(successColor, "✓ "+event.Message)
		p.refresh()
	case usecase.StageComponentFailed:
		delete(p.inflight, event.Component)
		p.line.println(failColor, "✗ "+event.Message)
		p.refresh()
	case usecase.StageDeployCompleted:
		clear(p.inflight)
		p.line.stop()
	}
}

// refresh redraws or stops the spinner after a component left the in-flight set
func (p *DeployProgress) refresh() {
	if len(p.inflight) == 0 {
		p.line.stop()
		return
	}
	if p.line.interactive {
		p.line.spin(p.suffix())
	}
}

func (p *DeployProgress) suffix() string {
	names := make([]string, 0, len(p.inflight))
	for name := range p.inflight {
		names = append(names, name)
	}
	slices.Sort(names)
	if len(names) == 1 {
		return p.inflight[names[0]]
	}
	return "Waiting for " + strings.Join(names, ", ")
}

// Info prints an info message
func (p *DeployProgress) Info(message string) {
	p.line.println(infoColor, message)
}

// Error prints an error message
func (p *DeployProgress) Error(message string) {
	p.line.println(failColor, message)
}

var _ usecase.ProgressSink = (*DeployProgress)(nil)
