package progress

import (
	"context"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// VerifyProgress implements progress reporting for contract verification
type VerifyProgress struct {
	line      *spinnerLine
	startTime time.Time
}

// NewVerifyProgress creates a new verification progress reporter
func NewVerifyProgress(out io.Writer, interactive bool) *VerifyProgress {
	return &VerifyProgress{
		line:      newSpinnerLine(out, interactive),
		startTime: time.Now(),
	}
}

// OnProgress handles progress events
func (v *VerifyProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	switch event.Stage {
	case usecase.StageVerifying:
		v.startTime = time.Now()
		v.line.spin(event.Message)
	case usecase.StageVerified:
		v.line.stop()
		duration := time.Since(v.startTime)
		v.line.println(color.New(color.Faint), "Verification finished in "+duration.Round(time.Millisecond).String())
	}
}

// Info prints an info message
func (v *VerifyProgress) Info(message string) {
	v.line.println(infoColor, message)
}

// Error prints an error message
func (v *VerifyProgress) Error(message string) {
	v.line.println(failColor, message)
}

// Ensure it implements the interface
var _ usecase.ProgressSink = (*VerifyProgress)(nil)
