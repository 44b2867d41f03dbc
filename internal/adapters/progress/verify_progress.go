package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// VerifyProgress implements progress reporting for contract verification
type VerifyProgress struct {
	out         io.Writer
	interactive bool
	spinner     *SpinnerProgressReporter
	startTime   time.Time
}

// NewVerifyProgress creates a new verification progress reporter
func NewVerifyProgress(out io.Writer, interactive bool) *VerifyProgress {
	return &VerifyProgress{
		out:         out,
		interactive: interactive,
		spinner:     NewSpinnerProgressReporterTo(out),
		startTime:   time.Now(),
	}
}

// OnProgress handles progress events
func (v *VerifyProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if !v.interactive {
		if event.Stage == "verifying" && event.Total > 0 {
			fmt.Fprintf(v.out, "📝 [%d/%d] %s\n", event.Current, event.Total, event.Message)
		}
		return
	}

	switch event.Stage {
	case "verify_completed":
		v.spinner.Stop()
		duration := time.Since(v.startTime)
		color.New(color.FgGreen).Fprintf(v.out, "✅ Verification finished in %s\n\n", duration.Round(time.Millisecond))
	default:
		v.spinner.OnProgress(ctx, event)
	}
}

// Info prints an info message
func (v *VerifyProgress) Info(message string) {
	v.spinner.Info("ℹ️  " + message)
}

// Error prints an error message
func (v *VerifyProgress) Error(message string) {
	v.spinner.Error("❌ " + message)
}

// Ensure it implements the interface
var _ usecase.ProgressSink = (*VerifyProgress)(nil)
