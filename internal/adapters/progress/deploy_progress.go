package progress

import (
	"context"

	"github.com/trebuchet-org/vault-deployer/internal/cli/render"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// DeployProgress renders deployment progress as it happens
type DeployProgress struct {
	renderer *render.DeployRenderer
	spinner  *SpinnerProgressReporter

	planRendered bool
}

// NewDeployProgress creates a new deploy progress reporter
func NewDeployProgress(renderer *render.DeployRenderer) *DeployProgress {
	return &DeployProgress{
		renderer: renderer,
		spinner:  NewSpinnerProgressReporter(),
	}
}

// OnProgress handles progress events for deploy runs
func (p *DeployProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	switch event.Stage {
	case usecase.StagePlanCreated:
		if result, ok := event.Metadata.(*usecase.DeployPlanResult); ok && !p.planRendered {
			p.renderer.RenderPlan(result)
			p.planRendered = true
		}

	case usecase.StageStepConfirmed, usecase.StageStepReused:
		p.spinner.Stop()
		if step, ok := event.Metadata.(*usecase.StepProgress); ok {
			p.renderer.RenderStep(step)
		}

	case usecase.StageActionConfirmed:
		p.spinner.Stop()
		if step, ok := event.Metadata.(*usecase.StepProgress); ok {
			p.renderer.RenderAction(step)
		}

	case usecase.StageDeployCompleted, usecase.StageDeployFailed:
		// Final summary is rendered by the CLI command after Run returns
		p.spinner.Stop()

	default:
		p.spinner.OnProgress(ctx, event)
	}
}

// Info forwards info messages to the spinner
func (p *DeployProgress) Info(message string) {
	p.spinner.Info(message)
}

// Error forwards error messages to the spinner
func (p *DeployProgress) Error(message string) {
	p.spinner.Error(message)
}

var _ usecase.ProgressSink = (*DeployProgress)(nil)
