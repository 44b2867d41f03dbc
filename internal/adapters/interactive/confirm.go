package interactive

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// ConfirmAdapter asks the operator before live submissions
type ConfirmAdapter struct {
	config *config.RuntimeConfig
	run    func(prompt *promptui.Prompt) (string, error)
}

// NewConfirmAdapter creates a new confirm adapter
func NewConfirmAdapter(cfg *config.RuntimeConfig) *ConfirmAdapter {
	return &ConfirmAdapter{
		config: cfg,
		run:    func(p *promptui.Prompt) (string, error) { return p.Run() },
	}
}

// ConfirmDeployment returns true when the operator accepts.
// Non-interactive runs proceed; scripted callers opt in by running non-interactively.
func (c *ConfirmAdapter) ConfirmDeployment(ctx context.Context, profile *config.NetworkProfile, plan *models.Plan) (bool, error) {
	if c.config.NonInteractive {
		return true, nil
	}

	label := fmt.Sprintf("Deploy %d contract(s) and run %d action(s) on %s",
		len(plan.Steps), len(plan.Actions), color.New(color.FgRed, color.Bold).Sprint(profile.Name))

	prompt := &promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	_, err := c.run(prompt)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort), errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return false, nil
	default:
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
}

var _ usecase.DeployConfirmer = (*ConfirmAdapter)(nil)
