package usecase

import (
	"context"

	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
)

// ShowPlanParams contains parameters for showing a plan
type ShowPlanParams struct {
	PlanPath string
	Network  string // optional, enables the contract size check
}

// ShowPlanResult contains the plan and every validation issue found
type ShowPlanResult struct {
	Plan    *models.Plan
	Profile *config.NetworkProfile
	Issues  []*domain.StepError
}

// Valid reports whether the plan passed pre-flight validation
func (r *ShowPlanResult) Valid() bool {
	return len(r.Issues) == 0
}

// ShowPlan loads and validates a plan without touching the network
type ShowPlan struct {
	plans     PlanLoader
	profiles  ProfileResolver
	validator *ValidatePlan
}

// NewShowPlan creates a new ShowPlan use case
func NewShowPlan(plans PlanLoader, profiles ProfileResolver, validator *ValidatePlan) *ShowPlan {
	return &ShowPlan{
		plans:     plans,
		profiles:  profiles,
		validator: validator,
	}
}

// Run executes the use case
func (uc *ShowPlan) Run(ctx context.Context, params ShowPlanParams) (*ShowPlanResult, error) {
	plan, err := uc.plans.Load(ctx, params.PlanPath)
	if err != nil {
		return nil, err
	}

	result := &ShowPlanResult{Plan: plan}
	if params.Network != "" {
		profile, err := uc.profiles.Resolve(ctx, params.Network)
		if err != nil {
			return nil, err
		}
		result.Profile = profile
	}

	result.Issues = uc.validator.Check(ctx, plan, result.Profile)
	return result, nil
}
