package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
)

// placeholderAddress stands in for not-yet-deployed contracts during validation
var placeholderAddress = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

// ValidatePlan checks a plan against the artifacts before anything is submitted
type ValidatePlan struct {
	artifacts ArtifactRepository
}

// NewValidatePlan creates a new plan validator
func NewValidatePlan(artifacts ArtifactRepository) *ValidatePlan {
	return &ValidatePlan{artifacts: artifacts}
}

// Validate returns the first problem found, or nil
func (v *ValidatePlan) Validate(ctx context.Context, plan *models.Plan, profile *config.NetworkProfile) error {
	if issues := v.Check(ctx, plan, profile); len(issues) > 0 {
		return issues[0]
	}
	return nil
}

// Check returns every problem in declaration order. A nil profile skips the size check.
func (v *ValidatePlan) Check(ctx context.Context, plan *models.Plan, profile *config.NetworkProfile) []*domain.StepError {
	var issues []*domain.StepError

	if len(plan.Steps) == 0 {
		return []*domain.StepError{{
			Phase: domain.PhaseDeploy,
			Name:  plan.Name,
			Err:   fmt.Errorf("%w: plan has no deployment steps", domain.ErrInvalidPlan),
		}}
	}

	seen := make(map[string]bool, len(plan.Steps))
	for i, step := range plan.Steps {
		if err := v.checkStep(ctx, step, seen, profile); err != nil {
			issues = append(issues, &domain.StepError{Phase: domain.PhaseDeploy, Index: i + 1, Name: stepLabel(step.Name, i), Err: err})
		}
		if step.Name != "" {
			seen[step.Name] = true
		}
	}

	for i, action := range plan.Actions {
		if err := v.checkAction(ctx, plan, action, seen); err != nil {
			issues = append(issues, &domain.StepError{Phase: domain.PhaseAction, Index: i + 1, Name: stepLabel(action.Name, i), Err: err})
		}
	}

	return issues
}

func (v *ValidatePlan) checkStep(ctx context.Context, step models.DeploymentStep, seen map[string]bool, profile *config.NetworkProfile) error {
	if step.Name == "" {
		return fmt.Errorf("%w: step has no name", domain.ErrInvalidPlan)
	}
	if seen[step.Name] {
		return fmt.Errorf("%w: duplicate step name '%s'", domain.ErrInvalidPlan, step.Name)
	}
	if step.Contract == "" {
		return fmt.Errorf("%w: step has no contract", domain.ErrInvalidPlan)
	}

	// References must point to strictly earlier steps
	for _, arg := range step.Args {
		for _, ref := range arg.References() {
			if !seen[ref] {
				return fmt.Errorf("%w: '%s' is not deployed before '%s'", domain.ErrDanglingReference, ref, step.Name)
			}
		}
	}

	artifact, err := v.artifacts.GetArtifact(ctx, step.Contract)
	if err != nil {
		return err
	}
	if artifact.Bytecode.Empty() {
		return fmt.Errorf("%w: %s has no creation bytecode (abstract contract or interface?)", domain.ErrArtifactNotFound, step.Contract)
	}
	if _, err := artifact.Bytecode.Bytes(); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidPlan, step.Contract, err)
	}

	parsed, err := parseABI(artifact)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrArgumentMismatch, err)
	}
	values, err := resolveArgs(step.Args, placeholder)
	if err != nil {
		return err
	}
	if _, err := packArguments(parsed.Constructor.Inputs, values); err != nil {
		return fmt.Errorf("constructor of %s: %w", step.Contract, err)
	}

	if profile != nil && !profile.Unbounded() {
		if size := artifact.RuntimeSize(); size > profile.MaxContractSize {
			return fmt.Errorf("%w: %s is %d bytes, profile '%s' allows %d",
				domain.ErrContractTooLarge, step.Contract, size, profile.Name, profile.MaxContractSize)
		}
	}

	return nil
}

func (v *ValidatePlan) checkAction(ctx context.Context, plan *models.Plan, action models.PostDeployAction, deployed map[string]bool) error {
	if action.Method == "" {
		return fmt.Errorf("%w: action has no method", domain.ErrInvalidPlan)
	}
	if !deployed[action.Target] {
		return fmt.Errorf("%w: target '%s' is not a deployment step", domain.ErrDanglingReference, action.Target)
	}
	for _, arg := range action.Args {
		for _, ref := range arg.References() {
			if !deployed[ref] {
				return fmt.Errorf("%w: '%s' is not a deployment step", domain.ErrDanglingReference, ref)
			}
		}
	}

	step := plan.Steps[plan.StepIndex(action.Target)]
	artifact, err := v.artifacts.GetArtifact(ctx, step.Contract)
	if err != nil {
		return err
	}
	parsed, err := parseABI(artifact)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrArgumentMismatch, err)
	}
	method, ok := parsed.Methods[action.Method]
	if !ok {
		return fmt.Errorf("%w: %s has no method %s", domain.ErrArgumentMismatch, step.Contract, action.Method)
	}

	values, err := resolveArgs(action.Args, placeholder)
	if err != nil {
		return err
	}
	if _, err := packArguments(method.Inputs, values); err != nil {
		return fmt.Errorf("%s.%s: %w", step.Contract, action.Method, err)
	}
	return nil
}

func placeholder(string) (common.Address, bool) {
	return placeholderAddress, true
}

func stepLabel(name string, i int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", i+1)
}
