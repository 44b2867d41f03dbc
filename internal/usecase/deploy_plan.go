package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
)

// DeployState is the orchestrator's position within a run
type DeployState string

const (
	StateIdle               DeployState = "idle"
	StateProfileResolved    DeployState = "profile_resolved"
	StateStepSubmitted      DeployState = "step_submitted"
	StateStepConfirmed      DeployState = "step_confirmed"
	StateAllStepsConfirmed  DeployState = "all_steps_confirmed"
	StatePostActionsRunning DeployState = "post_actions_running"
	StateComplete           DeployState = "complete"
	StateFailed             DeployState = "failed"
)

// Progress stages emitted by DeployPlan
const (
	StagePlanCreated     = "plan_created"
	StageStepStarting    = "step_starting"
	StageStepConfirmed   = "step_confirmed"
	StageStepReused      = "step_reused"
	StageActionStarting  = "action_starting"
	StageActionConfirmed = "action_confirmed"
	StageDeployCompleted = "deploy_completed"
	StageDeployFailed    = "deploy_failed"
)

// DeployPlanParams contains parameters for a deployment run
type DeployPlanParams struct {
	Network  string
	PlanPath string
	Resume   bool // Reuse addresses recorded by a previous failed run
	DryRun   bool // Validate and stop before connecting
	Yes      bool // Skip the operator confirmation
}

// DeployPlanResult is the observable outcome of a run
type DeployPlanResult struct {
	Profile  *config.NetworkProfile
	Plan     *models.Plan
	State    DeployState
	ChainID  uint64
	Deployer common.Address
	Deployed []*models.DeployedContract
	Actions  []*models.ActionResult
	Failure  *domain.StepError
	DryRun   bool
	Resumed  bool
}

// Success reports whether every step and action was confirmed
func (r *DeployPlanResult) Success() bool {
	return r.State == StateComplete
}

// NamedAddress is one entry of the ordered name to address mapping
type NamedAddress struct {
	Name    string         `json:"name"`
	Address common.Address `json:"address"`
}

// Addresses returns deployed addresses in plan order
func (r *DeployPlanResult) Addresses() []NamedAddress {
	out := make([]NamedAddress, len(r.Deployed))
	for i, d := range r.Deployed {
		out[i] = NamedAddress{Name: d.Name, Address: d.Address}
	}
	return out
}

// StepProgress is the metadata of step and action progress events
type StepProgress struct {
	Phase    domain.Phase
	Index    int
	Total    int
	Name     string
	Contract string
	Method   string
	Target   string
	Deployed *models.DeployedContract
	Action   *models.ActionResult
}

// DeployPlan runs a deployment plan as an explicit state machine:
// profile resolution, pre-flight validation, sequential deployments, then post-deploy actions.
// A failure stops the run; nothing is retried or rolled back.
type DeployPlan struct {
	profiles  ProfileResolver
	selector  ProfileSelector
	plans     PlanLoader
	validator *ValidatePlan
	artifacts ArtifactRepository
	connector ChainConnector
	manifests ManifestStore
	runStates RunStateStore
	confirmer DeployConfirmer
	progress  ProgressSink
	log       *slog.Logger
}

// NewDeployPlan creates a new deploy plan use case
func NewDeployPlan(
	profiles ProfileResolver,
	selector ProfileSelector,
	plans PlanLoader,
	validator *ValidatePlan,
	artifacts ArtifactRepository,
	connector ChainConnector,
	manifests ManifestStore,
	runStates RunStateStore,
	confirmer DeployConfirmer,
	progress ProgressSink,
	log *slog.Logger,
) *DeployPlan {
	return &DeployPlan{
		profiles:  profiles,
		selector:  selector,
		plans:     plans,
		validator: validator,
		artifacts: artifacts,
		connector: connector,
		manifests: manifests,
		runStates: runStates,
		confirmer: confirmer,
		progress:  progress,
		log:       log,
	}
}

// Run executes the plan. The result is returned even on failure so the
// partial address mapping can be reported.
func (uc *DeployPlan) Run(ctx context.Context, params DeployPlanParams) (*DeployPlanResult, error) {
	result := &DeployPlanResult{State: StateIdle, DryRun: params.DryRun}

	network := params.Network
	if network == "" {
		if selected, err := uc.selector.SelectProfile(ctx, uc.profiles.Profiles(ctx)); err == nil {
			network = selected
		} else {
			uc.log.Debug("no profile selected", "error", err)
		}
	}

	profile, err := uc.profiles.Resolve(ctx, network)
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	result.Profile = profile
	uc.transition(result, StateProfileResolved)

	plan, err := uc.plans.Load(ctx, params.PlanPath)
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	result.Plan = plan

	if err := uc.validator.Validate(ctx, plan, profile); err != nil {
		result.State = StateFailed
		errors.As(err, &result.Failure)
		return result, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StagePlanCreated,
		Total:    len(plan.Steps) + len(plan.Actions),
		Metadata: result,
	})

	if params.DryRun {
		return result, nil
	}

	if profile.RequireConfirmation && !params.Yes {
		ok, err := uc.confirmer.ConfirmDeployment(ctx, profile, plan)
		if err != nil {
			result.State = StateFailed
			return result, err
		}
		if !ok {
			result.State = StateFailed
			return result, fmt.Errorf("%w: not confirmed by operator", domain.ErrCancelled)
		}
	}

	session, err := uc.connector.Connect(ctx, profile)
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	defer session.Close()

	result.ChainID = session.ChainID()
	result.Deployer = session.Deployer()

	factory := NewContractFactory(uc.artifacts, session, profile, uc.log)
	deployed := make(map[string]*models.DeployedContract, len(plan.Steps))

	run := &models.RunState{
		Plan:      plan.Name,
		Network:   profile.Name,
		ChainID:   result.ChainID,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now(),
	}
	startStep, startAction := 0, 0
	if params.Resume {
		run, err = uc.restore(ctx, result, session, factory, deployed)
		if err != nil {
			result.State = StateFailed
			return result, fmt.Errorf("cannot resume: %w", err)
		}
		result.Resumed = true
		startStep, startAction = len(run.Deployed), len(run.Actions)
	}
	uc.saveRunState(ctx, run)

	lookup := func(name string) (common.Address, bool) {
		d, ok := deployed[name]
		if !ok {
			return common.Address{}, false
		}
		return d.Address, true
	}

	for i := startStep; i < len(plan.Steps); i++ {
		step := plan.Steps[i]

		// Cancellation check point: the previous step is confirmed
		if err := ctx.Err(); err != nil {
			return uc.fail(ctx, result, run, domain.PhaseDeploy, i, step.Name, fmt.Errorf("%w: %v", domain.ErrCancelled, err))
		}

		uc.transition(result, StateStepSubmitted)
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageStepStarting,
			Current: i + 1,
			Total:   len(plan.Steps),
			Message: fmt.Sprintf("Deploying %s (%s)", step.Name, step.Contract),
			Spinner: true,
			Metadata: &StepProgress{
				Phase: domain.PhaseDeploy, Index: i + 1, Total: len(plan.Steps),
				Name: step.Name, Contract: step.Contract,
			},
		})

		args, err := resolveArgs(step.Args, lookup)
		if err != nil {
			return uc.fail(ctx, result, run, domain.PhaseDeploy, i, step.Name, err)
		}

		contract, err := factory.Instantiate(ctx, step.Name, step.Contract, args)
		if err != nil {
			return uc.fail(ctx, result, run, domain.PhaseDeploy, i, step.Name, err)
		}

		deployed[step.Name] = contract
		result.Deployed = append(result.Deployed, contract)
		run.Deployed = append(run.Deployed, contract)
		uc.saveRunState(ctx, run)

		uc.transition(result, StateStepConfirmed)
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageStepConfirmed,
			Current: i + 1,
			Total:   len(plan.Steps),
			Metadata: &StepProgress{
				Phase: domain.PhaseDeploy, Index: i + 1, Total: len(plan.Steps),
				Name: step.Name, Contract: step.Contract, Deployed: contract,
			},
		})
	}

	uc.transition(result, StateAllStepsConfirmed)
	uc.transition(result, StatePostActionsRunning)

	for j := startAction; j < len(plan.Actions); j++ {
		action := plan.Actions[j]

		if err := ctx.Err(); err != nil {
			return uc.fail(ctx, result, run, domain.PhaseAction, j, action.Name, fmt.Errorf("%w: %v", domain.ErrCancelled, err))
		}

		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageActionStarting,
			Current: j + 1,
			Total:   len(plan.Actions),
			Message: fmt.Sprintf("Calling %s.%s", action.Target, action.Method),
			Spinner: true,
			Metadata: &StepProgress{
				Phase: domain.PhaseAction, Index: j + 1, Total: len(plan.Actions),
				Name: action.Name, Target: action.Target, Method: action.Method,
			},
		})

		target, ok := deployed[action.Target]
		if !ok {
			return uc.fail(ctx, result, run, domain.PhaseAction, j, action.Name,
				fmt.Errorf("%w: target '%s' was not deployed", domain.ErrDanglingReference, action.Target))
		}
		args, err := resolveArgs(action.Args, lookup)
		if err != nil {
			return uc.fail(ctx, result, run, domain.PhaseAction, j, action.Name, err)
		}

		receipt, err := factory.Call(ctx, target, action.Method, args)
		if err != nil {
			return uc.fail(ctx, result, run, domain.PhaseAction, j, action.Name, err)
		}

		actionResult := &models.ActionResult{
			Name:        action.Name,
			Target:      action.Target,
			Method:      action.Method,
			Address:     target.Address,
			TxHash:      receipt.TxHash,
			BlockNumber: receipt.BlockNumber,
		}
		result.Actions = append(result.Actions, actionResult)
		run.Actions = append(run.Actions, actionResult)
		uc.saveRunState(ctx, run)

		uc.log.Info("action confirmed", "action", action.Name, "tx", receipt.TxHash.Hex())
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageActionConfirmed,
			Current: j + 1,
			Total:   len(plan.Actions),
			Metadata: &StepProgress{
				Phase: domain.PhaseAction, Index: j + 1, Total: len(plan.Actions),
				Name: action.Name, Target: action.Target, Method: action.Method, Action: actionResult,
			},
		})
	}

	uc.transition(result, StateComplete)
	run.Status = models.RunStatusCompleted
	uc.saveRunState(ctx, run)
	uc.saveManifest(ctx, result)

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageDeployCompleted, Metadata: result})

	return result, nil
}

// restore loads the previous run and re-attaches its confirmed contracts.
// Addresses are only reused after checking that code still exists at them.
func (uc *DeployPlan) restore(
	ctx context.Context,
	result *DeployPlanResult,
	session ChainSession,
	factory *ContractFactory,
	deployed map[string]*models.DeployedContract,
) (*models.RunState, error) {
	plan, profile := result.Plan, result.Profile

	prev, err := uc.runStates.Load(ctx, plan.Name, profile.Name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no previous run of '%s' on '%s'", plan.Name, profile.Name)
		}
		return nil, err
	}
	if prev.Status == models.RunStatusCompleted {
		return nil, fmt.Errorf("previous run of '%s' on '%s' already completed", plan.Name, profile.Name)
	}
	if prev.ChainID != session.ChainID() {
		return nil, fmt.Errorf("%w: previous run was on chain %d, connected to %d", domain.ErrNetworkMismatch, prev.ChainID, session.ChainID())
	}
	if len(prev.Deployed) > len(plan.Steps) || len(prev.Actions) > len(plan.Actions) {
		return nil, fmt.Errorf("%w: plan changed since the previous run", domain.ErrInvalidPlan)
	}
	if len(prev.Actions) > 0 && len(prev.Deployed) != len(plan.Steps) {
		return nil, fmt.Errorf("%w: previous run recorded actions before all deployments", domain.ErrInvalidPlan)
	}

	for i, d := range prev.Deployed {
		step := plan.Steps[i]
		if step.Name != d.Name || step.Contract != d.Contract {
			return nil, fmt.Errorf("%w: step %d is %s (%s), previous run deployed %s (%s)",
				domain.ErrInvalidPlan, i+1, step.Name, step.Contract, d.Name, d.Contract)
		}
		ok, err := session.HasCode(ctx, d.Address)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("no code at %s recorded for %s", d.Address.Hex(), d.Name)
		}

		attached, err := factory.Attach(ctx, d)
		if err != nil {
			return nil, err
		}
		deployed[d.Name] = attached
		result.Deployed = append(result.Deployed, attached)

		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageStepReused,
			Current: i + 1,
			Total:   len(plan.Steps),
			Metadata: &StepProgress{
				Phase: domain.PhaseDeploy, Index: i + 1, Total: len(plan.Steps),
				Name: d.Name, Contract: d.Contract, Deployed: attached,
			},
		})
	}

	for i, a := range prev.Actions {
		if plan.Actions[i].Name != a.Name || plan.Actions[i].Method != a.Method {
			return nil, fmt.Errorf("%w: action %d is %s, previous run confirmed %s",
				domain.ErrInvalidPlan, i+1, plan.Actions[i].Name, a.Name)
		}
		reused := *a
		reused.Reused = true
		result.Actions = append(result.Actions, &reused)
	}

	prev.Status = models.RunStatusRunning
	prev.Failure = nil
	return prev, nil
}

// fail records a step failure and stops the run
func (uc *DeployPlan) fail(
	ctx context.Context,
	result *DeployPlanResult,
	run *models.RunState,
	phase domain.Phase,
	index int,
	name string,
	err error,
) (*DeployPlanResult, error) {
	stepErr := &domain.StepError{Phase: phase, Index: index + 1, Name: name, Err: err}

	uc.transition(result, StateFailed)
	result.Failure = stepErr

	run.Status = models.RunStatusFailed
	run.Failure = failureRecord(stepErr)
	uc.saveRunState(ctx, run)
	uc.saveManifest(ctx, result)

	uc.log.Error("deployment stopped", "phase", phase, "index", index+1, "name", name, "kind", stepErr.Kind(), "error", err)
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageDeployFailed, Metadata: result})

	return result, stepErr
}

func (uc *DeployPlan) transition(result *DeployPlanResult, next DeployState) {
	uc.log.Debug("state transition", "from", result.State, "to", next)
	result.State = next
}

func (uc *DeployPlan) saveRunState(ctx context.Context, run *models.RunState) {
	run.UpdatedAt = time.Now()
	if err := uc.runStates.Save(ctx, run); err != nil {
		uc.log.Warn("failed to save run state", "error", err)
	}
}

func (uc *DeployPlan) saveManifest(ctx context.Context, result *DeployPlanResult) {
	manifest := &models.Manifest{
		Network:   result.Profile.Name,
		ChainID:   result.ChainID,
		Plan:      result.Plan.Name,
		Deployer:  result.Deployer,
		Status:    models.RunStatusCompleted,
		Contracts: result.Deployed,
		Actions:   result.Actions,
		UpdatedAt: time.Now(),
	}
	if result.Failure != nil {
		manifest.Status = models.RunStatusFailed
		manifest.Failure = failureRecord(result.Failure)
	}
	if err := uc.manifests.Save(ctx, manifest); err != nil {
		uc.log.Warn("failed to save deployment manifest", "error", err)
	}
}

func failureRecord(err *domain.StepError) *models.FailureRecord {
	return &models.FailureRecord{
		Phase: string(err.Phase),
		Index: err.Index,
		Name:  err.Name,
		Kind:  string(err.Kind()),
		Error: err.Err.Error(),
	}
}
