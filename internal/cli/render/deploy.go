package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

var (
	stepNameStyle = color.New(color.FgCyan, color.Bold)
	contractStyle = color.New(color.FgGreen)
	addressStyle  = color.New(color.FgWhite)
	faintStyle    = color.New(color.Faint)
	reusedStyle   = color.New(color.FgYellow)
)

// DeployRenderer renders deployment runs
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{out: out}
}

// GetWriter returns the io.Writer used by this renderer
func (r *DeployRenderer) GetWriter() io.Writer {
	return r.out
}

// RenderPlan prints the banner shown before anything is submitted
func (r *DeployRenderer) RenderPlan(result *usecase.DeployPlanResult) {
	profile, plan := result.Profile, result.Plan

	fmt.Fprintf(r.out, "\n🚀 Deploying %s to %s\n", color.New(color.Bold).Sprint(plan.Name), stepNameStyle.Sprint(profile.Name))
	fmt.Fprintf(r.out, "   RPC:   %s\n", profile.RPCURL)
	if profile.ChainID != 0 {
		fmt.Fprintf(r.out, "   Chain: %d\n", profile.ChainID)
	}
	fmt.Fprintf(r.out, "   Gas:   %s\n", profile.Gas)
	if profile.Unbounded() {
		fmt.Fprintf(r.out, "   Size:  unbounded\n")
	} else {
		fmt.Fprintf(r.out, "   Size:  %d bytes max\n", profile.MaxContractSize)
	}
	fmt.Fprintln(r.out)

	color.New(color.Bold).Fprintf(r.out, "📋 Plan (%s):\n", plan.Source)
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("─", 50))
	r.renderSteps(plan)
	fmt.Fprintln(r.out)
}

func (r *DeployRenderer) renderSteps(plan *models.Plan) {
	for i, step := range plan.Steps {
		fmt.Fprintf(r.out, "%d. ", i+1)
		stepNameStyle.Fprint(r.out, step.Name)
		fmt.Fprint(r.out, " → ")
		contractStyle.Fprint(r.out, step.Contract)
		if refs := stepRefs(step); len(refs) > 0 {
			faintStyle.Fprintf(r.out, " (uses: %s)", strings.Join(refs, ", "))
		}
		fmt.Fprintln(r.out)
	}
	for i, action := range plan.Actions {
		fmt.Fprintf(r.out, "%d. ", len(plan.Steps)+i+1)
		fmt.Fprintf(r.out, "%s.%s(%s)\n", stepNameStyle.Sprint(action.Target), action.Method, formatArgs(action.Args))
	}
}

// RenderStep prints one confirmed or reused deployment
func (r *DeployRenderer) RenderStep(step *usecase.StepProgress) {
	d := step.Deployed
	if d == nil {
		return
	}
	if d.Reused {
		reusedStyle.Fprintf(r.out, "  ↺ [%d/%d] %s reused at %s\n", step.Index, step.Total, d.Name, d.Address.Hex())
		return
	}
	color.New(color.FgGreen).Fprintf(r.out, "  ✓ [%d/%d] ", step.Index, step.Total)
	fmt.Fprintf(r.out, "%s (%s) at %s ", stepNameStyle.Sprint(d.Name), d.Contract, addressStyle.Sprint(d.Address.Hex()))
	faintStyle.Fprintf(r.out, "(tx %s, block %d)\n", shortHash(d.TxHash.Hex()), d.BlockNumber)
}

// RenderAction prints one confirmed action
func (r *DeployRenderer) RenderAction(step *usecase.StepProgress) {
	a := step.Action
	if a == nil {
		return
	}
	color.New(color.FgGreen).Fprintf(r.out, "  ✓ [%d/%d] ", step.Index, step.Total)
	fmt.Fprintf(r.out, "%s.%s ", stepNameStyle.Sprint(a.Target), a.Method)
	faintStyle.Fprintf(r.out, "(tx %s, block %d)\n", shortHash(a.TxHash.Hex()), a.BlockNumber)
}

// RenderResult prints the final summary: the address mapping, then the failure report if any
func (r *DeployRenderer) RenderResult(result *usecase.DeployPlanResult, err error) {
	fmt.Fprintf(r.out, "\n%s\n", strings.Repeat("═", 70))

	switch {
	case result.DryRun && err == nil:
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Plan %s is valid for %s (dry run, nothing submitted)", result.Plan.Name, result.Profile.Name)))
		return
	case err == nil:
		color.New(color.FgGreen, color.Bold).Fprintf(r.out, "🎉 Deployed %s to %s (chain %d)\n", result.Plan.Name, result.Profile.Name, result.ChainID)
	default:
		color.New(color.FgRed, color.Bold).Fprintln(r.out, "❌ Deployment failed")
	}

	if len(result.Deployed) > 0 {
		fmt.Fprintln(r.out, "\n📍 Addresses:")
		rows := make([][]string, 0, len(result.Deployed))
		for _, d := range result.Deployed {
			note := ""
			if d.Reused {
				note = reusedStyle.Sprint("reused")
			}
			rows = append(rows, []string{"  " + d.Name, d.Contract, d.Address.Hex(), note})
		}
		fmt.Fprintln(r.out, renderTable(nil, rows))
	}

	if len(result.Actions) > 0 {
		fmt.Fprintf(r.out, "\n⚙️  Actions: %d confirmed\n", len(result.Actions))
	}

	if err != nil {
		r.renderFailure(result, err)
	}
}

func (r *DeployRenderer) renderFailure(result *usecase.DeployPlanResult, err error) {
	fmt.Fprintln(r.out)
	if f := result.Failure; f != nil {
		fmt.Fprintf(r.out, "  • Failed at: %s %d (%s)\n", f.Phase, f.Index, f.Name)
		fmt.Fprintf(r.out, "  • Kind:      %s\n", f.Kind())
		fmt.Fprintf(r.out, "  • Error:     %v\n", f.Err)
	} else {
		fmt.Fprintf(r.out, "  • Kind:      %s\n", domain.KindOf(err))
		fmt.Fprintf(r.out, "  • Error:     %v\n", err)
	}

	if len(result.Deployed) > 0 && result.Plan != nil && result.Profile != nil {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf(
			"%d contract(s) are live on %s. Re-run with --resume to continue from the failed step.",
			countNew(result.Deployed), result.Profile.Name)))
	}
}

// deployReport is the machine-readable form of a run
type deployReport struct {
	Network   string                     `json:"network,omitempty"`
	ChainID   uint64                     `json:"chainId,omitempty"`
	Plan      string                     `json:"plan,omitempty"`
	Deployer  string                     `json:"deployer,omitempty"`
	State     usecase.DeployState        `json:"state"`
	DryRun    bool                       `json:"dryRun,omitempty"`
	Resumed   bool                       `json:"resumed,omitempty"`
	Addresses []usecase.NamedAddress     `json:"addresses"`
	Contracts []*models.DeployedContract `json:"contracts"`
	Actions   []*models.ActionResult     `json:"actions"`
	Failure   *failureReport             `json:"failure,omitempty"`
}

type failureReport struct {
	Phase string `json:"phase,omitempty"`
	Index int    `json:"index,omitempty"`
	Name  string `json:"name,omitempty"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// RenderJSON writes the run as JSON
func (r *DeployRenderer) RenderJSON(result *usecase.DeployPlanResult, err error) error {
	report := deployReport{
		ChainID:   result.ChainID,
		State:     result.State,
		DryRun:    result.DryRun,
		Resumed:   result.Resumed,
		Addresses: result.Addresses(),
		Contracts: result.Deployed,
		Actions:   result.Actions,
	}
	if report.Contracts == nil {
		report.Contracts = []*models.DeployedContract{}
	}
	if report.Actions == nil {
		report.Actions = []*models.ActionResult{}
	}
	if result.Profile != nil {
		report.Network = result.Profile.Name
	}
	if result.Plan != nil {
		report.Plan = result.Plan.Name
	}
	if result.ChainID != 0 {
		report.Deployer = result.Deployer.Hex()
	}
	if err != nil {
		report.Failure = &failureReport{Kind: string(domain.KindOf(err)), Error: err.Error()}
		if f := result.Failure; f != nil {
			report.Failure.Phase = string(f.Phase)
			report.Failure.Index = f.Index
			report.Failure.Name = f.Name
			report.Failure.Error = f.Err.Error()
		}
	}

	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func stepRefs(step models.DeploymentStep) []string {
	var refs []string
	for _, arg := range step.Args {
		refs = append(refs, arg.References()...)
	}
	return refs
}

func formatArgs(args []models.Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func countNew(deployed []*models.DeployedContract) int {
	n := 0
	for _, d := range deployed {
		if !d.Reused {
			n++
		}
	}
	return n
}
