package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// PlanRenderer renders a deployment plan and its validation issues
type PlanRenderer struct {
	out io.Writer
}

// NewPlanRenderer creates a new plan renderer
func NewPlanRenderer(out io.Writer) *PlanRenderer {
	return &PlanRenderer{out: out}
}

// RenderPlan prints steps with their arguments, then actions, then issues
func (r *PlanRenderer) RenderPlan(result *usecase.ShowPlanResult) error {
	plan := result.Plan

	color.New(color.Bold).Fprintf(r.out, "📋 %s", plan.Name)
	faintStyle.Fprintf(r.out, " (%s)\n", plan.Source)
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("─", 50))

	for i, step := range plan.Steps {
		fmt.Fprintf(r.out, "%d. %s → %s\n", i+1, stepNameStyle.Sprint(step.Name), contractStyle.Sprint(step.Contract))
		for j, arg := range step.Args {
			faintStyle.Fprintf(r.out, "     %d: ", j)
			fmt.Fprintln(r.out, arg.String())
		}
	}

	if len(plan.Actions) > 0 {
		fmt.Fprintln(r.out)
		color.New(color.Bold).Fprintln(r.out, "⚙️  Post-deploy actions:")
		for i, action := range plan.Actions {
			fmt.Fprintf(r.out, "%d. %s.%s(%s)\n", i+1, stepNameStyle.Sprint(action.Target), action.Method, formatArgs(action.Args))
		}
	}

	fmt.Fprintln(r.out)
	if result.Valid() {
		msg := "Plan is valid"
		if result.Profile != nil {
			msg = fmt.Sprintf("Plan is valid for %s", result.Profile.Name)
		}
		fmt.Fprintln(r.out, FormatSuccess(msg))
		return nil
	}

	color.New(color.FgRed, color.Bold).Fprintf(r.out, "❌ %d issue(s):\n", len(result.Issues))
	for _, issue := range result.Issues {
		fmt.Fprintf(r.out, "  • [%s] %s\n", issue.Kind(), issue.Error())
	}
	return nil
}
