package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// VerifyRenderer handles rendering of verification results
type VerifyRenderer struct {
	out io.Writer
}

// NewVerifyRenderer creates a new verify renderer
func NewVerifyRenderer(out io.Writer) *VerifyRenderer {
	return &VerifyRenderer{out: out}
}

// RenderVerifyResult renders per-contract outcomes and a summary
func (r *VerifyRenderer) RenderVerifyResult(result *usecase.VerifyDeploymentResult) error {
	if len(result.Skipped) > 0 {
		color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Skipping %d contract(s) without artifacts:\n", len(result.Skipped))
		for _, name := range result.Skipped {
			fmt.Fprintf(r.out, "  ⏭️  %s\n", name)
		}
		fmt.Fprintln(r.out)
	}

	if len(result.Results) == 0 {
		color.New(color.FgYellow).Fprintf(r.out, "Nothing to verify on %s.\n", result.Network)
		return nil
	}

	for i, cv := range result.Results {
		c := cv.Contract
		fmt.Fprintf(r.out, "  %s (%s) at %s\n", stepNameStyle.Sprint(c.Name), c.Contract, c.Address.Hex())

		if cv.Error != nil {
			color.New(color.FgRed).Fprintf(r.out, "    ✗ %v\n", cv.Error)
		}
		r.renderOutcomes(cv.Outcomes)

		if i < len(result.Results)-1 {
			fmt.Fprintln(r.out)
		}
	}

	fmt.Fprintf(r.out, "\nVerification complete: %d/%d successful\n", result.Verified, len(result.Results))
	return nil
}

func (r *VerifyRenderer) renderOutcomes(outcomes []usecase.VerificationOutcome) {
	title := cases.Title(language.English)
	for _, o := range outcomes {
		name := title.String(o.Verifier)
		switch o.Status {
		case "verified":
			color.New(color.FgGreen).Fprintf(r.out, "    %s: ✓ Verified", name)
			if o.URL != "" {
				fmt.Fprintf(r.out, " - %s", o.URL)
			}
			fmt.Fprintln(r.out)
		case "failed":
			color.New(color.FgRed).Fprintf(r.out, "    %s: ✗ Failed", name)
			if o.Reason != "" {
				fmt.Fprintf(r.out, " - %s", o.Reason)
			}
			fmt.Fprintln(r.out)
		default:
			color.New(color.FgYellow).Fprintf(r.out, "    %s: ⏳ %s\n", name, title.String(o.Status))
		}
	}
}
