package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// RenderNetworksList renders the configured profiles as a table
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No network profiles configured")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Network Profiles:")
	fmt.Fprintln(r.out)

	rows := make([][]string, 0, len(result.Networks))
	for _, network := range result.Networks {
		if network.Error != nil {
			rows = append(rows, []string{
				"❌ " + network.Name, "", "", "",
				color.New(color.FgRed).Sprint(network.Error.Error()),
			})
			continue
		}

		p := network.Profile
		chain := "any"
		if p.ChainID != 0 {
			chain = strconv.FormatUint(p.ChainID, 10)
		}
		size := "unbounded"
		if !p.Unbounded() {
			size = strconv.Itoa(p.MaxContractSize)
		}
		notes := ""
		if p.Ephemeral {
			notes = "ephemeral"
		}
		if p.RequireConfirmation {
			notes = "confirm"
		}
		rows = append(rows, []string{"✅ " + network.Name, chain, p.Gas.String(), size, notes})
	}

	fmt.Fprintln(r.out, renderTable([]string{"NETWORK", "CHAIN", "GAS", "MAX SIZE", ""}, rows))
	return nil
}
