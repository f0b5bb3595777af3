package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// DeploymentsRenderer renders current ledger records grouped by network
type DeploymentsRenderer struct {
	out io.Writer
}

// NewDeploymentsRenderer creates a new deployments renderer
func NewDeploymentsRenderer(out io.Writer) *DeploymentsRenderer {
	return &DeploymentsRenderer{
		out: out,
	}
}

// RenderDeploymentList renders one table per network
func (r *DeploymentsRenderer) RenderDeploymentList(result *usecase.DeploymentListResult) error {
	if len(result.Deployments) == 0 {
		fmt.Fprintln(r.out, "No deployments found")
		return nil
	}

	byNetwork := lo.GroupBy(result.Deployments, func(d *models.DeploymentRecord) string { return d.Network })
	networks := lo.Uniq(lo.Map(result.Deployments, func(d *models.DeploymentRecord, _ int) string { return d.Network }))

	for _, network := range networks {
		records := byNetwork[network]
		networkStyle.Fprintf(r.out, " %s ", network)
		if records[0].ChainID != 0 {
			faintStyle.Fprintf(r.out, " chain %d", records[0].ChainID)
		}
		fmt.Fprintln(r.out)

		t := newTable()
		t.AppendHeader(table.Row{"Component", "Proxy", "Address", "Implementation", "Status", "Verified"})
		for _, d := range records {
			t.AppendRow(table.Row{
				d.Component,
				d.ProxyKind,
				orDash(d.Address),
				orDash(d.LogicAddress),
				statusText(d.Status),
				verificationText(d.Verification),
			})
		}
		fmt.Fprintln(r.out, t.Render())
		fmt.Fprintln(r.out)
	}

	fmt.Fprintf(r.out, "Total: %d deployments", result.Summary.Total)
	if failed := result.Summary.ByStatus[models.DeploymentStatusFailed]; failed > 0 {
		failureStyle.Fprintf(r.out, " (%d failed)", failed)
	}
	fmt.Fprintln(r.out)
	return nil
}
