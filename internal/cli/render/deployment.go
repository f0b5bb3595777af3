package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

const timeFormat = "2006-01-02 15:04:05"

// DeploymentRenderer renders detailed information about a single deployment
type DeploymentRenderer struct {
	out io.Writer
}

// NewDeploymentRenderer creates a new deployment renderer
func NewDeploymentRenderer(out io.Writer) *DeploymentRenderer {
	return &DeploymentRenderer{
		out: out,
	}
}

// RenderDeployment renders the current record followed by every attempt
func (r *DeploymentRenderer) RenderDeployment(result *usecase.ShowDeploymentResult) error {
	d := result.Current
	if d == nil {
		d = result.History[len(result.History)-1]
	}

	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Deployment: %s on %s\n", d.Component, d.Network)
	fmt.Fprintln(r.out, strings.Repeat("=", 80))

	fmt.Fprintln(r.out, "\nBasic Information:")
	fmt.Fprintf(r.out, "  Status: %s\n", statusText(d.Status))
	fmt.Fprintf(r.out, "  Address: %s\n", orDash(d.Address))
	fmt.Fprintf(r.out, "  Artifact: %s\n", color.New(color.FgYellow).Sprint(d.Artifact))
	if d.ChainID != 0 {
		fmt.Fprintf(r.out, "  Chain ID: %d\n", d.ChainID)
	}
	if d.DeployedAtBlock != 0 {
		fmt.Fprintf(r.out, "  Block: %d\n", d.DeployedAtBlock)
	}
	if d.TxHash != "" {
		fmt.Fprintf(r.out, "  Transaction: %s\n", d.TxHash)
	}

	if d.ProxyKind.IsProxied() {
		fmt.Fprintln(r.out, "\nProxy Information:")
		fmt.Fprintf(r.out, "  Type: %s\n", d.ProxyKind)
		fmt.Fprintf(r.out, "  Implementation: %s\n", orDash(d.LogicAddress))
		if d.LogicTxHash != "" {
			fmt.Fprintf(r.out, "  Implementation Tx: %s\n", d.LogicTxHash)
		}
		fmt.Fprintf(r.out, "  Initializer: %s\n", orDash(d.Initializer))
	}

	if len(d.ResolvedArgs) > 0 {
		fmt.Fprintln(r.out, "\nArguments:")
		for i, arg := range d.ResolvedArgs {
			fmt.Fprintf(r.out, "  %d. %s\n", i, arg)
		}
	}
	if d.Calldata != "" {
		fmt.Fprintf(r.out, "  Calldata: %s\n", faintStyle.Sprint(d.Calldata))
	}

	if d.Error != "" {
		fmt.Fprintln(r.out, "\nLast Error:")
		failureStyle.Fprintf(r.out, "  %s: %s\n", d.ErrorKind, d.Error)
	}

	fmt.Fprintln(r.out, "\nVerification Status:")
	switch d.Verification.Status {
	case models.VerificationStatusVerified:
		verifiedStyle.Fprint(r.out, "  Verified")
		if d.Verification.URL != "" {
			fmt.Fprintf(r.out, " - %s", d.Verification.URL)
		}
		fmt.Fprintln(r.out)
	case models.VerificationStatusFailed:
		failureStyle.Fprintf(r.out, "  Failed - %s\n", d.Verification.Reason)
	default:
		faintStyle.Fprintln(r.out, "  Not verified")
	}

	if len(result.History) > 0 {
		fmt.Fprintln(r.out, "\nHistory:")
		t := newTable()
		t.AppendHeader(table.Row{"#", "Attempt", "Status", "Address", "Attempts", "Updated"})
		for i, h := range result.History {
			updated := h.UpdatedAt
			if updated.IsZero() {
				updated = h.CreatedAt
			}
			t.AppendRow(table.Row{
				i + 1,
				shortID(h.ID),
				statusText(h.Status),
				orDash(h.Address),
				h.Attempts,
				timestamp(updated),
			})
		}
		fmt.Fprintln(r.out, t.Render())
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeFormat)
}
