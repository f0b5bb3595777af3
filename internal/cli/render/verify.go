package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/catapult/internal/usecase"
)

// VerifyRenderer handles rendering of verification results
type VerifyRenderer struct {
	out io.Writer
}

// NewVerifyRenderer creates a new verify renderer
func NewVerifyRenderer(out io.Writer) *VerifyRenderer {
	return &VerifyRenderer{
		out: out,
	}
}

// RenderVerifyResult renders the outcome of one verification
func (r *VerifyRenderer) RenderVerifyResult(result *usecase.VerifyResult) error {
	record := result.Record
	switch {
	case result.Skipped:
		fmt.Fprintf(r.out, "%s is already verified on %s", record.Component, result.Network.Name)
		if record.Verification.URL != "" {
			fmt.Fprintf(r.out, " - %s", record.Verification.URL)
		}
		fmt.Fprintln(r.out)
		faintStyle.Fprintln(r.out, "Use --force to verify again")
	case result.Success():
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Verified %s on %s", record.Component, result.Network.Name)))
		if record.Verification.URL != "" {
			fmt.Fprintf(r.out, "   %s\n", record.Verification.URL)
		}
	default:
		fmt.Fprintln(r.out, FormatError(fmt.Sprintf("verification of %s failed: %v", record.Component, result.Err)))
	}
	return nil
}
