package render

import (
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	headerStyle    = color.New(color.Bold)
	nameStyle      = color.New(color.FgCyan)
	artifactStyle  = color.New(color.FgGreen)
	faintStyle     = color.New(color.Faint)
	networkStyle   = color.New(color.BgCyan, color.FgBlack, color.Bold)
	pendingStyle   = color.New(color.FgYellow)
	successStyle   = color.New(color.FgGreen)
	failureStyle   = color.New(color.FgRed)
	blockedStyle   = color.New(color.FgMagenta)
	verifiedStyle  = color.New(color.FgGreen)
	unverifiedText = color.New(color.FgRed)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	if len(message) > 0 {
		message = strings.ToUpper(message[:1]) + message[1:]
	}
	return color.New(color.FgRed).Sprintf("❌ %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// title renders an upper or lower case status as "Title Case"
func title(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}

// statusText colors a ledger status
func statusText(status models.DeploymentStatus) string {
	switch status {
	case models.DeploymentStatusConfirmed:
		return successStyle.Sprint(title(string(status)))
	case models.DeploymentStatusPending:
		return pendingStyle.Sprint(title(string(status)))
	case models.DeploymentStatusFailed:
		return failureStyle.Sprint(title(string(status)))
	}
	return string(status)
}

// verificationText colors a verification status, empty when never attempted
func verificationText(info models.VerificationInfo) string {
	switch info.Status {
	case models.VerificationStatusVerified:
		return verifiedStyle.Sprint("✓ verified")
	case models.VerificationStatusFailed:
		return unverifiedText.Sprint("✗ failed")
	}
	return ""
}

// orDash keeps empty table cells visible
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// newTable returns a borderless table in the style used across commands
func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	t.Style().Options.SeparateHeader = true
	t.Style().Box.PaddingRight = "   "
	return t
}
