package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// SelectorAdapter handles interactive selection and confirmation
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// Confirm asks a yes/no question. Non-interactive runs never confirm.
func (s *SelectorAdapter) Confirm(ctx context.Context, message string) (bool, error) {
	if s.config.NonInteractive {
		return false, fmt.Errorf("confirmation not available in non-interactive mode, pass --yes")
	}

	prompt := promptui.Prompt{
		Label:     message,
		IsConfirm: true,
	}

	_, err := prompt.Run()
	switch err {
	case nil:
		return true, nil
	case promptui.ErrAbort:
		return false, nil
	}
	return false, fmt.Errorf("confirmation cancelled: %w", err)
}

// SelectComponent selects a deployment record from a list
func (s *SelectorAdapter) SelectComponent(ctx context.Context, records []*models.DeploymentRecord, prompt string) (*models.DeploymentRecord, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no deployments to select from")
	}

	// If only one match, return it directly
	if len(records) == 1 {
		return records[0], nil
	}

	if s.config.NonInteractive {
		return nil, fmt.Errorf("interactive selection not available in non-interactive mode")
	}

	options := formatRecordOptions(records)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             prompt,
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(options),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	return records[index], nil
}

// formatRecordOptions creates display strings like "Token (sepolia) 0xabc..."
func formatRecordOptions(records []*models.DeploymentRecord) []string {
	options := make([]string, len(records))
	for i, record := range records {
		name := color.New(color.FgWhite, color.Bold).Sprint(record.Component)
		network := color.New(color.FgBlue).Sprint(record.Network)

		var indicators []string
		if record.ProxyKind.IsProxied() {
			indicators = append(indicators, string(record.ProxyKind))
		}
		if record.Status != models.DeploymentStatusConfirmed {
			indicators = append(indicators, strings.ToLower(string(record.Status)))
		}

		option := fmt.Sprintf("%s (%s)", name, network)
		if len(indicators) > 0 {
			option += " " + color.New(color.FgYellow).Sprintf("[%s]", strings.Join(indicators, ", "))
		}
		if record.Address != "" {
			option += " " + record.Address
		}
		options[i] = option
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		// Empty search shows all items
		if input == "" {
			return true
		}

		// Convert to lowercase for case-insensitive search
		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		// First try simple substring match
		if strings.Contains(item, input) {
			return true
		}

		// Then try fuzzy match
		pattern := fuzzy.Find(input, []string{item})
		return len(pattern) > 0
	}
}

// Ensure the adapter implements the interfaces
var (
	_ usecase.Confirmer         = (*SelectorAdapter)(nil)
	_ usecase.ComponentSelector = (*SelectorAdapter)(nil)
)
