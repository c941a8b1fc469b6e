package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"conveyor/internal/core"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	unstableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	skippedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderReport formats a finished run for the terminal: a header with
// the run identity, one line per stage, and the final verdict.
func renderReport(report *core.RunReport) string {
	var sb strings.Builder

	sb.WriteString(headerStyle.Render(fmt.Sprintf("Run #%d  %s  (branch %s)",
		report.RunNumber, report.Version, report.Branch)))
	sb.WriteString("\n\n")

	for _, r := range report.Results {
		label := statusStyle(r.Status).Render(strings.ToUpper(string(r.Status)))
		sb.WriteString(fmt.Sprintf("  %-10s %s", label, r.StageName))
		if r.Status != core.StatusSkipped {
			sb.WriteString(fmt.Sprintf("  (%s)", r.Duration.Round(time.Millisecond)))
		}
		if r.Status == core.StatusFailure && r.LogPath != "" {
			sb.WriteString(fmt.Sprintf("  log: %s", r.LogPath))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(renderOutcome(report.Outcome))
	sb.WriteString(fmt.Sprintf("  in %s\n", report.Duration.Round(time.Second)))
	if report.Outcome != core.OutcomeFailed {
		sb.WriteString(fmt.Sprintf("Artifacts: %s\n", report.Artifacts))
	}
	return sb.String()
}

func renderOutcome(outcome core.Outcome) string {
	switch outcome {
	case core.OutcomeSucceeded:
		return successStyle.Render("✔ succeeded")
	case core.OutcomeUnstable:
		return unstableStyle.Render("⚠ unstable")
	default:
		return failureStyle.Render("✘ failed")
	}
}

func statusStyle(status core.Status) lipgloss.Style {
	switch status {
	case core.StatusSuccess:
		return successStyle
	case core.StatusFailure:
		return failureStyle
	case core.StatusUnstable:
		return unstableStyle
	default:
		return skippedStyle
	}
}
