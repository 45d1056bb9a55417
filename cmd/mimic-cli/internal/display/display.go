// Package display renders persona snapshots and status lines for the CLI.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/XiaoConstantine/mimic-go/pkg/cache"
	"github.com/XiaoConstantine/mimic-go/pkg/core"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Width(16)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	successMark = color.New(color.FgGreen, color.Bold)
	failMark    = color.New(color.FgRed, color.Bold)
)

// Successf prints a green check mark followed by the formatted message.
func Successf(format string, args ...interface{}) {
	successMark.Print("✓ ")
	fmt.Printf(format+"\n", args...)
}

// Errorf prints a red cross followed by the formatted message.
func Errorf(format string, args ...interface{}) {
	failMark.Print("✗ ")
	fmt.Printf(format+"\n", args...)
}

// FormatPersona renders a persona snapshot as a bordered panel.
func FormatPersona(entry *cache.Entry, phase core.Phase, history []core.ConvergenceSample) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(entry.PersonaID) + "\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}
	row("Phase", phase.String())
	row("Profile version", fmt.Sprintf("%d", entry.Profile.Version))
	row("Samples", fmt.Sprintf("%d", entry.Signature.SampleCount))
	row("Hedging", fmt.Sprintf("%.2f", entry.Signature.HedgingLevel))
	row("Avg length", fmt.Sprintf("%.0f chars", entry.Signature.AvgResponseLength))
	row("Max length", fmt.Sprintf("%d chars", entry.Signature.MaxResponseLength))

	if len(entry.Signature.Patterns) > 0 {
		parts := make([]string, 0, len(entry.Signature.Patterns))
		for _, p := range entry.Signature.Patterns {
			parts = append(parts, fmt.Sprintf("%s=%.2f", p.Tag, p.Confidence))
		}
		row("Patterns", strings.Join(parts, "  "))
	}
	if n := len(history); n > 0 {
		tail := history
		if n > 5 {
			tail = history[n-5:]
		}
		parts := make([]string, 0, len(tail))
		for _, s := range tail {
			parts = append(parts, fmt.Sprintf("%.3f", s.Score))
		}
		row("Recent scores", strings.Join(parts, ", "))
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}
