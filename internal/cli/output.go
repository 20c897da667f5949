package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/stagehand/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BD93F9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5555"))
)

// emit writes v in the selected output format. Text and markdown use the
// given renderers; json and yaml encode v directly.
func emit(cmd *cobra.Command, v any, text, markdown func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "markdown":
		markdown(w)
	default:
		text(w)
	}
	return nil
}

func riskText(r model.RiskLevel) string {
	switch r {
	case model.RiskHigh:
		return errorStyle.Render(r.String())
	case model.RiskMedium:
		return warnStyle.Render(r.String())
	default:
		return okStyle.Render(r.String())
	}
}

func severityIcon(s model.Severity) string {
	switch s {
	case model.SeverityError:
		return errorStyle.Render("✗")
	case model.SeverityWarning:
		return warnStyle.Render("!")
	default:
		return dimStyle.Render("·")
	}
}

func printStat(w io.Writer, changes []model.Change) {
	files, added, deleted := model.Stats(changes)
	fmt.Fprintf(w, "%d file(s) changed, %d insertions(+), %d deletions(-)\n", files, added, deleted)
}

// mdCell makes s safe inside a markdown table cell.
func mdCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
