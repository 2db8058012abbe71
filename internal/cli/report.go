package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/gmsas95/medremind/internal/app"
	"github.com/gmsas95/medremind/internal/engine"
	"github.com/gmsas95/medremind/internal/medication"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func reportCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON bool
		raw    bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Adherence report for a caregiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				report := a.Engine.BuildReport()
				out := cmd.OutOrStdout()

				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				}

				md := RenderMarkdown(report)
				if raw || !term.IsTerminal(int(os.Stdout.Fd())) {
					_, err := fmt.Fprint(out, md)
					return err
				}
				rendered, err := renderTerminal(md)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, rendered)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without terminal styling")
	return cmd
}

var adherenceBadge = map[medication.AdherenceStatus]string{
	medication.AdherenceGood:    "🟢 good",
	medication.AdherenceWarning: "🟡 warning",
	medication.AdherenceAlert:   "🔴 alert",
}

// RenderMarkdown formats a report as a markdown document
func RenderMarkdown(r engine.Report) string {
	var b strings.Builder

	b.WriteString("# Adherence report\n\n")
	fmt.Fprintf(&b, "_Generated %s_\n\n", r.GeneratedAt)
	fmt.Fprintf(&b, "**Adherence rate:** %.0f%%\n\n", r.Rate)

	if r.Alert.Visible {
		fmt.Fprintf(&b, "> ⚠️ **Caregiver alert:** %s has been missed repeatedly.\n\n", r.Alert.MedicineName)
	}

	b.WriteString("## Medicines\n\n")
	if len(r.Medicines) == 0 {
		b.WriteString("No medicines in the catalog.\n\n")
	} else {
		b.WriteString("| Medicine | Timing | Missed | Status |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, m := range r.Medicines {
			fmt.Fprintf(&b, "| %s | %s | %d | %s |\n",
				escapeCell(m.Name), escapeCell(m.Timing.Label()), m.MissedCount, adherenceBadge[m.Status])
		}
		b.WriteString("\n")
	}

	b.WriteString("## Missed doses\n\n")
	if len(r.Misses) == 0 {
		b.WriteString("No missed doses. 🎉\n")
	} else {
		for _, s := range r.Misses {
			fmt.Fprintf(&b, "- %s\n", s.Line())
		}
	}
	return b.String()
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

// escapeCell keeps a value on one markdown table row
func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}

func renderTerminal(md string) (string, error) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = w
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	return r.Render(md)
}
