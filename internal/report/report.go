// Package report renders a verdict run as a terminal summary table, a
// Markdown report, or an HTML report (SPEC_FULL.md §4.13). Grounded on the
// teacher's output/formatter.go: lipgloss styling for terminal output and a
// format-dispatch entrypoint per sink.
package report

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/yuin/goldmark"

	"github.com/flanksource/gomplate/v3/conv"

	"github.com/brel-ge/kcfg-vex/models"
)

var (
	affectedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	notAffectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	investigateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Underline(true)
)

// PrintTerminalSummary writes a colorized one-row-per-advisory table to w.
func PrintTerminalSummary(w *os.File, verdicts []models.Verdict) {
	if len(verdicts) == 0 {
		return
	}
	sorted := sortedByID(verdicts)

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-20s %-20s %s", "ADVISORY", "VERDICT", "DETAIL")))
	for _, v := range sorted {
		fmt.Fprintf(w, "%-20s %-20s %s\n", v.AdvisoryID, styleForState(v.State).Render(string(v.State)), v.Detail)
	}

	counts := countByState(sorted)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "%s  %s  %s\n",
		color.RedString("affected=%d", counts[models.StateAffected]),
		color.GreenString("not_affected=%d", counts[models.StateNotAffected]),
		color.YellowString("under_investigation=%d", counts[models.StateUnderInvestigation]))
}

func styleForState(s models.VerdictState) lipgloss.Style {
	switch s {
	case models.StateAffected:
		return affectedStyle
	case models.StateNotAffected:
		return notAffectedStyle
	default:
		return investigateStyle
	}
}

func countByState(verdicts []models.Verdict) map[models.VerdictState]int {
	out := map[models.VerdictState]int{}
	for _, v := range verdicts {
		out[v.State]++
	}
	return out
}

func sortedByID(verdicts []models.Verdict) []models.Verdict {
	out := make([]models.Verdict, len(verdicts))
	copy(out, verdicts)
	sort.Slice(out, func(i, j int) bool { return out[i].AdvisoryID < out[j].AdvisoryID })
	return out
}

const markdownTemplate = `# Advisory verdict report

| Advisory | Verdict | Detail |
|---|---|---|
{{range .Verdicts}}| {{.AdvisoryID}} | {{.State}} | {{.Detail}} |
{{end}}
Total: {{.Total}} ({{.Affected}} affected, {{.NotAffected}} not affected, {{.UnderInvestigation}} under investigation)
`

type reportData struct {
	Verdicts                                       []models.Verdict
	Total, Affected, NotAffected, UnderInvestigation int
}

func newReportData(verdicts []models.Verdict) reportData {
	sorted := sortedByID(verdicts)
	counts := countByState(sorted)
	return reportData{
		Verdicts:           sorted,
		Total:              len(sorted),
		Affected:           counts[models.StateAffected],
		NotAffected:        counts[models.StateNotAffected],
		UnderInvestigation: counts[models.StateUnderInvestigation],
	}
}

// RenderMarkdown renders a Markdown summary of verdicts with text/template.
// It registers one extra template function, pct, built on
// flanksource/gomplate's conv.ToString; the current template does not call
// it.
func RenderMarkdown(verdicts []models.Verdict) (string, error) {
	data := newReportData(verdicts)

	funcs := template.FuncMap{
		"pct": func(n, total int) string {
			if total == 0 {
				return "0%"
			}
			return conv.ToString(n*100/total) + "%"
		},
	}

	tmpl, err := template.New("report").Funcs(funcs).Parse(markdownTemplate)
	if err != nil {
		return "", models.NewIoError("failed to parse report template", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", models.NewIoError("failed to render report template", err)
	}
	return buf.String(), nil
}

// RenderHTML renders an HTML summary of verdicts. Any advisory document
// carrying a free-text description is rendered from Markdown to HTML with
// goldmark; the rest of the page is a plain table.
func RenderHTML(verdicts []models.Verdict, descriptions map[string]string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("<html><body><table><tr><th>Advisory</th><th>Verdict</th><th>Detail</th><th>Description</th></tr>\n")

	for _, v := range sortedByID(verdicts) {
		descHTML := ""
		if raw, ok := descriptions[v.AdvisoryID]; ok && raw != "" {
			var out bytes.Buffer
			if err := goldmark.Convert([]byte(raw), &out); err != nil {
				return "", models.NewIoError("failed to render description for "+v.AdvisoryID, err)
			}
			descHTML = out.String()
		}
		fmt.Fprintf(&buf, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			v.AdvisoryID, v.State, v.Detail, descHTML)
	}

	buf.WriteString("</table></body></html>\n")
	return buf.String(), nil
}
