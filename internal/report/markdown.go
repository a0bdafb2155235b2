package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperifyio/gorate/internal/dates"
	"github.com/hyperifyio/gorate/internal/table"
)

// Markdown renders the valuation, the selected transactions and the stage
// counts, followed by a reproducibility footer.
func Markdown(run Run) string {
	res := run.Result
	var b strings.Builder
	b.WriteString("# Valuation\n\n")
	b.WriteString(res.English)
	b.WriteString("\n")
	if res.Marathi != "" {
		b.WriteString("\n")
		b.WriteString(res.Marathi)
		b.WriteString("\n")
	}

	if res.Table != nil && len(res.Table.Columns) > 0 {
		b.WriteString("\n## Selected transactions\n\n")
		writeTable(&b, res.Table)
	}

	if len(res.Stages.Stages) > 0 {
		b.WriteString("\n## Filter stages\n\n")
		b.WriteString("| Stage | In | Out | Note |\n|---|---:|---:|---|\n")
		for _, s := range res.Stages.Stages {
			note := ""
			if s.Skipped {
				note = "skipped: " + s.Reason
			}
			fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", s.Name, s.In, s.Out, escapeCell(note))
		}
		for _, w := range res.Stages.Warnings {
			b.WriteString("\n> WARNING: ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}

	c := run.Criteria
	if !c.StartDate.IsZero() {
		fmt.Fprintf(&b, "\nDate window: %s to %s", c.StartDate.Format(dates.ISO), c.EndDate.Format(dates.ISO))
		if len(c.ExcludedSurveys) > 0 {
			b.WriteString("; excluded surveys: ")
			b.WriteString(strings.Join(c.ExcludedSurveys, ", "))
		}
		b.WriteString("\n")
	}
	return appendReproFooter(b.String(), run)
}

func writeTable(b *strings.Builder, t *table.Table) {
	b.WriteString("|")
	for _, c := range t.Columns {
		b.WriteString(" ")
		b.WriteString(escapeCell(c))
		b.WriteString(" |")
	}
	b.WriteString("\n|")
	for range t.Columns {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, row := range t.Rows {
		b.WriteString("|")
		for _, v := range row {
			b.WriteString(" ")
			b.WriteString(escapeCell(v))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", "<br>")
}

// appendReproFooter records the settings that determine the outcome.
func appendReproFooter(markdown string, run Run) string {
	m := run.Meta
	var b strings.Builder
	b.WriteString(markdown)
	b.WriteString("\n---\n")
	b.WriteString("Reproducibility: ")
	b.WriteString("run_id=")
	b.WriteString(m.RunID)
	b.WriteString("; input_sha256=")
	b.WriteString(m.InputSHA256)
	b.WriteString("; translator=")
	b.WriteString(strings.TrimSpace(m.Translator))
	b.WriteString("; cache=")
	b.WriteString(strings.TrimSpace(m.Cache))
	b.WriteString("; engine=")
	b.WriteString(strings.TrimSpace(m.Engine))
	b.WriteString("; rounding=")
	b.WriteString(strings.TrimSpace(m.Rounding))
	b.WriteString("; translations=")
	b.WriteString(strconv.Itoa(run.Result.Translation.Calls))
	b.WriteString("\n")
	return b.String()
}
