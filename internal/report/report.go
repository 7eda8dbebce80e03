// Package report renders a batch report for the terminal.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/artikelwerk/catalog-cli/internal/model"
)

// Render returns a human-readable summary of one batch run: a record table,
// a failure table when anything failed, and the aggregate line.
func Render(r *model.BatchReport) string {
	var b strings.Builder

	if len(r.Records) > 0 {
		b.WriteString(RenderRecords(r.Records))
		b.WriteByte('\n')
	}
	if len(r.Failures) > 0 {
		b.WriteString(failuresTable(r.Failures))
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "run %s: %d reconciled, %d failed, success rate %.1f%%, took %s\n",
		r.RunID, r.ProcessedCount, r.FailedCount, r.SuccessRate*100,
		r.FinishedAt.Sub(r.StartedAt).Round(10*time.Millisecond),
	)
	return b.String()
}

// RenderRecords returns the record table on its own, used both in the batch
// summary and by the records listing command.
func RenderRecords(records []model.ReconciledRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Item", "Identifier", "Name", "Price", "Confidence", "Provenance", "OK"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	for _, rec := range records {
		price := ""
		if rec.Provenance[model.FieldUnitPrice] != model.ProvenanceNone {
			price = fmt.Sprintf("%.2f", rec.Fields.UnitPrice)
		}
		ok := "yes"
		if !rec.Success {
			ok = "no"
		}
		tw.AppendRow(table.Row{
			rec.Ref.ID,
			rec.Fields.Identifier,
			truncate(rec.Fields.Name, 40),
			price,
			fmt.Sprintf("%.2f", rec.Overall),
			provenanceSummary(rec.Provenance),
			ok,
		})
	}
	return tw.Render()
}

func failuresTable(failures []model.FailedItem) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Item", "Error"})
	for _, f := range failures {
		tw.AppendRow(table.Row{f.Ref.ID, truncate(f.ErrorMessage, 70)})
	}
	return tw.Render()
}

// provenanceSummary compresses per-field provenance into a short glyph run,
// one character per field in weight order: D/V for a trusted source, d/v
// for a fallback, - for none.
func provenanceSummary(p model.Provenance) string {
	var b strings.Builder
	for _, f := range model.Fields {
		switch p[f] {
		case model.ProvenanceDOM:
			b.WriteByte('D')
		case model.ProvenanceVision:
			b.WriteByte('V')
		case model.ProvenanceDOMFallback:
			b.WriteByte('d')
		case model.ProvenanceVisionFallback:
			b.WriteByte('v')
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
