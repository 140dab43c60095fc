// Package formatter renders run reports as markdown tables.
package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"byweb/internal/models"
)

// maxReasonWidth caps the display width of the reason column.
const maxReasonWidth = 60

// ReportHeader is the column row of the shard report.
var ReportHeader = []string{"shard", "status", "documents", "skipped", "reason", "duration"}

// RenderTable lays out header and rows as a markdown table whose columns are
// padded to a common display width, so wide scripts line up in a terminal.
func RenderTable(header []string, rows [][]string) []string {
	colCount := len(header)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	table := make([][]string, 0, len(rows)+1)
	table = append(table, escapeCells(header))

	for _, row := range rows {
		table = append(table, escapeCells(row))
	}

	// Calculate max widths (using display width)
	colWidths := make([]int, colCount)

	for _, row := range table {
		for i := 0; i < len(row) && i < colCount; i++ {
			width := runewidth.StringWidth(row[i])
			if width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	// Ensure min width for separator (usually 3 dashes "---")
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	result := make([]string, 0, len(table)+1)

	for i, row := range table {
		result = append(result, renderRow(row, colWidths))

		if i == 0 {
			sep := make([]string, colCount)
			for j, w := range colWidths {
				sep[j] = strings.Repeat("-", w)
			}

			result = append(result, renderRow(sep, colWidths))
		}
	}

	return result
}

func renderRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range colWidths {
		sb.WriteString(" ")

		content := ""
		if j < len(row) {
			content = row[j]
		}

		sb.WriteString(content)

		// Pad with spaces based on display width
		if padding := width - runewidth.StringWidth(content); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}

		sb.WriteString(" |")
	}

	return sb.String()
}

func escapeCells(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		cell = strings.ReplaceAll(cell, "\n", " ")
		out[i] = strings.ReplaceAll(cell, "|", `\|`)
	}

	return out
}

// ShardReport renders one row per shard followed by a totals line.
func ShardReport(results []models.ShardResult) string {
	rows := make([][]string, 0, len(results))

	var (
		docs, dropped               int
		processed, resumed, skipped int
		elapsed                     time.Duration
	)

	for _, r := range results {
		reason := ""
		if r.Skip != nil {
			reason = runewidth.Truncate(r.Skip.Error(), maxReasonWidth, "…")
		}

		rows = append(rows, []string{
			strconv.Itoa(r.Index),
			string(r.Status),
			strconv.Itoa(len(r.Documents)),
			strconv.Itoa(len(r.Dropped)),
			reason,
			FormatDuration(r.Duration),
		})

		docs += len(r.Documents)
		dropped += len(r.Dropped)
		elapsed += r.Duration

		switch r.Status {
		case models.ShardProcessed:
			processed++
		case models.ShardResumed:
			resumed++
		case models.ShardSkipped:
			skipped++
		}
	}

	lines := RenderTable(ReportHeader, rows)
	lines = append(lines, "", fmt.Sprintf(
		"Total: %d shards (%d processed, %d resumed, %d skipped), %d documents, %d documents skipped, %s",
		len(results), processed, resumed, skipped, docs, dropped, FormatDuration(elapsed)))

	return strings.Join(lines, "\n") + "\n"
}

// FormatDuration rounds d for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}
