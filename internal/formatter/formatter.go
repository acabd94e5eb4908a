// package formatter renders summary history as tables and export files (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/shared"
	"github.com/desertthunder/sumx/internal/summaries"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TimestampLayout is used wherever a creation time is shown to the user.
const TimestampLayout = "2006-01-02 15:04"

// Formats lists the supported export formats.
var Formats = []string{"json", "csv", "markdown", "txt"}

// FormatTimestamp renders t in local time, or "-" for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(TimestampLayout)
}

// ExportToCSV converts records to CSV with columns: File, Created, Summary
func ExportToCSV(records []models.SummaryRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"File", "Created", "Summary"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range records {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Format(time.RFC3339)
		}
		if err := writer.Write([]string{r.FileName, created, r.SummaryText}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders one section per record under a "Summary History" heading
func ExportToMarkdown(records []models.SummaryRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Summary History\n\n")
	buf.WriteString(fmt.Sprintf("**Summaries**: %d\n\n", len(records)))

	for _, r := range records {
		buf.WriteString(fmt.Sprintf("## %s\n\n", r.FileName))
		buf.WriteString(fmt.Sprintf("*%s*\n\n", FormatTimestamp(r.CreatedAt)))
		buf.WriteString(strings.TrimSpace(r.SummaryText))
		buf.WriteString("\n\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts records to plain text
func ExportToText(records []models.SummaryRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Summaries: %d\n", len(records)))

	for i, r := range records {
		buf.WriteString(fmt.Sprintf("\n%d. %s (%s)\n", i+1, r.FileName, FormatTimestamp(r.CreatedAt)))
		buf.WriteString(strings.TrimSpace(r.SummaryText))
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes records with the same field names the service uses
func ExportToJSON(records []models.SummaryRecord) ([]byte, error) {
	if records == nil {
		records = []models.SummaryRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export dispatches on format, one of [Formats] ("md" and "text" are accepted as aliases).
func Export(records []models.SummaryRecord, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return ExportToJSON(records)
	case "csv":
		return ExportToCSV(records)
	case "markdown", "md":
		return ExportToMarkdown(records)
	case "txt", "text":
		return ExportToText(records)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q (want one of %s)",
			shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return ".md"
	case "txt", "text":
		return ".txt"
	default:
		return "." + strings.ToLower(format)
	}
}

// WriteExport writes records to path in the given format.
//
// Defaults to summaries{ext} in the working directory.
func WriteExport(records []models.SummaryRecord, format, path string) (string, error) {
	data, err := Export(records, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "summaries" + Extension(format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteTable renders records as a rounded table. Summaries are cut to the preview length unless full is set.
func WriteTable(w io.Writer, records []models.SummaryRecord, full bool) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Options.SeparateHeader = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 40},
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 80},
	})

	tw.AppendHeader(table.Row{"#", "File", "Created", "Summary"})

	for i, r := range records {
		summary := r.SummaryText
		if !full {
			summary = summaries.Preview(strings.Join(strings.Fields(summary), " "))
		}
		tw.AppendRow(table.Row{i + 1, r.FileName, FormatTimestamp(r.CreatedAt), summary})
	}

	if len(records) == 0 {
		tw.AppendRow(table.Row{"-", summaries.MsgEmpty, "-", "-"})
	}

	tw.Render()
	return nil
}
