package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/sumx/internal/formatter"
	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/summaries"
)

var (
	_ list.Item = summaryItem{}
)

// summaryItem wraps [models.SummaryRecord] to implement [list.Item].
type summaryItem struct {
	record models.SummaryRecord
}

func (i summaryItem) FilterValue() string { return i.record.FileName + " " + i.record.SummaryText }
func (i summaryItem) Title() string       { return i.record.FileName }
func (i summaryItem) Description() string {
	preview := summaries.Preview(strings.Join(strings.Fields(i.record.SummaryText), " "))
	return fmt.Sprintf("%s • %s", formatter.FormatTimestamp(i.record.CreatedAt), preview)
}

func summaryItems(records []models.SummaryRecord) []list.Item {
	items := make([]list.Item, len(records))
	for i, r := range records {
		items[i] = summaryItem{record: r}
	}
	return items
}
