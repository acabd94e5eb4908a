package models

import "time"

// SummaryRecord is a summary previously generated by the service.
type SummaryRecord struct {
	FileName    string    `json:"file_name"`
	SummaryText string    `json:"summary_text"`
	CreatedAt   time.Time `json:"created_at"`
}
