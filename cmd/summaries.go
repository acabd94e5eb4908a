package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sumx/internal/formatter"
	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/summaries"
	"github.com/urfave/cli/v3"
)

// loadSummaries fetches the history and applies the --query filter.
func (r *Runner) loadSummaries(ctx context.Context, cmd *cli.Command) ([]models.SummaryRecord, error) {
	if err := r.open(); err != nil {
		return nil, err
	}

	if err := r.browser.Load(ctx); err != nil {
		if msg := r.browser.ErrorMessage(); msg != "" {
			return nil, fmt.Errorf("%s: %w", msg, err)
		}
		return nil, err
	}

	result := r.browser.Filter(cmd.String("query"))
	r.logger.Debug("summaries loaded", "total", len(r.browser.Records()), "matched", len(result.Records))
	return result.Records, nil
}

// SummariesList prints the history as a table or JSON.
func (r *Runner) SummariesList(ctx context.Context, cmd *cli.Command) error {
	records, err := r.loadSummaries(ctx, cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}
	if err := formatter.WriteTable(r.output, records, cmd.Bool("full")); err != nil {
		return err
	}
	if len(records) > 0 {
		return r.writePlain("%d summaries\n", len(records))
	}
	return nil
}

// SummariesExport writes the (optionally filtered) history to a file.
func (r *Runner) SummariesExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if _, err := formatter.Export(nil, format); err != nil {
		return err
	}

	records, err := r.loadSummaries(ctx, cmd)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return r.writePlain("%s\n", summaries.MsgEmpty)
	}

	path, err := formatter.WriteExport(records, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("summaries exported", "format", format, "count", len(records), "path", path)
	return r.writePlain("✓ Exported %d summaries to %s\n", len(records), path)
}
