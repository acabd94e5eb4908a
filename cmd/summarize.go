package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/shared"
	"github.com/desertthunder/sumx/internal/transfer"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Summarize uploads one file and prints the returned summary.
func (r *Runner) Summarize(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: file path is required", shared.ErrMissingArgument)
	}
	if info, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	} else if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", shared.ErrInvalidArgument, path)
	}

	if err := r.open(); err != nil {
		return err
	}
	if !r.session.IsAuthenticated() {
		r.logger.Warn("no stored session, uploading without credentials")
	}

	r.orchestrator.Select(models.LocalFile(path))
	r.logger.Info(transfer.MsgSummarizing, "file", path)

	state, err := r.orchestrator.Upload(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", state.Error, err)
	}

	if err := r.writePlain("Summary of: %s\n\n", state.FileName); err != nil {
		return err
	}
	if err := r.writePlain("%s\n", r.renderSummary(state.Summary, cmd.Bool("raw"))); err != nil {
		return err
	}

	if !cmd.Bool("save") {
		return nil
	}

	dir := cmd.String("output-dir")
	if dir == "" {
		dir = r.config.Output.Dir
	}
	saved, err := r.orchestrator.Download(transfer.DirSaver{Dir: dir})
	if err != nil {
		return err
	}
	r.logger.Info("summary saved", "path", saved)
	return r.writePlainln("✓ Saved to %s", saved)
}

// renderSummary styles markdown only when stdout is a terminal.
func (r *Runner) renderSummary(summary string, raw bool) string {
	if raw || !r.isTerminal() {
		return summary
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		r.logger.Debug("markdown renderer unavailable", "error", err)
		return summary
	}
	out, err := renderer.Render(summary)
	if err != nil {
		return summary
	}
	return strings.TrimRight(out, "\n")
}

func (r *Runner) isTerminal() bool {
	f, ok := r.output.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
