package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/sumx/internal/server"
	"github.com/desertthunder/sumx/internal/shared"
	"github.com/urfave/cli/v3"
)

// MockServer serves the in-memory summarization service until interrupted.
func (r *Runner) MockServer(ctx context.Context, cmd *cli.Command) error {
	logger := shared.WithLogger(r.logger, "component", "mock")
	api := server.NewMockAPI(logger)

	for _, entry := range cmd.StringSlice("user") {
		username, password, ok := strings.Cut(entry, ":")
		if !ok || username == "" || password == "" {
			return fmt.Errorf("%w: --user expects username:password, got %q", shared.ErrInvalidArgument, entry)
		}
		api.AddUser(username, username+"@example.com", password)
		logger.Info("seeded account", "username", username)
	}

	return server.Serve(ctx, cmd.String("addr"), api, logger)
}
