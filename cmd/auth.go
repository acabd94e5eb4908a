package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/session"
	"github.com/desertthunder/sumx/internal/shared"
	"github.com/urfave/cli/v3"
)

func credentials(mode models.AuthMode, cmd *cli.Command) models.Credentials {
	return models.Credentials{
		Mode:     mode,
		Username: cmd.String("username"),
		Password: cmd.String("password"),
		Email:    cmd.String("email"),
	}
}

func (r *Runner) submit(ctx context.Context, creds models.Credentials) error {
	if err := r.open(); err != nil {
		return err
	}
	return r.session.SubmitCredentials(ctx, creds)
}

// AuthLogin exchanges credentials for tokens. An existing session is replaced.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	if r.session.IsAuthenticated() {
		r.logger.Info("replacing stored session")
		if err := r.session.Logout(); err != nil {
			return err
		}
	}

	if err := r.submit(ctx, credentials(models.Login, cmd)); err != nil {
		return err
	}

	r.logger.Info("login successful", "username", cmd.String("username"))
	return r.writePlain("✓ Logged in as %s\n", cmd.String("username"))
}

// AuthRegister creates an account. It does not sign in, and refuses while a session is stored.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	if r.session.IsAuthenticated() {
		return fmt.Errorf("%w: run 'sumx auth logout' before registering another account", shared.ErrAlreadySignedIn)
	}
	if err := r.submit(ctx, credentials(models.Register, cmd)); err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", session.MsgRegistered)
}

// AuthStatus reports whether a token is stored. The token is not checked against the service.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	status := r.session.Status()
	if cmd.Bool("json") {
		keys, err := r.storage.Keys()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrStorage, err)
		}
		if keys == nil {
			keys = []string{}
		}
		return r.writeJSON(map[string]any{
			"status":      status.String(),
			"base_url":    r.api.BaseURL(),
			"stored_keys": keys,
		}, true)
	}

	if status == models.Authenticated {
		return r.writePlain("✓ Signed in (%s)\n", r.api.BaseURL())
	}
	return r.writePlain("✗ Not signed in. Run 'sumx auth login' first.\n")
}

// AuthLogout clears the stored tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	if !r.session.IsAuthenticated() {
		return r.writePlain("Already signed out.\n")
	}
	if err := r.session.Logout(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}
