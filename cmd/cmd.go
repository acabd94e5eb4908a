// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand writes the config template and prepares the local store.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml, initialize the database and run migrations",
		Action: r.Setup,
	}
}

func credentialFlags(withEmail bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "username",
			Aliases:  []string{"u"},
			Usage:    "Account username",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password",
			Sources: cli.EnvVars(EnvPassword),
		},
	}
	if withEmail {
		flags = append(flags, &cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Usage:    "Email address for the new account",
			Required: true,
		})
	}
	return flags
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the account session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Exchange credentials for an access token and store it locally",
				Flags:  credentialFlags(false),
				Action: r.AuthLogin,
			},
			{
				Name:   "register",
				Usage:  "Create a new account",
				Flags:  credentialFlags(true),
				Action: r.AuthRegister,
			},
			{
				Name:  "status",
				Usage: "Show whether a session is stored",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Discard the stored tokens",
				Action: r.AuthLogout,
			},
		},
	}
}

// summarizeCommand uploads a single file.
func summarizeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "summarize",
		Usage: "Upload a document and print its summary",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "save",
				Aliases: []string{"s"},
				Usage:   "Write the summary to <name>_summary.txt",
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Directory for saved summaries (default: output.dir from config)",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print the summary without markdown rendering",
			},
		},
		Action: r.Summarize,
	}
}

// summariesCommand browses and exports the summary history.
func summariesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "summaries",
		Aliases: []string{"history"},
		Usage:   "Browse previously generated summaries",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List summaries, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Case-insensitive filter on file name or summary text",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "full",
						Usage: "Show complete summaries instead of previews",
					},
				},
				Action: r.SummariesList,
			},
			{
				Name:  "export",
				Usage: "Export summaries to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, csv, markdown, txt)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Case-insensitive filter on file name or summary text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: summaries.<ext>)",
					},
				},
				Action: r.SummariesExport,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Action:  r.TUI,
	}
}

// mockServerCommand runs the in-memory service for local development.
func mockServerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "mock-server",
		Usage: "Run a local fake of the summarization service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: "127.0.0.1:8000",
			},
			&cli.StringSliceFlag{
				Name:  "user",
				Usage: "Seed an account as username:password (repeatable)",
			},
		},
		Action: r.MockServer,
	}
}
