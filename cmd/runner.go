package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sumx/internal/repositories"
	"github.com/desertthunder/sumx/internal/services"
	"github.com/desertthunder/sumx/internal/session"
	"github.com/desertthunder/sumx/internal/shared"
	"github.com/desertthunder/sumx/internal/summaries"
	"github.com/desertthunder/sumx/internal/transfer"
	"github.com/urfave/cli/v3"
)

const (
	// EnvAPIURL overrides the configured service URL.
	EnvAPIURL = "SUMX_API_URL"
	// EnvPassword supplies the password for auth commands when the flag is omitted.
	EnvPassword = "SUMX_PASSWORD"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db           *sql.DB
	storage      *repositories.LocalStorageRepository
	session      *session.Manager
	orchestrator *transfer.Orchestrator
	browser      *summaries.Browser
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if r.api == nil {
		r.api = r.newAPI()
	}
	return r
}

func (r *Runner) newAPI() *services.APIService {
	return services.NewAPIService(
		r.config.ResolveBaseURL(os.Getenv(EnvAPIURL)),
		r.httpClient,
		services.WithRateLimit(r.config.API.RateLimit),
		services.WithLogger(r.logger),
	)
}

// Before loads the config file named by --config, falling back to defaults when it does not exist.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	level := r.config.Log.Level
	if override := cmd.String("log-level"); override != "" {
		level = override
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	r.api = r.newAPI()
	r.logger.Debug("using summarization service", "url", r.api.BaseURL())
	return ctx, nil
}

// After releases the local store.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close releases the local store if it was opened. Safe to call more than once.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.storage, r.session, r.orchestrator, r.browser = nil, nil, nil, nil
	return err
}

// SetLogger replaces the logger used by the runner and every component built after the call.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.api = r.newAPI()
}

// open wires the session, transfer and history components on top of the local store.
func (r *Runner) open() error {
	if r.session != nil {
		return nil
	}

	db, err := shared.OpenStorage(r.config.Storage)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}
	r.db = db
	r.storage = repositories.NewLocalStorageRepository(db)

	store := repositories.NewTokenStore(r.storage)
	r.session = session.NewManager(r.api, store, shared.WithLogger(r.logger, "component", "session"))
	r.orchestrator = transfer.New(r.api, r.session, r.config.Timeout(), shared.WithLogger(r.logger, "component", "transfer"))
	r.browser = summaries.New(r.api, r.session, shared.WithLogger(r.logger, "component", "summaries"))
	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, summarizeCommand, summariesCommand, tuiCommand, mockServerCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
