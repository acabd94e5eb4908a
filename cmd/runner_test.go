package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/server"
	"github.com/desertthunder/sumx/internal/services"
	"github.com/desertthunder/sumx/internal/session"
	"github.com/desertthunder/sumx/internal/shared"
	"github.com/desertthunder/sumx/internal/summaries"
	tu "github.com/desertthunder/sumx/internal/testing"
	"github.com/urfave/cli/v3"
)

type harness struct {
	runner *Runner
	mock   *server.MockAPI
	output *bytes.Buffer
	outDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mock := server.NewMockAPI(nil)
	mock.AddUser("alice", "alice@example.com", "wonderland")
	srv := httptest.NewServer(mock)
	t.Cleanup(srv.Close)

	config := shared.DefaultConfig()
	config.Storage.Path = ":memory:"
	config.Output.Dir = t.TempDir()

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NopLogger(),
		Output: output,
		API:    services.NewAPIService(srv.URL, srv.Client(), services.WithRateLimit(1000)),
	})
	t.Cleanup(func() { runner.Close() })

	return &harness{runner: runner, mock: mock, output: output, outDir: config.Output.Dir}
}

// run executes args against the command tree without the root Before hook.
func (h *harness) run(args ...string) error {
	app := &cli.Command{
		Name: "sumx",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.toml"},
		},
		Writer:    &bytes.Buffer{},
		ErrWriter: &bytes.Buffer{},
		Commands:  h.runner.register(),
	}
	return app.Run(context.Background(), append([]string{"sumx"}, args...))
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	if err := h.run("auth", "login", "--username", "alice", "--password", "wonderland"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	h.output.Reset()
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := services.NewAPIService("http://example.test", httpClient)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
		})

		t.Run("nil config uses defaults", func(t *testing.T) {
			t.Setenv(EnvAPIURL, "")
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Fatal("expected default config")
			}
			if runner.api == nil {
				t.Fatal("expected api service built from config")
			}
			if runner.api.BaseURL() != shared.DefaultBaseURL {
				t.Errorf("expected %s, got %s", shared.DefaultBaseURL, runner.api.BaseURL())
			}
		})

		t.Run("environment overrides base URL", func(t *testing.T) {
			t.Setenv(EnvAPIURL, "http://override.test/")
			runner := NewRunner(RunnerOpts{})

			if runner.api.BaseURL() != "http://override.test" {
				t.Errorf("expected override, got %s", runner.api.BaseURL())
			}
		})

		t.Run("nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("writePlainln surrounds text with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("done")
			if output.String() != "\ndone\n" {
				t.Errorf("got %q", output.String())
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "auth", "summarize", "summaries", "tui", "mock-server"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if cmd.Name != want[i] {
				t.Errorf("command %d: expected %s, got %s", i, want[i], cmd.Name)
			}
		}
	})

	t.Run("Close", func(t *testing.T) {
		h := newHarness(t)
		if err := h.runner.open(); err != nil {
			t.Fatalf("open failed: %v", err)
		}
		if err := h.runner.Close(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if err := h.runner.Close(); err != nil {
			t.Errorf("second close should be a no-op, got %v", err)
		}
		if h.runner.session != nil {
			t.Error("expected components to be released")
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login stores a session", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("auth", "login", "--username", "alice", "--password", "wonderland"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Logged in as alice") {
			t.Errorf("unexpected output %q", h.output.String())
		}
		if !h.runner.session.IsAuthenticated() {
			t.Error("expected authenticated session")
		}
	})

	t.Run("login reads password from environment", func(t *testing.T) {
		h := newHarness(t)
		t.Setenv(EnvPassword, "wonderland")

		if err := h.run("auth", "login", "--username", "alice"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !h.runner.session.IsAuthenticated() {
			t.Error("expected authenticated session")
		}
	})

	t.Run("login replaces an existing session", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		first := h.runner.session.AccessToken()

		if err := h.run("auth", "login", "--username", "alice", "--password", "wonderland"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.runner.session.AccessToken() == first {
			t.Error("expected a fresh token")
		}
	})

	t.Run("wrong password surfaces service detail", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("auth", "login", "--username", "alice", "--password", "nope")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
		if !strings.Contains(err.Error(), "No active account found with the given credentials") {
			t.Errorf("expected detail in error, got %v", err)
		}
		if h.runner.session.IsAuthenticated() {
			t.Error("expected no session")
		}
	})

	t.Run("register then login", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("auth", "register", "--username", "bob", "--email", "bob@example.com", "--password", "builder123")
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}
		if !strings.Contains(h.output.String(), session.MsgRegistered) {
			t.Errorf("unexpected output %q", h.output.String())
		}
		if h.runner.session.IsAuthenticated() {
			t.Error("registration must not sign in")
		}

		if err := h.run("auth", "login", "--username", "bob", "--password", "builder123"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
	})

	t.Run("register while signed in points to logout", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		err := h.run("auth", "register", "--username", "bob", "--email", "bob@example.com", "--password", "builder123")
		if !errors.Is(err, shared.ErrAlreadySignedIn) {
			t.Fatalf("expected ErrAlreadySignedIn, got %v", err)
		}
		if !strings.Contains(err.Error(), "sumx auth logout") {
			t.Errorf("expected logout hint, got %v", err)
		}
		if !h.runner.session.IsAuthenticated() {
			t.Error("existing session must be kept")
		}
	})

	t.Run("register validates before sending", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("auth", "register", "--username", "bob", "--email", "bob@example.com", "--password", "short")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}

		if err := h.run("auth", "login", "--username", "bob", "--password", "short"); err == nil {
			t.Error("account should not exist")
		}
	})

	t.Run("status", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Not signed in") {
			t.Errorf("unexpected output %q", h.output.String())
		}

		h.login(t)
		if err := h.run("auth", "status", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var got struct {
			Status     string   `json:"status"`
			StoredKeys []string `json:"stored_keys"`
		}
		if err := json.Unmarshal(h.output.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON %q: %v", h.output.String(), err)
		}
		if got.Status != models.Authenticated.String() {
			t.Errorf("expected authenticated, got %+v", got)
		}
		if strings.Join(got.StoredKeys, ",") != "access,refresh" {
			t.Errorf("expected access and refresh keys, got %v", got.StoredKeys)
		}

		h.output.Reset()
		if err := h.run("auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		h.output.Reset()
		if err := h.run("auth", "status", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got.StoredKeys = nil
		if err := json.Unmarshal(h.output.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON %q: %v", h.output.String(), err)
		}
		if got.StoredKeys == nil || len(got.StoredKeys) != 0 {
			t.Errorf("expected empty key list, got %v", got.StoredKeys)
		}
	})

	t.Run("logout", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run("auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.runner.session.IsAuthenticated() {
			t.Error("expected signed out")
		}

		h.output.Reset()
		if err := h.run("auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Already signed out") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})
}

func TestSummarizeCommand(t *testing.T) {
	t.Run("prints and saves the summary", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		path := filepath.Join(t.TempDir(), "notes.txt")
		tu.MustWriteFile(t, path, "The quick brown fox jumps over the lazy dog.")

		if err := h.run("summarize", "--save", "--raw", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := h.output.String()
		if !strings.Contains(out, "Summary of: notes.txt") {
			t.Errorf("missing header in %q", out)
		}
		if !strings.Contains(out, "Overview of notes.txt") {
			t.Errorf("missing summary in %q", out)
		}

		saved := filepath.Join(h.outDir, "notes_summary.txt")
		tu.AssertFileExists(t, saved)
		stored := h.mock.Summaries()
		if len(stored) != 1 {
			t.Fatalf("expected one stored summary, got %d", len(stored))
		}
		if got := tu.MustReadFile(t, saved); got != stored[0].SummaryText {
			t.Errorf("saved %q, want %q", got, stored[0].SummaryText)
		}
	})

	t.Run("output-dir overrides config", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		path := filepath.Join(t.TempDir(), "report.md")
		tu.MustWriteFile(t, path, "# Report\n\nQuarterly numbers.")
		dir := filepath.Join(t.TempDir(), "out")

		if err := h.run("summarize", "--save", "--raw", "--output-dir", dir, path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "report_summary.txt"))
	})

	t.Run("missing argument", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("summarize"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("summarize", filepath.Join(t.TempDir(), "gone.pdf"))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("service rejection carries the error body", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		path := filepath.Join(t.TempDir(), "image.png")
		tu.MustWriteFile(t, path, "not really a png")

		err := h.run("summarize", path)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "Unsupported file type") {
			t.Errorf("expected detail, got %v", err)
		}
	})

	t.Run("expired token signs out", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		h.mock.RevokeTokens()
		path := filepath.Join(t.TempDir(), "notes.txt")
		tu.MustWriteFile(t, path, "content")

		err := h.run("summarize", path)
		if !errors.Is(err, shared.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if h.runner.session.IsAuthenticated() {
			t.Error("expected session to be invalidated")
		}
		if h.runner.session.Message() != session.MsgExpired {
			t.Errorf("unexpected message %q", h.runner.session.Message())
		}
	})
}

func TestSummariesCommands(t *testing.T) {
	seed := func(h *harness) {
		base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		h.mock.AddSummary(models.SummaryRecord{FileName: "alpha.pdf", SummaryText: "Alpha covers budgets.", CreatedAt: base})
		h.mock.AddSummary(models.SummaryRecord{FileName: "beta.docx", SummaryText: "Beta covers hiring.", CreatedAt: base.Add(time.Hour)})
	}

	t.Run("list as JSON newest first", func(t *testing.T) {
		h := newHarness(t)
		seed(h)
		h.login(t)

		if err := h.run("summaries", "list", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var records []models.SummaryRecord
		if err := json.Unmarshal(h.output.Bytes(), &records); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(records) != 2 || records[0].FileName != "beta.docx" {
			t.Errorf("unexpected records %+v", records)
		}
	})

	t.Run("list filters by query", func(t *testing.T) {
		h := newHarness(t)
		seed(h)
		h.login(t)

		if err := h.run("summaries", "list", "--query", "BUDGET"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := h.output.String()
		if !strings.Contains(out, "alpha.pdf") || strings.Contains(out, "beta.docx") {
			t.Errorf("unexpected table %q", out)
		}
		if !strings.Contains(out, "1 summaries") {
			t.Errorf("expected count line, got %q", out)
		}
	})

	t.Run("list empty history", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run("summaries", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), summaries.MsgEmpty) {
			t.Errorf("expected empty notice, got %q", h.output.String())
		}
	})

	t.Run("list without session", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("summaries", "list")
		if !errors.Is(err, shared.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if !strings.Contains(err.Error(), summaries.MsgSessionExpired) {
			t.Errorf("expected expiry message, got %v", err)
		}
	})

	t.Run("export csv", func(t *testing.T) {
		h := newHarness(t)
		seed(h)
		h.login(t)
		path := filepath.Join(t.TempDir(), "history.csv")

		if err := h.run("summaries", "export", "--format", "csv", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		content := tu.MustReadFile(t, path)
		if !strings.HasPrefix(content, "File,Created,Summary") {
			t.Errorf("unexpected CSV %q", content)
		}
		if !strings.Contains(h.output.String(), "Exported 2 summaries") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("export rejects unknown format before fetching", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("summaries", "export", "--format", "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestSetupCommand(t *testing.T) {
	h := newHarness(t)
	t.Chdir(t.TempDir())

	if err := h.run("--config", "sumx.toml", "setup"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tu.AssertFileExists(t, "sumx.toml")
	tu.AssertFileExists(t, h.runner.config.Storage.Path)
	if !strings.Contains(h.output.String(), "Next steps") {
		t.Errorf("unexpected output %q", h.output.String())
	}
}

func TestMockServerCommand(t *testing.T) {
	h := newHarness(t)

	err := h.run("mock-server", "--user", "missing-colon")
	if !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
