package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/services"
	"github.com/desertthunder/sumx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	MsgSomethingWrong = "Something went wrong."
	MsgUploadFailed   = "Upload failed. Please try again."
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgSelectFile     = "Please select a file."
	MsgSummarizing    = "Summarizing file..."
)

// Summarizer uploads a file and returns its summary.
type Summarizer interface {
	Summarize(ctx context.Context, src oauth2.TokenSource, fileName string, content io.Reader) (string, error)
}

// Session supplies the bearer token and is told when the service rejects it.
type Session interface {
	Token() (*oauth2.Token, error)
	Invalidate(reason string)
}

// Orchestrator owns the pending file and the [models.TransferState].
type Orchestrator struct {
	api     Summarizer
	session Session
	logger  *log.Logger
	timeout time.Duration

	pending    *models.PendingFile
	state      models.TransferState
	dropActive bool
	busy       bool
	inFlight   string // submission whose completion clears busy
	current    string // submission whose completion may still be displayed
	sentWith   string // access token attached to the current submission
}

// New creates an orchestrator. A non-positive timeout leaves uploads bounded only by the caller's context.
func New(api Summarizer, session Session, timeout time.Duration, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Orchestrator{api: api, session: session, timeout: timeout, logger: logger}
}

// Select replaces the pending file and clears any displayed outcome.
func (o *Orchestrator) Select(f models.PendingFile) {
	o.pending = &f
	o.current = ""
	o.state = models.TransferState{Phase: models.Selecting, FileName: f.Name}
	o.logger.Debug("file selected", "name", f.Name)
}

// Drop takes the first dropped file. An empty drop changes nothing but the drop-target flag.
//
// It reports whether the event was consumed, which is always true.
func (o *Orchestrator) Drop(files []models.PendingFile) bool {
	o.dropActive = false
	if len(files) == 0 {
		return true
	}
	if len(files) > 1 {
		o.logger.Debug("ignoring extra dropped files", "count", len(files)-1)
	}
	o.Select(files[0])
	return true
}

// DragOver marks the drop target active and reports the event as consumed.
func (o *Orchestrator) DragOver() bool {
	o.dropActive = true
	return true
}

func (o *Orchestrator) DragLeave() {
	o.dropActive = false
}

// Submit starts an upload of the pending file.
//
// It fails with [shared.ErrBusy] while a request is in flight and with [shared.ErrNoFileSelected] when there is
// nothing to send. Neither case changes state.
func (o *Orchestrator) Submit() (*Request, error) {
	if o.busy {
		return nil, shared.ErrBusy
	}
	if o.pending == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoFileSelected, MsgSelectFile)
	}

	id := shared.GenerateID()
	o.inFlight, o.current = id, id
	o.busy = true
	o.state = models.TransferState{Phase: models.Uploading, FileName: o.pending.Name}

	var src oauth2.TokenSource
	o.sentWith = ""
	if tok, err := o.session.Token(); err == nil {
		src = oauth2.StaticTokenSource(tok)
		o.sentWith = tok.AccessToken
	}

	o.logger.Info("upload started", "id", id, "file", o.pending.Name, "authorized", src != nil)

	return &Request{
		ID:      id,
		File:    *o.pending,
		api:     o.api,
		src:     src,
		timeout: o.timeout,
	}, nil
}

// Request is one submitted upload.
type Request struct {
	ID      string
	File    models.PendingFile
	api     Summarizer
	src     oauth2.TokenSource
	timeout time.Duration
}

// Completion is the outcome of [Request.Run].
type Completion struct {
	ID       string
	FileName string
	Summary  string
	Err      error
}

// Run sends exactly one upload. It is safe to call off the orchestrator's goroutine.
func (r *Request) Run(ctx context.Context) Completion {
	c := Completion{ID: r.ID, FileName: r.File.Name}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if r.File.Open == nil {
		c.Err = fmt.Errorf("%w: %s has no content", shared.ErrInvalidInput, r.File.Name)
		return c
	}
	rc, err := r.File.Open()
	if err != nil {
		c.Err = fmt.Errorf("failed to open %s: %w", r.File.Name, err)
		return c
	}
	defer rc.Close()

	c.Summary, c.Err = r.api.Summarize(ctx, r.src, r.File.Name, rc)
	return c
}

// Apply records a completion. It reports false when the completion is stale and was discarded.
func (o *Orchestrator) Apply(c Completion) bool {
	defer func() {
		if c.ID == o.inFlight {
			o.busy = false
			o.inFlight = ""
		}
	}()

	if c.ID == "" || c.ID != o.current {
		o.logger.Debug("discarding stale upload result", "id", c.ID)
		return false
	}
	o.current = ""

	if c.Err == nil {
		o.state = models.TransferState{Phase: models.Succeeded, FileName: c.FileName, Summary: c.Summary}
		o.logger.Info("upload succeeded", "id", c.ID, "file", c.FileName)
		return true
	}

	msg := failureMessage(c.Err)
	if errors.Is(c.Err, shared.ErrUnauthorized) {
		msg = MsgSessionExpired
		if holds(o.session, o.sentWith) {
			o.session.Invalidate(MsgSessionExpired)
		} else {
			o.logger.Debug("rejected token already replaced, keeping session", "id", c.ID)
		}
	}
	o.state = models.TransferState{Phase: models.Failed, FileName: c.FileName, Error: msg}
	o.logger.Error("upload failed", "id", c.ID, "file", c.FileName, "error", c.Err)
	return true
}

// Upload submits the pending file and waits for the outcome.
func (o *Orchestrator) Upload(ctx context.Context) (models.TransferState, error) {
	req, err := o.Submit()
	if err != nil {
		return o.state, err
	}
	c := req.Run(ctx)
	o.Apply(c)
	return o.state, c.Err
}

// Download saves the displayed summary under its suggested name and returns where it was written.
func (o *Orchestrator) Download(s Saver) (string, error) {
	if o.state.Phase != models.Succeeded {
		return "", shared.ErrNoSummary
	}
	return s.Save(SuggestedName(o.state.FileName), []byte(o.state.Summary))
}

func (o *Orchestrator) State() models.TransferState { return o.state }

func (o *Orchestrator) Busy() bool { return o.busy }

func (o *Orchestrator) DropActive() bool { return o.dropActive }

// CanSubmit reports whether the submit affordance should be enabled.
func (o *Orchestrator) CanSubmit() bool { return !o.busy && o.pending != nil }

// PendingName returns the name of the pending file, or "" when none is selected.
func (o *Orchestrator) PendingName() string {
	if o.pending == nil {
		return ""
	}
	return o.pending.Name
}

// holds reports whether the session still carries the access token a request was sent with.
// An unauthenticated session holds the empty token.
func holds(s Session, sent string) bool {
	tok, err := s.Token()
	if err != nil || tok == nil {
		return sent == ""
	}
	return tok.AccessToken == sent
}

func failureMessage(err error) string {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return MsgSomethingWrong
	}
	return MsgUploadFailed
}
