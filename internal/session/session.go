package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/services"
	"github.com/desertthunder/sumx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	MsgLoginFailed    = "Login failed. Please check your credentials."
	MsgRegisterFailed = "Registration failed. Please try again."
	MsgUnreachable    = "Could not reach the server. Please try again."
	MsgRegistered     = "Account created. Please log in."
	MsgExpired        = "Your session has expired. Please log in again."
)

// Authenticator performs the credential exchanges against the remote service.
type Authenticator interface {
	ObtainToken(ctx context.Context, username, password string) (*oauth2.Token, error)
	Register(ctx context.Context, username, email, password string) error
}

// TokenStore persists the access and refresh tokens between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
	Clear() error
}

// Manager is the single writer of the session. It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	auth    Authenticator
	store   TokenStore
	logger  *log.Logger
	status  models.Status
	token   *oauth2.Token
	message string
	pending string
}

// NewManager restores a persisted session when the store holds an access token. The token is not validated.
func NewManager(auth Authenticator, store TokenStore, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NopLogger()
	}
	m := &Manager{auth: auth, store: store, logger: logger, status: models.Unauthenticated}

	tok, err := store.Load()
	switch {
	case err != nil:
		logger.Warn("could not restore session", "error", err)
	case tok != nil && tok.AccessToken != "":
		m.token = tok
		m.status = models.Authenticated
		logger.Debug("session restored from storage")
	}
	return m
}

// Exchange is a credential submission that has been accepted but not yet sent.
type Exchange struct {
	ID    string
	creds models.Credentials
	auth  Authenticator
}

// ExchangeResult is the outcome of [Exchange.Run].
type ExchangeResult struct {
	ID    string
	Mode  models.AuthMode
	Token *oauth2.Token
	Err   error
}

// Run performs the network call. It does not touch session state.
func (e *Exchange) Run(ctx context.Context) ExchangeResult {
	res := ExchangeResult{ID: e.ID, Mode: e.creds.Mode}
	switch e.creds.Mode {
	case models.Register:
		res.Err = e.auth.Register(ctx, e.creds.Username, e.creds.Email, e.creds.Password)
	default:
		res.Token, res.Err = e.auth.ObtainToken(ctx, e.creds.Username, e.creds.Password)
	}
	return res
}

// Begin validates creds and moves the session to Authenticating.
//
// Validation failures leave the state untouched and make no network call.
func (m *Manager) Begin(creds models.Credentials) (*Exchange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case models.Authenticating:
		return nil, shared.ErrBusy
	case models.Authenticated:
		return nil, shared.ErrAlreadySignedIn
	}

	if err := creds.Validate(); err != nil {
		m.message = err.Error()
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if creds.Mode != models.Register {
		creds.Email = ""
	}

	m.status = models.Authenticating
	m.message = ""
	m.pending = shared.GenerateID()
	m.logger.Debug("credential exchange started", "mode", creds.Mode, "username", creds.Username)

	return &Exchange{ID: m.pending, creds: creds, auth: m.auth}, nil
}

// Complete applies an exchange outcome. Tokens are saved before the state flips to Authenticated.
func (m *Manager) Complete(res ExchangeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if res.ID == "" || res.ID != m.pending {
		m.logger.Debug("discarding exchange result", "id", res.ID)
		return nil
	}
	m.pending = ""
	m.status = models.Unauthenticated

	if res.Err != nil {
		m.message = failureMessage(res.Mode, res.Err)
		m.logger.Error("credential exchange failed", "mode", res.Mode, "error", res.Err)
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, m.message)
	}

	if res.Mode == models.Register {
		m.message = MsgRegistered
		m.logger.Info("account registered")
		return nil
	}

	if res.Token == nil || res.Token.AccessToken == "" {
		m.message = MsgLoginFailed
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, m.message)
	}

	if err := m.store.Save(res.Token); err != nil {
		m.message = "Could not save your session."
		m.logger.Error("failed to persist tokens", "error", err)
		return fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}

	m.token = res.Token
	m.status = models.Authenticated
	m.message = ""
	m.logger.Info("logged in")
	return nil
}

// SubmitCredentials runs a full exchange synchronously.
func (m *Manager) SubmitCredentials(ctx context.Context, creds models.Credentials) error {
	ex, err := m.Begin(creds)
	if err != nil {
		return err
	}
	return m.Complete(ex.Run(ctx))
}

// AccessToken returns the bearer token, or "" when not authenticated.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status != models.Authenticated || m.token == nil {
		return ""
	}
	return m.token.AccessToken
}

// Token implements [oauth2.TokenSource].
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status != models.Authenticated || m.token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	tok := *m.token
	return &tok, nil
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status == models.Authenticated
}

func (m *Manager) Status() models.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Message is the latest notice or error for the auth view.
func (m *Manager) Message() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.message
}

// Invalidate drops the session after the service rejected the token.
func (m *Manager) Invalidate(reason string) {
	if reason == "" {
		reason = MsgExpired
	}
	m.clear(reason)
	m.logger.Warn("session invalidated", "reason", reason)
}

// Logout clears the session at the user's request.
func (m *Manager) Logout() error {
	if err := m.clear(""); err != nil {
		return err
	}
	m.logger.Info("logged out")
	return nil
}

func (m *Manager) clear(message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = nil
	m.status = models.Unauthenticated
	m.pending = ""
	m.message = message

	if err := m.store.Clear(); err != nil {
		m.logger.Error("failed to clear stored tokens", "error", err)
		return fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}
	return nil
}

func failureMessage(mode models.AuthMode, err error) string {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if errors.Is(err, shared.ErrTransport) {
		return MsgUnreachable
	}
	if mode == models.Register {
		return MsgRegisterFailed
	}
	return MsgLoginFailed
}
