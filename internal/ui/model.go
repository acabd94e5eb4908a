package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/session"
	"github.com/desertthunder/sumx/internal/shared"
	"github.com/desertthunder/sumx/internal/summaries"
	"github.com/desertthunder/sumx/internal/transfer"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AuthView ViewState = iota
	UploadView
	HistoryView
)

const (
	fieldUsername = iota
	fieldPassword
	fieldEmail
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	session  *session.Manager
	transfer *transfer.Orchestrator
	browser  *summaries.Browser
	saver    transfer.Saver
	logger   *log.Logger

	view   ViewState
	width  int
	height int

	mode   models.AuthMode
	fields []textinput.Model
	focus  int

	path     textinput.Model
	notice   string
	spinner  spinner.Model
	viewport viewport.Model
	md       *markdown
	shown    string // summary currently loaded into the viewport

	query   textinput.Model
	results list.Model

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(
	ctx context.Context,
	sess *session.Manager,
	orchestrator *transfer.Orchestrator,
	browser *summaries.Browser,
	saver transfer.Saver,
	logger *log.Logger,
) *Model {
	if logger == nil {
		logger = shared.NopLogger()
	}

	m := &Model{
		ctx:      ctx,
		session:  sess,
		transfer: orchestrator,
		browser:  browser,
		saver:    saver,
		logger:   logger,
		view:     UploadView,
		fields:   newAuthFields(),
		path:     newInput("Path to a file (or paste/drag one here)", 0),
		query:    newInput("Search summaries...", 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		viewport: viewport.New(80, 12),
		md:       newMarkdown(78),
		help:     help.New(),
		keys:     newKeyMap(),
	}

	m.results = list.New(nil, list.NewDefaultDelegate(), 80, 16)
	m.results.Title = "Summary History"
	m.results.SetShowStatusBar(false)
	m.results.SetFilteringEnabled(false)
	m.results.SetShowHelp(false)
	m.results.DisableQuitKeybindings()

	if !sess.IsAuthenticated() {
		m.view = AuthView
	}
	m.focusView()
	return m
}

func newInput(placeholder string, echo textinput.EchoMode) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.EchoMode = echo
	ti.CharLimit = 512
	ti.Width = 50
	return ti
}

func newAuthFields() []textinput.Model {
	password := newInput("Password", textinput.EchoPassword)
	password.EchoCharacter = '•'
	return []textinput.Model{
		newInput("Username", textinput.EchoNormal),
		password,
		newInput("Email", textinput.EchoNormal),
	}
}

// Init loads the summary history when a restored session is already authenticated.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.session.IsAuthenticated() {
		cmds = append(cmds, m.startListing())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.transfer.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		switch m.view {
		case AuthView:
			return m.handleAuthKeys(msg)
		case UploadView:
			return m.handleUploadKeys(msg)
		case HistoryView:
			return m.handleHistoryKeys(msg)
		}
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgExchangeDone:
		res := msg.data.(session.ExchangeResult)
		if err := m.session.Complete(res); err != nil {
			m.logger.Debug("exchange completed with error", "error", err)
		}
		if m.session.IsAuthenticated() {
			m.resetAuthForm()
			m.view = UploadView
			m.focusView()
			return m, m.startListing()
		}
		if res.Err == nil && res.Mode == models.Register {
			m.mode = models.Login
			m.fields[fieldPassword].SetValue("")
			m.focus = fieldPassword
			m.focusView()
		}
		return m, nil

	case MsgUploadDone:
		c := msg.data.(transfer.Completion)
		m.transfer.Apply(c)
		m.syncSummary()
		m.gate()
		return m, nil

	case MsgListingDone:
		res := msg.data.(summaries.FetchResult)
		m.browser.Apply(res)
		m.refreshResults()
		m.gate()
		return m, nil
	}
	return m, nil
}

// gate sends the user back to the auth view once the session is gone.
func (m *Model) gate() {
	if m.session.IsAuthenticated() || m.view == AuthView {
		return
	}
	m.view = AuthView
	m.focus = fieldUsername
	m.focusView()
}

func (m *Model) handleAuthKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.mode):
		if m.mode == models.Login {
			m.mode = models.Register
		} else {
			m.mode = models.Login
			if m.focus == fieldEmail {
				m.focus = fieldUsername
			}
		}
		m.focusView()
		return m, nil

	case key.Matches(msg, m.keys.next):
		m.focus = (m.focus + 1) % m.fieldCount()
		m.focusView()
		return m, nil

	case key.Matches(msg, m.keys.prev):
		m.focus = (m.focus + m.fieldCount() - 1) % m.fieldCount()
		m.focusView()
		return m, nil

	case key.Matches(msg, m.keys.submit):
		return m, m.startExchange()
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) handleUploadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		m.dropPaths(string(msg.Runes))
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.next, m.keys.prev):
		m.view = HistoryView
		m.focusView()
		return m, nil

	case key.Matches(msg, m.keys.submit):
		cmd := m.startUpload()
		if cmd == nil {
			return m, nil
		}
		return m, tea.Batch(cmd, m.spinner.Tick)

	case key.Matches(msg, m.keys.save):
		m.download()
		return m, nil

	case key.Matches(msg, m.keys.logout):
		m.logout()
		return m, nil

	case key.Matches(msg, m.keys.scrollUp, m.keys.scrollDn):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.next, m.keys.prev):
		m.view = UploadView
		m.focusView()
		return m, nil

	case key.Matches(msg, m.keys.reload):
		return m, m.reloadListing()

	case key.Matches(msg, m.keys.logout):
		m.logout()
		return m, nil

	case key.Matches(msg, m.keys.scrollUp, m.keys.scrollDn):
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	before := m.query.Value()
	m.query, cmd = m.query.Update(msg)
	if m.query.Value() != before {
		m.refreshResults()
	}
	return m, cmd
}

// startExchange validates the form and returns the command running the credential exchange.
func (m *Model) startExchange() tea.Cmd {
	creds := models.Credentials{
		Mode:     m.mode,
		Username: strings.TrimSpace(m.fields[fieldUsername].Value()),
		Password: m.fields[fieldPassword].Value(),
		Email:    strings.TrimSpace(m.fields[fieldEmail].Value()),
	}

	ex, err := m.session.Begin(creds)
	if err != nil {
		m.logger.Debug("credential submission rejected", "error", err)
		return nil
	}

	ctx := m.ctx
	return func() tea.Msg {
		return exchangeDoneMsg(ex.Run(ctx))
	}
}

// startUpload selects a typed path when there is one, then submits the pending file.
func (m *Model) startUpload() tea.Cmd {
	m.notice = ""
	if path := cleanPath(m.path.Value()); path != "" {
		if !m.selectPath(path) {
			return nil
		}
		m.path.SetValue("")
	}

	req, err := m.transfer.Submit()
	if err != nil {
		m.notice = transfer.MsgSelectFile
		if errors.Is(err, shared.ErrBusy) {
			m.notice = "A file is already being summarized."
		}
		return nil
	}
	m.syncSummary()

	ctx := m.ctx
	return func() tea.Msg {
		return uploadDoneMsg(req.Run(ctx))
	}
}

func (m *Model) startListing() tea.Cmd {
	f := m.browser.Begin()
	m.refreshResults()
	ctx := m.ctx
	return func() tea.Msg {
		return listingDoneMsg(f.Run(ctx))
	}
}

func (m *Model) reloadListing() tea.Cmd {
	f := m.browser.Reload()
	m.refreshResults()
	ctx := m.ctx
	return func() tea.Msg {
		return listingDoneMsg(f.Run(ctx))
	}
}

// dropPaths treats pasted text as a drop of one or more files.
func (m *Model) dropPaths(text string) {
	m.transfer.DragOver()

	var files []models.PendingFile
	for _, line := range strings.Split(text, "\n") {
		path := cleanPath(line)
		if path == "" {
			continue
		}
		if notice := checkFile(path); notice != "" {
			m.notice = notice
			continue
		}
		files = append(files, models.LocalFile(path))
	}

	if len(files) == 0 {
		m.transfer.DragLeave()
		return
	}
	m.notice = ""
	m.transfer.Drop(files)
	m.syncSummary()
}

// checkFile returns the notice explaining why path cannot be uploaded, or "" when it can.
func checkFile(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Sprintf("File not found: %s", path)
	}
	if info.IsDir() {
		return fmt.Sprintf("%s is a directory", path)
	}
	return ""
}

func (m *Model) selectPath(path string) bool {
	if notice := checkFile(path); notice != "" {
		m.notice = notice
		return false
	}
	m.transfer.Select(models.LocalFile(path))
	m.syncSummary()
	return true
}

func (m *Model) download() {
	path, err := m.transfer.Download(m.saver)
	if err != nil {
		m.notice = "Nothing to save yet."
		if !errors.Is(err, shared.ErrNoSummary) {
			m.notice = fmt.Sprintf("Could not save summary: %v", err)
		}
		return
	}
	m.notice = fmt.Sprintf("Saved to %s", path)
}

func (m *Model) logout() {
	if err := m.session.Logout(); err != nil {
		m.logger.Error("logout failed", "error", err)
	}
	m.gate()
}

func (m *Model) resetAuthForm() {
	for i := range m.fields {
		m.fields[i].SetValue("")
	}
	m.mode = models.Login
	m.focus = fieldUsername
}

func (m *Model) fieldCount() int {
	if m.mode == models.Register {
		return 3
	}
	return 2
}

// focusView gives keyboard focus to the input owned by the current view.
func (m *Model) focusView() {
	for i := range m.fields {
		m.fields[i].Blur()
	}
	m.path.Blur()
	m.query.Blur()

	switch m.view {
	case AuthView:
		m.fields[m.focus].Focus()
	case UploadView:
		m.path.Focus()
	case HistoryView:
		m.query.Focus()
	}
}

// syncSummary loads the current summary into the viewport when it changed.
func (m *Model) syncSummary() {
	st := m.transfer.State()
	if st.Phase != models.Succeeded {
		m.shown = ""
		m.viewport.SetContent("")
		return
	}
	if st.Summary == m.shown {
		return
	}
	m.shown = st.Summary
	m.viewport.SetContent(m.md.render(st.Summary))
	m.viewport.GotoTop()
}

func (m *Model) refreshResults() {
	m.results.SetItems(summaryItems(m.browser.Filter(m.query.Value()).Records))
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	inner := max(width-4, 20)
	m.path.Width = inner - 4
	m.query.Width = inner - 4
	for i := range m.fields {
		m.fields[i].Width = min(inner-4, 50)
	}

	m.viewport.Width = inner
	m.viewport.Height = max(height-16, 5)
	m.md.resize(inner - 2)
	if m.shown != "" {
		m.viewport.SetContent(m.md.render(m.shown))
	}

	m.results.SetSize(inner, max(height-10, 5))
}

// cleanPath undoes the quoting terminals apply to pasted or dragged paths.
func cleanPath(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	s = strings.TrimPrefix(s, "file://")
	return strings.ReplaceAll(s, `\ `, " ")
}
