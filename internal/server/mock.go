package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/shared"
)

const (
	maxUploadBytes = 10 << 20
	summaryWords   = 60
)

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".pptx": true,
	".txt":  true,
	".md":   true,
}

type mockUser struct {
	Email    string
	Password string
}

// MockAPI is an in-memory implementation of the summarization service.
type MockAPI struct {
	mu        sync.Mutex
	users     map[string]mockUser
	tokens    map[string]string // access token -> username
	summaries []models.SummaryRecord
	now       func() time.Time
	logger    *log.Logger
	router    Router
}

// NewMockAPI creates a mock with no users, tokens or summaries.
func NewMockAPI(logger *log.Logger) *MockAPI {
	if logger == nil {
		logger = shared.NopLogger()
	}
	m := &MockAPI{
		users:  map[string]mockUser{},
		tokens: map[string]string{},
		now:    time.Now,
		logger: logger,
		router: NewBasicRouter(),
	}

	m.router.Use(RequestLogger(logger))
	m.router.NotAllowed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", r.Method))
	}))
	m.router.Handler(m)
	return m
}

// Routes lists the endpoints of the summarization service.
func (m *MockAPI) Routes() []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/api/auth/register/", Handler: http.HandlerFunc(m.register)},
		{Method: http.MethodPost, Path: "/api/auth/token/", Handler: http.HandlerFunc(m.obtainToken)},
		{Method: http.MethodPost, Path: "/api/summarize/", Handler: m.requireBearer(http.HandlerFunc(m.summarize))},
		{Method: http.MethodGet, Path: "/api/summaries/", Handler: m.requireBearer(http.HandlerFunc(m.listSummaries))},
	}
}

func (m *MockAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.router.ServeHTTP(w, r)
}

// AddUser registers an account directly.
func (m *MockAPI) AddUser(username, email, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[username] = mockUser{Email: email, Password: password}
}

// IssueToken returns a valid access token for username without a login round trip.
func (m *MockAPI) IssueToken(username string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok := shared.GenerateID()
	m.tokens[tok] = username
	return tok
}

// RevokeTokens invalidates every issued token, as an expiry would.
func (m *MockAPI) RevokeTokens() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = map[string]string{}
}

// AddSummary stores a record as if it had been generated.
func (m *MockAPI) AddSummary(rec models.SummaryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.now()
	}
	m.summaries = append(m.summaries, rec)
}

// Summaries returns the stored records newest first.
func (m *MockAPI) Summaries() []models.SummaryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SummaryRecord, len(m.summaries))
	for i, rec := range m.summaries {
		out[len(m.summaries)-1-i] = rec
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (m *MockAPI) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		m.mu.Lock()
		_, valid := m.tokens[token]
		m.mu.Unlock()

		if !valid {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MockAPI) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	switch {
	case body.Username == "":
		writeDetail(w, http.StatusBadRequest, "Username is required.")
		return
	case len(body.Password) < models.MinPasswordLength:
		writeDetail(w, http.StatusBadRequest,
			fmt.Sprintf("Ensure this field has at least %d characters.", models.MinPasswordLength))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[body.Username]; exists {
		writeDetail(w, http.StatusBadRequest, "A user with that username already exists.")
		return
	}
	m.users[body.Username] = mockUser{Email: body.Email, Password: body.Password}
	m.logger.Debug("registered user", "username", body.Username)

	writeJSON(w, http.StatusCreated, map[string]string{"username": body.Username, "email": body.Email})
}

func (m *MockAPI) obtainToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[body.Username]
	if !ok || user.Password != body.Password {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	access := shared.GenerateID()
	m.tokens[access] = body.Username
	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": shared.GenerateID()})
}

func (m *MockAPI) summarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	if !supportedExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unsupported file type"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	text := extractText(header.Filename, data)
	if strings.TrimSpace(text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "File has no readable text."})
		return
	}

	overview, summary := Summarize(header.Filename, text)
	m.AddSummary(models.SummaryRecord{FileName: header.Filename, SummaryText: summary})

	writeJSON(w, http.StatusOK, map[string]string{"overview": overview, "summary": summary})
}

func (m *MockAPI) listSummaries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.Summaries())
}

// extractText returns the readable text of an upload. Binary office formats are not parsed; their printable runs
// stand in for the text.
func extractText(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		if utf8.Valid(data) {
			return string(data)
		}
	}

	var b strings.Builder
	for _, c := range data {
		if c >= 0x20 && c < 0x7f || c == '\n' {
			b.WriteByte(c)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Summarize produces the mock overview and summary of text: the first line, then the leading words.
func Summarize(name, text string) (overview, summary string) {
	words := strings.Fields(text)
	truncated := len(words) > summaryWords
	if truncated {
		words = words[:summaryWords]
	}

	overview = fmt.Sprintf("Overview of %s", name)
	body := strings.Join(words, " ")
	if truncated {
		body += "..."
	}
	return overview, overview + "\n\n" + body
}
