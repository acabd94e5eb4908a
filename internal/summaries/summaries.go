package summaries

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	MsgLoadFailed     = "Failed to load summaries."
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgLoading        = "Loading summaries..."
	MsgEmpty          = "No summaries found."

	// PreviewLength is the number of characters shown before a summary is cut off.
	PreviewLength = 150
)

// Lister fetches the stored summaries.
type Lister interface {
	ListSummaries(ctx context.Context, src oauth2.TokenSource) ([]models.SummaryRecord, error)
}

// Session supplies the bearer token and is told when the service rejects it.
type Session interface {
	Token() (*oauth2.Token, error)
	Invalidate(reason string)
}

// State is the load state of the history view.
type State int

const (
	Idle State = iota
	Loading
	Failed
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Failed:
		return "error"
	case Ready:
		return "ready"
	default:
		return ""
	}
}

// Browser holds the loaded collection. Like the transfer orchestrator it belongs to a single goroutine.
type Browser struct {
	api     Lister
	session Session
	logger  *log.Logger

	state   State
	records []models.SummaryRecord
	err      string
	current  string
	sentWith string // access token attached to the current fetch
}

func New(api Lister, session Session, logger *log.Logger) *Browser {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Browser{api: api, session: session, logger: logger}
}

// Fetch is one listing request.
type Fetch struct {
	ID  string
	api Lister
	src oauth2.TokenSource
}

// FetchResult is the outcome of [Fetch.Run].
type FetchResult struct {
	ID      string
	Records []models.SummaryRecord
	Err     error
}

// Begin moves to Loading and returns the request to run. Any earlier fetch still in flight becomes stale.
func (b *Browser) Begin() *Fetch {
	b.current = shared.GenerateID()
	b.state = Loading
	b.err = ""

	var src oauth2.TokenSource
	b.sentWith = ""
	if tok, err := b.session.Token(); err == nil {
		src = oauth2.StaticTokenSource(tok)
		b.sentWith = tok.AccessToken
	}
	return &Fetch{ID: b.current, api: b.api, src: src}
}

// Reload starts a fresh fetch at the user's request.
func (b *Browser) Reload() *Fetch {
	b.logger.Debug("reloading summaries")
	return b.Begin()
}

func (f *Fetch) Run(ctx context.Context) FetchResult {
	records, err := f.api.ListSummaries(ctx, f.src)
	return FetchResult{ID: f.ID, Records: records, Err: err}
}

// Apply records a fetch outcome and reports whether it was current.
//
// A failure keeps no partial data. A 401 also invalidates the session.
func (b *Browser) Apply(res FetchResult) bool {
	if res.ID == "" || res.ID != b.current {
		b.logger.Debug("discarding stale listing", "id", res.ID)
		return false
	}
	b.current = ""

	if res.Err != nil {
		b.records = nil
		b.state = Failed
		b.err = MsgLoadFailed
		if errors.Is(res.Err, shared.ErrUnauthorized) {
			b.err = MsgSessionExpired
			if holds(b.session, b.sentWith) {
				b.session.Invalidate(MsgSessionExpired)
			}
		}
		b.logger.Error("failed to load summaries", "error", res.Err)
		return true
	}

	b.records = res.Records
	b.state = Ready
	b.logger.Debug("summaries loaded", "count", len(res.Records))
	return true
}

// Load fetches and applies synchronously.
func (b *Browser) Load(ctx context.Context) error {
	res := b.Begin().Run(ctx)
	b.Apply(res)
	return res.Err
}

func (b *Browser) State() State { return b.state }

// ErrorMessage is the short message shown in the Failed state.
func (b *Browser) ErrorMessage() string { return b.err }

// Records returns the loaded collection in server order.
func (b *Browser) Records() []models.SummaryRecord { return b.records }

// Filter applies q to the loaded collection.
func (b *Browser) Filter(q string) Result {
	return Filter(b.records, q)
}

// Result is a filtered view of the collection.
type Result struct {
	Query   string
	Records []models.SummaryRecord
}

// Empty reports whether the query matched nothing, which the view renders as "no results".
func (r Result) Empty() bool { return len(r.Records) == 0 }

// Filter keeps records whose file name or summary text contains q, ignoring case. Order is preserved and an
// empty query keeps everything.
func Filter(records []models.SummaryRecord, q string) Result {
	if q == "" {
		out := make([]models.SummaryRecord, len(records))
		copy(out, records)
		return Result{Records: out}
	}

	needle := strings.ToLower(q)
	out := make([]models.SummaryRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.FileName), needle) ||
			strings.Contains(strings.ToLower(r.SummaryText), needle) {
			out = append(out, r)
		}
	}
	return Result{Query: q, Records: out}
}

// holds reports whether the session still carries the access token a fetch was sent with.
func holds(s Session, sent string) bool {
	tok, err := s.Token()
	if err != nil || tok == nil {
		return sent == ""
	}
	return tok.AccessToken == sent
}

// Preview cuts text to [PreviewLength] characters and appends "..." when anything was dropped.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength]) + "..."
}
