package transfer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/services"
	"github.com/desertthunder/sumx/internal/shared"
	tu "github.com/desertthunder/sumx/internal/testing"
	"golang.org/x/oauth2"
)

type fakeSession struct {
	token       *oauth2.Token
	invalidated []string
}

func (f *fakeSession) Token() (*oauth2.Token, error) {
	if f.token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return f.token, nil
}

func (f *fakeSession) Invalidate(reason string) {
	f.invalidated = append(f.invalidated, reason)
	f.token = nil
}

type fakeSummarizer struct {
	summary  string
	err      error
	calls    int
	lastName string
	lastBody string
	lastAuth string
}

func (f *fakeSummarizer) Summarize(_ context.Context, src oauth2.TokenSource, name string, r io.Reader) (string, error) {
	f.calls++
	f.lastName = name
	body, _ := io.ReadAll(r)
	f.lastBody = string(body)
	if src != nil {
		if tok, err := src.Token(); err == nil {
			f.lastAuth = tok.AccessToken
		}
	}
	return f.summary, f.err
}

func memFile(name, content string) models.PendingFile {
	return models.PendingFile{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(content)), nil },
	}
}

func assertExclusive(t *testing.T, st models.TransferState) {
	t.Helper()
	if st.Summary != "" && st.Error != "" {
		t.Errorf("summary and error both set: %+v", st)
	}
	if st.Summary != "" && st.Phase != models.Succeeded {
		t.Errorf("summary set outside Succeeded: %+v", st)
	}
	if st.Error != "" && st.Phase != models.Failed {
		t.Errorf("error set outside Failed: %+v", st)
	}
}

func TestSelection(t *testing.T) {
	t.Run("Select Clears Previous Outcome", func(t *testing.T) {
		api := &fakeSummarizer{summary: "S"}
		o := New(api, &fakeSession{}, 0, nil)
		o.Select(memFile("a.txt", "x"))
		o.Upload(context.Background())
		if o.State().Phase != models.Succeeded {
			t.Fatalf("expected succeeded, got %s", o.State().Phase)
		}

		o.Select(memFile("b.txt", "y"))
		st := o.State()
		if st.Phase != models.Selecting || st.Summary != "" || st.Error != "" || st.FileName != "b.txt" {
			t.Errorf("expected clean selecting state, got %+v", st)
		}
	})

	t.Run("Drop Takes First File", func(t *testing.T) {
		o := New(&fakeSummarizer{}, &fakeSession{}, 0, nil)
		if !o.DragOver() || !o.DropActive() {
			t.Fatal("expected drag over to be consumed and activate the target")
		}
		if !o.Drop([]models.PendingFile{memFile("one.txt", ""), memFile("two.txt", "")}) {
			t.Error("expected drop to be consumed")
		}
		if o.PendingName() != "one.txt" {
			t.Errorf("expected first file, got %q", o.PendingName())
		}
		if o.DropActive() {
			t.Error("expected drop target deactivated")
		}
	})

	t.Run("Empty Drop Is A No-op", func(t *testing.T) {
		o := New(&fakeSummarizer{}, &fakeSession{}, 0, nil)
		o.Select(memFile("keep.txt", ""))
		o.Drop(nil)
		if o.PendingName() != "keep.txt" || o.State().Phase != models.Selecting {
			t.Errorf("expected selection unchanged, got %q %s", o.PendingName(), o.State().Phase)
		}
	})

	t.Run("Drag Leave", func(t *testing.T) {
		o := New(&fakeSummarizer{}, &fakeSession{}, 0, nil)
		o.DragOver()
		o.DragLeave()
		if o.DropActive() {
			t.Error("expected drop target inactive")
		}
		if o.State().Phase != models.Idle {
			t.Errorf("drag events must not change phase, got %s", o.State().Phase)
		}
	})
}

func TestSubmit(t *testing.T) {
	t.Run("Nothing Selected", func(t *testing.T) {
		api := &fakeSummarizer{}
		o := New(api, &fakeSession{}, 0, nil)

		_, err := o.Submit()
		if !errors.Is(err, shared.ErrNoFileSelected) {
			t.Fatalf("expected ErrNoFileSelected, got %v", err)
		}
		if api.calls != 0 || o.Busy() || o.State().Phase != models.Idle {
			t.Error("expected no call and no state change")
		}
	})

	t.Run("Busy Rejects Second Submit", func(t *testing.T) {
		o := New(&fakeSummarizer{summary: "S"}, &fakeSession{}, 0, nil)
		o.Select(memFile("a.txt", "x"))

		req, err := o.Submit()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !o.Busy() || o.CanSubmit() || o.State().Phase != models.Uploading {
			t.Errorf("expected busy uploading state, got %+v", o.State())
		}
		if _, err := o.Submit(); !errors.Is(err, shared.ErrBusy) {
			t.Errorf("expected ErrBusy, got %v", err)
		}

		o.Apply(req.Run(context.Background()))
		if o.Busy() || !o.CanSubmit() {
			t.Error("expected busy cleared")
		}
	})

	t.Run("Captures Token", func(t *testing.T) {
		api := &fakeSummarizer{summary: "S"}
		o := New(api, &fakeSession{token: &oauth2.Token{AccessToken: "tok1"}}, 0, nil)
		o.Select(memFile("a.txt", "body"))
		o.Upload(context.Background())

		if api.lastAuth != "tok1" || api.lastName != "a.txt" || api.lastBody != "body" {
			t.Errorf("unexpected call: %+v", api)
		}
	})

	t.Run("No Token Proceeds Unauthenticated", func(t *testing.T) {
		api := &fakeSummarizer{summary: "S"}
		o := New(api, &fakeSession{}, 0, nil)
		o.Select(memFile("a.txt", "body"))
		o.Upload(context.Background())

		if api.calls != 1 || api.lastAuth != "" {
			t.Errorf("expected one unauthenticated call, got %+v", api)
		}
	})
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"api detail", &services.APIError{Status: 400, Detail: "Unsupported file type"}, "Unsupported file type"},
		{"api without detail", &services.APIError{Status: 500}, MsgSomethingWrong},
		{"transport", shared.ErrTransport, MsgUploadFailed},
		{"decode", shared.ErrDecode, MsgUploadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(&fakeSummarizer{err: tt.err}, &fakeSession{}, 0, nil)
			o.Select(memFile("a.txt", "x"))
			st, err := o.Upload(context.Background())

			if err == nil {
				t.Fatal("expected error")
			}
			if st.Phase != models.Failed || st.Error != tt.want {
				t.Errorf("expected failed with %q, got %+v", tt.want, st)
			}
			if o.Busy() {
				t.Error("expected busy cleared")
			}
			assertExclusive(t, st)
		})
	}

	t.Run("Unreadable File", func(t *testing.T) {
		api := &fakeSummarizer{}
		o := New(api, &fakeSession{}, 0, nil)
		o.Select(models.PendingFile{Name: "gone.txt", Open: tu.FOpener()})
		st, _ := o.Upload(context.Background())

		if api.calls != 0 || st.Error != MsgUploadFailed {
			t.Errorf("expected no call and generic failure, got %d calls, %+v", api.calls, st)
		}
	})

	t.Run("Unauthorized Invalidates Session", func(t *testing.T) {
		sess := &fakeSession{token: &oauth2.Token{AccessToken: "old"}}
		o := New(&fakeSummarizer{err: &services.APIError{Status: 401}}, sess, 0, nil)
		o.Select(memFile("a.txt", "x"))
		st, _ := o.Upload(context.Background())

		if len(sess.invalidated) != 1 {
			t.Fatalf("expected session invalidated once, got %v", sess.invalidated)
		}
		if st.Error != MsgSessionExpired {
			t.Errorf("expected session expired message, got %q", st.Error)
		}
	})

	t.Run("Unauthorized After Relogin Keeps New Session", func(t *testing.T) {
		sess := &fakeSession{token: &oauth2.Token{AccessToken: "old"}}
		o := New(&fakeSummarizer{err: &services.APIError{Status: 401}}, sess, 0, nil)
		o.Select(memFile("a.txt", "x"))
		req, err := o.Submit()
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}

		sess.token = &oauth2.Token{AccessToken: "new"}
		o.Apply(req.Run(context.Background()))

		if len(sess.invalidated) != 0 {
			t.Errorf("expected new session kept, got invalidations %v", sess.invalidated)
		}
		if sess.token == nil || sess.token.AccessToken != "new" {
			t.Errorf("expected token new, got %+v", sess.token)
		}
		if st := o.State(); st.Phase != models.Failed || st.Error != MsgSessionExpired {
			t.Errorf("expected failed upload, got %+v", st)
		}
	})

	t.Run("Unauthorized Without Token Still Reports Expiry", func(t *testing.T) {
		sess := &fakeSession{}
		o := New(&fakeSummarizer{err: &services.APIError{Status: 401}}, sess, 0, nil)
		o.Select(memFile("a.txt", "x"))
		o.Upload(context.Background())

		if len(sess.invalidated) != 1 {
			t.Errorf("expected one invalidation, got %v", sess.invalidated)
		}
	})

	t.Run("Stale Completion Is Discarded", func(t *testing.T) {
		o := New(&fakeSummarizer{summary: "old summary"}, &fakeSession{}, 0, nil)
		o.Select(memFile("first.txt", "x"))
		req, _ := o.Submit()

		o.Select(memFile("second.txt", "y"))
		if applied := o.Apply(req.Run(context.Background())); applied {
			t.Error("expected stale completion to be discarded")
		}

		st := o.State()
		if st.Phase != models.Selecting || st.FileName != "second.txt" || st.Summary != "" {
			t.Errorf("expected new selection untouched, got %+v", st)
		}
		if o.Busy() {
			t.Error("expected busy cleared after stale completion")
		}
	})

	t.Run("Unknown Completion Leaves Busy", func(t *testing.T) {
		o := New(&fakeSummarizer{summary: "S"}, &fakeSession{}, 0, nil)
		o.Select(memFile("a.txt", "x"))
		o.Submit()

		if o.Apply(Completion{ID: "other"}) {
			t.Error("expected unknown completion discarded")
		}
		if !o.Busy() {
			t.Error("unknown completion must not clear the in-flight request")
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		o := New(services.NewAPIService(server.URL, nil), &fakeSession{}, 50*time.Millisecond, nil)
		o.Select(memFile("a.txt", "x"))
		st, err := o.Upload(context.Background())

		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
		if st.Error != MsgUploadFailed || o.Busy() {
			t.Errorf("expected generic failure with busy cleared, got %+v", st)
		}
	})
}

func TestEndToEnd(t *testing.T) {
	t.Run("Report Summary", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"summary":"This is a summary."}`))
		}))
		defer server.Close()

		o := New(services.NewAPIService(server.URL, nil), &fakeSession{token: &oauth2.Token{AccessToken: "tok1"}}, time.Second, nil)
		o.Select(memFile("report.pdf", "%PDF"))
		st, err := o.Upload(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if st.Phase != models.Succeeded || st.Summary != "This is a summary." {
			t.Fatalf("expected succeeded, got %+v", st)
		}

		dir := t.TempDir()
		path, err := o.Download(DirSaver{Dir: dir})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if filepath.Base(path) != "report_summary.txt" {
			t.Errorf("expected report_summary.txt, got %s", path)
		}
		if got := tu.MustReadFile(t, path); got != "This is a summary." {
			t.Errorf("unexpected file content %q", got)
		}
	})

	t.Run("Server Error Without Body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		o := New(services.NewAPIService(server.URL, nil), &fakeSession{}, time.Second, nil)
		o.Select(memFile("report.pdf", "%PDF"))
		st, _ := o.Upload(context.Background())

		if st.Phase != models.Failed || st.Error != MsgSomethingWrong {
			t.Errorf("expected generic failure, got %+v", st)
		}
		if o.Busy() {
			t.Error("expected busy cleared")
		}
		if _, err := o.Download(DirSaver{Dir: t.TempDir()}); !errors.Is(err, shared.ErrNoSummary) {
			t.Errorf("expected ErrNoSummary, got %v", err)
		}
	})
}
