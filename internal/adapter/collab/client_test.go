package collab

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/adapter/collab/collabtest"
	"ragchat/internal/domain"
	"ragchat/internal/infra/config"
)

func newTestClient(t *testing.T, srv config.ServerConfig, opts ...Option) *Client {
	t.Helper()
	c, err := New(srv, config.BreakerConfig{}, opts...)
	require.NoError(t, err)
	return c
}

func tempFile(t *testing.T, name, content string) domain.FileHandle {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return domain.FileHandle{Name: name, SizeBytes: int64(len(content)), Path: path}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	srv := config.Defaults().Server
	srv.BaseURL = "::not a url"
	_, err := New(srv, config.BreakerConfig{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestUploadSuccessSendsMultipart(t *testing.T) {
	s := collabtest.New(t)
	s.QueueUpload(collabtest.JSON(map[string]interface{}{"status": "success", "chunks": 7}))
	c := newTestClient(t, s.ServerConfig())

	a := tempFile(t, "a.pdf", "alpha")
	b := tempFile(t, "b.txt", "bravo bravo")
	out := c.Upload(context.Background(), []domain.FileHandle{a, b})

	assert.Equal(t, domain.OutcomeSuccess, out.Kind)
	assert.Equal(t, 7, out.Chunks)
	assert.NoError(t, out.Err)

	reqs := s.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "/upload/", req.Path)
	assert.Equal(t, "test-token", req.Header.Get("X-CSRFToken"))
	assert.Len(t, req.Header.Get("X-Request-ID"), 26)
	require.Len(t, req.Files, 2)
	byName := map[string]collabtest.File{}
	for _, f := range req.Files {
		assert.Equal(t, "files", f.Field)
		byName[f.Name] = f
	}
	assert.Equal(t, "alpha", string(byName["a.pdf"].Content))
	assert.Equal(t, "bravo bravo", string(byName["b.txt"].Content))
}

func TestUploadOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		reply    collabtest.Reply
		wantKind domain.OutcomeKind
		wantMsg  string
		wantErr  error
	}{
		{
			name:     "declared failure with message",
			reply:    collabtest.Reply{Body: `{"status":"error","message":"No file uploaded"}`},
			wantKind: domain.OutcomeFailure,
			wantMsg:  "No file uploaded",
			wantErr:  domain.ErrDeclaredFailure,
		},
		{
			name:     "declared failure without message",
			reply:    collabtest.Reply{Body: `{"status":"error"}`},
			wantKind: domain.OutcomeFailure,
			wantErr:  domain.ErrDeclaredFailure,
		},
		{
			name:     "non-string message ignored",
			reply:    collabtest.Reply{Body: `{"status":"error","message":42}`},
			wantKind: domain.OutcomeFailure,
			wantErr:  domain.ErrDeclaredFailure,
		},
		{
			name:     "html error page",
			reply:    collabtest.Reply{Status: http.StatusInternalServerError, Body: "<html>boom</html>"},
			wantKind: domain.OutcomeMalformed,
			wantErr:  domain.ErrMalformedResponse,
		},
		{
			name:     "success without chunks",
			reply:    collabtest.Reply{Body: `{"status":"success"}`},
			wantKind: domain.OutcomeMalformed,
			wantErr:  domain.ErrMalformedResponse,
		},
		{
			name:     "status not a string",
			reply:    collabtest.Reply{Body: `{"status":true}`},
			wantKind: domain.OutcomeMalformed,
			wantErr:  domain.ErrMalformedResponse,
		},
		{
			name:     "json array",
			reply:    collabtest.Reply{Body: `[1,2]`},
			wantKind: domain.OutcomeMalformed,
			wantErr:  domain.ErrMalformedResponse,
		},
		{
			name:     "success body on error status still succeeds",
			reply:    collabtest.Reply{Status: http.StatusBadRequest, Body: `{"status":"success","chunks":0}`},
			wantKind: domain.OutcomeSuccess,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := collabtest.New(t)
			s.QueueUpload(tt.reply)
			c := newTestClient(t, s.ServerConfig())

			out := c.Upload(context.Background(), []domain.FileHandle{tempFile(t, "doc.txt", "x")})
			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantMsg, out.Message)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(out.Err, tt.wantErr), "err = %v", out.Err)
			} else {
				assert.NoError(t, out.Err)
			}
		})
	}
}

func TestUploadUnreadableFileNotSent(t *testing.T) {
	s := collabtest.New(t)
	c := newTestClient(t, s.ServerConfig())

	missing := domain.FileHandle{Name: "gone.pdf", Path: filepath.Join(t.TempDir(), "gone.pdf")}
	out := c.Upload(context.Background(), []domain.FileHandle{missing})

	assert.Equal(t, domain.OutcomeFailure, out.Kind)
	assert.Equal(t, "cannot read gone.pdf", out.Message)
	assert.True(t, errors.Is(out.Err, domain.ErrFileUnreadable))
	assert.Empty(t, s.Requests())
}

func TestAskSuccessSendsJSON(t *testing.T) {
	s := collabtest.New(t)
	s.QueueChat(collabtest.JSON(map[string]string{"status": "success", "answer": "Hi **there**"}))
	c := newTestClient(t, s.ServerConfig())

	out := c.Ask(context.Background(), "What is RAG?")
	assert.Equal(t, domain.OutcomeSuccess, out.Kind)
	assert.Equal(t, "Hi **there**", out.Answer)

	reqs := s.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "What is RAG?", reqs[0].Query)
	assert.JSONEq(t, `{"query":"What is RAG?"}`, string(reqs[0].Raw))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, "test-token", reqs[0].Header.Get("X-CSRFToken"))
}

func TestAskOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind domain.OutcomeKind
		wantMsg  string
	}{
		{"declared failure", `{"status":"error","message":"index empty"}`, domain.OutcomeFailure, "index empty"},
		{"failure without message", `{"status":"fail"}`, domain.OutcomeFailure, ""},
		{"success without answer", `{"status":"success"}`, domain.OutcomeMalformed, ""},
		{"answer not a string", `{"status":"success","answer":3}`, domain.OutcomeMalformed, ""},
		{"not json", `Internal Server Error`, domain.OutcomeMalformed, ""},
		{"empty body", ``, domain.OutcomeMalformed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := collabtest.New(t)
			s.QueueChat(collabtest.Reply{Body: tt.body})
			c := newTestClient(t, s.ServerConfig())

			out := c.Ask(context.Background(), "q")
			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantMsg, out.Message)
			assert.Error(t, out.Err)
		})
	}
}

func TestAskNetworkError(t *testing.T) {
	s := collabtest.New(t)
	cfg := s.ServerConfig()
	s.Close()

	c := newTestClient(t, cfg)
	out := c.Ask(context.Background(), "anyone there?")
	assert.Equal(t, domain.OutcomeNetwork, out.Kind)
	assert.True(t, errors.Is(out.Err, domain.ErrNetwork))
	assert.Equal(t, domain.CodeNetwork, domain.ErrorCodeOf(out.Err))
}

func TestAskTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	srv := config.Defaults().Server
	srv.BaseURL = ts.URL
	c := newTestClient(t, srv, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

	out := c.Ask(context.Background(), "slow")
	assert.Equal(t, domain.OutcomeNetwork, out.Kind)
}

func TestOversizedBodyIsMalformed(t *testing.T) {
	s := collabtest.New(t)
	s.QueueChat(collabtest.Reply{Body: `{"status":"success","answer":"` + strings.Repeat("a", 200) + `"}`})
	srv := s.ServerConfig()
	srv.MaxBodyBytes = 64

	var logs bytes.Buffer
	c := newTestClient(t, srv, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	out := c.Ask(context.Background(), "q")

	assert.Equal(t, domain.OutcomeMalformed, out.Kind)
	assert.Contains(t, logs.String(), "unexpected server response")
}

func TestMalformedBodyLoggedNotReturned(t *testing.T) {
	s := collabtest.New(t)
	s.QueueChat(collabtest.Reply{Body: "<h1>Server Error (500)</h1>"})

	var logs bytes.Buffer
	c := newTestClient(t, s.ServerConfig(), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	out := c.Ask(context.Background(), "q")

	assert.Equal(t, domain.OutcomeMalformed, out.Kind)
	assert.Empty(t, out.Message)
	assert.Contains(t, logs.String(), "Server Error (500)")
}

func TestNoTokenHeaderWhenTokenEmpty(t *testing.T) {
	s := collabtest.New(t)
	srv := s.ServerConfig()
	srv.CSRFToken = ""
	c := newTestClient(t, srv)

	c.Ask(context.Background(), "q")
	reqs := s.Requests()
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Header.Get("X-CSRFToken"))
}

func TestBreakerOpensAfterTransportFailures(t *testing.T) {
	s := collabtest.New(t)
	srv := s.ServerConfig()
	s.Close()

	c, err := New(srv, config.BreakerConfig{Enabled: true, MaxFailures: 2, Timeout: time.Minute})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		out := c.Ask(context.Background(), "q")
		require.Equal(t, domain.OutcomeNetwork, out.Kind)
		assert.False(t, errors.Is(out.Err, domain.ErrCircuitOpen))
	}

	out := c.Ask(context.Background(), "q")
	assert.Equal(t, domain.OutcomeNetwork, out.Kind)
	assert.True(t, errors.Is(out.Err, domain.ErrCircuitOpen))
	assert.True(t, errors.Is(out.Err, domain.ErrNetwork))
	assert.Equal(t, domain.CodeCircuitOpen, domain.ErrorCodeOf(out.Err))
}

func TestBreakerIgnoresDeclaredFailures(t *testing.T) {
	s := collabtest.New(t)
	for i := 0; i < 3; i++ {
		s.QueueChat(collabtest.Reply{Body: `{"status":"error"}`})
	}
	c, err := New(s.ServerConfig(), config.BreakerConfig{Enabled: true, MaxFailures: 1, Timeout: time.Minute})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		out := c.Ask(context.Background(), "q")
		assert.Equal(t, domain.OutcomeFailure, out.Kind)
	}
	assert.Len(t, s.Requests(), 3)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt([]byte("short")))
	long := excerpt(bytes.Repeat([]byte("x"), 300))
	assert.True(t, strings.HasSuffix(long, "...(truncated)"))
	assert.Len(t, long, 256+len("...(truncated)"))
}
