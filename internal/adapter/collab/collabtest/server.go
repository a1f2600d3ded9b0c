// Package collabtest provides a scripted stand-in for the assistant server.
package collabtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ragchat/internal/infra/config"
)

// Request is what the server saw for one call.
type Request struct {
	Path   string
	Header http.Header
	Query  string // chat only, decoded from the JSON body
	Files  []File // upload only
	Raw    []byte // chat only
}

// File is one multipart file part.
type File struct {
	Field   string
	Name    string
	Content []byte
}

// Reply is a scripted response.
type Reply struct {
	Status int // defaults to 200
	Body   string
}

// Server records requests and answers with scripted replies.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	upload   []Reply
	chat     []Reply
}

// New starts a server that is closed when the test ends. Unscripted calls
// get a minimal success reply.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/upload/", s.handleUpload)
	r.Post("/chat/", s.handleChat)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// ServerConfig returns default server settings pointed at this server.
func (s *Server) ServerConfig() config.ServerConfig {
	cfg := config.Defaults().Server
	cfg.BaseURL = s.URL
	cfg.CSRFToken = "test-token"
	return cfg
}

// QueueUpload scripts the next upload replies, in order.
func (s *Server) QueueUpload(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upload = append(s.upload, replies...)
}

// QueueChat scripts the next chat replies, in order.
func (s *Server) QueueChat(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, replies...)
}

// JSON builds a 200 reply from v.
func JSON(v interface{}) Reply {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Reply{Body: string(b)}
}

// Requests returns a copy of everything received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	rec := Request{Path: r.URL.Path, Header: r.Header.Clone()}
	if err := r.ParseMultipartForm(32 << 20); err == nil {
		for field, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				f, err := fh.Open()
				if err != nil {
					continue
				}
				content, _ := io.ReadAll(f)
				f.Close()
				rec.Files = append(rec.Files, File{Field: field, Name: fh.Filename, Content: content})
			}
		}
	}
	s.respond(w, rec, &s.upload, `{"status":"success","chunks":1}`)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	rec := Request{Path: r.URL.Path, Header: r.Header.Clone()}
	rec.Raw, _ = io.ReadAll(r.Body)
	var body struct {
		Query string `json:"query"`
	}
	if json.Unmarshal(rec.Raw, &body) == nil {
		rec.Query = body.Query
	}
	s.respond(w, rec, &s.chat, `{"status":"success","answer":"ok"}`)
}

func (s *Server) respond(w http.ResponseWriter, rec Request, queue *[]Reply, fallback string) {
	s.mu.Lock()
	s.requests = append(s.requests, rec)
	reply := Reply{Body: fallback}
	if len(*queue) > 0 {
		reply = (*queue)[0]
		*queue = (*queue)[1:]
	}
	s.mu.Unlock()

	if reply.Status == 0 {
		reply.Status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	_, _ = io.WriteString(w, reply.Body)
}
