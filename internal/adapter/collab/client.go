package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/trace"

	"ragchat/internal/domain"
	"ragchat/internal/infra/config"
	"ragchat/internal/infra/tracer"
)

// Client talks to the document assistant over HTTP. Every call yields an
// outcome value; declared failures, malformed bodies and transport errors
// are outcomes, not Go errors.
type Client struct {
	httpClient  *http.Client
	uploadURL   string
	chatURL     string
	token       string
	tokenHeader string
	uploadField string
	maxBody     int64
	breaker     *gobreaker.CircuitBreaker[*exchange]
	logger      *slog.Logger
}

// exchange is a completed HTTP round trip.
type exchange struct {
	status    int
	body      []byte
	truncated bool // body exceeded the configured cap
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the server described by srv.
func New(srv config.ServerConfig, brk config.BreakerConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(srv.BaseURL)
	if err != nil || base.Host == "" {
		return nil, domain.NewDomainError("Collab.New", domain.ErrInvalidInput, fmt.Sprintf("bad base url %q", srv.BaseURL))
	}
	root := strings.TrimRight(srv.BaseURL, "/")

	c := &Client{
		uploadURL:   root + srv.UploadPath,
		chatURL:     root + srv.ChatPath,
		token:       srv.CSRFToken,
		tokenHeader: srv.CSRFHeader,
		uploadField: srv.UploadField,
		maxBody:     srv.MaxBodyBytes,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(srv)
	}
	if c.tokenHeader == "" {
		c.tokenHeader = "X-CSRFToken"
	}
	if c.uploadField == "" {
		c.uploadField = "files"
	}
	if c.maxBody <= 0 {
		c.maxBody = 4 << 20
	}
	c.breaker = newBreaker(brk, c.logger)
	return c, nil
}

var _ domain.Collaborator = (*Client)(nil)

// Upload sends every file in one multipart request.
func (c *Client) Upload(ctx context.Context, files []domain.FileHandle) domain.UploadOutcome {
	const op = "Collab.Upload"
	reqID := newRequestID()
	ctx, span := tracer.StartSpan(ctx, "collab.upload")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("request.id", reqID),
		tracer.IntAttr("files.count", len(files)),
	)
	log := c.logger.With("op", op, "request_id", reqID)
	start := time.Now()

	body, contentType, err := c.multipartBody(files)
	if err != nil {
		// Nothing was sent; report the unreadable file on the status line.
		var de *domain.DomainError
		msg := err.Error()
		if errors.As(err, &de) {
			msg = de.Detail
		}
		log.Warn("upload not sent", "error", err)
		tracer.RecordError(span, err)
		return domain.UploadOutcome{Kind: domain.OutcomeFailure, Message: msg, Err: err}
	}
	span.SetAttributes(tracer.Int64Attr("request.bytes", int64(body.Len())))

	ex, err := c.send(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		c.setHeaders(req, reqID)
		return req, nil
	})

	var out domain.UploadOutcome
	switch r, rerr := c.interpret(op, ex, err, uploadReplySchema); {
	case rerr == nil && r.success():
		out = domain.UploadOutcome{Kind: domain.OutcomeSuccess, Chunks: r.Chunks}
	case rerr == nil:
		out = domain.UploadOutcome{Kind: domain.OutcomeFailure, Message: r.Message,
			Err: domain.NewDomainError(op, domain.ErrDeclaredFailure, r.Message)}
	default:
		out = domain.UploadOutcome{Kind: outcomeKind(rerr), Err: rerr}
	}

	c.finish(log, span, ex, out.Kind, out.Err, time.Since(start), "chunks", out.Chunks)
	return out
}

type chatRequest struct {
	Query string `json:"query"`
}

// Ask sends one query to the chat endpoint.
func (c *Client) Ask(ctx context.Context, query string) domain.ChatOutcome {
	const op = "Collab.Ask"
	reqID := newRequestID()
	ctx, span := tracer.StartSpan(ctx, "collab.chat")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("request.id", reqID),
		tracer.IntAttr("query.len", len(query)),
	)
	log := c.logger.With("op", op, "request_id", reqID)
	start := time.Now()

	payload, err := json.Marshal(chatRequest{Query: query})
	if err != nil {
		// A string always marshals; keep the outcome total anyway.
		return domain.ChatOutcome{Kind: domain.OutcomeNetwork, Err: fmt.Errorf("%w: %w", domain.ErrNetwork, err)}
	}

	ex, err := c.send(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		c.setHeaders(req, reqID)
		return req, nil
	})

	var out domain.ChatOutcome
	switch r, rerr := c.interpret(op, ex, err, chatReplySchema); {
	case rerr == nil && r.success():
		out = domain.ChatOutcome{Kind: domain.OutcomeSuccess, Answer: r.Answer}
	case rerr == nil:
		out = domain.ChatOutcome{Kind: domain.OutcomeFailure, Message: r.Message,
			Err: domain.NewDomainError(op, domain.ErrDeclaredFailure, r.Message)}
	default:
		out = domain.ChatOutcome{Kind: outcomeKind(rerr), Err: rerr}
	}

	c.finish(log, span, ex, out.Kind, out.Err, time.Since(start), "answer.len", len(out.Answer))
	return out
}

func (c *Client) setHeaders(req *http.Request, reqID string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.token != "" {
		req.Header.Set(c.tokenHeader, c.token)
	}
}

// multipartBody buffers the whole form. Every file is opened up front so an
// unreadable one stops the upload before anything is sent.
func (c *Client) multipartBody(files []domain.FileHandle) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, f := range files {
		if err := c.writeFilePart(mw, f); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", domain.WrapOp("close multipart", err)
	}
	return buf, mw.FormDataContentType(), nil
}

func (c *Client) writeFilePart(mw *multipart.Writer, f domain.FileHandle) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return domain.NewDomainError("Collab.Upload", domain.ErrFileUnreadable, "cannot read "+f.Name)
	}
	defer src.Close()

	part, err := mw.CreateFormFile(c.uploadField, f.Name)
	if err != nil {
		return domain.WrapOp("create form file", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return domain.NewDomainError("Collab.Upload", domain.ErrFileUnreadable, "cannot read "+f.Name)
	}
	return nil
}

// send performs one round trip, through the breaker when enabled. A non-nil
// error is always a transport-level problem.
func (c *Client) send(ctx context.Context, build func() (*http.Request, error)) (*exchange, error) {
	do := func() (*exchange, error) {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		ex := &exchange{status: resp.StatusCode, body: body}
		if int64(len(body)) > c.maxBody {
			ex.body, ex.truncated = body[:c.maxBody], true
		}
		return ex, nil
	}

	if c.breaker == nil {
		return do()
	}
	ex, err := c.breaker.Execute(do)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", domain.ErrCircuitOpen, err)
	}
	return ex, err
}

// interpret turns a round trip into a decoded reply or a classified error.
// The HTTP status code is not consulted: the body decides.
func (c *Client) interpret(op string, ex *exchange, sendErr error, schema *jsonschema.Schema) (reply, error) {
	if sendErr != nil {
		return reply{}, fmt.Errorf("%s: %w: %w", op, domain.ErrNetwork, sendErr)
	}
	if ex.truncated {
		return reply{}, domain.NewDomainError(op, domain.ErrMalformedResponse, fmt.Sprintf("body exceeds %d bytes", c.maxBody))
	}
	return decodeReply(op, schema, ex.body)
}

func (c *Client) finish(log *slog.Logger, span trace.Span, ex *exchange, kind domain.OutcomeKind, err error, elapsed time.Duration, extra ...any) {
	tracer.Finish(span, kind.String(), err)
	args := append([]any{"outcome", kind.String(), "duration", elapsed}, extra...)
	if ex != nil {
		span.SetAttributes(tracer.IntAttr("http.status_code", ex.status))
		args = append(args, "http_status", ex.status)
	}
	if err != nil {
		span.SetAttributes(tracer.StringAttr("error.code", string(domain.ErrorCodeOf(err))))
	}

	switch kind {
	case domain.OutcomeSuccess:
		log.Info("request completed", args...)
	case domain.OutcomeMalformed:
		if ex != nil {
			args = append(args, "body", excerpt(ex.body))
		}
		log.Warn("unexpected server response", append(args, "error", err)...)
	default:
		log.Warn("request failed", append(args, "error_code", domain.ErrorCodeOf(err), "error", err)...)
	}
}

func outcomeKind(err error) domain.OutcomeKind {
	if errors.Is(err, domain.ErrMalformedResponse) {
		return domain.OutcomeMalformed
	}
	return domain.OutcomeNetwork
}

func newRequestID() string {
	return ulid.Make().String()
}
