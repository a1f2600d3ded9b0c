// Package interaction holds the chat client's interaction state machine:
// file selection, upload, chat submission and the transcript.
package interaction

import (
	"context"
	"log/slog"
	"strings"

	"ragchat/internal/domain"
	"ragchat/internal/usecase/markup"
)

// Request is a pending collaborator call. It never touches controller
// state; the host runs it anywhere and hands the Completion to Resolve on
// the controller's own loop. A nil Request means the submit was a no-op.
type Request func(ctx context.Context) Completion

// Completion is the result of a Request.
type Completion interface {
	completion()
}

// UploadCompletion carries an upload outcome.
type UploadCompletion struct {
	Outcome domain.UploadOutcome
}

// ChatCompletion carries a chat outcome.
type ChatCompletion struct {
	Outcome domain.ChatOutcome
}

func (UploadCompletion) completion() {}
func (ChatCompletion) completion()   {}

// Controller owns one InteractionState. It is not safe for concurrent use:
// every method must be called from the same loop.
type Controller struct {
	collab domain.Collaborator
	logger *slog.Logger

	uploadInFlight bool
	chatInFlight   bool
	selection      []domain.FileHandle
	status         Status
	input          string
	cursor         int
	typing         bool
	transcript     []Entry
}

// NewController creates a Controller backed by collab.
func NewController(collab domain.Collaborator, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{collab: collab, logger: logger}
}

// OnFileSelectionChanged replaces the selection wholesale.
func (c *Controller) OnFileSelectionChanged(files []domain.FileHandle) {
	c.selection = append([]domain.FileHandle(nil), files...)
	c.logger.Debug("file selection changed", "count", len(files))
}

// CanUpload reports whether the upload action is enabled.
func (c *Controller) CanUpload() bool {
	return len(c.selection) > 0
}

// SubmitUpload starts an upload of the current selection. It is a no-op
// when nothing is selected or an upload is already in flight.
func (c *Controller) SubmitUpload() Request {
	if !c.CanUpload() || c.uploadInFlight {
		c.logger.Debug("upload ignored", "selected", len(c.selection), "in_flight", c.uploadInFlight)
		return nil
	}
	c.uploadInFlight = true
	c.status = Status{Kind: StatusInfo, Text: StatusUploading}

	files := append([]domain.FileHandle(nil), c.selection...)
	collab := c.collab
	return func(ctx context.Context) Completion {
		return UploadCompletion{Outcome: collab.Upload(ctx, files)}
	}
}

// SubmitQuery sends text as a chat query. Blank text, or a chat already in
// flight, makes it a no-op.
func (c *Controller) SubmitQuery(text string) Request {
	query := strings.TrimSpace(text)
	if query == "" || c.chatInFlight {
		return nil
	}
	c.transcript = append(c.transcript, Entry{Role: RoleUser, Text: query})
	c.input = ""
	c.cursor = 0
	c.typing = true
	c.chatInFlight = true

	collab := c.collab
	return func(ctx context.Context) Completion {
		return ChatCompletion{Outcome: collab.Ask(ctx, query)}
	}
}

// Confirm applies the input-confirmation gesture. A modified gesture
// inserts a line break at the cursor and never submits.
func (c *Controller) Confirm(modified bool) Request {
	if modified {
		c.input = c.input[:c.cursor] + "\n" + c.input[c.cursor:]
		c.cursor++
		return nil
	}
	return c.SubmitQuery(c.input)
}

// SetInput replaces the input field's text and puts the cursor at its end.
func (c *Controller) SetInput(s string) {
	c.input = s
	c.cursor = len(s)
}

// SetCursor moves the input cursor to byte offset pos, clamped to the text.
func (c *Controller) SetCursor(pos int) {
	c.cursor = min(max(pos, 0), len(c.input))
}

// Input returns the input field's text.
func (c *Controller) Input() string { return c.input }

// Cursor returns the input cursor's byte offset.
func (c *Controller) Cursor() int { return c.cursor }

// Resolve applies a completion. Completions for an operation that is not in
// flight are dropped.
func (c *Controller) Resolve(done Completion) {
	switch d := done.(type) {
	case UploadCompletion:
		if !c.uploadInFlight {
			c.logger.Warn("dropping upload completion with no upload in flight")
			return
		}
		c.resolveUpload(d.Outcome)
	case ChatCompletion:
		if !c.chatInFlight {
			c.logger.Warn("dropping chat completion with no chat in flight")
			return
		}
		c.resolveChat(d.Outcome)
	}
}

func (c *Controller) resolveUpload(out domain.UploadOutcome) {
	c.uploadInFlight = false
	switch out.Kind {
	case domain.OutcomeSuccess:
		c.selection = nil
		c.status = Status{Kind: StatusSuccess, Text: processedChunks(out.Chunks)}
	case domain.OutcomeFailure:
		msg := out.Message
		if msg == "" {
			msg = StatusUploadFailed
		}
		c.status = Status{Kind: StatusError, Text: msg}
	case domain.OutcomeMalformed:
		c.status = Status{Kind: StatusError, Text: StatusUnexpected}
	default:
		c.status = Status{Kind: StatusError, Text: StatusNetworkError}
	}
	c.logger.Info("upload resolved", "outcome", out.Kind.String(), "chunks", out.Chunks)
}

func (c *Controller) resolveChat(out domain.ChatOutcome) {
	// The placeholder goes before the terminal entry is appended.
	c.typing = false
	c.chatInFlight = false

	var entry Entry
	switch out.Kind {
	case domain.OutcomeSuccess:
		entry = Entry{Role: RoleAssistant, Blocks: markup.Render(out.Answer)}
	case domain.OutcomeFailure:
		msg := out.Message
		if msg == "" {
			msg = ChatNoResponse
		}
		entry = Entry{Role: RoleAssistant, Text: chatErrorPrefix + msg, IsError: true}
	case domain.OutcomeMalformed:
		entry = Entry{Role: RoleAssistant, Text: ChatServerError, IsError: true}
	default:
		entry = Entry{Role: RoleAssistant, Text: ChatNetworkError, IsError: true}
	}
	c.transcript = append(c.transcript, entry)
	c.logger.Info("chat resolved", "outcome", out.Kind.String())
}

// Run executes req and resolves its completion on the caller's goroutine.
// It reports whether there was anything to run.
func (c *Controller) Run(ctx context.Context, req Request) bool {
	if req == nil {
		return false
	}
	c.Resolve(req(ctx))
	return true
}

// Entries returns the transcript followed by the typing placeholder when a
// chat is pending.
func (c *Controller) Entries() []Entry {
	out := make([]Entry, 0, len(c.transcript)+1)
	out = append(out, c.transcript...)
	if c.typing {
		out = append(out, typingEntry)
	}
	return out
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	return State{
		UploadInFlight:  c.uploadInFlight,
		ChatInFlight:    c.chatInFlight,
		Selection:       append([]domain.FileHandle(nil), c.selection...),
		SelectionLabels: selectionLabels(c.selection),
		UploadStatus:    c.status,
		Input:           c.input,
		Typing:          c.typing,
		Transcript:      append([]Entry(nil), c.transcript...),
	}
}
