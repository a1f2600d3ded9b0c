package domain

import "context"

// FileHandle is one file chosen for upload.
type FileHandle struct {
	Name      string // base name sent as the multipart filename
	SizeBytes int64
	Path      string // local path the content is streamed from
}

// OutcomeKind classifies how a collaborator request ended.
type OutcomeKind int

const (
	OutcomeSuccess   OutcomeKind = iota // well-formed body, success status
	OutcomeFailure                      // well-formed body, any other status
	OutcomeMalformed                    // body does not parse as the expected shape
	OutcomeNetwork                      // no response was received
)

// String returns a lowercase label used in logs and span attributes.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// UploadOutcome is the terminal result of one upload request.
type UploadOutcome struct {
	Kind    OutcomeKind
	Chunks  int    // set on OutcomeSuccess
	Message string // server message on OutcomeFailure, may be empty
	Err     error  // diagnostic cause for every non-success kind
}

// ChatOutcome is the terminal result of one chat request.
type ChatOutcome struct {
	Kind    OutcomeKind
	Answer  string // raw reply text on OutcomeSuccess
	Message string // server message on OutcomeFailure, may be empty
	Err     error  // diagnostic cause for every non-success kind
}

// Collaborator is the remote assistant service: file ingestion plus chat.
// Implementations never return Go errors; every ending is an outcome value.
type Collaborator interface {
	Upload(ctx context.Context, files []FileHandle) UploadOutcome
	Ask(ctx context.Context, query string) ChatOutcome
}
