package interaction

import (
	"fmt"

	"ragchat/internal/domain"
	"ragchat/internal/usecase/markup"
)

// User-visible strings.
const (
	NoFilesChosen       = "No files chosen"
	StatusUploading     = "Uploading..."
	StatusUploadFailed  = "Upload failed"
	StatusUnexpected    = "Unexpected server response"
	StatusNetworkError  = "Network error"
	ChatNoResponse      = "No response"
	ChatServerError     = "Error: Server error"
	ChatNetworkError    = "Network error: cannot contact server"
	chatErrorPrefix     = "Error: "
	processedChunksText = "Processed %d chunks"
)

// Role identifies who authored a transcript entry.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
)

func (r Role) String() string {
	if r == RoleUser {
		return "user"
	}
	return "assistant"
}

// Entry is one transcript item. User entries and assistant error entries
// carry Text; rendered assistant replies carry Blocks.
type Entry struct {
	Role    Role
	Text    string
	Blocks  []markup.Block
	IsError bool
	Typing  bool // the transient "assistant is typing" placeholder
}

// StatusKind classifies the upload status line.
type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusInfo
	StatusSuccess
	StatusError
)

// Status is the upload status line.
type Status struct {
	Kind StatusKind
	Text string
}

// State is a read-only copy of a controller's state.
type State struct {
	UploadInFlight  bool
	ChatInFlight    bool
	Selection       []domain.FileHandle
	SelectionLabels []string // per-file labels, or NoFilesChosen alone
	UploadStatus    Status
	Input           string
	Typing          bool
	Transcript      []Entry
}

// FileLabel formats a selected file as "name (N KB)", N truncated.
func FileLabel(f domain.FileHandle) string {
	return fmt.Sprintf("%s (%d KB)", f.Name, f.SizeBytes/1024)
}

func selectionLabels(files []domain.FileHandle) []string {
	if len(files) == 0 {
		return []string{NoFilesChosen}
	}
	labels := make([]string, len(files))
	for i, f := range files {
		labels[i] = FileLabel(f)
	}
	return labels
}

// typingEntry is appended by Entries while a chat is pending.
var typingEntry = Entry{Role: RoleAssistant, Typing: true}

func processedChunks(n int) string {
	return fmt.Sprintf(processedChunksText, n)
}
