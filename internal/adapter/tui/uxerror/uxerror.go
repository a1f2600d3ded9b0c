// Package uxerror translates raw errors into user-friendly messages with
// recovery hints.
package uxerror

import (
	"errors"
	"fmt"
	"strings"

	"ragchat/internal/adapter/tui/theme"
	"ragchat/internal/domain"
)

// FriendlyError is a user-facing error with suggestions for recovery.
type FriendlyError struct {
	Title   string   // short heading, e.g. "Server Unreachable"
	Message string   // one-liner explanation
	Hints   []string // actionable recovery suggestions
	Raw     string   // original error text (for debug)
}

// Render formats the FriendlyError for display as a chat note.
func (fe FriendlyError) Render() string {
	var sb strings.Builder
	sb.WriteString(fe.Title)
	if fe.Message != "" {
		sb.WriteString("\n  ")
		sb.WriteString(fe.Message)
	}
	if len(fe.Hints) > 0 {
		sb.WriteString("\n  Suggestions:")
		for _, h := range fe.Hints {
			sb.WriteString(fmt.Sprintf("\n    %s %s", theme.SymbolBullet, h))
		}
	}
	return sb.String()
}

type errorPattern struct {
	match   func(err error) bool
	produce func(err error) FriendlyError
}

var patterns = []errorPattern{
	// Domain sentinels first so errors.Is sees through wrapping.
	{
		match: isErr(domain.ErrFileUnreadable),
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "File Not Readable",
				Message: detailOf(err),
				Hints:   []string{"Check the path and spelling", "Only regular files can be uploaded"},
			}
		},
	},
	{
		match: isErr(domain.ErrCircuitOpen),
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Server Paused",
				Message: "Recent requests kept failing, so new ones are held back for a while.",
				Hints:   []string{"Wait for breaker.timeout to pass and try again", "Run 'ragchat doctor' to check the server"},
			}
		},
	},
	{
		match: isErr(domain.ErrDecryption),
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Cannot Decrypt Config",
				Message: detailOf(err),
				Hints:   []string{"Export RAGCHAT_CONFIG_KEY with the passphrase used by 'ragchat encrypt'"},
			}
		},
	},
	{
		match: isErr(domain.ErrConfigLoad),
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Config Not Loaded",
				Message: detailOf(err),
				Hints:   []string{"Check the YAML syntax", "Restrict the file to its owner (chmod 600)"},
			}
		},
	},
	{
		match: isErr(domain.ErrMalformedResponse),
		produce: constantError("Unexpected Server Response", "The server replied with something that is not a valid reply.",
			[]string{"Check that server.base_url points at the document assistant", "See the log file for the response excerpt"}),
	},

	// Transport errors from net/http carry no sentinel.
	{
		match: containsAny("connection refused", "dial tcp", "no such host"),
		produce: constantError("Server Unreachable", "Could not connect to the server.",
			[]string{"Start the server or fix server.base_url", "Run 'ragchat doctor'"}),
	},
	{
		match: containsAny("deadline exceeded", "timeout", "context deadline"),
		produce: constantError("Request Timed Out", "The server took too long to answer.",
			[]string{"Try again", "Increase server.resp_timeout in config"}),
	},
	{
		match: isErr(domain.ErrInvalidInput),
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Invalid Setting",
				Message: detailOf(err),
				Hints:   []string{"Check the value in config or on the command line"},
			}
		},
	},
}

// Humanize converts a raw error into a FriendlyError with recovery hints.
func Humanize(err error) FriendlyError {
	if err == nil {
		return FriendlyError{Title: "Unknown Error", Raw: "nil"}
	}

	for _, p := range patterns {
		if p.match(err) {
			fe := p.produce(err)
			fe.Raw = err.Error()
			return fe
		}
	}

	return FriendlyError{
		Title:   "Unexpected Error",
		Message: err.Error(),
		Hints:   []string{"Try again", "Set logger.level to debug for more details"},
		Raw:     err.Error(),
	}
}

func isErr(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

// detailOf prefers the DomainError detail over the full wrapped text.
func detailOf(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) && de.Detail != "" {
		return de.Detail
	}
	return err.Error()
}

// containsAny returns a match func that checks if the error string contains
// any of the given substrings (case-insensitive).
func containsAny(substrs ...string) func(error) bool {
	return func(err error) bool {
		lower := strings.ToLower(err.Error())
		for _, s := range substrs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

func constantError(title, message string, hints []string) func(error) FriendlyError {
	return func(error) FriendlyError {
		return FriendlyError{
			Title:   title,
			Message: message,
			Hints:   hints,
		}
	}
}
