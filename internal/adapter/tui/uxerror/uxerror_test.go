package uxerror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"ragchat/internal/domain"
)

func TestHumanize(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantTitle string
		wantMsg   string
	}{
		{
			name:      "unreadable file uses detail",
			err:       domain.NewDomainError("StatFiles", domain.ErrFileUnreadable, "cannot read /x.pdf"),
			wantTitle: "File Not Readable",
			wantMsg:   "cannot read /x.pdf",
		},
		{
			name:      "open circuit wins over network",
			err:       fmt.Errorf("collab.chat: %w: %w", domain.ErrNetwork, domain.ErrCircuitOpen),
			wantTitle: "Server Paused",
		},
		{
			name:      "decryption",
			err:       domain.NewDomainError("Config.Load", domain.ErrDecryption, "server.csrf_token is encrypted but RAGCHAT_CONFIG_KEY is not set"),
			wantTitle: "Cannot Decrypt Config",
			wantMsg:   "server.csrf_token is encrypted but RAGCHAT_CONFIG_KEY is not set",
		},
		{
			name:      "config load",
			err:       domain.NewDomainError("Config.Load", domain.ErrConfigLoad, "parse config: bad yaml"),
			wantTitle: "Config Not Loaded",
			wantMsg:   "parse config: bad yaml",
		},
		{
			name:      "connection refused",
			err:       errors.New(`Post "http://localhost:8000/chat/": dial tcp 127.0.0.1:8000: connect: connection refused`),
			wantTitle: "Server Unreachable",
		},
		{
			name:      "timeout",
			err:       errors.New("context deadline exceeded (Client.Timeout exceeded while awaiting headers)"),
			wantTitle: "Request Timed Out",
		},
		{
			name:      "invalid input",
			err:       domain.NewDomainError("collab.New", domain.ErrInvalidInput, "bad base URL"),
			wantTitle: "Invalid Setting",
			wantMsg:   "bad base URL",
		},
		{
			name:      "fallback",
			err:       errors.New("something odd"),
			wantTitle: "Unexpected Error",
			wantMsg:   "something odd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := Humanize(tt.err)
			assert.Equal(t, tt.wantTitle, fe.Title)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, fe.Message)
			}
			assert.Equal(t, tt.err.Error(), fe.Raw)
			assert.NotEmpty(t, fe.Hints)
		})
	}
}

func TestHumanizeNil(t *testing.T) {
	fe := Humanize(nil)
	assert.Equal(t, "Unknown Error", fe.Title)
	assert.Empty(t, fe.Hints)
}

func TestRender(t *testing.T) {
	fe := FriendlyError{Title: "Server Unreachable", Message: "Could not connect.", Hints: []string{"Start it"}}
	out := fe.Render()
	assert.Contains(t, out, "Server Unreachable\n  Could not connect.")
	assert.Contains(t, out, "Suggestions:")
	assert.Contains(t, out, "Start it")

	assert.Equal(t, "Bare", FriendlyError{Title: "Bare"}.Render())
}
