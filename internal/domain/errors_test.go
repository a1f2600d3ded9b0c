package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorFormat(t *testing.T) {
	err := NewDomainError("Collab.Upload", ErrFileUnreadable, "notes.pdf")
	want := "Collab.Upload: notes.pdf: file not readable"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorFormatNoDetail(t *testing.T) {
	err := NewDomainError("Collab.Ask", ErrNetwork, "")
	want := "Collab.Ask: network error"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	err := NewDomainError("Collab.Ask", ErrMalformedResponse, "<html>")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Error("errors.Is should match ErrMalformedResponse")
	}
}

func TestDomainErrorAs(t *testing.T) {
	err := WrapOp("outer", NewDomainError("Collab.Upload", ErrDeclaredFailure, "No file uploaded"))
	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Collab.Upload", de.Op)
	assert.Equal(t, CodeDeclaredFailure, de.Code())
}

func TestWrapOpNil(t *testing.T) {
	assert.NoError(t, WrapOp("op", nil))
}

func TestErrorCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeUnknown},
		{"direct", ErrNetwork, CodeNetwork},
		{"wrapped", fmt.Errorf("chat: %w", ErrMalformedResponse), CodeMalformedResponse},
		{"domain error", NewDomainError("Config.Load", ErrConfigLoad, "bad yaml"), CodeConfigLoad},
		{"circuit open wins over network", fmt.Errorf("%w: %w", ErrCircuitOpen, ErrNetwork), CodeCircuitOpen},
		{"unrelated", errors.New("boom"), CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCodeOf(tt.err))
		})
	}
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "failure", OutcomeFailure.String())
	assert.Equal(t, "malformed", OutcomeMalformed.String())
	assert.Equal(t, "network", OutcomeNetwork.String())
	assert.Equal(t, "unknown", OutcomeKind(42).String())
}
