package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      SessionConfig
		expectError string
	}{
		{
			name:   "valid config",
			config: NewSessionConfig("Chrome_Windows_Test", "chrome", "https://elpais.com/opinion/"),
		},
		{
			name:        "missing name",
			config:      NewSessionConfig("  ", "chrome", "https://elpais.com/opinion/"),
			expectError: "session name is required",
		},
		{
			name:        "missing url",
			config:      NewSessionConfig("s1", "chrome", ""),
			expectError: "url is required",
		},
		{
			name:        "relative url",
			config:      NewSessionConfig("s1", "chrome", "/opinion/"),
			expectError: "url must be absolute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestSessionConfig_WithPlatformDoesNotMutate(t *testing.T) {
	base := NewSessionConfig("s1", "chrome", "https://example.com").WithPlatform("os", "Windows")
	derived := base.WithPlatform("osVersion", "10")

	assert.Equal(t, map[string]string{"os": "Windows"}, base.Platform)
	assert.Equal(t, map[string]string{"os": "Windows", "osVersion": "10"}, derived.Platform)
}

func TestDuplicateNames(t *testing.T) {
	configs := []SessionConfig{
		{Name: "a"}, {Name: "b"}, {Name: "a"}, {Name: "c"}, {Name: "b"}, {Name: "a"},
	}
	assert.Equal(t, []string{"a", "b"}, DuplicateNames(configs))
	assert.Empty(t, DuplicateNames(configs[:2]))
}

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	sessionErr := NewSessionError(KindNavigation, "s1", cause)

	assert.Equal(t, FailureKind(""), KindOf(nil))
	assert.Equal(t, KindNavigation, KindOf(sessionErr))
	assert.Equal(t, KindNavigation, KindOf(fmt.Errorf("wrapped: %w", sessionErr)))
	assert.Equal(t, KindUnexpected, KindOf(cause))
	assert.ErrorIs(t, sessionErr, cause)
}

func TestFailureKind_Fatal(t *testing.T) {
	assert.True(t, KindSessionSetup.Fatal())
	assert.True(t, KindNavigation.Fatal())
	assert.True(t, KindExtraction.Fatal())
	assert.False(t, KindTranslation.Fatal())
	assert.False(t, KindResourceRelease.Fatal())
}

func TestSessionError_JSON(t *testing.T) {
	outcome := FailedOutcome("s1", NewSessionError(KindExtraction, "s1", errors.New("no body")))

	data, err := json.Marshal(outcome)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"extraction"`)
	assert.Contains(t, string(data), `"message":"no body"`)

	var decoded SessionOutcome
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Err)
	assert.Equal(t, KindExtraction, decoded.Kind())
	assert.Equal(t, "no body", decoded.Err.Err.Error())
}
