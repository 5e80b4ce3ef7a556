package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("BROWSERSTACK_USERNAME", "")
	t.Setenv("BROWSERSTACK_ACCESS_KEY", "")
}

func initWithFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	reset()
	t.Cleanup(reset)
	require.NoError(t, Initialize(path))
}

func TestBuildProvider(t *testing.T) {
	tests := []struct {
		name           string
		cliModel       string
		cliBaseURL     string
		cliAPIKey      string
		envAPIKey      string
		envBaseURL     string
		defaultModel   string
		expectError    bool
		expectedModel  string
		expectedAPIKey string
		expectedURL    string
	}{
		{
			name:           "CLI flag takes precedence over env",
			cliModel:       "gpt-4o",
			cliBaseURL:     "https://cli.example.com",
			cliAPIKey:      "cli-key",
			envAPIKey:      "env-key",
			envBaseURL:     "https://env.example.com",
			defaultModel:   "gpt-4o-mini",
			expectedModel:  "gpt-4o",
			expectedAPIKey: "cli-key",
			expectedURL:    "https://cli.example.com",
		},
		{
			name:           "Environment variable used when CLI empty",
			envAPIKey:      "env-key",
			envBaseURL:     "https://env.example.com",
			defaultModel:   "gpt-4o-mini",
			expectedModel:  "gpt-4o-mini",
			expectedAPIKey: "env-key",
			expectedURL:    "https://env.example.com",
		},
		{
			name:           "Default base URL when nothing set",
			cliAPIKey:      "cli-key",
			defaultModel:   "gpt-4o-mini",
			expectedModel:  "gpt-4o-mini",
			expectedAPIKey: "cli-key",
			expectedURL:    "https://api.openai.com/v1",
		},
		{
			name:         "Missing API key",
			defaultModel: "gpt-4o-mini",
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset()
			t.Cleanup(reset)
			t.Setenv("OPENAI_API_KEY", tt.envAPIKey)
			t.Setenv("OPENAI_BASE_URL", tt.envBaseURL)

			provider, err := BuildProvider(tt.cliModel, tt.cliBaseURL, tt.cliAPIKey, tt.defaultModel)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "API key is required")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedModel, provider.GetModel())
			assert.Equal(t, tt.expectedAPIKey, provider.GetAPIKey())
			assert.Equal(t, tt.expectedURL, provider.GetBaseURL())
		})
	}
}

func TestBuildProvider_ConfigFile(t *testing.T) {
	clearProviderEnv(t)
	initWithFile(t, `{
  "version": "1.0",
  "sections": {
    "llm": {"model": "file-model", "base_url": "https://file.example.com", "api_key": "file-key"}
  }
}`)

	t.Run("file fills what CLI and env leave empty", func(t *testing.T) {
		provider, err := BuildProvider("", "", "", "gpt-4o-mini")
		require.NoError(t, err)
		assert.Equal(t, "file-model", provider.GetModel())
		assert.Equal(t, "file-key", provider.GetAPIKey())
		assert.Equal(t, "https://file.example.com", provider.GetBaseURL())
	})

	t.Run("explicit CLI model wins over file", func(t *testing.T) {
		provider, err := BuildProvider("cli-model", "", "", "gpt-4o-mini")
		require.NoError(t, err)
		assert.Equal(t, "cli-model", provider.GetModel())
	})

	t.Run("env key wins over file", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "env-key")
		provider, err := BuildProvider("", "", "", "gpt-4o-mini")
		require.NoError(t, err)
		assert.Equal(t, "env-key", provider.GetAPIKey())
	})
}

func TestResolveGrid(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		clearProviderEnv(t)
		reset()
		creds, endpoint := ResolveGrid("", "", "")
		assert.True(t, creds.Empty())
		assert.Empty(t, endpoint)
	})

	t.Run("env over file, CLI over env", func(t *testing.T) {
		clearProviderEnv(t)
		initWithFile(t, `{"sections": {"grid": {"username": "file-user", "access_key": "file-key", "endpoint": "wss://grid.example.com/pw"}}}`)
		t.Setenv("BROWSERSTACK_USERNAME", "env-user")

		creds, endpoint := ResolveGrid("", "", "")
		assert.Equal(t, "env-user", creds.Username)
		assert.Equal(t, "file-key", creds.AccessKey)
		assert.Equal(t, "wss://grid.example.com/pw", endpoint)

		creds, endpoint = ResolveGrid("cli-user", "cli-key", "wss://cli.example.com")
		assert.Equal(t, "cli-user", creds.Username)
		assert.Equal(t, "cli-key", creds.AccessKey)
		assert.Equal(t, "wss://cli.example.com", endpoint)
	})
}

func TestGridSection_Validate(t *testing.T) {
	s := NewGridSection()
	assert.NoError(t, s.Validate())

	require.NoError(t, s.SetData(map[string]any{"endpoint": "https://not-a-socket"}))
	assert.Error(t, s.Validate())

	require.NoError(t, s.SetData(map[string]any{"endpoint": "wss://hub.example.com/playwright"}))
	assert.NoError(t, s.Validate())

	s.Reset()
	user, key, endpoint := s.Credentials()
	assert.Empty(t, user+key+endpoint)
}

func TestLLMSection_Data(t *testing.T) {
	s := NewLLMSection()
	require.NoError(t, s.SetData(map[string]any{"model": "m", "base_url": "u", "api_key": "k", "ignored": 1}))
	assert.Equal(t, map[string]any{"model": "m", "base_url": "u", "api_key": "k"}, s.Data())

	require.NoError(t, s.SetData(nil))
	assert.Equal(t, "m", s.GetModel())

	s.Reset()
	assert.Empty(t, s.GetAPIKey())
}
