package config

import (
	"fmt"
	"os"

	"github.com/entrhq/headlines/pkg/browser"
	"github.com/entrhq/headlines/pkg/llm/openai"
)

// BuildProvider creates the translation provider based on configuration
// precedence: CLI flags > Environment variables > Config file > Defaults
func BuildProvider(cliModel, cliBaseURL, cliAPIKey, defaultModel string) (*openai.Provider, error) {
	finalModel := cliModel
	finalBaseURL := cliBaseURL
	finalAPIKey := cliAPIKey

	if finalAPIKey == "" {
		finalAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if finalBaseURL == "" {
		finalBaseURL = os.Getenv("OPENAI_BASE_URL")
	}

	if llmConfigFromFile := GetLLM(); llmConfigFromFile != nil {
		// The file model applies only when the CLI did not choose one.
		if cliModel == "" || cliModel == defaultModel {
			if configFileModel := llmConfigFromFile.GetModel(); configFileModel != "" {
				finalModel = configFileModel
			}
		}
		if finalBaseURL == "" {
			finalBaseURL = llmConfigFromFile.GetBaseURL()
		}
		if finalAPIKey == "" {
			finalAPIKey = llmConfigFromFile.GetAPIKey()
		}
	}

	if finalModel == "" {
		finalModel = defaultModel
	}

	if finalAPIKey == "" {
		return nil, fmt.Errorf("API key is required. Set OPENAI_API_KEY, use --api-key, or configure the llm section in ~/.headlines/config.json")
	}

	providerOpts := []openai.ProviderOption{
		openai.WithModel(finalModel),
		openai.WithTemperature(0),
	}
	if finalBaseURL != "" {
		providerOpts = append(providerOpts, openai.WithBaseURL(finalBaseURL))
	}

	provider, err := openai.NewProvider(finalAPIKey, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	return provider, nil
}

// ResolveGrid returns grid credentials and endpoint with the same
// precedence as BuildProvider. The endpoint is empty when nothing sets it.
func ResolveGrid(cliUsername, cliAccessKey, cliEndpoint string) (browser.Credentials, string) {
	creds := browser.Credentials{Username: cliUsername, AccessKey: cliAccessKey}
	endpoint := cliEndpoint

	if creds.Username == "" {
		creds.Username = os.Getenv("BROWSERSTACK_USERNAME")
	}
	if creds.AccessKey == "" {
		creds.AccessKey = os.Getenv("BROWSERSTACK_ACCESS_KEY")
	}

	if grid := GetGrid(); grid != nil {
		username, accessKey, fileEndpoint := grid.Credentials()
		if creds.Username == "" {
			creds.Username = username
		}
		if creds.AccessKey == "" {
			creds.AccessKey = accessKey
		}
		if endpoint == "" {
			endpoint = fileEndpoint
		}
	}

	return creds, endpoint
}
