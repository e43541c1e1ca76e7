package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"github": {
			"organization": "acme",
			"repository": "widgets",
			"collect_issues": false,
			"collect_timeout_seconds": 120
		},
		"schedule": {
			"look_back_days": 14,
			"frequency": "weekly",
			"day": "friday",
			"at_time": "09:30"
		},
		"output": {"format": "markdown", "doc_type": "user"},
		"publish": {
			"enabled": true,
			"github": {"repo_name": "acme/widgets", "tag_name": "v1.0.0", "draft": true},
			"slack": {"channel_id": "C123", "title": "Release notes"}
		},
		"generate_doc_updates": true
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.GitHub.Organization)
	assert.Equal(t, "widgets", cfg.GitHub.Repository)
	assert.False(t, cfg.GitHub.CollectIssues)
	assert.Equal(t, 120, cfg.GitHub.CollectTimeoutSec)
	assert.Equal(t, 14, cfg.Schedule.LookBackDays)
	assert.Equal(t, "weekly", cfg.Schedule.Frequency)
	assert.Equal(t, "friday", cfg.Schedule.Day)
	assert.Equal(t, "09:30", cfg.Schedule.AtTime)
	assert.Equal(t, "user", cfg.Output.DocType)
	assert.True(t, cfg.GenerateDocUpdates)

	require.NotNil(t, cfg.Publish.GitHub)
	assert.True(t, cfg.Publish.Enabled)
	assert.Equal(t, "acme/widgets", cfg.Publish.GitHub.RepoName)
	assert.True(t, cfg.Publish.GitHub.Draft)
	require.NotNil(t, cfg.Publish.Slack)
	assert.Equal(t, "C123", cfg.Publish.Slack.ChannelID)
	// Destination sections absent from the file stay nil: never attempted.
	assert.Nil(t, cfg.Publish.Confluence)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `{"github": {"organization": "acme"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.GitHub.CollectIssues)
	assert.Equal(t, 300, cfg.GitHub.CollectTimeoutSec)
	assert.Equal(t, 7, cfg.Schedule.LookBackDays)
	assert.Equal(t, "daily", cfg.Schedule.Frequency)
	assert.Equal(t, "00:00", cfg.Schedule.AtTime)
	assert.Equal(t, "markdown", cfg.Output.Format)
	assert.Equal(t, "technical", cfg.Output.DocType)
	assert.False(t, cfg.Publish.Enabled)
	assert.False(t, cfg.GenerateDocUpdates)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))

	require.NoError(t, err)
	assert.True(t, cfg.GitHub.CollectIssues)
	assert.Equal(t, 7, cfg.Schedule.LookBackDays)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)

	_, err := Load(path)

	assert.Error(t, err)
}

func TestSecretsFromEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("SLACK_TOKEN", "slack-token")
	t.Setenv("CONFLUENCE_URL", "https://wiki.example.com")
	t.Setenv("CONFLUENCE_USERNAME", "writer")
	t.Setenv("CONFLUENCE_TOKEN", "wiki-token")
	t.Setenv("AZURE_OPENAI_API_KEY", "ai-key")

	secrets := SecretsFromEnv()

	assert.Equal(t, "gh-token", secrets.GitHubToken)
	assert.Equal(t, "slack-token", secrets.SlackToken)
	assert.Equal(t, "ai-key", secrets.OpenAIAPIKey)
	assert.True(t, secrets.ConfluenceConfigured())
}

func TestSecrets_ConfluenceConfigured(t *testing.T) {
	secrets := Secrets{ConfluenceURL: "https://wiki.example.com", ConfluenceUsername: "writer"}
	assert.False(t, secrets.ConfluenceConfigured())
	secrets.ConfluenceToken = "wiki-token"
	assert.True(t, secrets.ConfluenceConfigured())
}
