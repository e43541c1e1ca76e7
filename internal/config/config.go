// Package config loads the application configuration file and resolves
// credentials from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// GitHubConfig selects which repositories to collect activity from.
type GitHubConfig struct {
	Organization string `mapstructure:"organization"`
	Repository   string `mapstructure:"repository"`

	// CollectIssues controls issue collection; when false the issue list
	// is always empty and no issue requests are made.
	CollectIssues bool `mapstructure:"collect_issues"`

	// CollectTimeoutSec is the wall-clock budget, in seconds, applied
	// independently to each activity kind.
	CollectTimeoutSec int `mapstructure:"collect_timeout_seconds"`
}

// ScheduleConfig drives scheduled mode and the default look-back window.
type ScheduleConfig struct {
	LookBackDays int    `mapstructure:"look_back_days"`
	Frequency    string `mapstructure:"frequency"` // "daily" or "weekly"
	Day          string `mapstructure:"day"`       // weekday name, weekly only
	AtTime       string `mapstructure:"at_time"`   // "HH:MM"
}

// OutputConfig controls the generated document.
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	DocType string `mapstructure:"doc_type"`
}

// ReleasePublishConfig configures the GitHub release destination.
type ReleasePublishConfig struct {
	RepoName   string `mapstructure:"repo_name"`
	TagName    string `mapstructure:"tag_name"`
	Name       string `mapstructure:"name"`
	Draft      bool   `mapstructure:"draft"`
	Prerelease bool   `mapstructure:"prerelease"`
}

// SlackPublishConfig configures the Slack destination.
type SlackPublishConfig struct {
	ChannelID string `mapstructure:"channel_id"`
	Title     string `mapstructure:"title"`
}

// ConfluencePublishConfig configures the Confluence destination.
type ConfluencePublishConfig struct {
	SpaceKey     string `mapstructure:"space_key"`
	ParentPageID string `mapstructure:"parent_page_id"`
	Title        string `mapstructure:"title"`
}

// PublishConfig gates publishing and configures each destination. A nil
// destination section means that destination is never attempted.
type PublishConfig struct {
	Enabled    bool                     `mapstructure:"enabled"`
	GitHub     *ReleasePublishConfig    `mapstructure:"github"`
	Slack      *SlackPublishConfig      `mapstructure:"slack"`
	Confluence *ConfluencePublishConfig `mapstructure:"confluence"`
}

// Config is the top-level application configuration.
type Config struct {
	GitHub             GitHubConfig   `mapstructure:"github"`
	Schedule           ScheduleConfig `mapstructure:"schedule"`
	Output             OutputConfig   `mapstructure:"output"`
	Publish            PublishConfig  `mapstructure:"publish"`
	GenerateDocUpdates bool           `mapstructure:"generate_doc_updates"`
}

func defaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			CollectIssues:     true,
			CollectTimeoutSec: 300,
		},
		Schedule: ScheduleConfig{
			LookBackDays: 7,
			Frequency:    "daily",
			Day:          "monday",
			AtTime:       "00:00",
		},
		Output: OutputConfig{
			Format:  "markdown",
			DocType: "technical",
		},
	}
}

// Load reads the configuration file at path. A missing file is not an
// error: the defaults are returned so the tool stays usable with nothing
// but environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("github.collect_issues", true)
	v.SetDefault("github.collect_timeout_seconds", 300)
	v.SetDefault("schedule.look_back_days", 7)
	v.SetDefault("schedule.frequency", "daily")
	v.SetDefault("schedule.day", "monday")
	v.SetDefault("schedule.at_time", "00:00")
	v.SetDefault("output.format", "markdown")
	v.SetDefault("output.doc_type", "technical")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Secrets holds every credential the pipelines need, resolved from the
// environment once per invocation and passed down explicitly.
type Secrets struct {
	GitHubToken        string
	SlackToken         string
	ConfluenceURL      string
	ConfluenceUsername string
	ConfluenceToken    string
	OpenAIAPIKey       string
	OpenAIEndpoint     string
	OpenAIDeployment   string
	OpenAIAPIVersion   string
}

// SecretsFromEnv reads all credentials from the environment.
func SecretsFromEnv() Secrets {
	return Secrets{
		GitHubToken:        os.Getenv("GITHUB_TOKEN"),
		SlackToken:         os.Getenv("SLACK_TOKEN"),
		ConfluenceURL:      os.Getenv("CONFLUENCE_URL"),
		ConfluenceUsername: os.Getenv("CONFLUENCE_USERNAME"),
		ConfluenceToken:    os.Getenv("CONFLUENCE_TOKEN"),
		OpenAIAPIKey:       os.Getenv("AZURE_OPENAI_API_KEY"),
		OpenAIEndpoint:     os.Getenv("AZURE_OPENAI_ENDPOINT"),
		OpenAIDeployment:   os.Getenv("AZURE_OPENAI_DEPLOYMENT"),
		OpenAIAPIVersion:   os.Getenv("AZURE_OPENAI_API_VERSION"),
	}
}

// ConfluenceConfigured reports whether all three Confluence credentials
// are present.
func (s Secrets) ConfluenceConfigured() bool {
	return s.ConfluenceURL != "" && s.ConfluenceUsername != "" && s.ConfluenceToken != ""
}
