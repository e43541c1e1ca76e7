// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/raudabaugh/release-notes-assist/internal/config"
	"github.com/raudabaugh/release-notes-assist/internal/domain"
	"github.com/raudabaugh/release-notes-assist/internal/gateway"
	"github.com/raudabaugh/release-notes-assist/internal/storage"
	"github.com/raudabaugh/release-notes-assist/internal/usecase"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collects GitHub activity, generates release notes, and publishes them",
	Long: `Collects merged pull requests, commits, and updated issues for the
configured repositories, generates release notes (and optionally
documentation-update suggestions) via Azure OpenAI, and publishes the
result to every configured destination. With --schedule the pipeline runs
on the configured daily or weekly schedule instead of once.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		configPath, _ := cmd.Flags().GetString("config")
		sinceDays, _ := cmd.Flags().GetInt("since-days")
		version, _ := cmd.Flags().GetString("release-version")
		scheduled, _ := cmd.Flags().GetBool("schedule")
		assumeYes, _ := cmd.Flags().GetBool("yes")

		logger := newLogger(verbose)

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		secrets := config.SecretsFromEnv()
		if secrets.GitHubToken == "" {
			fmt.Fprintln(os.Stderr, "Error: GITHUB_TOKEN environment variable is not set.")
			os.Exit(1)
		}
		if secrets.OpenAIAPIKey == "" {
			fmt.Fprintln(os.Stderr, "Error: AZURE_OPENAI_API_KEY environment variable is not set.")
			os.Exit(1)
		}

		pipeline, err := buildPipeline(cfg, secrets, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set up pipeline: %v\n", err)
			os.Exit(1)
		}

		if sinceDays <= 0 {
			sinceDays = cfg.Schedule.LookBackDays
		}
		opts := usecase.RunOptions{WindowDays: sinceDays, Version: version}

		if scheduled {
			// Scheduled runs are unattended: always proceed on empty activity.
			runScheduled(ctx, pipeline, cfg, opts, logger)
			return
		}

		if !assumeYes {
			pipeline.Confirm = confirmEmptyActivity
		}
		result, err := pipeline.Run(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Collection failed: %v\n", err)
			os.Exit(1)
		}
		if !result.Succeeded() {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("config", "config/config.json", "Path to configuration file")
	runCmd.Flags().Int("since-days", 0, "Number of days to look back (defaults to schedule.look_back_days)")
	runCmd.Flags().String("release-version", "", "Version number for the release (overrides the configured tag name)")
	runCmd.Flags().Bool("schedule", false, "Run on the configured schedule instead of once")
	runCmd.Flags().BoolP("yes", "y", false, "Generate notes even when no activity was found, without asking")
}

// newLogger writes to a dated log file, plus standard error when verbose.
func newLogger(verbose bool) *log.Logger {
	writers := []io.Writer{}
	name := fmt.Sprintf("release_notes_%s.log", time.Now().Format("20060102"))
	if f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
		writers = append(writers, f)
	}
	if verbose {
		writers = append(writers, os.Stderr)
	}
	if len(writers) == 0 {
		return log.New(io.Discard, "", log.LstdFlags)
	}
	return log.New(io.MultiWriter(writers...), "", log.LstdFlags)
}

// buildPipeline constructs every dependency explicitly: one client per
// remote service, created once per invocation and injected downward.
func buildPipeline(cfg *config.Config, secrets config.Secrets, logger *log.Logger) (*usecase.Pipeline, error) {
	githubGateway, err := gateway.NewGitHubGateway(secrets.GitHubToken, cfg.GitHub.Organization, cfg.GitHub.Repository, logger)
	if err != nil {
		return nil, err
	}
	generator, err := gateway.NewNoteGenerator(secrets.OpenAIAPIKey, secrets.OpenAIEndpoint, secrets.OpenAIDeployment, secrets.OpenAIAPIVersion, logger)
	if err != nil {
		return nil, err
	}

	collector := usecase.NewCollector(githubGateway, cfg.GitHub.CollectIssues, logger)

	var chat gateway.ChatPoster
	if secrets.SlackToken != "" {
		chat = gateway.NewSlackClient(secrets.SlackToken)
	}
	var wiki gateway.WikiClient
	if secrets.ConfluenceConfigured() {
		wiki, err = gateway.NewConfluenceClient(secrets.ConfluenceURL, secrets.ConfluenceUsername, secrets.ConfluenceToken)
		if err != nil {
			return nil, err
		}
	}
	publisher := usecase.NewPublisher(githubGateway, chat, wiki, logger)

	store := storage.NewStore("data", "output", logger)
	return usecase.NewPipeline(collector, generator, publisher, store, cfg, logger), nil
}

// confirmEmptyActivity asks on the terminal whether to generate notes for
// a window that contained no activity at all.
func confirmEmptyActivity(activity domain.CollectedActivity) bool {
	fmt.Printf("No activity found in the last %d days. Generate release notes anyway? [y/N] ", activity.WindowDays)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// runScheduled blocks, running the pipeline on the configured cron
// schedule until the process is stopped.
func runScheduled(ctx context.Context, pipeline *usecase.Pipeline, cfg *config.Config, opts usecase.RunOptions, logger *log.Logger) {
	spec, err := cronSpec(cfg.Schedule)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid schedule configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Printf("starting scheduled mode with frequency %q at %s", cfg.Schedule.Frequency, cfg.Schedule.AtTime)
	c := cron.New()
	_, err = c.AddFunc(spec, func() {
		logger.Printf("running scheduled release notes generation job")
		if _, err := pipeline.Run(ctx, opts); err != nil {
			logger.Printf("scheduled run failed: %v", err)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to schedule job: %v\n", err)
		os.Exit(1)
	}
	c.Run()
}

// cronSpec translates the schedule section into a cron expression.
func cronSpec(schedule config.ScheduleConfig) (string, error) {
	at, err := time.Parse("15:04", schedule.AtTime)
	if err != nil {
		return "", fmt.Errorf("at_time %q is not in HH:MM form: %w", schedule.AtTime, err)
	}
	switch schedule.Frequency {
	case "daily":
		return fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour()), nil
	case "weekly":
		day := strings.ToUpper(schedule.Day)
		if len(day) < 3 {
			return "", fmt.Errorf("unknown weekday %q", schedule.Day)
		}
		return fmt.Sprintf("%d %d * * %s", at.Minute(), at.Hour(), day[:3]), nil
	default:
		return "", fmt.Errorf("unknown frequency %q", schedule.Frequency)
	}
}
