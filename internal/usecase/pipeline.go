package usecase

import (
	"context"
	"log"
	"time"

	"github.com/raudabaugh/release-notes-assist/internal/config"
	"github.com/raudabaugh/release-notes-assist/internal/domain"
	"github.com/raudabaugh/release-notes-assist/internal/storage"
)

// Generator is the narrative-generation boundary. Implementations return
// prose on success and a human-readable error document on failure; they
// never return an error value, so the pipeline always has a document to
// carry forward once collection has succeeded.
type Generator interface {
	GenerateReleaseNotes(ctx context.Context, activity domain.CollectedActivity, format, version string) string
	GenerateDocumentationUpdate(ctx context.Context, activity domain.CollectedActivity, docType string) string
}

// Pipeline sequences Collect -> Generate -> Publish for one invocation.
type Pipeline struct {
	collector *Collector
	generator Generator
	publisher *Publisher
	store     *storage.Store
	cfg       *config.Config
	logger    *log.Logger

	// Confirm is consulted when a run finds zero activity: return true to
	// generate notes anyway, false to abort the run. Nil means proceed.
	Confirm func(activity domain.CollectedActivity) bool
}

// NewPipeline wires the pipeline stages together.
func NewPipeline(collector *Collector, generator Generator, publisher *Publisher, store *storage.Store, cfg *config.Config, logger *log.Logger) *Pipeline {
	return &Pipeline{
		collector: collector,
		generator: generator,
		publisher: publisher,
		store:     store,
		cfg:       cfg,
		logger:    logger,
	}
}

// RunOptions are the per-invocation knobs.
type RunOptions struct {
	WindowDays int
	Version    string
}

// RunResult reports what one pipeline run produced.
type RunResult struct {
	Activity     domain.CollectedActivity
	Document     string
	DocUpdates   string
	SnapshotPath string
	NotesPath    string
	Outcome      domain.PublishOutcome
	Aborted      bool
}

// Succeeded reports whether the run completed and every attempted
// destination accepted the document.
func (r RunResult) Succeeded() bool {
	return !r.Aborted && r.Outcome.AllSucceeded()
}

// Run executes one collect/generate/publish cycle. Only collection
// failures (fatal configuration problems) surface as errors; snapshot and
// publish problems are logged and reflected in the result.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	var result RunResult

	budget := time.Duration(p.cfg.GitHub.CollectTimeoutSec) * time.Second
	activity, err := p.collector.CollectAll(ctx, opts.WindowDays, budget)
	if err != nil {
		return result, err
	}
	result.Activity = activity

	if path, err := p.store.SaveActivity(activity); err != nil {
		p.logger.Printf("failed to save activity snapshot: %v", err)
	} else {
		result.SnapshotPath = path
	}

	if activity.Empty() && p.Confirm != nil && !p.Confirm(activity) {
		p.logger.Printf("no activity found in the last %d days, run aborted", opts.WindowDays)
		result.Aborted = true
		return result, nil
	}

	result.Document = p.generator.GenerateReleaseNotes(ctx, activity, p.cfg.Output.Format, opts.Version)
	if p.cfg.GenerateDocUpdates {
		result.DocUpdates = p.generator.GenerateDocumentationUpdate(ctx, activity, p.cfg.Output.DocType)
	}

	if path, err := p.store.SaveReleaseNotes(result.Document, result.DocUpdates); err != nil {
		p.logger.Printf("failed to save release notes: %v", err)
	} else {
		result.NotesPath = path
	}

	if p.cfg.Publish.Enabled {
		targets := publishTargets(p.cfg, opts.Version)
		result.Outcome = p.publisher.PublishAll(ctx, result.Document, targets)
		p.logger.Printf("publishing results: %v", result.Outcome)
	}
	return result, nil
}

// publishTargets maps the configured destination sections to publish
// targets. An absent section produces no target, so the destination is
// never attempted. A release version overrides the configured tag name.
func publishTargets(cfg *config.Config, version string) domain.PublishTargets {
	var targets domain.PublishTargets
	if gh := cfg.Publish.GitHub; gh != nil {
		tag := gh.TagName
		if version != "" {
			tag = version
		}
		targets.Release = &domain.ReleaseTarget{
			Repository: gh.RepoName,
			TagName:    tag,
			Title:      gh.Name,
			Draft:      gh.Draft,
			Prerelease: gh.Prerelease,
		}
	}
	if sl := cfg.Publish.Slack; sl != nil {
		targets.Chat = &domain.ChatTarget{
			ChannelID: sl.ChannelID,
			Title:     sl.Title,
		}
	}
	if cf := cfg.Publish.Confluence; cf != nil {
		targets.Wiki = &domain.WikiTarget{
			SpaceKey:     cf.SpaceKey,
			ParentPageID: cf.ParentPageID,
			Title:        cf.Title,
		}
	}
	return targets
}
