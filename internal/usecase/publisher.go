package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/slack-go/slack"
	goconfluence "github.com/virtomize/confluence-go-api"
	"golang.org/x/sync/errgroup"

	"github.com/raudabaugh/release-notes-assist/internal/domain"
	"github.com/raudabaugh/release-notes-assist/internal/gateway"
)

// Publisher delivers one finished document to every configured
// destination independently. Remote failures never propagate as errors:
// each destination operation returns a plain success flag after logging
// what went wrong. A nil client means the destination's credential was
// never supplied; attempts against it are recorded as failed.
type Publisher struct {
	releases gateway.ReleaseCreator
	chat     gateway.ChatPoster
	wiki     gateway.WikiClient
	logger   *log.Logger
}

// NewPublisher creates a Publisher. Any client may be nil.
func NewPublisher(releases gateway.ReleaseCreator, chat gateway.ChatPoster, wiki gateway.WikiClient, logger *log.Logger) *Publisher {
	return &Publisher{
		releases: releases,
		chat:     chat,
		wiki:     wiki,
		logger:   logger,
	}
}

// PublishRelease creates a tagged release carrying the document.
func (p *Publisher) PublishRelease(ctx context.Context, target domain.ReleaseTarget, document string) bool {
	if p.releases == nil {
		p.logger.Printf("github client not initialized, make sure GITHUB_TOKEN is set")
		return false
	}
	if err := p.releases.CreateRelease(ctx, target, document); err != nil {
		p.logger.Printf("failed to publish to github: %v", err)
		return false
	}
	return true
}

// PublishChatMessage posts the document to a Slack channel, truncated to
// the channel message limit with a single notice block when too long.
func (p *Publisher) PublishChatMessage(ctx context.Context, target domain.ChatTarget, document string) bool {
	if p.chat == nil {
		p.logger.Printf("slack client not initialized, make sure SLACK_TOKEN is set")
		return false
	}
	blocks, fallback := gateway.BuildChatBlocks(target.Title, document)
	_, _, err := p.chat.PostMessageContext(ctx, target.ChannelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(fallback, false),
	)
	if err != nil {
		p.logger.Printf("failed to publish to slack: %v", err)
		return false
	}
	p.logger.Printf("published release notes to slack channel %s", target.ChannelID)
	return true
}

// PublishWikiPage upserts a Confluence page keyed by exact title within
// the space: update in place when the title exists, otherwise create it
// under the configured parent. Publishing the same title twice yields one
// page holding the latest document.
func (p *Publisher) PublishWikiPage(target domain.WikiTarget, document string) bool {
	if p.wiki == nil {
		p.logger.Printf("confluence client not initialized, make sure CONFLUENCE_URL, CONFLUENCE_USERNAME, and CONFLUENCE_TOKEN are set")
		return false
	}

	title := target.Title
	if title == "" {
		title = "Release Notes - " + time.Now().Format("2006-01-02")
	}
	body := goconfluence.Body{
		Storage: goconfluence.Storage{
			Value:          gateway.WikiStorageBody(document),
			Representation: "storage",
		},
	}

	search, err := p.wiki.GetContent(goconfluence.ContentQuery{
		SpaceKey: target.SpaceKey,
		Title:    title,
		Type:     "page",
		Expand:   []string{"version"},
	})
	if err != nil {
		p.logger.Printf("failed to publish to confluence: %v", err)
		return false
	}

	if search != nil && len(search.Results) > 0 {
		existing := search.Results[0]
		version := 2
		if existing.Version != nil {
			version = existing.Version.Number + 1
		}
		_, err = p.wiki.UpdateContent(&goconfluence.Content{
			ID:      existing.ID,
			Type:    "page",
			Title:   title,
			Space:   &goconfluence.Space{Key: target.SpaceKey},
			Body:    body,
			Version: &goconfluence.Version{Number: version},
		})
		if err != nil {
			p.logger.Printf("failed to publish to confluence: %v", err)
			return false
		}
		p.logger.Printf("updated confluence page %q", title)
		return true
	}

	_, err = p.wiki.CreateContent(&goconfluence.Content{
		Type:      "page",
		Title:     title,
		Ancestors: []goconfluence.Ancestor{{ID: target.ParentPageID}},
		Space:     &goconfluence.Space{Key: target.SpaceKey},
		Body:      body,
		Version:   &goconfluence.Version{Number: 1},
	})
	if err != nil {
		p.logger.Printf("failed to publish to confluence: %v", err)
		return false
	}
	p.logger.Printf("created confluence page %q", title)
	return true
}

// PublishAll attempts every configured destination concurrently and
// records a per-destination success flag. Destinations without a target
// are skipped entirely and never appear in the outcome; one destination's
// failure never blocks another's attempt.
func (p *Publisher) PublishAll(ctx context.Context, document string, targets domain.PublishTargets) domain.PublishOutcome {
	outcome := make(domain.PublishOutcome)
	var mu sync.Mutex
	record := func(dest domain.Destination, ok bool) {
		mu.Lock()
		outcome[dest] = ok
		mu.Unlock()
	}

	eg, egCtx := errgroup.WithContext(ctx)

	if targets.Release != nil {
		target := *targets.Release
		eg.Go(func() error {
			record(domain.DestinationGitHub, p.PublishRelease(egCtx, target, document))
			return nil
		})
	}
	if targets.Chat != nil {
		target := *targets.Chat
		eg.Go(func() error {
			record(domain.DestinationSlack, p.PublishChatMessage(egCtx, target, document))
			return nil
		})
	}
	if targets.Wiki != nil {
		target := *targets.Wiki
		eg.Go(func() error {
			record(domain.DestinationConfluence, p.PublishWikiPage(target, document))
			return nil
		})
	}

	// Destination attempts never return errors; Wait only synchronizes.
	_ = eg.Wait()
	return outcome
}
