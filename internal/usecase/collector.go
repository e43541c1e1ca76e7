// Package usecase contains the business logic of the application: the
// bounded collection pipeline and the multi-destination publication
// pipeline.
package usecase

import (
	"context"
	"log"
	"time"

	"github.com/raudabaugh/release-notes-assist/internal/domain"
	"github.com/raudabaugh/release-notes-assist/internal/gateway"
)

// Collector produces a CollectedActivity for a set of repositories within
// a recency window. Each activity kind runs under its own wall-clock
// budget; when the budget runs out the kind returns whatever accumulated
// so far across all repositories. Individual repository failures are
// logged and skipped, never fatal.
type Collector struct {
	source        gateway.ActivitySource
	collectIssues bool
	logger        *log.Logger
}

// NewCollector creates a Collector instance.
func NewCollector(source gateway.ActivitySource, collectIssues bool, logger *log.Logger) *Collector {
	return &Collector{
		source:        source,
		collectIssues: collectIssues,
		logger:        logger,
	}
}

// ResolveRepositories resolves the repository set for this run. Failure
// here is fatal: without repositories there is nothing to collect.
func (c *Collector) ResolveRepositories(ctx context.Context) ([]domain.RepositoryRef, error) {
	return c.source.ResolveRepositories(ctx)
}

// CollectAll resolves repositories and runs the three collections
// sequentially, each with a fresh budget: one kind exhausting its budget
// does not shorten the next kind's.
func (c *Collector) CollectAll(ctx context.Context, windowDays int, budgetPerKind time.Duration) (domain.CollectedActivity, error) {
	repos, err := c.ResolveRepositories(ctx)
	if err != nil {
		return domain.CollectedActivity{}, err
	}

	window := domain.NewActivityWindow(windowDays)
	c.logger.Printf("collecting activity for the past %d days across %d repositories", windowDays, len(repos))

	activity := domain.CollectedActivity{
		CollectedAt:    time.Now(),
		WindowDays:     windowDays,
		ChangeRequests: c.CollectChangeRequests(ctx, repos, window, budgetPerKind),
		Commits:        c.CollectCommits(ctx, repos, window, budgetPerKind),
		Issues:         c.CollectIssues(ctx, repos, window, budgetPerKind),
	}

	c.logger.Printf("collection complete: %d pull requests, %d commits, %d issues",
		len(activity.ChangeRequests), len(activity.Commits), len(activity.Issues))
	return activity, nil
}

// CollectChangeRequests gathers merged pull requests. The remote search
// filter is coarse, so every item's merge timestamp is re-validated
// against the frozen window boundary.
func (c *Collector) CollectChangeRequests(ctx context.Context, repos []domain.RepositoryRef, window domain.ActivityWindow, budget time.Duration) []domain.ChangeRequest {
	deadline := time.Now().Add(budget)
	collected := make([]domain.ChangeRequest, 0)

	for _, repo := range repos {
		cursor := ""
		for {
			if time.Now().After(deadline) {
				c.logger.Printf("pull request budget of %s exhausted, returning %d collected so far", budget, len(collected))
				return collected
			}
			items, next, err := c.source.SearchMergedPullRequests(ctx, repo, window.Boundary, cursor)
			if err != nil {
				c.logger.Printf("failed to get merged pull requests for %s: %v", repo.FullName(), err)
				break
			}
			for _, pr := range items {
				if time.Now().After(deadline) {
					c.logger.Printf("pull request budget of %s exhausted, returning %d collected so far", budget, len(collected))
					return collected
				}
				if !window.Contains(pr.MergedAt) {
					continue
				}
				collected = append(collected, pr)
			}
			if next == "" {
				break
			}
			cursor = next
		}
	}
	return collected
}

// CollectCommits gathers commits authored within the window.
func (c *Collector) CollectCommits(ctx context.Context, repos []domain.RepositoryRef, window domain.ActivityWindow, budget time.Duration) []domain.Commit {
	deadline := time.Now().Add(budget)
	collected := make([]domain.Commit, 0)

	for _, repo := range repos {
		page := 0
		for {
			if time.Now().After(deadline) {
				c.logger.Printf("commit budget of %s exhausted, returning %d collected so far", budget, len(collected))
				return collected
			}
			items, next, err := c.source.ListCommits(ctx, repo, window.Boundary, page)
			if err != nil {
				c.logger.Printf("failed to get commits for %s: %v", repo.FullName(), err)
				break
			}
			for _, commit := range items {
				if time.Now().After(deadline) {
					c.logger.Printf("commit budget of %s exhausted, returning %d collected so far", budget, len(collected))
					return collected
				}
				if !window.Contains(commit.AuthoredAt) {
					continue
				}
				collected = append(collected, commit)
			}
			if next == 0 {
				break
			}
			page = next
		}
	}
	return collected
}

// CollectIssues gathers issues updated within the window. When issue
// collection is disabled it returns immediately: no requests, no budget
// consumed.
func (c *Collector) CollectIssues(ctx context.Context, repos []domain.RepositoryRef, window domain.ActivityWindow, budget time.Duration) []domain.TrackedIssue {
	collected := make([]domain.TrackedIssue, 0)
	if !c.collectIssues {
		c.logger.Printf("issue collection is disabled, skipping")
		return collected
	}
	deadline := time.Now().Add(budget)

	for _, repo := range repos {
		page := 0
		for {
			if time.Now().After(deadline) {
				c.logger.Printf("issue budget of %s exhausted, returning %d collected so far", budget, len(collected))
				return collected
			}
			items, next, err := c.source.SearchUpdatedIssues(ctx, repo, window.Boundary, page)
			if err != nil {
				c.logger.Printf("failed to get issues for %s: %v", repo.FullName(), err)
				break
			}
			for _, issue := range items {
				if time.Now().After(deadline) {
					c.logger.Printf("issue budget of %s exhausted, returning %d collected so far", budget, len(collected))
					return collected
				}
				if !window.Contains(issue.UpdatedAt) {
					continue
				}
				collected = append(collected, issue)
			}
			if next == 0 {
				break
			}
			page = next
		}
	}
	return collected
}
