// Package gateway provides gateways to the remote services the pipelines
// depend on (GitHub, Slack, Confluence, Azure OpenAI), abstracting away
// the underlying client libraries.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/raudabaugh/release-notes-assist/internal/domain"
)

const searchPageSize = 50

// ActivitySource defines the behavior of a gateway for fetching repository
// activity. Every paged method returns one page plus a continuation token
// ("" / 0 when exhausted) so the caller controls the page loop and can
// stop mid-flight when its budget runs out.
type ActivitySource interface {
	ResolveRepositories(ctx context.Context) ([]domain.RepositoryRef, error)
	SearchMergedPullRequests(ctx context.Context, repo domain.RepositoryRef, since time.Time, cursor string) ([]domain.ChangeRequest, string, error)
	ListCommits(ctx context.Context, repo domain.RepositoryRef, since time.Time, page int) ([]domain.Commit, int, error)
	SearchUpdatedIssues(ctx context.Context, repo domain.RepositoryRef, since time.Time, page int) ([]domain.TrackedIssue, int, error)
}

// ReleaseCreator publishes a document as a tagged release.
type ReleaseCreator interface {
	CreateRelease(ctx context.Context, target domain.ReleaseTarget, document string) error
}

// GitHubGateway is the concrete GitHub implementation of ActivitySource
// and ReleaseCreator. Merged pull requests are fetched through the GraphQL
// search API (merge timestamps and labels come back in one round trip);
// commits, issues, repository resolution, and releases go through REST.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	organization  string
	repository    string
	logger        *log.Logger
}

// mergedPRQuery is the GraphQL search query for merged pull requests.
type mergedPRQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Edges []struct {
			Node struct {
				Typename    string `graphql:"__typename"`
				PullRequest struct {
					Number   int
					Title    string
					Body     string
					URL      githubv4.URI
					MergedAt githubv4.DateTime
					Author   struct {
						Login string
					}
					Labels struct {
						Nodes []struct {
							Name string
						}
					} `graphql:"labels(first: 20)"`
					Repository struct {
						NameWithOwner string
					}
				} `graphql:"... on PullRequest"`
			}
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 50, after: $cursor)"`
}

// NewGitHubGateway constructs a gateway authenticated with a bearer token.
// An empty token is a configuration error: nothing in this gateway works
// without one.
func NewGitHubGateway(token, organization, repository string, logger *log.Logger) (*GitHubGateway, error) {
	if token == "" {
		return nil, domain.NewConfigurationError("GitHub token is required")
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		organization:  organization,
		repository:    repository,
		logger:        logger,
	}, nil
}

// ResolveRepositories determines the repository set for a collection run:
// an explicit organization/repository pair, every repository of the
// organization, or, failing both, every repository the token can see. An
// empty result is fatal; there is nothing to collect from.
func (g *GitHubGateway) ResolveRepositories(ctx context.Context) ([]domain.RepositoryRef, error) {
	switch {
	case g.organization != "" && g.repository != "":
		repo, _, err := g.restClient.Repositories.Get(ctx, g.organization, g.repository)
		if err != nil {
			return nil, domain.NewConfigurationError("failed to get repository %s/%s: %v", g.organization, g.repository, err)
		}
		return []domain.RepositoryRef{{Owner: repo.GetOwner().GetLogin(), Name: repo.GetName()}}, nil

	case g.organization != "":
		var refs []domain.RepositoryRef
		opts := &github.RepositoryListByOrgOptions{ListOptions: github.ListOptions{PerPage: 100}}
		for {
			repos, resp, err := g.restClient.Repositories.ListByOrg(ctx, g.organization, opts)
			if err != nil {
				return nil, domain.NewConfigurationError("failed to list repositories for organization %s: %v", g.organization, err)
			}
			for _, repo := range repos {
				refs = append(refs, domain.RepositoryRef{Owner: repo.GetOwner().GetLogin(), Name: repo.GetName()})
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		if len(refs) == 0 {
			return nil, domain.NewConfigurationError("organization %s has no accessible repositories", g.organization)
		}
		return refs, nil

	default:
		// No target configured; fall back to whatever the credential can see.
		var refs []domain.RepositoryRef
		opts := &github.RepositoryListByAuthenticatedUserOptions{ListOptions: github.ListOptions{PerPage: 100}}
		for {
			repos, resp, err := g.restClient.Repositories.ListByAuthenticatedUser(ctx, opts)
			if err != nil {
				return nil, domain.NewConfigurationError("no organization or repository configured and the credential cannot enumerate repositories: %v", err)
			}
			for _, repo := range repos {
				refs = append(refs, domain.RepositoryRef{Owner: repo.GetOwner().GetLogin(), Name: repo.GetName()})
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		if len(refs) == 0 {
			return nil, domain.NewConfigurationError("no organization or repository configured and the credential has no accessible repositories")
		}
		return refs, nil
	}
}

// SearchMergedPullRequests fetches one page of pull requests merged on or
// after since. The search date filter is coarse (the index may lag), so
// callers re-validate MergedAt locally.
func (g *GitHubGateway) SearchMergedPullRequests(ctx context.Context, repo domain.RepositoryRef, since time.Time, cursor string) ([]domain.ChangeRequest, string, error) {
	query := fmt.Sprintf("repo:%s is:pr is:merged merged:>=%s", repo.FullName(), since.Format("2006-01-02"))
	variables := map[string]interface{}{
		"query":  githubv4.String(query),
		"cursor": (*githubv4.String)(nil),
	}
	if cursor != "" {
		variables["cursor"] = githubv4.NewString(githubv4.String(cursor))
	}

	var q mergedPRQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, "", &domain.RemoteOperationError{Op: "search merged pull requests", Target: repo.FullName(), Err: err}
	}

	prs := make([]domain.ChangeRequest, 0, len(q.Search.Edges))
	for _, edge := range q.Search.Edges {
		if edge.Node.Typename != "PullRequest" {
			continue
		}
		node := edge.Node.PullRequest
		labels := make([]string, 0, len(node.Labels.Nodes))
		for _, l := range node.Labels.Nodes {
			labels = append(labels, l.Name)
		}
		prs = append(prs, domain.ChangeRequest{
			Number:     node.Number,
			Title:      node.Title,
			Body:       node.Body,
			URL:        node.URL.String(),
			MergedAt:   node.MergedAt.Time,
			Author:     node.Author.Login,
			Labels:     labels,
			Repository: node.Repository.NameWithOwner,
		})
	}

	next := ""
	if q.Search.PageInfo.HasNextPage {
		next = string(q.Search.PageInfo.EndCursor)
	}
	return prs, next, nil
}

// ListCommits fetches one page of commits authored on or after since.
// Page 0 means the first page; the returned page is 0 when exhausted.
func (g *GitHubGateway) ListCommits(ctx context.Context, repo domain.RepositoryRef, since time.Time, page int) ([]domain.Commit, int, error) {
	opts := &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: 100, Page: page},
	}
	raw, resp, err := g.restClient.Repositories.ListCommits(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, 0, &domain.RemoteOperationError{Op: "list commits", Target: repo.FullName(), Err: err}
	}

	commits := make([]domain.Commit, 0, len(raw))
	for _, c := range raw {
		commits = append(commits, domain.Commit{
			SHA:        c.GetSHA(),
			Message:    c.GetCommit().GetMessage(),
			URL:        c.GetHTMLURL(),
			AuthoredAt: c.GetCommit().GetAuthor().GetDate().Time,
			Author:     c.GetCommit().GetAuthor().GetName(),
			Repository: repo.FullName(),
		})
	}
	return commits, resp.NextPage, nil
}

// SearchUpdatedIssues fetches one page of issues updated on or after
// since. GitHub's issue search index also contains pull requests; those
// arrive with pull-request links set and are dropped here.
func (g *GitHubGateway) SearchUpdatedIssues(ctx context.Context, repo domain.RepositoryRef, since time.Time, page int) ([]domain.TrackedIssue, int, error) {
	query := fmt.Sprintf("repo:%s is:issue updated:>=%s", repo.FullName(), since.Format("2006-01-02"))
	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: searchPageSize, Page: page}}
	result, resp, err := g.restClient.Search.Issues(ctx, query, opts)
	if err != nil {
		return nil, 0, &domain.RemoteOperationError{Op: "search updated issues", Target: repo.FullName(), Err: err}
	}

	issues := make([]domain.TrackedIssue, 0, len(result.Issues))
	for _, issue := range result.Issues {
		if issue.PullRequestLinks != nil {
			// A pull request hiding in the issue index.
			continue
		}
		labels := make([]string, 0, len(issue.Labels))
		for _, l := range issue.Labels {
			labels = append(labels, l.GetName())
		}
		var closedAt *time.Time
		if issue.ClosedAt != nil {
			t := issue.ClosedAt.Time
			closedAt = &t
		}
		issues = append(issues, domain.TrackedIssue{
			Number:     issue.GetNumber(),
			Title:      issue.GetTitle(),
			Body:       issue.GetBody(),
			URL:        issue.GetHTMLURL(),
			State:      domain.IssueState(issue.GetState()),
			CreatedAt:  issue.GetCreatedAt().Time,
			UpdatedAt:  issue.GetUpdatedAt().Time,
			ClosedAt:   closedAt,
			Author:     issue.GetUser().GetLogin(),
			Labels:     labels,
			Repository: repo.FullName(),
		})
	}
	return issues, resp.NextPage, nil
}

// CreateRelease publishes the document as a release attached to the
// target's tag. Release creation is not idempotent on the GitHub side; a
// second call with the same tag may fail, which callers treat like any
// other remote failure.
func (g *GitHubGateway) CreateRelease(ctx context.Context, target domain.ReleaseTarget, document string) error {
	owner, name, ok := strings.Cut(target.Repository, "/")
	if !ok {
		return domain.NewConfigurationError("release repository %q is not in owner/name form", target.Repository)
	}
	title := target.Title
	if title == "" {
		title = "Release " + target.TagName
	}
	release := &github.RepositoryRelease{
		TagName:    github.String(target.TagName),
		Name:       github.String(title),
		Body:       github.String(document),
		Draft:      github.Bool(target.Draft),
		Prerelease: github.Bool(target.Prerelease),
	}
	if _, _, err := g.restClient.Repositories.CreateRelease(ctx, owner, name, release); err != nil {
		return &domain.RemoteOperationError{Op: "create release", Target: target.Repository, Err: err}
	}
	g.logger.Printf("published release %s to %s", target.TagName, target.Repository)
	return nil
}
