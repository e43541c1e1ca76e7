package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/raudabaugh/release-notes-assist/internal/domain"
)

const (
	releaseNotesSystemRole = "You are a professional technical writer creating clear, concise release notes."
	docUpdateSystemRole    = "You are a professional technical writer creating clear, comprehensive documentation."

	releaseNotesTemperature = 0.5
	docUpdateTemperature    = 0.7
)

// ChatCompleter is the slice of the OpenAI client the generator needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NoteGenerator turns collected activity into prose via Azure OpenAI chat
// completions. Generation failures are returned as document text, never as
// errors: once collection has succeeded the pipeline always has some
// document to carry forward.
type NoteGenerator struct {
	client ChatCompleter
	model  string
	logger *log.Logger
}

// NewNoteGenerator constructs a generator against an Azure OpenAI
// deployment. Key and endpoint are mandatory.
func NewNoteGenerator(apiKey, endpoint, deployment, apiVersion string, logger *log.Logger) (*NoteGenerator, error) {
	if apiKey == "" {
		return nil, domain.NewConfigurationError("Azure OpenAI API key is required")
	}
	if endpoint == "" {
		return nil, domain.NewConfigurationError("Azure OpenAI endpoint is required")
	}
	if deployment == "" {
		deployment = "gpt-4o"
	}
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		cfg.APIVersion = apiVersion
	}
	return &NoteGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  deployment,
		logger: logger,
	}, nil
}

// GenerateReleaseNotes produces the release-notes document for the
// activity in the requested format.
func (g *NoteGenerator) GenerateReleaseNotes(ctx context.Context, activity domain.CollectedActivity, format, version string) string {
	prompt := buildReleaseNotesPrompt(activity, format, version)
	g.logger.Printf("release notes prompt length: %d characters", len(prompt))
	return g.complete(ctx, releaseNotesSystemRole, prompt, releaseNotesTemperature, "release notes")
}

// GenerateDocumentationUpdate produces documentation-update suggestions
// derived from the documentation-related and feature subsets of the
// activity.
func (g *NoteGenerator) GenerateDocumentationUpdate(ctx context.Context, activity domain.CollectedActivity, docType string) string {
	prompt := buildDocumentationUpdatePrompt(activity, docType)
	return g.complete(ctx, docUpdateSystemRole, prompt, docUpdateTemperature, "documentation update")
}

func (g *NoteGenerator) complete(ctx context.Context, systemRole, prompt string, temperature float32, kind string) string {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemRole},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		g.logger.Printf("error generating %s: %v", kind, err)
		return fmt.Sprintf("Error generating %s: %v", kind, err)
	}
	if len(resp.Choices) == 0 {
		g.logger.Printf("error generating %s: completion returned no choices", kind)
		return fmt.Sprintf("Error generating %s: completion returned no choices", kind)
	}
	return resp.Choices[0].Message.Content
}

func buildReleaseNotesPrompt(activity domain.CollectedActivity, format, version string) string {
	var b strings.Builder

	b.WriteString("You are a technical writer creating release notes for a software project.\n")
	b.WriteString("Please generate comprehensive release notes based on the following GitHub data.\n")
	if version != "" {
		fmt.Fprintf(&b, "Version: %s\n", version)
	}
	fmt.Fprintf(&b, "Collection period: %d days\n\n", activity.WindowDays)

	b.WriteString("## Merged Pull Requests:\n")
	if len(activity.ChangeRequests) == 0 {
		b.WriteString("No pull requests merged in this period.\n")
	}
	for _, pr := range activity.ChangeRequests {
		writeChangeRequest(&b, pr)
		fmt.Fprintf(&b, "  Author: %s\n\n", pr.Author)
	}

	b.WriteString("\n## Commits:\n")
	if len(activity.Commits) == 0 {
		b.WriteString("No commits in this period.\n")
	}
	for _, c := range activity.Commits {
		sha := c.SHA
		if len(sha) > 7 {
			sha = sha[:7]
		}
		fmt.Fprintf(&b, "- Commit %s: %s (%s)\n", sha, c.Message, c.URL)
		fmt.Fprintf(&b, "  Author: %s\n\n", c.Author)
	}

	b.WriteString("\n## Issues:\n")
	if len(activity.Issues) == 0 {
		b.WriteString("No issues updated in this period.\n")
	}
	for _, issue := range activity.Issues {
		status := "updated"
		if issue.State == domain.IssueClosed {
			status = "closed"
		}
		fmt.Fprintf(&b, "- Issue #%d (%s): %s (%s)\n", issue.Number, status, issue.Title, issue.URL)
		if issue.Body != "" {
			fmt.Fprintf(&b, "  Description: %s\n", issue.Body)
		}
		fmt.Fprintf(&b, "  Labels: %s\n\n", strings.Join(issue.Labels, ", "))
	}

	b.WriteString(`
Please organize the release notes into the following sections:
1. Summary (brief overview of the changes)
2. New Features
3. Bug Fixes
4. Documentation Updates
5. Other Changes

`)
	fmt.Fprintf(&b, "Format the release notes in %s format and make them user-friendly.\n", format)
	b.WriteString("Include links to PRs, issues, and commits where relevant.\n")
	b.WriteString("Focus on the impact to users rather than technical implementation details.\n")
	return b.String()
}

func buildDocumentationUpdatePrompt(activity domain.CollectedActivity, docType string) string {
	docPRs := documentationChangeRequests(activity.ChangeRequests)
	featPRs := featureChangeRequests(activity.ChangeRequests, docPRs)

	var b strings.Builder
	b.WriteString("You are a technical writer updating documentation for a software project.\n")
	b.WriteString("Please suggest documentation updates based on the following GitHub data.\n\n")

	b.WriteString("## Documentation-Related Pull Requests:\n")
	if len(docPRs) == 0 {
		b.WriteString("No documentation-specific pull requests in this period.\n")
	}
	for _, pr := range docPRs {
		writeChangeRequest(&b, pr)
		b.WriteString("\n")
	}

	b.WriteString("\n## New Features That Might Need Documentation:\n")
	if len(featPRs) == 0 {
		b.WriteString("No new features added in this period.\n")
	}
	for _, pr := range featPRs {
		writeChangeRequest(&b, pr)
		b.WriteString("\n")
	}

	b.WriteString(`
Please provide the following:
1. Summary of documentation changes needed
2. Specific sections that should be updated or created
3. Sample content for each section (in markdown format)

`)
	fmt.Fprintf(&b, "Focus on %s documentation specifically.\n", docType)
	return b.String()
}

func writeChangeRequest(b *strings.Builder, pr domain.ChangeRequest) {
	fmt.Fprintf(b, "- PR #%d: %s (%s)\n", pr.Number, pr.Title, pr.URL)
	if pr.Body != "" {
		fmt.Fprintf(b, "  Description: %s\n", pr.Body)
	}
	fmt.Fprintf(b, "  Labels: %s\n", strings.Join(pr.Labels, ", "))
}

var (
	docLabels     = []string{"documentation", "docs", "readme"}
	featureLabels = []string{"feature", "enhancement", "new"}
)

// documentationChangeRequests selects PRs that touch documentation, by
// label or by keyword in the title or body.
func documentationChangeRequests(prs []domain.ChangeRequest) []domain.ChangeRequest {
	var out []domain.ChangeRequest
	for _, pr := range prs {
		related := hasAnyLabel(pr.Labels, docLabels) ||
			containsAny(pr.Title, "doc", "readme") ||
			containsAny(pr.Body, "doc", "readme")
		if related {
			out = append(out, pr)
		}
	}
	return out
}

// featureChangeRequests selects feature-looking PRs that are not already
// counted as documentation PRs. De-duplication is by item identity
// (repository plus number), not structural equality.
func featureChangeRequests(prs, docPRs []domain.ChangeRequest) []domain.ChangeRequest {
	seen := make(map[string]bool, len(docPRs))
	for _, pr := range docPRs {
		seen[changeRequestKey(pr)] = true
	}
	var out []domain.ChangeRequest
	for _, pr := range prs {
		if seen[changeRequestKey(pr)] {
			continue
		}
		feature := hasAnyLabel(pr.Labels, featureLabels) ||
			containsAny(pr.Title, "feature", "add")
		if feature {
			out = append(out, pr)
		}
	}
	return out
}

func changeRequestKey(pr domain.ChangeRequest) string {
	return fmt.Sprintf("%s#%d", pr.Repository, pr.Number)
}

func hasAnyLabel(labels, wanted []string) bool {
	for _, l := range labels {
		for _, w := range wanted {
			if strings.EqualFold(l, w) {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, keywords ...string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
