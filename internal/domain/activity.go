// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// RepositoryRef identifies one remote repository by owner and name.
// It is resolved once per collection run and never mutated afterwards.
type RepositoryRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns the repository in "owner/name" form.
func (r RepositoryRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// ActivityWindow is a recency boundary frozen at the start of a collection
// run. All per-item recency checks compare against Boundary, not against a
// re-evaluated "now", so results are consistent regardless of how long the
// run takes.
type ActivityWindow struct {
	Days     int
	Boundary time.Time
}

// NewActivityWindow freezes the boundary for a "look back N days" window.
func NewActivityWindow(days int) ActivityWindow {
	return ActivityWindow{
		Days:     days,
		Boundary: time.Now().AddDate(0, 0, -days),
	}
}

// Contains reports whether ts falls inside the window.
func (w ActivityWindow) Contains(ts time.Time) bool {
	return !ts.Before(w.Boundary)
}

// ChangeRequest is a merged pull request. The authoritative recency
// timestamp is MergedAt.
type ChangeRequest struct {
	Number     int       `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	URL        string    `json:"url"`
	MergedAt   time.Time `json:"merged_at"`
	Author     string    `json:"user"`
	Labels     []string  `json:"labels"`
	Repository string    `json:"repository"`
}

// Commit is a single repository commit. The authoritative recency
// timestamp is AuthoredAt.
type Commit struct {
	SHA        string    `json:"sha"`
	Message    string    `json:"message"`
	URL        string    `json:"url"`
	AuthoredAt time.Time `json:"date"`
	Author     string    `json:"author"`
	Repository string    `json:"repository"`
}

// IssueState is the lifecycle state of a tracked issue.
type IssueState string

const (
	IssueOpen   IssueState = "open"
	IssueClosed IssueState = "closed"
)

// TrackedIssue is an issue updated within the window. The authoritative
// recency timestamp is UpdatedAt.
type TrackedIssue struct {
	Number     int        `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body,omitempty"`
	URL        string     `json:"url"`
	State      IssueState `json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	Author     string     `json:"user"`
	Labels     []string   `json:"labels"`
	Repository string     `json:"repository"`
}

// CollectedActivity is the unit handed to narrative generation. It is a
// value: once built by the collector it is never mutated.
type CollectedActivity struct {
	CollectedAt    time.Time       `json:"collected_at"`
	WindowDays     int             `json:"collection_period_days"`
	ChangeRequests []ChangeRequest `json:"merged_prs"`
	Commits        []Commit        `json:"commits"`
	Issues         []TrackedIssue  `json:"issues"`
}

// Empty reports whether the collection found no activity of any kind.
func (a CollectedActivity) Empty() bool {
	return len(a.ChangeRequests) == 0 && len(a.Commits) == 0 && len(a.Issues) == 0
}
