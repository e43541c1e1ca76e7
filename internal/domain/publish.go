package domain

// Destination names one publication surface.
type Destination string

const (
	DestinationGitHub     Destination = "github"
	DestinationSlack      Destination = "slack"
	DestinationConfluence Destination = "confluence"
)

// ReleaseTarget publishes the document as a tagged GitHub release.
type ReleaseTarget struct {
	Repository string // "owner/name"
	TagName    string
	Title      string // defaults to "Release <tag>"
	Draft      bool
	Prerelease bool
}

// ChatTarget publishes the document as a message to a Slack channel.
type ChatTarget struct {
	ChannelID string
	Title     string // defaults to a generic release-notes header
}

// WikiTarget publishes the document as a Confluence page, upserted by
// exact title within the space.
type WikiTarget struct {
	SpaceKey     string
	ParentPageID string
	Title        string // defaults to "Release Notes - <date>"
}

// PublishTargets holds one optional target per destination kind. A nil
// target means the destination is not configured and must be skipped
// entirely, not recorded as failed.
type PublishTargets struct {
	Release *ReleaseTarget
	Chat    *ChatTarget
	Wiki    *WikiTarget
}

// PublishOutcome maps each attempted destination to its success flag.
// Destinations that were never attempted do not appear.
type PublishOutcome map[Destination]bool

// AllSucceeded reports whether every attempted destination succeeded.
// An empty outcome (nothing attempted) counts as success.
func (o PublishOutcome) AllSucceeded() bool {
	for _, ok := range o {
		if !ok {
			return false
		}
	}
	return true
}
