package gateway

import (
	"context"
	"unicode/utf8"

	"github.com/slack-go/slack"
)

// maxChatSectionLength is Slack's limit for a section block's text. A
// longer document is cut at this boundary and a single truncation notice
// is appended; there is no multi-message pagination.
const maxChatSectionLength = 3000

const truncationNotice = "...(content truncated due to length limits. See full release notes on GitHub)..."

const defaultChatTitle = "📝 New Release Notes"

const defaultChatFallback = "New Release Notes"

// ChatPoster is the slice of the Slack client the publisher needs. The
// real *slack.Client satisfies it directly.
type ChatPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// NewSlackClient constructs the Slack web API client.
func NewSlackClient(token string) *slack.Client {
	return slack.New(token)
}

// BuildChatBlocks lays the document out as a Slack message: a header, a
// divider, and exactly one content section, plus at most one truncation
// notice. The returned fallback renders on clients without Block Kit.
func BuildChatBlocks(title, document string) (blocks []slack.Block, fallback string) {
	fallback = title
	if title == "" {
		title = defaultChatTitle
		fallback = defaultChatFallback
	}
	body := document
	truncated := false
	// The limit counts characters, not bytes, so cut by rune to keep
	// multi-byte content valid UTF-8.
	if utf8.RuneCountInString(body) > maxChatSectionLength {
		body = string([]rune(body)[:maxChatSectionLength])
		truncated = true
	}

	blocks = []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, true, false)),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, body, false, false), nil, nil),
	}
	if truncated {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, truncationNotice, false, false), nil, nil))
	}
	return blocks, fallback
}
