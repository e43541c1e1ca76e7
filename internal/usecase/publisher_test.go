package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goconfluence "github.com/virtomize/confluence-go-api"

	"github.com/raudabaugh/release-notes-assist/internal/domain"
	"github.com/raudabaugh/release-notes-assist/internal/gateway"
)

type fakeReleaseCreator struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeReleaseCreator) CreateRelease(ctx context.Context, target domain.ReleaseTarget, document string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

type fakeChatPoster struct {
	mu      sync.Mutex
	err     error
	calls   int
	channel string
}

func (f *fakeChatPoster) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.channel = channelID
	if f.err != nil {
		return "", "", f.err
	}
	return channelID, "ts", nil
}

// fakeWiki is an in-memory Confluence keyed by page title.
type fakeWiki struct {
	mu      sync.Mutex
	pages   map[string]*goconfluence.Content
	nextID  int
	created int
	updated int
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{pages: map[string]*goconfluence.Content{}, nextID: 1}
}

func (f *fakeWiki) GetContent(query goconfluence.ContentQuery) (*goconfluence.ContentSearch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	search := &goconfluence.ContentSearch{}
	if page, ok := f.pages[query.Title]; ok {
		search.Results = []goconfluence.Content{*page}
		search.Size = 1
	}
	return search, nil
}

func (f *fakeWiki) CreateContent(content *goconfluence.Content) (*goconfluence.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *content
	stored.ID = strconv.Itoa(f.nextID)
	f.nextID++
	f.pages[content.Title] = &stored
	f.created++
	return &stored, nil
}

func (f *fakeWiki) UpdateContent(content *goconfluence.Content) (*goconfluence.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for title, page := range f.pages {
		if page.ID == content.ID {
			if title != content.Title {
				delete(f.pages, title)
			}
			stored := *content
			f.pages[content.Title] = &stored
			f.updated++
			return &stored, nil
		}
	}
	return nil, errors.New("page not found")
}

func TestPublisher_PublishAll_OutcomeKeys(t *testing.T) {
	releases := &fakeReleaseCreator{err: errors.New("tag already exists")}
	chat := &fakeChatPoster{}
	publisher := NewPublisher(releases, chat, nil, testLogger())

	targets := domain.PublishTargets{
		Release: &domain.ReleaseTarget{Repository: "org/a", TagName: "v1.0.0"},
		Chat:    &domain.ChatTarget{ChannelID: "C123"},
		// Wiki intentionally absent.
	}
	outcome := publisher.PublishAll(context.Background(), "notes", targets)

	// Exactly the attempted destinations appear, and the release failure
	// did not block the chat attempt.
	assert.Equal(t, domain.PublishOutcome{
		domain.DestinationGitHub: false,
		domain.DestinationSlack:  true,
	}, outcome)
	assert.Equal(t, 1, chat.calls)
	assert.Equal(t, "C123", chat.channel)
	assert.False(t, outcome.AllSucceeded())
}

func TestPublisher_PublishAll_NothingConfigured(t *testing.T) {
	publisher := NewPublisher(nil, nil, nil, testLogger())

	outcome := publisher.PublishAll(context.Background(), "notes", domain.PublishTargets{})

	assert.Empty(t, outcome)
	assert.True(t, outcome.AllSucceeded())
}

func TestPublisher_UnconfiguredDestinationRecordsFailure(t *testing.T) {
	// A target is present but the client credential never was: recorded as
	// failed, not raised.
	publisher := NewPublisher(nil, nil, nil, testLogger())

	targets := domain.PublishTargets{Release: &domain.ReleaseTarget{Repository: "org/a", TagName: "v1"}}
	outcome := publisher.PublishAll(context.Background(), "notes", targets)

	assert.Equal(t, domain.PublishOutcome{domain.DestinationGitHub: false}, outcome)
}

func TestPublisher_PublishWikiPage_UpsertIsIdempotent(t *testing.T) {
	wiki := newFakeWiki()
	publisher := NewPublisher(nil, nil, wiki, testLogger())
	target := domain.WikiTarget{SpaceKey: "ENG", ParentPageID: "100", Title: "Release Notes - Sprint 12"}

	require.True(t, publisher.PublishWikiPage(target, "first draft"))
	require.True(t, publisher.PublishWikiPage(target, "final notes"))

	// One page, holding the latest document.
	assert.Equal(t, 1, wiki.created)
	assert.Equal(t, 1, wiki.updated)
	require.Len(t, wiki.pages, 1)
	page := wiki.pages["Release Notes - Sprint 12"]
	assert.Contains(t, page.Body.Storage.Value, "final notes")
	assert.NotContains(t, page.Body.Storage.Value, "first draft")
	require.NotNil(t, page.Version)
	assert.Equal(t, 2, page.Version.Number)
}

func TestPublisher_PublishWikiPage_CreateUnderParent(t *testing.T) {
	wiki := newFakeWiki()
	publisher := NewPublisher(nil, nil, wiki, testLogger())

	ok := publisher.PublishWikiPage(domain.WikiTarget{SpaceKey: "ENG", ParentPageID: "100", Title: "Weekly"}, "doc")

	require.True(t, ok)
	page := wiki.pages["Weekly"]
	require.Len(t, page.Ancestors, 1)
	assert.Equal(t, "100", page.Ancestors[0].ID)
	assert.Contains(t, page.Body.Storage.Value, "ac:structured-macro")
}

func TestPublisher_PublishChatMessage(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		chat := &fakeChatPoster{}
		publisher := NewPublisher(nil, chat, nil, testLogger())

		ok := publisher.PublishChatMessage(context.Background(), domain.ChatTarget{ChannelID: "C123"}, "notes")

		assert.True(t, ok)
		assert.Equal(t, 1, chat.calls)
	})

	t.Run("remote failure yields false, not an error", func(t *testing.T) {
		chat := &fakeChatPoster{err: errors.New("channel_not_found")}
		publisher := NewPublisher(nil, chat, nil, testLogger())

		ok := publisher.PublishChatMessage(context.Background(), domain.ChatTarget{ChannelID: "C404"}, "notes")

		assert.False(t, ok)
	})
}

var _ gateway.WikiClient = (*fakeWiki)(nil)
var _ gateway.ChatPoster = (*fakeChatPoster)(nil)
var _ gateway.ReleaseCreator = (*fakeReleaseCreator)(nil)
