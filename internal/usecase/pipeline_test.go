package usecase

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/raudabaugh/release-notes-assist/internal/config"
	"github.com/raudabaugh/release-notes-assist/internal/domain"
	"github.com/raudabaugh/release-notes-assist/internal/storage"
)

// mockGenerator is a mock implementation of the Generator interface.
type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateReleaseNotes(ctx context.Context, activity domain.CollectedActivity, format, version string) string {
	args := m.Called(ctx, activity, format, version)
	return args.String(0)
}

func (m *mockGenerator) GenerateDocumentationUpdate(ctx context.Context, activity domain.CollectedActivity, docType string) string {
	args := m.Called(ctx, activity, docType)
	return args.String(0)
}

func testConfig() *config.Config {
	return &config.Config{
		GitHub:   config.GitHubConfig{CollectIssues: true, CollectTimeoutSec: 60},
		Schedule: config.ScheduleConfig{LookBackDays: 7},
		Output:   config.OutputConfig{Format: "markdown", DocType: "technical"},
	}
}

func newTestPipeline(t *testing.T, source *stubSource, generator Generator, cfg *config.Config) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	collector := NewCollector(source, cfg.GitHub.CollectIssues, testLogger())
	publisher := NewPublisher(nil, nil, nil, testLogger())
	store := storage.NewStore(dir+"/data", dir+"/output", testLogger())
	return NewPipeline(collector, generator, publisher, store, cfg, testLogger())
}

func activitySource() *stubSource {
	repoA := domain.RepositoryRef{Owner: "org", Name: "a"}
	return &stubSource{
		repos: []domain.RepositoryRef{repoA},
		prPages: map[string][][]domain.ChangeRequest{
			"org/a": {{{Number: 1, Title: "Add export", MergedAt: daysAgo(1), Repository: "org/a"}}},
		},
	}
}

func TestPipeline_Run(t *testing.T) {
	generator := &mockGenerator{}
	generator.On("GenerateReleaseNotes", mock.Anything, mock.Anything, "markdown", "v1.0.0").Return("# Notes")
	pipeline := newTestPipeline(t, activitySource(), generator, testConfig())

	result, err := pipeline.Run(context.Background(), RunOptions{WindowDays: 7, Version: "v1.0.0"})

	require.NoError(t, err)
	assert.Equal(t, "# Notes", result.Document)
	assert.Empty(t, result.DocUpdates)
	assert.False(t, result.Aborted)
	assert.True(t, result.Succeeded())
	assert.FileExists(t, result.SnapshotPath)
	assert.FileExists(t, result.NotesPath)
	generator.AssertNotCalled(t, "GenerateDocumentationUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_Run_WithDocUpdates(t *testing.T) {
	cfg := testConfig()
	cfg.GenerateDocUpdates = true
	generator := &mockGenerator{}
	generator.On("GenerateReleaseNotes", mock.Anything, mock.Anything, "markdown", "").Return("# Notes")
	generator.On("GenerateDocumentationUpdate", mock.Anything, mock.Anything, "technical").Return("update the guide")
	pipeline := newTestPipeline(t, activitySource(), generator, cfg)

	result, err := pipeline.Run(context.Background(), RunOptions{WindowDays: 7})

	require.NoError(t, err)
	assert.Equal(t, "update the guide", result.DocUpdates)
	raw, readErr := os.ReadFile(result.NotesPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(raw), "## Documentation Update Suggestions")
	assert.Contains(t, string(raw), "update the guide")
}

func TestPipeline_Run_EmptyActivityAborted(t *testing.T) {
	source := &stubSource{repos: []domain.RepositoryRef{{Owner: "org", Name: "a"}}}
	generator := &mockGenerator{}
	pipeline := newTestPipeline(t, source, generator, testConfig())
	pipeline.Confirm = func(activity domain.CollectedActivity) bool { return false }

	result, err := pipeline.Run(context.Background(), RunOptions{WindowDays: 7})

	require.NoError(t, err)
	assert.True(t, result.Aborted)
	assert.False(t, result.Succeeded())
	generator.AssertNotCalled(t, "GenerateReleaseNotes", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_Run_EmptyActivityConfirmed(t *testing.T) {
	source := &stubSource{repos: []domain.RepositoryRef{{Owner: "org", Name: "a"}}}
	generator := &mockGenerator{}
	generator.On("GenerateReleaseNotes", mock.Anything, mock.Anything, "markdown", "").Return("quiet week")
	pipeline := newTestPipeline(t, source, generator, testConfig())
	pipeline.Confirm = func(activity domain.CollectedActivity) bool { return true }

	result, err := pipeline.Run(context.Background(), RunOptions{WindowDays: 7})

	require.NoError(t, err)
	assert.False(t, result.Aborted)
	assert.Equal(t, "quiet week", result.Document)
}

func TestPipeline_Run_CollectionFailureIsFatal(t *testing.T) {
	source := &stubSource{resolveErr: domain.NewConfigurationError("no credential")}
	generator := &mockGenerator{}
	pipeline := newTestPipeline(t, source, generator, testConfig())

	_, err := pipeline.Run(context.Background(), RunOptions{WindowDays: 7})

	require.Error(t, err)
	generator.AssertNotCalled(t, "GenerateReleaseNotes", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishTargets_VersionOverridesTag(t *testing.T) {
	cfg := testConfig()
	cfg.Publish = config.PublishConfig{
		Enabled: true,
		GitHub:  &config.ReleasePublishConfig{RepoName: "org/a", TagName: "v0.9.0"},
		Slack:   &config.SlackPublishConfig{ChannelID: "C123", Title: "Notes"},
	}

	targets := publishTargets(cfg, "v1.0.0")

	require.NotNil(t, targets.Release)
	assert.Equal(t, "v1.0.0", targets.Release.TagName)
	require.NotNil(t, targets.Chat)
	assert.Equal(t, "C123", targets.Chat.ChannelID)
	assert.Nil(t, targets.Wiki)

	// Without a version the configured tag stands.
	targets = publishTargets(cfg, "")
	assert.Equal(t, "v0.9.0", targets.Release.TagName)
}

var _ Generator = (*mockGenerator)(nil)
