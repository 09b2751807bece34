package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/matiks/matiks-monitor/internal/config"
	"github.com/matiks/matiks-monitor/internal/dataset"
	"github.com/matiks/matiks-monitor/internal/lexicon"
	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/matiks/matiks-monitor/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a mock implementation of the storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(ctx context.Context, name string, data []byte) error {
	args := m.Called(ctx, name, data)
	return args.Error(0)
}

func (m *MockStorage) Retrieve(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockStorage) List(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *MockStorage) Location(name string) string {
	return "mock://" + name
}

// MockNotificationService is a mock implementation of the notification service
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendReport(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockNotificationService) SendAlert(ctx context.Context, alert *models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// memoryStorage keeps objects in a map
type memoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{data: make(map[string][]byte)}
}

func (m *memoryStorage) Store(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = append([]byte(nil), data...)
	return nil
}

func (m *memoryStorage) Retrieve(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (m *memoryStorage) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name := range m.data {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *memoryStorage) Location(name string) string {
	return "mem://" + name
}

// fakeSource serves fixed rows in place of a live platform
type fakeSource[T any] struct {
	name    string
	enabled bool
	rows    []T
	err     error
	demo    []T
	mu      sync.Mutex
	calls   int
}

func (f *fakeSource[T]) GetName() string { return f.name }
func (f *fakeSource[T]) IsEnabled() bool { return f.enabled }
func (f *fakeSource[T]) Demo() []T       { return f.demo }

func (f *fakeSource[T]) Fetch(context.Context, string, int) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func redditPosts() []models.RedditPost {
	return []models.RedditPost{
		{
			Title:       "Matiks app review",
			Author:      "u1",
			URL:         "https://www.reddit.com/r/matiks/p/1",
			CreatedUTC:  floatp(1700000000),
			Score:       intp(5),
			NumComments: intp(2),
		},
		{
			Title:      "Best pizza in town",
			Content:    "nothing to see here",
			Author:     "u2",
			URL:        "https://www.reddit.com/r/food/p/2",
			CreatedUTC: floatp(1700000100),
		},
	}
}

func playReviews() []models.GooglePlayReview {
	return []models.GooglePlayReview{
		{Author: "Asha", ReviewText: "Great app for mental math", Date: "2025-08-01T10:00:00Z", Version: "1.2.0", Rating: intp(5)},
		{Author: "Ravi", ReviewText: "Crashes every time I open it", Date: "2025-08-02T10:00:00Z", Version: "1.2.0", Rating: intp(1)},
	}
}

func newTestService(t *testing.T, store storage.StorageInterface, notifier *MockNotificationService) (*Service, *fakeSource[models.RedditPost], *fakeSource[models.GooglePlayReview]) {
	t.Helper()

	lex, err := lexicon.Default()
	require.NoError(t, err)

	cfg := &config.Config{Query: "Matiks", FetchLimit: 10}
	var service *Service
	if notifier != nil {
		service = NewService(cfg, lex, store, notifier)
	} else {
		service = NewService(cfg, lex, store, nil)
	}

	reddit := &fakeSource[models.RedditPost]{name: "Reddit", enabled: true, rows: redditPosts()}
	play := &fakeSource[models.GooglePlayReview]{name: "Google Play", enabled: true, rows: playReviews()}
	service.stages = []stage{
		newStage[models.RedditPost](reddit, redditAttempts, service.normalizer.Reddit),
		newStage[models.GooglePlayReview](play, googlePlayAttempts, service.normalizer.GooglePlay),
	}

	return service, reddit, play
}

func TestNewService_DefaultSources(t *testing.T) {
	lex, err := lexicon.Default()
	require.NoError(t, err)

	service := NewService(&config.Config{Query: "Matiks"}, lex, newMemoryStorage(), nil)

	var names []string
	for _, st := range service.stages {
		names = append(names, st.name)
	}
	assert.Equal(t, []string{"Reddit", "Twitter/X", "LinkedIn", "Google Play", "Apple App Store"}, names)
	assert.Equal(t, []int{3, 1, 1, 3, 3}, []int{
		service.stages[0].attempts, service.stages[1].attempts, service.stages[2].attempts,
		service.stages[3].attempts, service.stages[4].attempts,
	})
}

func TestService_RunMonitoring_FirstCycle(t *testing.T) {
	store := newMemoryStorage()
	service, _, _ := newTestService(t, store, nil)

	status, err := service.RunMonitoring(context.Background())
	require.NoError(t, err)

	assert.True(t, status.OK)
	assert.Equal(t, 3, status.RowsNew)
	assert.Equal(t, 3, status.RowsTotal)
	assert.Equal(t, 3, status.RowsAdded)
	assert.Equal(t, 0, status.SourceErrors)
	assert.Equal(t, "mem://combined.csv", status.CombinedCSV)
	assert.Equal(t, "mem://dashboard.html", status.DashboardHTML)

	objects, err := service.StoredObjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mem://combined.csv", "mem://dashboard.html", "mem://last_run.json"}, objects)

	rows, err := dataset.Unmarshal(store.data[CombinedCSV])
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.NotNil(t, row.Sentiment, "every persisted row is scored")
	}
	assert.Equal(t, models.PlatformGooglePlay, rows[0].Platform, "newest first")
	assert.Equal(t, models.PlatformReddit, rows[2].Platform)
	assert.Equal(t, "Matiks app review\n", rows[2].Text)

	var written models.RunStatus
	require.NoError(t, json.Unmarshal(store.data[StatusFile], &written))
	assert.Equal(t, *status, written)

	assert.Contains(t, string(store.data[DashboardHTML]), "<title>Matiks Monitor</title>")
}

func TestService_RunMonitoring_Idempotent(t *testing.T) {
	store := newMemoryStorage()
	notifier := &MockNotificationService{}
	notifier.On("SendReport", mock.Anything, mock.AnythingOfType("*models.Report")).Return(nil).Once()
	service, _, _ := newTestService(t, store, notifier)

	first, err := service.RunMonitoring(context.Background())
	require.NoError(t, err)

	second, err := service.RunMonitoring(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.RowsTotal, second.RowsTotal)
	assert.Equal(t, 0, second.RowsAdded)
	assert.Equal(t, 3, second.RowsNew)

	notifier.AssertNumberOfCalls(t, "SendReport", 1)
	notifier.AssertNotCalled(t, "SendAlert", mock.Anything, mock.Anything)
}

func TestService_RunMonitoring_KeepsHistory(t *testing.T) {
	store := newMemoryStorage()
	service, reddit, play := newTestService(t, store, nil)

	_, err := service.RunMonitoring(context.Background())
	require.NoError(t, err)

	reddit.rows = nil
	play.rows = []models.GooglePlayReview{
		{Author: "Meera", ReviewText: "Love the daily puzzles", Date: "2025-08-03T10:00:00Z", Rating: intp(4)},
	}

	status, err := service.RunMonitoring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, status.RowsTotal)
	assert.Equal(t, 1, status.RowsAdded)
	assert.Equal(t, 1, status.RowsNew)
}

func TestService_RunMonitoring_EmptySources(t *testing.T) {
	store := newMemoryStorage()
	service, reddit, play := newTestService(t, store, nil)
	reddit.rows = nil
	play.rows = nil

	status, err := service.RunMonitoring(context.Background())
	require.NoError(t, err)

	assert.True(t, status.OK)
	assert.Equal(t, 0, status.RowsTotal)

	var written map[string]any
	require.NoError(t, json.Unmarshal(store.data[StatusFile], &written))
	assert.Equal(t, true, written["ok"])
	assert.Equal(t, 0.0, written["rows_total"])
	assert.Equal(t, 0.0, written["rows_new"])
	assert.Equal(t, 0.0, written["rows_added"])
	assert.Equal(t, 0.0, written["source_errors"])
}

func TestService_RunMonitoring_SourceFailure(t *testing.T) {
	store := newMemoryStorage()
	service, reddit, _ := newTestService(t, store, nil)
	reddit.err = errors.New("reddit down")

	status, err := service.RunMonitoring(context.Background())
	require.NoError(t, err)

	assert.True(t, status.OK)
	assert.Equal(t, 1, status.SourceErrors)
	assert.Equal(t, 2, status.RowsTotal)
	assert.Equal(t, redditAttempts, reddit.calls)

	snapshot := service.Snapshot()
	assert.Equal(t, 1, snapshot.ErrorCount)
	assert.Equal(t, 0, snapshot.SourceMetrics["Reddit"])
	assert.Equal(t, 2, snapshot.SourceMetrics["Google Play"])
}

func TestService_RunMonitoring_DemoFallback(t *testing.T) {
	store := newMemoryStorage()
	service, reddit, play := newTestService(t, store, nil)
	service.config.UseDemoData = true
	reddit.err = errors.New("reddit down")
	reddit.demo = redditPosts()[:1]
	play.enabled = false
	play.demo = playReviews()

	status, err := service.RunMonitoring(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, status.SourceErrors)
	assert.Equal(t, 3, status.RowsTotal)
	assert.Equal(t, 0, play.calls, "disabled sources are not fetched")
}

func TestService_RunMonitoring_CorruptHistory(t *testing.T) {
	store := newMemoryStorage()
	corrupt := []byte("foo,bar\n1,2\n")
	store.data[CombinedCSV] = corrupt

	notifier := &MockNotificationService{}
	notifier.On("SendAlert", mock.Anything, mock.MatchedBy(func(a *models.Alert) bool {
		return strings.Contains(a.Message, CombinedCSV)
	})).Return(nil).Once()
	service, _, _ := newTestService(t, store, notifier)

	status, err := service.RunMonitoring(context.Background())
	require.Error(t, err)

	assert.False(t, status.OK)
	assert.Contains(t, status.Error, "failed to parse combined.csv")
	assert.Equal(t, corrupt, store.data[CombinedCSV], "history is not overwritten")

	var written models.RunStatus
	require.NoError(t, json.Unmarshal(store.data[StatusFile], &written))
	assert.False(t, written.OK)
	assert.NotEmpty(t, written.Error)
	assert.Zero(t, written.RowsTotal)

	notifier.AssertExpectations(t)
	notifier.AssertNotCalled(t, "SendReport", mock.Anything, mock.Anything)
	assert.False(t, service.Snapshot().LastRunOK)
}

func TestService_RunMonitoring_StoreFailure(t *testing.T) {
	store := &MockStorage{}
	store.On("Retrieve", mock.Anything, CombinedCSV).Return(nil, storage.ErrNotFound)
	store.On("Store", mock.Anything, CombinedCSV, mock.Anything).Return(errors.New("disk full"))
	store.On("Store", mock.Anything, StatusFile, mock.Anything).Return(nil)
	service, _, _ := newTestService(t, store, nil)

	status, err := service.RunMonitoring(context.Background())
	require.Error(t, err)
	assert.False(t, status.OK)
	assert.Contains(t, status.Error, "disk full")

	store.AssertCalled(t, "Store", mock.Anything, StatusFile, mock.Anything)
	store.AssertNotCalled(t, "Store", mock.Anything, DashboardHTML, mock.Anything)
}

func TestService_RunMonitoring_SkipsOverlap(t *testing.T) {
	service, _, _ := newTestService(t, newMemoryStorage(), nil)

	service.running.Lock()
	defer service.running.Unlock()

	status, err := service.RunMonitoring(context.Background())
	assert.ErrorIs(t, err, ErrCycleRunning)
	assert.Nil(t, status)
}

func TestService_RenderDashboard(t *testing.T) {
	store := newMemoryStorage()
	service, _, _ := newTestService(t, store, nil)

	count, err := service.RenderDashboard(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "no history renders an empty dashboard")

	_, err = service.RunMonitoring(context.Background())
	require.NoError(t, err)
	delete(store.data, DashboardHTML)

	count, err = service.RenderDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	page, err := service.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(page), "Asha")
}

func TestService_LastStatus(t *testing.T) {
	store := newMemoryStorage()
	service, _, _ := newTestService(t, store, nil)

	_, err := service.LastStatus(context.Background())
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = service.RunMonitoring(context.Background())
	require.NoError(t, err)

	status, err := service.LastStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.OK)
	assert.Equal(t, 3, status.RowsTotal)
}

func TestService_Probe(t *testing.T) {
	store := newMemoryStorage()
	service, _, _ := newTestService(t, store, nil)

	results := service.Probe(context.Background())
	require.Len(t, results, 2)

	assert.Equal(t, "Reddit", results[0].Source)
	assert.Equal(t, 2, results[0].Raw)
	assert.Equal(t, 1, results[0].Kept, "irrelevant post dropped")
	assert.Equal(t, "Google Play", results[1].Source)
	assert.Equal(t, 2, results[1].Kept)
	assert.Empty(t, store.data, "probe does not persist")
}

func TestService_generateReport(t *testing.T) {
	service, _, _ := newTestService(t, newMemoryStorage(), nil)

	outcome := &cycleOutcome{
		incoming:     4,
		sourceErrors: 1,
		merged:       make([]models.Mention, 10),
		added: []models.Mention{
			{Platform: models.PlatformReddit, Sentiment: &models.Sentiment{Label: models.LabelPositive}},
			{Platform: models.PlatformGooglePlay, Sentiment: &models.Sentiment{Label: models.LabelNegative}},
			{Platform: models.PlatformReddit, Sentiment: &models.Sentiment{Label: models.LabelPositive}},
		},
	}

	report := service.generateReport(outcome)

	assert.Equal(t, 10, report.TotalMentions)
	assert.Equal(t, 4, report.NewMentions)
	assert.Len(t, report.Mentions, 3)

	platforms := report.Summary["platforms"].(map[string]int)
	assert.Equal(t, 2, platforms["Reddit"])
	assert.Equal(t, 1, platforms["Google Play"])

	sentiment := report.Summary["sentiment"].(map[string]int)
	assert.Equal(t, 2, sentiment[models.LabelPositive])
	assert.Equal(t, 1, sentiment[models.LabelNegative])
	assert.Equal(t, 0, sentiment[models.LabelNeutral])

	assert.Equal(t, []string{"Reddit (2)", "Google Play (1)"}, report.Summary["top_platforms"])
	assert.Equal(t, 1, report.Summary["source_errors"])
}

func TestAddedRows(t *testing.T) {
	existing := []models.Mention{
		{Platform: models.PlatformReddit, Author: "u1", Text: "Matiks one", EngagementLikes: -3},
	}
	merged := []models.Mention{
		{Platform: models.PlatformReddit, Type: models.TypeSocial, Author: "u1", Text: "Matiks one"},
		{Platform: models.PlatformReddit, Type: models.TypeSocial, Author: "u2", Text: "Matiks two"},
	}

	added := addedRows(existing, merged)
	require.Len(t, added, 1)
	assert.Equal(t, "u2", added[0].Author)
}

func TestService_GetMetrics(t *testing.T) {
	service, _, _ := newTestService(t, newMemoryStorage(), nil)
	_, err := service.RunMonitoring(context.Background())
	require.NoError(t, err)

	var metrics Metrics
	require.NoError(t, json.Unmarshal([]byte(service.GetMetrics()), &metrics))
	assert.Equal(t, 3, metrics.TotalMentions)
	assert.Equal(t, 3, metrics.AddedMentions)
	assert.Equal(t, 1, metrics.Cycles)
	assert.True(t, metrics.LastRunOK)
}
