package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/matiks/matiks-monitor/internal/config"
	"github.com/matiks/matiks-monitor/internal/dashboard"
	"github.com/matiks/matiks-monitor/internal/dataset"
	"github.com/matiks/matiks-monitor/internal/lexicon"
	"github.com/matiks/matiks-monitor/internal/merge"
	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/matiks/matiks-monitor/internal/normalize"
	"github.com/matiks/matiks-monitor/internal/notifications"
	"github.com/matiks/matiks-monitor/internal/relevance"
	"github.com/matiks/matiks-monitor/internal/sentiment"
	"github.com/matiks/matiks-monitor/internal/sources"
	"github.com/matiks/matiks-monitor/internal/storage"
	"github.com/sirupsen/logrus"
)

// Persisted object names
const (
	CombinedCSV   = "combined.csv"
	DashboardHTML = "dashboard.html"
	StatusFile    = "last_run.json"
)

const cycleTimeout = 30 * time.Minute

// ErrCycleRunning is returned when a cycle is requested while another is in progress
var ErrCycleRunning = errors.New("a monitoring cycle is already running")

// Service runs aggregation cycles: fetch, normalize, merge, score, persist
type Service struct {
	config              *config.Config
	storage             storage.StorageInterface
	notificationService notifications.NotificationInterface
	normalizer          *normalize.Normalizer
	scorer              *sentiment.Scorer
	stages              []stage
	metrics             *Metrics
	mu                  sync.RWMutex
	running             sync.Mutex
	now                 func() time.Time
}

type cycleOutcome struct {
	results      []StageResult
	incoming     int
	existing     int
	merged       []models.Mention
	added        []models.Mention
	sourceErrors int
}

// NewService creates a new monitoring service. notificationService may be nil.
func NewService(cfg *config.Config, lex *lexicon.Lexicon, store storage.StorageInterface, notificationService notifications.NotificationInterface) *Service {
	rules := lex.Sentiment
	if cfg.NeutralThreshold != nil {
		rules.NeutralThreshold = *cfg.NeutralThreshold
	}

	service := &Service{
		config:              cfg,
		storage:             store,
		notificationService: notificationService,
		normalizer:          normalize.NewNormalizer(relevance.NewFilter(lex.Relevance)),
		scorer:              sentiment.NewScorer(rules),
		metrics: &Metrics{
			SourceMetrics:      make(map[string]int),
			SentimentBreakdown: make(map[string]int),
		},
		now: time.Now,
	}

	service.initializeSources()

	return service
}

// initializeSources fixes the source order, which decides which duplicate survives a merge
func (s *Service) initializeSources() {
	n := s.normalizer
	s.stages = []stage{
		newStage[models.RedditPost](sources.NewRedditSource(s.config.RedditClientID, s.config.RedditClientSecret), redditAttempts, n.Reddit),
		newStage[models.Tweet](sources.NewTwitterSource(s.config.TwitterBearerToken), twitterAttempts, n.Twitter),
		newStage[models.LinkedInPost](sources.NewLinkedInSource(s.config.LinkedInAccessToken, s.config.LinkedInPublicSearch), linkedInAttempts, n.LinkedIn),
		newStage[models.GooglePlayReview](sources.NewGooglePlaySource(s.config.GooglePlayAppID, s.config.GooglePlayFeedURL), googlePlayAttempts, n.GooglePlay),
		newStage[models.AppleReview](sources.NewAppleStoreSource(s.config.AppleAppID, s.config.AppleCountries), appleAttempts, n.AppleStore),
	}
}

// RunMonitoring performs one cycle and always records its outcome in the status file
func (s *Service) RunMonitoring(ctx context.Context) (*models.RunStatus, error) {
	if !s.running.TryLock() {
		logrus.Warn("Skipping monitoring cycle, previous cycle still running")
		return nil, ErrCycleRunning
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(ctx, cycleTimeout)
	defer cancel()

	start := s.now()
	logrus.WithField("query", s.config.Query).Info("Starting monitoring cycle")

	outcome, err := s.runCycle(ctx)
	finished := s.now()

	status := &models.RunStatus{
		OK:         err == nil,
		StartedAt:  start.UTC().Format(time.RFC3339),
		FinishedAt: finished.UTC().Format(time.RFC3339),
	}
	if err != nil {
		status.Error = err.Error()
		logrus.WithError(err).Error("Monitoring cycle failed")
	} else {
		status.RowsTotal = len(outcome.merged)
		status.RowsNew = outcome.incoming
		status.RowsAdded = len(outcome.added)
		status.SourceErrors = outcome.sourceErrors
		status.CombinedCSV = s.storage.Location(CombinedCSV)
		status.DashboardHTML = s.storage.Location(DashboardHTML)
		logrus.WithFields(logrus.Fields{
			"new":      status.RowsNew,
			"added":    status.RowsAdded,
			"total":    status.RowsTotal,
			"errors":   status.SourceErrors,
			"duration": finished.Sub(start).String(),
		}).Info("Monitoring cycle finished")
	}

	if werr := s.writeStatus(context.WithoutCancel(ctx), status); werr != nil {
		logrus.WithError(werr).Error("Failed to write status file")
		if err == nil {
			err = werr
		}
	}

	s.updateMetrics(outcome, finished.Sub(start), err == nil)
	s.notify(ctx, outcome, err)

	return status, err
}

func (s *Service) runCycle(ctx context.Context) (*cycleOutcome, error) {
	outcome := &cycleOutcome{results: s.collect(ctx)}

	var incoming []models.Mention
	for _, result := range outcome.results {
		if result.Failed() {
			outcome.sourceErrors++
		}
		incoming = append(incoming, result.Mentions...)
	}
	outcome.incoming = len(incoming)
	logrus.Infof("Collected %d normalized mentions from %d sources", len(incoming), len(outcome.results))

	existing, err := s.loadExisting(ctx)
	if err != nil {
		return outcome, err
	}
	outcome.existing = len(existing)

	outcome.merged = merge.Merge(existing, incoming)
	s.scorer.ScoreAll(outcome.merged)
	outcome.added = addedRows(existing, outcome.merged)

	if err := s.persist(ctx, outcome.merged); err != nil {
		return outcome, err
	}

	return outcome, nil
}

// collect fetches every source concurrently; results keep source order
func (s *Service) collect(ctx context.Context) []StageResult {
	results := make([]StageResult, len(s.stages))

	var wg sync.WaitGroup
	for i, st := range s.stages {
		wg.Add(1)
		go func(i int, st stage) {
			defer wg.Done()
			results[i] = st.collect(ctx, s.config.Query, s.config.FetchLimit, s.config.RetryBaseDelay, s.config.UseDemoData)
			logrus.WithFields(logrus.Fields{
				"source": st.name,
				"raw":    results[i].Raw,
				"kept":   results[i].Kept,
				"demo":   results[i].Demo,
			}).Info("Source collected")
		}(i, st)
	}
	wg.Wait()

	return results
}

// loadExisting reads the historical table; a missing table is an empty history
func (s *Service) loadExisting(ctx context.Context) ([]models.Mention, error) {
	data, err := s.storage.Retrieve(ctx, CombinedCSV)
	if errors.Is(err, storage.ErrNotFound) {
		logrus.Infof("No existing %s, starting a new history", CombinedCSV)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", CombinedCSV, err)
	}

	mentions, err := dataset.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", CombinedCSV, err)
	}
	return mentions, nil
}

func (s *Service) persist(ctx context.Context, mentions []models.Mention) error {
	data, err := dataset.Marshal(mentions)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", CombinedCSV, err)
	}
	if err := s.storage.Store(ctx, CombinedCSV, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", CombinedCSV, err)
	}
	logrus.Infof("Saved %s (%d rows)", s.storage.Location(CombinedCSV), len(mentions))

	return s.storeDashboard(ctx, mentions)
}

func (s *Service) storeDashboard(ctx context.Context, mentions []models.Mention) error {
	html, err := dashboard.RenderBytes(mentions, dashboard.Options{
		Title:       fmt.Sprintf("%s Monitor", s.config.Query),
		GeneratedAt: s.now(),
	})
	if err != nil {
		return err
	}
	if err := s.storage.Store(ctx, DashboardHTML, html); err != nil {
		return fmt.Errorf("failed to store %s: %w", DashboardHTML, err)
	}
	logrus.Infof("Rendered dashboard to %s", s.storage.Location(DashboardHTML))
	return nil
}

func (s *Service) writeStatus(ctx context.Context, status *models.RunStatus) error {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	return s.storage.Store(ctx, StatusFile, data)
}

// addedRows returns the merged rows whose identity was not in the existing table
func addedRows(existing, merged []models.Mention) []models.Mention {
	seen := make(map[merge.Key]struct{}, len(existing))
	for _, m := range existing {
		seen[merge.KeyOf(merge.Sanitize(m))] = struct{}{}
	}

	var added []models.Mention
	for _, m := range merged {
		if _, ok := seen[merge.KeyOf(m)]; !ok {
			added = append(added, m)
		}
	}
	return added
}

// RenderDashboard rescores the persisted table with the current lexicon and re-renders the dashboard
func (s *Service) RenderDashboard(ctx context.Context) (int, error) {
	mentions, err := s.loadExisting(ctx)
	if err != nil {
		return 0, err
	}
	mentions = merge.Merge(mentions, nil)
	s.scorer.ScoreAll(mentions)

	if err := s.storeDashboard(ctx, mentions); err != nil {
		return 0, err
	}
	return len(mentions), nil
}

// Probe fetches every source once without touching persisted state
func (s *Service) Probe(ctx context.Context) []StageResult {
	return s.collect(ctx)
}

// LastStatus returns the status record of the most recent cycle
func (s *Service) LastStatus(ctx context.Context) (*models.RunStatus, error) {
	data, err := s.storage.Retrieve(ctx, StatusFile)
	if err != nil {
		return nil, err
	}

	var status models.RunStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", StatusFile, err)
	}
	return &status, nil
}

// StoredObjects lists the locations of everything persisted so far
func (s *Service) StoredObjects(ctx context.Context) ([]string, error) {
	names, err := s.storage.List(ctx, "")
	if err != nil {
		return nil, err
	}

	locations := make([]string, 0, len(names))
	for _, name := range names {
		locations = append(locations, s.storage.Location(name))
	}
	return locations, nil
}

// Dashboard returns the last rendered dashboard page
func (s *Service) Dashboard(ctx context.Context) ([]byte, error) {
	return s.storage.Retrieve(ctx, DashboardHTML)
}

func (s *Service) notify(ctx context.Context, outcome *cycleOutcome, cycleErr error) {
	if s.notificationService == nil {
		return
	}

	if cycleErr != nil {
		alert := &models.Alert{
			Title:     fmt.Sprintf("%s monitor cycle failed", s.config.Query),
			Message:   cycleErr.Error(),
			Severity:  "error",
			CreatedAt: s.now(),
		}
		if err := s.notificationService.SendAlert(ctx, alert); err != nil {
			logrus.WithError(err).Error("Failed to send failure alert")
		}
		return
	}

	if len(outcome.added) == 0 {
		logrus.Debug("No rows added, skipping report")
		return
	}

	if err := s.notificationService.SendReport(ctx, s.generateReport(outcome)); err != nil {
		logrus.WithError(err).Error("Failed to send report")
	}
}

func (s *Service) generateReport(outcome *cycleOutcome) *models.Report {
	report := &models.Report{
		GeneratedAt:   s.now(),
		TotalMentions: len(outcome.merged),
		NewMentions:   outcome.incoming,
		Mentions:      outcome.added,
		Summary:       make(map[string]interface{}),
	}

	platformCount := make(map[string]int)
	sentimentCount := map[string]int{
		models.LabelPositive: 0,
		models.LabelNeutral:  0,
		models.LabelNegative: 0,
	}

	for _, mention := range outcome.added {
		platformCount[string(mention.Platform)]++
		if mention.Sentiment != nil {
			sentimentCount[mention.Sentiment.Label]++
		}
	}

	report.Summary["platforms"] = platformCount
	report.Summary["sentiment"] = sentimentCount
	report.Summary["top_platforms"] = s.getTopPlatforms(platformCount)
	report.Summary["source_errors"] = outcome.sourceErrors

	return report
}

func (s *Service) getTopPlatforms(platformCount map[string]int) []string {
	type platformScore struct {
		platform string
		count    int
	}

	var scores []platformScore
	for platform, count := range platformCount {
		scores = append(scores, platformScore{platform, count})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].count != scores[j].count {
			return scores[i].count > scores[j].count
		}
		return scores[i].platform < scores[j].platform
	})

	var top []string
	for i, score := range scores {
		if i >= 5 {
			break
		}
		top = append(top, fmt.Sprintf("%s (%d)", score.platform, score.count))
	}

	return top
}

func (s *Service) updateMetrics(outcome *cycleOutcome, duration time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Cycles++
	s.metrics.LastRun = s.now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.LastRunOK = ok

	outcomeLabel := "success"
	if !ok {
		outcomeLabel = "failure"
	}
	cyclesTotal.WithLabelValues(outcomeLabel).Inc()
	cycleDuration.Observe(duration.Seconds())

	if outcome == nil {
		return
	}

	s.metrics.SourceMetrics = make(map[string]int)
	s.metrics.ErrorCount = outcome.sourceErrors
	s.metrics.NewMentions = outcome.incoming
	for _, result := range outcome.results {
		s.metrics.SourceMetrics[result.Source] = result.Kept
		sourceRows.WithLabelValues(result.Source).Set(float64(result.Kept))
		if result.Failed() {
			sourceFailures.WithLabelValues(result.Source).Inc()
		}
	}

	if !ok {
		return
	}

	s.metrics.TotalMentions = len(outcome.merged)
	s.metrics.AddedMentions = len(outcome.added)
	s.metrics.SentimentBreakdown = make(map[string]int)
	for _, mention := range outcome.merged {
		if mention.Sentiment != nil {
			s.metrics.SentimentBreakdown[mention.Sentiment.Label]++
		}
	}

	datasetRows.Set(float64(len(outcome.merged)))
	for _, label := range []string{models.LabelPositive, models.LabelNeutral, models.LabelNegative} {
		sentimentRows.WithLabelValues(label).Set(float64(s.metrics.SentimentBreakdown[label]))
	}
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

// Snapshot returns a copy of the current metrics
func (s *Service) Snapshot() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := *s.metrics
	snapshot.SourceMetrics = copyCounts(s.metrics.SourceMetrics)
	snapshot.SentimentBreakdown = copyCounts(s.metrics.SentimentBreakdown)
	return snapshot
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
