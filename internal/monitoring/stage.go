package monitoring

import (
	"context"
	"time"

	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/matiks/matiks-monitor/internal/sources"
	"github.com/sirupsen/logrus"
)

// Attempts per source before it is given up for the cycle
const (
	redditAttempts     = 3
	twitterAttempts    = 1
	linkedInAttempts   = 1
	googlePlayAttempts = 3
	appleAttempts      = 3
)

// StageResult describes what one source contributed to a cycle
type StageResult struct {
	Source   string           `json:"source"`
	Enabled  bool             `json:"enabled"`
	Raw      int              `json:"raw"`
	Kept     int              `json:"kept"`
	Demo     bool             `json:"demo"`
	Err      error            `json:"-"`
	Mentions []models.Mention `json:"-"`
}

// Failed reports whether the live fetch was attempted and exhausted its retries
func (r StageResult) Failed() bool {
	return r.Err != nil
}

// stage binds a typed source to its normalizer so the cycle can treat all sources alike
type stage struct {
	name     string
	attempts int
	collect  func(ctx context.Context, query string, limit int, base time.Duration, demo bool) StageResult
}

func newStage[T any](src sources.Source[T], attempts int, normalize func([]T) []models.Mention) stage {
	name := src.GetName()
	return stage{
		name:     name,
		attempts: attempts,
		collect: func(ctx context.Context, query string, limit int, base time.Duration, demo bool) StageResult {
			result := StageResult{Source: name, Enabled: src.IsEnabled()}

			var raw []T
			if result.Enabled {
				raw, result.Err = retryFetch(ctx, name, attempts, base, func(ctx context.Context) ([]T, error) {
					return src.Fetch(ctx, query, limit)
				})
				if result.Err != nil {
					logrus.WithError(result.Err).Errorf("%s gave up after %d attempts", name, attempts)
				}
			}

			if demo && (!result.Enabled || result.Failed()) {
				raw = src.Demo()
				result.Demo = true
				logrus.WithField("source", name).Info("Using demo payload")
			}

			result.Raw = len(raw)
			result.Mentions = normalize(raw)
			result.Kept = len(result.Mentions)
			return result
		},
	}
}
