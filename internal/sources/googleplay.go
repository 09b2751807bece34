package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultGooglePlayAppID is the Matiks Android package
const DefaultGooglePlayAppID = "com.matiks.app"

// GooglePlaySource reads reviews from a JSON review feed in google-play-scraper's
// record shape. The feed URL may contain {app_id} and {count} placeholders.
type GooglePlaySource struct {
	appID   string
	feedURL string
	client  *resty.Client
}

var _ Source[models.GooglePlayReview] = (*GooglePlaySource)(nil)

type googlePlayRecord struct {
	UserName             string `json:"userName"`
	Content              string `json:"content"`
	Score                *int   `json:"score"`
	At                   string `json:"at"`
	ReviewCreatedVersion string `json:"reviewCreatedVersion"`
	AppVersion           string `json:"appVersion"`
}

// NewGooglePlaySource creates a new Google Play source
func NewGooglePlaySource(appID, feedURL string) *GooglePlaySource {
	if appID == "" {
		appID = DefaultGooglePlayAppID
	}
	return &GooglePlaySource{
		appID:   appID,
		feedURL: feedURL,
		client: resty.New().
			SetTimeout(requestTimeout).
			SetHeader("User-Agent", userAgent),
	}
}

func (g *GooglePlaySource) GetName() string {
	return "Google Play"
}

func (g *GooglePlaySource) IsEnabled() bool {
	return g.feedURL != ""
}

// Fetch returns up to limit reviews; the query is unused because the feed is per app
func (g *GooglePlaySource) Fetch(ctx context.Context, _ string, limit int) ([]models.GooglePlayReview, error) {
	if !g.IsEnabled() {
		return nil, fmt.Errorf("google play feed URL not configured")
	}

	feedURL := strings.NewReplacer(
		"{app_id}", g.appID,
		"{count}", strconv.Itoa(limit),
	).Replace(g.feedURL)

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(feedURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("google play feed returned status %d", resp.StatusCode())
	}

	var records []googlePlayRecord
	if err := json.Unmarshal(resp.Body(), &records); err != nil {
		return nil, fmt.Errorf("failed to parse Google Play feed: %w", err)
	}

	reviews := make([]models.GooglePlayReview, 0, len(records))
	for _, rec := range records {
		if len(reviews) >= limit {
			break
		}
		version := rec.ReviewCreatedVersion
		if version == "" {
			version = rec.AppVersion
		}
		reviews = append(reviews, models.GooglePlayReview{
			Author:     rec.UserName,
			ReviewText: rec.Content,
			Date:       rec.At,
			Version:    version,
			Rating:     rec.Score,
		})
	}

	logrus.WithField("source", g.GetName()).Debugf("Fetched %d reviews", len(reviews))
	return reviews, nil
}
