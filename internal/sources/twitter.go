package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/sirupsen/logrus"
)

// TwitterSource implements the Twitter/X API v2 recent search
type TwitterSource struct {
	bearerToken string
	client      *resty.Client
	baseURL     string
}

var _ Source[models.Tweet] = (*TwitterSource)(nil)

type twitterSearchResponse struct {
	Data     []twitterTweet `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

type twitterTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		RetweetCount *int `json:"retweet_count"`
		LikeCount    *int `json:"like_count"`
		ReplyCount   *int `json:"reply_count"`
	} `json:"public_metrics"`
}

type twitterUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// NewTwitterSource creates a new Twitter source
func NewTwitterSource(bearerToken string) *TwitterSource {
	return &TwitterSource{
		bearerToken: bearerToken,
		client: resty.New().
			SetTimeout(requestTimeout).
			SetHeader("User-Agent", userAgent),
		baseURL: "https://api.twitter.com",
	}
}

func (t *TwitterSource) GetName() string {
	return "Twitter/X"
}

func (t *TwitterSource) IsEnabled() bool {
	return t.bearerToken != ""
}

// Fetch searches recent English tweets, excluding retweets
func (t *TwitterSource) Fetch(ctx context.Context, query string, limit int) ([]models.Tweet, error) {
	if !t.IsEnabled() {
		return nil, fmt.Errorf("twitter bearer token not configured")
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetAuthToken(t.bearerToken).
		SetQueryParams(map[string]string{
			"query":        query + " -is:retweet lang:en",
			"max_results":  strconv.Itoa(clampInt(limit, 10, 100)),
			"tweet.fields": "created_at,author_id,public_metrics",
			"user.fields":  "username,name",
			"expansions":   "author_id",
		}).
		Get(t.baseURL + "/2/tweets/search/recent")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == 429 {
		if reset := resp.Header().Get("x-rate-limit-reset"); reset != "" {
			logrus.WithField("source", t.GetName()).Infof("Rate limit resets at %s", reset)
		}
		return nil, fmt.Errorf("twitter API rate limited")
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("twitter API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var searchResp twitterSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse Twitter response: %w", err)
	}

	users := make(map[string]twitterUser, len(searchResp.Includes.Users))
	for _, u := range searchResp.Includes.Users {
		users[u.ID] = u
	}

	tweets := make([]models.Tweet, 0, len(searchResp.Data))
	for _, tweet := range searchResp.Data {
		user := users[tweet.AuthorID]
		tweets = append(tweets, models.Tweet{
			Content:      tweet.Text,
			Username:     user.Username,
			Name:         user.Name,
			Date:         tweet.CreatedAt,
			URL:          fmt.Sprintf("https://twitter.com/%s/status/%s", user.Username, tweet.ID),
			LikeCount:    tweet.PublicMetrics.LikeCount,
			ReplyCount:   tweet.PublicMetrics.ReplyCount,
			RetweetCount: tweet.PublicMetrics.RetweetCount,
		})
	}

	logrus.WithField("source", t.GetName()).Debugf("Fetched %d tweets", len(tweets))
	return tweets, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
