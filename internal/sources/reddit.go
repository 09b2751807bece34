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

// RedditSource searches Reddit. Without app credentials it uses the public search endpoint.
type RedditSource struct {
	clientID     string
	clientSecret string
	client       *resty.Client
	accessToken  string
	publicURL    string
	oauthURL     string
	tokenURL     string
}

var _ Source[models.RedditPost] = (*RedditSource)(nil)

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title       string   `json:"title"`
	Selftext    string   `json:"selftext"`
	Author      string   `json:"author"`
	Permalink   string   `json:"permalink"`
	Created     *float64 `json:"created_utc"`
	Score       *int     `json:"score"`
	NumComments *int     `json:"num_comments"`
}

// NewRedditSource creates a Reddit source; empty credentials select public search
func NewRedditSource(clientID, clientSecret string) *RedditSource {
	return &RedditSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		client: resty.New().
			SetTimeout(requestTimeout).
			SetHeader("User-Agent", userAgent),
		publicURL: "https://www.reddit.com",
		oauthURL:  "https://oauth.reddit.com",
		tokenURL:  "https://www.reddit.com/api/v1/access_token",
	}
}

func (r *RedditSource) GetName() string {
	return "Reddit"
}

// IsEnabled is always true: public search needs no credentials
func (r *RedditSource) IsEnabled() bool {
	return true
}

func (r *RedditSource) hasCredentials() bool {
	return r.clientID != "" && r.clientSecret != ""
}

// Fetch returns up to limit posts matching query, newest first
func (r *RedditSource) Fetch(ctx context.Context, query string, limit int) ([]models.RedditPost, error) {
	req := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     query,
			"limit": strconv.Itoa(limit),
			"sort":  "new",
		})

	searchURL := r.publicURL + "/search.json"
	if r.hasCredentials() {
		if err := r.authenticate(ctx); err != nil {
			return nil, fmt.Errorf("reddit authentication failed: %w", err)
		}
		req.SetAuthToken(r.accessToken)
		searchURL = r.oauthURL + "/search.json"
	}

	resp, err := req.Get(searchURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var searchResp redditSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse Reddit response: %w", err)
	}

	posts := make([]models.RedditPost, 0, len(searchResp.Data.Children))
	for _, child := range searchResp.Data.Children {
		post := child.Data
		posts = append(posts, models.RedditPost{
			Title:       post.Title,
			Content:     post.Selftext,
			Author:      post.Author,
			URL:         "https://reddit.com" + post.Permalink,
			CreatedUTC:  post.Created,
			Score:       post.Score,
			NumComments: post.NumComments,
		})
	}

	logrus.WithField("source", r.GetName()).Debugf("Fetched %d posts", len(posts))
	return posts, nil
}

func (r *RedditSource) authenticate(ctx context.Context) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post(r.tokenURL)
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("token endpoint returned status %d", resp.StatusCode())
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return err
	}
	if authResp.AccessToken == "" {
		return fmt.Errorf("token endpoint returned no access token")
	}

	r.accessToken = authResp.AccessToken
	return nil
}
