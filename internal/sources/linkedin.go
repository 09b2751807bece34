package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/sirupsen/logrus"
)

const browserUserAgent = "Mozilla/5.0 (compatible; MatiksMonitor/1.0)"

// LinkedInSource reads posts from the LinkedIn API when a token is configured,
// otherwise from public search-engine results restricted to linkedin.com.
type LinkedInSource struct {
	accessToken  string
	publicSearch bool
	client       *resty.Client
	apiURL       string
	searchURL    string
}

var _ Source[models.LinkedInPost] = (*LinkedInSource)(nil)

type linkedInResponse struct {
	Elements []struct {
		ID     string `json:"id"`
		Text   string `json:"text"`
		Author struct {
			Name string `json:"name"`
		} `json:"author"`
		CreatedAt     json.RawMessage `json:"createdAt"`
		LikesCount    *int            `json:"likesCount"`
		CommentsCount *int            `json:"commentsCount"`
	} `json:"elements"`
}

// NewLinkedInSource creates a new LinkedIn source
func NewLinkedInSource(accessToken string, publicSearch bool) *LinkedInSource {
	return &LinkedInSource{
		accessToken:  accessToken,
		publicSearch: publicSearch,
		client: resty.New().
			SetTimeout(requestTimeout).
			SetHeader("User-Agent", browserUserAgent).
			SetHeader("Accept-Language", "en-US,en;q=0.9"),
		apiURL:    "https://api.linkedin.com",
		searchURL: "https://duckduckgo.com/html/",
	}
}

func (l *LinkedInSource) GetName() string {
	return "LinkedIn"
}

func (l *LinkedInSource) IsEnabled() bool {
	return l.accessToken != "" || l.publicSearch
}

func (l *LinkedInSource) Fetch(ctx context.Context, query string, limit int) ([]models.LinkedInPost, error) {
	switch {
	case l.accessToken != "":
		return l.fetchAPI(ctx, query, limit)
	case l.publicSearch:
		return l.fetchPublicSearch(ctx, query, limit)
	default:
		return nil, fmt.Errorf("linkedin access token not configured and public search disabled")
	}
}

func (l *LinkedInSource) fetchAPI(ctx context.Context, query string, limit int) ([]models.LinkedInPost, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetAuthToken(l.accessToken).
		SetQueryParams(map[string]string{
			"q":      query,
			"count":  strconv.Itoa(clampInt(limit, 1, 50)),
			"fields": "id,text,author,createdAt,likesCount,commentsCount",
		}).
		Get(l.apiURL + "/v2/socialActions")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("linkedin API returned status %d", resp.StatusCode())
	}

	var apiResp linkedInResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse LinkedIn response: %w", err)
	}

	posts := make([]models.LinkedInPost, 0, len(apiResp.Elements))
	for _, el := range apiResp.Elements {
		posts = append(posts, models.LinkedInPost{
			Content:            el.Text,
			Author:             el.Author.Name,
			Timestamp:          createdAtString(el.CreatedAt),
			URL:                "https://www.linkedin.com/feed/update/" + el.ID,
			EngagementLikes:    el.LikesCount,
			EngagementComments: el.CommentsCount,
		})
	}

	logrus.WithField("source", l.GetName()).Debugf("Fetched %d posts from API", len(posts))
	return posts, nil
}

// fetchPublicSearch scrapes the HTML results page. Author, timestamp and engagement
// are not available from snippets and stay empty.
func (l *LinkedInSource) fetchPublicSearch(ctx context.Context, query string, limit int) ([]models.LinkedInPost, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetQueryParam("q", "site:linkedin.com "+query).
		Get(l.searchURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("public search returned status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	var posts []models.LinkedInPost
	doc.Find(".result").EachWithBreak(func(_ int, result *goquery.Selection) bool {
		link := result.Find("a.result__a").First()
		if link.Length() == 0 {
			return true
		}

		href := strings.TrimSpace(link.AttrOr("href", ""))
		if !strings.Contains(strings.ToLower(href), "linkedin.com") {
			return true
		}

		content := squash(result.Find(".result__snippet").First().Text())
		if content == "" {
			content = squash(link.Text())
		}

		posts = append(posts, models.LinkedInPost{
			Content: content,
			URL:     href,
		})
		return len(posts) < limit
	})

	logrus.WithField("source", l.GetName()).Debugf("Collected %d public search results", len(posts))
	return posts, nil
}

// createdAtString renders the API's createdAt, which arrives as epoch milliseconds
// or as a date string
func createdAtString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// squash collapses runs of whitespace
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
