package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
)

// DefaultAppleAppID is the Matiks App Store id
const DefaultAppleAppID = "6738620563"

// DefaultAppleCountries are the storefronts walked when none are configured.
// Apple review feeds are per storefront; there is no global feed.
var DefaultAppleCountries = []string{"us", "in", "gb", "ca", "au", "sg", "ae", "de", "fr"}

const applePageSize = 50

// AppleStoreSource reads the public customer-review Atom feed of each storefront
type AppleStoreSource struct {
	appID     string
	countries []string
	client    *resty.Client
	baseURL   string
}

var _ Source[models.AppleReview] = (*AppleStoreSource)(nil)

// NewAppleStoreSource creates a new App Store source
func NewAppleStoreSource(appID string, countries []string) *AppleStoreSource {
	if appID == "" {
		appID = DefaultAppleAppID
	}
	if len(countries) == 0 {
		countries = DefaultAppleCountries
	}
	return &AppleStoreSource{
		appID:     appID,
		countries: countries,
		client: resty.New().
			SetTimeout(requestTimeout).
			SetHeader("User-Agent", browserUserAgent),
		baseURL: "https://itunes.apple.com",
	}
}

func (a *AppleStoreSource) GetName() string {
	return "Apple App Store"
}

func (a *AppleStoreSource) IsEnabled() bool {
	return a.appID != ""
}

// Fetch collects up to limit reviews per storefront and drops reviews already seen in
// an earlier storefront. A storefront that fails is skipped; the fetch only fails when
// every storefront does.
func (a *AppleStoreSource) Fetch(ctx context.Context, _ string, limit int) ([]models.AppleReview, error) {
	seen := make(map[string]struct{})
	var reviews []models.AppleReview
	var errs []error

	for _, country := range a.countries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		countryReviews, err := a.fetchCountry(ctx, country, limit)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"source":  a.GetName(),
				"country": country,
			}).Debugf("Storefront skipped: %v", err)
			errs = append(errs, fmt.Errorf("%s: %w", country, err))
			continue
		}

		added := 0
		for _, review := range countryReviews {
			if review.ReviewID != "" {
				if _, dup := seen[review.ReviewID]; dup {
					continue
				}
				seen[review.ReviewID] = struct{}{}
			}
			reviews = append(reviews, review)
			added++
		}
		if added > 0 {
			logrus.WithFields(logrus.Fields{
				"source":  a.GetName(),
				"country": country,
			}).Infof("Fetched %d reviews", added)
		}
	}

	if len(reviews) == 0 && len(errs) == len(a.countries) && len(errs) > 0 {
		return nil, fmt.Errorf("all storefronts failed: %w", errors.Join(errs...))
	}
	return reviews, nil
}

func (a *AppleStoreSource) fetchCountry(ctx context.Context, country string, limit int) ([]models.AppleReview, error) {
	pages := int(math.Ceil(float64(limit) / applePageSize))
	if pages < 1 {
		pages = 1
	}

	parser := gofeed.NewParser()
	var reviews []models.AppleReview
	var lastErr error

	for page := 1; page <= pages && len(reviews) < limit; page++ {
		feedURL := fmt.Sprintf("%s/%s/rss/customerreviews/page=%d/id=%s/sortBy=mostRecent/xml",
			a.baseURL, country, page, a.appID)

		resp, err := a.client.R().SetContext(ctx).Get(feedURL)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode() != 200 {
			lastErr = fmt.Errorf("feed returned status %d", resp.StatusCode())
			continue
		}

		feed, err := parser.Parse(bytes.NewReader(resp.Body()))
		if err != nil {
			lastErr = fmt.Errorf("failed to parse feed: %w", err)
			continue
		}

		pageReviews := 0
		for _, item := range feed.Items {
			rating, ok := extensionValue(item, "rating")
			if !ok {
				// the first entry describes the app itself
				continue
			}
			reviews = append(reviews, appleReview(item, rating, country))
			pageReviews++
			if len(reviews) >= limit {
				break
			}
		}
		if pageReviews == 0 {
			break
		}
	}

	if len(reviews) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return reviews, nil
}

func appleReview(item *gofeed.Item, rating, country string) models.AppleReview {
	review := models.AppleReview{
		ReviewID: strings.TrimSpace(item.GUID),
		Date:     strings.TrimSpace(item.Updated),
		Country:  country,
	}
	if review.Date == "" {
		review.Date = strings.TrimSpace(item.Published)
	}

	if item.Author != nil {
		review.Author = strings.TrimSpace(item.Author.Name)
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		review.Author = strings.TrimSpace(item.Authors[0].Name)
	}

	if version, ok := extensionValue(item, "version"); ok {
		review.Version = version
	}
	if n, err := strconv.Atoi(rating); err == nil {
		review.Rating = &n
	}

	review.ReviewText = plainText(item.Content)
	if review.ReviewText == "" {
		review.ReviewText = plainText(item.Description)
	}
	if review.ReviewText == "" {
		review.ReviewText = strings.TrimSpace(item.Title)
	}
	return review
}

// extensionValue reads an im: namespaced element such as im:rating
func extensionValue(item *gofeed.Item, name string) (string, bool) {
	values := item.Extensions["im"][name]
	if len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0].Value), true
}

// plainText strips markup from feed content
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
