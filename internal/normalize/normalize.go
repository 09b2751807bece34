package normalize

import (
	"strconv"
	"strings"

	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/matiks/matiks-monitor/internal/relevance"
	"github.com/sirupsen/logrus"
)

// LinkedInPlaceholderURL replaces LinkedIn URLs that cannot be shown as-is
const LinkedInPlaceholderURL = "https://www.linkedin.com/"

const maxLinkedInURLLength = 100

// Normalizer maps each source's raw records onto the canonical mention row.
// Text-mention sources are gated by the relevance filter before any field extraction.
type Normalizer struct {
	filter *relevance.Filter
}

// NewNormalizer creates a normalizer that gates free-text sources with filter
func NewNormalizer(filter *relevance.Filter) *Normalizer {
	return &Normalizer{filter: filter}
}

// Reddit normalizes forum posts. Text is title and body joined by a newline.
func (n *Normalizer) Reddit(posts []models.RedditPost) []models.Mention {
	mentions := make([]models.Mention, 0, len(posts))

	for _, post := range posts {
		text := post.Title + "\n" + post.Content
		if !n.filter.IsRelevant(text) {
			continue
		}

		mentions = append(mentions, models.Mention{
			Platform:           models.PlatformReddit,
			Type:               models.TypeSocial,
			Author:             post.Author,
			URL:                post.URL,
			Timestamp:          EpochToUTC(post.CreatedUTC),
			EngagementLikes:    count(post.Score),
			EngagementComments: count(post.NumComments),
			Text:               text,
		})
	}

	logDropped(models.PlatformReddit, len(posts), len(mentions))
	return mentions
}

// Twitter normalizes microblog posts
func (n *Normalizer) Twitter(tweets []models.Tweet) []models.Mention {
	mentions := make([]models.Mention, 0, len(tweets))

	for _, tweet := range tweets {
		if !n.filter.IsRelevant(tweet.Content) {
			continue
		}

		mentions = append(mentions, models.Mention{
			Platform:           models.PlatformTwitter,
			Type:               models.TypeSocial,
			Author:             tweet.Username,
			URL:                tweet.URL,
			Timestamp:          ParseTimestamp(tweet.Date),
			EngagementLikes:    count(tweet.LikeCount),
			EngagementComments: count(tweet.ReplyCount),
			EngagementShares:   count(tweet.RetweetCount),
			Text:               tweet.Content,
		})
	}

	logDropped(models.PlatformTwitter, len(tweets), len(mentions))
	return mentions
}

// LinkedIn normalizes professional-network posts and cleans their URLs
func (n *Normalizer) LinkedIn(posts []models.LinkedInPost) []models.Mention {
	mentions := make([]models.Mention, 0, len(posts))

	for _, post := range posts {
		if !n.filter.IsRelevant(post.Content) {
			continue
		}

		mentions = append(mentions, models.Mention{
			Platform:           models.PlatformLinkedIn,
			Type:               models.TypeSocial,
			Author:             post.Author,
			URL:                CleanLinkedInURL(post.URL),
			Timestamp:          ParseTimestamp(post.Timestamp),
			EngagementLikes:    count(post.EngagementLikes),
			EngagementComments: count(post.EngagementComments),
			Text:               post.Content,
		})
	}

	logDropped(models.PlatformLinkedIn, len(posts), len(mentions))
	return mentions
}

// GooglePlay normalizes Android store reviews. Reviews skip relevance gating.
func (n *Normalizer) GooglePlay(reviews []models.GooglePlayReview) []models.Mention {
	mentions := make([]models.Mention, 0, len(reviews))
	for _, review := range reviews {
		mentions = append(mentions, reviewMention(models.PlatformGooglePlay,
			review.Author, review.Date, review.ReviewText, review.Rating, review.Version))
	}
	return mentions
}

// AppleStore normalizes iOS store reviews
func (n *Normalizer) AppleStore(reviews []models.AppleReview) []models.Mention {
	mentions := make([]models.Mention, 0, len(reviews))
	for _, review := range reviews {
		mentions = append(mentions, reviewMention(models.PlatformAppleStore,
			review.Author, review.Date, review.ReviewText, review.Rating, review.Version))
	}
	return mentions
}

func reviewMention(platform models.Platform, author, date, text string, rating *int, version string) models.Mention {
	return models.Mention{
		Platform:   platform,
		Type:       models.TypeReview,
		Author:     author,
		Timestamp:  ParseTimestamp(date),
		Text:       text,
		Rating:     FormatRating(rating),
		AppVersion: version,
	}
}

// CleanLinkedInURL swaps search-engine redirect wrappers and overlong URLs for the placeholder.
// Canonical LinkedIn URLs pass through unchanged whatever their length.
func CleanLinkedInURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "duckduckgo.com") {
		return LinkedInPlaceholderURL
	}
	if strings.HasPrefix(raw, "https://www.linkedin.com") {
		return raw
	}
	if len(raw) > maxLinkedInURLLength {
		return LinkedInPlaceholderURL
	}
	return raw
}

// FormatRating renders an optional star rating, empty when absent
func FormatRating(rating *int) string {
	if rating == nil {
		return ""
	}
	return strconv.Itoa(*rating)
}

// count defaults an absent counter to zero and floors negative upstream values
func count(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func logDropped(platform models.Platform, raw, kept int) {
	if raw == kept {
		return
	}
	logrus.WithFields(logrus.Fields{
		"platform": platform,
		"raw":      raw,
		"kept":     kept,
	}).Debug("Dropped irrelevant mentions")
}
