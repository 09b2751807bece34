package models

import "time"

// Platform identifies where a mention was collected
type Platform string

const (
	PlatformReddit     Platform = "Reddit"
	PlatformTwitter    Platform = "Twitter/X"
	PlatformLinkedIn   Platform = "LinkedIn"
	PlatformGooglePlay Platform = "Google Play"
	PlatformAppleStore Platform = "Apple App Store"
)

// MentionType separates social posts from app store reviews
type MentionType string

const (
	TypeSocial MentionType = "social"
	TypeReview MentionType = "review"
)

// Sentiment labels
const (
	LabelPositive = "positive"
	LabelNeutral  = "neutral"
	LabelNegative = "negative"
)

// DefaultType returns the mention type a platform always produces, or "" for unknown platforms.
func (p Platform) DefaultType() MentionType {
	switch p {
	case PlatformReddit, PlatformTwitter, PlatformLinkedIn:
		return TypeSocial
	case PlatformGooglePlay, PlatformAppleStore:
		return TypeReview
	}
	return ""
}

// Mention is the canonical row shared by every source after normalization
type Mention struct {
	Platform           Platform    `json:"platform"`
	Type               MentionType `json:"type"`
	Author             string      `json:"author"`
	URL                string      `json:"url"`
	Timestamp          *time.Time  `json:"timestamp"`
	EngagementLikes    int         `json:"engagement_likes"`
	EngagementComments int         `json:"engagement_comments"`
	EngagementShares   int         `json:"engagement_shares"`
	Text               string      `json:"text"`
	Rating             string      `json:"rating"`
	AppVersion         string      `json:"app_version"`
	Sentiment          *Sentiment  `json:"sentiment,omitempty"` // nil until scored
}

// Sentiment is the scorer output attached to a mention
type Sentiment struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
	Label        string  `json:"label"`
}

// Report summarizes one aggregation cycle for notification channels
type Report struct {
	GeneratedAt   time.Time              `json:"generated_at"`
	TotalMentions int                    `json:"total_mentions"`
	NewMentions   int                    `json:"new_mentions"`
	Mentions      []Mention              `json:"mentions"` // rows added this cycle
	Summary       map[string]interface{} `json:"summary"`
}

// RunStatus is the record written to the status file at the end of every cycle
type RunStatus struct {
	OK            bool   `json:"ok"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at"`
	RowsTotal     int    `json:"rows_total"`
	RowsNew       int    `json:"rows_new"`
	RowsAdded     int    `json:"rows_added"`
	SourceErrors  int    `json:"source_errors"`
	CombinedCSV   string `json:"combined_csv,omitempty"`
	DashboardHTML string `json:"dashboard_html,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Alert is an out-of-band notice such as a failed cycle
type Alert struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}
