package dashboard

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/matiks/matiks-monitor/internal/models"
)

// DefaultTitle is used when Options.Title is empty
const DefaultTitle = "Matiks Monitor"

const timestampLayout = "2006-01-02 15:04:05 UTC"

//go:embed dashboard.html.tmpl
var pageSource string

var page = template.Must(template.New("dashboard").Parse(pageSource))

// Options controls page-level details of the rendered dashboard
type Options struct {
	Title       string
	GeneratedAt time.Time
}

// Row is one mention as displayed in the table
type Row struct {
	Platform   string
	Type       string
	Timestamp  string
	ISODate    string
	Author     string
	Text       string
	Rating     string
	AppVersion string
	Likes      int
	Comments   int
	Shares     int
	Sentiment  string
	Polarity   string
	PillClass  string
	URL        string
	Linkable   bool
}

type view struct {
	Title           string
	GeneratedAt     string
	Rows            []Row
	SocialPlatforms []string
	ReviewPlatforms []string
}

// Render writes a self-contained filterable HTML page for the mentions
func Render(w io.Writer, mentions []models.Mention, opts Options) error {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	v := view{
		Title:       opts.Title,
		GeneratedAt: opts.GeneratedAt.UTC().Format(time.RFC3339),
		Rows:        make([]Row, 0, len(mentions)),
	}

	social := map[string]bool{}
	reviews := map[string]bool{}
	for _, m := range mentions {
		row := toRow(m)
		v.Rows = append(v.Rows, row)
		if row.Platform == "" {
			continue
		}
		if row.Type == string(models.TypeReview) {
			reviews[row.Platform] = true
		} else {
			social[row.Platform] = true
		}
	}
	v.SocialPlatforms = sortedKeys(social)
	v.ReviewPlatforms = sortedKeys(reviews)

	if err := page.Execute(w, v); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}

// RenderBytes renders the dashboard into memory
func RenderBytes(mentions []models.Mention, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, mentions, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toRow(m models.Mention) Row {
	row := Row{
		Platform:   string(m.Platform),
		Type:       string(m.Type),
		Author:     m.Author,
		Text:       m.Text,
		Rating:     m.Rating,
		AppVersion: m.AppVersion,
		Likes:      m.EngagementLikes,
		Comments:   m.EngagementComments,
		Shares:     m.EngagementShares,
		URL:        m.URL,
		Linkable:   isHTTPURL(m.URL),
	}
	if row.Type == "" {
		row.Type = string(m.Platform.DefaultType())
	}
	if m.Timestamp != nil {
		ts := m.Timestamp.UTC()
		row.Timestamp = ts.Format(timestampLayout)
		row.ISODate = ts.Format(time.RFC3339)
	}
	if m.Sentiment != nil {
		row.Sentiment = m.Sentiment.Label
		row.Polarity = strconv.FormatFloat(m.Sentiment.Polarity, 'f', 4, 64)
		row.PillClass = pillClass(m.Sentiment.Label)
	}
	return row
}

func pillClass(label string) string {
	switch label {
	case models.LabelPositive:
		return "pos"
	case models.LabelNegative:
		return "neg"
	}
	return "neu"
}

func isHTTPURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
