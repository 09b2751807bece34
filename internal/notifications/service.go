package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/matiks/matiks-monitor/internal/config"
	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

const (
	teamsTopMentions = 5
	emailTopMentions = 10
	excerptLength    = 200
)

// Service delivers cycle reports to Teams and email
type Service struct {
	config *config.Config
	client *resty.Client
	dialer *gomail.Dialer
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	if cfg.NotificationEmail != "" {
		s.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return s
}

// SendReport sends a cycle report via every configured channel
func (s *Service) SendReport(ctx context.Context, report *models.Report) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postTeams(ctx, s.buildTeamsMessage(report)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.dialer != nil {
		if err := s.sendReportEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// SendAlert posts a short notice, used when a cycle fails
func (s *Service) SendAlert(ctx context.Context, alert *models.Alert) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		message := &TeamsMessage{
			Type:       "MessageCard",
			Context:    "https://schema.org/extensions",
			ThemeColor: "d13438",
			Title:      alert.Title,
			Text:       alert.Message,
		}
		if err := s.postTeams(ctx, message); err != nil {
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		}
	}

	if s.dialer != nil {
		m := s.newMessage(alert.Title)
		m.SetBody("text/plain", fmt.Sprintf("%s\n\n%s\n", alert.Message, alert.CreatedAt.UTC().Format(time.RFC3339)))
		if err := s.dialer.DialAndSend(m); err != nil {
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("alert errors: %s", strings.Join(errors, "; "))
	}

	logrus.Infof("Alert sent: %s", alert.Title)
	return nil
}

func (s *Service) postTeams(ctx context.Context, message *TeamsMessage) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)
	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("%s Monitor - %d new mentions", s.config.Query, len(report.Mentions)),
		Text:    fmt.Sprintf("%d rows fetched this cycle, %d rows in the dataset", report.NewMentions, report.TotalMentions),
	}

	facts := []TeamsFact{
		{Name: "Total Mentions", Value: fmt.Sprintf("%d", report.TotalMentions)},
		{Name: "Added This Cycle", Value: fmt.Sprintf("%d", len(report.Mentions))},
		{Name: "Generated", Value: report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	for _, kv := range sortedCounts(report.Summary["sentiment"]) {
		facts = append(facts, TeamsFact{
			Name:  fmt.Sprintf("%s Mentions", capitalize(kv.name)),
			Value: fmt.Sprintf("%d", kv.count),
		})
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.Mentions) > 0 {
		var top []string
		for i, mention := range report.Mentions {
			if i >= teamsTopMentions {
				break
			}
			top = append(top, fmt.Sprintf("**%s** - %s (%s): %s",
				mention.Platform, displayAuthor(mention), formatDate(mention.Timestamp, "Jan 2"), excerpt(mention.Text, 140)))
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "New Mentions",
			ActivityText:  strings.Join(top, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) newMessage(subject string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	return m
}

func (s *Service) sendReportEmail(report *models.Report) error {
	subject := fmt.Sprintf("%s Monitor - %d new mentions (%d total)", s.config.Query, len(report.Mentions), report.TotalMentions)

	htmlBody, err := s.buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := s.newMessage(subject)
	m.SetBody("text/plain", s.buildEmailText(report))
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"title":   capitalize,
	"excerpt": excerpt,
	"date":    formatDate,
	"author":  displayAuthor,
	"label": func(m models.Mention) string {
		if m.Sentiment == nil {
			return models.LabelNeutral
		}
		return m.Sentiment.Label
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Query}} Monitor Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #4f46e5; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .mention { border-left: 4px solid #4f46e5; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .mention-meta { color: #666; font-size: 0.9em; }
        .positive { border-left-color: #107c10; }
        .negative { border-left-color: #d13438; }
        .neutral { border-left-color: #605e5c; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Query}} Monitor Report</h1>
        <p>Generated on {{.Report.GeneratedAt.UTC.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Rows in dataset:</strong> {{.Report.TotalMentions}}</p>
        <p><strong>Added this cycle:</strong> {{len .Report.Mentions}}</p>
        {{range .Sentiment}}
            <p><strong>{{title .Name}} Mentions:</strong> {{.Count}}</p>
        {{end}}
    </div>

    {{if .Top}}
    <h2>New Mentions</h2>
    {{range .Top}}
        <div class="mention {{label .}}">
            <div class="mention-meta">
                {{.Platform}} | {{author .}} | {{date .Timestamp "Jan 2, 2006"}}
                {{if .URL}} | <a href="{{.URL}}" target="_blank">Open</a>{{end}}
                {{if .Rating}} | Rating: {{.Rating}}{{end}}
            </div>
            <p>{{excerpt .Text 200}}</p>
        </div>
    {{end}}
    {{end}}

    <hr>
    <p><small>This report was generated automatically by the {{.Query}} monitor.</small></p>
</body>
</html>
`))

type countView struct {
	Name  string
	Count int
}

func (s *Service) buildEmailHTML(report *models.Report) (string, error) {
	top := report.Mentions
	if len(top) > emailTopMentions {
		top = top[:emailTopMentions]
	}

	var sentiment []countView
	for _, kv := range sortedCounts(report.Summary["sentiment"]) {
		sentiment = append(sentiment, countView{Name: kv.name, Count: kv.count})
	}

	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, struct {
		Query     string
		Report    *models.Report
		Sentiment []countView
		Top       []models.Mention
	}{s.config.Query, report, sentiment, top})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("%s Monitor Report\n", s.config.Query))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Rows in dataset: %d\n", report.TotalMentions))
	text.WriteString(fmt.Sprintf("Added this cycle: %d\n", len(report.Mentions)))

	for _, kv := range sortedCounts(report.Summary["sentiment"]) {
		text.WriteString(fmt.Sprintf("%s Mentions: %d\n", capitalize(kv.name), kv.count))
	}

	if len(report.Mentions) > 0 {
		text.WriteString("\nNEW MENTIONS\n")
		text.WriteString("============\n")

		for i, mention := range report.Mentions {
			if i >= emailTopMentions {
				break
			}
			text.WriteString(fmt.Sprintf("\n%d. %s | %s | %s\n", i+1,
				mention.Platform, displayAuthor(mention), formatDate(mention.Timestamp, "Jan 2, 2006")))
			if mention.URL != "" {
				text.WriteString(fmt.Sprintf("   URL: %s\n", mention.URL))
			}
			text.WriteString(fmt.Sprintf("   %s\n", excerpt(mention.Text, excerptLength)))
		}
	}

	text.WriteString(fmt.Sprintf("\n---\nThis report was generated automatically by the %s monitor.\n", s.config.Query))

	return text.String()
}

type namedCount struct {
	name  string
	count int
}

// sortedCounts orders a summary breakdown by count, then name
func sortedCounts(v interface{}) []namedCount {
	counts, ok := v.(map[string]int)
	if !ok {
		return nil
	}
	out := make([]namedCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, namedCount{name, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func excerpt(s string, length int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length]) + "..."
}

func formatDate(ts *time.Time, layout string) string {
	if ts == nil {
		return "undated"
	}
	return ts.UTC().Format(layout)
}

func displayAuthor(m models.Mention) string {
	if m.Author == "" {
		return "unknown author"
	}
	return m.Author
}
