package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matiks/matiks-monitor/internal/config"
	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() *models.Report {
	ts := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	return &models.Report{
		GeneratedAt:   time.Date(2025, 8, 21, 9, 0, 0, 0, time.UTC),
		TotalMentions: 42,
		NewMentions:   7,
		Mentions: []models.Mention{
			{
				Platform:  models.PlatformReddit,
				Type:      models.TypeSocial,
				Author:    "u1",
				URL:       "https://reddit.com/r/x/1",
				Timestamp: &ts,
				Text:      "Matiks app   is\nreally great",
				Sentiment: &models.Sentiment{Polarity: 0.6, Label: models.LabelPositive},
			},
			{
				Platform: models.PlatformAppleStore,
				Type:     models.TypeReview,
				Text:     "crashes on start",
				Rating:   "1",
			},
		},
		Summary: map[string]interface{}{
			"sentiment": map[string]int{"positive": 1, "negative": 1, "neutral": 0},
		},
	}
}

func TestService_SendReport_Teams(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(&config.Config{Query: "Matiks", TeamsWebhookURL: server.URL})
	require.NoError(t, svc.SendReport(context.Background(), testReport()))

	assert.Equal(t, "MessageCard", received.Type)
	assert.Equal(t, "Matiks Monitor - 2 new mentions", received.Title)
	require.Len(t, received.Sections, 2)
	assert.Equal(t, "New Mentions", received.Sections[1].ActivityTitle)
	assert.Contains(t, received.Sections[1].ActivityText, "Matiks app is really great")
	assert.Contains(t, received.Sections[1].ActivityText, "unknown author")
}

func TestService_SendReport_TeamsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad card"))
	}))
	defer server.Close()

	svc := NewService(&config.Config{Query: "Matiks", TeamsWebhookURL: server.URL})
	err := svc.SendReport(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Teams")
	assert.Contains(t, err.Error(), "400")
}

func TestService_SendReport_NoChannels(t *testing.T) {
	svc := NewService(&config.Config{Query: "Matiks"})
	assert.NoError(t, svc.SendReport(context.Background(), testReport()))
}

func TestService_SendAlert_Teams(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	svc := NewService(&config.Config{Query: "Matiks", TeamsWebhookURL: server.URL})
	err := svc.SendAlert(context.Background(), &models.Alert{
		Title:     "Cycle failed",
		Message:   "combined.csv is unreadable",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Cycle failed", received.Title)
	assert.Equal(t, "d13438", received.ThemeColor)
}

func TestService_buildTeamsMessage_Facts(t *testing.T) {
	svc := NewService(&config.Config{Query: "Matiks"})
	msg := svc.buildTeamsMessage(testReport())

	facts := map[string]string{}
	for _, f := range msg.Sections[0].Facts {
		facts[f.Name] = f.Value
	}
	assert.Equal(t, "42", facts["Total Mentions"])
	assert.Equal(t, "2", facts["Added This Cycle"])
	assert.Equal(t, "1", facts["Positive Mentions"])
	assert.Equal(t, "0", facts["Neutral Mentions"])
}

func TestService_buildTeamsMessage_NoMentions(t *testing.T) {
	svc := NewService(&config.Config{Query: "Matiks"})
	report := testReport()
	report.Mentions = nil

	msg := svc.buildTeamsMessage(report)
	assert.Len(t, msg.Sections, 1)
}

func TestService_buildEmailText(t *testing.T) {
	svc := NewService(&config.Config{Query: "Matiks"})
	text := svc.buildEmailText(testReport())

	assert.Contains(t, text, "Matiks Monitor Report")
	assert.Contains(t, text, "Rows in dataset: 42")
	assert.Contains(t, text, "Added this cycle: 2")
	assert.Contains(t, text, "1. Reddit | u1 | Aug 20, 2025")
	assert.Contains(t, text, "URL: https://reddit.com/r/x/1")
	assert.Contains(t, text, "2. Apple App Store | unknown author | undated")
	assert.Equal(t, 1, strings.Count(text, "URL:"))
}

func TestService_buildEmailHTML(t *testing.T) {
	svc := NewService(&config.Config{Query: "Matiks"})
	report := testReport()
	report.Mentions[1].Text = "<script>alert(1)</script>"

	html, err := svc.buildEmailHTML(report)
	require.NoError(t, err)

	assert.Contains(t, html, "Matiks Monitor Report")
	assert.Contains(t, html, `class="mention positive"`)
	assert.Contains(t, html, `class="mention neutral"`)
	assert.Contains(t, html, "Rating: 1")
	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		length int
		want   string
	}{
		{"short", "hello", 10, "hello"},
		{"collapses whitespace", "a  b\n\tc", 10, "a b c"},
		{"truncates runes", "héllo wörld", 5, "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, excerpt(tt.input, tt.length))
		})
	}
}

func TestSortedCounts(t *testing.T) {
	got := sortedCounts(map[string]int{"neutral": 2, "positive": 5, "negative": 2})
	require.Len(t, got, 3)
	assert.Equal(t, "positive", got[0].name)
	assert.Equal(t, "negative", got[1].name)
	assert.Equal(t, "neutral", got[2].name)

	assert.Nil(t, sortedCounts("not a map"))
}
