package dashboard

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMentions() []models.Mention {
	ts := time.Date(2025, 8, 20, 10, 30, 0, 0, time.UTC)
	return []models.Mention{
		{
			Platform:        models.PlatformReddit,
			Type:            models.TypeSocial,
			Author:          "u1",
			URL:             "https://reddit.com/r/matiks/1",
			Timestamp:       &ts,
			EngagementLikes: 5,
			Text:            "Matiks app review\nsecond line",
			Sentiment:       &models.Sentiment{Polarity: 0.61, Label: models.LabelPositive},
		},
		{
			Platform:  models.PlatformAppleStore,
			Type:      models.TypeReview,
			Author:    "<b>bold</b>",
			Text:      "crashes <script>alert(1)</script>",
			Rating:    "1",
			Sentiment: &models.Sentiment{Polarity: -0.5, Label: models.LabelNegative},
		},
		{
			Platform: models.PlatformLinkedIn,
			URL:      "javascript:alert(1)",
			Text:     "Matiks team hiring",
		},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	generated := time.Date(2025, 8, 21, 9, 0, 0, 0, time.UTC)
	err := Render(&buf, sampleMentions(), Options{GeneratedAt: generated})
	require.NoError(t, err)
	html := buf.String()

	assert.Contains(t, html, "<title>Matiks Monitor</title>")
	assert.Contains(t, html, "Last generated: 2025-08-21T09:00:00Z")
	assert.Contains(t, html, `id="rowCount">3</span>`)
	assert.Contains(t, html, "2025-08-20 10:30:00 UTC")
	assert.Contains(t, html, `data-ts="2025-08-20T10:30:00Z"`)
	assert.Contains(t, html, `<span class="pill pos">positive</span>`)
	assert.Contains(t, html, `<span class="pill neg">negative</span>`)
	assert.Contains(t, html, `href="https://reddit.com/r/matiks/1"`)
	assert.Contains(t, html, ">Open</a>")
	assert.Contains(t, html, "Matiks app review\nsecond line")
}

func TestRender_EscapesContent(t *testing.T) {
	html, err := RenderBytes(sampleMentions(), Options{})
	require.NoError(t, err)

	assert.NotContains(t, string(html), "<script>alert(1)</script>")
	assert.NotContains(t, string(html), "<b>bold</b>")
	assert.NotContains(t, string(html), `href="javascript:alert(1)"`)
	assert.Equal(t, 1, strings.Count(string(html), ">Open</a>"))
}

func TestRender_PlatformsBySection(t *testing.T) {
	html, err := RenderBytes(sampleMentions(), Options{Title: "Brand Monitor"})
	require.NoError(t, err)

	assert.Contains(t, string(html), "<title>Brand Monitor</title>")
	assert.Contains(t, string(html), `social: ["LinkedIn","Reddit"]`)
	assert.Contains(t, string(html), `app: ["Apple App Store"]`)
	assert.Contains(t, string(html), `data-type="social" data-ts=""`)
}

func TestRender_Empty(t *testing.T) {
	html, err := RenderBytes(nil, Options{})
	require.NoError(t, err)

	assert.Contains(t, string(html), `id="rowCount">0</span>`)
	assert.Contains(t, string(html), `social: []`)
}

func TestPillClass(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{models.LabelPositive, "pos"},
		{models.LabelNegative, "neg"},
		{models.LabelNeutral, "neu"},
		{"", "neu"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, pillClass(tt.label))
		})
	}
}
