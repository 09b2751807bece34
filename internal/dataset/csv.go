package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/matiks/matiks-monitor/internal/normalize"
)

// Columns is the persisted column order of the combined table
var Columns = []string{
	"platform",
	"type",
	"author",
	"url",
	"timestamp",
	"engagement_likes",
	"engagement_comments",
	"engagement_shares",
	"text",
	"rating",
	"app_version",
	"sentiment_polarity",
	"sentiment_subjectivity",
	"sentiment_label",
}

// Encode writes mentions as CSV with a header row. Timestamps are RFC 3339 UTC at full
// precision; sentiment columns stay empty for unscored rows.
func Encode(w io.Writer, mentions []models.Mention) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, m := range mentions {
		if err := cw.Write(record(m)); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Marshal encodes mentions into an in-memory CSV document
func Marshal(mentions []models.Mention) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, mentions); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a CSV table by header name. Unknown columns are ignored and missing
// ones default to empty or zero, so tables written by older versions still load.
func Decode(r io.Reader) ([]models.Mention, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := index["platform"]; !ok {
		return nil, fmt.Errorf("missing platform column")
	}

	var mentions []models.Mention
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		get := func(col string) string {
			if i, ok := index[col]; ok && i < len(rec) {
				return rec[i]
			}
			return ""
		}

		m := models.Mention{
			Platform:           models.Platform(get("platform")),
			Type:               models.MentionType(get("type")),
			Author:             get("author"),
			URL:                get("url"),
			Timestamp:          normalize.ParseTimestamp(get("timestamp")),
			EngagementLikes:    parseCount(get("engagement_likes")),
			EngagementComments: parseCount(get("engagement_comments")),
			EngagementShares:   parseCount(get("engagement_shares")),
			Text:               get("text"),
			Rating:             parseRating(get("rating")),
			AppVersion:         get("app_version"),
		}

		if label := get("sentiment_label"); label != "" {
			m.Sentiment = &models.Sentiment{
				Polarity:     parseFloat(get("sentiment_polarity")),
				Subjectivity: parseFloat(get("sentiment_subjectivity")),
				Label:        label,
			}
		}

		mentions = append(mentions, m)
	}

	return mentions, nil
}

// Unmarshal decodes an in-memory CSV document
func Unmarshal(data []byte) ([]models.Mention, error) {
	return Decode(bytes.NewReader(data))
}

func record(m models.Mention) []string {
	ts := ""
	if m.Timestamp != nil {
		ts = m.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	polarity, subjectivity, label := "", "", ""
	if m.Sentiment != nil {
		polarity = strconv.FormatFloat(m.Sentiment.Polarity, 'f', -1, 64)
		subjectivity = strconv.FormatFloat(m.Sentiment.Subjectivity, 'f', -1, 64)
		label = m.Sentiment.Label
	}

	return []string{
		string(m.Platform),
		string(m.Type),
		m.Author,
		m.URL,
		ts,
		strconv.Itoa(m.EngagementLikes),
		strconv.Itoa(m.EngagementComments),
		strconv.Itoa(m.EngagementShares),
		m.Text,
		m.Rating,
		m.AppVersion,
		polarity,
		subjectivity,
		label,
	}
}

// parseCount tolerates float renderings such as "12.0"; anything unusable is zero
func parseCount(s string) int {
	f := parseFloat(s)
	if f <= 0 {
		return 0
	}
	return int(f)
}

// parseRating normalizes integral float renderings ("5.0") to their integer form
func parseRating(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.Itoa(int(f))
	}
	return s
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
