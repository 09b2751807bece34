package merge

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/matiks/matiks-monitor/internal/models"
)

// keyTextLength bounds how much text participates in row identity
const keyTextLength = 200

// Key is the composite identity of a mention. No source provides a stable
// universal ID, so two rows agreeing on every component are the same mention.
type Key struct {
	Platform  models.Platform
	Type      models.MentionType
	URL       string
	Author    string
	Timestamp string
	Text      string
}

// KeyOf computes the identity of a mention. A nil timestamp is the empty component.
func KeyOf(m models.Mention) Key {
	ts := ""
	if m.Timestamp != nil {
		ts = m.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return Key{
		Platform:  m.Platform,
		Type:      m.Type,
		URL:       m.URL,
		Author:    m.Author,
		Timestamp: ts,
		Text:      truncate(m.Text, keyTextLength),
	}
}

// Merge combines the persisted history with freshly fetched rows. Existing rows
// precede incoming ones, so a re-fetched mention keeps its stored version even when
// its counters changed upstream. Rows without a platform, or whose type cannot be
// inferred from an unknown platform, are dropped. The result is ordered newest first
// with undated rows last.
func Merge(existing, incoming []models.Mention) []models.Mention {
	seen := make(map[Key]struct{}, len(existing)+len(incoming))
	out := make([]models.Mention, 0, len(existing)+len(incoming))

	for _, batch := range [][]models.Mention{existing, incoming} {
		for _, m := range batch {
			if m.Platform == "" {
				continue
			}
			m = Sanitize(m)
			if m.Type == "" {
				continue
			}

			key := KeyOf(m)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, m)
		}
	}

	SortNewestFirst(out)
	return out
}

// Sanitize fills a missing type from the platform and enforces per-type field invariants:
// reviews carry no url or engagement, social rows carry no rating or app version.
// CRLF line endings in text are folded to LF, matching what the CSV reader returns.
func Sanitize(m models.Mention) models.Mention {
	if m.Type == "" {
		m.Type = m.Platform.DefaultType()
	}
	m.Text = strings.ReplaceAll(m.Text, "\r\n", "\n")
	if m.Timestamp != nil {
		ts := m.Timestamp.UTC()
		m.Timestamp = &ts
	}

	switch m.Type {
	case models.TypeReview:
		m.URL = ""
		m.EngagementLikes, m.EngagementComments, m.EngagementShares = 0, 0, 0
	case models.TypeSocial:
		m.Rating = ""
		m.AppVersion = ""
	}

	m.EngagementLikes = nonNegative(m.EngagementLikes)
	m.EngagementComments = nonNegative(m.EngagementComments)
	m.EngagementShares = nonNegative(m.EngagementShares)
	return m
}

// SortNewestFirst orders mentions by timestamp descending, undated rows last.
// Ties keep their relative order.
func SortNewestFirst(mentions []models.Mention) {
	sort.SliceStable(mentions, func(i, j int) bool {
		a, b := mentions[i].Timestamp, mentions[j].Timestamp
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
