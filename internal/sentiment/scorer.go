package sentiment

import (
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/matiks/matiks-monitor/internal/lexicon"
	"github.com/matiks/matiks-monitor/internal/models"
)

// Scorer computes polarity, subjectivity and a label for mention text.
// VADER supplies the base scores; lexicon rules then correct them for
// code-mixed slang and product-specific phrasing. Scoring depends on text alone.
type Scorer struct {
	analyzer        *govader.SentimentIntensityAnalyzer
	rules           lexicon.Sentiment
	foreignPositive *regexp.Regexp
	foreignNegative *regexp.Regexp
}

// NewScorer builds a scorer from the sentiment section of a lexicon
func NewScorer(rules lexicon.Sentiment) *Scorer {
	return &Scorer{
		analyzer:        govader.NewSentimentIntensityAnalyzer(),
		rules:           rules,
		foreignPositive: wordPattern(rules.ForeignPositive),
		foreignNegative: wordPattern(rules.ForeignNegative),
	}
}

// Analyze scores a single text. Empty text is neutral with zero scores.
func (s *Scorer) Analyze(text string) models.Sentiment {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Sentiment{Label: models.LabelNeutral}
	}

	base := s.analyzer.PolarityScores(text)
	polarity := base.Compound
	subjectivity := clamp(base.Positive+base.Negative, 0, 1)

	lower := strings.ToLower(text)
	adj := s.rules.Adjustments

	hasForeignPositive := matches(s.foreignPositive, lower)
	hasForeignNegative := matches(s.foreignNegative, lower)
	switch {
	case hasForeignPositive && !hasForeignNegative:
		polarity = math.Max(polarity+adj.Foreign.Shift, adj.Foreign.Limit)
	case hasForeignNegative && !hasForeignPositive:
		polarity = math.Min(polarity-adj.Foreign.Shift, -adj.Foreign.Limit)
	}

	if s.positiveContextSignals(lower) > 0 {
		polarity = math.Max(polarity+adj.PositiveContext.Shift, adj.PositiveContext.Limit)
	}

	if countPhrases(lower, s.rules.NegativePatterns) > 0 {
		polarity = math.Min(polarity-adj.NegativeContext.Shift, -adj.NegativeContext.Limit)
	}

	polarity = clamp(polarity, -1, 1)

	return models.Sentiment{
		Polarity:     polarity,
		Subjectivity: subjectivity,
		Label:        s.Label(polarity),
	}
}

// Label maps a polarity onto positive, negative or neutral using the configured threshold
func (s *Scorer) Label(polarity float64) string {
	threshold := s.rules.NeutralThreshold
	switch {
	case polarity >= threshold:
		return models.LabelPositive
	case polarity <= -threshold:
		return models.LabelNegative
	default:
		return models.LabelNeutral
	}
}

// ScoreAll attaches a fresh score to every mention in place
func (s *Scorer) ScoreAll(mentions []models.Mention) {
	for i := range mentions {
		score := s.Analyze(mentions[i].Text)
		mentions[i].Sentiment = &score
	}
}

// positiveContextSignals counts praise phrases, co-occurrence hits and achievement patterns.
// The achievement list contributes at most one signal.
func (s *Scorer) positiveContextSignals(lower string) int {
	signals := countPhrases(lower, s.rules.PositiveContexts)

	for _, rule := range s.rules.CoOccurrence {
		if rule.Trigger != "" && strings.Contains(lower, rule.Trigger) && countPhrases(lower, rule.AnyOf) > 0 {
			signals++
		}
	}

	if countPhrases(lower, s.rules.AchievementPatterns) > 0 {
		signals++
	}
	return signals
}

func countPhrases(lower string, phrases []string) int {
	n := 0
	for _, phrase := range phrases {
		if phrase != "" && strings.Contains(lower, phrase) {
			n++
		}
	}
	return n
}

// wordPattern compiles tokens into one case-insensitive whole-word alternation
func wordPattern(tokens []string) *regexp.Regexp {
	quoted := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token = strings.TrimSpace(token); token != "" {
			quoted = append(quoted, regexp.QuoteMeta(token))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func matches(re *regexp.Regexp, s string) bool {
	return re != nil && re.MatchString(s)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
