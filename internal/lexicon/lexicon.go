package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultYAML []byte

// Lexicon holds every tunable word list used by relevance filtering and sentiment scoring
type Lexicon struct {
	Version   string    `yaml:"version"`
	Relevance Relevance `yaml:"relevance"`
	Sentiment Sentiment `yaml:"sentiment"`
}

// Relevance configures the brand relevance filter
type Relevance struct {
	Brand        string   `yaml:"brand"`
	Exclude      []string `yaml:"exclude"`
	Include      []string `yaml:"include"`
	AppWords     []string `yaml:"app_words"`
	CompanyWords []string `yaml:"company_words"`
}

// Sentiment configures the corrective rules layered over the base model
type Sentiment struct {
	NeutralThreshold    float64        `yaml:"neutral_threshold"`
	ForeignPositive     []string       `yaml:"foreign_positive"`
	ForeignNegative     []string       `yaml:"foreign_negative"`
	PositiveContexts    []string       `yaml:"positive_contexts"`
	AchievementPatterns []string       `yaml:"achievement_patterns"`
	CoOccurrence        []CoOccurrence `yaml:"co_occurrence"`
	NegativePatterns    []string       `yaml:"negative_patterns"`
	Adjustments         Adjustments    `yaml:"adjustments"`
}

// CoOccurrence fires when Trigger and at least one of AnyOf both appear
type CoOccurrence struct {
	Trigger string   `yaml:"trigger"`
	AnyOf   []string `yaml:"any_of"`
}

// Adjustment moves polarity by Shift and clamps it to at least Limit
// (positive rules) or at most -Limit (negative rules).
type Adjustment struct {
	Shift float64 `yaml:"shift"`
	Limit float64 `yaml:"limit"`
}

// Adjustments groups the per-rule polarity corrections
type Adjustments struct {
	Foreign         Adjustment `yaml:"foreign"`
	PositiveContext Adjustment `yaml:"positive_context"`
	NegativeContext Adjustment `yaml:"negative_context"`
}

// Default returns the embedded lexicon.
func Default() (*Lexicon, error) {
	return parse(nil)
}

// Load reads a lexicon file layered over the embedded default. An empty path returns the default.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lexicon: %w", err)
	}
	return parse(data)
}

// parse decodes the embedded default, then applies overrides on top of it.
// Lists present in overrides replace the default lists wholesale.
func parse(overrides []byte) (*Lexicon, error) {
	lex := &Lexicon{}
	if err := yaml.Unmarshal(DefaultYAML, lex); err != nil {
		return nil, fmt.Errorf("parsing default lexicon: %w", err)
	}
	if len(overrides) > 0 {
		if err := yaml.Unmarshal(overrides, lex); err != nil {
			return nil, fmt.Errorf("parsing lexicon: %w", err)
		}
	}

	lex.normalize()
	if err := lex.validate(); err != nil {
		return nil, fmt.Errorf("invalid lexicon: %w", err)
	}
	return lex, nil
}

func (l *Lexicon) normalize() {
	l.Relevance.Brand = strings.ToLower(strings.TrimSpace(l.Relevance.Brand))
	for _, list := range []*[]string{
		&l.Relevance.Exclude, &l.Relevance.Include, &l.Relevance.AppWords, &l.Relevance.CompanyWords,
		&l.Sentiment.ForeignPositive, &l.Sentiment.ForeignNegative, &l.Sentiment.PositiveContexts,
		&l.Sentiment.AchievementPatterns, &l.Sentiment.NegativePatterns,
	} {
		*list = lowerAll(*list)
	}
	for i := range l.Sentiment.CoOccurrence {
		rule := &l.Sentiment.CoOccurrence[i]
		rule.Trigger = strings.ToLower(strings.TrimSpace(rule.Trigger))
		rule.AnyOf = lowerAll(rule.AnyOf)
	}
}

func (l *Lexicon) validate() error {
	if l.Relevance.Brand == "" {
		return fmt.Errorf("relevance.brand is required")
	}
	if t := l.Sentiment.NeutralThreshold; t < 0 || t >= 1 {
		return fmt.Errorf("sentiment.neutral_threshold must be in [0,1), got %v", t)
	}
	adj := l.Sentiment.Adjustments
	for name, a := range map[string]Adjustment{
		"foreign":          adj.Foreign,
		"positive_context": adj.PositiveContext,
		"negative_context": adj.NegativeContext,
	} {
		if a.Shift < 0 || a.Limit < 0 || a.Limit > 1 {
			return fmt.Errorf("sentiment.adjustments.%s out of range", name)
		}
	}
	return nil
}

// lowerAll lower-cases and trims entries, dropping blanks.
func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
