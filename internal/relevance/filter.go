package relevance

import (
	"strings"

	"github.com/matiks/matiks-monitor/internal/lexicon"
)

// Rule names the step of the filter that decided a text
type Rule string

const (
	RuleNoBrand   Rule = "no_brand"
	RuleExcluded  Rule = "excluded"
	RuleIncluded  Rule = "included"
	RuleRepeated  Rule = "repeated_brand"
	RuleAppWord   Rule = "app_context"
	RuleCompany   Rule = "company_context"
	RuleBareBrand Rule = "bare_mention"
)

// Filter separates genuine brand mentions from same-spelling noise.
// Rules are evaluated in a fixed order and the first match wins:
// exclusions outrank inclusions, a repeated brand outranks keyword co-occurrence.
type Filter struct {
	brand        string
	exclude      []string
	include      []string
	appWords     []string
	companyWords []string
}

// NewFilter creates a filter from the relevance section of a lexicon
func NewFilter(cfg lexicon.Relevance) *Filter {
	return &Filter{
		brand:        strings.ToLower(cfg.Brand),
		exclude:      cfg.Exclude,
		include:      cfg.Include,
		appWords:     cfg.AppWords,
		companyWords: cfg.CompanyWords,
	}
}

// IsRelevant reports whether text is about the tracked brand.
func (f *Filter) IsRelevant(text string) bool {
	relevant, _ := f.Evaluate(text)
	return relevant
}

// Evaluate returns the decision together with the rule that produced it.
func (f *Filter) Evaluate(text string) (bool, Rule) {
	content := strings.ToLower(text)

	if f.brand == "" || !strings.Contains(content, f.brand) {
		return false, RuleNoBrand
	}

	if containsAny(content, f.exclude) {
		return false, RuleExcluded
	}

	if containsAny(content, f.include) {
		return true, RuleIncluded
	}

	if strings.Count(content, f.brand) > 1 {
		return true, RuleRepeated
	}

	if containsAny(content, f.appWords) {
		return true, RuleAppWord
	}

	if containsAny(content, f.companyWords) {
		return true, RuleCompany
	}

	return false, RuleBareBrand
}

func containsAny(content string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(content, phrase) {
			return true
		}
	}
	return false
}
