package prompts

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Gender selects which style tag and pronoun rules are applied
type Gender string

const (
	Masculine Gender = "M"
	Feminine  Gender = "F"
)

// InvalidCodeError is returned when a gender code
// does not normalize to a recognized value.
type InvalidCodeError struct {
	Code string
}

// Implement error interface
func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf(
		"invalid gender code %q; accepted values are 'M' or 'F' (case-insensitive)",
		e.Code,
	)
}

// ParseGender normalizes a gender code.
// Accepts 'M'/'m'/'F'/'f', errors on anything else.
func ParseGender(code string) (Gender, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "M":
		return Masculine, nil
	case "F":
		return Feminine, nil
	}
	return "", &InvalidCodeError{Code: code}
}

// Rule is a single word-boundary pronoun substitution
type Rule struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
}

// Tables holds the read-only configuration of the genderizer.
// Integrators may supply their own tables instead of DefaultTables.
type Tables struct {
	StyleTags             map[Gender]string `json:"style_tags"`
	PronounRules          map[Gender][]Rule `json:"pronoun_rules"`
	IdentityAnchors       []string          `json:"identity_anchors"`
	VisibilityConstraints []string          `json:"visibility_constraints"`
}

// DefaultTables returns the stock configuration tables.
// The slices are freshly allocated so callers may mutate their copy.
func DefaultTables() Tables {
	return Tables{
		StyleTags: map[Gender]string{
			Masculine: "Presenting a masculine look and movement quality " +
				"(confident posture, strong chest/shoulder isolations).",
			Feminine: "Presenting a feminine look and movement quality " +
				"(fluid lines, hip emphasis, graceful arm styling).",
		},
		PronounRules: map[Gender][]Rule{
			Masculine: {
				{"they", "he"},
				{"them", "him"},
				{"their", "his"},
				{"theirs", "his"},
				{"themself", "himself"},
				{"themselves", "himself"},
				{"she", "he"},
				{"her", "his"}, // possessive and object case both collapse to "his"
				{"hers", "his"},
			},
			Feminine: {
				{"they", "she"},
				{"them", "her"},
				{"their", "her"},
				{"theirs", "hers"},
				{"themself", "herself"},
				{"themselves", "herself"},
				{"he", "she"},
				{"him", "her"},
				{"his", "her"},
			},
		},
		// Checked in this order, first phrase found wins
		IdentityAnchors: []string{
			"The anime character matches the uploaded reference exactly",
			"The character matches the uploaded reference exactly",
			"Preserve identity",
		},
		VisibilityConstraints: []string{
			"Entire body is always in frame.",
			"Head is always in the frame.",
		},
	}
}

type compiledRule struct {
	re          *regexp.Regexp
	replacement string
}

// Genderizer rewrites video generation prompts
// to match a requested gender presentation.
type Genderizer struct {
	tables   Tables
	compiled map[Gender][]compiledRule
}

// New creates a Genderizer from the given tables
func New(tables Tables) *Genderizer {

	compiled := make(map[Gender][]compiledRule, len(tables.PronounRules))
	for gender, rules := range tables.PronounRules {
		crs := make([]compiledRule, 0, len(rules))
		for _, rule := range rules {
			if rule.Pattern == "" {
				continue
			}
			re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(rule.Pattern) + `\b`)
			crs = append(crs, compiledRule{re, rule.Replacement})
		}
		compiled[gender] = crs
	}

	return &Genderizer{tables: tables, compiled: compiled}
}

// Genderize transforms a single prompt. The returned prompt has harmonized
// pronouns, a gender style tag and the visibility constraints. The original
// choreography, scene and style instructions are left intact.
func (g *Genderizer) Genderize(prompt, code string) (string, error) {
	gender, err := ParseGender(code)
	if err != nil {
		return "", err
	}
	return g.apply(prompt, gender), nil
}

// GenderizeBatch transforms prompts independently, preserving order.
// The gender code is validated once for the whole batch.
func (g *Genderizer) GenderizeBatch(prompts []string, code string) ([]string, error) {

	gender, err := ParseGender(code)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(prompts))
	for i, prompt := range prompts {
		out[i] = g.apply(prompt, gender)
	}

	return out, nil
}

// apply runs the transform for an already validated gender
func (g *Genderizer) apply(prompt string, gender Gender) string {
	out := g.mapPronouns(prompt, gender)
	out = g.injectStyleTag(out, g.tables.StyleTags[gender])
	out = g.ensureVisibility(out)
	return tidySpaces(out)
}

// mapPronouns applies the pronoun rules for the gender, in table order,
// each rule in a single left-to-right pass. Matching is case-insensitive
// and the replacement copies the shape of the matched word.
func (g *Genderizer) mapPronouns(prompt string, gender Gender) string {
	out := prompt
	for _, rule := range g.compiled[gender] {
		out = rule.re.ReplaceAllStringFunc(out, func(match string) string {
			return matchShape(match, rule.replacement)
		})
	}
	return out
}

// injectStyleTag inserts the tag before the first identity anchor found,
// otherwise appends it. A tag already present is never duplicated.
func (g *Genderizer) injectStyleTag(prompt, tag string) string {

	if tag == "" || strings.Contains(prompt, tag) {
		return prompt
	}

	for _, anchor := range g.tables.IdentityAnchors {
		idx := strings.Index(prompt, anchor)
		if idx == -1 {
			continue
		}
		return strings.TrimRight(prompt[:idx], " ") + " " + tag + " " + prompt[idx:]
	}

	// No anchor, append
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return tag
	}

	if strings.HasSuffix(trimmed, ".") {
		return trimmed + " " + tag
	}

	return trimmed + ". " + tag
}

// ensureVisibility appends each visibility constraint not already present
func (g *Genderizer) ensureVisibility(prompt string) string {
	out := strings.TrimSpace(prompt)
	for _, constraint := range g.tables.VisibilityConstraints {
		if strings.Contains(out, constraint) {
			continue
		}
		if out != "" && !strings.HasSuffix(out, ".") {
			out += "."
		}
		out += " " + constraint
	}
	return out
}

// matchShape casts the replacement into the shape of the matched word:
// ALL CAPS stays capital, Title case keeps the capital first letter,
// everything else is the replacement as listed.
func matchShape(match, replacement string) string {

	if match == strings.ToUpper(match) && len(match) > 1 {
		return strings.ToUpper(replacement)
	}

	runes := []rune(match)
	if len(runes) > 0 && unicode.IsUpper(runes[0]) {
		return capitalize(replacement)
	}

	return replacement
}

// First letter to uppercase
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var spaceRun = regexp.MustCompile(` {2,}`)

// tidySpaces collapses runs of two or more spaces produced by substitution
func tidySpaces(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

var defaultGenderizer = New(DefaultTables())

// Genderize transforms a prompt using the default tables
func Genderize(prompt, code string) (string, error) {
	return defaultGenderizer.Genderize(prompt, code)
}

// GenderizeBatch transforms prompts using the default tables
func GenderizeBatch(prompts []string, code string) ([]string, error) {
	return defaultGenderizer.GenderizeBatch(prompts, code)
}
