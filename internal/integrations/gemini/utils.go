package gemini

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// scrubText strips any markup the model sneaks into a text field
// and collapses the whitespace
func scrubText(text string) string {
	clean := bluemonday.StrictPolicy().Sanitize(text)
	return strings.Join(strings.Fields(clean), " ")
}

// sanitizePrompt is replacing visceral/graphic verbs and nouns with synonyms
// so the video models don't trip their own safety filters
func sanitizePrompt(input string) string {

	replacer := strings.NewReplacer(
		"execution", "killing",
		"beheaded", "killed",
		"beheading", "killing",
		"slaughtered", "attacked",
		"massacre", "incident",

		"naked", "dressed casually",
		"nude", "dressed casually",
	)

	return replacer.Replace(input)
}
