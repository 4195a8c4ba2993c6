package prompts

import (
	"fmt"
	"strings"
	"text/template"
)

// VideoPromptData feeds the video prompt template.
// Background and Caption usually come from photo analysis.
type VideoPromptData struct {
	Style      string // dance style, e.g. "breakdance", "hip-hop"
	Moves      string // optional comma separated choreography moves
	BPM        int
	Background string
	Caption    string
}

// The identity anchor sentence closes the template on purpose, so the
// genderizer inserts its style tag right before it.
var videoPromptTemplate = template.Must(template.New("video").Funcs(template.FuncMap{
	"hasSuffix": strings.HasSuffix,
}).Parse(strings.TrimSpace(`
The character dances {{.Style}} like a cool, confident, expert TikTok dance star
{{- if .BPM }} to a {{.BPM}} BPM song{{ end }}.
{{- if .Moves }} They perform {{.Moves}}.{{ end }}
{{- if .Background }} The scene keeps the original setting: {{.Background}}.{{ end }}
{{- if .Caption }} Mood reference: {{.Caption}}{{ if not (hasSuffix .Caption ".") }}.{{ end }}{{ end }}
The anime character matches the uploaded reference exactly, same face, complexion, hair, outfit.
`)))

// BuildVideoPrompt renders a gender-neutral image-to-video prompt.
// Run the result through Genderize before submitting it.
func BuildVideoPrompt(data VideoPromptData) (string, error) {

	if strings.TrimSpace(data.Style) == "" {
		return "", fmt.Errorf("no dance style provided")
	}

	var sb strings.Builder
	if err := videoPromptTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("couldn't render the video prompt: %w", err)
	}

	// The template is multiline for readability, the prompt is one line
	prompt := strings.Join(strings.Fields(sb.String()), " ")
	return prompt, nil
}

const lyricsPlaceholder = "{LYRICS}"

// DefaultVocalPrompt steers the music model toward a dry acapella take
// the lip sync stage can ride on. {LYRICS} is replaced with the lyrics.
const DefaultVocalPrompt = "Acapella rap vocals only, no instruments, " +
	"no backing track, no ad-libs. Confident delivery, steady flow, " +
	"clear articulation. The lyrics are: {LYRICS}"

// BuildVocalPrompt fills a vocal prompt template with the lyrics.
// An empty template falls back to DefaultVocalPrompt; a template
// without the {LYRICS} placeholder gets the lyrics appended.
func BuildVocalPrompt(tmpl, lyrics string) (string, error) {

	if strings.TrimSpace(lyrics) == "" {
		return "", fmt.Errorf("no lyrics provided")
	}

	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultVocalPrompt
	}

	if !strings.Contains(tmpl, lyricsPlaceholder) {
		return strings.TrimSpace(tmpl) + " The lyrics are: " + lyrics, nil
	}

	return strings.ReplaceAll(tmpl, lyricsPlaceholder, lyrics), nil
}

// AnimePrompt is the image-to-image stylization instruction,
// shared by every run so the output art style is uniform.
const AnimePrompt = "Convert this photo into a high-quality anime illustration, " +
	"clean line art, cel shading, vibrant colors, expressive eyes. " +
	"The anime character matches the uploaded reference exactly, " +
	"same face, complexion, hair, outfit. " +
	"Single subject, no logos, no text, 9:16 portrait framing."
