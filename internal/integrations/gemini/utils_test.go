package gemini

import "testing"

func TestScrubText(t *testing.T) {

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"plain text untouched",
			"a quiet city street at dusk",
			"a quiet city street at dusk",
		},
		{
			"markup stripped",
			"<b>neon</b> signs over a <i>rainy</i> alley",
			"neon signs over a rainy alley",
		},
		{
			"whitespace collapsed",
			"  rooftop \n garden\t with lanterns ",
			"rooftop garden with lanterns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scrubText(tt.input); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizePrompt(t *testing.T) {

	input := "The character witnesses a massacre during an execution."
	expected := "The character witnesses a incident during an killing."

	if got := sanitizePrompt(input); got != expected {
		t.Errorf("got %q, want %q", got, expected)
	}
}
