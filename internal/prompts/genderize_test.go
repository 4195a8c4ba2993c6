package prompts

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const (
	masculineTag = "Presenting a masculine look and movement quality " +
		"(confident posture, strong chest/shoulder isolations)."
	feminineTag = "Presenting a feminine look and movement quality " +
		"(fluid lines, hip emphasis, graceful arm styling)."
	bodyConstraint = "Entire body is always in frame."
	headConstraint = "Head is always in the frame."
)

func TestParseGender(t *testing.T) {

	tests := []struct {
		code     string
		expected Gender
		wantErr  bool
	}{
		{"M", Masculine, false},
		{"m", Masculine, false},
		{"F", Feminine, false},
		{"f", Feminine, false},
		{" f ", Feminine, false},
		{"", "", true},
		{"Z", "", true},
		{"Masculine", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			gender, err := ParseGender(tt.code)
			if (err != nil) != tt.wantErr {
				t.Fatalf("got error = %v, want error = %v", err, tt.wantErr)
			}

			if gender != tt.expected {
				t.Errorf("got gender %q, want %q", gender, tt.expected)
			}

			if !tt.wantErr {
				return
			}

			var invalid *InvalidCodeError
			if !errors.As(err, &invalid) {
				t.Fatalf("got error of type %T, want *InvalidCodeError", err)
			}

			if !strings.Contains(err.Error(), "'M'") ||
				!strings.Contains(err.Error(), "'F'") {
				t.Errorf("error %q does not name the accepted values", err)
			}
		})
	}
}

func TestGenderize(t *testing.T) {

	tests := []struct {
		name     string
		prompt   string
		code     string
		expected string
	}{
		{
			"masculine, no anchor, tag appended",
			"The character dances. They move energetically.",
			"M",
			"The character dances. He move energetically. " +
				masculineTag + " " + bodyConstraint + " " + headConstraint,
		},
		{
			"feminine, anchor present, tag inserted before it",
			"The character breakdances. They perform toprocks. " +
				"The character matches the uploaded reference exactly, same face and outfit.",
			"F",
			"The character breakdances. She perform toprocks. " +
				feminineTag + " " +
				"The character matches the uploaded reference exactly, same face and outfit. " +
				bodyConstraint + " " + headConstraint,
		},
		{
			"empty prompt",
			"",
			"M",
			masculineTag + " " + bodyConstraint + " " + headConstraint,
		},
		{
			"lowercase code accepted",
			"",
			"f",
			feminineTag + " " + bodyConstraint + " " + headConstraint,
		},
		{
			"prompt without trailing period",
			"The character waves",
			"M",
			"The character waves. " + masculineTag + " " +
				bodyConstraint + " " + headConstraint,
		},
		{
			"feminine pronoun flips",
			"He nods. His hat tilts. She hugs him.",
			"F",
			"She nods. Her hat tilts. She hugs her. " + feminineTag +
				" " + bodyConstraint + " " + headConstraint,
		},
		{
			"pronoun not replaced inside longer words",
			"Theyll hem their capes.",
			"M",
			"Theyll hem his capes. " + masculineTag + " " +
				bodyConstraint + " " + headConstraint,
		},
		{
			"all caps pronoun keeps its shape",
			"THEY spin.",
			"F",
			"SHE spin. " + feminineTag + " " +
				bodyConstraint + " " + headConstraint,
		},
		{
			"highest priority anchor wins",
			"Preserve identity. The anime character matches the uploaded reference exactly.",
			"M",
			"Preserve identity. " + masculineTag +
				" The anime character matches the uploaded reference exactly. " +
				bodyConstraint + " " + headConstraint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Genderize(tt.prompt, tt.code)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.expected, result); diff != "" {
				t.Errorf("prompt mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenderizeInvalidCode(t *testing.T) {

	for _, code := range []string{"Z", "", "male", "MF"} {
		t.Run("code "+code, func(t *testing.T) {
			result, err := Genderize("The character dances.", code)

			var invalid *InvalidCodeError
			if !errors.As(err, &invalid) {
				t.Fatalf("got error %v, want *InvalidCodeError", err)
			}

			if invalid.Code != code {
				t.Errorf("error carries code %q, want %q", invalid.Code, code)
			}

			if result != "" {
				t.Errorf("got output %q, want no output on invalid code", result)
			}
		})
	}
}

func TestGenderizeProperties(t *testing.T) {

	prompts := []string{
		"The character dances. They move energetically.",
		"She performs hip-hop choreography. Her movements are sharp.",
		"The character matches the uploaded reference exactly, same outfit.",
		"Multiple   spaces   survive    substitution.",
		"Already constrained. " + bodyConstraint,
		"",
	}

	for _, code := range []string{"M", "F"} {
		tag := masculineTag
		if code == "F" {
			tag = feminineTag
		}

		for _, prompt := range prompts {
			result, err := Genderize(prompt, code)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if n := strings.Count(result, tag); n != 1 {
				t.Errorf("style tag found %d times in %q, want once", n, result)
			}

			if n := strings.Count(result, bodyConstraint); n != 1 {
				t.Errorf("body constraint found %d times in %q, want once", n, result)
			}

			if n := strings.Count(result, headConstraint); n != 1 {
				t.Errorf("head constraint found %d times in %q, want once", n, result)
			}

			if strings.Contains(result, "  ") {
				t.Errorf("double space found in %q", result)
			}
		}
	}
}

// Reapplying with the same code must not grow the prompt
func TestGenderizeIdempotent(t *testing.T) {

	prompts := []string{
		"The character dances. They move with energy.",
		"The character matches the uploaded reference exactly.",
		"",
	}

	for _, prompt := range prompts {
		for _, code := range []string{"M", "F"} {
			once, err := Genderize(prompt, code)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			twice, err := Genderize(once, code)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(once, twice); diff != "" {
				t.Errorf("second application changed the prompt (-once +twice):\n%s", diff)
			}
		}
	}
}

func TestGenderizeBatch(t *testing.T) {

	prompts := []string{
		"The character dances hip-hop. They perform sharp isolations.",
		"The character dances ballet. They move with grace.",
		"The character performs K-pop choreography. They hit sharp poses.",
	}

	batch, err := GenderizeBatch(prompts, "M")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(batch) != len(prompts) {
		t.Fatalf("got %d results, want %d", len(batch), len(prompts))
	}

	for i, prompt := range prompts {
		single, err := Genderize(prompt, "M")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if batch[i] != single {
			t.Errorf("batch[%d] = %q, want %q", i, batch[i], single)
		}
	}

	if _, err = GenderizeBatch(prompts, "X"); err == nil {
		t.Error("expected an error on invalid batch gender code")
	}
}

// Custom tables are injected without touching the defaults
func TestGenderizeCustomTables(t *testing.T) {

	tables := Tables{
		StyleTags: map[Gender]string{
			Masculine: "Bold stage presence.",
			Feminine:  "Soft stage presence.",
		},
		PronounRules: map[Gender][]Rule{
			Masculine: {{"they", "he"}},
			Feminine:  {{"they", "she"}},
		},
		IdentityAnchors:       []string{"Keep the look"},
		VisibilityConstraints: []string{"Stay centered."},
	}

	g := New(tables)

	result, err := g.Genderize("They dance. Keep the look intact.", "F")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "She dance. Soft stage presence. Keep the look intact. Stay centered."
	if diff := cmp.Diff(expected, result); diff != "" {
		t.Errorf("prompt mismatch (-want +got):\n%s", diff)
	}

	// The default tables must be unaffected
	def, err := Genderize("", "F")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(def, feminineTag) {
		t.Errorf("default genderizer lost its style tag: %q", def)
	}
}
