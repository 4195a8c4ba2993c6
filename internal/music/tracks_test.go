package music

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vlatan/anime-studio/internal/models"
)

func TestSafeName(t *testing.T) {

	tests := []struct {
		name     string
		filename string
		expected string
	}{
		{"simple", "groove.mp3", "groove"},
		{"spaces and case", "Funk City Walk.mp3", "funk_city_walk"},
		{"special characters", "Rock & Roll (live)!.wav", "rock_and_roll_live"},
		{"no extension", "heyson_rap", "heyson_rap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeName(tt.filename); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseTracks(t *testing.T) {

	csvBody := strings.Join([]string{
		"filenames,s3_safe_name,marked",
		"Funk City Walk.mp3;funk_alt_take.mp3,funk_city_walk,",
		"Rock Kill 2.mp3,rock_kill2,x",
		",orphan_name,",
		"no_safe_name.mp3,,",
	}, "\n")

	tracks, err := parseTracks(strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("failed to parse tracks: %v", err)
	}

	expected := []models.Track{
		{Filename: "Funk City Walk.mp3", SafeName: "funk_city_walk"},
		{Filename: "Rock Kill 2.mp3", SafeName: "rock_kill2", Marked: true},
	}

	if diff := cmp.Diff(expected, tracks); diff != "" {
		t.Errorf("tracks mismatch (-want +got):\n%s", diff)
	}

	if got := expected[0].Key("music/"); got != "music/funk_city_walk.mp3" {
		t.Errorf("got key %q, want %q", got, "music/funk_city_walk.mp3")
	}
}

func TestParseTracksMissingColumn(t *testing.T) {
	_, err := parseTracks(strings.NewReader("filenames,other\nfoo.mp3,bar"))
	if err == nil {
		t.Fatal("expected an error for a missing column")
	}
}

func TestSaveTracksRoundTrip(t *testing.T) {

	path := filepath.Join(t.TempDir(), "library.csv")
	tracks := []models.Track{
		{Filename: "a.mp3", SafeName: "track_a"},
		{Filename: "b.mp3", SafeName: "track_b", Marked: true},
	}

	if err := SaveTracks(path, tracks); err != nil {
		t.Fatalf("failed to save tracks: %v", err)
	}

	loaded, err := LoadTracks(path)
	if err != nil {
		t.Fatalf("failed to load tracks: %v", err)
	}

	if diff := cmp.Diff(tracks, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}
