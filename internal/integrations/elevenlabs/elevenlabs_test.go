package elevenlabs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vlatan/anime-studio/internal/config"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		ElevenLabsAPIKey:  "test-key",
		ElevenLabsBaseURL: baseURL,
		RequestTimeout:    time.Second,
	}
}

func TestGenerateVocals(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		if r.URL.Path != soundGenerationPath {
			t.Errorf("got path %q, want %q", r.URL.Path, soundGenerationPath)
		}

		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("got api key header %q, want %q", got, "test-key")
		}

		var payload struct {
			Text            string  `json:"text"`
			DurationSeconds float64 `json:"duration_seconds"`
			PromptInfluence float64 `json:"prompt_influence"`
		}

		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode the request body: %v", err)
		}

		if !strings.Contains(payload.Text, "test lyrics") {
			t.Errorf("got prompt %q, want it to carry the lyrics", payload.Text)
		}

		if payload.DurationSeconds != 10 {
			t.Errorf("got duration %v, want 10", payload.DurationSeconds)
		}

		if payload.PromptInfluence != promptInfluence {
			t.Errorf("got prompt influence %v, want %v", payload.PromptInfluence, promptInfluence)
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	service := New(testConfig(server.URL))

	audio, err := service.GenerateVocals(t.Context(), "rap over test lyrics", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(audio) != "mp3-bytes" {
		t.Errorf("got audio %q, want %q", audio, "mp3-bytes")
	}
}

func TestGenerateVocalsErrors(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "invalid api key"}`))
	}))
	defer server.Close()

	service := New(testConfig(server.URL))

	_, err := service.GenerateVocals(t.Context(), "prompt", 10)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("got error %v, want it to carry the status code", err)
	}

	// Without an API key the request never leaves the process
	service = New(&config.Config{ElevenLabsBaseURL: server.URL, RequestTimeout: time.Second})
	if _, err := service.GenerateVocals(t.Context(), "prompt", 10); err == nil {
		t.Error("expected an error without an API key")
	}
}
