package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vlatan/anime-studio/internal/config"
)

const soundGenerationPath = "/v1/sound-generation"

// How strictly the model follows the prompt, 0 to 1
const promptInfluence = 0.3

// Service is a client for the ElevenLabs sound generation API
type Service struct {
	config *config.Config
	http   *http.Client
}

// New creates new ElevenLabs service
func New(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// GenerateVocals renders a vocal track from a prompt and returns the
// raw MP3 bytes. Duration is in seconds, capped by the API at 22.
func (s *Service) GenerateVocals(
	ctx context.Context,
	prompt string,
	duration int,
) ([]byte, error) {

	if s.config.ElevenLabsAPIKey == "" {
		return nil, errors.New("no ELEVENLABS_API_KEY defined in env")
	}

	payload := map[string]any{
		"text":             prompt,
		"duration_seconds": float64(duration),
		"prompt_influence": promptInfluence,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		s.config.ElevenLabsBaseURL+soundGenerationPath,
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("xi-api-key", s.config.ElevenLabsAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("elevenlabs returned %d: %s",
			resp.StatusCode, truncate(audio, 500),
		)
	}

	if len(audio) == 0 {
		return nil, errors.New("elevenlabs returned no audio")
	}

	return audio, nil
}

// truncate clips a raw body for error messages
func truncate(raw []byte, limit int) string {
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
