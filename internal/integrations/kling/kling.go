package kling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/vlatan/anime-studio/internal/config"
)

// Service is a client for the Kling video API
type Service struct {
	config  *config.Config
	http    *http.Client
	limiter *rate.Limiter
}

// envelope is the wrapper every Kling response comes in
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// apiError is a non-zero code in a Kling response envelope
type apiError struct {
	Code    int
	Message string
}

// Implement error interface
func (e *apiError) Error() string {
	return fmt.Sprintf("kling API error %d: %s", e.Code, e.Message)
}

// New creates new Kling service
func New(cfg *config.Config) *Service {
	return &Service{
		config:  cfg,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.KlingRPS), 1),
	}
}

// authToken mints a short lived bearer token signed with the secret key.
// Kling wants the access key as the issuer and a small nbf skew allowance.
func (s *Service) authToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.config.KlingAccessKey,
		ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Minute)),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.config.KlingSecretKey.Bytes)
}

// call performs an authenticated request against the Kling API,
// unwraps the response envelope and decodes its data into out
func (s *Service) call(ctx context.Context, method, path string, payload, out any) error {

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.KlingBaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token, err := s.authToken()
	if err != nil {
		return fmt.Errorf("failed to sign auth token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("kling %s %s returned %d: %s",
			method, path, resp.StatusCode, truncate(raw, 500),
		)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("kling response not valid JSON: %w", err)
	}

	if env.Code != 0 {
		return &apiError{Code: env.Code, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return nil
}

// truncate clips a raw body for error messages
func truncate(raw []byte, limit int) string {
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
