package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vlatan/anime-studio/internal/prompts"
)

type Secret struct {
	Bytes []byte
}

// GenderTables is an optional override of the genderizer configuration,
// supplied as base64 encoded JSON in the environment.
type GenderTables struct {
	Tables *prompts.Tables
}

type Target string

const (
	Studio Target = "studio"
	Worker Target = "worker"
)

type Config struct {
	// Running localy or not
	Debug  bool   `env:"DEBUG" envDefault:"false"`
	Target Target `env:"TARGET" envDefault:"studio"`

	// Local pipeline directories
	InputDir  string `env:"INPUT_DIR" envDefault:"inputs/selfies"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"outputs"`

	// Prompt settings
	PromptsFile  string       `env:"PROMPTS_FILE" envDefault:"prompts/kling_prompts.txt"`
	PromptName   string       `env:"PROMPT_NAME"`
	GenderTables GenderTables `env:"GENDER_TABLES"`

	// Google Gemini settings
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiModel      string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiImageModel string `env:"GEMINI_IMAGE_MODEL" envDefault:"gemini-2.5-flash-image-preview"`
	VeoModel         string `env:"VEO_MODEL" envDefault:"veo-3.0-generate-001"`
	GeminiRPM        int64  `env:"GEMINI_RPM" envDefault:"30"`
	GeminiRPD        int64  `env:"GEMINI_RPD" envDefault:"1000"`
	GeminiTimezone   string `env:"GEMINI_TIMEZONE" envDefault:"UTC"`

	// Which provider animates the stills, "kling" or "veo"
	VideoProvider string `env:"VIDEO_PROVIDER" envDefault:"kling"`

	// Kling settings
	KlingAccessKey string  `env:"KLING_ACCESS_KEY"`
	KlingSecretKey Secret  `env:"KLING_SECRET_KEY"`
	KlingBaseURL   string  `env:"KLING_BASE_URL" envDefault:"https://api-singapore.klingai.com"`
	KlingModel     string  `env:"KLING_MODEL" envDefault:"kling-v2-1"`
	KlingRPS       float64 `env:"KLING_RPS" envDefault:"0.5"`
	VideoDuration  int     `env:"VIDEO_DURATION_SECONDS" envDefault:"5"`

	// ElevenLabs settings, rap vocal generation
	ElevenLabsAPIKey  string `env:"ELEVENLABS_API_KEY"`
	ElevenLabsBaseURL string `env:"ELEVENLABS_BASE_URL" envDefault:"https://api.elevenlabs.io"`
	VocalDuration     int    `env:"VOCAL_DURATION_SECONDS" envDefault:"10"`

	// Polling cadence for async video jobs (Veo and Kling)
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`
	PollDeadline time.Duration `env:"POLL_DEADLINE" envDefault:"10m"`

	// Worker pool and retry settings
	AnalyzeWorkers int           `env:"ANALYZE_WORKERS" envDefault:"20"`
	VideoWorkers   int           `env:"VIDEO_WORKERS" envDefault:"3"`
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"6"`
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF" envDefault:"1s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"120s"`

	// AWS S3
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	MusicPrefix string `env:"MUSIC_PREFIX" envDefault:"music/"`
	VideoPrefix string `env:"VIDEO_PREFIX" envDefault:"videos/"`

	// Redis
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisUsername string        `env:"REDIS_USERNAME"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	TaskTTL       time.Duration `env:"TASK_TTL" envDefault:"604800s"`
}

// New creates new config object
func New() *Config {

	// Parse the config from the environment
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse the config; %v", err)
	}

	if cfg.Target != Worker {
		return &cfg
	}

	// The worker talks to Gemini unconditionally
	if cfg.GeminiAPIKey == "" {
		log.Fatal("no GEMINI_API_KEY defined in env")
	}

	return &cfg
}

// Genderizer builds a genderizer from the configured tables,
// falling back to the stock tables when no override is set.
func (c *Config) Genderizer() *prompts.Genderizer {
	if c.GenderTables.Tables != nil {
		return prompts.New(*c.GenderTables.Tables)
	}
	return prompts.New(prompts.DefaultTables())
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
// It's called by the env library to decode the Secret.
func (s *Secret) UnmarshalText(text []byte) error {

	s.Bytes = make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(s.Bytes, text)
	if err != nil {
		return fmt.Errorf("error decoding a secret key; %w", err)
	}

	s.Bytes = s.Bytes[:n]
	return nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
// It's called by the env library to decode the GenderTables.
func (gt *GenderTables) UnmarshalText(text []byte) error {

	tableBytes := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(tableBytes, text)
	if err != nil {
		return fmt.Errorf("error decoding the gender tables; %w", err)
	}

	var tables prompts.Tables
	if err = json.Unmarshal(tableBytes[:n], &tables); err != nil {
		return fmt.Errorf("error decoding the gender tables; %w", err)
	}

	gt.Tables = &tables
	return nil
}
