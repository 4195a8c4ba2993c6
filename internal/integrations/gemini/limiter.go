package gemini

import (
	"context"
	"fmt"
	"time"

	_ "time/tzdata" // embed the timezone database into the binary

	"github.com/vlatan/anime-studio/internal/config"
	"github.com/vlatan/anime-studio/internal/drivers/rdb"
)

// Quota buckets live next to the other worker keys in redis
const (
	rpd = "worker:gemini:rpd:"
	rpm = "worker:gemini:rpm:"
)

type GeminiLimiter struct {
	cfg *config.Config
	rdb *rdb.Service
	loc *time.Location

	// Built once per limiter so concurrent limiters never race
	errDaily  error
	errMinute error
}

// NewLimiter creates new Gemini limiter
func NewLimiter(cfg *config.Config, rdb *rdb.Service) (*GeminiLimiter, error) {
	loc, err := time.LoadLocation(cfg.GeminiTimezone)
	if err != nil {
		return nil, err
	}

	return &GeminiLimiter{
		cfg:       cfg,
		rdb:       rdb,
		loc:       loc,
		errDaily:  fmt.Errorf("gemini daily limit (%d RPD) reached", cfg.GeminiRPD),
		errMinute: fmt.Errorf("gemini minute limit (%d RPM) reached", cfg.GeminiRPM),
	}, nil
}

// AcquireQuota attempts to consume 1 request from the daily and minute buckets.
// It returns a limiter error if any of the quotas are full.
func (gl *GeminiLimiter) AcquireQuota(ctx context.Context) error {
	now := time.Now().In(gl.loc)

	// Calculate TTL for the Daily Reset (RPD)
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, gl.loc)
	ttlDaily := time.Until(nextMidnight)

	// Redis Keys
	dailyKey := rpd + now.Format("2006-01-02")
	minuteKey := rpm + now.Format("2006-01-02-15-04")

	// Atomic check using a Pipeline
	pipe := gl.rdb.Client.Pipeline()
	dailyIncr := pipe.Incr(ctx, dailyKey)
	pipe.Expire(ctx, dailyKey, ttlDaily)

	minuteIncr := pipe.Incr(ctx, minuteKey)
	pipe.Expire(ctx, minuteKey, 65*time.Second) // slightly over a minute

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("redis failure: %w", err)
	}

	// Verify against the RPD limit
	if dailyIncr.Val() > gl.cfg.GeminiRPD {
		return gl.errDaily
	}

	// Verify against the RPM limit
	if minuteIncr.Val() > gl.cfg.GeminiRPM {
		return gl.errMinute
	}

	return nil
}

// Exhausted returns true if the daily limit has already been hit.
func (gl *GeminiLimiter) Exhausted(ctx context.Context) bool {
	now := time.Now().In(gl.loc)
	dailyKey := rpd + now.Format("2006-01-02")
	val, err := gl.rdb.Client.Get(ctx, dailyKey).Int64()
	if err != nil {
		return false
	}

	return val >= gl.cfg.GeminiRPD
}
