package utils

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

type RetryConfig struct {
	MaxRetries int
	MaxJitter  time.Duration
	Delay      time.Duration
}

// backoff returns the sleep time before the next attempt,
// exponential on the attempt number plus a random jitter.
func (rc *RetryConfig) backoff(attempt int) time.Duration {
	jitter := time.Duration(rand.Float64() * float64(rc.MaxJitter))
	return rc.Delay*time.Duration(1<<attempt) + jitter
}

// Extract retry delay from error on Google API.
func extractRetryDelay(err error) (time.Duration, bool) {

	st, ok := status.FromError(err)
	if !ok {
		return 0, false
	}

	// The structured details may carry a server dictated RetryInfo
	for _, detail := range st.Details() {
		if retryInfo, ok := detail.(*errdetails.RetryInfo); ok {
			if retryInfo.RetryDelay != nil {
				return retryInfo.RetryDelay.AsDuration(), true
			}
		}
	}

	return 0, false
}

// Retry calls fn until it succeeds, the attempts run out or the context
// ends. A server supplied retry delay overrides the computed backoff.
func Retry[T any](
	ctx context.Context,
	rc *RetryConfig,
	fn func() (T, error),
) (T, error) {

	var (
		zero      T
		lastError error
	)

	// At least one attempt, whatever the config says
	attempts := max(rc.MaxRetries, 1)

	for i := range attempts {

		data, err := fn()
		if err == nil {
			return data, err
		}

		lastError = err
		if i+1 == attempts {
			break
		}

		sleepTime := rc.backoff(i)

		// Honor the delay the API asked for, unless it is absurd
		if retryDelay, ok := extractRetryDelay(lastError); ok {
			if retryDelay > sleepTime {
				return zero, fmt.Errorf(
					"API requested excessive wait: %v; %w;",
					retryDelay, lastError,
				)
			}
			sleepTime = retryDelay
		}

		select {
		case <-ctx.Done():
			return zero, errors.Join(ctx.Err(), lastError)
		case <-time.After(sleepTime):
		}
	}

	return zero, fmt.Errorf("%d max retries error; %w", attempts, lastError)
}
