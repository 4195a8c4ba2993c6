package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAwaitOperation(t *testing.T) {

	interval := time.Millisecond

	t.Run("done after a few polls", func(t *testing.T) {
		var polls int
		err := awaitOperation(baseCtx, interval, time.Second,
			func(ctx context.Context) (bool, error) {
				polls++
				return polls == 3, nil
			},
		)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if polls != 3 {
			t.Errorf("got %d polls, want 3", polls)
		}
	})

	t.Run("poll error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		err := awaitOperation(baseCtx, interval, time.Second,
			func(ctx context.Context) (bool, error) {
				return false, boom
			},
		)

		if !errors.Is(err, boom) {
			t.Errorf("got error %v, want %v", err, boom)
		}
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		err := awaitOperation(baseCtx, interval, 10*time.Millisecond,
			func(ctx context.Context) (bool, error) {
				return false, nil
			},
		)

		if err == nil || !strings.Contains(err.Error(), "timed out") {
			t.Errorf("got error %v, want a timeout", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(baseCtx)
		cancel()

		err := awaitOperation(cancelled, time.Minute, time.Hour,
			func(ctx context.Context) (bool, error) {
				t.Error("poll ran on a cancelled context")
				return false, nil
			},
		)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("got error %v, want context.Canceled", err)
		}
	})
}
