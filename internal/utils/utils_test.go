package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {

	ctx := context.Background()
	rc := func() *RetryConfig {
		return &RetryConfig{MaxRetries: 3, Delay: time.Millisecond}
	}

	t.Run("succeeds first try", func(t *testing.T) {
		var calls int
		result, err := Retry(ctx, rc(), func() (string, error) {
			calls++
			return "ok", nil
		})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result != "ok" || calls != 1 {
			t.Errorf("got result %q after %d calls, want %q after 1", result, calls, "ok")
		}
	})

	t.Run("succeeds after failures", func(t *testing.T) {
		var calls int
		result, err := Retry(ctx, rc(), func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("transient")
			}
			return 42, nil
		})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result != 42 || calls != 3 {
			t.Errorf("got result %d after %d calls, want 42 after 3", result, calls)
		}
	})

	t.Run("exhausts retries", func(t *testing.T) {
		var calls int
		boom := errors.New("boom")
		_, err := Retry(ctx, rc(), func() (int, error) {
			calls++
			return 0, boom
		})

		if !errors.Is(err, boom) {
			t.Fatalf("got error %v, want it to wrap %v", err, boom)
		}

		if calls != 3 {
			t.Errorf("got %d calls, want 3", calls)
		}
	})

	t.Run("zero config still runs once", func(t *testing.T) {
		var calls int
		zero := &RetryConfig{}
		_, err := Retry(ctx, zero, func() (int, error) {
			calls++
			return 0, errors.New("boom")
		})

		if err == nil {
			t.Fatal("expected an error")
		}

		if calls != 1 {
			t.Errorf("got %d calls, want 1", calls)
		}

		// The caller's config must come back untouched
		if zero.MaxRetries != 0 {
			t.Errorf("config mutated: MaxRetries = %d", zero.MaxRetries)
		}
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		var calls int
		_, err := Retry(cancelled, rc(), func() (int, error) {
			calls++
			return 0, errors.New("transient")
		})

		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got error %v, want context.Canceled", err)
		}

		if calls != 1 {
			t.Errorf("got %d calls, want 1", calls)
		}
	})
}

func TestValidateFilePath(t *testing.T) {

	tests := []struct {
		path    string
		wantErr bool
	}{
		{"outputs/run.json", false},
		{"", true},
		{"outputs//run.json", true},
		{"outputs/../run.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidateFilePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("got error = %v, want error = %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlural(t *testing.T) {

	if got := Plural(1, "video"); got != "video" {
		t.Errorf("got %q, want %q", got, "video")
	}

	if got := Plural(3, "video"); got != "videos" {
		t.Errorf("got %q, want %q", got, "videos")
	}
}
