package utils

import (
	"context"
	"testing"
	"time"
)

func TestBackoffConfig_Delay(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: 1 * time.Second, MaxDelay: 30 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{10, 30 * time.Second}, // capped
		{-1, 1 * time.Second},
	}

	for _, tt := range tests {
		if got := cfg.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffConfig_SleepCancelled(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: 10 * time.Second, MaxDelay: 10 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := cfg.Sleep(ctx, 0)
	if err == nil {
		t.Fatal("expected context error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Sleep did not return promptly on cancellation: %v", elapsed)
	}
}

func TestBackoffConfig_SleepCompletes(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: 5 * time.Millisecond, MaxDelay: 5 * time.Millisecond}

	if err := cfg.Sleep(context.Background(), 0); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
