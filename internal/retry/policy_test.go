package retry

import (
	"context"
	"testing"
	"time"
)

// TestPolicyValidation verifies policy bounds are enforced
func TestPolicyValidation(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"valid single attempt", Policy{MaxAttempts: 1}, false},
		{"valid with delay", Policy{MaxAttempts: 150, Delay: 2 * time.Second}, false},
		{"zero attempts", Policy{MaxAttempts: 0}, true},
		{"negative attempts", Policy{MaxAttempts: -3}, true},
		{"negative delay", Policy{MaxAttempts: 5, Delay: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestCeiling verifies the worst-case duration calculation
func TestCeiling(t *testing.T) {
	p := Policy{MaxAttempts: 150, Delay: 2 * time.Second}
	want := 298 * time.Second
	if got := p.Ceiling(); got != want {
		t.Errorf("Ceiling() = %v, want %v", got, want)
	}

	if got := (Policy{MaxAttempts: 1, Delay: 5 * time.Second}).Ceiling(); got != 0 {
		t.Errorf("single attempt Ceiling() = %v, want 0", got)
	}
}

// TestFakeSleeperRecordsDurations verifies the fake records without waiting
func TestFakeSleeperRecordsDurations(t *testing.T) {
	f := &FakeSleeper{}
	if err := f.Sleep(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("Sleep returned error: %v", err)
	}
	if len(f.Slept) != 1 || f.Slept[0] != 5*time.Second {
		t.Errorf("Slept = %v, want [5s]", f.Slept)
	}
}

// TestFakeSleeperHonorsCancellation verifies cancelled contexts stop the loop
func TestFakeSleeperHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &FakeSleeper{}
	if err := f.Sleep(ctx, time.Second); err == nil {
		t.Error("expected error from cancelled context")
	}
	if len(f.Slept) != 0 {
		t.Errorf("cancelled sleep recorded: %v", f.Slept)
	}
}

// TestClockSleeperCancellation verifies a real sleep aborts on cancel
func TestClockSleeperCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := ClockSleeper{}.Sleep(ctx, time.Minute)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("sleep did not abort promptly: %v", elapsed)
	}
}
