package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var fast = Config{
	MaxAttempts:       3,
	InitialBackoff:    time.Millisecond,
	MaxBackoff:        5 * time.Millisecond,
	BackoffMultiplier: 2,
}

func TestDo(t *testing.T) {
	errTransient := errors.New("transient")
	errFatal := errors.New("fatal")

	tests := []struct {
		name      string
		failures  []error
		retryable func(error) bool
		wantCalls int
		wantErr   error
	}{
		{name: "first try", wantCalls: 1},
		{name: "recovers", failures: []error{errTransient, errTransient}, wantCalls: 3},
		{name: "gives up", failures: []error{errTransient, errTransient, errTransient, errTransient}, wantCalls: 3, wantErr: errTransient},
		{
			name:      "not retryable",
			failures:  []error{errFatal},
			retryable: func(err error) bool { return !errors.Is(err, errFatal) },
			wantCalls: 1,
			wantErr:   errFatal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fast
			cfg.Retryable = tt.retryable
			calls := 0
			got, err := Do(context.Background(), cfg, func(context.Context) (string, error) {
				calls++
				if calls <= len(tt.failures) {
					return "", tt.failures[calls-1]
				}
				return "ok", nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got != "ok" {
				t.Errorf("result = %q, want ok", got)
			}
		})
	}
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fast
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour
	calls := 0
	_, err := Do(ctx, cfg, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoffCapped(t *testing.T) {
	cfg := Config{InitialBackoff: time.Second, MaxBackoff: 2 * time.Second, BackoffMultiplier: 10}
	if got := Backoff(5, cfg); got != 2*time.Second {
		t.Errorf("Backoff = %v, want 2s", got)
	}
}

func TestPacer(t *testing.T) {
	var nilPacer *Pacer
	if err := nilPacer.Wait(context.Background()); err != nil {
		t.Errorf("nil pacer Wait = %v", err)
	}
	if NewPacer(0) != nil {
		t.Error("NewPacer(0) should disable pacing")
	}

	p := NewPacer(20)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	// Burst of one at 20/s: the second and third calls wait ~50ms each.
	if d := time.Since(start); d < 80*time.Millisecond {
		t.Errorf("three paced calls took %v, want at least 80ms", d)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewPacer(0.001).Wait(ctx); err == nil {
		t.Error("Wait on cancelled context succeeded")
	}
}
