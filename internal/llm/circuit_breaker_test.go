package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerPassesThroughWhenClosed(t *testing.T) {
	cb := NewCircuitBreaker()

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %v, want ok", result)
	}
	if cb.State() != "closed" {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(CircuitBreakerConfig{
		MaxFailures: 2,
		Timeout:     time.Minute,
	})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(context.Background(), func() (interface{}, error) {
			return nil, boom
		}); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}

	if cb.State() != "open" {
		t.Fatalf("state = %s, want open", cb.State())
	}

	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		t.Fatal("function must not run while open")
		return nil, nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(CircuitBreakerConfig{
		MaxFailures: 2,
		Timeout:     time.Minute,
	})
	boom := errors.New("boom")

	fail := func() (interface{}, error) { return nil, boom }
	succeed := func() (interface{}, error) { return "ok", nil }

	_, _ = cb.Execute(context.Background(), fail)
	_, _ = cb.Execute(context.Background(), succeed)
	_, _ = cb.Execute(context.Background(), fail)

	if cb.State() != "closed" {
		t.Errorf("state = %s, want closed after interleaved success", cb.State())
	}
}

func TestCircuitBreakerRespectsCancelledContext(t *testing.T) {
	cb := NewCircuitBreaker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cb.Execute(ctx, func() (interface{}, error) {
		t.Fatal("function must not run with a cancelled context")
		return nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
