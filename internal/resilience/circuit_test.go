package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func failing(_ context.Context) error { return errors.New("503 overloaded") }
func passing(_ context.Context) error { return nil }

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Now()
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	cb.nowFunc = func() time.Time { return now }

	ctx := context.Background()
	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, failing)
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open after 2 failures, got %s", cb.State())
	}

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open circuit should reject without calling, err=%v", err)
	}

	now = now.Add(time.Minute)
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open after reset timeout, got %s", cb.State())
	}
	if err := cb.Execute(ctx, passing); err != nil {
		t.Fatalf("probe should pass: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected closed after probe, got %s", cb.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	cb.nowFunc = func() time.Time { return now }

	_ = cb.Execute(context.Background(), failing)
	now = now.Add(2 * time.Second)
	_ = cb.Execute(context.Background(), failing)

	if _, state := cb.Counters(); state != CircuitOpen {
		t.Errorf("expected reopened circuit, got %s", state)
	}
}

func TestCircuitBreaker_IgnoresDocumentDeadline(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	if failures, state := cb.Counters(); failures != 0 || state != CircuitClosed {
		t.Errorf("cancelled call tripped the breaker: failures=%d state=%s", failures, state)
	}
}

func TestCircuitBreaker_ShouldTrip(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ShouldTrip: IsTransient})
	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("bad request") })
	if cb.State() != CircuitClosed {
		t.Error("permanent error should not trip the breaker")
	}
	_ = cb.Execute(context.Background(), func(context.Context) error {
		return NewTransientError(errors.New("overloaded"), 529)
	})
	if cb.State() != CircuitOpen {
		t.Error("transient error should trip the breaker")
	}
	cb.Reset()
	if cb.State() != CircuitClosed {
		t.Error("reset should close the breaker")
	}
}

func TestExecuteVal(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())
	n, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) { return 7, nil })
	if err != nil || n != 7 {
		t.Errorf("got %d, %v", n, err)
	}
}

func TestServiceBreakers_ConcurrentGet(t *testing.T) {
	sb := NewServiceBreakers(DefaultCircuitBreakerConfig())

	var wg sync.WaitGroup
	got := make([]*CircuitBreaker, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = sb.Get("anthropic")
		}(i)
	}
	wg.Wait()
	for _, cb := range got {
		if cb != got[0] {
			t.Fatal("Get returned different breakers for one service")
		}
	}
	if sb.Get("mistral") == got[0] {
		t.Error("services must not share a breaker")
	}
	if states := sb.States(); len(states) != 2 || states["anthropic"] != CircuitClosed {
		t.Errorf("unexpected states %v", states)
	}
}
