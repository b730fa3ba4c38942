package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ponziworld/pwclient-go/internal/infra/resilience"
)

func TestBulkhead_LimitsConcurrency(t *testing.T) {
	b := resilience.NewBulkhead(2)
	ctx := context.Background()

	if err := b.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := b.Acquire(ctx); err != nil {
		t.Fatal(err)
	}

	// Third acquire must block until a slot frees up.
	blocked, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := b.Acquire(blocked); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while bulkhead full, got %v", err)
	}

	b.Release()
	if err := b.Acquire(ctx); err != nil {
		t.Fatalf("expected acquire to succeed after release, got %v", err)
	}
}

func TestBulkhead_RespectsCancellation(t *testing.T) {
	b := resilience.NewBulkhead(1)
	if err := b.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := resilience.NewCircuitBreaker("test")
	boom := errors.New("backend down")

	for i := 0; i < 6; i++ {
		_, _ = cb.Execute(func() (any, error) { return nil, boom })
	}

	_, err := cb.Execute(func() (any, error) { return nil, nil })
	if err == nil {
		t.Fatal("expected open breaker to fail fast")
	}
}
