package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailureThreshold = 3
	cb := New("test", cfg, zaptest.NewLogger(t))
	ctx := context.Background()

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		err := cb.Execute(ctx, func() error { return boom })
		require.ErrorIs(t, err, boom)
	}
	require.Equal(t, StateOpen, cb.State())

	err := cb.Execute(ctx, func() error { return nil })
	require.ErrorIs(t, err, ErrCircuitBreakerOpen)
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailureThreshold = 1
	cfg.SuccessThreshold = 2
	cfg.Timeout = 10 * time.Millisecond
	cb := New("test", cfg, zaptest.NewLogger(t))
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, func() error { return errors.New("boom") }))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// Two successes in half-open close the breaker again.
	require.NoError(t, cb.Execute(ctx, func() error { return nil }))
	require.NoError(t, cb.Execute(ctx, func() error { return nil }))
	require.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailureThreshold = 1
	cfg.Timeout = 10 * time.Millisecond
	cb := New("test", cfg, zaptest.NewLogger(t))
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, func() error { return errors.New("boom") }))
	time.Sleep(20 * time.Millisecond)

	require.Error(t, cb.Execute(ctx, func() error { return errors.New("still broken") }))
	require.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerClosedSuccessResetsConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailureThreshold = 3
	cb := New("test", cfg, zaptest.NewLogger(t))
	ctx := context.Background()

	boom := errors.New("boom")
	require.Error(t, cb.Execute(ctx, func() error { return boom }))
	require.Error(t, cb.Execute(ctx, func() error { return boom }))
	require.NoError(t, cb.Execute(ctx, func() error { return nil }))
	require.Error(t, cb.Execute(ctx, func() error { return boom }))

	require.Equal(t, StateClosed, cb.State())
}
