package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStore = errors.New("store down")

func failing(ctx context.Context) error { return errStore }

func succeeding(ctx context.Context) error { return nil }

func TestOpensAfterThreshold(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 3, SuccessThreshold: 1, Timeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, failing), errStore)
	}
	assert.Equal(t, StateOpen, cb.State())

	// While open, the underlying call must not run.
	called := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestRecoversThroughHalfOpen(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Millisecond})
	ctx := context.Background()

	require.ErrorIs(t, cb.Execute(ctx, failing), errStore)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)

	// Two successful probes close the circuit again.
	assert.NoError(t, cb.Execute(ctx, succeeding))
	assert.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 1, SuccessThreshold: 1, Timeout: 10 * time.Millisecond})
	ctx := context.Background()

	require.ErrorIs(t, cb.Execute(ctx, failing), errStore)
	time.Sleep(15 * time.Millisecond)

	assert.ErrorIs(t, cb.Execute(ctx, failing), errStore)
	assert.Equal(t, StateOpen, cb.State())
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	cb := New(Config{
		Name:             "snapshot-store",
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, []string{"closed->open"}, transitions)
}
