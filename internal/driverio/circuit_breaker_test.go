package driverio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, 20*time.Millisecond, 1)
	failing := errors.New("boom")

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func() error { return failing })
		require.ErrorIs(t, err, failing)
	}
	assert.Equal(t, "open", cb.State())

	err := cb.Execute(context.Background(), func() error { return nil })
	assert.Error(t, err)
}

func TestCircuitBreakerHalfOpensAndCloses(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond, 1)

	err := cb.Execute(context.Background(), func() error { return errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, "open", cb.State())

	time.Sleep(15 * time.Millisecond)

	err = cb.Execute(context.Background(), func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "closed", cb.State())
}
