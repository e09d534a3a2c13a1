package connectors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterSpacesCalls(t *testing.T) {
	limiter := NewRateLimiter(20)
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.WaitTurn(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRateLimiterHonoursContext(t *testing.T) {
	limiter := NewRateLimiter(1)
	require.NoError(t, limiter.WaitTurn(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, limiter.WaitTurn(ctx), context.Canceled)
}
