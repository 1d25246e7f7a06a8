package network_test

import (
	"context"
	"testing"
	"time"

	"feedpress/internal/network"

	"github.com/stretchr/testify/require"
)

func TestHostLimiter_Disabled(t *testing.T) {
	limiter := network.NewHostLimiter(0)
	require.Nil(t, limiter)
	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Wait(context.Background(), "example.com"))
	}
}

func TestHostLimiter_PerHost(t *testing.T) {
	limiter := network.NewHostLimiter(1)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, limiter.Wait(ctx, "a.example"))
	// Different host has its own bucket.
	require.NoError(t, limiter.Wait(ctx, "b.example"))
	// Host names are case-insensitive, so this waits on a.example's bucket.
	require.Error(t, limiter.Wait(ctx, "A.EXAMPLE"))
}
