package ws

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubLimitsConnectionsPerUser(t *testing.T) {
	hub := NewHub(HubOptions{MaxConnectionsPerUser: 2})

	a := NewClient(context.Background(), nil, "u1")
	b := NewClient(context.Background(), nil, "u1")
	c := NewClient(context.Background(), nil, "u1")
	other := NewClient(context.Background(), nil, "u2")

	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Register(b))
	assert.ErrorIs(t, hub.Register(c), ErrTooManyConnections)
	require.NoError(t, hub.Register(other))
	assert.Equal(t, int64(3), hub.Metrics().Connections.Load())

	hub.Unregister(a)
	hub.Unregister(a)
	assert.Equal(t, 1, hub.ConnectionCount("u1"))
	require.NoError(t, hub.Register(c))
	assert.Equal(t, 2, hub.ConnectionCount("u1"))
}

func TestSendRawDropsWhenQueueIsFull(t *testing.T) {
	c := NewClient(context.Background(), nil, "u1")

	for i := 0; i < maxSendChannelSize; i++ {
		require.True(t, c.SendRaw([]byte(fmt.Sprint(i))))
	}
	assert.False(t, c.SendRaw([]byte("overflow")))
	assert.Equal(t, int64(1), c.metrics.Dropped.Load())
}
