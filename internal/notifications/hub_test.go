package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"crwn/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

type notificationRow struct {
	ID      uint   `json:"id"`
	UserID  uint   `json:"user_id"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func TestHub_RegisterLimits(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)
	assert.Equal(t, maxConnsPerUser, hub.Connections(1))

	require.NoError(t, hub.Shutdown(context.Background()))
	_, err = hub.Register(2, nil)
	assert.ErrorIs(t, err, ErrServerConnLimit)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(3, nil)
	require.NoError(t, err)

	hub.UnregisterClient(client)
	hub.UnregisterClient(client)
	assert.Zero(t, hub.Connections(3))

	_, open := <-client.Send
	assert.False(t, open)
	// Sending to a closed client is dropped, not a panic.
	client.TrySend([]byte("late"))
}

func TestHub_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(4, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		client.TrySend([]byte("x"))
	}
	assert.Len(t, client.Send, sendBuffer)
}

func TestHub_StartWiringRoutesByRecipient(t *testing.T) {
	feed := realtime.NewLocalFeed()
	defer func() { _ = feed.Close() }()
	hub := NewHub()

	ada, err := hub.Register(10, nil)
	require.NoError(t, err)
	bo, err := hub.Register(11, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := hub.StartWiring(ctx, feed)
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()

	change, err := realtime.NewChange("notifications", notificationRow{ID: 1, UserID: 10, Type: "follow", Message: "hi"}, "user_id")
	require.NoError(t, err)
	require.NoError(t, feed.Publish(ctx, change))

	var frame []byte
	require.Eventually(t, func() bool {
		select {
		case frame = <-ada.Send:
			return true
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, TypeNotification, env.Type)
	var row notificationRow
	require.NoError(t, json.Unmarshal(env.Payload, &row))
	assert.Equal(t, "follow", row.Type)

	assert.Never(t, func() bool { return len(bo.Send) > 0 }, 10*testPollInterval, testPollInterval)
}
