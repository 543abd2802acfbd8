package remote

import (
	"context"
	"testing"
	"time"

	"crwn/internal/models"
	"crwn/internal/realtime"
	"crwn/internal/storage"
	"crwn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresDatabaseAndStorage(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{DB: testutil.SQLiteDB(t)})
	assert.Error(t, err)
}

func TestNew_WiresStoreAndFeed(t *testing.T) {
	avatars := testutil.NewMemoryBucket(storage.BucketAvatars)
	c, err := New(Options{
		DB:        testutil.SQLiteDB(t),
		Storage:   storage.BucketSet{storage.BucketAvatars: avatars},
		JWTSecret: "test-secret-test-secret-test-secret",
	})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.Equal(t, realtime.DriverLocal, c.Realtime.Driver())

	b, err := c.Bucket(storage.BucketAvatars)
	require.NoError(t, err)
	assert.Equal(t, "avatars", b.Name())
	_, err = c.Bucket(storage.BucketPostMedia)
	assert.ErrorIs(t, err, storage.ErrUnknownBucket)

	ctx := context.Background()
	got := make(chan realtime.Change, 1)
	_, err = c.Realtime.Subscribe(ctx, "notifications", realtime.Eq("user_id", 9), func(ch realtime.Change) { got <- ch })
	require.NoError(t, err)

	user, err := c.Auth.SignUp(ctx, "feed@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, c.Notifications.Create(ctx, &models.Notification{UserID: 9, Type: models.NotificationWelcome, Message: "hi"}))

	select {
	case change := <-got:
		assert.Equal(t, realtime.EventInsert, change.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("notification insert was not published")
	}

	fetched, err := c.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "feed@example.com", fetched.Email)
}
