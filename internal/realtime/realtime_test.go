package realtime

import (
	"context"
	"testing"
	"time"

	"crwn/internal/models"
	"crwn/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{in: "", want: Filter{}},
		{in: "user_id=eq.7", want: Filter{Column: "user_id", Value: "7"}},
		{in: "type=eq.like.extra", want: Filter{Column: "type", Value: "like.extra"}},
		{in: "user_id=7", wantErr: true},
		{in: "user_id", wantErr: true},
		{in: "=eq.7", wantErr: true},
		{in: "user_id=eq.", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestFilterMatches(t *testing.T) {
	change, err := NewChange("notifications", models.Notification{ID: 1, UserID: 7, Type: "like"}, "user_id")
	require.NoError(t, err)
	assert.Equal(t, EventInsert, change.Event)
	assert.Equal(t, "7", change.keys["user_id"])

	assert.True(t, Filter{}.Matches(change))
	assert.True(t, Eq("user_id", 7).Matches(change))
	assert.False(t, Eq("user_id", 8).Matches(change))
	// Columns that were not keyed fall back to the record body.
	assert.True(t, Eq("type", "like").Matches(change))
	assert.False(t, Eq("missing", "x").Matches(change))

	var n models.Notification
	require.NoError(t, change.Decode(&n))
	assert.Equal(t, uint(7), n.UserID)
}

func collect(t *testing.T) (Handler, <-chan Change) {
	t.Helper()
	ch := make(chan Change, 8)
	return func(c Change) { ch <- c }, ch
}

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func assertSilent(t *testing.T, ch <-chan Change) {
	t.Helper()
	select {
	case c := <-ch:
		t.Fatalf("unexpected change: %+v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLocalFeed_FilteredDelivery(t *testing.T) {
	feed := NewLocalFeed()
	defer func() { _ = feed.Close() }()
	ctx := context.Background()

	handler, got := collect(t)
	sub, err := feed.Subscribe(ctx, "notifications", Eq("user_id", 7), handler)
	require.NoError(t, err)

	other, err := NewChange("notifications", models.Notification{UserID: 8}, "user_id")
	require.NoError(t, err)
	mine, err := NewChange("notifications", models.Notification{UserID: 7, Message: "hi"}, "user_id")
	require.NoError(t, err)
	wrongTable, err := NewChange("posts", map[string]any{"user_id": 7}, "user_id")
	require.NoError(t, err)

	require.NoError(t, feed.Publish(ctx, other))
	require.NoError(t, feed.Publish(ctx, wrongTable))
	require.NoError(t, feed.Publish(ctx, mine))

	c := receive(t, got)
	var n models.Notification
	require.NoError(t, c.Decode(&n))
	assert.Equal(t, "hi", n.Message)
	assertSilent(t, got)

	require.NoError(t, sub.Unsubscribe())
}

func TestLocalFeed_HandlerPanicDoesNotStopSubscriber(t *testing.T) {
	feed := NewLocalFeed()
	defer func() { _ = feed.Close() }()
	ctx := context.Background()

	got := make(chan struct{}, 2)
	calls := 0
	_, err := feed.Subscribe(ctx, "likes", Filter{}, func(Change) {
		calls++
		got <- struct{}{}
		if calls == 1 {
			panic("boom")
		}
	})
	require.NoError(t, err)

	change, err := NewChange("likes", map[string]any{"post_id": 1})
	require.NoError(t, err)
	require.NoError(t, feed.Publish(ctx, change))
	require.NoError(t, feed.Publish(ctx, change))

	for i := 0; i < 2; i++ {
		select {
		case <-got:
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber stopped after panic")
		}
	}
}

func TestLocalFeed_SubscribeAfterClose(t *testing.T) {
	feed := NewLocalFeed()
	require.NoError(t, feed.Close())
	_, err := feed.Subscribe(context.Background(), "likes", Filter{}, func(Change) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRedisFeed_PublishSubscribe(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	feed := NewRedisFeed(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	filtered, filteredCh := collect(t)
	_, err = feed.Subscribe(ctx, "notifications", Eq("user_id", 7), filtered)
	require.NoError(t, err)
	all, allCh := collect(t)
	sub, err := feed.Subscribe(ctx, "notifications", Filter{}, all)
	require.NoError(t, err)

	change, err := NewChange("notifications", models.Notification{ID: 3, UserID: 7}, "user_id")
	require.NoError(t, err)
	require.NoError(t, feed.Publish(ctx, change))

	assert.Equal(t, "notifications", receive(t, filteredCh).Table)
	assert.Equal(t, EventInsert, receive(t, allCh).Event)

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, sub.Unsubscribe())
}

func TestNew_FallsBackToLocalWithoutRedis(t *testing.T) {
	feed, err := New(Options{Driver: DriverRedis})
	require.NoError(t, err)
	assert.Equal(t, DriverLocal, feed.Driver())

	_, err = New(Options{Driver: "kafka"})
	assert.Error(t, err)
}

func TestNATSSubject(t *testing.T) {
	assert.Equal(t, "realtime.notifications", natsSubject("notifications", Filter{}))
	assert.Equal(t, "realtime.notifications.user_id.7", natsSubject("notifications", Eq("user_id", 7)))
	assert.Equal(t, "realtime.posts.title.a_b_", natsSubject("posts", Eq("title", "a.b*")))
}

func TestWatchTables_PublishesCommittedInserts(t *testing.T) {
	db := testutil.SQLiteDB(t)
	feed := NewLocalFeed()
	defer func() { _ = feed.Close() }()
	require.NoError(t, WatchTables(db, feed, Watch{Table: "notifications", Columns: []string{"user_id"}}))

	handler, got := collect(t)
	_, err := feed.Subscribe(context.Background(), "notifications", Eq("user_id", 5), handler)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Notification{UserID: 4, Type: models.NotificationFollow}).Error)
	require.NoError(t, db.Create(&models.Notification{UserID: 5, Type: models.NotificationLike, Message: "liked"}).Error)
	// Unwatched tables are ignored.
	require.NoError(t, db.Create(&models.Feedback{UserID: 5, Type: models.FeedbackBug, Message: "x"}).Error)

	c := receive(t, got)
	var n models.Notification
	require.NoError(t, c.Decode(&n))
	assert.Equal(t, "liked", n.Message)
	assert.NotZero(t, n.ID)
	assert.False(t, c.CommitTimestamp.IsZero())
	assertSilent(t, got)
}
