package repository

import (
	"context"
	"testing"
	"time"

	"crwn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	seedProfile(t, db, 1, models.UserTypeExplorer)
	actor := seedProfile(t, db, 2, models.UserTypeStylist)

	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: 1, Type: models.NotificationWelcome, Message: "Welcome"}))
	time.Sleep(10 * time.Millisecond)
	liked := &models.Notification{UserID: 1, ActorID: &actor.ID, Type: models.NotificationLike, Message: "liked your post"}
	require.NoError(t, repo.Create(ctx, liked))

	items, err := repo.ListForUser(ctx, 1, 50)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.NotificationLike, items[0].Type)
	require.NotNil(t, items[0].Actor)
	assert.Equal(t, "user2", items[0].Actor.Username)
	assert.Nil(t, items[1].Actor)

	err = repo.MarkAsRead(ctx, liked.ID, 2)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	require.NoError(t, repo.MarkAsRead(ctx, liked.ID, 1))

	items, err = repo.ListForUser(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsRead)
}

func TestSettingsRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	none, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, none)

	s := models.DefaultSettings(1)
	require.NoError(t, repo.Save(ctx, s))
	weekly := models.DefaultSettings(2)
	weekly.AffirmationFrequency = models.FrequencyWeekly
	require.NoError(t, repo.Save(ctx, weekly))

	s.Likes = false
	s.LanguageTone = models.ToneBold
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, got.Likes)
	assert.Equal(t, models.ToneBold, got.LanguageTone)

	daily, err := repo.ListAffirmationRecipients(ctx, models.FrequencyDaily)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, uint(1), daily[0].UserID)

	require.NoError(t, repo.CreateFeedback(ctx, &models.Feedback{UserID: 1, Type: models.FeedbackBug, Message: "crash"}))
}
