package repository

import (
	"context"
	"fmt"
	"testing"

	"crwn/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProfile(t *testing.T, db *gorm.DB, id uint, userType string) *models.Profile {
	t.Helper()
	ctx := context.Background()
	user := &models.User{ID: id, Email: fmt.Sprintf("user%d@example.com", id), PasswordHash: "x"}
	require.NoError(t, NewUserRepository(db).Create(ctx, user))
	profile := &models.Profile{
		ID:       id,
		Email:    user.Email,
		Username: fmt.Sprintf("user%d", id),
		FullName: fmt.Sprintf("User %d", id),
		UserType: userType,
	}
	require.NoError(t, NewProfileRepository(db).Create(ctx, profile))
	return profile
}

func seedPost(t *testing.T, db *gorm.DB, userID uint, title string, public bool) *models.Post {
	t.Helper()
	post := &models.Post{UserID: userID, Title: title, Tags: []string{"curls"}, IsPublic: public}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), post))
	return post
}
