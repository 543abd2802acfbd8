package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"crwn/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{UserID: 1, Title: "Wash day", IsPublic: true}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, post)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListPublicWithDetails(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	seedProfile(t, db, 1, models.UserTypeExplorer)
	stylist := seedProfile(t, db, 2, models.UserTypeStylist)

	older := seedPost(t, db, 1, "older", true)
	seedPost(t, db, 1, "hidden", false)
	time.Sleep(10 * time.Millisecond)
	newer := &models.Post{UserID: 1, StylistID: &stylist.ID, Title: "newer", IsPublic: true}
	require.NoError(t, repo.Create(ctx, newer))

	for i, url := range []string{"b.jpg", "a.jpg"} {
		require.NoError(t, repo.CreateMedia(ctx, &models.PostMedia{PostID: newer.ID, MediaURL: url, MediaType: "image", Position: 1 - i}))
	}

	liked, err := repo.Like(ctx, 2, newer.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	posts, err := repo.ListPublic(ctx, 20, 0, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, newer.ID, posts[0].ID)
	assert.Equal(t, older.ID, posts[1].ID)
	assert.Equal(t, 1, posts[0].LikesCount)
	assert.True(t, posts[0].Liked)
	assert.False(t, posts[1].Liked)
	require.NotNil(t, posts[0].Profile)
	assert.Equal(t, "user1", posts[0].Profile.Username)
	require.NotNil(t, posts[0].Stylist)
	assert.Equal(t, "user2", posts[0].Stylist.Username)
	require.Len(t, posts[0].Media, 2)
	assert.Equal(t, "a.jpg", posts[0].Media[0].MediaURL)
	assert.Equal(t, []string{"curls"}, posts[1].Tags)
}

func TestPostRepository_ListByUser_Empty(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	seedProfile(t, db, 1, models.UserTypeExplorer)

	posts, err := repo.ListByUser(context.Background(), 1, 20, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostRepository_ListByUser_PrivateVisibleToOwner(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	seedProfile(t, db, 1, models.UserTypeExplorer)
	seedPost(t, db, 1, "mine", false)

	own, err := repo.ListByUser(ctx, 1, 20, 0, 1)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	others, err := repo.ListByUser(ctx, 1, 20, 0, 2)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestPostRepository_LikeIsIdempotent(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	seedProfile(t, db, 1, models.UserTypeExplorer)
	post := seedPost(t, db, 1, "p", true)

	first, err := repo.Like(ctx, 1, post.ID)
	require.NoError(t, err)
	second, err := repo.Like(ctx, 1, post.ID)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	ok, err := repo.IsLiked(ctx, 1, post.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Unlike(ctx, 1, post.ID))
	ok, err = repo.IsLiked(ctx, 1, post.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostRepository_Bookmarks(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	seedProfile(t, db, 1, models.UserTypeExplorer)
	seedProfile(t, db, 2, models.UserTypeExplorer)
	post := seedPost(t, db, 1, "save me", true)
	seedPost(t, db, 1, "not saved", true)

	created, err := repo.Bookmark(ctx, 2, post.ID)
	require.NoError(t, err)
	assert.True(t, created)

	saved, err := repo.ListBookmarked(ctx, 2, 20, 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, post.ID, saved[0].ID)
	assert.True(t, saved[0].Bookmarked)
	assert.Equal(t, 1, saved[0].BookmarksCount)

	require.NoError(t, repo.RemoveBookmark(ctx, 2, post.ID))
	ok, err := repo.IsBookmarked(ctx, 2, post.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostRepository_Delete(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	seedProfile(t, db, 1, models.UserTypeExplorer)
	post := seedPost(t, db, 1, "bye", true)

	err := repo.Delete(ctx, post.ID, 2)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	require.NoError(t, repo.Delete(ctx, post.ID, 1))
	_, err = repo.GetByID(ctx, post.ID, 0)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
