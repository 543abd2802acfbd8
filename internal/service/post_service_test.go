package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"crwn/internal/models"
	"crwn/internal/storage"
	"crwn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func images(t *testing.T, n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = testutil.TinyPNG(t, 20+i, 20)
	}
	return out
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{"empty title", CreatePostInput{UserID: 1, Title: "  ", Images: images(t, 1)}},
		{"title too long", CreatePostInput{UserID: 1, Title: strings.Repeat("x", 301), Images: images(t, 1)}},
		{"no images", CreatePostInput{UserID: 1, Title: "Twist out"}},
		{"too many images", CreatePostInput{UserID: 1, Title: "Twist out", Images: images(t, 11)}},
		{"not an image", CreatePostInput{UserID: 1, Title: "Twist out", Images: [][]byte{[]byte("plain text")}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertValidationError(t, f.svc.Posts.CreatePost(ctx, tc.input).Err())
		})
	}
	assert.Zero(t, f.media.Count())
}

func TestPostService_CreatePost(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	u := f.signUp(t, "poster@example.com")
	f.svc.Posts.now = func() time.Time { return time.UnixMilli(1700000000000) }

	post, err := f.svc.Posts.CreatePost(ctx, CreatePostInput{
		UserID:      u.Profile.ID,
		Title:       " Wash day results ",
		Description: "Deep conditioned for an hour.",
		Tags:        []string{"#Curls", "curls", " Wash Day "},
		Images:      images(t, 2),
	}).Unwrap()
	require.NoError(t, err)

	assert.Equal(t, "Wash day results", post.Title)
	assert.Equal(t, []string{"curls", "wash day"}, post.Tags)
	assert.True(t, post.IsPublic)
	require.Len(t, post.Media, 2)
	for i, m := range post.Media {
		want := fmt.Sprintf("%d/%d/1700000000000-%d.jpg", u.Profile.ID, post.ID, i)
		assert.Equal(t, i, m.Position)
		assert.Equal(t, "http://storage.test/post-media/"+want, m.MediaURL)
		assert.Contains(t, f.media.Objects, want)
	}

	got, err := f.svc.Posts.GetPost(ctx, post.ID, 0).Unwrap()
	require.NoError(t, err)
	require.Len(t, got.Media, 2)
	assert.Equal(t, 0, got.Media[0].Position)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "poster", got.Profile.Username)
}

func TestPostService_CreatePost_PartialUploadFailure(t *testing.T) {
	// The first JPEG succeeds; its WebP rendition and everything after fail.
	f := newFixture(t, nil, testutil.NewFailingBucket(storage.BucketPostMedia, 1))
	ctx := context.Background()
	u := f.signUp(t, "partial@example.com")

	err := f.svc.Posts.CreatePost(ctx, CreatePostInput{
		UserID: u.Profile.ID,
		Title:  "Three looks",
		Images: images(t, 3),
	}).Err()
	assertCode(t, err, models.CodeInternal)
	assert.ErrorIs(t, err, testutil.ErrUploadFailed)

	posts, err := f.svc.Posts.ListUserPosts(ctx, ListPostsInput{UserID: u.Profile.ID, ViewerID: u.Profile.ID}).Unwrap()
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Len(t, posts[0].Media, 1)
}

func TestPostService_PrivatePosts(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	owner := f.signUp(t, "owner@example.com")
	other := f.signUp(t, "other@example.com")

	post, err := f.svc.Posts.CreatePost(ctx, CreatePostInput{
		UserID:  owner.Profile.ID,
		Title:   "Just for me",
		Images:  images(t, 1),
		Private: true,
	}).Unwrap()
	require.NoError(t, err)

	assertCode(t, f.svc.Posts.GetPost(ctx, post.ID, other.Profile.ID).Err(), models.CodeNotFound)
	assert.True(t, f.svc.Posts.GetPost(ctx, post.ID, owner.Profile.ID).IsOk())

	feed, err := f.svc.Posts.ListPosts(ctx, ListPostsInput{ViewerID: other.Profile.ID}).Unwrap()
	require.NoError(t, err)
	assert.Empty(t, feed)

	mine, err := f.svc.Posts.ListPosts(ctx, ListPostsInput{UserID: owner.Profile.ID, ViewerID: owner.Profile.ID}).Unwrap()
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.svc.Posts.ListPosts(ctx, ListPostsInput{UserID: owner.Profile.ID, ViewerID: other.Profile.ID}).Unwrap()
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestPostService_DeletePost(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	owner := f.signUp(t, "owner@example.com")
	other := f.signUp(t, "other@example.com")

	post, err := f.svc.Posts.CreatePost(ctx, CreatePostInput{UserID: owner.Profile.ID, Title: "Braids", Images: images(t, 1)}).Unwrap()
	require.NoError(t, err)

	assertCode(t, f.svc.Posts.DeletePost(ctx, post.ID, other.Profile.ID).Err(), models.CodeForbidden)
	require.True(t, f.svc.Posts.DeletePost(ctx, post.ID, owner.Profile.ID).IsOk())
	assertCode(t, f.svc.Posts.GetPost(ctx, post.ID, owner.Profile.ID).Err(), models.CodeNotFound)
}

func TestPostService_LikeAndBookmark(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	owner := f.signUp(t, "owner@example.com")
	fan := f.signUp(t, "fan@example.com")

	post, err := f.svc.Posts.CreatePost(ctx, CreatePostInput{UserID: owner.Profile.ID, Title: "Silk press", Images: images(t, 1)}).Unwrap()
	require.NoError(t, err)

	// Liking your own post never notifies you.
	created, err := f.svc.Posts.Like(ctx, owner.Profile.ID, post.ID).Unwrap()
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.Posts.Like(ctx, fan.Profile.ID, post.ID).Unwrap()
	require.NoError(t, err)
	assert.True(t, created)
	created, err = f.svc.Posts.Like(ctx, fan.Profile.ID, post.ID).Unwrap()
	require.NoError(t, err)
	assert.False(t, created)

	liked, err := f.svc.Posts.HasLiked(ctx, fan.Profile.ID, post.ID).Unwrap()
	require.NoError(t, err)
	assert.True(t, liked)

	_, err = f.svc.Posts.Bookmark(ctx, fan.Profile.ID, post.ID).Unwrap()
	require.NoError(t, err)
	saved, err := f.svc.Posts.ListBookmarked(ctx, fan.Profile.ID, 0, 0).Unwrap()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, post.ID, saved[0].ID)

	notes := f.svc.Notifications.List(ctx, owner.Profile.ID, 0).Value()
	require.Len(t, notes, 3)
	assert.Equal(t, models.NotificationBookmark, notes[0].Type)
	assert.Equal(t, models.NotificationLike, notes[1].Type)
	assert.Equal(t, `Test User liked your post "Silk press"`, notes[1].Message)
	require.NotNil(t, notes[1].PostID)
	assert.Equal(t, post.ID, *notes[1].PostID)

	require.True(t, f.svc.Posts.Unlike(ctx, fan.Profile.ID, post.ID).IsOk())
	require.True(t, f.svc.Posts.RemoveBookmark(ctx, fan.Profile.ID, post.ID).IsOk())
	liked, err = f.svc.Posts.HasLiked(ctx, fan.Profile.ID, post.ID).Unwrap()
	require.NoError(t, err)
	assert.False(t, liked)
	saved, err = f.svc.Posts.ListBookmarked(ctx, fan.Profile.ID, 0, 0).Unwrap()
	require.NoError(t, err)
	assert.Empty(t, saved)

	assertCode(t, f.svc.Posts.Like(ctx, fan.Profile.ID, 404).Err(), models.CodeNotFound)
}

func TestPostService_LikeRespectsPreferences(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	owner := f.signUp(t, "quiet@example.com")
	fan := f.signUp(t, "fan@example.com")

	off := false
	require.True(t, f.svc.Settings.Update(ctx, owner.Profile.ID, SettingsPatch{Likes: &off}).IsOk())

	post, err := f.svc.Posts.CreatePost(ctx, CreatePostInput{UserID: owner.Profile.ID, Title: "Locs", Images: images(t, 1)}).Unwrap()
	require.NoError(t, err)
	_, err = f.svc.Posts.Like(ctx, fan.Profile.ID, post.ID).Unwrap()
	require.NoError(t, err)

	notes := f.svc.Notifications.List(ctx, owner.Profile.ID, 0).Value()
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationWelcome, notes[0].Type)
}
