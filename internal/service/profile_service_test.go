package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"crwn/internal/models"
	"crwn/internal/storage"
	"crwn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_UpdateProfile(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	ada := f.signUp(t, "ada@example.com")
	f.signUp(t, "taken@example.com")

	tests := []struct {
		name string
		in   UpdateProfileInput
		code string
	}{
		{"missing full name", UpdateProfileInput{Username: "ada"}, models.CodeValidation},
		{"missing username", UpdateProfileInput{FullName: "Ada", Username: "  "}, models.CodeValidation},
		{"invalid username", UpdateProfileInput{FullName: "Ada", Username: "a!"}, models.CodeValidation},
		{"bio too long", UpdateProfileInput{FullName: "Ada", Username: "ada", Bio: strings.Repeat("b", 501)}, models.CodeValidation},
		{"username taken", UpdateProfileInput{FullName: "Ada", Username: "Taken"}, models.CodeConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := f.svc.Profiles.UpdateProfile(ctx, ada.Profile.ID, tc.in).Err()
			assertCode(t, err, tc.code)
		})
	}

	updated, err := f.svc.Profiles.UpdateProfile(ctx, ada.Profile.ID, UpdateProfileInput{
		FullName: "Ada King",
		Username: "  AdaKing ",
		Bio:      "Wash day every Sunday.",
	}).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "adaking", updated.Username)
	assert.Equal(t, "Ada King", updated.FullName)
	assert.Equal(t, "Wash day every Sunday.", updated.Bio)
}

func TestProfileService_UpdateHairProfile(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	u := f.signUp(t, "hair@example.com")

	assertValidationError(t, f.svc.Profiles.UpdateHairProfile(ctx, u.Profile.ID, HairProfileInput{HairType: "9Z"}).Err())
	assertValidationError(t, f.svc.Profiles.UpdateHairProfile(ctx, u.Profile.ID, HairProfileInput{Porosity: "low"}).Err())
	assertValidationError(t, f.svc.Profiles.UpdateHairProfile(ctx, u.Profile.ID, HairProfileInput{Goals: []string{"Fly"}}).Err())

	hp, err := f.svc.Profiles.UpdateHairProfile(ctx, u.Profile.ID, HairProfileInput{
		HairType: "3B",
		Porosity: "Medium",
		Goals:    []string{"Length retention"},
	}).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "3B", hp.HairType)

	hp, err = f.svc.Profiles.UpdateHairProfile(ctx, u.Profile.ID, HairProfileInput{HairType: "4A"}).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "4A", hp.HairType)
	assert.Empty(t, hp.Porosity)
}

func TestProfileService_UploadAvatar(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	u := f.signUp(t, "avatar@example.com")
	f.svc.Profiles.now = func() time.Time { return time.UnixMilli(1700000000000) }

	url, err := f.svc.Profiles.UploadAvatar(ctx, u.Profile.ID, testutil.TinyPNG(t, 64, 64)).Unwrap()
	require.NoError(t, err)

	wantPath := "1-1700000000000.jpg"
	assert.Equal(t, "http://storage.test/avatars/"+wantPath, url)
	assert.Contains(t, f.avatars.Objects, wantPath)
	assert.Contains(t, f.avatars.Objects, storage.WebPSibling(wantPath))

	p, err := f.rc.Profiles.GetByID(ctx, u.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, url, p.AvatarURL)
}

func TestProfileService_UploadAvatar_FailureKeepsAvatar(t *testing.T) {
	f := newFixture(t, testutil.NewFailingBucket(storage.BucketAvatars, 0), nil)
	ctx := context.Background()
	u := f.signUp(t, "keep@example.com")
	const previous = "http://storage.test/avatars/old.jpg"
	require.NoError(t, f.rc.Profiles.Update(ctx, u.Profile.ID, map[string]interface{}{"avatar_url": previous}))

	err := f.svc.Profiles.UploadAvatar(ctx, u.Profile.ID, testutil.TinyPNG(t, 32, 32)).Err()
	assertCode(t, err, models.CodeInternal)
	assert.ErrorIs(t, err, testutil.ErrUploadFailed)

	p, err := f.rc.Profiles.GetByID(ctx, u.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, previous, p.AvatarURL)
}

func TestProfileService_UploadAvatar_RejectsBadImage(t *testing.T) {
	f := newFixture(t, nil, nil)
	u := f.signUp(t, "bad@example.com")

	err := f.svc.Profiles.UploadAvatar(context.Background(), u.Profile.ID, []byte("not an image")).Err()
	assertValidationError(t, err)
	assert.Zero(t, f.avatars.Count())
}

func TestProfileService_Follow(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	ada := f.signUp(t, "ada@example.com")
	bo := f.signUp(t, "bo@example.com")

	assertValidationError(t, f.svc.Profiles.Follow(ctx, ada.Profile.ID, ada.Profile.ID).Err())
	assertCode(t, f.svc.Profiles.Follow(ctx, ada.Profile.ID, 999).Err(), models.CodeNotFound)

	created, err := f.svc.Profiles.Follow(ctx, ada.Profile.ID, bo.Profile.ID).Unwrap()
	require.NoError(t, err)
	assert.True(t, created)
	created, err = f.svc.Profiles.Follow(ctx, ada.Profile.ID, bo.Profile.ID).Unwrap()
	require.NoError(t, err)
	assert.False(t, created)

	notes := f.svc.Notifications.List(ctx, bo.Profile.ID, 10).Value()
	require.Len(t, notes, 2)
	assert.Equal(t, models.NotificationFollow, notes[0].Type)
	assert.Equal(t, "Test User started following you", notes[0].Message)

	following, err := f.svc.Profiles.IsFollowing(ctx, ada.Profile.ID, bo.Profile.ID).Unwrap()
	require.NoError(t, err)
	assert.True(t, following)

	profile, err := f.svc.Profiles.GetProfile(ctx, bo.Profile.ID).Unwrap()
	require.NoError(t, err)
	assert.EqualValues(t, 1, profile.FollowersCount)

	require.True(t, f.svc.Profiles.Unfollow(ctx, ada.Profile.ID, bo.Profile.ID).IsOk())
	following, err = f.svc.Profiles.IsFollowing(ctx, ada.Profile.ID, bo.Profile.ID).Unwrap()
	require.NoError(t, err)
	assert.False(t, following)
}

func TestProfileService_ListStylists(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	f.signUp(t, "explorer@example.com")
	_, err := f.svc.Auth.SignUp(ctx, SignUpInput{
		Email:    "stylist@example.com",
		Password: "secret1",
		UserType: models.UserTypeStylist,
	}).Unwrap()
	require.NoError(t, err)

	stylists, err := f.svc.Profiles.ListStylists(ctx, 0, 0).Unwrap()
	require.NoError(t, err)
	require.Len(t, stylists, 1)
	assert.Equal(t, "stylist", stylists[0].Username)
}
