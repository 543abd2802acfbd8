package main

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"crwn/internal/bootstrap"
	"crwn/internal/remote"
	"crwn/internal/service"
	"crwn/internal/session"
	"crwn/internal/storage"
	"crwn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, script ...string) (*app, *bytes.Buffer) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir(), "http://localhost:8080/storage/v1/object/public")
	require.NoError(t, err)
	rc, err := remote.New(remote.Options{
		DB:             testutil.SQLiteDB(t),
		Storage:        store,
		JWTSecret:      "crwn-cli-test-secret-crwn-cli-test-secret",
		MaxUploadBytes: 1 << 20,
	})
	require.NoError(t, err)
	rt := &bootstrap.Runtime{Remote: rc, Services: service.NewServices(rc, service.Options{})}
	t.Cleanup(func() { _ = rt.Close() })

	holder := session.NewHolder(rc.Auth, &session.MemoryStore{})
	t.Cleanup(holder.Close)

	out := &bytes.Buffer{}
	return &app{
		rt:      rt,
		session: holder,
		in:      bufio.NewReader(strings.NewReader(strings.Join(script, "\n") + "\n")),
		out:     out,
	}, out
}

func TestRunOnboard_RetriesAfterFailedRegistration(t *testing.T) {
	a, out := newTestApp(t,
		"",                                    // welcome
		"1",                                   // explorer
		"Ama", "Owusu",                        // name
		"taken@crwn.test", "abcdef", "abcdef", // email
		"Accra, GA", // location
		"",          // hair intro
		"8",         // 4C
		"3",         // High
		"1", "",     // Hair growth, done
		// registration fails; back on the email step
		"ama@crwn.test", "abcdef", "abcdef",
		"", // keep location
		"",
		"8",
		"3",
		"",
	)
	ctx := context.Background()
	_, err := a.rt.Services.Auth.SignUp(ctx, service.SignUpInput{
		Email: "taken@crwn.test", Password: "secret1", FullName: "Taken", Username: "taken",
	}).Unwrap()
	require.NoError(t, err)

	require.NoError(t, runOnboard(ctx, a, nil))

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, "Could not create your account."))
	assert.Contains(t, text, "User already registered")
	assert.Contains(t, text, "Email [taken@crwn.test]")
	assert.Contains(t, text, "Creating your account...")
	assert.Contains(t, text, "Welcome to CRWN, Ama! You are signed in as ama@crwn.test.")

	current := a.session.Current()
	require.NotNil(t, current)
	require.NotNil(t, current.User)

	profile, err := a.rt.Services.Profiles.GetProfile(ctx, current.User.ID).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "Ama Owusu", profile.FullName)
	assert.Equal(t, "Accra, GA", profile.Location)
	require.NotNil(t, profile.HairProfile)
	assert.Equal(t, "4C", profile.HairProfile.HairType)
	assert.Equal(t, "High", profile.HairProfile.Porosity)
	assert.Equal(t, []string{"Hair growth"}, []string(profile.HairProfile.Goals))
}

func TestRunOnboard_QuitStopsWithoutAccount(t *testing.T) {
	a, _ := newTestApp(t, "", "2", "quit")

	err := runOnboard(context.Background(), a, nil)
	assert.ErrorIs(t, err, errQuit)
	assert.Nil(t, a.session.Current())
}
