package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crwn/internal/mailer"
	"crwn/internal/models"
	"crwn/internal/remote"
	"crwn/internal/storage"
	"crwn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "service-test-secret-service-test-secret"

// recordingMailer collects sent messages.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	ch   chan mailer.Message
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{ch: make(chan mailer.Message, 16)}
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	m.ch <- msg
	return nil
}

// next waits for the next message sent in the background.
func (m *recordingMailer) next(t *testing.T) mailer.Message {
	t.Helper()
	select {
	case msg := <-m.ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no mail sent")
		return mailer.Message{}
	}
}

type fixture struct {
	rc      *remote.Client
	svc     *Services
	mail    *recordingMailer
	avatars *testutil.MemoryBucket
	media   *testutil.MemoryBucket
}

// newFixture wires the services over an in-memory database. Nil buckets get
// memory buckets that never fail.
func newFixture(t *testing.T, avatars, media *testutil.MemoryBucket) *fixture {
	t.Helper()
	if avatars == nil {
		avatars = testutil.NewMemoryBucket(storage.BucketAvatars)
	}
	if media == nil {
		media = testutil.NewMemoryBucket(storage.BucketPostMedia)
	}
	rc, err := remote.New(remote.Options{
		DB: testutil.SQLiteDB(t),
		Storage: storage.BucketSet{
			storage.BucketAvatars:   avatars,
			storage.BucketPostMedia: media,
		},
		JWTSecret:      testSecret,
		MaxUploadBytes: 5 << 20,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	mail := newRecordingMailer()
	return &fixture{
		rc:      rc,
		svc:     NewServices(rc, Options{Mailer: mail, SupportEmail: "support@crwn.test"}),
		mail:    mail,
		avatars: avatars,
		media:   media,
	}
}

// signUp creates an account and drains its welcome mail.
func (f *fixture) signUp(t *testing.T, email string) *SignUpOutput {
	t.Helper()
	out, err := f.svc.Auth.SignUp(context.Background(), SignUpInput{
		Email:    email,
		Password: "secret1",
		FullName: "Test User",
	}).Unwrap()
	require.NoError(t, err)
	f.mail.next(t)
	return out
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}
