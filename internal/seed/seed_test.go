package seed

import (
	"context"
	"strings"
	"testing"

	"crwn/internal/models"
	"crwn/internal/remote"
	"crwn/internal/service"
	"crwn/internal/storage"
	"crwn/internal/testutil"
	"crwn/internal/validation"
)

func newServices(t *testing.T) (*remote.Client, *testutil.MemoryBucket) {
	t.Helper()
	media := testutil.NewMemoryBucket(storage.BucketPostMedia)
	rc, err := remote.New(remote.Options{
		DB: testutil.SQLiteDB(t),
		Storage: storage.BucketSet{
			storage.BucketAvatars:   testutil.NewMemoryBucket(storage.BucketAvatars),
			storage.BucketPostMedia: media,
		},
		JWTSecret:      "seed-test-secret-0123456789abcdef",
		MaxUploadBytes: 5 << 20,
	})
	if err != nil {
		t.Fatalf("remote.New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, media
}

func TestFactory_SignUpIsValid(t *testing.T) {
	f := NewFactory(42, nil)
	for i := 0; i < 50; i++ {
		in := f.SignUp(i, models.UserTypeExplorer)
		if err := validation.ValidateEmail(in.Email); err != nil {
			t.Fatalf("email %q: %v", in.Email, err)
		}
		if !strings.HasSuffix(in.Email, "@crwn.test") {
			t.Fatalf("unexpected domain in %q", in.Email)
		}
		if len(in.Username) > validation.MaxUsername {
			t.Fatalf("username %q too long", in.Username)
		}
		if in.Password != DefaultPassword {
			t.Fatalf("password not defaulted")
		}
	}
}

func TestFactory_SameSeedSameData(t *testing.T) {
	a := NewFactory(7, nil).SignUp(0, models.UserTypeStylist)
	b := NewFactory(7, nil).SignUp(0, models.UserTypeStylist)
	if a.Email != b.Email || a.HairType != b.HairType {
		t.Fatalf("seeded factories diverged: %q vs %q", a.Email, b.Email)
	}
}

func TestFactory_PostWithinLimits(t *testing.T) {
	f := NewFactory(3, nil)
	for i := 0; i < 20; i++ {
		in := f.Post(1, nil)
		if n := len(in.Images); n < 1 || n > 3 {
			t.Fatalf("got %d images", n)
		}
		if strings.TrimSpace(in.Title) == "" {
			t.Fatalf("empty title")
		}
		if _, err := storage.NormalizeImage(in.Images[0], 0); err != nil {
			t.Fatalf("generated image rejected: %v", err)
		}
	}
}

func TestSeeder_Run(t *testing.T) {
	rc, media := newServices(t)
	svc := service.NewServices(rc, service.Options{})

	opts := Options{
		NumUsers:      5,
		NumStylists:   2,
		PostsPerUser:  2,
		FollowPercent: 100,
		LikePercent:   100,
		Seed:          11,
	}
	sum, err := NewSeeder(svc, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.Users != 5 || sum.Posts != 10 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	// FollowPercent 100 makes the graph complete.
	if sum.Follows != 5*4 {
		t.Fatalf("follows = %d, want 20", sum.Follows)
	}
	if sum.Likes == 0 {
		t.Fatalf("expected likes")
	}
	if media.Count() == 0 {
		t.Fatalf("expected uploaded post media")
	}

	var stylists int64
	if err := rc.DB.Model(&models.Profile{}).Where("user_type = ?", models.UserTypeStylist).Count(&stylists).Error; err != nil {
		t.Fatalf("count stylists: %v", err)
	}
	if stylists != 2 {
		t.Fatalf("stylists = %d, want 2", stylists)
	}

	var withBio int64
	if err := rc.DB.Model(&models.Profile{}).Where("bio <> ''").Count(&withBio).Error; err != nil {
		t.Fatalf("count bios: %v", err)
	}
	if withBio != 5 {
		t.Fatalf("profiles with bio = %d, want 5", withBio)
	}
}
