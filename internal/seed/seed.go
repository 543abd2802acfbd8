package seed

import (
	"context"
	"fmt"
	"log/slog"

	"crwn/internal/models"
	"crwn/internal/observability"
	"crwn/internal/service"
)

// Options configures the seeder.
type Options struct {
	NumUsers     int
	NumStylists  int
	PostsPerUser int
	// FollowPercent and LikePercent are the chance that a user follows another
	// user or likes a post.
	FollowPercent int
	LikePercent   int
	// Avatars uploads a generated avatar for every account.
	Avatars bool
	// Seed makes a run reproducible. Zero is random.
	Seed int64
}

// DefaultOptions is a small but lively community.
func DefaultOptions() Options {
	return Options{
		NumUsers:      20,
		NumStylists:   4,
		PostsPerUser:  3,
		FollowPercent: 30,
		LikePercent:   25,
		Avatars:       true,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users   int
	Posts   int
	Follows int
	Likes   int
}

// Seeder creates demo data through the service layer.
type Seeder struct {
	svc     *service.Services
	factory *Factory
	opts    Options
}

func NewSeeder(svc *service.Services, opts Options) *Seeder {
	return &Seeder{svc: svc, factory: NewFactory(opts.Seed, nil), opts: opts}
}

// Run seeds accounts, then posts, then the follow and like graph.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	log := observability.GlobalLogger
	log.InfoContext(ctx, "seeding started",
		slog.Int("users", s.opts.NumUsers),
		slog.Int("stylists", s.opts.NumStylists),
	)

	sum := &Summary{}
	users, stylists, err := s.createUsers(ctx)
	if err != nil {
		return sum, fmt.Errorf("create users: %w", err)
	}
	sum.Users = len(users)

	posts, err := s.createPosts(ctx, users, stylists)
	if err != nil {
		return sum, fmt.Errorf("create posts: %w", err)
	}
	sum.Posts = len(posts)

	if sum.Follows, err = s.createFollows(ctx, users); err != nil {
		return sum, fmt.Errorf("create follows: %w", err)
	}
	if sum.Likes, err = s.createLikes(ctx, users, posts); err != nil {
		return sum, fmt.Errorf("create likes: %w", err)
	}

	log.InfoContext(ctx, "seeding completed",
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("follows", sum.Follows),
		slog.Int("likes", sum.Likes),
	)
	return sum, nil
}

func (s *Seeder) createUsers(ctx context.Context) (users []*models.Profile, stylists []uint, err error) {
	for i := 0; i < s.opts.NumUsers; i++ {
		userType := models.UserTypeExplorer
		if i < s.opts.NumStylists {
			userType = models.UserTypeStylist
		}

		out, err := s.svc.Auth.SignUp(ctx, s.factory.SignUp(i, userType)).Unwrap()
		if err != nil {
			return nil, nil, err
		}
		p := out.Profile

		updated, err := s.svc.Profiles.UpdateProfile(ctx, p.ID, service.UpdateProfileInput{
			FullName: p.FullName,
			Username: p.Username,
			Bio:      s.factory.Bio(p.IsStylist()),
			Location: p.Location,
		}).Unwrap()
		if err != nil {
			return nil, nil, err
		}

		if s.opts.Avatars {
			if res := s.svc.Profiles.UploadAvatar(ctx, p.ID, s.factory.Swatch(128, 128)); !res.IsOk() {
				return nil, nil, res.Err()
			}
		}

		users = append(users, updated)
		if updated.IsStylist() {
			stylists = append(stylists, updated.ID)
		}
	}
	return users, stylists, nil
}

func (s *Seeder) createPosts(ctx context.Context, users []*models.Profile, stylists []uint) ([]*models.Post, error) {
	var posts []*models.Post
	for _, u := range users {
		for i := 0; i < s.opts.PostsPerUser; i++ {
			var stylistID *uint
			if len(stylists) > 0 && !u.IsStylist() && s.factory.Chance(40) {
				id := stylists[s.factory.Intn(len(stylists))]
				stylistID = &id
			}
			post, err := s.svc.Posts.CreatePost(ctx, s.factory.Post(u.ID, stylistID)).Unwrap()
			if err != nil {
				return nil, err
			}
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (s *Seeder) createFollows(ctx context.Context, users []*models.Profile) (int, error) {
	n := 0
	for _, follower := range users {
		for _, target := range users {
			if follower.ID == target.ID {
				continue
			}
			// Everyone follows the stylists more often.
			chance := s.opts.FollowPercent
			if target.IsStylist() {
				chance *= 2
			}
			if !s.factory.Chance(chance) {
				continue
			}
			created, err := s.svc.Profiles.Follow(ctx, follower.ID, target.ID).Unwrap()
			if err != nil {
				return n, err
			}
			if created {
				n++
			}
		}
	}
	return n, nil
}

func (s *Seeder) createLikes(ctx context.Context, users []*models.Profile, posts []*models.Post) (int, error) {
	n := 0
	for _, u := range users {
		for _, p := range posts {
			if p.UserID == u.ID || !p.IsPublic || !s.factory.Chance(s.opts.LikePercent) {
				continue
			}
			created, err := s.svc.Posts.Like(ctx, u.ID, p.ID).Unwrap()
			if err != nil {
				return n, err
			}
			if created {
				n++
			}
		}
	}
	return n, nil
}
