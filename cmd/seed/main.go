// Command seed fills the database with a demo community.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"crwn/internal/bootstrap"
	"crwn/internal/config"
	"crwn/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of accounts to create")
	numStylists := flag.Int("stylists", defaults.NumStylists, "How many of the accounts are stylists")
	postsPerUser := flag.Int("posts", defaults.PostsPerUser, "Posts per account")
	followPct := flag.Int("follow", defaults.FollowPercent, "Chance in percent that one user follows another")
	likePct := flag.Int("like", defaults.LikePercent, "Chance in percent that a user likes a post")
	avatars := flag.Bool("avatars", defaults.Avatars, "Upload a generated avatar for every account")
	randSeed := flag.Int64("seed", 0, "Seed for reproducible data (0 is random)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users (%d stylists), %d posts each\n", *numUsers, *numStylists, *postsPerUser)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = rt.Close() }()

	summary, err := seed.NewSeeder(rt.Services, seed.Options{
		NumUsers:      *numUsers,
		NumStylists:   *numStylists,
		PostsPerUser:  *postsPerUser,
		FollowPercent: *followPct,
		LikePercent:   *likePct,
		Avatars:       *avatars,
		Seed:          *randSeed,
	}).Run(ctx)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✅ Created %d users, %d posts, %d follows, %d likes",
		summary.Users, summary.Posts, summary.Follows, summary.Likes)
	log.Printf("Every account signs in with password %q", seed.DefaultPassword)
}
