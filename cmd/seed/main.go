// Command seed fills the blog database with demo content.
package main

import (
	"context"
	"flag"
	"log"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	numGroups := flag.Int("groups", defaults.Groups, "Number of groups to create")
	numPosts := flag.Int("posts", defaults.Posts, "Number of posts to create")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	follows := flag.Int("follows", defaults.FollowsPerUser, "Authors followed by each user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Hash the shared password with the minimum bcrypt cost")
	randSeed := flag.Int64("seed", 0, "Seed for reproducible content (0 = random)")
	flag.Parse()

	log.Printf("Target: %d users, %d groups, %d posts, clean=%v", *numUsers, *numGroups, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := defaults
	opts.Users = *numUsers
	opts.Groups = *numGroups
	opts.Posts = *numPosts
	opts.CommentsPerPost = *comments
	opts.FollowsPerUser = *follows
	opts.Factory = seed.FactoryOptions{Seed: *randSeed, SkipBcrypt: *fast}

	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		log.Fatalf("Seeder setup failed: %v", err)
	}

	ctx := context.Background()
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	summary, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d groups, %d posts, %d comments, %d follows",
		summary.Users, summary.Groups, summary.Posts, summary.Comments, summary.Follows)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
