package seed

import (
	"context"
	"fmt"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	Users           int
	Groups          int
	Posts           int
	CommentsPerPost int
	FollowsPerUser  int
	// GroupRatio is the share of posts tagged with a group, in percent.
	GroupRatio int
	Factory    FactoryOptions
}

// DefaultOptions is a small but browsable data set.
func DefaultOptions() Options {
	return Options{
		Users:           20,
		Groups:          5,
		Posts:           150,
		CommentsPerPost: 2,
		FollowsPerUser:  4,
		GroupRatio:      60,
	}
}

// Summary counts the rows a run created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Seeder fills the database with demo content.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	factory, err := NewFactory(db, opts.Factory)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: opts, factory: factory}, nil
}

// ClearAll deletes every blog row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []any{&models.Follow{}, &models.Comment{}, &models.Post{}, &models.Group{}, &models.User{}}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// Run creates users, groups, posts, comments and follows in that order.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	f := s.factory

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return summary, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	summary.Users = len(users)

	groups := make([]*models.Group, 0, s.opts.Groups)
	for i := 0; i < s.opts.Groups; i++ {
		g, err := f.CreateGroup()
		if err != nil {
			return summary, fmt.Errorf("create group: %w", err)
		}
		groups = append(groups, g)
	}
	summary.Groups = len(groups)

	if len(users) == 0 {
		middleware.Logger.InfoContext(ctx, "seed finished without users; skipping posts")
		return summary, nil
	}

	posts := make([]*models.Post, 0, s.opts.Posts)
	for i := 0; i < s.opts.Posts; i++ {
		var group *models.Group
		if len(groups) > 0 && f.Pick(100) < s.opts.GroupRatio {
			group = groups[f.Pick(len(groups))]
		}
		posts = append(posts, f.BuildPost(users[f.Pick(len(users))], group))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return summary, fmt.Errorf("create posts: %w", err)
	}
	summary.Posts = len(posts)

	for _, post := range posts {
		for i := 0; i < s.opts.CommentsPerPost; i++ {
			if _, err := f.CreateComment(users[f.Pick(len(users))], post); err != nil {
				return summary, fmt.Errorf("create comment: %w", err)
			}
			summary.Comments++
		}
	}

	for i, user := range users {
		// Consecutive neighbours keep follows unique without a lookup.
		for step := 1; step <= s.opts.FollowsPerUser && step < len(users); step++ {
			author := users[(i+step)%len(users)]
			if err := f.CreateFollow(user, author); err != nil {
				return summary, fmt.Errorf("create follow: %w", err)
			}
			summary.Follows++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed finished",
		"users", summary.Users,
		"groups", summary.Groups,
		"posts", summary.Posts,
		"comments", summary.Comments,
		"follows", summary.Follows,
	)
	return summary, nil
}
