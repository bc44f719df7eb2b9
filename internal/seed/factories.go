// Package seed provides helpers to create demo data for the blog database.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"yatube/internal/models"
	"yatube/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

var usernameJunk = regexp.MustCompile(`[^a-z0-9]`)

// FactoryOptions tune generated rows.
type FactoryOptions struct {
	// Seed makes the generated content reproducible. Zero picks a random seed.
	Seed int64
	// MaxDays spreads publication dates over the last MaxDays days.
	MaxDays int
	// SkipBcrypt stores a cheap hash; seeded users still log in with DefaultPassword.
	SkipBcrypt bool
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and by tests.
type Factory struct {
	db    *gorm.DB
	opts  FactoryOptions
	faker *gofakeit.Faker
	hash  string
	seq   int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts FactoryOptions) (*Factory, error) {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	// One hash is shared by every user; bcrypt per row dominates seeding time.
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), hash: string(hash)}, nil
}

// Username returns a fresh username that passes signup validation.
func (f *Factory) Username() string {
	f.seq++
	base := usernameJunk.ReplaceAllString(strings.ToLower(f.faker.Username()), "")
	if len(base) < 3 {
		base = "user"
	}
	if len(base) > 20 {
		base = base[:20]
	}
	name := fmt.Sprintf("%s%d", base, f.seq)
	if validation.ValidateUsername(name) != nil {
		name = fmt.Sprintf("user%d", f.seq)
	}
	return name
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:  f.Username(),
		Password:  f.hash,
		FirstName: f.faker.FirstName(),
		LastName:  f.faker.LastName(),
		Email:     f.faker.Email(),
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateGroup constructs and persists a sample group with a unique slug.
func (f *Factory) CreateGroup(overrides ...func(*models.Group)) (*models.Group, error) {
	f.seq++
	title := strings.TrimSpace(f.faker.HipsterWord() + " " + f.faker.Noun())
	group := &models.Group{
		Title:       title,
		Slug:        fmt.Sprintf("%s-%d", usernameJunk.ReplaceAllString(strings.ToLower(f.faker.Noun()), ""), f.seq),
		Description: f.faker.Sentence(12),
	}
	for _, override := range overrides {
		override(group)
	}

	if err := f.db.Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// BuildPost constructs a post by author without persisting it. group may be
// nil. Publication dates are spread over the last MaxDays days.
func (f *Factory) BuildPost(author *models.User, group *models.Group, overrides ...func(*models.Post)) *models.Post {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	post := &models.Post{
		Text:     f.faker.Paragraph(1, 3, 12, "\n"),
		AuthorID: author.ID,
		PubDate:  time.Now().Add(-back),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Omit("Author", "Group").CreateInBatches(posts, 100).Error
}

// CreateComment persists a sample comment by author on post.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Text:     f.faker.Sentence(10),
	}
	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.Omit("Post", "Author").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow makes user follow author. Self-follows are skipped.
func (f *Factory) CreateFollow(user, author *models.User) error {
	if user.ID == author.ID {
		return nil
	}
	follow := &models.Follow{UserID: user.ID, AuthorID: author.ID}
	return f.db.Omit("User", "Author").Create(follow).Error
}

// Pick returns a pseudo-random index below n.
func (f *Factory) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}
