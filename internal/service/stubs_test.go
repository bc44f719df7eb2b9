package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn           func(context.Context, *models.Post) error
	getByIDFn          func(context.Context, uint) (*models.Post, error)
	getByIDForAuthorFn func(context.Context, uint, uint) (*models.Post, error)
	countFn            func(context.Context, repository.PostFilter) (int64, error)
	listFn             func(context.Context, repository.PostFilter, int, int) ([]models.Post, error)
	updateEditableFn   func(context.Context, *models.Post) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetByIDForAuthor(ctx context.Context, id, authorID uint) (*models.Post, error) {
	return s.getByIDForAuthorFn(ctx, id, authorID)
}
func (s *postRepoStub) Count(ctx context.Context, filter repository.PostFilter) (int64, error) {
	return s.countFn(ctx, filter)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]models.Post, error) {
	return s.listFn(ctx, filter, limit, offset)
}
func (s *postRepoStub) UpdateEditable(ctx context.Context, post *models.Post) error {
	return s.updateEditableFn(ctx, post)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return nil, models.NewNotFoundError("Post", id) },
		getByIDForAuthorFn: func(_ context.Context, id, _ uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		},
		countFn:          func(_ context.Context, _ repository.PostFilter) (int64, error) { return 0, nil },
		listFn:           func(_ context.Context, _ repository.PostFilter, _, _ int) ([]models.Post, error) { return nil, nil },
		updateEditableFn: func(_ context.Context, _ *models.Post) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository backed by a map.
type userRepoStub struct {
	byName    map[string]*models.User
	createFn  func(context.Context, *models.User) error
	lookupErr error
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	for _, u := range s.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if u, ok := s.byName[username]; ok {
		return u, nil
	}
	return nil, models.NewNotFoundError("User", username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	user.ID = uint(len(s.byName) + 1)
	s.byName[user.Username] = user
	return nil
}

func usersStub(users ...*models.User) *userRepoStub {
	s := &userRepoStub{byName: map[string]*models.User{}}
	for _, u := range users {
		s.byName[u.Username] = u
	}
	return s
}

// groupRepoStub is a stub for repository.GroupRepository.
type groupRepoStub struct {
	groups []models.Group
	getErr error
}

func (s *groupRepoStub) GetByID(_ context.Context, id uint) (*models.Group, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for i := range s.groups {
		if s.groups[i].ID == id {
			return &s.groups[i], nil
		}
	}
	return nil, models.NewNotFoundError("Group", id)
}
func (s *groupRepoStub) GetBySlug(_ context.Context, slug string) (*models.Group, error) {
	for i := range s.groups {
		if s.groups[i].Slug == slug {
			return &s.groups[i], nil
		}
	}
	return nil, models.NewNotFoundError("Group", slug)
}
func (s *groupRepoStub) List(_ context.Context) ([]models.Group, error) {
	return s.groups, nil
}
func (s *groupRepoStub) Create(_ context.Context, g *models.Group) error {
	g.ID = uint(len(s.groups) + 1)
	s.groups = append(s.groups, *g)
	return nil
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	followFn   func(context.Context, uint, uint) (bool, error)
	unfollowFn func(context.Context, uint, uint) (bool, error)
	existsFn   func(context.Context, uint, uint) (bool, error)
}

func (s *followRepoStub) Follow(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.followFn(ctx, userID, authorID)
}
func (s *followRepoStub) Unfollow(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.unfollowFn(ctx, userID, authorID)
}
func (s *followRepoStub) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.existsFn(ctx, userID, authorID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		followFn:   func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unfollowFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		existsFn:   func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listByPostFn func(context.Context, uint) ([]models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		listByPostFn: func(_ context.Context, _ uint) ([]models.Comment, error) { return nil, nil },
	}
}

// memoryPageCache is an in-process cache.PageCache.
type memoryPageCache struct {
	entries       map[string][]byte
	gets, sets    int
	invalidations []string
	failGet       bool
}

func newMemoryPageCache() *memoryPageCache {
	return &memoryPageCache{entries: map[string][]byte{}}
}

func (c *memoryPageCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.gets++
	if c.failGet {
		return false, errors.New("cache unavailable")
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryPageCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryPageCache) Invalidate(_ context.Context, prefix string) error {
	c.invalidations = append(c.invalidations, prefix)
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

// imageStoreStub records saved uploads.
type imageStoreStub struct {
	saveFn func(context.Context, Upload) (string, error)
}

func (s *imageStoreStub) Save(ctx context.Context, in Upload) (string, error) {
	return s.saveFn(ctx, in)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertFieldError asserts that err carries msg on field.
func assertFieldError(t *testing.T, err error, field, msg string) {
	t.Helper()
	assertValidationError(t, err)
	fields, ok := models.AsFieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields[field], msg)
}
