package seed

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"
	"yatube/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testOptions() Options {
	return Options{
		Users:           6,
		Groups:          2,
		Posts:           25,
		CommentsPerPost: 1,
		FollowsPerUser:  2,
		GroupRatio:      50,
		Factory:         FactoryOptions{Seed: 42, SkipBcrypt: true},
	}
}

func count(t *testing.T, s *Seeder, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Count(&n).Error)
	return n
}

func TestSeeder_Run(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s, err := NewSeeder(db, testOptions())
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Summary{Users: 6, Groups: 2, Posts: 25, Comments: 25, Follows: 12}, summary)

	assert.Equal(t, int64(6), count(t, s, &models.User{}))
	assert.Equal(t, int64(25), count(t, s, &models.Post{}))
	assert.Equal(t, int64(12), count(t, s, &models.Follow{}))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	for _, u := range users {
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
	}
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte(DefaultPassword)))

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).Where("user_id = author_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)
}

func TestSeeder_ClearAll(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s, err := NewSeeder(db, testOptions())
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(context.Background()))
	for _, model := range []any{&models.Follow{}, &models.Comment{}, &models.Post{}, &models.Group{}, &models.User{}} {
		assert.Zero(t, count(t, s, model))
	}
}

func TestSeeder_NoUsers(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	opts := testOptions()
	opts.Users = 0
	s, err := NewSeeder(db, opts)
	require.NoError(t, err)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Posts)
	assert.Equal(t, 2, summary.Groups)
}

func TestFactory_CreateFollowSkipsSelf(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f, err := NewFactory(db, FactoryOptions{Seed: 1, SkipBcrypt: true})
	require.NoError(t, err)
	u, err := f.CreateUser()
	require.NoError(t, err)

	require.NoError(t, f.CreateFollow(u, u))
	var n int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestFactory_UsernamesAreUnique(t *testing.T) {
	f, err := NewFactory(nil, FactoryOptions{Seed: 7, SkipBcrypt: true})
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		name := f.Username()
		assert.False(t, seen[name], name)
		seen[name] = true
	}
}
