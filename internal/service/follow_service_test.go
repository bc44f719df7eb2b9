package service

import (
	"context"
	"errors"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService_Follow(t *testing.T) {
	t.Parallel()
	users := usersStub(&models.User{ID: 1, Username: "leo"}, &models.User{ID: 2, Username: "anna"})

	tests := []struct {
		name         string
		userID       uint
		target       string
		followResult bool
		followErr    error
		wantCalls    int
		wantCode     string
	}{
		{name: "new follow", userID: 2, target: "leo", followResult: true, wantCalls: 1},
		{name: "repeat follow is a no-op", userID: 2, target: "leo", followResult: false, wantCalls: 1},
		{name: "self follow never touches the store", userID: 1, target: "leo", wantCalls: 0},
		{name: "unknown author", userID: 2, target: "ghost", wantCalls: 0, wantCode: models.CodeNotFound},
		{
			name: "store failure", userID: 2, target: "leo", wantCalls: 1,
			followErr: models.NewInternalError(errors.New("db down")), wantCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			follows := noopFollowRepo()
			calls := 0
			follows.followFn = func(_ context.Context, userID, authorID uint) (bool, error) {
				calls++
				assert.Equal(t, tt.userID, userID)
				assert.Equal(t, uint(1), authorID)
				return tt.followResult, tt.followErr
			}
			svc := NewFollowService(follows, users, noopPostRepo(), 10)

			author, err := svc.Follow(context.Background(), tt.userID, tt.target)
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantCode != "" {
				assert.True(t, models.HasCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "leo", author.Username)
		})
	}
}

func TestFollowService_Unfollow(t *testing.T) {
	t.Parallel()
	users := usersStub(&models.User{ID: 1, Username: "leo"})
	follows := noopFollowRepo()
	follows.unfollowFn = func(_ context.Context, _, _ uint) (bool, error) { return false, nil }
	svc := NewFollowService(follows, users, noopPostRepo(), 10)

	author, err := svc.Unfollow(context.Background(), 2, "leo")
	require.NoError(t, err, "unfollowing someone not followed is fine")
	assert.Equal(t, uint(1), author.ID)

	_, err = svc.Unfollow(context.Background(), 2, "ghost")
	assert.True(t, models.IsNotFound(err))
}

func TestFollowService_Feed(t *testing.T) {
	t.Parallel()
	posts := noopPostRepo()
	posts.countFn = func(_ context.Context, filter repository.PostFilter) (int64, error) {
		require.NotNil(t, filter.FollowedBy)
		assert.Equal(t, uint(5), *filter.FollowedBy)
		assert.Nil(t, filter.AuthorID)
		return 12, nil
	}
	posts.listFn = func(_ context.Context, _ repository.PostFilter, limit, offset int) ([]models.Post, error) {
		assert.Equal(t, 10, limit)
		assert.Equal(t, 10, offset)
		return fakePosts(2), nil
	}
	svc := NewFollowService(noopFollowRepo(), usersStub(), posts, 0)

	page, err := svc.Feed(context.Background(), 5, "7")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Number, "out of range lands on the last page")
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasNext)
}
