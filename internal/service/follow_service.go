package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

// FollowService manages the follow graph and the personal feed.
type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	posts   repository.PostRepository
	perPage int
}

func NewFollowService(
	follows repository.FollowRepository,
	users repository.UserRepository,
	posts repository.PostRepository,
	perPage int,
) *FollowService {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &FollowService{follows: follows, users: users, posts: posts, perPage: perPage}
}

func outcome(changed bool) string {
	if changed {
		return "changed"
	}
	return "noop"
}

// Follow makes userID follow the author named username. Following oneself or
// an already followed author changes nothing.
func (s *FollowService) Follow(ctx context.Context, userID uint, username string) (*models.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == userID {
		observability.FollowChanges.WithLabelValues("follow", "noop").Inc()
		return author, nil
	}

	created, err := s.follows.Follow(ctx, userID, author.ID)
	if err != nil {
		return nil, err
	}
	observability.FollowChanges.WithLabelValues("follow", outcome(created)).Inc()
	return author, nil
}

// Unfollow removes the follow row if there is one.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, username string) (*models.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	removed, err := s.follows.Unfollow(ctx, userID, author.ID)
	if err != nil {
		return nil, err
	}
	observability.FollowChanges.WithLabelValues("unfollow", outcome(removed)).Inc()
	return author, nil
}

// Feed lists posts by the authors userID follows.
func (s *FollowService) Feed(ctx context.Context, userID uint, rawPage string) (*Page[models.Post], error) {
	filter := repository.PostFilter{FollowedBy: &userID}
	count, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	w := Paginate(count, s.perPage, ParsePageNumber(rawPage))
	items, err := s.posts.List(ctx, filter, w.Limit, w.Offset)
	if err != nil {
		return nil, err
	}
	return NewPage(w, items), nil
}
