package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type CommentService struct {
	comments repository.CommentRepository
}

func NewCommentService(comments repository.CommentRepository) *CommentService {
	return &CommentService{comments: comments}
}

// AddComment stores a comment by authorID under post.
func (s *CommentService) AddComment(ctx context.Context, post *models.Post, authorID uint, form CommentForm) (*models.Comment, error) {
	if errs := form.validate(); errs.Any() {
		return nil, models.NewFieldValidationError(errs)
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: authorID,
		Text:     form.Text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()
	return comment, nil
}
