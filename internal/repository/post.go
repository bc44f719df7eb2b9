package repository

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Nil fields do not filter.
type PostFilter struct {
	AuthorID *uint
	GroupID  *uint
	// FollowedBy keeps posts whose author the given user follows.
	FollowedBy *uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// GetByIDForAuthor finds post id only if authorID wrote it.
	GetByIDForAuthor(ctx context.Context, id, authorID uint) (*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error)
	// UpdateEditable persists text, group and image; author and pub date never change.
	UpdateEditable(ctx context.Context, post *models.Post) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return translate(r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error, "Post", post.AuthorID)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		return nil, translate(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) GetByIDForAuthor(ctx context.Context, id, authorID uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Where("posts.id = ? AND posts.author_id = ?", id, authorID).
		First(&post).Error
	if err != nil {
		return nil, translate(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) scoped(ctx context.Context, filter PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.AuthorID != nil {
		q = q.Where("posts.author_id = ?", *filter.AuthorID)
	}
	if filter.GroupID != nil {
		q = q.Where("posts.group_id = ?", *filter.GroupID)
	}
	if filter.FollowedBy != nil {
		followed := r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", *filter.FollowedBy)
		q = q.Where("posts.author_id IN (?)", followed)
	}
	return q
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "CountPosts", "posts")
	defer span.End()

	var n int64
	if err := r.scoped(ctx, filter).Count(&n).Error; err != nil {
		span.RecordError(err)
		return 0, translate(err, "Post", nil)
	}
	return n, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "ListPosts", "posts")
	defer span.End()

	var posts []models.Post
	err := r.scoped(ctx, filter).
		Preload("Author").
		Preload("Group").
		Order(models.PostOrdering).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		span.RecordError(err)
		return nil, translate(err, "Post", nil)
	}
	return posts, nil
}

func (r *postRepository) UpdateEditable(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]any{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		})
	if res.Error != nil {
		return translate(res.Error, "Post", post.ID)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}
