package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

// PostService serves every post listing and the post create/edit flows.
type PostService struct {
	posts     repository.PostRepository
	groups    repository.GroupRepository
	users     repository.UserRepository
	follows   repository.FollowRepository
	comments  repository.CommentRepository
	images    ImageStore
	pageCache cache.PageCache
	perPage   int
	cacheTTL  time.Duration
}

// PostServiceOptions tunes listing behavior.
type PostServiceOptions struct {
	PerPage       int
	IndexCacheTTL time.Duration
}

// ProfileView is the context of an author's profile page.
type ProfileView struct {
	Author    *models.User       `json:"author"`
	Page      *Page[models.Post] `json:"page"`
	PostCount int64              `json:"post_count"`
	Following bool               `json:"following"`
}

// PostView is the context of a single post page. Count is the author's
// total number of posts, not the number of comments.
type PostView struct {
	Post     *models.Post     `json:"post"`
	Author   *models.User     `json:"author"`
	Count    int64            `json:"count"`
	Comments []models.Comment `json:"comments"`
}

func NewPostService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	comments repository.CommentRepository,
	images ImageStore,
	pageCache cache.PageCache,
	opts PostServiceOptions,
) *PostService {
	if pageCache == nil {
		pageCache = cache.NopPageCache{}
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	return &PostService{
		posts:     posts,
		groups:    groups,
		users:     users,
		follows:   follows,
		comments:  comments,
		images:    images,
		pageCache: pageCache,
		perPage:   opts.PerPage,
		cacheTTL:  opts.IndexCacheTTL,
	}
}

// PostPath is the URL of a single post page.
func PostPath(username string, postID uint) string {
	return fmt.Sprintf("/%s/%d/", url.PathEscape(username), postID)
}

// ProfilePath is the URL of an author's profile page.
func ProfilePath(username string) string {
	return "/" + url.PathEscape(username) + "/"
}

func (s *PostService) listPage(ctx context.Context, filter repository.PostFilter, requested int) (*Page[models.Post], error) {
	count, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	w := Paginate(count, s.perPage, requested)
	items, err := s.posts.List(ctx, filter, w.Limit, w.Offset)
	if err != nil {
		return nil, err
	}
	return NewPage(w, items), nil
}

// Index lists every post, read through the page cache.
func (s *PostService) Index(ctx context.Context, rawPage string) (*Page[models.Post], error) {
	requested := ParsePageNumber(rawPage)
	key := cache.IndexPageKey(requested)

	var cached Page[models.Post]
	hit, err := s.pageCache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		observability.PageCacheLookups.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "Index page cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	case hit:
		observability.PageCacheLookups.WithLabelValues("hit").Inc()
		return &cached, nil
	default:
		observability.PageCacheLookups.WithLabelValues("miss").Inc()
	}

	page, err := s.listPage(ctx, repository.PostFilter{}, requested)
	if err != nil {
		return nil, err
	}
	if s.cacheTTL > 0 {
		if err := s.pageCache.Set(ctx, key, page, s.cacheTTL); err != nil {
			middleware.Logger.WarnContext(ctx, "Index page cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return page, nil
}

func (s *PostService) invalidateIndex(ctx context.Context) {
	if err := s.pageCache.Invalidate(ctx, cache.IndexPrefix); err != nil {
		middleware.Logger.WarnContext(ctx, "Index page cache invalidation failed", slog.String("error", err.Error()))
	}
}

// GroupPosts lists the posts of the group with slug.
func (s *PostService) GroupPosts(ctx context.Context, slug, rawPage string) (*models.Group, *Page[models.Post], error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	page, err := s.listPage(ctx, repository.PostFilter{GroupID: &group.ID}, ParsePageNumber(rawPage))
	if err != nil {
		return nil, nil, err
	}
	return group, page, nil
}

// Groups returns the choices of the group select.
func (s *PostService) Groups(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

// Profile lists an author's posts. Anonymous viewers pass requesterID 0.
func (s *PostService) Profile(ctx context.Context, username string, requesterID uint, rawPage string) (*ProfileView, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	page, err := s.listPage(ctx, repository.PostFilter{AuthorID: &author.ID}, ParsePageNumber(rawPage))
	if err != nil {
		return nil, err
	}

	following := false
	if requesterID != 0 {
		following, err = s.follows.Exists(ctx, requesterID, author.ID)
		if err != nil {
			return nil, err
		}
	}

	return &ProfileView{
		Author:    author,
		Page:      page,
		PostCount: page.Count,
		Following: following,
	}, nil
}

// ResolvePost finds post postID written by username. Any mismatch is NotFound.
func (s *PostService) ResolvePost(ctx context.Context, username string, postID uint) (*models.Post, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.posts.GetByIDForAuthor(ctx, postID, author.ID)
}

// PostDetail loads a post with its comments and the author's post count.
func (s *PostService) PostDetail(ctx context.Context, username string, postID uint) (*PostView, error) {
	post, err := s.ResolvePost(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: &post.AuthorID})
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return &PostView{
		Post:     post,
		Author:   &post.Author,
		Count:    count,
		Comments: comments,
	}, nil
}

// clean validates form and resolves its group and image. Field problems are
// returned together as one validation error.
func (s *PostService) clean(ctx context.Context, form PostForm) (groupID *uint, image string, err error) {
	errs := models.FieldErrors{}

	if strings.TrimSpace(form.Text) == "" {
		errs.Add("text", MsgRequired)
	}

	groupID, ok := form.groupID()
	if !ok {
		errs.Add("group", MsgInvalidChoice)
	} else if groupID != nil {
		if _, gerr := s.groups.GetByID(ctx, *groupID); gerr != nil {
			if !models.IsNotFound(gerr) {
				return nil, "", gerr
			}
			errs.Add("group", MsgInvalidChoice)
			groupID = nil
		}
	}

	if errs.Any() {
		return nil, "", models.NewFieldValidationError(errs)
	}

	if form.Image != nil && len(form.Image.Content) > 0 {
		if s.images == nil {
			return nil, "", models.NewInternalError(errors.New("image storage not configured"))
		}
		image, err = s.images.Save(ctx, *form.Image)
		if err != nil {
			return nil, "", err
		}
	}
	return groupID, image, nil
}

// CreatePost validates form and stores a post by authorID.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, form PostForm) (*models.Post, error) {
	groupID, image, err := s.clean(ctx, form)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     form.Text,
		AuthorID: authorID,
		GroupID:  groupID,
		Image:    image,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	observability.PostsCreated.Inc()
	s.invalidateIndex(ctx)
	return post, nil
}

// EditPost applies form to post. Only text, group and image change.
func (s *PostService) EditPost(ctx context.Context, post *models.Post, form PostForm) error {
	groupID, image, err := s.clean(ctx, form)
	if err != nil {
		return err
	}

	updated := *post
	updated.Text = form.Text
	updated.GroupID = groupID
	switch {
	case image != "":
		updated.Image = image
	case form.ClearImage:
		updated.Image = ""
	}

	if err := s.posts.UpdateEditable(ctx, &updated); err != nil {
		return err
	}
	post.Text = updated.Text
	post.GroupID = updated.GroupID
	post.Group = nil
	post.Image = updated.Image

	observability.PostsEdited.Inc()
	s.invalidateIndex(ctx)
	return nil
}
