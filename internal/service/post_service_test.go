package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"yatube/internal/cache"
	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postServiceFixture struct {
	posts    *postRepoStub
	groups   *groupRepoStub
	users    *userRepoStub
	follows  *followRepoStub
	comments *commentRepoStub
	images   *imageStoreStub
	cache    *memoryPageCache
}

func newPostServiceFixture() *postServiceFixture {
	return &postServiceFixture{
		posts:    noopPostRepo(),
		groups:   &groupRepoStub{groups: []models.Group{{ID: 3, Title: "Cats", Slug: "cats"}}},
		users:    usersStub(&models.User{ID: 1, Username: "leo"}, &models.User{ID: 2, Username: "anna"}),
		follows:  noopFollowRepo(),
		comments: noopCommentRepo(),
		images: &imageStoreStub{saveFn: func(_ context.Context, _ Upload) (string, error) {
			return "posts/stored.png", nil
		}},
		cache: newMemoryPageCache(),
	}
}

func (f *postServiceFixture) service() *PostService {
	return NewPostService(f.posts, f.groups, f.users, f.follows, f.comments, f.images, f.cache,
		PostServiceOptions{PerPage: 10, IndexCacheTTL: 20 * time.Second})
}

func fakePosts(n int) []models.Post {
	out := make([]models.Post, n)
	for i := range out {
		out[i] = models.Post{ID: uint(n - i), Text: "post", AuthorID: 1}
	}
	return out
}

func TestPostService_IndexReadsThroughCache(t *testing.T) {
	t.Parallel()
	f := newPostServiceFixture()
	listCalls := 0
	f.posts.countFn = func(_ context.Context, _ repository.PostFilter) (int64, error) { return 11, nil }
	f.posts.listFn = func(_ context.Context, filter repository.PostFilter, limit, offset int) ([]models.Post, error) {
		listCalls++
		assert.Equal(t, repository.PostFilter{}, filter)
		assert.Equal(t, 10, limit)
		assert.Equal(t, 10, offset)
		return fakePosts(1), nil
	}
	svc := f.service()
	ctx := context.Background()

	page, err := svc.Index(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, int64(11), page.Count)

	again, err := svc.Index(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, page.Items[0].ID, again.Items[0].ID)
	assert.Equal(t, 1, listCalls, "second read served from cache")
	assert.Contains(t, f.cache.entries, cache.IndexPageKey(2))
}

func TestPostService_IndexCacheFailureFallsBack(t *testing.T) {
	t.Parallel()
	f := newPostServiceFixture()
	f.cache.failGet = true
	f.posts.countFn = func(_ context.Context, _ repository.PostFilter) (int64, error) { return 3, nil }
	f.posts.listFn = func(_ context.Context, _ repository.PostFilter, _, _ int) ([]models.Post, error) {
		return fakePosts(3), nil
	}

	page, err := f.service().Index(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
}

func TestPostService_IndexStoreFailure(t *testing.T) {
	t.Parallel()
	f := newPostServiceFixture()
	f.posts.countFn = func(_ context.Context, _ repository.PostFilter) (int64, error) {
		return 0, models.NewInternalError(errors.New("db down"))
	}

	_, err := f.service().Index(context.Background(), "1")
	assert.True(t, models.HasCode(err, models.CodeInternal))
	assert.Empty(t, f.cache.entries)
}

func TestPostService_GroupPosts(t *testing.T) {
	t.Parallel()
	f := newPostServiceFixture()
	f.posts.countFn = func(_ context.Context, filter repository.PostFilter) (int64, error) {
		require.NotNil(t, filter.GroupID)
		assert.Equal(t, uint(3), *filter.GroupID)
		return 1, nil
	}
	f.posts.listFn = func(_ context.Context, _ repository.PostFilter, _, _ int) ([]models.Post, error) {
		return fakePosts(1), nil
	}
	svc := f.service()

	group, page, err := svc.GroupPosts(context.Background(), "cats", "x")
	require.NoError(t, err)
	assert.Equal(t, "Cats", group.Title)
	assert.Equal(t, 1, page.Number)

	_, _, err = svc.GroupPosts(context.Background(), "dogs", "")
	assert.True(t, models.IsNotFound(err))
}

func TestPostService_Profile(t *testing.T) {
	t.Parallel()
	f := newPostServiceFixture()
	f.posts.countFn = func(_ context.Context, filter repository.PostFilter) (int64, error) {
		require.NotNil(t, filter.AuthorID)
		return 14, nil
	}
	f.posts.listFn = func(_ context.Context, _ repository.PostFilter, _, offset int) ([]models.Post, error) {
		return fakePosts(14 - offset)[:min(10, 14-offset)], nil
	}
	existsCalls := 0
	f.follows.existsFn = func(_ context.Context, userID, authorID uint) (bool, error) {
		existsCalls++
		return userID == 2 && authorID == 1, nil
	}
	svc := f.service()
	ctx := context.Background()

	tests := []struct {
		name          string
		requester     uint
		wantFollowing bool
	}{
		{"anonymous", 0, false},
		{"follower", 2, true},
		{"author", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.Profile(ctx, "leo", tt.requester, "2")
			require.NoError(t, err)
			assert.Equal(t, "leo", view.Author.Username)
			assert.Equal(t, int64(14), view.PostCount)
			assert.Equal(t, tt.wantFollowing, view.Following)
			assert.Len(t, view.Page.Items, 4)
		})
	}
	assert.Equal(t, 2, existsCalls, "anonymous never queries follows")

	_, err := svc.Profile(ctx, "ghost", 0, "")
	assert.True(t, models.IsNotFound(err))
}

func TestPostService_PostDetail(t *testing.T) {
	t.Parallel()
	f := newPostServiceFixture()
	f.posts.getByIDForAuthorFn = func(_ context.Context, id, authorID uint) (*models.Post, error) {
		if id == 7 && authorID == 1 {
			return &models.Post{ID: 7, AuthorID: 1, Author: models.User{ID: 1, Username: "leo"}, Text: "hi"}, nil
		}
		return nil, models.NewNotFoundError("Post", id)
	}
	f.posts.countFn = func(_ context.Context, filter repository.PostFilter) (int64, error) {
		require.NotNil(t, filter.AuthorID)
		assert.Equal(t, uint(1), *filter.AuthorID)
		return 5, nil
	}
	f.comments.listByPostFn = func(_ context.Context, postID uint) ([]models.Comment, error) {
		return []models.Comment{{ID: 1, PostID: postID, Text: "c"}}, nil
	}
	svc := f.service()
	ctx := context.Background()

	view, err := svc.PostDetail(ctx, "leo", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(5), view.Count, "count is the author's post count")
	assert.Len(t, view.Comments, 1)
	assert.Equal(t, "leo", view.Author.Username)

	_, err = svc.PostDetail(ctx, "anna", 7)
	assert.True(t, models.IsNotFound(err), "post under another author is not found")

	_, err = svc.PostDetail(ctx, "ghost", 7)
	assert.True(t, models.IsNotFound(err))
}

func TestPostService_CreatePost(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		form       PostForm
		wantField  string
		wantMsg    string
		wantGroup  *uint
		wantImage  string
		imageError error
	}{
		{name: "text only", form: PostForm{Text: "hello"}},
		{name: "with group", form: PostForm{Text: "hello", Group: "3"}, wantGroup: func() *uint { v := uint(3); return &v }()},
		{name: "with image", form: PostForm{Text: "hello", Image: &Upload{Content: []byte("png")}}, wantImage: "posts/stored.png"},
		{name: "blank text", form: PostForm{Text: "   "}, wantField: "text", wantMsg: MsgRequired},
		{name: "unknown group", form: PostForm{Text: "hello", Group: "99"}, wantField: "group", wantMsg: MsgInvalidChoice},
		{name: "malformed group", form: PostForm{Text: "hello", Group: "cats"}, wantField: "group", wantMsg: MsgInvalidChoice},
		{
			name:       "bad image",
			form:       PostForm{Text: "hello", Image: &Upload{Content: []byte("nope")}},
			imageError: imageFieldError(MsgInvalidImage),
			wantField:  "image",
			wantMsg:    MsgInvalidImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPostServiceFixture()
			var created *models.Post
			f.posts.createFn = func(_ context.Context, p *models.Post) error {
				p.ID = 42
				created = p
				return nil
			}
			if tt.imageError != nil {
				f.images.saveFn = func(_ context.Context, _ Upload) (string, error) { return "", tt.imageError }
			}
			require.NoError(t, f.cache.Set(context.Background(), cache.IndexPageKey(1), "stale", time.Minute))

			post, err := f.service().CreatePost(context.Background(), 1, tt.form)
			if tt.wantField != "" {
				assertFieldError(t, err, tt.wantField, tt.wantMsg)
				assert.Nil(t, created, "nothing persisted")
				assert.Contains(t, f.cache.entries, cache.IndexPageKey(1), "cache untouched")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(42), post.ID)
			assert.Equal(t, uint(1), created.AuthorID)
			assert.Equal(t, tt.wantGroup, created.GroupID)
			assert.Equal(t, tt.wantImage, created.Image)
			assert.Equal(t, []string{cache.IndexPrefix}, f.cache.invalidations)
			assert.Empty(t, f.cache.entries)
		})
	}
}

func TestPostService_CreatePostGroupLookupFailure(t *testing.T) {
	t.Parallel()
	f := newPostServiceFixture()
	f.groups.getErr = models.NewInternalError(errors.New("db down"))

	_, err := f.service().CreatePost(context.Background(), 1, PostForm{Text: "hi", Group: "3"})
	assert.True(t, models.HasCode(err, models.CodeInternal))
}

func TestPostService_EditPost(t *testing.T) {
	t.Parallel()
	groupID := uint(3)
	original := func() *models.Post {
		return &models.Post{
			ID: 7, Text: "before", AuthorID: 1, GroupID: &groupID, Image: "posts/old.png",
			PubDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	t.Run("updates editable fields only", func(t *testing.T) {
		f := newPostServiceFixture()
		var saved models.Post
		f.posts.updateEditableFn = func(_ context.Context, p *models.Post) error {
			saved = *p
			return nil
		}
		post := original()

		err := f.service().EditPost(context.Background(), post, PostForm{Text: "after"})
		require.NoError(t, err)
		assert.Equal(t, "after", saved.Text)
		assert.Nil(t, saved.GroupID)
		assert.Equal(t, "posts/old.png", saved.Image, "image kept without upload")
		assert.Equal(t, uint(1), saved.AuthorID)
		assert.Equal(t, original().PubDate, saved.PubDate)
		assert.Equal(t, "after", post.Text)
		assert.Equal(t, []string{cache.IndexPrefix}, f.cache.invalidations)
	})

	t.Run("replaces and clears image", func(t *testing.T) {
		f := newPostServiceFixture()
		var saved models.Post
		f.posts.updateEditableFn = func(_ context.Context, p *models.Post) error {
			saved = *p
			return nil
		}

		require.NoError(t, f.service().EditPost(context.Background(), original(), PostForm{Text: "x", Image: &Upload{Content: []byte("png")}}))
		assert.Equal(t, "posts/stored.png", saved.Image)

		require.NoError(t, f.service().EditPost(context.Background(), original(), PostForm{Text: "x", ClearImage: true}))
		assert.Equal(t, "", saved.Image)
	})

	t.Run("invalid form leaves post alone", func(t *testing.T) {
		f := newPostServiceFixture()
		f.posts.updateEditableFn = func(_ context.Context, _ *models.Post) error {
			t.Fatal("update must not run")
			return nil
		}
		post := original()

		err := f.service().EditPost(context.Background(), post, PostForm{Text: ""})
		assertFieldError(t, err, "text", MsgRequired)
		assert.Equal(t, "before", post.Text)
		assert.Empty(t, f.cache.invalidations)
	})
}

func TestPostFormFromPost(t *testing.T) {
	groupID := uint(12)
	f := PostFormFromPost(&models.Post{Text: "t", GroupID: &groupID})
	assert.Equal(t, "t", f.Text)
	assert.Equal(t, "12", f.Group)

	assert.Equal(t, "", PostFormFromPost(&models.Post{Text: "t"}).Group)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/leo/7/", PostPath("leo", 7))
	assert.Equal(t, "/leo/", ProfilePath("leo"))
}
