package server

import (
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Index renders the paginated list of every post.
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.postService.Index(c.UserContext(), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/index", fiber.Map{"page": page})
}

// GroupPosts renders the posts of one group.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, page, err := s.postService.GroupPosts(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "group", fiber.Map{"group": group, "page": page})
}

// NewPostPage renders an empty post form.
func (s *Server) NewPostPage(c *fiber.Ctx) error {
	return s.renderPostForm(c, service.PostForm{}, nil, nil)
}

// CreatePost stores a post by the current user and returns to the index.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	form, err := s.postFormFromRequest(c)
	if err != nil {
		return err
	}

	if _, err := s.postService.CreatePost(c.UserContext(), userID, form); err != nil {
		if errs, ok := models.AsFieldErrors(err); ok {
			return s.renderPostForm(c, form, nil, errs)
		}
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// PostView renders one post with its comments.
func (s *Server) PostView(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}
	view, err := s.postService.PostDetail(c.UserContext(), c.Params("username"), postID)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/post", fiber.Map{
		"post":     view.Post,
		"author":   view.Author,
		"count":    view.Count,
		"comments": view.Comments,
		"form":     service.CommentForm{},
	})
}

// EditPostPage renders the edit form bound to the post, or sends a non-author
// back to the post page.
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	post, done, err := s.editablePost(c)
	if done || err != nil {
		return err
	}
	return s.renderPostForm(c, service.PostFormFromPost(post), post, nil)
}

// EditPost applies the submitted form and returns to the post page.
func (s *Server) EditPost(c *fiber.Ctx) error {
	post, done, err := s.editablePost(c)
	if done || err != nil {
		return err
	}
	form, err := s.postFormFromRequest(c)
	if err != nil {
		return err
	}

	if err := s.postService.EditPost(c.UserContext(), post, form); err != nil {
		if errs, ok := models.AsFieldErrors(err); ok {
			return s.renderPostForm(c, form, post, errs)
		}
		return err
	}
	return c.Redirect(service.PostPath(post.Author.Username, post.ID), fiber.StatusFound)
}

// editablePost resolves the post in the path and decides edit access. done
// is true when a redirect has already been written.
func (s *Server) editablePost(c *fiber.Ctx) (post *models.Post, done bool, err error) {
	userID, err := requireUserID(c)
	if err != nil {
		return nil, false, err
	}
	postID, err := parsePostID(c)
	if err != nil {
		return nil, false, err
	}
	post, err = s.postService.ResolvePost(c.UserContext(), c.Params("username"), postID)
	if err != nil {
		return nil, false, err
	}

	access := service.AuthorizeEdit(post, userID)
	switch access.Decision {
	case service.EditAllowed:
		return post, false, nil
	default:
		return nil, true, c.Redirect(access.RedirectTo, fiber.StatusFound)
	}
}

// renderPostForm shows the create form, or the edit form when post is set.
// Invalid submissions come back with 200 and their errors.
func (s *Server) renderPostForm(c *fiber.Ctx, form service.PostForm, post *models.Post, errs models.FieldErrors) error {
	groups, err := s.postService.Groups(c.UserContext())
	if err != nil {
		return err
	}
	data := fiber.Map{
		"form":    form,
		"groups":  groups,
		"is_edit": post != nil,
	}
	if post != nil {
		data["post"] = post
	}
	if errs != nil {
		data["errors"] = errs
	}
	return s.render(c, fiber.StatusOK, "posts/new_post", data)
}
