package server

import (
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CommentPage renders the standalone comment form for a post.
func (s *Server) CommentPage(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}
	post, err := s.postService.ResolvePost(c.UserContext(), c.Params("username"), postID)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "comments", fiber.Map{"post": post, "form": service.CommentForm{}})
}

// AddComment stores a comment under the post and returns to it.
func (s *Server) AddComment(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}
	post, err := s.postService.ResolvePost(c.UserContext(), c.Params("username"), postID)
	if err != nil {
		return err
	}

	form := service.CommentForm{Text: c.FormValue("text")}
	if _, err := s.commentService.AddComment(c.UserContext(), post, userID, form); err != nil {
		if errs, ok := models.AsFieldErrors(err); ok {
			return s.render(c, fiber.StatusOK, "comments", fiber.Map{"post": post, "form": form, "errors": errs})
		}
		return err
	}
	return c.Redirect(service.PostPath(post.Author.Username, post.ID), fiber.StatusFound)
}
