package server

import (
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Profile renders an author's page with their posts.
func (s *Server) Profile(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	view, err := s.postService.Profile(c.UserContext(), c.Params("username"), userID, c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "users/profile", fiber.Map{
		"author":     view.Author,
		"page":       view.Page,
		"post_count": view.PostCount,
		"following":  view.Following,
	})
}

// FollowIndex renders the posts of the authors the current user follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	page, err := s.followService.Feed(c.UserContext(), userID, c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "follow", fiber.Map{"page": page})
}

// ProfileFollow follows the author and returns to their profile.
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	author, err := s.followService.Follow(c.UserContext(), userID, c.Params("username"))
	if err != nil {
		return err
	}
	return c.Redirect(service.ProfilePath(author.Username), fiber.StatusFound)
}

// ProfileUnfollow stops following the author and returns to their profile.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	author, err := s.followService.Unfollow(c.UserContext(), userID, c.Params("username"))
	if err != nil {
		return err
	}
	return c.Redirect(service.ProfilePath(author.Username), fiber.StatusFound)
}
