package server

import (
	"github.com/gofiber/fiber/v2"
)

// AboutAuthor renders the static page about the site author.
func (s *Server) AboutAuthor(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "about/author", nil)
}

// AboutTech renders the static page about the site stack.
func (s *Server) AboutTech(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "about/tech", nil)
}

func (s *Server) NotFoundPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusNotFound, "misc/404", fiber.Map{"path": c.Query("path", c.OriginalURL())})
}

func (s *Server) ServerErrorPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusInternalServerError, "misc/500", nil)
}
