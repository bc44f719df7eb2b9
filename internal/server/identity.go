package server

import (
	"context"
	"errors"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// Identify resolves the session token, if any, into the current user. Bad or
// stale tokens leave the request anonymous; they never fail it.
func (s *Server) Identify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := middleware.TokenFromRequest(c)
		if err != nil {
			return c.Next()
		}

		userID, err := middleware.ParseSessionToken(s.config.JWTSecret, token)
		if err != nil {
			s.clearSessionCookie(c)
			return c.Next()
		}

		user, err := s.authService.CurrentUser(c.UserContext(), userID)
		if err != nil {
			if !models.IsNotFound(err) {
				return err
			}
			s.clearSessionCookie(c)
			return c.Next()
		}

		c.Locals("userID", user.ID)
		c.Locals(userLocal, user)
		c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID))
		return c.Next()
	}
}

// LoginRequired redirects anonymous visitors to the login page, carrying the
// requested path in "next".
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := currentUserID(c); ok {
			return c.Next()
		}
		return c.Redirect(middleware.LoginRedirectURL(s.config.LoginURL, c.OriginalURL()), fiber.StatusFound)
	}
}

// currentUserID returns the authenticated user's ID.
func currentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocal).(*models.User)
	return user
}

// errLoginRequired guards handlers that are only reachable behind LoginRequired.
var errLoginRequired = errors.New("handler reached without an authenticated user")

func requireUserID(c *fiber.Ctx) (uint, error) {
	id, ok := currentUserID(c)
	if !ok {
		return 0, errLoginRequired
	}
	return id, nil
}
