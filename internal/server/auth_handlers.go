package server

import (
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LoginPage renders the login form, remembering where to go afterwards.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if _, ok := currentUserID(c); ok {
		return c.Redirect(middleware.SafeNext(c.Query("next"), "/"), fiber.StatusFound)
	}
	return s.render(c, fiber.StatusOK, "auth/login", fiber.Map{
		"form": service.LoginForm{Next: c.Query("next")},
	})
}

// Login checks the credentials, sets the session cookie and follows next.
func (s *Server) Login(c *fiber.Ctx) error {
	form := service.LoginForm{
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
		Next:     c.FormValue("next", c.Query("next")),
	}

	user, err := s.authService.Login(c.UserContext(), form)
	if err != nil {
		if errs, ok := models.AsFieldErrors(err); ok {
			return s.render(c, fiber.StatusOK, "auth/login", fiber.Map{"form": form, "errors": errs})
		}
		return err
	}

	if err := s.setSessionCookie(c, user.ID); err != nil {
		return err
	}
	middleware.Logger.InfoContext(c.UserContext(), "user logged in", "user_id", user.ID)
	return c.Redirect(middleware.SafeNext(form.Next, "/"), fiber.StatusFound)
}

// SignupPage renders the account creation form.
func (s *Server) SignupPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "auth/signup", fiber.Map{"form": service.SignupForm{}})
}

// Signup creates the account and sends the new user to the login page.
func (s *Server) Signup(c *fiber.Ctx) error {
	form := service.SignupForm{
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		Password1: c.FormValue("password1"),
		Password2: c.FormValue("password2"),
	}

	user, err := s.authService.Signup(c.UserContext(), form)
	if err != nil {
		if errs, ok := models.AsFieldErrors(err); ok {
			return s.render(c, fiber.StatusOK, "auth/signup", fiber.Map{"form": form, "errors": errs})
		}
		return err
	}

	middleware.Logger.InfoContext(c.UserContext(), "user signed up", "user_id", user.ID, "username", user.Username)
	return c.Redirect(s.config.LoginURL, fiber.StatusFound)
}

// Logout drops the session cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.clearSessionCookie(c)
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) setSessionCookie(c *fiber.Ctx, userID uint) error {
	ttl := s.config.SessionTTL()
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token, err := middleware.IssueSessionToken(s.config.JWTSecret, userID, ttl)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
