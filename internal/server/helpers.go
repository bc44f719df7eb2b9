package server

import (
	"errors"
	"io"
	"strconv"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/views"

	"github.com/gofiber/fiber/v2"
)

// errNotFound is returned for path parameters that cannot name a resource.
var errNotFound = models.NewNotFoundError("page", "")

// render writes the named template inside the base layout. Clients that
// prefer JSON, and servers built without a view engine, get the template
// context as JSON instead; X-Template names the page either way.
func (s *Server) render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if user := currentUser(c); user != nil {
		data["user"] = user
	}
	if _, ok := data["errors"]; !ok {
		data["errors"] = models.FieldErrors{}
	}

	c.Set("X-Template", name+".html")
	c.Status(status)
	if s.views == nil || wantsJSON(c) {
		return c.JSON(data)
	}
	return c.Render(name, data, views.Layout)
}

func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

// errorHandler renders the 404 page for missing resources and routes, and
// the 500 page for everything else.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case models.IsNotFound(err):
		return s.render(c, fiber.StatusNotFound, "misc/404", fiber.Map{"path": c.OriginalURL()})
	case errors.As(err, &fe) && fe.Code == fiber.StatusNotFound:
		return s.render(c, fiber.StatusNotFound, "misc/404", fiber.Map{"path": c.OriginalURL()})
	case errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError:
		return c.Status(fe.Code).SendString(fe.Message)
	}

	middleware.Logger.ErrorContext(c.UserContext(), "request failed",
		"error", err,
		"method", c.Method(),
		"path", c.Path(),
	)
	if rerr := s.render(c, fiber.StatusInternalServerError, "misc/500", nil); rerr != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Server error")
	}
	return nil
}

// parsePostID reads the post_id path parameter. Anything that is not a
// positive integer cannot match a post, so it is a 404.
func parsePostID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("post_id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errNotFound
	}
	return uint(id), nil
}

// postFormFromRequest binds the create/edit form, including an optional
// multipart image. Reads stop one byte past the upload limit so the image
// service can still report the size error.
func (s *Server) postFormFromRequest(c *fiber.Ctx) (service.PostForm, error) {
	form := service.PostForm{
		Text:       c.FormValue("text"),
		Group:      c.FormValue("group"),
		ClearImage: c.FormValue("image-clear") != "",
	}

	fh, err := c.FormFile("image")
	if err != nil || fh == nil || fh.Size == 0 {
		return form, nil
	}
	f, err := fh.Open()
	if err != nil {
		return form, err
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, s.maxUploadBytes()+1))
	if err != nil {
		return form, err
	}
	form.Image = &service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}
	return form, nil
}

func (s *Server) maxUploadBytes() int64 {
	if n := s.config.ImageMaxUploadBytes(); n > 0 {
		return n
	}
	return int64(service.DefaultImageMaxUploadSizeMB) << 20
}
