package service

import (
	"strconv"
	"strings"

	"yatube/internal/models"
)

// Form error messages shown next to the offending field.
const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	MsgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	MsgBadLogin      = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	MsgPasswordsDiff = "The two password fields didn't match."
)

// NonFieldErrors is the FieldErrors key for errors not tied to one field.
const NonFieldErrors = "__all__"

// Upload is a file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// PostForm is the create and edit form for a post.
type PostForm struct {
	Text string `json:"text"`
	// Group is the raw select value: empty for none, otherwise a group id.
	Group string  `json:"group"`
	Image *Upload `json:"-"`
	// ClearImage drops the current image on edit.
	ClearImage bool `json:"image_clear,omitempty"`
}

// PostFormFromPost binds a form to the current values of post.
func PostFormFromPost(post *models.Post) PostForm {
	f := PostForm{Text: post.Text}
	if post.GroupID != nil {
		f.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return f
}

// groupID parses the group select value. ok is false when the value is not a
// well-formed id.
func (f PostForm) groupID() (id *uint, ok bool) {
	raw := strings.TrimSpace(f.Group)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil, false
	}
	v := uint(n)
	return &v, true
}

// CommentForm is the form under a post.
type CommentForm struct {
	Text string `json:"text"`
}

func (f CommentForm) validate() models.FieldErrors {
	errs := models.FieldErrors{}
	if strings.TrimSpace(f.Text) == "" {
		errs.Add("text", MsgRequired)
	}
	return errs
}

// LoginForm carries the login credentials and the page to return to.
type LoginForm struct {
	Username string `json:"username"`
	Password string `json:"-"`
	Next     string `json:"next,omitempty"`
}

// SignupForm is the account creation form.
type SignupForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password1 string `json:"-"`
	Password2 string `json:"-"`
}
