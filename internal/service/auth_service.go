package service

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService checks credentials and creates accounts.
type AuthService struct {
	users      repository.UserRepository
	bcryptCost int
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users, bcryptCost: bcrypt.DefaultCost}
}

// HashPassword returns the bcrypt hash stored in User.Password.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Signup validates form and creates the account.
func (s *AuthService) Signup(ctx context.Context, form SignupForm) (*models.User, error) {
	errs := models.FieldErrors{}
	username := strings.TrimSpace(form.Username)

	if username == "" {
		errs.Add("username", MsgRequired)
	} else if err := validation.ValidateUsername(username); err != nil {
		errs.Add("username", err.Error())
	}
	if err := validation.ValidateEmail(strings.TrimSpace(form.Email)); err != nil {
		errs.Add("email", err.Error())
	}
	if form.Password1 == "" {
		errs.Add("password1", MsgRequired)
	}
	if form.Password2 == "" {
		errs.Add("password2", MsgRequired)
	}
	if form.Password1 != "" && form.Password2 != "" {
		if form.Password1 != form.Password2 {
			errs.Add("password2", MsgPasswordsDiff)
		} else if err := validation.ValidatePassword(form.Password1, username); err != nil {
			errs.Add("password2", err.Error())
		}
	}
	if errs.Any() {
		return nil, models.NewFieldValidationError(errs)
	}

	hash, err := HashPassword(form.Password1, s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  username,
		Password:  hash,
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Email:     strings.TrimSpace(form.Email),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login returns the user matching the credentials. A wrong username or
// password is the same non-field validation error.
func (s *AuthService) Login(ctx context.Context, form LoginForm) (*models.User, error) {
	errs := models.FieldErrors{}
	if strings.TrimSpace(form.Username) == "" {
		errs.Add("username", MsgRequired)
	}
	if form.Password == "" {
		errs.Add("password", MsgRequired)
	}
	if errs.Any() {
		return nil, models.NewFieldValidationError(errs)
	}

	badLogin := models.NewFieldValidationError(models.FieldErrors{NonFieldErrors: {MsgBadLogin}})

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(form.Username))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, badLogin
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)); err != nil {
		return nil, badLogin
	}
	return user, nil
}

// CurrentUser loads the signed-in user.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}
