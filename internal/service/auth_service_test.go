package service

import (
	"context"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(users *userRepoStub) *AuthService {
	svc := NewAuthService(users)
	svc.bcryptCost = bcrypt.MinCost
	return svc
}

func TestAuthService_Signup(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		form      SignupForm
		wantField string
	}{
		{"valid", SignupForm{Username: "leo", Password1: "war-and-peace", Password2: "war-and-peace", Email: "leo@example.com"}, ""},
		{"missing username", SignupForm{Password1: "war-and-peace", Password2: "war-and-peace"}, "username"},
		{"bad username", SignupForm{Username: "leo tolstoy", Password1: "war-and-peace", Password2: "war-and-peace"}, "username"},
		{"bad email", SignupForm{Username: "leo", Email: "nope", Password1: "war-and-peace", Password2: "war-and-peace"}, "email"},
		{"mismatch", SignupForm{Username: "leo", Password1: "war-and-peace", Password2: "anna-karenina"}, "password2"},
		{"weak", SignupForm{Username: "leo", Password1: "12345678", Password2: "12345678"}, "password2"},
		{"missing confirmation", SignupForm{Username: "leo", Password1: "war-and-peace"}, "password2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := usersStub()
			svc := newTestAuthService(users)

			user, err := svc.Signup(context.Background(), tt.form)
			if tt.wantField != "" {
				assertValidationError(t, err)
				fields, _ := models.AsFieldErrors(err)
				assert.NotEmpty(t, fields[tt.wantField])
				assert.Empty(t, users.byName)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, tt.form.Password1, user.Password, "password stored hashed")
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(tt.form.Password1)))
		})
	}
}

func TestAuthService_SignupDuplicate(t *testing.T) {
	t.Parallel()
	users := usersStub()
	users.createFn = func(_ context.Context, _ *models.User) error {
		return models.NewFieldValidationError(models.FieldErrors{"username": {"A user with that username already exists."}})
	}
	svc := newTestAuthService(users)

	_, err := svc.Signup(context.Background(), SignupForm{Username: "leo", Password1: "war-and-peace", Password2: "war-and-peace"})
	assertFieldError(t, err, "username", "A user with that username already exists.")
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("war-and-peace", bcrypt.MinCost)
	require.NoError(t, err)
	svc := newTestAuthService(usersStub(&models.User{ID: 1, Username: "leo", Password: hash}))
	ctx := context.Background()

	user, err := svc.Login(ctx, LoginForm{Username: "leo", Password: "war-and-peace"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)

	_, err = svc.Login(ctx, LoginForm{Username: "leo", Password: "wrong"})
	assertFieldError(t, err, NonFieldErrors, MsgBadLogin)

	_, err = svc.Login(ctx, LoginForm{Username: "ghost", Password: "war-and-peace"})
	assertFieldError(t, err, NonFieldErrors, MsgBadLogin)

	_, err = svc.Login(ctx, LoginForm{})
	assertFieldError(t, err, "username", MsgRequired)

	current, err := svc.CurrentUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "leo", current.Username)
}
