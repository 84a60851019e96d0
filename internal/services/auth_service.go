package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"

	"conduit/internal/auth"
	"conduit/internal/models"
	"conduit/internal/observability"
	"conduit/internal/repositories"

	"github.com/go-playground/validator/v10"
)

var looseEmail = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Username string `json:"username" validate:"required,alphanum"`
	Email    string `json:"email" validate:"required,loose_email"`
	Password string `json:"password" validate:"required"`
}

// LoginInput is the payload for exchanging credentials for a token.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthService handles registration, login and resolution of authenticated users.
type AuthService struct {
	userRepo repositories.UserRepository
	tokens   *auth.TokenIssuer
	validate *validator.Validate
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		validate: newValidator(),
	}
}

// Tokens exposes the issuer used to verify incoming tokens.
func (s *AuthService) Tokens() *auth.TokenIssuer {
	return s.tokens
}

// Register creates a user with a hashed password and returns its auth view.
// Nothing is persisted when validation or a uniqueness check fails.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.AuthUser, error) {
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}

	user := &models.User{
		Username: strings.ToLower(in.Username),
		Email:    strings.ToLower(in.Email),
	}
	taken, err := s.takenFields(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, models.NewValidationError(taken)
	}

	if err := user.SetPassword(in.Password); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// Lost a race against a concurrent registration.
			taken, probeErr := s.takenFields(ctx, user)
			if probeErr != nil || len(taken) == 0 {
				taken = map[string][]string{"username": {"is already taken."}}
			}
			return nil, models.NewValidationError(taken)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	observability.Logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return s.authView(user)
}

// takenFields reports which of the user's unique fields already belong to someone.
func (s *AuthService) takenFields(ctx context.Context, user *models.User) (map[string][]string, error) {
	taken := make(map[string][]string)

	_, err := s.userRepo.GetByUsername(ctx, user.Username)
	switch {
	case err == nil:
		taken["username"] = []string{"is already taken."}
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}

	_, err = s.userRepo.GetByEmail(ctx, user.Email)
	switch {
	case err == nil:
		taken["email"] = []string{"is already taken."}
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}
	return taken, nil
}

// Login verifies credentials and returns the user's auth view with a new token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.AuthUser, error) {
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}

	invalid := models.NewValidationError(map[string][]string{"email or password": {"is invalid"}})
	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !user.ValidPassword(in.Password) {
		return nil, invalid
	}
	return s.authView(user)
}

// CurrentUser returns the auth view of the user the token was issued to.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.AuthUser, error) {
	user, err := s.RequireViewer(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.authView(user)
}

// OptionalViewer loads the viewer for userID. An empty id or a vanished user yields nil.
func (s *AuthService) OptionalViewer(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, nil
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// RequireViewer loads the viewer for userID or fails with an unauthorized error.
func (s *AuthService) RequireViewer(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.OptionalViewer(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("authenticated user not found")
	}
	return user, nil
}

func (s *AuthService) authView(user *models.User) (*models.AuthUser, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	view := ProjectAuth(user, token)
	return &view, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	})
	return v
}

// validateInput converts validator failures into a field-level validation error.
func validateInput(v *validator.Validate, in interface{}) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make(map[string][]string)
	for _, e := range validationErrors {
		msg := "is invalid"
		if e.Tag() == "required" {
			msg = "can't be blank"
		}
		fields[e.Field()] = append(fields[e.Field()], msg)
	}
	return models.NewValidationError(fields)
}
