package auth

import (
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"reqclassify/internal/store"
	"reqclassify/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingField       = errors.New("all fields are required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUsernameTaken      = errors.New("username already taken")
)

// AuthService validates credentials and creates accounts against the
// user store. Session mutation stays in the web layer.
type AuthService struct {
	users *store.UserStore
}

func NewAuthService(users *store.UserStore) *AuthService {
	return &AuthService{users: users}
}

// Authenticate checks a username/password pair. Unknown usernames and
// failed hash comparisons both report ErrInvalidCredentials.
func (s *AuthService) Authenticate(username, password string) (*models.User, error) {
	user, ok, err := s.users.Get(strings.TrimSpace(username))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read user store")
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Register validates the signup form, hashes the password and persists
// the new account. The store lock guarantees the duplicate check and
// the insert happen in one step.
func (s *AuthService) Register(username, email, password, confirm string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" || confirm == "" {
		return nil, ErrMissingField
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, store.ErrExists) {
			return nil, ErrUsernameTaken
		}
		logger.Error().Err(err).Msg("Failed to persist new user")
		return nil, err
	}
	return &user, nil
}
