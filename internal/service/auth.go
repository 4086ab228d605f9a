package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/pkg/token"
)

const (
	// bcrypt cost factor
	bcryptCost = 12

	// resetTokenTTL bounds how long a password-reset token stays valid
	resetTokenTTL = 10 * time.Minute
)

// UserStore defines the user persistence the auth service needs
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByResetToken(ctx context.Context, tokenHash string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error
}

// WelcomeMailer sends account lifecycle mail
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, user *model.User, profileURL string) error
	SendPasswordReset(ctx context.Context, user *model.User, resetURL string) error
}

// AuthService handles signup, login, and password lifecycle
type AuthService struct {
	users  UserStore
	tokens *token.Service
	mail   WelcomeMailer
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	Users  UserStore
	Tokens *token.Service
	Mail   WelcomeMailer
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		users:  cfg.Users,
		tokens: cfg.Tokens,
		mail:   cfg.Mail,
	}
}

// SignupRequest carries the signup fields
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// AuthResult is a signed-in user with their token
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup creates an account, sends the welcome mail, and signs the user in
func (s *AuthService) Signup(ctx context.Context, req SignupRequest, profileURL string) (*AuthResult, error) {
	var fieldErrs []model.FieldError
	if strings.TrimSpace(req.Name) == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "name", Message: "Please tell us your name"})
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	switch {
	case email == "":
		fieldErrs = append(fieldErrs, model.FieldError{Field: "email", Message: "Please provide an email"})
	case !model.ValidEmail(email):
		fieldErrs = append(fieldErrs, model.FieldError{Field: "email", Message: "Please insert correct email"})
	}
	if req.Password == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "password", Message: "Please insert a password"})
	}
	if req.PasswordConfirm == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "passwordConfirm", Message: "Please confirm your password"})
	}
	if len(fieldErrs) > 0 {
		return nil, model.NewValidationError(fieldErrs)
	}
	if len(req.Password) < model.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if req.Password != req.PasswordConfirm {
		return nil, ErrPasswordConfirm
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, strings.TrimSpace(req.Name), email, hash)
	if err != nil {
		return nil, err
	}

	if s.mail != nil {
		if err := s.mail.SendWelcome(ctx, user, profileURL); err != nil {
			slog.Warn("welcome mail failed", slog.String("email", user.Email), slog.String("error", err.Error()))
		}
	}

	return s.issue(user)
}

// Login verifies credentials and signs the user in
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Authenticate resolves a raw token into a live user, rejecting tokens
// issued before the user's last password change.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*model.User, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserGone
	}
	if user.PasswordChangedAfter(claims.IssuedAt.Unix()) {
		return nil, ErrPasswordChanged
	}
	return user, nil
}

// ForgotPassword creates a reset token and mails its plain form. The
// stored copy is hashed; only the mail carries the usable token.
func (s *AuthService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrEmailUnknown
	}

	plain, hashed, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, hashed, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	if s.mail != nil {
		if err := s.mail.SendPasswordReset(ctx, user, resetURLBase+"/"+plain); err != nil {
			// Undo the token so a failed send does not leave a live secret
			_ = s.users.SetResetToken(ctx, user.ID, "", time.Time{})
			return err
		}
	}
	return nil
}

// ResetPassword consumes a reset token and signs the user in
func (s *AuthService) ResetPassword(ctx context.Context, plainToken, password, passwordConfirm string) (*AuthResult, error) {
	if len(password) < model.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if password != passwordConfirm {
		return nil, ErrPasswordConfirm
	}

	user, err := s.users.GetByResetToken(ctx, hashResetToken(plainToken))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrResetTokenInvalid
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// UpdatePassword changes a logged-in user's password after verifying the
// current one, then re-issues a token
func (s *AuthService) UpdatePassword(ctx context.Context, userID, current, password, passwordConfirm string) (*AuthResult, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserGone
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return nil, ErrInvalidCredentials
	}
	if len(password) < model.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if password != passwordConfirm {
		return nil, ErrPasswordConfirm
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	signed, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: signed}, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// newResetToken returns the plain token for the mail and its stored hash
func newResetToken() (plain, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plain = hex.EncodeToString(buf)
	return plain, hashResetToken(plain), nil
}

func hashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
