package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/pkg/token"
)

// fakeUserStore is an in-memory UserStore
type fakeUserStore struct {
	users       map[string]*model.User // by id
	byEmail     map[string]*model.User
	resetHashes map[string]*model.User // by token hash
	lastHash    string
	lastExpires time.Time
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:       make(map[string]*model.User),
		byEmail:     make(map[string]*model.User),
		resetHashes: make(map[string]*model.User),
	}
}

func (f *fakeUserStore) add(user *model.User) {
	f.users[user.ID] = user
	f.byEmail[user.Email] = user
}

func (f *fakeUserStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	user := &model.User{
		ID:           "user:" + name,
		Name:         name,
		Email:        email,
		Role:         model.RoleUser,
		PasswordHash: passwordHash,
	}
	f.add(user)
	return user, nil
}

func (f *fakeUserStore) Get(ctx context.Context, id string) (*model.User, error) {
	return f.users[id], nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUserStore) GetByResetToken(ctx context.Context, tokenHash string) (*model.User, error) {
	return f.resetHashes[tokenHash], nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if user, ok := f.users[userID]; ok {
		user.PasswordHash = passwordHash
		changed := time.Now().Add(-time.Second)
		user.PasswordChangedAt = &changed
	}
	return nil
}

func (f *fakeUserStore) SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	f.lastHash = tokenHash
	f.lastExpires = expires
	if tokenHash != "" {
		f.resetHashes[tokenHash] = f.users[userID]
	} else {
		f.resetHashes = make(map[string]*model.User)
	}
	return nil
}

// fakeMailer records sends and optionally fails
type fakeMailer struct {
	welcomes int
	resets   int
	resetURL string
	fail     error
}

func (f *fakeMailer) SendWelcome(ctx context.Context, user *model.User, profileURL string) error {
	f.welcomes++
	return f.fail
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, user *model.User, resetURL string) error {
	f.resets++
	f.resetURL = resetURL
	return f.fail
}

func newTestAuth(t *testing.T, store UserStore, mail WelcomeMailer) *AuthService {
	t.Helper()
	tokens, err := token.NewService(token.Config{
		Secret:     "0123456789abcdef0123456789abcdef",
		Issuer:     "test",
		Expiration: time.Hour,
	})
	require.NoError(t, err)
	return NewAuthService(AuthServiceConfig{Users: store, Tokens: tokens, Mail: mail})
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// ============================================================================
// Signup Tests
// ============================================================================

func TestSignup_CreatesUserAndIssuesToken(t *testing.T) {
	t.Parallel()
	store := newFakeUserStore()
	mail := &fakeMailer{}
	auth := newTestAuth(t, store, mail)

	result, err := auth.Signup(context.Background(), SignupRequest{
		Name:            "Lena",
		Email:           "Lena@Example.com",
		Password:        "correcthorse",
		PasswordConfirm: "correcthorse",
	}, "http://localhost/me")

	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "lena@example.com", result.User.Email, "email normalizes to lowercase")
	assert.Equal(t, 1, mail.welcomes)

	// Stored hash verifies against the plain password
	stored := store.byEmail["lena@example.com"]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correcthorse")))
}

func TestSignup_RejectsShortAndMismatchedPasswords(t *testing.T) {
	t.Parallel()
	auth := newTestAuth(t, newFakeUserStore(), &fakeMailer{})

	_, err := auth.Signup(context.Background(), SignupRequest{
		Name: "A", Email: "a@b.co", Password: "short", PasswordConfirm: "short",
	}, "")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = auth.Signup(context.Background(), SignupRequest{
		Name: "A", Email: "a@b.co", Password: "longenough1", PasswordConfirm: "longenough2",
	}, "")
	assert.ErrorIs(t, err, ErrPasswordConfirm)
}

func TestSignup_JoinsMissingFieldMessages(t *testing.T) {
	t.Parallel()
	auth := newTestAuth(t, newFakeUserStore(), &fakeMailer{})

	_, err := auth.Signup(context.Background(), SignupRequest{}, "")
	require.Error(t, err)

	var appErr *model.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "Please tell us your name")
	assert.Contains(t, appErr.Message, ". Please provide an email")
}

// ============================================================================
// Login Tests
// ============================================================================

func TestLogin_Succeeds(t *testing.T) {
	t.Parallel()
	store := newFakeUserStore()
	store.add(&model.User{
		ID: "user:1", Email: "a@b.co", PasswordHash: hashFor(t, "opensesame1"),
	})
	auth := newTestAuth(t, store, nil)

	result, err := auth.Login(context.Background(), "a@b.co", "opensesame1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestLogin_FailureModes(t *testing.T) {
	t.Parallel()
	store := newFakeUserStore()
	store.add(&model.User{
		ID: "user:1", Email: "a@b.co", PasswordHash: hashFor(t, "opensesame1"),
	})
	auth := newTestAuth(t, store, nil)

	_, err := auth.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = auth.Login(context.Background(), "missing@b.co", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(context.Background(), "a@b.co", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// ============================================================================
// Authenticate Tests
// ============================================================================

func TestAuthenticate_RejectsTokenIssuedBeforePasswordChange(t *testing.T) {
	t.Parallel()
	store := newFakeUserStore()
	store.add(&model.User{
		ID: "user:1", Email: "a@b.co", PasswordHash: hashFor(t, "opensesame1"),
	})
	auth := newTestAuth(t, store, nil)

	result, err := auth.Login(context.Background(), "a@b.co", "opensesame1")
	require.NoError(t, err)

	// Move the password change into the future relative to the token
	changed := time.Now().Add(time.Minute)
	store.users["user:1"].PasswordChangedAt = &changed

	_, err = auth.Authenticate(context.Background(), result.Token)
	assert.ErrorIs(t, err, ErrPasswordChanged)
}

func TestAuthenticate_RejectsDeletedUser(t *testing.T) {
	t.Parallel()
	store := newFakeUserStore()
	store.add(&model.User{
		ID: "user:1", Email: "a@b.co", PasswordHash: hashFor(t, "opensesame1"),
	})
	auth := newTestAuth(t, store, nil)

	result, err := auth.Login(context.Background(), "a@b.co", "opensesame1")
	require.NoError(t, err)

	delete(store.users, "user:1")

	_, err = auth.Authenticate(context.Background(), result.Token)
	assert.ErrorIs(t, err, ErrUserGone)
}

// ============================================================================
// Password Reset Tests
// ============================================================================

func TestForgotPassword_StoresHashNotPlainToken(t *testing.T) {
	t.Parallel()
	store := newFakeUserStore()
	store.add(&model.User{ID: "user:1", Name: "Lena", Email: "a@b.co"})
	mail := &fakeMailer{}
	auth := newTestAuth(t, store, mail)

	err := auth.ForgotPassword(context.Background(), "a@b.co", "http://localhost/reset")
	require.NoError(t, err)
	require.Equal(t, 1, mail.resets)

	// The mailed URL ends with the plain token; its hash is what's stored
	plain := mail.resetURL[len("http://localhost/reset/"):]
	assert.NotEqual(t, plain, store.lastHash)
	assert.Equal(t, hashResetToken(plain), store.lastHash)
	assert.InDelta(t, time.Until(store.lastExpires).Minutes(), 10, 1)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	t.Parallel()
	auth := newTestAuth(t, newFakeUserStore(), &fakeMailer{})

	err := auth.ForgotPassword(context.Background(), "ghost@b.co", "http://localhost/reset")
	assert.ErrorIs(t, err, ErrEmailUnknown)
}

func TestResetPassword_RoundTrip(t *testing.T) {
	t.Parallel()
	store := newFakeUserStore()
	store.add(&model.User{ID: "user:1", Name: "Lena", Email: "a@b.co"})
	mail := &fakeMailer{}
	auth := newTestAuth(t, store, mail)

	require.NoError(t, auth.ForgotPassword(context.Background(), "a@b.co", "http://localhost/reset"))
	plain := mail.resetURL[len("http://localhost/reset/"):]

	result, err := auth.ResetPassword(context.Background(), plain, "brandnewpass", "brandnewpass")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(store.users["user:1"].PasswordHash), []byte("brandnewpass")))
}

func TestResetPassword_InvalidToken(t *testing.T) {
	t.Parallel()
	auth := newTestAuth(t, newFakeUserStore(), &fakeMailer{})

	_, err := auth.ResetPassword(context.Background(), "bogus", "brandnewpass", "brandnewpass")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

// ============================================================================
// UpdatePassword Tests
// ============================================================================

func TestUpdatePassword_RequiresCurrentPassword(t *testing.T) {
	t.Parallel()
	store := newFakeUserStore()
	store.add(&model.User{
		ID: "user:1", Email: "a@b.co", PasswordHash: hashFor(t, "oldpassword1"),
	})
	auth := newTestAuth(t, store, nil)

	_, err := auth.UpdatePassword(context.Background(), "user:1", "wrongcurrent", "newpassword1", "newpassword1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	result, err := auth.UpdatePassword(context.Background(), "user:1", "oldpassword1", "newpassword1", "newpassword1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}
