package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/service"
)

// fakeAuth accepts a single token and returns a fixed user
type fakeAuth struct {
	token string
	user  *model.User
}

func (f *fakeAuth) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == f.token {
		return f.user, nil
	}
	return nil, service.ErrInvalidCredentials
}

// collectErr is an ErrorFunc that records the error it was given
func collectErr(got *error) ErrorFunc {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		*got = err
		w.WriteHeader(http.StatusUnauthorized)
	}
}

func userEcho(seen **model.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

// ============================================================================
// Protect Tests
// ============================================================================

func TestProtect_NoToken(t *testing.T) {
	t.Parallel()

	var gotErr error
	var seen *model.User
	handler := Protect(&fakeAuth{}, collectErr(&gotErr))(userEcho(&seen))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))

	if !errors.Is(gotErr, service.ErrNotLoggedIn) {
		t.Errorf("error = %v, want ErrNotLoggedIn", gotErr)
	}
	if seen != nil {
		t.Error("handler ran despite missing token")
	}
}

func TestProtect_BearerHeader(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "user:1", Role: "user"}
	auth := &fakeAuth{token: "good-token", user: user}

	var gotErr error
	var seen *model.User
	handler := Protect(auth, collectErr(&gotErr))(userEcho(&seen))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotErr != nil {
		t.Fatalf("unexpected error: %v", gotErr)
	}
	if seen != user {
		t.Error("authenticated user not placed in context")
	}
}

func TestProtect_CookieFallback(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "user:1", Role: "user"}
	auth := &fakeAuth{token: "cookie-token", user: user}

	var gotErr error
	var seen *model.User
	handler := Protect(auth, collectErr(&gotErr))(userEcho(&seen))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "cookie-token"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotErr != nil {
		t.Fatalf("unexpected error: %v", gotErr)
	}
	if seen != user {
		t.Error("cookie token did not authenticate")
	}
}

func TestProtect_MalformedHeaderIgnoresCookie(t *testing.T) {
	t.Parallel()

	auth := &fakeAuth{token: "cookie-token", user: &model.User{ID: "user:1"}}

	var gotErr error
	var seen *model.User
	handler := Protect(auth, collectErr(&gotErr))(userEcho(&seen))

	// A present but malformed Authorization header wins over the cookie
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Basic whatever")
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "cookie-token"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !errors.Is(gotErr, service.ErrNotLoggedIn) {
		t.Errorf("error = %v, want ErrNotLoggedIn", gotErr)
	}
}

func TestProtect_BadToken(t *testing.T) {
	t.Parallel()

	var gotErr error
	var seen *model.User
	handler := Protect(&fakeAuth{token: "good"}, collectErr(&gotErr))(userEcho(&seen))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !errors.Is(gotErr, service.ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", gotErr)
	}
	if seen != nil {
		t.Error("handler ran despite bad token")
	}
}

// ============================================================================
// RestrictTo Tests
// ============================================================================

func TestRestrictTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		role    string
		allowed []string
		wantErr bool
	}{
		{"admin on admin route", "admin", []string{"admin", "lead-guide"}, false},
		{"lead-guide on admin route", "lead-guide", []string{"admin", "lead-guide"}, false},
		{"user on admin route", "user", []string{"admin", "lead-guide"}, true},
		{"guide on users-only route", "guide", []string{"user"}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotErr error
			var ran bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { ran = true })
			handler := RestrictTo(collectErr(&gotErr), tt.allowed...)(next)

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/tours/tour:1", nil)
			ctx := context.WithValue(req.Context(), UserKey, &model.User{ID: "user:1", Role: tt.role})
			handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))

			if tt.wantErr {
				if !errors.Is(gotErr, service.ErrNotPermitted) {
					t.Errorf("error = %v, want ErrNotPermitted", gotErr)
				}
				if ran {
					t.Error("handler ran despite restricted role")
				}
			} else if gotErr != nil || !ran {
				t.Errorf("expected handler to run, error = %v", gotErr)
			}
		})
	}
}

func TestRestrictTo_NoUser(t *testing.T) {
	t.Parallel()

	var gotErr error
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := RestrictTo(collectErr(&gotErr), "admin")(next)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !errors.Is(gotErr, service.ErrNotPermitted) {
		t.Errorf("error = %v, want ErrNotPermitted", gotErr)
	}
}

// ============================================================================
// OptionalAuth Tests
// ============================================================================

func TestOptionalAuth(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "user:1"}
	auth := &fakeAuth{token: "good-token", user: user}

	// No token: passes through anonymously
	var seen *model.User
	handler := OptionalAuth(auth)(userEcho(&seen))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tour/forest-hiker", nil))
	if rec.Code != http.StatusOK || seen != nil {
		t.Errorf("anonymous request: code = %d, user = %v", rec.Code, seen)
	}

	// Bad token: still passes through anonymously
	req := httptest.NewRequest(http.MethodGet, "/tour/forest-hiker", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "stale"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen != nil {
		t.Errorf("stale token: code = %d, user = %v", rec.Code, seen)
	}

	// Good token: user lands in context
	req = httptest.NewRequest(http.MethodGet, "/tour/forest-hiker", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "good-token"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != user {
		t.Error("good token did not authenticate")
	}
}
