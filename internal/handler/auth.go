package handler

import (
	"net/http"
	"time"

	"github.com/trailpeak/api/internal/middleware"
	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/service"
)

// AuthHandler serves signup, login, and the password lifecycle
type AuthHandler struct {
	auth      *service.AuthService
	errs      *ErrorWriter
	cookieTTL time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *service.AuthService, errs *ErrorWriter, cookieTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, errs: errs, cookieTTL: cookieTTL}
}

// sendToken sets the session cookie and writes the token with the user
func (h *AuthHandler) sendToken(w http.ResponseWriter, r *http.Request, status int, result *service.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    result.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})

	WriteJSON(w, status, map[string]interface{}{
		"status": "success",
		"token":  result.Token,
		"data":   map[string]interface{}{"user": result.User},
	})
}

// isSecure reports whether the request arrived over TLS, directly or
// through a proxy
func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

// Signup handles POST /api/v1/users/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, model.NewBadRequestError("Invalid JSON body"))
		return
	}

	result, err := h.auth.Signup(r.Context(), req, baseURL(r)+"/me")
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.sendToken(w, r, http.StatusCreated, result)
}

// Login handles POST /api/v1/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, model.NewBadRequestError("Invalid JSON body"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.sendToken(w, r, http.StatusOK, result)
}

// Logout handles GET /api/v1/users/logout by overwriting the session
// cookie with a short-lived dummy
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    "loggedout",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
	WriteData(w, http.StatusOK, nil)
}

// ForgotPassword handles POST /api/v1/users/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, model.NewBadRequestError("Invalid JSON body"))
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email, baseURL(r)+"/api/v1/users/reset-password"); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

// ResetPassword handles PATCH /api/v1/users/reset-password/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, model.NewBadRequestError("Invalid JSON body"))
		return
	}

	result, err := h.auth.ResetPassword(r.Context(), r.PathValue("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.sendToken(w, r, http.StatusOK, result)
}

// UpdatePassword handles PATCH /api/v1/users/update-password for the
// logged-in user
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req struct {
		PasswordCurrent string `json:"passwordCurrent"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		h.errs.Write(w, r, model.NewBadRequestError("Invalid JSON body"))
		return
	}

	result, err := h.auth.UpdatePassword(r.Context(), user.ID, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.sendToken(w, r, http.StatusOK, result)
}

// baseURL reconstructs the external origin of the request
func baseURL(r *http.Request) string {
	scheme := "http"
	if isSecure(r) {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
