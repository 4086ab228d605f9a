package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/trailpeak/api/internal/database"
	"github.com/trailpeak/api/internal/middleware"
	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/service"
	"github.com/trailpeak/api/pkg/token"
)

const genericMessage = "Something went very wrong!"

// ErrorRenderer renders an error as an HTML page for browser routes
type ErrorRenderer interface {
	RenderError(w http.ResponseWriter, status int, message string)
}

// ErrorWriter is the single place failures become HTTP responses. The
// verbose flag is fixed at construction: verbose responses echo the
// original error and a stack trace, restricted responses only expose
// recognized failure kinds.
type ErrorWriter struct {
	verbose  bool
	renderer ErrorRenderer
}

// NewErrorWriter creates an error writer. renderer may be nil when no
// HTML error pages are served.
func NewErrorWriter(verbose bool, renderer ErrorRenderer) *ErrorWriter {
	return &ErrorWriter{verbose: verbose, renderer: renderer}
}

// errorBody is the JSON error envelope. Error and Stack only appear in
// verbose mode.
type errorBody struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Error   interface{} `json:"error,omitempty"`
	Stack   string      `json:"stack,omitempty"`
}

// Write normalizes err and responds. API paths get the JSON envelope,
// everything else gets a rendered error page.
func (ew *ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	status, message, known := classify(err)

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
	}

	if !strings.HasPrefix(r.URL.Path, "/api") && ew.renderer != nil {
		if !known && !ew.verbose {
			message = "Please try again later."
		}
		ew.renderer.RenderError(w, status, message)
		return
	}

	body := errorBody{Status: statusWord(status), Message: message}
	if ew.verbose {
		body.Error = err.Error()
		body.Stack = string(debug.Stack())
	} else if !known {
		body.Message = genericMessage
	}
	WriteJSON(w, status, body)
}

// statusWord follows the fail/error convention: client faults are
// "fail", server faults are "error"
func statusWord(status int) string {
	if status >= http.StatusInternalServerError {
		return "error"
	}
	return "fail"
}

// classify maps an error to its HTTP status and user-facing message.
// known reports whether the kind was recognized; unknown kinds are
// masked in restricted mode.
func classify(err error) (status int, message string, known bool) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Message, true
	}

	switch {
	case errors.Is(err, database.ErrDuplicate):
		return http.StatusBadRequest, "Duplicate field value. Please use another value!", true
	case errors.Is(err, database.ErrQuery):
		return http.StatusBadRequest, "Invalid query. Please check your input!", true
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "No document found with that ID", true

	case errors.Is(err, token.ErrTokenExpired):
		return http.StatusUnauthorized, "Your token has expired! Please log in again.", true
	case errors.Is(err, token.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token. Please log in again!", true

	case errors.Is(err, service.ErrMissingCredentials),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordConfirm),
		errors.Is(err, service.ErrResetTokenInvalid),
		errors.Is(err, service.ErrPasswordRouteMisuse),
		errors.Is(err, service.ErrBadCoordinates),
		errors.Is(err, service.ErrBadUnit),
		errors.Is(err, service.ErrBadDistance),
		errors.Is(err, service.ErrBadSignature),
		errors.Is(err, service.ErrUnsupportedImage):
		return http.StatusBadRequest, err.Error(), true

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNotLoggedIn),
		errors.Is(err, service.ErrUserGone),
		errors.Is(err, service.ErrPasswordChanged):
		return http.StatusUnauthorized, err.Error(), true

	case errors.Is(err, service.ErrNotPermitted):
		return http.StatusForbidden, err.Error(), true

	case errors.Is(err, service.ErrEmailUnknown),
		errors.Is(err, service.ErrTourNotFound),
		errors.Is(err, service.ErrBookingNotFound):
		return http.StatusNotFound, err.Error(), true

	case errors.Is(err, service.ErrTooManyRequests):
		return http.StatusTooManyRequests, err.Error(), true
	}

	return http.StatusInternalServerError, err.Error(), false
}
