// Package view serves the server-rendered site: tour overview and
// detail pages, auth forms, and the account page.
package view

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/trailpeak/api/internal/middleware"
	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/repository"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the page templates
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// pageData is the payload every page template receives
type pageData struct {
	Title   string
	User    *model.User
	Tour    *model.Tour
	Tours   []*model.Tour
	Reviews []*model.Review
	Message string
}

func (v *Renderer) render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := v.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render failed",
			slog.String("template", name), slog.String("error", err.Error()))
	}
}

// RenderError renders the error page. Satisfies the error writer's
// renderer for browser routes.
func (v *Renderer) RenderError(w http.ResponseWriter, status int, message string) {
	v.render(w, status, "error.html", pageData{
		Title:   "Something went wrong!",
		Message: message,
	})
}

// Handler serves the site routes
type Handler struct {
	renderer *Renderer
	tours    *repository.TourRepository
	reviews  *repository.ReviewRepository
	bookings *repository.BookingRepository
}

// NewHandler creates the view handler
func NewHandler(renderer *Renderer, tours *repository.TourRepository, reviews *repository.ReviewRepository, bookings *repository.BookingRepository) *Handler {
	return &Handler{renderer: renderer, tours: tours, reviews: reviews, bookings: bookings}
}

// Overview handles GET /, listing every visible tour
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	tours, err := h.tours.ListVisible(r.Context())
	if err != nil {
		h.renderer.RenderError(w, http.StatusInternalServerError, "Please try again later.")
		return
	}
	h.renderer.render(w, http.StatusOK, "overview.html", pageData{
		Title: "All Tours",
		User:  middleware.GetUser(r.Context()),
		Tours: tours,
	})
}

// Tour handles GET /tour/{slug}
func (h *Handler) Tour(w http.ResponseWriter, r *http.Request) {
	tour, err := h.tours.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.renderer.RenderError(w, http.StatusInternalServerError, "Please try again later.")
		return
	}
	if tour == nil {
		h.renderer.RenderError(w, http.StatusNotFound, "There is no tour with that name")
		return
	}

	reviews, err := h.reviews.ListForTour(r.Context(), tour.ID)
	if err != nil {
		reviews = nil
	}

	h.renderer.render(w, http.StatusOK, "tour.html", pageData{
		Title:   tour.Name,
		User:    middleware.GetUser(r.Context()),
		Tour:    tour,
		Reviews: reviews,
	})
}

// Login handles GET /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, http.StatusOK, "login.html", pageData{
		Title: "Log into your account",
		User:  middleware.GetUser(r.Context()),
	})
}

// Signup handles GET /signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, http.StatusOK, "signup.html", pageData{
		Title: "Create your account",
		User:  middleware.GetUser(r.Context()),
	})
}

// Account handles GET /me for the logged-in user
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.renderer.render(w, http.StatusOK, "account.html", pageData{
		Title: "Your account",
		User:  user,
	})
}

// MyTours handles GET /my-tours, listing the tours the user booked
func (h *Handler) MyTours(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	bookings, err := h.bookings.ListForUser(r.Context(), user.ID)
	if err != nil {
		h.renderer.RenderError(w, http.StatusInternalServerError, "Please try again later.")
		return
	}

	tours := make([]*model.Tour, 0, len(bookings))
	for _, booking := range bookings {
		if booking.Tour != nil {
			tours = append(tours, booking.Tour)
		}
	}
	h.renderer.render(w, http.StatusOK, "overview.html", pageData{
		Title: "My Tours",
		User:  user,
		Tours: tours,
	})
}
