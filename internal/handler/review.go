package handler

import (
	"net/http"

	"github.com/trailpeak/api/internal/middleware"
	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/repository"
)

// ReviewHandler serves review CRUD, flat and nested under tours
type ReviewHandler struct {
	factory *Factory
	errs    *ErrorWriter
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(repo *repository.ReviewRepository, errs *ErrorWriter) *ReviewHandler {
	return &ReviewHandler{factory: NewFactory(repo, errs), errs: errs}
}

// tourScope narrows nested routes to the tour in the path
func tourScope(r *http.Request) map[string]string {
	if tourID := r.PathValue("tourId"); tourID != "" {
		return map[string]string{"tour": tourID}
	}
	return nil
}

// defaultAuthorAndTour fills user and tour from context and path when
// the body omits them
func defaultAuthorAndTour(r *http.Request, fields model.Record) {
	if _, ok := fields["tour"]; !ok {
		if tourID := r.PathValue("tourId"); tourID != "" {
			fields["tour"] = tourID
		}
	}
	if user := middleware.GetUser(r.Context()); user != nil {
		fields["user"] = user.ID
	}
}

// GetAll handles GET /api/v1/reviews and GET /api/v1/tours/{tourId}/reviews
func (h *ReviewHandler) GetAll() http.HandlerFunc {
	return h.factory.GetAll(tourScope, nil)
}

// GetOne handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) GetOne() http.HandlerFunc {
	return h.factory.GetOne()
}

// CreateOne handles POST /api/v1/tours/{tourId}/reviews
func (h *ReviewHandler) CreateOne() http.HandlerFunc {
	return h.factory.CreateOne(defaultAuthorAndTour)
}

// UpdateOne handles PATCH /api/v1/reviews/{id}
func (h *ReviewHandler) UpdateOne() http.HandlerFunc {
	return h.factory.UpdateOne(nil)
}

// DeleteOne handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) DeleteOne() http.HandlerFunc {
	return h.factory.DeleteOne()
}
