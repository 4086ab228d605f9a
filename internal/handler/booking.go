package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/trailpeak/api/internal/middleware"
	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/repository"
	"github.com/trailpeak/api/internal/service"
)

// BookingHandler serves checkout, the payment webhook, booking CRUD,
// and receipts
type BookingHandler struct {
	factory  *Factory
	bookings *service.BookingService
	errs     *ErrorWriter
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(repo *repository.BookingRepository, bookings *service.BookingService, errs *ErrorWriter) *BookingHandler {
	return &BookingHandler{
		factory:  NewFactory(repo, errs),
		bookings: bookings,
		errs:     errs,
	}
}

// Checkout handles GET /api/v1/bookings/checkout-session/{tourId}
func (h *BookingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	session, err := h.bookings.Checkout(r.Context(), r.PathValue("tourId"), user)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]interface{}{"session": session})
}

// maxWebhookBody bounds payment event payloads
const maxWebhookBody = 1 << 20

// Webhook handles POST /webhook-checkout. The signature covers the raw
// body, so it is read before any decoding.
func (h *BookingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.errs.Write(w, r, model.NewBadRequestError("Invalid webhook body"))
		return
	}

	if err := h.bookings.HandleWebhook(r.Context(), body, r.Header.Get("X-Webhook-Signature")); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// MyBookings handles GET /api/v1/bookings/me
func (h *BookingHandler) MyBookings(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	bookings, err := h.bookings.BookingsForUser(r.Context(), user.ID)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	WriteList(w, http.StatusOK, map[string]interface{}{"bookings": bookings}, len(bookings))
}

// Receipt handles GET /api/v1/bookings/{id}/receipt, streaming the
// booking's PDF receipt
func (h *BookingHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	booking, err := h.bookings.Booking(r.Context(), r.PathValue("id"), user)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	pdf, filename, err := service.BuildReceiptPDF(booking)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(pdf)
}

// GetAll handles GET /api/v1/bookings
func (h *BookingHandler) GetAll() http.HandlerFunc {
	return h.factory.GetAll(nil, nil)
}

// GetOne handles GET /api/v1/bookings/{id}
func (h *BookingHandler) GetOne() http.HandlerFunc {
	return h.factory.GetOne()
}

// CreateOne handles POST /api/v1/bookings
func (h *BookingHandler) CreateOne() http.HandlerFunc {
	return h.factory.CreateOne(nil)
}

// UpdateOne handles PATCH /api/v1/bookings/{id}
func (h *BookingHandler) UpdateOne() http.HandlerFunc {
	return h.factory.UpdateOne(nil)
}

// DeleteOne handles DELETE /api/v1/bookings/{id}
func (h *BookingHandler) DeleteOne() http.HandlerFunc {
	return h.factory.DeleteOne()
}
