package service

import (
	"context"
	"encoding/json"

	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/repository"
)

// BookingService creates checkout sessions and turns confirmed payment
// events into bookings
type BookingService struct {
	bookings *repository.BookingRepository
	tours    *repository.TourRepository
	gateway  PaymentGateway
	verifier *WebhookVerifier

	currency   string
	successURL string
	cancelURL  string
}

// BookingServiceConfig holds configuration for the booking service
type BookingServiceConfig struct {
	Bookings *repository.BookingRepository
	Tours    *repository.TourRepository
	Gateway  PaymentGateway
	Verifier *WebhookVerifier

	Currency   string
	SuccessURL string
	CancelURL  string
}

// NewBookingService creates a new booking service
func NewBookingService(cfg BookingServiceConfig) *BookingService {
	return &BookingService{
		bookings:   cfg.Bookings,
		tours:      cfg.Tours,
		gateway:    cfg.Gateway,
		verifier:   cfg.Verifier,
		currency:   cfg.Currency,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

// Checkout creates a payment session for a tour at its current price
func (s *BookingService) Checkout(ctx context.Context, tourID string, user *model.User) (*CheckoutSession, error) {
	tour, err := s.tours.Get(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour == nil {
		return nil, ErrTourNotFound
	}

	session := &CheckoutSession{
		Amount:     tour.Price,
		Currency:   s.currency,
		TourID:     tour.ID,
		UserEmail:  user.Email,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
	}
	return s.gateway.CreateSession(ctx, session)
}

// checkoutEvent is the payload a completed checkout posts back
type checkoutEvent struct {
	Type    string `json:"type"`
	Session struct {
		TourID   string  `json:"tour"`
		UserID   string  `json:"user"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"session"`
}

// HandleWebhook verifies a payment event's signature and records the
// booking on a completed checkout. Other event types are acknowledged
// without effect.
func (s *BookingService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if err := s.verifier.Verify(body, signature); err != nil {
		return err
	}

	var event checkoutEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return model.NewBadRequestError("malformed payment event")
	}
	if event.Type != "checkout.completed" {
		return nil
	}

	_, err := s.bookings.Create(ctx, model.Record{
		"tour":  event.Session.TourID,
		"user":  event.Session.UserID,
		"price": event.Session.Amount,
	})
	return err
}

// BookingsForUser returns a user's bookings, newest first
func (s *BookingService) BookingsForUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	return s.bookings.ListForUser(ctx, userID)
}

// Booking returns a single booking, restricted to its owner unless the
// caller is staff
func (s *BookingService) Booking(ctx context.Context, bookingID string, caller *model.User) (*model.Booking, error) {
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if caller.Role == model.RoleUser {
		if booking.User == nil || booking.User.ID != caller.ID {
			return nil, ErrNotPermitted
		}
	}
	return booking, nil
}
