package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/trailpeak/api/internal/database"
	"github.com/trailpeak/api/internal/model"
)

// BookingRepository handles booking data access. Tour and user resolve
// to full records on reads; each booking carries a reference code used
// on receipts.
type BookingRepository struct {
	*Collection
	db database.Database
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db database.Database) *BookingRepository {
	r := &BookingRepository{db: db}
	r.Collection = NewCollection(db, CollectionConfig{
		Table:    "booking",
		Fetch:    []string{"tour", "user"},
		Validate: model.ValidateBooking,
		BeforeSave: func(ctx context.Context, fields model.Record, isNew bool) error {
			if !isNew {
				return nil
			}
			if _, ok := fields["paid"]; !ok {
				fields["paid"] = true
			}
			if _, ok := fields["reference"]; !ok {
				fields["reference"] = newBookingReference()
			}
			return nil
		},
	})
	return r
}

// newBookingReference derives a short human-readable code
func newBookingReference() string {
	id := uuid.New().String()
	return "BK-" + id[:8]
}

// Get retrieves a typed booking with its tour and user resolved
func (r *BookingRepository) Get(ctx context.Context, id string) (*model.Booking, error) {
	result, err := r.db.QueryOne(ctx,
		"SELECT * FROM type::record($id) FETCH tour, user",
		map[string]interface{}{"id": id},
	)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseBooking(result), nil
}

// ListForUser returns a user's bookings, newest first
func (r *BookingRepository) ListForUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	result, err := r.db.Query(ctx,
		"SELECT * FROM booking WHERE user = type::record($user) ORDER BY createdAt DESC FETCH tour, user",
		map[string]interface{}{"user": userID},
	)
	if err != nil {
		return nil, err
	}

	rows, _ := extractQueryResults(result)
	bookings := make([]*model.Booking, 0, len(rows))
	for _, item := range rows {
		if b := parseBooking(item); b != nil {
			bookings = append(bookings, b)
		}
	}
	return bookings, nil
}

func parseBooking(raw interface{}) *model.Booking {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	booking := &model.Booking{
		ID:        extractRecordID(m["id"]),
		Price:     getFloat(m, "price"),
		Paid:      getBool(m, "paid"),
		Reference: getString(m, "reference"),
	}
	if t := getTime(m, "createdAt"); t != nil {
		booking.CreatedAt = *t
	}
	if tourMap, ok := m["tour"].(map[string]interface{}); ok {
		booking.Tour = parseTour(tourMap)
	} else if id := extractRecordID(m["tour"]); id != "" {
		booking.Tour = &model.Tour{ID: id}
	}
	if userMap, ok := m["user"].(map[string]interface{}); ok {
		booking.User = parseUser(userMap)
	} else if id := extractRecordID(m["user"]); id != "" {
		booking.User = &model.User{ID: id}
	}
	return booking
}
