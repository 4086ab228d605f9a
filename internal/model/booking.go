package model

import "time"

// Booking records a paid (or pending) reservation of a tour by a user.
// Reference is a human-readable code printed on receipts.
type Booking struct {
	ID        string    `json:"id"`
	Tour      *Tour     `json:"tour,omitempty"`
	User      *User     `json:"user,omitempty"`
	Price     float64   `json:"price"`
	Paid      bool      `json:"paid"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ValidateBooking checks booking fields against the schema constraints
func ValidateBooking(fields Record, partial bool) []FieldError {
	var errs []FieldError

	if tour, ok := stringField(fields, "tour"); (!ok || tour == "") && !partial {
		errs = append(errs, FieldError{Field: "tour", Message: "Booking must belong to tour"})
	}
	if user, ok := stringField(fields, "user"); (!ok || user == "") && !partial {
		errs = append(errs, FieldError{Field: "user", Message: "Booking must belong to user"})
	}
	if _, ok := numberField(fields, "price"); !ok && !partial {
		errs = append(errs, FieldError{Field: "price", Message: "Booking must have a price"})
	}

	return errs
}
