package model

import (
	"math"
	"time"
)

// Review is the typed view of a review document. User is resolved on
// reads (name and photo only); Tour stays a reference.
type Review struct {
	ID        string    `json:"id"`
	Review    string    `json:"review"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	User      *User     `json:"user,omitempty"`
	Tour      string    `json:"tour,omitempty"`
}

// RoundRating rounds a rating to one decimal place, as stored
func RoundRating(rating float64) float64 {
	return math.Round(rating*10) / 10
}

// ValidateReview checks review fields against the schema constraints
func ValidateReview(fields Record, partial bool) []FieldError {
	var errs []FieldError

	if text, ok := stringField(fields, "review"); (!ok || text == "") && !partial {
		errs = append(errs, FieldError{Field: "review", Message: "review Cant be empty"})
	}

	if rating, ok := numberField(fields, "rating"); ok {
		if rating < 1 {
			errs = append(errs, FieldError{Field: "rating", Message: "rating must be at least 1 star"})
		}
		if rating > 5 {
			errs = append(errs, FieldError{Field: "rating", Message: "rating must be at most 5 stars"})
		}
	}

	if tour, ok := stringField(fields, "tour"); (!ok || tour == "") && !partial {
		errs = append(errs, FieldError{Field: "tour", Message: "Review must belong to tour"})
	}
	if user, ok := stringField(fields, "user"); (!ok || user == "") && !partial {
		errs = append(errs, FieldError{Field: "user", Message: "Review must belong to user"})
	}

	return errs
}
