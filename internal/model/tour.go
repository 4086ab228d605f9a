package model

import "time"

// Tour difficulty levels
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "difficult"
)

// Tour name length constraints
const (
	MinTourNameLength = 10
	MaxTourNameLength = 40
)

// DefaultRating is the rating a tour carries before any review exists
const DefaultRating = 4.5

// Location is a geo point attached to a tour
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

// Tour is the typed view of a tour document, used by services that need
// structured access (views, receipts, checkout). API reads flow as Records.
type Tour struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Slug            string      `json:"slug,omitempty"`
	Price           float64     `json:"price"`
	RatingAverage   float64     `json:"ratingAverage"`
	RatingsQuantity int         `json:"ratingsQuantity"`
	Duration        float64     `json:"duration"`
	MaxGroupSize    int         `json:"maxGroupSize"`
	Difficulty      string      `json:"difficulty"`
	Description     string      `json:"description"`
	Summary         string      `json:"summary,omitempty"`
	ImageCover      string      `json:"imageCover"`
	Images          []string    `json:"images,omitempty"`
	CreatedAt       time.Time   `json:"createdAt,omitempty"`
	SecretTour      bool        `json:"secretTour,omitempty"`
	StartLocation   *Location   `json:"startLocation,omitempty"`
	Locations       []Location  `json:"locations,omitempty"`
	StartDates      []time.Time `json:"startDates,omitempty"`
	Guides          []User      `json:"guides,omitempty"`
}

// ValidateTour checks tour fields against the schema constraints. With
// partial set, absent fields are not required (update semantics); present
// fields are always checked. All violations are reported.
func ValidateTour(fields Record, partial bool) []FieldError {
	var errs []FieldError

	name, hasName := stringField(fields, "name")
	switch {
	case !hasName && !partial:
		errs = append(errs, FieldError{Field: "name", Message: "A tour must have name"})
	case hasName && len(name) < MinTourNameLength:
		errs = append(errs, FieldError{Field: "name", Message: "Name must be at least 10 character"})
	case hasName && len(name) > MaxTourNameLength:
		errs = append(errs, FieldError{Field: "name", Message: "Name must be at most 40 character"})
	}

	if _, ok := numberField(fields, "price"); !ok && !partial {
		errs = append(errs, FieldError{Field: "price", Message: "A tour must have a price"})
	}
	if _, ok := numberField(fields, "duration"); !ok && !partial {
		errs = append(errs, FieldError{Field: "duration", Message: "A tour must have duration"})
	}
	if desc, ok := stringField(fields, "description"); (!ok || desc == "") && !partial {
		errs = append(errs, FieldError{Field: "description", Message: "A tour must have description"})
	}
	if cover, ok := stringField(fields, "imageCover"); (!ok || cover == "") && !partial {
		errs = append(errs, FieldError{Field: "imageCover", Message: "A tour must have cover photo"})
	}

	if difficulty, ok := stringField(fields, "difficulty"); ok {
		switch difficulty {
		case DifficultyEasy, DifficultyMedium, DifficultyHard:
		default:
			errs = append(errs, FieldError{Field: "difficulty", Message: "difficulty must be easy, medium and difficult"})
		}
	}

	if rating, ok := numberField(fields, "ratingAverage"); ok {
		if rating < 1 {
			errs = append(errs, FieldError{Field: "ratingAverage", Message: "rating must be at least 1 star"})
		}
		if rating > 5 {
			errs = append(errs, FieldError{Field: "ratingAverage", Message: "rating must be at most 5 stars"})
		}
	}

	return errs
}

// TourDefaults fills schema defaults on a new tour document
func TourDefaults(fields Record) {
	if _, ok := fields["ratingAverage"]; !ok {
		fields["ratingAverage"] = DefaultRating
	}
	if _, ok := fields["ratingsQuantity"]; !ok {
		fields["ratingsQuantity"] = 0
	}
	if _, ok := fields["maxGroupSize"]; !ok {
		fields["maxGroupSize"] = 5
	}
	if _, ok := fields["difficulty"]; !ok {
		fields["difficulty"] = DifficultyMedium
	}
	if _, ok := fields["secretTour"]; !ok {
		fields["secretTour"] = false
	}
}

func stringField(fields Record, key string) (string, bool) {
	v, ok := fields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func numberField(fields Record, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
