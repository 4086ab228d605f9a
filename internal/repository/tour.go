package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/trailpeak/api/internal/database"
	"github.com/trailpeak/api/internal/model"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a tour name
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// TourRepository handles tour data access. Secret tours are excluded
// from every read; guides resolve to user records on reads.
type TourRepository struct {
	*Collection
	db database.Database
}

// NewTourRepository creates a new tour repository
func NewTourRepository(db database.Database) *TourRepository {
	r := &TourRepository{db: db}
	r.Collection = NewCollection(db, CollectionConfig{
		Table:      "tour",
		BaseFilter: "secretTour != true",
		Fetch:      []string{"guides"},
		Validate:   model.ValidateTour,
		BeforeSave: r.beforeSave,
	})
	return r
}

// beforeSave applies schema defaults and keeps the slug derived from the name
func (r *TourRepository) beforeSave(ctx context.Context, fields model.Record, isNew bool) error {
	if isNew {
		model.TourDefaults(fields)
	}
	if name, ok := fields["name"].(string); ok {
		fields["slug"] = Slugify(name)
	}
	return nil
}

// DeleteByID removes a tour together with its reviews and bookings in
// one transaction, so no orphaned child records survive a partial
// failure.
func (r *TourRepository) DeleteByID(ctx context.Context, id string) error {
	err := database.NewAtomicBatch().
		Add("DELETE review WHERE tour = type::record($id)", map[string]interface{}{"id": id}).
		Add("DELETE booking WHERE tour = type::record($id)", map[string]interface{}{"id": id}).
		Add("DELETE type::record($id)", map[string]interface{}{"id": id}).
		Execute(ctx, r.db)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	return nil
}

// GetBySlug retrieves a tour by its slug, or nil when absent
func (r *TourRepository) GetBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	result, err := r.db.QueryOne(ctx,
		"SELECT * FROM tour WHERE slug = $slug AND secretTour != true LIMIT 1 FETCH guides",
		map[string]interface{}{"slug": slug},
	)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseTour(result), nil
}

// Get retrieves a typed tour by id, or nil when absent
func (r *TourRepository) Get(ctx context.Context, id string) (*model.Tour, error) {
	result, err := r.db.QueryOne(ctx,
		"SELECT * FROM type::record($id) WHERE secretTour != true FETCH guides",
		map[string]interface{}{"id": id},
	)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseTour(result), nil
}

// ListVisible returns every non-secret tour, typed, for page rendering
// and in-service aggregation
func (r *TourRepository) ListVisible(ctx context.Context) ([]*model.Tour, error) {
	result, err := r.db.Query(ctx,
		"SELECT * FROM tour WHERE secretTour != true ORDER BY name ASC FETCH guides", nil,
	)
	if err != nil {
		return nil, err
	}
	rows, _ := extractQueryResults(result)
	tours := make([]*model.Tour, 0, len(rows))
	for _, item := range rows {
		if t := parseTour(item); t != nil {
			tours = append(tours, t)
		}
	}
	return tours, nil
}

// UpdateRating persists a recomputed rating aggregate on a tour
func (r *TourRepository) UpdateRating(ctx context.Context, tourID string, average float64, quantity int) error {
	return r.db.Execute(ctx,
		"UPDATE type::record($id) SET ratingAverage = $avg, ratingsQuantity = $qty",
		map[string]interface{}{"id": tourID, "avg": average, "qty": quantity},
	)
}

// DifficultyStats is one row of the per-difficulty aggregation
type DifficultyStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// Stats aggregates visible tours grouped by difficulty
func (r *TourRepository) Stats(ctx context.Context) ([]DifficultyStats, error) {
	result, err := r.db.Query(ctx, `
		SELECT difficulty,
			count() AS numTours,
			math::mean(ratingAverage) AS avgRating,
			math::mean(price) AS avgPrice,
			math::min(price) AS minPrice,
			math::max(price) AS maxPrice
		FROM tour
		WHERE secretTour != true AND ratingAverage >= 1
		GROUP BY difficulty
	`, nil)
	if err != nil {
		return nil, err
	}

	rows, _ := extractQueryResults(result)
	stats := make([]DifficultyStats, 0, len(rows))
	for _, item := range rows {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		stats = append(stats, DifficultyStats{
			Difficulty: getString(m, "difficulty"),
			NumTours:   getInt(m, "numTours"),
			AvgRating:  getFloat(m, "avgRating"),
			AvgPrice:   getFloat(m, "avgPrice"),
			MinPrice:   getFloat(m, "minPrice"),
			MaxPrice:   getFloat(m, "maxPrice"),
		})
	}
	return stats, nil
}

// parseTour converts a raw result into a typed tour
func parseTour(raw interface{}) *model.Tour {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}

	tour := &model.Tour{
		ID:              extractRecordID(m["id"]),
		Name:            getString(m, "name"),
		Slug:            getString(m, "slug"),
		Price:           getFloat(m, "price"),
		RatingAverage:   getFloat(m, "ratingAverage"),
		RatingsQuantity: getInt(m, "ratingsQuantity"),
		Duration:        getFloat(m, "duration"),
		MaxGroupSize:    getInt(m, "maxGroupSize"),
		Difficulty:      getString(m, "difficulty"),
		Description:     getString(m, "description"),
		Summary:         getString(m, "summary"),
		ImageCover:      getString(m, "imageCover"),
		Images:          getStringSlice(m, "images"),
		SecretTour:      getBool(m, "secretTour"),
	}
	if t := getTime(m, "createdAt"); t != nil {
		tour.CreatedAt = *t
	}
	if loc := parseLocation(m["startLocation"]); loc != nil {
		tour.StartLocation = loc
	}
	if locs, ok := m["locations"].([]interface{}); ok {
		for _, item := range locs {
			if loc := parseLocation(item); loc != nil {
				tour.Locations = append(tour.Locations, *loc)
			}
		}
	}
	if dates, ok := m["startDates"].([]interface{}); ok {
		for _, item := range dates {
			if t := parseTimeValue(item); t != nil {
				tour.StartDates = append(tour.StartDates, *t)
			}
		}
	}
	if guides, ok := m["guides"].([]interface{}); ok {
		for _, item := range guides {
			if guide, ok := item.(map[string]interface{}); ok {
				if u := parseUser(guide); u != nil {
					tour.Guides = append(tour.Guides, *u)
				}
				continue
			}
			if id := extractRecordID(item); id != "" {
				tour.Guides = append(tour.Guides, model.User{ID: id})
			}
		}
	}
	return tour
}

func parseLocation(raw interface{}) *model.Location {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	loc := &model.Location{
		Type:        getString(m, "type"),
		Address:     getString(m, "address"),
		Description: getString(m, "description"),
		Day:         getInt(m, "day"),
	}
	if loc.Type == "" {
		loc.Type = "Point"
	}
	if coords, ok := m["coordinates"].([]interface{}); ok {
		for _, c := range coords {
			loc.Coordinates = append(loc.Coordinates, floatValue(c))
		}
	}
	return loc
}
