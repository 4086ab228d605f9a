package service

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/repository"
)

// Earth radius per distance unit, used to convert a radius into radians
// and to scale computed arc lengths
const (
	earthRadiusKm = 6378.1
	earthRadiusMi = 3963.2
)

// TourService provides tour aggregations and geospatial queries on top
// of the repository
type TourService struct {
	tours *repository.TourRepository
}

// NewTourService creates a new tour service
func NewTourService(tours *repository.TourRepository) *TourService {
	return &TourService{tours: tours}
}

// Stats returns per-difficulty aggregates for visible tours
func (s *TourService) Stats(ctx context.Context) ([]repository.DifficultyStats, error) {
	return s.tours.Stats(ctx)
}

// MonthlyPlanEntry is one month's tour schedule in a year
type MonthlyPlanEntry struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// MonthlyPlan expands start dates into a per-month schedule for the
// given year, busiest month first
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlanEntry, error) {
	tours, err := s.tours.ListVisible(ctx)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[int][]string)
	for _, tour := range tours {
		for _, start := range tour.StartDates {
			if start.Year() != year {
				continue
			}
			m := int(start.Month())
			byMonth[m] = append(byMonth[m], tour.Name)
		}
	}

	plan := make([]MonthlyPlanEntry, 0, len(byMonth))
	for month, names := range byMonth {
		plan = append(plan, MonthlyPlanEntry{
			Month:         month,
			NumTourStarts: len(names),
			Tours:         names,
		})
	}
	sort.Slice(plan, func(i, j int) bool {
		if plan[i].NumTourStarts != plan[j].NumTourStarts {
			return plan[i].NumTourStarts > plan[j].NumTourStarts
		}
		return plan[i].Month < plan[j].Month
	})
	return plan, nil
}

// ParseLatLng parses a "lat,lng" pair
func ParseLatLng(raw string) (lat, lng float64, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, ErrBadCoordinates
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, ErrBadCoordinates
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, ErrBadCoordinates
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, ErrBadCoordinates
	}
	return lat, lng, nil
}

func earthRadius(unit string) (float64, error) {
	switch unit {
	case "km":
		return earthRadiusKm, nil
	case "mi":
		return earthRadiusMi, nil
	default:
		return 0, ErrBadUnit
	}
}

// Within returns visible tours whose start location falls inside the
// given radius around a center point
func (s *TourService) Within(ctx context.Context, distance float64, lat, lng float64, unit string) ([]*model.Tour, error) {
	if distance <= 0 {
		return nil, ErrBadDistance
	}
	radius, err := earthRadius(unit)
	if err != nil {
		return nil, err
	}

	tours, err := s.tours.ListVisible(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*model.Tour, 0)
	for _, tour := range tours {
		loc := tour.StartLocation
		if loc == nil || len(loc.Coordinates) != 2 {
			continue
		}
		// GeoJSON order: [lng, lat]
		d := haversine(lat, lng, loc.Coordinates[1], loc.Coordinates[0]) * radius
		if d <= distance {
			matched = append(matched, tour)
		}
	}
	return matched, nil
}

// TourDistance pairs a tour with its distance from a reference point
type TourDistance struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// Distances returns every visible tour's distance from a point, nearest
// first
func (s *TourService) Distances(ctx context.Context, lat, lng float64, unit string) ([]TourDistance, error) {
	radius, err := earthRadius(unit)
	if err != nil {
		return nil, err
	}

	tours, err := s.tours.ListVisible(ctx)
	if err != nil {
		return nil, err
	}

	distances := make([]TourDistance, 0, len(tours))
	for _, tour := range tours {
		loc := tour.StartLocation
		if loc == nil || len(loc.Coordinates) != 2 {
			continue
		}
		d := haversine(lat, lng, loc.Coordinates[1], loc.Coordinates[0]) * radius
		distances = append(distances, TourDistance{
			ID:       tour.ID,
			Name:     tour.Name,
			Distance: math.Round(d*1000) / 1000,
		})
	}
	sort.Slice(distances, func(i, j int) bool {
		return distances[i].Distance < distances[j].Distance
	})
	return distances, nil
}

// haversine returns the central angle in radians between two points;
// multiply by a sphere radius to get arc length
func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lng2 - lng1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
