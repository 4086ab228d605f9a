package service

import (
	"context"
	"log/slog"

	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/repository"
)

// ReviewService recomputes a tour's rating aggregate after review
// writes
type ReviewService struct {
	reviews *repository.ReviewRepository
	tours   *repository.TourRepository
}

// NewReviewService creates a new review service
func NewReviewService(reviews *repository.ReviewRepository, tours *repository.TourRepository) *ReviewService {
	return &ReviewService{reviews: reviews, tours: tours}
}

// RecalcTourRating recomputes and persists a tour's average rating and
// review count. With no reviews left the tour falls back to its schema
// default rating.
func (s *ReviewService) RecalcTourRating(ctx context.Context, tourID string) {
	avg, count, err := s.reviews.AggregateRating(ctx, tourID)
	if err != nil {
		slog.Error("rating aggregation failed",
			slog.String("tour", tourID), slog.String("error", err.Error()))
		return
	}

	if count == 0 {
		avg = model.DefaultRating
	} else {
		avg = model.RoundRating(avg)
	}

	if err := s.tours.UpdateRating(ctx, tourID, avg, count); err != nil {
		slog.Error("rating update failed",
			slog.String("tour", tourID), slog.String("error", err.Error()))
	}
}
