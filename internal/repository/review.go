package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/trailpeak/api/internal/database"
	"github.com/trailpeak/api/internal/model"
)

// ReviewRepository handles review data access. One review per user per
// tour; every committed write triggers the registered post-commit
// callback with the owning tour's id so its rating aggregate can be
// recomputed.
type ReviewRepository struct {
	*Collection
	db       database.Database
	onCommit func(ctx context.Context, tourID string)
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db database.Database) *ReviewRepository {
	r := &ReviewRepository{db: db}
	r.Collection = NewCollection(db, CollectionConfig{
		Table:      "review",
		Fetch:      []string{"user"},
		Validate:   model.ValidateReview,
		BeforeSave: r.beforeSave,
		AfterWrite: r.afterWrite,
	})
	return r
}

// SetOnCommit registers the post-commit callback. Wired at startup;
// not safe to change while requests are in flight.
func (r *ReviewRepository) SetOnCommit(fn func(ctx context.Context, tourID string)) {
	r.onCommit = fn
}

func (r *ReviewRepository) beforeSave(ctx context.Context, fields model.Record, isNew bool) error {
	if rating, ok := fields["rating"]; ok {
		fields["rating"] = model.RoundRating(floatValue(rating))
	}
	if !isNew {
		return nil
	}

	tour, _ := fields["tour"].(string)
	user, _ := fields["user"].(string)
	exists, err := r.hasReview(ctx, user, tour)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: user already reviewed this tour", database.ErrDuplicate)
	}
	return nil
}

func (r *ReviewRepository) afterWrite(ctx context.Context, rec model.Record, op WriteOp) {
	if r.onCommit == nil || rec == nil {
		return
	}
	if tour, ok := rec["tour"].(string); ok && tour != "" {
		r.onCommit(ctx, tour)
	}
}

// DeleteByID loads the review first so the owning tour is known when the
// post-commit callback fires after the delete.
func (r *ReviewRepository) DeleteByID(ctx context.Context, id string) error {
	existing, err := r.Collection.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.db.Execute(ctx, "DELETE type::record($id)", map[string]interface{}{"id": id}); err != nil &&
		!errors.Is(err, database.ErrNotFound) {
		return err
	}

	if existing != nil {
		r.afterWrite(ctx, existing, OpDelete)
	}
	return nil
}

func (r *ReviewRepository) hasReview(ctx context.Context, userID, tourID string) (bool, error) {
	result, err := r.db.QueryOne(ctx,
		"SELECT id FROM review WHERE user = type::record($user) AND tour = type::record($tour) LIMIT 1",
		map[string]interface{}{"user": userID, "tour": tourID},
	)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return result != nil, nil
}

// AggregateRating computes the review count and mean rating for a tour
func (r *ReviewRepository) AggregateRating(ctx context.Context, tourID string) (avg float64, count int, err error) {
	result, err := r.db.QueryOne(ctx, `
		SELECT count() AS count, math::mean(rating) AS avg
		FROM review WHERE tour = type::record($tour)
		GROUP ALL
	`, map[string]interface{}{"tour": tourID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	m, ok := result.(map[string]interface{})
	if !ok {
		return 0, 0, nil
	}
	return getFloat(m, "avg"), getInt(m, "count"), nil
}

// ListForTour returns typed reviews of one tour, newest first, for
// page rendering
func (r *ReviewRepository) ListForTour(ctx context.Context, tourID string) ([]*model.Review, error) {
	result, err := r.db.Query(ctx,
		"SELECT * FROM review WHERE tour = type::record($tour) ORDER BY createdAt DESC FETCH user",
		map[string]interface{}{"tour": tourID},
	)
	if err != nil {
		return nil, err
	}

	rows, _ := extractQueryResults(result)
	reviews := make([]*model.Review, 0, len(rows))
	for _, item := range rows {
		if rev := parseReview(item); rev != nil {
			reviews = append(reviews, rev)
		}
	}
	return reviews, nil
}

func parseReview(raw interface{}) *model.Review {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	review := &model.Review{
		ID:     extractRecordID(m["id"]),
		Review: getString(m, "review"),
		Rating: getFloat(m, "rating"),
		Tour:   extractRecordID(m["tour"]),
	}
	if t := getTime(m, "createdAt"); t != nil {
		review.CreatedAt = *t
	}
	if userMap, ok := m["user"].(map[string]interface{}); ok {
		if u := parseUser(userMap); u != nil {
			// Resolved author exposes name and photo only
			review.User = &model.User{ID: u.ID, Name: u.Name, Photo: u.Photo, Role: u.Role}
		}
	} else if id := extractRecordID(m["user"]); id != "" {
		review.User = &model.User{ID: id}
	}
	return review
}
