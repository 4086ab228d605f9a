package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpeak/api/internal/repository"
)

// tourDB is a database.Database stub whose QueryOne returns a canned
// list of tour rows
type tourDB struct {
	rows []interface{}
}

func (d *tourDB) Connect(ctx context.Context) error { return nil }
func (d *tourDB) Close() error                      { return nil }
func (d *tourDB) Ping(ctx context.Context) error    { return nil }

func (d *tourDB) Query(ctx context.Context, q string, vars map[string]interface{}) ([]interface{}, error) {
	return d.rows, nil
}

func (d *tourDB) QueryOne(ctx context.Context, q string, vars map[string]interface{}) (interface{}, error) {
	return d.rows, nil
}

func (d *tourDB) Execute(ctx context.Context, q string, vars map[string]interface{}) error {
	return nil
}

func tourRow(name string, lng, lat float64, starts ...time.Time) map[string]interface{} {
	dates := make([]interface{}, 0, len(starts))
	for _, s := range starts {
		dates = append(dates, s)
	}
	return map[string]interface{}{
		"id":   "tour:" + name,
		"name": name,
		"startLocation": map[string]interface{}{
			"type":        "Point",
			"coordinates": []interface{}{lng, lat},
		},
		"startDates": dates,
	}
}

func newTourService(rows ...interface{}) *TourService {
	return NewTourService(repository.NewTourRepository(&tourDB{rows: rows}))
}

// ============================================================================
// ParseLatLng Tests
// ============================================================================

func TestParseLatLng(t *testing.T) {
	t.Parallel()

	lat, lng, err := ParseLatLng("34.111745,-118.113491")
	require.NoError(t, err)
	assert.Equal(t, 34.111745, lat)
	assert.Equal(t, -118.113491, lng)

	for _, raw := range []string{"", "34.1", "34.1,-118.1,7", "north,west", "91,0", "0,181", "-91,0"} {
		_, _, err := ParseLatLng(raw)
		assert.ErrorIs(t, err, ErrBadCoordinates, "input %q", raw)
	}
}

// ============================================================================
// Geospatial Tests
// ============================================================================

func TestWithin_FiltersByRadius(t *testing.T) {
	t.Parallel()

	// One degree of latitude is roughly 111.3 km of arc
	svc := newTourService(
		tourRow("at-center", 0, 0),
		tourRow("one-degree-north", 0, 1),
	)

	near, err := svc.Within(context.Background(), 50, 0, 0, "km")
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, "at-center", near[0].Name)

	both, err := svc.Within(context.Background(), 200, 0, 0, "km")
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

func TestWithin_BadInputs(t *testing.T) {
	t.Parallel()

	svc := newTourService()

	_, err := svc.Within(context.Background(), 0, 0, 0, "km")
	assert.ErrorIs(t, err, ErrBadDistance)

	_, err = svc.Within(context.Background(), 100, 0, 0, "furlongs")
	assert.ErrorIs(t, err, ErrBadUnit)
}

func TestDistances_NearestFirst(t *testing.T) {
	t.Parallel()

	svc := newTourService(
		tourRow("far", 0, 2),
		tourRow("near", 0, 1),
	)

	distances, err := svc.Distances(context.Background(), 0, 0, "km")
	require.NoError(t, err)
	require.Len(t, distances, 2)
	assert.Equal(t, "near", distances[0].Name)
	assert.Equal(t, "far", distances[1].Name)
	assert.InDelta(t, 111.3, distances[0].Distance, 0.2)
	assert.InDelta(t, 222.6, distances[1].Distance, 0.4)
}

func TestDistances_MilesScaleSmaller(t *testing.T) {
	t.Parallel()

	svc := newTourService(tourRow("near", 0, 1))

	km, err := svc.Distances(context.Background(), 0, 0, "km")
	require.NoError(t, err)
	mi, err := svc.Distances(context.Background(), 0, 0, "mi")
	require.NoError(t, err)

	assert.Less(t, mi[0].Distance, km[0].Distance)
	assert.InDelta(t, 1.609, km[0].Distance/mi[0].Distance, 0.01)
}

// ============================================================================
// MonthlyPlan Tests
// ============================================================================

func TestMonthlyPlan_BusiestMonthFirst(t *testing.T) {
	t.Parallel()

	date := func(month time.Month) time.Time {
		return time.Date(2021, month, 15, 9, 0, 0, 0, time.UTC)
	}
	svc := newTourService(
		tourRow("Forest Hiker", 0, 0, date(time.July), date(time.July)),
		tourRow("Sea Explorer", 0, 0, date(time.July), date(time.April)),
		tourRow("Snow Adventurer", 0, 0,
			time.Date(2022, time.January, 5, 9, 0, 0, 0, time.UTC)),
	)

	plan, err := svc.MonthlyPlan(context.Background(), 2021)
	require.NoError(t, err)
	require.Len(t, plan, 2, "other years are excluded")

	assert.Equal(t, 7, plan[0].Month)
	assert.Equal(t, 3, plan[0].NumTourStarts)
	assert.ElementsMatch(t, []string{"Forest Hiker", "Forest Hiker", "Sea Explorer"}, plan[0].Tours)

	assert.Equal(t, 4, plan[1].Month)
	assert.Equal(t, 1, plan[1].NumTourStarts)
}
