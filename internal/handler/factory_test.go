package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/query"
)

// mockResource is a scripted Resource for handler tests
type mockResource struct {
	findResult   []model.Record
	findSpec     query.Spec
	findScope    map[string]string
	byIDResult   model.Record
	createResult model.Record
	updateResult model.Record
	err          error
}

func (m *mockResource) Find(ctx context.Context, spec query.Spec, scope map[string]string) ([]model.Record, error) {
	m.findSpec = spec
	m.findScope = scope
	return m.findResult, m.err
}

func (m *mockResource) FindByID(ctx context.Context, id string) (model.Record, error) {
	return m.byIDResult, m.err
}

func (m *mockResource) Create(ctx context.Context, fields model.Record) (model.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.createResult = fields
	return fields, nil
}

func (m *mockResource) UpdateByID(ctx context.Context, id string, fields model.Record) (model.Record, error) {
	return m.updateResult, m.err
}

func (m *mockResource) DeleteByID(ctx context.Context, id string) error {
	return m.err
}

func newTestFactory(res *mockResource) *Factory {
	return NewFactory(res, NewErrorWriter(false, nil))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return body
}

// ============================================================================
// GetAll Tests
// ============================================================================

func TestGetAll_ParsesQueryAndReportsCount(t *testing.T) {
	t.Parallel()
	res := &mockResource{findResult: []model.Record{
		{"name": "Forest Hiker"},
		{"name": "Sea Explorer"},
	}}
	h := newTestFactory(res).GetAll(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours?price[gte]=100&sort=-price&limit=2", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["status"] != "success" {
		t.Errorf("expected success status, got %v", body["status"])
	}
	if body["results"] != 2.0 {
		t.Errorf("expected results 2, got %v", body["results"])
	}

	// The parsed spec reaches the resource intact
	if len(res.findSpec.Filter) != 1 || res.findSpec.Filter[0].Op != query.OpGte {
		t.Errorf("unexpected filter: %+v", res.findSpec.Filter)
	}
	if res.findSpec.Limit != 2 {
		t.Errorf("expected limit 2, got %d", res.findSpec.Limit)
	}
}

func TestGetAll_PresetInjectsQueryValues(t *testing.T) {
	t.Parallel()
	res := &mockResource{findResult: []model.Record{}}
	h := newTestFactory(res).GetAll(nil, func(r *http.Request) {
		q := r.URL.Query()
		q.Set("limit", "5")
		q.Set("sort", "-ratingAverage,price")
		r.URL.RawQuery = q.Encode()
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours/top-5-cheap", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	if res.findSpec.Limit != 5 {
		t.Errorf("expected preset limit 5, got %d", res.findSpec.Limit)
	}
	if len(res.findSpec.Sort) != 2 || !res.findSpec.Sort[0].Desc {
		t.Errorf("unexpected preset sort: %+v", res.findSpec.Sort)
	}
}

func TestGetAll_ScopeReachesResource(t *testing.T) {
	t.Parallel()
	res := &mockResource{findResult: []model.Record{}}
	h := newTestFactory(res).GetAll(func(r *http.Request) map[string]string {
		return map[string]string{"tour": r.PathValue("tourId")}
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours/tour:1/reviews", nil)
	req.SetPathValue("tourId", "tour:1")
	rec := httptest.NewRecorder()
	h(rec, req)

	if res.findScope["tour"] != "tour:1" {
		t.Errorf("expected tour scope, got %v", res.findScope)
	}
}

// ============================================================================
// GetOne / UpdateOne / DeleteOne Tests
// ============================================================================

func TestGetOne_MissingIDYieldsNullDataSuccess(t *testing.T) {
	t.Parallel()
	h := newTestFactory(&mockResource{}).GetOne()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours/tour:absent", nil)
	req.SetPathValue("id", "tour:absent")
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["status"] != "success" {
		t.Errorf("expected success status, got %v", body["status"])
	}
	if body["data"] != nil {
		t.Errorf("expected null data, got %v", body["data"])
	}
}

func TestCreateOne_Returns201(t *testing.T) {
	t.Parallel()
	res := &mockResource{}
	h := newTestFactory(res).CreateOne(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tours", strings.NewReader(`{"name":"Forest Hiker"}`))
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if res.createResult["name"] != "Forest Hiker" {
		t.Errorf("expected body to reach resource, got %v", res.createResult)
	}
}

func TestCreateOne_BodyFuncDefaultsFields(t *testing.T) {
	t.Parallel()
	res := &mockResource{}
	h := newTestFactory(res).CreateOne(func(r *http.Request, fields model.Record) {
		fields["user"] = "user:42"
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader(`{"review":"great","rating":5}`))
	rec := httptest.NewRecorder()
	h(rec, req)

	if res.createResult["user"] != "user:42" {
		t.Errorf("expected defaulted user, got %v", res.createResult)
	}
}

func TestDeleteOne_MissingIDStillSucceeds(t *testing.T) {
	t.Parallel()
	h := newTestFactory(&mockResource{}).DeleteOne()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tours/tour:absent", nil)
	req.SetPathValue("id", "tour:absent")
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestUpdateOne_ValidationFailurePropagates(t *testing.T) {
	t.Parallel()
	res := &mockResource{err: model.NewValidationError([]model.FieldError{
		{Field: "name", Message: "A tour must have name"},
		{Field: "price", Message: "A tour must have price"},
	})}
	h := newTestFactory(res).UpdateOne(nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/tours/tour:1", strings.NewReader(`{}`))
	req.SetPathValue("id", "tour:1")
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	want := "A tour must have name. A tour must have price"
	if body["message"] != want {
		t.Errorf("expected joined message %q, got %v", want, body["message"])
	}
	if body["status"] != "fail" {
		t.Errorf("expected fail status, got %v", body["status"])
	}
}
