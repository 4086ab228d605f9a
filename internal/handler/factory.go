package handler

import (
	"context"
	"net/http"

	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/query"
)

// Resource is the capability set the generic CRUD handlers need.
// Repositories satisfy it directly.
type Resource interface {
	Find(ctx context.Context, spec query.Spec, scope map[string]string) ([]model.Record, error)
	FindByID(ctx context.Context, id string) (model.Record, error)
	Create(ctx context.Context, fields model.Record) (model.Record, error)
	UpdateByID(ctx context.Context, id string, fields model.Record) (model.Record, error)
	DeleteByID(ctx context.Context, id string) error
}

// ScopeFunc derives a parent-resource filter from the request path, for
// nested routes
type ScopeFunc func(r *http.Request) map[string]string

// BodyFunc adjusts a decoded create/update body before it is persisted,
// typically to default fields from the path or the logged-in user
type BodyFunc func(r *http.Request, fields model.Record)

// Factory builds the five uniform CRUD handlers for one entity
type Factory struct {
	resource Resource
	errs     *ErrorWriter
}

// NewFactory creates a handler factory over a resource
func NewFactory(resource Resource, errs *ErrorWriter) *Factory {
	return &Factory{resource: resource, errs: errs}
}

// GetAll lists records matching the request's query parameters. scope
// may be nil; preset may be nil or inject fixed query values before
// parsing.
func (f *Factory) GetAll(scope ScopeFunc, preset func(r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if preset != nil {
			preset(r)
		}
		spec := query.Parse(r.URL.Query())

		var scopeFilter map[string]string
		if scope != nil {
			scopeFilter = scope(r)
		}

		records, err := f.resource.Find(r.Context(), spec, scopeFilter)
		if err != nil {
			f.errs.Write(w, r, err)
			return
		}
		WriteList(w, http.StatusOK, records, len(records))
	}
}

// GetOne fetches a record by path id. A missing id is answered with
// null data, not a 404.
func (f *Factory) GetOne() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := f.resource.FindByID(r.Context(), r.PathValue("id"))
		if err != nil {
			f.errs.Write(w, r, err)
			return
		}
		if record == nil {
			WriteData(w, http.StatusOK, nil)
			return
		}
		WriteData(w, http.StatusOK, record)
	}
}

// CreateOne persists the request body as a new record
func (f *Factory) CreateOne(body BodyFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := model.Record{}
		if err := DecodeJSON(r, &fields); err != nil {
			f.errs.Write(w, r, model.NewBadRequestError("Invalid JSON body"))
			return
		}
		if body != nil {
			body(r, fields)
		}

		record, err := f.resource.Create(r.Context(), fields)
		if err != nil {
			f.errs.Write(w, r, err)
			return
		}
		WriteData(w, http.StatusCreated, record)
	}
}

// UpdateOne merges the request body into an existing record. A missing
// id is a 404.
func (f *Factory) UpdateOne(body BodyFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := model.Record{}
		if err := DecodeJSON(r, &fields); err != nil {
			f.errs.Write(w, r, model.NewBadRequestError("Invalid JSON body"))
			return
		}
		if body != nil {
			body(r, fields)
		}

		record, err := f.resource.UpdateByID(r.Context(), r.PathValue("id"), fields)
		if err != nil {
			f.errs.Write(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, record)
	}
}

// DeleteOne removes a record. Deleting a missing id is
// indistinguishable from success.
func (f *Factory) DeleteOne() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f.resource.DeleteByID(r.Context(), r.PathValue("id")); err != nil {
			f.errs.Write(w, r, err)
			return
		}
		WriteNoContent(w)
	}
}
