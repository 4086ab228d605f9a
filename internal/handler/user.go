package handler

import (
	"net/http"

	"github.com/trailpeak/api/internal/middleware"
	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/repository"
	"github.com/trailpeak/api/internal/service"
)

// UserHandler serves admin user CRUD and the logged-in user's /me
// routes
type UserHandler struct {
	factory *Factory
	repo    *repository.UserRepository
	images  *service.ImageService
	errs    *ErrorWriter
}

// NewUserHandler creates a new user handler
func NewUserHandler(repo *repository.UserRepository, images *service.ImageService, errs *ErrorWriter) *UserHandler {
	return &UserHandler{
		factory: NewFactory(repo, errs),
		repo:    repo,
		images:  images,
		errs:    errs,
	}
}

// GetAll handles GET /api/v1/users
func (h *UserHandler) GetAll() http.HandlerFunc {
	return h.factory.GetAll(nil, nil)
}

// GetOne handles GET /api/v1/users/{id}
func (h *UserHandler) GetOne() http.HandlerFunc {
	return h.factory.GetOne()
}

// UpdateOne handles PATCH /api/v1/users/{id}
func (h *UserHandler) UpdateOne() http.HandlerFunc {
	return h.factory.UpdateOne(nil)
}

// DeleteOne handles DELETE /api/v1/users/{id}
func (h *UserHandler) DeleteOne() http.HandlerFunc {
	return h.factory.DeleteOne()
}

// GetMe handles GET /api/v1/users/me by reusing the generic fetch with
// the logged-in user's id
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	r.SetPathValue("id", user.ID)
	h.factory.GetOne()(w, r)
}

// updatableFields is the allow-list for self-service profile updates
var updatableFields = map[string]bool{
	"name":  true,
	"email": true,
	"photo": true,
}

// UpdateMe handles PATCH /api/v1/users/update-me. Password changes are
// rejected here; they go through /update-password.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	body := model.Record{}
	if err := DecodeJSON(r, &body); err != nil {
		h.errs.Write(w, r, model.NewBadRequestError("Invalid JSON body"))
		return
	}
	if _, ok := body["password"]; ok {
		h.errs.Write(w, r, service.ErrPasswordRouteMisuse)
		return
	}
	if _, ok := body["passwordConfirm"]; ok {
		h.errs.Write(w, r, service.ErrPasswordRouteMisuse)
		return
	}

	fields := model.Record{}
	for key, value := range body {
		if updatableFields[key] {
			fields[key] = value
		}
	}

	record, err := h.repo.UpdateByID(r.Context(), user.ID, fields)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, record)
}

// UploadPhoto handles PATCH /api/v1/users/me/photo with a multipart
// photo field
func (h *UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.errs.Write(w, r, model.NewBadRequestError("Invalid multipart body"))
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		h.errs.Write(w, r, model.NewBadRequestError("No photo provided"))
		return
	}
	defer file.Close()

	name, err := h.images.SaveUserPhoto(user.ID, file)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	record, err := h.repo.UpdateByID(r.Context(), user.ID, model.Record{"photo": name})
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, record)
}

// DeleteMe handles DELETE /api/v1/users/delete-me by deactivating the
// account. The record stays; reads exclude it.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := h.repo.Deactivate(r.Context(), user.ID); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	WriteNoContent(w)
}
