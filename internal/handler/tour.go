package handler

import (
	"net/http"
	"strconv"

	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/repository"
	"github.com/trailpeak/api/internal/service"
)

// TourHandler serves tour CRUD plus aggregations, geo queries, and
// image uploads
type TourHandler struct {
	factory *Factory
	tours   *service.TourService
	repo    *repository.TourRepository
	images  *service.ImageService
	errs    *ErrorWriter
}

// NewTourHandler creates a new tour handler
func NewTourHandler(repo *repository.TourRepository, tours *service.TourService, images *service.ImageService, errs *ErrorWriter) *TourHandler {
	return &TourHandler{
		factory: NewFactory(repo, errs),
		tours:   tours,
		repo:    repo,
		images:  images,
		errs:    errs,
	}
}

// GetAll handles GET /api/v1/tours
func (h *TourHandler) GetAll() http.HandlerFunc {
	return h.factory.GetAll(nil, nil)
}

// TopFive handles GET /api/v1/tours/top-5-cheap by presetting the list
// query before parsing
func (h *TourHandler) TopFive() http.HandlerFunc {
	return h.factory.GetAll(nil, func(r *http.Request) {
		q := r.URL.Query()
		q.Set("limit", "5")
		q.Set("sort", "-ratingAverage,price")
		q.Set("fields", "name,price,ratingAverage,summary,difficulty")
		r.URL.RawQuery = q.Encode()
	})
}

// GetOne handles GET /api/v1/tours/{id}
func (h *TourHandler) GetOne() http.HandlerFunc {
	return h.factory.GetOne()
}

// CreateOne handles POST /api/v1/tours
func (h *TourHandler) CreateOne() http.HandlerFunc {
	return h.factory.CreateOne(nil)
}

// UpdateOne handles PATCH /api/v1/tours/{id}
func (h *TourHandler) UpdateOne() http.HandlerFunc {
	return h.factory.UpdateOne(nil)
}

// DeleteOne handles DELETE /api/v1/tours/{id}
func (h *TourHandler) DeleteOne() http.HandlerFunc {
	return h.factory.DeleteOne()
}

// Stats handles GET /api/v1/tours/stats
func (h *TourHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tours.Stats(r.Context())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

// MonthlyPlan handles GET /api/v1/tours/monthly-plan/{year}
func (h *TourHandler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		h.errs.Write(w, r, model.NewBadRequestError("Invalid year"))
		return
	}

	plan, err := h.tours.MonthlyPlan(r.Context(), year)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]interface{}{"plan": plan})
}

// Within handles GET /api/v1/tours/tours-within/{distance}/center/{latlng}/unit/{unit}
func (h *TourHandler) Within(w http.ResponseWriter, r *http.Request) {
	distance, err := strconv.ParseFloat(r.PathValue("distance"), 64)
	if err != nil {
		h.errs.Write(w, r, service.ErrBadDistance)
		return
	}
	lat, lng, err := service.ParseLatLng(r.PathValue("latlng"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	tours, err := h.tours.Within(r.Context(), distance, lat, lng, r.PathValue("unit"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	WriteList(w, http.StatusOK, map[string]interface{}{"tours": tours}, len(tours))
}

// Distances handles GET /api/v1/tours/distances/{latlng}/unit/{unit}
func (h *TourHandler) Distances(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := service.ParseLatLng(r.PathValue("latlng"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	distances, err := h.tours.Distances(r.Context(), lat, lng, r.PathValue("unit"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]interface{}{"distances": distances})
}

// maxUploadSize bounds multipart image uploads
const maxUploadSize = 10 << 20

// maxGalleryImages caps the gallery files accepted per upload
const maxGalleryImages = 3

// UploadImages handles PATCH /api/v1/tours/{id}/images with multipart
// fields imageCover and images
func (h *TourHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	tourID := r.PathValue("id")

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.errs.Write(w, r, model.NewBadRequestError("Invalid multipart body"))
		return
	}

	fields := model.Record{}

	if file, _, err := r.FormFile("imageCover"); err == nil {
		name, err := h.images.SaveTourImage(tourID, 0, file)
		file.Close()
		if err != nil {
			h.errs.Write(w, r, err)
			return
		}
		fields["imageCover"] = name
	}

	if r.MultipartForm != nil {
		if len(r.MultipartForm.File["images"]) > maxGalleryImages {
			h.errs.Write(w, r, model.NewBadRequestError("A tour can have at most 3 gallery images"))
			return
		}
		var names []string
		for i, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				h.errs.Write(w, r, model.NewBadRequestError("Invalid multipart body"))
				return
			}
			name, err := h.images.SaveTourImage(tourID, i+1, file)
			file.Close()
			if err != nil {
				h.errs.Write(w, r, err)
				return
			}
			names = append(names, name)
		}
		if len(names) > 0 {
			fields["images"] = names
		}
	}

	if len(fields) == 0 {
		h.errs.Write(w, r, model.NewBadRequestError("No images provided"))
		return
	}

	record, err := h.repo.UpdateByID(r.Context(), tourID, fields)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, record)
}
