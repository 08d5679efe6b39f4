package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/water-quality-api/internal/apperrors"
	"github.com/petermazzocco/water-quality-api/internal/schema"
	"github.com/petermazzocco/water-quality-api/models"
)

func (s *Server) ListLocationsHandler(w http.ResponseWriter, r *http.Request) {
	locations, err := s.Store.ListLocations(r.Context())
	if err != nil {
		internalError(w, r, err, "failed to list locations")
		return
	}
	if locations == nil {
		locations = []models.Location{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": locations})
}

func (s *Server) CreateLocationHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readValidated(w, r, schema.Location)
	if !ok {
		return
	}
	var location models.Location
	if !decodeValidated(w, body, &location) {
		return
	}
	// ids are assigned by the database
	location.ID = 0

	if err := s.Store.CreateLocation(r.Context(), &location); err != nil {
		internalError(w, r, err, "failed to create location")
		return
	}
	writeJSON(w, http.StatusCreated, location)
}

// LocationWaterQualityHandler lists the records of one location by date.
func (s *Server) LocationWaterQualityHandler(w http.ResponseWriter, r *http.Request) {
	location, err := s.lookupLocation(r.Context(), chi.URLParam(r, "location_id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "Location not found")
			return
		}
		internalError(w, r, err, "location lookup failed")
		return
	}

	records, err := s.Store.WaterQualityForLocation(r.Context(), location.ID)
	if err != nil {
		internalError(w, r, err, "failed to list water quality records")
		return
	}
	if records == nil {
		records = []models.WaterQualityData{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"location": location,
		"records":  records,
	})
}
