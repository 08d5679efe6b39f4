package handlers

import (
	"bytes"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/petermazzocco/water-quality-api/internal/apperrors"
	"github.com/petermazzocco/water-quality-api/internal/logger"
	"github.com/petermazzocco/water-quality-api/internal/schema"
)

const (
	dateLayout         = "2006-01-02"
	invalidDateMessage = "Invalid date format. Use YYYY-MM-DD."
)

// parseDate accepts calendar dates written as YYYY-MM-DD.
func parseDate(s string) (time.Time, bool) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// decodeMeasurements turns a validated update body into column → value
// changes. null clears a column; any other value must be a finite float64.
func decodeMeasurements(body []byte) (map[string]any, *apperrors.ValidationError) {
	ve := apperrors.NewValidationError()
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		ve.Add(schema.SchemaField, "Invalid input type.")
		return nil, ve
	}

	changes := make(map[string]any, len(raw))
	for field, value := range raw {
		value = bytes.TrimSpace(value)
		if string(value) == "null" {
			changes[field] = nil
			continue
		}
		f, err := strconv.ParseFloat(string(value), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			ve.Add(field, "Not a valid number.")
			continue
		}
		changes[field] = f
	}
	if !ve.Empty() {
		return nil, ve
	}
	return changes, nil
}

// UpdateWaterQualityHandler partially updates the record of a location on a
// date. Checks run in a fixed order and stop at the first failure: date
// format, body, location, record.
func (s *Server) UpdateWaterQualityHandler(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDate(chi.URLParam(r, "date"))
	if !ok {
		errorJSON(w, http.StatusBadRequest, invalidDateMessage)
		return
	}

	body, ok := s.readValidated(w, r, schema.WaterQualityUpdate)
	if !ok {
		return
	}
	changes, ve := decodeMeasurements(body)
	if ve != nil {
		validationFailed(w, ve)
		return
	}

	location, err := s.lookupLocation(r.Context(), chi.URLParam(r, "location_id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "Location not found")
			return
		}
		internalError(w, r, err, "location lookup failed")
		return
	}

	if _, err := s.Store.UpdateWaterQuality(r.Context(), location.ID, day, changes); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "Water quality record not found")
			return
		}
		internalError(w, r, err, "failed to update water quality record")
		return
	}

	logger.FromContext(r.Context()).WithFields(map[string]any{
		"location_id": location.ID,
		"date":        day.Format(dateLayout),
		"fields":      len(changes),
	}).Info("water quality record updated")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Water quality record updated successfully"})
}

func (s *Server) GetWaterQualityHandler(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDate(chi.URLParam(r, "date"))
	if !ok {
		errorJSON(w, http.StatusBadRequest, invalidDateMessage)
		return
	}

	location, err := s.lookupLocation(r.Context(), chi.URLParam(r, "location_id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "Location not found")
			return
		}
		internalError(w, r, err, "location lookup failed")
		return
	}

	record, err := s.Store.WaterQuality(r.Context(), location.ID, day)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "Water quality record not found")
			return
		}
		internalError(w, r, err, "water quality lookup failed")
		return
	}
	record.Location = location
	writeJSON(w, http.StatusOK, record)
}
