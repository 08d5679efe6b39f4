package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/petermazzocco/water-quality-api/internal/apperrors"
	"github.com/petermazzocco/water-quality-api/internal/logger"
	"github.com/petermazzocco/water-quality-api/internal/schema"
	"github.com/petermazzocco/water-quality-api/models"
)

type uploadRequest struct {
	Data json.RawMessage `json:"data"`
	// the schema bounds location_id to a positive integer; 1.0 is allowed
	LocationID *float64 `json:"location_id"`
}

// UploadHandler scores the uploaded data. When the upload names a location
// the payload is also stored together with the forecast derived from it, and
// then archived if an Archiver is configured.
func (s *Server) UploadHandler(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	body, ok := s.readValidated(w, r, schema.Upload)
	if !ok {
		return
	}
	var in uploadRequest
	if !decodeValidated(w, body, &in) {
		return
	}
	payload := []byte(in.Data)
	if len(payload) == 0 {
		payload = []byte("null")
	}

	prediction, err := s.Predictor.Predict(r.Context(), payload)
	if err != nil {
		internalError(w, r, err, "prediction failed")
		return
	}

	if in.LocationID != nil {
		location, err := s.Store.LocationByID(r.Context(), uint(*in.LocationID))
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				errorJSON(w, http.StatusNotFound, "Location not found")
				return
			}
			internalError(w, r, err, "location lookup failed")
			return
		}

		upload := &models.UploadedData{
			UserID:     user.ID,
			LocationID: location.ID,
			Data:       string(payload),
		}
		forecast := fmt.Sprintf(`{"prediction":%v}`, prediction)
		if _, err := s.Store.RecordUpload(r.Context(), upload, &forecast); err != nil {
			internalError(w, r, err, "failed to store upload")
			return
		}
		logger.FromContext(r.Context()).WithField("data_id", upload.DataID).Info("upload stored")
		s.archive(r, upload)
	}

	writeJSON(w, http.StatusCreated, map[string]float64{"prediction": prediction})
}

// archive copies a stored upload to object storage and records its key.
// Failures are logged and leave object_key empty.
func (s *Server) archive(r *http.Request, upload *models.UploadedData) {
	if s.Archiver == nil {
		return
	}
	log := logger.FromContext(r.Context()).WithField("data_id", upload.DataID)
	key, err := s.Archiver.Archive(r.Context(), upload.UserID, []byte(upload.Data))
	if err != nil {
		log.WithError(err).Warn("failed to archive upload")
		return
	}
	if err := s.Store.SetUploadObjectKey(r.Context(), upload.DataID, key); err != nil {
		log.WithError(err).WithField("object_key", key).Warn("failed to record archive key")
		return
	}
	upload.ObjectKey = &key
}

func (s *Server) ListUploadsHandler(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	uploads, err := s.Store.UploadsForUser(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, err, "failed to list uploads")
		return
	}
	if uploads == nil {
		uploads = []models.UploadedData{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": uploads})
}

func (s *Server) UploadVisualisationHandler(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	dataID, ok := parseID(chi.URLParam(r, "data_id"))
	if !ok {
		errorJSON(w, http.StatusNotFound, "Upload not found")
		return
	}
	if _, err := s.Store.UploadByID(r.Context(), user.ID, dataID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "Upload not found")
			return
		}
		internalError(w, r, err, "upload lookup failed")
		return
	}

	v, err := s.Store.VisualisationForUpload(r.Context(), dataID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "Visualisation not found")
			return
		}
		internalError(w, r, err, "visualisation lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, v)
}
