package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	json "github.com/goccy/go-json"
	"github.com/petermazzocco/water-quality-api/internal/apperrors"
	"github.com/petermazzocco/water-quality-api/internal/auth"
	"github.com/petermazzocco/water-quality-api/internal/blob"
	"github.com/petermazzocco/water-quality-api/internal/logger"
	"github.com/petermazzocco/water-quality-api/internal/predict"
	"github.com/petermazzocco/water-quality-api/internal/schema"
	"github.com/petermazzocco/water-quality-api/internal/store"
	"github.com/petermazzocco/water-quality-api/models"
)

const maxBodyBytes = 1 << 20

// Server holds the collaborators shared by all handlers. It is built once at
// start-up and never mutated afterwards.
type Server struct {
	Store     *store.Store
	Tokens    *auth.TokenIssuer
	Validator *schema.Validator
	Predictor predict.Predictor
	// Archiver is optional; uploads are not archived when it is nil.
	Archiver blob.Archiver
}

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	CORSOrigins        []string
	RateLimitPerMinute int
	OAuth              bool
}

// NewRouter wires every route of the API.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/", s.HomeHandler)
	r.Get("/healthz", s.HealthHandler)
	r.Get("/signup", s.SignupPageHandler)
	r.Post("/signup", s.SignupHandler)
	r.Get("/login", s.LoginPageHandler)
	r.Post("/login", s.LoginHandler)

	if opts.OAuth {
		r.Get("/auth/{provider}", s.OAuthBeginHandler)
		r.Get("/auth/{provider}/callback", s.OAuthCallbackHandler)
	}

	// Available API routes for authenticated users
	r.Group(func(r chi.Router) {
		r.Use(auth.UserMiddleware(s.Tokens))
		if opts.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(
				opts.RateLimitPerMinute,
				1*time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			))
		}

		r.Get("/dashboard", s.DashboardHandler)
		r.Get("/history", s.HistoryHandler)
		r.Get("/insights", s.InsightsHandler)
		r.Get("/predictions", s.PredictionsHandler)
		r.Get("/predictions/{prediction_id}", s.PredictionHandler)

		r.Get("/profile", s.GetProfileHandler)
		r.Patch("/profile", s.UpdateProfileHandler)
		r.Delete("/account", s.DeleteAccountHandler)

		r.Post("/upload", s.UploadHandler)
		r.Get("/uploads", s.ListUploadsHandler)
		r.Get("/uploads/{data_id}/visualisation", s.UploadVisualisationHandler)

		r.Get("/locations", s.ListLocationsHandler)
		r.Post("/locations", s.CreateLocationHandler)
		r.Get("/locations/{location_id}/water-quality", s.LocationWaterQualityHandler)

		r.Get("/water-quality/{date}/{location_id}", s.GetWaterQualityHandler)
		r.Put("/water-quality/{date}/{location_id}", s.UpdateWaterQualityHandler)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func message(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// validationFailed answers 400 with the per-field details of ve.
func validationFailed(w http.ResponseWriter, ve *apperrors.ValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Details})
}

func internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logger.FromContext(r.Context()).WithError(err).Error(msg)
	errorJSON(w, http.StatusInternalServerError, "Internal server error")
}

// readValidated reads the request body and validates it against schemaID.
// It writes the error response itself and returns false on failure.
func (s *Server) readValidated(w http.ResponseWriter, r *http.Request, schemaID string) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		ve := apperrors.NewValidationError()
		ve.Add(schema.SchemaField, "Invalid input type.")
		validationFailed(w, ve)
		return nil, false
	}
	if err := s.Validator.Validate(body, schemaID); err != nil {
		if ve, ok := apperrors.IsValidation(err); ok {
			validationFailed(w, ve)
			return nil, false
		}
		internalError(w, r, err, "schema validation failed")
		return nil, false
	}
	return body, true
}

// decodeValidated unmarshals a validated body into v. A body that still does
// not fit v is answered with 400.
func decodeValidated(w http.ResponseWriter, body []byte, v any) bool {
	if err := json.Unmarshal(body, v); err != nil {
		ve := apperrors.NewValidationError()
		ve.Add(schema.SchemaField, "Invalid input type.")
		validationFailed(w, ve)
		return false
	}
	return true
}

// currentUser resolves the token identity to its user row. It writes the
// 404 or 500 response itself and returns nil on failure.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) *models.User {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		message(w, http.StatusUnauthorized, "Invalid token")
		return nil
	}
	user, err := s.Store.UserByUsername(r.Context(), identity)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			message(w, http.StatusNotFound, "User not found")
			return nil
		}
		internalError(w, r, err, "user lookup failed")
		return nil
	}
	return user
}

// parseID accepts positive decimal ids only.
func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// lookupLocation treats an id that is not a positive integer as unknown.
func (s *Server) lookupLocation(ctx context.Context, rawID string) (*models.Location, error) {
	id, ok := parseID(rawID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s.Store.LocationByID(ctx, id)
}
