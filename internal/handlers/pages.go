package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func (s *Server) HomeHandler(w http.ResponseWriter, r *http.Request) {
	message(w, http.StatusOK, "Welcome to the Water Quality App")
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	message(w, http.StatusOK, "User dashboard")
}

func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	message(w, http.StatusOK, "User history data")
}

func (s *Server) InsightsHandler(w http.ResponseWriter, r *http.Request) {
	message(w, http.StatusOK, "Water quality insights")
}

func (s *Server) PredictionsHandler(w http.ResponseWriter, r *http.Request) {
	message(w, http.StatusOK, "List of predictions")
}

func (s *Server) PredictionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "prediction_id")
	message(w, http.StatusOK, fmt.Sprintf("Details for prediction %s", id))
}
