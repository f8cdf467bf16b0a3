package web

import (
	"bytes"
	"encoding/json"
	"net/http"

	"telegram-lead-bot/internal/infra/logging"
)

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// dashboardHandler renders the users table and the opt-in count.
func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsUC.Dashboard(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("dashboard: load stats")
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, stats); err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("dashboard: render")
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsUC.Dashboard(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("stats: load")
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}
