package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/wattmon/wattmon/pkg/estimator"
	"github.com/wattmon/wattmon/pkg/model"
	"github.com/wattmon/wattmon/pkg/storage"
)

// Server exposes a read-only status API over the reading history.
type Server struct {
	store     storage.Storage
	est       *estimator.Estimator
	threshold float64
	mux       *http.ServeMux
	logger    *slog.Logger
}

// NewServer creates a status API server.
func NewServer(store storage.Storage, est *estimator.Estimator, threshold float64, logger *slog.Logger) *Server {
	s := &Server{
		store:     store,
		est:       est,
		threshold: threshold,
		mux:       http.NewServeMux(),
		logger:    logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/latest", s.handleLatest)
	s.mux.HandleFunc("GET /api/v1/readings", s.handleReadings)
	s.mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	readings, err := s.store.RecentReadings(ctx, model.HistoryFilter{Limit: 1})
	if err != nil {
		s.logger.Error("query latest reading", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if len(readings) == 0 {
		http.Error(w, "no readings", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(readings[0])
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	readings, err := s.store.RecentReadings(ctx, model.HistoryFilter{Limit: limit})
	if err != nil {
		s.logger.Error("query readings", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(readings)
}

type summaryResponse struct {
	Stats         *model.StatsSummary `json:"stats"`
	Latest        *model.Reading      `json:"latest,omitempty"`
	Threshold     float64             `json:"threshold"`
	LowEnergy     bool                `json:"low_energy"`
	DailyKWh      float64             `json:"daily_kwh"`
	WeeklyKWh     float64             `json:"weekly_kwh"`
	DaysRemaining float64             `json:"days_remaining"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Error("aggregate stats", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := summaryResponse{Stats: stats, Threshold: s.threshold}

	history, err := s.store.RecentReadings(ctx, model.HistoryFilter{Limit: 1024})
	if err != nil {
		s.logger.Error("query history", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if len(history) > 0 {
		latest := history[0]
		resp.Latest = &latest
		resp.LowEnergy = latest.RemainingEnergy <= s.threshold
		resp.DailyKWh = s.est.Daily(history)
		resp.WeeklyKWh = s.est.Weekly(history)
		resp.DaysRemaining = estimator.DaysRemaining(latest.RemainingEnergy, resp.DailyKWh)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
