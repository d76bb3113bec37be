package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alejandrodnm/racebot/internal/analyzer"
	"github.com/alejandrodnm/racebot/internal/domain"
	"github.com/alejandrodnm/racebot/internal/ports"
)

// Server expone el pipeline por HTTP. Cada handler es una vista fina
// sobre el provider o el pipeline: la lógica vive abajo, aquí solo se
// traducen requests y errores.
type Server struct {
	provider      ports.CardProvider
	pipeline      *analyzer.Pipeline
	inference     ports.Inference // nil en modo offline
	defaultRegion string
	http          *http.Server
}

// New arma el server con sus rutas.
func New(port int, provider ports.CardProvider, pipeline *analyzer.Pipeline, inference ports.Inference, defaultRegion string) *Server {
	s := &Server{
		provider:      provider,
		pipeline:      pipeline,
		inference:     inference,
		defaultRegion: defaultRegion,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/racecourses", s.handleCourses)
		r.Get("/races", s.handleRaces)
		r.Get("/race-data", s.handleRaceData)
		r.Get("/usage", s.handleUsage)
		r.Post("/analyze-race", s.handleAnalyze)
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler expone el router para tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run sirve hasta que el contexto se cancela; entonces apaga con gracia.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server.Run: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server.Run: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	date, region := s.dateRegion(r)
	courses, err := s.provider.Courses(r.Context(), date, region)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "date": date, "region": region, "racecourses": courses,
	})
}

func (s *Server) handleRaces(w http.ResponseWriter, r *http.Request) {
	course := r.URL.Query().Get("course")
	if course == "" {
		writeBadRequest(w, "course parameter is required")
		return
	}
	date, region := s.dateRegion(r)

	slots, err := s.provider.RaceSlots(r.Context(), course, date, region)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "course": course, "date": date, "races": slotsJSON(slots),
	})
}

func (s *Server) handleRaceData(w http.ResponseWriter, r *http.Request) {
	course := r.URL.Query().Get("course")
	raceTime := r.URL.Query().Get("time")
	if course == "" || raceTime == "" {
		writeBadRequest(w, "course and time parameters are required")
		return
	}
	date, region := s.dateRegion(r)

	card, err := s.provider.RaceCard(r.Context(), course, raceTime, date, region)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "race": cardJSON(card),
	})
}

func (s *Server) handleUsage(w http.ResponseWriter, _ *http.Request) {
	if s.inference == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true, "mode": "offline",
		})
		return
	}
	u := s.inference.Usage()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"usage": map[string]any{
			"dailyCount":  u.DailyCount,
			"dailyCap":    u.DailyCap,
			"remaining":   u.Remaining,
			"percentUsed": u.PercentUsed,
		},
	})
}

type analyzeRequest struct {
	Course string `json:"course"`
	Time   string `json:"time"`
	Date   string `json:"date"`
	Region string `json:"region"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Course == "" || req.Time == "" {
		writeBadRequest(w, "course and time are required")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}
	if req.Region == "" {
		req.Region = s.defaultRegion
	}

	result, err := s.pipeline.Analyze(r.Context(), analyzer.Request{
		Course: req.Course,
		Time:   req.Time,
		Date:   req.Date,
		Region: req.Region,
	}, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "analysis": resultJSON(result),
	})
}

// dateRegion lee los query params comunes con sus defaults.
func (s *Server) dateRegion(r *http.Request) (string, string) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	region := r.URL.Query().Get("region")
	if region == "" {
		region = s.defaultRegion
	}
	return date, region
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": msg})
}

// writeError mapea la taxonomía de errores del dominio a status HTTP.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var venue *domain.VenueNotFoundError
	var empty *domain.NoCompetitorsError
	var quota *domain.QuotaExceededError
	var unavailable *domain.DataUnavailableError
	switch {
	case errors.As(err, &venue):
		status = http.StatusNotFound
	case errors.As(err, &empty):
		status = http.StatusNotFound
	case errors.As(err, &quota):
		status = http.StatusTooManyRequests
	case errors.As(err, &unavailable):
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
}
