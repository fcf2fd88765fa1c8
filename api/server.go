// Package api provides the HTTP REST API server for SahamAI.
//
// It exposes the analysis pipeline: single-ticker analysis, batch
// analysis, ticker resolution, and WebSocket streaming of batch progress.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dennissujaya-web/sahamai-superapp/internal/analyzer"
	"github.com/dennissujaya-web/sahamai-superapp/internal/config"
	"github.com/dennissujaya-web/sahamai-superapp/internal/datasource"
	"github.com/dennissujaya-web/sahamai-superapp/pkg/models"
)

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	sec      *datasource.SEC
	analyzer *analyzer.Analyzer
	wsHub    *WSHub
}

// BatchRequest is the body of POST /api/v1/batch.
type BatchRequest struct {
	Tickers []string `json:"tickers"`
	DelayMs int      `json:"delayMs,omitempty"`
}

// APIResponse is the standard response envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, strategy *config.Strategy) *Server {
	sec := datasource.NewSEC(cfg.SEC)
	srv := &Server{
		cfg:      cfg,
		sec:      sec,
		analyzer: analyzer.NewWithSources(sec, datasource.NewStooq(cfg.Price), strategy),
		wsHub:    NewWSHub(),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/analyze", s.handleAnalyze)
		r.Post("/batch", s.handleBatch)
		r.Get("/resolve/{ticker}", s.handleResolve)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" || len(ticker) > 10 {
		writeError(w, http.StatusBadRequest, "ticker is required (1-10 characters)")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	result, err := s.analyzer.Analyze(ctx, ticker, nil)
	if err != nil {
		if errors.Is(err, datasource.ErrTickerNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "analysis_complete",
		Data: map[string]any{
			"ticker":  result.Ticker,
			"verdict": result.Verdict,
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	maxTickers := s.cfg.Batch.MaxTickers
	if maxTickers <= 0 {
		maxTickers = 25
	}
	if len(req.Tickers) == 0 || len(req.Tickers) > maxTickers {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("tickers must contain between 1 and %d symbols", maxTickers))
		return
	}
	if req.DelayMs < 0 || req.DelayMs > 1000 {
		writeError(w, http.StatusBadRequest, "delayMs must be between 0 and 1000")
		return
	}

	delay := time.Duration(req.DelayMs) * time.Millisecond
	if req.DelayMs == 0 {
		delay = time.Duration(s.cfg.Batch.DelayMs) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	batch := s.analyzer.AnalyzeBatch(ctx, req.Tickers, delay, func(res models.AnalysisResult) {
		s.wsHub.Broadcast(WSMessage{
			Type: "batch_progress",
			Data: map[string]any{
				"ticker":  res.Ticker,
				"ok":      res.OK,
				"verdict": res.Verdict,
			},
		})
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: batch})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	info, err := s.sec.Resolve(ctx, ticker)
	if err != nil {
		if errors.Is(err, datasource.ErrTickerNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: info})
}

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}
