// Package server provides the HTTP server for the repcoach coaching system.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/server/api"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Coach is the part of the app the server exposes.
type Coach interface {
	api.Sessions
	Subscribe(o session.Observer)
	Frames() *capture.FrameBuffer
}

// Config holds the server configuration.
type Config struct {
	Coach     Coach
	Store     *store.Store
	StaticDir string
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Manager
}

// Server represents the HTTP server of the coach.
type Server struct {
	config  Config
	router  *mux.Router
	handler http.Handler
	hub     *FeedbackHub
	start   time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: mux.NewRouter(),
		hub:    NewFeedbackHub(),
		start:  time.Now(),
	}
	if config.Coach != nil {
		config.Coach.Subscribe(s.hub.Publish)
	}
	s.setupRoutes()

	// Wrapping the router counts unmatched routes too.
	s.handler = s.router
	if config.Metrics != nil {
		s.handler = s.countRequests(s.router)
	}
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/exercises", api.ListExercises).Methods(http.MethodGet)

	if s.config.Coach != nil {
		sessions := api.NewSessionHandler(s.config.Coach)
		r.HandleFunc("/api/session", sessions.Start).Methods(http.MethodPost)
		r.HandleFunc("/api/session", sessions.Get).Methods(http.MethodGet)
		r.HandleFunc("/api/session", sessions.Finish).Methods(http.MethodDelete)
		r.HandleFunc("/api/session/frames", sessions.Frame).Methods(http.MethodPost)
		r.HandleFunc("/api/session/reset", sessions.Reset).Methods(http.MethodPost)

		r.Handle("/api/feedback", s.hub).Methods(http.MethodGet)
		r.Handle("/api/stream", NewStreamHandler(s.config.Coach.Frames())).Methods(http.MethodGet)
	}

	if s.config.Store != nil {
		profiles := api.NewProfileHandler(s.config.Store)
		const profile = "/api/profiles/{id}"
		r.HandleFunc(profile, profiles.Get).Methods(http.MethodGet)
		r.HandleFunc(profile, profiles.Put).Methods(http.MethodPut)
		r.HandleFunc(profile, profiles.Delete).Methods(http.MethodDelete)
		r.HandleFunc(profile+"/records", profiles.ListRecords).Methods(http.MethodGet)
		r.HandleFunc(profile+"/records", profiles.AddRecord).Methods(http.MethodPost)
		r.HandleFunc(profile+"/totals", profiles.Totals).Methods(http.MethodGet)
		r.HandleFunc(profile+"/settings", profiles.ListSettings).Methods(http.MethodGet)
		r.HandleFunc(profile+"/settings/{key}", profiles.GetSetting).Methods(http.MethodGet)
		r.HandleFunc(profile+"/settings/{key}", profiles.PutSetting).Methods(http.MethodPut)
	}

	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Hub returns the feedback websocket hub.
func (s *Server) Hub() *FeedbackHub {
	return s.hub
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime":   time.Since(s.start).Round(time.Second).String(),
		"watchers": s.hub.Clients(),
	})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps the MJPEG stream working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController and the websocket upgrader reach the
// underlying connection.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hijacked websocket connections never report a status.
		if r.URL.Path == "/api/feedback" {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.config.Metrics.CounterRequests.
			WithLabelValues(r.Method, strconv.Itoa(rec.status)).
			Inc()
	})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("http server stopped")
	return nil
}
