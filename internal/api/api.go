// Package api serves read-only streak statistics over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"streaker/internal/catalog"
	"streaker/internal/model"
	"streaker/internal/stats"
)

const (
	apiBasePath   = "/api"
	usersBasePath = "/users"
	paramID       = "id"

	requestTimeout = 30 * time.Second
)

// Store is the subset of storage the API reads from.
type Store interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	Leaderboard(ctx context.Context, userID int64) ([]model.LeaderboardEntry, error)
}

// Snapshots loads consistent activity snapshots.
type Snapshots interface {
	Snapshot(ctx context.Context, userID int64) (model.Snapshot, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	store    Store
	snaps    Snapshots
	recorder *stats.Recorder
	catalog  *catalog.Catalog
	log      *slog.Logger
}

// New creates a Server.
func New(store Store, snaps Snapshots, recorder *stats.Recorder, cat *catalog.Catalog, log *slog.Logger) *Server {
	return &Server{
		store:    store,
		snaps:    snaps,
		recorder: recorder,
		catalog:  cat,
		log:      log,
	}
}

// Routes returns the router with all endpoints mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Route(usersBasePath+"/{"+paramID+"}", func(r chi.Router) {
			r.Get("/streak", s.handle(s.handleStreak))
			r.Get("/calendar", s.handle(s.handleCalendar))
			r.Get("/history", s.handle(s.handleHistory))
			r.Get("/heatmap", s.handle(s.handleHeatmap))
			r.Get("/leaderboard", s.handle(s.handleLeaderboard))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
