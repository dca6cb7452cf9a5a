// Package server provides the HTTP REST API for the job board.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shojibur/octagon-jobs/internal/apply"
	"github.com/shojibur/octagon-jobs/internal/config"
	"github.com/shojibur/octagon-jobs/internal/db"
)

// ListingService answers job listing and facet queries.
type ListingService interface {
	List(ctx context.Context, filters db.JobFilters, page int) ([]db.JobRecord, int, error)
	Get(ctx context.Context, ghID int64) (*db.JobRecord, error)
	Departments(ctx context.Context, filters db.JobFilters) (map[string]int, error)
	Locations(ctx context.Context, filters db.JobFilters) ([]db.LocationCount, error)
	Countries(ctx context.Context) ([]string, error)
	EmploymentTypes(ctx context.Context) ([]string, error)
	Boards(ctx context.Context) ([]string, error)
}

// ApplyService processes application submissions.
type ApplyService interface {
	Submit(ctx context.Context, req apply.Request, resume *apply.Resume) (*apply.Result, error)
}

// Syncer runs one full board sync.
type Syncer interface {
	Run(ctx context.Context) (int, error)
}

// AdminStore covers the operator-facing reads and the board removal
// path: settings, stored applications, and per-board deletion.
type AdminStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	ListApplicationsByJob(ctx context.Context, ghID int64) ([]db.Application, error)
	DeleteBoardJobs(ctx context.Context, board string) (int64, error)
}

// FacetCache invalidates cached facet results after records change
// outside the sync path.
type FacetCache interface {
	Clear(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	listing    ListingService
	apply      ApplyService
	syncer     Syncer
	admin      AdminStore
	cache      FacetCache
}

// Config holds server configuration
type Config struct {
	Port int
	App  *config.Config
}

// New creates a new server instance
func New(cfg Config, listing ListingService, applySvc ApplyService, syncer Syncer, admin AdminStore, cache FacetCache) *Server {
	s := &Server{
		cfg:     cfg.App,
		listing: listing,
		apply:   applySvc,
		syncer:  syncer,
		admin:   admin,
		cache:   cache,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(s.routes())),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// routes builds the request mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /jobs/{id}/apply", s.handleApply)
	mux.HandleFunc("GET /jobs/{id}/applications", s.handleListApplications)
	mux.HandleFunc("POST /sync", s.handleSync)
	mux.HandleFunc("DELETE /boards/{name}", s.handleDeleteBoard)
	mux.HandleFunc("GET /sync/status", s.handleSyncStatus)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
