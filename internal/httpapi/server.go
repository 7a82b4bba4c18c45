// Package httpapi exposes the grade engine as a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/raporkit/rapor/internal/contract"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Server holds the dependencies shared by all handlers.
type Server struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// NewServer returns an API server over the given store manager. Every request
// works on its own clone of baseCfg.
func NewServer(baseCfg *contract.Config, mgr contract.StoreManager) *Server {
	return &Server{baseCfg: baseCfg, mgr: mgr}
}

// Router configures the chi router, middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(60 * time.Second))

	if len(s.baseCfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.baseCfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/scopes/{class}/{subject}/{term}", func(r chi.Router) {
			r.Get("/summary", s.handleSubjectSummary)
			r.Get("/objectives", s.handleObjectives)
			r.Put("/thresholds", s.handleUpdateThresholds)
		})
		r.Route("/classes/{class}/terms/{term}", func(r chi.Router) {
			r.Get("/summary", s.handleClassSummary)
			r.Get("/distribution", s.handleDistribution)
			r.Put("/thresholds", s.handleUpdateThresholds)
		})
		r.Get("/trend", s.handleTrend)
		r.Post("/grades", s.handleSaveGrades)
	})

	return r
}

// ListenAndServe serves the API on cfg.ServeAddr until ctx is cancelled.
func ListenAndServe(ctx context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	httpServer := &http.Server{
		Addr:              baseCfg.ServeAddr,
		Handler:           NewServer(baseCfg, mgr).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("🌐 rapor API listening on %s\n", baseCfg.ServeAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
