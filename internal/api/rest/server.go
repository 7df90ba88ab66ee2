package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/rinkscout/internal/platform/logging"
)

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
	log    *logging.Logger
}

// NewRouter wires every REST route onto a gorilla/mux router.
func NewRouter(h *Handler, allowedOrigins []string) *mux.Router {
	router := mux.NewRouter()

	router.Use(RecoveryMiddleware(h.log))
	router.Use(LoggingMiddleware(h.log))
	router.Use(CORSMiddleware(allowedOrigins))

	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Scrape control
	api.HandleFunc("/progress", h.GetProgress).Methods(http.MethodGet)
	api.HandleFunc("/scrape", h.StartScrape).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/stop", h.StopScrape).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/cleanup", h.Cleanup).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/resume", h.ResumeScrape).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/metrics", h.GetMetrics).Methods(http.MethodGet)

	// Results
	api.HandleFunc("/teams", h.GetTeams).Methods(http.MethodGet)
	api.HandleFunc("/team/{teamID}", h.GetTeam).Methods(http.MethodGet)
	api.HandleFunc("/archive/{league}", h.GetArchivedLeague).Methods(http.MethodGet)

	// Exports
	api.HandleFunc("/latest-data", h.GetLatestData).Methods(http.MethodGet)
	api.HandleFunc("/data-info", h.GetDataInfo).Methods(http.MethodGet)
	api.HandleFunc("/download/{filename}", h.DownloadFile).Methods(http.MethodGet)

	return router
}

// NewServer creates a new REST API server
func NewServer(port string, h *Handler, allowedOrigins []string) *Server {
	return &Server{
		port: port,
		log:  h.log,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           NewRouter(h, allowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	s.log.Info("REST API listening", "port", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
