package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hhkbp2/go-logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/udawtr/isaglobe-go/metrics"
)

// Config holds the listener and request limits of a Server.
type Config struct {
	// Addr is the host:port to listen on.
	Addr string
	// MaxSamples caps the altitudes of a profile request and the vertices of a globe request.
	MaxSamples int
	// Workers is the profile concurrency; < 1 uses GOMAXPROCS.
	Workers int
	// AccessLog receives one Apache combined log line per request. Nil disables it.
	AccessLog io.Writer
}

// DefaultConfig listens on 0.0.0.0:8086 and writes the access log to stdout.
func DefaultConfig() *Config {
	return &Config{
		Addr:       "0.0.0.0:8086",
		MaxSamples: 10_000,
		Workers:    0,
		AccessLog:  os.Stdout,
	}
}

// Server answers atmosphere, profile and globe queries over HTTP.
type Server struct {
	Config *Config

	logger   logging.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
}

// New creates a Server with its own metrics registry. A nil config uses
// DefaultConfig.
func New(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	reg := prometheus.NewRegistry()
	return &Server{
		Config:   config,
		logger:   logging.GetLogger("isaglobe.server"),
		registry: reg,
		metrics:  metrics.NewCollector(reg),
	}
}

// NewRouter registers the API routes.
func (s *Server) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(permissiveCorsMiddleware)

	router.Path("/ping").HandlerFunc(pingPong).Methods(http.MethodGet)
	router.Path("/metrics").Handler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	apiJSONRoutes := router.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/atmosphere").HandlerFunc(s.handleAtmosphere).Methods(http.MethodGet)
	apiJSONRoutes.Path("/atmosphere/{alt}").HandlerFunc(s.handleAtmosphere).Methods(http.MethodGet)
	apiJSONRoutes.Path("/profile").HandlerFunc(s.handleProfile).Methods(http.MethodGet)
	apiJSONRoutes.Path("/globe").HandlerFunc(s.handleGlobe).Methods(http.MethodGet)
	apiJSONRoutes.Path("/layers").HandlerFunc(handleLayers).Methods(http.MethodGet)

	return router
}

// Handler returns the router wrapped with access logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.NewRouter()
	if s.Config.AccessLog != nil {
		h = ghandlers.CombinedLoggingHandler(s.Config.AccessLog, h)
	}
	return h
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting server on %s", s.Config.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Infof("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
