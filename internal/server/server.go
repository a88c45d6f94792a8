package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"car-park/internal/carpark"
	"car-park/internal/logging"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(port, serviceName string, carPark *carpark.InstrumentedCarPark) *Server {
	handler := NewHandler(carPark, serviceName)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewRegistryCollector(carPark),
	)

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(OTelHTTP(serviceName))
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/spots", func(r chi.Router) {
			r.Post("/", handler.AddSpot)
			r.Get("/", handler.ListSpots)
			r.Get("/{spotID}", handler.GetSpot)
			r.Delete("/{spotID}", handler.DeleteSpot)
			r.Post("/{spotID}/park", handler.ParkCar)
		})
		r.Route("/cars", func(r chi.Router) {
			r.Get("/", handler.FindCarsByMake)
			r.Get("/{registration}", handler.FindCar)
			r.Delete("/{registration}", handler.RemoveCar)
		})
		r.Post("/reset", handler.Reset)
	})

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
	}
}

// Start blocks until the server stops. A graceful Shutdown returns nil.
func (s *Server) Start() error {
	logging.Logger().Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Logger().Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
