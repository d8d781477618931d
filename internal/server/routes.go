package server

import (
	"github.com/screepskit/screepskit/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	health := handlers.NewHealthManager(handlers.AppVersion)
	if s.deps.Store != nil {
		health.RegisterChecker("store", s.deps.Store)
	}

	s.router.Get("/health", health.HealthHandler)
	s.router.Get("/version", handlers.VersionHandler(s.deps.BaseURL))
	s.router.Method("GET", "/metrics", MetricsHandler(s.deps.Collector, s.deps.RateLimits))
	if s.deps.RateLimits != nil {
		s.router.Get("/rate-limits", handlers.RateLimitsHandler(s.deps.RateLimits))
	}

	if s.deps.API != nil {
		s.router.Get("/shards", handlers.ShardsHandler(s.deps.API))
		s.router.Get("/time/{shard}", handlers.TimeHandler(s.deps.API))
	}
}
