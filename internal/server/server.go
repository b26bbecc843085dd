package server

import (
	"context"
	"net/http"
	"time"

	"space-trips/internal/auth"
	"space-trips/internal/booking"
	"space-trips/internal/config"
	"space-trips/internal/database"
	"space-trips/internal/logger"
	"space-trips/internal/metrics"
	"space-trips/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

// Catalog is the read side of the launch catalog used by the handlers.
type Catalog interface {
	GetLaunch(ctx context.Context, id int) (*models.Launch, error)
	GetLaunchesByIDs(ctx context.Context, ids []int) ([]models.Launch, error)
	ListLaunches(ctx context.Context, after string, pageSize int) (models.LaunchConnection, error)
}

// Deps are the collaborators the server is built from.
type Deps struct {
	DB       database.Service
	Catalog  Catalog
	Logger   logger.Logger
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
}

type Server struct {
	db       database.Service
	catalog  Catalog
	resolver *auth.Resolver
	bookings *booking.Service
	limiter  *ipRateLimiter
	logger   logger.Logger
	gatherer prometheus.Gatherer
}

func newServer(cfg *config.Config, d Deps) *Server {
	return &Server{
		db:       d.DB,
		catalog:  d.Catalog,
		resolver: auth.NewResolver(d.DB, d.Logger),
		bookings: booking.NewService(d.Catalog, d.DB, d.Logger, d.Metrics),
		limiter:  newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		logger:   d.Logger,
		gatherer: d.Gatherer,
	}
}

// NewServer builds the HTTP server with all routes registered.
func NewServer(cfg *config.Config, d Deps) *http.Server {
	s := newServer(cfg, d)

	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.RegisterRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
