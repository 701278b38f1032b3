// Package server wires the HTTP surface: the diagnosis and consult proxy
// endpoints, the mock-mode save endpoint and the operational probes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"diagnosis-api/internal/common/config"
	"diagnosis-api/internal/common/database"
	"diagnosis-api/internal/common/logger"
	"diagnosis-api/internal/common/observability"
	"diagnosis-api/internal/diagnosis"
	"diagnosis-api/internal/engine"
	"diagnosis-api/internal/notify"
)

type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	logger   logger.Logger
	engine   *engine.Client
	store    *diagnosis.Store
	slack    *notify.SlackNotifier
	email    *notify.EmailNotifier
	postgres *database.PostgresClient
	redis    *database.RedisClient
	obs      *observability.Observability
	limiter  *RateLimiter
}

// Options carries the injected collaborators. Store, Slack, Email, Postgres
// and Redis are all optional; a nil value disables the corresponding
// side effect without affecting the request path.
type Options struct {
	Config   *config.Config
	Logger   logger.Logger
	Engine   *engine.Client
	Store    *diagnosis.Store
	Slack    *notify.SlackNotifier
	Email    *notify.EmailNotifier
	Postgres *database.PostgresClient
	Redis    *database.RedisClient
	Obs      *observability.Observability
}

func New(opts Options) *Server {
	if opts.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      opts.Config,
		router:   gin.New(),
		logger:   opts.Logger,
		engine:   opts.Engine,
		store:    opts.Store,
		slack:    opts.Slack,
		email:    opts.Email,
		postgres: opts.Postgres,
		redis:    opts.Redis,
		obs:      opts.Obs,
	}

	if opts.Redis != nil {
		s.limiter = NewRateLimiter(
			opts.Redis.GetClient(),
			opts.Config.Consult.RateLimit.Requests,
			time.Duration(opts.Config.Consult.RateLimit.Window)*time.Second,
			opts.Logger,
		)
	}

	s.router.Use(gin.Recovery())
	s.router.Use(s.requestID())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	{
		api.POST("/diagnosis", s.handleDiagnosis())
		api.POST("/diagnosis/save", s.handleDiagnosisSave())
		api.POST("/consult", s.rateLimit(), s.handleConsult())
		api.GET("/slack-test", s.handleSlackTest())
	}
	s.router.GET("/healthz", s.handleHealth())
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.logger.Info("http server started", map[string]interface{}{
		"port": s.cfg.Server.Port,
	})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}
		healthy := true

		if s.postgres != nil {
			if err := s.postgres.Ping(c.Request.Context()); err != nil {
				checks["postgres"] = "down"
				healthy = false
			} else {
				checks["postgres"] = "up"
			}
		}
		if s.redis != nil {
			if err := s.redis.Ping(c.Request.Context()); err != nil {
				checks["redis"] = "down"
				healthy = false
			} else {
				checks["redis"] = "up"
			}
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"healthy": healthy, "checks": checks})
	}
}
