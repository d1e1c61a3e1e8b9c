package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gkemhcs/slidebox/internal/config"
	"github.com/Gkemhcs/slidebox/internal/connect"
	"github.com/Gkemhcs/slidebox/internal/db"
	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	"github.com/Gkemhcs/slidebox/internal/metrics"
	"github.com/Gkemhcs/slidebox/internal/middleware"
	"github.com/Gkemhcs/slidebox/internal/session"
	"github.com/Gkemhcs/slidebox/internal/slides"
	"github.com/Gkemhcs/slidebox/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server for slidebox.
type Server struct {
	cfg     *config.Config
	log     *logrus.Logger
	engine  *gin.Engine
	db      *sqlx.DB // for health checks
	metrics *metrics.Metrics
	now     func() time.Time
}

// SetupRoutes registers the session middleware and every application route.
// Slide routes are only mounted when the provider serves Dropbox files.
func (s *Server) SetupRoutes(connectHandler *connect.ConnectHandler,
	slidesHandler *slides.SlidesHandler,
	codec *session.Codec,
	withSlides bool) {
	app := s.engine.Group("/")
	app.Use(middleware.SessionMiddleware(codec, s.metrics, s.log))

	connect.RegisterConnectRoutes(connectHandler, app)
	slides.RegisterPageRoutes(slidesHandler, app)
	if withSlides {
		slides.RegisterSlidesRoutes(slidesHandler, app)
	}
}

// routes registers health check, metrics and other non-session routes.
func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "slidebox is healthy",
		})
	})

	// Detailed health check with database connection pool stats
	s.engine.GET("/healthz/detailed", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "error",
				"message": "Database connection failed",
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "slidebox is healthy",
			"database": gin.H{
				"status": "connected",
				"pool":   db.GetConnectionStats(s.db),
			},
			"timestamp": gin.H{
				"server_time": s.now().UTC().Format(time.RFC3339),
			},
		})
	})

	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.engine.NoRoute(func(c *gin.Context) {
		utils.RespondError(c, apperrors.ErrNotFound)
	})
}

// New creates a new Server instance with the given config and logger.
func New(cfg *config.Config, log *logrus.Logger, conn *sqlx.DB, m *metrics.Metrics) *Server {
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log))

	s := &Server{
		cfg:     cfg,
		log:     log,
		engine:  engine,
		db:      conn,
		metrics: m,
		now:     time.Now,
	}
	s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the HTTP server on the configured port until ctx is cancelled,
// then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
