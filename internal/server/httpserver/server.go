// Package httpserver exposes the capsule API over HTTP with gin.
package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/dmitrijs2005/timecapsule/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type CapsuleAPI interface {
	List(ctx context.Context, userID string) ([]*services.CapsuleView, error)
	Get(ctx context.Context, userID, id string) (*services.CapsuleView, error)
	GetMedia(ctx context.Context, userID, id string) ([]*models.Media, error)
	OpenMedia(ctx context.Context, userID, capsuleID, mediaID string) (*models.Media, io.ReadCloser, error)
	Create(ctx context.Context, userID string, in services.CreateCapsuleInput) (*services.CapsuleView, error)
	Delete(ctx context.Context, userID, id string) error
}

type AccountAPI interface {
	Profile(ctx context.Context, userID string) (*models.User, error)
}

type Deps struct {
	Capsules  CapsuleAPI
	Accounts  AccountAPI
	SecretKey []byte
	// MaxUploadBytes caps the size of a create request body; zero means no cap.
	MaxUploadBytes int64
}

// HTTPServer wraps the gin engine with graceful shutdown.
type HTTPServer struct {
	addr   string
	engine *gin.Engine
	log    logging.Logger
}

func New(addr string, deps Deps, log logging.Logger) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	log = log.With("module", "http_server")

	engine := gin.New()
	engine.Use(gin.Recovery(), metricsMiddleware())

	h := &handlers{
		capsules:       deps.Capsules,
		accounts:       deps.Accounts,
		maxUploadBytes: deps.MaxUploadBytes,
		log:            log,
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Server is running"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/capsules", authMiddleware(deps.SecretKey, log))
	api.GET("/me", h.me)
	api.GET("", h.list)
	api.POST("", h.create)
	api.GET("/:id", h.get)
	api.GET("/:id/media", h.media)
	api.GET("/:id/media/:mediaId/content", h.mediaContent)
	api.DELETE("/:id", h.delete)

	return &HTTPServer{addr: addr, engine: engine, log: log}
}

// Handler returns the underlying http.Handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "Starting HTTP server", "address", s.addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info(ctx, "Stopping HTTP server...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
