// Package server exposes the Syncer as an HTTP webhook.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ideamans/go-sheetsync"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// Options configures a Server
type Options struct {
	Logger      *slog.Logger
	SyncTimeout time.Duration // 0 disables the per-request deadline
	Debug       bool
}

// Server routes webhook requests to a Syncer
type Server struct {
	router  *gin.Engine
	syncer  *sheetsync.Syncer
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a server for syncer
func New(syncer *sheetsync.Syncer, opts Options) *Server {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:  gin.New(),
		syncer:  syncer,
		logger:  logger,
		timeout: opts.SyncTimeout,
	}

	s.router.Use(gin.Recovery(), s.requestID(), s.accessLog())
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.health)

	s.router.POST("/", s.sync)
	s.router.POST("/sync", s.sync)
	s.router.GET("/status/:spreadsheetId", s.status)
}

// Handler returns the http.Handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// sync always answers 200; the outcome is carried in the body
func (s *Server) sync(c *gin.Context) {
	req, err := sheetsync.ParseSyncRequest(c.Request.Body)
	if err != nil {
		s.logger.Warn("invalid sync request",
			slog.String("request_id", requestID(c)),
			slog.Any("error", err))
		c.JSON(http.StatusOK, sheetsync.SyncResult{
			Error: err.Error(),
			Kind:  sheetsync.KindOf(err),
		})
		return
	}

	ctx, cancel := s.context(c)
	defer cancel()

	c.JSON(http.StatusOK, s.syncer.Sync(ctx, req))
}

type statusResponse struct {
	SpreadsheetID string              `json:"spreadsheetId"`
	LastUpdated   *time.Time          `json:"lastUpdated,omitempty"`
	TotalRows     int                 `json:"totalRows"`
	Error         string              `json:"error,omitempty"`
	Kind          sheetsync.ErrorKind `json:"kind,omitempty"`
}

func (s *Server) status(c *gin.Context) {
	id := c.Param("spreadsheetId")

	ctx, cancel := s.context(c)
	defer cancel()

	record, err := s.syncer.LastSync(ctx, id)
	if err != nil {
		kind := sheetsync.KindOf(err)
		code := http.StatusInternalServerError
		switch kind {
		case sheetsync.KindDocumentNotFound:
			code = http.StatusNotFound
		case sheetsync.KindAccessDenied:
			code = http.StatusForbidden
		}
		c.JSON(code, statusResponse{SpreadsheetID: id, Error: err.Error(), Kind: kind})
		return
	}

	c.JSON(http.StatusOK, statusResponse{
		SpreadsheetID: id,
		LastUpdated:   &record.LastUpdated,
		TotalRows:     record.TotalRows,
	})
}

// context derives the sync context from the request, bounded by the configured timeout
// context derives the handler context: the request id for sync logs plus
// the configured deadline
func (s *Server) context(c *gin.Context) (context.Context, context.CancelFunc) {
	ctx := sheetsync.WithRequestID(c.Request.Context(), requestID(c))
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(c.Request.Context(), level, "request",
			slog.String("request_id", requestID(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)))
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(RequestIDHeader)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
