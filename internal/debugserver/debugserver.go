// Package debugserver exposes health, Prometheus metrics and a JSON snapshot
// of the in-memory state on a local HTTP port.
package debugserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ruo0o0/music-album/internal/state"
)

const shutdownTimeout = 3 * time.Second

// Server serves /healthz, /metrics and /state.
type Server struct {
	store  *state.Store
	logger *slog.Logger
	router *gin.Engine
	srv    *http.Server
}

// New builds the router. Nothing listens until Start.
func New(store *state.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("album-debug"))

	s := &Server{store: store, logger: logger, router: router}
	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/state", s.snapshot)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type healthResponse struct {
	Status       string `json:"status"`
	Open         bool   `json:"open"`
	FeedOffline  bool   `json:"feed_offline"`
	FeedFailures int    `json:"feed_failures"`
}

func (s *Server) health(c *gin.Context) {
	sync := s.store.Feed.SyncStatus()
	resp := healthResponse{
		Status:       "ok",
		Open:         s.store.IsOpen(),
		FeedOffline:  sync.IsOffline(),
		FeedFailures: sync.ConsecutiveFailures,
	}
	if resp.FeedOffline {
		resp.Status = "degraded"
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Snapshot())
}

// Start listens on bind and serves in the background until ctx is done.
// It returns the bound address, useful when bind ends in ":0".
func (s *Server) Start(ctx context.Context, bind string) (string, error) {
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", bind, err)
	}
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("debug server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()
	addr := ln.Addr().String()
	s.logger.Info("debug server listening", "addr", addr)
	return addr, nil
}
