package http_api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/pkg/logger"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 10 * time.Second
)

// HTTPServer is the HTTP server struct that will serve the API
type HTTPServer struct {
	// logger is the logger instance
	logger *logger.Logger

	// router is the HTTP router
	router *gin.Engine
	// port is the port on which the server will listen
	port int

	// server is the underlying HTTP server
	server *http.Server

	// custos is the main application struct
	custos models.CustosI
	// gatherer exposes the collected metrics
	gatherer prometheus.Gatherer
	// webhook receives Telegram updates, nil in polling mode
	webhook http.HandlerFunc
}

// NewHTTPServer creates a new HTTP server instance
func NewHTTPServer(
	custos models.CustosI,
	gatherer prometheus.Gatherer,
	webhook http.HandlerFunc,
	port int,
	logger *logger.Logger,
) *HTTPServer {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	server := &HTTPServer{
		router:   router,
		port:     port,
		custos:   custos,
		gatherer: gatherer,
		webhook:  webhook,
		logger:   logger,
	}

	// Define routes
	server.routes()

	return server
}

// requestLogger logs every request through the application logger.
func requestLogger(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugw("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Start serves the API until Shutdown is called.
func (s *HTTPServer) Start() error {
	addr := fmt.Sprintf("0.0.0.0:%v", s.port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infow("Starting HTTP server", "address", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start the HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *HTTPServer) Shutdown() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	s.logger.Info("HTTP server shut down successfully")
	return nil
}
