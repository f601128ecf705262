// Package api exposes generation, analysis and stored reports over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gokaycavdar/go-cdrguard/internal/logger"
	"github.com/gokaycavdar/go-cdrguard/internal/metrics"
	"github.com/gokaycavdar/go-cdrguard/pkg/engine"
	"github.com/gokaycavdar/go-cdrguard/pkg/generator"
	"github.com/gokaycavdar/go-cdrguard/pkg/geoip"
	"github.com/gokaycavdar/go-cdrguard/pkg/parser"
	"github.com/gokaycavdar/go-cdrguard/pkg/storage"
)

// Options wires the server dependencies. Engine and Store are required.
type Options struct {
	Addr     string
	Engine   *engine.Engine
	Store    storage.ReportStore
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// Geo fills empty connection countries when set.
	Geo geoip.CountryLookup

	// MaxUsers caps the population of the generate endpoint.
	MaxUsers int

	// DefaultSeed is used when a generate request carries no seed.
	DefaultSeed int64
}

type Server struct {
	router *gin.Engine
	opts   Options
}

func NewServer(opts Options) *Server {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewMetrics()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.MaxUsers <= 0 {
		opts.MaxUsers = generator.MaxUsers
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	s := &Server{router: router, opts: opts}
	s.setupRoutes()
	return s
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))

	v1 := s.router.Group("/api/v1")
	v1.POST("/generate", s.handleGenerate)
	v1.POST("/analyze", s.handleAnalyze)
	v1.GET("/reports/:owner", s.handleListReports)
	v1.GET("/reports/:owner/:name", s.handleGetReport)
}

// ShutdownTimeout bounds the graceful shutdown of Serve.
const ShutdownTimeout = 10 * time.Second

// Serve listens on Options.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.APILog.Infof("listening on %s", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	logger.APILog.Info("shutting down")
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
}

func (s *Server) handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger logs every request through the API category logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.APILog.WithFields(map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request")
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		cfgErr    *generator.ConfigError
		schemaErr *parser.SchemaError
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &schemaErr), errors.Is(err, parser.ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.APILog.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
