// Package server exposes the analysis proxy, the certificate renderer and the
// UI configuration over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/easeaico/truthlab/internal/certificate"
	"github.com/easeaico/truthlab/internal/config"
	"github.com/easeaico/truthlab/internal/metrics"
	"github.com/easeaico/truthlab/internal/types"
)

// RecordAnalyzer performs the remote analysis for the proxy endpoint.
type RecordAnalyzer interface {
	AnalyzeRecord(ctx context.Context, req types.AnalysisRequest) (types.PersonalityRecord, error)
}

// Options configures the router.
type Options struct {
	Config   config.Config
	Analyzer RecordAnalyzer
	Renderer *certificate.Renderer
	// Now stamps certificates. Defaults to time.Now.
	Now func() time.Time
}

// NewRouter builds the gin engine with logging, recovery, CORS and metrics.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("http router requires an analyzer")
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("http router requires a certificate renderer")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Config.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))

	h := &handlers{analyzer: opts.Analyzer, renderer: opts.Renderer, cfg: opts.Config, now: opts.Now}

	api := engine.Group("/api")
	api.POST("/analyze", h.analyze)
	api.POST("/certificate", h.certificate)
	api.GET("/config", h.uiConfig)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	if opts.Config.StaticDir != "" {
		engine.Use(static.Serve("/", static.LocalFile(opts.Config.StaticDir, true)))
	}

	return engine, nil
}

// New wraps the router in an http.Server listening on addr.
func New(addr string, opts Options) (*http.Server, error) {
	engine, err := NewRouter(opts)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(status)).Inc()

		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", duration.String(),
		)
	}
}
