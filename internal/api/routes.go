// routes.go - Route registration helpers
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/limit-importer/backend/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store    storage.Store
	Imports  ImportManager
	Audit    AuditReader         // optional
	Gatherer prometheus.Gatherer // defaults to prometheus.DefaultGatherer
	Logger   *zap.Logger
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Limits    LimitHandler
	Imports   ImportHandler
	Rig       RigHandler
	Reconcile ReconcileSocketHandler
	Metrics   echo.HandlerFunc
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Handlers{
		Health:    NewHealthHandler(deps.Version),
		Limits:    NewLimitHandler(deps.Store, logger),
		Imports:   NewImportHandler(deps.Store, deps.Imports, deps.Audit, logger),
		Rig:       NewRigHandler(deps.Imports),
		Reconcile: NewWebSocketHandler(deps.Imports, logger),
		Metrics:   echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	limitsGroup := apiGroup.Group("/limits")
	limitsGroup.POST("/upload", handlers.Limits.HandleUploadLimits)
	limitsGroup.GET("/recent", handlers.Limits.HandleRecentLimits)
	limitsGroup.GET("/:id", handlers.Limits.HandleGetLimits)
	limitsGroup.DELETE("/:id", handlers.Limits.HandleDeleteLimits)
	limitsGroup.PUT("/:id/name", handlers.Limits.HandleRenameLimits)

	importGroup := apiGroup.Group("/imports")
	importGroup.POST("", handlers.Imports.HandleStartImport)
	importGroup.GET("/:importId", handlers.Imports.HandleGetImport)
	importGroup.POST("/:importId/keepalive", handlers.Imports.HandleImportKeepAlive)
	importGroup.GET("/:importId/summary", handlers.Imports.HandleImportSummary)
	importGroup.GET("/:importId/summary/msgpack", handlers.Imports.HandleImportSummaryMsgpack)
	importGroup.GET("/:importId/runlog", handlers.Imports.HandleImportRunLog)
	importGroup.GET("/:importId/outcomes", handlers.Imports.HandleImportOutcomes)
	importGroup.POST("/:importId/reconcile", handlers.Imports.HandleReconcile)
	importGroup.GET("/:importId/ws", handlers.Reconcile.HandleReconcileSocket)

	apiGroup.GET("/rig/index", handlers.Rig.HandleRigIndex)

	e.GET("/metrics", handlers.Metrics)
}

// MiddlewareConfig tunes SetupMiddleware.
type MiddlewareConfig struct {
	Logger         *zap.Logger
	RequestLogging bool
	BodyLimit      string        // e.g. "50M"; empty disables the limit
	Timeout        time.Duration // 0 disables the timeout
	AllowOrigins   []string      // empty disables CORS
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/metrics"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("Request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("Request", fields...)
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 * 1024,
	}))

	if cfg.Timeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: cfg.Timeout,
			Skipper: func(c echo.Context) bool {
				return skipTimeout(c.Request().URL.Path)
			},
			ErrorMessage: "Request timeout",
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if len(cfg.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}

// skipTimeout reports whether a request may outlive the request timeout.
// Import routes write to hardware and always answer with the real result.
func skipTimeout(path string) bool {
	return strings.HasSuffix(path, "/ws") ||
		strings.Contains(path, "/upload") ||
		strings.HasPrefix(path, "/api/imports")
}
