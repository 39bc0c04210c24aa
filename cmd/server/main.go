package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/limit-importer/backend/internal/api"
	"github.com/limit-importer/backend/internal/config"
	"github.com/limit-importer/backend/internal/engine"
	"github.com/limit-importer/backend/internal/hardware/sim"
	"github.com/limit-importer/backend/internal/metrics"
	"github.com/limit-importer/backend/internal/runlog"
	"github.com/limit-importer/backend/internal/session"
	"github.com/limit-importer/backend/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	configPath := filepath.Join(filepath.Dir(exePath), config.FileName)
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	logConfig := zap.NewProductionConfig()
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if level, err := zapcore.ParseLevel(cfg.Advanced.LogLevel); err == nil {
		logConfig.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := logConfig.Build()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	atexit.Register(func() { _ = logger.Sync() })

	if err := run(cfg, configPath, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func run(cfg *config.AppConfig, configPath string, logger *zap.Logger) error {
	policy, err := engine.LinkPolicyByName(cfg.Matching.LinkDetection)
	if err != nil {
		return err
	}

	rig, err := sim.LoadRig(cfg.Matching.RigFile)
	if err != nil {
		return fmt.Errorf("loading rig: %w", err)
	}

	maxUpload, err := cfg.MaxUploadBytes()
	if err != nil {
		return err
	}
	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir(), maxUpload)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	sessionCfg := session.Config{
		Hardware:   rig,
		LinkPolicy: policy,
		Metrics:    metrics.New(prometheus.DefaultRegisterer),
		Logger:     logger,
		MaxImports: cfg.Imports.MaxImports,
		MaxAge:     cfg.ImportTimeout(),
	}
	deps := &api.Dependencies{
		Store:   fileStore,
		Logger:  logger,
		Version: Version,
	}

	var audits session.Auditors
	if cfg.Storage.EnableAudit {
		audit, err := storage.OpenAuditStore(cfg.Storage.AuditDatabase, storage.AuditOptions{
			Threads:     cfg.Advanced.DuckDBThreads,
			MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
		}, logger)
		if err != nil {
			return fmt.Errorf("opening audit store: %w", err)
		}
		atexit.Register(func() { _ = audit.Close() })
		audits = append(audits, audit)
		deps.Audit = audit
	}
	if cfg.Storage.RunLogFile != "" {
		file, err := runlog.OpenFile(cfg.Storage.RunLogFile)
		if err != nil {
			return err
		}
		atexit.Register(func() { _ = file.Close() })
		audits = append(audits, session.LogAuditor{Log: file})
	}
	switch len(audits) {
	case 0:
	case 1:
		sessionCfg.Audit = audits[0]
	default:
		sessionCfg.Audit = audits
	}

	sessionMgr := session.NewManager(sessionCfg)
	deps.Imports = sessionMgr

	ctx, cancel := context.WithCancel(context.Background())
	atexit.Register(cancel)
	go sessionMgr.RunJanitor(ctx, cfg.CleanupInterval())

	api.SetErrorDetails(cfg.Advanced.ShowErrorDetails)

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, api.MiddlewareConfig{
		Logger:         logger,
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		BodyLimit:      cfg.Server.BodyLimit,
		Timeout:        time.Duration(cfg.Server.ReadTimeout) * time.Second,
		AllowOrigins:   splitOrigins(cfg.Server.AllowOrigins),
	})
	api.RegisterRoutes(e, api.NewHandlers(deps))

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Limit Importer Server                           ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Rig:        %-45s║\n", rig.Name())
	fmt.Printf("║  Links:      %-45s║\n", cfg.Matching.LinkDetection)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
