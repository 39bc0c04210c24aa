// Package config provides XML-based configuration management for bench deployment.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/bytes"
)

// FileName is the configuration file looked up next to the executable.
const FileName = "LimitImporter.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"LimitImporter"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Matching configuration
	Matching MatchingConfig `xml:"Matching"`

	// Import session configuration
	Imports ImportsConfig `xml:"Imports"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	AllowOrigins string `xml:"AllowOrigins"` // comma separated; empty disables CORS
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	AuditDatabase    string `xml:"AuditDatabase"`
	RunLogFile       string `xml:"RunLogFile"` // empty keeps the run log in memory and the audit store only
	MaxUploadSize    string `xml:"MaxUploadSize"`
	EnableAudit      bool   `xml:"EnableAudit"`
}

// MatchingConfig controls how limits are written to the hardware. Key
// matching itself is always trimmed and case-insensitive.
type MatchingConfig struct {
	LinkDetection string `xml:"LinkDetection"` // capability, sentinel or off
	RigFile       string `xml:"RigFile"`       // simulated rig description (.xml or .yaml)
}

// ImportsConfig controls how long import sessions are kept
type ImportsConfig struct {
	MaxImports             int `xml:"MaxImports"`
	ImportTimeoutMinutes   int `xml:"ImportTimeoutMinutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	ShowErrorDetails     bool   `xml:"ShowErrorDetails"`
	DuckDBThreads        int    `xml:"DuckDBThreads"`
	DuckDBMemoryLimit    string `xml:"DuckDBMemoryLimit"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			AllowOrigins: "http://localhost:5173,http://127.0.0.1:5173",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			AuditDatabase:    "./data/audit.duckdb",
			MaxUploadSize:    "32M",
			EnableAudit:      true,
		},
		Matching: MatchingConfig{
			LinkDetection: "capability",
			RigFile:       "./rig.xml",
		},
		Imports: ImportsConfig{
			MaxImports:             10,
			ImportTimeoutMinutes:   30,
			CleanupIntervalMinutes: 5,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			ShowErrorDetails:     true,
			DuckDBThreads:        2,
			DuckDBMemoryLimit:    "256MB",
		},
	}
}

// LoadConfig loads configuration from an XML file. A missing file is
// created with the defaults. A .env file next to the config is loaded
// before the environment overrides are applied.
func LoadConfig(configPath string) (*AppConfig, error) {
	configDir := filepath.Dir(configPath)
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := loadDotEnv(configDir); err != nil {
		return nil, err
	}
	config.applyEnvironmentOverrides()
	config.resolvePaths(configDir)

	return config, nil
}

func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Limit Importer Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.AuditDatabase = filepath.Join(dataDir, "audit.duckdb")
	}

	if runLog := os.Getenv("LIMIT_RUNLOG"); runLog != "" {
		c.Storage.RunLogFile = runLog
	}

	if rig := os.Getenv("LIMIT_RIG"); rig != "" {
		c.Matching.RigFile = rig
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.AuditDatabase,
		&c.Storage.RunLogFile,
		&c.Matching.RigFile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// MaxUploadBytes parses MaxUploadSize ("32M", "1GB"). Empty means unlimited.
func (c *AppConfig) MaxUploadBytes() (int64, error) {
	if c.Storage.MaxUploadSize == "" {
		return 0, nil
	}
	n, err := bytes.Parse(c.Storage.MaxUploadSize)
	if err != nil {
		return 0, fmt.Errorf("invalid MaxUploadSize %q: %w", c.Storage.MaxUploadSize, err)
	}
	return n, nil
}

// ImportTimeout returns how long an idle import is kept.
func (c *AppConfig) ImportTimeout() time.Duration {
	return time.Duration(c.Imports.ImportTimeoutMinutes) * time.Minute
}

// CleanupInterval returns how often idle imports are dropped.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Imports.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Imports.CleanupIntervalMinutes) * time.Minute
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		filepath.Dir(c.Storage.AuditDatabase),
	}
	if c.Storage.RunLogFile != "" {
		dirs = append(dirs, filepath.Dir(c.Storage.RunLogFile))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
