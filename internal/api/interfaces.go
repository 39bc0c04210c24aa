// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/limit-importer/backend/internal/models"
	"github.com/limit-importer/backend/internal/reconcile"
	"github.com/limit-importer/backend/internal/report"
	"github.com/limit-importer/backend/internal/storage"
)

// LimitHandler handles uploaded limit files
type LimitHandler interface {
	HandleUploadLimits(c echo.Context) error
	HandleRecentLimits(c echo.Context) error
	HandleGetLimits(c echo.Context) error
	HandleDeleteLimits(c echo.Context) error
	HandleRenameLimits(c echo.Context) error
}

// ImportHandler handles import runs and their reconciliation
type ImportHandler interface {
	HandleStartImport(c echo.Context) error
	HandleGetImport(c echo.Context) error
	HandleImportKeepAlive(c echo.Context) error
	HandleImportSummary(c echo.Context) error
	HandleImportSummaryMsgpack(c echo.Context) error
	HandleImportRunLog(c echo.Context) error
	HandleImportOutcomes(c echo.Context) error
	HandleReconcile(c echo.Context) error
}

// RigHandler exposes the hardware hierarchy
type RigHandler interface {
	HandleRigIndex(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ReconcileSocketHandler serves the WebSocket reconcile channel
type ReconcileSocketHandler interface {
	HandleReconcileSocket(c echo.Context) error
}

// ImportManager is the part of session.Manager the handlers use.
type ImportManager interface {
	StartImport(fileID, fileName, filePath string) (*models.ImportSession, error)
	GetImport(id string) (*models.ImportSession, bool)
	TouchImport(id string) bool
	Controller(id string) (*reconcile.Controller, error)
	Summary(id string) (*report.Summary, error)
	RunLog(id string) ([]string, error)
	Index() *models.HierarchyIndex
}

// AuditReader reads persisted run logs and outcomes.
// *storage.AuditStore implements it.
type AuditReader interface {
	RunLog(ctx context.Context, importID string) ([]storage.LogLine, error)
	Outcomes(ctx context.Context, importID string) ([]storage.OutcomeRow, error)
}
