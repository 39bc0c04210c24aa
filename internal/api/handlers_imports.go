// handlers_imports.go - Import run, summary and reconcile handlers
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/limit-importer/backend/internal/models"
	"github.com/limit-importer/backend/internal/parser"
	"github.com/limit-importer/backend/internal/reconcile"
	"github.com/limit-importer/backend/internal/report"
	"github.com/limit-importer/backend/internal/storage"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// maxEventBytes bounds a reconcile event body.
const maxEventBytes = 64 * 1024

// ImportHandlerImpl implements the ImportHandler interface
type ImportHandlerImpl struct {
	store   storage.Store
	imports ImportManager
	audit   AuditReader
	logger  *zap.Logger
}

// NewImportHandler creates a new import handler. audit may be nil.
func NewImportHandler(store storage.Store, imports ImportManager, audit AuditReader, logger *zap.Logger) ImportHandler {
	return &ImportHandlerImpl{store: store, imports: imports, audit: audit, logger: logger}
}

type startImportRequest struct {
	FileID string `json:"fileId"`
}

func (r *startImportRequest) validate() error {
	if r.FileID == "" {
		return NewValidationError("fileId")
	}
	return nil
}

type startImportResponse struct {
	Import  *models.ImportSession `json:"import"`
	Summary *report.Summary       `json:"summary"`
}

// HandleStartImport runs an uploaded limit file against the hardware and
// returns the end-of-run summary
func (h *ImportHandlerImpl) HandleStartImport(c echo.Context) error {
	var req startImportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	info, err := h.store.Get(req.FileID)
	if err != nil {
		return importError("limit file", req.FileID, err)
	}
	path, err := h.store.GetFilePath(req.FileID)
	if err != nil {
		return importError("limit file", req.FileID, err)
	}

	sess, err := h.imports.StartImport(info.ID, info.Name, path)
	if err != nil {
		h.markFile(info.ID, "error")
		var fileErr *parser.FileError
		if errors.As(err, &fileErr) {
			return NewLimitFileError(fileErr)
		}
		return NewInternalError("import failed", err)
	}
	h.markFile(info.ID, "imported")

	sum, err := h.imports.Summary(sess.ID)
	if err != nil {
		return importError("import", sess.ID, err)
	}
	return c.JSON(http.StatusCreated, startImportResponse{Import: sess, Summary: sum})
}

func (h *ImportHandlerImpl) markFile(id, status string) {
	if err := h.store.MarkStatus(id, status); err != nil {
		h.logger.Warn("Could not mark limit file", zap.String("id", id), zap.Error(err))
	}
}

// HandleGetImport returns the status of an import
func (h *ImportHandlerImpl) HandleGetImport(c echo.Context) error {
	id := c.Param("importId")
	sess, ok := h.imports.GetImport(id)
	if !ok {
		return NewNotFoundError("import", id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleImportKeepAlive extends the lifetime of an import
func (h *ImportHandlerImpl) HandleImportKeepAlive(c echo.Context) error {
	id := c.Param("importId")
	if !h.imports.TouchImport(id) {
		return NewNotFoundError("import", id)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleImportSummary returns the current summary as JSON
func (h *ImportHandlerImpl) HandleImportSummary(c echo.Context) error {
	id := c.Param("importId")
	sum, err := h.imports.Summary(id)
	if err != nil {
		return importError("import", id, err)
	}
	h.imports.TouchImport(id)
	return c.JSON(http.StatusOK, sum)
}

// HandleImportSummaryMsgpack returns the current summary as MessagePack
func (h *ImportHandlerImpl) HandleImportSummaryMsgpack(c echo.Context) error {
	id := c.Param("importId")
	sum, err := h.imports.Summary(id)
	if err != nil {
		return importError("import", id, err)
	}
	h.imports.TouchImport(id)

	data, err := msgpack.Marshal(sum)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleImportRunLog returns the run log of an import. ?source=audit reads
// the persisted log, which outlives the in-memory import.
func (h *ImportHandlerImpl) HandleImportRunLog(c echo.Context) error {
	id := c.Param("importId")
	if c.QueryParam("source") == "audit" {
		if h.audit == nil {
			return NewServiceUnavailableError("audit store is not configured")
		}
		lines, err := h.audit.RunLog(c.Request().Context(), id)
		if err != nil {
			return NewInternalError("failed to read run log", err)
		}
		return c.JSON(http.StatusOK, lines)
	}

	lines, err := h.imports.RunLog(id)
	if err != nil {
		return importError("import", id, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"importId": id,
		"lines":    lines,
	})
}

// HandleImportOutcomes returns the persisted pairing outcomes of an import
func (h *ImportHandlerImpl) HandleImportOutcomes(c echo.Context) error {
	if h.audit == nil {
		return NewServiceUnavailableError("audit store is not configured")
	}
	id := c.Param("importId")
	rows, err := h.audit.Outcomes(c.Request().Context(), id)
	if err != nil {
		return NewInternalError("failed to read outcomes", err)
	}
	if len(rows) == 0 {
		return NewNotFoundError("import", id)
	}
	return c.JSON(http.StatusOK, rows)
}

// HandleReconcile dispatches one reconcile event and returns the new state
func (h *ImportHandlerImpl) HandleReconcile(c echo.Context) error {
	id := c.Param("importId")
	ctrl, err := h.imports.Controller(id)
	if err != nil {
		return importError("import", id, err)
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxEventBytes))
	if err != nil {
		return NewBadRequestError("failed to read body", err)
	}
	event, err := reconcile.DecodeEvent(body)
	if err != nil {
		return NewBadRequestError("invalid reconcile event", err)
	}

	h.imports.TouchImport(id)
	state := ctrl.Dispatch(event)
	h.logger.Debug("Reconcile event",
		zap.String("import", id),
		zap.String("event", fmt.Sprintf("%T", event)),
		zap.String("phase", string(state.Phase)))
	return c.JSON(http.StatusOK, state)
}
