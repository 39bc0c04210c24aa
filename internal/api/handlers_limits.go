// handlers_limits.go - Limit file upload and management handlers
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/limit-importer/backend/internal/storage"
	"go.uber.org/zap"
)

// defaultRecentLimit is how many files /recent returns without ?limit.
const defaultRecentLimit = 20

// LimitHandlerImpl implements the LimitHandler interface
type LimitHandlerImpl struct {
	store  storage.Store
	logger *zap.Logger
}

// NewLimitHandler creates a new limit file handler
func NewLimitHandler(store storage.Store, logger *zap.Logger) LimitHandler {
	return &LimitHandlerImpl{store: store, logger: logger}
}

// HandleUploadLimits accepts a multipart "file" field and stores it
func (h *LimitHandlerImpl) HandleUploadLimits(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return NewValidationError("file")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return NewBadRequestError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(fileHeader.Filename, src)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return NewPayloadTooLargeError(err)
		}
		return NewInternalError("failed to save file", err)
	}

	h.logger.Info("Limit file uploaded",
		zap.String("id", info.ID),
		zap.String("name", info.Name),
		zap.Int64("size", info.Size))
	return c.JSON(http.StatusCreated, info)
}

// HandleRecentLimits lists the most recently uploaded limit files
func (h *LimitHandlerImpl) HandleRecentLimits(c echo.Context) error {
	limit := defaultRecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	files, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetLimits returns the metadata of one limit file
func (h *LimitHandlerImpl) HandleGetLimits(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return importError("limit file", id, err)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteLimits removes a limit file
func (h *LimitHandlerImpl) HandleDeleteLimits(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return importError("limit file", id, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type renameLimitsRequest struct {
	Name string `json:"name"`
}

// HandleRenameLimits changes the display name of a limit file
func (h *LimitHandlerImpl) HandleRenameLimits(c echo.Context) error {
	id := c.Param("id")
	var req renameLimitsRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return NewValidationError("name")
	}

	info, err := h.store.Rename(id, strings.TrimSpace(req.Name))
	if err != nil {
		return importError("limit file", id, err)
	}
	return c.JSON(http.StatusOK, info)
}
