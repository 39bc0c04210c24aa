// handlers_rig.go - Hardware hierarchy handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RigHandlerImpl implements the RigHandler interface
type RigHandlerImpl struct {
	imports ImportManager
}

// NewRigHandler creates a new rig handler
func NewRigHandler(imports ImportManager) RigHandler {
	return &RigHandlerImpl{imports: imports}
}

// HandleRigIndex walks the hardware session and returns a fresh index
func (h *RigHandlerImpl) HandleRigIndex(c echo.Context) error {
	return c.JSON(http.StatusOK, h.imports.Index())
}
