package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ogboNoble001/brightnal-backend/internal/catalog"
)

// HealthHandler reports the dependency status captured at boot.
type HealthHandler struct {
	status catalog.DependencyStatus
}

// NewHealthHandler creates the handler.
func NewHealthHandler(status catalog.DependencyStatus) *HealthHandler {
	return &HealthHandler{status: status}
}

// Check returns 200 when every dependency answered its startup probe,
// 503 otherwise.
func (h *HealthHandler) Check(c echo.Context) error {
	code := http.StatusOK
	status := "ok"
	if !h.status.Database || !h.status.ObjectStore {
		code = http.StatusServiceUnavailable
		status = "degraded"
	}
	return c.JSON(code, echo.Map{
		"status":         status,
		"database":       h.status.Database,
		"object_storage": h.status.ObjectStore,
	})
}
