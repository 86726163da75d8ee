package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirrortube/coordinator/internal/service"
)

// WorkerHandler handles worker enrollment and recovery endpoints.
type WorkerHandler struct {
	registry *service.RegistryService
}

// NewWorkerHandler creates a new worker handler.
func NewWorkerHandler(registry *service.RegistryService) *WorkerHandler {
	return &WorkerHandler{registry: registry}
}

// Create handles POST /api/workers/create.
func (h *WorkerHandler) Create(c *gin.Context) {
	enrollment, err := h.registry.Create(c.Request.Context(), c.ClientIP())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

// List handles GET /api/workers, returning the worker IDs enrolled from the
// caller's address so a client can recover a lost identity.
func (h *WorkerHandler) List(c *gin.Context) {
	ids, err := h.registry.ListByIP(c.Request.Context(), c.ClientIP())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workers": ids})
}
