package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirrortube/coordinator/internal/logger"
	"github.com/mirrortube/coordinator/internal/service"
)

// BatchHandler handles batch dispatch and refetch endpoints.
type BatchHandler struct {
	dispatch *service.DispatchService
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(dispatch *service.DispatchService) *BatchHandler {
	return &BatchHandler{dispatch: dispatch}
}

type workerRequest struct {
	WorkerID string `json:"worker_id"`
}

// Next handles POST /api/batches: assigns the worker its next batch.
func (h *BatchHandler) Next(c *gin.Context) {
	var req workerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}

	ctx := logger.SetWorkerID(c.Request.Context(), req.WorkerID)
	assignment, err := h.dispatch.Next(ctx, req.WorkerID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// Refetch handles POST /api/batches/:id: returns the payload of the batch
// the worker is currently bound to.
func (h *BatchHandler) Refetch(c *gin.Context) {
	var req workerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}

	ctx := logger.SetWorkerID(c.Request.Context(), req.WorkerID)
	assignment, err := h.dispatch.Refetch(ctx, req.WorkerID, c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}
