package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirrortube/coordinator/internal/logger"
	"github.com/mirrortube/coordinator/internal/service"
)

// CommitHandler handles the commit and finalize endpoints.
type CommitHandler struct {
	commit   *service.CommitService
	finalize *service.FinalizeService
}

// NewCommitHandler creates a new commit handler.
func NewCommitHandler(commit *service.CommitService, finalize *service.FinalizeService) *CommitHandler {
	return &CommitHandler{commit: commit, finalize: finalize}
}

type commitRequest struct {
	WorkerID    string `json:"worker_id"`
	BatchID     string `json:"batch_id"`
	ContentSize int64  `json:"content_size"`
}

// Commit handles POST /api/commit. An empty upload_url in the response
// means the reported size verified and nothing should be uploaded.
func (h *CommitHandler) Commit(c *gin.Context) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}

	ctx := logger.WithFields(c.Request.Context(), logger.Fields{
		logger.FieldWorkerID: req.WorkerID,
		logger.FieldBatchID:  req.BatchID,
	})
	result, err := h.commit.Commit(ctx, req.WorkerID, req.BatchID, req.ContentSize)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type finalizeRequest struct {
	WorkerID string `json:"worker_id"`
	BatchID  string `json:"batch_id"`
}

// Finalize handles POST /api/finalize. Success is 204 No Content.
func (h *CommitHandler) Finalize(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}

	ctx := logger.WithFields(c.Request.Context(), logger.Fields{
		logger.FieldWorkerID: req.WorkerID,
		logger.FieldBatchID:  req.BatchID,
	})
	if err := h.finalize.Finalize(ctx, req.WorkerID, req.BatchID); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
