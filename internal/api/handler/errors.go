package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirrortube/coordinator/internal/logger"
	"github.com/mirrortube/coordinator/internal/service"
)

// renderError writes the error envelope. Protocol errors surface to the
// client with their code and HTTP 403; anything else aborted its
// transaction and becomes an opaque 500.
func renderError(c *gin.Context, err error) {
	var perr *service.ProtocolError
	if errors.As(err, &perr) {
		body := gin.H{
			"error":      perr.Message,
			"error_code": perr.Code,
		}
		switch perr.Code {
		case service.CodeMustCommitCurrent, service.CodeSizeMismatch:
			body["batch_id"] = perr.BatchID
		}
		c.JSON(http.StatusForbidden, body)
		return
	}

	logger.CtxError(c.Request.Context(), "Request failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":      "internal server error",
		"error_code": http.StatusInternalServerError,
	})
}

// renderBadRequest writes the envelope for malformed request bodies.
func renderBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      "invalid request: " + err.Error(),
		"error_code": http.StatusBadRequest,
	})
}
