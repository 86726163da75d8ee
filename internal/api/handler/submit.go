package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirrortube/coordinator/internal/service"
)

// SubmitHandler handles community submission endpoints.
type SubmitHandler struct {
	submissions *service.SubmissionService
}

// NewSubmitHandler creates a new submission handler.
func NewSubmitHandler(submissions *service.SubmissionService) *SubmitHandler {
	return &SubmitHandler{submissions: submissions}
}

// Videos handles POST /api/videos/submit.
func (h *SubmitHandler) Videos(c *gin.Context) {
	var req struct {
		Videos []string `json:"videos"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}

	inserted, err := h.submissions.SubmitVideos(c.Request.Context(), req.Videos)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

// Playlists handles POST /api/playlists/submit.
func (h *SubmitHandler) Playlists(c *gin.Context) {
	var req struct {
		Playlists []string `json:"playlists"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}

	inserted, err := h.submissions.SubmitPlaylists(c.Request.Context(), req.Playlists)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

// Channels handles POST /api/channels/submit.
func (h *SubmitHandler) Channels(c *gin.Context) {
	var req struct {
		Channels []string `json:"channels"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}

	inserted, err := h.submissions.SubmitChannels(c.Request.Context(), req.Channels)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}
