package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PagesHandler serves the landing page and health check.
type PagesHandler struct{}

// NewPagesHandler creates a new pages handler.
func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

const landingPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>MirrorTube Coordinator</title>
<style>
body { font-family: sans-serif; max-width: 42em; margin: 3em auto; padding: 0 1em; color: #222; }
code { background: #f4f4f4; padding: 0.1em 0.3em; }
</style>
</head>
<body>
<h1>MirrorTube Coordinator</h1>
<p>This server coordinates a volunteer swarm archiving video metadata.
Workers pull batches of video IDs, archive them, and upload the results
to community object storage.</p>
<p>Enroll a worker with <code>POST /api/workers/create</code>, then fetch
work from <code>POST /api/batches</code>. Progress counters live at
<a href="/api/stats">/api/stats</a>.</p>
<p>Know a video, playlist or channel we should be preserving? Submit it
through <code>/api/videos/submit</code>, <code>/api/playlists/submit</code>
or <code>/api/channels/submit</code>.</p>
</body>
</html>
`

// Landing handles GET /.
func (h *PagesHandler) Landing(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(landingPage))
}

// Health handles GET /health.
func (h *PagesHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
