package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SubmissionCORS allows browser clients from any origin to call the
// community submission endpoints, including the OPTIONS preflight.
func SubmissionCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
