package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nhankey2000/auto-post/internal/database"
)

// Health reports whether the database is reachable
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	status := gin.H{"status": "ok", "time": time.Now().UTC()}
	if err := database.Health(h.db); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
