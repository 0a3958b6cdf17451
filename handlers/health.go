package handlers

import (
	"net/http"

	"smovers/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the latest snapshot taken by the health monitor.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	state := "ok"
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(code, gin.H{"status": state, "message": "Hi, I'm S_Movers", "services": status.Services, "checkedAt": status.CheckedAt})
}
