package handlers

import (
	"net/http"

	"selftape/utils"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports the last dependency snapshot. It answers 503 when any
// dependency is down.
func HealthCheck(monitor *utils.HealthMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := monitor.Status()
		if status.CheckedAt.IsZero() {
			status = monitor.Check(c.Request.Context())
		}
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": statusWord(status.Healthy), "dependencies": status.Dependencies, "checkedAt": status.CheckedAt})
	}
}

func statusWord(ok bool) string {
	if ok {
		return "ok"
	}
	return "degraded"
}
