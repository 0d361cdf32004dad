package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courtbook/utils"
)

// HealthHandler reports the latest dependency snapshot.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Redis || !status.Telegram {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
