package routes

import (
	"github.com/gin-gonic/gin"

	"courtbook/handlers"
)

// RegisterRoutes wires the operational HTTP surface. The bot itself speaks
// Telegram long polling; HTTP exists only for liveness probes.
func RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", handlers.HealthHandler)
}
