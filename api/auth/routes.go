package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the session endpoints
func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)
	router.GET("/me", h.AuthMiddleware(), h.Me)
}
