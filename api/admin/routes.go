package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api/types"
)

// RegisterRoutes registers admin routes. The caller guards the group.
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.POST("/upload", Upload(deps))
	router.GET("/tasks", ListTasks(deps))
	router.DELETE("/tasks/:id", DeleteTask(deps))
	router.GET("/annotations", ListAnnotations(deps))
	router.GET("/export", Export(deps))

	users := router.Group("/users")
	{
		users.GET("", ListUsers(deps))
		users.POST("", CreateUser(deps))
		users.POST("/:id/upgrade", UpgradeUser(deps))
		users.DELETE("/:id", DeleteUser(deps))
	}
}
