package dataset

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api/types"
)

// RegisterRoutes registers the dataset browsing routes. requireAuth guards
// the per-user dashboard.
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies, requireAuth gin.HandlerFunc) {
	router.GET("/tasks", ListTasks(deps))
	router.GET("/dataset", ListDataset(deps))
	router.GET("/dashboard", requireAuth, Dashboard(deps))
}
