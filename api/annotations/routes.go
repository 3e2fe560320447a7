package annotations

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api/types"
)

// RegisterRoutes registers annotation routes. Every route needs a session.
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.GET("/:sample_id", Open(deps))
	router.POST("/:sample_id", Save(deps))
}
