package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Set at build time via -ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Get handles version requests
// @Summary      Version
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /version [get]
func Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Diagram Annotator API",
			"version":     Version,
			"commit":      Commit,
			"build_date":  BuildDate,
			"description": "Collaborative review of code diagrams",
			"status":      "running",
		})
	}
}
