package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api/types"
)

// Get handles health check requests
// @Summary      Health check
// @Description  Reports service and database status. Answers 503 when the database is unreachable.
// @Tags         health
// @Produce      json
// @Success      200 {object} types.HealthResponse
// @Failure      503 {object} types.HealthResponse
// @Router       /health [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		database, healthy := getDatabaseStatus(deps)

		response := types.HealthResponse{
			BaseResponse: types.OK("healthy"),
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			Database:     database,
		}
		status := http.StatusOK
		if !healthy {
			response.BaseResponse = types.BaseResponse{Status: types.StatusError, Message: "unhealthy"}
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, response)
	}
}

// getDatabaseStatus returns the database connection status
func getDatabaseStatus(deps *types.Dependencies) (gin.H, bool) {
	if deps == nil || deps.DB == nil || deps.DB.DB == nil {
		return gin.H{"status": "not configured"}, true
	}

	if err := deps.DB.HealthCheck(); err != nil {
		return gin.H{"status": "unhealthy", "error": err.Error()}, false
	}

	return gin.H{"status": "healthy"}, true
}
