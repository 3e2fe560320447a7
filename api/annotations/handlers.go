package annotations

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api/types"
	"github.com/killallgit/diagram-annotator/internal/models"
	"github.com/killallgit/diagram-annotator/internal/services/annotations"
	"go.uber.org/zap"
)

// Open returns the caller's working copy of a sample
// @Summary      Open sample for annotation
// @Description  Returns the caller's instance of the sample, cloning it from the template on first access, together with the sanitized diagram
// @Tags         annotations
// @Security     BearerAuth
// @Produce      json
// @Param        sample_id path string true "Sample ID"
// @Success      200 {object} types.AnnotateResponse
// @Failure      401 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse "Unknown sample"
// @Failure      500 {object} types.ErrorResponse
// @Router       /api/v1/annotate/{sample_id} [get]
func Open(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, _ := types.Identity(c)
		sampleID := c.Param("sample_id")

		record, err := deps.Annotations.Open(c.Request.Context(), sampleID, username)
		if err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}

		rendered, err := deps.Renderer.Render(c.Request.Context(), record.Diagram)
		if err != nil {
			deps.Log().Warn("diagram render failed", zap.String("sample_id", sampleID), zap.Error(err))
			types.SendError(c, deps.Log(), err)
			return
		}

		types.SendSuccess(c, types.AnnotateResponse{
			BaseResponse:    types.OK("Sample opened"),
			Record:          record,
			RenderedDiagram: rendered,
			Categories:      models.Categories,
		})
	}
}

// Save stores the caller's selections for a sample
// @Summary      Save annotation
// @Description  Stores nodes, missing nodes and notes on the caller's instance. action=finalize marks it Finalized, anything else In Progress.
// @Tags         annotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sample_id path string true "Sample ID"
// @Param        annotation body annotations.SaveRequest true "Selections and action"
// @Success      200 {object} types.SaveResponse
// @Failure      400 {object} types.ErrorResponse
// @Failure      401 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/annotate/{sample_id} [post]
func Save(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, _ := types.Identity(c)
		sampleID := c.Param("sample_id")

		var req annotations.SaveRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		instance, err := deps.Annotations.Open(c.Request.Context(), sampleID, username)
		if err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}

		status, err := deps.Annotations.Save(c.Request.Context(), instance.ID, req)
		if err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}

		types.SendSuccess(c, types.SaveResponse{
			BaseResponse: types.OK("Annotation saved"),
			ID:           instance.ID,
			RecordStatus: status,
		})
	}
}
