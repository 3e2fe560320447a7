package dataset

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api/types"
	"github.com/killallgit/diagram-annotator/internal/models"
)

// ListTasks lists every uploaded task
// @Summary      List tasks
// @Description  List uploaded tasks, oldest first. Available without a session.
// @Tags         dataset
// @Produce      json
// @Success      200 {object} types.TasksResponse
// @Failure      500 {object} types.ErrorResponse
// @Router       /api/v1/tasks [get]
func ListTasks(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := deps.Tasks.ListTasks(c.Request.Context())
		if err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}

		types.SendSuccess(c, types.TasksResponse{
			BaseResponse: types.OK("Tasks retrieved"),
			Tasks:        list,
			Count:        len(list),
		})
	}
}

// ListDataset lists the records the caller may see
// @Summary      List dataset
// @Description  Anonymous callers see reviewed templates only, admins see every template, annotators see their own instance in place of each template they opened.
// @Tags         dataset
// @Produce      json
// @Param        task_id query int false "Limit the listing to one task"
// @Success      200 {object} types.DatasetResponse
// @Failure      404 {object} types.ErrorResponse "task_id is not a task id"
// @Router       /api/v1/dataset [get]
func ListDataset(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, _, err := types.OptionalUintQuery(c, "task_id")
		if err != nil {
			types.SendNotFound(c, "no such dataset")
			return
		}

		username, role := types.Identity(c)
		records, err := deps.Annotations.Resolve(c.Request.Context(), role, taskID, username)
		if err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}
		if records == nil {
			records = []models.AnnotationRecord{}
		}

		types.SendSuccess(c, types.DatasetResponse{
			BaseResponse: types.OK("Dataset retrieved"),
			Role:         role,
			TaskID:       taskID,
			Records:      records,
			Count:        len(records),
		})
	}
}

// Dashboard reports the caller's progress on every task
// @Summary      Annotator dashboard
// @Description  Per task, the number of templates and the caller's instances by status
// @Tags         dataset
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} types.DashboardResponse
// @Failure      401 {object} types.ErrorResponse
// @Router       /api/v1/dashboard [get]
func Dashboard(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, _ := types.Identity(c)
		progress, err := deps.Tasks.Dashboard(c.Request.Context(), username)
		if err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}

		types.SendSuccess(c, types.DashboardResponse{
			BaseResponse: types.OK("Dashboard retrieved"),
			Tasks:        progress,
		})
	}
}
