// Package admin holds the administrator-only endpoints: uploads, task and
// user management, and exports.
package admin

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api/types"
	"github.com/killallgit/diagram-annotator/internal/models"
	"go.uber.org/zap"
)

const (
	formTaskName    = "task_name"
	formDatasetFile = "dataset_file"
	exportFilename  = "annotations.csv"
)

// Upload ingests a dataset file as a new task
// @Summary      Upload dataset
// @Description  Accepts either a multipart form (task_name, dataset_file) or a JSON body. Every sample becomes one template in a new task; nothing is stored if any sample is rejected.
// @Tags         admin
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Accept       json
// @Produce      json
// @Param        task_name formData string false "Task name"
// @Param        dataset_file formData file false "JSON array of samples"
// @Success      201 {object} types.UploadResponse
// @Failure      400 {object} types.ErrorResponse
// @Failure      413 {object} types.ErrorResponse
// @Router       /api/v1/admin/upload [post]
func Upload(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			taskName string
			payload  []byte
		)

		if strings.HasPrefix(c.ContentType(), "multipart/") {
			taskName = c.PostForm(formTaskName)
			header, err := c.FormFile(formDatasetFile)
			if err != nil {
				if tooLarge(err) {
					sendTooLarge(c)
					return
				}
				types.SendBadRequest(c, "dataset_file is required")
				return
			}
			file, err := header.Open()
			if err != nil {
				types.SendError(c, deps.Log(), err)
				return
			}
			defer file.Close()

			payload, err = io.ReadAll(file)
			if err != nil {
				types.SendError(c, deps.Log(), err)
				return
			}
		} else {
			var req types.UploadRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				if tooLarge(err) {
					sendTooLarge(c)
					return
				}
				types.SendBadRequest(c, "Invalid request body")
				return
			}
			taskName = req.TaskName
			payload = req.Samples
		}

		result, err := deps.Tasks.Ingest(c.Request.Context(), taskName, payload)
		if err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}

		types.SendCreated(c, types.UploadResponse{
			BaseResponse: types.OK("Dataset uploaded"),
			Task:         result.Task,
			Samples:      result.Samples,
		})
	}
}

func tooLarge(err error) bool {
	var maxBytes *http.MaxBytesError
	return errors.As(err, &maxBytes)
}

func sendTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{
		Status:  types.StatusError,
		Message: "Upload exceeds the size limit",
		Error:   "too_large",
	})
}

// ListTasks lists tasks with their progress
// @Summary      List tasks (admin)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} types.TasksResponse
// @Router       /api/v1/admin/tasks [get]
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

// DeleteTask removes a task with all of its records
// @Summary      Delete task
// @Description  Deletes the task together with every template and instance of it
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "Task ID"
// @Success      200 {object} types.BaseResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/admin/tasks/{id} [delete]
func DeleteTask(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		if err := deps.Tasks.DeleteTask(c.Request.Context(), id); err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}
		types.SendSuccess(c, types.OK("Task deleted"))
	}
}

// ListAnnotations lists every record, templates and instances
// @Summary      List all annotations
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        task_id query int false "Limit the listing to one task"
// @Success      200 {object} types.AnnotationsResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/admin/annotations [get]
func ListAnnotations(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, _, err := types.OptionalUintQuery(c, "task_id")
		if err != nil {
			types.SendNotFound(c, "no such dataset")
			return
		}

		records, err := deps.Annotations.ListAll(c.Request.Context(), taskID)
		if err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}
		if records == nil {
			records = []models.AnnotationRecord{}
		}
		types.SendSuccess(c, types.AnnotationsResponse{
			BaseResponse: types.OK("Annotations retrieved"),
			Records:      records,
			Count:        len(records),
		})
	}
}

// Export streams every record as CSV
// @Summary      Export annotations
// @Description  One CSV line per record, templates and instances alike
// @Tags         admin
// @Security     BearerAuth
// @Produce      text/csv
// @Param        task_id query int false "Limit the export to one task"
// @Success      200 {file} file
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/admin/export [get]
func Export(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, _, err := types.OptionalUintQuery(c, "task_id")
		if err != nil {
			types.SendNotFound(c, "no such dataset")
			return
		}

		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
		c.Status(http.StatusOK)

		if err := deps.Annotations.Export(c.Request.Context(), c.Writer, taskID); err != nil {
			if !c.Writer.Written() {
				c.Writer.Header().Del("Content-Type")
				c.Writer.Header().Del("Content-Disposition")
				types.SendError(c, deps.Log(), err)
				return
			}
			deps.Log().Error("export interrupted", zap.Error(err))
			_ = c.Error(err)
		}
	}
}
