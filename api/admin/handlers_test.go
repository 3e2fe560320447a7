package admin_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api"
	"github.com/killallgit/diagram-annotator/api/admin"
	"github.com/killallgit/diagram-annotator/api/apitest"
	"github.com/killallgit/diagram-annotator/api/types"
	"github.com/killallgit/diagram-annotator/internal/models"
	"github.com/killallgit/diagram-annotator/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const datasetFile = `[
	{"language": "go", "code": "package main\nfunc main() {}", "diagram": "classDiagram\nclass Main", "query": "what runs?"},
	{"language": "python", "code": "print(1)", "diagram": "classDiagram\nclass Script", "version": 2}
]`

func setupAdmin(t *testing.T) *apitest.Env {
	t.Helper()
	env := apitest.NewEnv(t)
	env.Login(t, "root", models.RoleAdmin)

	env.Router = gin.New()
	env.Router.Use(api.RequestSizeLimitWithSize(env.Deps.Config.Upload.MaxBytes))
	group := env.Router.Group("/api/v1/admin", apitest.Identify("root", models.RoleAdmin))
	admin.RegisterRoutes(group, env.Deps)
	return env
}

func multipartUpload(t *testing.T, taskName, file string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if taskName != "" {
		require.NoError(t, form.WriteField("task_name", taskName))
	}
	if file != "" {
		part, err := form.CreateFormFile("dataset_file", "dataset.json")
		require.NoError(t, err)
		_, err = part.Write([]byte(file))
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())

	req := apitest.Request(http.MethodPost, "/api/v1/admin/upload", &body, "")
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req
}

func countRecords(t *testing.T, env *apitest.Env) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.DB.Model(&models.AnnotationRecord{}).Count(&n).Error)
	return n
}

func TestUpload(t *testing.T) {
	t.Run("multipart form", func(t *testing.T) {
		env := setupAdmin(t)
		w := env.Do(multipartUpload(t, "batch-1", datasetFile))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := apitest.Decode[types.UploadResponse](t, w)
		assert.Equal(t, "batch-1", resp.Task.Name)
		assert.Equal(t, 2, resp.Samples)
		assert.Equal(t, int64(2), countRecords(t, env))

		var stored models.AnnotationRecord
		require.NoError(t, env.DB.Where("language = ?", "python").First(&stored).Error)
		assert.Equal(t, "2", stored.Version)
		assert.True(t, stored.IsTemplate)
		assert.Len(t, stored.SampleID, 36)
	})

	t.Run("json body", func(t *testing.T) {
		env := setupAdmin(t)
		body := fmt.Sprintf(`{"task_name": "batch-2", "samples": %s}`, datasetFile)
		w := env.Do(apitest.Request(http.MethodPost, "/api/v1/admin/upload", strings.NewReader(body), ""))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, 2, apitest.Decode[types.UploadResponse](t, w).Samples)
	})

	rejected := []struct {
		name string
		req  func(t *testing.T) *http.Request
		want int
	}{
		{
			name: "missing file",
			req:  func(t *testing.T) *http.Request { return multipartUpload(t, "batch", "") },
			want: http.StatusBadRequest,
		},
		{
			name: "missing task name",
			req:  func(t *testing.T) *http.Request { return multipartUpload(t, "", datasetFile) },
			want: http.StatusBadRequest,
		},
		{
			name: "dataset is not an array",
			req:  func(t *testing.T) *http.Request { return multipartUpload(t, "batch", `{"code": "x"}`) },
			want: http.StatusBadRequest,
		},
		{
			name: "sample is not an object",
			req:  func(t *testing.T) *http.Request { return multipartUpload(t, "batch", `[{"code": "x"}, 42]`) },
			want: http.StatusBadRequest,
		},
		{
			name: "json body over the size limit",
			req: func(t *testing.T) *http.Request {
				huge := fmt.Sprintf(`{"task_name": "big", "samples": [{"code": "%s"}]}`, strings.Repeat("x", 2<<20))
				return apitest.Request(http.MethodPost, "/api/v1/admin/upload", strings.NewReader(huge), "")
			},
			want: http.StatusRequestEntityTooLarge,
		},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			env := setupAdmin(t)
			w := env.Do(tt.req(t))
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Zero(t, countRecords(t, env), "a rejected upload stores nothing")

			var tasks int64
			require.NoError(t, env.DB.Model(&models.Task{}).Count(&tasks).Error)
			assert.Zero(t, tasks)
		})
	}
}

func TestTasks(t *testing.T) {
	env := setupAdmin(t)
	task, templates := testutil.SeedTask(t, env.DB, "doomed", 2)
	keep, _ := testutil.SeedTask(t, env.DB, "kept", 1)
	_, err := env.Deps.Annotations.Open(context.Background(), templates[0].SampleID, "alice")
	require.NoError(t, err)

	w := env.Do(apitest.Request(http.MethodGet, "/api/v1/admin/tasks", nil, ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, apitest.Decode[types.TasksResponse](t, w).Count)

	path := fmt.Sprintf("/api/v1/admin/tasks/%d", task.ID)
	w = env.Do(apitest.Request(http.MethodDelete, path, nil, ""))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), countRecords(t, env), "templates and instances go with the task")

	w = env.Do(apitest.Request(http.MethodDelete, path, nil, ""))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.Do(apitest.Request(http.MethodDelete, "/api/v1/admin/tasks/first", nil, ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var remaining models.Task
	require.NoError(t, env.DB.First(&remaining).Error)
	assert.Equal(t, keep.ID, remaining.ID)
}

func TestListAnnotations(t *testing.T) {
	env := setupAdmin(t)
	task, templates := testutil.SeedTask(t, env.DB, "first", 2)
	testutil.SeedTask(t, env.DB, "second", 1)
	_, err := env.Deps.Annotations.Open(context.Background(), templates[0].SampleID, "alice")
	require.NoError(t, err)

	tests := []struct {
		query     string
		wantCode  int
		wantCount int
	}{
		{query: "", wantCode: http.StatusOK, wantCount: 4},
		{query: fmt.Sprintf("?task_id=%d", task.ID), wantCode: http.StatusOK, wantCount: 3},
		{query: "?task_id=first", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := env.Do(apitest.Request(http.MethodGet, "/api/v1/admin/annotations"+tt.query, nil, ""))
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantCount, apitest.Decode[types.AnnotationsResponse](t, w).Count)
			}
		})
	}
}

func TestExport(t *testing.T) {
	env := setupAdmin(t)
	_, templates := testutil.SeedTask(t, env.DB, "first", 2)
	_, err := env.Deps.Annotations.Open(context.Background(), templates[1].SampleID, "alice")
	require.NoError(t, err)

	w := env.Do(apitest.Request(http.MethodGet, "/api/v1/admin/export", nil, ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="annotations.csv"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	rows, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1+3)
	assert.Equal(t, "sample_id", rows[0][1])
	assert.Equal(t, "alice", rows[3][3])

	w = env.Do(apitest.Request(http.MethodGet, "/api/v1/admin/export?task_id=x", nil, ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsers(t *testing.T) {
	env := setupAdmin(t)

	create := func(body any) int {
		w := env.Do(apitest.Request(http.MethodPost, "/api/v1/admin/users", apitest.JSON(t, body), ""))
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, create(types.CreateUserRequest{Username: "alice", Password: "pw"}))
	assert.Equal(t, http.StatusConflict, create(types.CreateUserRequest{Username: "alice", Password: "pw"}))
	assert.Equal(t, http.StatusBadRequest, create(types.CreateUserRequest{Username: "eve", Password: "pw", Role: "owner"}))
	assert.Equal(t, http.StatusBadRequest, create(map[string]string{"username": "nopass"}))

	w := env.Do(apitest.Request(http.MethodGet, "/api/v1/admin/users", nil, ""))
	require.Equal(t, http.StatusOK, w.Code)
	list := apitest.Decode[types.UsersResponse](t, w)
	require.Equal(t, 2, list.Count)
	assert.NotContains(t, w.Body.String(), "argon2id")

	alice, err := env.Deps.Users.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAnnotator, alice.Role)

	t.Run("upgrade", func(t *testing.T) {
		w := env.Do(apitest.Request(http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/upgrade", alice.ID), nil, ""))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.RoleAdmin, apitest.Decode[types.UserResponse](t, w).User.Role)

		w = env.Do(apitest.Request(http.MethodPost, "/api/v1/admin/users/999/upgrade", nil, ""))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		root, err := env.Deps.Users.Get(context.Background(), "root")
		require.NoError(t, err)

		w := env.Do(apitest.Request(http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", root.ID), nil, ""))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "you cannot delete yourself")

		w = env.Do(apitest.Request(http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", alice.ID), nil, ""))
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.Do(apitest.Request(http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", alice.ID), nil, ""))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
