package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/internal/apperrors"
	"github.com/killallgit/diagram-annotator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDependencies(t *testing.T) {
	var nilDeps *Dependencies
	assert.NotNil(t, nilDeps.Log())

	deps := &Dependencies{}
	assert.NotNil(t, deps.Log())
	assert.Nil(t, deps.DB)
	assert.Nil(t, deps.Annotations)
}

func TestSendError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantLogged bool
	}{
		{
			name:       "validation",
			err:        apperrors.NewValidationError("task_name", "required"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_error",
		},
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("loading: %w", apperrors.NewNotFoundError("task", 7)),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "conflict",
			err:        apperrors.NewConflictError("user", "alice"),
			wantStatus: http.StatusConflict,
			wantCode:   "conflict",
		},
		{
			name:       "integrity fault",
			err:        apperrors.NewIntegrityFault("sample %s has no template", "s1"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
			wantLogged: true,
		},
		{
			name:       "unclassified",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
			wantLogged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			SendError(c, zap.New(core), tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, StatusError, body.Status)
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantLogged, logs.Len() == 1)
			assert.NotContains(t, w.Body.String(), "disk on fire")
		})
	}
}

func TestIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	username, role := Identity(c)
	assert.Empty(t, username)
	assert.Equal(t, models.RoleAnonymous, role)

	c.Set(ContextUsername, "alice")
	c.Set(ContextRole, models.RoleAnnotator)
	username, role = Identity(c)
	assert.Equal(t, "alice", username)
	assert.Equal(t, models.RoleAnnotator, role)
}

func TestOptionalUintQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query       string
		wantValue   *uint
		wantPresent bool
		wantErr     bool
	}{
		{query: "", wantPresent: false},
		{query: "?task_id=", wantPresent: false},
		{query: "?task_id=12", wantValue: uintPtr(12), wantPresent: true},
		{query: "?task_id=abc", wantPresent: true, wantErr: true},
		{query: "?task_id=-1", wantPresent: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/dataset"+tt.query, nil)

			value, present, err := OptionalUintQuery(c, "task_id")
			assert.Equal(t, tt.wantPresent, present)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func uintPtr(v uint) *uint { return &v }
