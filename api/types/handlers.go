package types

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/internal/apperrors"
	"github.com/killallgit/diagram-annotator/internal/models"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware
const (
	ContextClaims   = "claims"
	ContextUsername = "username"
	ContextRole     = "role"
)

// Handler utility functions to reduce duplication across handlers

// ParseUintParam extracts and parses a URL parameter as uint
// Returns the parsed value and sends error response if parsing fails
func ParseUintParam(c *gin.Context, paramName string) (uint, bool) {
	paramStr := c.Param(paramName)
	value, err := strconv.ParseUint(paramStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:  StatusError,
			Message: "Invalid " + paramName,
			Error:   "invalid_parameter",
		})
		return 0, false
	}
	return uint(value), true
}

// OptionalUintQuery reads an optional uint query parameter. present is false
// when the parameter is absent or empty; err is set when it cannot be parsed.
func OptionalUintQuery(c *gin.Context, name string) (value *uint, present bool, err error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, false, nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, true, err
	}
	v := uint(parsed)
	return &v, true, nil
}

// BindJSONOrError attempts to bind JSON request body to target struct
// Returns false and sends error response if binding fails
func BindJSONOrError(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:  StatusError,
			Message: "Invalid request body",
			Error:   "invalid_body",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// SendBadRequest sends a standardized bad request response
func SendBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Status: StatusError, Message: message, Error: "bad_request"})
}

// SendUnauthorized sends a standardized unauthorized response
func SendUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Status: StatusError, Message: message, Error: "unauthorized"})
}

// SendForbidden sends a standardized forbidden response
func SendForbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, ErrorResponse{Status: StatusError, Message: message, Error: "forbidden"})
}

// SendNotFound sends a standardized not found response
func SendNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Status: StatusError, Message: message, Error: "not_found"})
}

// SendInternalError sends a standardized internal server error response
func SendInternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Status: StatusError, Message: message, Error: "internal_error"})
}

// SendSuccess sends a standardized success response with data
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendCreated sends a standardized created response with data
func SendCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendError maps a service error onto its HTTP response. Unclassified errors
// and integrity faults are logged and reported as 500 without detail.
func SendError(c *gin.Context, logger *zap.Logger, err error) {
	var validation apperrors.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:  StatusError,
			Message: validation.Message,
			Error:   "validation_error",
			Details: gin.H{"field": validation.Field},
		})
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Status: StatusError, Message: err.Error(), Error: "not_found"})
	case apperrors.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{Status: StatusError, Message: err.Error(), Error: "conflict"})
	case apperrors.IsIntegrityFault(err):
		logger.Error("integrity fault", zap.String("path", c.Request.URL.Path), zap.Error(err))
		SendInternalError(c, "Stored data is inconsistent")
	default:
		logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		SendInternalError(c, "Internal server error")
	}
}

// Identity returns the caller's username and role. Requests without a valid
// session are anonymous.
func Identity(c *gin.Context) (string, models.Role) {
	role, ok := c.Get(ContextRole)
	if !ok {
		return "", models.RoleAnonymous
	}
	r, _ := role.(models.Role)
	if r == "" {
		return "", models.RoleAnonymous
	}
	return c.GetString(ContextUsername), r
}
