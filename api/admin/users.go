package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api/types"
	"github.com/killallgit/diagram-annotator/internal/models"
)

// ListUsers lists every account
// @Summary      List users
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} types.UsersResponse
// @Router       /api/v1/admin/users [get]
func ListUsers(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := deps.Users.List(c.Request.Context())
		if err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}
		if list == nil {
			list = []models.User{}
		}
		types.SendSuccess(c, types.UsersResponse{
			BaseResponse: types.OK("Users retrieved"),
			Users:        list,
			Count:        len(list),
		})
	}
}

// CreateUser adds an account
// @Summary      Create user
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        user body types.CreateUserRequest true "New account"
// @Success      201 {object} types.UserResponse
// @Failure      400 {object} types.ErrorResponse
// @Failure      409 {object} types.ErrorResponse "Username taken"
// @Router       /api/v1/admin/users [post]
func CreateUser(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CreateUserRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		user, err := deps.Users.Create(c.Request.Context(), req.Username, req.Password, req.Role)
		if err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}
		types.SendCreated(c, types.UserResponse{BaseResponse: types.OK("User created"), User: *user})
	}
}

// UpgradeUser gives an account the admin role
// @Summary      Upgrade user to admin
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} types.UserResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/admin/users/{id}/upgrade [post]
func UpgradeUser(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		user, err := deps.Users.UpgradeToAdmin(c.Request.Context(), id)
		if err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}
		types.SendSuccess(c, types.UserResponse{BaseResponse: types.OK("User upgraded"), User: *user})
	}
}

// DeleteUser removes an account other than the caller's own
// @Summary      Delete user
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} types.BaseResponse
// @Failure      400 {object} types.ErrorResponse "Deleting yourself"
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/admin/users/{id} [delete]
func DeleteUser(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		actor, _ := types.Identity(c)
		if err := deps.Users.Delete(c.Request.Context(), id, actor); err != nil {
			types.SendError(c, deps.Log(), err)
			return
		}
		types.SendSuccess(c, types.OK("User deleted"))
	}
}
