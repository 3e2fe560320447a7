package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api/types"
	"github.com/killallgit/diagram-annotator/internal/models"
	"github.com/killallgit/diagram-annotator/internal/services/auth"
	"github.com/killallgit/diagram-annotator/internal/services/users"
	"github.com/killallgit/diagram-annotator/pkg/config"
	"go.uber.org/zap"
)

// Handler manages auth endpoints and the session middleware
type Handler struct {
	tokens *auth.Service
	users  users.Service
	cookie config.AuthConfig
	logger *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(deps *types.Dependencies) *Handler {
	return &Handler{
		tokens: deps.Tokens,
		users:  deps.Users,
		cookie: deps.Config.Auth,
		logger: deps.Log(),
	}
}

// Login checks credentials and starts a session
// @Summary Log in
// @Description Exchange a username and password for a session token. The token is also set as a cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body types.LoginRequest true "Credentials"
// @Success 200 {object} types.LoginResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 401 {object} types.ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req types.LoginRequest
	if !types.BindJSONOrError(c, &req) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			h.logger.Warn("login failed", zap.String("username", req.Username), zap.String("client_ip", c.ClientIP()))
			types.SendUnauthorized(c, "Invalid username or password")
			return
		}
		types.SendError(c, h.logger, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		types.SendError(c, h.logger, err)
		return
	}

	h.setCookie(c, token, int(time.Until(expiresAt).Seconds()))
	h.logger.Info("user logged in", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	types.SendSuccess(c, types.LoginResponse{
		BaseResponse: types.OK("Logged in"),
		Token:        token,
		ExpiresAt:    expiresAt,
		User:         *user,
	})
}

// Logout clears the session cookie
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} types.BaseResponse
// @Router /api/v1/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	types.SendSuccess(c, types.OK("Logged out"))
}

// Me returns the account behind the current session
// @Summary Get current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} types.UserResponse
// @Failure 401 {object} types.ErrorResponse
// @Router /api/v1/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	username, role := types.Identity(c)
	if role == models.RoleAnonymous {
		types.SendUnauthorized(c, "Authentication required")
		return
	}

	user, err := h.users.Get(c.Request.Context(), username)
	if err != nil {
		types.SendError(c, h.logger, err)
		return
	}
	types.SendSuccess(c, types.UserResponse{BaseResponse: types.OK("Current user"), User: *user})
}

func (h *Handler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.CookieName, value, maxAge, "/", "", h.cookie.SecureCookie, true)
}

// tokenFrom reads the session token from the Authorization header, falling
// back to the session cookie
func (h *Handler) tokenFrom(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if h.cookie.CookieName == "" {
		return "", false
	}
	cookie, err := c.Cookie(h.cookie.CookieName)
	if err != nil || cookie == "" {
		return "", false
	}
	return cookie, true
}

// OptionalAuthMiddleware validates the session if present but doesn't require it
func (h *Handler) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := h.tokenFrom(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := h.tokens.ValidateToken(token)
		if err == nil {
			c.Set(types.ContextClaims, claims)
			c.Set(types.ContextUsername, claims.Username)
			c.Set(types.ContextRole, claims.Role)
		}

		c.Next()
	}
}

// AuthMiddleware requires a valid session
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(types.ContextClaims); exists {
			c.Next()
			return
		}

		token, ok := h.tokenFrom(c)
		if !ok {
			types.SendUnauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		claims, err := h.tokens.ValidateToken(token)
		if err != nil {
			types.SendUnauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(types.ContextClaims, claims)
		c.Set(types.ContextUsername, claims.Username)
		c.Set(types.ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole creates middleware that only lets the given roles through.
// It must run after AuthMiddleware.
func (h *Handler) RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role := types.Identity(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		types.SendForbidden(c, "Insufficient permissions")
		c.Abort()
	}
}
