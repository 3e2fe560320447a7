// Package apitest wires handler dependencies over an in-memory store for
// HTTP handler tests.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/diagram-annotator/api/types"
	"github.com/killallgit/diagram-annotator/internal/database"
	"github.com/killallgit/diagram-annotator/internal/metrics"
	"github.com/killallgit/diagram-annotator/internal/models"
	"github.com/killallgit/diagram-annotator/internal/services/annotations"
	"github.com/killallgit/diagram-annotator/internal/services/auth"
	"github.com/killallgit/diagram-annotator/internal/services/tasks"
	"github.com/killallgit/diagram-annotator/internal/services/users"
	"github.com/killallgit/diagram-annotator/internal/testutil"
	"github.com/killallgit/diagram-annotator/pkg/config"
	"github.com/killallgit/diagram-annotator/pkg/diagram"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Config returns settings suited to tests: rate limiting off, a fixed secret
func Config() *config.Config {
	return &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Auth: config.AuthConfig{
			JWTSecret:  "test-secret",
			TokenTTL:   time.Hour,
			CookieName: "annotator_session",
		},
		Upload:       config.UploadConfig{MaxBytes: 1 << 20},
		RateLimiting: config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{
			EnableCORS:  true,
			CORSOrigins: []string{"*"},
			CORSMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			CORSHeaders: []string{"Content-Type", "Authorization"},
		},
		Monitoring: config.MonitoringConfig{Enabled: true, MetricsPath: "/metrics"},
		Docs:       config.DocsConfig{Enabled: true},
	}
}

// Env is a fully wired set of handler dependencies
type Env struct {
	DB     *database.DB
	Deps   *types.Dependencies
	Router *gin.Engine
	Logs   *observer.ObservedLogs
}

// NewEnv builds dependencies over a migrated in-memory database. Router is
// empty; tests mount the handlers they exercise.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	cfg := Config()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	m := metrics.New()

	tokens, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	require.NoError(t, err)

	deps := &types.Dependencies{
		DB:          db,
		Config:      cfg,
		Logger:      logger,
		Metrics:     m,
		Annotations: annotations.NewService(annotations.NewRepository(db.DB), logger, m),
		Tasks:       tasks.NewService(tasks.NewRepository(db.DB), logger, m),
		Users:       users.NewService(users.NewRepository(db.DB), logger),
		Tokens:      tokens,
		Renderer:    diagram.NewRenderer(nil),
	}

	return &Env{DB: db, Deps: deps, Router: gin.New(), Logs: logs}
}

// Password is the password Login gives every user it creates
func Password(username string) string {
	return "pw-" + username
}

// Login creates username with role and returns a session token for it
func (e *Env) Login(t *testing.T, username string, role models.Role) string {
	t.Helper()
	user, err := e.Deps.Users.Create(context.Background(), username, Password(username), role)
	require.NoError(t, err)
	token, _, err := e.Deps.Tokens.Issue(user)
	require.NoError(t, err)
	return token
}

// Request builds a request carrying token as a bearer session, if set
func Request(method, path string, body io.Reader, token string) *http.Request {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// Do serves req on the env router
func (e *Env) Do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// JSON encodes v as a request body
func JSON(t *testing.T, v any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

// Decode unmarshals a recorded response body into T
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

// Identify returns middleware that marks every request as username with role
func Identify(username string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(types.ContextUsername, username)
		c.Set(types.ContextRole, role)
		c.Next()
	}
}
