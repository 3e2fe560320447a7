package types

import (
	"github.com/killallgit/diagram-annotator/internal/database"
	"github.com/killallgit/diagram-annotator/internal/metrics"
	"github.com/killallgit/diagram-annotator/internal/services/annotations"
	"github.com/killallgit/diagram-annotator/internal/services/auth"
	"github.com/killallgit/diagram-annotator/internal/services/tasks"
	"github.com/killallgit/diagram-annotator/internal/services/users"
	"github.com/killallgit/diagram-annotator/pkg/config"
	"github.com/killallgit/diagram-annotator/pkg/diagram"
	"go.uber.org/zap"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB          *database.DB
	Config      *config.Config
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Annotations annotations.Service
	Tasks       tasks.Service
	Users       users.Service
	Tokens      *auth.Service
	Renderer    *diagram.Renderer
}

// Log returns the configured logger, or a no-op one
func (d *Dependencies) Log() *zap.Logger {
	if d == nil || d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
