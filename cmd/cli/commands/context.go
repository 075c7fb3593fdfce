package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/services"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Policies services.Policies
	Clock    clock.Clock
	Database db.Database
	Logger   *zap.Logger
	Ctx      context.Context

	// Persist flushes in-process changes to durable storage. It is a no-op for
	// stores that write through.
	Persist func() error
}
