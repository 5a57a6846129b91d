package app

import (
	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/events"
	"github.com/ghuser/storefront/pkg/logger"
)

// Application holds shared infrastructure dependencies for all services.
// Pass it to each bounded context's services.New during startup.
//
// Logging: app.Logger is backed by a trace-aware handler. Use slog's context methods
// and trace_id and span_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "item added", "catalog", c.Name)
//	app.Logger.ErrorContext(ctx, "failed to publish", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config   *config.Config
	Logger   logger.Logger
	EventBus *events.EventBus
}
