package observability

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/athenajq/lunchline/internal/config"
	"github.com/athenajq/lunchline/internal/observability/logger"
	"github.com/athenajq/lunchline/internal/observability/tracing"
)

var Module = fx.Module("observability",
	fx.Provide(func(cfg config.Config) (*zap.Logger, error) {
		return logger.New(cfg.Environment)
	}),
	fx.Provide(tracing.FromAppConfig),
	fx.Invoke(tracing.NewProvider),
)
