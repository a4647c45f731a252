package scheduleconfig

import (
	"go.uber.org/fx"

	"github.com/athenajq/lunchline/internal/cache"
	"github.com/athenajq/lunchline/internal/scheduleconfig/repository"
	"github.com/athenajq/lunchline/internal/scheduleconfig/service"
)

var Module = fx.Module("scheduleconfig.service",
	fx.Provide(cache.NewScheduleConfigCache),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
