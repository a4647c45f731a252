package order

import (
	"go.uber.org/fx"

	"github.com/athenajq/lunchline/internal/order/repository"
	"github.com/athenajq/lunchline/internal/order/service"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
