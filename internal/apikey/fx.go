package apikey

import (
	"go.uber.org/fx"

	"github.com/athenajq/lunchline/internal/apikey/repository"
	"github.com/athenajq/lunchline/internal/apikey/service"
)

var Module = fx.Module("apikey.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
