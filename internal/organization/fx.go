package organization

import (
	"go.uber.org/fx"

	"github.com/athenajq/lunchline/internal/organization/repository"
)

var Module = fx.Module("organization",
	fx.Provide(repository.Provide),
)
