package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/athenajq/lunchline/internal/apikey"
	"github.com/athenajq/lunchline/internal/authorization"
	"github.com/athenajq/lunchline/internal/clock"
	"github.com/athenajq/lunchline/internal/config"
	"github.com/athenajq/lunchline/internal/events"
	"github.com/athenajq/lunchline/internal/migration"
	"github.com/athenajq/lunchline/internal/observability"
	"github.com/athenajq/lunchline/internal/order"
	"github.com/athenajq/lunchline/internal/organization"
	"github.com/athenajq/lunchline/internal/schedule"
	"github.com/athenajq/lunchline/internal/scheduleconfig"
	"github.com/athenajq/lunchline/internal/scheduler"
	"github.com/athenajq/lunchline/internal/seed"
	"github.com/athenajq/lunchline/internal/server"
	"github.com/athenajq/lunchline/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,

		fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if cfg.Bootstrap.EnsureDefaultOrg {
				if err := seed.EnsureMainOrg(conn); err != nil {
					return err
				}
			}
			if cfg.Bootstrap.SeedDemoSchedule {
				return seed.SeedDemoSchedule(conn, log)
			}
			return nil
		}),

		fx.Provide(events.NewOutbox),
		organization.Module,
		scheduleconfig.Module,
		order.Module,
		schedule.Module,
		apikey.Module,
		authorization.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
