package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/churnlens/internal/clock"
	"github.com/smallbiznis/churnlens/internal/config"
	"github.com/smallbiznis/churnlens/internal/customer"
	"github.com/smallbiznis/churnlens/internal/dashboard"
	"github.com/smallbiznis/churnlens/internal/modelstore"
	"github.com/smallbiznis/churnlens/internal/observability"
	"github.com/smallbiznis/churnlens/internal/providers"
	"github.com/smallbiznis/churnlens/internal/ratelimit"
	"github.com/smallbiznis/churnlens/internal/scoring"
	"github.com/smallbiznis/churnlens/internal/server"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		// Functional Domains
		modelstore.Module,
		customer.Module,
		providers.Module,
		dashboard.Module,
		scoring.Module,
		ratelimit.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
