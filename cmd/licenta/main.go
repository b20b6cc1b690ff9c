package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/licenta/internal/catalog"
	"github.com/smallbiznis/licenta/internal/client"
	"github.com/smallbiznis/licenta/internal/clock"
	"github.com/smallbiznis/licenta/internal/config"
	"github.com/smallbiznis/licenta/internal/contract"
	"github.com/smallbiznis/licenta/internal/migration"
	"github.com/smallbiznis/licenta/internal/observability"
	"github.com/smallbiznis/licenta/internal/payment"
	"github.com/smallbiznis/licenta/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		client.Module,
		catalog.Module,
		contract.Module,
		payment.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		panic(err)
	}
	return node
}
