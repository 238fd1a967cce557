package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketpay/internal/config"
	"github.com/smallbiznis/marketpay/internal/logger"
	"github.com/smallbiznis/marketpay/internal/migration"
	"github.com/smallbiznis/marketpay/internal/server"
	"github.com/smallbiznis/marketpay/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
