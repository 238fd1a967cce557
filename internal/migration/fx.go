package migration

import (
	"github.com/smallbiznis/marketpay/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// The embedded migrations are written for postgres; other dialects
// manage their schema out of band.
var Module = fx.Module("migrations",
	fx.Invoke(func(cfg db.Config, conn *gorm.DB) error {
		if cfg.Type != "postgres" {
			return nil
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
