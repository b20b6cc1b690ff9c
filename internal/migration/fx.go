package migration

import (
	"github.com/smallbiznis/licenta/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// golang-migrate drives postgres only; other dialects are
		// provisioned out of band (tests create their own schema).
		if cfg.DBType != "postgres" {
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		return RunMigrations(sqlDB)
	}),
)
