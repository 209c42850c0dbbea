// Package db opens instrumented GORM connections.
package db

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	gormprometheus "gorm.io/plugin/prometheus"
)

const metricsRefreshSeconds = 15

// Open connects using cfg. A nil log keeps GORM's default logger.
func Open(cfg Config, log gormlogger.Interface) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{}
	if log != nil {
		gormCfg.Logger = log
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Type, err)
	}

	if err := configurePool(conn, cfg); err != nil {
		return nil, err
	}
	if err := Instrument(conn, cfg); err != nil {
		return nil, err
	}
	return conn, nil
}

// Instrument installs the tracing and pool metrics plugins requested by cfg.
func Instrument(conn *gorm.DB, cfg Config) error {
	if cfg.Tracing {
		if err := conn.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.Name))); err != nil {
			return fmt.Errorf("install gorm tracing: %w", err)
		}
	}
	if cfg.Metrics {
		plugin := gormprometheus.New(gormprometheus.Config{
			DBName:          cfg.Name,
			RefreshInterval: metricsRefreshSeconds,
		})
		if err := conn.Use(plugin); err != nil {
			return fmt.Errorf("install gorm metrics: %w", err)
		}
	}
	return nil
}

func configurePool(conn *gorm.DB, cfg Config) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if cfg.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	}
	if cfg.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return nil
}

// Close releases the connection pool behind conn.
func Close(conn *gorm.DB) error {
	if conn == nil {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
