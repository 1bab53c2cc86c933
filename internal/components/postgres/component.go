package postgres

import (
	"context"
	"fmt"
	"net/url"
	"time"

	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oakline/taskconsole/internal/config"
	"github.com/oakline/taskconsole/internal/consts"
	"github.com/oakline/taskconsole/internal/core"
	"github.com/oakline/taskconsole/internal/logging"
	"github.com/oakline/taskconsole/internal/model"
)

// Component owns the gorm postgres connection pool.
type Component struct {
	*core.BaseComponent
	cfg *config.PostgresConfig
	db  *gorm.DB
}

func NewComponent(cfg *config.PostgresConfig) *Component {
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_POSTGRES, consts.COMPONENT_LOGGING),
		cfg:           cfg,
	}
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if c.cfg == nil {
		return fmt.Errorf("postgres config nil")
	}
	db, err := gorm.Open(gormpg.Open(buildDSN(c.cfg)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open gorm postgres db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get underlying sql.DB: %w", err)
	}
	if c.cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.cfg.MaxOpenConns)
	} else {
		sqlDB.SetMaxOpenConns(50)
	}
	if c.cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.cfg.MaxIdleConns)
	} else {
		sqlDB.SetMaxIdleConns(10)
	}
	if c.cfg.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(c.cfg.ConnMaxLife.Std())
	} else {
		sqlDB.SetConnMaxLifetime(60 * time.Minute)
	}

	if c.cfg.PingOnStart {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := sqlDB.PingContext(pingCtx)
		cancel()
		if err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("ping postgres: %w", err)
		}
	}

	if c.cfg.AutoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(&model.Task{}); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("auto migrate tasks: %w", err)
		}
		logging.Info(ctx, "postgres schema migrated")
	}

	c.db = db
	logging.Infof(ctx, "postgres component started host=%s db=%s", c.cfg.Host, c.cfg.Database)
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	defer func() { _ = c.BaseComponent.Stop(ctx) }()
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		logging.Info(ctx, "postgres component stopped")
	}
	return nil
}

func (c *Component) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if c.db == nil {
		return fmt.Errorf("postgres db not initialized")
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

func (c *Component) DB() *gorm.DB { return c.db }

func buildDSN(cfg *config.PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, url.QueryEscape(cfg.Password), cfg.Database, cfg.SSLMode)
}
