package redisc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/oakline/taskconsole/internal/config"
	"github.com/oakline/taskconsole/internal/consts"
	"github.com/oakline/taskconsole/internal/core"
	"github.com/oakline/taskconsole/internal/logging"
)

// Component owns the redis client used by the session store.
type Component struct {
	*core.BaseComponent
	cfg    *config.RedisConfig
	client redis.UniversalClient
}

func NewComponent(cfg *config.RedisConfig) *Component {
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_REDIS, consts.COMPONENT_LOGGING),
		cfg:           cfg,
	}
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if c.cfg == nil {
		return errors.New("redis config nil")
	}
	if len(c.cfg.Addresses) == 0 {
		return fmt.Errorf("redis addresses empty")
	}

	c.client = redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        c.cfg.Addresses,
		DB:           c.cfg.DB,
		Username:     c.cfg.Username,
		Password:     c.cfg.Password,
		PoolSize:     c.cfg.PoolSize,
		MinIdleConns: c.cfg.MinIdleConns,
		DialTimeout:  c.cfg.DialTimeout.Std(),
		ReadTimeout:  c.cfg.ReadTimeout.Std(),
		WriteTimeout: c.cfg.WriteTimeout.Std(),
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.ping(pingCtx); err != nil {
		_ = c.client.Close()
		c.client = nil
		return fmt.Errorf("redis ping failed: %w", err)
	}
	logging.Info(ctx, "redis component started", zap.Strings("addrs", c.cfg.Addresses))
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	defer c.BaseComponent.Stop(ctx)
	if c.client != nil {
		_ = c.client.Close()
		logging.Info(ctx, "redis component stopped")
	}
	return nil
}

func (c *Component) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if c.client == nil {
		return fmt.Errorf("redis client nil")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.ping(ctx)
}

func (c *Component) ping(ctx context.Context) error {
	if c.client == nil {
		return errors.New("no client")
	}
	_, err := c.client.Ping(ctx).Result()
	return err
}

func (c *Component) Client() redis.UniversalClient { return c.client }
