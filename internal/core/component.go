package core

import (
	"context"
	"fmt"
)

// Component is the unit of lifecycle management. Everything the server is
// made of (logger, db pool, redis, http server, daos, controllers)
// implements it and is started/stopped by the Container in dependency order.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	HealthCheck() error
	Dependencies() []string
	IsActive() bool
}

// BaseComponent carries the boilerplate; embed it and override Start/Stop.
type BaseComponent struct {
	name   string
	active bool
	deps   []string
}

func NewBaseComponent(name string, deps ...string) *BaseComponent {
	return &BaseComponent{name: name, deps: deps}
}

func (b *BaseComponent) Name() string           { return b.name }
func (b *BaseComponent) Dependencies() []string { return b.deps }
func (b *BaseComponent) IsActive() bool         { return b.active }

func (b *BaseComponent) Start(ctx context.Context) error {
	if b.active {
		return fmt.Errorf("component %s already started", b.name)
	}
	b.active = true
	return nil
}

func (b *BaseComponent) Stop(ctx context.Context) error {
	b.active = false
	return nil
}

func (b *BaseComponent) HealthCheck() error {
	if !b.active {
		return fmt.Errorf("component %s is not active", b.name)
	}
	return nil
}
