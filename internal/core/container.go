package core

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// Container registers components and starts them in topological dependency
// order; StopAll walks the same order in reverse.
type Container struct {
	mu         sync.RWMutex
	components map[string]Component
	timeout    time.Duration
	stopped    bool
}

func NewContainer() *Container {
	return &Container{
		components: make(map[string]Component),
		timeout:    30 * time.Second,
	}
}

// SetTimeout sets the per-component start/stop timeout.
func (c *Container) SetTimeout(d time.Duration) { c.timeout = d }

func (c *Container) Register(comp Component) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := comp.Name()
	if _, exists := c.components[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}
	c.components[name] = comp
	return nil
}

func (c *Container) Resolve(name string) (Component, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	comp, ok := c.components[name]
	if !ok {
		return nil, fmt.Errorf("component %s not found", name)
	}
	return comp, nil
}

// MustResolve panics on a missing component. Wiring errors are programmer
// errors and should fail at boot, not be handled.
func (c *Container) MustResolve(name string) Component {
	comp, err := c.Resolve(name)
	if err != nil {
		panic(err)
	}
	return comp
}

// sorted returns components in dependency order (dependencies first).
func (c *Container) sorted() ([]Component, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	result := make([]Component, 0, len(c.components))

	var visit func(string) error
	visit = func(name string) error {
		if visiting[name] {
			return fmt.Errorf("circular dependency involving component %s", name)
		}
		if visited[name] {
			return nil
		}
		comp, ok := c.components[name]
		if !ok {
			return fmt.Errorf("unknown dependency %s", name)
		}
		visiting[name] = true
		for _, dep := range comp.Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visiting[name] = false
		visited[name] = true
		result = append(result, comp)
		return nil
	}

	names := make([]string, 0, len(c.components))
	for name := range c.components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (c *Container) StartAll(ctx context.Context) error {
	comps, err := c.sorted()
	if err != nil {
		return fmt.Errorf("sort components: %w", err)
	}
	for i, comp := range comps {
		startCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := comp.Start(startCtx)
		cancel()
		if err != nil {
			// roll back the ones already started, reverse order
			for j := i - 1; j >= 0; j-- {
				if comps[j].IsActive() {
					stopCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
					_ = comps[j].Stop(stopCtx)
					cancel()
				}
			}
			return fmt.Errorf("start component %s: %w", comp.Name(), err)
		}
	}
	return nil
}

func (c *Container) StopAll(ctx context.Context) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	comps, err := c.sorted()
	if err != nil {
		// dependency graph broken; stop in arbitrary order
		c.mu.RLock()
		comps = make([]Component, 0, len(c.components))
		for _, comp := range c.components {
			comps = append(comps, comp)
		}
		c.mu.RUnlock()
	}
	for i := len(comps) - 1; i >= 0; i-- {
		comp := comps[i]
		if !comp.IsActive() {
			continue
		}
		stopCtx, cancel := context.WithTimeout(ctx, c.timeout)
		if err := comp.Stop(stopCtx); err != nil {
			log.Printf("stop component %s: %v", comp.Name(), err)
		}
		cancel()
	}
}

// HealthCheckAll reports the first failing component, nil when all healthy.
func (c *Container) HealthCheckAll() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.components))
	for name := range c.components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.components[name].HealthCheck(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
