package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// traceComponent records start/stop order into a shared slice.
type traceComponent struct {
	*BaseComponent
	trace    *[]string
	startErr error
}

func newTraceComponent(trace *[]string, name string, deps ...string) *traceComponent {
	return &traceComponent{BaseComponent: NewBaseComponent(name, deps...), trace: trace}
}

func (c *traceComponent) Start(ctx context.Context) error {
	if c.startErr != nil {
		return c.startErr
	}
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	*c.trace = append(*c.trace, "start:"+c.Name())
	return nil
}

func (c *traceComponent) Stop(ctx context.Context) error {
	*c.trace = append(*c.trace, "stop:"+c.Name())
	return c.BaseComponent.Stop(ctx)
}

func indexOf(trace []string, entry string) int {
	for i, e := range trace {
		if e == entry {
			return i
		}
	}
	return -1
}

func TestStartAllRespectsDependencyOrder(t *testing.T) {
	var trace []string
	c := NewContainer()
	// registration order deliberately reversed
	for _, comp := range []Component{
		newTraceComponent(&trace, "server", "service"),
		newTraceComponent(&trace, "service", "db", "cache"),
		newTraceComponent(&trace, "cache"),
		newTraceComponent(&trace, "db", "logger"),
		newTraceComponent(&trace, "logger"),
	} {
		if err := c.Register(comp); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	if err := c.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if len(trace) != 5 {
		t.Fatalf("trace = %v", trace)
	}
	before := func(a, b string) {
		t.Helper()
		if indexOf(trace, "start:"+a) > indexOf(trace, "start:"+b) {
			t.Fatalf("%s started after %s: %v", a, b, trace)
		}
	}
	before("logger", "db")
	before("db", "service")
	before("cache", "service")
	before("service", "server")
}

func TestStopAllReversesStartOrder(t *testing.T) {
	var trace []string
	c := NewContainer()
	_ = c.Register(newTraceComponent(&trace, "db"))
	_ = c.Register(newTraceComponent(&trace, "service", "db"))
	if err := c.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}

	trace = trace[:0]
	c.StopAll(context.Background())
	if len(trace) != 2 || trace[0] != "stop:service" || trace[1] != "stop:db" {
		t.Fatalf("stop trace = %v", trace)
	}

	// StopAll is idempotent
	trace = trace[:0]
	c.StopAll(context.Background())
	if len(trace) != 0 {
		t.Fatalf("second StopAll stopped components again: %v", trace)
	}
}

func TestStartAllRollsBackOnFailure(t *testing.T) {
	var trace []string
	c := NewContainer()
	_ = c.Register(newTraceComponent(&trace, "db"))
	broken := newTraceComponent(&trace, "service", "db")
	broken.startErr = errors.New("no credentials")
	_ = c.Register(broken)

	err := c.StartAll(context.Background())
	if err == nil {
		t.Fatalf("expected start failure")
	}
	// db came up before service failed, so it must be stopped again
	if indexOf(trace, "stop:db") < 0 {
		t.Fatalf("started component not rolled back: %v", trace)
	}
}

func TestCircularDependencyDetected(t *testing.T) {
	var trace []string
	c := NewContainer()
	_ = c.Register(newTraceComponent(&trace, "a", "b"))
	_ = c.Register(newTraceComponent(&trace, "b", "a"))
	if err := c.StartAll(context.Background()); err == nil {
		t.Fatalf("circular dependency not detected")
	}
}

func TestUnknownDependencyDetected(t *testing.T) {
	var trace []string
	c := NewContainer()
	_ = c.Register(newTraceComponent(&trace, "a", "ghost"))
	if err := c.StartAll(context.Background()); err == nil {
		t.Fatalf("unknown dependency not detected")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	var trace []string
	c := NewContainer()
	if err := c.Register(newTraceComponent(&trace, "db")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := c.Register(newTraceComponent(&trace, "db")); err == nil {
		t.Fatalf("duplicate registration accepted")
	}
}

func TestHealthCheckAllNamesFailingComponent(t *testing.T) {
	var trace []string
	c := NewContainer()
	_ = c.Register(newTraceComponent(&trace, "db"))
	// never started, so the health check must fail and name the component
	err := c.HealthCheckAll()
	if err == nil {
		t.Fatalf("expected unhealthy")
	}
	if !strings.Contains(err.Error(), "db") {
		t.Fatalf("error does not name the component: %v", err)
	}
}

func TestResolve(t *testing.T) {
	var trace []string
	c := NewContainer()
	comp := newTraceComponent(&trace, "db")
	_ = c.Register(comp)

	got, err := c.Resolve("db")
	if err != nil || got != Component(comp) {
		t.Fatalf("Resolve = %v, %v", got, err)
	}
	if _, err := c.Resolve("missing"); err == nil {
		t.Fatalf("Resolve of unknown component succeeded")
	}
}
