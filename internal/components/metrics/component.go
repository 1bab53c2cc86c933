package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oakline/taskconsole/internal/config"
	"github.com/oakline/taskconsole/internal/consts"
	"github.com/oakline/taskconsole/internal/core"
)

// Component owns the prometheus registry. The http server mounts Handler()
// at the configured path.
type Component struct {
	*core.BaseComponent
	cfg       *config.MetricsConfig
	registry  *prometheus.Registry
	namespace string
}

// NewComponent builds the registry immediately so metric vectors can be
// declared during wiring, before the lifecycle starts.
func NewComponent(cfg *config.MetricsConfig) *Component {
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_METRICS, consts.COMPONENT_LOGGING),
		cfg:           cfg,
		registry:      prometheus.NewRegistry(),
		namespace:     cfg.Namespace,
	}
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if c.cfg.CollectGo {
		_ = c.registry.Register(collectors.NewGoCollector())
	}
	if c.cfg.CollectProcess {
		_ = c.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return nil
}

func (c *Component) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if c.registry == nil {
		return fmt.Errorf("metrics registry not initialized")
	}
	return nil
}

func (c *Component) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Component) Path() string { return c.cfg.Path }

func (c *Component) fqName(name string) string {
	if c.namespace == "" {
		return name
	}
	return c.namespace + "_" + name
}

func (c *Component) NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: c.fqName(name),
		Help: help,
	}, labels)
	_ = c.registry.Register(cv)
	return cv
}

func (c *Component) NewHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    c.fqName(name),
		Help:    help,
		Buckets: buckets,
	}, labels)
	_ = c.registry.Register(hv)
	return hv
}
