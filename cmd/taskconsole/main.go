package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/oakline/taskconsole/internal/api"
	"github.com/oakline/taskconsole/internal/auth"
	"github.com/oakline/taskconsole/internal/components/httpserver"
	"github.com/oakline/taskconsole/internal/components/metrics"
	"github.com/oakline/taskconsole/internal/components/postgres"
	"github.com/oakline/taskconsole/internal/components/redisc"
	"github.com/oakline/taskconsole/internal/components/telemetry"
	"github.com/oakline/taskconsole/internal/config"
	"github.com/oakline/taskconsole/internal/consts"
	"github.com/oakline/taskconsole/internal/core"
	"github.com/oakline/taskconsole/internal/dao"
	"github.com/oakline/taskconsole/internal/logging"
	"github.com/oakline/taskconsole/internal/service"
)

func main() {
	configPath := flag.String("config", consts.DEFAULT_CONFIG_PATH, "path to yaml config")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("taskconsole: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Postgres == nil {
		return fmt.Errorf("postgres section is required")
	}
	if cfg.Redis == nil {
		return fmt.Errorf("redis section is required (session store)")
	}

	container := core.NewContainer()

	logComp := logging.NewComponent(cfg.Logging)
	pgComp := postgres.NewComponent(cfg.Postgres)
	redisComp := redisc.NewComponent(cfg.Redis)
	sessionStore := auth.NewRedisSessionStore(redisComp)
	taskDao := dao.NewTaskDao(pgComp)
	taskSvc := service.NewTaskService(taskDao)
	taskCtrl := api.NewTaskController(taskSvc)
	httpComp := httpserver.NewComponent(cfg.HTTPServer, container, consts.COMP_CTRL_TASK, consts.COMP_SESSION_STORE)

	comps := []core.Component{
		logComp, pgComp, redisComp, sessionStore,
		taskDao.(core.Component), taskSvc, taskCtrl, httpComp,
	}

	if cfg.Telemetry != nil {
		comps = append(comps, telemetry.NewComponent(cfg.Telemetry))
	}
	if cfg.Metrics != nil {
		metricsComp := metrics.NewComponent(cfg.Metrics)
		comps = append(comps, metricsComp)
		httpComp.AddMiddleware(metrics.NewHTTPMetrics(metricsComp).Middleware)
		httpComp.MountMetrics(metricsComp.Path(), metricsComp.Handler())
	}

	for _, comp := range comps {
		if err := container.Register(comp); err != nil {
			return err
		}
	}

	if err := httpComp.AddRouteRegistrar(func(r chi.Router) {
		taskCtrl.Register(r, sessionStore)
	}); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := container.StartAll(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	container.StopAll(context.Background())
	return nil
}
