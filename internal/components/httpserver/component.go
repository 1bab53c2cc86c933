package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"go.uber.org/zap"

	"github.com/oakline/taskconsole/internal/config"
	"github.com/oakline/taskconsole/internal/consts"
	"github.com/oakline/taskconsole/internal/core"
	"github.com/oakline/taskconsole/internal/logging"
)

// RouteRegistrar wires controller routes onto the router before the server
// starts listening.
type RouteRegistrar func(r chi.Router)

type Component struct {
	*core.BaseComponent
	cfg        *config.HTTPConfig
	container  *core.Container
	router     chi.Router
	server     *http.Server
	registrars []RouteRegistrar
	extraMW    []func(http.Handler) http.Handler
	metricsFn  func(r chi.Router) // optional /metrics mount
	started    bool
}

// NewComponent builds the server component. extraDeps are component names
// the server must start after, typically the controllers its routes call.
func NewComponent(cfg *config.HTTPConfig, c *core.Container, extraDeps ...string) *Component {
	deps := append([]string{consts.COMPONENT_LOGGING}, extraDeps...)
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_HTTP_SERVER, deps...),
		cfg:           cfg,
		container:     c,
	}
}

func (hc *Component) AddRouteRegistrar(fn RouteRegistrar) error {
	if fn == nil {
		return nil
	}
	if hc.started {
		return fmt.Errorf("cannot register route: http server already started")
	}
	hc.registrars = append(hc.registrars, fn)
	return nil
}

// AddMiddleware appends middleware applied after the built-in chain.
func (hc *Component) AddMiddleware(mw func(http.Handler) http.Handler) {
	hc.extraMW = append(hc.extraMW, mw)
}

// MountMetrics asks the server to expose a metrics handler during Start.
func (hc *Component) MountMetrics(path string, h http.Handler) {
	hc.metricsFn = func(r chi.Router) { r.Handle(path, h) }
}

func (hc *Component) Router() chi.Router { return hc.router }

func (hc *Component) Start(ctx context.Context) error {
	if err := hc.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if hc.cfg == nil {
		return errors.New("http server config nil")
	}

	hc.router = chi.NewRouter()
	hc.setupMiddlewares()

	if hc.cfg.EnableHealth {
		hc.router.Get("/healthz", hc.healthHandler)
	}
	if hc.metricsFn != nil {
		hc.metricsFn(hc.router)
	}
	for _, reg := range hc.registrars {
		reg(hc.router)
	}

	hc.server = &http.Server{
		Addr:         hc.cfg.Address,
		ReadTimeout:  hc.cfg.ReadTimeout.Std(),
		WriteTimeout: hc.cfg.WriteTimeout.Std(),
		IdleTimeout:  hc.cfg.IdleTimeout.Std(),
		Handler:      hc.router,
	}

	go func() {
		logging.Infof(ctx, "http server listening on %s", hc.cfg.Address)
		if err := hc.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errorf(ctx, "http server error: %v", err)
		}
	}()

	hc.started = true
	return nil
}

func (hc *Component) Stop(ctx context.Context) error {
	defer hc.BaseComponent.Stop(ctx)
	if !hc.started || hc.server == nil {
		return nil
	}
	timeout := hc.cfg.GracefulTimeout.Std()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	stopCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := hc.server.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("http server graceful shutdown: %w", err)
	}
	logging.Info(ctx, "http server stopped")
	return nil
}

func (hc *Component) HealthCheck() error {
	if err := hc.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if !hc.started {
		return fmt.Errorf("http server not started")
	}
	return nil
}

func (hc *Component) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := hc.container.HealthCheckAll(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(err.Error()))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (hc *Component) setupMiddlewares() {
	hc.router.Use(middleware.RequestID)
	hc.router.Use(middleware.RealIP)
	hc.router.Use(otelchi.Middleware("taskconsole", otelchi.WithChiRoutes(hc.router)))
	hc.router.Use(recoverJSON)
	timeout := hc.cfg.RequestTimeout.Std()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	hc.router.Use(middleware.Timeout(timeout))
	hc.router.Use(accessLog)
	for _, mw := range hc.extraMW {
		hc.router.Use(mw)
	}
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := context.WithValue(r.Context(), logging.TraceIDKey, middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.Info(ctx, "http_access",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", ww.Status()),
			zap.Duration("dur", time.Since(start)),
		)
	})
}

// recoverJSON keeps panics inside the error envelope contract instead of
// chi's plain-text 500.
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.Error(r.Context(), "panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"message": "Internal Server Error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
