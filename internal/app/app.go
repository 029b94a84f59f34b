// Package app wires the runtime together: config, logging, event bus,
// scheduler engine, tick driver, metrics and the diagnostics server.
package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"ticksched/internal/config"
	"ticksched/internal/diag"
	"ticksched/internal/eventbus"
	"ticksched/internal/metrics"
	"ticksched/internal/sched"
	"ticksched/internal/ticker"
	logx "ticksched/pkg/logx"
)

type App struct {
	cfgPath string
	cfgm    *config.Manager

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	driver *ticker.Driver
	mets   *metrics.Service
	diag   *diag.Service

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New loads the configuration and builds all services, stopped. An empty
// cfgPath runs on defaults without file watching.
func New(cfgPath string) (*App, error) {
	cfgPath = strings.TrimSpace(cfgPath)

	var (
		cfgm *config.Manager
		cfg  *config.Config
	)
	if cfgPath == "" {
		cfg = config.Default()
	} else {
		cfgm = config.NewManager(cfgPath)
		c, err := cfgm.Load()
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
		File: logx.FileConfig{
			Enabled: cfg.Log.File.Enabled,
			Path:    cfg.Log.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	if cfgm != nil {
		cfgm.SetLogger(log.With(logx.String("comp", "config")))
	}

	bus := eventbus.New()

	eng := sched.New(sched.Config{}, log.With(logx.String("comp", "sched")), bus)

	res, err := cfg.TickResolution()
	if err != nil {
		// Load() validated already; keep the guard for programmatic callers.
		return nil, err
	}
	driver := ticker.New(ticker.Config{Resolution: res}, eng, log.With(logx.String("comp", "ticker")))

	mets := metrics.New(driver, bus, log.With(logx.String("comp", "metrics")))

	diagSvc := diag.New(mapDiagConfig(cfg), driver, mets.Registry(), log.With(logx.String("comp", "diag")))

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logs,
		bus:     bus,
		driver:  driver,
		mets:    mets,
		diag:    diagSvc,
	}, nil
}

// Scheduler exposes the synchronized scheduler facade for registering work.
func (a *App) Scheduler() *ticker.Driver { return a.driver }

// Bus exposes the lifecycle event bus for additional observers.
func (a *App) Bus() eventbus.Bus { return a.bus }

// Start launches the tick loop, metrics consumer, diagnostics server and the
// config watch/reload goroutines. Idempotent while running.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel

	a.driver.Start(runCtx)
	a.mets.Start(runCtx)
	if err := a.diag.Start(runCtx); err != nil {
		// Diagnostics are optional observability; never fatal for the app.
		a.log.Warn("diag server unavailable", logx.Err(err))
	}

	// Debug trace of lifecycle events. Components that need the bus subscribe
	// themselves; this is only for operators reading logs.
	events, unsub := a.bus.Subscribe(128)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer unsub()
		for {
			select {
			case <-runCtx.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	}()

	if a.cfgm != nil {
		sub := a.cfgm.Subscribe(8)
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			defer a.cfgm.Unsubscribe(sub)
			for {
				select {
				case <-runCtx.Done():
					return
				case newCfg, ok := <-sub:
					if !ok {
						return
					}
					// Coalesce bursts: keep only the latest config.
					for {
						select {
						case newer := <-sub:
							if newer != nil {
								newCfg = newer
							}
						default:
							goto APPLY
						}
					}
				APPLY:
					a.applyConfig(runCtx, newCfg)
				}
			}
		}()

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			_ = a.cfgm.Watch(runCtx)
		}()
	}

	a.log.Info("started", logx.String("config", a.cfgPath))
	return nil
}

func (a *App) applyConfig(ctx context.Context, cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
		File: logx.FileConfig{
			Enabled: cfg.Log.File.Enabled,
			Path:    cfg.Log.File.Path,
		},
	})

	if res, err := cfg.TickResolution(); err == nil {
		a.driver.Apply(ticker.Config{Resolution: res})
	} else {
		a.log.Warn("invalid ticker config; keeping previous", logx.Err(err))
	}

	if err := a.diag.Apply(ctx, mapDiagConfig(cfg)); err != nil {
		a.log.Warn("invalid diag config; keeping previous", logx.Err(err))
	}

	a.log.Info("config reloaded")
}

// Stop shuts everything down, bounded by ctx. Safe to call more than once.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()
	if cancel == nil {
		return nil
	}

	a.log.Info("stopping")
	cancel()

	a.diag.Stop(ctx)
	a.mets.Stop(ctx)
	a.driver.Stop(ctx)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("background loops still draining at deadline")
	}

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

func mapDiagConfig(cfg *config.Config) diag.Config {
	return diag.Config{
		Enabled:      cfg.Diag.Enabled,
		Addr:         cfg.Diag.Address,
		RatePerSec:   cfg.Diag.RatePerSec,
		Pprof:        cfg.Diag.Pprof,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}
