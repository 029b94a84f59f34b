// Package ticker drives a sched.Engine from a wall-clock tick source.
//
// The engine core is single-threaded by contract; Driver provides the
// external synchronization it requires. All engine access — the tick loop
// and every registry/profiling wrapper — runs under one mutex, so a mutation
// can never race an in-progress advance/service pass.
//
// One tick of engine time corresponds to Config.Resolution of wall time.
// Polling callers that want to own the cadence themselves can skip Start()
// and call Tick() directly.
package ticker

import (
	"context"
	"sync"
	"time"

	"ticksched/internal/sched"
	logx "ticksched/pkg/logx"
)

// DefaultResolution is used when the config does not set one.
const DefaultResolution = 10 * time.Millisecond

// Config controls the tick loop.
type Config struct {
	// Resolution is the wall-clock duration of one tick.
	Resolution time.Duration
}

func (c Config) withDefaults() Config {
	if c.Resolution <= 0 {
		c.Resolution = DefaultResolution
	}
	return c
}

// Driver owns an Engine and serializes all access to it.
type Driver struct {
	mu  sync.Mutex
	log logx.Logger
	cfg Config
	eng *sched.Engine

	cancel context.CancelFunc
	done   chan struct{}
}

// New wraps eng. The driver takes ownership: after New, all engine access
// must go through the driver.
func New(cfg Config, eng *sched.Engine, log logx.Logger) *Driver {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Driver{cfg: cfg.withDefaults(), eng: eng, log: log}
}

// Start launches the tick loop. Idempotent while running.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	d.startLocked(ctx)
}

func (d *Driver) startLocked(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel
	d.done = make(chan struct{})
	res := d.cfg.Resolution
	go d.loop(loopCtx, res, d.done)
	d.log.Info("tick loop started", logx.Duration("resolution", res))
}

// Stop halts the tick loop, waiting for an in-flight pass to finish or ctx
// to expire. Registered schedules stay in place for a later Start.
func (d *Driver) Stop(ctx context.Context) {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	d.cancel = nil
	d.done = nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		// best-effort
	}
	d.log.Info("tick loop stopped")
}

// Apply updates the tick resolution, restarting a running loop when it
// changed.
func (d *Driver) Apply(cfg Config) {
	cfg = cfg.withDefaults()

	d.mu.Lock()
	if cfg.Resolution == d.cfg.Resolution {
		d.cfg = cfg
		d.mu.Unlock()
		return
	}
	d.cfg = cfg
	cancel := d.cancel
	done := d.done
	d.cancel = nil
	d.done = nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}

	// Restart the loop on the new cadence.
	cancel()
	<-done
	d.mu.Lock()
	if d.cancel == nil {
		d.startLocked(context.Background())
	}
	d.mu.Unlock()
	d.log.Info("tick resolution changed", logx.Duration("resolution", cfg.Resolution))
}

// Tick advances engine time by n ticks and services due schedules. This is
// the manual pump for polling tick sources and tests.
func (d *Driver) Tick(n uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eng.Advance(n)
	d.eng.Service()
}

func (d *Driver) loop(ctx context.Context, res time.Duration, done chan struct{}) {
	defer close(done)
	tk := time.NewTicker(res)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			d.mu.Lock()
			d.eng.Advance(1)
			d.eng.Service()
			d.mu.Unlock()
		}
	}
}
