// Package metrics exposes scheduler state to Prometheus.
//
// Two feeds: a Collector that reads engine snapshots on scrape (counts, loop
// counters, overhead baseline), and a bus subscription counting schedule
// lifecycle events as they happen.
package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"ticksched/internal/eventbus"
	"ticksched/internal/sched"
	logx "ticksched/pkg/logx"
)

// Source provides point-in-time scheduler state; satisfied by ticker.Driver.
type Source interface {
	Snapshot() sched.Snapshot
}

// Service owns the registry, the snapshot collector and the bus consumer.
type Service struct {
	log logx.Logger
	src Source
	bus eventbus.Bus
	reg *prometheus.Registry

	events *prometheus.CounterVec

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(src Source, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log: log,
		src: src,
		bus: bus,
		reg: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticksched_schedule_events_total",
			Help: "Schedule lifecycle events, by event type.",
		}, []string{"type"}),
	}
	s.reg.MustRegister(s.events, newCollector(src))
	return s
}

// Registry returns the private registry for the /metrics handler.
func (s *Service) Registry() *prometheus.Registry { return s.reg }

// Start begins consuming bus events. Idempotent while running; no-op
// without a bus.
func (s *Service) Start(ctx context.Context) {
	if s.bus == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})

	ch, unsub := s.bus.Subscribe(64)
	go func(done chan struct{}) {
		defer close(done)
		defer unsub()
		for {
			select {
			case <-runCtx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				s.events.WithLabelValues(ev.Type).Inc()
			}
		}
	}(s.done)
}

// Stop halts the bus consumer.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// collector converts a snapshot to metrics on every scrape.
type collector struct {
	src Source

	schedules       *prometheus.Desc
	active          *prometheus.Desc
	loops           *prometheus.Desc
	productiveLoops *prometheus.Desc
	overhead        *prometheus.Desc
}

func newCollector(src Source) *collector {
	return &collector{
		src: src,
		schedules: prometheus.NewDesc("ticksched_schedules",
			"Number of registered schedules.", nil, nil),
		active: prometheus.NewDesc("ticksched_schedules_active",
			"Number of enabled schedules.", nil, nil),
		loops: prometheus.NewDesc("ticksched_service_loops_total",
			"Service passes executed.", nil, nil),
		productiveLoops: prometheus.NewDesc("ticksched_service_loops_productive_total",
			"Service passes that fired at least one schedule.", nil, nil),
		overhead: prometheus.NewDesc("ticksched_service_overhead_seconds",
			"Duration of the most recent idle service pass.", nil, nil),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.schedules
	ch <- c.active
	ch <- c.loops
	ch <- c.productiveLoops
	ch <- c.overhead
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.src.Snapshot()
	active := 0
	for _, s := range snap.Schedules {
		if s.Enabled {
			active++
		}
	}
	ch <- prometheus.MustNewConstMetric(c.schedules, prometheus.GaugeValue, float64(len(snap.Schedules)))
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(active))
	ch <- prometheus.MustNewConstMetric(c.loops, prometheus.CounterValue, float64(snap.TotalLoops))
	ch <- prometheus.MustNewConstMetric(c.productiveLoops, prometheus.CounterValue, float64(snap.ProductiveLoops))
	ch <- prometheus.MustNewConstMetric(c.overhead, prometheus.GaugeValue, snap.Overhead.Seconds())
}
