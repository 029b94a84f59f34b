package sched

import (
	"time"

	"ticksched/internal/eventbus"
	logx "ticksched/pkg/logx"
)

// Engine is the scheduler core: registry, dispatch, profiling.
//
// It is deliberately lock-free; see the package doc for the concurrency
// contract.
type Engine struct {
	log logx.Logger
	bus eventbus.Bus
	now func() time.Time

	nextID    ID
	items     map[ID]*schedule
	order     []ID // registration order; the total order Service() fires in
	executing ID   // ID of the schedule whose callback is running, 0 if none

	totalLoops      uint64
	productiveLoops uint64
	overhead        time.Duration
}

// New creates an empty engine. log and bus may be zero/nil.
func New(cfg Config, log logx.Logger, bus eventbus.Bus) *Engine {
	if log.IsZero() {
		log = logx.Nop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		log:    log,
		bus:    bus,
		now:    now,
		nextID: 1,
		items:  map[ID]*schedule{},
	}
}

// TotalLoops reports the number of Service() passes so far.
func (e *Engine) TotalLoops() uint64 { return e.totalLoops }

// ProductiveLoops reports the number of Service() passes that fired at least
// one schedule.
func (e *Engine) ProductiveLoops() uint64 { return e.productiveLoops }

// Overhead reports the measured duration of the most recent Service() pass
// that fired nothing. Callers can subtract it from busy-pass measurements as
// an idle baseline.
func (e *Engine) Overhead() time.Duration { return e.overhead }

// PeekNextID reports the ID the next Create will assign, without consuming it.
func (e *Engine) PeekNextID() ID { return e.nextID }

// Snapshot returns read-only copies of every schedule plus the loop counters.
func (e *Engine) Snapshot() Snapshot {
	infos := make([]ScheduleInfo, 0, len(e.order))
	for _, id := range e.order {
		s := e.items[id]
		info := ScheduleInfo{
			ID:          s.id,
			Period:      s.period,
			TimeToWait:  s.timeToWait,
			Recurrence:  s.recurrence,
			Enabled:     s.enabled,
			FirePending: s.firePend,
			AutoRemove:  s.autoRemove,
		}
		if s.prof != nil {
			info.Profile = &ProfileStats{
				Active: s.prof.active,
				Last:   s.prof.last,
				Best:   s.prof.best,
				Worst:  s.prof.worst,
				Count:  s.prof.count,
			}
		}
		infos = append(infos, info)
	}
	return Snapshot{
		Schedules:       infos,
		TotalLoops:      e.totalLoops,
		ProductiveLoops: e.productiveLoops,
		Overhead:        e.overhead,
		NextID:          e.nextID,
	}
}

func (e *Engine) publish(typ string, s *schedule, d time.Duration) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(eventbus.Event{
		Type: typ,
		Data: ScheduleEvent{ID: s.id, Period: s.period, Duration: d},
	})
}

// claimID returns a fresh non-zero ID. The counter is monotonic for the life
// of the engine; removed IDs are never reassigned. On (theoretical) uint64
// wraparound the zero value is skipped, which is the documented limitation,
// not collision protection.
func (e *Engine) claimID() ID {
	id := e.nextID
	e.nextID++
	if e.nextID == 0 {
		e.nextID = 1
	}
	return id
}
