package sched

import (
	"time"
)

// ID identifies a schedule within one Engine. Zero is never assigned and
// doubles as the universal "not found / create failed" sentinel.
type ID uint64

// Callback is the work a schedule performs when it fires. It must be short,
// non-blocking, and must not mutate the registry of the engine calling it
// (Remove of the executing schedule itself being the one tolerated case).
type Callback func()

// RecurForever makes a schedule fire for as long as it stays enabled.
const RecurForever = -1

// Config controls an Engine.
type Config struct {
	// Now supplies wall-clock timestamps for profiling and overhead
	// measurement. Defaults to time.Now. Scheduling itself never reads it;
	// time only advances through Advance().
	Now func() time.Time
}

// schedule is a registry record. All mutation happens inside the Engine.
type schedule struct {
	id         ID
	period     uint64 // ticks between firings; always >= 1
	timeToWait uint64 // remaining ticks until the next fire
	recurrence int    // RecurForever, 0 (exhausted on next fire), or firings left
	enabled    bool
	firePend   bool
	autoRemove bool
	cb         Callback
	prof       *profile
}

// profile holds per-schedule execution-time statistics. Present only after
// BeginProfiling; pure bookkeeping with no effect on dispatch.
type profile struct {
	active bool
	last   time.Duration
	best   time.Duration
	worst  time.Duration
	count  uint64
}

func (p *profile) record(d time.Duration) {
	if p.count == 0 {
		p.best = d
		p.worst = d
	} else {
		if d < p.best {
			p.best = d
		}
		if d > p.worst {
			p.worst = d
		}
	}
	p.last = d
	p.count++
}

// ProfileStats is a read-only copy of a schedule's profiling record.
type ProfileStats struct {
	Active bool
	Last   time.Duration
	Best   time.Duration
	Worst  time.Duration
	Count  uint64
}

// ScheduleInfo is a read-only copy of one schedule's timing fields,
// used by diagnostics and report formatting.
type ScheduleInfo struct {
	ID          ID
	Period      uint64
	TimeToWait  uint64
	Recurrence  int
	Enabled     bool
	FirePending bool
	AutoRemove  bool
	Profile     *ProfileStats // nil unless profiling was started
}

// Snapshot is a lightweight view for diagnostics. Schedules appear in
// registration order.
type Snapshot struct {
	Schedules       []ScheduleInfo
	TotalLoops      uint64
	ProductiveLoops uint64
	Overhead        time.Duration
	NextID          ID
}

// Event types published on the bus for schedule lifecycle changes.
const (
	EventCreated   = "schedule.created"
	EventFired     = "schedule.fired"
	EventExhausted = "schedule.exhausted"
	EventRemoved   = "schedule.removed"
)

// ScheduleEvent is the payload of all schedule lifecycle events.
type ScheduleEvent struct {
	ID       ID            `json:"id"`
	Period   uint64        `json:"period"`
	Duration time.Duration `json:"duration,omitempty"` // callback duration, fired events with profiling only
}
