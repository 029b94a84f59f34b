package sched

import "time"

// Advance pushes every enabled schedule forward by elapsed ticks.
//
// Countdowns clamp at zero; a schedule reaching zero is marked fire-pending
// and stays at zero until Service() dispatches it (or it is re-armed), so a
// Service running at a different cadence observes exactly which schedules
// came due since its last pass. Disabled schedules are not evaluated.
func (e *Engine) Advance(elapsed uint64) {
	if elapsed == 0 {
		return
	}
	for _, id := range e.order {
		s := e.items[id]
		if !s.enabled {
			continue
		}
		if s.timeToWait > elapsed {
			s.timeToWait -= elapsed
			continue
		}
		s.timeToWait = 0
		s.firePend = true
	}
}

// Service invokes the callback of every fire-pending schedule, in
// registration order, then applies the recurrence policy:
//
//   - a positive recurrence counter is decremented;
//   - a counter that is (now) zero exhausts the schedule: it is disabled, or
//     deleted outright when auto-remove is set;
//   - otherwise (more firings left, or RecurForever) the countdown re-arms
//     from the period.
//
// One Service pass executes all due callbacks serially; pass latency is
// additive across them.
func (e *Engine) Service() {
	start := e.now()
	fired := 0

	// Snapshot the order: auto-removal mutates the registry mid-pass.
	due := make([]ID, len(e.order))
	copy(due, e.order)

	for _, id := range due {
		s, ok := e.items[id]
		if !ok || !s.firePend {
			continue
		}

		profiled := s.prof != nil && s.prof.active
		var cbDur time.Duration
		e.executing = s.id
		if profiled {
			t0 := e.now()
			s.cb()
			d := e.now().Sub(t0)
			if d < 0 {
				d = -d // clock rollover safety
			}
			s.prof.record(d)
			cbDur = d
		} else {
			s.cb()
		}
		e.executing = 0
		fired++
		e.publish(EventFired, s, cbDur)

		s.firePend = false
		if s.recurrence > 0 {
			s.recurrence--
		}
		if s.recurrence == 0 {
			if s.autoRemove {
				e.drop(s)
			} else {
				s.enabled = false
				s.timeToWait = s.period
				e.publish(EventExhausted, s, 0)
			}
		} else {
			s.timeToWait = s.period
		}
	}

	e.totalLoops++
	if fired > 0 {
		e.productiveLoops++
	} else {
		// Idle pass: record its cost as the overhead baseline.
		e.overhead = e.now().Sub(start)
	}
}
