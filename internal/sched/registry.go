package sched

import (
	logx "ticksched/pkg/logx"
)

// Create registers a new schedule and returns its ID, or 0 on failure.
//
// period is the tick interval between firings and must be >= 1; a zero
// period is rejected (a schedule that "fires every tick" is period 1).
// recurrence is the number of firings before auto-disable, or RecurForever.
// The schedule starts enabled with a full countdown.
func (e *Engine) Create(period uint64, recurrence int, autoRemove bool, cb Callback) ID {
	if period == 0 || cb == nil {
		return 0
	}
	s := &schedule{
		id:         e.claimID(),
		period:     period,
		timeToWait: period,
		recurrence: recurrence,
		enabled:    true,
		autoRemove: autoRemove,
		cb:         cb,
	}
	e.items[s.id] = s
	e.order = append(e.order, s.id)
	e.log.Debug("schedule created",
		logx.Uint64("id", uint64(s.id)),
		logx.Uint64("period", period),
		logx.Int("recurrence", recurrence),
		logx.Bool("auto_remove", autoRemove))
	e.publish(EventCreated, s, 0)
	return s.id
}

// Alter rewrites the timing fields and callback of an existing schedule.
// Like Create it rejects a zero period or nil callback. Any pending fire is
// cleared and the countdown re-arms from the new period; enablement is left
// untouched.
func (e *Engine) Alter(id ID, period uint64, recurrence int, autoRemove bool, cb Callback) bool {
	if period == 0 || cb == nil {
		return false
	}
	s, ok := e.items[id]
	if !ok {
		return false
	}
	s.firePend = false
	s.period = period
	s.timeToWait = period
	s.recurrence = recurrence
	s.autoRemove = autoRemove
	s.cb = cb
	return true
}

// AlterCallback swaps only the callback.
func (e *Engine) AlterCallback(id ID, cb Callback) bool {
	if cb == nil {
		return false
	}
	s, ok := e.items[id]
	if !ok {
		return false
	}
	s.cb = cb
	return true
}

// AlterAutoRemove swaps only the auto-remove policy.
func (e *Engine) AlterAutoRemove(id ID, autoRemove bool) bool {
	s, ok := e.items[id]
	if !ok {
		return false
	}
	s.autoRemove = autoRemove
	return true
}

// AlterRecurrence swaps the recurrence counter and clears any pending fire.
func (e *Engine) AlterRecurrence(id ID, recurrence int) bool {
	s, ok := e.items[id]
	if !ok {
		return false
	}
	s.firePend = false
	s.recurrence = recurrence
	return true
}

// AlterPeriod swaps the period, clears any pending fire and re-arms the
// countdown from the new period.
func (e *Engine) AlterPeriod(id ID, period uint64) bool {
	if period == 0 {
		return false
	}
	s, ok := e.items[id]
	if !ok {
		return false
	}
	s.firePend = false
	s.period = period
	s.timeToWait = period
	return true
}

// Remove deletes the schedule regardless of its enabled/pending state.
//
// If called for the schedule whose callback is currently executing, removal
// is deferred to the end of its own firing (recurrence zeroed, auto-remove
// set) so the dispatch pass never frees the record under itself.
func (e *Engine) Remove(id ID) bool {
	s, ok := e.items[id]
	if !ok {
		return false
	}
	if id == e.executing {
		s.autoRemove = true
		s.recurrence = 0
		return true
	}
	e.drop(s)
	return true
}

// drop unlinks the record and announces the removal.
func (e *Engine) drop(s *schedule) {
	delete(e.items, s.id)
	for i, id := range e.order {
		if id == s.id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.log.Debug("schedule removed", logx.Uint64("id", uint64(s.id)))
	e.publish(EventRemoved, s, 0)
}

// Enable re-enables a previously disabled schedule. The countdown,
// recurrence counter and profiling data are left as they are.
func (e *Engine) Enable(id ID) bool {
	s, ok := e.items[id]
	if !ok {
		return false
	}
	s.enabled = true
	return true
}

// Disable turns a schedule off without removing it. A pending fire is
// cleared and the countdown re-arms from the period, so re-enabling never
// fires earlier than one full period.
func (e *Engine) Disable(id ID) bool {
	s, ok := e.items[id]
	if !ok {
		return false
	}
	s.enabled = false
	s.firePend = false
	s.timeToWait = s.period
	return true
}

// Delay sets the countdown to ticks for this occurrence only, leaving the
// steady period and enablement unchanged.
func (e *Engine) Delay(id ID, ticks uint64) bool {
	s, ok := e.items[id]
	if !ok {
		return false
	}
	s.timeToWait = ticks
	return true
}

// Rearm resets the countdown to the schedule's canonical period and enables
// it. Equivalent to Delay(id, period).
func (e *Engine) Rearm(id ID) bool {
	s, ok := e.items[id]
	if !ok {
		return false
	}
	s.timeToWait = s.period
	s.enabled = true
	return true
}

// TotalCount reports the number of schedules currently registered.
func (e *Engine) TotalCount() int { return len(e.order) }

// ActiveCount reports the number of enabled schedules.
func (e *Engine) ActiveCount() int {
	n := 0
	for _, s := range e.items {
		if s.enabled {
			n++
		}
	}
	return n
}

// IsEnabled reports whether the schedule exists and is enabled.
func (e *Engine) IsEnabled(id ID) bool {
	s, ok := e.items[id]
	return ok && s.enabled
}

// WillFireAgain reports whether the schedule exists, is enabled, and has at
// least one firing left before it might be auto-disabled or reaped.
func (e *Engine) WillFireAgain(id ID) bool {
	s, ok := e.items[id]
	if !ok || !s.enabled {
		return false
	}
	return s.recurrence == RecurForever || s.recurrence > 0
}
