package sched

// BeginProfiling attaches a profiling record to the schedule, or resumes an
// existing one. Idempotent: starting profiling on an already-active profile
// leaves accumulated statistics untouched. No-op on unknown IDs.
func (e *Engine) BeginProfiling(id ID) {
	s, ok := e.items[id]
	if !ok {
		return
	}
	if s.prof == nil {
		s.prof = &profile{}
	}
	s.prof.active = true
}

// StopProfiling pauses measurement without discarding collected data.
func (e *Engine) StopProfiling(id ID) {
	s, ok := e.items[id]
	if !ok || s.prof == nil {
		return
	}
	s.prof.active = false
}

// ClearProfilingData resets the counters but preserves the active flag, so a
// paused profile stays paused and a running one keeps collecting.
func (e *Engine) ClearProfilingData(id ID) {
	s, ok := e.items[id]
	if !ok || s.prof == nil {
		return
	}
	active := s.prof.active
	*s.prof = profile{active: active}
}

// IsProfiled reports whether the schedule exists, has a profiling record,
// and is actively collecting.
func (e *Engine) IsProfiled(id ID) bool {
	s, ok := e.items[id]
	return ok && s.prof != nil && s.prof.active
}
