// Package report renders plain-text diagnostic tables over sched snapshots.
//
// The format is for operators reading a terminal or a /api/* endpoint; it is
// not a stable machine interface. Formatting works on read-only Snapshot
// copies, so it never touches a live engine.
package report

import (
	"fmt"
	"strings"

	"ticksched/internal/sched"
)

const (
	scheduleHeader  = "[ID, ENABLED, TTW, PERIOD, RECURS, PENDING, AUTOREMOVE, PROFILED]"
	profilingHeader = "[ID, PROFILING, EXECUTED, LAST, BEST, WORST]"

	noSchedules = "NO SCHEDULES"
	notFound    = "NOT FOUND"
)

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}

// Schedules renders the timing fields of all schedules in the snapshot, or
// only the enabled ones when activeOnly is set.
func Schedules(snap sched.Snapshot, activeOnly bool) string {
	var b strings.Builder
	b.WriteString(scheduleHeader)
	b.WriteByte('\n')

	n := 0
	for _, s := range snap.Schedules {
		if activeOnly && !s.Enabled {
			continue
		}
		writeScheduleRow(&b, s)
		n++
	}
	if n == 0 {
		return noSchedules
	}
	return b.String()
}

// Schedule renders a single schedule's timing fields, or a not-found notice.
func Schedule(snap sched.Snapshot, id sched.ID) string {
	for _, s := range snap.Schedules {
		if s.ID != id {
			continue
		}
		var b strings.Builder
		b.WriteString(scheduleHeader)
		b.WriteByte('\n')
		writeScheduleRow(&b, s)
		return b.String()
	}
	return notFound
}

func writeScheduleRow(b *strings.Builder, s sched.ScheduleInfo) {
	profiled := s.Profile != nil && s.Profile.Active
	fmt.Fprintf(b, "[%d, %s, %d, %d, %d, %s, %s, %s]\n",
		s.ID, yesNo(s.Enabled), s.TimeToWait, s.Period, s.Recurrence,
		yesNo(s.FirePending), yesNo(s.AutoRemove), yesNo(profiled))
}

// Profiling renders the profiling statistics of one schedule (id != 0) or of
// every schedule that has a profiling record (id == 0).
func Profiling(snap sched.Snapshot, id sched.ID) string {
	var b strings.Builder
	b.WriteString(profilingHeader)
	b.WriteByte('\n')

	n := 0
	for _, s := range snap.Schedules {
		if s.Profile == nil {
			continue
		}
		if id != 0 && s.ID != id {
			continue
		}
		p := s.Profile
		fmt.Fprintf(&b, "[%d, %s, %d, %s, %s, %s]\n",
			s.ID, yesNo(p.Active), p.Count, p.Last, p.Best, p.Worst)
		n++
	}
	if n == 0 {
		if id != 0 {
			return notFound
		}
		return noSchedules
	}
	return b.String()
}

// Overhead renders the engine loop counters.
func Overhead(snap sched.Snapshot) string {
	return fmt.Sprintf("total_loops=%d productive_loops=%d overhead=%s",
		snap.TotalLoops, snap.ProductiveLoops, snap.Overhead)
}
