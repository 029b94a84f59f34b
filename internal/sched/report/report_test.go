package report

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"ticksched/internal/sched"
	logx "ticksched/pkg/logx"
)

func sampleEngine(t *testing.T) (*sched.Engine, sched.ID, sched.ID) {
	t.Helper()
	e := sched.New(sched.Config{}, logx.Nop(), nil)
	a := e.Create(10, sched.RecurForever, false, func() {})
	b := e.Create(5, 2, true, func() {})
	if a == 0 || b == 0 {
		t.Fatal("Create failed")
	}
	e.Disable(b)
	return e, a, b
}

func TestSchedulesReport(t *testing.T) {
	t.Parallel()
	e, a, b := sampleEngine(t)

	out := Schedules(e.Snapshot(), false)
	if !strings.HasPrefix(out, "[ID, ENABLED,") {
		t.Fatalf("missing header: %q", out)
	}
	if lines := strings.Count(out, "\n"); lines != 3 { // header + 2 rows
		t.Fatalf("line count = %d, want 3:\n%s", lines, out)
	}

	active := Schedules(e.Snapshot(), true)
	if strings.Contains(active, "["+itoa(b)+",") {
		t.Fatalf("active-only report contains disabled schedule:\n%s", active)
	}
	if !strings.Contains(active, "["+itoa(a)+",") {
		t.Fatalf("active-only report misses enabled schedule:\n%s", active)
	}
}

func itoa(id sched.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestScheduleReportNotFound(t *testing.T) {
	t.Parallel()
	e, _, _ := sampleEngine(t)
	if got := Schedule(e.Snapshot(), 9999); got != "NOT FOUND" {
		t.Fatalf("Schedule(unknown) = %q", got)
	}
}

func TestSchedulesReportEmpty(t *testing.T) {
	t.Parallel()
	e := sched.New(sched.Config{}, logx.Nop(), nil)
	if got := Schedules(e.Snapshot(), false); got != "NO SCHEDULES" {
		t.Fatalf("empty registry report = %q", got)
	}
}

func TestProfilingReport(t *testing.T) {
	t.Parallel()
	e, a, b := sampleEngine(t)
	e.BeginProfiling(a)

	out := Profiling(e.Snapshot(), 0)
	if !strings.Contains(out, "["+itoa(a)+", YES, 0,") {
		t.Fatalf("profiled schedule missing:\n%s", out)
	}
	if strings.Contains(out, "["+itoa(b)+",") {
		t.Fatalf("unprofiled schedule present:\n%s", out)
	}

	if got := Profiling(e.Snapshot(), b); got != "NOT FOUND" {
		t.Fatalf("Profiling(unprofiled id) = %q", got)
	}
}

func TestOverheadReport(t *testing.T) {
	t.Parallel()
	snap := sched.Snapshot{TotalLoops: 10, ProductiveLoops: 4, Overhead: 2 * time.Microsecond}
	got := Overhead(snap)
	want := "total_loops=10 productive_loops=4 overhead=2µs"
	if got != want {
		t.Fatalf("Overhead = %q, want %q", got, want)
	}
}
