package metrics

import (
	"context"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"ticksched/internal/eventbus"
	"ticksched/internal/sched"
	logx "ticksched/pkg/logx"
)

type fakeSource struct {
	snap sched.Snapshot
}

func (f *fakeSource) Snapshot() sched.Snapshot { return f.snap }

func gatherValue(t *testing.T, s *Service, name string) (float64, bool) {
	t.Helper()
	fams, err := s.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, fam := range fams {
		if fam.GetName() != name {
			continue
		}
		m := fam.GetMetric()[0]
		switch {
		case m.GetGauge() != nil:
			return m.GetGauge().GetValue(), true
		case m.GetCounter() != nil:
			return m.GetCounter().GetValue(), true
		}
	}
	return 0, false
}

func TestCollectorReportsSnapshot(t *testing.T) {
	t.Parallel()
	src := &fakeSource{snap: sched.Snapshot{
		Schedules: []sched.ScheduleInfo{
			{ID: 1, Enabled: true},
			{ID: 2, Enabled: false},
			{ID: 3, Enabled: true},
		},
		TotalLoops:      40,
		ProductiveLoops: 7,
		Overhead:        1500 * time.Microsecond,
	}}
	s := New(src, nil, logx.Nop())

	tests := []struct {
		name string
		want float64
	}{
		{"ticksched_schedules", 3},
		{"ticksched_schedules_active", 2},
		{"ticksched_service_loops_total", 40},
		{"ticksched_service_loops_productive_total", 7},
		{"ticksched_service_overhead_seconds", 0.0015},
	}
	for _, tt := range tests {
		got, ok := gatherValue(t, s, tt.name)
		if !ok {
			t.Fatalf("%s: metric not exported", tt.name)
		}
		if got != tt.want {
			t.Fatalf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEventCounter(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()

	s := New(&fakeSource{}, bus, logx.Nop())
	ctx := context.Background()
	s.Start(ctx)
	defer s.Stop(ctx)

	bus.Publish(eventbus.Event{Type: sched.EventFired, Data: sched.ScheduleEvent{ID: 1}})
	bus.Publish(eventbus.Event{Type: sched.EventFired, Data: sched.ScheduleEvent{ID: 1}})
	bus.Publish(eventbus.Event{Type: sched.EventRemoved, Data: sched.ScheduleEvent{ID: 1}})

	deadline := time.Now().Add(5 * time.Second)
	for {
		if countFor(t, s, sched.EventFired) == 2 && countFor(t, s, sched.EventRemoved) == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("fired=%v removed=%v, want 2/1",
				countFor(t, s, sched.EventFired), countFor(t, s, sched.EventRemoved))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func countFor(t *testing.T, s *Service, typ string) float64 {
	t.Helper()
	fams, err := s.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, fam := range fams {
		if fam.GetName() != "ticksched_schedule_events_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			if labelValue(m, "type") == typ {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestStartWithoutBusIsNoop(t *testing.T) {
	t.Parallel()
	s := New(&fakeSource{}, nil, logx.Nop())
	ctx := context.Background()
	s.Start(ctx)
	s.Stop(ctx)
}
